// Package fetch is a small outbound HTTP(S) client for the "GET, then
// interpret the response by content type" pattern. Every call buffers the
// body, decodes it according to its declared Content-Type and returns a
// single Result or a single error, never both.
package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"Fingerpost/internal/logging"
	"Fingerpost/internal/metrics"
)

// Client issues single outbound calls with bounded retries and redirects.
// It holds no per-call state and is safe for concurrent use.
type Client struct {
	http *http.Client
	opts Options
}

// NewClient creates a Client. Zero-valued fields of opts take their defaults.
func NewClient(opts Options) *Client {
	opts = opts.withDefaults()

	var hc http.Client
	if opts.HTTPClient != nil {
		hc = *opts.HTTPClient
	}
	// The per-call context carries the deadline; an http.Client timeout
	// shorter than Options.Timeout would otherwise cut retries short.
	hc.Timeout = 0
	hc.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}

	return &Client{http: &hc, opts: opts}
}

// Get fetches rawURL.
func (c *Client) Get(ctx context.Context, rawURL string) (*Result, error) {
	u, err := ParseURL(rawURL)
	if err != nil {
		return nil, err
	}
	return c.GetURL(ctx, u)
}

// GetURL fetches an already parsed URL.
func (c *Client) GetURL(ctx context.Context, u *url.URL) (*Result, error) {
	if err := validateURL(u); err != nil {
		return nil, err
	}
	return c.do(ctx, http.MethodGet, u, nil)
}

// ParseURL parses and validates an absolute http or https URL.
func ParseURL(rawURL string) (*url.URL, error) {
	if strings.TrimSpace(rawURL) == "" {
		return nil, fmt.Errorf("%w: empty URL", ErrInvalidURL)
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if err := validateURL(u); err != nil {
		return nil, err
	}
	return u, nil
}

func validateURL(u *url.URL) error {
	if u == nil {
		return fmt.Errorf("%w: nil URL", ErrInvalidURL)
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
	default:
		return fmt.Errorf("%w: unsupported scheme %q", ErrInvalidURL, u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("%w: missing host in %q", ErrInvalidURL, u.Redacted())
	}
	return nil
}

func (c *Client) do(ctx context.Context, method string, target *url.URL, p *payload) (*Result, error) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	res, err := c.follow(ctx, method, target, p)
	status := 0
	if res != nil {
		status = res.StatusCode
	}
	metrics.ObserveFetch(method, status, err, time.Since(start))
	if err != nil {
		slog.Debug("request failed",
			"method", method,
			"url", target.Redacted(),
			"error", err,
			logging.Since(start))
		return nil, err
	}
	slog.Debug("request finished",
		"method", method,
		"url", target.Redacted(),
		"status", status,
		logging.Since(start))
	return res, nil
}

// follow walks the redirect chain, one send per hop.
func (c *Client) follow(ctx context.Context, method string, target *url.URL, p *payload) (*Result, error) {
	current := target
	for hops := 0; ; hops++ {
		res, body, err := c.send(ctx, method, current, p)
		if err != nil {
			return nil, err
		}

		if isRedirect(res.StatusCode) {
			// Without a Location there is nothing to follow.
			if !c.opts.FollowRedirects || res.Location == "" {
				res.Redirect = true
				return res, c.decode(res, body)
			}
			if hops >= c.opts.MaxRedirects {
				return nil, fmt.Errorf("%w: stopped after %d hops at %s",
					ErrTooManyRedirects, hops, current.Redacted())
			}
			next, err := current.Parse(res.Location)
			if err != nil {
				return nil, fmt.Errorf("%w: bad Location %q: %v", ErrInvalidURL, res.Location, err)
			}
			if err := validateURL(next); err != nil {
				return nil, err
			}
			slog.Debug("following redirect",
				"from", current.Redacted(),
				"to", next.Redacted(),
				"status", res.StatusCode)

			// Same downgrade browsers apply: 303, and 301/302 after POST, become GET.
			if res.StatusCode == http.StatusSeeOther ||
				(method == http.MethodPost && res.StatusCode != http.StatusTemporaryRedirect &&
					res.StatusCode != http.StatusPermanentRedirect) {
				method = http.MethodGet
				p = nil
			}
			current = next
			continue
		}

		return res, c.decode(res, body)
	}
}

func (c *Client) decode(res *Result, body []byte) error {
	if err := res.decodeBody(body); err != nil {
		return &DecodeError{
			Err:         err,
			URL:         res.URL,
			ContentType: res.Header.Get("Content-Type"),
			StatusCode:  res.StatusCode,
		}
	}
	return nil
}

// send performs one logical request, retrying transport errors and
// retryable statuses. The returned body is not yet decoded.
func (c *Client) send(ctx context.Context, method string, u *url.URL, p *payload) (*Result, []byte, error) {
	var lastErr error

	for attempt := 0; attempt <= c.opts.Retries; attempt++ {
		if attempt > 0 {
			delay := backoff(c.opts.RetryDelay, attempt)
			slog.Debug("retrying request",
				"method", method,
				"url", u.Redacted(),
				"attempt", attempt,
				"max_retries", c.opts.Retries,
				"delay", delay,
				"error", lastErr)

			timer := time.NewTimer(delay)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				return nil, nil, contextError(ctx, lastErr)
			}
		}

		res, body, err := c.once(ctx, method, u, p)
		if err != nil {
			if ctx.Err() != nil {
				return nil, nil, contextError(ctx, err)
			}
			if errors.Is(err, ErrBodyTooLarge) {
				return nil, nil, err
			}
			lastErr = err
			continue
		}

		if isRetryableStatus(res.StatusCode) && attempt < c.opts.Retries {
			lastErr = fmt.Errorf("server returned retryable status %d", res.StatusCode)
			continue
		}
		return res, body, nil
	}

	return nil, nil, lastErr
}

func (c *Client) once(ctx context.Context, method string, u *url.URL, p *payload) (*Result, []byte, error) {
	var reqBody io.Reader
	if p != nil {
		reqBody = bytes.NewReader(p.data)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), reqBody)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	for key, values := range c.opts.Header {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	req.Header.Set("User-Agent", c.opts.UserAgent)
	if p != nil {
		req.Header.Set("Content-Type", p.contentType)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if isTimeoutError(err) {
			return nil, nil, fmt.Errorf("%w: %s %s", ErrTimeout, method, u.Redacted())
		}
		return nil, nil, fmt.Errorf("%w: %s %s: %v", ErrTransport, method, u.Redacted(), err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.ContentLength > c.opts.MaxBodyBytes {
		return nil, nil, fmt.Errorf("%w: content length %d exceeds maximum %d bytes",
			ErrBodyTooLarge, resp.ContentLength, c.opts.MaxBodyBytes)
	}

	// Read one byte past the limit to detect bodies without a Content-Length.
	body, err := io.ReadAll(io.LimitReader(resp.Body, c.opts.MaxBodyBytes+1))
	if err != nil {
		if isTimeoutError(err) || ctx.Err() != nil {
			return nil, nil, fmt.Errorf("%w: reading body of %s", ErrTimeout, u.Redacted())
		}
		return nil, nil, fmt.Errorf("%w: reading body of %s: %v", ErrTransport, u.Redacted(), err)
	}
	if int64(len(body)) > c.opts.MaxBodyBytes {
		return nil, nil, fmt.Errorf("%w: body exceeds maximum %d bytes",
			ErrBodyTooLarge, c.opts.MaxBodyBytes)
	}

	res := &Result{
		StatusCode:    resp.StatusCode,
		StatusMessage: statusMessage(resp),
		Header:        resp.Header,
		URL:           u.String(),
	}
	if isRedirect(resp.StatusCode) {
		res.Location = resp.Header.Get("Location")
	}
	return res, body, nil
}

func contextError(ctx context.Context, cause error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		if cause != nil {
			return fmt.Errorf("%w: %v", ErrTimeout, cause)
		}
		return ErrTimeout
	}
	return fmt.Errorf("%w: %w", ErrTransport, ctx.Err())
}

func isRedirect(status int) bool {
	switch status {
	case http.StatusMovedPermanently, http.StatusFound, http.StatusSeeOther,
		http.StatusTemporaryRedirect, http.StatusPermanentRedirect:
		return true
	default:
		return false
	}
}

// isTimeoutError checks if the error is a timeout-related error.
func isTimeoutError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var te interface{ Timeout() bool }
	if errors.As(err, &te) {
		return te.Timeout()
	}
	return false
}
