package webfinger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"unicode"

	"Fingerpost/internal/fetch"
)

// WellKnownPath is the WebFinger endpoint path (RFC 7033 section 4).
const WellKnownPath = "/.well-known/webfinger"

// RemoteFetcher issues the outbound query. *fetch.Client implements it.
type RemoteFetcher interface {
	GetURL(ctx context.Context, u *url.URL) (*fetch.Result, error)
}

// RemoteQueryURL returns the WebFinger query for id on its own host:
// https://<host>/.well-known/webfinger?resource=<resource>.
func RemoteQueryURL(id Identifier) (*url.URL, error) {
	if err := validateRemoteHost(id.Host); err != nil {
		return nil, err
	}
	return &url.URL{
		Scheme:   "https",
		Host:     id.Host,
		Path:     WellKnownPath,
		RawQuery: url.Values{"resource": {id.Resource}}.Encode(),
	}, nil
}

// validateRemoteHost accepts host or host:port and nothing else, so a
// crafted host part cannot smuggle userinfo, a path or a query into the
// outbound URL.
func validateRemoteHost(host string) error {
	if host == "" {
		return fmt.Errorf("%w: remote identifier has no host", ErrMalformedIdentifier)
	}
	if strings.ContainsAny(host, "/?#@\\%") || strings.IndexFunc(host, func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsControl(r)
	}) >= 0 {
		return fmt.Errorf("%w: invalid host %q", ErrMalformedIdentifier, host)
	}
	u, err := url.Parse("https://" + host)
	if err != nil || u.Host != host || u.Hostname() == "" {
		return fmt.Errorf("%w: invalid host %q", ErrMalformedIdentifier, host)
	}
	return nil
}

// resolveRemote relays the query to the identifier's own host and returns
// the JSON body of a 200 answer unmodified.
func (r *Resolver) resolveRemote(ctx context.Context, id Identifier) (json.RawMessage, error) {
	target, err := RemoteQueryURL(id)
	if err != nil {
		return nil, err
	}
	if r.fetcher == nil {
		return nil, fmt.Errorf("%w: no remote fetcher configured", ErrNetworkFailure)
	}

	res, err := r.fetcher.GetURL(ctx, target)
	if err != nil {
		var decodeErr *fetch.DecodeError
		if errors.As(err, &decodeErr) {
			if decodeErr.StatusCode == http.StatusOK {
				return nil, fmt.Errorf("%w: %v", ErrDecodeFailure, err)
			}
			return nil, fmt.Errorf("%w: %s answered %d", ErrNotFound, id.Host, decodeErr.StatusCode)
		}
		return nil, fmt.Errorf("%w: %v", ErrNetworkFailure, err)
	}

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s answered %d", ErrNotFound, id.Host, res.StatusCode)
	}
	if !res.IsJSON() || res.Content == nil || len(res.Raw) == 0 {
		return nil, fmt.Errorf("%w: %s answered with content type %q",
			ErrDecodeFailure, id.Host, res.Header.Get("Content-Type"))
	}
	return res.Raw, nil
}
