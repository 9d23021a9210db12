package fetch

import (
	"net/http"
	"time"
)

const (
	// DefaultTimeout bounds a whole call, including retries and redirects.
	DefaultTimeout = 5 * time.Second

	// DefaultRetries is the number of attempts made after the first one.
	DefaultRetries = 2

	// DefaultMaxRedirects caps the number of hops followed for one call.
	DefaultMaxRedirects = 5

	// DefaultMaxBodyBytes caps buffered response bodies at 10 MiB.
	DefaultMaxBodyBytes = 10 * 1024 * 1024

	// DefaultRetryDelay is the base delay for exponential backoff.
	DefaultRetryDelay = 250 * time.Millisecond

	// DefaultUserAgent identifies outbound requests.
	DefaultUserAgent = "Fingerpost/1.0 (+https://webfinger.net)"
)

// Options configures a Client. Zero values fall back to the defaults above,
// except Retries, where zero means no retries, and FollowRedirects. Both are
// set by DefaultOptions or must be set by the caller.
type Options struct {
	// HTTPClient performs the requests. Its redirect policy is replaced so
	// the Client can report and cap redirects itself.
	HTTPClient *http.Client

	// Header is added to every request.
	Header http.Header

	UserAgent string

	Timeout      time.Duration
	RetryDelay   time.Duration
	MaxBodyBytes int64

	// Retries is the number of extra attempts for transport errors and
	// retryable statuses. Zero or negative disables retrying.
	Retries int

	MaxRedirects int

	// FollowRedirects makes the client follow 3xx responses carrying a
	// Location header. When false, or when Location is missing, the 3xx
	// Result is returned with Redirect set.
	FollowRedirects bool
}

// DefaultOptions returns the options used by NewClient when none are given.
func DefaultOptions() Options {
	return Options{
		Timeout:         DefaultTimeout,
		Retries:         DefaultRetries,
		FollowRedirects: true,
		MaxRedirects:    DefaultMaxRedirects,
		MaxBodyBytes:    DefaultMaxBodyBytes,
		RetryDelay:      DefaultRetryDelay,
		UserAgent:       DefaultUserAgent,
	}
}

func (o Options) withDefaults() Options {
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.Retries < 0 {
		o.Retries = 0
	}
	if o.MaxRedirects <= 0 {
		o.MaxRedirects = DefaultMaxRedirects
	}
	if o.MaxBodyBytes <= 0 {
		o.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if o.RetryDelay <= 0 {
		o.RetryDelay = DefaultRetryDelay
	}
	if o.UserAgent == "" {
		o.UserAgent = DefaultUserAgent
	}
	return o
}
