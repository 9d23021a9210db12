package fetch

import (
	"math/rand/v2"
	"net/http"
	"time"
)

const maxRetryDelay = 5 * time.Second

// backoff returns the delay before the given retry attempt: exponential in
// the attempt number, capped, with jitter over the upper half of the window.
func backoff(base time.Duration, attempt int) time.Duration {
	d := base << (attempt - 1)
	if d <= 0 || d > maxRetryDelay {
		d = maxRetryDelay
	}
	half := d / 2
	if half <= 0 {
		return d
	}
	return half + time.Duration(rand.Int64N(int64(half)+1))
}

// isRetryableStatus reports statuses that signal a transient server problem.
// Client errors such as 400 or 404 are final.
func isRetryableStatus(statusCode int) bool {
	switch statusCode {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}
