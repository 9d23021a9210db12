package fetch

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidURL is returned when the target is not an absolute http or https URL.
	ErrInvalidURL = errors.New("invalid URL")

	// ErrTransport is returned when the request could not be completed at the
	// transport level (connection refused, DNS failure, reset).
	ErrTransport = errors.New("transport failure")

	// ErrTimeout is returned when the overall call deadline expires.
	ErrTimeout = errors.New("request timed out")

	// ErrDecode is returned when a body declared as JSON cannot be parsed.
	ErrDecode = errors.New("failed to decode response body")

	// ErrTooManyRedirects is returned when the redirect chain exceeds MaxRedirects.
	ErrTooManyRedirects = errors.New("too many redirects")

	// ErrBodyTooLarge is returned when a response body exceeds MaxBodyBytes.
	ErrBodyTooLarge = errors.New("response body exceeds size limit")

	// ErrMissingBody is returned by Post when no payload was provided.
	ErrMissingBody = errors.New("missing request body")
)

// DecodeError reports a JSON body that failed to parse. It keeps the status
// so callers can tell an undecodable 200 from an undecodable error page.
type DecodeError struct {
	Err         error
	URL         string
	ContentType string
	StatusCode  int
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s: %s (status %d, content-type %q): %v",
		ErrDecode, e.URL, e.StatusCode, e.ContentType, e.Err)
}

// Unwrap lets errors.Is match both ErrDecode and the underlying parse error.
func (e *DecodeError) Unwrap() []error {
	return []error{ErrDecode, e.Err}
}
