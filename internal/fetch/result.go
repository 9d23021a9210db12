package fetch

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime"
	"net/http"
	"strings"
)

// Result is the outcome of one outbound call. Exactly one of Content and
// Buffer is populated for a non-empty body; both are empty otherwise.
type Result struct {
	// Content holds a decoded JSON value (map[string]any, []any, string,
	// json.Number, bool or nil) or a decoded text string.
	Content any

	// Raw is the JSON body exactly as received, set alongside Content for
	// JSON answers.
	Raw json.RawMessage

	// Header keys are canonicalized, so Get is case-insensitive.
	Header http.Header

	// URL is the final URL after any followed redirects.
	URL string

	StatusMessage string

	// Location is the redirect target when Redirect is set.
	Location string

	// Buffer holds raw bytes for images and unrecognized content types.
	Buffer []byte

	StatusCode int

	// Redirect is set when a 3xx response was returned instead of followed.
	Redirect bool
}

// IsJSON reports whether Content was decoded from a JSON body.
func (r *Result) IsJSON() bool {
	return bodyKindOf(r.Header.Get("Content-Type")) == kindJSON && r.Buffer == nil
}

// Text returns Content when it was decoded as text.
func (r *Result) Text() (string, bool) {
	s, ok := r.Content.(string)
	return s, ok && bodyKindOf(r.Header.Get("Content-Type")) == kindText
}

type bodyKind int

const (
	kindBinary bodyKind = iota
	kindJSON
	kindText
)

// bodyKindOf classifies a declared Content-Type. JSON wins over text so
// application/jrd+json and application/activity+json decode as JSON.
func bodyKindOf(contentType string) bodyKind {
	ct := strings.ToLower(contentType)
	if mediaType, _, err := mime.ParseMediaType(ct); err == nil {
		ct = mediaType
	}
	switch {
	case strings.Contains(ct, "json"):
		return kindJSON
	case strings.Contains(ct, "text/plain"),
		strings.Contains(ct, "html"),
		strings.Contains(ct, "xml"):
		return kindText
	default:
		return kindBinary
	}
}

// decodeBody fills Content or Buffer from the buffered body.
func (r *Result) decodeBody(body []byte) error {
	if len(body) == 0 {
		return nil
	}
	switch bodyKindOf(r.Header.Get("Content-Type")) {
	case kindJSON:
		var v any
		dec := json.NewDecoder(bytes.NewReader(body))
		dec.UseNumber()
		if err := dec.Decode(&v); err != nil {
			return err
		}
		if dec.More() {
			return fmt.Errorf("unexpected data after JSON value at offset %d", dec.InputOffset())
		}
		r.Content = v
		r.Raw = body
	case kindText:
		r.Content = string(body)
	default:
		r.Buffer = body
	}
	return nil
}

func statusMessage(resp *http.Response) string {
	prefix, msg, found := strings.Cut(resp.Status, " ")
	if found && prefix != "" {
		return msg
	}
	return http.StatusText(resp.StatusCode)
}
