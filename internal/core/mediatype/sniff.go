package mediatype

import (
	"context"
	"fmt"
	"mime"

	"github.com/gabriel-vasile/mimetype"
)

// Sniffer detects media types from file signatures.
type Sniffer struct{}

// NewSniffer creates a content-sniffing prober.
func NewSniffer() *Sniffer {
	return &Sniffer{}
}

// Probe reads the file header and matches it against known signatures.
// Parameters such as charset are dropped so the result is a bare media type.
func (s *Sniffer) Probe(ctx context.Context, path string) (string, error) {
	if err := checkReadable(path); err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	detected, err := mimetype.DetectFile(path)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrUnreadable, path, err)
	}

	mediaType, _, err := mime.ParseMediaType(detected.String())
	if err != nil {
		return detected.String(), nil
	}
	return mediaType, nil
}
