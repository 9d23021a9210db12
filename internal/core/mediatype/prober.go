// Package mediatype labels files on disk with their media type.
package mediatype

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
)

var (
	// ErrNoPath is returned when a probe is asked about an empty path.
	ErrNoPath = errors.New("no file path provided")

	// ErrUnreadable is returned when the file is missing or cannot be opened.
	ErrUnreadable = errors.New("cannot open file")

	// ErrProbeUnavailable is returned when the probe tool itself cannot run.
	ErrProbeUnavailable = errors.New("media type probe unavailable")

	// ErrUnknownKind is returned by New for an unrecognized probe kind.
	ErrUnknownKind = errors.New("unknown probe kind")
)

// Prober detects the media type of a file.
type Prober interface {
	// Probe returns a media type such as "image/png". Errors never carry a
	// partial result.
	Probe(ctx context.Context, path string) (string, error)
}

// Kind names a Prober implementation in configuration.
type Kind string

const (
	// KindSniff inspects file contents in-process.
	KindSniff Kind = "sniff"
	// KindCommand shells out to file(1).
	KindCommand Kind = "file"
)

// New returns the prober for kind. An empty kind selects KindSniff.
func New(kind Kind) (Prober, error) {
	switch Kind(strings.ToLower(string(kind))) {
	case "", KindSniff:
		return NewSniffer(), nil
	case KindCommand:
		return NewCommandProber(""), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}

func checkReadable(path string) error {
	if path == "" {
		return ErrNoPath
	}
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrUnreadable, path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%w: %s is a directory", ErrUnreadable, path)
	}
	return nil
}
