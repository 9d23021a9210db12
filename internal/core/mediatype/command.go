package mediatype

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
)

// CommandProber asks file(1) for the media type.
type CommandProber struct {
	bin string
}

// NewCommandProber creates a prober that runs bin, or "file" when bin is empty.
func NewCommandProber(bin string) *CommandProber {
	if bin == "" {
		bin = "file"
	}
	return &CommandProber{bin: bin}
}

// Probe runs `file --brief --mime-type <abs path>`. The path is passed as a
// separate argument, never through a shell.
func (p *CommandProber) Probe(ctx context.Context, path string) (string, error) {
	if err := checkReadable(path); err != nil {
		return "", err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrUnreadable, path, err)
	}

	out, err := exec.CommandContext(ctx, p.bin, "--brief", "--mime-type", "--", abs).Output()
	if err != nil {
		var execErr *exec.Error
		if errors.As(err, &execErr) {
			return "", fmt.Errorf("%w: %v", ErrProbeUnavailable, err)
		}
		return "", fmt.Errorf("%w: %s: %v", ErrProbeUnavailable, p.bin, err)
	}

	result := strings.TrimSpace(string(out))
	if strings.HasPrefix(result, "cannot open") {
		return "", fmt.Errorf("%w: %s", ErrUnreadable, result)
	}
	if result == "" {
		return "", fmt.Errorf("%w: empty output from %s", ErrProbeUnavailable, p.bin)
	}
	return result, nil
}
