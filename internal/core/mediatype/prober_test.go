package mediatype

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngBytes = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a,
	0x00, 0x00, 0x00, 0x0d, 0x49, 0x48, 0x44, 0x52,
	0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0x15, 0xc4, 0x89,
}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestSniffer_Probe(t *testing.T) {
	ctx := context.Background()
	s := NewSniffer()

	got, err := s.Probe(ctx, writeFile(t, "avatar.png", pngBytes))
	require.NoError(t, err)
	assert.Equal(t, "image/png", got)

	got, err = s.Probe(ctx, writeFile(t, "notes.txt", []byte("plain words\n")))
	require.NoError(t, err)
	assert.Equal(t, "text/plain", got, "charset parameter is dropped")
}

func TestSniffer_ProbeErrors(t *testing.T) {
	ctx := context.Background()
	s := NewSniffer()

	_, err := s.Probe(ctx, "")
	assert.ErrorIs(t, err, ErrNoPath)

	_, err = s.Probe(ctx, filepath.Join(t.TempDir(), "missing.png"))
	assert.ErrorIs(t, err, ErrUnreadable)

	_, err = s.Probe(ctx, t.TempDir())
	assert.ErrorIs(t, err, ErrUnreadable)
}

func TestCommandProber_Probe(t *testing.T) {
	if _, err := exec.LookPath("file"); err != nil {
		t.Skip("file(1) not installed")
	}

	got, err := NewCommandProber("").Probe(context.Background(), writeFile(t, "avatar.png", pngBytes))
	require.NoError(t, err)
	assert.Equal(t, "image/png", got)
}

func TestCommandProber_MissingBinary(t *testing.T) {
	p := NewCommandProber("definitely-not-a-real-file-binary")
	_, err := p.Probe(context.Background(), writeFile(t, "avatar.png", pngBytes))
	assert.ErrorIs(t, err, ErrProbeUnavailable)
}

func TestCommandProber_MissingFile(t *testing.T) {
	_, err := NewCommandProber("").Probe(context.Background(), filepath.Join(t.TempDir(), "nope.png"))
	assert.ErrorIs(t, err, ErrUnreadable)
}

func TestNew(t *testing.T) {
	p, err := New("")
	require.NoError(t, err)
	assert.IsType(t, &Sniffer{}, p)

	p, err = New(KindCommand)
	require.NoError(t, err)
	assert.IsType(t, &CommandProber{}, p)

	_, err = New("exiftool")
	assert.ErrorIs(t, err, ErrUnknownKind)
}
