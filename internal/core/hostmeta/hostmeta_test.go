package hostmeta

import (
	"encoding/xml"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Template(t *testing.T) {
	doc := New("https://example.com/")
	assert.Equal(t, "https://example.com/.well-known/webfinger?resource={uri}", doc.LRDD())
}

func TestDocument_XRD(t *testing.T) {
	out, err := New("https://example.com").XRD()
	require.NoError(t, err)

	text := string(out)
	assert.True(t, strings.HasPrefix(text, `<?xml version="1.0" encoding="UTF-8"?>`))
	assert.Contains(t, text, `<XRD xmlns="http://docs.oasis-open.org/ns/xri/xrd-1.0">`)
	assert.Contains(t, text, `rel="lrdd"`)
	assert.Contains(t, text, `template="https://example.com/.well-known/webfinger?resource={uri}"`)
	assert.NotContains(t, text, "<Subject>")

	var parsed Document
	require.NoError(t, xml.Unmarshal(out, &parsed))
	assert.Equal(t, "https://example.com/.well-known/webfinger?resource={uri}", parsed.LRDD())
}

func TestDocument_JRD(t *testing.T) {
	out, err := New("http://localhost:3000").JRD()
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"links": [{
			"rel": "lrdd",
			"type": "application/jrd+json",
			"template": "http://localhost:3000/.well-known/webfinger?resource={uri}"
		}]
	}`, string(out))
}

func TestDocument_LRDDMissing(t *testing.T) {
	assert.Empty(t, (&Document{}).LRDD())
}
