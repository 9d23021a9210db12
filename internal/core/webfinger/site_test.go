package webfinger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func mustParse(t *testing.T, resource string) Identifier {
	t.Helper()
	id, err := ParseIdentifier(resource)
	if err != nil {
		t.Fatalf("parse %q: %v", resource, err)
	}
	return id
}

func TestSite_IsLocal(t *testing.T) {
	site := Site{
		Protocol: "https",
		Host:     "example.com:3000",
		Domains:  []string{"alt.example.org"},
	}

	tests := []struct {
		resource string
		local    bool
	}{
		{"acct:alice", true},
		{"acct:alice@example.com", true},
		{"acct:alice@example.com:3000", true},
		{"acct:alice@EXAMPLE.com", true},
		{"acct:alice@alt.example.org", true},
		{"acct:alice@remote.example", false},
		{"acct:alice@evil-example.com", false},
		{"acct:alice@example.com.evil.net", false},
		{"acct:alice@sub.example.com", false},
		{"acct:alice@example.co", false},
		{"acct:alice@alt.example.org.attacker", false},
		{"acct:alice@example.com@evil.net", false},
		{"acct:alice@example.com:4000", false},
	}

	for _, tt := range tests {
		t.Run(tt.resource, func(t *testing.T) {
			assert.Equal(t, tt.local, site.IsLocal(mustParse(t, tt.resource)))
		})
	}
}

func TestSite_IsLocal_NoHostAlwaysLocal(t *testing.T) {
	for _, site := range []Site{{}, {Host: "example.com"}, {Host: "https://example.com:8443"}} {
		assert.True(t, site.IsLocal(mustParse(t, "acct:anyone_at_all")))
	}
}

func TestSite_IsLocal_SchemeInConfiguredHost(t *testing.T) {
	site := Site{Host: "https://example.com/"}
	assert.True(t, site.IsLocal(mustParse(t, "acct:alice@example.com")))
}

func TestSite_HostLabel(t *testing.T) {
	tests := map[string]string{
		"example.com":               "example.com",
		"example.com:3000":          "example.com",
		"https://example.com":       "example.com",
		"http://example.com:8080/x": "example.com",
		"[::1]:8080":                "::1",
		"":                          "",
	}
	for host, want := range tests {
		assert.Equal(t, want, Site{Host: host}.HostLabel(), "host %q", host)
	}
}

func TestSite_PublicOrigin(t *testing.T) {
	assert.Equal(t, "https://example.com", Site{Origin: "https://example.com/"}.PublicOrigin())
	assert.Equal(t, "http://localhost:3000", Site{Protocol: "http", Host: "localhost:3000"}.PublicOrigin())
	assert.Equal(t, "https://example.com", Site{Host: "example.com"}.PublicOrigin())
}

func TestSiteConfig_Site(t *testing.T) {
	cfg := SiteConfig{Host: "localhost:3000", ImageRoot: "/srv/img", Domains: []string{"alt.example"}}

	site := cfg.Site("http", nil)
	assert.Equal(t, "localhost:3000", site.Host)
	assert.Equal(t, "http://localhost:3000", site.PublicOrigin())
	assert.Equal(t, "/srv/img", site.ImageRoot)
	assert.Equal(t, []string{"alt.example"}, site.Domains)
	assert.Equal(t, "https", cfg.Site("https", nil).Protocol)
}

func TestSite_NoHostIsOnlyBareLocal(t *testing.T) {
	site := SiteConfig{}.Site("https", nil)

	assert.True(t, site.IsLocal(mustParse(t, "acct:alice")))
	for _, resource := range []string{"acct:alice@mastodon.social", "acct:alice@localhost"} {
		assert.False(t, site.IsLocal(mustParse(t, resource)), resource)
	}
}
