package webfinger

import (
	"net"
	"strings"

	"Fingerpost/internal/core/accounts"
)

// DefaultMissingAvatar is served for accounts without an avatar of their own.
const DefaultMissingAvatar = "i/accounts/avatars/missing.png"

// Site describes the server answering one resolution. It is built per
// request and not modified while the resolution runs.
type Site struct {
	// Accounts looks up local accounts. Nil means local lookups fail with
	// ErrStorageUnavailable.
	Accounts accounts.Finder

	// Protocol is "http" or "https".
	Protocol string

	// Host is the configured public host name, optionally with a port.
	// A scheme prefix is tolerated and ignored.
	Host string

	// Origin is the public origin used for generated links, such as
	// "https://example.com". Empty means Protocol://Host.
	Origin string

	// ImageRoot is the directory avatar paths are relative to.
	ImageRoot string

	// MissingAvatar is the avatar path used when an account has none.
	// Empty means DefaultMissingAvatar.
	MissingAvatar string

	// Domains are alternate host names that also identify this server.
	Domains []string
}

// SiteConfig is the part of a Site fixed at startup. The HTTP layer adds
// the request protocol and the account store per request.
type SiteConfig struct {
	// Host is the public host name. It is never taken from a request: a
	// client controlled Host header must not decide which identifiers are
	// local or which host local subjects name.
	Host          string
	Origin        string
	ImageRoot     string
	MissingAvatar string
	Domains       []string
}

// Site returns the Site for one request.
func (c SiteConfig) Site(protocol string, finder accounts.Finder) Site {
	return Site{
		Accounts:      finder,
		Protocol:      protocol,
		Host:          c.Host,
		Origin:        c.Origin,
		ImageRoot:     c.ImageRoot,
		MissingAvatar: c.MissingAvatar,
		Domains:       c.Domains,
	}
}

// IsLocal reports whether id names an account on this site. A bare
// acct:user is always local. Otherwise the host part must equal the
// serving host, with or without its port, or one of the alternate domains.
// Matching is exact apart from ASCII case; substrings never match.
func (s Site) IsLocal(id Identifier) bool {
	if !id.HasHost() {
		return true
	}
	for _, candidate := range s.localNames() {
		if strings.EqualFold(id.Host, candidate) {
			return true
		}
	}
	return false
}

func (s Site) localNames() []string {
	names := make([]string, 0, 2+2*len(s.Domains))
	for _, h := range append([]string{s.Host}, s.Domains...) {
		hostPort := stripScheme(h)
		if hostPort == "" {
			continue
		}
		names = append(names, hostPort)
		if bare := bareHost(hostPort); bare != hostPort {
			names = append(names, bare)
		}
	}
	return names
}

// HostLabel is the serving host with scheme and port removed. It is the
// host part of every local subject.
func (s Site) HostLabel() string {
	return bareHost(stripScheme(s.Host))
}

// PublicOrigin returns the origin used for generated links, without a
// trailing slash.
func (s Site) PublicOrigin() string {
	if s.Origin != "" {
		return strings.TrimRight(s.Origin, "/")
	}
	protocol := s.Protocol
	if protocol == "" {
		protocol = "https"
	}
	return protocol + "://" + stripScheme(s.Host)
}

func (s Site) missingAvatar() string {
	if s.MissingAvatar != "" {
		return s.MissingAvatar
	}
	return DefaultMissingAvatar
}

// stripScheme removes a scheme prefix and anything after the authority.
func stripScheme(h string) string {
	h = strings.TrimSpace(h)
	if _, rest, found := strings.Cut(h, "://"); found {
		h = rest
	}
	if i := strings.IndexAny(h, "/?#"); i >= 0 {
		h = h[:i]
	}
	return h
}

// bareHost drops a port suffix, keeping IPv6 literals intact.
func bareHost(hostPort string) string {
	if host, _, err := net.SplitHostPort(hostPort); err == nil {
		return host
	}
	return strings.TrimSuffix(strings.TrimPrefix(hostPort, "["), "]")
}
