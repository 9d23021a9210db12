package wellknown

import (
	"net/http"
	"strings"

	"Fingerpost/internal/core/webfinger"
)

// SiteOptions configures how a request maps to a webfinger.Site.
type SiteOptions struct {
	Site webfinger.SiteConfig
	// TrustProxy honours X-Forwarded-Proto. The public host always comes
	// from Site.Host.
	TrustProxy bool
}

// requestProtocol is "https" for TLS requests, the forwarded protocol when
// a trusted proxy supplied one, and "http" otherwise.
func (o SiteOptions) requestProtocol(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}
	if o.TrustProxy {
		proto := strings.ToLower(strings.TrimSpace(r.Header.Get("X-Forwarded-Proto")))
		if proto == "http" || proto == "https" {
			return proto
		}
	}
	return "http"
}

func (o SiteOptions) siteFor(r *http.Request) webfinger.Site {
	return o.Site.Site(o.requestProtocol(r), nil)
}
