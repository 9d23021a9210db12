package routes

import (
	"net/http"

	"Fingerpost/internal/api/handlers/wellknown"
	"Fingerpost/internal/api/middleware"
	"Fingerpost/internal/core/accounts"
	"Fingerpost/internal/core/hostmeta"
	"Fingerpost/internal/core/nodeinfo"
	"Fingerpost/internal/core/webfinger"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
)

// WellKnownServices are the dependencies of the discovery endpoints
type WellKnownServices struct {
	Resolver wellknown.Resolver
	Accounts accounts.Finder
	NodeInfo *nodeinfo.Service
	// Limiter is optional; nil disables rate limiting.
	Limiter *middleware.RateLimiter
}

// RegisterWellKnownRoutes registers RFC 8615 well-known URI endpoints:
// WebFinger (RFC 7033), host-meta (RFC 6415) and NodeInfo 2.1.
//
// Every endpoint answers cross-origin requests from any origin, as
// RFC 7033 section 5 requires for WebFinger.
func RegisterWellKnownRoutes(r chi.Router, svc WellKnownServices, opts wellknown.SiteOptions) {
	webfingerHandler := wellknown.NewWebFingerHandler(svc.Resolver, svc.Accounts, opts)
	hostMetaHandler := wellknown.NewHostMetaHandler(opts)

	public := r.With(allowAnyOrigin, wellKnownCORS())
	limited := public
	if svc.Limiter != nil {
		limited = public.With(svc.Limiter.Middleware("webfinger"))
	}

	// WebFinger may relay to remote hosts, so it is the one endpoint that is
	// rate limited.
	limited.Get(webfinger.WellKnownPath, webfingerHandler.HandleWebFinger)
	public.Options(webfinger.WellKnownPath, preflight)

	public.Get(hostmeta.Path, hostMetaHandler.HandleHostMeta)
	public.Options(hostmeta.Path, preflight)
	public.Get(hostmeta.JSONPath, hostMetaHandler.HandleHostMetaJSON)
	public.Options(hostmeta.JSONPath, preflight)

	if svc.NodeInfo != nil {
		nodeInfoHandler := wellknown.NewNodeInfoHandler(svc.NodeInfo, opts)
		public.Get(nodeinfo.WellKnownPath, nodeInfoHandler.HandleDiscovery)
		public.Options(nodeinfo.WellKnownPath, preflight)
		public.Get(nodeinfo.SchemaPath, nodeInfoHandler.HandleSchema)
		public.Options(nodeinfo.SchemaPath, preflight)
	}
}

// wellKnownCORS answers preflight requests for the discovery endpoints
func wellKnownCORS() func(next http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "HEAD", "OPTIONS"},
		AllowedHeaders: []string{"Accept"},
		MaxAge:         3600,
	})
}

// allowAnyOrigin sets the CORS header on every response, including those
// to requests that carry no Origin header.
func allowAnyOrigin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		next.ServeHTTP(w, r)
	})
}

func preflight(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}
