package wellknown

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"Fingerpost/internal/api/handlers"
	"Fingerpost/internal/core/accounts"
	"Fingerpost/internal/core/webfinger"
)

// Resolver is the part of *webfinger.Resolver the handler needs.
type Resolver interface {
	Resolve(ctx context.Context, resource string, site webfinger.Site) (*webfinger.Resolution, error)
}

// WebFingerHandler answers RFC 7033 queries.
type WebFingerHandler struct {
	resolver Resolver
	accounts accounts.Finder
	opts     SiteOptions
}

// NewWebFingerHandler creates a WebFinger handler. A nil finder makes every
// local lookup answer 503.
func NewWebFingerHandler(resolver Resolver, finder accounts.Finder, opts SiteOptions) *WebFingerHandler {
	if finder == nil {
		slog.Warn("[WEBFINGER] no account store configured, local lookups will fail")
	}
	return &WebFingerHandler{
		resolver: resolver,
		accounts: finder,
		opts:     opts,
	}
}

// HandleWebFinger resolves the resource parameter
// GET /.well-known/webfinger?resource=acct:user@host[&rel=...]
func (h *WebFingerHandler) HandleWebFinger(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	resource := query.Get("resource")
	if resource == "" {
		handlers.WriteError(w, http.StatusBadRequest, "InvalidRequest", "resource parameter is required")
		return
	}

	site := h.opts.siteFor(r)
	site.Accounts = h.accounts

	res, err := h.resolver.Resolve(r.Context(), resource, site)
	if err != nil {
		handleResolveError(w, resource, err)
		return
	}

	doc, err := res.WithRels(query["rel"]).Document()
	if err != nil {
		slog.Error("[WEBFINGER] failed to encode descriptor", "resource", resource, "error", err)
		handlers.WriteError(w, http.StatusInternalServerError, "InternalServerError", "failed to encode descriptor")
		return
	}

	handlers.WriteDocument(w, webfinger.ContentTypeJRDHeader, doc)
}

// handleResolveError maps resolver errors to HTTP responses. Remote
// failures are reported as not found so callers see one shape for every
// account that cannot be described.
func handleResolveError(w http.ResponseWriter, resource string, err error) {
	switch {
	case errors.Is(err, webfinger.ErrMalformedIdentifier):
		handlers.WriteError(w, http.StatusBadRequest, "InvalidResource", "resource must be acct:<user>[@<host>]")

	case errors.Is(err, webfinger.ErrStorageUnavailable):
		slog.Error("[WEBFINGER] account store unavailable", "resource", resource, "error", err)
		handlers.WriteError(w, http.StatusServiceUnavailable, "StorageUnavailable", "account store unavailable")

	case errors.Is(err, webfinger.ErrNetworkFailure), errors.Is(err, webfinger.ErrDecodeFailure):
		slog.Warn("[WEBFINGER] remote lookup failed", "resource", resource, "error", err)
		handlers.WriteError(w, http.StatusNotFound, "NotFound", "no descriptor for resource")

	case errors.Is(err, webfinger.ErrNotFound):
		handlers.WriteError(w, http.StatusNotFound, "NotFound", "no descriptor for resource")

	default:
		slog.Error("[WEBFINGER] unexpected resolution error", "resource", resource, "error", err)
		handlers.WriteError(w, http.StatusInternalServerError, "InternalServerError", "internal server error")
	}
}
