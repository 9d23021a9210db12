package wellknown

import (
	"log/slog"
	"net/http"

	"Fingerpost/internal/api/handlers"
	"Fingerpost/internal/core/hostmeta"
)

// HostMetaHandler serves host-meta in both encodings
type HostMetaHandler struct {
	opts SiteOptions
}

// NewHostMetaHandler creates a host-meta handler
func NewHostMetaHandler(opts SiteOptions) *HostMetaHandler {
	return &HostMetaHandler{opts: opts}
}

// HandleHostMeta serves the XRD form
// GET /.well-known/host-meta
func (h *HostMetaHandler) HandleHostMeta(w http.ResponseWriter, r *http.Request) {
	body, err := hostmeta.New(h.opts.siteFor(r).PublicOrigin()).XRD()
	if err != nil {
		slog.Error("failed to encode host-meta", "error", err)
		handlers.WriteError(w, http.StatusInternalServerError, "InternalServerError", "failed to encode host-meta")
		return
	}
	handlers.WriteDocument(w, hostmeta.MediaTypeXRD+"; charset=utf-8", body)
}

// HandleHostMetaJSON serves the JRD form
// GET /.well-known/host-meta.json
func (h *HostMetaHandler) HandleHostMetaJSON(w http.ResponseWriter, r *http.Request) {
	body, err := hostmeta.New(h.opts.siteFor(r).PublicOrigin()).JRD()
	if err != nil {
		slog.Error("failed to encode host-meta.json", "error", err)
		handlers.WriteError(w, http.StatusInternalServerError, "InternalServerError", "failed to encode host-meta")
		return
	}
	handlers.WriteDocument(w, "application/jrd+json; charset=utf-8", body)
}
