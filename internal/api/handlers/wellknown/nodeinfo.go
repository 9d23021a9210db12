package wellknown

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"Fingerpost/internal/api/handlers"
	"Fingerpost/internal/core/nodeinfo"
)

// NodeInfoHandler serves NodeInfo discovery and the 2.1 schema document
type NodeInfoHandler struct {
	service *nodeinfo.Service
	opts    SiteOptions
}

// NewNodeInfoHandler creates a NodeInfo handler
func NewNodeInfoHandler(service *nodeinfo.Service, opts SiteOptions) *NodeInfoHandler {
	return &NodeInfoHandler{service: service, opts: opts}
}

// HandleDiscovery lists the supported schema versions
// GET /.well-known/nodeinfo
func (h *NodeInfoHandler) HandleDiscovery(w http.ResponseWriter, r *http.Request) {
	body, err := json.Marshal(h.service.Discovery(h.opts.siteFor(r).PublicOrigin()))
	if err != nil {
		slog.Error("[NODEINFO] failed to encode discovery document", "error", err)
		handlers.WriteError(w, http.StatusInternalServerError, "InternalServerError", "failed to encode nodeinfo")
		return
	}
	handlers.WriteDocument(w, "application/json", body)
}

// HandleSchema serves the NodeInfo 2.1 document
// GET /nodeinfo/2.1
func (h *NodeInfoHandler) HandleSchema(w http.ResponseWriter, r *http.Request) {
	doc, err := h.service.Document(r.Context())
	if err != nil {
		slog.Error("[NODEINFO] usage statistics unavailable", "error", err)
		handlers.WriteError(w, http.StatusServiceUnavailable, "StorageUnavailable", "usage statistics unavailable")
		return
	}

	body, err := json.Marshal(doc)
	if err != nil {
		slog.Error("[NODEINFO] failed to encode document", "error", err)
		handlers.WriteError(w, http.StatusInternalServerError, "InternalServerError", "failed to encode nodeinfo")
		return
	}
	handlers.WriteDocument(w, nodeinfo.ContentType, body)
}
