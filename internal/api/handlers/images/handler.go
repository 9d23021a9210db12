// Package images serves avatar files from the image root so the avatar
// links in local descriptors resolve.
package images

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"Fingerpost/internal/core/accounts"
	"Fingerpost/internal/core/mediatype"
)

// Prefix is the URL path prefix images are served under. URL paths map
// one to one onto paths below the image root.
const Prefix = "/" + accounts.AvatarPrefix

// Handler serves files below an image root.
type Handler struct {
	prober mediatype.Prober
	root   string
}

// NewHandler creates an image handler for root. prober labels responses;
// when it is nil or fails, the type is sniffed by net/http.
func NewHandler(root string, prober mediatype.Prober) *Handler {
	return &Handler{root: root, prober: prober}
}

// HandleImage serves GET /i/*
func (h *Handler) HandleImage(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(path.Clean("/"+r.URL.Path), "/")
	if !strings.HasPrefix("/"+name, Prefix) {
		writeErrorResponse(w, http.StatusNotFound, "not found")
		return
	}

	// OpenInRoot refuses names that escape the root, symlinks included.
	f, err := os.OpenInRoot(h.root, filepath.FromSlash(name))
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			slog.Warn("[IMAGES] failed to open image", "path", name, "error", err)
		}
		writeErrorResponse(w, http.StatusNotFound, "not found")
		return
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil || info.IsDir() {
		writeErrorResponse(w, http.StatusNotFound, "not found")
		return
	}

	if h.prober != nil {
		mediaType, err := h.prober.Probe(r.Context(), filepath.Join(h.root, filepath.FromSlash(name)))
		if err != nil {
			slog.Debug("[IMAGES] media type probe failed", "path", name, "error", err)
		} else {
			w.Header().Set("Content-Type", mediaType)
		}
	}

	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.Header().Set("ETag", fmt.Sprintf(`"%x-%x"`, info.ModTime().UnixNano(), info.Size()))

	// ServeContent answers If-None-Match, If-Modified-Since and ranges.
	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
}

// writeErrorResponse writes a plain text error response.
func writeErrorResponse(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	if _, err := w.Write([]byte(message)); err != nil {
		slog.Warn("[IMAGES] failed to write error response",
			"status", status,
			"error", err,
		)
	}
}
