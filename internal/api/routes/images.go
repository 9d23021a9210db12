package routes

import (
	"github.com/go-chi/chi/v5"

	"Fingerpost/internal/api/handlers/images"
)

// RegisterImageRoutes registers avatar file serving. Local descriptors link
// avatars as {origin}/{path}, and avatar paths live under /i/.
//
// Route: GET /i/*
//
// The endpoint supports ETag and Last-Modified conditional requests.
func RegisterImageRoutes(r chi.Router, handler *images.Handler) {
	r.Get(images.Prefix+"*", handler.HandleImage)
	r.Head(images.Prefix+"*", handler.HandleImage)
}
