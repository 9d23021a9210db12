package routes

import (
	"fmt"

	"github.com/go-chi/chi/v5"

	"Fingerpost/internal/core/accounts"
	"Fingerpost/internal/web"
)

// RegisterWebRoutes registers the HTML profile pages local descriptors link
// to as {origin}/@{username}.
func RegisterWebRoutes(r chi.Router, finder accounts.Finder, missingAvatar string) error {
	templates, err := web.NewTemplates()
	if err != nil {
		return fmt.Errorf("failed to load web templates: %w", err)
	}

	handlers := web.NewHandlers(templates, finder, missingAvatar)
	r.Get("/@{username}", handlers.ProfileHandler)
	return nil
}
