package web

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"Fingerpost/internal/core/accounts"
	"Fingerpost/internal/core/webfinger"
)

// Handlers serves profile pages for local accounts.
type Handlers struct {
	templates     *Templates
	accounts      accounts.Finder
	missingAvatar string
}

// NewHandlers creates profile handlers. missingAvatar is the avatar path
// shown for accounts without one; empty means the default.
func NewHandlers(templates *Templates, finder accounts.Finder, missingAvatar string) *Handlers {
	if missingAvatar == "" {
		missingAvatar = webfinger.DefaultMissingAvatar
	}
	return &Handlers{
		templates:     templates,
		accounts:      finder,
		missingAvatar: missingAvatar,
	}
}

// ProfilePageData holds data for the profile template.
type ProfilePageData struct {
	Username   string
	Name       string
	AvatarPath string
	ActorPath  string
}

// ProfileHandler handles GET /@{username}.
func (h *Handlers) ProfileHandler(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")

	// Same account name rules as acct: identifiers.
	if _, err := webfinger.ParseIdentifier("acct:" + username); err != nil {
		h.render(w, http.StatusNotFound, "not_found.html", nil)
		return
	}

	if h.accounts == nil {
		http.Error(w, "Service Unavailable", http.StatusServiceUnavailable)
		return
	}

	account, err := h.accounts.FindActiveByUsername(r.Context(), username)
	if err != nil || account == nil {
		if err != nil && !errors.Is(err, accounts.ErrAccountNotFound) {
			slog.Error("[WEB] profile lookup failed", "username", username, "error", err)
			http.Error(w, "Service Unavailable", http.StatusServiceUnavailable)
			return
		}
		h.render(w, http.StatusNotFound, "not_found.html", nil)
		return
	}

	avatar := h.missingAvatar
	if account.HasAvatar() {
		avatar = account.Avatar
	}
	name := account.DisplayName
	if name == "" {
		name = account.Username
	}

	h.render(w, http.StatusOK, "profile.html", ProfilePageData{
		Username:   account.Username,
		Name:       name,
		AvatarPath: "/" + strings.TrimPrefix(avatar, "/"),
		ActorPath:  "/user/" + account.Username,
	})
}

func (h *Handlers) render(w http.ResponseWriter, status int, name string, data any) {
	if err := h.templates.Render(w, status, name, data); err != nil {
		slog.Error("[WEB] failed to render page", "template", name, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}
