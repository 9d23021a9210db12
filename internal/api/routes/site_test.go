package routes

import (
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"Fingerpost/internal/api/handlers/images"
	"Fingerpost/internal/core/accounts"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterImageRoutes(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "i", "accounts", "avatars")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "alice.txt"), []byte("avatar"), 0o644))

	r := chi.NewRouter()
	RegisterImageRoutes(r, images.NewHandler(root, nil))

	rec := get(t, r, "/i/accounts/avatars/alice.txt")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "avatar", rec.Body.String())

	assert.Equal(t, http.StatusNotFound, get(t, r, "/i/accounts/avatars/bob.txt").Code)
}

func TestRegisterWebRoutes(t *testing.T) {
	store := memoryAccounts{
		"alice": {Username: "alice", DisplayName: "Alice"},
		"carol": {Username: "carol", Archived: true},
	}

	r := chi.NewRouter()
	require.NoError(t, RegisterWebRoutes(r, store, ""))

	rec := get(t, r, "/@alice")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<h1>Alice</h1>")

	assert.Equal(t, http.StatusNotFound, get(t, r, "/@carol").Code)
}

func TestRegisterWebRoutes_NoStore(t *testing.T) {
	r := chi.NewRouter()
	var finder accounts.Finder
	require.NoError(t, RegisterWebRoutes(r, finder, ""))

	assert.Equal(t, http.StatusServiceUnavailable, get(t, r, "/@alice").Code)
}
