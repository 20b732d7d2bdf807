package api

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/torvik/snapvault/internal/storage"
)

const maxUploadBytes = 50 << 20 // 50 MB

// Image extensions the asset endpoint will serve. Metadata documents
// stay private to the records API.
var assetExts = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".webp": true,
}

// AssetHandler serves image assets out of the vault directory.
type AssetHandler struct {
	files storage.Provider
}

// NewAssetHandler creates a handler backed by the given vault.
func NewAssetHandler(files storage.Provider) *AssetHandler {
	return &AssetHandler{files: files}
}

// ServeFile handles GET /assets/{filename}.
func (h *AssetHandler) ServeFile(w http.ResponseWriter, r *http.Request) {
	filename := chi.URLParam(r, "filename")
	if !assetExts[strings.ToLower(filepath.Ext(filename))] {
		http.Error(w, "unsupported asset type", http.StatusBadRequest)
		return
	}
	abs, err := h.files.Abs(filename)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if _, statErr := os.Stat(abs); os.IsNotExist(statErr) {
		http.NotFound(w, r)
		return
	}
	http.ServeFile(w, r, abs)
}
