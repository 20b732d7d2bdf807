package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/torvik/snapvault/internal/recordstore"
	"github.com/torvik/snapvault/internal/storage"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
// files resolves asset paths inside the vault directory.
func NewRouter(store *recordstore.Store, authEnabled bool, token string, sseHandler http.Handler, files storage.Provider) chi.Router {
	h := NewHandler(store)
	ah := NewAssetHandler(files)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Records CRUD.
	r.Get("/records", h.ListRecords)
	r.Post("/records", h.CreateNote)
	r.Post("/records/clipboard", h.CreateClipboard)
	r.Put("/records/order", h.BatchUpdateOrder)
	r.Patch("/records/{name}/note", h.UpdateNote)
	r.Patch("/records/{name}/status", h.UpdateStatus)
	r.Patch("/records/{name}/order", h.UpdateOrder)
	r.Delete("/records/{name}", h.DeleteRecord)

	// Screenshot capture upload.
	r.Post("/captures", h.CreateCapture)

	// Image assets (auth-protected).
	r.Get("/assets/{filename}", ah.ServeFile)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
