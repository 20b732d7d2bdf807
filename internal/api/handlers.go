package api

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/torvik/snapvault/internal/apperr"
	"github.com/torvik/snapvault/internal/models"
	"github.com/torvik/snapvault/internal/recordstore"
)

// Handler holds API route handlers.
type Handler struct {
	store *recordstore.Store
}

// NewHandler creates a new Handler.
func NewHandler(store *recordstore.Store) *Handler {
	return &Handler{store: store}
}

// recordName extracts the metadata file name from the URL.
func recordName(r *http.Request) string {
	return chi.URLParam(r, "name")
}

// writeStoreError maps domain errors to HTTP responses.
func writeStoreError(w http.ResponseWriter, op, name string, err error) {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
	case errors.Is(err, apperr.ErrInvalidStatus):
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
	default:
		slog.Error(op+" failed", slog.String("name", name), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
	}
}

// ListRecords handles GET /api/records.
//
//	@Summary		List records, newest first, optionally filtered by status
//	@Tags			records
//	@Produce		json
//	@Param			filter	query		string	false	"Status filter"	Enums(all, todo, done)
//	@Success		200		{object}	RecordListResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/records [get]
func (h *Handler) ListRecords(w http.ResponseWriter, r *http.Request) {
	filter := models.Filter(r.URL.Query().Get("filter"))
	if filter == "" {
		filter = models.FilterAll
	}
	switch filter {
	case models.FilterAll, models.FilterTodo, models.FilterDone:
	default:
		writeJSON(w, http.StatusBadRequest, errorBody("unknown filter: "+string(filter)))
		return
	}

	recs, err := h.store.List(r.Context(), filter)
	if err != nil {
		slog.Error("list records failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, RecordListResponse{
		Records: toDTOs(recs),
		Total:   len(recs),
	})
}

// CreateNote handles POST /api/records.
//
//	@Summary		Create a note-only record
//	@Tags			records
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CreateNoteRequest	true	"Note to create"
//	@Success		201		{object}	RecordDTO
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/records [post]
func (h *Handler) CreateNote(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 10<<20)
	var req CreateNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if req.Note == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("note is required"))
		return
	}
	rec, err := h.store.CreateNote(r.Context(), req.Note)
	if err != nil {
		slog.Error("create note failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusCreated, toDTO(*rec))
}

// CreateClipboard handles POST /api/records/clipboard.
//
//	@Summary		Create a record from clipboard text and/or a base64 image
//	@Tags			records
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CreateClipboardRequest	true	"Clipboard content"
//	@Success		201		{object}	RecordDTO
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/records/clipboard [post]
func (h *Handler) CreateClipboard(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	var req CreateClipboardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if req.Note == "" && req.ImageBase64 == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("note or imageBase64 is required"))
		return
	}
	var image []byte
	if req.ImageBase64 != "" {
		decoded, err := base64.StdEncoding.DecodeString(req.ImageBase64)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody("invalid base64 image"))
			return
		}
		image = decoded
	}
	rec, err := h.store.CreateWithClipboardImage(r.Context(), req.Note, image)
	if err != nil {
		slog.Error("create clipboard record failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusCreated, toDTO(*rec))
}

// CreateCapture handles POST /api/captures (multipart/form-data).
//
// The "image" file field carries the screenshot. The optional
// "clipboardText" field and "clipboardImage" file snapshot the
// clipboard at capture time.
//
//	@Summary		Create a record from a screenshot capture
//	@Tags			records
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			image			formData	file	true	"Screenshot image"
//	@Param			clipboardText	formData	string	false	"Clipboard text at capture time"
//	@Param			clipboardImage	formData	file	false	"Clipboard image at capture time"
//	@Success		201		{object}	RecordDTO
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/captures [post]
func (h *Handler) CreateCapture(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("file too large or invalid multipart"))
		return
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("missing 'image' field in multipart form"))
		return
	}
	defer file.Close()
	image, err := io.ReadAll(file)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("failed to read image"))
		return
	}

	snap := models.ClipboardSnapshot{Text: r.FormValue("clipboardText")}
	if clipFile, _, clipErr := r.FormFile("clipboardImage"); clipErr == nil {
		defer clipFile.Close()
		if snap.Image, err = io.ReadAll(clipFile); err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody("failed to read clipboard image"))
			return
		}
	}

	rec, err := h.store.CreateFromCapture(r.Context(), image, snap)
	if err != nil {
		slog.Error("create capture failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusCreated, toDTO(*rec))
}

// UpdateNote handles PATCH /api/records/{name}/note.
//
//	@Summary		Update a record's note text
//	@Tags			records
//	@Accept			json
//	@Produce		json
//	@Param			name	path		string				true	"Metadata file name"
//	@Param			body	body		UpdateNoteRequest	true	"New note text"
//	@Success		200		{object}	MutationResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/records/{name}/note [patch]
func (h *Handler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 10<<20)
	name := recordName(r)
	var req UpdateNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if err := h.store.UpdateNote(r.Context(), name, req.Note, req.EditMode); err != nil {
		writeStoreError(w, "update note", name, err)
		return
	}
	writeJSON(w, http.StatusOK, MutationResponse{Success: true})
}

// UpdateStatus handles PATCH /api/records/{name}/status.
//
//	@Summary		Update a record's status
//	@Tags			records
//	@Accept			json
//	@Produce		json
//	@Param			name	path		string				true	"Metadata file name"
//	@Param			body	body		UpdateStatusRequest	true	"New status (todo or done)"
//	@Success		200		{object}	MutationResponse
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/records/{name}/status [patch]
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	name := recordName(r)
	var req UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if err := h.store.UpdateStatus(r.Context(), name, models.Status(req.Status)); err != nil {
		writeStoreError(w, "update status", name, err)
		return
	}
	writeJSON(w, http.StatusOK, MutationResponse{Success: true})
}

// UpdateOrder handles PATCH /api/records/{name}/order.
//
//	@Summary		Update a record's sort position
//	@Tags			records
//	@Accept			json
//	@Produce		json
//	@Param			name	path		string				true	"Metadata file name"
//	@Param			body	body		UpdateOrderRequest	true	"New order value"
//	@Success		200		{object}	MutationResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/records/{name}/order [patch]
func (h *Handler) UpdateOrder(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	name := recordName(r)
	var req UpdateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if err := h.store.UpdateOrder(r.Context(), name, req.Order); err != nil {
		writeStoreError(w, "update order", name, err)
		return
	}
	writeJSON(w, http.StatusOK, MutationResponse{Success: true})
}

// BatchUpdateOrder handles PUT /api/records/order.
//
// The update is applied item by item. A failing item is reported in
// the result but never aborts the rest of the batch.
//
//	@Summary		Update sort positions for multiple records
//	@Tags			records
//	@Accept			json
//	@Produce		json
//	@Param			body	body		BatchOrderRequest	true	"Order updates"
//	@Success		200		{object}	BatchResult
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/records/order [put]
func (h *Handler) BatchUpdateOrder(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 10<<20)
	var req BatchOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	res := h.store.BatchUpdateOrder(r.Context(), req.Items)
	writeJSON(w, http.StatusOK, res)
}

// DeleteRecord handles DELETE /api/records/{name}.
//
//	@Summary		Delete a record and, unless told otherwise, its image assets
//	@Tags			records
//	@Produce		json
//	@Param			name			path	string	true	"Metadata file name"
//	@Param			deleteImages	query	bool	false	"Also delete image assets (default true)"
//	@Success		200		{object}	MutationResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/records/{name} [delete]
func (h *Handler) DeleteRecord(w http.ResponseWriter, r *http.Request) {
	name := recordName(r)
	deleteImages := true
	if raw := r.URL.Query().Get("deleteImages"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody("invalid deleteImages value"))
			return
		}
		deleteImages = parsed
	}
	if err := h.store.Delete(r.Context(), name, deleteImages); err != nil {
		writeStoreError(w, "delete record", name, err)
		return
	}
	writeJSON(w, http.StatusOK, MutationResponse{Success: true})
}
