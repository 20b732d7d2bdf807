package api

import (
	"github.com/torvik/snapvault/internal/models"
	"github.com/torvik/snapvault/internal/recordstore"
)

// CreateNoteRequest is the request body for creating a note-only record.
type CreateNoteRequest struct {
	Note string `json:"note" example:"remember to rotate the API key" validate:"required"`
}

// CreateClipboardRequest is the request body for creating a record from
// clipboard content. At least one of note or imageBase64 must be set.
type CreateClipboardRequest struct {
	Note        string `json:"note" example:"copied config snippet"`
	ImageBase64 string `json:"imageBase64"`
}

// UpdateNoteRequest is the request body for updating a record's note.
type UpdateNoteRequest struct {
	Note     string `json:"note" validate:"required"`
	EditMode bool   `json:"editMode"`
}

// UpdateStatusRequest is the request body for updating a record's status.
type UpdateStatusRequest struct {
	Status string `json:"status" example:"done" validate:"required"`
}

// UpdateOrderRequest is the request body for updating a single record's order.
type UpdateOrderRequest struct {
	Order int64 `json:"order" example:"1700000000000" validate:"required"`
}

// BatchOrderRequest is the request body for a bulk order update.
type BatchOrderRequest struct {
	Items []recordstore.OrderUpdate `json:"items" validate:"required"`
}

// RecordDTO is a record as exposed over the API. The on-disk document
// never carries its own path, so the DTO adds it for callers that need
// to address mutations.
type RecordDTO struct {
	models.Record
	MetadataPath string `json:"metadataPath" example:"/vault/note_2023-11-14T22-13-20_1700000000000.json"`
}

// RecordListResponse wraps record listings.
type RecordListResponse struct {
	Records []RecordDTO `json:"records" validate:"required"`
	Total   int         `json:"total" example:"42" validate:"required"`
}

// MutationResponse is returned by update and delete operations.
type MutationResponse struct {
	Success bool `json:"success"`
}

// BatchResult is the aggregate outcome of a bulk order update
// (aliased from the domain layer).
type BatchResult = recordstore.BatchResult

func toDTO(rec models.Record) RecordDTO {
	return RecordDTO{Record: rec, MetadataPath: rec.MetadataPath}
}

func toDTOs(recs []models.Record) []RecordDTO {
	out := make([]RecordDTO, 0, len(recs))
	for _, rec := range recs {
		out = append(out, toDTO(rec))
	}
	return out
}
