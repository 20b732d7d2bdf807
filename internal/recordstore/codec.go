// Package recordstore implements the capture record store: a flat directory
// of JSON metadata files treated as a lightweight document database, with
// create/query/mutate/delete operations and read-path schema migration.
package recordstore

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/torvik/snapvault/internal/models"
)

// isoLayout renders timestamps as ISO-8601 with millisecond precision in
// UTC, so lexicographic comparison of CreatedAt equals chronological order.
const isoLayout = "2006-01-02T15:04:05.000Z"

func isoTime(t time.Time) string {
	return t.UTC().Format(isoLayout)
}

// rawRecord is the on-disk shape, tolerant of older files: fields added
// after the first release are pointers so absence is distinguishable, and
// the legacy flat clipboardText field is still accepted.
type rawRecord struct {
	ID        int64             `json:"id"`
	CreatedAt string            `json:"createdAt"`
	ImagePath string            `json:"imagePath,omitempty"`
	Clipboard *models.Clipboard `json:"clipboard,omitempty"`
	Note      *models.Note      `json:"note,omitempty"`
	Status    models.Status     `json:"status,omitempty"`
	Order     *int64            `json:"order,omitempty"`

	// ClipboardText is the pre-clipboard-object field; kept for migration.
	ClipboardText *string `json:"clipboardText,omitempty"`
}

// Encode serializes a record to its metadata file representation.
// MetadataPath is derived state and is never written to disk.
func Encode(rec *models.Record) ([]byte, error) {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("recordstore: encode: %w", err)
	}
	return data, nil
}

// Decode parses a metadata file and migrates older shapes to the current
// schema. Migration is in-memory only: the file on disk is left untouched
// until a mutation rewrites it. Decoding an already-current record is a
// no-op, and migrating twice yields the same result as migrating once.
func Decode(data []byte) (*models.Record, error) {
	var raw rawRecord
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("recordstore: decode: %w", err)
	}

	rec := &models.Record{
		ID:        raw.ID,
		CreatedAt: raw.CreatedAt,
		ImagePath: raw.ImagePath,
		Status:    raw.Status,
	}

	// Missing status predates the todo/done feature.
	if raw.Status == "" {
		rec.Status = models.StatusTodo
	} else if err := raw.Status.Validate(); err != nil {
		return nil, fmt.Errorf("recordstore: decode: %w", err)
	}

	// Missing order predates manual reordering; default ranks by id.
	switch {
	case raw.Order != nil:
		rec.Order = *raw.Order
	case raw.ID != 0:
		rec.Order = raw.ID
	default:
		rec.Order = time.Now().UnixMilli()
	}

	legacyText := ""
	if raw.ClipboardText != nil {
		legacyText = *raw.ClipboardText
	}

	// Missing note predates editable notes; synthesize from the legacy
	// flat clipboardText field without disturbing recency order.
	if raw.Note != nil {
		rec.Note = *raw.Note
	} else {
		rec.Note = models.Note{Text: legacyText, UpdatedAt: raw.CreatedAt}
	}

	// Missing clipboard object predates clipboard image support.
	if raw.Clipboard != nil {
		rec.Clipboard = *raw.Clipboard
	} else {
		types := []string{}
		if legacyText != "" {
			types = append(types, models.ClipboardText)
		}
		rec.Clipboard = models.Clipboard{Types: types, Text: legacyText}
	}
	if rec.Clipboard.Types == nil {
		rec.Clipboard.Types = []string{}
	}

	return rec, nil
}
