// Package models defines the domain types for Snapvault.
package models

import (
	"fmt"

	"github.com/torvik/snapvault/internal/apperr"
)

// Status is the completion state of a record.
type Status string

// Valid statuses.
const (
	StatusTodo Status = "todo"
	StatusDone Status = "done"
)

// Validate reports whether s is one of the known status values.
func (s Status) Validate() error {
	switch s {
	case StatusTodo, StatusDone:
		return nil
	}
	return fmt.Errorf("%w: %q", apperr.ErrInvalidStatus, string(s))
}

// Filter selects which records a listing returns.
type Filter string

// Valid filters.
const (
	FilterAll  Filter = "all"
	FilterTodo Filter = "todo"
	FilterDone Filter = "done"
)

// Matches reports whether a record with the given status passes the filter.
// Unknown filter values behave like FilterAll.
func (f Filter) Matches(s Status) bool {
	switch f {
	case FilterTodo:
		return s == StatusTodo
	case FilterDone:
		return s == StatusDone
	}
	return true
}

// Clipboard types present in a snapshot.
const (
	ClipboardText  = "text"
	ClipboardImage = "image"
)

// Clipboard is the immutable snapshot of clipboard state at capture time.
type Clipboard struct {
	Types     []string `json:"types"`
	Text      string   `json:"text,omitempty"`
	ImagePath string   `json:"imagePath,omitempty"`
}

// Note holds the user-editable content of a record.
type Note struct {
	Text      string `json:"text"`
	UpdatedAt string `json:"updatedAt"`
}

// Record is the unit of persistence: one capture or note, stored as a JSON
// metadata file with optional sibling image assets.
//
// ID, CreatedAt, ImagePath, and Clipboard are immutable after creation.
// Note, Status, and Order are independently mutable.
type Record struct {
	// ID is a creation-time unix-millisecond timestamp, unique within a
	// single process, and doubles as the default sort rank.
	ID        int64     `json:"id"`
	CreatedAt string    `json:"createdAt"`
	ImagePath string    `json:"imagePath,omitempty"`
	Clipboard Clipboard `json:"clipboard"`
	Note      Note      `json:"note"`
	Status    Status    `json:"status"`
	Order     int64     `json:"order"`

	// MetadataPath is the absolute path of the record's metadata file.
	// It is attached at read time and never stored inside the file itself.
	MetadataPath string `json:"-"`
}

// ClipboardSnapshot is what the capture subsystem hands to the store:
// the clipboard contents observed at capture time.
type ClipboardSnapshot struct {
	Text  string
	Image []byte
}
