package storage

import (
	"fmt"
	"time"
)

// Base-name prefixes for the three record kinds.
const (
	PrefixCapture = "capture"
	PrefixNote    = "note"
	PrefixClip    = "clip"
)

// stampLayout is a filesystem-safe rendering of the creation time
// (colons are not valid in file names on every platform).
const stampLayout = "2006-01-02T15-04-05"

// BaseName builds the shared base for all sibling files of one record:
// <prefix>_<fs-safe timestamp>_<id>. The id is the record's creation-time
// unix-millisecond timestamp, which makes the name collision-free within a
// single process.
func BaseName(prefix string, t time.Time, id int64) string {
	return fmt.Sprintf("%s_%s_%d", prefix, t.UTC().Format(stampLayout), id)
}

// ClipboardImageName returns the file name of a record's saved clipboard
// image, derived from the record id alone.
func ClipboardImageName(id int64) string {
	return fmt.Sprintf("clipboard_%d.png", id)
}
