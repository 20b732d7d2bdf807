package recordstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/torvik/snapvault/internal/apperr"
	"github.com/torvik/snapvault/internal/cache"
	"github.com/torvik/snapvault/internal/checksum"
	"github.com/torvik/snapvault/internal/models"
	"github.com/torvik/snapvault/internal/storage"
)

// Store is the record persistence and query engine. It owns no global
// state: construct one per storage root and inject it into callers.
type Store struct {
	files  storage.Provider
	cache  *cache.DB // optional listing cache; nil disables caching
	logger *slog.Logger

	mu     sync.Mutex
	lastID int64
}

// New creates a Store over the given vault. db may be nil, in which case
// every listing re-reads all metadata files.
func New(files storage.Provider, db *cache.DB, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{files: files, cache: db, logger: logger}
}

// nextID returns a unix-millisecond timestamp that is strictly greater than
// any id previously handed out by this store, so ids stay unique even when
// two creations land in the same millisecond.
func (s *Store) nextID() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := time.Now().UnixMilli()
	if id <= s.lastID {
		id = s.lastID + 1
	}
	s.lastID = id
	return id
}

// CreateFromCapture persists a screenshot capture: the image buffer, the
// clipboard snapshot taken at capture time, and a metadata file whose note
// is seeded from the clipboard text. Any write failure aborts the whole
// operation, including a failing clipboard image write.
func (s *Store) CreateFromCapture(_ context.Context, image []byte, snap models.ClipboardSnapshot) (*models.Record, error) {
	if len(image) == 0 {
		return nil, fmt.Errorf("recordstore: capture image is required")
	}

	id := s.nextID()
	now := time.UnixMilli(id)
	createdAt := isoTime(now)
	base := storage.BaseName(storage.PrefixCapture, now, id)

	imageName := base + ".png"
	if err := s.files.Write(imageName, image); err != nil {
		return nil, fmt.Errorf("recordstore: write capture image: %w", err)
	}
	imagePath, err := s.files.Abs(imageName)
	if err != nil {
		return nil, err
	}

	clip := models.Clipboard{Types: []string{}, Text: snap.Text}
	if snap.Text != "" {
		clip.Types = append(clip.Types, models.ClipboardText)
	}
	if len(snap.Image) > 0 {
		clipName := storage.ClipboardImageName(id)
		if err := s.files.Write(clipName, snap.Image); err != nil {
			return nil, fmt.Errorf("recordstore: write clipboard image: %w", err)
		}
		clip.Types = append(clip.Types, models.ClipboardImage)
		if clip.ImagePath, err = s.files.Abs(clipName); err != nil {
			return nil, err
		}
	}

	rec := &models.Record{
		ID:        id,
		CreatedAt: createdAt,
		ImagePath: imagePath,
		Clipboard: clip,
		Note:      models.Note{Text: snap.Text, UpdatedAt: createdAt},
		Status:    models.StatusTodo,
		Order:     id,
	}
	return rec, s.persistNew(rec, base)
}

// CreateNote persists a note-only record: no images, empty clipboard
// snapshot.
func (s *Store) CreateNote(_ context.Context, text string) (*models.Record, error) {
	id := s.nextID()
	now := time.UnixMilli(id)
	createdAt := isoTime(now)
	base := storage.BaseName(storage.PrefixNote, now, id)

	rec := &models.Record{
		ID:        id,
		CreatedAt: createdAt,
		Clipboard: models.Clipboard{Types: []string{}},
		Note:      models.Note{Text: text, UpdatedAt: createdAt},
		Status:    models.StatusTodo,
		Order:     id,
	}
	return rec, s.persistNew(rec, base)
}

// CreateWithClipboardImage persists a record with no screenshot: a note plus
// an optional clipboard image. The clipboard types set is derived from
// which of text and image are non-empty.
func (s *Store) CreateWithClipboardImage(_ context.Context, text string, image []byte) (*models.Record, error) {
	id := s.nextID()
	now := time.UnixMilli(id)
	createdAt := isoTime(now)
	base := storage.BaseName(storage.PrefixClip, now, id)

	clip := models.Clipboard{Types: []string{}, Text: text}
	if text != "" {
		clip.Types = append(clip.Types, models.ClipboardText)
	}
	if len(image) > 0 {
		clipName := storage.ClipboardImageName(id)
		if err := s.files.Write(clipName, image); err != nil {
			return nil, fmt.Errorf("recordstore: write clipboard image: %w", err)
		}
		clip.Types = append(clip.Types, models.ClipboardImage)
		var err error
		if clip.ImagePath, err = s.files.Abs(clipName); err != nil {
			return nil, err
		}
	}

	rec := &models.Record{
		ID:        id,
		CreatedAt: createdAt,
		Clipboard: clip,
		Note:      models.Note{Text: text, UpdatedAt: createdAt},
		Status:    models.StatusTodo,
		Order:     id,
	}
	return rec, s.persistNew(rec, base)
}

// persistNew writes the metadata file for a freshly built record and
// attaches its MetadataPath.
func (s *Store) persistNew(rec *models.Record, base string) error {
	data, err := Encode(rec)
	if err != nil {
		return err
	}
	name := base + ".json"
	if err := s.files.Write(name, data); err != nil {
		return fmt.Errorf("recordstore: write metadata: %w", err)
	}
	if rec.MetadataPath, err = s.files.Abs(name); err != nil {
		return err
	}
	s.invalidate(name)
	return nil
}

// Get loads a single record by metadata path, migrating its shape if needed.
func (s *Store) Get(_ context.Context, metadataPath string) (*models.Record, error) {
	name, err := s.files.Name(metadataPath)
	if err != nil {
		return nil, err
	}
	return s.load(name)
}

// UpdateNote rewrites a record's note text. When editMode is true the note's
// updatedAt is preserved, so editing an existing record from the management
// list does not disturb its recency order; a fresh capture edit bumps it.
func (s *Store) UpdateNote(_ context.Context, metadataPath, text string, editMode bool) error {
	name, err := s.files.Name(metadataPath)
	if err != nil {
		return err
	}
	rec, err := s.load(name)
	if err != nil {
		return err
	}
	rec.Note.Text = text
	if !editMode {
		rec.Note.UpdatedAt = isoTime(time.Now())
	}
	return s.save(name, rec)
}

// UpdateStatus sets a record's status. Values outside {todo, done} are
// rejected before any I/O happens.
func (s *Store) UpdateStatus(_ context.Context, metadataPath string, status models.Status) error {
	if err := status.Validate(); err != nil {
		return err
	}
	name, err := s.files.Name(metadataPath)
	if err != nil {
		return err
	}
	rec, err := s.load(name)
	if err != nil {
		return err
	}
	rec.Status = status
	return s.save(name, rec)
}

// UpdateOrder sets a record's manual sort rank.
func (s *Store) UpdateOrder(_ context.Context, metadataPath string, order int64) error {
	name, err := s.files.Name(metadataPath)
	if err != nil {
		return err
	}
	rec, err := s.load(name)
	if err != nil {
		return err
	}
	rec.Order = order
	return s.save(name, rec)
}

// OrderUpdate is one item of a batch reorder.
type OrderUpdate struct {
	MetadataPath string `json:"metadataPath"`
	Order        int64  `json:"order"`
}

// BatchError reports one failed item of a batch reorder.
type BatchError struct {
	MetadataPath string `json:"metadataPath"`
	Error        string `json:"error"`
}

// BatchResult is the outcome of a batch reorder. Success is true only when
// every item succeeded; individual failures are listed in Errors.
type BatchResult struct {
	Success      bool         `json:"success"`
	SuccessCount int          `json:"successCount"`
	TotalCount   int          `json:"totalCount"`
	Errors       []BatchError `json:"errors"`
}

// BatchUpdateOrder applies order updates one at a time. A failing item is
// recorded and does not abort the remaining items: the batch is
// partial-failure-tolerant, not all-or-nothing. Items are applied
// sequentially to keep per-item error attribution simple.
func (s *Store) BatchUpdateOrder(ctx context.Context, updates []OrderUpdate) BatchResult {
	res := BatchResult{TotalCount: len(updates), Errors: []BatchError{}}
	for _, u := range updates {
		if err := s.UpdateOrder(ctx, u.MetadataPath, u.Order); err != nil {
			s.logger.Warn("batch order update failed",
				slog.String("path", u.MetadataPath),
				slog.String("error", err.Error()))
			res.Errors = append(res.Errors, BatchError{MetadataPath: u.MetadataPath, Error: err.Error()})
			continue
		}
		res.SuccessCount++
	}
	res.Success = res.SuccessCount == res.TotalCount
	return res
}

// Delete removes a record. With deleteAssets, referenced image files are
// removed first and the metadata file last, so a crash mid-delete leaves an
// orphaned-but-still-listed record rather than silently vanished assets.
// A referenced asset already missing from disk is not an error.
func (s *Store) Delete(_ context.Context, metadataPath string, deleteAssets bool) error {
	name, err := s.files.Name(metadataPath)
	if err != nil {
		return err
	}
	rec, err := s.load(name)
	if err != nil {
		return err
	}

	if deleteAssets {
		for _, p := range []string{rec.ImagePath, rec.Clipboard.ImagePath} {
			if p == "" {
				continue
			}
			assetName, nameErr := s.files.Name(p)
			if nameErr != nil {
				s.logger.Warn("skipping asset outside vault root",
					slog.String("path", p))
				continue
			}
			if !s.files.Exists(assetName) {
				continue
			}
			if err := s.files.Delete(assetName); err != nil {
				return fmt.Errorf("recordstore: delete asset: %w", err)
			}
		}
	}

	if err := s.files.Delete(name); err != nil {
		return fmt.Errorf("recordstore: delete metadata: %w", err)
	}
	s.invalidate(name)
	return nil
}

// List returns every record in the vault passing the filter, sorted by
// order descending with createdAt as tie-break. A corrupt metadata file is
// logged and skipped; it never fails the listing wholesale.
func (s *Store) List(_ context.Context, filter models.Filter) ([]models.Record, error) {
	infos, err := s.files.List()
	if err != nil {
		return nil, err
	}

	out := make([]models.Record, 0, len(infos))
	for _, fi := range infos {
		rec, err := s.loadListed(fi)
		if err != nil {
			s.logger.Warn("skipping unreadable record",
				slog.String("file", fi.Name),
				slog.String("error", err.Error()))
			continue
		}
		if !filter.Matches(rec.Status) {
			continue
		}
		out = append(out, *rec)
	}
	Sort(out)
	return out, nil
}

// load reads and decodes one metadata file, bypassing the cache.
func (s *Store) load(name string) (*models.Record, error) {
	data, err := s.files.Read(name)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("recordstore: %s: %w", name, apperr.ErrNotFound)
		}
		return nil, err
	}
	rec, err := Decode(data)
	if err != nil {
		return nil, err
	}
	var absErr error
	if rec.MetadataPath, absErr = s.files.Abs(name); absErr != nil {
		return nil, absErr
	}
	return rec, nil
}

// loadListed loads one metadata file during a listing, consulting the cache
// first. An unchanged file (same mtime and size) is served from the cached
// document; otherwise the file is re-read and the cache refreshed.
func (s *Store) loadListed(fi storage.FileInfo) (*models.Record, error) {
	if s.cache != nil {
		if row, ok, err := s.cache.Get(fi.Name); err == nil && ok &&
			row.MtimeMS == fi.ModTime.UnixMilli() && row.Size == fi.Size {
			rec, decErr := Decode(row.Doc)
			if decErr == nil {
				var absErr error
				if rec.MetadataPath, absErr = s.files.Abs(fi.Name); absErr != nil {
					return nil, absErr
				}
				return rec, nil
			}
			// Fall through and re-read from disk on a bad cached doc.
		}
	}

	data, err := s.files.Read(fi.Name)
	if err != nil {
		return nil, err
	}
	rec, err := Decode(data)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		err := s.cache.Put(cache.Row{
			Path:     fi.Name,
			MtimeMS:  fi.ModTime.UnixMilli(),
			Size:     fi.Size,
			Checksum: checksum.Sum(data),
			Doc:      data,
		})
		if err != nil {
			s.logger.Warn("cache put failed",
				slog.String("file", fi.Name),
				slog.String("error", err.Error()))
		}
	}
	var absErr error
	if rec.MetadataPath, absErr = s.files.Abs(fi.Name); absErr != nil {
		return nil, absErr
	}
	return rec, nil
}

// save encodes and rewrites a record's metadata file. Writes are
// last-write-wins: two concurrent mutations of the same file race and the
// later write silently prevails.
func (s *Store) save(name string, rec *models.Record) error {
	data, err := Encode(rec)
	if err != nil {
		return err
	}
	if err := s.files.Write(name, data); err != nil {
		return fmt.Errorf("recordstore: write metadata: %w", err)
	}
	s.invalidate(name)
	return nil
}

// invalidate drops a cache row after a mutation; the next listing re-reads
// the file and repopulates it.
func (s *Store) invalidate(name string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Remove(name); err != nil {
		s.logger.Warn("cache invalidate failed",
			slog.String("file", name),
			slog.String("error", err.Error()))
	}
}
