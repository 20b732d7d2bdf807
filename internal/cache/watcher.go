package cache

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/torvik/snapvault/internal/checksum"
	"github.com/torvik/snapvault/internal/storage"
)

// EventCallback is called after a watcher-driven cache change.
// kind is one of "created", "updated", "deleted".
type EventCallback func(kind string, path string)

// Watch starts an fsnotify watcher on the vault root and keeps the cache in
// step with out-of-band file changes until ctx is cancelled. It calls cb
// (if non-nil) after each successful cache mutation.
//
// The vault is a single flat directory, so only the root itself is watched;
// non-metadata files (image assets) are ignored. Rename events trigger a
// debounced reconciliation pass that removes stale rows.
func Watch(ctx context.Context, db *DB, files storage.Provider, logger *slog.Logger, cb EventCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(files.Root()); err != nil {
		return err
	}

	logger.Info("watcher: started", slog.String("root", files.Root()))

	// reconcileTimer debounces rename reconciliation.
	var reconcileTimer *time.Timer
	var reconcileCh <-chan time.Time

	scheduleReconcile := func() {
		if reconcileTimer == nil {
			reconcileTimer = time.NewTimer(200 * time.Millisecond)
			reconcileCh = reconcileTimer.C
		} else {
			reconcileTimer.Reset(200 * time.Millisecond)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if reconcileTimer != nil {
				reconcileTimer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-reconcileCh:
			if err := Sync(db, files, logger); err != nil {
				logger.Warn("watcher: reconcile failed", slog.String("error", err.Error()))
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}

			name := filepath.Base(ev.Name)
			if !strings.HasSuffix(name, ".json") || strings.HasPrefix(name, ".") {
				continue
			}

			switch {
			case ev.Op&(fsnotify.Create|fsnotify.Write) != 0:
				if refreshErr := refresh(db, files, name); refreshErr != nil {
					logger.Warn("watcher: refresh failed", slog.String("path", name), slog.String("error", refreshErr.Error()))
					continue
				}
				kind := "updated"
				if ev.Op&fsnotify.Create != 0 {
					kind = "created"
				}
				logger.Debug("watcher: cached", slog.String("path", name), slog.String("op", kind))
				if cb != nil {
					cb(kind, name)
				}

			case ev.Op&fsnotify.Remove != 0:
				if delErr := db.Remove(name); delErr != nil {
					logger.Warn("watcher: remove failed", slog.String("path", name), slog.String("error", delErr.Error()))
					continue
				}
				logger.Debug("watcher: removed", slog.String("path", name))
				if cb != nil {
					cb("deleted", name)
				}

			case ev.Op&fsnotify.Rename != 0:
				// fsnotify fires Rename on the old path only; the new
				// path arrives as a separate Create event. Drop the old
				// row now and reconcile shortly after for stragglers.
				if delErr := db.Remove(name); delErr == nil {
					logger.Debug("watcher: rename old removed", slog.String("path", name))
					if cb != nil {
						cb("deleted", name)
					}
				}
				scheduleReconcile()
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// refresh re-reads one metadata file and upserts its cache row.
func refresh(db *DB, files storage.Provider, name string) error {
	data, err := files.Read(name)
	if err != nil {
		return err
	}
	fi, err := files.Stat(name)
	if err != nil {
		// File vanished between the event and the stat; drop any stale row.
		return db.Remove(name)
	}
	return db.Put(Row{
		Path:     name,
		MtimeMS:  fi.ModTime.UnixMilli(),
		Size:     fi.Size,
		Checksum: checksum.Sum(data),
		Doc:      data,
	})
}
