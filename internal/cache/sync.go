package cache

import (
	"log/slog"

	"github.com/torvik/snapvault/internal/checksum"
	"github.com/torvik/snapvault/internal/storage"
)

// Sync walks the vault and brings the cache up to date:
//   - new/changed metadata files are re-read and upserted
//   - files removed from disk are dropped from the cache
//
// Files whose mtime moved but whose bytes are unchanged get only a stat
// refresh, so a copied-in vault does not force full re-caching.
func Sync(db *DB, files storage.Provider, logger *slog.Logger) error {
	infos, err := files.List()
	if err != nil {
		return err
	}

	cached, err := db.AllMeta()
	if err != nil {
		return err
	}

	disk := make(map[string]struct{}, len(infos))
	for _, fi := range infos {
		disk[fi.Name] = struct{}{}

		meta, ok := cached[fi.Name]
		if ok && meta.MtimeMS == fi.ModTime.UnixMilli() && meta.Size == fi.Size {
			continue
		}

		data, err := files.Read(fi.Name)
		if err != nil {
			logger.Warn("sync: read failed", slog.String("path", fi.Name), slog.String("error", err.Error()))
			continue
		}

		cs := checksum.Sum(data)
		if ok && meta.Checksum == cs {
			if err := db.Touch(fi.Name, fi.ModTime.UnixMilli(), fi.Size); err != nil {
				logger.Warn("sync: touch failed", slog.String("path", fi.Name), slog.String("error", err.Error()))
			}
			continue
		}

		row := Row{
			Path:     fi.Name,
			MtimeMS:  fi.ModTime.UnixMilli(),
			Size:     fi.Size,
			Checksum: cs,
			Doc:      data,
		}
		if err := db.Put(row); err != nil {
			logger.Warn("sync: put failed", slog.String("path", fi.Name), slog.String("error", err.Error()))
		} else {
			logger.Debug("sync: cached", slog.String("path", fi.Name))
		}
	}

	// Drop rows whose files are gone.
	for p := range cached {
		if _, ok := disk[p]; !ok {
			if err := db.Remove(p); err != nil {
				logger.Warn("sync: remove failed", slog.String("path", p), slog.String("error", err.Error()))
			} else {
				logger.Debug("sync: removed stale", slog.String("path", p))
			}
		}
	}

	return nil
}
