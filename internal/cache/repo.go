package cache

import (
	"database/sql"
	"errors"
	"fmt"
)

// Row is one cached metadata file.
type Row struct {
	Path     string
	MtimeMS  int64
	Size     int64
	Checksum string
	Doc      []byte
}

// Meta is a Row without its document, used for reconciliation passes.
type Meta struct {
	MtimeMS  int64
	Size     int64
	Checksum string
}

// Put inserts or replaces a cached row.
func (db *DB) Put(r Row) error {
	_, err := db.conn.Exec(`
		INSERT INTO records (path, mtime_ms, size, checksum, doc)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			mtime_ms = excluded.mtime_ms,
			size     = excluded.size,
			checksum = excluded.checksum,
			doc      = excluded.doc
	`, r.Path, r.MtimeMS, r.Size, r.Checksum, r.Doc)
	if err != nil {
		return fmt.Errorf("cache: put %s: %w", r.Path, err)
	}
	return nil
}

// Touch updates only the stat fields of a row, for files whose content is
// unchanged but whose mtime moved (e.g. after a copy).
func (db *DB) Touch(path string, mtimeMS, size int64) error {
	_, err := db.conn.Exec(`UPDATE records SET mtime_ms = ?, size = ? WHERE path = ?`,
		mtimeMS, size, path)
	if err != nil {
		return fmt.Errorf("cache: touch %s: %w", path, err)
	}
	return nil
}

// Get returns the cached row for path. ok is false when there is none.
func (db *DB) Get(path string) (Row, bool, error) {
	var r Row
	r.Path = path
	err := db.conn.QueryRow(`
		SELECT mtime_ms, size, checksum, doc FROM records WHERE path = ?
	`, path).Scan(&r.MtimeMS, &r.Size, &r.Checksum, &r.Doc)
	if errors.Is(err, sql.ErrNoRows) {
		return Row{}, false, nil
	}
	if err != nil {
		return Row{}, false, fmt.Errorf("cache: get %s: %w", path, err)
	}
	return r, true, nil
}

// Remove drops the cached row for path. Removing an absent row is a no-op.
func (db *DB) Remove(path string) error {
	if _, err := db.conn.Exec(`DELETE FROM records WHERE path = ?`, path); err != nil {
		return fmt.Errorf("cache: remove %s: %w", path, err)
	}
	return nil
}

// AllMeta returns the stat fields of every cached row, keyed by path.
func (db *DB) AllMeta() (map[string]Meta, error) {
	rows, err := db.conn.Query(`SELECT path, mtime_ms, size, checksum FROM records`)
	if err != nil {
		return nil, fmt.Errorf("cache: all meta: %w", err)
	}
	defer rows.Close()

	out := make(map[string]Meta)
	for rows.Next() {
		var p string
		var m Meta
		if err := rows.Scan(&p, &m.MtimeMS, &m.Size, &m.Checksum); err != nil {
			return nil, err
		}
		out[p] = m
	}
	return out, rows.Err()
}
