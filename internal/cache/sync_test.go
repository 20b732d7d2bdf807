package cache

import (
	"io"
	"log/slog"
	"testing"

	"github.com/torvik/snapvault/internal/storage"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func syncEnv(t *testing.T) (storage.Provider, *DB) {
	t.Helper()
	files, err := storage.NewFS(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return files, testDB(t)
}

func TestSyncCachesNewFiles(t *testing.T) {
	files, db := syncEnv(t)
	logger := quietLogger()

	_ = files.Write("a.json", []byte(`{"id":1}`))
	_ = files.Write("b.json", []byte(`{"id":2}`))
	_ = files.Write("shot.png", []byte{1, 2, 3}) // assets are not cached

	if err := Sync(db, files, logger); err != nil {
		t.Fatalf("Sync: %v", err)
	}

	metas, _ := db.AllMeta()
	if len(metas) != 2 {
		t.Fatalf("cached %d rows, want 2", len(metas))
	}
	row, ok, _ := db.Get("a.json")
	if !ok || string(row.Doc) != `{"id":1}` {
		t.Errorf("row = %+v", row)
	}
}

func TestSyncRemovesStaleRows(t *testing.T) {
	files, db := syncEnv(t)
	logger := quietLogger()

	_ = files.Write("gone.json", []byte(`{"id":1}`))
	if err := Sync(db, files, logger); err != nil {
		t.Fatal(err)
	}
	_ = files.Delete("gone.json")
	if err := Sync(db, files, logger); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := db.Get("gone.json"); ok {
		t.Error("stale row survived sync")
	}
}

func TestSyncRefreshesChangedFiles(t *testing.T) {
	files, db := syncEnv(t)
	logger := quietLogger()

	_ = files.Write("a.json", []byte(`{"id":1}`))
	if err := Sync(db, files, logger); err != nil {
		t.Fatal(err)
	}
	_ = files.Write("a.json", []byte(`{"id":1,"status":"done"}`))
	if err := Sync(db, files, logger); err != nil {
		t.Fatal(err)
	}
	row, _, _ := db.Get("a.json")
	if string(row.Doc) != `{"id":1,"status":"done"}` {
		t.Errorf("doc not refreshed: %s", row.Doc)
	}
}
