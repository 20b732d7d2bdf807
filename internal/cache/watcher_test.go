package cache

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/torvik/snapvault/internal/storage"
)

// watcherEnv sets up a vault dir, storage, and cache DB for watcher tests.
func watcherEnv(t *testing.T) (string, storage.Provider, *DB) {
	t.Helper()
	dir := t.TempDir()
	files, err := storage.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	return dir, files, testDB(t)
}

// eventually polls fn every tick until it returns true or timeout elapses.
func eventually(t *testing.T, timeout, tick time.Duration, fn func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(tick)
	}
	t.Error(msg)
}

func TestWatcher_NewFileCached(t *testing.T) {
	dir, files, db := watcherEnv(t)
	logger := quietLogger()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var events []string

	go Watch(ctx, db, files, logger, func(kind, path string) {
		mu.Lock()
		events = append(events, kind+":"+path)
		mu.Unlock()
	})

	time.Sleep(100 * time.Millisecond)

	_ = os.WriteFile(filepath.Join(dir, "new.json"), []byte(`{"id":1}`), 0o644)

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		_, ok, _ := db.Get("new.json")
		return ok
	}, "new file not cached by watcher")

	eventually(t, 2*time.Second, 50*time.Millisecond, func() bool {
		mu.Lock()
		defer mu.Unlock()
		for _, e := range events {
			if e == "created:new.json" {
				return true
			}
		}
		return false
	}, "expected created:new.json callback")
}

func TestWatcher_AssetsIgnored(t *testing.T) {
	dir, files, db := watcherEnv(t)
	logger := quietLogger()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go Watch(ctx, db, files, logger, nil)
	time.Sleep(100 * time.Millisecond)

	_ = os.WriteFile(filepath.Join(dir, "clipboard_1.png"), []byte{1, 2, 3}, 0o644)
	time.Sleep(300 * time.Millisecond)

	metas, _ := db.AllMeta()
	if len(metas) != 0 {
		t.Errorf("asset files must not be cached: %v", metas)
	}
}

func TestWatcher_DeleteRemovesRow(t *testing.T) {
	dir, files, db := watcherEnv(t)
	logger := quietLogger()

	_ = os.WriteFile(filepath.Join(dir, "del.json"), []byte(`{"id":1}`), 0o644)
	if err := Sync(db, files, logger); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := db.Get("del.json"); !ok {
		t.Fatal("precondition: row should be cached")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go Watch(ctx, db, files, logger, nil)
	time.Sleep(100 * time.Millisecond)

	_ = os.Remove(filepath.Join(dir, "del.json"))

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		_, ok, _ := db.Get("del.json")
		return !ok
	}, "deleted file still cached")
}

func TestWatcher_RenameReconciles(t *testing.T) {
	dir, files, db := watcherEnv(t)
	logger := quietLogger()

	_ = os.WriteFile(filepath.Join(dir, "old.json"), []byte(`{"id":1}`), 0o644)
	if err := Sync(db, files, logger); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go Watch(ctx, db, files, logger, nil)
	time.Sleep(100 * time.Millisecond)

	_ = os.Rename(filepath.Join(dir, "old.json"), filepath.Join(dir, "renamed.json"))

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		_, oldOK, _ := db.Get("old.json")
		_, newOK, _ := db.Get("renamed.json")
		return !oldOK && newOK
	}, "rename reconciliation failed: old row should be gone and new row cached")
}
