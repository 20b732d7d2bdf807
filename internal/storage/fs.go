package storage

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// defaultSubdir is the fixed directory name joined to the per-user
// application data directory when no custom root is configured.
const defaultSubdir = "snapvault"

// metadataExt is the extension of record metadata files.
const metadataExt = ".json"

// FS implements Provider backed by a single flat directory on local disk.
type FS struct {
	root string // absolute path to the vault directory
}

// ResolveRoot decides the vault root. A non-empty custom path is resolved to
// an absolute path and created if missing; on any failure to use it the
// platform default is chosen instead, so startup never fails on a bad
// custom path. The returned directory is guaranteed to exist.
func ResolveRoot(custom string, logger *slog.Logger) (string, error) {
	if custom != "" {
		abs, err := filepath.Abs(custom)
		if err == nil {
			if err = os.MkdirAll(abs, 0o755); err == nil {
				return abs, nil
			}
		}
		logger.Warn("storage: custom root unusable, falling back to default",
			slog.String("path", custom),
			slog.String("error", err.Error()))
	}
	root, err := DefaultRoot()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return "", fmt.Errorf("storage: create default root: %w", err)
	}
	return root, nil
}

// DefaultRoot returns the platform-standard per-user data directory joined
// with the fixed application subdirectory. The directory is not created.
func DefaultRoot() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("storage: user config dir: %w", err)
	}
	return filepath.Join(base, defaultSubdir), nil
}

// NewFS creates a new FS provider rooted at the given directory.
// The directory must already exist.
func NewFS(root string) (*FS, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("storage: root is not a directory: %s", abs)
	}
	return &FS{root: abs}, nil
}

// Root returns the absolute vault directory.
func (f *FS) Root() string {
	return f.root
}

// Abs resolves a plain base name to its absolute path, rejecting anything
// containing path separators or traversal.
func (f *FS) Abs(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("storage: empty file name")
	}
	cleaned := filepath.Clean(name)
	if cleaned != filepath.Base(cleaned) || strings.Contains(cleaned, "..") {
		return "", fmt.Errorf("storage: invalid file name: %s", name)
	}
	return filepath.Join(f.root, cleaned), nil
}

// Name reduces a path to a validated base name. Absolute paths must point
// inside the vault root; bare names pass through the same validation as Abs.
func (f *FS) Name(path string) (string, error) {
	if filepath.IsAbs(path) {
		rel, err := filepath.Rel(f.root, path)
		if err != nil || rel != filepath.Base(rel) || strings.Contains(rel, "..") {
			return "", fmt.Errorf("storage: path outside vault root: %s", path)
		}
		return rel, nil
	}
	abs, err := f.Abs(path)
	if err != nil {
		return "", err
	}
	return filepath.Base(abs), nil
}

// List returns info for every metadata file directly in the root.
// Subdirectories and non-metadata files are skipped.
func (f *FS) List() ([]FileInfo, error) {
	entries, err := os.ReadDir(f.root)
	if err != nil {
		return nil, fmt.Errorf("storage: list: %w", err)
	}
	var out []FileInfo
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), metadataExt) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, fmt.Errorf("storage: stat %s: %w", e.Name(), err)
		}
		out = append(out, FileInfo{
			Name:    e.Name(),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}
	return out, nil
}

// Stat returns info for one named file.
func (f *FS) Stat(name string) (FileInfo, error) {
	abs, err := f.Abs(name)
	if err != nil {
		return FileInfo{}, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return FileInfo{}, fmt.Errorf("storage: stat %s: %w", name, err)
	}
	return FileInfo{Name: name, Size: info.Size(), ModTime: info.ModTime()}, nil
}

// Read returns the raw bytes of a vault file.
func (f *FS) Read(name string) ([]byte, error) {
	abs, err := f.Abs(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: read %s: %w", name, err)
	}
	return data, nil
}

// Write atomically writes content: tmp file → fsync → rename.
func (f *FS) Write(name string, content []byte) error {
	abs, err := f.Abs(name)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(f.root, ".snapvault-tmp-*")
	if err != nil {
		return fmt.Errorf("storage: create temp: %w", err)
	}
	tmpName := tmp.Name()

	// Clean up on any failure path.
	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(content); err != nil {
		return fmt.Errorf("storage: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("storage: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("storage: close temp: %w", err)
	}
	if err := os.Rename(tmpName, abs); err != nil {
		return fmt.Errorf("storage: rename: %w", err)
	}
	success = true
	return nil
}

// Delete removes a file from the vault.
func (f *FS) Delete(name string) error {
	abs, err := f.Abs(name)
	if err != nil {
		return err
	}
	if err := os.Remove(abs); err != nil {
		return fmt.Errorf("storage: delete %s: %w", name, err)
	}
	return nil
}

// Exists reports whether the named file exists in the vault.
func (f *FS) Exists(name string) bool {
	abs, err := f.Abs(name)
	if err != nil {
		return false
	}
	_, err = os.Stat(abs)
	return err == nil
}
