// Package storage defines the vault file-system abstraction: one flat
// directory holding metadata files and their sibling image assets.
package storage

import "time"

// FileInfo describes one file in the vault root.
type FileInfo struct {
	Name    string
	Size    int64
	ModTime time.Time
}

// Provider is the interface for vault file operations. All names are plain
// base names; the vault is a single flat directory.
type Provider interface {
	// Root returns the absolute path of the vault directory.
	Root() string
	// Abs resolves a plain file name to its absolute path inside the root.
	Abs(name string) (string, error)
	// Name reduces a path (absolute or bare) to a validated base name.
	Name(path string) (string, error)
	// List returns info for every metadata (.json) file in the root.
	List() ([]FileInfo, error)
	// Stat returns info for one named file.
	Stat(name string) (FileInfo, error)
	// Read returns the raw bytes of the named file.
	Read(name string) ([]byte, error)
	// Write atomically writes content to the named file.
	Write(name string, content []byte) error
	// Delete removes the named file.
	Delete(name string) error
	// Exists reports whether the named file exists.
	Exists(name string) bool
}
