// Package storage defines the vault file-system abstraction.
package storage

import "time"

// NoteMeta describes one Markdown file found by List.
type NoteMeta struct {
	Path      string    `json:"path"` // slash-separated, relative to the vault root
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Provider is the interface for vault file operations. Paths may be
// absolute (inside the vault) or relative to the vault root.
type Provider interface {
	// Root returns the absolute vault directory.
	Root() string
	// Exists reports whether a regular file exists at path.
	Exists(path string) bool
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Write atomically replaces the file at path, creating parent directories.
	Write(path string, content []byte) error
	// List returns metadata for every .md file under dir.
	List(dir string) ([]NoteMeta, error)
}
