// Package storage defines the read-only corpus file-system abstraction.
package storage

import "time"

// Entry describes one eligible corpus file.
type Entry struct {
	// Path is relative to the corpus root, slash separated.
	Path string
	// Name is the file name without its extension; it identifies the page.
	Name    string
	ModTime time.Time
}

// Provider is the interface for corpus file access.
type Provider interface {
	// Root returns the absolute corpus directory.
	Root() string
	// Scan returns every eligible file under the root.
	Scan() ([]Entry, error)
	// Read returns the raw bytes of the file at path (relative to root).
	Read(path string) ([]byte, error)
	// Eligible reports whether path has a corpus extension.
	Eligible(path string) bool
	// Rel converts an absolute path under the root into an Entry.
	Rel(abs string) (Entry, error)
}
