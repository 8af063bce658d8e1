package storage

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"
)

// DefaultExtensions is used when NewFS is given no extensions.
var DefaultExtensions = []string{".md"}

var ignoredDirs = map[string]struct{}{
	".git":         {},
	".trash":       {},
	"node_modules": {},
}

// IgnoredDir reports whether a directory with this base name is skipped
// by scans and watches.
func IgnoredDir(name string) bool {
	_, ok := ignoredDirs[name]
	return ok
}

// FS implements Provider backed by the local file system.
type FS struct {
	root string // absolute path to corpus directory
	exts []string
}

// NewFS creates a new FS provider rooted at the given directory.
// The directory must already exist.
func NewFS(root string, exts ...string) (*FS, error) {
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
	if len(exts) == 0 {
		exts = DefaultExtensions
	}
	norm := make([]string, 0, len(exts))
	for _, e := range exts {
		norm = append(norm, strings.ToLower(e))
	}
	return &FS{root: abs, exts: norm}, nil
}

func (f *FS) Root() string { return f.root }

// safePath resolves a relative path against the corpus root and rejects
// any result that escapes it (directory traversal).
func (f *FS) safePath(rel string) (string, error) {
	if rel == "" {
		return f.root, nil
	}
	cleaned := filepath.Clean(filepath.FromSlash(rel))
	if filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("storage: absolute paths not allowed: %s", rel)
	}
	abs, err := filepath.Abs(filepath.Join(f.root, cleaned))
	if err != nil {
		return "", fmt.Errorf("storage: resolve path: %w", err)
	}
	if !strings.HasPrefix(abs, f.root+string(os.PathSeparator)) && abs != f.root {
		return "", fmt.Errorf("storage: path escapes corpus root: %s", rel)
	}
	return abs, nil
}

func (f *FS) Eligible(path string) bool {
	return slices.Contains(f.exts, strings.ToLower(filepath.Ext(path)))
}

// Rel maps an absolute path under the root to its Entry. ModTime is left
// zero; callers stat the file when they need it.
func (f *FS) Rel(abs string) (Entry, error) {
	rel, err := filepath.Rel(f.root, abs)
	if err != nil {
		return Entry{}, fmt.Errorf("storage: rel %s: %w", abs, err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(os.PathSeparator)) {
		return Entry{}, fmt.Errorf("storage: path escapes corpus root: %s", abs)
	}
	return Entry{Path: filepath.ToSlash(rel), Name: stem(abs)}, nil
}

// Scan walks the root and returns every eligible file, skipping ignored
// directories. Any directory that cannot be enumerated fails the scan.
func (f *FS) Scan() ([]Entry, error) {
	var out []Entry
	err := filepath.WalkDir(f.root, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			if p != f.root && IgnoredDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if !f.Eligible(d.Name()) {
			return nil
		}
		e, err := f.Rel(p)
		if err != nil {
			return err
		}
		if info, err := d.Info(); err == nil {
			e.ModTime = info.ModTime()
		} else {
			e.ModTime = time.Now()
		}
		out = append(out, e)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("storage: scan: %w", err)
	}
	return out, nil
}

// Read returns the raw bytes of a corpus file.
func (f *FS) Read(path string) ([]byte, error) {
	abs, err := f.safePath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: read %s: %w", path, err)
	}
	return data, nil
}

func stem(p string) string {
	base := filepath.Base(p)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
