package storage

import (
	"os"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/meshgraph/internal/testutil"
)

func TestScan(t *testing.T) {
	dir := testutil.Corpus(t, map[string]string{
		"a.md":                   "a",
		"sub/b.MD":               "b",
		"readme.txt":             "not md",
		".git/c.md":              "ignored",
		"node_modules/x/d.md":    "ignored",
		"deep/er/nested/Deep.md": "deep",
	})
	s, err := NewFS(dir)
	require.NoError(t, err)

	entries, err := s.Scan()
	require.NoError(t, err)

	var paths, names []string
	for _, e := range entries {
		paths = append(paths, e.Path)
		names = append(names, e.Name)
		assert.False(t, e.ModTime.IsZero())
	}
	sort.Strings(paths)
	sort.Strings(names)
	assert.Equal(t, []string{"a.md", "deep/er/nested/Deep.md", "sub/b.MD"}, paths)
	assert.Equal(t, []string{"Deep", "a", "b"}, names)
}

func TestScan_CustomExtensions(t *testing.T) {
	dir := testutil.Corpus(t, map[string]string{
		"a.md":       "a",
		"b.markdown": "b",
		"c.txt":      "c",
	})
	s, err := NewFS(dir, ".markdown", ".txt")
	require.NoError(t, err)

	entries, err := s.Scan()
	require.NoError(t, err)
	assert.Len(t, entries, 2)
	assert.True(t, s.Eligible("x/y.TXT"))
	assert.False(t, s.Eligible("x/y.md"))
}

func TestRead(t *testing.T) {
	dir := testutil.Corpus(t, map[string]string{"sub/note.md": "# Hello\n"})
	s, err := NewFS(dir)
	require.NoError(t, err)

	got, err := s.Read("sub/note.md")
	require.NoError(t, err)
	assert.Equal(t, "# Hello\n", string(got))

	_, err = s.Read("missing.md")
	assert.Error(t, err)
}

func TestRel(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFS(dir)
	require.NoError(t, err)

	e, err := s.Rel(s.Root() + "/notes/Home.md")
	require.NoError(t, err)
	assert.Equal(t, "notes/Home.md", e.Path)
	assert.Equal(t, "Home", e.Name)

	_, err = s.Rel(s.Root() + "/../elsewhere.md")
	assert.Error(t, err)
}

func TestTraversalBlocked(t *testing.T) {
	s, err := NewFS(t.TempDir())
	require.NoError(t, err)

	for _, p := range []string{"../../etc/passwd", "../outside.md", "/etc/shadow"} {
		_, err := s.Read(p)
		assert.Error(t, err, p)
	}
}

func TestNewFS_NonExistentDir(t *testing.T) {
	_, err := NewFS("/tmp/meshgraph-does-not-exist-" + t.Name())
	assert.Error(t, err)
}

func TestNewFS_FileNotDir(t *testing.T) {
	f, err := os.CreateTemp("", "meshgraph-test-*")
	require.NoError(t, err)
	_ = f.Close()
	defer os.Remove(f.Name())

	_, err = NewFS(f.Name())
	assert.Error(t, err)
}

func TestIgnoredDir(t *testing.T) {
	assert.True(t, IgnoredDir(".git"))
	assert.True(t, IgnoredDir(".trash"))
	assert.True(t, IgnoredDir("node_modules"))
	assert.False(t, IgnoredDir("notes"))
}
