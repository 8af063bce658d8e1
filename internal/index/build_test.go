package index

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/meshgraph/internal/storage"
	"github.com/starford/meshgraph/internal/testutil"
)

func TestBuildFromDirectory(t *testing.T) {
	dir := testutil.Corpus(t, map[string]string{
		"Index.md":       "---\nstatus: published\n---\nSee [[About|About Us]] and [[Guide]].\n",
		"About.md":       "---\ntags: [team, company]\n---\nBack to [[Index]].\n",
		"docs/Guide.md":  "Links to [[Missing]].\n",
		"notes.txt":      "[[Ignored]]",
		".git/Hidden.md": "[[Ignored]]",
	})
	fsys, err := storage.NewFS(dir)
	require.NoError(t, err)

	g := NewGraph()
	require.NoError(t, g.BuildFromDirectory(fsys, testutil.Logger()))

	assert.Equal(t, 4, g.PageCount())
	assert.Equal(t, 4, g.LinkCount())
	assert.False(t, g.PageExists("Ignored"))
	assert.False(t, g.PageExists("Hidden"))

	about, ok := g.GetPage("About")
	require.True(t, ok)
	assert.Equal(t, "About.md", about.FilePath, "real page not replaced by a stub")
	assert.Equal(t, []string{"team", "company"}, about.Metadata["tags"])

	guide, ok := g.GetPage("Guide")
	require.True(t, ok)
	assert.Equal(t, "docs/Guide.md", guide.FilePath)

	missing, ok := g.GetPage("Missing")
	require.True(t, ok)
	assert.Equal(t, "Missing.md", missing.FilePath)
	assert.Empty(t, missing.Metadata)

	l, ok := g.LinkData("Index", "About")
	require.True(t, ok)
	assert.Equal(t, "About Us", *l.DisplayText)
	assert.Equal(t, []string{"About"}, g.Backlinks("Index"))
}

func TestBuildFromDirectory_ClearsPreviousState(t *testing.T) {
	dir := testutil.Corpus(t, map[string]string{"A.md": "[[B]]"})
	fsys, err := storage.NewFS(dir)
	require.NoError(t, err)

	g := NewGraph()
	g.AddPage(testPage("Old", nil))
	require.NoError(t, g.BuildFromDirectory(fsys, testutil.Logger()))

	assert.False(t, g.PageExists("Old"))
	assert.Equal(t, 2, g.PageCount())
}

func TestBuildFromDirectory_SkipsUnreadable(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root can read any file")
	}
	dir := testutil.Corpus(t, map[string]string{
		"Good.md":   "[[Other]]",
		"Locked.md": "[[Secret]]",
	})
	require.NoError(t, os.Chmod(filepath.Join(dir, "Locked.md"), 0o000))
	t.Cleanup(func() { _ = os.Chmod(filepath.Join(dir, "Locked.md"), 0o644) })

	fsys, err := storage.NewFS(dir)
	require.NoError(t, err)

	g := NewGraph()
	require.NoError(t, g.BuildFromDirectory(fsys, testutil.Logger()))
	assert.True(t, g.PageExists("Good"))
	assert.False(t, g.PageExists("Locked"))
	assert.False(t, g.PageExists("Secret"))
}

func TestBuildFromDirectory_EnumerationFailure(t *testing.T) {
	dir := t.TempDir()
	fsys, err := storage.NewFS(dir)
	require.NoError(t, err)
	require.NoError(t, os.RemoveAll(dir))

	g := NewGraph()
	g.AddPage(testPage("Kept", nil))
	g.AddPage(testPage("Other", nil))
	require.True(t, g.AddLink("Kept", "Other", nil))

	assert.Error(t, g.BuildFromDirectory(fsys, testutil.Logger()))
	assert.True(t, g.PageExists("Kept"), "failed rebuild leaves the previous graph")
	assert.Equal(t, 1, g.LinkCount())
}
