package engine

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/meshgraph/internal/events"
	"github.com/starford/meshgraph/internal/query"
	"github.com/starford/meshgraph/internal/testutil"
)

func newEngine(t *testing.T, files map[string]string) (*Engine, string) {
	t.Helper()
	dir := testutil.Corpus(t, files)
	e, err := New(dir, WithLogger(testutil.Logger()), WithDebounce(50*time.Millisecond))
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Close() })
	require.NoError(t, e.Rebuild())
	return e, dir
}

func TestEngine_ReadOperations(t *testing.T) {
	e, _ := newEngine(t, map[string]string{
		"Index.md": "---\nstatus: published\n---\n[[About|About Us]] [[Guide]]",
		"About.md": "---\nstatus: draft\ntags: [team]\n---\n[[Index]]",
	})

	assert.Equal(t, 3, e.PageCount())
	assert.Equal(t, 3, e.LinkCount())
	assert.True(t, e.PageExists("Guide"))
	assert.False(t, e.PageExists("Nope"))

	var names []string
	for _, p := range e.ListPages() {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{"About", "Guide", "Index"}, names)

	assert.Equal(t, []string{"About", "Guide"}, e.Outlinks("Index"))
	assert.Equal(t, []string{"About"}, e.Backlinks("Index"))
	assert.Empty(t, e.Backlinks("Nope"))

	meta, ok := e.GetMetadata("About")
	require.True(t, ok)
	assert.Equal(t, []string{"team"}, meta["tags"])
	_, ok = e.GetMetadata("Nope")
	assert.False(t, ok)

	l, ok := e.LinkData("Index", "About")
	require.True(t, ok)
	assert.Equal(t, "About Us", *l.DisplayText)

	d, ok := e.PageDetail("Index")
	require.True(t, ok)
	assert.Equal(t, "Index.md", d.FilePath)
	assert.Equal(t, []string{"About"}, d.Backlinks)
	assert.Equal(t, []string{"About", "Guide"}, d.Outlinks)

	drafts := e.Query([]query.Filter{query.Equals{Key: "status", Value: "draft"}})
	require.Len(t, drafts, 1)
	assert.Equal(t, "About", drafts[0].Name)

	table := e.MetaTable([]query.Filter{query.HasKey{Key: "status"}}, []string{"name", "status"})
	require.Equal(t, 2, table.Len())
	assert.Equal(t, []string{"published"}, table.Rows[1].Get("status"))
}

func TestEngine_WatchLifecycleAndPoll(t *testing.T) {
	e, dir := newEngine(t, nil)
	assert.False(t, e.IsWatching())
	assert.False(t, e.HasPendingEvents())

	require.NoError(t, e.StartWatching())
	assert.True(t, e.IsWatching())

	testutil.WriteFile(t, dir, "Index.md", "[[About|About Us]]")
	testutil.Eventually(t, 5*time.Second, e.HasPendingEvents)
	testutil.Eventually(t, 5*time.Second, func() bool { return e.LinkCount() == 1 })

	var got []events.Event
	testutil.Eventually(t, 5*time.Second, func() bool {
		got = append(got, e.PollEvents()...)
		return len(got) >= 2
	})
	assert.Equal(t, []events.Event{
		events.PageCreated{Name: "Index"},
		events.LinkCreated{From: "Index", To: "About"},
	}, got)
	assert.Empty(t, e.PollEvents())
	assert.Equal(t, 2, e.PageCount())

	e.StopWatching()
	assert.False(t, e.IsWatching())
	e.StopWatching()
}

func TestEngine_RebuildKeepsWatcherRunning(t *testing.T) {
	e, dir := newEngine(t, map[string]string{"A.md": "[[B]]"})
	require.NoError(t, e.StartWatching())

	testutil.WriteFile(t, dir, "C.md", "")
	testutil.Eventually(t, 5*time.Second, func() bool { return e.PageExists("C") })

	require.NoError(t, e.Rebuild())
	assert.True(t, e.IsWatching())
	assert.Equal(t, 3, e.PageCount())

	testutil.WriteFile(t, dir, "D.md", "")
	testutil.Eventually(t, 5*time.Second, func() bool { return e.PageExists("D") })
}

func TestEngine_StatsAndString(t *testing.T) {
	e, _ := newEngine(t, map[string]string{"A.md": "[[B]]"})

	s := e.Stats()
	assert.Equal(t, Stats{Pages: 2, Links: 1}, s)
	assert.Equal(t,
		fmt.Sprintf("GraphEngine(data_dir='%s', pages=2, links=1, watching=false)", e.DataDir()),
		e.String())
}

func TestEngine_NewRejectsMissingRoot(t *testing.T) {
	_, err := New("/tmp/meshgraph-missing-" + t.Name())
	assert.Error(t, err)
}
