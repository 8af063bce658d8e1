// Package engine is the facade over the page graph: it owns the store,
// the event queue, and the lifecycle of the file watcher.
package engine

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/starford/meshgraph/internal/events"
	"github.com/starford/meshgraph/internal/index"
	"github.com/starford/meshgraph/internal/metrics"
	"github.com/starford/meshgraph/internal/models"
	"github.com/starford/meshgraph/internal/query"
	"github.com/starford/meshgraph/internal/storage"
)

// PageDetail is a page together with its neighbours, read in one snapshot.
type PageDetail struct {
	models.Page
	Backlinks []string `json:"backlinks"`
	Outlinks  []string `json:"outlinks"`
}

// Stats summarises the engine state.
type Stats struct {
	Pages         int  `json:"pages"`
	Links         int  `json:"links"`
	Watching      bool `json:"watching"`
	PendingEvents int  `json:"pending_events"`
}

// Engine coordinates the corpus, the graph store, and the watcher. All
// methods are safe to call concurrently with a running watcher.
type Engine struct {
	fsys     storage.Provider
	store    *index.Store
	queue    *events.Queue
	logger   *slog.Logger
	exts     []string
	debounce time.Duration

	wmu     sync.Mutex
	watcher *index.Watcher
}

// Option configures an Engine.
type Option func(*Engine)

func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithExtensions sets the eligible file extensions (default .md).
func WithExtensions(exts ...string) Option {
	return func(e *Engine) { e.exts = exts }
}

// WithDebounce sets the watcher quiescence window.
func WithDebounce(d time.Duration) Option {
	return func(e *Engine) { e.debounce = d }
}

// New creates an engine over the corpus at root. The graph starts empty;
// call Rebuild to load it.
func New(root string, opts ...Option) (*Engine, error) {
	e := &Engine{
		store:    index.NewStore(),
		queue:    events.NewQueue(),
		logger:   slog.Default(),
		debounce: index.DefaultDebounce,
	}
	for _, opt := range opts {
		opt(e)
	}
	fsys, err := storage.NewFS(root, e.exts...)
	if err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}
	e.fsys = fsys
	return e, nil
}

// DataDir returns the absolute corpus directory.
func (e *Engine) DataDir() string { return e.fsys.Root() }

// Rebuild reloads the whole graph from disk. A running watcher is stopped
// for the duration and restarted afterwards.
func (e *Engine) Rebuild() error {
	e.wmu.Lock()
	defer e.wmu.Unlock()

	wasWatching := e.watcher != nil && e.watcher.IsRunning()
	e.stopLocked()

	start := time.Now()
	files, err := index.Scan(e.fsys, e.logger)
	if err != nil {
		return fmt.Errorf("engine: rebuild: %w", err)
	}
	var pages, links int
	e.store.Update(func(g *index.Graph) {
		g.Load(files)
		pages, links = g.PageCount(), g.LinkCount()
	})
	metrics.RebuildDuration.Observe(time.Since(start).Seconds())
	metrics.ObserveGraph(pages, links)
	e.logger.Info("engine: rebuilt",
		slog.Int("files", len(files)),
		slog.Int("pages", pages),
		slog.Int("links", links),
		slog.Duration("took", time.Since(start)))

	if wasWatching {
		return e.startLocked()
	}
	return nil
}

// ListPages returns every page ordered by name.
func (e *Engine) ListPages() []models.Page {
	var out []models.Page
	e.store.View(func(g *index.Graph) { out = g.ListPages() })
	return out
}

func (e *Engine) GetPage(name string) (models.Page, bool) {
	var (
		p  models.Page
		ok bool
	)
	e.store.View(func(g *index.Graph) { p, ok = g.GetPage(name) })
	return p, ok
}

// PageDetail returns the page with its backlinks and outlinks.
func (e *Engine) PageDetail(name string) (PageDetail, bool) {
	var (
		d  PageDetail
		ok bool
	)
	e.store.View(func(g *index.Graph) {
		if d.Page, ok = g.GetPage(name); ok {
			d.Backlinks = g.Backlinks(name)
			d.Outlinks = g.Outlinks(name)
		}
	})
	return d, ok
}

func (e *Engine) PageExists(name string) bool {
	var ok bool
	e.store.View(func(g *index.Graph) { ok = g.PageExists(name) })
	return ok
}

func (e *Engine) PageCount() int {
	var n int
	e.store.View(func(g *index.Graph) { n = g.PageCount() })
	return n
}

func (e *Engine) LinkCount() int {
	var n int
	e.store.View(func(g *index.Graph) { n = g.LinkCount() })
	return n
}

func (e *Engine) Backlinks(name string) []string {
	var out []string
	e.store.View(func(g *index.Graph) { out = g.Backlinks(name) })
	return out
}

func (e *Engine) Outlinks(name string) []string {
	var out []string
	e.store.View(func(g *index.Graph) { out = g.Outlinks(name) })
	return out
}

// GetMetadata returns a copy of the page's metadata.
func (e *Engine) GetMetadata(name string) (models.Metadata, bool) {
	var (
		m  models.Metadata
		ok bool
	)
	e.store.View(func(g *index.Graph) { m, ok = g.Metadata(name) })
	return m, ok
}

// LinkData returns the edge from → to.
func (e *Engine) LinkData(from, to string) (models.Link, bool) {
	var (
		l  models.Link
		ok bool
	)
	e.store.View(func(g *index.Graph) { l, ok = g.LinkData(from, to) })
	return l, ok
}

// Query returns the pages matching every filter, ordered by name.
func (e *Engine) Query(filters []query.Filter) []models.Page {
	var out []models.Page
	e.store.View(func(g *index.Graph) { out = g.Query(filters) })
	return out
}

// MetaTable returns the matches of filters projected onto columns.
func (e *Engine) MetaTable(filters []query.Filter, columns []string) query.Result {
	var out query.Result
	e.store.View(func(g *index.Graph) { out = g.MetaTable(filters, columns) })
	return out
}

// StartWatching starts the watcher, replacing any running one.
func (e *Engine) StartWatching() error {
	e.wmu.Lock()
	defer e.wmu.Unlock()
	e.stopLocked()
	return e.startLocked()
}

// StopWatching stops the watcher if one is running.
func (e *Engine) StopWatching() {
	e.wmu.Lock()
	defer e.wmu.Unlock()
	e.stopLocked()
}

func (e *Engine) IsWatching() bool {
	e.wmu.Lock()
	defer e.wmu.Unlock()
	return e.watcher != nil && e.watcher.IsRunning()
}

func (e *Engine) startLocked() error {
	w, err := index.StartWatcher(e.fsys, e.store, e.queue, e.logger, index.WithDebounce(e.debounce))
	if err != nil {
		return fmt.Errorf("engine: start watching: %w", err)
	}
	e.watcher = w
	return nil
}

func (e *Engine) stopLocked() {
	if e.watcher != nil {
		e.watcher.Stop()
		e.watcher = nil
	}
}

// PollEvents drains the event queue.
func (e *Engine) PollEvents() []events.Event {
	return e.queue.DrainAll()
}

func (e *Engine) HasPendingEvents() bool {
	return !e.queue.IsEmpty()
}

// Stats returns counts and watcher state.
func (e *Engine) Stats() Stats {
	s := Stats{
		Watching:      e.IsWatching(),
		PendingEvents: e.queue.Len(),
	}
	e.store.View(func(g *index.Graph) { s.Pages, s.Links = g.PageCount(), g.LinkCount() })
	return s
}

func (e *Engine) String() string {
	s := e.Stats()
	return fmt.Sprintf("GraphEngine(data_dir='%s', pages=%d, links=%d, watching=%t)",
		e.DataDir(), s.Pages, s.Links, s.Watching)
}

// Close stops the watcher.
func (e *Engine) Close() error {
	e.StopWatching()
	return nil
}
