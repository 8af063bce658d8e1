package index

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"

	"github.com/starford/meshgraph/internal/events"
	"github.com/starford/meshgraph/internal/metrics"
	"github.com/starford/meshgraph/internal/parser"
	"github.com/starford/meshgraph/internal/storage"
)

// DefaultDebounce is how long a path must stay quiet before it is applied.
const DefaultDebounce = 500 * time.Millisecond

// minTick bounds how often pending paths are checked.
const minTick = 5 * time.Millisecond

// WatcherOption configures StartWatcher.
type WatcherOption func(*watchLoop)

// WithDebounce overrides DefaultDebounce.
func WithDebounce(d time.Duration) WatcherOption {
	return func(l *watchLoop) {
		if d > 0 {
			l.debounce = d
		}
	}
}

// Watcher is the handle of a running watch loop. Dropping the last
// reference without calling Stop still signals the loop to exit.
type Watcher struct {
	loop *watchLoop
}

type watchLoop struct {
	fsw      *fsnotify.Watcher
	fsys     storage.Provider
	store    *Store
	queue    *events.Queue
	logger   *slog.Logger
	debounce time.Duration

	stopCh   chan struct{}
	stopOnce sync.Once
	done     chan struct{}

	// pending maps a path to its last observed change; order keeps first
	// arrival so a batch is applied in a stable sequence.
	pending map[string]time.Time
	order   []string
}

// StartWatcher registers recursive watches under fsys.Root and starts the
// background loop that applies file changes to store and pushes the
// resulting events to queue. Any watcher already running for store is
// stopped first. Failure to register the watches is returned.
func StartWatcher(fsys storage.Provider, store *Store, queue *events.Queue, logger *slog.Logger, opts ...WatcherOption) (*Watcher, error) {
	store.wmu.Lock()
	defer store.wmu.Unlock()

	if store.active != nil {
		store.active.stop()
		store.active = nil
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("index: new watcher: %w", err)
	}

	l := &watchLoop{
		fsw:      fsw,
		fsys:     fsys,
		store:    store,
		queue:    queue,
		logger:   logger.With(slog.String("watcher", uuid.NewString())),
		debounce: DefaultDebounce,
		stopCh:   make(chan struct{}),
		done:     make(chan struct{}),
		pending:  make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(l)
	}

	if err := addDirsRecursive(fsw, fsys.Root()); err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("index: watch %s: %w", fsys.Root(), err)
	}

	go l.run()
	store.active = l
	l.logger.Info("watcher: started",
		slog.String("root", fsys.Root()),
		slog.Duration("debounce", l.debounce))

	w := &Watcher{loop: l}
	runtime.AddCleanup(w, func(l *watchLoop) { l.signal() }, l)
	return w, nil
}

// Stop signals the loop and waits for it to exit. A batch in progress is
// completed first. Stop is idempotent.
func (w *Watcher) Stop() {
	l := w.loop
	l.store.wmu.Lock()
	if l.store.active == l {
		l.store.active = nil
	}
	l.store.wmu.Unlock()
	l.stop()
}

// IsRunning reports whether the background loop is still alive.
func (w *Watcher) IsRunning() bool {
	select {
	case <-w.loop.done:
		return false
	default:
		return true
	}
}

func (l *watchLoop) signal() {
	l.stopOnce.Do(func() { close(l.stopCh) })
}

func (l *watchLoop) stop() {
	l.signal()
	<-l.done
}

func (l *watchLoop) run() {
	defer close(l.done)
	defer l.fsw.Close()

	// The ticker runs only while paths are pending.
	var ticker *time.Ticker
	var tickC <-chan time.Time
	tick := max(l.debounce/5, minTick)

	for {
		select {
		case <-l.stopCh:
			if ticker != nil {
				ticker.Stop()
			}
			l.logger.Info("watcher: stopped", slog.Int("dropped", len(l.pending)))
			return

		case ev, ok := <-l.fsw.Events:
			if !ok {
				return
			}
			if l.observe(ev) && ticker == nil {
				ticker = time.NewTicker(tick)
				tickC = ticker.C
			}

		case err, ok := <-l.fsw.Errors:
			if !ok {
				return
			}
			l.logger.Error("watcher: error", slog.String("error", err.Error()))

		case now := <-tickC:
			l.flush(now)
			if len(l.pending) == 0 {
				ticker.Stop()
				ticker, tickC = nil, nil
			}
		}
	}
}

// observe records ev in the pending batch and reports whether anything
// was added.
func (l *watchLoop) observe(ev fsnotify.Event) bool {
	if ev.Op == fsnotify.Chmod {
		return false
	}

	if ev.Op.Has(fsnotify.Create) {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			return l.observeDir(ev.Name)
		}
	}

	if !l.fsys.Eligible(ev.Name) {
		return false
	}
	return l.enqueue(ev.Name)
}

// observeDir watches a directory created while running and queues the
// eligible files already inside it.
func (l *watchLoop) observeDir(dir string) bool {
	if storage.IgnoredDir(filepath.Base(dir)) {
		return false
	}
	if err := addDirsRecursive(l.fsw, dir); err != nil {
		l.logger.Warn("watcher: add new dir failed",
			slog.String("path", dir),
			slog.String("error", err.Error()))
	} else {
		l.logger.Debug("watcher: watching new dir", slog.String("path", dir))
	}

	added := false
	_ = filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if p != dir && storage.IgnoredDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if l.fsys.Eligible(p) && l.enqueue(p) {
			added = true
		}
		return nil
	})
	return added
}

// enqueue records a change to path. Each path keeps its own quiet window,
// so a file that never stops changing holds back only itself.
func (l *watchLoop) enqueue(path string) bool {
	if _, dup := l.pending[path]; !dup {
		l.order = append(l.order, path)
	}
	l.pending[path] = time.Now()
	return true
}

// ready removes and returns the pending paths that have been quiet for at
// least the debounce window as of now, in arrival order.
func (l *watchLoop) ready(now time.Time) []string {
	var batch []string
	kept := l.order[:0]
	for _, p := range l.order {
		if now.Sub(l.pending[p]) >= l.debounce {
			batch = append(batch, p)
			delete(l.pending, p)
			continue
		}
		kept = append(kept, p)
	}
	clear(l.order[len(kept):])
	l.order = kept
	return batch
}

// flush applies the paths that are ready to the store and pushes their
// events to the queue in one call.
func (l *watchLoop) flush(now time.Time) {
	batch := l.ready(now)
	if len(batch) == 0 {
		return
	}

	start := time.Now()
	var out []events.Event
	for _, p := range batch {
		out = append(out, l.process(p)...)
	}
	l.queue.PushAll(out)

	for _, e := range out {
		metrics.EventsEmitted.WithLabelValues(e.Type()).Inc()
	}
	metrics.WatcherBatches.Inc()
	metrics.WatcherBatchDuration.Observe(time.Since(start).Seconds())
	l.store.View(func(g *Graph) { metrics.ObserveGraph(g.PageCount(), g.LinkCount()) })

	l.logger.Debug("watcher: batch applied",
		slog.Int("paths", len(batch)),
		slog.Int("still_pending", len(l.pending)),
		slog.Int("events", len(out)),
		slog.Duration("took", time.Since(start)))
}

// process classifies abs by its current existence on disk and applies it.
// A panic is logged and the path skipped; the rest of the batch continues.
func (l *watchLoop) process(abs string) (out []events.Event) {
	defer func() {
		if r := recover(); r != nil {
			metrics.FileErrors.WithLabelValues(metrics.StagePanic).Inc()
			l.logger.Error("watcher: step panicked",
				slog.String("path", abs),
				slog.Any("panic", r))
			out = nil
		}
	}()

	entry, err := l.fsys.Rel(abs)
	if err != nil {
		l.logger.Warn("watcher: outside root", slog.String("path", abs))
		return nil
	}

	info, err := os.Stat(abs)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return l.fileDeleted(entry)
	case err != nil:
		metrics.FileErrors.WithLabelValues(metrics.StageStat).Inc()
		l.logger.Warn("watcher: stat failed", slog.String("path", entry.Path), slog.String("error", err.Error()))
		return nil
	case info.IsDir():
		return nil
	}

	entry.ModTime = info.ModTime()
	if entry.ModTime.IsZero() {
		entry.ModTime = time.Now()
	}
	return l.fileChanged(entry)
}

func (l *watchLoop) fileChanged(entry storage.Entry) []events.Event {
	data, err := l.fsys.Read(entry.Path)
	if err != nil {
		metrics.FileErrors.WithLabelValues(metrics.StageRead).Inc()
		l.logger.Warn("watcher: read failed", slog.String("path", entry.Path), slog.String("error", err.Error()))
		return nil
	}
	res := parser.Parse(data)

	var existed bool
	var linkEvents []events.Event
	l.store.Update(func(g *Graph) {
		existed = g.PageExists(entry.Name)
		linkEvents = g.UpdatePage(entry.Name, entry.Path, res.Metadata, res.Links, entry.ModTime)
	})

	out := make([]events.Event, 0, len(linkEvents)+1)
	if existed {
		out = append(out, events.PageUpdated{Name: entry.Name})
	} else {
		out = append(out, events.PageCreated{Name: entry.Name})
	}
	out = append(out, linkEvents...)

	l.logger.Debug("watcher: indexed",
		slog.String("path", entry.Path),
		slog.Bool("created", !existed),
		slog.Int("link_events", len(linkEvents)))
	return out
}

// fileDeleted removes the page owned by entry. Edges from other pages into
// it disappear with the node and are not reported individually.
func (l *watchLoop) fileDeleted(entry storage.Entry) []events.Event {
	var (
		found    bool
		owned    bool
		outlinks []string
	)
	l.store.Update(func(g *Graph) {
		p, ok := g.GetPage(entry.Name)
		if !ok {
			return
		}
		found = true
		// Another file with the same stem now backs this page.
		if p.FilePath != entry.Path {
			return
		}
		owned = true
		outlinks = g.Outlinks(entry.Name)
		g.RemovePage(entry.Name)
	})
	if !found {
		return nil
	}
	if !owned {
		l.logger.Debug("watcher: delete skipped, page owned by another file", slog.String("path", entry.Path))
		return nil
	}

	out := make([]events.Event, 0, len(outlinks)+1)
	out = append(out, events.PageDeleted{Name: entry.Name})
	for _, target := range outlinks {
		out = append(out, events.LinkRemoved{From: entry.Name, To: target})
	}
	l.logger.Debug("watcher: deleted", slog.String("path", entry.Path))
	return out
}

// addDirsRecursive adds root and all its non-ignored subdirectories to the
// watcher.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && storage.IgnoredDir(d.Name()) {
			return filepath.SkipDir
		}
		return w.Add(path)
	})
}
