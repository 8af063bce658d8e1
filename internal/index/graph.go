// Package index maintains the in-memory page graph and keeps it in sync
// with the corpus on disk.
package index

import (
	"maps"
	"slices"
	"time"

	"github.com/starford/meshgraph/internal/events"
	"github.com/starford/meshgraph/internal/models"
	"github.com/starford/meshgraph/internal/query"
)

type node struct {
	page models.Page
	out  map[string]models.Link // keyed by target name
	in   map[string]struct{}    // source names
}

func newNode(p models.Page) *node {
	return &node{
		page: p,
		out:  make(map[string]models.Link),
		in:   make(map[string]struct{}),
	}
}

// Graph is a directed graph of pages keyed by name. Nodes live in a dense
// slot slice; removal moves the last node into the freed slot and fixes its
// index entry in the same call.
//
// Graph is not safe for concurrent use; share it through a Store.
type Graph struct {
	nodes []*node
	index map[string]int
	links int
}

// NewGraph returns an empty graph.
func NewGraph() *Graph {
	return &Graph{index: make(map[string]int)}
}

func (g *Graph) lookup(name string) (*node, bool) {
	i, ok := g.index[name]
	if !ok {
		return nil, false
	}
	return g.nodes[i], true
}

// AddPage inserts p, or overwrites the attributes of the existing page with
// the same name. Edges of an existing page are kept.
func (g *Graph) AddPage(p models.Page) {
	if p.Metadata == nil {
		p.Metadata = models.Metadata{}
	}
	if n, ok := g.lookup(p.Name); ok {
		n.page = p
		return
	}
	g.index[p.Name] = len(g.nodes)
	g.nodes = append(g.nodes, newNode(p))
}

// GetPage returns a copy of the named page.
func (g *Graph) GetPage(name string) (models.Page, bool) {
	n, ok := g.lookup(name)
	if !ok {
		return models.Page{}, false
	}
	return n.page.Clone(), true
}

func (g *Graph) PageExists(name string) bool {
	_, ok := g.index[name]
	return ok
}

// Metadata returns a copy of the named page's metadata.
func (g *Graph) Metadata(name string) (models.Metadata, bool) {
	n, ok := g.lookup(name)
	if !ok {
		return nil, false
	}
	return n.page.Metadata.Clone(), true
}

func (g *Graph) PageCount() int { return len(g.nodes) }

func (g *Graph) LinkCount() int { return g.links }

// ListPages returns copies of every page ordered by name.
func (g *Graph) ListPages() []models.Page {
	out := make([]models.Page, 0, len(g.nodes))
	for _, n := range g.nodes {
		out = append(out, n.page.Clone())
	}
	slices.SortFunc(out, byName)
	return out
}

func byName(a, b models.Page) int {
	switch {
	case a.Name < b.Name:
		return -1
	case a.Name > b.Name:
		return 1
	}
	return 0
}

// AddLink inserts the edge from → to. It reports false when either endpoint
// is missing. An existing edge is left as is.
func (g *Graph) AddLink(from, to string, display *string) bool {
	src, ok := g.lookup(from)
	if !ok {
		return false
	}
	dst, ok := g.lookup(to)
	if !ok {
		return false
	}
	if _, exists := src.out[to]; exists {
		return true
	}
	src.out[to] = models.Link{From: from, To: to, DisplayText: display}
	dst.in[from] = struct{}{}
	g.links++
	return true
}

// HasLink reports whether the edge from → to exists.
func (g *Graph) HasLink(from, to string) bool {
	n, ok := g.lookup(from)
	if !ok {
		return false
	}
	_, ok = n.out[to]
	return ok
}

// LinkData returns the edge from → to.
func (g *Graph) LinkData(from, to string) (models.Link, bool) {
	n, ok := g.lookup(from)
	if !ok {
		return models.Link{}, false
	}
	l, ok := n.out[to]
	return l, ok
}

// Backlinks returns the sorted names of pages linking to name.
func (g *Graph) Backlinks(name string) []string {
	n, ok := g.lookup(name)
	if !ok {
		return []string{}
	}
	return slices.Sorted(maps.Keys(n.in))
}

// Outlinks returns the sorted names of pages name links to.
func (g *Graph) Outlinks(name string) []string {
	n, ok := g.lookup(name)
	if !ok {
		return []string{}
	}
	return slices.Sorted(maps.Keys(n.out))
}

// RemovePage deletes the page and every edge touching it. It reports
// whether the page existed.
func (g *Graph) RemovePage(name string) bool {
	i, ok := g.index[name]
	if !ok {
		return false
	}
	n := g.nodes[i]

	for target := range n.out {
		if dst, ok := g.lookup(target); ok {
			delete(dst.in, name)
		}
		g.links--
	}
	for source := range n.in {
		if source == name {
			continue // self loop, already counted above
		}
		if src, ok := g.lookup(source); ok {
			delete(src.out, name)
		}
		g.links--
	}

	last := len(g.nodes) - 1
	if i != last {
		moved := g.nodes[last]
		g.nodes[i] = moved
		g.index[moved.page.Name] = i
	}
	g.nodes[last] = nil
	g.nodes = g.nodes[:last]
	delete(g.index, name)
	return true
}

// RemoveOutgoingEdges deletes every edge sourced at name.
func (g *Graph) RemoveOutgoingEdges(name string) {
	n, ok := g.lookup(name)
	if !ok {
		return
	}
	for target := range n.out {
		if dst, ok := g.lookup(target); ok {
			delete(dst.in, name)
		}
		g.links--
	}
	clear(n.out)
}

// ensure materializes a stub page for name when it does not exist yet.
func (g *Graph) ensure(name string) {
	if !g.PageExists(name) {
		g.AddPage(models.NewStub(name))
	}
}

// UpdatePage upserts the page and replaces its outgoing links, returning
// one LinkRemoved per dropped target and one LinkCreated per new target.
// Targets present before and after produce no event.
func (g *Graph) UpdatePage(name, path string, meta models.Metadata, links []models.ParsedLink, modified time.Time) []events.Event {
	old := make(map[string]struct{})
	if n, ok := g.lookup(name); ok {
		for target := range n.out {
			old[target] = struct{}{}
		}
	}

	g.AddPage(models.Page{
		Name:       name,
		FilePath:   path,
		Metadata:   meta,
		ModifiedAt: modified,
	})
	g.RemoveOutgoingEdges(name)

	var created []string
	current := make(map[string]struct{}, len(links))
	for _, l := range links {
		g.ensure(l.Target)
		g.AddLink(name, l.Target, l.DisplayText)
		if _, dup := current[l.Target]; dup {
			continue
		}
		current[l.Target] = struct{}{}
		if _, had := old[l.Target]; !had {
			created = append(created, l.Target)
		}
	}

	var out []events.Event
	for _, target := range slices.Sorted(maps.Keys(old)) {
		if _, still := current[target]; !still {
			out = append(out, events.LinkRemoved{From: name, To: target})
		}
	}
	for _, target := range created {
		out = append(out, events.LinkCreated{From: name, To: target})
	}
	return out
}

// Clear removes every page and edge.
func (g *Graph) Clear() {
	g.nodes = nil
	g.index = make(map[string]int)
	g.links = 0
}

// Query returns copies of the pages matching every filter, ordered by name.
func (g *Graph) Query(filters []query.Filter) []models.Page {
	var out []models.Page
	for _, n := range g.nodes {
		if query.MatchAll(&n.page, filters, g) {
			out = append(out, n.page.Clone())
		}
	}
	slices.SortFunc(out, byName)
	return out
}

// MetaTable runs Query and projects each match onto columns.
func (g *Graph) MetaTable(filters []query.Filter, columns []string) query.Result {
	pages := g.Query(filters)
	res := query.Result{
		Columns: slices.Clone(columns),
		Rows:    make([]query.Row, 0, len(pages)),
	}
	for i := range pages {
		res.Rows = append(res.Rows, query.Project(&pages[i], columns))
	}
	return res
}
