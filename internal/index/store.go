package index

import "sync"

// Store guards a Graph with one exclusive lock. Reads and writes both
// serialize through it, so every call observes a state consistent with all
// events returned by earlier updates.
type Store struct {
	mu sync.Mutex
	g  *Graph

	wmu    sync.Mutex
	active *watchLoop
}

// NewStore returns a Store over an empty graph.
func NewStore() *Store {
	return &Store{g: NewGraph()}
}

// Update runs fn with exclusive access to the graph.
func (s *Store) Update(fn func(g *Graph)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.g)
}

// View runs fn with exclusive access to the graph. fn must not mutate it.
func (s *Store) View(fn func(g *Graph)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.g)
}
