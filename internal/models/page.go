// Package models defines the domain types for the page graph.
package models

import (
	"maps"
	"slices"
	"time"
)

// Metadata maps a frontmatter key to its ordered values.
// Scalar fields hold a single value; list fields hold one value per item.
type Metadata map[string][]string

// Clone returns a deep copy of m. A nil Metadata clones to an empty one.
func (m Metadata) Clone() Metadata {
	out := make(Metadata, len(m))
	for k, v := range m {
		out[k] = slices.Clone(v)
	}
	return out
}

// Keys returns the metadata keys in sorted order.
func (m Metadata) Keys() []string {
	return slices.Sorted(maps.Keys(m))
}

// Page is a named content unit tracked by the graph.
type Page struct {
	Name       string    `json:"name"`
	FilePath   string    `json:"file_path"`
	Metadata   Metadata  `json:"metadata"`
	ModifiedAt time.Time `json:"modified_at"`
}

// NewStub returns a placeholder page for a link target whose file has not
// been seen yet.
func NewStub(name string) Page {
	return Page{
		Name:       name,
		FilePath:   name + ".md",
		Metadata:   Metadata{},
		ModifiedAt: time.Now(),
	}
}

// Clone returns a copy of p that shares no mutable state with it.
func (p Page) Clone() Page {
	p.Metadata = p.Metadata.Clone()
	return p
}

// Link is the data carried by a directed edge between two pages.
type Link struct {
	From        string  `json:"from"`
	To          string  `json:"to"`
	DisplayText *string `json:"display_text,omitempty"`
}

// ParsedLink is a wikilink extracted from page content, before it is
// attached to the graph.
type ParsedLink struct {
	Target      string  `json:"target"`
	DisplayText *string `json:"display_text,omitempty"`
}

// Display returns the display text, or the target when none was given.
func (l ParsedLink) Display() string {
	if l.DisplayText != nil {
		return *l.DisplayText
	}
	return l.Target
}
