// Package query evaluates metadata and link filters against graph pages and
// projects the matches into MetaTable rows.
package query

import (
	"regexp"
	"slices"
	"strings"

	"github.com/starford/meshgraph/internal/models"
)

// LinkView answers edge membership questions for link filters.
type LinkView interface {
	HasLink(from, to string) bool
}

// Filter is a predicate over a single page. Filters are combined with AND.
type Filter interface {
	Match(p *models.Page, links LinkView) bool
	// String renders the filter in MetaTable macro syntax.
	String() string
}

// Equals matches when Value is among the page's values for Key.
type Equals struct{ Key, Value string }

// HasKey matches when Key is present in the page's metadata.
type HasKey struct{ Key string }

// Contains matches when any value under Key contains Substring.
type Contains struct{ Key, Substring string }

// Matches matches when any value under Key matches Pattern.
// An invalid pattern matches nothing.
type Matches struct {
	Key     string
	Pattern string

	re      *regexp.Regexp
	invalid bool
}

// LinksTo matches pages with an outgoing edge to Target.
type LinksTo struct{ Target string }

// LinkedFrom matches pages with an incoming edge from Source.
type LinkedFrom struct{ Source string }

// NewMatches compiles pattern once. Invalid patterns are kept and never match.
func NewMatches(key, pattern string) Matches {
	m := Matches{Key: key, Pattern: pattern}
	re, err := regexp.Compile(pattern)
	if err != nil {
		m.invalid = true
		return m
	}
	m.re = re
	return m
}

func (f Equals) Match(p *models.Page, _ LinkView) bool {
	return slices.Contains(p.Metadata[f.Key], f.Value)
}

func (f HasKey) Match(p *models.Page, _ LinkView) bool {
	_, ok := p.Metadata[f.Key]
	return ok
}

func (f Contains) Match(p *models.Page, _ LinkView) bool {
	return slices.ContainsFunc(p.Metadata[f.Key], func(v string) bool {
		return strings.Contains(v, f.Substring)
	})
}

func (f Matches) Match(p *models.Page, _ LinkView) bool {
	if f.invalid {
		return false
	}
	re := f.re
	if re == nil {
		var err error
		if re, err = regexp.Compile(f.Pattern); err != nil {
			return false
		}
	}
	return slices.ContainsFunc(p.Metadata[f.Key], re.MatchString)
}

func (f LinksTo) Match(p *models.Page, links LinkView) bool {
	return links != nil && links.HasLink(p.Name, f.Target)
}

func (f LinkedFrom) Match(p *models.Page, links LinkView) bool {
	return links != nil && links.HasLink(f.Source, p.Name)
}

func (f Equals) String() string     { return f.Key + "=" + f.Value }
func (f HasKey) String() string     { return "?" + f.Key }
func (f Contains) String() string   { return f.Key + "~=" + f.Substring }
func (f Matches) String() string    { return f.Key + "/=" + f.Pattern }
func (f LinksTo) String() string    { return "->" + f.Target }
func (f LinkedFrom) String() string { return "<-" + f.Source }

// MatchAll reports whether p satisfies every filter. An empty list matches.
func MatchAll(p *models.Page, filters []Filter, links LinkView) bool {
	for _, f := range filters {
		if !f.Match(p, links) {
			return false
		}
	}
	return true
}
