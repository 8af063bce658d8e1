package query

import (
	"fmt"

	"github.com/starford/meshgraph/internal/apperr"
)

// Filter operation names used by Spec.
const (
	OpEquals     = "equals"
	OpHasKey     = "has_key"
	OpContains   = "contains"
	OpMatches    = "matches"
	OpLinksTo    = "links_to"
	OpLinkedFrom = "linked_from"
)

// Spec is the JSON form of a Filter. Link operations carry the page name
// in Value and leave Key empty.
type Spec struct {
	Op    string `json:"op"`
	Key   string `json:"key,omitempty"`
	Value string `json:"value,omitempty"`
}

// Filter converts s into a Filter. Unknown operations and missing operands
// wrap apperr.ErrInvalidFilter. An uncompilable regex is not an error.
func (s Spec) Filter() (Filter, error) {
	needKey := func() error {
		if s.Key == "" {
			return fmt.Errorf("query: %w: %s requires key", apperr.ErrInvalidFilter, s.Op)
		}
		return nil
	}
	needValue := func() error {
		if s.Value == "" {
			return fmt.Errorf("query: %w: %s requires value", apperr.ErrInvalidFilter, s.Op)
		}
		return nil
	}

	switch s.Op {
	case OpEquals:
		if err := needKey(); err != nil {
			return nil, err
		}
		return Equals{Key: s.Key, Value: s.Value}, nil
	case OpHasKey:
		if err := needKey(); err != nil {
			return nil, err
		}
		return HasKey{Key: s.Key}, nil
	case OpContains:
		if err := needKey(); err != nil {
			return nil, err
		}
		return Contains{Key: s.Key, Substring: s.Value}, nil
	case OpMatches:
		if err := needKey(); err != nil {
			return nil, err
		}
		return NewMatches(s.Key, s.Value), nil
	case OpLinksTo:
		if err := needValue(); err != nil {
			return nil, err
		}
		return LinksTo{Target: s.Value}, nil
	case OpLinkedFrom:
		if err := needValue(); err != nil {
			return nil, err
		}
		return LinkedFrom{Source: s.Value}, nil
	default:
		return nil, fmt.Errorf("query: %w: unknown op %q", apperr.ErrInvalidFilter, s.Op)
	}
}

// FromSpecs converts every spec, failing on the first invalid one.
func FromSpecs(specs []Spec) ([]Filter, error) {
	out := make([]Filter, 0, len(specs))
	for i, s := range specs {
		f, err := s.Filter()
		if err != nil {
			return nil, fmt.Errorf("filter %d: %w", i, err)
		}
		out = append(out, f)
	}
	return out, nil
}
