// Package apperr holds sentinel errors shared by the transports.
package apperr

import "errors"

var (
	// ErrNotFound reports a page that is not in the graph.
	ErrNotFound = errors.New("not found")
	// ErrInvalidFilter reports a filter spec that cannot be built.
	ErrInvalidFilter = errors.New("invalid filter")
)
