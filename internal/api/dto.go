package api

import (
	"github.com/starford/meshgraph/internal/engine"
	"github.com/starford/meshgraph/internal/events"
	"github.com/starford/meshgraph/internal/models"
	"github.com/starford/meshgraph/internal/query"
)

// PageDetail is the response for a single page (aliased from the engine).
type PageDetail = engine.PageDetail

// PageListResponse wraps page listings and query results.
type PageListResponse struct {
	Pages []models.Page `json:"pages"`
	Total int           `json:"total"`
}

// LinksResponse lists one direction of a page's neighbours.
type LinksResponse struct {
	Page  string   `json:"page"`
	Links []string `json:"links"`
}

// MetadataResponse carries a page's frontmatter values.
type MetadataResponse struct {
	Page     string          `json:"page"`
	Metadata models.Metadata `json:"metadata"`
}

// QueryRequest is the body of POST /query.
type QueryRequest struct {
	Filters []query.Spec `json:"filters"`
}

// MetaTableRequest is the body of POST /metatable.
type MetaTableRequest struct {
	Filters []query.Spec `json:"filters"`
	Columns []string     `json:"columns"`
}

// WatchResponse reports the watcher state.
type WatchResponse struct {
	Watching bool `json:"watching"`
}

// EventsResponse carries drained graph events.
type EventsResponse struct {
	Events []events.Record `json:"events"`
}
