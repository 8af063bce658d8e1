package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/starford/meshgraph/internal/apperr"
	"github.com/starford/meshgraph/internal/checksum"
	"github.com/starford/meshgraph/internal/engine"
	"github.com/starford/meshgraph/internal/events"
	"github.com/starford/meshgraph/internal/query"
)

const maxBody = 1 << 20

// Handler holds API route handlers.
type Handler struct {
	eng *engine.Engine
}

// NewHandler creates a new Handler.
func NewHandler(eng *engine.Engine) *Handler {
	return &Handler{eng: eng}
}

// pageName extracts the page name from the URL. Names may contain
// escaped spaces or slashes.
func pageName(r *http.Request) string {
	raw := chi.URLParam(r, "name")
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

func notFound(name string) error {
	return fmt.Errorf("page %q: %w", name, apperr.ErrNotFound)
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// ListPages handles GET /api/pages.
func (h *Handler) ListPages(w http.ResponseWriter, r *http.Request) {
	pages := h.eng.ListPages()
	writeJSON(w, http.StatusOK, PageListResponse{Pages: nonNil(pages), Total: len(pages)})
}

// GetPage handles GET /api/pages/{name}. The response carries an ETag and
// honours If-None-Match.
func (h *Handler) GetPage(w http.ResponseWriter, r *http.Request) {
	name := pageName(r)
	detail, ok := h.eng.PageDetail(name)
	if !ok {
		writeError(w, notFound(name))
		return
	}
	body, err := json.Marshal(detail)
	if err != nil {
		writeError(w, fmt.Errorf("encode page %q: %w", name, err))
		return
	}
	etag := checksum.ETag(body)
	w.Header().Set("ETag", etag)
	if checksum.Match(r.Header.Get("If-None-Match"), etag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(append(body, '\n'))
}

// Backlinks handles GET /api/pages/{name}/backlinks.
func (h *Handler) Backlinks(w http.ResponseWriter, r *http.Request) {
	h.links(w, r, h.eng.Backlinks)
}

// Outlinks handles GET /api/pages/{name}/outlinks.
func (h *Handler) Outlinks(w http.ResponseWriter, r *http.Request) {
	h.links(w, r, h.eng.Outlinks)
}

func (h *Handler) links(w http.ResponseWriter, r *http.Request, fetch func(string) []string) {
	name := pageName(r)
	if !h.eng.PageExists(name) {
		writeError(w, notFound(name))
		return
	}
	writeJSON(w, http.StatusOK, LinksResponse{Page: name, Links: nonNil(fetch(name))})
}

// Metadata handles GET /api/pages/{name}/metadata.
func (h *Handler) Metadata(w http.ResponseWriter, r *http.Request) {
	name := pageName(r)
	meta, ok := h.eng.GetMetadata(name)
	if !ok {
		writeError(w, notFound(name))
		return
	}
	writeJSON(w, http.StatusOK, MetadataResponse{Page: name, Metadata: meta})
}

func decodeFilters(w http.ResponseWriter, specs []query.Spec) ([]query.Filter, bool) {
	filters, err := query.FromSpecs(specs)
	if err != nil {
		writeError(w, err)
		return nil, false
	}
	return filters, true
}

// Query handles POST /api/query.
func (h *Handler) Query(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBody)
	var req QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	filters, ok := decodeFilters(w, req.Filters)
	if !ok {
		return
	}
	pages := h.eng.Query(filters)
	writeJSON(w, http.StatusOK, PageListResponse{Pages: nonNil(pages), Total: len(pages)})
}

// MetaTable handles POST /api/metatable.
func (h *Handler) MetaTable(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBody)
	var req MetaTableRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	filters, ok := decodeFilters(w, req.Filters)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, h.eng.MetaTable(filters, nonNil(req.Columns)))
}

// MetaTableMacro handles GET /api/metatable?q=<macro>[&format=markdown].
func (h *Handler) MetaTableMacro(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	m := query.ParseMacro(q)
	res := h.eng.MetaTable(m.Filters, m.Columns)

	if r.URL.Query().Get("format") == "markdown" {
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(query.RenderMarkdown(res)))
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Stats handles GET /api/stats.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.eng.Stats())
}

// Rebuild handles POST /api/rebuild.
func (h *Handler) Rebuild(w http.ResponseWriter, r *http.Request) {
	if err := h.eng.Rebuild(); err != nil {
		slog.Error("rebuild failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("rebuild failed"))
		return
	}
	writeJSON(w, http.StatusOK, h.eng.Stats())
}

// WatchStatus handles GET /api/watch.
func (h *Handler) WatchStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, WatchResponse{Watching: h.eng.IsWatching()})
}

// StartWatching handles POST /api/watch/start.
func (h *Handler) StartWatching(w http.ResponseWriter, r *http.Request) {
	if err := h.eng.StartWatching(); err != nil {
		slog.Error("start watching failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("start watching failed"))
		return
	}
	writeJSON(w, http.StatusOK, WatchResponse{Watching: h.eng.IsWatching()})
}

// StopWatching handles POST /api/watch/stop.
func (h *Handler) StopWatching(w http.ResponseWriter, r *http.Request) {
	h.eng.StopWatching()
	writeJSON(w, http.StatusOK, WatchResponse{Watching: false})
}

// PollEvents handles GET /api/events/poll. Each event is returned once.
func (h *Handler) PollEvents(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, EventsResponse{Events: events.ToRecords(h.eng.PollEvents())})
}
