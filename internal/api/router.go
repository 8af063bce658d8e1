package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/meshgraph/internal/engine"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events; otherwise the queue is
// exposed for draining at GET /events/poll.
func NewRouter(eng *engine.Engine, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(eng)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Pages.
	r.Get("/pages", h.ListPages)
	r.Get("/pages/{name}", h.GetPage)
	r.Get("/pages/{name}/backlinks", h.Backlinks)
	r.Get("/pages/{name}/outlinks", h.Outlinks)
	r.Get("/pages/{name}/metadata", h.Metadata)

	// Queries.
	r.Post("/query", h.Query)
	r.Post("/metatable", h.MetaTable)
	r.Get("/metatable", h.MetaTableMacro)

	// Engine state.
	r.Get("/stats", h.Stats)
	r.Post("/rebuild", h.Rebuild)
	r.Get("/watch", h.WatchStatus)
	r.Post("/watch/start", h.StartWatching)
	r.Post("/watch/stop", h.StopWatching)

	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	} else {
		r.Get("/events/poll", h.PollEvents)
	}

	return r
}
