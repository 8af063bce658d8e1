// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/starford/meshgraph/internal/api"
	"github.com/starford/meshgraph/internal/engine"
	"github.com/starford/meshgraph/internal/mcpserver"
	"github.com/starford/meshgraph/internal/sse"
)

func newApplication(opts []Option) (*application, error) {
	app := &application{logOutput: os.Stdout}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	return app, nil
}

func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
	return logger
}

// openEngine creates the engine over the configured corpus and loads it.
func openEngine(cfg *Config, logger *slog.Logger) (*engine.Engine, error) {
	eng, err := engine.New(cfg.Corpus.Path,
		engine.WithLogger(logger),
		engine.WithExtensions(cfg.Corpus.Extensions...),
		engine.WithDebounce(cfg.Watcher.Debounce),
	)
	if err != nil {
		return nil, fmt.Errorf("init engine: %w", err)
	}
	if err := eng.Rebuild(); err != nil {
		return nil, fmt.Errorf("initial build: %w", err)
	}
	return eng, nil
}

// Run starts the HTTP server with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	// Initialize structured JSON logger.
	logger := newLogger(app.logOutput, cfg.App.LogLevel)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("corpus_path", cfg.Corpus.Path),
		slog.Bool("watcher_enabled", cfg.Watcher.Enabled),
		slog.String("events_mode", cfg.Events.Mode),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// Ensure corpus directory exists.
	if err := os.MkdirAll(cfg.Corpus.Path, 0o755); err != nil {
		return fmt.Errorf("create corpus dir: %w", err)
	}

	eng, err := openEngine(cfg, logger)
	if err != nil {
		return err
	}
	defer eng.Close()
	logger.Info("Graph loaded", slog.String("engine", eng.String()))

	if cfg.Watcher.Enabled {
		if err := eng.StartWatching(); err != nil {
			return fmt.Errorf("start watcher: %w", err)
		}
	}

	// SSE broker, only in stream mode: the pump is then the queue's sole consumer.
	var (
		broker     *sse.Broker
		sseHandler http.Handler
	)
	if cfg.Events.Streaming() {
		broker = sse.NewBroker(cfg.Events.GraphThrottle)
		defer broker.Close()
		sseHandler = broker
	}

	apiRouter := api.NewRouter(eng, cfg.Auth.AuthEnabled(), cfg.Auth.Token, sseHandler)

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if cfg.Watcher.Enabled && !eng.IsWatching() {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"watcher stopped"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Handle("/metrics", promhttp.Handler())

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	if broker != nil {
		// Open streams would otherwise hold Shutdown until its timeout.
		httpServer.RegisterOnShutdown(broker.Close)
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Forward graph events to SSE subscribers.
	if broker != nil {
		g.Go(func() error {
			return sse.Pump(gCtx, eng, broker, cfg.Events.PumpInterval, logger)
		})
	}

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// errShutdown cancels the group context so the pump exits with the server.
var errShutdown = errors.New("shutdown")

// RunMCP serves the graph over MCP on stdin/stdout. Logs go to stderr.
func RunMCP(ctx context.Context, opts ...Option) error {
	app, err := newApplication(append([]Option{WithLogOutput(os.Stderr)}, opts...))
	if err != nil {
		return err
	}
	cfg := app.config
	logger := newLogger(app.logOutput, cfg.App.LogLevel)

	eng, err := openEngine(cfg, logger)
	if err != nil {
		return err
	}
	defer eng.Close()

	if cfg.Watcher.Enabled {
		if err := eng.StartWatching(); err != nil {
			return fmt.Errorf("start watcher: %w", err)
		}
	}

	logger.Info("MCP server starting", slog.String("engine", eng.String()))
	if err := mcpserver.New(eng).ServeStdio(); err != nil {
		return fmt.Errorf("mcp serve: %w", err)
	}
	return nil
}
