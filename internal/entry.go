// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/jgcallah/cadence/internal/api"
	"github.com/jgcallah/cadence/internal/index"
	"github.com/jgcallah/cadence/internal/mcpserver"
	"github.com/jgcallah/cadence/internal/sse"
	"github.com/jgcallah/cadence/internal/storage"
	"github.com/jgcallah/cadence/internal/taskservice"
	"github.com/jgcallah/cadence/internal/vault"
)

// vaultEnv is what both Run and RunMCP need: a vault store, the task index
// and the service on top of them.
type vaultEnv struct {
	cfg    *Config
	logger *slog.Logger
	store  *storage.FS
	db     *index.DB
}

func newApplication(opts []Option, logOut io.Writer) (*application, error) {
	app := &application{}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	if app.logger == nil {
		app.logger = slog.New(slog.NewJSONHandler(logOut, &slog.HandlerOptions{
			Level: app.config.App.LogLevel,
		}))
	}
	return app, nil
}

func (app *application) open() (*vaultEnv, error) {
	cfg, logger := app.config, app.logger

	// Ensure vault directory exists.
	if err := os.MkdirAll(cfg.Vault.Path, 0o755); err != nil {
		return nil, fmt.Errorf("create vault dir: %w", err)
	}

	store, err := storage.NewFS(cfg.Vault.Path)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	dbPath := cfg.Index.ResolvedPath(store.Root())
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create index dir: %w", err)
	}
	db, err := index.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("init index: %w", err)
	}

	logger.Info("Configuration loaded",
		slog.String("vault_path", store.Root()),
		slog.String("index_path", dbPath),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// Run initial sync.
	if n, err := index.Sync(db, store, logger); err != nil {
		logger.Warn("initial sync failed", slog.String("error", err.Error()))
	} else {
		logger.Info("index synced", slog.Int("notes", n))
	}

	return &vaultEnv{cfg: cfg, logger: logger, store: store, db: db}, nil
}

func (env *vaultEnv) service(notify taskservice.Notifier) *taskservice.Service {
	return taskservice.NewService(env.store, vault.NewConfigCache(),
		taskservice.WithIndex(env.db),
		taskservice.WithLogger(env.logger),
		taskservice.WithNotifier(notify))
}

func (env *vaultEnv) watch(ctx context.Context, cb index.EventCallback) error {
	if !env.cfg.Vault.Watch {
		return nil
	}
	if err := index.Watch(ctx, env.db, env.store, env.logger, cb); err != nil {
		env.logger.Warn("watcher stopped", slog.String("error", err.Error()))
	}
	return nil
}

// Run starts the HTTP server with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts, os.Stdout)
	if err != nil {
		return err
	}
	cfg, logger := app.config, app.logger
	slog.SetDefault(logger)

	env, err := app.open()
	if err != nil {
		return err
	}
	defer env.db.Close()

	// SSE broker.
	broker := sse.NewBroker(cfg.App.Events.AgendaThrottle)
	defer broker.Close()

	// Build API service and router.
	svc := env.service(broker.PublishNoteEvent)
	apiRouter := api.NewRouter(svc, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

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
	r.Get("/health/ready", readyHandler(svc))

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Start file watcher with SSE callback.
	g.Go(func() error {
		return env.watch(gCtx, broker.PublishNoteEvent)
	})

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

type readyStatus struct {
	Status         string `json:"status"`
	OpenTasks      int    `json:"open_tasks"`
	CompletedTasks int    `json:"completed_tasks"`
}

// readyHandler reports 503 until the vault has a configuration and the
// index answers, then returns the indexed task counts.
func readyHandler(svc *taskservice.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if _, err := svc.Config(); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(readyStatus{Status: "vault not initialized"})
			return
		}
		open, completed, err := svc.Stats()
		if err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(readyStatus{Status: "index unavailable"})
			return
		}
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(readyStatus{Status: "ok", OpenTasks: open, CompletedTasks: completed})
	}
}

// errShutdown cancels the group so the watcher exits with the server.
var errShutdown = errors.New("shutdown")

// RunMCP serves the MCP tools over stdin/stdout until stdin is closed.
// Logs go to stderr so they never interleave with protocol messages.
func RunMCP(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts, os.Stderr)
	if err != nil {
		return err
	}
	env, err := app.open()
	if err != nil {
		return err
	}
	defer env.db.Close()

	srv := mcpserver.New(env.service(nil))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return env.watch(gCtx, nil)
	})
	g.Go(func() error {
		defer cancel()
		return srv.ServeStdio()
	})
	return g.Wait()
}
