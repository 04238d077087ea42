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
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/starford/kenaz-canvas/internal/api"
	"github.com/starford/kenaz-canvas/internal/canvas"
	"github.com/starford/kenaz-canvas/internal/canvasservice"
	"github.com/starford/kenaz-canvas/internal/mcpserver"
	"github.com/starford/kenaz-canvas/internal/pages"
	"github.com/starford/kenaz-canvas/internal/sse"
	"github.com/starford/kenaz-canvas/internal/storage"
)

// shutdownTimeout bounds the HTTP drain and the final canvas flush.
const shutdownTimeout = 10 * time.Second

// Run starts the HTTP server with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	// Initialize structured JSON logger.
	logger := newLogger(os.Stdout, cfg)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("vault_id", cfg.Vault.ID),
		slog.String("vault_path", cfg.Vault.Path),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("storage_backend", cfg.Storage.Backend),
		slog.String("log_level", cfg.App.LogLevel.String()))

	deps, err := openDeps(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer deps.close()

	// SSE broker.
	broker := sse.NewBroker(cfg.Canvas.EventThrottle)
	defer broker.Close()

	svc := newCanvasService(cfg, deps, logger, func(k canvas.Key, rev uint64) {
		broker.PublishSceneSaved(k.Vault, k.Page, rev)
	})

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
	r.Get("/health/ready", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := deps.ready(req.Context()); err != nil {
			logger.Warn("readiness check failed", slog.String("error", err.Error()))
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Prometheus metrics (unauthenticated).
	r.Handle("/metrics", promhttp.Handler())

	// Mount API routes under /api; SSE is served inside the auth group.
	r.Mount("/api", api.NewRouter(svc, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker))

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Start vault watcher; page changes refresh note-link titles on clients.
	g.Go(func() error {
		err := pages.Watch(gCtx, deps.db, deps.vault, cfg.Vault.Path, logger, func(kind, id string) {
			broker.PublishPageEvent(kind, id)
		})
		if err != nil {
			logger.Error("watcher stopped", slog.String("error", err.Error()))
		}
		return nil
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

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}
		if err := svc.CloseAll(shutdownCtx); err != nil {
			logger.Error("canvas flush on shutdown failed", slog.String("error", err.Error()))
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

// errShutdown ends the run group once the server has drained, which cancels
// the watcher.
var errShutdown = errors.New("shutdown")

// RunMCP serves the canvas tools over stdio. Logs go to stderr because
// stdout carries the protocol.
func RunMCP(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config
	logger := newLogger(os.Stderr, cfg)

	deps, err := openDeps(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer deps.close()

	svc := newCanvasService(cfg, deps, logger, nil)
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := svc.CloseAll(flushCtx); err != nil {
			logger.Error("canvas flush on exit failed", slog.String("error", err.Error()))
		}
	}()

	logger.Info("MCP server starting", slog.String("vault_id", cfg.Vault.ID))
	return mcpserver.New(svc, cfg.Vault.ID).ServeStdio()
}

func newApplication(opts []Option) (*application, error) {
	app := &application{}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	return app, nil
}

func newLogger(w io.Writer, cfg *Config) *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)
	return logger
}

// deps are the stores shared by the HTTP and MCP entry points.
type deps struct {
	vault  *storage.FS
	db     *pages.DB
	scenes storage.SceneStore
	redis  *redis.Client
}

func openDeps(ctx context.Context, cfg *Config, logger *slog.Logger) (*deps, error) {
	// Ensure vault directory exists.
	if err := os.MkdirAll(cfg.Vault.Path, 0o755); err != nil {
		return nil, fmt.Errorf("create vault dir: %w", err)
	}

	vault, err := storage.NewFS(cfg.Vault.Path)
	if err != nil {
		return nil, fmt.Errorf("init vault storage: %w", err)
	}

	db, err := pages.Open(cfg.SQLite.Path)
	if err != nil {
		return nil, fmt.Errorf("init page registry: %w", err)
	}
	d := &deps{vault: vault, db: db}

	// Run initial sync.
	if err := pages.Sync(db, vault, logger); err != nil {
		logger.Warn("initial sync failed", slog.String("error", err.Error()))
	}

	switch cfg.Storage.Backend {
	case StorageBackendRedis:
		d.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Storage.Redis.Addr,
			Password: cfg.Storage.Redis.Password,
			DB:       cfg.Storage.Redis.DB,
		})
		if err := d.redis.Ping(ctx).Err(); err != nil {
			d.close()
			return nil, fmt.Errorf("connect redis %s: %w", cfg.Storage.Redis.Addr, err)
		}
		d.scenes = storage.NewRedisScenes(d.redis, cfg.Storage.Redis.Prefix)
	default:
		scenes, err := storage.NewFSScenes(cfg.Storage.FS.Path)
		if err != nil {
			d.close()
			return nil, fmt.Errorf("init scene storage: %w", err)
		}
		d.scenes = scenes
	}
	return d, nil
}

func (d *deps) ready(ctx context.Context) error {
	if err := d.db.Ping(); err != nil {
		return fmt.Errorf("page registry: %w", err)
	}
	if d.redis != nil {
		if err := d.redis.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
	}
	return nil
}

func (d *deps) close() {
	if d.redis != nil {
		_ = d.redis.Close()
	}
	_ = d.db.Close()
}

func newCanvasService(cfg *Config, d *deps, logger *slog.Logger, onSaved canvas.SavedFunc) *canvasservice.Service {
	opts := []canvasservice.Option{
		canvasservice.WithLogger(logger),
		canvasservice.WithCanvasOptions(
			canvas.WithSaveDebounce(cfg.Canvas.SaveDebounce),
			canvas.WithUndoCapacity(cfg.Canvas.UndoCapacity),
		),
	}
	if onSaved != nil {
		opts = append(opts, canvasservice.WithSavedHook(onSaved))
	}
	return canvasservice.New(d.scenes, d.db, opts...)
}
