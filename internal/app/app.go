// Package app provides the main application struct for centralized dependency
// management and lifecycle control of the wakeaudio server.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"

	"wakeaudio/config"
	"wakeaudio/internal/cache"
	"wakeaudio/internal/compose"
	"wakeaudio/internal/observability"
	"wakeaudio/internal/server"
	"wakeaudio/internal/storage"
	"wakeaudio/internal/synth"
)

// App represents the main application with all its dependencies.
// It provides centralized lifecycle management for all components.
type App struct {
	config  *config.Config
	storage storage.Storage
	cache   *cache.SegmentCache
	cleanup *cache.CleanupJob
	server  *server.Server

	shutdownMu sync.Mutex
	shutdown   bool
}

// New creates a new App with all dependencies initialized.
// The caller must call Shutdown to release resources.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	app := &App{config: cfg}

	st, err := storage.New(ctx, storage.Config{
		Type:   cfg.Storage.Type,
		SQLite: storage.SQLiteConfig{Path: cfg.Storage.SQLitePath},
		PostgreSQL: storage.PostgreSQLConfig{
			URL:      cfg.Storage.PostgresURL,
			MaxConns: cfg.Storage.PostgresConns,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	app.storage = st

	durable, err := newDurableStore(ctx, st)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("failed to initialize durable tier: %w", err), st.Close())
	}

	var hot cache.Store
	if cfg.Redis.URL != "" {
		hot, err = cache.NewRedisStore(cache.RedisConfig{URL: cfg.Redis.URL})
		if err != nil {
			return nil, errors.Join(fmt.Errorf("failed to initialize redis hot tier: %w", err), st.Close())
		}
	} else {
		slog.Info("redis not configured, using in-memory hot tier")
	}

	segmentCache, err := cache.New(hot, durable, cache.WithHotFreshness(cfg.Cache.HotFreshness))
	if err != nil {
		return nil, errors.Join(fmt.Errorf("failed to initialize segment cache: %w", err), st.Close())
	}
	app.cache = segmentCache

	renderer, err := newRenderer(cfg.TTS)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("failed to initialize tts renderer: %w", err), app.closeStores())
	}
	gateway := synth.NewGateway(renderer, nil, nil)

	composerOpts := []compose.Option{}
	if cfg.Server.MetricsEnabled {
		composerOpts = append(composerOpts, compose.WithHooks(observability.NewPrometheusHooks(nil)))
	}
	composer, err := compose.New(segmentCache, gateway, nil, composerOpts...)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("failed to initialize composer: %w", err), app.closeStores())
	}

	app.cleanup = cache.NewCleanupJob(segmentCache, cfg.Cache.CleanupInterval, nil)
	app.cleanup.Start()

	app.server = server.New(composer, segmentCache, &server.Config{
		MasterKey:      cfg.Server.MasterKey,
		MetricsEnabled: cfg.Server.MetricsEnabled,
	})

	return app, nil
}

// Server returns the HTTP server for starting and testing.
func (a *App) Server() *server.Server {
	return a.server
}

// Shutdown stops background work and releases resources in reverse
// initialization order. Safe to call multiple times.
func (a *App) Shutdown(ctx context.Context) error {
	a.shutdownMu.Lock()
	defer a.shutdownMu.Unlock()
	if a.shutdown {
		return nil
	}
	a.shutdown = true

	var errs []error
	if a.server != nil {
		if err := a.server.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("server shutdown: %w", err))
		}
	}
	if a.cleanup != nil {
		a.cleanup.Stop()
	}
	if err := a.closeStores(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (a *App) closeStores() error {
	var errs []error
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			errs = append(errs, fmt.Errorf("cache close: %w", err))
		}
	}
	if a.storage != nil {
		if err := a.storage.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage close: %w", err))
		}
	}
	return errors.Join(errs...)
}

// newDurableStore binds the durable cache tier to the configured backend.
func newDurableStore(ctx context.Context, st storage.Storage) (cache.Store, error) {
	switch st.Type() {
	case storage.TypeSQLite:
		return cache.NewSQLiteStore(st.SQLiteDB())
	case storage.TypePostgreSQL:
		pool, ok := st.PostgreSQLPool().(*pgxpool.Pool)
		if !ok {
			return nil, fmt.Errorf("postgresql storage returned unexpected pool type")
		}
		return cache.NewPostgreSQLStore(ctx, pool)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", st.Type())
	}
}

// newRenderer selects the TTS provider transport.
func newRenderer(cfg config.TTSConfig) (synth.Renderer, error) {
	switch cfg.Provider {
	case "http":
		return synth.NewHTTPRenderer(synth.HTTPRendererConfig{
			BaseURL: cfg.BaseURL,
			APIKey:  cfg.APIKey,
		}, nil)
	case "stub", "":
		return synth.NewStubRenderer(), nil
	default:
		return nil, fmt.Errorf("unknown tts provider: %s (valid: http, stub)", cfg.Provider)
	}
}
