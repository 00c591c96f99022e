package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/go-chi/httplog/v2"
	"github.com/jmoiron/sqlx"
	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/vadimbarashkov/shortlink/internal/adapter/cache/redis"
	"github.com/vadimbarashkov/shortlink/internal/clicks"
	"github.com/vadimbarashkov/shortlink/internal/config"
	"github.com/vadimbarashkov/shortlink/internal/entity"
	"github.com/vadimbarashkov/shortlink/internal/slug"
	"github.com/vadimbarashkov/shortlink/internal/usecase"
	"github.com/vadimbarashkov/shortlink/migrations"
	"github.com/vadimbarashkov/shortlink/pkg/postgres"
	"github.com/vadimbarashkov/shortlink/pkg/sqlite"

	delivery "github.com/vadimbarashkov/shortlink/internal/adapter/delivery/http"
	pgrepo "github.com/vadimbarashkov/shortlink/internal/adapter/repository/postgres"
	sqliterepo "github.com/vadimbarashkov/shortlink/internal/adapter/repository/sqlite"
)

type linkStore interface {
	Save(ctx context.Context, slug, destinationURL string) (*entity.Link, error)
	RetrieveBySlug(ctx context.Context, slug string) (*entity.Link, error)
	IncrementClickCount(ctx context.Context, slug string) error
}

// App wires the link store, cache, click tracker and HTTP server together.
type App struct {
	cfg     *config.Config
	logger  *httplog.Logger
	db      *sqlx.DB
	rdb     *goredis.Client
	tracker *clicks.Tracker
	server  *http.Server

	// Handler serves the whole HTTP API.
	Handler http.Handler
}

// NewLogger builds the process logger from the log section of cfg.
func NewLogger(cfg *config.Config) *httplog.Logger {
	return httplog.NewLogger("shortlink", httplog.Options{
		LogLevel:       cfg.Log.SlogLevel(),
		JSON:           cfg.Log.JSON,
		Concise:        cfg.Log.Concise,
		RequestHeaders: !cfg.Log.Concise,
		Tags: map[string]string{
			"env": cfg.Env,
		},
	})
}

// New connects to the configured store, applies migrations and builds the HTTP handler.
func New(ctx context.Context, cfg *config.Config, logger *httplog.Logger) (*App, error) {
	const op = "app.New"

	a := &App{
		cfg:    cfg,
		logger: logger,
	}

	store, err := a.openStore(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	a.tracker = clicks.NewTracker(
		store,
		logger.Logger,
		clicks.WithTimeout(cfg.Clicks.Timeout),
		clicks.WithMaxInFlight(cfg.Clicks.MaxInFlight),
	)

	opts := []usecase.Option{
		usecase.WithLogger(logger.Logger),
		usecase.WithMaxAttempts(cfg.Slug.MaxAttempts),
	}

	if cfg.Redis.Enabled {
		a.rdb, err = redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			a.db.Close()
			return nil, fmt.Errorf("%s: failed to connect to redis: %w", op, err)
		}

		opts = append(opts, usecase.WithCache(redis.NewLinkCache(a.rdb, cfg.Redis.TTL)))
	}

	uc := usecase.New(store, slug.NewGenerator(cfg.Slug.Length), a.tracker, opts...)
	a.Handler = delivery.NewRouter(logger, uc, cfg.BaseURL)

	a.server = &http.Server{
		Addr:           cfg.HTTPServer.Addr(),
		Handler:        a.Handler,
		ReadTimeout:    cfg.HTTPServer.ReadTimeout,
		WriteTimeout:   cfg.HTTPServer.WriteTimeout,
		IdleTimeout:    cfg.HTTPServer.IdleTimeout,
		MaxHeaderBytes: cfg.HTTPServer.MaxHeaderBytes,
	}

	return a, nil
}

func (a *App) openStore(ctx context.Context) (linkStore, error) {
	var err error

	switch a.cfg.Storage.Driver {
	case config.StoragePostgres:
		pg := a.cfg.Postgres

		if err := postgres.RunMigrations(migrations.FS, "postgres", pg.DSN()); err != nil {
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}

		a.db, err = postgres.New(
			ctx,
			pg.DSN(),
			postgres.WithConnectTimeout(pg.ConnectTimeout),
			postgres.WithConnMaxIdleTime(pg.ConnMaxIdleTime),
			postgres.WithConnMaxLifetime(pg.ConnMaxLifetime),
			postgres.WithMaxIdleConns(pg.MaxIdleConns),
			postgres.WithMaxOpenConns(pg.MaxOpenConns),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}

		return pgrepo.NewLinkRepository(a.db), nil
	case config.StorageSQLite:
		if err := sqlite.RunMigrations(migrations.FS, "sqlite", a.cfg.SQLite.Path); err != nil {
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}

		a.db, err = sqlite.New(ctx, a.cfg.SQLite.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}

		return sqliterepo.NewLinkRepository(a.db), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", a.cfg.Storage.Driver)
	}
}

// Run serves HTTP until ctx is cancelled, then shuts the server down and waits
// for pending click increments.
func (a *App) Run(ctx context.Context) error {
	const op = "app.Run"

	a.server.BaseContext = func(_ net.Listener) context.Context {
		return ctx
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.logger.Info("starting server", "addr", a.server.Addr, "storage", a.cfg.Storage.Driver)

		var err error

		if a.cfg.HTTPServer.TLS() {
			err = a.server.ListenAndServeTLS(a.cfg.HTTPServer.CertFile, a.cfg.HTTPServer.KeyFile)
		} else {
			err = a.server.ListenAndServe()
		}

		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("%s: server error occurred: %w", op, err)
		}

		return nil
	})

	g.Go(func() error {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.cfg.HTTPServer.ShutdownTimeout)
		defer cancel()

		a.logger.Info("shutting down server")

		if err := a.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("%s: failed to shutdown server: %w", op, err)
		}

		a.tracker.Wait()

		return nil
	})

	return g.Wait()
}

// Close waits for pending click increments and releases the store and cache connections.
func (a *App) Close() error {
	a.tracker.Wait()

	var errs []error

	if a.rdb != nil {
		if err := a.rdb.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close redis client: %w", err))
		}
	}

	if err := a.db.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close database: %w", err))
	}

	return errors.Join(errs...)
}
