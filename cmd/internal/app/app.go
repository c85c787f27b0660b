// Package app wires the usersvc runtime: config, logging, storage selection, HTTP routes and metrics.
//
// It is intentionally small and deterministic to keep CI gates strict and behavior predictable.
package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"usersvc/cmd/identity"
	authapi "usersvc/cmd/internal/auth/api"
	"usersvc/cmd/security/password"
	"usersvc/cmd/security/token"

	"github.com/jackc/pgx/v5/pgxpool"
)

// App is the usersvc runtime: it owns the HTTP server, the user store and the DB pool.
type App struct {
	cfg Config
	log Logger

	users     identity.Store
	dbPool    *pgxpool.Pool
	dbEnabled bool

	metrics *Metrics
	api     *authapi.Handler
}

// New constructs a fully wired App instance from config and logger.
// The token secret and hashing parameters are read from the environment.
func New(ctx context.Context, cfg Config, log Logger) (*App, error) {
	if log == nil {
		log = NewLogger(cfg.LogLevel, cfg.LogFormat, cfg.LogColor)
	}

	tokCfg, err := LoadTokenConfig()
	if err != nil {
		return nil, err
	}
	tokens, err := token.NewManager(tokCfg)
	if err != nil {
		return nil, err
	}

	pwCfg, err := password.FromEnv()
	if err != nil {
		return nil, err
	}

	metrics := NewMetrics()
	hasher := password.NewPool(pwCfg, password.WithObserver(metrics.ObserveHash))

	users, dbPool, dbEnabled, err := newStore(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	opts := []authapi.HandlerOption{authapi.WithLoginObserver(metrics.ObserveLogin)}
	if dbEnabled {
		opts = append(opts, authapi.WithAuditPool(dbPool, cfg.DBSchema))
	}

	handler, err := authapi.NewHandler(log, authapi.LoadConfigFromEnv(), users, hasher, tokens, opts...)
	if err != nil {
		closeStore(users, dbPool)
		return nil, err
	}

	log.Info("app.ready",
		"db_enabled", dbEnabled,
		"token_ttl", tokCfg.TTL.String(),
		"token_issuer", tokCfg.Issuer,
		"hash_concurrency", pwCfg.Concurrency,
		"argon2_memory_kib", pwCfg.Params.MemoryKiB,
		"argon2_iterations", pwCfg.Params.Iterations,
	)
	if tokCfg.TTL == 0 {
		log.Warn("security.token.no_expiry", "hint", "set USRV_TOKEN_TTL to bound token lifetime")
	}

	return &App{
		cfg:       cfg,
		log:       log,
		users:     users,
		dbPool:    dbPool,
		dbEnabled: dbEnabled,
		metrics:   metrics,
		api:       handler,
	}, nil
}

// Handler returns the fully wrapped HTTP handler (routes plus middleware).
func (a *App) Handler() http.Handler {
	mux := http.NewServeMux()
	registerHTTP(mux, a.log, a.cfg, a.dbPool, a.dbEnabled, a.api, a.metrics)

	return WithSecurityHeaders(WithRequestID(WithRequestLogging(mux, a.log, a.metrics)))
}

// Run starts the HTTP server and blocks until context cancellation or fatal server error.
func (a *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              a.cfg.HTTPAddr,
		Handler:           a.Handler(),
		ReadHeaderTimeout: nonZeroDuration(a.cfg.ReadHeaderTimeout, 5*time.Second),
		ReadTimeout:       nonZeroDuration(a.cfg.ReadTimeout, 15*time.Second),
		WriteTimeout:      nonZeroDuration(a.cfg.WriteTimeout, 15*time.Second),
		IdleTimeout:       nonZeroDuration(a.cfg.IdleTimeout, 60*time.Second),
		MaxHeaderBytes:    nonZeroInt(a.cfg.MaxHeaderBytes, 1<<20),
	}

	a.log.Info("server.start", "addr", a.cfg.HTTPAddr, "db_enabled", a.dbEnabled)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		a.log.Info("server.stop", "reason", "context_done")
	case err := <-errCh:
		a.log.Error("server.fail", "err", err)
		a.Close()
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), nonZeroDuration(a.cfg.ShutdownTimeout, 10*time.Second))
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.log.Error("server.shutdown.fail", "err", err)
		a.Close()
		return err
	}

	a.Close()
	a.log.Info("server.stopped")
	return nil
}

// Close releases the user store and the DB pool.
func (a *App) Close() {
	if a == nil {
		return
	}
	closeStore(a.users, a.dbPool)
}

func nonZeroDuration(v, def time.Duration) time.Duration {
	if v <= 0 {
		return def
	}
	return v
}

func nonZeroInt(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

// newStore decides between Postgres-backed persistence and the in-memory store.
//
// Ownership model:
// - app owns pool lifecycle
// - PostgresStore.Close() is a no-op
func newStore(ctx context.Context, cfg Config, log Logger) (identity.Store, *pgxpool.Pool, bool, error) {
	if cfg.DatabaseURL == "" {
		log.Info("db.disabled.inmemory_store")
		return identity.NewMemoryStore(), nil, false, nil
	}

	pool, err := NewDBPool(ctx, cfg)
	if err != nil {
		return nil, nil, false, err
	}

	if cfg.DBAutoMigrate {
		if cfg.DBSchema != identity.DefaultSchema {
			log.Warn("db.migrate.schema_mismatch", "schema", cfg.DBSchema, "migrated_schema", identity.DefaultSchema)
		}
		if err := identity.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, false, err
		}
		log.Info("db.migrate.done")
	}

	st, err := identity.NewPostgresStore(pool, identity.WithSchema(cfg.DBSchema))
	if err != nil {
		pool.Close()
		return nil, nil, false, err
	}

	log.Info("db.enabled.postgres_store", "schema", cfg.DBSchema)
	return st, pool, true, nil
}

func closeStore(users identity.Store, pool *pgxpool.Pool) {
	if users != nil {
		_ = users.Close()
	}
	if pool != nil {
		pool.Close()
	}
}
