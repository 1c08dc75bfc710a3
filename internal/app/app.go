// Package app wires configuration, storage and services together.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"

	"github.com/micropost/micropost/internal/auth"
	"github.com/micropost/micropost/internal/cache"
	"github.com/micropost/micropost/internal/config"
	"github.com/micropost/micropost/internal/metrics"
	"github.com/micropost/micropost/internal/repository"
	"github.com/micropost/micropost/internal/repository/memory"
	"github.com/micropost/micropost/internal/service"
)

// Store is everything the services need from a storage backend.
type Store interface {
	service.UserStore
	service.CredentialRepository
	service.FollowStore
	service.PostStore
	Ping(ctx context.Context) error
}

// App holds the wired services and the resources behind them.
type App struct {
	Config  *config.Config
	Logger  *slog.Logger
	Metrics metrics.Recorder

	Users       *service.UserService
	Credentials *service.CredentialService
	Graph       *service.RelationshipService
	Feed        *service.FeedService
	Posts       *service.PostService

	store    Store
	repo     *repository.Repository
	cache    *cache.Cache
	registry *prometheus.Registry
}

// New connects the configured backends and builds the services.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	a := &App{Config: cfg, Logger: logger}

	// Metrics
	switch cfg.MetricsBackend {
	case config.MetricsPrometheus:
		a.registry = prometheus.NewRegistry()
		a.Metrics = metrics.NewPrometheus(a.registry)
	default:
		a.Metrics = metrics.NewNoop()
	}

	// Storage
	switch cfg.StoreBackend {
	case config.BackendMemory:
		a.store = memory.New()
		logger.Debug("using in-memory store")
	default:
		repo, err := repository.New(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error(
				"failed to connect to database",
				slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
				slog.String("database_url", redactURL(cfg.DatabaseURL)),
			)
			return nil, errors.New("failed to connect to database")
		}
		applied, err := repo.Migrate(ctx)
		if err != nil {
			repo.Close()
			return nil, fmt.Errorf("failed to migrate database: %s", sanitizeError(err, cfg.DatabaseURL))
		}
		logger.Debug("connected to database", "migrations_applied", applied)
		a.repo = repo
		a.store = repo
	}

	// Cache and login throttling, both optional
	var (
		followCache service.FollowCache
		limiter     service.LoginLimiter
	)
	if cfg.RedisEnabled() {
		c, err := cache.New(ctx, cfg.RedisURL, cfg.FollowCacheTTL)
		if err != nil {
			logger.Error(
				"failed to connect to Redis",
				slog.String("error", sanitizeError(err, cfg.RedisURL)),
				slog.String("redis_url", redactURL(cfg.RedisURL)),
			)
			a.Close()
			return nil, errors.New("failed to connect to Redis")
		}
		logger.Debug("connected to Redis")
		a.cache = c
		followCache = c
		if cfg.LoginThrottleEnabled() {
			limiter = cache.NewLoginLimiter(c, cfg.LoginRatePerMinute, cfg.LoginBurst)
		}
	}

	hasher := auth.NewHasher(auth.Params{
		Time:     cfg.PasswordHashTime,
		MemoryKB: cfg.PasswordHashMemoryKB,
		Threads:  cfg.PasswordHashThreads,
	})

	a.Credentials = service.NewCredentialService(a.store, hasher, limiter, logger, a.Metrics)
	a.Graph = service.NewRelationshipService(a.store, a.store, followCache, logger, a.Metrics)
	a.Feed = service.NewFeedService(a.Graph, a.store, logger, a.Metrics)
	a.Posts = service.NewPostService(a.store, logger, a.Metrics)
	a.Users = service.NewUserService(a.store, a.Credentials, followCache, logger)

	return a, nil
}

// Close releases database and Redis connections.
func (a *App) Close() {
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.Logger.Warn("failed to close Redis client", "error", err)
		}
	}
	if a.repo != nil {
		a.repo.Close()
	}
}

// WriteMetrics writes the Prometheus registry in text exposition format.
// It writes nothing when the prometheus backend is disabled.
func (a *App) WriteMetrics(w io.Writer) error {
	if a.registry == nil {
		return nil
	}

	families, err := a.registry.Gather()
	if err != nil {
		return fmt.Errorf("failed to gather metrics: %w", err)
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("failed to encode metrics: %w", err)
		}
	}
	return nil
}
