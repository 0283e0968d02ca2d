package main

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/portfolio-generator/internal/cache"
	"github.com/jonathan/portfolio-generator/internal/config"
	"github.com/jonathan/portfolio-generator/internal/content"
	"github.com/jonathan/portfolio-generator/internal/db"
	"github.com/jonathan/portfolio-generator/internal/github"
	"github.com/jonathan/portfolio-generator/internal/llm"
	"github.com/jonathan/portfolio-generator/internal/memstore"
	"github.com/jonathan/portfolio-generator/internal/persist"
	"github.com/jonathan/portfolio-generator/internal/pipeline"
	"github.com/jonathan/portfolio-generator/internal/types"
)

// store is everything the commands need from a storage backend; *db.DB and *memstore.Store
// both satisfy it
type store interface {
	pipeline.Store
	persist.Store
	GetJob(ctx context.Context, id uuid.UUID) (*types.GenerationJob, error)
	LatestJob(ctx context.Context, portfolioID uuid.UUID) (*types.GenerationJob, error)
	GetPortfolio(ctx context.Context, id uuid.UUID) (*types.Portfolio, error)
	SaveGitHubSource(ctx context.Context, userID uuid.UUID, src *types.GitHubSource) error
	SaveDocumentSource(ctx context.Context, userID uuid.UUID, doc *types.DocumentSource) error
}

var (
	_ store = (*db.DB)(nil)
	_ store = (*memstore.Store)(nil)
)

// backend is the storage and cache a command runs against
type backend struct {
	store   store
	cache   *cache.Cache
	logger  *zap.Logger
	closers []func()
}

// openBackend connects to PostgreSQL, or uses the in-process store when inMemory is set, and
// builds the external-data cache on the configured backend
func openBackend(ctx context.Context, cfg *config.Config, inMemory bool, logger *zap.Logger) (*backend, error) {
	b := &backend{logger: logger}

	var database *db.DB
	if inMemory {
		b.store = memstore.New()
	} else {
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL environment variable or --db-url flag is required")
		}
		var err error
		database, err = db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		b.store = database
		b.closers = append(b.closers, database.Close)
	}

	backendName := cfg.ResolvedCacheBackend()
	if inMemory && backendName == config.CacheBackendPostgres {
		backendName = config.CacheBackendMemory
	}
	var cacheStore cache.Store
	switch backendName {
	case config.CacheBackendPostgres:
		if database == nil {
			b.Close()
			return nil, fmt.Errorf("the postgres cache backend requires a database")
		}
		cacheStore = database
	case config.CacheBackendRedis:
		redisStore, err := cache.NewRedisStore(ctx, cfg.RedisURL)
		if err != nil {
			b.Close()
			return nil, err
		}
		cacheStore = redisStore
		b.closers = append(b.closers, func() { _ = redisStore.Close() })
	default:
		cacheStore = cache.NewMemoryStore()
	}
	b.cache = cache.New(cacheStore, logger)
	logger.Debug("backend ready",
		zap.Bool("in_memory", inMemory),
		zap.String("cache_backend", backendName))

	return b, nil
}

// Close releases connections in reverse order of opening
func (b *backend) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
}

// githubFactory builds a GitHub client per connected account, sharing the backend cache
func (b *backend) githubFactory() pipeline.RepositorySourceFactory {
	return func(ctx context.Context, userID uuid.UUID, src *types.GitHubSource) pipeline.RepositorySource {
		ghCfg := github.DefaultConfig()
		if base := os.Getenv("GITHUB_API_URL"); base != "" {
			ghCfg.BaseURL = base
		}
		ghCfg.Token = src.AccessToken
		return github.NewClient(ctx, userID, src.Username, ghCfg, b.cache, b.logger)
	}
}

// newOrchestrator wires the generation pipeline over the backend. The returned close func
// releases the model client.
func (b *backend) newOrchestrator(ctx context.Context, cfg *config.Config) (*pipeline.Orchestrator, func(), error) {
	client, err := llm.NewClient(ctx, cfg.LLMConfig(), cfg.APIKey, b.logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create LLM client: %w", err)
	}

	service := content.NewService(client, b.logger)
	if cfg.Concurrency > 0 {
		service = service.WithConcurrency(cfg.Concurrency)
	}

	orchestrator := pipeline.New(pipeline.Dependencies{
		Store:   b.store,
		Gateway: persist.NewGateway(b.store, b.logger),
		GitHub:  b.githubFactory(),
		Content: service,
		Logger:  b.logger,
	})
	return orchestrator, func() { _ = client.Close() }, nil
}
