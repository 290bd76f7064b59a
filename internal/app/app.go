package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"

	"github.com/pitchsider/match-context/external/apifootball"
	"github.com/pitchsider/match-context/internal/config"
	"github.com/pitchsider/match-context/internal/domain/matchcontext"
	filerepo "github.com/pitchsider/match-context/internal/infrastructure/repository/file"
	postgresrepo "github.com/pitchsider/match-context/internal/infrastructure/repository/postgres"
	"github.com/pitchsider/match-context/internal/interfaces/httpapi"
	"github.com/pitchsider/match-context/internal/platform/cache"
	"github.com/pitchsider/match-context/internal/platform/lock"
	"github.com/pitchsider/match-context/internal/platform/logging"
	"github.com/pitchsider/match-context/internal/platform/resilience"
	"github.com/pitchsider/match-context/internal/usecase"
)

func noopCleanup() error { return nil }

// NewHTTPHandler wires the full service graph and returns the root handler
// plus a cleanup function releasing infrastructure handles.
func NewHTTPHandler(cfg config.Config, logger *logging.Logger) (http.Handler, func() error, error) {
	store, storeCleanup, err := newMatchStore(cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	redisClient, redisCleanup, err := newRedisClient(cfg)
	if err != nil {
		_ = storeCleanup()
		return nil, nil, err
	}
	cleanup := func() error {
		redisErr := redisCleanup()
		if storeErr := storeCleanup(); storeErr != nil {
			return storeErr
		}
		return redisErr
	}

	retry := lock.RetryPolicy{Attempts: cfg.LockRetries, Backoff: cfg.LockRetryBackoff}
	var locks lock.Manager = lock.NewMemoryManager(retry)
	if redisClient != nil {
		locks = lock.NewRedisManager(redisClient, retry)
	}
	entities := cache.NewEntities(redisClient, cfg.EntityCacheTTL, logger)

	provider := apifootball.NewClient(apifootball.ClientConfig{
		BaseURL:    cfg.FootballAPIBaseURL,
		APIKey:     cfg.FootballAPIKey,
		Timeout:    cfg.FootballAPITimeout,
		MaxRetries: cfg.FootballAPIMaxRetries,
		CacheTTL:   cfg.FootballAPICacheTTL,
		Logger:     logger,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.FootballCircuitEnabled,
			FailureThreshold: cfg.FootballCircuitFailureCount,
			OpenTimeout:      cfg.FootballCircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.FootballCircuitHalfOpenMaxReq,
		},
	})

	collector := usecase.NewCollector(provider, usecase.CollectorConfig{
		MaxParallel: cfg.MaxParallelCalls,
		CallDelay:   cfg.CollectorDelay,
		Budget:      cfg.CollectionBudget,
	}, logger)
	agent := usecase.NewContextAgent(store, collector, locks, usecase.AgentConfig{
		LockTTL:           cfg.LockTTL,
		RefreshNotStarted: cfg.RefreshNotStarted,
	}, logger)
	finder := usecase.NewFixtureFinder(provider, entities, logger)

	handler := httpapi.NewHandler(agent, finder, logger)
	router := httpapi.NewRouter(handler, logger, cfg.CORSAllowedOrigins, cfg.AdminToken)

	return router, cleanup, nil
}

func newMatchStore(cfg config.Config, logger *logging.Logger) (matchcontext.Store, func() error, error) {
	if !cfg.UseDBMatchStore {
		store, err := filerepo.NewStore(cfg.MatchStoreDir, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("open match store dir: %w", err)
		}
		return store, noopCleanup, nil
	}

	db, err := otelsqlx.Open("postgres", normalizeDBURL(cfg.DBURL, cfg.ServiceName),
		otelsql.WithDBSystem("postgresql"),
		otelsql.WithDBName(dbNameFromURL(cfg.DBURL)),
		otelsql.WithQueryFormatter(formatDBQueryForTrace),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("open postgres connection: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("ping postgres: %w", err)
	}

	return postgresrepo.NewMatchContextRepository(db), db.Close, nil
}

func newRedisClient(cfg config.Config) (redis.UniversalClient, func() error, error) {
	if !cfg.RedisEnabled {
		return nil, noopCleanup, nil
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("ping redis: %w", err)
	}

	return client, client.Close, nil
}
