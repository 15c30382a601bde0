// Package app assembles the service from its parts: Genkit with the Google AI
// plugin, the vector index client, the Redis-backed cache and rate limiter
// (with in-process fallbacks when Redis is not configured), and the
// question-answering pipeline.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/googlegenai"
	"github.com/redis/go-redis/v9"

	"github.com/wattsjs/askcisco/internal/cache"
	"github.com/wattsjs/askcisco/internal/config"
	"github.com/wattsjs/askcisco/internal/index"
	"github.com/wattsjs/askcisco/internal/observability"
	"github.com/wattsjs/askcisco/internal/rag"
	"github.com/wattsjs/askcisco/internal/ratelimit"
	"github.com/wattsjs/askcisco/internal/retrieval"
)

// App is the assembled service.
type App struct {
	Config   *config.Config
	Genkit   *genkit.Genkit
	Embedder ai.Embedder
	Pipeline *rag.Pipeline
	Answers  *cache.Answers // nil when Redis is not configured
	Limiter  ratelimit.Limiter
	Logger   *slog.Logger

	redisClient  *redis.Client
	traceCleanup func(context.Context) error
}

// Setup creates and wires the application. Call Close to release resources.
func Setup(ctx context.Context, cfg *config.Config, logger *slog.Logger) (_ *App, retErr error) {
	if logger == nil {
		logger = slog.Default()
	}
	a := &App{Config: cfg, Logger: logger}

	defer func() {
		if retErr != nil {
			if err := a.Close(); err != nil {
				logger.Warn("cleanup during setup failure", "error", err)
			}
		}
	}()

	traceCleanup, err := observability.Setup(ctx, cfg.OTLPEndpoint, "askcisco", logger)
	if err != nil {
		return nil, err
	}
	a.traceCleanup = traceCleanup

	a.Genkit = genkit.Init(ctx, genkit.WithPlugins(&googlegenai.GoogleAI{}))
	a.Embedder = googlegenai.GoogleAIEmbedder(a.Genkit, cfg.EmbedderModel)
	if a.Embedder == nil {
		return nil, fmt.Errorf("embedder %q not found", cfg.EmbedderModel)
	}

	idx := index.NewClient(index.Config{
		URL:        cfg.QdrantURL,
		APIKey:     cfg.QdrantAPIKey,
		Collection: cfg.QdrantCollection,
	}, logger)
	retriever := retrieval.NewRetriever(a.Embedder, idx, retrieval.Config{
		Limit:          cfg.RetrievalLimit,
		ScoreThreshold: cfg.ScoreThreshold,
	}, logger)

	limiterCfg := ratelimit.Config{
		Requests: cfg.RateLimitRequests,
		Window:   cfg.RateLimitWindow,
	}

	// The cache and the shared rate limiter both live in Redis. Without it
	// the service still runs: no answer caching, and per-process limiting.
	var answerCache rag.AnswerCache
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			client.Close()
			return nil, fmt.Errorf("connecting to redis: %w", err)
		}
		a.redisClient = client

		a.Answers = cache.NewAnswers(
			cache.NewRedisStore(client, logger),
			cache.Config{AnswerTTL: cfg.AnswerTTL, FeedbackTTL: cfg.FeedbackTTL},
			logger,
		)
		answerCache = a.Answers
		a.Limiter = ratelimit.NewRedisLimiter(client, limiterCfg, logger)
	} else {
		logger.Warn("redis not configured, answer caching disabled and rate limiting is per-process")
		a.Limiter = ratelimit.NewMemoryLimiter(limiterCfg)
	}

	condenser := rag.NewCondenser(a.Genkit, cfg.CondenserModel, logger)
	a.Pipeline = rag.NewPipeline(a.Genkit, cfg.Model, condenser, retriever, answerCache, logger)

	logger.Info("application initialized",
		"model", cfg.Model,
		"collection", cfg.QdrantCollection,
		"cache", a.Answers != nil,
	)
	return a, nil
}

// Close releases the application's resources.
func (a *App) Close() error {
	var firstErr error

	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			firstErr = fmt.Errorf("closing redis client: %w", err)
		}
	}
	if a.traceCleanup != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.traceCleanup(ctx); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("shutting down tracing: %w", err)
		}
	}
	return firstErr
}
