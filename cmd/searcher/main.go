// Command searcher loads a problem snapshot, builds the TF-IDF index and
// serves the search API.
//
// Usage:
//
//	go run ./cmd/searcher [-config configs/development.yaml] [-snapshot data/problems.json]
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Adithya-Monish-Kumar-K/problem-search/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/problem-search/internal/analytics/aggregator"
	"github.com/Adithya-Monish-Kumar-K/problem-search/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/problem-search/internal/search/cache"
	"github.com/Adithya-Monish-Kumar-K/problem-search/internal/search/handler"
	"github.com/Adithya-Monish-Kumar-K/problem-search/internal/search/index"
	"github.com/Adithya-Monish-Kumar-K/problem-search/internal/search/normalizer"
	"github.com/Adithya-Monish-Kumar-K/problem-search/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/problem-search/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/problem-search/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/problem-search/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/problem-search/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/problem-search/pkg/middleware"
	"github.com/Adithya-Monish-Kumar-K/problem-search/pkg/postgres"
	"github.com/Adithya-Monish-Kumar-K/problem-search/pkg/ratelimit"
	pkgredis "github.com/Adithya-Monish-Kumar-K/problem-search/pkg/redis"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	snapshot := flag.String("snapshot", "", "corpus snapshot path (overrides corpus.source)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *snapshot != "" {
		cfg.Corpus.Source = *snapshot
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting search service", "port", cfg.Server.Port, "corpus", cfg.Corpus.Source)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()

	problems, err := corpus.Load(ctx, cfg.Corpus.Source)
	if err != nil {
		slog.Error("failed to load corpus", "error", err)
		os.Exit(1)
	}
	buildStart := time.Now()
	idx, err := index.FromCorpus(problems, normalizer.New())
	if err != nil {
		slog.Error("failed to build index", "error", err)
		os.Exit(1)
	}
	stats := idx.Stats()
	m.CorpusRecords.Set(float64(stats.Documents))
	m.VocabularySize.Set(float64(stats.Vocabulary))
	m.IndexBuildSeconds.Set(time.Since(buildStart).Seconds())
	slog.Info("index built",
		"documents", stats.Documents,
		"vocabulary", stats.Vocabulary,
		"empty_documents", stats.EmptyDocuments,
		"fingerprint", stats.Fingerprint,
		"duration", time.Since(buildStart),
	)

	var queryCache *cache.QueryCache
	var redisClient *pkgredis.Client
	if cfg.Search.CacheEnabled {
		redisClient, err = pkgredis.NewClient(ctx, cfg.Redis)
		if err != nil {
			slog.Warn("redis unavailable, search caching disabled", "error", err)
			redisClient = nil
		} else {
			defer redisClient.Close()
			queryCache = cache.New(redisClient, cfg.Redis.CacheTTL, idx.Fingerprint())
			slog.Info("search cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.CacheTTL)
		}
	}

	var tracker analytics.Tracker
	var agg *analytics.Aggregator
	var store *aggregator.Store
	if cfg.Analytics.Enabled {
		agg = analytics.NewAggregator()
		tracker = agg
		if cfg.Kafka.Enabled {
			producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.AnalyticsEvents)
			defer producer.Close()
			collector := analytics.NewCollector(producer, cfg.Analytics.BufferSize, cfg.Analytics.BatchSize, cfg.Analytics.FlushInterval)
			collector.Start(ctx)
			defer collector.Close()
			tracker = collector

			agg.Consume(kafka.NewConsumer(cfg.Kafka, cfg.Kafka.Topics.AnalyticsEvents, analytics.HandleEvent(agg)))
			go func() {
				if err := agg.Start(ctx); err != nil && ctx.Err() == nil {
					slog.Error("analytics aggregator error", "error", err)
				}
			}()
			slog.Info("analytics routed through kafka", "topic", cfg.Kafka.Topics.AnalyticsEvents)
		}

		if cfg.Postgres.Enabled {
			db, err := postgres.New(ctx, cfg.Postgres)
			if err != nil {
				slog.Warn("postgres unavailable, analytics snapshots disabled", "error", err)
			} else {
				defer db.Close()
				store = aggregator.NewStore(db, cfg.Analytics.SnapshotRetention)
				if err := store.EnsureSchema(ctx); err != nil {
					slog.Warn("analytics schema setup failed, snapshots disabled", "error", err)
					store = nil
				} else {
					store.StartPeriodicSave(ctx, agg, cfg.Analytics.SnapshotInterval)
				}
			}
		}
	}

	checker := health.NewChecker()
	checker.Register("index", func(ctx context.Context) health.ComponentHealth {
		if idx.Len() > 0 {
			return health.ComponentHealth{Status: health.StatusUp, Message: fmt.Sprintf("%d records", idx.Len())}
		}
		return health.ComponentHealth{Status: health.StatusDown, Message: "empty index"}
	})
	if redisClient != nil {
		checker.RegisterOptional("redis", func(ctx context.Context) health.ComponentHealth {
			if err := redisClient.Ping(ctx); err != nil {
				return health.ComponentHealth{Status: health.StatusDown, Message: err.Error()}
			}
			return health.ComponentHealth{Status: health.StatusUp}
		})
	}

	h := handler.New(idx, problems, queryCache, tracker, m)

	mux := http.NewServeMux()
	h.Routes(mux)
	if agg != nil {
		mux.HandleFunc("GET /api/v1/analytics", analytics.NewHandler(agg).Stats)
	}
	if store != nil {
		mux.HandleFunc("GET /api/v1/analytics/latest", analytics.NewHandler(store.Latest()).Stats)
	}
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())

	var limiter *ratelimit.Limiter
	if rl := cfg.Server.RateLimit; rl.Requests > 0 && rl.Window > 0 {
		limiter = ratelimit.New(rl.Requests, rl.Window)
		go limiter.Run(ctx, rl.Window)
		slog.Info("rate limiting enabled", "requests", rl.Requests, "window", rl.Window)
	}

	chain := middleware.Chain(mux,
		middleware.RequestID,
		middleware.CORS(middleware.DefaultCORSConfig(cfg.Server.AllowOrigins)),
		middleware.Metrics(m, handler.Paths()...),
		middleware.RateLimit(limiter),
		middleware.Timeout(cfg.Server.WriteTimeout),
	)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      chain,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	var shutdownMetrics func(context.Context) error
	if cfg.Metrics.Enabled {
		shutdownMetrics = m.StartServer(cfg.Metrics.Port)
	}

	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)
		<-ctx.Done()
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
		if shutdownMetrics != nil {
			if err := shutdownMetrics(shutdownCtx); err != nil {
				slog.Error("metrics server shutdown error", "error", err)
			}
		}
	}()

	slog.Info("search service listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
	<-shutdownDone

	slog.Info("search service stopped")
}
