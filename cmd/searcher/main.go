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

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/internal/pipeline"
	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/internal/searcher/consumer"
	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/internal/searcher/handler"
	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/internal/searcher/ranker"
	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/pkg/middleware"
	pkgredis "github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/pkg/redis"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	p := pipeline.New(cfg, pipeline.WithMetrics(m))
	model, err := p.LoadModel()
	if err != nil {
		slog.Error("failed to load vector model", "error", err)
		os.Exit(1)
	}
	sim, err := ranker.ParseSimilarity(cfg.Search.Similarity)
	if err != nil {
		slog.Error("invalid similarity", "error", err)
		os.Exit(1)
	}
	engine := executor.New(model,
		executor.WithSimilarity(sim),
		executor.WithWorkers(cfg.Search.Workers),
		executor.WithPruning(cfg.Search.Prune),
		executor.WithMetrics(m),
	)
	slog.Info("vector model loaded",
		"terms", model.Len(),
		"documents", engine.DocumentCount(),
		"similarity", sim.Name(),
	)

	fingerprint := cache.Fingerprint(model, sim.Name())
	var store cache.Store
	var redisClient *pkgredis.Client
	if cfg.Redis.Enabled {
		redisClient, err = pkgredis.NewClient(ctx, cfg.Redis)
		if err != nil {
			slog.Warn("redis unavailable, using in-process cache", "error", err)
		} else {
			defer redisClient.Close()
			store = cache.NewRedisStore(redisClient, cfg.Redis.CacheTTL)
			slog.Info("search cache enabled", "store", "redis", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.CacheTTL)
		}
	}
	if store == nil {
		lruStore, err := cache.NewLRUStore(cfg.Search.CacheSize)
		if err != nil {
			slog.Error("failed to create in-process cache", "error", err)
			os.Exit(1)
		}
		store = lruStore
	}
	queryCache := cache.New(store, fingerprint, m)

	checker := health.NewChecker()
	checker.Register("vector_model", func(ctx context.Context) health.ComponentHealth {
		if engine.DocumentCount() == 0 {
			return health.ComponentHealth{Status: health.StatusDegraded, Message: "model has no documents"}
		}
		return health.ComponentHealth{Status: health.StatusUp, Message: fmt.Sprintf("%d terms", model.Len())}
	})
	if redisClient != nil {
		checker.Register("redis", health.PingCheck(redisClient.Ping, true))
	}

	if cfg.Kafka.Enabled {
		producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.Results)
		defer producer.Close()
		qc := consumer.New(engine, p.Tokenizer(), producer, cfg.Search.DefaultLimit, cfg.Search.MaxResults)
		kc := kafka.NewConsumer(cfg.Kafka, cfg.Kafka.Topics.Queries, qc.MessageHandler())
		defer kc.Close()
		go func() {
			if err := kc.Start(ctx); err != nil {
				slog.Error("query consumer stopped", "error", err)
			}
		}()
		slog.Info("query consumer started", "topic", cfg.Kafka.Topics.Queries, "results_topic", cfg.Kafka.Topics.Results)
	}

	h := handler.New(engine, p.Tokenizer(), queryCache, cfg.Search.DefaultLimit, cfg.Search.MaxResults)
	mux := http.NewServeMux()
	h.Register(mux)
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())

	chain := middleware.Chain(mux,
		middleware.RequestID,
		middleware.Metrics(m),
		middleware.Timeout(cfg.Search.Timeout),
	)
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      chain,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	var metricsServer *metrics.Server
	if cfg.Metrics.Enabled {
		metricsServer, err = metrics.StartServer(cfg.Metrics.Port, reg)
		if err != nil {
			slog.Error("failed to start metrics server", "error", err)
			os.Exit(1)
		}
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
		if metricsServer != nil {
			metricsServer.Shutdown(shutdownCtx)
		}
	}()

	slog.Info("search service listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
	slog.Info("search service stopped")
}
