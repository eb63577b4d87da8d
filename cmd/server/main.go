package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/ad-tracker/youtube-opportunity-finder/internal/config"
	"github.com/ad-tracker/youtube-opportunity-finder/internal/db"
	"github.com/ad-tracker/youtube-opportunity-finder/internal/db/repository"
	"github.com/ad-tracker/youtube-opportunity-finder/internal/discovery"
	"github.com/ad-tracker/youtube-opportunity-finder/internal/handler"
	"github.com/ad-tracker/youtube-opportunity-finder/internal/metrics"
	"github.com/ad-tracker/youtube-opportunity-finder/internal/queue"
	"github.com/ad-tracker/youtube-opportunity-finder/internal/service"
	"github.com/ad-tracker/youtube-opportunity-finder/internal/service/cache"
	"github.com/ad-tracker/youtube-opportunity-finder/internal/service/publisher"
	"github.com/ad-tracker/youtube-opportunity-finder/internal/service/quota"
	"github.com/ad-tracker/youtube-opportunity-finder/internal/service/youtube"
	"github.com/ad-tracker/youtube-opportunity-finder/pkg/logger"
)

func main() {
	if err := run(); err != nil {
		logger.L().Error("server exited", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
	_ = logger.Sync()
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.File); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	log := logger.Named("server")

	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DBConfig())
	if err != nil {
		return fmt.Errorf("initialize database: %w", err)
	}
	defer db.Close(pool)

	log.Info("database connection established", zap.Int32("max_conns", pool.Config().MaxConns))

	channelRepo := repository.NewChannelRepository(pool)
	historyRepo := repository.NewSearchHistoryRepository(pool)
	quotaRepo := repository.NewQuotaRepository(pool)

	quotaManager := quota.NewManager(quotaRepo, cfg.YouTube.DailyQuota, cfg.YouTube.QuotaThreshold, logger.Named("quota"))

	ytClient, err := youtube.NewClient(ctx, cfg.YouTube.APIKey,
		youtube.WithRateLimit(cfg.YouTube.RequestsPerSecond),
		youtube.WithQuota(quotaManager),
		youtube.WithLogger(logger.Named("youtube")),
	)
	if err != nil {
		return fmt.Errorf("initialize YouTube client: %w", err)
	}

	rdb := cache.NewRedisClient(ctx, cfg.Redis.URL, logger.Named("redis"))
	if rdb != nil {
		defer rdb.Close()
	}
	channelCache := cache.NewChannelCache(ytClient, rdb, cfg.Redis.ChannelTTL, logger.Named("cache"))

	pipeline := discovery.NewPipeline(channelCache, channelRepo, discovery.Options{
		Workers:     cfg.Discovery.Workers,
		CallTimeout: cfg.Discovery.CallTimeout,
		MaxResults:  cfg.Discovery.MaxResults,
		Logger:      logger.Named("discovery"),
	})

	var (
		outcomePublisher service.OutcomePublisher
		healthPublisher  handler.HealthReporter
	)
	if cfg.RabbitMQ.Enabled {
		pub, err := publisher.NewOpportunityPublisher(&cfg.RabbitMQ, logger.Named("publisher"))
		if err != nil {
			return fmt.Errorf("initialize publisher: %w", err)
		}
		defer pub.Close()
		outcomePublisher = pub
		healthPublisher = pub
	} else {
		log.Info("rabbitmq disabled, opportunities will not be published")
	}

	searchService := service.NewSearchService(pipeline, historyRepo, outcomePublisher, service.SearchConfig{
		PromisingQuery:          cfg.Discovery.PromisingQuery,
		PromisingMaxSubscribers: cfg.Discovery.PromisingMaxSubscribers,
		Logger:                  logger.Named("search"),
	})

	var refreshTrigger handler.RefreshTrigger
	if cfg.Redis.URL != "" {
		queueClient, err := queue.NewClient(cfg.Redis.URL, logger.Named("queue"))
		if err != nil {
			log.Warn("failed to initialize queue client, channel refresh will not be available", zap.Error(err))
		} else {
			defer queueClient.Close()
			refreshTrigger = service.NewRefreshService(channelRepo, queueClient,
				cfg.Refresh.StaleAfter, cfg.Refresh.BatchSize, logger.Named("refresh"))
		}
	}

	var cachePinger handler.Pinger
	if rdb != nil {
		cachePinger = channelCache
	}

	router := handler.NewRouter(handler.RouterConfig{
		APIKeys:  cfg.Server.APIKeys,
		Logger:   logger.Named("http"),
		Health:   handler.NewHealthHandler(pool, cachePinger, healthPublisher),
		Search:   handler.NewSearchHandler(searchService, logger.Named("search")),
		Channels: handler.NewChannelHandler(channelRepo, refreshTrigger, logger.Named("channels")),
		History:  handler.NewSearchHistoryHandler(historyRepo, logger.Named("history")),
		Quota:    handler.NewQuotaHandler(quotaManager),
	})

	if len(cfg.Server.APIKeys) == 0 {
		log.Warn("no API keys configured, /api/v1 will reject all requests")
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		log.Info("server starting", zap.Int("port", cfg.Server.Port))
		serverErrors <- server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		log.Info("shutdown signal received", zap.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			_ = server.Close()
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}

		log.Info("server stopped gracefully")
	}

	return nil
}
