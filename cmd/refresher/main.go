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
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/ad-tracker/youtube-opportunity-finder/internal/config"
	"github.com/ad-tracker/youtube-opportunity-finder/internal/db"
	"github.com/ad-tracker/youtube-opportunity-finder/internal/db/repository"
	"github.com/ad-tracker/youtube-opportunity-finder/internal/metrics"
	"github.com/ad-tracker/youtube-opportunity-finder/internal/model"
	"github.com/ad-tracker/youtube-opportunity-finder/internal/queue"
	"github.com/ad-tracker/youtube-opportunity-finder/internal/service"
	"github.com/ad-tracker/youtube-opportunity-finder/internal/service/cache"
	"github.com/ad-tracker/youtube-opportunity-finder/internal/service/quota"
	"github.com/ad-tracker/youtube-opportunity-finder/internal/service/youtube"
	"github.com/ad-tracker/youtube-opportunity-finder/pkg/logger"
)

func main() {
	if err := run(); err != nil {
		logger.L().Error("refresher exited", zap.Error(err))
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
	if cfg.Redis.URL == "" {
		return errors.New("redis.url is required for the refresher")
	}

	log := logger.Named("refresher")
	log.Info("channel refresher starting",
		zap.Duration("interval", cfg.Refresh.Interval),
		zap.Duration("stale_after", cfg.Refresh.StaleAfter),
		zap.Int("batch_size", cfg.Refresh.BatchSize),
		zap.Int("concurrency", cfg.Refresh.Concurrency),
	)

	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg.DBConfig())
	if err != nil {
		return fmt.Errorf("initialize database: %w", err)
	}
	defer db.Close(pool)

	channelRepo := repository.NewChannelRepository(pool)
	quotaManager := quota.NewManager(repository.NewQuotaRepository(pool),
		cfg.YouTube.DailyQuota, cfg.YouTube.QuotaThreshold, logger.Named("quota"))

	if exhausted, err := quotaManager.IsQuotaExhausted(ctx); err == nil && exhausted {
		// Keep running: tasks fail fast until the quota resets.
		log.Warn("daily quota threshold already reached")
	}

	// Refreshes go to the API directly; the cache is only written afterwards.
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

	callbacks := queue.NewCallbackManager(logger.Named("callbacks"))
	callbacks.RegisterCallback(cacheWriteback(channelCache))

	refreshHandler := queue.NewRefreshHandler(ytClient, channelRepo, callbacks, cfg.Discovery.CallTimeout, logger.Named("handler"))

	server, err := queue.NewServer(cfg.Redis.URL, cfg.Refresh.Concurrency, refreshHandler, logger.Named("worker"))
	if err != nil {
		return fmt.Errorf("create queue server: %w", err)
	}
	if err := server.Start(); err != nil {
		return fmt.Errorf("start queue server: %w", err)
	}
	defer server.Stop()

	queueClient, err := queue.NewClient(cfg.Redis.URL, logger.Named("queue"))
	if err != nil {
		return fmt.Errorf("create queue client: %w", err)
	}
	defer queueClient.Close()

	refreshService := service.NewRefreshService(channelRepo, queueClient,
		cfg.Refresh.StaleAfter, cfg.Refresh.BatchSize, logger.Named("scheduler"))

	metricsServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           promhttp.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server failed", zap.Error(err))
		}
	}()

	log.Info("channel refresher started")
	refreshService.Run(ctx, cfg.Refresh.Interval)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	_ = metricsServer.Shutdown(shutdownCtx)

	log.Info("channel refresher stopped gracefully")
	return nil
}

type channelStore interface {
	Store(ctx context.Context, records []model.ChannelRecord)
}

// cacheWriteback returns a callback that writes refreshed channels to the
// cache.
func cacheWriteback(store channelStore) queue.RefreshCallback {
	return func(ctx context.Context, records []model.ChannelRecord) error {
		store.Store(ctx, records)
		return nil
	}
}
