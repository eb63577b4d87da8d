package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/ad-tracker/youtube-opportunity-finder/internal/middleware"
)

// RouterConfig holds the handlers mounted by NewRouter. Nil handlers leave
// their routes unregistered.
type RouterConfig struct {
	APIKeys  []string
	Logger   *zap.Logger
	Health   *HealthHandler
	Search   *SearchHandler
	Channels *ChannelHandler
	History  *SearchHistoryHandler
	Quota    *QuotaHandler
}

// NewRouter builds the gin engine: unauthenticated health and metrics
// endpoints plus the API-key protected /api/v1 group.
func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(cfg.Logger))

	if cfg.Health != nil {
		r.GET("/health/live", cfg.Health.LivenessProbe)
		r.GET("/health/ready", cfg.Health.ReadinessProbe)
	}
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api/v1")
	api.Use(middleware.NewAPIKeyAuth(cfg.APIKeys, cfg.Logger).Handler())

	if cfg.Search != nil {
		api.POST("/search", cfg.Search.Search)
		api.GET("/opportunities/promising", cfg.Search.Promising)
	}
	if cfg.Channels != nil {
		api.GET("/channels", cfg.Channels.List)
		api.GET("/channels/:id", cfg.Channels.Get)
		api.POST("/channels/refresh", cfg.Channels.Refresh)
	}
	if cfg.History != nil {
		api.GET("/searches", cfg.History.List)
		api.GET("/searches/:id", cfg.History.Get)
	}
	if cfg.Quota != nil {
		api.GET("/quota", cfg.Quota.Get)
		api.GET("/quota/history", cfg.Quota.History)
	}

	return r
}
