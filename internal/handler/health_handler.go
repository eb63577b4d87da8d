package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const readinessTimeout = 2 * time.Second

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthReporter reports the state of a long-lived connection.
type HealthReporter interface {
	IsHealthy() bool
}

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	database  Pinger
	cache     Pinger
	publisher HealthReporter
}

// NewHealthHandler creates a new HealthHandler. cache and publisher are
// optional and only checked when set.
func NewHealthHandler(database Pinger, cache Pinger, publisher HealthReporter) *HealthHandler {
	return &HealthHandler{
		database:  database,
		cache:     cache,
		publisher: publisher,
	}
}

// LivenessProbe checks if the application is running.
func (h *HealthHandler) LivenessProbe(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "UP",
		"time":   time.Now(),
	})
}

// ReadinessProbe checks if the application is ready to serve traffic.
func (h *HealthHandler) ReadinessProbe(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), readinessTimeout)
	defer cancel()

	status := http.StatusOK
	body := gin.H{"status": "UP", "time": time.Now()}

	check := func(name string, healthy bool) {
		if healthy {
			body[name] = "healthy"
			return
		}
		body[name] = "unhealthy"
		body["status"] = "DOWN"
		status = http.StatusServiceUnavailable
	}

	if h.database != nil {
		check("database", h.database.Ping(ctx) == nil)
	}
	if h.cache != nil {
		check("redis", h.cache.Ping(ctx) == nil)
	}
	if h.publisher != nil {
		check("rabbitmq", h.publisher.IsHealthy())
	}

	c.JSON(status, body)
}
