package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ad-tracker/youtube-opportunity-finder/internal/model"
)

// QuotaReporter reports today's API quota. *quota.Manager implements it.
type QuotaReporter interface {
	GetQuotaInfo(ctx context.Context) (*model.QuotaInfo, error)
	GetRemainingQuota(ctx context.Context) (int, error)
	GetQuotaUsagePercentage(ctx context.Context) (float64, error)
	GetQuotaHistory(ctx context.Context, days int) ([]*model.APIQuotaUsage, error)
}

const (
	defaultHistoryDays = 7
	maxHistoryDays     = 90
)

// QuotaResponse is the body of GET /api/v1/quota.
type QuotaResponse struct {
	*model.QuotaInfo
	UsagePercent      float64 `json:"usage_percent"`
	AvailableForCalls int     `json:"available_for_calls"`
}

// QuotaHandler serves quota usage.
type QuotaHandler struct {
	quota QuotaReporter
}

// NewQuotaHandler creates a new QuotaHandler.
func NewQuotaHandler(quota QuotaReporter) *QuotaHandler {
	return &QuotaHandler{quota: quota}
}

// Get handles GET /api/v1/quota.
func (h *QuotaHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()

	info, err := h.quota.GetQuotaInfo(ctx)
	if err != nil {
		sendServiceError(c, err)
		return
	}
	remaining, err := h.quota.GetRemainingQuota(ctx)
	if err != nil {
		sendServiceError(c, err)
		return
	}
	pct, err := h.quota.GetQuotaUsagePercentage(ctx)
	if err != nil {
		sendServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, QuotaResponse{
		QuotaInfo:         info,
		UsagePercent:      pct,
		AvailableForCalls: remaining,
	})
}

// QuotaHistoryResponse is the body of GET /api/v1/quota/history.
type QuotaHistoryResponse struct {
	Days  []*model.APIQuotaUsage `json:"days"`
	Count int                    `json:"count"`
}

// History handles GET /api/v1/quota/history?days=N.
func (h *QuotaHandler) History(c *gin.Context) {
	days := defaultHistoryDays
	if raw := c.Query("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxHistoryDays {
			sendError(c, http.StatusBadRequest, "Invalid parameter", "days must be between 1 and 90", nil)
			return
		}
		days = n
	}

	history, err := h.quota.GetQuotaHistory(c.Request.Context(), days)
	if err != nil {
		sendServiceError(c, err)
		return
	}
	if history == nil {
		history = []*model.APIQuotaUsage{}
	}

	c.JSON(http.StatusOK, QuotaHistoryResponse{Days: history, Count: len(history)})
}
