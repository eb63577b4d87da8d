package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ad-tracker/youtube-opportunity-finder/internal/db/models"
	"github.com/ad-tracker/youtube-opportunity-finder/internal/db/repository"
	"github.com/ad-tracker/youtube-opportunity-finder/internal/discovery"
	"github.com/ad-tracker/youtube-opportunity-finder/internal/model"
	"github.com/ad-tracker/youtube-opportunity-finder/internal/service"
	"github.com/ad-tracker/youtube-opportunity-finder/internal/validation"
)

// ChannelReader reads stored channel snapshots.
type ChannelReader interface {
	GetChannelByID(ctx context.Context, channelID string) (*models.Channel, error)
	List(ctx context.Context, filters *repository.ChannelFilters) ([]*models.Channel, int, error)
}

// RefreshTrigger schedules channel refreshes. *service.RefreshService
// implements it.
type RefreshTrigger interface {
	RefreshStale(ctx context.Context) (service.RefreshResult, error)
	RefreshChannels(ctx context.Context, channelIDs []string) (service.RefreshResult, error)
}

// ChannelView is a stored channel as returned by the API.
//
//nolint:govet // fieldalignment: Accept minor memory overhead for better readability
type ChannelView struct {
	*models.Channel
	URL                string `json:"url"`
	SubscribersDisplay string `json:"subscribers_display"`
	ViewsDisplay       string `json:"views_display"`
	TierLabel          string `json:"tier_label"`
}

func newChannelView(ch *models.Channel) ChannelView {
	return ChannelView{
		Channel:            ch,
		URL:                ch.URL(),
		SubscribersDisplay: discovery.FormatCount(ch.SubscriberCount),
		ViewsDisplay:       discovery.FormatCount(ch.ViewCount),
		TierLabel:          ch.OpportunityTier.Label(),
	}
}

// ChannelListResponse is the body of GET /api/v1/channels.
type ChannelListResponse struct {
	Channels []ChannelView `json:"channels"`
	PaginatedResponse
}

// RefreshRequest is the body of POST /api/v1/channels/refresh. Without ids
// every stale channel is refreshed.
type RefreshRequest struct {
	ChannelIDs []string `json:"channel_ids"`
}

// ChannelHandler serves stored channel snapshots.
type ChannelHandler struct {
	repo    ChannelReader
	refresh RefreshTrigger
	logger  *zap.Logger
}

// NewChannelHandler creates a new ChannelHandler. refresh may be nil when
// no queue is configured.
func NewChannelHandler(repo ChannelReader, refresh RefreshTrigger, logger *zap.Logger) *ChannelHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChannelHandler{repo: repo, refresh: refresh, logger: logger}
}

// List handles GET /api/v1/channels.
func (h *ChannelHandler) List(c *gin.Context) {
	filters := &repository.ChannelFilters{
		Limit:    parseLimit(c),
		Offset:   parseOffset(c),
		Title:    c.Query("title"),
		OrderBy:  c.DefaultQuery("order_by", "best_score"),
		OrderDir: getOrderDir(c),
	}

	if raw := c.Query("tier"); raw != "" {
		for _, t := range strings.Split(raw, ",") {
			tier := model.OpportunityTier(strings.TrimSpace(t))
			if !tier.Valid() {
				sendError(c, http.StatusBadRequest, "Invalid parameter", "unknown tier: "+string(tier), nil)
				return
			}
			filters.Tiers = append(filters.Tiers, tier)
		}
	}

	minSubs, err := parseInt64(c, "min_subscribers")
	if err != nil {
		sendError(c, http.StatusBadRequest, "Invalid parameter", err.Error(), nil)
		return
	}
	if minSubs != nil {
		filters.MinSubscribers = *minSubs
	}

	filters.MaxSubscribers, err = parseInt64(c, "max_subscribers")
	if err != nil {
		sendError(c, http.StatusBadRequest, "Invalid parameter", err.Error(), nil)
		return
	}

	channels, total, err := h.repo.List(c.Request.Context(), filters)
	if err != nil {
		h.logger.Error("failed to list channels", zap.Error(err))
		sendServiceError(c, err)
		return
	}

	views := make([]ChannelView, 0, len(channels))
	for _, ch := range channels {
		views = append(views, newChannelView(ch))
	}

	c.JSON(http.StatusOK, ChannelListResponse{
		Channels: views,
		PaginatedResponse: PaginatedResponse{
			Count:  len(views),
			Total:  total,
			Limit:  filters.Limit,
			Offset: filters.Offset,
		},
	})
}

// Get handles GET /api/v1/channels/:id.
func (h *ChannelHandler) Get(c *gin.Context) {
	channelID := c.Param("id")
	if !validation.IsValidChannelID(channelID) {
		sendError(c, http.StatusBadRequest, "Invalid parameter", "invalid channel ID format: "+channelID, nil)
		return
	}

	ch, err := h.repo.GetChannelByID(c.Request.Context(), channelID)
	if err != nil {
		sendServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, newChannelView(ch))
}

// Refresh handles POST /api/v1/channels/refresh.
func (h *ChannelHandler) Refresh(c *gin.Context) {
	if h.refresh == nil {
		sendError(c, http.StatusServiceUnavailable, "Refresh unavailable", "no task queue is configured", nil)
		return
	}

	var req RefreshRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			sendError(c, http.StatusBadRequest, "Invalid request body", err.Error(), nil)
			return
		}
	}

	var (
		result service.RefreshResult
		err    error
	)
	if len(req.ChannelIDs) == 0 {
		result, err = h.refresh.RefreshStale(c.Request.Context())
	} else {
		if verr := validation.ValidateChannelIDs(req.ChannelIDs); verr != nil {
			sendError(c, http.StatusBadRequest, "Invalid request body", verr.Error(), nil)
			return
		}
		result, err = h.refresh.RefreshChannels(c.Request.Context(), req.ChannelIDs)
	}
	if err != nil {
		h.logger.Error("failed to schedule refresh", zap.Error(err))
		sendServiceError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, result)
}
