package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ad-tracker/youtube-opportunity-finder/internal/discovery"
	"github.com/ad-tracker/youtube-opportunity-finder/internal/model"
	"github.com/ad-tracker/youtube-opportunity-finder/internal/validation"
)

// SearchRunner runs searches. *service.SearchService implements it.
type SearchRunner interface {
	Search(ctx context.Context, criteria model.SearchCriteria, period string) (*discovery.Outcome, error)
	Promising(ctx context.Context, period string) (*discovery.Outcome, error)
}

// SearchRequest is the body of POST /api/v1/search.
//
//nolint:govet // fieldalignment: Accept minor memory overhead for better readability
type SearchRequest struct {
	Query             string     `json:"query" binding:"required"`
	Limit             int        `json:"limit"`
	Period            string     `json:"period"`
	PublishedAfter    *time.Time `json:"published_after"`
	PublishedBefore   *time.Time `json:"published_before"`
	RegionCode        string     `json:"region_code"`
	RelevanceLanguage string     `json:"relevance_language"`
	MinViews          int64      `json:"min_views"`
	MinLikes          int64      `json:"min_likes"`
	MinSubscribers    int64      `json:"min_subscribers"`
	MaxSubscribers    *int64     `json:"max_subscribers"`
	MaxViews          *int64     `json:"max_views"`
}

// Criteria converts the request into search criteria.
func (r *SearchRequest) Criteria() model.SearchCriteria {
	return model.SearchCriteria{
		Query:             r.Query,
		Limit:             r.Limit,
		PublishedAfter:    r.PublishedAfter,
		PublishedBefore:   r.PublishedBefore,
		RegionCode:        r.RegionCode,
		RelevanceLanguage: r.RelevanceLanguage,
		MinViews:          r.MinViews,
		MinLikes:          r.MinLikes,
		MinSubscribers:    r.MinSubscribers,
		MaxSubscribers:    r.MaxSubscribers,
		MaxViews:          r.MaxViews,
	}
}

func (r *SearchRequest) validate() map[string]interface{} {
	details := map[string]interface{}{}
	if r.RegionCode != "" && !validation.IsValidRegionCode(r.RegionCode) {
		details["region_code"] = "must be a two-letter country code"
	}
	if r.RelevanceLanguage != "" && !validation.IsValidLanguage(r.RelevanceLanguage) {
		details["relevance_language"] = "must be an ISO 639-1 language code"
	}
	if r.Limit < 0 {
		details["limit"] = "must not be negative"
	}
	if len(details) == 0 {
		return nil
	}
	return details
}

// ResultView is one scored video as returned by the API.
//
//nolint:govet // fieldalignment: Accept minor memory overhead for better readability
type ResultView struct {
	VideoID            string                `json:"video_id"`
	VideoTitle         string                `json:"video_title"`
	VideoURL           string                `json:"video_url"`
	ThumbnailURL       string                `json:"thumbnail_url"`
	PublishedAt        time.Time             `json:"published_at"`
	Views              int64                 `json:"views"`
	ViewsDisplay       string                `json:"views_display"`
	Likes              *int64                `json:"likes"`
	Comments           *int64                `json:"comments"`
	DurationSeconds    int64                 `json:"duration_seconds"`
	ChannelID          string                `json:"channel_id"`
	ChannelTitle       string                `json:"channel_title"`
	ChannelURL         string                `json:"channel_url"`
	Subscribers        int64                 `json:"subscribers"`
	SubscribersDisplay string                `json:"subscribers_display"`
	ChannelCreatedAt   *time.Time            `json:"channel_created_at"`
	ChannelAgeDays     *int                  `json:"channel_age_days"`
	Score              float64               `json:"score"`
	Tier               model.OpportunityTier `json:"tier"`
	TierLabel          string                `json:"tier_label"`
}

// SearchResponse is the body returned by search endpoints.
//
//nolint:govet // fieldalignment: Accept minor memory overhead for better readability
type SearchResponse struct {
	RunID       uuid.UUID            `json:"run_id"`
	Criteria    model.SearchCriteria `json:"criteria"`
	EvaluatedAt time.Time            `json:"evaluated_at"`
	Count       int                  `json:"count"`
	Results     []ResultView         `json:"results"`
	Errors      []string             `json:"errors,omitempty"`
	Stats       discovery.Stats      `json:"stats"`
}

func newResultView(r model.ScoredResult, now time.Time) ResultView {
	v := ResultView{
		VideoID:            r.Video.ID,
		VideoTitle:         r.Video.Title,
		VideoURL:           r.Video.URL(),
		ThumbnailURL:       r.Video.ThumbnailURL,
		PublishedAt:        r.Video.PublishedAt,
		Views:              r.Video.ViewCount,
		ViewsDisplay:       discovery.FormatCount(r.Video.ViewCount),
		Likes:              r.Video.LikeCount,
		Comments:           r.Video.CommentCount,
		DurationSeconds:    int64(r.Video.Duration.Seconds()),
		ChannelID:          r.Channel.ID,
		ChannelTitle:       r.Channel.Title,
		ChannelURL:         r.Channel.URL(),
		Subscribers:        r.Channel.SubscriberCount,
		SubscribersDisplay: discovery.FormatCount(r.Channel.SubscriberCount),
		ChannelCreatedAt:   r.Channel.CreatedAt,
		Score:              r.Score,
		Tier:               r.Tier,
		TierLabel:          r.Tier.Label(),
	}
	if r.Channel.CreatedAt != nil {
		age := discovery.ChannelAgeDays(now, *r.Channel.CreatedAt)
		v.ChannelAgeDays = &age
	}
	return v
}

// NewSearchResponse renders an outcome.
func NewSearchResponse(out *discovery.Outcome) SearchResponse {
	resp := SearchResponse{
		RunID:       out.RunID,
		Criteria:    out.Criteria,
		EvaluatedAt: out.EvaluatedAt,
		Count:       len(out.Results),
		Results:     make([]ResultView, 0, len(out.Results)),
		Stats:       out.Stats,
	}
	for _, r := range out.Results {
		resp.Results = append(resp.Results, newResultView(r, out.EvaluatedAt))
	}
	for _, err := range out.Errors {
		resp.Errors = append(resp.Errors, err.Error())
	}
	return resp
}

// SearchHandler serves the search endpoints.
type SearchHandler struct {
	svc    SearchRunner
	logger *zap.Logger
}

// NewSearchHandler creates a new SearchHandler.
func NewSearchHandler(svc SearchRunner, logger *zap.Logger) *SearchHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SearchHandler{svc: svc, logger: logger}
}

// Search handles POST /api/v1/search.
func (h *SearchHandler) Search(c *gin.Context) {
	var req SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendError(c, http.StatusBadRequest, "Invalid request body", err.Error(), nil)
		return
	}
	if details := req.validate(); details != nil {
		sendError(c, http.StatusBadRequest, "Invalid criteria", "one or more fields are invalid", details)
		return
	}

	out, err := h.svc.Search(c.Request.Context(), req.Criteria(), req.Period)
	if err != nil {
		h.logger.Warn("search failed", zap.String("query", req.Query), zap.Error(err))
		sendServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, NewSearchResponse(out))
}

// Promising handles GET /api/v1/opportunities/promising.
func (h *SearchHandler) Promising(c *gin.Context) {
	out, err := h.svc.Promising(c.Request.Context(), c.Query("period"))
	if err != nil {
		h.logger.Warn("promising search failed", zap.Error(err))
		sendServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, NewSearchResponse(out))
}
