package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ad-tracker/youtube-opportunity-finder/internal/db/models"
)

// HistoryReader reads the search history log.
type HistoryReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.SearchHistory, error)
	List(ctx context.Context, limit, offset int) ([]*models.SearchHistory, int, error)
}

// SearchHistoryListResponse is the body of GET /api/v1/searches.
type SearchHistoryListResponse struct {
	Searches []*models.SearchHistory `json:"searches"`
	PaginatedResponse
}

// SearchHistoryHandler serves past searches.
type SearchHistoryHandler struct {
	repo   HistoryReader
	logger *zap.Logger
}

// NewSearchHistoryHandler creates a new SearchHistoryHandler.
func NewSearchHistoryHandler(repo HistoryReader, logger *zap.Logger) *SearchHistoryHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SearchHistoryHandler{repo: repo, logger: logger}
}

// List handles GET /api/v1/searches.
func (h *SearchHistoryHandler) List(c *gin.Context) {
	limit := parseLimit(c)
	offset := parseOffset(c)

	entries, total, err := h.repo.List(c.Request.Context(), limit, offset)
	if err != nil {
		h.logger.Error("failed to list search history", zap.Error(err))
		sendServiceError(c, err)
		return
	}
	if entries == nil {
		entries = []*models.SearchHistory{}
	}

	c.JSON(http.StatusOK, SearchHistoryListResponse{
		Searches: entries,
		PaginatedResponse: PaginatedResponse{
			Count:  len(entries),
			Total:  total,
			Limit:  limit,
			Offset: offset,
		},
	})
}

// Get handles GET /api/v1/searches/:id.
func (h *SearchHistoryHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		sendError(c, http.StatusBadRequest, "Invalid parameter", "invalid search ID", nil)
		return
	}

	entry, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		sendServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, entry)
}
