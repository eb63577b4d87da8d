// Package handler provides HTTP request handlers for the application.
package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ad-tracker/youtube-opportunity-finder/internal/db"
	"github.com/ad-tracker/youtube-opportunity-finder/internal/discovery"
)

const (
	defaultLimit = 50
	maxLimit     = 1000
)

// ErrorResponse represents a JSON error response.
type ErrorResponse struct {
	Error   string                 `json:"error"`
	Message string                 `json:"message,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// PaginatedResponse contains common pagination metadata.
type PaginatedResponse struct {
	Count  int `json:"count"`
	Total  int `json:"total"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

func sendError(c *gin.Context, statusCode int, error string, message string, details map[string]interface{}) {
	c.AbortWithStatusJSON(statusCode, ErrorResponse{
		Error:   error,
		Message: message,
		Details: details,
	})
}

// sendServiceError maps domain and storage errors to HTTP statuses.
func sendServiceError(c *gin.Context, err error) {
	_ = c.Error(err)

	switch {
	case errors.Is(err, discovery.ErrInvalidCriteria):
		sendError(c, http.StatusBadRequest, "Invalid criteria", err.Error(), nil)
	case errors.Is(err, db.ErrInvalidRecord):
		sendError(c, http.StatusBadRequest, "Invalid record", err.Error(), nil)
	case errors.Is(err, db.ErrNotFound):
		sendError(c, http.StatusNotFound, "Not found", err.Error(), nil)
	case errors.Is(err, discovery.ErrRateLimited):
		sendError(c, http.StatusTooManyRequests, "Rate limited", err.Error(), nil)
	case errors.Is(err, discovery.ErrSourceUnavailable):
		sendError(c, http.StatusBadGateway, "Source unavailable", err.Error(), nil)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		sendError(c, http.StatusServiceUnavailable, "Request cancelled", err.Error(), nil)
	default:
		sendError(c, http.StatusInternalServerError, "Internal error", err.Error(), nil)
	}
}

func parseLimit(c *gin.Context) int {
	limitStr := c.Query("limit")
	if limitStr == "" {
		return defaultLimit
	}

	limit, err := strconv.Atoi(limitStr)
	if err != nil || limit <= 0 {
		return defaultLimit
	}

	if limit > maxLimit {
		return maxLimit
	}

	return limit
}

func parseOffset(c *gin.Context) int {
	offsetStr := c.Query("offset")
	if offsetStr == "" {
		return 0
	}

	offset, err := strconv.Atoi(offsetStr)
	if err != nil || offset < 0 {
		return 0
	}

	return offset
}

func parseInt64(c *gin.Context, key string) (*int64, error) {
	val := c.Query(key)
	if val == "" {
		return nil, nil
	}

	n, err := strconv.ParseInt(val, 10, 64)
	if err != nil || n < 0 {
		return nil, errors.New("invalid value for " + key + " (expected a non-negative integer)")
	}

	return &n, nil
}

func getOrderDir(c *gin.Context) string {
	orderDir := strings.ToUpper(c.Query("order"))
	if orderDir != "ASC" && orderDir != "DESC" {
		return "DESC"
	}
	return orderDir
}
