package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ad-tracker/youtube-opportunity-finder/internal/discovery"
	"github.com/ad-tracker/youtube-opportunity-finder/internal/model"
)

var testNow = time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)

func testOutcome() *discovery.Outcome {
	created := testNow.AddDate(0, 0, -20)
	likes := int64(120)
	return &discovery.Outcome{
		RunID:       uuid.New(),
		Criteria:    model.SearchCriteria{Query: "golang", Limit: 50},
		EvaluatedAt: testNow,
		Results: []model.ScoredResult{{
			Video: model.VideoRecord{
				ID:        "dQw4w9WgXcQ",
				Title:     "Go in 100 seconds",
				ChannelID: "UCaaaaaaaaaaaaaaaaaaaaaa",
				ViewCount: 3400,
				LikeCount: &likes,
				Duration:  100 * time.Second,
			},
			Channel: model.ChannelRecord{
				ID:              "UCaaaaaaaaaaaaaaaaaaaaaa",
				Title:           "Gopher",
				SubscriberCount: 1_200_000,
				CreatedAt:       &created,
			},
			Score: 0.0028,
			Tier:  model.TierGreatOpportunity,
		}},
		Errors: []error{&discovery.BatchError{Stage: discovery.StageVideos, Err: discovery.ErrRateLimited}},
	}
}

func TestSearchHandler_Search(t *testing.T) {
	t.Run("returns rendered results", func(t *testing.T) {
		svc := new(MockSearchRunner)
		svc.On("Search", mock.Anything, mock.MatchedBy(func(c model.SearchCriteria) bool {
			return c.Query == "golang" && c.MinViews == 1000 && c.MaxSubscribers != nil && *c.MaxSubscribers == 5000
		}), "week").Return(testOutcome(), nil)

		r := newTestRouter(RouterConfig{Search: NewSearchHandler(svc, nil)})
		w := do(t, r, http.MethodPost, "/api/v1/search", map[string]interface{}{
			"query":           "golang",
			"period":          "week",
			"min_views":       1000,
			"max_subscribers": 5000,
		})

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var resp SearchResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, 1, resp.Count)
		require.Len(t, resp.Results, 1)

		got := resp.Results[0]
		assert.Equal(t, "3.4K", got.ViewsDisplay)
		assert.Equal(t, "1.2M", got.SubscribersDisplay)
		assert.Equal(t, "https://www.youtube.com/watch?v=dQw4w9WgXcQ", got.VideoURL)
		assert.Equal(t, int64(100), got.DurationSeconds)
		require.NotNil(t, got.ChannelAgeDays)
		assert.Equal(t, 20, *got.ChannelAgeDays)
		assert.Equal(t, "Great opportunity", got.TierLabel)
		assert.Len(t, resp.Errors, 1)
		svc.AssertExpectations(t)
	})

	t.Run("requires a query", func(t *testing.T) {
		svc := new(MockSearchRunner)
		r := newTestRouter(RouterConfig{Search: NewSearchHandler(svc, nil)})

		w := do(t, r, http.MethodPost, "/api/v1/search", map[string]interface{}{"limit": 10})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		svc.AssertNotCalled(t, "Search", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("rejects malformed codes", func(t *testing.T) {
		svc := new(MockSearchRunner)
		r := newTestRouter(RouterConfig{Search: NewSearchHandler(svc, nil)})

		w := do(t, r, http.MethodPost, "/api/v1/search", map[string]interface{}{
			"query":       "golang",
			"region_code": "USA",
		})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		var resp ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Contains(t, resp.Details, "region_code")
	})

	t.Run("malformed body", func(t *testing.T) {
		r := newTestRouter(RouterConfig{Search: NewSearchHandler(new(MockSearchRunner), nil)})
		w := do(t, r, http.MethodPost, "/api/v1/search", "{")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	errorCases := []struct {
		name string
		err  error
		want int
	}{
		{"invalid criteria", fmt.Errorf("%w: min above max", discovery.ErrInvalidCriteria), http.StatusBadRequest},
		{"source unavailable", fmt.Errorf("search: %w", discovery.ErrSourceUnavailable), http.StatusBadGateway},
		{"rate limited", discovery.ErrRateLimited, http.StatusTooManyRequests},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range errorCases {
		t.Run(tc.name, func(t *testing.T) {
			svc := new(MockSearchRunner)
			svc.On("Search", mock.Anything, mock.Anything, "").Return(nil, tc.err)

			r := newTestRouter(RouterConfig{Search: NewSearchHandler(svc, nil)})
			w := do(t, r, http.MethodPost, "/api/v1/search", map[string]interface{}{"query": "golang"})

			assert.Equal(t, tc.want, w.Code)
		})
	}

	t.Run("requires an API key", func(t *testing.T) {
		svc := new(MockSearchRunner)
		r := newTestRouter(RouterConfig{Search: NewSearchHandler(svc, nil)})

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/search", strings.NewReader(`{"query":"golang"}`)))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		svc.AssertNotCalled(t, "Search", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestSearchHandler_Promising(t *testing.T) {
	svc := new(MockSearchRunner)
	svc.On("Promising", mock.Anything, "month").Return(testOutcome(), nil)

	r := newTestRouter(RouterConfig{Search: NewSearchHandler(svc, nil)})
	w := do(t, r, http.MethodGet, "/api/v1/opportunities/promising?period=month", nil)

	require.Equal(t, http.StatusOK, w.Code)
	var resp SearchResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Count)
}

func TestNewSearchResponse_EmptyResults(t *testing.T) {
	resp := NewSearchResponse(&discovery.Outcome{Results: []model.ScoredResult{}})

	data, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"results":[]`)
	assert.NotContains(t, string(data), `"errors"`)
}
