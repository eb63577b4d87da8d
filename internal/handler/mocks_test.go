package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/ad-tracker/youtube-opportunity-finder/internal/db/models"
	"github.com/ad-tracker/youtube-opportunity-finder/internal/db/repository"
	"github.com/ad-tracker/youtube-opportunity-finder/internal/discovery"
	"github.com/ad-tracker/youtube-opportunity-finder/internal/model"
	"github.com/ad-tracker/youtube-opportunity-finder/internal/service"
)

const testAPIKey = "test-key"

type MockSearchRunner struct {
	mock.Mock
}

func (m *MockSearchRunner) Search(ctx context.Context, criteria model.SearchCriteria, period string) (*discovery.Outcome, error) {
	args := m.Called(ctx, criteria, period)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*discovery.Outcome), args.Error(1)
}

func (m *MockSearchRunner) Promising(ctx context.Context, period string) (*discovery.Outcome, error) {
	args := m.Called(ctx, period)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*discovery.Outcome), args.Error(1)
}

type MockChannelReader struct {
	mock.Mock
}

func (m *MockChannelReader) GetChannelByID(ctx context.Context, channelID string) (*models.Channel, error) {
	args := m.Called(ctx, channelID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Channel), args.Error(1)
}

func (m *MockChannelReader) List(ctx context.Context, filters *repository.ChannelFilters) ([]*models.Channel, int, error) {
	args := m.Called(ctx, filters)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]*models.Channel), args.Int(1), args.Error(2)
}

type MockRefreshTrigger struct {
	mock.Mock
}

func (m *MockRefreshTrigger) RefreshStale(ctx context.Context) (service.RefreshResult, error) {
	args := m.Called(ctx)
	return args.Get(0).(service.RefreshResult), args.Error(1)
}

func (m *MockRefreshTrigger) RefreshChannels(ctx context.Context, channelIDs []string) (service.RefreshResult, error) {
	args := m.Called(ctx, channelIDs)
	return args.Get(0).(service.RefreshResult), args.Error(1)
}

type MockHistoryReader struct {
	mock.Mock
}

func (m *MockHistoryReader) GetByID(ctx context.Context, id uuid.UUID) (*models.SearchHistory, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SearchHistory), args.Error(1)
}

func (m *MockHistoryReader) List(ctx context.Context, limit, offset int) ([]*models.SearchHistory, int, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]*models.SearchHistory), args.Int(1), args.Error(2)
}

type MockQuotaReporter struct {
	mock.Mock
}

func (m *MockQuotaReporter) GetQuotaInfo(ctx context.Context) (*model.QuotaInfo, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.QuotaInfo), args.Error(1)
}

func (m *MockQuotaReporter) GetRemainingQuota(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *MockQuotaReporter) GetQuotaUsagePercentage(ctx context.Context) (float64, error) {
	args := m.Called(ctx)
	return args.Get(0).(float64), args.Error(1)
}

func (m *MockQuotaReporter) GetQuotaHistory(ctx context.Context, days int) ([]*model.APIQuotaUsage, error) {
	args := m.Called(ctx, days)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.APIQuotaUsage), args.Error(1)
}

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

type stubReporter bool

func (r stubReporter) IsHealthy() bool { return bool(r) }

func newTestRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.TestMode)
	cfg.APIKeys = []string{testAPIKey}
	return NewRouter(cfg)
}

// do sends an authenticated request and returns the recorder.
func do(t *testing.T, r http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", testAPIKey)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}
