package quota

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ad-tracker/youtube-opportunity-finder/internal/discovery"
	"github.com/ad-tracker/youtube-opportunity-finder/internal/model"
)

type MockQuotaRepository struct {
	mock.Mock
}

func (m *MockQuotaRepository) GetTodaysQuota(ctx context.Context) (*model.QuotaInfo, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.QuotaInfo), args.Error(1)
}

func (m *MockQuotaRepository) IncrementQuota(ctx context.Context, quotaCost int, operationType string) error {
	args := m.Called(ctx, quotaCost, operationType)
	return args.Error(0)
}

func (m *MockQuotaRepository) GetQuotaHistory(ctx context.Context, days int) ([]*model.APIQuotaUsage, error) {
	args := m.Called(ctx, days)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.APIQuotaUsage), args.Error(1)
}

func usage(used int) *model.QuotaInfo {
	return &model.QuotaInfo{QuotaUsed: used, QuotaLimit: 10000, QuotaRemaining: 10000 - used}
}

func TestManager_Acquire(t *testing.T) {
	ctx := context.Background()

	t.Run("records usage when under threshold", func(t *testing.T) {
		repo := new(MockQuotaRepository)
		repo.On("GetTodaysQuota", ctx).Return(usage(100), nil)
		repo.On("IncrementQuota", ctx, 100, "search.list").Return(nil)

		m := NewManager(repo, 10000, 90, nil)
		require.NoError(t, m.Acquire(ctx, 100, "search.list"))

		repo.AssertExpectations(t)
	})

	t.Run("refuses a call that would cross the threshold", func(t *testing.T) {
		repo := new(MockQuotaRepository)
		repo.On("GetTodaysQuota", ctx).Return(usage(8950), nil)

		m := NewManager(repo, 10000, 90, nil)
		err := m.Acquire(ctx, 100, "search.list")

		assert.ErrorIs(t, err, discovery.ErrRateLimited)
		repo.AssertNotCalled(t, "IncrementQuota", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("refuses once threshold is reached", func(t *testing.T) {
		repo := new(MockQuotaRepository)
		repo.On("GetTodaysQuota", ctx).Return(usage(9000), nil)

		m := NewManager(repo, 10000, 90, nil)
		assert.ErrorIs(t, m.Acquire(ctx, 1, "videos.list"), discovery.ErrRateLimited)
	})

	t.Run("surfaces repository errors", func(t *testing.T) {
		repo := new(MockQuotaRepository)
		repo.On("GetTodaysQuota", ctx).Return(nil, errors.New("connection refused"))

		m := NewManager(repo, 10000, 90, nil)
		err := m.Acquire(ctx, 1, "videos.list")

		require.Error(t, err)
		assert.NotErrorIs(t, err, discovery.ErrRateLimited)
	})
}

func TestManager_Defaults(t *testing.T) {
	m := NewManager(new(MockQuotaRepository), 0, 0, nil)

	assert.Equal(t, 10000, m.dailyLimit)
	assert.Equal(t, 90, m.thresholdPercent)
	assert.Equal(t, 9000, m.threshold())
}

func TestManager_GetRemainingQuota(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name string
		used int
		want int
	}{
		{"fresh day", 0, 9000},
		{"half used", 4500, 4500},
		{"over threshold", 9500, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockQuotaRepository)
			repo.On("GetTodaysQuota", ctx).Return(usage(tt.used), nil)

			m := NewManager(repo, 10000, 90, nil)
			got, err := m.GetRemainingQuota(ctx)

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestManager_IsQuotaExhausted(t *testing.T) {
	ctx := context.Background()
	repo := new(MockQuotaRepository)
	repo.On("GetTodaysQuota", ctx).Return(usage(9000), nil)

	m := NewManager(repo, 10000, 90, nil)
	exhausted, err := m.IsQuotaExhausted(ctx)

	require.NoError(t, err)
	assert.True(t, exhausted)

	pct, err := m.GetQuotaUsagePercentage(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 90.0, pct, 1e-9)
}

func TestManager_GetQuotaHistory(t *testing.T) {
	ctx := context.Background()
	day := time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC)

	repo := new(MockQuotaRepository)
	repo.On("GetQuotaHistory", ctx, 7).Return([]*model.APIQuotaUsage{{Date: day, QuotaUsed: 120}}, nil)

	m := NewManager(repo, 10000, 90, nil)
	history, err := m.GetQuotaHistory(ctx, 7)

	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, 120, history[0].QuotaUsed)
}
