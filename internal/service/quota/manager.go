package quota

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/ad-tracker/youtube-opportunity-finder/internal/db/repository"
	"github.com/ad-tracker/youtube-opportunity-finder/internal/discovery"
	"github.com/ad-tracker/youtube-opportunity-finder/internal/metrics"
	"github.com/ad-tracker/youtube-opportunity-finder/internal/model"
)

// Manager handles YouTube API quota management
type Manager struct {
	repo             repository.QuotaRepository
	dailyLimit       int
	thresholdPercent int // Stop calling the API when this % of quota is used
	logger           *zap.Logger

	// serializes check-then-record so concurrent batches cannot overshoot
	mu sync.Mutex
}

// NewManager creates a new quota manager
func NewManager(repo repository.QuotaRepository, dailyLimit int, thresholdPercent int, logger *zap.Logger) *Manager {
	if dailyLimit <= 0 {
		dailyLimit = 10000 // YouTube API v3 default
	}
	if thresholdPercent <= 0 || thresholdPercent > 100 {
		thresholdPercent = 90 // Stop at 90% by default
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Manager{
		repo:             repo,
		dailyLimit:       dailyLimit,
		thresholdPercent: thresholdPercent,
		logger:           logger,
	}
}

func (m *Manager) threshold() int {
	return (m.dailyLimit * m.thresholdPercent) / 100
}

// Acquire reserves cost units for operation. It fails with
// discovery.ErrRateLimited when the call would cross the daily threshold.
func (m *Manager) Acquire(ctx context.Context, cost int, operation string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	ok, info, err := m.CheckQuotaAvailable(ctx, cost)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: daily quota threshold reached (%d/%d used, %s needs %d)",
			discovery.ErrRateLimited, info.QuotaUsed, m.threshold(), operation, cost)
	}

	return m.RecordQuotaUsage(ctx, cost, operation)
}

// CheckQuotaAvailable checks if there's enough quota to proceed
// Returns true if quota is available, false otherwise
func (m *Manager) CheckQuotaAvailable(ctx context.Context, requiredQuota int) (bool, *model.QuotaInfo, error) {
	info, err := m.repo.GetTodaysQuota(ctx)
	if err != nil {
		return false, nil, fmt.Errorf("failed to get quota info: %w", err)
	}
	metrics.SetQuotaUsed(info.QuotaUsed)

	thresholdQuota := m.threshold()

	if info.QuotaUsed >= thresholdQuota {
		m.logger.Warn("quota threshold reached",
			zap.Int("quota_used", info.QuotaUsed),
			zap.Int("daily_limit", m.dailyLimit),
			zap.Float64("percent", float64(info.QuotaUsed)/float64(m.dailyLimit)*100),
		)
		return false, info, nil
	}

	// Check if we have enough for this operation
	if info.QuotaUsed+requiredQuota > thresholdQuota {
		m.logger.Warn("not enough quota for operation",
			zap.Int("quota_cost", requiredQuota),
			zap.Int("remaining", thresholdQuota-info.QuotaUsed),
			zap.Int("threshold", thresholdQuota),
		)
		return false, info, nil
	}

	return true, info, nil
}

// RecordQuotaUsage records API quota usage
func (m *Manager) RecordQuotaUsage(ctx context.Context, quotaCost int, operationType string) error {
	if err := m.repo.IncrementQuota(ctx, quotaCost, operationType); err != nil {
		return fmt.Errorf("failed to record quota usage: %w", err)
	}

	info, _ := m.repo.GetTodaysQuota(ctx)
	if info != nil {
		metrics.SetQuotaUsed(info.QuotaUsed)
		m.logger.Debug("quota used",
			zap.Int("quota_used", info.QuotaUsed),
			zap.Int("daily_limit", m.dailyLimit),
			zap.Int("quota_cost", quotaCost),
			zap.String("operation", operationType),
		)
	}

	return nil
}

// GetQuotaInfo returns current quota information
func (m *Manager) GetQuotaInfo(ctx context.Context) (*model.QuotaInfo, error) {
	return m.repo.GetTodaysQuota(ctx)
}

// GetQuotaHistory returns per-day usage for the last days days.
func (m *Manager) GetQuotaHistory(ctx context.Context, days int) ([]*model.APIQuotaUsage, error) {
	return m.repo.GetQuotaHistory(ctx, days)
}

// GetQuotaUsagePercentage returns the percentage of daily quota used
func (m *Manager) GetQuotaUsagePercentage(ctx context.Context) (float64, error) {
	info, err := m.repo.GetTodaysQuota(ctx)
	if err != nil {
		return 0, err
	}

	return float64(info.QuotaUsed) / float64(m.dailyLimit) * 100, nil
}

// IsQuotaExhausted checks if quota threshold has been reached
func (m *Manager) IsQuotaExhausted(ctx context.Context) (bool, error) {
	info, err := m.repo.GetTodaysQuota(ctx)
	if err != nil {
		return false, err
	}

	return info.QuotaUsed >= m.threshold(), nil
}

// GetRemainingQuota returns how much quota is remaining before threshold
func (m *Manager) GetRemainingQuota(ctx context.Context) (int, error) {
	info, err := m.repo.GetTodaysQuota(ctx)
	if err != nil {
		return 0, err
	}

	remaining := m.threshold() - info.QuotaUsed
	if remaining < 0 {
		return 0, nil
	}

	return remaining, nil
}
