package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ad-tracker/youtube-opportunity-finder/internal/validation"
)

// Reasons attached to refresh tasks.
const (
	RefreshReasonStale  = "stale"
	RefreshReasonManual = "manual"
)

// StaleLister lists channels whose snapshot is older than a cutoff.
type StaleLister interface {
	ListStale(ctx context.Context, olderThan time.Time, limit int) ([]string, error)
}

// RefreshEnqueuer queues channel refresh work.
type RefreshEnqueuer interface {
	EnqueueChannelRefresh(ctx context.Context, channelIDs []string, reason string) (int, error)
}

// RefreshResult summarizes one refresh sweep.
type RefreshResult struct {
	Channels int `json:"channels"`
	Tasks    int `json:"tasks"`
}

// RefreshService schedules re-fetching of stored channel snapshots.
type RefreshService struct {
	channels   StaleLister
	queue      RefreshEnqueuer
	staleAfter time.Duration
	batchSize  int
	now        func() time.Time
	logger     *zap.Logger
}

// NewRefreshService creates a RefreshService.
func NewRefreshService(channels StaleLister, queue RefreshEnqueuer, staleAfter time.Duration, batchSize int, logger *zap.Logger) *RefreshService {
	if staleAfter <= 0 {
		staleAfter = 24 * time.Hour
	}
	if batchSize <= 0 {
		batchSize = validation.MaxChannelIDs
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RefreshService{
		channels:   channels,
		queue:      queue,
		staleAfter: staleAfter,
		batchSize:  batchSize,
		now:        time.Now,
		logger:     logger,
	}
}

// RefreshStale enqueues refresh tasks for up to batchSize channels whose
// snapshot is older than staleAfter.
func (s *RefreshService) RefreshStale(ctx context.Context) (RefreshResult, error) {
	cutoff := s.now().Add(-s.staleAfter)

	ids, err := s.channels.ListStale(ctx, cutoff, s.batchSize)
	if err != nil {
		return RefreshResult{}, fmt.Errorf("failed to list stale channels: %w", err)
	}

	if len(ids) == 0 {
		s.logger.Info("no channels need refresh")
		return RefreshResult{}, nil
	}

	tasks, err := s.queue.EnqueueChannelRefresh(ctx, ids, RefreshReasonStale)
	result := RefreshResult{Channels: len(ids), Tasks: tasks}
	if err != nil {
		return result, fmt.Errorf("failed to enqueue refresh: %w", err)
	}

	s.logger.Info("refresh sweep completed",
		zap.Int("channels", len(ids)),
		zap.Int("tasks", tasks),
		zap.Time("cutoff", cutoff),
	)
	return result, nil
}

// RefreshChannels enqueues refresh tasks for explicit channel ids.
func (s *RefreshService) RefreshChannels(ctx context.Context, channelIDs []string) (RefreshResult, error) {
	if err := validation.ValidateChannelIDs(channelIDs); err != nil {
		return RefreshResult{}, err
	}

	tasks, err := s.queue.EnqueueChannelRefresh(ctx, channelIDs, RefreshReasonManual)
	result := RefreshResult{Channels: len(channelIDs), Tasks: tasks}
	if err != nil {
		return result, fmt.Errorf("failed to enqueue refresh: %w", err)
	}
	return result, nil
}

// Run sweeps immediately and then every interval until ctx is done.
func (s *RefreshService) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Info("running initial refresh sweep")
	if _, err := s.RefreshStale(ctx); err != nil {
		s.logger.Error("initial refresh sweep failed", zap.Error(err))
	}

	for {
		select {
		case <-ticker.C:
			if _, err := s.RefreshStale(ctx); err != nil {
				s.logger.Error("scheduled refresh sweep failed", zap.Error(err))
			}
		case <-ctx.Done():
			s.logger.Info("refresh scheduler stopped")
			return
		}
	}
}
