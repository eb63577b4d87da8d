package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/ad-tracker/youtube-opportunity-finder/internal/discovery"
	"github.com/ad-tracker/youtube-opportunity-finder/internal/metrics"
	"github.com/ad-tracker/youtube-opportunity-finder/internal/model"
)

// ChannelRefresher stores re-fetched channel statistics.
type ChannelRefresher interface {
	Refresh(ctx context.Context, record *model.ChannelRecord, tier model.OpportunityTier) (bool, error)
}

// RefreshHandler handles channel refresh tasks
type RefreshHandler struct {
	source    discovery.Source
	store     ChannelRefresher
	callbacks *CallbackManager
	opts      discovery.BatchOptions
	now       func() time.Time
	logger    *zap.Logger
}

// NewRefreshHandler creates a new refresh task handler. callbacks may be nil.
func NewRefreshHandler(
	source discovery.Source,
	store ChannelRefresher,
	callbacks *CallbackManager,
	callTimeout time.Duration,
	logger *zap.Logger,
) *RefreshHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if callbacks == nil {
		callbacks = NewCallbackManager(logger)
	}

	return &RefreshHandler{
		source:    source,
		store:     store,
		callbacks: callbacks,
		opts: discovery.BatchOptions{
			Stage:       discovery.StageChannels,
			Workers:     1,
			CallTimeout: callTimeout,
		},
		now:    func() time.Time { return time.Now().UTC() },
		logger: logger,
	}
}

// ProcessTask implements asynq.HandlerFunc
func (h *RefreshHandler) ProcessTask(ctx context.Context, task *asynq.Task) (err error) {
	defer func() { metrics.ObserveRefreshTask(err) }()

	payload, err := UnmarshalRefreshChannelsPayload(task.Payload())
	if err != nil {
		return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
	}

	log := h.logger.With(zap.Int("channels", len(payload.ChannelIDs)), zap.String("reason", payload.Reason))

	channels, errs, err := discovery.FetchChannels(ctx, h.source, payload.ChannelIDs, h.opts)
	if err != nil {
		return fmt.Errorf("fetch channels: %w", err)
	}
	errs = logDroppedEntities(log, errs)
	if len(errs) > 0 {
		joined := errors.Join(errs...)
		if errors.Is(joined, discovery.ErrRateLimited) {
			// Retrying within the same quota day cannot succeed.
			log.Warn("refresh skipped, quota exhausted", zap.Error(joined))
			return fmt.Errorf("%w: %w", joined, asynq.SkipRetry)
		}
		return fmt.Errorf("fetch channels: %w", joined)
	}

	now := h.now()
	refreshed := make([]model.ChannelRecord, 0, len(channels))
	var missing int
	for _, id := range payload.ChannelIDs {
		record, ok := channels[id]
		if !ok {
			missing++
			continue
		}
		if record.FetchedAt.IsZero() {
			record.FetchedAt = now
		}

		tier := discovery.Classify(now, record.CreatedAt)
		written, err := h.store.Refresh(ctx, &record, tier)
		if err != nil {
			return fmt.Errorf("refresh %s: %w", id, err)
		}
		if written {
			refreshed = append(refreshed, record)
		}
	}

	if len(refreshed) > 0 {
		h.callbacks.TriggerCallbacks(ctx, refreshed)
	}

	log.Info("channels refreshed",
		zap.Int("refreshed", len(refreshed)),
		zap.Int("missing", missing),
	)
	return nil
}

// HandleRefreshChannelsTask returns an asynq.HandlerFunc for channel refresh
func (h *RefreshHandler) HandleRefreshChannelsTask() asynq.HandlerFunc {
	return h.ProcessTask
}

// Server wraps asynq server for processing tasks
type Server struct {
	asynqServer *asynq.Server
	mux         *asynq.ServeMux
	logger      *zap.Logger
}

// NewServer creates a new task processing server
func NewServer(redisAddr string, concurrency int, handler *RefreshHandler, logger *zap.Logger) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	// Parse Redis URL to extract connection details (host, password, db, TLS)
	redisOpt, err := ParseRedisURL(redisAddr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	srv := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: concurrency,
			Queues: map[string]int{
				"default": 10,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				logger.Error("task failed", zap.String("type", task.Type()), zap.Error(err))
			}),
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeRefreshChannels, handler.HandleRefreshChannelsTask())

	return &Server{
		asynqServer: srv,
		mux:         mux,
		logger:      logger,
	}, nil
}

// Start starts the server
func (s *Server) Start() error {
	s.logger.Info("starting task processing server")
	return s.asynqServer.Start(s.mux)
}

// Stop gracefully stops the server
func (s *Server) Stop() {
	s.logger.Info("shutting down task processing server")
	s.asynqServer.Shutdown()
}

// logDroppedEntities logs single malformed channels and returns the batch
// failures that remain. Refetching a malformed item returns the same payload.
func logDroppedEntities(log *zap.Logger, errs []error) []error {
	remaining := errs[:0]
	for _, err := range errs {
		var entityErr *discovery.EntityError
		if errors.As(err, &entityErr) {
			log.Warn("dropping malformed channel", zap.String("channel_id", entityErr.ID), zap.Error(err))
			continue
		}
		remaining = append(remaining, err)
	}
	return remaining
}
