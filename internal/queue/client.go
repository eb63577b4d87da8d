package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/ad-tracker/youtube-opportunity-finder/internal/discovery"
)

// Enqueuer is the subset of *asynq.Client the queue client needs.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
	Close() error
}

// Client wraps asynq client for enqueueing tasks
type Client struct {
	asynqClient Enqueuer
	logger      *zap.Logger
}

// NewClient creates a new queue client
func NewClient(redisAddr string, logger *zap.Logger) (*Client, error) {
	// Parse Redis URL to extract connection details (host, password, db, TLS)
	redisOpt, err := ParseRedisURL(redisAddr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	return NewClientWithEnqueuer(asynq.NewClient(redisOpt), logger), nil
}

// NewClientWithEnqueuer creates a client over an existing enqueuer.
func NewClientWithEnqueuer(enqueuer Enqueuer, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		asynqClient: enqueuer,
		logger:      logger,
	}
}

// Close closes the client connection
func (c *Client) Close() error {
	return c.asynqClient.Close()
}

// EnqueueChannelRefresh splits channelIDs into batches of discovery.BatchCap
// and enqueues one refresh task per batch. It returns the number of tasks
// enqueued before the first failure.
func (c *Client) EnqueueChannelRefresh(ctx context.Context, channelIDs []string, reason string) (int, error) {
	enqueued := 0
	for _, batch := range discovery.Partition(channelIDs, discovery.BatchCap) {
		payload, err := NewRefreshChannelsTask(batch, reason, map[string]interface{}{
			"enqueued_at": time.Now().Format(time.RFC3339),
		})
		if err != nil {
			return enqueued, fmt.Errorf("failed to create task payload: %w", err)
		}

		payloadBytes, err := payload.Marshal()
		if err != nil {
			return enqueued, fmt.Errorf("failed to marshal payload: %w", err)
		}

		task := asynq.NewTask(TypeRefreshChannels, payloadBytes)

		info, err := c.asynqClient.EnqueueContext(ctx, task,
			asynq.MaxRetry(3),
			asynq.Timeout(2*time.Minute),
			asynq.Queue("default"),
		)
		if err != nil {
			return enqueued, fmt.Errorf("failed to enqueue task: %w", err)
		}
		enqueued++

		c.logger.Debug("enqueued channel refresh",
			zap.String("task_id", info.ID),
			zap.Int("channels", len(batch)),
			zap.String("reason", reason),
		)
	}

	if enqueued > 0 {
		c.logger.Info("enqueued channel refresh tasks",
			zap.Int("tasks", enqueued),
			zap.Int("channels", len(channelIDs)),
		)
	}
	return enqueued, nil
}
