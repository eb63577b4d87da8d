package queue

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/ad-tracker/youtube-opportunity-finder/internal/model"
)

// RefreshCallback is called after a refresh task stored new channel records.
type RefreshCallback func(ctx context.Context, records []model.ChannelRecord) error

// CallbackManager manages refresh callbacks
type CallbackManager struct {
	callbacks []RefreshCallback
	logger    *zap.Logger
	mu        sync.RWMutex
}

// NewCallbackManager creates a new callback manager
func NewCallbackManager(logger *zap.Logger) *CallbackManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CallbackManager{
		callbacks: make([]RefreshCallback, 0),
		logger:    logger,
	}
}

// RegisterCallback registers a new callback to be called after a refresh
func (m *CallbackManager) RegisterCallback(cb RefreshCallback) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callbacks = append(m.callbacks, cb)
}

// TriggerCallbacks runs every callback in registration order. A failing
// callback is logged and does not stop the others.
func (m *CallbackManager) TriggerCallbacks(ctx context.Context, records []model.ChannelRecord) {
	m.mu.RLock()
	callbacks := make([]RefreshCallback, len(m.callbacks))
	copy(callbacks, m.callbacks)
	m.mu.RUnlock()

	for i, cb := range callbacks {
		if err := cb(ctx, records); err != nil {
			m.logger.Warn("refresh callback failed",
				zap.Int("callback", i),
				zap.Int("channels", len(records)),
				zap.Error(err),
			)
		}
	}
}

// CallbackCount returns the number of registered callbacks
func (m *CallbackManager) CallbackCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.callbacks)
}
