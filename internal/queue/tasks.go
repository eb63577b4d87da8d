package queue

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ad-tracker/youtube-opportunity-finder/internal/discovery"
)

// Task types
const (
	TypeRefreshChannels = "channel:refresh"
)

// RefreshChannelsPayload is the payload for channel refresh tasks. One task
// carries at most one channels.list batch.
type RefreshChannelsPayload struct {
	ChannelIDs []string               `json:"channel_ids"`
	Reason     string                 `json:"reason"`
	Metadata   map[string]interface{} `json:"metadata"`
}

// NewRefreshChannelsTask creates a new channel refresh task payload.
func NewRefreshChannelsTask(channelIDs []string, reason string, metadata map[string]interface{}) (*RefreshChannelsPayload, error) {
	if len(channelIDs) == 0 {
		return nil, errors.New("at least one channel ID is required")
	}
	if len(channelIDs) > discovery.BatchCap {
		return nil, fmt.Errorf("too many channel IDs for one task (max %d, got %d)", discovery.BatchCap, len(channelIDs))
	}

	if metadata == nil {
		metadata = make(map[string]interface{})
	}

	return &RefreshChannelsPayload{
		ChannelIDs: channelIDs,
		Reason:     reason,
		Metadata:   metadata,
	}, nil
}

// Marshal serializes the payload to JSON
func (p *RefreshChannelsPayload) Marshal() ([]byte, error) {
	return json.Marshal(p)
}

// UnmarshalRefreshChannelsPayload deserializes JSON to payload
func UnmarshalRefreshChannelsPayload(data []byte) (*RefreshChannelsPayload, error) {
	var payload RefreshChannelsPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("failed to unmarshal payload: %w", err)
	}
	if len(payload.ChannelIDs) == 0 {
		return nil, errors.New("payload has no channel IDs")
	}
	return &payload, nil
}
