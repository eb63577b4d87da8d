package models

import (
	"time"

	"github.com/ad-tracker/youtube-opportunity-finder/internal/model"
)

// Channel is the stored snapshot of a discovered channel.
type Channel struct {
	ChannelID        string                `db:"channel_id" json:"channel_id"`
	Title            string                `db:"title" json:"title"`
	ThumbnailURL     string                `db:"thumbnail_url" json:"thumbnail_url"`
	SubscriberCount  int64                 `db:"subscriber_count" json:"subscriber_count"`
	VideoCount       int64                 `db:"video_count" json:"video_count"`
	ViewCount        int64                 `db:"view_count" json:"view_count"`
	ChannelCreatedAt *time.Time            `db:"channel_created_at" json:"channel_created_at,omitempty"`
	BestScore        float64               `db:"best_score" json:"best_score"`
	OpportunityTier  model.OpportunityTier `db:"opportunity_tier" json:"opportunity_tier"`
	FetchedAt        time.Time             `db:"fetched_at" json:"fetched_at"`
	FirstSeenAt      time.Time             `db:"first_seen_at" json:"first_seen_at"`
	LastUpdatedAt    time.Time             `db:"last_updated_at" json:"last_updated_at"`
}

// NewChannelFromSnapshot converts a discovery snapshot into a row.
func NewChannelFromSnapshot(s *model.ChannelSnapshot) *Channel {
	now := time.Now()
	fetchedAt := s.Channel.FetchedAt
	if fetchedAt.IsZero() {
		fetchedAt = now
	}
	tier := s.Tier
	if !tier.Valid() {
		tier = model.TierSaturated
	}
	return &Channel{
		ChannelID:        s.Channel.ID,
		Title:            s.Channel.Title,
		ThumbnailURL:     s.Channel.ThumbnailURL,
		SubscriberCount:  s.Channel.SubscriberCount,
		VideoCount:       s.Channel.VideoCount,
		ViewCount:        s.Channel.ViewCount,
		ChannelCreatedAt: s.Channel.CreatedAt,
		BestScore:        s.BestScore,
		OpportunityTier:  tier,
		FetchedAt:        fetchedAt,
		FirstSeenAt:      now,
		LastUpdatedAt:    now,
	}
}

// Record returns the channel as the discovery pipeline sees it.
func (c *Channel) Record() model.ChannelRecord {
	return model.ChannelRecord{
		ID:              c.ChannelID,
		Title:           c.Title,
		ThumbnailURL:    c.ThumbnailURL,
		SubscriberCount: c.SubscriberCount,
		VideoCount:      c.VideoCount,
		ViewCount:       c.ViewCount,
		CreatedAt:       c.ChannelCreatedAt,
		FetchedAt:       c.FetchedAt,
	}
}

// URL returns the public page of the channel.
func (c *Channel) URL() string {
	return c.Record().URL()
}
