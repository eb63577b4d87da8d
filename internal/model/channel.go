package model

import "time"

// ChannelRecord represents a channel as reported by channels.list.
type ChannelRecord struct {
	ID              string     `json:"id"`
	Title           string     `json:"title"`
	ThumbnailURL    string     `json:"thumbnail_url"`
	SubscriberCount int64      `json:"subscriber_count"`
	VideoCount      int64      `json:"video_count"`
	ViewCount       int64      `json:"view_count"`
	CreatedAt       *time.Time `json:"created_at"` // nil when the platform omits it
	FetchedAt       time.Time  `json:"fetched_at"`
}

// URL returns the public page of the channel.
func (c ChannelRecord) URL() string {
	return "https://www.youtube.com/channel/" + c.ID
}

// ChannelSnapshot is what gets persisted for a channel after a run:
// the fetched record plus the derived classification.
type ChannelSnapshot struct {
	Channel   ChannelRecord   `json:"channel"`
	BestScore float64         `json:"best_score"`
	Tier      OpportunityTier `json:"tier"`
}
