package model

import "time"

// SearchHit is one search.list match: the video and the channel that uploaded it.
type SearchHit struct {
	VideoID   string `json:"video_id"`
	ChannelID string `json:"channel_id"`
}

// VideoRecord represents a single video as reported by videos.list.
// It only lives for the duration of a discovery run.
type VideoRecord struct {
	ID           string        `json:"id"`
	Title        string        `json:"title"`
	ChannelID    string        `json:"channel_id"`
	ChannelTitle string        `json:"channel_title"`
	PublishedAt  time.Time     `json:"published_at"`
	ViewCount    int64         `json:"view_count"`
	LikeCount    *int64        `json:"like_count"`    // nil without statistics; hidden likes arrive as 0
	CommentCount *int64        `json:"comment_count"` // nil without statistics; disabled comments arrive as 0
	Duration     time.Duration `json:"duration"`
	ThumbnailURL string        `json:"thumbnail_url"`
}

// Likes returns the like count, treating hidden likes as zero.
func (v VideoRecord) Likes() int64 {
	if v.LikeCount == nil {
		return 0
	}
	return *v.LikeCount
}

// URL returns the watch page of the video.
func (v VideoRecord) URL() string {
	return "https://www.youtube.com/watch?v=" + v.ID
}
