package model

import "time"

// APIQuotaUsage is one day of YouTube API quota consumption.
type APIQuotaUsage struct {
	ID                int64     `db:"id" json:"id"`
	Date              time.Time `db:"date" json:"date"`
	QuotaUsed         int       `db:"quota_used" json:"quota_used"`
	QuotaLimit        int       `db:"quota_limit" json:"quota_limit"`
	OperationsCount   int       `db:"operations_count" json:"operations_count"`
	SearchListCalls   int       `db:"search_list_calls" json:"search_list_calls"`
	VideosListCalls   int       `db:"videos_list_calls" json:"videos_list_calls"`
	ChannelsListCalls int       `db:"channels_list_calls" json:"channels_list_calls"`
	OtherCalls        int       `db:"other_calls" json:"other_calls"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time `db:"updated_at" json:"updated_at"`
}

// QuotaInfo is today's quota status.
type QuotaInfo struct {
	QuotaUsed       int `db:"quota_used" json:"quota_used"`
	QuotaLimit      int `db:"quota_limit" json:"quota_limit"`
	QuotaRemaining  int `db:"quota_remaining" json:"quota_remaining"`
	OperationsCount int `db:"operations_count" json:"operations_count"`
}
