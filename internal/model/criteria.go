package model

import "time"

// DefaultSearchLimit is used when SearchCriteria.Limit is zero.
const DefaultSearchLimit = 50

// SearchCriteria describes one discovery run. Zero floors and nil ceilings
// mean "no constraint".
//
//nolint:govet // fieldalignment: Accept minor memory overhead for better readability
type SearchCriteria struct {
	Query             string     `json:"query"`
	Limit             int        `json:"limit"`
	PublishedAfter    *time.Time `json:"published_after,omitempty"`  // inclusive
	PublishedBefore   *time.Time `json:"published_before,omitempty"` // exclusive
	RegionCode        string     `json:"region_code,omitempty"`
	RelevanceLanguage string     `json:"relevance_language,omitempty"`
	MinViews          int64      `json:"min_views"`
	MinLikes          int64      `json:"min_likes"`
	MinSubscribers    int64      `json:"min_subscribers"`
	MaxSubscribers    *int64     `json:"max_subscribers,omitempty"`
	MaxViews          *int64     `json:"max_views,omitempty"`
}
