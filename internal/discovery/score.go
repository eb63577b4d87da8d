package discovery

import (
	"math"
	"sort"
	"time"

	"github.com/ad-tracker/youtube-opportunity-finder/internal/model"
)

// Channel age thresholds, in whole days.
const (
	GreatOpportunityMaxDays = 30
	GoodOpportunityMaxDays  = 90
)

// Score returns views relative to subscribers as a percentage, rounded to one
// decimal place. A channel without subscribers scores 0.
func Score(views, subscribers int64) float64 {
	if subscribers <= 0 || views <= 0 {
		return 0
	}
	return math.Round(float64(views)/float64(subscribers)*100*10) / 10
}

// ChannelAgeDays returns the whole number of days elapsed between createdAt
// and now.
func ChannelAgeDays(now, createdAt time.Time) int {
	return int(math.Floor(now.Sub(createdAt).Hours() / 24))
}

// Classify derives the opportunity tier from the channel creation time.
// An unknown creation time is treated as saturated.
func Classify(now time.Time, createdAt *time.Time) model.OpportunityTier {
	if createdAt == nil || createdAt.IsZero() {
		return model.TierSaturated
	}

	days := ChannelAgeDays(now, *createdAt)
	switch {
	case days <= GreatOpportunityMaxDays:
		return model.TierGreatOpportunity
	case days <= GoodOpportunityMaxDays:
		return model.TierGoodOpportunity
	default:
		return model.TierSaturated
	}
}

// ScoreAll fills in Score and Tier for every record in place.
func ScoreAll(now time.Time, records []model.ScoredResult) {
	for i := range records {
		r := &records[i]
		r.Score = Score(r.Video.ViewCount, r.Channel.SubscriberCount)
		r.Tier = Classify(now, r.Channel.CreatedAt)
	}
}

// Rank sorts records by score, highest first. Ties are broken by view count
// and then by video id so that the order is stable across runs.
func Rank(records []model.ScoredResult) {
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Video.ViewCount != b.Video.ViewCount {
			return a.Video.ViewCount > b.Video.ViewCount
		}
		return a.Video.ID < b.Video.ID
	})
}

// Snapshots builds one snapshot per distinct channel in records, keeping the
// best score seen for that channel.
func Snapshots(records []model.ScoredResult) []*model.ChannelSnapshot {
	index := make(map[string]*model.ChannelSnapshot)
	var out []*model.ChannelSnapshot
	for _, r := range records {
		s, ok := index[r.Channel.ID]
		if !ok {
			s = &model.ChannelSnapshot{Channel: r.Channel, BestScore: r.Score, Tier: r.Tier}
			index[r.Channel.ID] = s
			out = append(out, s)
			continue
		}
		if r.Score > s.BestScore {
			s.BestScore = r.Score
		}
	}
	return out
}
