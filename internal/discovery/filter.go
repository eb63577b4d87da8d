package discovery

import "github.com/ad-tracker/youtube-opportunity-finder/internal/model"

// Matches reports whether r satisfies every constraint in c.
func Matches(c model.SearchCriteria, r model.ScoredResult) bool {
	views := r.Video.ViewCount
	subs := r.Channel.SubscriberCount

	if c.MinViews > 0 && views < c.MinViews {
		return false
	}
	if c.MaxViews != nil && views > *c.MaxViews {
		return false
	}
	if c.MinSubscribers > 0 && subs < c.MinSubscribers {
		return false
	}
	if c.MaxSubscribers != nil && subs > *c.MaxSubscribers {
		return false
	}
	if c.MinLikes > 0 && r.Video.Likes() < c.MinLikes {
		return false
	}
	if c.PublishedAfter != nil && r.Video.PublishedAt.Before(*c.PublishedAfter) {
		return false
	}
	if c.PublishedBefore != nil && !r.Video.PublishedAt.Before(*c.PublishedBefore) {
		return false
	}
	return true
}

// Filter returns the records matching c, preserving their order.
func Filter(c model.SearchCriteria, records []model.ScoredResult) []model.ScoredResult {
	out := make([]model.ScoredResult, 0, len(records))
	for _, r := range records {
		if Matches(c, r) {
			out = append(out, r)
		}
	}
	return out
}

// FilterTiers returns the records whose tier is one of tiers.
func FilterTiers(records []model.ScoredResult, tiers ...model.OpportunityTier) []model.ScoredResult {
	out := make([]model.ScoredResult, 0, len(records))
	for _, r := range records {
		for _, t := range tiers {
			if r.Tier == t {
				out = append(out, r)
				break
			}
		}
	}
	return out
}
