package discovery

import "github.com/ad-tracker/youtube-opportunity-finder/internal/model"

// DistinctChannelIDs returns the channel ids referenced by videos, without
// duplicates, in first-seen order.
func DistinctChannelIDs(videos []model.VideoRecord) []string {
	seen := make(map[string]struct{}, len(videos))
	ids := make([]string, 0, len(videos))
	for _, v := range videos {
		if v.ChannelID == "" {
			continue
		}
		if _, ok := seen[v.ChannelID]; ok {
			continue
		}
		seen[v.ChannelID] = struct{}{}
		ids = append(ids, v.ChannelID)
	}
	return ids
}

// Join pairs every video with its channel. Videos whose channel is missing
// from channels are left out.
func Join(videos []model.VideoRecord, channels map[string]model.ChannelRecord) []model.ScoredResult {
	joined := make([]model.ScoredResult, 0, len(videos))
	for _, v := range videos {
		c, ok := channels[v.ChannelID]
		if !ok {
			continue
		}
		joined = append(joined, model.ScoredResult{Video: v, Channel: c})
	}
	return joined
}
