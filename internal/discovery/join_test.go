package discovery

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ad-tracker/youtube-opportunity-finder/internal/model"
)

func TestDistinctChannelIDs(t *testing.T) {
	videos := []model.VideoRecord{
		{ID: "v1", ChannelID: "C2"},
		{ID: "v2", ChannelID: "C1"},
		{ID: "v3", ChannelID: "C2"},
		{ID: "v4", ChannelID: ""},
		{ID: "v5", ChannelID: "C3"},
	}

	assert.Equal(t, []string{"C2", "C1", "C3"}, DistinctChannelIDs(videos))
	assert.Empty(t, DistinctChannelIDs(nil))
}

func TestJoin_DropsVideosOfMissingChannel(t *testing.T) {
	videos := []model.VideoRecord{
		{ID: "v1", ChannelID: "C1"},
		{ID: "v2", ChannelID: "C2"},
		{ID: "v3", ChannelID: "C3"},
		{ID: "v4", ChannelID: "C2"},
		{ID: "v5", ChannelID: "C1"},
	}
	channels := map[string]model.ChannelRecord{
		"C1": {ID: "C1", SubscriberCount: 10},
		"C3": {ID: "C3", SubscriberCount: 30},
	}

	joined := Join(videos, channels)

	var ids []string
	for _, r := range joined {
		ids = append(ids, r.Video.ID)
		assert.Equal(t, r.Video.ChannelID, r.Channel.ID)
	}
	assert.Equal(t, []string{"v1", "v3", "v5"}, ids)
}
