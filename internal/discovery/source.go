// Package discovery implements the channel discovery pipeline: search,
// batched video and channel lookups, join, scoring, classification and
// filtering.
package discovery

import (
	"context"

	"github.com/ad-tracker/youtube-opportunity-finder/internal/model"
)

// BatchCap is the maximum number of ids a single lookup call accepts.
const BatchCap = 50

// Source is the remote data source the pipeline reads from.
//
// GetVideos and GetChannels accept at most BatchCap ids; ids unknown to the
// remote side are simply absent from the result. Any method may return its
// usable records together with a *PartialError listing the items it dropped.
type Source interface {
	// Search returns matching videos in relevance order. Zero matches is an
	// empty slice, not an error.
	Search(ctx context.Context, criteria model.SearchCriteria) ([]model.SearchHit, error)

	// GetVideos returns statistics for the given video ids.
	GetVideos(ctx context.Context, ids []string) ([]model.VideoRecord, error)

	// GetChannels returns statistics for the given channel ids.
	GetChannels(ctx context.Context, ids []string) ([]model.ChannelRecord, error)
}

// ChannelSink persists channel snapshots. Implementations must be idempotent
// and keyed by channel id.
type ChannelSink interface {
	UpsertChannel(ctx context.Context, snapshot *model.ChannelSnapshot) error
}
