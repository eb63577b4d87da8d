package discovery

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ad-tracker/youtube-opportunity-finder/internal/model"
)

type fakeSource struct {
	hits     []model.SearchHit
	videos   map[string]model.VideoRecord
	channels map[string]model.ChannelRecord

	searchErr error
	// failChannel makes any channel batch containing this id fail with channelErr.
	failChannel string
	channelErr  error
	// malformedVideos are left out of GetVideos and reported as dropped.
	malformedVideos []string
	searchDropped   []error

	searchCalls  atomic.Int32
	videoCalls   atomic.Int32
	channelCalls atomic.Int32

	mu           sync.Mutex
	maxBatchSeen int
}

func (f *fakeSource) Search(ctx context.Context, c model.SearchCriteria) ([]model.SearchHit, error) {
	f.searchCalls.Add(1)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.hits, Partial(f.searchDropped)
}

func (f *fakeSource) GetVideos(ctx context.Context, ids []string) ([]model.VideoRecord, error) {
	f.videoCalls.Add(1)
	f.observeBatch(len(ids))
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]model.VideoRecord, 0, len(ids))
	var dropped []error
	for _, id := range ids {
		if slices.Contains(f.malformedVideos, id) {
			dropped = append(dropped, &EntityError{Stage: StageVideos, ID: id, Err: fmt.Errorf("%w: invalid publishedAt", ErrMalformedResponse)})
			continue
		}
		if v, ok := f.videos[id]; ok {
			out = append(out, v)
		}
	}
	return out, Partial(dropped)
}

func (f *fakeSource) GetChannels(ctx context.Context, ids []string) ([]model.ChannelRecord, error) {
	f.channelCalls.Add(1)
	f.observeBatch(len(ids))
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.failChannel != "" && slices.Contains(ids, f.failChannel) {
		return nil, f.channelErr
	}
	out := make([]model.ChannelRecord, 0, len(ids))
	for _, id := range ids {
		if c, ok := f.channels[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeSource) observeBatch(n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if n > f.maxBatchSeen {
		f.maxBatchSeen = n
	}
}

type fakeSink struct {
	mu        sync.Mutex
	snapshots []*model.ChannelSnapshot
	err       error
	// onUpsert runs before each write.
	onUpsert func()
}

func (s *fakeSink) UpsertChannel(ctx context.Context, snapshot *model.ChannelSnapshot) error {
	if s.onUpsert != nil {
		s.onUpsert()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.snapshots = append(s.snapshots, snapshot)
	return nil
}

func (s *fakeSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.snapshots)
}

func int64Ptr(n int64) *int64 { return &n }

func timePtr(t time.Time) *time.Time { return &t }
