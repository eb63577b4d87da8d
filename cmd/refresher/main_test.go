package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ad-tracker/youtube-opportunity-finder/internal/model"
	"github.com/ad-tracker/youtube-opportunity-finder/internal/queue"
)

type recordingStore struct {
	stored [][]model.ChannelRecord
}

func (s *recordingStore) Store(_ context.Context, records []model.ChannelRecord) {
	s.stored = append(s.stored, records)
}

func TestCacheWriteback(t *testing.T) {
	store := &recordingStore{}
	records := []model.ChannelRecord{{ID: "UCaaaaaaaaaaaaaaaaaaaaaa"}, {ID: "UCbbbbbbbbbbbbbbbbbbbbbb"}}

	m := queue.NewCallbackManager(nil)
	m.RegisterCallback(cacheWriteback(store))
	m.TriggerCallbacks(context.Background(), records)

	require.Len(t, store.stored, 1)
	assert.Equal(t, records, store.stored[0])
}
