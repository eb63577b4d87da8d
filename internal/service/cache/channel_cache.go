// Package cache provides a Redis cache-aside layer in front of channel
// lookups, so repeated searches over the same niche spend less API quota.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ad-tracker/youtube-opportunity-finder/internal/discovery"
	"github.com/ad-tracker/youtube-opportunity-finder/internal/metrics"
	"github.com/ad-tracker/youtube-opportunity-finder/internal/model"
)

// DefaultChannelTTL is how long a fetched channel is served from cache.
const DefaultChannelTTL = 15 * time.Minute

// NewRedisClient connects to redisURL. An empty URL or a failed connection
// returns a nil client, which disables caching.
func NewRedisClient(ctx context.Context, redisURL string, logger *zap.Logger) *redis.Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if redisURL == "" {
		logger.Info("redis: no URL configured, channel caching disabled")
		return nil
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		logger.Warn("redis: invalid URL, channel caching disabled", zap.Error(err))
		return nil
	}

	rdb := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	if err := rdb.Ping(pingCtx).Err(); err != nil {
		logger.Warn("redis: connection failed, channel caching disabled", zap.Error(err))
		_ = rdb.Close()
		return nil
	}

	logger.Info("redis: connected, channel caching enabled")
	return rdb
}

// ChannelCache decorates a discovery.Source, serving GetChannels from Redis
// when possible. Search and GetVideos pass straight through.
type ChannelCache struct {
	discovery.Source
	rdb    *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

var _ discovery.Source = (*ChannelCache)(nil)

// NewChannelCache wraps source. A nil rdb makes the cache a passthrough.
func NewChannelCache(source discovery.Source, rdb *redis.Client, ttl time.Duration, logger *zap.Logger) *ChannelCache {
	if ttl <= 0 {
		ttl = DefaultChannelTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChannelCache{Source: source, rdb: rdb, ttl: ttl, logger: logger}
}

// GetChannels returns cached records for the ids it knows and fetches the rest
// from the wrapped source. Redis failures degrade to a full fetch. A
// *discovery.PartialError from the source is passed on with the merged records.
func (c *ChannelCache) GetChannels(ctx context.Context, ids []string) ([]model.ChannelRecord, error) {
	if c.rdb == nil || len(ids) == 0 {
		return c.Source.GetChannels(ctx, ids)
	}

	cached := c.lookup(ctx, ids)

	var misses []string
	for _, id := range ids {
		if _, ok := cached[id]; !ok {
			misses = append(misses, id)
		}
	}
	metrics.ObserveCacheLookup(len(ids)-len(misses), len(misses))

	var partial *discovery.PartialError
	if len(misses) > 0 {
		fetched, err := c.Source.GetChannels(ctx, misses)
		if err != nil && !errors.As(err, &partial) {
			return nil, err
		}
		c.Store(ctx, fetched)
		for _, r := range fetched {
			cached[r.ID] = r
		}
	}

	records := make([]model.ChannelRecord, 0, len(ids))
	for _, id := range ids {
		if r, ok := cached[id]; ok {
			records = append(records, r)
		}
	}
	if partial != nil {
		return records, partial
	}
	return records, nil
}

func (c *ChannelCache) lookup(ctx context.Context, ids []string) map[string]model.ChannelRecord {
	found := make(map[string]model.ChannelRecord, len(ids))

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = channelKey(id)
	}

	values, err := c.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		c.logger.Warn("channel cache lookup failed", zap.Error(err))
		return found
	}

	for i, v := range values {
		s, ok := v.(string)
		if !ok {
			continue
		}
		var r model.ChannelRecord
		if err := json.Unmarshal([]byte(s), &r); err != nil || r.ID != ids[i] {
			c.logger.Warn("discarding corrupt channel cache entry", zap.String("channel_id", ids[i]))
			continue
		}
		found[r.ID] = r
	}
	return found
}

// Store caches records, for example after a forced refresh.
func (c *ChannelCache) Store(ctx context.Context, records []model.ChannelRecord) {
	if c.rdb == nil || len(records) == 0 {
		return
	}

	pipe := c.rdb.Pipeline()
	for _, r := range records {
		b, err := json.Marshal(r)
		if err != nil {
			continue
		}
		pipe.Set(ctx, channelKey(r.ID), b, c.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		c.logger.Warn("channel cache store failed", zap.Error(err), zap.Int("channels", len(records)))
	}
}

// Invalidate removes channels from the cache.
func (c *ChannelCache) Invalidate(ctx context.Context, ids ...string) error {
	if c.rdb == nil || len(ids) == 0 {
		return nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = channelKey(id)
	}
	return c.rdb.Del(ctx, keys...).Err()
}

// Ping reports whether Redis is reachable. A disabled cache is always healthy.
func (c *ChannelCache) Ping(ctx context.Context) error {
	if c.rdb == nil {
		return nil
	}
	return c.rdb.Ping(ctx).Err()
}

func channelKey(channelID string) string {
	return fmt.Sprintf("opportunity:channel:%s", channelID)
}
