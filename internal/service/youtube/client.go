package youtube

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"github.com/ad-tracker/youtube-opportunity-finder/internal/discovery"
	"github.com/ad-tracker/youtube-opportunity-finder/internal/metrics"
	"github.com/ad-tracker/youtube-opportunity-finder/internal/model"
)

// Quota costs of the Data API v3 operations used by the client.
const (
	SearchListCost   = 100
	VideosListCost   = 1
	ChannelsListCost = 1
)

// Operation names used for quota accounting and metrics.
const (
	OpSearchList   = "search.list"
	OpVideosList   = "videos.list"
	OpChannelsList = "channels.list"
)

// QuotaGate reserves daily API quota before a call is made.
type QuotaGate interface {
	Acquire(ctx context.Context, cost int, operation string) error
}

// Client wraps the YouTube Data API v3 client and implements discovery.Source.
type Client struct {
	service *youtube.Service
	limiter *rate.Limiter
	quota   QuotaGate
	logger  *zap.Logger
	now     func() time.Time
}

var _ discovery.Source = (*Client)(nil)

// Option configures a Client.
type Option func(*clientOptions)

type clientOptions struct {
	requestsPerSecond float64
	quota             QuotaGate
	logger            *zap.Logger
	apiOptions        []option.ClientOption
}

// WithRateLimit paces outgoing requests. Zero or less disables pacing.
func WithRateLimit(requestsPerSecond float64) Option {
	return func(o *clientOptions) { o.requestsPerSecond = requestsPerSecond }
}

// WithQuota makes every call reserve quota from gate first.
func WithQuota(gate QuotaGate) Option {
	return func(o *clientOptions) { o.quota = gate }
}

func WithLogger(logger *zap.Logger) Option {
	return func(o *clientOptions) { o.logger = logger }
}

// WithAPIOptions passes extra options to the underlying service, such as a
// custom endpoint.
func WithAPIOptions(opts ...option.ClientOption) Option {
	return func(o *clientOptions) { o.apiOptions = append(o.apiOptions, opts...) }
}

// NewClient creates a new YouTube API client
func NewClient(ctx context.Context, apiKey string, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("YouTube API key is required")
	}

	o := clientOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}

	apiOpts := append([]option.ClientOption{option.WithAPIKey(apiKey)}, o.apiOptions...)
	service, err := youtube.NewService(ctx, apiOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create YouTube service: %w", err)
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if o.requestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(o.requestsPerSecond), 1)
	}

	return &Client{
		service: service,
		limiter: limiter,
		quota:   o.quota,
		logger:  o.logger,
		now:     time.Now,
	}, nil
}

// Search pages through search.list until criteria.Limit hits are collected or
// the result set is exhausted. Results without a video id are dropped and
// reported through a *discovery.PartialError.
func (c *Client) Search(ctx context.Context, criteria model.SearchCriteria) ([]model.SearchHit, error) {
	limit := criteria.Limit
	if limit <= 0 {
		limit = model.DefaultSearchLimit
	}

	hits := make([]model.SearchHit, 0, limit)
	var dropped []error
	pageToken := ""

	for len(hits) < limit {
		call := c.service.Search.List([]string{"snippet"}).
			Q(criteria.Query).
			Type("video").
			Order("relevance").
			MaxResults(int64(min(limit-len(hits), discovery.BatchCap)))
		if criteria.PublishedAfter != nil {
			call = call.PublishedAfter(criteria.PublishedAfter.UTC().Format(time.RFC3339))
		}
		if criteria.PublishedBefore != nil {
			call = call.PublishedBefore(criteria.PublishedBefore.UTC().Format(time.RFC3339))
		}
		if criteria.RegionCode != "" {
			call = call.RegionCode(criteria.RegionCode)
		}
		if criteria.RelevanceLanguage != "" {
			call = call.RelevanceLanguage(criteria.RelevanceLanguage)
		}
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		if err := c.before(ctx, SearchListCost, OpSearchList); err != nil {
			return nil, err
		}
		resp, err := call.Context(ctx).Do()
		metrics.ObserveAPICall(OpSearchList, err)
		if err != nil {
			return nil, classifyError(err, OpSearchList)
		}

		for _, item := range resp.Items {
			if item.Id != nil && item.Id.Kind != "" && item.Id.Kind != "youtube#video" {
				continue
			}
			if item.Id == nil || item.Id.VideoId == "" {
				dropped = append(dropped, c.malformed(discovery.StageSearch, OpSearchList, "", errors.New("search result without video id")))
				continue
			}
			hit := model.SearchHit{VideoID: item.Id.VideoId}
			if item.Snippet != nil {
				hit.ChannelID = item.Snippet.ChannelId
			}
			hits = append(hits, hit)
		}

		c.logger.Debug("search page fetched",
			zap.String("query", criteria.Query),
			zap.Int("items", len(resp.Items)),
			zap.Int("quota_cost", SearchListCost),
		)

		if resp.NextPageToken == "" || len(resp.Items) == 0 {
			break
		}
		pageToken = resp.NextPageToken
	}

	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, discovery.Partial(dropped)
}

// GetVideos retrieves statistics for up to 50 videos in a single call. Items
// that cannot be mapped are reported through a *discovery.PartialError
// alongside the records that could.
func (c *Client) GetVideos(ctx context.Context, ids []string) ([]model.VideoRecord, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	if len(ids) > discovery.BatchCap {
		return nil, fmt.Errorf("%w: too many video IDs (max %d, got %d)", discovery.ErrInvalidCriteria, discovery.BatchCap, len(ids))
	}

	if err := c.before(ctx, VideosListCost, OpVideosList); err != nil {
		return nil, err
	}
	resp, err := c.service.Videos.List([]string{"snippet", "statistics", "contentDetails"}).
		Id(ids...).
		MaxResults(int64(len(ids))).
		Context(ctx).
		Do()
	metrics.ObserveAPICall(OpVideosList, err)
	if err != nil {
		return nil, classifyError(err, OpVideosList)
	}

	records := make([]model.VideoRecord, 0, len(resp.Items))
	var dropped []error
	for _, item := range resp.Items {
		record, err := mapVideo(item)
		if err != nil {
			dropped = append(dropped, c.malformed(discovery.StageVideos, OpVideosList, itemID(item), err))
			continue
		}
		records = append(records, record)
	}

	return records, discovery.Partial(dropped)
}

// GetChannels retrieves statistics for up to 50 channels in a single call.
// Unmappable items are reported like in GetVideos.
func (c *Client) GetChannels(ctx context.Context, ids []string) ([]model.ChannelRecord, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	if len(ids) > discovery.BatchCap {
		return nil, fmt.Errorf("%w: too many channel IDs (max %d, got %d)", discovery.ErrInvalidCriteria, discovery.BatchCap, len(ids))
	}

	if err := c.before(ctx, ChannelsListCost, OpChannelsList); err != nil {
		return nil, err
	}
	resp, err := c.service.Channels.List([]string{"snippet", "statistics"}).
		Id(ids...).
		MaxResults(int64(len(ids))).
		Context(ctx).
		Do()
	metrics.ObserveAPICall(OpChannelsList, err)
	if err != nil {
		return nil, classifyError(err, OpChannelsList)
	}

	fetchedAt := c.now().UTC()
	records := make([]model.ChannelRecord, 0, len(resp.Items))
	var dropped []error
	for _, item := range resp.Items {
		record, err := mapChannel(item, fetchedAt)
		if err != nil {
			var id string
			if item != nil {
				id = item.Id
			}
			dropped = append(dropped, c.malformed(discovery.StageChannels, OpChannelsList, id, err))
			continue
		}
		records = append(records, record)
	}

	return records, discovery.Partial(dropped)
}

// before waits for the rate limiter and reserves quota.
func (c *Client) before(ctx context.Context, cost int, operation string) error {
	if err := c.limiter.Wait(ctx); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("%w: %v", discovery.ErrRateLimited, err)
	}
	if c.quota == nil {
		return nil
	}
	if err := c.quota.Acquire(ctx, cost, operation); err != nil {
		if errors.Is(err, discovery.ErrRateLimited) {
			return err
		}
		return fmt.Errorf("%w: reserve quota for %s: %v", discovery.ErrSourceUnavailable, operation, err)
	}
	return nil
}

// malformed logs an item that could not be mapped and returns it as an
// *discovery.EntityError of kind ErrMalformedResponse.
func (c *Client) malformed(stage, operation, id string, reason error) error {
	c.logger.Warn("dropping malformed item",
		zap.String("operation", operation),
		zap.String("id", id),
		zap.Error(reason),
	)
	return &discovery.EntityError{
		Stage: stage,
		ID:    id,
		Err:   fmt.Errorf("%w: %v", discovery.ErrMalformedResponse, reason),
	}
}

func itemID(item *youtube.Video) string {
	if item == nil {
		return ""
	}
	return item.Id
}

func mapVideo(item *youtube.Video) (model.VideoRecord, error) {
	if item == nil || item.Id == "" {
		return model.VideoRecord{}, errors.New("video without id")
	}
	if item.Snippet == nil || item.Snippet.PublishedAt == "" {
		return model.VideoRecord{}, errors.New("video without publishedAt")
	}
	publishedAt, err := parseYouTubeTime(item.Snippet.PublishedAt)
	if err != nil {
		return model.VideoRecord{}, fmt.Errorf("invalid publishedAt %q", item.Snippet.PublishedAt)
	}

	record := model.VideoRecord{
		ID:           item.Id,
		Title:        item.Snippet.Title,
		ChannelID:    item.Snippet.ChannelId,
		ChannelTitle: item.Snippet.ChannelTitle,
		PublishedAt:  publishedAt,
		ThumbnailURL: bestThumbnail(item.Snippet.Thumbnails),
	}

	// The generated statistics fields decode a hidden count as zero, so likes
	// and comments are only nil when the statistics part is missing entirely.
	if item.Statistics != nil {
		record.ViewCount = int64(item.Statistics.ViewCount)
		record.LikeCount = int64Ptr(int64(item.Statistics.LikeCount))
		record.CommentCount = int64Ptr(int64(item.Statistics.CommentCount))
	}

	if item.ContentDetails != nil && item.ContentDetails.Duration != "" {
		if d, err := ParseVideoDuration(item.ContentDetails.Duration); err == nil {
			record.Duration = d
		}
	}

	return record, nil
}

func mapChannel(item *youtube.Channel, fetchedAt time.Time) (model.ChannelRecord, error) {
	if item == nil || item.Id == "" {
		return model.ChannelRecord{}, errors.New("channel without id")
	}
	record := model.ChannelRecord{ID: item.Id, FetchedAt: fetchedAt}

	if item.Snippet != nil {
		record.Title = item.Snippet.Title
		record.ThumbnailURL = bestThumbnail(item.Snippet.Thumbnails)
		if item.Snippet.PublishedAt != "" {
			// Unparseable creation dates are left unknown and classify as saturated.
			if createdAt, err := parseYouTubeTime(item.Snippet.PublishedAt); err == nil {
				record.CreatedAt = &createdAt
			}
		}
	}

	if item.Statistics != nil {
		if !item.Statistics.HiddenSubscriberCount {
			record.SubscriberCount = int64(item.Statistics.SubscriberCount)
		}
		record.VideoCount = int64(item.Statistics.VideoCount)
		record.ViewCount = int64(item.Statistics.ViewCount)
	}

	return record, nil
}

func bestThumbnail(t *youtube.ThumbnailDetails) string {
	if t == nil {
		return ""
	}
	for _, th := range []*youtube.Thumbnail{t.High, t.Medium, t.Default} {
		if th != nil && th.Url != "" {
			return th.Url
		}
	}
	return ""
}

func int64Ptr(i int64) *int64 {
	return &i
}

// parseYouTubeTime parses RFC3339 timestamps from YouTube API
func parseYouTubeTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

// ParseVideoDuration converts an ISO 8601 duration to a time.Duration.
// Example: "PT4M13S" -> 4m13s, "P1DT2H" -> 26h
func ParseVideoDuration(duration string) (time.Duration, error) {
	if !strings.HasPrefix(duration, "P") {
		return 0, fmt.Errorf("invalid duration format: %s", duration)
	}
	rest := strings.TrimPrefix(duration, "P")

	datePart, timePart, _ := strings.Cut(rest, "T")

	var total time.Duration
	if datePart != "" {
		days, err := durationComponents(datePart, map[byte]time.Duration{
			'W': 7 * 24 * time.Hour,
			'D': 24 * time.Hour,
		})
		if err != nil {
			return 0, fmt.Errorf("invalid duration format: %s", duration)
		}
		total += days
	}
	if timePart != "" {
		clock, err := durationComponents(timePart, map[byte]time.Duration{
			'H': time.Hour,
			'M': time.Minute,
			'S': time.Second,
		})
		if err != nil {
			return 0, fmt.Errorf("invalid duration format: %s", duration)
		}
		total += clock
	}

	return total, nil
}

func durationComponents(s string, units map[byte]time.Duration) (time.Duration, error) {
	var total time.Duration
	n := 0
	digits := 0
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if ch >= '0' && ch <= '9' {
			n = n*10 + int(ch-'0')
			digits++
			continue
		}
		unit, ok := units[ch]
		if !ok || digits == 0 {
			return 0, fmt.Errorf("unexpected %q", ch)
		}
		total += time.Duration(n) * unit
		n, digits = 0, 0
	}
	if digits != 0 {
		return 0, errors.New("trailing number without unit")
	}
	return total, nil
}
