package discovery

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ad-tracker/youtube-opportunity-finder/internal/metrics"
	"github.com/ad-tracker/youtube-opportunity-finder/internal/model"
)

// Options configures a Pipeline.
type Options struct {
	BatchSize   int // ids per lookup call, clamped to 1..BatchCap
	Workers     int
	CallTimeout time.Duration
	MaxResults  int
	Clock       func() time.Time
	Logger      *zap.Logger
}

// Pipeline runs discovery searches against a Source and optionally records
// channel snapshots into a ChannelSink.
type Pipeline struct {
	source     Source
	sink       ChannelSink
	batch      BatchOptions
	maxResults int
	now        func() time.Time
	logger     *zap.Logger
}

// NewPipeline creates a Pipeline. sink may be nil.
func NewPipeline(source Source, sink ChannelSink, opts Options) *Pipeline {
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.MaxResults <= 0 {
		opts.MaxResults = DefaultMaxResults
	}

	return &Pipeline{
		source: source,
		sink:   sink,
		batch: BatchOptions{
			Size:        opts.BatchSize,
			Workers:     opts.Workers,
			CallTimeout: opts.CallTimeout,
		},
		maxResults: opts.MaxResults,
		now:        opts.Clock,
		logger:     opts.Logger,
	}
}

// Stats summarizes one run.
type Stats struct {
	SearchHits       int           `json:"search_hits"`
	VideosFetched    int           `json:"videos_fetched"`
	ChannelsFetched  int           `json:"channels_fetched"`
	Joined           int           `json:"joined"`
	Matched          int           `json:"matched"`
	ChannelsUpserted int           `json:"channels_upserted"`
	Duration         time.Duration `json:"duration"`
}

// Outcome is the result of RunSearch.
type Outcome struct {
	RunID       uuid.UUID            `json:"run_id"`
	Criteria    model.SearchCriteria `json:"criteria"`
	EvaluatedAt time.Time            `json:"evaluated_at"`

	// Results holds the records that passed the filters, best score first.
	Results []model.ScoredResult `json:"results"`

	// Scored holds every joined record, scored and classified, before
	// filtering.
	Scored []model.ScoredResult `json:"-"`

	// Errors holds the non-fatal failures of the run.
	Errors []error `json:"-"`

	Stats Stats `json:"stats"`
}

// RunSearch executes one discovery run.
//
// Invalid criteria and an unreachable source during the initial search are
// fatal. Any other failure drops the affected batch or entity and is
// reported in Outcome.Errors. Zero results is a successful outcome.
func (p *Pipeline) RunSearch(ctx context.Context, criteria model.SearchCriteria) (*Outcome, error) {
	start := time.Now()

	criteria, err := Normalize(criteria, p.maxResults)
	if err != nil {
		metrics.ObservePipelineRun("invalid", 0, 0)
		return nil, err
	}

	out := &Outcome{
		RunID:       uuid.New(),
		Criteria:    criteria,
		EvaluatedAt: p.now(),
		Results:     []model.ScoredResult{},
	}
	log := p.logger.With(zap.String("run_id", out.RunID.String()), zap.String("query", criteria.Query))

	hits, searchErrs, err := p.search(ctx, criteria)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			metrics.ObservePipelineRun("cancelled", time.Since(start), 0)
			return nil, ctxErr
		}
		if errors.Is(err, ErrSourceUnavailable) || errors.Is(err, ErrInvalidCriteria) {
			log.Error("search failed", zap.Error(err))
			metrics.ObservePipelineRun("failed", time.Since(start), 0)
			return nil, fmt.Errorf("search: %w", err)
		}
		log.Warn("search returned no usable results", zap.Error(err))
		out.Errors = append(out.Errors, &BatchError{Stage: StageSearch, Err: err})
		return p.finish(out, start, log), nil
	}
	out.Errors = append(out.Errors, searchErrs...)
	out.Stats.SearchHits = len(hits)

	if len(hits) == 0 {
		return p.finish(out, start, log), nil
	}

	videos, errs, err := FetchVideos(ctx, p.source, videoIDs(hits), p.batch)
	if err != nil {
		metrics.ObservePipelineRun("cancelled", time.Since(start), 0)
		return nil, err
	}
	out.Errors = append(out.Errors, errs...)
	videos = p.dropUnattributed(videos, out)
	out.Stats.VideosFetched = len(videos)

	channels, errs, err := FetchChannels(ctx, p.source, DistinctChannelIDs(videos), p.batch)
	if err != nil {
		metrics.ObservePipelineRun("cancelled", time.Since(start), 0)
		return nil, err
	}
	out.Errors = append(out.Errors, errs...)
	out.Stats.ChannelsFetched = len(channels)

	joined := Join(videos, channels)
	ScoreAll(out.EvaluatedAt, joined)
	out.Stats.Joined = len(joined)

	out.Results = Filter(criteria, joined)
	Rank(out.Results)
	out.Stats.Matched = len(out.Results)

	out.Scored = joined
	Rank(out.Scored)

	if p.sink != nil {
		if err := p.upsert(ctx, out, log); err != nil {
			metrics.ObservePipelineRun("cancelled", time.Since(start), 0)
			return nil, err
		}
	}

	return p.finish(out, start, log), nil
}

// search returns the hits, the per-item errors of a partial response and a
// call failure.
func (p *Pipeline) search(ctx context.Context, criteria model.SearchCriteria) ([]model.SearchHit, []error, error) {
	pages := (criteria.Limit + BatchCap - 1) / BatchCap
	timeout := p.batch.callTimeout() * time.Duration(pages)

	searchCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	hits, err := p.source.Search(searchCtx, criteria)
	itemErrs, partial := splitPartial(err)
	if err != nil && !partial {
		if ctx.Err() == nil && errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("%w: search timed out after %s", ErrSourceUnavailable, timeout)
		}
		return nil, nil, ClassifyError(err)
	}
	if len(hits) > criteria.Limit {
		hits = hits[:criteria.Limit]
	}
	return hits, itemErrs, nil
}

// dropUnattributed removes videos that carry no channel id; they can never
// be joined and indicate an incomplete response.
func (p *Pipeline) dropUnattributed(videos []model.VideoRecord, out *Outcome) []model.VideoRecord {
	kept := videos[:0]
	for _, v := range videos {
		if v.ChannelID == "" {
			out.Errors = append(out.Errors, &EntityError{
				Stage: StageVideos,
				ID:    v.ID,
				Err:   fmt.Errorf("%w: video without channel id", ErrMalformedResponse),
			})
			continue
		}
		kept = append(kept, v)
	}
	return kept
}

func (p *Pipeline) upsert(ctx context.Context, out *Outcome, log *zap.Logger) error {
	for _, snapshot := range Snapshots(out.Scored) {
		if err := ctx.Err(); err != nil {
			log.Warn("run cancelled, skipping remaining channel upserts", zap.Error(err))
			return err
		}
		if err := p.sink.UpsertChannel(ctx, snapshot); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			out.Errors = append(out.Errors, &EntityError{Stage: StageUpsert, ID: snapshot.Channel.ID, Err: err})
			continue
		}
		out.Stats.ChannelsUpserted++
	}
	return nil
}

func (p *Pipeline) finish(out *Outcome, start time.Time, log *zap.Logger) *Outcome {
	out.Stats.Duration = time.Since(start)

	for _, err := range out.Errors {
		log.Warn("discovery degraded", zap.String("kind", Kind(err)), zap.Error(err))
	}

	outcome := "ok"
	if len(out.Errors) > 0 {
		outcome = "partial"
	}
	metrics.ObservePipelineRun(outcome, out.Stats.Duration, len(out.Results))

	log.Info("discovery run complete",
		zap.Int("search_hits", out.Stats.SearchHits),
		zap.Int("videos", out.Stats.VideosFetched),
		zap.Int("channels", out.Stats.ChannelsFetched),
		zap.Int("matched", out.Stats.Matched),
		zap.Int("upserted", out.Stats.ChannelsUpserted),
		zap.Int("errors", len(out.Errors)),
		zap.Duration("duration", out.Stats.Duration),
	)

	return out
}

func videoIDs(hits []model.SearchHit) []string {
	seen := make(map[string]struct{}, len(hits))
	ids := make([]string, 0, len(hits))
	for _, h := range hits {
		if h.VideoID == "" {
			continue
		}
		if _, ok := seen[h.VideoID]; ok {
			continue
		}
		seen[h.VideoID] = struct{}{}
		ids = append(ids, h.VideoID)
	}
	return ids
}
