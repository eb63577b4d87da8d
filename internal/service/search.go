// Package service ties the discovery pipeline to storage, events and the
// refresh queue.
package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/ad-tracker/youtube-opportunity-finder/internal/db/models"
	"github.com/ad-tracker/youtube-opportunity-finder/internal/discovery"
	"github.com/ad-tracker/youtube-opportunity-finder/internal/model"
)

// DefaultPromisingMaxSubscribers caps the channel size of the promising view.
const DefaultPromisingMaxSubscribers = 100000

// Searcher runs discovery searches. *discovery.Pipeline implements it.
type Searcher interface {
	RunSearch(ctx context.Context, criteria model.SearchCriteria) (*discovery.Outcome, error)
}

// HistoryRecorder appends search history entries.
type HistoryRecorder interface {
	Create(ctx context.Context, entry *models.SearchHistory) error
}

// OutcomePublisher announces the results of a search.
type OutcomePublisher interface {
	PublishOutcome(ctx context.Context, out *discovery.Outcome) (int, error)
}

// SearchConfig configures SearchService.
type SearchConfig struct {
	PromisingQuery          string
	PromisingMaxSubscribers int64
	Clock                   func() time.Time
	Logger                  *zap.Logger
}

// SearchService runs user searches and the promising view.
type SearchService struct {
	searcher  Searcher
	history   HistoryRecorder
	publisher OutcomePublisher
	cfg       SearchConfig
}

// NewSearchService creates a SearchService. history and publisher may be nil.
func NewSearchService(searcher Searcher, history HistoryRecorder, publisher OutcomePublisher, cfg SearchConfig) *SearchService {
	if cfg.PromisingMaxSubscribers <= 0 {
		cfg.PromisingMaxSubscribers = DefaultPromisingMaxSubscribers
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &SearchService{
		searcher:  searcher,
		history:   history,
		publisher: publisher,
		cfg:       cfg,
	}
}

// Search applies the period preset, runs the pipeline, records the search in
// history and publishes the matched channels. History and publishing
// failures are logged only.
func (s *SearchService) Search(ctx context.Context, criteria model.SearchCriteria, period string) (*discovery.Outcome, error) {
	if err := discovery.ApplyPeriod(&criteria, period, s.cfg.Clock()); err != nil {
		return nil, err
	}

	out, err := s.searcher.RunSearch(ctx, criteria)
	if err != nil {
		return nil, err
	}

	log := s.cfg.Logger.With(zap.String("run_id", out.RunID.String()), zap.String("query", out.Criteria.Query))

	if s.history != nil {
		entry := models.NewSearchHistory(out.RunID, out.Criteria, len(out.Results), len(out.Errors), out.EvaluatedAt)
		if err := s.history.Create(ctx, entry); err != nil {
			log.Warn("failed to record search history", zap.Error(err))
		}
	}

	if s.publisher != nil && len(out.Results) > 0 {
		n, err := s.publisher.PublishOutcome(ctx, out)
		if err != nil {
			log.Warn("failed to publish opportunities", zap.Int("published", n), zap.Error(err))
		}
	}

	return out, nil
}

// Promising runs the configured query restricted to small channels and keeps
// only the Great and Good tiers, best score first.
func (s *SearchService) Promising(ctx context.Context, period string) (*discovery.Outcome, error) {
	maxSubs := s.cfg.PromisingMaxSubscribers
	criteria := model.SearchCriteria{
		Query:          s.cfg.PromisingQuery,
		MaxSubscribers: &maxSubs,
	}
	if err := discovery.ApplyPeriod(&criteria, period, s.cfg.Clock()); err != nil {
		return nil, err
	}

	out, err := s.searcher.RunSearch(ctx, criteria)
	if err != nil {
		return nil, err
	}

	out.Results = discovery.FilterTiers(out.Results, model.TierGreatOpportunity, model.TierGoodOpportunity)
	out.Stats.Matched = len(out.Results)
	return out, nil
}
