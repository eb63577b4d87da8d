// Package publisher emits opportunity events to RabbitMQ.
package publisher

import (
	"time"

	"github.com/google/uuid"

	"github.com/ad-tracker/youtube-opportunity-finder/internal/discovery"
	"github.com/ad-tracker/youtube-opportunity-finder/internal/model"
)

// OpportunityEvent announces one channel that survived a search run's
// filters.
//
//nolint:govet // fieldalignment: Accept minor memory overhead for better readability
type OpportunityEvent struct {
	ID              uuid.UUID             `json:"id"`
	RunID           uuid.UUID             `json:"run_id"`
	Query           string                `json:"query"`
	ChannelID       string                `json:"channel_id"`
	ChannelTitle    string                `json:"channel_title"`
	ChannelURL      string                `json:"channel_url"`
	SubscriberCount int64                 `json:"subscriber_count"`
	BestScore       float64               `json:"best_score"`
	Tier            model.OpportunityTier `json:"tier"`
	EvaluatedAt     time.Time             `json:"evaluated_at"`
}

// RoutingKey returns the topic key the event is published under,
// e.g. "opportunity.GreatOpportunity".
func (e *OpportunityEvent) RoutingKey() string {
	return "opportunity." + string(e.Tier)
}

// Events builds one event per distinct channel among the outcome's
// filtered results, in result order.
func Events(out *discovery.Outcome) []*OpportunityEvent {
	if out == nil {
		return nil
	}

	snapshots := discovery.Snapshots(out.Results)
	events := make([]*OpportunityEvent, 0, len(snapshots))
	for _, s := range snapshots {
		events = append(events, &OpportunityEvent{
			ID:              uuid.New(),
			RunID:           out.RunID,
			Query:           out.Criteria.Query,
			ChannelID:       s.Channel.ID,
			ChannelTitle:    s.Channel.Title,
			ChannelURL:      s.Channel.URL(),
			SubscriberCount: s.Channel.SubscriberCount,
			BestScore:       s.BestScore,
			Tier:            s.Tier,
			EvaluatedAt:     out.EvaluatedAt,
		})
	}
	return events
}
