//go:build integration
// +build integration

package publisher

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/rabbitmq"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/ad-tracker/youtube-opportunity-finder/internal/config"
	"github.com/ad-tracker/youtube-opportunity-finder/internal/discovery"
	"github.com/ad-tracker/youtube-opportunity-finder/internal/model"
)

func setupTestRabbitMQ(t *testing.T) *config.RabbitMQConfig {
	t.Helper()
	ctx := context.Background()

	container, err := rabbitmq.Run(ctx,
		"rabbitmq:3.13-alpine",
		testcontainers.WithWaitStrategy(
			wait.ForLog("Server startup complete").
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "failed to start rabbitmq container")
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5672/tcp")
	require.NoError(t, err)

	return &config.RabbitMQConfig{
		Host:     host,
		Port:     port.Int(),
		User:     "guest",
		Password: "guest",
		Exchange: "test.opportunities",
	}
}

// bindQueue declares an exclusive queue bound to routingKey and returns its deliveries.
func bindQueue(t *testing.T, cfg *config.RabbitMQConfig, routingKey string) <-chan amqp.Delivery {
	t.Helper()

	conn, err := amqp.Dial(cfg.URL())
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	ch, err := conn.Channel()
	require.NoError(t, err)

	q, err := ch.QueueDeclare("", false, true, true, false, nil)
	require.NoError(t, err)
	require.NoError(t, ch.QueueBind(q.Name, routingKey, cfg.Exchange, false, nil))

	deliveries, err := ch.Consume(q.Name, "", true, true, false, false, nil)
	require.NoError(t, err)
	return deliveries
}

func TestOpportunityPublisher_PublishOutcome(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	cfg := setupTestRabbitMQ(t)

	p, err := NewOpportunityPublisher(cfg, nil)
	require.NoError(t, err)
	defer p.Close()

	great := bindQueue(t, cfg, "opportunity.GreatOpportunity")

	out := &discovery.Outcome{
		RunID:       uuid.New(),
		Criteria:    model.SearchCriteria{Query: "indie games"},
		EvaluatedAt: time.Now().UTC(),
		Results: []model.ScoredResult{
			{
				Video:   model.VideoRecord{ID: "vid00000001", ChannelID: "UCgreat"},
				Channel: model.ChannelRecord{ID: "UCgreat", Title: "Great"},
				Score:   42,
				Tier:    model.TierGreatOpportunity,
			},
			{
				Video:   model.VideoRecord{ID: "vid00000002", ChannelID: "UCsat"},
				Channel: model.ChannelRecord{ID: "UCsat", Title: "Saturated"},
				Score:   1,
				Tier:    model.TierSaturated,
			},
		},
	}

	n, err := p.PublishOutcome(context.Background(), out)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	select {
	case d := <-great:
		var event OpportunityEvent
		require.NoError(t, json.Unmarshal(d.Body, &event))
		assert.Equal(t, "UCgreat", event.ChannelID)
		assert.Equal(t, out.RunID, event.RunID)
		assert.Equal(t, "application/json", d.ContentType)
	case <-time.After(10 * time.Second):
		t.Fatal("no event delivered for the great tier")
	}
}

func TestOpportunityPublisher_IsHealthy(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	cfg := setupTestRabbitMQ(t)

	p, err := NewOpportunityPublisher(cfg, nil)
	require.NoError(t, err)

	assert.True(t, p.IsHealthy())

	require.NoError(t, p.Close())
	assert.False(t, p.IsHealthy())

	err = p.Publish(context.Background(), &OpportunityEvent{ID: uuid.New(), Tier: model.TierGoodOpportunity})
	assert.Error(t, err)
}
