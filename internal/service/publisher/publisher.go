package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/ad-tracker/youtube-opportunity-finder/internal/config"
	"github.com/ad-tracker/youtube-opportunity-finder/internal/discovery"
)

const confirmTimeout = 5 * time.Second

// OpportunityPublisher publishes OpportunityEvents to a durable topic
// exchange with publisher confirms.
type OpportunityPublisher struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	confirms chan amqp.Confirmation
	config   *config.RabbitMQConfig
	logger   *zap.Logger
	mu       sync.Mutex
}

// NewOpportunityPublisher dials RabbitMQ and declares the exchange.
func NewOpportunityPublisher(cfg *config.RabbitMQConfig, logger *zap.Logger) (*OpportunityPublisher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &OpportunityPublisher{
		config: cfg,
		logger: logger,
	}

	if err := p.connect(); err != nil {
		return nil, err
	}

	return p, nil
}

func (p *OpportunityPublisher) connect() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	conn, err := amqp.Dial(p.config.URL())
	if err != nil {
		return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("failed to open channel: %w", err)
	}

	// Enable publisher confirms
	if err := ch.Confirm(false); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return fmt.Errorf("failed to enable publisher confirms: %w", err)
	}

	if err := ch.ExchangeDeclare(
		p.config.Exchange, // name
		"topic",           // type
		true,              // durable
		false,             // auto-deleted
		false,             // internal
		false,             // no-wait
		nil,               // arguments
	); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return fmt.Errorf("failed to declare exchange: %w", err)
	}

	p.conn = conn
	p.channel = ch
	p.confirms = ch.NotifyPublish(make(chan amqp.Confirmation, 1))

	p.logger.Info("connected to RabbitMQ", zap.String("exchange", p.config.Exchange))

	return nil
}

// Publish sends a single event and waits for the broker to confirm it.
func (p *OpportunityPublisher) Publish(ctx context.Context, event *OpportunityEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.channel == nil {
		return errors.New("channel is not initialized")
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	// Not mandatory: no queue bound for a tier is not an error.
	err = p.channel.PublishWithContext(
		ctx,
		p.config.Exchange,
		event.RoutingKey(),
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
			MessageId:    event.ID.String(),
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}

	select {
	case confirm, ok := <-p.confirms:
		if !ok {
			return errors.New("channel closed before confirmation")
		}
		if !confirm.Ack {
			return errors.New("message was not acknowledged by broker")
		}
	case <-time.After(confirmTimeout):
		return errors.New("timeout waiting for publish confirmation")
	case <-ctx.Done():
		return ctx.Err()
	}

	p.logger.Debug("published opportunity",
		zap.String("channel_id", event.ChannelID),
		zap.String("routing_key", event.RoutingKey()),
	)

	return nil
}

// PublishOutcome publishes one event per channel in the outcome's results.
// It stops at the first failure.
func (p *OpportunityPublisher) PublishOutcome(ctx context.Context, out *discovery.Outcome) (int, error) {
	events := Events(out)
	for i, e := range events {
		if err := p.Publish(ctx, e); err != nil {
			return i, fmt.Errorf("publish %s: %w", e.ChannelID, err)
		}
	}
	return len(events), nil
}

// Close closes the channel and the connection.
func (p *OpportunityPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var errs []error
	if p.channel != nil {
		if err := p.channel.Close(); err != nil {
			errs = append(errs, err)
		}
		p.channel = nil
	}
	if p.conn != nil {
		if err := p.conn.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("errors closing publisher: %w", err)
	}

	p.logger.Info("RabbitMQ publisher closed")
	return nil
}

// IsHealthy reports whether the connection and channel are open.
func (p *OpportunityPublisher) IsHealthy() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.conn != nil && !p.conn.IsClosed() && p.channel != nil
}
