// Package events announces domain changes (listings, claims, matches) to
// other services. Publishing is always best-effort.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"shareaplate_backend/internal/config"
)

const (
	TypeListingCreated          = "listing.created"
	TypeListingUpdated          = "listing.updated"
	TypeListingDeleted          = "listing.deleted"
	TypeListingExpired          = "listing.expired"
	TypeClaimCreated            = "claim.created"
	TypeClaimStatusChanged      = "claim.status_changed"
	TypeRecommendationsNotified = "recommendations.notified"
)

// Event is one domain change.
type Event struct {
	Type       string      `json:"type"`
	EntityID   string      `json:"entity_id"`
	ActorID    string      `json:"actor_id,omitempty"`
	Payload    interface{} `json:"payload,omitempty"`
	OccurredAt time.Time   `json:"occurred_at"`
}

// Publisher emits events.
type Publisher interface {
	Publish(ctx context.Context, evt Event) error
}

// KafkaPublisher writes JSON events keyed by entity id, so all events for
// one listing or claim land on the same partition in order.
type KafkaPublisher struct {
	writer *kafka.Writer
	logger *zap.Logger
}

// NewKafkaPublisher creates a writer for the configured topic.
func NewKafkaPublisher(brokers []string, topic string, logger *zap.Logger) *KafkaPublisher {
	log := logger.Named("kafka")
	writer := kafka.NewWriter(kafka.WriterConfig{
		Brokers:      brokers,
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 50 * time.Millisecond,
		Logger: kafka.LoggerFunc(func(msg string, args ...interface{}) {
			log.Debug(fmt.Sprintf(msg, args...))
		}),
		ErrorLogger: kafka.LoggerFunc(func(msg string, args ...interface{}) {
			log.Warn(fmt.Sprintf(msg, args...))
		}),
	})
	return &KafkaPublisher{writer: writer, logger: log}
}

func (p *KafkaPublisher) Publish(ctx context.Context, evt Event) error {
	if evt.OccurredAt.IsZero() {
		evt.OccurredAt = time.Now().UTC()
	}
	value, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal event %s: %w", evt.Type, err)
	}
	if err := p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(evt.EntityID),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(evt.Type)},
		},
	}); err != nil {
		return fmt.Errorf("publish event %s: %w", evt.Type, err)
	}
	return nil
}

// Close flushes pending messages.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// LogPublisher records events in the application log only.
type LogPublisher struct {
	logger *zap.Logger
}

func NewLogPublisher(logger *zap.Logger) *LogPublisher {
	return &LogPublisher{logger: logger.Named("events")}
}

func (p *LogPublisher) Publish(_ context.Context, evt Event) error {
	p.logger.Info("Domain event",
		zap.String("type", evt.Type),
		zap.String("entity_id", evt.EntityID),
		zap.String("actor_id", evt.ActorID),
	)
	return nil
}

// NewPublisher picks Kafka when brokers are configured.
func NewPublisher(cfg *config.Config, logger *zap.Logger) (Publisher, func()) {
	if len(cfg.KafkaBrokers) == 0 {
		return NewLogPublisher(logger), func() {}
	}
	kp := NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaEventsTopic, logger)
	logger.Info("Kafka event publisher configured", zap.Strings("brokers", cfg.KafkaBrokers), zap.String("topic", cfg.KafkaEventsTopic))
	return kp, func() {
		if err := kp.Close(); err != nil {
			logger.Warn("Failed to close Kafka writer", zap.Error(err))
		}
	}
}

// PublishBestEffort publishes evt and logs instead of returning a failure.
func PublishBestEffort(ctx context.Context, p Publisher, logger *zap.Logger, evt Event) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, evt); err != nil {
		logger.Warn("Failed to publish event", zap.String("type", evt.Type), zap.String("entity_id", evt.EntityID), zap.Error(err))
	}
}
