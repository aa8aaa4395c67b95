// Package events publishes domain events about content and exams.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-kafka/v2/pkg/kafka"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
)

// Topic names.
const (
	TopicContentSaved   = "content.saved"
	TopicContentDeleted = "content.deleted"
	TopicExamGenerated  = "exam.generated"
	TopicExamSubmitted  = "exam.submitted"
)

// Event is the JSON payload of every message.
type Event struct {
	ID        string         `json:"id"`
	Type      string         `json:"type"`
	UserID    int64          `json:"user_id"`
	Timestamp time.Time      `json:"timestamp"`
	Data      map[string]any `json:"data,omitempty"`
}

// Publisher sends events. Publish failures are logged and returned but
// callers treat them as non-fatal.
type Publisher struct {
	pub    message.Publisher
	logger *slog.Logger
}

// Config selects the transport. With no brokers events go to an in-process channel.
type Config struct {
	KafkaBrokers []string
	Logger       *slog.Logger
}

// New creates a Publisher, returning the in-process pub/sub as well so
// that in-process subscribers can attach. The returned pub/sub is nil when
// Kafka is used.
func New(cfg Config) (*Publisher, *gochannel.GoChannel, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	wmLogger := watermill.NewSlogLogger(cfg.Logger)

	if len(cfg.KafkaBrokers) > 0 {
		pub, err := kafka.NewPublisher(kafka.PublisherConfig{
			Brokers:   cfg.KafkaBrokers,
			Marshaler: kafka.DefaultMarshaler{},
		}, wmLogger)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create Kafka publisher: %w", err)
		}
		cfg.Logger.Info("publishing events to kafka", "brokers", cfg.KafkaBrokers)
		return &Publisher{pub: pub, logger: cfg.Logger}, nil, nil
	}

	ch := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 64}, wmLogger)
	return &Publisher{pub: ch, logger: cfg.Logger}, ch, nil
}

// NewWithPublisher wraps an existing watermill publisher.
func NewWithPublisher(pub message.Publisher, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{pub: pub, logger: logger}
}

// Publish sends an event of the given type on the topic of the same name.
func (p *Publisher) Publish(ctx context.Context, topic string, userID int64, data map[string]any) error {
	if p == nil {
		return nil
	}
	ev := Event{
		ID:        uuid.NewString(),
		Type:      topic,
		UserID:    userID,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	msg := message.NewMessage(ev.ID, payload)
	msg.SetContext(ctx)
	msg.Metadata.Set("event_type", ev.Type)
	msg.Metadata.Set("timestamp", ev.Timestamp.Format(time.RFC3339))

	if err := p.pub.Publish(topic, msg); err != nil {
		p.logger.Error("failed to publish event", "event_id", ev.ID, "topic", topic, "error", err)
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	p.logger.Debug("published event", "event_id", ev.ID, "topic", topic)
	return nil
}

// Close releases the underlying publisher.
func (p *Publisher) Close() error {
	if p == nil {
		return nil
	}
	return p.pub.Close()
}

// Decode parses an event from a received message.
func Decode(msg *message.Message) (Event, error) {
	var ev Event
	if err := json.Unmarshal(msg.Payload, &ev); err != nil {
		return Event{}, fmt.Errorf("decode event %s: %w", msg.UUID, err)
	}
	return ev, nil
}
