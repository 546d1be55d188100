// Package kafka publishes session events to a Kafka topic with segmentio/kafka-go.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/papercomputeco/advisor/pkg/eventstream"
	"github.com/papercomputeco/advisor/pkg/logger"
)

const (
	// DefaultTopic receives session events when no topic is configured.
	DefaultTopic = "advisor.sessions"

	// DefaultWriteTimeout bounds a single publish.
	DefaultWriteTimeout = 10 * time.Second
)

// MessageWriter is the subset of *kafkago.Writer the publisher needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Config configures a Publisher.
type Config struct {
	Brokers []string
	Topic   string

	WriteTimeout time.Duration

	// Writer replaces the kafka-go writer built from Brokers.
	Writer MessageWriter

	Logger *slog.Logger
}

// Publisher writes one JSON message per event, keyed by client name so a
// client's sessions stay ordered within a partition.
type Publisher struct {
	writer  MessageWriter
	topic   string
	timeout time.Duration
	logger  *slog.Logger
}

// NewPublisher builds a Publisher.
func NewPublisher(c Config) (*Publisher, error) {
	topic := c.Topic
	if topic == "" {
		topic = DefaultTopic
	}
	timeout := c.WriteTimeout
	if timeout <= 0 {
		timeout = DefaultWriteTimeout
	}

	writer := c.Writer
	if writer == nil {
		if len(c.Brokers) == 0 {
			return nil, errors.New("kafka publisher requires at least one broker")
		}
		writer = &kafkago.Writer{
			Addr:                   kafkago.TCP(c.Brokers...),
			Topic:                  topic,
			Balancer:               &kafkago.Hash{},
			RequiredAcks:           kafkago.RequireOne,
			AllowAutoTopicCreation: true,
		}
	}

	return &Publisher{
		writer:  writer,
		topic:   topic,
		timeout: timeout,
		logger:  logger.OrNop(c.Logger),
	}, nil
}

// PublishSessionSaved writes event to the topic.
func (p *Publisher) PublishSessionSaved(ctx context.Context, event *eventstream.SessionSavedEvent) error {
	if event == nil {
		return eventstream.ErrNilSessionEvent
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encoding event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	err = p.writer.WriteMessages(ctx, kafkago.Message{
		Key:   []byte(event.ClientName),
		Value: payload,
		Headers: []kafkago.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
			{Key: "schema_version", Value: fmt.Appendf(nil, "%d", event.SchemaVersion)},
		},
	})
	if err != nil {
		return fmt.Errorf("%w: topic %s: %v", eventstream.ErrPublish, p.topic, err)
	}

	p.logger.Debug("published session event",
		"topic", p.topic,
		"event_id", event.EventID,
		"session_id", event.SessionID,
	)
	return nil
}

// Close flushes and closes the writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}

var _ eventstream.Publisher = (*Publisher)(nil)
