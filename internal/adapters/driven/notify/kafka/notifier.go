// Package kafka publishes stage events to a Kafka topic so downstream
// consumers (chunking, embedding) can react when a document advances.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/custodia-labs/docstruct/internal/core/domain"
	"github.com/custodia-labs/docstruct/internal/core/ports/driven"
	"github.com/custodia-labs/docstruct/internal/logger"
)

// Ensure Notifier implements the interface.
var _ driven.StageNotifier = (*Notifier)(nil)

// messageWriter is the part of *kafkago.Writer the notifier uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Notifier writes one message per stage event, keyed by document id so
// all events of a document land on the same partition in order.
type Notifier struct {
	writer messageWriter
	topic  string
}

// New creates a notifier for the given brokers and topic.
func New(brokers []string, topic string) (*Notifier, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("%w: kafka brokers are required", domain.ErrInvalidInput)
	}
	if topic == "" {
		return nil, fmt.Errorf("%w: kafka topic is required", domain.ErrInvalidInput)
	}
	writer := kafkago.NewWriter(kafkago.WriterConfig{
		Brokers:  brokers,
		Topic:    topic,
		Balancer: &kafkago.LeastBytes{},
	})
	return newWithWriter(writer, topic), nil
}

func newWithWriter(w messageWriter, topic string) *Notifier {
	return &Notifier{writer: w, topic: topic}
}

// Notify publishes the event as JSON.
func (n *Notifier) Notify(ctx context.Context, event domain.StageEvent) error {
	if event.DocID == "" {
		return fmt.Errorf("%w: event has no document id", domain.ErrInvalidInput)
	}
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encoding stage event: %w", err)
	}

	err = n.writer.WriteMessages(ctx, kafkago.Message{
		Key:   []byte(event.DocID),
		Value: value,
	})
	if err != nil {
		logger.WithFields(logger.Fields{
			"doc_id": event.DocID,
			"stage":  event.Stage,
			"topic":  n.topic,
		}).Warnf("failed to publish stage event: %v", err)
		return fmt.Errorf("publishing stage event: %w", err)
	}
	return nil
}

// Close flushes and closes the writer.
func (n *Notifier) Close() error {
	return n.writer.Close()
}
