// Package kafka publishes newly observed outage records to a topic for
// downstream consumers (alerting, map refresh). Publishing is optional; the
// pipeline runs without it.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/eneamap/outage-data-etl/internal/domain"
)

// Publisher produces outage records to a Kafka topic, keyed by record id so
// downstream consumers can deduplicate replays.
type Publisher struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewPublisher creates a producer for the given brokers and topic.
func NewPublisher(brokers []string, topic string, logger *slog.Logger) *Publisher {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Publisher{writer: w, logger: logger}
}

// PublishRecords serializes and publishes the records in a single
// WriteMessages call.
func (p *Publisher) PublishRecords(ctx context.Context, records []domain.OutageRecord) error {
	if len(records) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(records))
	for i := range records {
		msg, err := serializeRecord(records[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	return p.writer.WriteMessages(ctx, msgs...)
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

// serializeRecord marshals an outage record into a Kafka message.
func serializeRecord(rec domain.OutageRecord) (kafkago.Message, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize outage record: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(rec.ID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "outage_type", Value: []byte(rec.Type)},
			{Key: "region", Value: []byte(rec.Region)},
		},
	}, nil
}
