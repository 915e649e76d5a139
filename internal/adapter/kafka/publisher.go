// Package kafka delivers authorized alert records to the broadcast topic.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/oceanwatch/hazard-report-service/internal/domain"
)

// Publisher produces alert records to a Kafka topic. It implements
// service.AlertSink. Downstream consumers (SMS fan-out, the public feed)
// key on the report id, so repeated alerts for one report land in the same
// partition in order.
type Publisher struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewPublisher creates a Kafka producer for the alert topic.
func NewPublisher(brokers []string, topic string, logger *slog.Logger) *Publisher {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Publisher{writer: w, logger: logger}
}

// Publish serializes and writes one alert record.
func (p *Publisher) Publish(ctx context.Context, rec domain.AlertRecord) error {
	msg, err := serializeToMessage(rec)
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write alert %s: %w", rec.ID, err)
	}
	p.logger.Debug("alert published", "alert_id", rec.ID, "report_id", rec.ReportID)
	return nil
}

// Close flushes and closes the underlying writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}

// serializeToMessage marshals an AlertRecord into a Kafka message.
func serializeToMessage(rec domain.AlertRecord) (kafkago.Message, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize alert record: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(rec.ReportID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "hazard_type", Value: []byte(rec.HazardType)},
			{Key: "severity", Value: []byte(rec.Severity)},
			{Key: "sent_at", Value: []byte(rec.SentAt.Format(time.RFC3339))},
		},
	}, nil
}
