package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/rawpurplesmurf/qso-map/internal/config"
	"github.com/rawpurplesmurf/qso-map/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Writer publishes parsed contacts to a Kafka topic.
// It implements domain.ContactPublisher.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured contacts topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.KafkaBrokers...),
		Topic:                  cfg.KafkaTopic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return &Writer{writer: w, logger: logger}
}

// Publish serializes and writes all events in a single WriteMessages call.
// Events of one upload share a partition so consumers see them in log order.
func (w *Writer) Publish(ctx context.Context, events []domain.ContactEvent) error {
	if len(events) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(events))
	for i := range events {
		msg, err := serializeToMessage(events[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish contacts: %w", err)
	}
	w.logger.Debug("contacts published", "count", len(msgs), "topic", w.writer.Topic)
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a ContactEvent into a Kafka message keyed by
// its upload.
func serializeToMessage(event domain.ContactEvent) (kafkago.Message, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize contact event: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(event.UploadID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "upload_id", Value: []byte(event.UploadID)},
			{Key: "qso_date", Value: []byte(event.QSODate)},
			{Key: "index", Value: []byte(strconv.Itoa(event.Index))},
		},
	}, nil
}
