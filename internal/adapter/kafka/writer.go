package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/outbreak-trends/internal/domain"
	"github.com/jonboulle/clockwork"
	kafkago "github.com/segmentio/kafka-go"
)

// Writer produces reconciled region series to a Kafka topic.
// It implements pipeline.SeriesSink.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
	clock  clockwork.Clock
}

// NewWriter creates a Kafka producer for the given brokers and topic.
func NewWriter(brokers []string, topic string, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger, clock: clockwork.NewRealClock()}
}

// LoadBatch serializes and publishes the series in a single WriteMessages
// call. Messages are keyed by region so a compacted topic keeps the latest.
func (w *Writer) LoadBatch(ctx context.Context, series []*domain.RegionSeries) error {
	if len(series) == 0 {
		return nil
	}
	generatedAt := w.clock.Now().UTC()
	msgs := make([]kafkago.Message, len(series))
	for i, s := range series {
		msg, err := serializeToMessage(s, generatedAt)
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("write %d messages to %s: %w", len(msgs), w.writer.Topic, err)
	}
	w.logger.Debug("kafka batch written", "topic", w.writer.Topic, "messages", len(msgs))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a RegionSeries into a Kafka message.
func serializeToMessage(s *domain.RegionSeries, generatedAt time.Time) (kafkago.Message, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize region series: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(s.Region),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "region", Value: []byte(s.Region)},
			{Key: "generated_at", Value: []byte(generatedAt.Format(time.RFC3339))},
		},
	}, nil
}
