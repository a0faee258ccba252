package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/climate-risk-monitor/internal/config"
	"github.com/couchcryptid/climate-risk-monitor/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Writer produces snapshots to a Kafka topic.
// It implements monitor.SnapshotSink.
type Writer struct {
	writer messageWriter
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured snapshot topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSnapshotTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// Publish serializes a snapshot and writes it keyed by location name, so all
// snapshots for a location land on one partition in order.
func (w *Writer) Publish(ctx context.Context, snap domain.Snapshot) error {
	msg, err := serializeToMessage(snap)
	if err != nil {
		return err
	}
	if err := w.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write snapshot %s: %w", snap.ID, err)
	}
	w.logger.Debug("snapshot published", "snapshot_id", snap.ID, "location", snap.Location.Name)
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a Snapshot into a Kafka message.
func serializeToMessage(snap domain.Snapshot) (kafkago.Message, error) {
	data, err := json.Marshal(snap)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize snapshot: %w", err)
	}
	degraded := "false"
	if snap.Degraded() {
		degraded = "true"
	}
	return kafkago.Message{
		Key:   []byte(snap.Location.Name),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "snapshot_id", Value: []byte(snap.ID)},
			{Key: "overall_severity", Value: []byte(snap.Assessment.OverallSeverity)},
			{Key: "degraded", Value: []byte(degraded)},
			{Key: "fetched_at", Value: []byte(snap.FetchedAt.Format(time.RFC3339))},
		},
	}, nil
}
