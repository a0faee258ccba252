//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/couchcryptid/climate-risk-monitor/internal/adapter/kafka"
	"github.com/couchcryptid/climate-risk-monitor/internal/adapter/provider"
	"github.com/couchcryptid/climate-risk-monitor/internal/config"
	"github.com/couchcryptid/climate-risk-monitor/internal/domain"
	"github.com/couchcryptid/climate-risk-monitor/internal/monitor"
	"github.com/couchcryptid/climate-risk-monitor/internal/observability"
	"github.com/jonboulle/clockwork"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	kafkatc "github.com/testcontainers/testcontainers-go/modules/kafka"
)

const testSnapshotTopic = "test-snapshots"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startKafka runs a single-node Kafka container and returns its broker address.
func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()
	ctr, err := kafkatc.Run(ctx, "confluentinc/confluent-local:7.5.0", kafkatc.WithClusterID("test-cluster"))
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() { _ = ctr.Terminate(context.Background()) })

	brokers, err := ctr.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	return brokers[0]
}

func createTopic(t *testing.T, broker, topic string) {
	t.Helper()
	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)
	ctrlConn, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err)
	defer ctrlConn.Close()

	require.NoError(t, ctrlConn.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

// fakeProvider serves the provider API. Locations containing "Garissa" run
// hot and raise the heat trigger.
func fakeProvider(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /weather/{loc}", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"temperature":97,"humidity":30,"windSpeed":8,"condition":"Sunny","uvIndex":11,"airQuality":"Good"}`)
	})
	mux.HandleFunc("GET /risk-assessment/{loc}", func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.PathValue("loc"), "Garissa") {
			_, _ = io.WriteString(w, `{"overallRisk":78,"factors":[{"type":"Heat Risk","level":88,"trend":"increasing"}]}`)
			return
		}
		_, _ = io.WriteString(w, `{"overallRisk":22,"factors":[{"type":"Flood Risk","level":20,"trend":"decreasing"}]}`)
	})
	mux.HandleFunc("GET /alerts/{loc}", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `[]`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

type publishedSnapshot struct {
	Snapshot domain.Snapshot
	Key      string
	Headers  map[string]string
}

func readSnapshot(ctx context.Context, t *testing.T, consumer *kafkago.Reader) publishedSnapshot {
	t.Helper()
	readCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	msg, err := consumer.ReadMessage(readCtx)
	require.NoError(t, err, "read from snapshot topic")

	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	var snap domain.Snapshot
	require.NoError(t, json.Unmarshal(msg.Value, &snap), "unmarshal snapshot")
	return publishedSnapshot{Snapshot: snap, Key: string(msg.Key), Headers: headers}
}

// TestMonitorPublishesSnapshots runs the refresher against a fake provider
// with the Kafka writer as its sink and reads the snapshots back.
func TestMonitorPublishesSnapshots(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testSnapshotTopic)

	cfg := &config.Config{
		KafkaBrokers:       []string{broker},
		KafkaSnapshotTopic: testSnapshotTopic,
	}
	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	metrics := observability.NewMetricsForTesting()
	client := provider.NewClient(fakeProvider(t).URL, "anon", 5*time.Second, metrics, discardLogger())

	refresher := monitor.New(monitor.Options{
		Provider: client,
		Sinks:    []monitor.SnapshotSink{writer},
		Location: domain.Location{Name: "Garissa, Kenya", Lat: -0.4535, Lon: 39.6594},
		Interval: time.Hour,
		Clock:    clockwork.NewRealClock(),
		Logger:   discardLogger(),
		Metrics:  metrics,
	})

	runCtx, runCancel := context.WithCancel(ctx)
	errCh := make(chan error, 1)
	go func() { errCh <- refresher.Run(runCtx) }()

	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testSnapshotTopic,
		GroupID:     fmt.Sprintf("test-snapshots-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	first := readSnapshot(ctx, t, consumer)
	assert.Equal(t, "Garissa, Kenya", first.Key)
	assert.Equal(t, "high", first.Headers["overall_severity"])
	assert.Equal(t, "false", first.Headers["degraded"])
	assert.Equal(t, first.Snapshot.ID, first.Headers["snapshot_id"])
	_, err := time.Parse(time.RFC3339, first.Headers["fetched_at"])
	assert.NoError(t, err, "fetched_at should be valid RFC3339")
	assert.Equal(t, domain.InsightHighUrgency, first.Snapshot.Insight)
	require.Len(t, first.Snapshot.Assessment.Factors, 1)
	assert.Equal(t, domain.SeverityExtreme, first.Snapshot.Assessment.Factors[0].Severity)

	require.True(t, refresher.Select(domain.Location{Name: "Wajir, Kenya"}))

	second := readSnapshot(ctx, t, consumer)
	assert.Equal(t, "Wajir, Kenya", second.Key)
	assert.Equal(t, "low", second.Headers["overall_severity"])
	assert.Equal(t, uint64(1), second.Snapshot.Generation)
	assert.Equal(t, domain.InsightLowUrgency, second.Snapshot.Insight)
	assert.Len(t, second.Snapshot.Actions, 6)

	runCancel()
	require.NoError(t, <-errCh)
}
