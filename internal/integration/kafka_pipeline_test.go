//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/couchcryptid/outbreak-trends/internal/adapter/csvdir"
	"github.com/couchcryptid/outbreak-trends/internal/adapter/kafka"
	"github.com/couchcryptid/outbreak-trends/internal/domain"
	"github.com/couchcryptid/outbreak-trends/internal/observability"
	"github.com/couchcryptid/outbreak-trends/internal/pipeline"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"
)

const testTopic = "test-region-series"

// publishedMessage holds a deserialized message read from the series topic.
type publishedMessage struct {
	Series  domain.RegionSeries
	Key     string
	Headers map[string]string
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()
	container, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0",
		tckafka.WithClusterID("outbreak-trends-test"),
	)
	testcontainers.CleanupContainer(t, container)
	require.NoError(t, err, "start kafka container")

	brokers, err := container.Brokers(ctx)
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

	ctrl, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err)
	defer ctrl.Close()

	require.NoError(t, ctrl.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

// writeReports writes three daily reports, including one with a duplicated
// region and a downward correction, ending on 2020-03-22.
func writeReports(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	header := "Province/State,Country/Region,Last Update,Confirmed,Deaths,Recovered\n"
	files := map[string]string{
		"03-20-2020.csv": ",Italy,2020-03-20T18:00:00,47021,4032,5129\nHubei,China,2020-03-20T18:00:00,67800,3133,58382\n",
		"03-21-2020.csv": ",Italy,2020-03-21T18:00:00,53578,4825,6072\nHubei,China,2020-03-21T18:00:00,67800,3139,58946\n",
		"03-22-2020.csv": ",Italy,2020-03-22T18:00:00,53000,5476,7024\nHubei,China,2020-03-22T18:00:00,67800,3144,59433\nGuangdong,China,2020-03-22T18:00:00,1400,8,1300\n",
	}
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(header+body), 0o644))
	}
	return dir
}

func readPublished(ctx context.Context, t *testing.T, consumer *kafkago.Reader) publishedMessage {
	t.Helper()
	readCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	msg, err := consumer.ReadMessage(readCtx)
	require.NoError(t, err, "read from series topic")

	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	var s domain.RegionSeries
	require.NoError(t, json.Unmarshal(msg.Value, &s), "unmarshal series message")

	return publishedMessage{Series: s, Key: string(msg.Key), Headers: headers}
}

// TestLoadAndPublish wires csvdir.Source -> Pipeline -> kafka.Writer against a
// real broker and verifies the reconciled series arrive keyed by region.
func TestLoadAndPublish(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	domain.SetClock(clockwork.NewFakeClockAt(time.Date(2020, time.March, 23, 6, 0, 0, 0, time.UTC)))
	t.Cleanup(func() { domain.SetClock(nil) })

	broker := startKafka(ctx, t)
	createTopic(t, broker, testTopic)

	metrics := observability.NewMetricsForTesting()
	p := pipeline.New(csvdir.NewSource(writeReports(t)), discardLogger(), metrics, 30)

	idx, err := p.Load(ctx)
	require.NoError(t, err)
	require.Len(t, idx, 2)

	writer := kafka.NewWriter([]string{broker}, testTopic, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	require.NoError(t, p.Publish(ctx, idx, writer))
	assert.InDelta(t, 2, testutil.ToFloat64(metrics.SeriesPublished), 0)

	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testTopic,
		GroupID:     fmt.Sprintf("test-consumer-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	received := map[string]publishedMessage{}
	for len(received) < 2 {
		pm := readPublished(ctx, t, consumer)
		received[pm.Key] = pm
	}

	italy, ok := received["Italy"]
	require.True(t, ok, "missing Italy message")
	assert.Equal(t, "Italy", italy.Headers["region"])
	_, err = time.Parse(time.RFC3339, italy.Headers["generated_at"])
	assert.NoError(t, err, "generated_at should be valid RFC3339")

	// 53000 on the 22nd is clamped up to the previous day's 53578.
	require.Len(t, italy.Series.Confirmed, 3)
	assert.Equal(t, int64(53578), italy.Series.Confirmed[2].Value)

	// The Hubei and Guangdong rows of the 22nd merge into one observation.
	china := received["China"].Series
	assert.Equal(t, "Hubei", china.Subdivision)
	require.Len(t, china.Confirmed, 3)
	assert.Equal(t, int64(69200), china.Confirmed[2].Value)
	assert.Equal(t, int64(3152), china.Deaths[2].Value)
}
