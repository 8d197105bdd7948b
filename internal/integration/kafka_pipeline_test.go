//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/rawpurplesmurf/qso-map/internal/adapter/kafka"
	"github.com/rawpurplesmurf/qso-map/internal/config"
	"github.com/rawpurplesmurf/qso-map/internal/domain"
	"github.com/rawpurplesmurf/qso-map/internal/observability"
	"github.com/rawpurplesmurf/qso-map/internal/pipeline"
	"github.com/rawpurplesmurf/qso-map/internal/render"
	"github.com/rawpurplesmurf/qso-map/internal/store"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"
)

const testTopic = "test-qso-contacts"

const sampleLog = `test log <EOH>
<CALL:6>DL1ABC<QSO_DATE:8>20220115<STATION_CALLSIGN:5>W7ABC<MY_GRIDSQUARE:6>CN86rx<GRIDSQUARE:4>JO65<EOR>
<CALL:5>G0XYZ<QSO_DATE:8>20220116<STATION_CALLSIGN:5>W7ABC<MY_GRIDSQUARE:6>CN86rx<EOR>`

type noGeometry struct{}

func (noGeometry) Geometry(context.Context, string) (*domain.FeatureCollection, error) {
	return nil, errors.New("geometry not used")
}

// publishedMessage holds a deserialized message read back from the topic.
type publishedMessage struct {
	Event   domain.ContactEvent
	Key     string
	Headers map[string]string
}

func readPublished(ctx context.Context, t *testing.T, consumer *kafkago.Reader) publishedMessage {
	t.Helper()
	readCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	msg, err := consumer.ReadMessage(readCtx)
	require.NoError(t, err, "read from contacts topic")

	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	var event domain.ContactEvent
	require.NoError(t, json.Unmarshal(msg.Value, &event), "unmarshal contact event")

	return publishedMessage{Event: event, Key: string(msg.Key), Headers: headers}
}

// TestIngestPublishesContacts runs an upload through the pipeline with a real
// Kafka writer and reads the contacts back in log order.
func TestIngestPublishesContacts(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testTopic)

	cfg := &config.Config{KafkaBrokers: []string{broker}, KafkaTopic: testTopic}
	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	metrics := observability.NewMetricsForTesting()
	p := pipeline.New(store.New(4), noGeometry{}, writer, render.DefaultOptions(), discardLogger(), metrics)

	upload, err := p.Ingest(ctx, "log.adi", strings.NewReader(sampleLog))
	require.NoError(t, err)

	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testTopic,
		StartOffset: kafkago.FirstOffset,
		MaxWait:     500 * time.Millisecond,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	first := readPublished(ctx, t, consumer)
	assert.Equal(t, upload.ID.String(), first.Key)
	assert.Equal(t, upload.ID.String(), first.Headers["upload_id"])
	assert.Equal(t, "20220115", first.Headers["qso_date"])
	assert.Equal(t, "DL1ABC", first.Event.Call)
	require.NotNil(t, first.Event.To)
	assert.InDelta(t, 55, first.Event.To.Lat, 1e-9)
	assert.Equal(t, "JO65", first.Event.Record.Get("GRIDSQUARE"))

	second := readPublished(ctx, t, consumer)
	assert.Equal(t, "G0XYZ", second.Event.Call)
	assert.Equal(t, "1", second.Headers["index"])
	assert.NotNil(t, second.Event.From)
	assert.Nil(t, second.Event.To, "contacted side has no locator")
}

func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()
	container, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0", tckafka.WithClusterID("qso-map-test"))
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

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
