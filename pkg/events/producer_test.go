package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/fern/pkg/models"
)

type fakeWriter struct {
	messages []kafka.Message
	err      error
	closed   bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.messages = append(f.messages, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func noopLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

func TestPublishRunCompleted(t *testing.T) {
	writer := &fakeWriter{}
	producer := NewProducerWithWriter(writer, "enrichment-events", noopLogger())

	err := producer.PublishRunCompleted(context.Background(), models.RunCompletedEvent{
		RunID:           "run-1",
		SnapshotVersion: "snap-1",
		NameField:       "name",
		Stats:           models.RunStats{Uploaded: 3, Exact: 2, Output: 3},
	})
	require.NoError(t, err)
	require.Len(t, writer.messages, 1)

	msg := writer.messages[0]
	assert.Equal(t, "enrichment-events", msg.Topic)
	assert.Equal(t, "run-1", string(msg.Key))
	assert.Equal(t, EventTypeRunCompleted, string(msg.Headers[0].Value))

	var decoded models.RunCompletedEvent
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, 3, decoded.Stats.Uploaded)
	assert.False(t, decoded.CompletedAt.IsZero())

	require.NoError(t, producer.Close())
	assert.True(t, writer.closed)
}

func TestPublishRunCompleted_WriteError(t *testing.T) {
	writer := &fakeWriter{err: errors.New("broker down")}
	producer := NewProducerWithWriter(writer, "enrichment-events", noopLogger())

	err := producer.PublishRunCompleted(context.Background(), models.RunCompletedEvent{RunID: "run-1"})
	assert.EqualError(t, err, "broker down")
}

func TestCompressionCodec(t *testing.T) {
	assert.Equal(t, kafka.Gzip, compressionCodec("gzip"))
	assert.Equal(t, kafka.Zstd, compressionCodec("zstd"))
	assert.Equal(t, kafka.Compression(0), compressionCodec("none"))
	assert.Equal(t, kafka.Snappy, compressionCodec(""))
}
