package kafka

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *captureWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.msgs = append(w.msgs, msgs...)
	return w.err
}

func (w *captureWriter) Close() error {
	w.closed = true
	return nil
}

func TestPublishEncodesJSON(t *testing.T) {
	w := &captureWriter{}
	p := NewProducerWithWriter(w, "gzip")

	err := p.Publish(context.Background(), "model-events", []byte("nav_predictor"), map[string]string{"type": "model.saved"})
	require.NoError(t, err)
	require.Len(t, w.msgs, 1)
	assert.Equal(t, "model-events", w.msgs[0].Topic)
	assert.Equal(t, []byte("nav_predictor"), w.msgs[0].Key)
	assert.JSONEq(t, `{"type":"model.saved"}`, string(w.msgs[0].Value))

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestPublishPassesRawBytes(t *testing.T) {
	w := &captureWriter{}
	p := NewProducerWithWriter(w, "gzip")

	require.NoError(t, p.Publish(context.Background(), "t", nil, []byte("raw")))
	assert.Equal(t, "raw", string(w.msgs[0].Value))
}

func TestPublishReturnsWriterError(t *testing.T) {
	p := NewProducerWithWriter(&captureWriter{err: errors.New("leader not available")}, "gzip")
	err := p.Publish(context.Background(), "t", nil, "x")
	require.Error(t, err)
}

func TestNewProducerAppliesWriterOptions(t *testing.T) {
	p, err := NewProducer(
		WithBrokers([]string{"localhost:9092"}),
		WithBatchTimeout(5*time.Millisecond),
		WithMaxAttempts(7),
	)
	require.NoError(t, err)
	w, ok := p.writer.(*kafka.Writer)
	require.True(t, ok)
	assert.Equal(t, 5*time.Millisecond, w.BatchTimeout)
	assert.Equal(t, 7, w.MaxAttempts)
	require.NoError(t, p.Close())
}

func TestNewProducerRequiresBrokers(t *testing.T) {
	_, err := NewProducer()
	require.Error(t, err)
}

func TestParseCompression(t *testing.T) {
	assert.Equal(t, kafka.Snappy, parseCompression("snappy"))
	assert.Equal(t, kafka.Zstd, parseCompression("zstd"))
	assert.Equal(t, kafka.Gzip, parseCompression("unknown"))
}
