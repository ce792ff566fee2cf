package broker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestKafkaProducer_Publish(t *testing.T) {
	w := &fakeWriter{}
	p := &KafkaProducer{writer: w}

	err := p.Publish(context.Background(), "loc-1:O+", map[string]interface{}{"event_type": "DonationRecorded", "units": 2})
	require.NoError(t, err)
	require.Len(t, w.msgs, 1)
	assert.Equal(t, "loc-1:O+", string(w.msgs[0].Key))

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &body))
	assert.Equal(t, "DonationRecorded", body["event_type"])

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestKafkaProducer_PublishErrors(t *testing.T) {
	p := &KafkaProducer{writer: &fakeWriter{err: errors.New("leader not available")}}
	err := p.Publish(context.Background(), "k", "v")
	assert.ErrorContains(t, err, "failed to publish event")

	err = p.Publish(context.Background(), "k", func() {})
	assert.ErrorContains(t, err, "failed to encode event")
}
