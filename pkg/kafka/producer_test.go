package kafka

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProducer_RequiresBrokers(t *testing.T) {
	_, err := NewProducer(context.Background(), &ProducerConfig{})
	assert.Error(t, err)

	_, err = NewProducer(context.Background(), nil)
	assert.Error(t, err)
}

func TestNewRecord(t *testing.T) {
	rec := newRecord(&Message{
		Topic:   "event.changelog",
		Key:     []byte("evt-1"),
		Value:   []byte(`{"action":"update"}`),
		Headers: map[string]string{"event_id": "evt-1"},
	})

	assert.Equal(t, "event.changelog", rec.Topic)
	assert.Equal(t, "evt-1", string(rec.Key))
	require.Len(t, rec.Headers, 1)
	assert.Equal(t, "event_id", rec.Headers[0].Key)
	assert.Equal(t, "evt-1", string(rec.Headers[0].Value))
}

func TestProducer_Integration(t *testing.T) {
	if os.Getenv("INTEGRATION_TEST") != "true" {
		t.Skip("Skipping integration test. Set INTEGRATION_TEST=true to run")
	}

	brokers := []string{"localhost:9092"}
	if b := os.Getenv("TEST_KAFKA_BROKERS"); b != "" {
		brokers = strings.Split(b, ",")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	producer, err := NewProducer(ctx, &ProducerConfig{
		Brokers:       brokers,
		ClientID:      "event-planner-test",
		MaxRetries:    1,
		RetryInterval: time.Second,
	})
	require.NoError(t, err)
	defer producer.Close()

	err = producer.ProduceJSON(ctx, "event.changelog.test", "evt-1", map[string]string{"action": "create"}, nil)
	assert.NoError(t, err)
}
