package outbox_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appoutbox "campuschat/internal/app/outbox"
	"campuschat/internal/infra/outbox"
	"campuschat/internal/infra/storage/memory"
)

type published struct {
	topic   string
	key     string
	payload []byte
	headers map[string]string
}

type fakeProducer struct {
	mu   sync.Mutex
	fail error
	sent []published
}

func (p *fakeProducer) Publish(_ context.Context, topic, key string, payload []byte, headers map[string]string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail != nil {
		return p.fail
	}
	p.sent = append(p.sent, published{topic: topic, key: key, payload: payload, headers: headers})
	return nil
}

func stage(t *testing.T, box *memory.Outbox) appoutbox.EventRecord {
	t.Helper()
	rec := appoutbox.EventRecord{
		ID:         "evt-1",
		Name:       "notification.created",
		Payload:    []byte(`{"recipient_id":"H"}`),
		OccurredAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Aggregate:  "conv-1",
		Headers:    map[string]string{"traceparent": "00-abc-def-01"},
	}
	require.NoError(t, box.Add(context.Background(), rec))
	return rec
}

func TestWorker_ProcessOncePublishesCloudEvent(t *testing.T) {
	box := memory.NewOutbox()
	stage(t, box)
	producer := &fakeProducer{}
	w := &outbox.Worker{Store: box, Producer: producer, TopicPrefix: "campuschat.", ID: "w1"}

	relayed, err := w.ProcessOnce(context.Background())
	require.NoError(t, err)
	assert.True(t, relayed)
	require.Len(t, producer.sent, 1)

	msg := producer.sent[0]
	assert.Equal(t, "campuschat.notification.events.v1", msg.topic)
	assert.Equal(t, "conv-1", msg.key)
	assert.Equal(t, "evt-1", msg.headers["ce-id"])
	assert.Equal(t, "application/cloudevents+json", msg.headers["content-type"])

	evt, err := outbox.DecodeCloudEvent(msg.payload)
	require.NoError(t, err)
	assert.Equal(t, "evt-1", evt.ID)
	assert.Equal(t, "notification.created.v1", evt.Type)
	assert.Equal(t, "00-abc-def-01", evt.TraceParent)
	assert.JSONEq(t, `{"recipient_id":"H"}`, string(evt.Data))

	assert.Zero(t, box.Pending())
	relayed, err = w.ProcessOnce(context.Background())
	require.NoError(t, err)
	assert.False(t, relayed)
}

func TestWorker_PublishFailureSchedulesRetry(t *testing.T) {
	box := memory.NewOutbox()
	stage(t, box)
	producer := &fakeProducer{fail: errors.New("broker down")}
	w := &outbox.Worker{Store: box, Producer: producer, ID: "w1", Backoff: []time.Duration{time.Hour}}

	relayed, err := w.ProcessOnce(context.Background())
	require.NoError(t, err)
	assert.True(t, relayed)
	assert.Equal(t, 1, box.Pending())

	relayed, err = w.ProcessOnce(context.Background())
	require.NoError(t, err)
	assert.False(t, relayed, "record should wait for its backoff")
}

func TestWorker_RunDrainsOnWake(t *testing.T) {
	box := memory.NewOutbox()
	producer := &fakeProducer{}
	w := &outbox.Worker{Store: box, Producer: producer, Wake: box.Wake(), Interval: time.Hour}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	stage(t, box)
	require.NoError(t, box.Flush(ctx))
	assert.Eventually(t, func() bool {
		producer.mu.Lock()
		defer producer.mu.Unlock()
		return len(producer.sent) == 1
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestWorker_RequiresDependencies(t *testing.T) {
	err := (&outbox.Worker{}).Run(context.Background())
	assert.ErrorIs(t, err, outbox.ErrWorkerNotConfigured)
}
