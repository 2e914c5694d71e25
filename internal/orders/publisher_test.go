package orders

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeOutboxStore struct {
	mu        sync.Mutex
	events    []OutboxEvent
	processed []int64
	fetchErr  error
}

func (s *fakeOutboxStore) FetchUnprocessed(_ context.Context, limit int) ([]OutboxEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fetchErr != nil {
		return nil, s.fetchErr
	}
	var pending []OutboxEvent
	for _, e := range s.events {
		if !s.isProcessed(e.ID) && len(pending) < limit {
			pending = append(pending, e)
		}
	}
	return pending, nil
}

func (s *fakeOutboxStore) MarkProcessed(_ context.Context, eventID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.processed = append(s.processed, eventID)
	return nil
}

func (s *fakeOutboxStore) processedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.processed)
}

func (s *fakeOutboxStore) isProcessed(id int64) bool {
	for _, p := range s.processed {
		if p == id {
			return true
		}
	}
	return false
}

type fakeWriter struct {
	messages []kafka.Message
	failOn   int
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.failOn > 0 && len(w.messages)+1 == w.failOn {
		w.failOn = 0
		return errors.New("broker unavailable")
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func outboxEvents(n int) []OutboxEvent {
	events := make([]OutboxEvent, n)
	for i := range events {
		events[i] = OutboxEvent{
			ID:          int64(i + 1),
			AggregateID: uuid.New(),
			EventType:   EventOrderPlaced,
			Payload:     []byte(`{"order_number":"PM-1"}`),
		}
	}
	return events
}

func TestPublishPending(t *testing.T) {
	store := &fakeOutboxStore{events: outboxEvents(3)}
	writer := &fakeWriter{}
	p := NewOutboxPublisher(store, writer, time.Second)

	n, err := p.PublishPending(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, []int64{1, 2, 3}, store.processed)
	require.Len(t, writer.messages, 3)

	msg := writer.messages[0]
	assert.Equal(t, store.events[0].AggregateID.String(), string(msg.Key))
	assert.JSONEq(t, `{"order_number":"PM-1"}`, string(msg.Value))
	require.Len(t, msg.Headers, 1)
	assert.Equal(t, "event_type", msg.Headers[0].Key)
	assert.Equal(t, EventOrderPlaced, string(msg.Headers[0].Value))
}

func TestPublishPending_StopsAtFirstFailure(t *testing.T) {
	store := &fakeOutboxStore{events: outboxEvents(3)}
	writer := &fakeWriter{failOn: 2}
	p := NewOutboxPublisher(store, writer, time.Second)

	n, err := p.PublishPending(context.Background())

	require.Error(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []int64{1}, store.processed)

	// próxima rodada retoma do evento que falhou
	n, err = p.PublishPending(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []int64{1, 2, 3}, store.processed)
}

func TestPublishPending_FetchError(t *testing.T) {
	store := &fakeOutboxStore{fetchErr: errors.New("db down")}
	p := NewOutboxPublisher(store, &fakeWriter{}, time.Second)

	n, err := p.PublishPending(context.Background())

	assert.Error(t, err)
	assert.Zero(t, n)
}

func TestOutboxPublisher_RunStopsOnCancel(t *testing.T) {
	store := &fakeOutboxStore{events: outboxEvents(1)}
	writer := &fakeWriter{}
	p := NewOutboxPublisher(store, writer, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return store.processedCount() == 1 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publisher did not stop after cancel")
	}
}
