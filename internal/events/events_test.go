package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"

	"github.com/aircnc/aircnc-server/pkg/metrics"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed int
}

func (w *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed++
	return nil
}

func TestKafkaPublisher_Publish(t *testing.T) {
	w := &fakeWriter{}
	p := newKafkaPublisher(w)

	ev := New(BookingCreated, "booking-1", map[string]interface{}{"roomId": "room-1"})
	require.NoError(t, p.Publish(context.Background(), ev))
	require.Len(t, w.msgs, 1)

	msg := w.msgs[0]
	require.Equal(t, "booking-1", string(msg.Key))
	require.Equal(t, kafka.Header{Key: "event-type", Value: []byte("booking.created")}, msg.Headers[0])

	var got Event
	require.NoError(t, json.Unmarshal(msg.Value, &got))
	require.Equal(t, ev.ID, got.ID)
	require.Equal(t, BookingCreated, got.Type)
	require.Equal(t, "room-1", got.Data["roomId"])
}

func TestKafkaPublisher_Close(t *testing.T) {
	w := &fakeWriter{}
	p := newKafkaPublisher(w)
	require.NoError(t, p.Close())
	require.NoError(t, p.Close())
	require.Equal(t, 1, w.closed)
	require.ErrorIs(t, p.Publish(context.Background(), New(RoomDeleted, "r", nil)), ErrPublisherClosed)
}

func TestNewKafkaPublisher_Validates(t *testing.T) {
	_, err := NewKafkaPublisher(nil, "topic")
	require.Error(t, err)
	_, err = NewKafkaPublisher([]string{"localhost:9092"}, "")
	require.Error(t, err)

	p, err := NewKafkaPublisher([]string{"localhost:9092"}, "aircnc.events")
	require.NoError(t, err)
	require.NoError(t, p.Close())
}

func TestEmit_SwallowsErrors(t *testing.T) {
	failing := newKafkaPublisher(&fakeWriter{err: errors.New("broker down")})
	before := testutil.ToFloat64(metrics.EventsPublished.WithLabelValues(string(RoomCreated), "error"))

	Emit(context.Background(), failing, New(RoomCreated, "r1", nil))
	Emit(context.Background(), nil, New(RoomCreated, "r1", nil))
	Emit(context.Background(), Noop{}, New(RoomCreated, "r1", nil))

	require.Equal(t, before+1, testutil.ToFloat64(metrics.EventsPublished.WithLabelValues(string(RoomCreated), "error")))
}

// blockingPublisher holds every publish until release is closed or the
// context ends.
type blockingPublisher struct {
	release chan struct{}
	mu      sync.Mutex
	got     []Event
	closed  bool
}

func newBlockingPublisher() *blockingPublisher {
	return &blockingPublisher{release: make(chan struct{})}
}

func (b *blockingPublisher) Publish(ctx context.Context, ev Event) error {
	select {
	case <-b.release:
	case <-ctx.Done():
		return ctx.Err()
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.got = append(b.got, ev)
	return nil
}

func (b *blockingPublisher) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}

func (b *blockingPublisher) delivered() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.got)
}

func TestAsync_PublishDoesNotWaitForBroker(t *testing.T) {
	slow := newBlockingPublisher()
	a := NewAsync(slow, 8, time.Second)

	start := time.Now()
	for i := 0; i < 3; i++ {
		Emit(context.Background(), a, New(RoomCreated, "r", nil))
	}
	require.Less(t, time.Since(start), 100*time.Millisecond)
	require.Equal(t, 0, slow.delivered())

	close(slow.release)
	require.Eventually(t, func() bool { return slow.delivered() == 3 }, time.Second, 5*time.Millisecond)

	require.NoError(t, a.Close())
	require.NoError(t, a.Close())
	require.True(t, slow.closed)
	require.ErrorIs(t, a.Publish(context.Background(), New(RoomDeleted, "r", nil)), ErrPublisherClosed)
}

func TestAsync_QueueFullDrops(t *testing.T) {
	slow := newBlockingPublisher()
	a := NewAsync(slow, 1, 50*time.Millisecond)

	var full bool
	for i := 0; i < 5 && !full; i++ {
		full = errors.Is(a.Publish(context.Background(), New(BookingCreated, "b", nil)), ErrQueueFull)
	}
	require.True(t, full)

	start := time.Now()
	require.NoError(t, a.Close())
	require.Less(t, time.Since(start), time.Second, "close gives up on a stuck broker")
	require.True(t, slow.closed)
}
