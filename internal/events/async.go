package events

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/aircnc/aircnc-server/pkg/logger"
	"github.com/aircnc/aircnc-server/pkg/metrics"
)

var ErrQueueFull = errors.New("events: publish queue is full")

// Async hands events to a background goroutine so a slow broker never holds
// up the request that emitted them. Each delivery gets its own timeout,
// detached from the request context.
type Async struct {
	next    Publisher
	queue   chan Event
	timeout time.Duration

	base   context.Context
	cancel context.CancelFunc
	done   chan struct{}

	mu     sync.RWMutex
	closed bool
}

// NewAsync starts a worker that publishes queued events to next. At most
// buffer events wait; further events are dropped with ErrQueueFull.
func NewAsync(next Publisher, buffer int, timeout time.Duration) *Async {
	if buffer < 1 {
		buffer = 1
	}
	base, cancel := context.WithCancel(context.Background())
	a := &Async{
		next:    next,
		queue:   make(chan Event, buffer),
		timeout: timeout,
		base:    base,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	go a.run()
	return a
}

// Publish queues ev. It never blocks.
func (a *Async) Publish(_ context.Context, ev Event) error {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		return ErrPublisherClosed
	}
	select {
	case a.queue <- ev:
		return nil
	default:
		return ErrQueueFull
	}
}

func (a *Async) run() {
	defer close(a.done)
	for ev := range a.queue {
		ctx, cancel := context.WithTimeout(a.base, a.timeout)
		err := a.next.Publish(ctx, ev)
		cancel()
		if err != nil {
			metrics.EventsPublished.WithLabelValues(string(ev.Type), "delivery_failed").Inc()
			logger.Log(logger.LevelWarn, "event delivery failed", "type", ev.Type, "key", ev.Key, "err", err)
			continue
		}
		metrics.EventsPublished.WithLabelValues(string(ev.Type), "delivered").Inc()
	}
}

// Close stops accepting events and drains the queue. Draining is given one
// delivery timeout; whatever is left after that fails fast. The wrapped
// publisher is closed last. Safe to call more than once.
func (a *Async) Close() error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil
	}
	a.closed = true
	close(a.queue)
	a.mu.Unlock()

	select {
	case <-a.done:
	case <-time.After(a.timeout):
		a.cancel()
		<-a.done
	}
	a.cancel()
	return a.next.Close()
}
