// Package events publishes room and booking changes for downstream
// consumers. Publishing is best effort: a failed publish never fails the
// request that caused it.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/aircnc/aircnc-server/pkg/logger"
	"github.com/aircnc/aircnc-server/pkg/metrics"
)

type Type string

const (
	RoomCreated       Type = "room.created"
	RoomStatusChanged Type = "room.status_changed"
	RoomDeleted       Type = "room.deleted"
	BookingCreated    Type = "booking.created"
	BookingDeleted    Type = "booking.deleted"
)

// Event is the envelope written to the topic. Key orders events per entity.
type Event struct {
	ID         string                 `json:"id"`
	Type       Type                   `json:"type"`
	Key        string                 `json:"key"`
	OccurredAt time.Time              `json:"occurredAt"`
	Data       map[string]interface{} `json:"data,omitempty"`
}

func New(t Type, key string, data map[string]interface{}) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       t,
		Key:        key,
		OccurredAt: time.Now().UTC(),
		Data:       data,
	}
}

type Publisher interface {
	Publish(ctx context.Context, ev Event) error
	Close() error
}

// Noop drops every event. Used when no broker is configured.
type Noop struct{}

func (Noop) Publish(context.Context, Event) error { return nil }
func (Noop) Close() error                         { return nil }

// Emit publishes ev and records the outcome. Errors are logged, not returned.
func Emit(ctx context.Context, p Publisher, ev Event) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, ev); err != nil {
		metrics.EventsPublished.WithLabelValues(string(ev.Type), "error").Inc()
		logger.Log(logger.LevelWarn, "event publish failed", "type", ev.Type, "key", ev.Key, "err", err)
		return
	}
	metrics.EventsPublished.WithLabelValues(string(ev.Type), "ok").Inc()
}
