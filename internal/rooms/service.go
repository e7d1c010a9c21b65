// Package rooms implements room listing and the host-side room lifecycle.
package rooms

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aircnc/aircnc-server/internal/events"
	"github.com/aircnc/aircnc-server/internal/store"
	"github.com/aircnc/aircnc-server/pkg/apperrors"
	"github.com/aircnc/aircnc-server/pkg/validation"
)

// Room fields the service reads or writes.
const (
	HostEmailField = "host.email"
	BookedField    = "booked"
)

type Service struct {
	rooms    store.Collection
	bookings store.Collection
	events   events.Publisher
}

func NewService(s store.Store, pub events.Publisher) *Service {
	if pub == nil {
		pub = events.Noop{}
	}
	return &Service{rooms: s.Rooms(), bookings: s.Bookings(), events: pub}
}

func parseID(id string) (store.Filter, error) {
	oid, err := store.ParseID(strings.TrimSpace(id))
	if err != nil {
		return nil, apperrors.ValidationWrap(err, "invalid room id")
	}
	return store.ByID(oid), nil
}

// List returns one page of all rooms.
func (s *Service) List(ctx context.Context, page store.Page) ([]store.Document, error) {
	docs, err := s.rooms.FindMany(ctx, store.Filter{}, page)
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	return docs, nil
}

// ListByHost returns one page of the rooms hosted by email.
func (s *Service) ListByHost(ctx context.Context, email string, page store.Page) ([]store.Document, error) {
	email = strings.TrimSpace(email)
	if !validation.Email(email) {
		return nil, apperrors.Validation("invalid email")
	}
	docs, err := s.rooms.FindMany(ctx, store.Filter{HostEmailField: email}, page)
	if err != nil {
		return nil, fmt.Errorf("list host rooms: %w", err)
	}
	return docs, nil
}

// Get returns the room with the given hex id, or nil when there is none.
func (s *Service) Get(ctx context.Context, id string) (store.Document, error) {
	filter, err := parseID(id)
	if err != nil {
		return nil, err
	}
	doc, err := s.rooms.FindOne(ctx, filter)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find room: %w", err)
	}
	return doc, nil
}

// Create inserts a room hosted by caller. host.email must be the caller's email.
func (s *Service) Create(ctx context.Context, caller string, doc store.Document) (store.InsertResult, error) {
	if len(doc) == 0 {
		return store.InsertResult{}, apperrors.Validation("room body is required")
	}
	host := strings.TrimSpace(hostEmail(doc))
	if host == "" {
		return store.InsertResult{}, apperrors.Validation("host.email is required")
	}
	if !owns(host, caller) {
		return store.InsertResult{}, apperrors.Forbidden()
	}
	res, err := s.rooms.InsertOne(ctx, doc)
	if err != nil {
		return store.InsertResult{}, fmt.Errorf("insert room: %w", err)
	}
	events.Emit(ctx, s.events, events.New(events.RoomCreated, res.InsertedID, map[string]interface{}{
		"host": host,
	}))
	return res, nil
}

// SetStatus changes only the booked flag of a room. The room's host may set
// it, and so may a guest holding a booking for the room.
func (s *Service) SetStatus(ctx context.Context, caller, id string, booked bool) (store.UpdateResult, error) {
	filter, err := parseID(id)
	if err != nil {
		return store.UpdateResult{}, err
	}
	room, err := s.rooms.FindOne(ctx, filter)
	if errors.Is(err, store.ErrNotFound) {
		return store.UpdateResult{Acknowledged: true}, nil
	}
	if err != nil {
		return store.UpdateResult{}, fmt.Errorf("find room: %w", err)
	}
	if !owns(hostEmail(room), caller) {
		ok, err := s.hasBooking(ctx, caller, strings.TrimSpace(id))
		if err != nil {
			return store.UpdateResult{}, err
		}
		if !ok {
			return store.UpdateResult{}, apperrors.Forbidden()
		}
	}

	res, err := s.rooms.UpdateFields(ctx, filter, store.Document{BookedField: booked})
	if err != nil {
		return store.UpdateResult{}, fmt.Errorf("update room status: %w", err)
	}
	if res.ModifiedCount > 0 {
		events.Emit(ctx, s.events, events.New(events.RoomStatusChanged, strings.TrimSpace(id), map[string]interface{}{
			"booked": booked,
		}))
	}
	return res, nil
}

// hasBooking reports whether guest holds a booking for the room with hex id.
func (s *Service) hasBooking(ctx context.Context, guest, id string) (bool, error) {
	if guest == "" {
		return false, nil
	}
	_, err := s.bookings.FindOne(ctx, store.Filter{"roomId": id, "guest.email": guest})
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("find booking: %w", err)
	}
	return true, nil
}

// Delete removes a room. Only its host may delete it.
func (s *Service) Delete(ctx context.Context, caller, id string) (store.DeleteResult, error) {
	filter, err := parseID(id)
	if err != nil {
		return store.DeleteResult{}, err
	}
	room, err := s.rooms.FindOne(ctx, filter)
	if errors.Is(err, store.ErrNotFound) {
		return store.DeleteResult{Acknowledged: true}, nil
	}
	if err != nil {
		return store.DeleteResult{}, fmt.Errorf("find room: %w", err)
	}
	if !owns(hostEmail(room), caller) {
		return store.DeleteResult{}, apperrors.Forbidden()
	}

	res, err := s.rooms.DeleteOne(ctx, filter)
	if err != nil {
		return store.DeleteResult{}, fmt.Errorf("delete room: %w", err)
	}
	if res.DeletedCount > 0 {
		events.Emit(ctx, s.events, events.New(events.RoomDeleted, strings.TrimSpace(id), nil))
	}
	return res, nil
}

// owns compares emails exactly, like the owner gate does.
func owns(owner, caller string) bool {
	return caller != "" && strings.TrimSpace(owner) == caller
}

func hostEmail(doc store.Document) string {
	switch h := doc["host"].(type) {
	case map[string]interface{}:
		email, _ := h["email"].(string)
		return email
	case store.Document:
		email, _ := h["email"].(string)
		return email
	case string:
		return h
	}
	return ""
}
