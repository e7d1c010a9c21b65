// Package bookings creates and removes bookings and keeps each booked room's
// flag in step with them.
//
// When a booking names a roomId, creating it reserves the room (booked goes
// from not-true to true) and deleting it releases the room. With MongoDB
// transactions both writes commit together. Without them the room is reserved
// first with a conditional update, and released again if the booking insert
// fails.
package bookings

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/aircnc/aircnc-server/internal/events"
	"github.com/aircnc/aircnc-server/internal/store"
	"github.com/aircnc/aircnc-server/pkg/apperrors"
	"github.com/aircnc/aircnc-server/pkg/logger"
	"github.com/aircnc/aircnc-server/pkg/metrics"
	"github.com/aircnc/aircnc-server/pkg/validation"
)

// Booking fields the service reads.
const (
	GuestEmailField = "guest.email"
	HostField       = "host"
	RoomIDField     = "roomId"
	bookedField     = "booked"
)

const (
	modeTransaction  = "transaction"
	modeCompensating = "compensating"
)

var errRoomUnavailable = errors.New("room unavailable")

type Service struct {
	store  store.Store
	events events.Publisher

	releaseAttempts int
	releaseBackoff  time.Duration
	releaseTimeout  time.Duration
}

func NewService(s store.Store, pub events.Publisher) *Service {
	if pub == nil {
		pub = events.Noop{}
	}
	return &Service{
		store:           s,
		events:          pub,
		releaseAttempts: 3,
		releaseBackoff:  50 * time.Millisecond,
		releaseTimeout:  5 * time.Second,
	}
}

// ListByGuest returns the bookings made by email. An empty email yields an
// empty list.
func (s *Service) ListByGuest(ctx context.Context, email string, page store.Page) ([]store.Document, error) {
	return s.listBy(ctx, GuestEmailField, email, page)
}

// ListByHost returns the bookings of rooms hosted by email. An empty email
// yields an empty list.
func (s *Service) ListByHost(ctx context.Context, email string, page store.Page) ([]store.Document, error) {
	return s.listBy(ctx, HostField, email, page)
}

func (s *Service) listBy(ctx context.Context, field, email string, page store.Page) ([]store.Document, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return []store.Document{}, nil
	}
	if !validation.Email(email) {
		return nil, apperrors.Validation("invalid email")
	}
	docs, err := s.store.Bookings().FindMany(ctx, store.Filter{field: email}, page)
	if err != nil {
		return nil, fmt.Errorf("list bookings by %s: %w", field, err)
	}
	return docs, nil
}

// roomID extracts the optional room reference of a booking document.
func roomID(doc store.Document) (primitive.ObjectID, bool, error) {
	raw, ok := doc[RoomIDField]
	if !ok || raw == nil {
		return primitive.NilObjectID, false, nil
	}
	var hex string
	switch v := raw.(type) {
	case string:
		hex = strings.TrimSpace(v)
	case primitive.ObjectID:
		return v, true, nil
	default:
		return primitive.NilObjectID, false, apperrors.Validation("roomId must be a string")
	}
	if hex == "" {
		return primitive.NilObjectID, false, nil
	}
	id, err := store.ParseID(hex)
	if err != nil {
		return primitive.NilObjectID, false, apperrors.ValidationWrap(err, "invalid roomId")
	}
	return id, true, nil
}

// Create inserts a booking made by caller, who must be its guest.email. If it
// names a room, the room is reserved in the same unit of work; a room that is
// already booked fails with a conflict.
func (s *Service) Create(ctx context.Context, caller string, doc store.Document) (store.InsertResult, error) {
	if len(doc) == 0 {
		return store.InsertResult{}, apperrors.Validation("booking body is required")
	}
	guest := guestEmail(doc)
	if guest == "" {
		return store.InsertResult{}, apperrors.Validation("guest.email is required")
	}
	if !owns(guest, caller) {
		return store.InsertResult{}, apperrors.Forbidden()
	}
	room, hasRoom, err := roomID(doc)
	if err != nil {
		return store.InsertResult{}, err
	}

	var res store.InsertResult
	if !hasRoom {
		res, err = s.store.Bookings().InsertOne(ctx, doc)
		if err != nil {
			return store.InsertResult{}, fmt.Errorf("insert booking: %w", err)
		}
	} else {
		res, err = s.createReserving(ctx, room, doc)
		if err != nil {
			return store.InsertResult{}, err
		}
	}

	events.Emit(ctx, s.events, events.New(events.BookingCreated, res.InsertedID, bookingData(doc)))
	return res, nil
}

func (s *Service) createReserving(ctx context.Context, room primitive.ObjectID, doc store.Document) (store.InsertResult, error) {
	var res store.InsertResult
	err := s.store.RunInTransaction(ctx, func(tx context.Context) error {
		if err := s.reserve(tx, room); err != nil {
			return err
		}
		ins, err := s.store.Bookings().InsertOne(tx, doc)
		if err != nil {
			return fmt.Errorf("insert booking: %w", err)
		}
		res = ins
		return nil
	})
	if err == nil {
		metrics.BookingReservations.WithLabelValues(modeTransaction, "reserved").Inc()
		return res, nil
	}
	if !errors.Is(err, store.ErrTransactionsUnsupported) {
		return store.InsertResult{}, s.reservationError(ctx, modeTransaction, room, err)
	}

	if err := s.reserve(ctx, room); err != nil {
		return store.InsertResult{}, s.reservationError(ctx, modeCompensating, room, err)
	}
	res, err = s.store.Bookings().InsertOne(ctx, doc)
	if err != nil {
		metrics.BookingReservations.WithLabelValues(modeCompensating, "rolled_back").Inc()
		s.release(ctx, room)
		return store.InsertResult{}, fmt.Errorf("insert booking: %w", err)
	}
	metrics.BookingReservations.WithLabelValues(modeCompensating, "reserved").Inc()
	return res, nil
}

// reserve flips the room to booked only if it is not booked yet.
func (s *Service) reserve(ctx context.Context, room primitive.ObjectID) error {
	filter := store.ByID(room)
	filter[bookedField] = store.Ne(true)
	upd, err := s.store.Rooms().UpdateFields(ctx, filter, store.Document{bookedField: true})
	if err != nil {
		return fmt.Errorf("reserve room: %w", err)
	}
	if upd.MatchedCount == 0 {
		return errRoomUnavailable
	}
	return nil
}

// reservationError tells a missing room from a booked one.
func (s *Service) reservationError(ctx context.Context, mode string, room primitive.ObjectID, err error) error {
	if !errors.Is(err, errRoomUnavailable) {
		metrics.BookingReservations.WithLabelValues(mode, "error").Inc()
		return err
	}
	if _, ferr := s.store.Rooms().FindOne(ctx, store.ByID(room)); errors.Is(ferr, store.ErrNotFound) {
		metrics.BookingReservations.WithLabelValues(mode, "not_found").Inc()
		return apperrors.NotFound("room")
	}
	metrics.BookingReservations.WithLabelValues(mode, "conflict").Inc()
	return apperrors.Conflict("room is already booked")
}

// release sets booked back to false. It is idempotent and retried, and runs
// on a context detached from the request so a cancelled client does not
// leave the room reserved.
func (s *Service) release(ctx context.Context, room primitive.ObjectID) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.releaseTimeout)
	defer cancel()

	var err error
	for attempt := 1; attempt <= s.releaseAttempts; attempt++ {
		_, err = s.store.Rooms().UpdateFields(ctx, store.ByID(room), store.Document{bookedField: false})
		if err == nil {
			metrics.BookingReservations.WithLabelValues(modeCompensating, "released").Inc()
			return
		}
		if attempt < s.releaseAttempts {
			select {
			case <-ctx.Done():
				attempt = s.releaseAttempts
			case <-time.After(time.Duration(attempt) * s.releaseBackoff):
			}
		}
	}
	metrics.BookingReservations.WithLabelValues(modeCompensating, "release_failed").Inc()
	logger.Log(logger.LevelError, "room release failed", "room", room.Hex(), "attempts", s.releaseAttempts, "err", err)
}

// Delete removes a booking by hex id and releases the room it reserved. Only
// the booking's guest or host may delete it.
func (s *Service) Delete(ctx context.Context, caller, id string) (store.DeleteResult, error) {
	oid, err := store.ParseID(strings.TrimSpace(id))
	if err != nil {
		return store.DeleteResult{}, apperrors.ValidationWrap(err, "invalid booking id")
	}
	filter := store.ByID(oid)

	existing, err := s.store.Bookings().FindOne(ctx, filter)
	if errors.Is(err, store.ErrNotFound) {
		return store.DeleteResult{Acknowledged: true}, nil
	}
	if err != nil {
		return store.DeleteResult{}, fmt.Errorf("find booking: %w", err)
	}
	if !owns(guestEmail(existing), caller) && !owns(emailOf(existing[HostField]), caller) {
		return store.DeleteResult{}, apperrors.Forbidden()
	}
	room, hasRoom, _ := roomID(existing)

	var res store.DeleteResult
	err = s.store.RunInTransaction(ctx, func(tx context.Context) error {
		del, err := s.store.Bookings().DeleteOne(tx, filter)
		if err != nil {
			return fmt.Errorf("delete booking: %w", err)
		}
		if del.DeletedCount > 0 && hasRoom {
			if _, err := s.store.Rooms().UpdateFields(tx, store.ByID(room), store.Document{bookedField: false}); err != nil {
				return fmt.Errorf("release room: %w", err)
			}
		}
		res = del
		return nil
	})
	if errors.Is(err, store.ErrTransactionsUnsupported) {
		res, err = s.store.Bookings().DeleteOne(ctx, filter)
		if err != nil {
			return store.DeleteResult{}, fmt.Errorf("delete booking: %w", err)
		}
		if res.DeletedCount > 0 && hasRoom {
			s.release(ctx, room)
		}
	} else if err != nil {
		return store.DeleteResult{}, err
	}

	if res.DeletedCount > 0 {
		events.Emit(ctx, s.events, events.New(events.BookingDeleted, oid.Hex(), bookingData(existing)))
	}
	return res, nil
}

// owns compares emails exactly, like the owner gate does.
func owns(owner, caller string) bool {
	return caller != "" && owner == caller
}

func guestEmail(doc store.Document) string {
	return emailOf(doc["guest"])
}

// emailOf reads an email given either as a string or as an object's email key.
func emailOf(v interface{}) string {
	switch x := v.(type) {
	case string:
		return strings.TrimSpace(x)
	case store.Document:
		email, _ := x["email"].(string)
		return strings.TrimSpace(email)
	case map[string]interface{}:
		email, _ := x["email"].(string)
		return strings.TrimSpace(email)
	}
	return ""
}

func bookingData(doc store.Document) map[string]interface{} {
	data := map[string]interface{}{}
	if v, ok := doc[RoomIDField]; ok {
		data["roomId"] = v
	}
	if v, ok := doc[HostField]; ok {
		data["host"] = v
	}
	if g := guestEmail(doc); g != "" {
		data["guest"] = g
	}
	return data
}
