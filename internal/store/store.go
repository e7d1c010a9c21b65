// Package store is the document-store adapter used by the domain services.
//
// Documents are schemaless bags keyed by field name. Every operation touches a
// single document in a single collection; cross-collection atomicity is only
// available through Store.RunInTransaction.
package store

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Collection names.
const (
	UsersCollection    = "users"
	RoomsCollection    = "rooms"
	BookingsCollection = "bookings"
)

// IDField is the primary key of every document.
const IDField = "_id"

var (
	ErrNotFound                = errors.New("document not found")
	ErrInvalidID               = errors.New("invalid document id")
	ErrTransactionsUnsupported = errors.New("transactions are not supported by this store")
)

// Document is a schemaless document. Filter is a query by example; values may
// be bson.M{"$ne": v} for inequality.
type (
	Document = bson.M
	Filter   = bson.M
)

// Page bounds a FindMany scan.
type Page struct {
	Limit  int64
	Offset int64
}

const (
	DefaultPageLimit int64 = 100
	MaxPageLimit     int64 = 500
)

// Normalize applies the default and the cap to the page bounds.
func (p Page) Normalize() Page {
	if p.Limit <= 0 {
		p.Limit = DefaultPageLimit
	}
	if p.Limit > MaxPageLimit {
		p.Limit = MaxPageLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

// InsertResult is the write acknowledgement returned to clients.
type InsertResult struct {
	Acknowledged bool   `json:"acknowledged"`
	InsertedID   string `json:"insertedId"`
}

type UpdateResult struct {
	Acknowledged  bool    `json:"acknowledged"`
	MatchedCount  int64   `json:"matchedCount"`
	ModifiedCount int64   `json:"modifiedCount"`
	UpsertedCount int64   `json:"upsertedCount"`
	UpsertedID    *string `json:"upsertedId"`
}

type DeleteResult struct {
	Acknowledged bool  `json:"acknowledged"`
	DeletedCount int64 `json:"deletedCount"`
}

// Collection is the uniform adapter over one logical collection.
type Collection interface {
	// FindOne returns ErrNotFound when nothing matches.
	FindOne(ctx context.Context, filter Filter) (Document, error)
	FindMany(ctx context.Context, filter Filter, page Page) ([]Document, error)
	InsertOne(ctx context.Context, doc Document) (InsertResult, error)
	// UpsertOne replaces the first match with doc, or inserts doc merged with
	// the filter fields when nothing matches.
	UpsertOne(ctx context.Context, filter Filter, doc Document) (UpdateResult, error)
	// UpdateFields sets only the named fields on the first match.
	UpdateFields(ctx context.Context, filter Filter, fields Document) (UpdateResult, error)
	DeleteOne(ctx context.Context, filter Filter) (DeleteResult, error)
}

// Store groups the three collections with their lifecycle.
type Store interface {
	Users() Collection
	Rooms() Collection
	Bookings() Collection
	// RunInTransaction runs fn atomically. The ctx passed to fn must be used for
	// every collection call inside it. Returns ErrTransactionsUnsupported
	// without calling fn when the backend cannot provide atomicity.
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// ParseID converts a hex id from a path or body into the store's id type.
func ParseID(hex string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: %q", ErrInvalidID, hex)
	}
	return id, nil
}

// ByID is the filter selecting one document by primary key.
func ByID(id primitive.ObjectID) Filter {
	return Filter{IDField: id}
}

// Ne builds an inequality condition for a Filter value.
func Ne(v interface{}) bson.M {
	return bson.M{"$ne": v}
}

// withoutID returns a shallow copy of doc with the primary key removed.
// Callers never choose ids.
func withoutID(doc Document) Document {
	out := make(Document, len(doc))
	for k, v := range doc {
		if k == IDField {
			continue
		}
		out[k] = v
	}
	return out
}

func idString(v interface{}) string {
	switch id := v.(type) {
	case primitive.ObjectID:
		return id.Hex()
	case string:
		return id
	case nil:
		return ""
	default:
		return fmt.Sprint(id)
	}
}
