package store

import (
	"context"
	"reflect"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryStore is an in-process Store used by unit tests and by local runs
// without MONGODB_URI. It has no transactions, so callers exercise their
// compensating paths against it.
type MemoryStore struct {
	users    *MemoryCollection
	rooms    *MemoryCollection
	bookings *MemoryCollection
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:    NewMemoryCollection(),
		rooms:    NewMemoryCollection(),
		bookings: NewMemoryCollection(),
	}
}

func (s *MemoryStore) Users() Collection    { return s.users }
func (s *MemoryStore) Rooms() Collection    { return s.rooms }
func (s *MemoryStore) Bookings() Collection { return s.bookings }

func (s *MemoryStore) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return ErrTransactionsUnsupported
}

func (s *MemoryStore) Ping(ctx context.Context) error  { return ctx.Err() }
func (s *MemoryStore) Close(ctx context.Context) error { return nil }

// MemoryCollection keeps documents in insertion order, which is also _id order.
type MemoryCollection struct {
	mu   sync.RWMutex
	docs []Document
}

func NewMemoryCollection() *MemoryCollection {
	return &MemoryCollection{}
}

func (m *MemoryCollection) FindOne(ctx context.Context, filter Filter) (Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if i := m.indexOf(filter); i >= 0 {
		return cloneDoc(m.docs[i]), nil
	}
	return nil, ErrNotFound
}

func (m *MemoryCollection) FindMany(ctx context.Context, filter Filter, page Page) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	page = page.Normalize()
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []Document{}
	var skipped int64
	for _, d := range m.docs {
		if !matches(d, filter) {
			continue
		}
		if skipped < page.Offset {
			skipped++
			continue
		}
		out = append(out, cloneDoc(d))
		if int64(len(out)) == page.Limit {
			break
		}
	}
	return out, nil
}

func (m *MemoryCollection) InsertOne(ctx context.Context, doc Document) (InsertResult, error) {
	if err := ctx.Err(); err != nil {
		return InsertResult{}, err
	}
	d := cloneDoc(withoutID(doc))
	id := primitive.NewObjectID()
	d[IDField] = id
	m.mu.Lock()
	m.docs = append(m.docs, d)
	m.mu.Unlock()
	return InsertResult{Acknowledged: true, InsertedID: id.Hex()}, nil
}

func (m *MemoryCollection) UpsertOne(ctx context.Context, filter Filter, doc Document) (UpdateResult, error) {
	if err := ctx.Err(); err != nil {
		return UpdateResult{}, err
	}
	repl := cloneDoc(withoutID(doc))
	for k, v := range filter {
		if _, isCond := asMap(v); isCond || k == IDField {
			continue
		}
		repl[k] = clone(v)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if i := m.indexOf(filter); i >= 0 {
		old := m.docs[i]
		repl[IDField] = old[IDField]
		res := UpdateResult{Acknowledged: true, MatchedCount: 1}
		if !reflect.DeepEqual(old, repl) {
			res.ModifiedCount = 1
		}
		m.docs[i] = repl
		return res, nil
	}
	id := primitive.NewObjectID()
	repl[IDField] = id
	m.docs = append(m.docs, repl)
	hex := id.Hex()
	return UpdateResult{Acknowledged: true, UpsertedCount: 1, UpsertedID: &hex}, nil
}

func (m *MemoryCollection) UpdateFields(ctx context.Context, filter Filter, fields Document) (UpdateResult, error) {
	if err := ctx.Err(); err != nil {
		return UpdateResult{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.indexOf(filter)
	if i < 0 {
		return UpdateResult{Acknowledged: true}, nil
	}
	d := m.docs[i]
	res := UpdateResult{Acknowledged: true, MatchedCount: 1}
	for k, v := range withoutID(fields) {
		if old, ok := d[k]; !ok || !equal(old, v) {
			res.ModifiedCount = 1
		}
		d[k] = clone(v)
	}
	return res, nil
}

func (m *MemoryCollection) DeleteOne(ctx context.Context, filter Filter) (DeleteResult, error) {
	if err := ctx.Err(); err != nil {
		return DeleteResult{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.indexOf(filter)
	if i < 0 {
		return DeleteResult{Acknowledged: true}, nil
	}
	m.docs = append(m.docs[:i], m.docs[i+1:]...)
	return DeleteResult{Acknowledged: true, DeletedCount: 1}, nil
}

// indexOf must be called with the lock held.
func (m *MemoryCollection) indexOf(filter Filter) int {
	for i, d := range m.docs {
		if matches(d, filter) {
			return i
		}
	}
	return -1
}
