package store

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore implements Store on one MongoDB database. The client is owned by
// the store and disconnected by Close.
type MongoStore struct {
	client       *mongo.Client
	db           *mongo.Database
	transactions bool
}

// NewMongoStore wraps an already connected client. transactions should come
// from database.SupportsTransactions.
func NewMongoStore(client *mongo.Client, database string, transactions bool) *MongoStore {
	return &MongoStore{client: client, db: client.Database(database), transactions: transactions}
}

func (s *MongoStore) Users() Collection    { return NewMongoCollection(s.db.Collection(UsersCollection)) }
func (s *MongoStore) Rooms() Collection    { return NewMongoCollection(s.db.Collection(RoomsCollection)) }
func (s *MongoStore) Bookings() Collection { return NewMongoCollection(s.db.Collection(BookingsCollection)) }

func (s *MongoStore) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if !s.transactions {
		return ErrTransactionsUnsupported
	}
	session, err := s.client.StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		return nil, fn(sessCtx)
	})
	return err
}

func (s *MongoStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// EnsureIndexes creates the lookup indexes the handlers query by.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	specs := map[string][]mongo.IndexModel{
		UsersCollection: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		RoomsCollection: {
			{Keys: bson.D{{Key: "host.email", Value: 1}}},
		},
		BookingsCollection: {
			{Keys: bson.D{{Key: "guest.email", Value: 1}}},
			{Keys: bson.D{{Key: "host", Value: 1}}},
		},
	}
	for name, models := range specs {
		if _, err := s.db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create indexes on %s: %w", name, err)
		}
	}
	return nil
}

// MongoCollection implements Collection on a *mongo.Collection.
type MongoCollection struct {
	col *mongo.Collection
}

func NewMongoCollection(col *mongo.Collection) *MongoCollection {
	return &MongoCollection{col: col}
}

func (m *MongoCollection) FindOne(ctx context.Context, filter Filter) (Document, error) {
	var d Document
	if err := m.col.FindOne(ctx, filter).Decode(&d); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find one in %s: %w", m.col.Name(), err)
	}
	return d, nil
}

func (m *MongoCollection) FindMany(ctx context.Context, filter Filter, page Page) ([]Document, error) {
	page = page.Normalize()
	opts := options.Find().
		SetSort(bson.D{{Key: IDField, Value: 1}}).
		SetSkip(page.Offset).
		SetLimit(page.Limit)
	cur, err := m.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find in %s: %w", m.col.Name(), err)
	}
	defer cur.Close(ctx)
	out := []Document{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode %s: %w", m.col.Name(), err)
	}
	return out, nil
}

func (m *MongoCollection) InsertOne(ctx context.Context, doc Document) (InsertResult, error) {
	res, err := m.col.InsertOne(ctx, withoutID(doc))
	if err != nil {
		return InsertResult{}, fmt.Errorf("insert into %s: %w", m.col.Name(), err)
	}
	return InsertResult{Acknowledged: true, InsertedID: idString(res.InsertedID)}, nil
}

func (m *MongoCollection) UpsertOne(ctx context.Context, filter Filter, doc Document) (UpdateResult, error) {
	res, err := m.col.ReplaceOne(ctx, filter, withoutID(doc), options.Replace().SetUpsert(true))
	if err != nil {
		return UpdateResult{}, fmt.Errorf("upsert into %s: %w", m.col.Name(), err)
	}
	return updateResult(res), nil
}

func (m *MongoCollection) UpdateFields(ctx context.Context, filter Filter, fields Document) (UpdateResult, error) {
	res, err := m.col.UpdateOne(ctx, filter, bson.M{"$set": withoutID(fields)})
	if err != nil {
		return UpdateResult{}, fmt.Errorf("update %s: %w", m.col.Name(), err)
	}
	return updateResult(res), nil
}

func (m *MongoCollection) DeleteOne(ctx context.Context, filter Filter) (DeleteResult, error) {
	res, err := m.col.DeleteOne(ctx, filter)
	if err != nil {
		return DeleteResult{}, fmt.Errorf("delete from %s: %w", m.col.Name(), err)
	}
	return DeleteResult{Acknowledged: true, DeletedCount: res.DeletedCount}, nil
}

func updateResult(res *mongo.UpdateResult) UpdateResult {
	out := UpdateResult{
		Acknowledged:  true,
		MatchedCount:  res.MatchedCount,
		ModifiedCount: res.ModifiedCount,
		UpsertedCount: res.UpsertedCount,
	}
	if res.UpsertedID != nil {
		id := idString(res.UpsertedID)
		out.UpsertedID = &id
	}
	return out
}
