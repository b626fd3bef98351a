package docstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoStore stores documents in a MongoDB database. Change signals travel
// through the notifier, so every replica sharing it sees every write.
type MongoStore struct {
	db       *mongo.Database
	notifier Notifier
	logger   *slog.Logger
}

func NewMongoStore(db *mongo.Database, notifier Notifier, logger *slog.Logger) *MongoStore {
	if notifier == nil {
		notifier = NewLocalNotifier()
	}
	return &MongoStore{db: db, notifier: notifier, logger: logger}
}

func (s *MongoStore) Create(ctx context.Context, collection string, doc Document) (string, error) {
	id := primitive.NewObjectID().Hex()
	if err := s.insert(ctx, collection, id, doc); err != nil {
		return "", err
	}
	return id, nil
}

func (s *MongoStore) CreateWithID(ctx context.Context, collection, id string, doc Document) error {
	return s.insert(ctx, collection, id, doc)
}

func (s *MongoStore) insert(ctx context.Context, collection, id string, doc Document) error {
	if err := checkDefined(doc, ""); err != nil {
		return err
	}
	body := make(bson.M, len(doc)+1)
	for k, v := range doc {
		body[k] = v
	}
	body["_id"] = id

	if _, err := s.db.Collection(collection).InsertOne(ctx, body); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%s/%s: %w", collection, id, ErrAlreadyExists)
		}
		return fmt.Errorf("insert %s/%s: %w", collection, id, err)
	}
	s.publish(ctx, collection)
	return nil
}

func (s *MongoStore) Get(ctx context.Context, collection, id string) (Document, error) {
	var doc bson.M
	err := s.db.Collection(collection).FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%s/%s: %w", collection, id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find %s/%s: %w", collection, id, err)
	}
	return doc, nil
}

func (s *MongoStore) Query(ctx context.Context, collection string, filter Filter) ([]Document, error) {
	q := bson.M{}
	for k, v := range filter {
		q[k] = v
	}
	cursor, err := s.db.Collection(collection).Find(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", collection, err)
	}
	defer cursor.Close(ctx)

	out := make([]Document, 0)
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode %s: %w", collection, err)
	}
	return out, nil
}

func (s *MongoStore) Update(ctx context.Context, collection, id string, patch Document) error {
	return s.UpdateIf(ctx, collection, id, nil, patch)
}

func (s *MongoStore) UpdateIf(ctx context.Context, collection, id string, match Filter, patch Document) error {
	if err := checkDefined(patch, ""); err != nil {
		return err
	}
	set := bson.M{}
	for k, v := range patch {
		if k != "_id" {
			set[k] = v
		}
	}
	q := bson.M{"_id": id}
	for k, v := range match {
		q[k] = v
	}

	res, err := s.db.Collection(collection).UpdateOne(ctx, q, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("update %s/%s: %w", collection, id, err)
	}
	if res.MatchedCount == 0 {
		if len(match) == 0 {
			return fmt.Errorf("%s/%s: %w", collection, id, ErrNotFound)
		}
		if _, err := s.Get(ctx, collection, id); err != nil {
			return err
		}
		return fmt.Errorf("%s/%s: %w", collection, id, ErrConflict)
	}
	s.publish(ctx, collection)
	return nil
}

func (s *MongoStore) Subscribe(ctx context.Context, collection string, filter Filter, fn func([]Document)) (func(), error) {
	return watch(ctx, s, s.notifier, collection, filter, fn, func(err error) {
		s.logger.Warn("subscription refresh failed", "collection", collection, "error", err)
	})
}

func (s *MongoStore) publish(ctx context.Context, collection string) {
	if err := s.notifier.Publish(ctx, collection); err != nil {
		s.logger.Warn("change notification failed", "collection", collection, "error", err)
	}
}
