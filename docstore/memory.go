package docstore

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type memCollection struct {
	order []string
	docs  map[string]bson.M
}

// MemoryStore keeps collections in process memory.
type MemoryStore struct {
	mu       sync.RWMutex
	colls    map[string]*memCollection
	notifier Notifier
	logger   *slog.Logger
}

// NewMemoryStore returns an empty store. A nil notifier gets a LocalNotifier.
func NewMemoryStore(notifier Notifier, logger *slog.Logger) *MemoryStore {
	if notifier == nil {
		notifier = NewLocalNotifier()
	}
	return &MemoryStore{
		colls:    make(map[string]*memCollection),
		notifier: notifier,
		logger:   logger,
	}
}

func (s *MemoryStore) coll(name string) *memCollection {
	c, ok := s.colls[name]
	if !ok {
		c = &memCollection{docs: make(map[string]bson.M)}
		s.colls[name] = c
	}
	return c
}

func (s *MemoryStore) Create(ctx context.Context, collection string, doc Document) (string, error) {
	id := primitive.NewObjectID().Hex()
	if err := s.insert(collection, id, doc); err != nil {
		return "", err
	}
	s.publish(ctx, collection)
	return id, nil
}

func (s *MemoryStore) CreateWithID(ctx context.Context, collection, id string, doc Document) error {
	if err := s.insert(collection, id, doc); err != nil {
		return err
	}
	s.publish(ctx, collection)
	return nil
}

func (s *MemoryStore) insert(collection, id string, doc Document) error {
	if err := checkDefined(doc, ""); err != nil {
		return err
	}
	stored, err := clone(doc)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	stored["_id"] = id

	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.coll(collection)
	if _, exists := c.docs[id]; exists {
		return fmt.Errorf("%s/%s: %w", collection, id, ErrAlreadyExists)
	}
	c.docs[id] = stored
	c.order = append(c.order, id)
	return nil
}

func (s *MemoryStore) Get(_ context.Context, collection, id string) (Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.colls[collection]
	if !ok {
		return nil, fmt.Errorf("%s/%s: %w", collection, id, ErrNotFound)
	}
	doc, ok := c.docs[id]
	if !ok {
		return nil, fmt.Errorf("%s/%s: %w", collection, id, ErrNotFound)
	}
	return clone(doc)
}

func (s *MemoryStore) Query(_ context.Context, collection string, filter Filter) ([]Document, error) {
	f, err := filter.normalize()
	if err != nil {
		return nil, fmt.Errorf("encode filter: %w", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Document, 0)
	c, ok := s.colls[collection]
	if !ok {
		return out, nil
	}
	for _, id := range c.order {
		doc := c.docs[id]
		if !f.matches(doc) {
			continue
		}
		cp, err := clone(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, cp)
	}
	return out, nil
}

func (s *MemoryStore) Update(ctx context.Context, collection, id string, patch Document) error {
	return s.UpdateIf(ctx, collection, id, nil, patch)
}

func (s *MemoryStore) UpdateIf(ctx context.Context, collection, id string, match Filter, patch Document) error {
	if err := checkDefined(patch, ""); err != nil {
		return err
	}
	set, err := clone(patch)
	if err != nil {
		return fmt.Errorf("encode patch: %w", err)
	}
	delete(set, "_id")
	f, err := match.normalize()
	if err != nil {
		return fmt.Errorf("encode filter: %w", err)
	}

	s.mu.Lock()
	c, ok := s.colls[collection]
	var doc bson.M
	if ok {
		doc, ok = c.docs[id]
	}
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("%s/%s: %w", collection, id, ErrNotFound)
	}
	if !f.matches(doc) {
		s.mu.Unlock()
		return fmt.Errorf("%s/%s: %w", collection, id, ErrConflict)
	}
	for k, v := range set {
		doc[k] = v
	}
	s.mu.Unlock()

	s.publish(ctx, collection)
	return nil
}

func (s *MemoryStore) Subscribe(ctx context.Context, collection string, filter Filter, fn func([]Document)) (func(), error) {
	return watch(ctx, s, s.notifier, collection, filter, fn, func(err error) {
		s.logger.Warn("subscription refresh failed", "collection", collection, "error", err)
	})
}

func (s *MemoryStore) publish(ctx context.Context, collection string) {
	if err := s.notifier.Publish(ctx, collection); err != nil {
		s.logger.Warn("change notification failed", "collection", collection, "error", err)
	}
}
