// Package docstore is the document store behind users, orders and bookings.
// Writes are visible to live subscribers of the same collection.
package docstore

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"go.mongodb.org/mongo-driver/bson"
)

// Collection names used by the service.
const (
	Users       = "users"
	Orders      = "orders"
	Bookings    = "bookings"
	Products    = "products"
	Credentials = "credentials"
)

var (
	ErrNotFound       = errors.New("document not found")
	ErrAlreadyExists  = errors.New("document already exists")
	ErrConflict       = errors.New("document changed concurrently")
	ErrUndefinedField = errors.New("document has undefined field")
)

// Document is a stored record. The store id is exposed under "_id".
type Document = bson.M

// Filter selects documents whose fields equal every given value. Empty matches all.
type Filter map[string]any

// Store is the remote document store contract.
type Store interface {
	Create(ctx context.Context, collection string, doc Document) (string, error)
	CreateWithID(ctx context.Context, collection, id string, doc Document) error
	Get(ctx context.Context, collection, id string) (Document, error)
	Query(ctx context.Context, collection string, filter Filter) ([]Document, error)
	Update(ctx context.Context, collection, id string, patch Document) error
	UpdateIf(ctx context.Context, collection, id string, match Filter, patch Document) error
	Subscribe(ctx context.Context, collection string, filter Filter, fn func([]Document)) (func(), error)
}

// Compact returns a copy of doc without nil values, descending into nested documents.
func Compact(doc Document) Document {
	out := make(Document, len(doc))
	for k, v := range doc {
		if v == nil {
			continue
		}
		if nested, ok := v.(bson.M); ok {
			out[k] = Compact(nested)
			continue
		}
		out[k] = v
	}
	return out
}

func checkDefined(doc Document, prefix string) error {
	for k, v := range doc {
		if v == nil {
			return fmt.Errorf("%w: %s%s", ErrUndefinedField, prefix, k)
		}
		if nested, ok := v.(bson.M); ok {
			if err := checkDefined(nested, prefix+k+"."); err != nil {
				return err
			}
		}
	}
	return nil
}

// clone deep-copies a document through its bson encoding so callers never
// share maps with the store.
func clone(doc bson.M) (bson.M, error) {
	if doc == nil {
		return bson.M{}, nil
	}
	raw, err := bson.Marshal(doc)
	if err != nil {
		return nil, err
	}
	out := bson.M{}
	if err := bson.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (f Filter) normalize() (Filter, error) {
	if len(f) == 0 {
		return nil, nil
	}
	m, err := clone(bson.M(f))
	if err != nil {
		return nil, err
	}
	return Filter(m), nil
}

func (f Filter) matches(doc Document) bool {
	for k, want := range f {
		got, ok := doc[k]
		if !ok || !reflect.DeepEqual(got, want) {
			return false
		}
	}
	return true
}
