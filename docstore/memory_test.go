package docstore

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore() *MemoryStore {
	return NewMemoryStore(nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

type recorder struct {
	mu    sync.Mutex
	calls [][]Document
}

func (r *recorder) fn(docs []Document) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, docs)
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

func (r *recorder) last() []Document {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.calls) == 0 {
		return nil
	}
	return r.calls[len(r.calls)-1]
}

func TestMemoryStore_CRUD(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()

	t.Run("create and get", func(t *testing.T) {
		id, err := s.Create(ctx, Orders, Document{"id": "order-1", "status": "pending"})
		require.NoError(t, err)
		require.NotEmpty(t, id)

		doc, err := s.Get(ctx, Orders, id)
		require.NoError(t, err)
		assert.Equal(t, id, doc["_id"])
		assert.Equal(t, "pending", doc["status"])
	})

	t.Run("get missing", func(t *testing.T) {
		_, err := s.Get(ctx, Orders, "nope")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("create with id conflict", func(t *testing.T) {
		require.NoError(t, s.CreateWithID(ctx, Users, "u1", Document{"uid": "u1"}))
		err := s.CreateWithID(ctx, Users, "u1", Document{"uid": "u1"})
		assert.ErrorIs(t, err, ErrAlreadyExists)
	})

	t.Run("rejects nil values", func(t *testing.T) {
		_, err := s.Create(ctx, Orders, Document{"customerPhone": nil})
		assert.ErrorIs(t, err, ErrUndefinedField)
	})

	t.Run("returned documents are copies", func(t *testing.T) {
		id, err := s.Create(ctx, Bookings, Document{"status": "pending"})
		require.NoError(t, err)
		doc, err := s.Get(ctx, Bookings, id)
		require.NoError(t, err)
		doc["status"] = "cancelled"

		again, err := s.Get(ctx, Bookings, id)
		require.NoError(t, err)
		assert.Equal(t, "pending", again["status"])
	})
}

func TestMemoryStore_QueryAndUpdate(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()

	a, _ := s.Create(ctx, Orders, Document{"customerEmail": "a@x.io", "status": "pending"})
	_, _ = s.Create(ctx, Orders, Document{"customerEmail": "b@x.io", "status": "pending"})

	all, err := s.Query(ctx, Orders, nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	mine, err := s.Query(ctx, Orders, Filter{"customerEmail": "a@x.io"})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, a, mine[0]["_id"])

	none, err := s.Query(ctx, "empty", nil)
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)

	require.NoError(t, s.UpdateIf(ctx, Orders, a, Filter{"status": "pending"}, Document{"status": "processing"}))
	err = s.UpdateIf(ctx, Orders, a, Filter{"status": "pending"}, Document{"status": "cancelled"})
	assert.ErrorIs(t, err, ErrConflict)

	err = s.Update(ctx, Orders, "missing", Document{"status": "completed"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_Subscribe(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()
	_, _ = s.Create(ctx, Orders, Document{"customerEmail": "a@x.io", "status": "pending"})

	rec := &recorder{}
	unsubscribe, err := s.Subscribe(ctx, Orders, Filter{"customerEmail": "a@x.io"}, rec.fn)
	require.NoError(t, err)
	require.Equal(t, 1, rec.count())
	assert.Len(t, rec.last(), 1)

	_, err = s.Create(ctx, Orders, Document{"customerEmail": "a@x.io", "status": "pending"})
	require.NoError(t, err)
	require.Eventually(t, func() bool { return len(rec.last()) == 2 }, time.Second, 5*time.Millisecond)

	t.Run("writes outside the match set are not pushed", func(t *testing.T) {
		before := rec.count()
		_, err := s.Create(ctx, Orders, Document{"customerEmail": "b@x.io", "status": "pending"})
		require.NoError(t, err)
		time.Sleep(50 * time.Millisecond)
		assert.Equal(t, before, rec.count())
	})

	t.Run("no callbacks after unsubscribe", func(t *testing.T) {
		unsubscribe()
		unsubscribe()
		before := rec.count()
		_, err := s.Create(ctx, Orders, Document{"customerEmail": "a@x.io", "status": "pending"})
		require.NoError(t, err)
		time.Sleep(50 * time.Millisecond)
		assert.Equal(t, before, rec.count())
	})
}

func TestCompact(t *testing.T) {
	doc := Document{
		"name":  "x",
		"phone": nil,
		"meta":  Document{"a": 1, "b": nil},
	}
	out := Compact(doc)
	assert.NotContains(t, out, "phone")
	assert.Equal(t, Document{"a": 1}, out["meta"])
	assert.NoError(t, checkDefined(out, ""))
}
