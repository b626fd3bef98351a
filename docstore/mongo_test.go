package docstore

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func setupMongo(ctx context.Context, t *testing.T) *mongo.Database {
	t.Helper()

	container, err := mongodb.Run(ctx, "mongo:7")
	if err != nil {
		t.Fatalf("failed to start mongo container: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("failed to terminate mongo container: %v", err)
		}
	})

	uri, err := container.ConnectionString(ctx)
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	t.Cleanup(func() { _ = client.Disconnect(context.Background()) })

	return client.Database("agrimart_test")
}

func TestMongoStore(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	s := NewMongoStore(setupMongo(ctx, t), nil, slog.New(slog.NewTextHandler(io.Discard, nil)))

	id, err := s.Create(ctx, Orders, Document{"customerEmail": "a@x.io", "status": "pending"})
	require.NoError(t, err)

	doc, err := s.Get(ctx, Orders, id)
	require.NoError(t, err)
	assert.Equal(t, "pending", doc["status"])

	_, err = s.Get(ctx, Orders, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.CreateWithID(ctx, Users, "u1", Document{"uid": "u1"}))
	assert.ErrorIs(t, s.CreateWithID(ctx, Users, "u1", Document{"uid": "u1"}), ErrAlreadyExists)

	rec := &recorder{}
	unsubscribe, err := s.Subscribe(ctx, Orders, Filter{"customerEmail": "a@x.io"}, rec.fn)
	require.NoError(t, err)
	defer unsubscribe()

	require.NoError(t, s.UpdateIf(ctx, Orders, id, Filter{"status": "pending"}, Document{"status": "processing"}))
	assert.ErrorIs(t, s.UpdateIf(ctx, Orders, id, Filter{"status": "pending"}, Document{"status": "cancelled"}), ErrConflict)
	assert.ErrorIs(t, s.Update(ctx, Orders, "missing", Document{"status": "x"}), ErrNotFound)

	require.Eventually(t, func() bool {
		docs := rec.last()
		return len(docs) == 1 && docs[0]["status"] == "processing"
	}, 5*time.Second, 20*time.Millisecond)
}
