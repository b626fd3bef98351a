package auth

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"agrimart/docstore"
	"agrimart/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestService() *Service {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(docstore.NewMemoryStore(nil, logger), logger).WithCost(bcrypt.MinCost)
}

func TestService(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	p, err := svc.Create(ctx, "  Ravi@Example.com ", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "ravi@example.com", p.Email)
	assert.NotEmpty(t, p.ID)

	t.Run("duplicate email", func(t *testing.T) {
		_, err := svc.Create(ctx, "ravi@example.com", "another")
		assert.ErrorIs(t, err, ErrEmailInUse)
	})

	t.Run("input validation", func(t *testing.T) {
		_, err := svc.Create(ctx, "no-at-sign", "secret1")
		assert.ErrorIs(t, err, ErrInvalidEmail)
		_, err = svc.Create(ctx, "x@y.z", "123")
		assert.ErrorIs(t, err, ErrWeakPassword)
	})

	t.Run("verify", func(t *testing.T) {
		got, err := svc.Verify(ctx, "RAVI@example.com", "secret1")
		require.NoError(t, err)
		assert.Equal(t, p.ID, got.ID)

		_, err = svc.Verify(ctx, "ravi@example.com", "wrong")
		assert.ErrorIs(t, err, ErrInvalidCredentials)

		_, err = svc.Verify(ctx, "nobody@example.com", "secret1")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})
}

func TestSession_Notifications(t *testing.T) {
	ctx := context.Background()
	sess := NewSession(newTestService())

	var seen []*Principal
	unsubscribe := sess.OnSessionChange(func(p *Principal) { seen = append(seen, p) })

	p, err := sess.SignUp(ctx, "a@b.co", "secret1")
	require.NoError(t, err)
	require.NoError(t, sess.SignOut(ctx))
	_, err = sess.SignIn(ctx, "a@b.co", "secret1")
	require.NoError(t, err)

	_, err = sess.SignIn(ctx, "a@b.co", "bad-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	require.Len(t, seen, 3)
	assert.Equal(t, p.ID, seen[0].ID)
	assert.Nil(t, seen[1])
	assert.Equal(t, p.ID, seen[2].ID)
	assert.Equal(t, p.ID, sess.Principal().ID)

	unsubscribe()
	unsubscribe()
	sess.Resume(p)
	assert.Len(t, seen, 3)
}

func TestTokens(t *testing.T) {
	tokens := NewTokens([]byte("test-secret"), time.Minute)
	id := &models.Identity{ID: "u1", Email: "a@b.co", Role: models.RoleAdmin}

	signed, err := tokens.Issue("sess-1", id)
	require.NoError(t, err)

	claims, err := tokens.Parse(signed)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "sess-1", claims.SessionID)
	assert.Equal(t, "admin", claims.Role)
	assert.Equal(t, &Principal{ID: "u1", Email: "a@b.co"}, claims.Principal())

	t.Run("wrong secret", func(t *testing.T) {
		_, err := NewTokens([]byte("other"), time.Minute).Parse(signed)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		old, err := NewTokens([]byte("test-secret"), -time.Minute).Issue("sess-1", id)
		require.NoError(t, err)
		_, err = tokens.Parse(old)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("anonymous", func(t *testing.T) {
		anon, err := tokens.Issue("sess-2", nil)
		require.NoError(t, err)
		claims, err := tokens.Parse(anon)
		require.NoError(t, err)
		assert.Equal(t, "sess-2", claims.SessionID)
		assert.Nil(t, claims.Principal())
	})
}
