package middleware

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"agrimart/auth"
	"agrimart/clients"
	"agrimart/docstore"
	"agrimart/models"
	"agrimart/ratelim"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type fixture struct {
	docs     *docstore.MemoryStore
	authSvc  *auth.Service
	tokens   *auth.Tokens
	registry *clients.Registry
	mw       *Auth
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	docs := docstore.NewMemoryStore(nil, logger)
	svc := auth.NewService(docs, logger).WithCost(bcrypt.MinCost)
	tokens := auth.NewTokens([]byte("test-secret"), time.Hour)
	reg := clients.NewRegistry(svc, docs, nil, logger)
	t.Cleanup(reg.Close)
	return &fixture{docs: docs, authSvc: svc, tokens: tokens, registry: reg, mw: New(tokens, reg, logger)}
}

func ok(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if ClientFrom(r.Context()) == nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func serve(h httprouter.Handle, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h(rec, req, nil)
	return rec
}

func TestClientOpensAnonymousSession(t *testing.T) {
	f := newFixture(t)

	rec := serve(f.mw.Client(ok), "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	token := rec.Header().Get(TokenHeader)
	require.NotEmpty(t, token)

	claims, err := f.tokens.Parse(token)
	require.NoError(t, err)
	_, known := f.registry.Get(claims.SessionID)
	assert.True(t, known)

	rec = serve(f.mw.Client(ok), token)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Header().Get(TokenHeader))
	assert.Equal(t, 1, f.registry.Len())
}

func TestClientRejectsBadToken(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, http.StatusUnauthorized, serve(f.mw.Client(ok), "garbage").Code)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Basic abc")
	rec := httptest.NewRecorder()
	f.mw.Client(ok)(rec, req, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthenticateAndRequireAdmin(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	farmer, err := f.authSvc.Create(ctx, "ravi@farm.in", "secret1")
	require.NoError(t, err)
	admin, err := f.authSvc.Create(ctx, "asha@farm.in", "secret1")
	require.NoError(t, err)
	require.NoError(t, f.docs.CreateWithID(ctx, docstore.Users, admin.ID, docstore.Document{
		"uid": admin.ID, "name": "Asha", "email": admin.Email, "role": "admin",
	}))

	issue := func(sessionID string, p *auth.Principal) string {
		tok, err := f.tokens.Issue(sessionID, &models.Identity{ID: p.ID, Email: p.Email})
		require.NoError(t, err)
		return tok
	}

	assert.Equal(t, http.StatusUnauthorized, serve(f.mw.Authenticate(ok), "").Code)

	farmerTok := issue("s-farmer", farmer)
	assert.Equal(t, http.StatusNoContent, serve(f.mw.Authenticate(ok), farmerTok).Code)
	assert.Equal(t, http.StatusForbidden, serve(f.mw.RequireAdmin(ok), farmerTok).Code)

	adminTok := issue("s-admin", admin)
	assert.Equal(t, http.StatusNoContent, serve(f.mw.RequireAdmin(ok), adminTok).Code)
}

func TestTokenMustNameTheSignedInUser(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, err := f.authSvc.Create(ctx, "asha@farm.in", "secret1")
	require.NoError(t, err)

	rec := serve(f.mw.Client(ok), "")
	anonTok := rec.Header().Get(TokenHeader)
	claims, err := f.tokens.Parse(anonTok)
	require.NoError(t, err)
	c, known := f.registry.Get(claims.SessionID)
	require.True(t, known)

	require.True(t, c.Session.Login(ctx, "asha@farm.in", "secret1"))
	signedTok, err := f.tokens.Issue(c.ID, c.Identity())
	require.NoError(t, err)

	assert.Equal(t, http.StatusUnauthorized, serve(f.mw.Client(ok), anonTok).Code)
	assert.Equal(t, http.StatusNoContent, serve(f.mw.Authenticate(ok), signedTok).Code)

	require.NoError(t, c.Session.Logout(ctx))
	assert.Equal(t, http.StatusUnauthorized, serve(f.mw.Client(ok), signedTok).Code)
	assert.Equal(t, http.StatusNoContent, serve(f.mw.Client(ok), anonTok).Code)
}

func TestLimitSessions(t *testing.T) {
	f := newFixture(t)
	f.mw.LimitSessions(ratelim.NewRateLimiter(2))

	assert.Equal(t, http.StatusNoContent, serve(f.mw.Client(ok), "").Code)
	rec := serve(f.mw.Client(ok), "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(f.mw.Client(ok), "").Code)
	assert.Equal(t, 2, f.registry.Len())

	// clients holding a token are not counted
	assert.Equal(t, http.StatusNoContent, serve(f.mw.Client(ok), rec.Header().Get(TokenHeader)).Code)
}

func TestLoggingRecordsStatus(t *testing.T) {
	h := SecurityHeaders(Logging(slog.New(slog.NewTextHandler(io.Discard, nil)))(
		http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusAccepted)
		})))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}
