package middleware

import (
	"bufio"
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"agrimart/auth"
	"agrimart/clients"
	"agrimart/models"
	"agrimart/ratelim"
	"agrimart/utils"

	"github.com/julienschmidt/httprouter"
)

// TokenHeader carries the token of a session opened by the middleware.
const TokenHeader = "X-Session-Token"

type ctxKey int

const clientKey ctxKey = iota

// WithClient returns ctx carrying c.
func WithClient(ctx context.Context, c *clients.Client) context.Context {
	return context.WithValue(ctx, clientKey, c)
}

// ClientFrom returns the client attached by Client, or nil.
func ClientFrom(ctx context.Context) *clients.Client {
	c, _ := ctx.Value(clientKey).(*clients.Client)
	return c
}

type Auth struct {
	tokens   *auth.Tokens
	clients  *clients.Registry
	sessions *ratelim.RateLimiter
	logger   *slog.Logger
}

func New(tokens *auth.Tokens, registry *clients.Registry, logger *slog.Logger) *Auth {
	return &Auth{tokens: tokens, clients: registry, logger: logger}
}

// LimitSessions caps how many anonymous sessions one IP may open.
func (a *Auth) LimitSessions(rl *ratelim.RateLimiter) *Auth {
	a.sessions = rl
	return a
}

// Client attaches the caller's client session. A request without a token
// gets a new anonymous session whose token is returned in TokenHeader. A
// token only opens its session while it names the user signed in there.
func (a *Auth) Client(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		tokenString := utils.BearerToken(r)
		if tokenString == "" {
			if r.Header.Get("Authorization") != "" {
				utils.RespondWithError(w, http.StatusUnauthorized, "Invalid token format")
				return
			}
			if a.sessions != nil && !a.sessions.Allow(ratelim.ClientIP(r)) {
				w.Header().Set("Retry-After", "60")
				utils.RespondWithError(w, http.StatusTooManyRequests, "Too many new sessions")
				return
			}
			c := a.clients.New()
			token, err := a.tokens.Issue(c.ID, nil)
			if err != nil {
				a.logger.Error("issue session token", "error", err)
				utils.RespondWithError(w, http.StatusInternalServerError, "Could not open session")
				return
			}
			w.Header().Set(TokenHeader, token)
			next(w, r.WithContext(WithClient(r.Context(), c)), ps)
			return
		}

		claims, err := a.tokens.Parse(tokenString)
		if err != nil {
			utils.RespondWithError(w, http.StatusUnauthorized, "Invalid token")
			return
		}
		c, err := a.clients.Resume(r.Context(), claims.SessionID, claims.Principal())
		if err != nil {
			a.logger.Warn("resume client session", "session", claims.SessionID, "error", err)
			utils.RespondWithError(w, http.StatusServiceUnavailable, "Could not restore session")
			return
		}
		if userID(c.Identity()) != claims.UserID {
			utils.RespondWithError(w, http.StatusUnauthorized, "Session has changed, please log in again")
			return
		}
		next(w, r.WithContext(WithClient(r.Context(), c)), ps)
	}
}

func userID(id *models.Identity) string {
	if id == nil {
		return ""
	}
	return id.ID
}

// Authenticate requires a signed-in identity.
func (a *Auth) Authenticate(next httprouter.Handle) httprouter.Handle {
	return a.Client(func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		if ClientFrom(r.Context()).Identity() == nil {
			utils.RespondWithError(w, http.StatusUnauthorized, "Please log in to continue")
			return
		}
		next(w, r, ps)
	})
}

// RequireAdmin requires a signed-in admin.
func (a *Auth) RequireAdmin(next httprouter.Handle) httprouter.Handle {
	return a.Authenticate(func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		if !ClientFrom(r.Context()).Identity().IsAdmin() {
			utils.RespondWithError(w, http.StatusForbidden, "Admin access required")
			return
		}
		next(w, r, ps)
	})
}

// SecurityHeaders applies a set of recommended HTTP security headers.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "frame-ancestors 'none'")
		w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		w.Header().Set("Referrer-Policy", "no-referrer")
		w.Header().Set("Permissions-Policy", "geolocation=(), microphone=(), camera=()")
		w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate, private")
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Unwrap() http.ResponseWriter { return s.ResponseWriter }

// Hijack lets websocket upgrades through the recorder.
func (s *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := s.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("hijack not supported")
	}
	s.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

// Logging logs each request method, path, status and duration.
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			logger.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"remote", r.RemoteAddr,
				"status", rec.status,
				"duration", time.Since(start),
			)
		})
	}
}
