// Package clients keeps the per-client server state: the signed-in session,
// the identity store that follows it, and the cart.
package clients

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"agrimart/auth"
	"agrimart/cart"
	"agrimart/docstore"
	"agrimart/models"
	"agrimart/orders"
	"agrimart/session"

	"github.com/google/uuid"
)

// Client is one browser session.
type Client struct {
	ID      string
	Auth    *auth.Session
	Session *session.Store
	Cart    *cart.Cart

	lastSeen atomic.Int64

	mu    sync.Mutex
	views map[*orders.LiveView]func()
}

func (c *Client) touch(now time.Time) {
	c.lastSeen.Store(now.UnixNano())
}

// Identity returns the identity of the signed-in user or nil.
func (c *Client) Identity() *models.Identity {
	return c.Session.Current()
}

// Watch points view at the client's identity and keeps it there as the
// identity changes. The returned func closes the view.
func (c *Client) Watch(ctx context.Context, view *orders.LiveView) (func(), error) {
	if err := view.Follow(ctx, c.Session.Current()); err != nil {
		view.Close()
		return nil, err
	}
	unsubscribe := c.Session.OnIdentityChange(func(id *models.Identity) {
		// Errors surface as an unchanged view; the next change retries.
		_ = view.Follow(ctx, id)
	})

	stop := func() {
		unsubscribe()
		view.Close()
	}
	c.mu.Lock()
	c.views[view] = stop
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.views, view)
			c.mu.Unlock()
			stop()
		})
	}, nil
}

func (c *Client) close() {
	c.mu.Lock()
	stops := make([]func(), 0, len(c.views))
	for v, stop := range c.views {
		stops = append(stops, stop)
		delete(c.views, v)
	}
	c.mu.Unlock()
	for _, stop := range stops {
		stop()
	}
	c.Session.Close()
}

// DefaultAnonymousIdle is how long a client nobody signed in to is kept
// after its last request.
const DefaultAnonymousIdle = 30 * time.Minute

// CacheFactory builds the identity cache for a client session.
type CacheFactory func(sessionID string) session.Cache

// Registry maps session ids to clients.
type Registry struct {
	authSvc  *auth.Service
	docs     docstore.Store
	newCache CacheFactory
	admins   []string
	anonIdle time.Duration
	logger   *slog.Logger
	now      func() time.Time

	mu      sync.Mutex
	clients map[string]*Client
}

// NewRegistry returns an empty registry. A nil newCache keeps identity
// caches in memory.
func NewRegistry(authSvc *auth.Service, docs docstore.Store, newCache CacheFactory, logger *slog.Logger) *Registry {
	if newCache == nil {
		newCache = func(string) session.Cache { return session.NewMemoryCache() }
	}
	return &Registry{
		authSvc:  authSvc,
		docs:     docs,
		newCache: newCache,
		anonIdle: DefaultAnonymousIdle,
		logger:   logger,
		now:      time.Now,
		clients:  make(map[string]*Client),
	}
}

// WithAdmins sets the emails whose new user records are admin records.
func (r *Registry) WithAdmins(emails []string) *Registry {
	r.admins = emails
	return r
}

// WithAnonymousIdle sets how long anonymous clients are kept when idle.
func (r *Registry) WithAnonymousIdle(d time.Duration) *Registry {
	if d > 0 {
		r.anonIdle = d
	}
	return r
}

func (r *Registry) build(id string) *Client {
	authSess := auth.NewSession(r.authSvc)
	store := session.NewStore(authSess, r.docs, r.newCache(id), r.logger.With("session", id)).WithAdmins(r.admins)
	store.Start()
	c := &Client{
		ID:      id,
		Auth:    authSess,
		Session: store,
		Cart:    cart.New(),
		views:   make(map[*orders.LiveView]func()),
	}
	c.touch(r.now())
	return c
}

// New creates an anonymous client with a fresh session id.
func (r *Registry) New() *Client {
	c := r.build(uuid.NewString())
	r.mu.Lock()
	r.clients[c.ID] = c
	r.mu.Unlock()
	return c
}

// Get returns the client for id.
func (r *Registry) Get(id string) (*Client, bool) {
	r.mu.Lock()
	c, ok := r.clients[id]
	r.mu.Unlock()
	if ok {
		c.touch(r.now())
	}
	return c, ok
}

// Resume returns the client for id, recreating it from p when the server no
// longer knows the session. A known client keeps its own signed-in state.
func (r *Registry) Resume(ctx context.Context, id string, p *auth.Principal) (*Client, error) {
	r.mu.Lock()
	c, ok := r.clients[id]
	if !ok {
		c = r.build(id)
		r.clients[id] = c
	}
	r.mu.Unlock()

	if ok {
		c.touch(r.now())
		return c, nil
	}
	if p == nil {
		return c, nil
	}
	c.Auth.Resume(p)
	if c.Session.Current() == nil {
		// The listener already logged; retry once with the caller's deadline.
		if err := c.Session.RestoreSession(ctx, p); err != nil {
			return c, err
		}
	}
	r.logger.Info("client session resumed", "session", id, "user", p.ID)
	return c, nil
}

// Remove drops the client and ends its live views.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	c, ok := r.clients[id]
	delete(r.clients, id)
	r.mu.Unlock()
	if ok {
		c.close()
	}
}

// Len reports the number of tracked clients.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.clients)
}

// Sweep removes clients idle for longer than maxIdle, or longer than the
// anonymous idle time when nobody is signed in, and returns how many were
// removed.
func (r *Registry) Sweep(maxIdle time.Duration) int {
	now := r.now()
	cutoff := now.Add(-maxIdle).UnixNano()
	anonCutoff := now.Add(-min(r.anonIdle, maxIdle)).UnixNano()
	r.mu.Lock()
	var idle []*Client
	for id, c := range r.clients {
		limit := cutoff
		if c.Identity() == nil {
			limit = anonCutoff
		}
		if c.lastSeen.Load() < limit {
			idle = append(idle, c)
			delete(r.clients, id)
		}
	}
	r.mu.Unlock()
	for _, c := range idle {
		c.close()
	}
	return len(idle)
}

// Run sweeps idle clients every interval until ctx is done.
func (r *Registry) Run(ctx context.Context, interval, maxIdle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Sweep(maxIdle); n > 0 {
				r.logger.Info("swept idle client sessions", "count", n)
			}
		}
	}
}

// Close ends every client.
func (r *Registry) Close() {
	r.mu.Lock()
	all := r.clients
	r.clients = make(map[string]*Client)
	r.mu.Unlock()
	for _, c := range all {
		c.close()
	}
}
