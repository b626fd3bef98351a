// Package session owns the signed-in identity of one client and keeps it
// in step with the auth provider.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"agrimart/auth"
	"agrimart/docstore"
	"agrimart/models"

	"golang.org/x/sync/singleflight"
)

// Cache keys.
const (
	KeyUser      = "user"
	KeyUserEmail = "userEmail"
)

const restoreTimeout = 10 * time.Second

var ErrAlreadyRegistered = errors.New("email already registered")

// Store holds the current identity. Identity is only replaced after every
// read needed to build it has succeeded.
type Store struct {
	provider auth.Provider
	docs     docstore.Store
	cache    Cache
	logger   *slog.Logger

	admins map[string]bool

	group singleflight.Group
	gen   atomic.Uint64

	mu        sync.RWMutex
	current   *models.Identity
	next      int
	listeners map[int]func(*models.Identity)

	unsubscribe func()
}

func NewStore(provider auth.Provider, docs docstore.Store, cache Cache, logger *slog.Logger) *Store {
	return &Store{
		provider:  provider,
		docs:      docs,
		cache:     cache,
		logger:    logger,
		listeners: make(map[int]func(*models.Identity)),
	}
}

// WithAdmins makes every new user record for one of emails an admin record.
// Existing records keep their role.
func (s *Store) WithAdmins(emails []string) *Store {
	if len(emails) == 0 {
		return s
	}
	s.admins = make(map[string]bool, len(emails))
	for _, e := range emails {
		s.admins[auth.NormalizeEmail(e)] = true
	}
	return s
}

func (s *Store) roleFor(email string, role models.Role) models.Role {
	if s.admins[auth.NormalizeEmail(email)] {
		return models.RoleAdmin
	}
	if role == "" {
		return models.RoleFarmer
	}
	return role
}

// Start follows provider session changes until Close.
func (s *Store) Start() {
	s.unsubscribe = s.provider.OnSessionChange(func(p *auth.Principal) {
		ctx, cancel := context.WithTimeout(context.Background(), restoreTimeout)
		defer cancel()
		if err := s.RestoreSession(ctx, p); err != nil {
			s.logger.Error("restore session failed", "error", err)
		}
	})
}

func (s *Store) Close() {
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
}

// RestoreSession rebuilds the identity for p, or clears it when p is nil.
func (s *Store) RestoreSession(ctx context.Context, p *auth.Principal) error {
	gen := s.gen.Add(1)
	if p == nil {
		s.clear(ctx, gen)
		return nil
	}

	v, err, _ := s.group.Do(p.ID, func() (any, error) {
		return s.resolve(ctx, p)
	})
	if err != nil {
		return fmt.Errorf("restore %s: %w", p.ID, err)
	}
	s.set(gen, v.(*models.Identity))
	return nil
}

func (s *Store) resolve(ctx context.Context, p *auth.Principal) (*models.Identity, error) {
	if id := s.cached(ctx, p.ID); id != nil {
		return id, nil
	}

	doc, err := s.docs.Get(ctx, docstore.Users, p.ID)
	if errors.Is(err, docstore.ErrNotFound) {
		if err := s.provision(ctx, p); err != nil {
			return nil, err
		}
		doc, err = s.docs.Get(ctx, docstore.Users, p.ID)
	}
	if err != nil {
		return nil, fmt.Errorf("load user record: %w", err)
	}

	rec, err := models.DecodeUser(doc)
	if err != nil {
		return nil, err
	}
	id := rec.Identity()
	s.store(ctx, id)
	return id, nil
}

// provision writes the default record for a principal that has none.
// Losing a creation race to another restore is fine.
func (s *Store) provision(ctx context.Context, p *auth.Principal) error {
	rec := models.UserRecord{
		UID:       p.ID,
		Name:      localPart(p.Email),
		Email:     p.Email,
		Role:      s.roleFor(p.Email, models.RoleFarmer),
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}
	doc, err := models.Document(rec)
	if err != nil {
		return err
	}
	err = s.docs.CreateWithID(ctx, docstore.Users, p.ID, docstore.Compact(doc))
	if err != nil && !errors.Is(err, docstore.ErrAlreadyExists) {
		return fmt.Errorf("provision user record: %w", err)
	}
	s.logger.Info("provisioned user record", "uid", p.ID)
	return nil
}

func (s *Store) cached(ctx context.Context, uid string) *models.Identity {
	raw, ok, err := s.cache.Get(ctx, KeyUser)
	if err != nil {
		s.logger.Warn("read cached identity", "error", err)
		return nil
	}
	if !ok {
		return nil
	}
	var id models.Identity
	if err := json.Unmarshal([]byte(raw), &id); err != nil {
		s.logger.Warn("discarding malformed cached identity", "error", err)
		return nil
	}
	if id.ID != uid {
		return nil
	}
	if _, err := models.ParseRole(string(id.Role)); err != nil {
		return nil
	}
	return &id
}

func (s *Store) store(ctx context.Context, id *models.Identity) {
	raw, err := json.Marshal(id)
	if err != nil {
		s.logger.Warn("encode identity", "error", err)
		return
	}
	if err := s.cache.Set(ctx, KeyUser, string(raw)); err != nil {
		s.logger.Warn("cache identity", "error", err)
	}
}

// Login reports whether the credentials were accepted and the identity restored.
func (s *Store) Login(ctx context.Context, email, password string) bool {
	p, err := s.provider.SignIn(ctx, email, password)
	if err != nil {
		s.logger.Info("login failed", "email", email, "error", err)
		return false
	}
	if err := s.RestoreSession(ctx, p); err != nil {
		s.logger.Error("login restore failed", "email", email, "error", err)
		return false
	}
	return true
}

// Register creates the account and its user record, then signs out again.
// An email already in use yields ErrAlreadyRegistered; other failures
// report false.
func (s *Store) Register(ctx context.Context, name, email, password string, role models.Role) (bool, error) {
	p, err := s.provider.SignUp(ctx, email, password)
	if errors.Is(err, auth.ErrEmailInUse) {
		return false, ErrAlreadyRegistered
	}
	if err != nil {
		s.logger.Info("register failed", "email", email, "error", err)
		return false, nil
	}

	ok := true
	if err := s.writeRecord(ctx, p, name, role); err != nil {
		s.logger.Error("register user record failed", "uid", p.ID, "error", err)
		ok = false
	}
	if err := s.provider.SignOut(ctx); err != nil {
		s.logger.Warn("sign out after register", "uid", p.ID, "error", err)
	}
	return ok, nil
}

func (s *Store) writeRecord(ctx context.Context, p *auth.Principal, name string, role models.Role) error {
	rec := models.UserRecord{
		UID:       p.ID,
		Name:      name,
		Email:     p.Email,
		Role:      s.roleFor(p.Email, role),
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}
	doc, err := models.Document(rec)
	if err != nil {
		return err
	}
	doc = docstore.Compact(doc)
	err = s.docs.CreateWithID(ctx, docstore.Users, p.ID, doc)
	if errors.Is(err, docstore.ErrAlreadyExists) {
		// a restore triggered by sign-up provisioned defaults first
		return s.docs.Update(ctx, docstore.Users, p.ID, doc)
	}
	return err
}

// Logout signs out and clears identity and cache even if the provider fails.
func (s *Store) Logout(ctx context.Context) error {
	err := s.provider.SignOut(ctx)
	if err != nil {
		s.logger.Warn("provider sign out failed", "error", err)
	}
	s.clear(ctx, s.gen.Add(1))
	return err
}

// Current returns a copy of the identity or nil.
func (s *Store) Current() *models.Identity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil
	}
	cp := *s.current
	return &cp
}

// OnIdentityChange registers fn for every identity change.
func (s *Store) OnIdentityChange(fn func(*models.Identity)) func() {
	s.mu.Lock()
	id := s.next
	s.next++
	s.listeners[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.listeners, id)
			s.mu.Unlock()
		})
	}
}

// RememberEmail caches the last contact email used at checkout.
func (s *Store) RememberEmail(ctx context.Context, email string) {
	if err := s.cache.Set(ctx, KeyUserEmail, email); err != nil {
		s.logger.Warn("cache user email", "error", err)
	}
}

// RememberedEmail returns the last contact email used at checkout.
func (s *Store) RememberedEmail(ctx context.Context) string {
	v, _, err := s.cache.Get(ctx, KeyUserEmail)
	if err != nil {
		s.logger.Warn("read cached user email", "error", err)
	}
	return v
}

func (s *Store) clear(ctx context.Context, gen uint64) {
	if err := s.cache.Delete(ctx, KeyUser); err != nil {
		s.logger.Warn("clear cached identity", "error", err)
	}
	s.set(gen, nil)
}

func (s *Store) set(gen uint64, id *models.Identity) {
	s.mu.Lock()
	if s.gen.Load() != gen {
		s.mu.Unlock()
		return
	}
	changed := !sameIdentity(s.current, id)
	s.current = id
	fns := make([]func(*models.Identity), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	if !changed {
		return
	}
	for _, fn := range fns {
		var arg *models.Identity
		if id != nil {
			cp := *id
			arg = &cp
		}
		fn(arg)
	}
}

func sameIdentity(a, b *models.Identity) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func localPart(email string) string {
	if i := strings.IndexByte(email, '@'); i >= 0 {
		return email[:i]
	}
	return email
}
