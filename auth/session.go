package auth

import (
	"context"
	"sync"
)

var _ Provider = (*Session)(nil)

// Session is one client's signed-in state against a Service. Listeners run
// synchronously on the goroutine that changed the state.
type Session struct {
	svc *Service

	mu        sync.Mutex
	current   *Principal
	next      int
	listeners map[int]func(*Principal)
}

func NewSession(svc *Service) *Session {
	return &Session{svc: svc, listeners: make(map[int]func(*Principal))}
}

func (s *Session) SignIn(ctx context.Context, email, password string) (*Principal, error) {
	p, err := s.svc.Verify(ctx, email, password)
	if err != nil {
		return nil, err
	}
	s.set(p)
	return p, nil
}

// SignUp creates the account and signs it in.
func (s *Session) SignUp(ctx context.Context, email, password string) (*Principal, error) {
	p, err := s.svc.Create(ctx, email, password)
	if err != nil {
		return nil, err
	}
	s.set(p)
	return p, nil
}

func (s *Session) SignOut(context.Context) error {
	s.set(nil)
	return nil
}

// Resume re-announces a principal recovered outside the session, such as
// from a verified access token after a restart.
func (s *Session) Resume(p *Principal) {
	s.set(p)
}

// Principal returns the signed-in principal or nil.
func (s *Session) Principal() *Principal {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil
	}
	cp := *s.current
	return &cp
}

func (s *Session) OnSessionChange(fn func(*Principal)) func() {
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

func (s *Session) set(p *Principal) {
	s.mu.Lock()
	s.current = p
	fns := make([]func(*Principal), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		var arg *Principal
		if p != nil {
			cp := *p
			arg = &cp
		}
		fn(arg)
	}
}
