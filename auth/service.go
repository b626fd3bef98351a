package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"agrimart/docstore"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLen = 6

// Service verifies and registers credentials. Records live in the
// credentials collection keyed by normalized email.
type Service struct {
	docs   docstore.Store
	logger *slog.Logger
	cost   int
}

func NewService(docs docstore.Store, logger *slog.Logger) *Service {
	return &Service{docs: docs, logger: logger, cost: bcrypt.DefaultCost}
}

// WithCost overrides the bcrypt cost.
func (s *Service) WithCost(cost int) *Service {
	s.cost = cost
	return s
}

// NormalizeEmail trims and lowercases an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *Service) Verify(ctx context.Context, email, password string) (*Principal, error) {
	email = NormalizeEmail(email)
	doc, err := s.docs.Get(ctx, docstore.Credentials, email)
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("load credentials: %w", err)
	}

	hash, _ := doc["passwordHash"].(string)
	uid, _ := doc["uid"].(string)
	if hash == "" || uid == "" {
		s.logger.Warn("malformed credentials record", "email", email)
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return &Principal{ID: uid, Email: email}, nil
}

func (s *Service) Create(ctx context.Context, email, password string) (*Principal, error) {
	email = NormalizeEmail(email)
	if !strings.Contains(email, "@") {
		return nil, ErrInvalidEmail
	}
	if len(password) < minPasswordLen {
		return nil, ErrWeakPassword
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	p := &Principal{ID: uuid.NewString(), Email: email}
	err = s.docs.CreateWithID(ctx, docstore.Credentials, email, docstore.Document{
		"uid":          p.ID,
		"email":        email,
		"passwordHash": string(hashed),
		"createdAt":    time.Now().UTC().Format(time.RFC3339),
	})
	if errors.Is(err, docstore.ErrAlreadyExists) {
		return nil, ErrEmailInUse
	}
	if err != nil {
		return nil, fmt.Errorf("store credentials: %w", err)
	}
	return p, nil
}
