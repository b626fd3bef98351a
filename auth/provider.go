// Package auth is the credential authority and the per-client view of it.
package auth

import (
	"context"
	"errors"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailInUse         = errors.New("email already in use")
	ErrInvalidEmail       = errors.New("invalid email")
	ErrWeakPassword       = errors.New("password must be at least 6 characters")
)

// Principal is an authenticated account as the provider knows it.
type Principal struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Provider signs principals in and out and announces every change.
type Provider interface {
	SignIn(ctx context.Context, email, password string) (*Principal, error)
	SignUp(ctx context.Context, email, password string) (*Principal, error)
	SignOut(ctx context.Context) error
	OnSessionChange(fn func(*Principal)) (unsubscribe func())
}
