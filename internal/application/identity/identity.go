package identity

import (
	"context"
	"errors"
)

var (
	ErrIdentityConflict   = errors.New("A user with this email address has already been registered")
	ErrInvalidCredentials = errors.New("Invalid login credentials")
	ErrNotFound           = errors.New("Identity not found")
)

// User is the provider's view of an identity.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Provider is the external authentication service that owns credentials.
type Provider interface {
	SignUp(ctx context.Context, email, password string) (*User, error)
	SignIn(ctx context.Context, email, password string) (*User, error)
	GetUser(ctx context.Context, id string) (*User, error)
	Delete(ctx context.Context, id string) error
}
