package accounts

import (
	"context"
	"time"
)

// Repository persists accounts
type Repository interface {
	// Create stores a new account. Returns ErrEmailTaken if the email is in use.
	Create(ctx context.Context, account *Account) (*Account, error)
	// GetByEmail returns ErrAccountNotFound if no account has this email.
	GetByEmail(ctx context.Context, email string) (*Account, error)
	GetByID(ctx context.Context, id string) (*Account, error)
}

// TokenIssuer signs session tokens
type TokenIssuer interface {
	Issue(principalID, username string) (string, time.Time, error)
}

// Service handles sign-up and sign-in
type Service interface {
	SignUp(ctx context.Context, req SignUpRequest) (*SessionResponse, error)
	SignIn(ctx context.Context, req SignInRequest) (*SessionResponse, error)
}
