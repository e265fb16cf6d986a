package accounts

import "time"

// Account is a registered principal. The profile lives in the users collection
// under the same id.
type Account struct {
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	ID           string    `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	Username     string    `json:"username" db:"username"`
	PasswordHash string    `json:"-" db:"password_hash"`
}

// SignUpRequest is the input for creating an account
type SignUpRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Username string `json:"username"`
}

// SignInRequest is the input for signing in
type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SessionResponse is returned by sign-up and sign-in
type SessionResponse struct {
	ExpiresAt   time.Time `json:"expiresAt"`
	PrincipalID string    `json:"principalId"`
	Username    string    `json:"username"`
	Email       string    `json:"email"`
	AccessJwt   string    `json:"accessJwt"`
}
