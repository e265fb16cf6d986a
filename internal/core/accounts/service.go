package accounts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"Tutter/internal/core/docstore"
)

const (
	// MinPasswordLength is the shortest accepted password
	MinPasswordLength = 6

	// maxPasswordBytes is bcrypt's input limit
	maxPasswordBytes = 72

	maxUsernameLength = 64
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

type accountService struct {
	repo     Repository
	profiles docstore.Store
	issuer   TokenIssuer
	logger   *slog.Logger
	cost     int
}

// NewService creates an account service. profiles is where the initial
// users document is written on sign-up.
func NewService(repo Repository, profiles docstore.Store, issuer TokenIssuer, logger *slog.Logger) Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &accountService{
		repo:     repo,
		profiles: profiles,
		issuer:   issuer,
		logger:   logger,
		cost:     bcrypt.DefaultCost,
	}
}

// SignUp creates the account and its profile document, then issues a token
func (s *accountService) SignUp(ctx context.Context, req SignUpRequest) (*SessionResponse, error) {
	email := normalizeEmail(req.Email)
	username := strings.TrimSpace(req.Username)

	if err := validateSignUp(email, req.Password, username); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	account, err := s.repo.Create(ctx, &Account{
		ID:           uuid.NewString(),
		Email:        email,
		Username:     username,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil {
		if errors.Is(err, ErrEmailTaken) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	// The profile document is best effort: the editor creates it on first save if missing
	_, err = s.profiles.Create(ctx, docstore.CollectionUsers, account.ID, docstore.Fields{
		"name":  username,
		"email": email,
	})
	if err != nil && !errors.Is(err, docstore.ErrConflict) {
		s.logger.Warn("failed to create profile document", "principal", account.ID, "error", err)
	}

	s.logger.Info("account created", "principal", account.ID, "username", username)
	return s.session(account)
}

// SignIn checks the password and issues a token
func (s *accountService) SignIn(ctx context.Context, req SignInRequest) (*SessionResponse, error) {
	email := normalizeEmail(req.Email)
	if email == "" || req.Password == "" {
		return nil, ErrInvalidCredentials
	}

	account, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to look up account: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(req.Password)); err != nil {
		s.logger.Debug("sign-in rejected", "principal", account.ID)
		return nil, ErrInvalidCredentials
	}

	return s.session(account)
}

func (s *accountService) session(account *Account) (*SessionResponse, error) {
	token, expiresAt, err := s.issuer.Issue(account.ID, account.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}
	return &SessionResponse{
		PrincipalID: account.ID,
		Username:    account.Username,
		Email:       account.Email,
		AccessJwt:   token,
		ExpiresAt:   expiresAt,
	}, nil
}

func validateSignUp(email, password, username string) error {
	if !emailPattern.MatchString(email) {
		return NewValidationError("email", "must look like local@domain.tld")
	}
	if len(password) < MinPasswordLength {
		return NewValidationError("password", fmt.Sprintf("must be at least %d characters", MinPasswordLength))
	}
	if len(password) > maxPasswordBytes {
		return NewValidationError("password", fmt.Sprintf("must be at most %d bytes", maxPasswordBytes))
	}
	if username == "" {
		return NewValidationError("username", "must not be empty")
	}
	if len(username) > maxUsernameLength {
		return NewValidationError("username", fmt.Sprintf("must be at most %d characters", maxUsernameLength))
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
