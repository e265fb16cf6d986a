package accounts

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"Tutter/internal/auth"
	"Tutter/internal/core/docstore"
)

// MockAccountRepository is a mock implementation of Repository
type MockAccountRepository struct {
	mock.Mock
}

func (m *MockAccountRepository) Create(ctx context.Context, account *Account) (*Account, error) {
	args := m.Called(ctx, account)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	if fn, ok := args.Get(0).(func(context.Context, *Account) *Account); ok {
		return fn(ctx, account), args.Error(1)
	}
	return args.Get(0).(*Account), args.Error(1)
}

func (m *MockAccountRepository) GetByEmail(ctx context.Context, email string) (*Account, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Account), args.Error(1)
}

func (m *MockAccountRepository) GetByID(ctx context.Context, id string) (*Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Account), args.Error(1)
}

func newTestService(t *testing.T, repo Repository, profiles docstore.Store) (Service, *auth.Issuer) {
	t.Helper()
	issuer, err := auth.NewIssuer([]byte("0123456789abcdef0123456789abcdef"), "tutter-test", time.Hour)
	require.NoError(t, err)

	svc := NewService(repo, profiles, issuer, nil)
	svc.(*accountService).cost = bcrypt.MinCost
	return svc, issuer
}

func TestSignUp_CreatesAccountAndProfile(t *testing.T) {
	ctx := context.Background()
	repo := new(MockAccountRepository)
	profiles := docstore.NewMemoryStore()
	svc, issuer := newTestService(t, repo, profiles)

	repo.On("Create", ctx, mock.MatchedBy(func(a *Account) bool {
		return a.Email == "ann@example.com" && a.Username == "ann" && a.ID != "" &&
			bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte("secret1")) == nil
	})).Return(func(_ context.Context, a *Account) *Account { return a }, nil)

	resp, err := svc.SignUp(ctx, SignUpRequest{Email: "  Ann@Example.com ", Password: "secret1", Username: " ann "})
	require.NoError(t, err)
	assert.Equal(t, "ann", resp.Username)
	assert.Equal(t, "ann@example.com", resp.Email)
	assert.NotEmpty(t, resp.PrincipalID)

	claims, err := issuer.Verify(resp.AccessJwt)
	require.NoError(t, err)
	assert.Equal(t, resp.PrincipalID, claims.Subject)

	doc, err := profiles.GetByID(ctx, docstore.CollectionUsers, resp.PrincipalID)
	require.NoError(t, err)
	assert.Equal(t, "ann", doc.Fields["name"])
	assert.Equal(t, "ann@example.com", doc.Fields["email"])
	repo.AssertExpectations(t)
}

func TestSignUp_Validation(t *testing.T) {
	tests := []struct {
		name  string
		req   SignUpRequest
		field string
	}{
		{name: "bad email", req: SignUpRequest{Email: "nope", Password: "secret1", Username: "a"}, field: "email"},
		{name: "short password", req: SignUpRequest{Email: "a@b.co", Password: "12345", Username: "a"}, field: "password"},
		{name: "empty username", req: SignUpRequest{Email: "a@b.co", Password: "secret1", Username: "  "}, field: "username"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockAccountRepository)
			svc, _ := newTestService(t, repo, docstore.NewMemoryStore())

			_, err := svc.SignUp(context.Background(), tt.req)
			var valErr *ValidationError
			require.ErrorAs(t, err, &valErr)
			assert.Equal(t, tt.field, valErr.Field)
			repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func TestSignUp_EmailTaken(t *testing.T) {
	repo := new(MockAccountRepository)
	svc, _ := newTestService(t, repo, docstore.NewMemoryStore())
	repo.On("Create", mock.Anything, mock.Anything).Return(nil, ErrEmailTaken)

	_, err := svc.SignUp(context.Background(), SignUpRequest{Email: "a@b.co", Password: "secret1", Username: "a"})
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestSignIn(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("secret1"), bcrypt.MinCost)
	require.NoError(t, err)
	account := &Account{ID: "user-1", Email: "ann@example.com", Username: "ann", PasswordHash: string(hash)}

	tests := []struct {
		setup   func(repo *MockAccountRepository)
		wantErr error
		name    string
		req     SignInRequest
	}{
		{
			name: "success",
			req:  SignInRequest{Email: "ANN@example.com", Password: "secret1"},
			setup: func(repo *MockAccountRepository) {
				repo.On("GetByEmail", mock.Anything, "ann@example.com").Return(account, nil)
			},
		},
		{
			name: "wrong password",
			req:  SignInRequest{Email: "ann@example.com", Password: "wrong!!"},
			setup: func(repo *MockAccountRepository) {
				repo.On("GetByEmail", mock.Anything, "ann@example.com").Return(account, nil)
			},
			wantErr: ErrInvalidCredentials,
		},
		{
			name: "unknown email",
			req:  SignInRequest{Email: "bo@example.com", Password: "secret1"},
			setup: func(repo *MockAccountRepository) {
				repo.On("GetByEmail", mock.Anything, "bo@example.com").Return(nil, ErrAccountNotFound)
			},
			wantErr: ErrInvalidCredentials,
		},
		{
			name:    "empty password",
			req:     SignInRequest{Email: "ann@example.com"},
			setup:   func(repo *MockAccountRepository) {},
			wantErr: ErrInvalidCredentials,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockAccountRepository)
			tt.setup(repo)
			svc, _ := newTestService(t, repo, docstore.NewMemoryStore())

			resp, err := svc.SignIn(context.Background(), tt.req)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, resp)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "user-1", resp.PrincipalID)
			assert.NotEmpty(t, resp.AccessJwt)
		})
	}
}

func TestSignIn_RepositoryFailure(t *testing.T) {
	repo := new(MockAccountRepository)
	repo.On("GetByEmail", mock.Anything, "ann@example.com").Return(nil, errors.New("db down"))
	svc, _ := newTestService(t, repo, docstore.NewMemoryStore())

	_, err := svc.SignIn(context.Background(), SignInRequest{Email: "ann@example.com", Password: "secret1"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidCredentials)
}
