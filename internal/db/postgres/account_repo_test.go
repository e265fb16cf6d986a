package postgres

import (
	"context"
	"database/sql"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Tutter/internal/core/accounts"
)

func cleanupAccounts(t *testing.T, db *sql.DB) {
	_, err := db.Exec("DELETE FROM accounts WHERE email LIKE '%@test.tutter.local'")
	require.NoError(t, err, "Failed to cleanup accounts")
}

func TestAccountRepo_CreateAndGet(t *testing.T) {
	db := setupTestDB(t)
	defer func() { _ = db.Close() }()
	cleanupAccounts(t, db)
	defer cleanupAccounts(t, db)

	repo := NewAccountRepository(db)
	ctx := context.Background()

	created, err := repo.Create(ctx, &accounts.Account{
		ID:           uuid.NewString(),
		Email:        "ann@test.tutter.local",
		Username:     "ann",
		PasswordHash: "hash",
	})
	require.NoError(t, err)
	assert.False(t, created.CreatedAt.IsZero())

	byEmail, err := repo.GetByEmail(ctx, "ann@test.tutter.local")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byEmail.ID)
	assert.Equal(t, "hash", byEmail.PasswordHash)

	byID, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "ann", byID.Username)

	_, err = repo.Create(ctx, &accounts.Account{
		ID:           uuid.NewString(),
		Email:        "ann@test.tutter.local",
		Username:     "other",
		PasswordHash: "hash",
	})
	assert.ErrorIs(t, err, accounts.ErrEmailTaken)

	_, err = repo.GetByEmail(ctx, "nobody@test.tutter.local")
	assert.ErrorIs(t, err, accounts.ErrAccountNotFound)
}
