package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"Tutter/internal/core/accounts"
)

type postgresAccountRepo struct {
	db *sql.DB
}

// NewAccountRepository creates a new PostgreSQL account repository
func NewAccountRepository(db *sql.DB) accounts.Repository {
	return &postgresAccountRepo{db: db}
}

// Create inserts a new account
func (r *postgresAccountRepo) Create(ctx context.Context, account *accounts.Account) (*accounts.Account, error) {
	query := `
		INSERT INTO accounts (id, email, username, password_hash, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		RETURNING created_at
	`

	err := r.db.QueryRowContext(ctx, query,
		account.ID, account.Email, account.Username, account.PasswordHash,
	).Scan(&account.CreatedAt)
	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") && strings.Contains(err.Error(), "unique_account_email") {
			return nil, accounts.ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to insert account: %w", err)
	}

	return account, nil
}

// GetByEmail retrieves an account by its lowercase email
func (r *postgresAccountRepo) GetByEmail(ctx context.Context, email string) (*accounts.Account, error) {
	return r.getOne(ctx, `
		SELECT id, email, username, password_hash, created_at
		FROM accounts
		WHERE email = $1
	`, email)
}

// GetByID retrieves an account by principal id
func (r *postgresAccountRepo) GetByID(ctx context.Context, id string) (*accounts.Account, error) {
	return r.getOne(ctx, `
		SELECT id, email, username, password_hash, created_at
		FROM accounts
		WHERE id = $1
	`, id)
}

func (r *postgresAccountRepo) getOne(ctx context.Context, query string, arg string) (*accounts.Account, error) {
	var account accounts.Account
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&account.ID,
		&account.Email,
		&account.Username,
		&account.PasswordHash,
		&account.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, accounts.ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return &account, nil
}
