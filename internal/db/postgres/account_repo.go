package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"Fingerpost/internal/core/accounts"
)

const findActiveAccountQuery = `
	SELECT username, display_name, avatar, archived, created_at, updated_at
	FROM accounts
	WHERE username = $1 AND archived = FALSE`

const accountStatsQuery = `
	SELECT
		COUNT(*),
		COUNT(*) FILTER (WHERE updated_at > NOW() - INTERVAL '30 days'),
		COUNT(*) FILTER (WHERE updated_at > NOW() - INTERVAL '180 days')
	FROM accounts
	WHERE archived = FALSE`

type postgresAccountRepo struct {
	db *sql.DB
}

// NewAccountRepository creates a new PostgreSQL account repository
func NewAccountRepository(db *sql.DB) accounts.Repository {
	return &postgresAccountRepo{db: db}
}

// FindActiveByUsername retrieves the non-archived account with that username
func (r *postgresAccountRepo) FindActiveByUsername(ctx context.Context, username string) (*accounts.Account, error) {
	account := &accounts.Account{}

	var displayName, avatar sql.NullString
	err := r.db.QueryRowContext(ctx, findActiveAccountQuery, username).
		Scan(&account.Username, &displayName, &avatar, &account.Archived, &account.CreatedAt, &account.UpdatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, accounts.ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account by username: %w", err)
	}

	account.DisplayName = displayName.String
	account.Avatar = avatar.String

	return account, nil
}

// Stats counts active accounts
func (r *postgresAccountRepo) Stats(ctx context.Context) (*accounts.Stats, error) {
	stats := &accounts.Stats{}
	err := r.db.QueryRowContext(ctx, accountStatsQuery).
		Scan(&stats.TotalUsers, &stats.ActiveMonth, &stats.ActiveHalfyear)
	if err != nil {
		return nil, fmt.Errorf("failed to count accounts: %w", err)
	}
	return stats, nil
}
