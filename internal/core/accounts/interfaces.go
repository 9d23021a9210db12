package accounts

import "context"

// Finder looks up active accounts. Archived accounts are invisible through
// this contract, so callers never filter on storage fields themselves.
type Finder interface {
	// FindActiveByUsername returns the one non-archived account with that
	// exact username, or ErrAccountNotFound.
	FindActiveByUsername(ctx context.Context, username string) (*Account, error)
}

// StatsReader reports aggregate account statistics.
type StatsReader interface {
	Stats(ctx context.Context) (*Stats, error)
}

// Repository is the full storage contract implemented by the database layer.
type Repository interface {
	Finder
	StatsReader
}
