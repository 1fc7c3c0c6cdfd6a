// Package storage implements the PostgreSQL credential store and
// subscription ledger on top of a pgx connection pool.
package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Sentinel errors surfaced to the service layer.
var (
	ErrUserNotFound         = errors.New("user not found")
	ErrEmailTaken           = errors.New("email already registered")
	ErrNoTerms              = errors.New("no terms published")
	ErrSubscriptionNotFound = errors.New("subscription not found")
)

// Storage owns the connection pool. Repositories are methods on it.
type Storage struct {
	Db *pgxpool.Pool
}

// New opens a pool for the connection string and verifies it with a ping.
func New(ctx context.Context, storageConnectionString string) (*Storage, error) {
	const op = "storage.New"

	pool, err := pgxpool.New(ctx, storageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &Storage{Db: pool}, nil
}

// Close releases the pool.
func (s *Storage) Close() {
	s.Db.Close()
}
