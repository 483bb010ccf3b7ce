// Package store is the Postgres access layer for the balance-of-record
// accounts and their audit entries.
package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oklog/ulid/v2"
)

// NewID mints a ULID, used for session identifiers and ledger entry rows.
func NewID() string {
	return ulid.Make().String()
}

// Store wraps DB access for the balance-of-record accounts.
type Store struct {
	Pool *pgxpool.Pool
}

func New(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{Pool: pool}, nil
}

func (s *Store) Close() {
	if s.Pool != nil {
		s.Pool.Close()
	}
}

func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return s.Pool.Ping(ctx)
}

// EnsureSchema creates the accounts tables if missing. The engine owns no
// other persistent state; everything in-round lives in memory.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.Pool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS accounts (
    username   TEXT PRIMARY KEY,
    balance_cc BIGINT NOT NULL DEFAULT 0,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS account_entries (
    id         TEXT PRIMARY KEY,
    username   TEXT NOT NULL REFERENCES accounts(username),
    type       TEXT NOT NULL,
    amount_cc  BIGINT NOT NULL,
    ref_type   TEXT NOT NULL DEFAULT '',
    ref_id     TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);`)
	return err
}
