package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
)

var ErrNotFound = errors.New("not found")

var ErrInsufficientBalance = errors.New("insufficient balance")

func (s *Store) GetBalance(ctx context.Context, username string) (int64, error) {
	var bal int64
	err := s.Pool.QueryRow(ctx,
		`SELECT balance_cc FROM accounts WHERE username = $1`, username).Scan(&bal)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrNotFound
	}
	return bal, err
}

// Debit removes amount from the account inside a transaction, failing
// without side effects when the balance does not cover it.
func (s *Store) Debit(ctx context.Context, username string, amount int64, entryType, refType, refID string) (int64, error) {
	if amount < 0 {
		return 0, errors.New("amount must be positive")
	}
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	var bal int64
	err = tx.QueryRow(ctx,
		`SELECT balance_cc FROM accounts WHERE username = $1 FOR UPDATE`, username).Scan(&bal)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, err
	}
	if bal < amount {
		return 0, ErrInsufficientBalance
	}
	newBal := bal - amount
	if err := s.applyEntry(ctx, tx, username, newBal, -amount, entryType, refType, refID); err != nil {
		return 0, err
	}
	return newBal, tx.Commit(ctx)
}

func (s *Store) Credit(ctx context.Context, username string, amount int64, entryType, refType, refID string) (int64, error) {
	if amount < 0 {
		return 0, errors.New("amount must be positive")
	}
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	var bal int64
	err = tx.QueryRow(ctx,
		`SELECT balance_cc FROM accounts WHERE username = $1 FOR UPDATE`, username).Scan(&bal)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, err
	}
	newBal := bal + amount
	if err := s.applyEntry(ctx, tx, username, newBal, amount, entryType, refType, refID); err != nil {
		return 0, err
	}
	return newBal, tx.Commit(ctx)
}

func (s *Store) applyEntry(ctx context.Context, tx pgx.Tx, username string, newBal, delta int64, entryType, refType, refID string) error {
	if _, err := tx.Exec(ctx,
		`UPDATE accounts SET balance_cc = $1, updated_at = now() WHERE username = $2`,
		newBal, username); err != nil {
		return err
	}
	_, err := tx.Exec(ctx,
		`INSERT INTO account_entries (id, username, type, amount_cc, ref_type, ref_id)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		NewID(), username, entryType, delta, refType, refID)
	return err
}

func (s *Store) EnsureAccount(ctx context.Context, username string, initial int64) error {
	_, err := s.Pool.Exec(ctx,
		`INSERT INTO accounts (username, balance_cc) VALUES ($1, $2)
		 ON CONFLICT (username) DO NOTHING`, username, initial)
	return err
}
