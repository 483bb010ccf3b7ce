// Package ledger is the balance-of-record collaborator. Rounds read and
// move money only through this interface; every implementation is safe for
// concurrent calls from independent sessions touching the same identity.
package ledger

import (
	"context"
	"errors"

	"github.com/Richrosh3/online-casino/internal/store"
)

var ErrInsufficientFunds = errors.New("insufficient funds")

type Ledger interface {
	// Ensure creates the identity's account with an initial grant if it
	// does not exist yet.
	Ensure(ctx context.Context, user string, initial int64) error
	Balance(ctx context.Context, user string) (int64, error)
	Deposit(ctx context.Context, user string, amount int64) error
	// Withdraw fails with ErrInsufficientFunds and no side effects when
	// the balance does not cover amount.
	Withdraw(ctx context.Context, user string, amount int64) error
}

// PG is the Postgres-backed ledger used in production.
type PG struct {
	Store *store.Store
}

func NewPG(s *store.Store) *PG {
	return &PG{Store: s}
}

func (l *PG) Ensure(ctx context.Context, user string, initial int64) error {
	return l.Store.EnsureAccount(ctx, user, initial)
}

func (l *PG) Balance(ctx context.Context, user string) (int64, error) {
	return l.Store.GetBalance(ctx, user)
}

func (l *PG) Deposit(ctx context.Context, user string, amount int64) error {
	_, err := l.Store.Credit(ctx, user, amount, "game_credit", "", "")
	return err
}

func (l *PG) Withdraw(ctx context.Context, user string, amount int64) error {
	_, err := l.Store.Debit(ctx, user, amount, "game_debit", "", "")
	if errors.Is(err, store.ErrInsufficientBalance) {
		return ErrInsufficientFunds
	}
	return err
}
