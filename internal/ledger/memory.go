package ledger

import (
	"context"
	"errors"
	"sync"
)

// Memory keeps balances in-process. It backs tests and DSN-less runs.
type Memory struct {
	mu       sync.Mutex
	balances map[string]int64
}

func NewMemory() *Memory {
	return &Memory{balances: map[string]int64{}}
}

func (m *Memory) Ensure(_ context.Context, user string, initial int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.balances[user]; !ok {
		m.balances[user] = initial
	}
	return nil
}

func (m *Memory) Balance(_ context.Context, user string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	bal, ok := m.balances[user]
	if !ok {
		return 0, errors.New("no such account")
	}
	return bal, nil
}

func (m *Memory) Deposit(_ context.Context, user string, amount int64) error {
	if amount < 0 {
		return errors.New("amount must be positive")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balances[user] += amount
	return nil
}

func (m *Memory) Withdraw(_ context.Context, user string, amount int64) error {
	if amount < 0 {
		return errors.New("amount must be positive")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.balances[user] < amount {
		return ErrInsufficientFunds
	}
	m.balances[user] -= amount
	return nil
}
