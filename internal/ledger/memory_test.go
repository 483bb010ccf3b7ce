package ledger

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemoryEnsureIsIdempotent(t *testing.T) {
	ctx := context.Background()
	l := NewMemory()
	require.NoError(t, l.Ensure(ctx, "rich", 1000))
	require.NoError(t, l.Deposit(ctx, "rich", 500))
	require.NoError(t, l.Ensure(ctx, "rich", 1000))

	bal, err := l.Balance(ctx, "rich")
	require.NoError(t, err)
	require.Equal(t, int64(1500), bal)
}

func TestMemoryWithdrawInsufficient(t *testing.T) {
	ctx := context.Background()
	l := NewMemory()
	require.NoError(t, l.Ensure(ctx, "rich", 100))

	err := l.Withdraw(ctx, "rich", 101)
	require.ErrorIs(t, err, ErrInsufficientFunds)

	bal, err := l.Balance(ctx, "rich")
	require.NoError(t, err)
	require.Equal(t, int64(100), bal, "failed withdrawal must not change the balance")
}

func TestMemoryConcurrentDeposits(t *testing.T) {
	ctx := context.Background()
	l := NewMemory()
	require.NoError(t, l.Ensure(ctx, "rich", 0))

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = l.Deposit(ctx, "rich", 1)
		}()
	}
	wg.Wait()

	bal, err := l.Balance(ctx, "rich")
	require.NoError(t, err)
	require.Equal(t, int64(100), bal)
}
