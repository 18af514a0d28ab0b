package economy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ejfett4/guildhub/internal/domain/economy"
	"github.com/ejfett4/guildhub/internal/domain/shared"
)

func TestLedgerLifecycle(t *testing.T) {
	ctx := context.Background()
	ledger := NewMemoryLedger()
	acc := economy.Account{Scope: "guild", ID: "alice"}

	exists, err := ledger.AccountExists(ctx, acc)
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = ledger.Balance(ctx, acc)
	assert.ErrorIs(t, err, shared.ErrNoAccount)

	require.NoError(t, ledger.DepositCredits(ctx, acc, 100))

	exists, err = ledger.AccountExists(ctx, acc)
	require.NoError(t, err)
	assert.True(t, exists)

	ok, err := ledger.CanSpend(ctx, acc, 100)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = ledger.CanSpend(ctx, acc, 101)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, ledger.WithdrawCredits(ctx, acc, 40))
	balance, err := ledger.Balance(ctx, acc)
	require.NoError(t, err)
	assert.Equal(t, 60, balance)
}

func TestWithdrawErrors(t *testing.T) {
	ctx := context.Background()
	ledger := NewMemoryLedger()
	acc := economy.Account{Scope: "guild", ID: "alice"}

	err := ledger.WithdrawCredits(ctx, acc, -1)
	assert.ErrorIs(t, err, shared.ErrNegativeValue)

	err = ledger.WithdrawCredits(ctx, acc, 10)
	assert.ErrorIs(t, err, shared.ErrNoAccount)

	ledger.OpenAccount(acc, 5)
	err = ledger.WithdrawCredits(ctx, acc, 10)
	assert.ErrorIs(t, err, shared.ErrInsufficientFunds)
}
