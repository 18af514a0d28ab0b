package middleware

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ejfett4/guildhub/internal/domain/economy"
	"github.com/ejfett4/guildhub/internal/domain/store"
	infraeconomy "github.com/ejfett4/guildhub/internal/infrastructure/economy"
	"github.com/ejfett4/guildhub/internal/interface/chat"
)

// countingLedger records withdrawals so tests can assert exactly-once billing.
type countingLedger struct {
	economy.Ledger
	withdrawals int
}

func (l *countingLedger) WithdrawCredits(ctx context.Context, acc economy.Account, amount int) error {
	l.withdrawals++
	return l.Ledger.WithdrawCredits(ctx, acc, amount)
}

func pricedRegistry(t *testing.T, command string, cost int) *store.CostRegistry {
	t.Helper()
	registry := store.NewCostRegistry()
	require.NoError(t, registry.SetCost(command, cost))
	return registry
}

func member(id string) chat.CommandContext {
	return chat.CommandContext{Scope: "guild", UserID: id}
}

func TestCostGateUnpricedPassesThrough(t *testing.T) {
	ledger := &countingLedger{Ledger: infraeconomy.NewMemoryLedger()}
	gate := CostGate(store.NewCostRegistry(), ledger, nil)

	handler := gate(func(ctx context.Context, cmd chat.CommandContext) (string, error) {
		return "ran", nil
	})

	cmd := member("alice")
	cmd.Name = "loyalty getlevel"
	reply, err := handler(context.Background(), cmd)
	require.NoError(t, err)
	assert.Equal(t, "ran", reply)
	assert.Zero(t, ledger.withdrawals)
}

func TestCostGateRequiresAccount(t *testing.T) {
	ledger := &countingLedger{Ledger: infraeconomy.NewMemoryLedger()}
	gate := CostGate(pricedRegistry(t, "stocks buy", 5), ledger, nil)

	called := false
	handler := gate(func(ctx context.Context, cmd chat.CommandContext) (string, error) {
		called = true
		return "ran", nil
	})

	cmd := member("alice")
	cmd.Name = "stocks buy"
	reply, err := handler(context.Background(), cmd)
	require.NoError(t, err)
	assert.Equal(t, "You need a bank account to call that command.", reply)
	assert.False(t, called)
}

func TestCostGateDeniesInsufficientBalance(t *testing.T) {
	mem := infraeconomy.NewMemoryLedger()
	mem.OpenAccount(economy.Account{Scope: "guild", ID: "alice"}, 3)
	ledger := &countingLedger{Ledger: mem}
	gate := CostGate(pricedRegistry(t, "stocks buy", 5), ledger, nil)

	called := false
	handler := gate(func(ctx context.Context, cmd chat.CommandContext) (string, error) {
		called = true
		return "ran", nil
	})

	cmd := member("alice")
	cmd.Name = "stocks buy"
	reply, err := handler(context.Background(), cmd)
	require.NoError(t, err)
	assert.Equal(t, "You have 3 points, but that costs 5", reply)
	assert.False(t, called)
	assert.Zero(t, ledger.withdrawals)
}

func TestCostGateWithdrawsExactlyOnceOnSuccess(t *testing.T) {
	mem := infraeconomy.NewMemoryLedger()
	acc := economy.Account{Scope: "guild", ID: "alice"}
	mem.OpenAccount(acc, 20)
	ledger := &countingLedger{Ledger: mem}
	gate := CostGate(pricedRegistry(t, "stocks buy", 5), ledger, nil)

	handler := gate(func(ctx context.Context, cmd chat.CommandContext) (string, error) {
		return "ran", nil
	})

	cmd := member("alice")
	cmd.Name = "stocks buy"
	reply, err := handler(context.Background(), cmd)
	require.NoError(t, err)
	assert.Equal(t, "ran", reply)
	assert.Equal(t, 1, ledger.withdrawals)

	balance, err := mem.Balance(context.Background(), acc)
	require.NoError(t, err)
	assert.Equal(t, 15, balance)
}

func TestCostGateSkipsWithdrawalOnHandlerError(t *testing.T) {
	mem := infraeconomy.NewMemoryLedger()
	acc := economy.Account{Scope: "guild", ID: "alice"}
	mem.OpenAccount(acc, 20)
	ledger := &countingLedger{Ledger: mem}
	gate := CostGate(pricedRegistry(t, "stocks buy", 5), ledger, nil)

	handler := gate(func(ctx context.Context, cmd chat.CommandContext) (string, error) {
		return "", errors.New("handler blew up")
	})

	cmd := member("alice")
	cmd.Name = "stocks buy"
	_, err := handler(context.Background(), cmd)
	require.Error(t, err)
	assert.Zero(t, ledger.withdrawals)

	balance, err := mem.Balance(context.Background(), acc)
	require.NoError(t, err)
	assert.Equal(t, 20, balance)
}

func TestCostGateFreeCommandStillRequiresAccount(t *testing.T) {
	ledger := &countingLedger{Ledger: infraeconomy.NewMemoryLedger()}
	gate := CostGate(pricedRegistry(t, "loyalty top", 0), ledger, nil)

	handler := gate(func(ctx context.Context, cmd chat.CommandContext) (string, error) {
		return "ran", nil
	})

	cmd := member("bob")
	cmd.Name = "loyalty top"
	reply, err := handler(context.Background(), cmd)
	require.NoError(t, err)
	assert.Equal(t, "You need a bank account to call that command.", reply)
}
