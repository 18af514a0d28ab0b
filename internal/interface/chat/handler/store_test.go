package handler

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ejfett4/guildhub/internal/domain/store"
	"github.com/ejfett4/guildhub/internal/interface/chat"
)

func storeCmd(args ...string) chat.CommandContext {
	return chat.CommandContext{Scope: "guild", UserID: "admin", Args: args}
}

func TestSetAndGetCost(t *testing.T) {
	h := NewStoreHandler(store.NewCostRegistry())

	reply, err := h.SetCost(context.Background(), storeCmd("25", "stocks", "buy"))
	require.NoError(t, err)
	assert.Equal(t, "stocks buy now costs 25", reply)

	reply, err = h.GetCost(context.Background(), storeCmd("stocks", "buy"))
	require.NoError(t, err)
	assert.Equal(t, "stocks buy costs 25", reply)
}

func TestSetCostRejectsNegative(t *testing.T) {
	h := NewStoreHandler(store.NewCostRegistry())

	reply, err := h.SetCost(context.Background(), storeCmd("-5", "stocks", "buy"))
	require.NoError(t, err)
	assert.Equal(t, "-5 can't be negative", reply)
}

func TestGetCostUnknownCommand(t *testing.T) {
	h := NewStoreHandler(store.NewCostRegistry())

	reply, err := h.GetCost(context.Background(), storeCmd("loyalty", "top"))
	require.NoError(t, err)
	assert.Equal(t, "loyalty top is not a command in the store!", reply)
}

func TestSetCostUsage(t *testing.T) {
	h := NewStoreHandler(store.NewCostRegistry())

	reply, err := h.SetCost(context.Background(), storeCmd("banana", "stocks"))
	require.NoError(t, err)
	assert.Equal(t, "Cost must be a number.", reply)

	reply, err = h.SetCost(context.Background(), storeCmd("10"))
	require.NoError(t, err)
	assert.Equal(t, "Usage: store setcost <cost> <command...>", reply)
}
