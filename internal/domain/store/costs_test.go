package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ejfett4/guildhub/internal/domain/shared"
)

func TestSetAndGetCost(t *testing.T) {
	r := NewCostRegistry()

	require.NoError(t, r.SetCost("stocks buy", 5))
	cost, ok := r.Cost("stocks buy")
	assert.True(t, ok)
	assert.Equal(t, 5, cost)

	_, ok = r.Cost("stocks sell")
	assert.False(t, ok, "unpriced commands are free")
}

func TestZeroCostIsRegistered(t *testing.T) {
	r := NewCostRegistry()

	require.NoError(t, r.SetCost("loyalty getlevel", 0))
	cost, ok := r.Cost("loyalty getlevel")
	assert.True(t, ok)
	assert.Zero(t, cost)
}

func TestNegativeCostRejected(t *testing.T) {
	r := NewCostRegistry()

	err := r.SetCost("stocks buy", -1)
	assert.ErrorIs(t, err, shared.ErrNegativeValue)
	_, ok := r.Cost("stocks buy")
	assert.False(t, ok)
}

type costCapture struct {
	saves int
	last  map[string]int
}

func (c *costCapture) SaveCosts(costs map[string]int) error {
	c.saves++
	c.last = costs
	return nil
}

func TestSetCostPersists(t *testing.T) {
	p := &costCapture{}
	r := NewCostRegistry(WithPersister(p))

	require.NoError(t, r.SetCost("stocks buy", 5))
	require.NoError(t, r.SetCost("stocks buy", 7))

	assert.Equal(t, 2, p.saves)
	assert.Equal(t, 7, p.last["stocks buy"])
}

func TestSeededCosts(t *testing.T) {
	r := NewCostRegistry(WithCosts(map[string]int{"loyalty buylevel": 1}))

	cost, ok := r.Cost("loyalty buylevel")
	assert.True(t, ok)
	assert.Equal(t, 1, cost)
	assert.Equal(t, map[string]int{"loyalty buylevel": 1}, r.Costs())
}
