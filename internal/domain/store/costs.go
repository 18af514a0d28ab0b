// Package store maps command names to credit costs. The chat cost gate
// consults the registry before dispatch and settles after.
package store

import (
	"sync"

	"github.com/ejfett4/guildhub/internal/domain/shared"
)

// Persister saves the cost table after each change.
type Persister interface {
	SaveCosts(costs map[string]int) error
}

type noopPersister struct{}

func (noopPersister) SaveCosts(map[string]int) error { return nil }

// CostRegistry holds per-command costs. Commands without an entry are free.
// Any command name can be priced, including names no handler serves.
type CostRegistry struct {
	mu        sync.RWMutex
	costs     map[string]int
	persister Persister
}

// RegistryOption configures a CostRegistry.
type RegistryOption func(*CostRegistry)

// WithCosts seeds the cost table, usually from a persisted store.
func WithCosts(costs map[string]int) RegistryOption {
	return func(r *CostRegistry) {
		if costs != nil {
			r.costs = costs
		}
	}
}

// WithPersister sets the persistence sink for cost changes.
func WithPersister(p Persister) RegistryOption {
	return func(r *CostRegistry) {
		if p != nil {
			r.persister = p
		}
	}
}

// NewCostRegistry creates a registry, empty unless seeded.
func NewCostRegistry(opts ...RegistryOption) *CostRegistry {
	r := &CostRegistry{
		costs:     make(map[string]int),
		persister: noopPersister{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// SetCost prices a command and persists the table. Costs cannot be negative.
func (r *CostRegistry) SetCost(command string, cost int) error {
	if cost < 0 {
		return shared.NewDomainError("store", "SetCost", shared.ErrNegativeValue,
			"cost cannot be negative")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.costs[command] = cost
	if err := r.persister.SaveCosts(r.costs); err != nil {
		return shared.WrapError("store", "SetCost", shared.ErrPersistence,
			"could not persist the cost table", err)
	}
	return nil
}

// Cost returns the command's cost and whether one is registered.
func (r *CostRegistry) Cost(command string) (int, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cost, ok := r.costs[command]
	return cost, ok
}

// Costs returns a copy of the full cost table.
func (r *CostRegistry) Costs() map[string]int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]int, len(r.costs))
	for cmd, cost := range r.costs {
		out[cmd] = cost
	}
	return out
}
