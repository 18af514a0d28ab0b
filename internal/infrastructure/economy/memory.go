// Package economy provides the in-memory Ledger used for wiring and tests.
package economy

import (
	"context"
	"sync"

	"github.com/ejfett4/guildhub/internal/domain/economy"
	"github.com/ejfett4/guildhub/internal/domain/shared"
)

// MemoryLedger keeps balances in a map. Accounts must be opened with
// DepositCredits (or OpenAccount) before they can spend.
type MemoryLedger struct {
	mu       sync.Mutex
	balances map[economy.Account]int
}

var _ economy.Ledger = (*MemoryLedger)(nil)

// NewMemoryLedger creates an empty ledger.
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{balances: make(map[economy.Account]int)}
}

// OpenAccount opens the account with the given starting balance.
func (l *MemoryLedger) OpenAccount(acc economy.Account, balance int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances[acc] = balance
}

// AccountExists reports whether the account has been opened.
func (l *MemoryLedger) AccountExists(ctx context.Context, acc economy.Account) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.balances[acc]
	return ok, nil
}

// Balance returns the account's current credits.
func (l *MemoryLedger) Balance(ctx context.Context, acc economy.Account) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	balance, ok := l.balances[acc]
	if !ok {
		return 0, shared.NewDomainError("economy", "Balance", shared.ErrNoAccount,
			"account "+acc.Scope+"/"+acc.ID+" does not exist")
	}
	return balance, nil
}

// CanSpend reports whether the account exists and holds at least amount.
func (l *MemoryLedger) CanSpend(ctx context.Context, acc economy.Account, amount int) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	balance, ok := l.balances[acc]
	return ok && balance >= amount, nil
}

// WithdrawCredits removes amount from the account.
func (l *MemoryLedger) WithdrawCredits(ctx context.Context, acc economy.Account, amount int) error {
	if amount < 0 {
		return shared.NewDomainError("economy", "WithdrawCredits", shared.ErrNegativeValue,
			"withdrawal amount cannot be negative")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	balance, ok := l.balances[acc]
	if !ok {
		return shared.NewDomainError("economy", "WithdrawCredits", shared.ErrNoAccount,
			"account "+acc.Scope+"/"+acc.ID+" does not exist")
	}
	if balance < amount {
		return shared.NewDomainError("economy", "WithdrawCredits", shared.ErrInsufficientFunds,
			"account "+acc.Scope+"/"+acc.ID+" cannot cover the withdrawal")
	}
	l.balances[acc] = balance - amount
	return nil
}

// DepositCredits adds amount to the account, opening it when missing.
func (l *MemoryLedger) DepositCredits(ctx context.Context, acc economy.Account, amount int) error {
	if amount < 0 {
		return shared.NewDomainError("economy", "DepositCredits", shared.ErrNegativeValue,
			"deposit amount cannot be negative")
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances[acc] += amount
	return nil
}
