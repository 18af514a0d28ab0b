// Package economy defines the currency boundary. The achievement engine
// never touches credits; command handlers and the cost gate consult a Ledger
// and perform withdrawals themselves.
package economy

import "context"

// Account identifies a ledger account inside a scope.
type Account struct {
	Scope string
	ID    string
}

// Ledger is the currency interface consumed by handlers and middleware.
type Ledger interface {
	// AccountExists reports whether the account has been opened.
	AccountExists(ctx context.Context, acc Account) (bool, error)

	// Balance returns the account's current credits.
	Balance(ctx context.Context, acc Account) (int, error)

	// CanSpend reports whether the account holds at least amount credits.
	CanSpend(ctx context.Context, acc Account, amount int) (bool, error)

	// WithdrawCredits removes amount credits from the account.
	WithdrawCredits(ctx context.Context, acc Account, amount int) error

	// DepositCredits adds amount credits to the account, opening it when
	// missing.
	DepositCredits(ctx context.Context, acc Account, amount int) error
}
