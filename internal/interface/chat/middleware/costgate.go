package middleware

import (
	"context"
	"log/slog"

	"github.com/ejfett4/guildhub/internal/domain/economy"
	"github.com/ejfett4/guildhub/internal/domain/store"
	"github.com/ejfett4/guildhub/internal/interface/chat"
)

// ══════════════════════════════════════════════════════════════════════════════
// COST GATE
// ══════════════════════════════════════════════════════════════════════════════

// CostGate prices commands through the store registry. A priced command
// requires an existing ledger account that can cover the cost before the
// handler runs; the cost is withdrawn exactly once after the handler
// succeeds. Unpriced commands pass through untouched.
func CostGate(registry *store.CostRegistry, ledger economy.Ledger, logger *slog.Logger) chat.Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next chat.HandlerFunc) chat.HandlerFunc {
		return func(ctx context.Context, cmd chat.CommandContext) (string, error) {
			cost, priced := registry.Cost(cmd.Name)
			if !priced {
				return next(ctx, cmd)
			}

			acc := economy.Account{Scope: cmd.Scope, ID: cmd.UserID}
			exists, err := ledger.AccountExists(ctx, acc)
			if err != nil {
				return "", err
			}
			if !exists {
				return "You need a bank account to call that command.", nil
			}

			ok, err := ledger.CanSpend(ctx, acc, cost)
			if err != nil {
				return "", err
			}
			if !ok {
				balance, err := ledger.Balance(ctx, acc)
				if err != nil {
					return "", err
				}
				return formatBalance(balance, cost), nil
			}

			reply, err := next(ctx, cmd)
			if err != nil {
				return reply, err
			}

			if err := ledger.WithdrawCredits(ctx, acc, cost); err != nil {
				logger.Error("cost withdrawal failed after successful command",
					"command", cmd.Name,
					"account", acc.Scope+"/"+acc.ID,
					"cost", cost,
					"error", err,
				)
				return reply, err
			}
			return reply, nil
		}
	}
}
