// Package middleware contains the chat command middleware chain: panic
// recovery, request IDs, admin authorization, and the store cost gate.
package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/ejfett4/guildhub/internal/domain/shared"
	"github.com/ejfett4/guildhub/internal/interface/chat"
)

// ══════════════════════════════════════════════════════════════════════════════
// RECOVERY
// ══════════════════════════════════════════════════════════════════════════════

// Recovery converts handler panics into errors so one bad command cannot
// take the dispatcher down. The stack goes to the log, never to the user.
func Recovery(logger *slog.Logger) chat.Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next chat.HandlerFunc) chat.HandlerFunc {
		return func(ctx context.Context, cmd chat.CommandContext) (reply string, err error) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.Error("recovered panic in command handler",
						"command", cmd.Name,
						"request_id", cmd.RequestID,
						"panic", rec,
						"stack", string(debug.Stack()),
					)
					reply = "Something went wrong. Please try again in a few minutes."
					err = nil
				}
			}()
			return next(ctx, cmd)
		}
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// REQUEST ID
// ══════════════════════════════════════════════════════════════════════════════

// RequestID assigns a UUID to every dispatched command for log correlation.
func RequestID() chat.Middleware {
	return func(next chat.HandlerFunc) chat.HandlerFunc {
		return func(ctx context.Context, cmd chat.CommandContext) (string, error) {
			if cmd.RequestID == "" {
				cmd.RequestID = uuid.NewString()
			}
			return next(ctx, cmd)
		}
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// ADMIN AUTH
// ══════════════════════════════════════════════════════════════════════════════

// AdminAuthConfig holds configuration for the admin middleware.
type AdminAuthConfig struct {
	// TokenHash is the bcrypt hash of the admin token. Empty disables every
	// admin command.
	TokenHash string

	// AdminCommands are the command names that require the admin token.
	AdminCommands map[string]bool
}

// AdminAuth denies admin-only commands unless the caller's token matches the
// configured bcrypt hash. Denials are replies, not errors: the chat surface
// answers the user either way.
func AdminAuth(config AdminAuthConfig) chat.Middleware {
	return func(next chat.HandlerFunc) chat.HandlerFunc {
		return func(ctx context.Context, cmd chat.CommandContext) (string, error) {
			if !config.AdminCommands[cmd.Name] {
				return next(ctx, cmd)
			}
			if config.TokenHash == "" {
				return "Admin commands are disabled.", nil
			}
			if err := bcrypt.CompareHashAndPassword([]byte(config.TokenHash), []byte(cmd.AdminToken)); err != nil {
				return "You need admin permissions for that command.", nil
			}
			return next(ctx, cmd)
		}
	}
}

// HashAdminToken produces the bcrypt hash stored in configuration.
func HashAdminToken(token string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(token), bcrypt.DefaultCost)
	if err != nil {
		return "", shared.WrapError("middleware", "HashAdminToken", shared.ErrInvalidInput,
			"could not hash the admin token", err)
	}
	return string(hash), nil
}

func formatBalance(balance, cost int) string {
	return fmt.Sprintf("You have %d points, but that costs %d", balance, cost)
}
