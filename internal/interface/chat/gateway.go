package chat

import (
	"context"
	"log/slog"
)

// Gateway is the outward reply boundary. Handlers return their reply text;
// the gateway carries unsolicited messages such as the periodic stock board.
type Gateway interface {
	// Say sends a message to one chat within a scope.
	Say(ctx context.Context, scope, chatID, text string) error

	// Broadcast sends a message to every chat of the scope the gateway
	// serves.
	Broadcast(ctx context.Context, scope, text string) error
}

// LogGateway writes outgoing messages to the structured log. It is the
// default sink when no real chat transport is wired.
type LogGateway struct {
	logger *slog.Logger
}

// NewLogGateway creates a gateway over the given logger.
func NewLogGateway(logger *slog.Logger) *LogGateway {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogGateway{logger: logger}
}

// Say logs the message.
func (g *LogGateway) Say(ctx context.Context, scope, chatID, text string) error {
	g.logger.Info("outgoing message", "scope", scope, "chat", chatID, "text", text)
	return nil
}

// Broadcast logs the message.
func (g *LogGateway) Broadcast(ctx context.Context, scope, text string) error {
	g.logger.Info("outgoing broadcast", "scope", scope, "text", text)
	return nil
}
