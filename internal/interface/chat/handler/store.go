package handler

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/ejfett4/guildhub/internal/domain/shared"
	"github.com/ejfett4/guildhub/internal/domain/store"
	"github.com/ejfett4/guildhub/internal/interface/chat"
)

// ══════════════════════════════════════════════════════════════════════════════
// STORE
// ══════════════════════════════════════════════════════════════════════════════

// StoreHandler serves the store command group over the cost registry. Any
// command name can be priced, including names no handler currently serves.
type StoreHandler struct {
	registry *store.CostRegistry
}

// NewStoreHandler creates the handler.
func NewStoreHandler(registry *store.CostRegistry) *StoreHandler {
	return &StoreHandler{registry: registry}
}

// Register binds the store commands on the router.
func (h *StoreHandler) Register(r *chat.Router) {
	r.Register("store setcost", h.SetCost)
	r.Register("store getcost", h.GetCost)
}

// SetCost prices a command.
func (h *StoreHandler) SetCost(ctx context.Context, cmd chat.CommandContext) (string, error) {
	if len(cmd.Args) < 2 {
		return "Usage: store setcost <cost> <command...>", nil
	}
	cost, err := strconv.Atoi(cmd.Args[0])
	if err != nil {
		return "Cost must be a number.", nil
	}
	command := strings.Join(cmd.Args[1:], " ")

	if err := h.registry.SetCost(command, cost); err != nil {
		if errors.Is(err, shared.ErrNegativeValue) {
			return fmt.Sprintf("%d can't be negative", cost), nil
		}
		return "", err
	}
	return fmt.Sprintf("%s now costs %d", command, cost), nil
}

// GetCost reports a command's price.
func (h *StoreHandler) GetCost(ctx context.Context, cmd chat.CommandContext) (string, error) {
	if len(cmd.Args) < 1 {
		return "Usage: store getcost <command...>", nil
	}
	command := strings.Join(cmd.Args, " ")

	cost, ok := h.registry.Cost(command)
	if !ok {
		return fmt.Sprintf("%s is not a command in the store!", command), nil
	}
	return fmt.Sprintf("%s costs %d", command, cost), nil
}
