package handler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/ejfett4/guildhub/internal/domain/economy"
	"github.com/ejfett4/guildhub/internal/domain/shared"
	"github.com/ejfett4/guildhub/internal/domain/stocks"
	"github.com/ejfett4/guildhub/internal/interface/chat"
)

// ══════════════════════════════════════════════════════════════════════════════
// STOCKS
// ══════════════════════════════════════════════════════════════════════════════

// StocksHandler serves the stocks command group against one shared market.
type StocksHandler struct {
	market *stocks.Market
	ledger economy.Ledger
}

// NewStocksHandler creates the handler.
func NewStocksHandler(market *stocks.Market, ledger economy.Ledger) *StocksHandler {
	return &StocksHandler{market: market, ledger: ledger}
}

// Register binds the stocks commands on the router.
func (h *StocksHandler) Register(r *chat.Router) {
	r.Register("stocks buy", h.Buy)
	r.Register("stocks sell", h.Sell)
	r.Register("stocks listall", h.ListAll)
	r.Register("stocks portfolio", h.Portfolio)
	r.Register("stocks update", h.Update)
}

func holderKey(cmd chat.CommandContext) string {
	return cmd.Scope + "/" + cmd.UserID
}

// Buy purchases shares at the current price, settling against the ledger
// first.
func (h *StocksHandler) Buy(ctx context.Context, cmd chat.CommandContext) (string, error) {
	symbol, amount, reply := parseTrade(cmd.Args)
	if reply != "" {
		return reply, nil
	}

	cost, err := h.market.Cost(symbol, amount)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return fmt.Sprintf("%s isn't a valid stock", symbol), nil
		}
		return "", err
	}

	acc := economy.Account{Scope: cmd.Scope, ID: cmd.UserID}
	ok, err := h.ledger.CanSpend(ctx, acc, cost)
	if err != nil {
		return "", err
	}
	if !ok {
		return fmt.Sprintf("You don't have enough credits to purchase %d of %s", amount, symbol), nil
	}

	if err := h.ledger.WithdrawCredits(ctx, acc, cost); err != nil {
		return "", err
	}
	if _, err := h.market.Buy(holderKey(cmd), symbol, amount); err != nil {
		return "", err
	}
	return fmt.Sprintf("You bought %d stocks of %s", amount, symbol), nil
}

// Sell disposes shares at the current price and deposits the proceeds.
func (h *StocksHandler) Sell(ctx context.Context, cmd chat.CommandContext) (string, error) {
	symbol, amount, reply := parseTrade(cmd.Args)
	if reply != "" {
		return reply, nil
	}

	proceeds, err := h.market.Sell(holderKey(cmd), symbol, amount)
	switch {
	case errors.Is(err, shared.ErrNotFound):
		return fmt.Sprintf("%s isn't a valid stock or you don't have any", symbol), nil
	case errors.Is(err, shared.ErrInsufficientFunds):
		return fmt.Sprintf("You don't have enough %s stocks to sell %d", symbol, amount), nil
	case err != nil:
		return "", err
	}

	acc := economy.Account{Scope: cmd.Scope, ID: cmd.UserID}
	if err := h.ledger.DepositCredits(ctx, acc, proceeds); err != nil {
		return "", err
	}
	return fmt.Sprintf("You sold %d stocks of %s", amount, symbol), nil
}

// ListAll prints the quote board.
func (h *StocksHandler) ListAll(ctx context.Context, cmd chat.CommandContext) (string, error) {
	return FormatListings(h.market.Listings()), nil
}

// Portfolio prints the caller's positions.
func (h *StocksHandler) Portfolio(ctx context.Context, cmd chat.CommandContext) (string, error) {
	positions := h.market.Portfolio(holderKey(cmd))
	if len(positions) == 0 {
		return "You don't own any stocks.", nil
	}

	symbols := make([]string, 0, len(positions))
	for symbol := range positions {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)

	var b strings.Builder
	for _, symbol := range symbols {
		fmt.Fprintf(&b, "%s : %d owned\n", symbol, positions[symbol])
	}
	return b.String(), nil
}

// Update forces a price update and prints the new board.
func (h *StocksHandler) Update(ctx context.Context, cmd chat.CommandContext) (string, error) {
	listings, err := h.market.UpdatePrices()
	if err != nil {
		return "", err
	}
	return FormatListings(listings), nil
}

// parseTrade validates the symbol/amount argument pair; a non-empty reply is
// the user-facing rejection.
func parseTrade(args []string) (symbol string, amount int, reply string) {
	if len(args) < 2 {
		return "", 0, "Usage: stocks <buy|sell> <symbol> <amount>"
	}
	amount, err := strconv.Atoi(args[1])
	if err != nil || amount <= 0 {
		return "", 0, "You know better than to try to trick me"
	}
	return args[0], amount, ""
}

// FormatListings renders the quote board the way the periodic announcement
// and the listall command both use.
func FormatListings(listings []stocks.Listing) string {
	var b strings.Builder
	for _, l := range listings {
		fmt.Fprintf(&b, "%s: %d points\n", l.Symbol, l.Quote.Price)
	}
	return b.String()
}
