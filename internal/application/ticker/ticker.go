// Package ticker runs the periodic stock price update and announces the
// refreshed board through the chat gateway.
package ticker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/ejfett4/guildhub/internal/domain/stocks"
	"github.com/ejfett4/guildhub/internal/interface/chat"
	"github.com/ejfett4/guildhub/internal/interface/chat/handler"
)

// Config contains configuration for the price ticker.
type Config struct {
	// Interval between price updates.
	Interval time.Duration

	// Scopes to announce the refreshed board to. Empty disables
	// announcements; prices still update.
	Scopes []string

	// Logger for structured logging.
	Logger *slog.Logger
}

// DefaultConfig returns the original one-minute cadence.
func DefaultConfig() Config {
	return Config{
		Interval: time.Minute,
		Logger:   slog.Default(),
	}
}

// Ticker reprices the market on a fixed interval until its context is
// cancelled.
type Ticker struct {
	market  *stocks.Market
	gateway chat.Gateway
	config  Config
	logger  *slog.Logger

	wg sync.WaitGroup
}

// New creates a ticker over the given market and gateway.
func New(market *stocks.Market, gateway chat.Gateway, config Config) *Ticker {
	if config.Interval <= 0 {
		config.Interval = time.Minute
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	return &Ticker{
		market:  market,
		gateway: gateway,
		config:  config,
		logger:  config.Logger,
	}
}

// Start launches the update loop. It returns immediately; Stop waits for the
// loop to drain after the context is cancelled.
func (t *Ticker) Start(ctx context.Context) {
	t.wg.Add(1)
	go func() {
		defer t.wg.Done()

		timer := time.NewTicker(t.config.Interval)
		defer timer.Stop()

		t.logger.Info("stock price ticker started", "interval", t.config.Interval)
		for {
			select {
			case <-ctx.Done():
				t.logger.Info("stock price ticker stopped")
				return
			case <-timer.C:
				t.tick(ctx)
			}
		}
	}()
}

// Stop blocks until the update loop has exited.
func (t *Ticker) Stop() {
	t.wg.Wait()
}

func (t *Ticker) tick(ctx context.Context) {
	listings, err := t.market.UpdatePrices()
	if err != nil {
		t.logger.Error("stock price update failed", "error", err)
		return
	}
	t.logger.Debug("stock prices updated", "symbols", len(listings))

	board := handler.FormatListings(listings)
	for _, scope := range t.config.Scopes {
		if err := t.gateway.Broadcast(ctx, scope, board); err != nil {
			t.logger.Warn("board announcement failed", "scope", scope, "error", err)
		}
	}
}
