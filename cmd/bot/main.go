// Package main is the entry point for the Guildhub community bot.
//
// The bot tracks member achievements (chat loyalty levels), runs a toy
// stock market with periodic repricing, and sells command access through
// a credit store. Architecture follows Clean Architecture layering:
// - Domain: achievement ladders, market math, store costs
// - Application: achievement tracking, background repricing
// - Infrastructure: file/postgres persistence, redis leaderboard
// - Interface: chat command router, HTTP endpoints
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/ejfett4/guildhub/config"
	"github.com/ejfett4/guildhub/internal/application/ticker"
	"github.com/ejfett4/guildhub/internal/application/tracking"
	"github.com/ejfett4/guildhub/internal/domain/achievement"
	"github.com/ejfett4/guildhub/internal/domain/loyalty"
	"github.com/ejfett4/guildhub/internal/domain/stocks"
	"github.com/ejfett4/guildhub/internal/domain/store"
	infraeconomy "github.com/ejfett4/guildhub/internal/infrastructure/economy"
	"github.com/ejfett4/guildhub/internal/infrastructure/persistence/file"
	"github.com/ejfett4/guildhub/internal/infrastructure/persistence/memory"
	"github.com/ejfett4/guildhub/internal/infrastructure/persistence/postgres"
	"github.com/ejfett4/guildhub/internal/infrastructure/persistence/redis"
	"github.com/ejfett4/guildhub/internal/interface/chat"
	"github.com/ejfett4/guildhub/internal/interface/chat/handler"
	"github.com/ejfett4/guildhub/internal/interface/chat/middleware"
	httpserver "github.com/ejfett4/guildhub/internal/interface/http"
)

// ══════════════════════════════════════════════════════════════════════════════
// MAIN
// ══════════════════════════════════════════════════════════════════════════════

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. CONFIGURATION
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. LOGGING
	// ─────────────────────────────────────────────────────────────────────────
	log := setupLogger(cfg)
	slog.SetDefault(log)
	log.Info("starting guildhub bot",
		"env", cfg.App.Environment,
		"debug", cfg.App.Debug,
		"backend", cfg.Storage.Backend,
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 3. DATA FILES
	// ─────────────────────────────────────────────────────────────────────────
	if err := file.Bootstrap(cfg.Storage.DataDir); err != nil {
		return fmt.Errorf("failed to prepare data dir: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 4. ACHIEVEMENT BACKEND (file, postgres or memory)
	// ─────────────────────────────────────────────────────────────────────────
	backend, closeBackend, err := openBackend(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeBackend()

	// ─────────────────────────────────────────────────────────────────────────
	// 5. REDIS LEADERBOARD (optional)
	// ─────────────────────────────────────────────────────────────────────────
	var leaderboard handler.LoyaltyLeaderboard
	if !cfg.Redis.Disabled {
		client, err := openRedis(cfg)
		if err != nil {
			log.Warn("failed to connect to Redis, leaderboard cache disabled", "error", err)
		} else {
			defer client.Close()
			leaderboard = &leaderboardAdapter{board: redis.NewLoyaltyLeaderboard(client)}
			log.Info("Redis connection established")
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 6. LOYALTY LADDER
	// ─────────────────────────────────────────────────────────────────────────
	goalStore := file.NewGoalStore(filepath.Join(cfg.Storage.DataDir, file.GoalsFile))
	ladder := loyalty.DefaultGoals()
	if stored, ok, err := goalStore.Load(); err != nil {
		return fmt.Errorf("failed to load loyalty goals: %w", err)
	} else if ok {
		ladder = achievement.NewGoalSet(stored...)
		log.Info("loaded custom loyalty ladder", "goals", ladder.Len())
	}

	loyaltyDef, err := loyalty.NewDefinition(ladder)
	if err != nil {
		return fmt.Errorf("failed to build loyalty definition: %w", err)
	}

	tracker := tracking.New(backend, tracking.WithLogger(log))
	if err := tracker.Register(loyaltyDef); err != nil {
		return fmt.Errorf("failed to register loyalty definition: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 7. STOCK MARKET
	// ─────────────────────────────────────────────────────────────────────────
	marketStore := file.NewMarketStore(
		filepath.Join(cfg.Storage.DataDir, file.QuotesFile),
		filepath.Join(cfg.Storage.DataDir, file.PortfoliosFile),
	)

	quotes, hasQuotes, err := marketStore.LoadQuotes()
	if err != nil {
		return fmt.Errorf("failed to load stock quotes: %w", err)
	}
	if !hasQuotes {
		quotes = stocks.DefaultQuotes()
	}

	portfolios, err := marketStore.LoadPortfolios()
	if err != nil {
		return fmt.Errorf("failed to load portfolios: %w", err)
	}

	market := stocks.NewMarket(
		stocks.WithQuotes(quotes),
		stocks.WithPortfolios(portfolios),
		stocks.WithPersister(marketStore),
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 8. COMMAND STORE
	// ─────────────────────────────────────────────────────────────────────────
	costStore := file.NewCostStore(filepath.Join(cfg.Storage.DataDir, file.CostsFile))
	costs, err := costStore.LoadCosts()
	if err != nil {
		return fmt.Errorf("failed to load command costs: %w", err)
	}
	registry := store.NewCostRegistry(
		store.WithCosts(costs),
		store.WithPersister(costStore),
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 9. ECONOMY LEDGER
	// ─────────────────────────────────────────────────────────────────────────
	ledger := infraeconomy.NewMemoryLedger()

	// ─────────────────────────────────────────────────────────────────────────
	// 10. COMMAND ROUTER
	// ─────────────────────────────────────────────────────────────────────────
	router := chat.NewRouter(chat.RouterConfig{Logger: log})
	router.Use(middleware.Recovery(log))
	router.Use(middleware.RequestID())
	router.Use(middleware.AdminAuth(middleware.AdminAuthConfig{
		TokenHash: cfg.Admin.TokenHash,
		AdminCommands: map[string]bool{
			"loyalty addgoal":    true,
			"loyalty removegoal": true,
			"stocks update":      true,
			"store setcost":      true,
		},
	}))
	router.Use(middleware.CostGate(registry, ledger, log))

	handler.NewLoyaltyHandler(tracker, ledger, goalStore, leaderboard, log).Register(router)
	handler.NewStocksHandler(market, ledger).Register(router)
	handler.NewStoreHandler(registry).Register(router)
	log.Info("command router ready", "commands", router.Commands())

	// ─────────────────────────────────────────────────────────────────────────
	// 11. BACKGROUND REPRICING
	// ─────────────────────────────────────────────────────────────────────────
	var priceTicker *ticker.Ticker
	if cfg.Market.Enabled {
		priceTicker = ticker.New(market, chat.NewLogGateway(log), ticker.Config{
			Interval: cfg.Market.UpdateInterval,
			Scopes:   cfg.Market.AnnounceScopes,
			Logger:   log,
		})
		priceTicker.Start(ctx)
		defer priceTicker.Stop()
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 12. HTTP SERVER
	// ─────────────────────────────────────────────────────────────────────────
	var server *httpserver.Server
	var serverErr <-chan error
	if cfg.HTTP.Enabled {
		httpCfg := httpserver.DefaultConfig()
		httpCfg.Host = cfg.HTTP.Host
		httpCfg.Port = cfg.HTTP.Port
		httpCfg.ReadTimeout = cfg.HTTP.ReadTimeout
		httpCfg.WriteTimeout = cfg.HTTP.WriteTimeout
		httpCfg.IdleTimeout = cfg.HTTP.IdleTimeout
		httpCfg.CommandTimeout = cfg.HTTP.CommandTimeout

		server = httpserver.NewServer(httpCfg, httpserver.Dependencies{
			Router: router,
			Logger: log,
			Checks: healthChecks(backend),
		})
		serverErr = server.StartAsync()
		log.Info("HTTP server listening", "address", server.Address())
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 13. WAIT FOR SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
	}

	if server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error("http server shutdown failed", "error", err)
		}
	}

	log.Info("guildhub bot stopped")
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// WIRING HELPERS
// ══════════════════════════════════════════════════════════════════════════════

func setupLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.Observability.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if cfg.App.Debug {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}
	var h slog.Handler
	if cfg.Observability.LogFormat == "text" {
		h = slog.NewTextHandler(os.Stdout, opts)
	} else {
		h = slog.NewJSONHandler(os.Stdout, opts)
	}
	return slog.New(h)
}

// openBackend builds the configured achievement backend and returns a
// cleanup function closing whatever connections it holds.
func openBackend(ctx context.Context, cfg *config.Config, log *slog.Logger) (achievement.Backend, func(), error) {
	switch cfg.Storage.Backend {
	case config.BackendPostgres:
		log.Info("connecting to database...")
		conn, err := postgres.NewConnectionFromURL(ctx, cfg.Database.URL)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		backend, err := postgres.OpenBackend(ctx, conn)
		if err != nil {
			conn.Close()
			return nil, nil, fmt.Errorf("failed to open postgres backend: %w", err)
		}
		log.Info("database connection established")
		return backend, func() {
			log.Info("closing database connection...")
			conn.Close()
		}, nil

	case config.BackendMemory:
		return memory.New(), func() {}, nil

	default:
		backend, err := file.OpenBackend(filepath.Join(cfg.Storage.DataDir, file.AchievementsFile))
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open file backend: %w", err)
		}
		return backend, func() {}, nil
	}
}

func openRedis(cfg *config.Config) (*redis.Client, error) {
	if cfg.Redis.URL != "" {
		return redis.NewClientFromURL(cfg.Redis.URL)
	}

	redisCfg := redis.DefaultConfig()
	redisCfg.Host = cfg.Redis.Host
	redisCfg.Port = cfg.Redis.Port
	redisCfg.Password = cfg.Redis.Password
	redisCfg.DB = cfg.Redis.DB
	redisCfg.PoolSize = cfg.Redis.PoolSize
	redisCfg.MinIdleConns = cfg.Redis.MinIdleConns
	redisCfg.DialTimeout = cfg.Redis.DialTimeout
	redisCfg.ReadTimeout = cfg.Redis.ReadTimeout
	redisCfg.WriteTimeout = cfg.Redis.WriteTimeout
	return redis.NewClient(redisCfg)
}

func healthChecks(backend achievement.Backend) map[string]httpserver.HealthCheckFunc {
	checks := map[string]httpserver.HealthCheckFunc{}
	if pinger, ok := backend.(interface{ Ping(context.Context) error }); ok {
		checks["backend"] = pinger.Ping
	}
	return checks
}

// leaderboardAdapter bridges the redis leaderboard to the handler's
// leaderboard interface.
type leaderboardAdapter struct {
	board *redis.LoyaltyLeaderboard
}

func (a *leaderboardAdapter) SetLevel(ctx context.Context, scope, memberID string, level int) error {
	return a.board.SetLevel(ctx, scope, memberID, level)
}

func (a *leaderboardAdapter) Top(ctx context.Context, scope string, count int64) ([]handler.RankedEntry, error) {
	members, err := a.board.Top(ctx, scope, count)
	if err != nil {
		return nil, err
	}
	entries := make([]handler.RankedEntry, len(members))
	for i, m := range members {
		entries[i] = handler.RankedEntry{ID: m.ID, Level: m.Level}
	}
	return entries, nil
}
