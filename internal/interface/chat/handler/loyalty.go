// Package handler implements the chat command handlers for loyalty, stocks
// and the command store.
package handler

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"github.com/ejfett4/guildhub/internal/application/tracking"
	"github.com/ejfett4/guildhub/internal/domain/achievement"
	"github.com/ejfett4/guildhub/internal/domain/economy"
	"github.com/ejfett4/guildhub/internal/domain/loyalty"
	"github.com/ejfett4/guildhub/internal/interface/chat"
)

// ══════════════════════════════════════════════════════════════════════════════
// LOYALTY
// ══════════════════════════════════════════════════════════════════════════════

// RankedEntry is one row of the loyalty leaderboard.
type RankedEntry struct {
	ID    string
	Level int
}

// LoyaltyLeaderboard is the optional fast ranking over current levels. The
// Redis implementation satisfies it; when absent the handler scans the
// achievement backend instead.
type LoyaltyLeaderboard interface {
	SetLevel(ctx context.Context, scope, memberID string, level int) error
	Top(ctx context.Context, scope string, count int64) ([]RankedEntry, error)
}

// GoalSaver persists the loyalty goal ladder after admin edits.
type GoalSaver interface {
	Save(goals []achievement.Goal) error
}

// LoyaltyHandler serves the loyalty command group.
type LoyaltyHandler struct {
	tracker     *tracking.Tracker
	ledger      economy.Ledger
	goals       GoalSaver
	leaderboard LoyaltyLeaderboard
	logger      *slog.Logger
}

// NewLoyaltyHandler creates the handler. goals and leaderboard may be nil;
// goal edits then stay in memory and top falls back to a backend scan.
func NewLoyaltyHandler(tracker *tracking.Tracker, ledger economy.Ledger, goals GoalSaver, leaderboard LoyaltyLeaderboard, logger *slog.Logger) *LoyaltyHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoyaltyHandler{
		tracker:     tracker,
		ledger:      ledger,
		goals:       goals,
		leaderboard: leaderboard,
		logger:      logger,
	}
}

// Register binds the loyalty commands on the router.
func (h *LoyaltyHandler) Register(r *chat.Router) {
	r.Register("loyalty buylevel", h.BuyLevel)
	r.Register("loyalty getlevel", h.GetLevel)
	r.Register("loyalty addgoal", h.AddGoal)
	r.Register("loyalty removegoal", h.RemoveGoal)
	r.Register("loyalty top", h.Top)
}

func loyaltyRef() tracking.DefinitionRef {
	return tracking.ByName(loyalty.DefinitionName)
}

// BuyLevel converts economy points into loyalty progress.
func (h *LoyaltyHandler) BuyLevel(ctx context.Context, cmd chat.CommandContext) (string, error) {
	if len(cmd.Args) < 1 {
		return "Usage: loyalty buylevel <points>", nil
	}
	points, err := strconv.Atoi(cmd.Args[0])
	if err != nil || points <= 0 {
		return "You know better than to try to trick me", nil
	}

	acc := economy.Account{Scope: cmd.Scope, ID: cmd.UserID}
	ok, err := h.ledger.CanSpend(ctx, acc, points)
	if err != nil {
		return "", err
	}
	if !ok {
		return "You don't have that many points!", nil
	}

	subject := achievement.Subject{Scope: cmd.Scope, ID: cmd.UserID}
	achieved, err := h.tracker.Evaluate(ctx, subject, loyaltyRef(), points, 0)
	if err != nil {
		return "", err
	}
	if err := h.ledger.WithdrawCredits(ctx, acc, points); err != nil {
		return "", err
	}
	h.refreshLeaderboard(ctx, cmd.Scope, cmd.UserID, subject)

	return rankReply(achieved), nil
}

// GetLevel reports the member's current rank.
func (h *LoyaltyHandler) GetLevel(ctx context.Context, cmd chat.CommandContext) (string, error) {
	subject := achievement.Subject{Scope: cmd.Scope, ID: cmd.UserID}
	achieved, err := h.tracker.Achieved(ctx, subject, loyaltyRef())
	if err != nil {
		return "", err
	}
	return rankReply(achieved), nil
}

// AddGoal extends the rank ladder and persists it.
func (h *LoyaltyHandler) AddGoal(ctx context.Context, cmd chat.CommandContext) (string, error) {
	if len(cmd.Args) < 2 {
		return "Usage: loyalty addgoal <level> <name> <description...>", nil
	}
	level, err := strconv.Atoi(cmd.Args[0])
	if err != nil || level < 0 {
		return "Level must be a non-negative number.", nil
	}
	name := cmd.Args[1]
	description := strings.Join(cmd.Args[2:], " ")

	if err := h.tracker.AddGoal(loyaltyRef(), level, name, description); err != nil {
		return "", err
	}
	if err := h.saveLadder(); err != nil {
		return "", err
	}
	return fmt.Sprintf("Added goal %q at level %d.", name, level), nil
}

// RemoveGoal removes matching goals from the ladder and persists it.
func (h *LoyaltyHandler) RemoveGoal(ctx context.Context, cmd chat.CommandContext) (string, error) {
	if len(cmd.Args) < 2 {
		return "Usage: loyalty removegoal <level> <name...>", nil
	}
	level, err := strconv.Atoi(cmd.Args[0])
	if err != nil {
		return "Level must be a number.", nil
	}
	name := strings.Join(cmd.Args[1:], " ")

	if err := h.tracker.RemoveGoal(loyaltyRef(), name, level); err != nil {
		return "", err
	}
	if err := h.saveLadder(); err != nil {
		return "", err
	}
	return fmt.Sprintf("Removed goal %q at level %d.", name, level), nil
}

// Top lists the highest-ranked members of the scope.
func (h *LoyaltyHandler) Top(ctx context.Context, cmd chat.CommandContext) (string, error) {
	count := 10
	if len(cmd.Args) > 0 {
		if n, err := strconv.Atoi(cmd.Args[0]); err == nil && n > 0 {
			count = n
		}
	}

	entries, err := h.topEntries(ctx, cmd.Scope, count)
	if err != nil {
		return "", err
	}
	if len(entries) == 0 {
		return "Nobody has any loyalty yet.", nil
	}

	var b strings.Builder
	b.WriteString("Loyalty leaderboard:\n")
	for i, e := range entries {
		fmt.Fprintf(&b, "%d. %s - level %d\n", i+1, e.ID, e.Level)
	}
	return b.String(), nil
}

// topEntries prefers the leaderboard cache and falls back to scanning the
// achievement backend.
func (h *LoyaltyHandler) topEntries(ctx context.Context, scope string, count int) ([]RankedEntry, error) {
	if h.leaderboard != nil {
		entries, err := h.leaderboard.Top(ctx, scope, int64(count))
		if err == nil {
			return entries, nil
		}
		h.logger.Warn("leaderboard cache unavailable, scanning backend", "error", err)
	}

	ids, err := h.tracker.TrackedSubjects(ctx, scope)
	if err != nil {
		return nil, err
	}
	entries := make([]RankedEntry, 0, len(ids))
	for _, id := range ids {
		current, err := h.tracker.Current(ctx, achievement.Subject{Scope: scope, ID: id}, loyaltyRef())
		if err != nil {
			return nil, err
		}
		entries = append(entries, RankedEntry{ID: id, Level: current})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Level != entries[j].Level {
			return entries[i].Level > entries[j].Level
		}
		return entries[i].ID < entries[j].ID
	})
	if len(entries) > count {
		entries = entries[:count]
	}
	return entries, nil
}

func (h *LoyaltyHandler) refreshLeaderboard(ctx context.Context, scope, userID string, subject achievement.Subject) {
	if h.leaderboard == nil {
		return
	}
	current, err := h.tracker.Current(ctx, subject, loyaltyRef())
	if err != nil {
		h.logger.Warn("could not read level for leaderboard refresh", "error", err)
		return
	}
	if err := h.leaderboard.SetLevel(ctx, scope, userID, current); err != nil {
		h.logger.Warn("leaderboard refresh failed", "error", err)
	}
}

func (h *LoyaltyHandler) saveLadder() error {
	if h.goals == nil {
		return nil
	}
	def := h.tracker.Achievements(loyalty.Category, "loyalty")
	if len(def) == 0 {
		return nil
	}
	return h.goals.Save(def[0].Goals().Goals())
}

// rankReply formats the member's highest achieved rank, or the no-rank
// fallback.
func rankReply(achieved []achievement.Goal) string {
	goal := loyalty.NoRankGoal()
	if len(achieved) > 0 {
		goal = achieved[len(achieved)-1]
	}
	return fmt.Sprintf("You have %s!\nYou are: %d - %s", goal.Name, goal.Level, goal.Description)
}
