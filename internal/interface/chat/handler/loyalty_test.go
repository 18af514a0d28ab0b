package handler

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ejfett4/guildhub/internal/application/tracking"
	"github.com/ejfett4/guildhub/internal/domain/achievement"
	"github.com/ejfett4/guildhub/internal/domain/economy"
	"github.com/ejfett4/guildhub/internal/domain/loyalty"
	infraeconomy "github.com/ejfett4/guildhub/internal/infrastructure/economy"
	"github.com/ejfett4/guildhub/internal/infrastructure/persistence/memory"
	"github.com/ejfett4/guildhub/internal/interface/chat"
)

func newLoyaltyFixture(t *testing.T) (*LoyaltyHandler, *infraeconomy.MemoryLedger, *tracking.Tracker) {
	t.Helper()

	def, err := loyalty.NewDefinition(nil)
	require.NoError(t, err)

	tracker := tracking.New(memory.New())
	require.NoError(t, tracker.Register(def))

	ledger := infraeconomy.NewMemoryLedger()
	return NewLoyaltyHandler(tracker, ledger, nil, nil, nil), ledger, tracker
}

func loyaltyCmd(user string, args ...string) chat.CommandContext {
	return chat.CommandContext{Scope: "guild", UserID: user, Args: args}
}

func TestBuyLevelCrossesRanks(t *testing.T) {
	h, ledger, _ := newLoyaltyFixture(t)
	acc := economy.Account{Scope: "guild", ID: "alice"}
	ledger.OpenAccount(acc, 500)

	reply, err := h.BuyLevel(context.Background(), loyaltyCmd("alice", "150"))
	require.NoError(t, err)
	assert.Equal(t, "You have Green thumb!\nYou are: 100 - You've created at least 5 objects!", reply)

	balance, err := ledger.Balance(context.Background(), acc)
	require.NoError(t, err)
	assert.Equal(t, 350, balance)
}

func TestBuyLevelRejectsBadAmount(t *testing.T) {
	h, ledger, _ := newLoyaltyFixture(t)
	ledger.OpenAccount(economy.Account{Scope: "guild", ID: "alice"}, 500)

	for _, arg := range []string{"-5", "0", "banana"} {
		reply, err := h.BuyLevel(context.Background(), loyaltyCmd("alice", arg))
		require.NoError(t, err)
		assert.Equal(t, "You know better than to try to trick me", reply)
	}
}

func TestBuyLevelRequiresPoints(t *testing.T) {
	h, ledger, _ := newLoyaltyFixture(t)
	ledger.OpenAccount(economy.Account{Scope: "guild", ID: "alice"}, 10)

	reply, err := h.BuyLevel(context.Background(), loyaltyCmd("alice", "150"))
	require.NoError(t, err)
	assert.Equal(t, "You don't have that many points!", reply)
}

func TestGetLevelWithoutProgress(t *testing.T) {
	h, _, _ := newLoyaltyFixture(t)

	reply, err := h.GetLevel(context.Background(), loyaltyCmd("nobody"))
	require.NoError(t, err)
	assert.Equal(t, "You have idk!\nYou are: 0 - git gud scrub", reply)
}

func TestAddAndRemoveGoal(t *testing.T) {
	h, _, tracker := newLoyaltyFixture(t)

	reply, err := h.AddGoal(context.Background(), loyaltyCmd("admin", "50", "Half-stack", "Fifty whole points."))
	require.NoError(t, err)
	assert.Equal(t, `Added goal "Half-stack" at level 50.`, reply)

	def := tracker.Achievements(loyalty.Category, "loyalty")
	require.Len(t, def, 1)
	assert.Equal(t, loyalty.DefaultGoals().Len()+1, def[0].Goals().Len())

	reply, err = h.RemoveGoal(context.Background(), loyaltyCmd("admin", "50", "Half-stack"))
	require.NoError(t, err)
	assert.Equal(t, `Removed goal "Half-stack" at level 50.`, reply)
	assert.Equal(t, loyalty.DefaultGoals().Len(), def[0].Goals().Len())
}

func TestTopScansBackendWithoutLeaderboard(t *testing.T) {
	h, ledger, _ := newLoyaltyFixture(t)
	for user, balance := range map[string]int{"alice": 1500, "bob": 400, "carol": 50} {
		ledger.OpenAccount(economy.Account{Scope: "guild", ID: user}, balance)
	}

	_, err := h.BuyLevel(context.Background(), loyaltyCmd("alice", "1200"))
	require.NoError(t, err)
	_, err = h.BuyLevel(context.Background(), loyaltyCmd("bob", "300"))
	require.NoError(t, err)
	_, err = h.BuyLevel(context.Background(), loyaltyCmd("carol", "40"))
	require.NoError(t, err)

	reply, err := h.Top(context.Background(), loyaltyCmd("anyone", "2"))
	require.NoError(t, err)
	assert.Equal(t, "Loyalty leaderboard:\n1. alice - level 1200\n2. bob - level 300\n", reply)
}

func TestTopEmptyScope(t *testing.T) {
	h, _, _ := newLoyaltyFixture(t)

	reply, err := h.Top(context.Background(), loyaltyCmd("anyone"))
	require.NoError(t, err)
	assert.Equal(t, "Nobody has any loyalty yet.", reply)
}

// fakeBoard records leaderboard refreshes.
type fakeBoard struct {
	levels map[string]int
}

func (b *fakeBoard) SetLevel(ctx context.Context, scope, memberID string, level int) error {
	b.levels[memberID] = level
	return nil
}

func (b *fakeBoard) Top(ctx context.Context, scope string, count int64) ([]RankedEntry, error) {
	return nil, nil
}

func TestBuyLevelRefreshesLeaderboard(t *testing.T) {
	def, err := loyalty.NewDefinition(nil)
	require.NoError(t, err)
	tracker := tracking.New(memory.New())
	require.NoError(t, tracker.Register(def))

	ledger := infraeconomy.NewMemoryLedger()
	ledger.OpenAccount(economy.Account{Scope: "guild", ID: "alice"}, 500)

	board := &fakeBoard{levels: map[string]int{}}
	h := NewLoyaltyHandler(tracker, ledger, nil, board, nil)

	_, err = h.BuyLevel(context.Background(), loyaltyCmd("alice", "150"))
	require.NoError(t, err)
	assert.Equal(t, 150, board.levels["alice"])
}

// goalCapture records ladder saves.
type goalCapture struct {
	saves [][]achievement.Goal
}

func (g *goalCapture) Save(goals []achievement.Goal) error {
	g.saves = append(g.saves, goals)
	return nil
}

func TestGoalEditsPersistLadder(t *testing.T) {
	def, err := loyalty.NewDefinition(nil)
	require.NoError(t, err)
	tracker := tracking.New(memory.New())
	require.NoError(t, tracker.Register(def))

	capture := &goalCapture{}
	h := NewLoyaltyHandler(tracker, infraeconomy.NewMemoryLedger(), capture, nil, nil)

	_, err = h.AddGoal(context.Background(), loyaltyCmd("admin", "50", "Half-stack", "Fifty."))
	require.NoError(t, err)
	require.Len(t, capture.saves, 1)
	assert.Len(t, capture.saves[0], loyalty.DefaultGoals().Len()+1)
}
