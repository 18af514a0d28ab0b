package redis

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

// ══════════════════════════════════════════════════════════════════════════════
// LOYALTY LEADERBOARD
// ══════════════════════════════════════════════════════════════════════════════

// ErrLeaderboardEmpty is returned when a scope holds no ranked members.
var ErrLeaderboardEmpty = errors.New("redis: leaderboard is empty")

// keyLoyaltyLevels is the sorted set of member -> loyalty level per scope.
const keyLoyaltyLevels = "loyalty:levels:"

// RankedMember is a member with its loyalty level and 1-based rank.
type RankedMember struct {
	ID    string
	Level int
	Rank  int64
}

// LoyaltyLeaderboard keeps a per-scope ranking of loyalty levels in a Redis
// sorted set. It is a cache over the achievement backend: entries are written
// on every level change and the backend remains the source of truth.
type LoyaltyLeaderboard struct {
	client *Client
}

// NewLoyaltyLeaderboard creates a leaderboard over the given client.
func NewLoyaltyLeaderboard(client *Client) *LoyaltyLeaderboard {
	return &LoyaltyLeaderboard{client: client}
}

func scopeKey(scope string) string {
	return keyLoyaltyLevels + scope
}

// SetLevel records the member's current loyalty level in the scope ranking.
func (l *LoyaltyLeaderboard) SetLevel(ctx context.Context, scope, memberID string, level int) error {
	if memberID == "" {
		return ErrKeyEmpty
	}
	return l.client.Raw().ZAdd(ctx, scopeKey(scope), redis.Z{
		Score:  float64(level),
		Member: memberID,
	}).Err()
}

// Top returns the highest-level members of the scope, best first. Ties share
// the sorted-set order, which Redis breaks lexicographically by member.
func (l *LoyaltyLeaderboard) Top(ctx context.Context, scope string, count int64) ([]RankedMember, error) {
	if count <= 0 {
		return nil, nil
	}
	zs, err := l.client.Raw().ZRevRangeWithScores(ctx, scopeKey(scope), 0, count-1).Result()
	if err != nil {
		return nil, err
	}
	if len(zs) == 0 {
		return nil, ErrLeaderboardEmpty
	}

	members := make([]RankedMember, 0, len(zs))
	for i, z := range zs {
		members = append(members, RankedMember{
			ID:    z.Member.(string),
			Level: int(z.Score),
			Rank:  int64(i) + 1,
		})
	}
	return members, nil
}

// Rank returns the member's 1-based rank in the scope, best first.
func (l *LoyaltyLeaderboard) Rank(ctx context.Context, scope, memberID string) (int64, error) {
	rank, err := l.client.Raw().ZRevRank(ctx, scopeKey(scope), memberID).Result()
	if errors.Is(err, redis.Nil) {
		return 0, ErrLeaderboardEmpty
	}
	if err != nil {
		return 0, err
	}
	return rank + 1, nil
}

// Remove drops the member from the scope ranking.
func (l *LoyaltyLeaderboard) Remove(ctx context.Context, scope, memberID string) error {
	return l.client.Raw().ZRem(ctx, scopeKey(scope), memberID).Err()
}

// WipeScope drops the entire scope ranking.
func (l *LoyaltyLeaderboard) WipeScope(ctx context.Context, scope string) error {
	return l.client.Raw().Del(ctx, scopeKey(scope)).Err()
}
