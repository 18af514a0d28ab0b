package file

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ejfett4/guildhub/internal/domain/achievement"
)

func testDefinition(t *testing.T, goals ...achievement.Goal) *achievement.Definition {
	t.Helper()
	def, err := achievement.NewDefinition("ChatLoyalty", "chat",
		achievement.WithGoals(achievement.NewGoalSet(goals...)))
	require.NoError(t, err)
	return def
}

func TestLazyCreationPersists(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "achievements.json")
	def := testDefinition(t)

	b, err := OpenBackend(path)
	require.NoError(t, err)

	subject := achievement.Subject{Scope: "guild-1", ID: "user-1"}
	a, err := b.AchievementFor(ctx, subject, def)
	require.NoError(t, err)
	assert.Equal(t, 0, a.Current())

	// Same live instance on repeat access.
	again, err := b.AchievementFor(ctx, subject, def)
	require.NoError(t, err)
	assert.Same(t, a, again)

	// The creation must already be durable.
	reloaded, err := OpenBackend(path)
	require.NoError(t, err)
	subjects, err := reloaded.TrackedSubjects(ctx, "guild-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"user-1"}, subjects)
}

func TestPersistReloadRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "achievements.json")
	def := testDefinition(t, achievement.Goal{Level: 10, Name: "ten"})

	b, err := OpenBackend(path)
	require.NoError(t, err)

	pairs := map[achievement.Subject]int{
		{Scope: "guild-1", ID: "user-1"}: 42,
		{Scope: "guild-1", ID: "user-2"}: 7,
		{Scope: "guild-2", ID: "user-1"}: 100,
	}
	for subject, level := range pairs {
		require.NoError(t, b.SetLevel(ctx, subject, def, level))
	}

	reloaded, err := OpenBackend(path)
	require.NoError(t, err)
	for subject, level := range pairs {
		a, err := reloaded.AchievementFor(ctx, subject, def)
		require.NoError(t, err)
		assert.Equal(t, level, a.Current(), "subject %s", subject)
	}
}

func TestRehydrationBindsCurrentDefinition(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "achievements.json")
	subject := achievement.Subject{Scope: "guild-1", ID: "user-1"}

	b, err := OpenBackend(path)
	require.NoError(t, err)
	oldDef := testDefinition(t, achievement.Goal{Level: 100, Name: "hundred"})
	require.NoError(t, b.SetLevel(ctx, subject, oldDef, 50))

	// Reload with a re-registered definition whose goal set changed; the
	// stored level must be evaluated against the new goals.
	newDef := testDefinition(t, achievement.Goal{Level: 25, Name: "twentyfive"})
	reloaded, err := OpenBackend(path)
	require.NoError(t, err)

	a, err := reloaded.AchievementFor(ctx, subject, newDef)
	require.NoError(t, err)
	assert.Equal(t, 50, a.Current())
	require.Len(t, a.Achieved(), 1)
	assert.Equal(t, "twentyfive", a.Achieved()[0].Name)
}

func TestRemoveSubject(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "achievements.json")
	def := testDefinition(t)

	b, err := OpenBackend(path)
	require.NoError(t, err)
	keep := achievement.Subject{Scope: "guild-1", ID: "keeper"}
	gone := achievement.Subject{Scope: "guild-1", ID: "goner"}
	require.NoError(t, b.SetLevel(ctx, keep, def, 1))
	require.NoError(t, b.SetLevel(ctx, gone, def, 2))

	require.NoError(t, b.RemoveSubject(ctx, gone))

	subjects, err := b.TrackedSubjects(ctx, "guild-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"keeper"}, subjects)

	// Removal is durable.
	reloaded, err := OpenBackend(path)
	require.NoError(t, err)
	subjects, err = reloaded.TrackedSubjects(ctx, "guild-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"keeper"}, subjects)
}

func TestWipeScope(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "achievements.json")
	def := testDefinition(t)

	b, err := OpenBackend(path)
	require.NoError(t, err)
	require.NoError(t, b.SetLevel(ctx, achievement.Subject{Scope: "guild-1", ID: "a"}, def, 1))
	require.NoError(t, b.SetLevel(ctx, achievement.Subject{Scope: "guild-2", ID: "b"}, def, 2))

	require.NoError(t, b.Wipe(ctx, "guild-1"))

	subjects, err := b.TrackedSubjects(ctx, "guild-1")
	require.NoError(t, err)
	assert.Empty(t, subjects)

	subjects, err = b.TrackedSubjects(ctx, "guild-2")
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, subjects)
}

func TestOpenBackendMissingFileStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nope", "achievements.json")

	b, err := OpenBackend(path)
	require.NoError(t, err)

	subjects, err := b.TrackedSubjects(context.Background(), "guild-1")
	require.NoError(t, err)
	assert.Empty(t, subjects)
}
