package file

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ejfett4/guildhub/internal/domain/achievement"
	"github.com/ejfett4/guildhub/internal/domain/stocks"
)

func TestBootstrapCreatesAllFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Bootstrap(dir))

	for _, name := range []string{AchievementsFile, GoalsFile, QuotesFile, PortfoliosFile, CostsFile} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err, name)
	}
}

func TestBootstrapKeepsExistingData(t *testing.T) {
	dir := t.TempDir()
	costStore := NewCostStore(filepath.Join(dir, CostsFile))
	require.NoError(t, costStore.SaveCosts(map[string]int{"stocks buy": 5}))

	require.NoError(t, Bootstrap(dir))

	costs, err := costStore.LoadCosts()
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"stocks buy": 5}, costs)
}

func TestGoalStoreRoundTrip(t *testing.T) {
	store := NewGoalStore(filepath.Join(t.TempDir(), GoalsFile))

	_, ok, err := store.Load()
	require.NoError(t, err)
	assert.False(t, ok)

	ladder := []achievement.Goal{
		{Level: 1, Name: "first", Description: "one point"},
		{Level: 100, Name: "second", Description: "a hundred"},
	}
	require.NoError(t, store.Save(ladder))

	loaded, ok, err := store.Load()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, ladder, loaded)
}

func TestMarketStoreRoundTrip(t *testing.T) {
	dir := t.TempDir()
	store := NewMarketStore(filepath.Join(dir, QuotesFile), filepath.Join(dir, PortfoliosFile))

	_, ok, err := store.LoadQuotes()
	require.NoError(t, err)
	assert.False(t, ok)

	quotes := map[string]stocks.Quote{
		"NNTDO": {Price: 120, Bought: 3, Sold: 1},
	}
	require.NoError(t, store.SaveQuotes(quotes))

	loaded, ok, err := store.LoadQuotes()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, quotes, loaded)

	portfolios := map[string]map[string]int{
		"guild/alice": {"NNTDO": 3},
	}
	require.NoError(t, store.SavePortfolios(portfolios))

	loadedPortfolios, err := store.LoadPortfolios()
	require.NoError(t, err)
	assert.Equal(t, portfolios, loadedPortfolios)
}

func TestCostStoreEmptyWhenAbsent(t *testing.T) {
	store := NewCostStore(filepath.Join(t.TempDir(), CostsFile))

	costs, err := store.LoadCosts()
	require.NoError(t, err)
	assert.Empty(t, costs)
}
