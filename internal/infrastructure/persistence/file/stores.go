package file

import (
	"path/filepath"

	"github.com/ejfett4/guildhub/internal/domain/achievement"
	"github.com/ejfett4/guildhub/internal/domain/stocks"
	"github.com/ejfett4/guildhub/internal/domain/store"
)

// ══════════════════════════════════════════════════════════════════════════════
// DATA DIRECTORY BOOTSTRAP
// ══════════════════════════════════════════════════════════════════════════════

// Data file names within the data directory.
const (
	AchievementsFile = "loyalty.json"
	GoalsFile        = "settings.json"
	QuotesFile       = "stocks.json"
	PortfoliosFile   = "portfolios.json"
	CostsFile        = "costs.json"
)

// Bootstrap creates the data directory and every store file that is missing,
// each with an empty default, so a fresh install starts cleanly.
func Bootstrap(dataDir string) error {
	defaults := map[string]any{
		AchievementsFile: map[string]any{},
		GoalsFile:        map[string]any{},
		QuotesFile:       map[string]any{},
		PortfoliosFile:   map[string]any{},
		CostsFile:        map[string]any{},
	}
	for name, def := range defaults {
		if err := EnsureFile(filepath.Join(dataDir, name), def); err != nil {
			return err
		}
	}
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// GOAL OVERRIDE STORE
// ══════════════════════════════════════════════════════════════════════════════

// GoalStore persists the loyalty goal ladder when admins edit it, so edits
// survive restarts and override the built-in defaults.
type GoalStore struct {
	path string
}

type goalsDocument struct {
	Goals []achievement.Goal `json:"goals"`
}

// NewGoalStore creates a store at the given path.
func NewGoalStore(path string) *GoalStore {
	return &GoalStore{path: path}
}

// Load returns the persisted ladder, reporting false when the store is
// absent or holds no goals.
func (s *GoalStore) Load() ([]achievement.Goal, bool, error) {
	var doc goalsDocument
	ok, err := LoadJSON(s.path, &doc)
	if err != nil {
		return nil, false, err
	}
	if !ok || len(doc.Goals) == 0 {
		return nil, false, nil
	}
	return doc.Goals, true, nil
}

// Save writes the full ladder.
func (s *GoalStore) Save(goals []achievement.Goal) error {
	return SaveJSON(s.path, goalsDocument{Goals: goals})
}

// ══════════════════════════════════════════════════════════════════════════════
// MARKET STORE
// ══════════════════════════════════════════════════════════════════════════════

// MarketStore persists the stock quote board and holder portfolios as two
// JSON files.
type MarketStore struct {
	quotesPath     string
	portfoliosPath string
}

var _ stocks.Persister = (*MarketStore)(nil)

// NewMarketStore creates a store over the two given paths.
func NewMarketStore(quotesPath, portfoliosPath string) *MarketStore {
	return &MarketStore{quotesPath: quotesPath, portfoliosPath: portfoliosPath}
}

// LoadQuotes returns the persisted quote board, reporting false when absent
// or empty so the caller can fall back to the default board.
func (s *MarketStore) LoadQuotes() (map[string]stocks.Quote, bool, error) {
	quotes := make(map[string]stocks.Quote)
	ok, err := LoadJSON(s.quotesPath, &quotes)
	if err != nil {
		return nil, false, err
	}
	return quotes, ok && len(quotes) > 0, nil
}

// LoadPortfolios returns the persisted portfolios, empty when absent.
func (s *MarketStore) LoadPortfolios() (map[string]map[string]int, error) {
	portfolios := make(map[string]map[string]int)
	if _, err := LoadJSON(s.portfoliosPath, &portfolios); err != nil {
		return nil, err
	}
	return portfolios, nil
}

// SaveQuotes writes the full quote board.
func (s *MarketStore) SaveQuotes(quotes map[string]stocks.Quote) error {
	return SaveJSON(s.quotesPath, quotes)
}

// SavePortfolios writes all portfolios.
func (s *MarketStore) SavePortfolios(portfolios map[string]map[string]int) error {
	return SaveJSON(s.portfoliosPath, portfolios)
}

// ══════════════════════════════════════════════════════════════════════════════
// COST STORE
// ══════════════════════════════════════════════════════════════════════════════

// CostStore persists the command cost table.
type CostStore struct {
	path string
}

var _ store.Persister = (*CostStore)(nil)

// NewCostStore creates a store at the given path.
func NewCostStore(path string) *CostStore {
	return &CostStore{path: path}
}

// LoadCosts returns the persisted cost table, empty when absent.
func (s *CostStore) LoadCosts() (map[string]int, error) {
	costs := make(map[string]int)
	if _, err := LoadJSON(s.path, &costs); err != nil {
		return nil, err
	}
	return costs, nil
}

// SaveCosts writes the full cost table.
func (s *CostStore) SaveCosts(costs map[string]int) error {
	return SaveJSON(s.path, costs)
}
