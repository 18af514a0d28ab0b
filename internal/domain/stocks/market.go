// Package stocks implements the fictional stock exchange: quoted symbols
// with demand-driven price updates and per-holder portfolios.
package stocks

import (
	"math/rand"
	"sort"
	"sync"

	"github.com/ejfett4/guildhub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// QUOTES
// ══════════════════════════════════════════════════════════════════════════════

// Quote is the exchange state of one symbol. Bought and Sold count shares
// traded since the last price update and feed the next one.
type Quote struct {
	Price  int `json:"price"`
	Bought int `json:"bought"`
	Sold   int `json:"sold"`
}

// Listing pairs a symbol with its quote for ordered listings.
type Listing struct {
	Symbol string
	Quote  Quote
}

const startingPrice = 100

// DefaultQuotes returns the exchange's initial symbol board.
func DefaultQuotes() map[string]Quote {
	symbols := []string{
		"NNTDO", "NASLAQ", "SNRLX", "WTCHR", "DSCRD", "PYTHN", "CRBDBX",
		"SNY", "CSHMNY", "MCRSFT", "SNK", "DRG", "GRMN",
	}
	quotes := make(map[string]Quote, len(symbols))
	for _, s := range symbols {
		quotes[s] = Quote{Price: startingPrice}
	}
	return quotes
}

// ══════════════════════════════════════════════════════════════════════════════
// MARKET
// ══════════════════════════════════════════════════════════════════════════════

// Persister saves market state after each mutation. The file-backed
// implementation lives in the infrastructure layer.
type Persister interface {
	SaveQuotes(quotes map[string]Quote) error
	SavePortfolios(portfolios map[string]map[string]int) error
}

// Market holds the quote board and every holder's portfolio behind one
// mutex. Trades and price updates persist through the injected Persister.
type Market struct {
	mu         sync.Mutex
	quotes     map[string]Quote
	portfolios map[string]map[string]int
	persister  Persister
	randFloat  func() float64
}

// MarketOption configures a Market.
type MarketOption func(*Market)

// WithQuotes seeds the quote board, replacing the defaults.
func WithQuotes(quotes map[string]Quote) MarketOption {
	return func(m *Market) {
		if len(quotes) > 0 {
			m.quotes = quotes
		}
	}
}

// WithPortfolios seeds holder portfolios, usually from a persisted store.
func WithPortfolios(portfolios map[string]map[string]int) MarketOption {
	return func(m *Market) {
		if portfolios != nil {
			m.portfolios = portfolios
		}
	}
}

// WithPersister sets the persistence sink for trades and price updates.
func WithPersister(p Persister) MarketOption {
	return func(m *Market) {
		if p != nil {
			m.persister = p
		}
	}
}

// WithRandSource sets the random source for price updates. Tests inject a
// fixed value to pin the formula down.
func WithRandSource(fn func() float64) MarketOption {
	return func(m *Market) {
		if fn != nil {
			m.randFloat = fn
		}
	}
}

type noopPersister struct{}

func (noopPersister) SaveQuotes(map[string]Quote) error              { return nil }
func (noopPersister) SavePortfolios(map[string]map[string]int) error { return nil }

// NewMarket creates a market with the default board unless seeded otherwise.
func NewMarket(opts ...MarketOption) *Market {
	m := &Market{
		quotes:     DefaultQuotes(),
		portfolios: make(map[string]map[string]int),
		persister:  noopPersister{},
		randFloat:  rand.Float64,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Quote returns the current quote for the symbol.
func (m *Market) Quote(symbol string) (Quote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	q, ok := m.quotes[symbol]
	if !ok {
		return Quote{}, shared.NewDomainError("stocks", "Quote", shared.ErrNotFound,
			symbol+" isn't a valid stock")
	}
	return q, nil
}

// Listings returns the quote board sorted by symbol.
func (m *Market) Listings() []Listing {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Listing, 0, len(m.quotes))
	for symbol, q := range m.quotes {
		out = append(out, Listing{Symbol: symbol, Quote: q})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

// Portfolio returns a copy of the holder's positions.
func (m *Market) Portfolio(holder string) map[string]int {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make(map[string]int, len(m.portfolios[holder]))
	for symbol, shares := range m.portfolios[holder] {
		out[symbol] = shares
	}
	return out
}

// Cost returns the price of buying amount shares of the symbol right now.
func (m *Market) Cost(symbol string, amount int) (int, error) {
	q, err := m.Quote(symbol)
	if err != nil {
		return 0, err
	}
	return q.Price * amount, nil
}

// Buy adds amount shares of the symbol to the holder's portfolio and counts
// the demand for the next price update. It returns the total cost at the
// current price; the caller settles it against the ledger beforehand.
func (m *Market) Buy(holder, symbol string, amount int) (int, error) {
	if amount <= 0 {
		return 0, shared.NewDomainError("stocks", "Buy", shared.ErrInvalidInput,
			"amount must be positive")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	q, ok := m.quotes[symbol]
	if !ok {
		return 0, shared.NewDomainError("stocks", "Buy", shared.ErrNotFound,
			symbol+" isn't a valid stock")
	}

	cost := q.Price * amount
	if m.portfolios[holder] == nil {
		m.portfolios[holder] = make(map[string]int)
	}
	m.portfolios[holder][symbol] += amount
	q.Bought += amount
	m.quotes[symbol] = q

	if err := m.saveLocked(); err != nil {
		return 0, err
	}
	return cost, nil
}

// Sell removes amount shares from the holder's portfolio, deleting the
// position when it reaches zero, and returns the proceeds at the current
// price for the caller to deposit.
func (m *Market) Sell(holder, symbol string, amount int) (int, error) {
	if amount <= 0 {
		return 0, shared.NewDomainError("stocks", "Sell", shared.ErrInvalidInput,
			"amount must be positive")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	q, ok := m.quotes[symbol]
	held := m.portfolios[holder][symbol]
	if !ok || held == 0 {
		return 0, shared.NewDomainError("stocks", "Sell", shared.ErrNotFound,
			symbol+" isn't a valid stock or you don't have any")
	}
	if held < amount {
		return 0, shared.NewDomainError("stocks", "Sell", shared.ErrInsufficientFunds,
			"not enough "+symbol+" shares to sell")
	}

	proceeds := q.Price * amount
	m.portfolios[holder][symbol] -= amount
	if m.portfolios[holder][symbol] == 0 {
		delete(m.portfolios[holder], symbol)
	}
	q.Sold += amount
	m.quotes[symbol] = q

	if err := m.saveLocked(); err != nil {
		return 0, err
	}
	return proceeds, nil
}

// UpdatePrices reprices every symbol from its trade counters and the random
// source, resets the counters, persists, and returns the new board.
func (m *Market) UpdatePrices() ([]Listing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for symbol, q := range m.quotes {
		q.Price = newPrice(q, m.randFloat())
		q.Bought = 0
		q.Sold = 0
		m.quotes[symbol] = q
	}
	if err := m.persister.SaveQuotes(m.quotes); err != nil {
		return nil, shared.WrapError("stocks", "UpdatePrices", shared.ErrPersistence,
			"could not persist the repriced quote board", err)
	}

	out := make([]Listing, 0, len(m.quotes))
	for symbol, q := range m.quotes {
		out = append(out, Listing{Symbol: symbol, Quote: q})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out, nil
}

func (m *Market) saveLocked() error {
	if err := m.persister.SavePortfolios(m.portfolios); err != nil {
		return shared.WrapError("stocks", "Save", shared.ErrPersistence,
			"could not persist portfolios", err)
	}
	if err := m.persister.SaveQuotes(m.quotes); err != nil {
		return shared.WrapError("stocks", "Save", shared.ErrPersistence,
			"could not persist quotes", err)
	}
	return nil
}

// newPrice derives the next price from trade pressure and a random factor.
// Buying pushes the price up by at most half, selling pulls it down by the
// same proportion, and the random factor stays within [0.5, 2.0] with the
// extremes reserved for the outer 5% tails. Prices never drop below 10.
func newPrice(q Quote, rnum float64) int {
	bought := float64(q.Bought)
	sold := float64(q.Sold)
	total := bought + sold
	if total == 0 {
		total = 1
	}

	buyFactor := (bought/total)/2.0 + 1.0
	sellFactor := 1.0 / ((sold/total)/2.0 + 1.0)
	randomFactor := rnum/2.0 + 0.75
	if rnum < 0.05 {
		randomFactor = 0.5
	}
	if rnum > 0.95 {
		randomFactor = 2.0
	}

	price := int(float64(q.Price) * randomFactor * buyFactor * sellFactor)
	if price <= 10 {
		price = 10
	}
	return price
}
