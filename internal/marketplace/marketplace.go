// Package marketplace is an in-memory supply, demand and price registry
// shared by every sector of a run.
package marketplace

import (
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"
)

// Key identifies one market: a good traded in a named market.
type Key struct {
	Good   string
	Market string
}

func (k Key) String() string { return k.Good + "@" + k.Market }

type market struct {
	demand []float64
	supply []float64
	price  []float64
	info   []map[string]float64
}

// Marketplace holds per-period market state. It is safe for concurrent
// use; regions clearing the same period may share it.
type Marketplace struct {
	mu      sync.RWMutex
	periods int
	markets map[Key]*market
	logger  *zap.Logger
}

// New returns an empty marketplace sized for periods. logger may be nil.
func New(logger *zap.Logger, periods int) (*Marketplace, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if periods <= 0 {
		return nil, fmt.Errorf("number of periods must be positive, got %d", periods)
	}
	return &Marketplace{
		periods: periods,
		markets: make(map[Key]*market),
		logger:  logger,
	}, nil
}

// CreateMarket registers a market. Creating an existing market is a no-op.
func (m *Marketplace) CreateMarket(good, marketName string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := Key{Good: good, Market: marketName}
	if _, ok := m.markets[key]; ok {
		return
	}
	info := make([]map[string]float64, m.periods)
	for p := range info {
		info[p] = make(map[string]float64)
	}
	m.markets[key] = &market{
		demand: make([]float64, m.periods),
		supply: make([]float64, m.periods),
		price:  make([]float64, m.periods),
		info:   info,
	}
}

// lookup returns the market for writing; the caller holds the lock.
func (m *Marketplace) lookup(op, good, marketName string, period int) *market {
	if period < 0 || period >= m.periods {
		m.logger.Warn("period out of range",
			zap.String("op", op),
			zap.String("market", Key{good, marketName}.String()),
			zap.Int("period", period),
		)
		return nil
	}
	mk, ok := m.markets[Key{Good: good, Market: marketName}]
	if !ok {
		m.logger.Debug("market does not exist",
			zap.String("op", op),
			zap.String("market", Key{good, marketName}.String()),
			zap.Int("period", period),
		)
		return nil
	}
	return mk
}

// MarketExists reports whether the market exists and period is in range.
func (m *Marketplace) MarketExists(good, marketName string, period int) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if period < 0 || period >= m.periods {
		return false
	}
	_, ok := m.markets[Key{Good: good, Market: marketName}]
	return ok
}

// Demand returns the demand for a good, or zero for an unknown market.
func (m *Marketplace) Demand(good, marketName string, period int) float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if mk := m.lookup("marketplace.Demand", good, marketName, period); mk != nil {
		return mk.demand[period]
	}
	return 0
}

// SetDemand sets the demand for a good.
func (m *Marketplace) SetDemand(good, marketName string, demand float64, period int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if mk := m.lookup("marketplace.SetDemand", good, marketName, period); mk != nil {
		mk.demand[period] = demand
	}
}

// Supply returns the supply added for a good.
func (m *Marketplace) Supply(good, marketName string, period int) float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if mk := m.lookup("marketplace.Supply", good, marketName, period); mk != nil {
		return mk.supply[period]
	}
	return 0
}

// AddToSupply adds quantity to the supply of a good.
func (m *Marketplace) AddToSupply(good, marketName string, quantity float64, period int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if mk := m.lookup("marketplace.AddToSupply", good, marketName, period); mk != nil {
		mk.supply[period] += quantity
	}
}

// ClearSupply zeroes supply in every market for period so that a new
// solver pass can accumulate it again.
func (m *Marketplace) ClearSupply(period int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if period < 0 || period >= m.periods {
		return
	}
	for _, mk := range m.markets {
		mk.supply[period] = 0
	}
}

// Price returns the price of a good.
func (m *Marketplace) Price(good, marketName string, period int) float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if mk := m.lookup("marketplace.Price", good, marketName, period); mk != nil {
		return mk.price[period]
	}
	return 0
}

// SetPrice sets the price of a good.
func (m *Marketplace) SetPrice(good, marketName string, price float64, period int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if mk := m.lookup("marketplace.SetPrice", good, marketName, period); mk != nil {
		mk.price[period] = price
	}
}

// MarketInfo returns a named auxiliary value and whether it was set.
func (m *Marketplace) MarketInfo(good, marketName string, period int, key string) (float64, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if mk := m.lookup("marketplace.MarketInfo", good, marketName, period); mk != nil {
		v, ok := mk.info[period][key]
		return v, ok
	}
	return 0, false
}

// SetMarketInfo stores a named auxiliary value such as an emissions factor.
func (m *Marketplace) SetMarketInfo(good, marketName string, period int, key string, value float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if mk := m.lookup("marketplace.SetMarketInfo", good, marketName, period); mk != nil {
		mk.info[period][key] = value
	}
}

// Keys returns every market key in a stable order.
func (m *Marketplace) Keys() []Key {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]Key, 0, len(m.markets))
	for k := range m.markets {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Good != keys[j].Good {
			return keys[i].Good < keys[j].Good
		}
		return keys[i].Market < keys[j].Market
	})
	return keys
}
