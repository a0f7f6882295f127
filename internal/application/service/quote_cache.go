package service

import (
	"sync"

	"stockpulse/internal/domain"
)

// QuoteCache holds the latest complete snapshot set, replaced wholesale once
// per tick. Readers never observe a mix of two ticks: ReplaceAll swaps the
// whole map under the write lock and Get/All read the current map only.
type QuoteCache struct {
	mu     sync.RWMutex
	quotes map[int]domain.Quote
}

func NewQuoteCache() *QuoteCache {
	return &QuoteCache{quotes: make(map[int]domain.Quote)}
}

// ReplaceAll installs a new tick's snapshot set. Instruments whose fetch
// failed this tick are simply absent; stale entries from earlier ticks are
// dropped, not preserved.
func (c *QuoteCache) ReplaceAll(quotes map[int]domain.Quote) {
	c.mu.Lock()
	c.quotes = quotes
	c.mu.Unlock()
}

func (c *QuoteCache) Get(instrumentID int) (domain.Quote, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	q, ok := c.quotes[instrumentID]
	return q, ok
}

// All returns a copy of the current snapshot set.
func (c *QuoteCache) All() map[int]domain.Quote {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[int]domain.Quote, len(c.quotes))
	for id, q := range c.quotes {
		out[id] = q
	}
	return out
}

func (c *QuoteCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.quotes)
}
