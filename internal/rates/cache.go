package rates

import (
	"sync"

	"github.com/shopspring/decimal"
)

// Cache memoizes historical rates per (date, currency) key for the lifetime
// of a resolver. Rates for a historical date are immutable once published,
// so there is no eviction, no size bound and no invalidation.
type Cache struct {
	mu    sync.RWMutex
	rates map[string]decimal.Decimal
}

// NewCache creates an empty rate cache.
func NewCache() *Cache {
	return &Cache{
		rates: make(map[string]decimal.Decimal),
	}
}

// Get retrieves a cached rate for the given date and currency.
func (c *Cache) Get(date, currency string) (decimal.Decimal, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	rate, ok := c.rates[cacheKey(date, currency)]
	return rate, ok
}

// Put stores a rate for the given date and currency.
func (c *Cache) Put(date, currency string, rate decimal.Decimal) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.rates[cacheKey(date, currency)] = rate
}

// Size returns the current number of cached rates.
func (c *Cache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.rates)
}

func cacheKey(date, currency string) string {
	return date + ":" + currency
}
