package engine

import (
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/advisorkit/portfolio-backend/internal/model"
)

// SeriesKey identifies one reconstructed series: the fingerprint of the
// instrument set plus the reconstructed date range. Because the fingerprint is
// derived from the ledger's instrument set, a ledger edit that changes the set
// naturally misses the cache; explicit invalidation covers edits that keep the
// set intact.
type SeriesKey struct {
	Fingerprint string
	Start       string
	End         string
}

// SeriesCache memoizes valuation reconstructions. It is injected into the
// services that need it rather than held as package state, and is safe for
// concurrent use.
type SeriesCache struct {
	mu      sync.RWMutex
	entries map[SeriesKey]ValuationSeries
}

// NewSeriesCache returns an empty cache.
func NewSeriesCache() *SeriesCache {
	return &SeriesCache{entries: make(map[SeriesKey]ValuationSeries)}
}

// Key builds the cache key for a ledger scope and date range.
func Key(txs []model.Transaction, start, end time.Time) SeriesKey {
	return SeriesKey{
		Fingerprint: Fingerprint(txs),
		Start:       Day(start).Format("2006-01-02"),
		End:         Day(end).Format("2006-01-02"),
	}
}

// Fingerprint derives a stable identifier from the ledger's instrument set
// and size. Transaction count is included so appends to an unchanged
// instrument set still change the key.
func Fingerprint(txs []model.Transaction) string {
	seen := make(map[string]struct{})
	for _, tx := range txs {
		seen[tx.Ticker] = struct{}{}
	}
	tickers := make([]string, 0, len(seen))
	for t := range seen {
		tickers = append(tickers, t)
	}
	sort.Strings(tickers)
	return strings.Join(tickers, "|") + "#" + strconv.Itoa(len(txs))
}

// Get returns the cached series for the key, if present.
func (c *SeriesCache) Get(key SeriesKey) (ValuationSeries, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.entries[key]
	return s, ok
}

// Put stores a reconstructed series under the key.
func (c *SeriesCache) Put(key SeriesKey, s ValuationSeries) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = s
}

// Invalidate drops all cached series. Called on any ledger or price-table
// write.
func (c *SeriesCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[SeriesKey]ValuationSeries)
}

// Len returns the number of cached series.
func (c *SeriesCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
