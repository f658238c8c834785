package market

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
)

// CandleCache is an explicitly owned, TTL-bounded candle cache keyed by
// symbol+interval+limit. Entries past their TTL are treated as absent.
type CandleCache struct {
	ttl time.Duration
	now func() time.Time

	mu      sync.RWMutex
	entries map[string]candleEntry
}

type candleEntry struct {
	candles  []Candle
	storedAt time.Time
}

func NewCandleCache(ttl time.Duration) *CandleCache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &CandleCache{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]candleEntry),
	}
}

func cacheKey(symbol, interval string, limit int) string {
	return fmt.Sprintf("%s|%s|%d", strings.ToUpper(strings.TrimSpace(symbol)), strings.ToLower(strings.TrimSpace(interval)), limit)
}

// Get returns a defensive copy of the cached candles, or false when the
// entry is missing or expired.
func (c *CandleCache) Get(symbol, interval string, limit int) ([]Candle, bool) {
	if c == nil {
		return nil, false
	}
	key := cacheKey(symbol, interval, limit)
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if c.now().Sub(entry.storedAt) > c.ttl {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return nil, false
	}
	return append([]Candle(nil), entry.candles...), true
}

// Put stores a copy of the candles under the symbol+interval+limit key.
func (c *CandleCache) Put(symbol, interval string, limit int, candles []Candle) {
	if c == nil {
		return
	}
	key := cacheKey(symbol, interval, limit)
	c.mu.Lock()
	c.entries[key] = candleEntry{
		candles:  append([]Candle(nil), candles...),
		storedAt: c.now(),
	}
	c.mu.Unlock()
}

// Invalidate drops every entry for the given symbol regardless of interval.
func (c *CandleCache) Invalidate(symbol string) {
	if c == nil {
		return
	}
	prefix := strings.ToUpper(strings.TrimSpace(symbol)) + "|"
	c.mu.Lock()
	for key := range c.entries {
		if strings.HasPrefix(key, prefix) {
			delete(c.entries, key)
		}
	}
	c.mu.Unlock()
}

// Reset drops everything.
func (c *CandleCache) Reset() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.entries = make(map[string]candleEntry)
	c.mu.Unlock()
}

// CachedHistory wraps a HistorySource behind a CandleCache.
type CachedHistory struct {
	Source HistorySource
	Cache  *CandleCache
}

func NewCachedHistory(src HistorySource, cache *CandleCache) *CachedHistory {
	return &CachedHistory{Source: src, Cache: cache}
}

func (h *CachedHistory) Candles(ctx context.Context, symbol, interval string, limit int) ([]Candle, error) {
	if cached, ok := h.Cache.Get(symbol, interval, limit); ok {
		return cached, nil
	}
	candles, err := h.Source.Candles(ctx, symbol, interval, limit)
	if err != nil {
		return nil, err
	}
	h.Cache.Put(symbol, interval, limit, candles)
	return candles, nil
}
