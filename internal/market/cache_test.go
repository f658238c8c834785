package market

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCandles(n int) []Candle {
	out := make([]Candle, n)
	for i := range out {
		out[i] = Candle{OpenTime: int64(i), Close: 100 + float64(i)}
	}
	return out
}

func TestCacheGetMissAndHit(t *testing.T) {
	cache := NewCandleCache(time.Minute)

	_, ok := cache.Get("BTCUSDT", "15m", 50)
	assert.False(t, ok)

	cache.Put("BTCUSDT", "15m", 50, testCandles(3))
	got, ok := cache.Get("BTCUSDT", "15m", 50)
	require.True(t, ok)
	assert.Len(t, got, 3)

	// Different limit is a different entry.
	_, ok = cache.Get("BTCUSDT", "15m", 100)
	assert.False(t, ok)
}

func TestCacheKeyNormalization(t *testing.T) {
	cache := NewCandleCache(time.Minute)
	cache.Put(" btcusdt ", "15M", 50, testCandles(1))

	_, ok := cache.Get("BTCUSDT", "15m", 50)
	assert.True(t, ok)
}

func TestCacheExpiry(t *testing.T) {
	cache := NewCandleCache(time.Minute)
	clock := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return clock }

	cache.Put("BTCUSDT", "15m", 50, testCandles(1))

	clock = clock.Add(59 * time.Second)
	_, ok := cache.Get("BTCUSDT", "15m", 50)
	assert.True(t, ok)

	clock = clock.Add(2 * time.Second)
	_, ok = cache.Get("BTCUSDT", "15m", 50)
	assert.False(t, ok)
}

func TestCacheReturnsDefensiveCopy(t *testing.T) {
	cache := NewCandleCache(time.Minute)
	original := testCandles(2)
	cache.Put("BTCUSDT", "15m", 50, original)

	got, ok := cache.Get("BTCUSDT", "15m", 50)
	require.True(t, ok)
	got[0].Close = -1
	original[1].Close = -1

	again, ok := cache.Get("BTCUSDT", "15m", 50)
	require.True(t, ok)
	assert.Equal(t, 100.0, again[0].Close)
	assert.Equal(t, 101.0, again[1].Close)
}

func TestCacheInvalidateBySymbol(t *testing.T) {
	cache := NewCandleCache(time.Minute)
	cache.Put("BTCUSDT", "15m", 50, testCandles(1))
	cache.Put("BTCUSDT", "1h", 50, testCandles(1))
	cache.Put("ETHUSDT", "15m", 50, testCandles(1))

	cache.Invalidate("btcusdt")

	_, ok := cache.Get("BTCUSDT", "15m", 50)
	assert.False(t, ok)
	_, ok = cache.Get("BTCUSDT", "1h", 50)
	assert.False(t, ok)
	_, ok = cache.Get("ETHUSDT", "15m", 50)
	assert.True(t, ok)
}

func TestCacheNilReceiverIsInert(t *testing.T) {
	var cache *CandleCache
	cache.Put("BTCUSDT", "15m", 50, testCandles(1))
	_, ok := cache.Get("BTCUSDT", "15m", 50)
	assert.False(t, ok)
	cache.Invalidate("BTCUSDT")
	cache.Reset()
}

type countingHistory struct {
	calls   int
	candles []Candle
	err     error
}

func (h *countingHistory) Candles(context.Context, string, string, int) ([]Candle, error) {
	h.calls++
	if h.err != nil {
		return nil, h.err
	}
	return h.candles, nil
}

func TestCachedHistoryFetchesOnce(t *testing.T) {
	src := &countingHistory{candles: testCandles(5)}
	hist := NewCachedHistory(src, NewCandleCache(time.Minute))

	for i := 0; i < 3; i++ {
		got, err := hist.Candles(context.Background(), "BTCUSDT", "15m", 50)
		require.NoError(t, err)
		assert.Len(t, got, 5)
	}
	assert.Equal(t, 1, src.calls)
}

func TestCachedHistoryDoesNotCacheErrors(t *testing.T) {
	src := &countingHistory{err: errors.New("upstream down")}
	hist := NewCachedHistory(src, NewCandleCache(time.Minute))

	_, err := hist.Candles(context.Background(), "BTCUSDT", "15m", 50)
	require.Error(t, err)

	src.err = nil
	src.candles = testCandles(2)
	got, err := hist.Candles(context.Background(), "BTCUSDT", "15m", 50)
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, 2, src.calls)
}
