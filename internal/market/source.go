package market

import "context"

// QuoteSource lists tradable instruments and serves per-outcome quotes.
// Every call may fail transiently; callers skip the instrument for the
// current cycle and retry on the next one.
type QuoteSource interface {
	Instruments(ctx context.Context) ([]Instrument, error)
	Quotes(ctx context.Context, instrumentID string) (QuotePair, error)
}

// HistorySource serves ascending OHLC history. It may return fewer candles
// than requested; the caller decides whether that is enough.
type HistorySource interface {
	Candles(ctx context.Context, symbol, interval string, limit int) ([]Candle, error)
}

// ReferenceSource serves the trusted underlying price. A nil ReferencePrice
// with a nil error means the price is currently unavailable; downstream
// computation degrades instead of failing.
type ReferenceSource interface {
	Price(ctx context.Context, symbol string) (*ReferencePrice, error)
}
