package market

import "time"

// Outcome is one side of a binary market.
type Outcome string

const (
	OutcomeUp   Outcome = "UP"
	OutcomeDown Outcome = "DOWN"
)

// Opposite returns the other side of the market.
func (o Outcome) Opposite() Outcome {
	if o == OutcomeUp {
		return OutcomeDown
	}
	return OutcomeUp
}

// Quote is the market's current implied probability for one outcome.
type Quote struct {
	InstrumentID string  `json:"instrument_id"`
	Outcome      Outcome `json:"outcome"`
	Probability  float64 `json:"probability"`
	LiquidityUSD float64 `json:"liquidity_usd"`
	Volume24hUSD float64 `json:"volume_24h_usd"`
}

// QuotePair holds exactly one quote per outcome for an instrument.
type QuotePair struct {
	Up   Quote `json:"up"`
	Down Quote `json:"down"`
}

// ForOutcome selects the quote matching the given side.
func (p QuotePair) ForOutcome(o Outcome) Quote {
	if o == OutcomeDown {
		return p.Down
	}
	return p.Up
}

// Candle is an OHLC summary for one fixed time bucket. Times are unix millis.
type Candle struct {
	OpenTime  int64   `json:"open_time"`
	CloseTime int64   `json:"close_time"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    float64 `json:"volume"`
}

// ReferencePrice is an external trusted price for the underlying asset.
type ReferencePrice struct {
	Symbol     string    `json:"symbol"`
	Price      float64   `json:"price"`
	ObservedAt time.Time `json:"observed_at"`
	Source     string    `json:"source"`
}

// Instrument is a single binary UP/DOWN market.
type Instrument struct {
	ID           string     `json:"id"`
	Question     string     `json:"question"`
	Slug         string     `json:"slug"`
	Symbol       string     `json:"symbol"`
	LiquidityUSD float64    `json:"liquidity_usd"`
	Volume24hUSD float64    `json:"volume_24h_usd"`
	StartTime    *time.Time `json:"start_time,omitempty"`
	Active       bool       `json:"active"`
}
