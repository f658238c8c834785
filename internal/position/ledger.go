package position

import (
	"sort"
	"time"

	"polyquant/internal/market"
)

// Position is one open directional stake in a binary market. Prices are
// outcome probabilities in [0,1]; pnl percent is the entry-relative move
// times 100.
type Position struct {
	InstrumentID string         `json:"instrument_id"`
	Direction    market.Outcome `json:"direction"`
	SizeUSD      float64        `json:"size_usd"`
	EntryPrice   float64        `json:"entry_price"`
	MarkPrice    float64        `json:"mark_price"`
	PnlUSD       float64        `json:"pnl_usd"`
	PnlPercent   float64        `json:"pnl_percent"`
	OpenedAt     time.Time      `json:"opened_at"`
}

// Ledger owns the open positions, keyed by instrument id so at most one
// position per instrument can exist. It is mutated only by the trading loop
// between cycles; no locking is needed under that ownership discipline.
type Ledger struct {
	positions map[string]Position
}

func NewLedger() *Ledger {
	return &Ledger{positions: make(map[string]Position)}
}

// Upsert stores the position under its instrument id, replacing any
// previous entry for that instrument.
func (l *Ledger) Upsert(p Position) {
	l.positions[p.InstrumentID] = p
}

// Get returns the open position for the instrument, if any.
func (l *Ledger) Get(instrumentID string) (Position, bool) {
	p, ok := l.positions[instrumentID]
	return p, ok
}

// Remove deletes the instrument's position and returns it.
func (l *Ledger) Remove(instrumentID string) (Position, bool) {
	p, ok := l.positions[instrumentID]
	if ok {
		delete(l.positions, instrumentID)
	}
	return p, ok
}

// UpdateMark refreshes the mark price and recomputes pnl. A DOWN position
// profits when the mark falls.
func (l *Ledger) UpdateMark(instrumentID string, markPrice float64) (Position, bool) {
	p, ok := l.positions[instrumentID]
	if !ok {
		return Position{}, false
	}
	p.MarkPrice = markPrice
	if p.EntryPrice > 0 {
		move := (markPrice - p.EntryPrice) / p.EntryPrice
		if p.Direction == market.OutcomeDown {
			move = (p.EntryPrice - markPrice) / p.EntryPrice
		}
		p.PnlUSD = move * p.SizeUSD
		p.PnlPercent = move * 100
	}
	l.positions[instrumentID] = p
	return p, true
}

// Len reports how many positions are open.
func (l *Ledger) Len() int { return len(l.positions) }

// All returns a snapshot sorted by instrument id, safe for the caller to
// hold across ledger mutations.
func (l *Ledger) All() []Position {
	out := make([]Position, 0, len(l.positions))
	for _, p := range l.positions {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].InstrumentID < out[j].InstrumentID })
	return out
}
