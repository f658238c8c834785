package position

import (
	"testing"

	"polyquant/internal/market"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpsertKeyedByInstrument(t *testing.T) {
	l := NewLedger()
	l.Upsert(Position{InstrumentID: "m1", Direction: market.OutcomeUp, SizeUSD: 100, EntryPrice: 0.5})
	l.Upsert(Position{InstrumentID: "m1", Direction: market.OutcomeDown, SizeUSD: 80, EntryPrice: 0.4})
	assert.Equal(t, 1, l.Len())

	p, ok := l.Get("m1")
	require.True(t, ok)
	assert.Equal(t, market.OutcomeDown, p.Direction)
	assert.Equal(t, 80.0, p.SizeUSD)
}

func TestUpdateMarkUpPosition(t *testing.T) {
	l := NewLedger()
	l.Upsert(Position{InstrumentID: "m1", Direction: market.OutcomeUp, SizeUSD: 100, EntryPrice: 0.5})
	p, ok := l.UpdateMark("m1", 0.6)
	require.True(t, ok)
	assert.InDelta(t, 20.0, p.PnlUSD, 1e-9)
	assert.InDelta(t, 20.0, p.PnlPercent, 1e-9)
	assert.InDelta(t, 0.6, p.MarkPrice, 1e-9)
}

func TestUpdateMarkDownPositionProfitsOnDrop(t *testing.T) {
	l := NewLedger()
	l.Upsert(Position{InstrumentID: "m1", Direction: market.OutcomeDown, SizeUSD: 100, EntryPrice: 0.5})
	p, ok := l.UpdateMark("m1", 0.4)
	require.True(t, ok)
	assert.InDelta(t, 20.0, p.PnlUSD, 1e-9)
	assert.InDelta(t, 20.0, p.PnlPercent, 1e-9)

	p, _ = l.UpdateMark("m1", 0.6)
	assert.InDelta(t, -20.0, p.PnlUSD, 1e-9)
	assert.InDelta(t, -20.0, p.PnlPercent, 1e-9)
}

func TestUpdateMarkUnknownInstrument(t *testing.T) {
	l := NewLedger()
	_, ok := l.UpdateMark("absent", 0.5)
	assert.False(t, ok)
}

func TestRemoveReturnsPosition(t *testing.T) {
	l := NewLedger()
	l.Upsert(Position{InstrumentID: "m1", Direction: market.OutcomeUp, SizeUSD: 100, EntryPrice: 0.5})
	p, ok := l.Remove("m1")
	require.True(t, ok)
	assert.Equal(t, "m1", p.InstrumentID)
	assert.Equal(t, 0, l.Len())

	_, ok = l.Remove("m1")
	assert.False(t, ok)
}

func TestAllReturnsSortedSnapshot(t *testing.T) {
	l := NewLedger()
	l.Upsert(Position{InstrumentID: "m2", Direction: market.OutcomeUp, SizeUSD: 100, EntryPrice: 0.5})
	l.Upsert(Position{InstrumentID: "m1", Direction: market.OutcomeUp, SizeUSD: 100, EntryPrice: 0.5})

	snap := l.All()
	require.Len(t, snap, 2)
	assert.Equal(t, "m1", snap[0].InstrumentID)
	assert.Equal(t, "m2", snap[1].InstrumentID)

	// Snapshot stays stable across later mutations.
	l.Remove("m1")
	assert.Len(t, snap, 2)
}
