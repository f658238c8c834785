package signallog

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"polyquant/internal/market"
	"polyquant/internal/signal"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(filepath.Join(t.TempDir(), "signals.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func testSignal(instrumentID string, confidence float64) signal.Signal {
	return signal.Signal{
		InstrumentID:       instrumentID,
		Direction:          market.OutcomeUp,
		Probability:        0.55,
		Confidence:         confidence,
		Strength:           0.4,
		RecommendedSizeUSD: 75,
		Reasons:            []string{"momentum +0.2000 (boost 1.0)"},
	}
}

func TestAppendAndListRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, testSignal("m1", 0.46)))

	records, err := store.ListRecent(ctx, Query{})
	require.NoError(t, err)
	require.Len(t, records, 1)

	rec := records[0]
	assert.Equal(t, "m1", rec.InstrumentID)
	assert.Equal(t, "UP", rec.Direction)
	assert.InDelta(t, 0.55, rec.Probability, 1e-9)
	assert.InDelta(t, 0.46, rec.Confidence, 1e-9)
	assert.InDelta(t, 75.0, rec.SizeUSD, 1e-9)
	assert.Equal(t, []string{"momentum +0.2000 (boost 1.0)"}, rec.Reasons)
	assert.NotZero(t, rec.Timestamp)
}

func TestListRecentNewestFirstAndFiltered(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		id := "m1"
		if i%2 == 1 {
			id = "m2"
		}
		require.NoError(t, store.Append(ctx, testSignal(id, float64(i)/10)))
	}

	all, err := store.ListRecent(ctx, Query{})
	require.NoError(t, err)
	require.Len(t, all, 5)
	for i := 1; i < len(all); i++ {
		assert.Greater(t, all[i-1].ID, all[i].ID, "rows must be newest first")
	}

	m2, err := store.ListRecent(ctx, Query{InstrumentID: "m2"})
	require.NoError(t, err)
	require.Len(t, m2, 2)
	for _, rec := range m2 {
		assert.Equal(t, "m2", rec.InstrumentID)
	}
}

func TestListRecentHonorsLimit(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		require.NoError(t, store.Append(ctx, testSignal(fmt.Sprintf("m%d", i), 0.5)))
	}

	records, err := store.ListRecent(ctx, Query{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestClosedStoreRejectsOperations(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Close())

	assert.Error(t, store.Append(context.Background(), testSignal("m1", 0.5)))
	_, err := store.ListRecent(context.Background(), Query{})
	assert.Error(t, err)
	assert.NoError(t, store.Close())
}

func TestNewRejectsEmptyPath(t *testing.T) {
	_, err := New("  ")
	assert.Error(t, err)
}
