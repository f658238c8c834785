package statushttp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"polyquant/internal/market"
	"polyquant/internal/position"
	"polyquant/internal/risk"
	"polyquant/internal/signal"
	"polyquant/internal/store/signallog"
	"polyquant/internal/trader"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedSnapshot struct {
	snap trader.Snapshot
}

func (f fixedSnapshot) CurrentSnapshot() trader.Snapshot { return f.snap }

func testSnapshot() trader.Snapshot {
	return trader.Snapshot{
		State: trader.StateIdle,
		Risk: risk.State{
			CumulativeDailyPnlUSD: -12.5,
			OpenPositionCount:     1,
		},
		Positions: []position.Position{{
			InstrumentID: "m1",
			Direction:    market.OutcomeUp,
			SizeUSD:      50,
			EntryPrice:   0.45,
			MarkPrice:    0.48,
		}},
		CycleSeq:  7,
		UpdatedAt: time.Date(2025, 6, 1, 15, 0, 0, 0, time.UTC),
	}
}

func doGet(t *testing.T, handler http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	srv, err := NewServer(ServerConfig{Loop: fixedSnapshot{testSnapshot()}})
	require.NoError(t, err)

	rec := doGet(t, srv.Router(), "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestPositionsEndpoint(t *testing.T) {
	srv, err := NewServer(ServerConfig{Loop: fixedSnapshot{testSnapshot()}})
	require.NoError(t, err)

	rec := doGet(t, srv.Router(), "/api/positions")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		State     string              `json:"state"`
		CycleSeq  uint64              `json:"cycle_seq"`
		Positions []position.Position `json:"positions"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "IDLE", body.State)
	assert.Equal(t, uint64(7), body.CycleSeq)
	require.Len(t, body.Positions, 1)
	assert.Equal(t, "m1", body.Positions[0].InstrumentID)
}

func TestRiskEndpoint(t *testing.T) {
	srv, err := NewServer(ServerConfig{Loop: fixedSnapshot{testSnapshot()}})
	require.NoError(t, err)

	rec := doGet(t, srv.Router(), "/api/risk")
	require.Equal(t, http.StatusOK, rec.Code)

	var state risk.State
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &state))
	assert.InDelta(t, -12.5, state.CumulativeDailyPnlUSD, 1e-9)
	assert.Equal(t, 1, state.OpenPositionCount)
}

func TestSignalsEndpoint(t *testing.T) {
	signals, err := signallog.New(filepath.Join(t.TempDir(), "signals.db"))
	require.NoError(t, err)
	t.Cleanup(func() { signals.Close() })
	require.NoError(t, signals.Append(context.Background(), signal.Signal{
		InstrumentID: "m1",
		Direction:    market.OutcomeUp,
		Confidence:   0.46,
		Strength:     0.4,
	}))

	srv, err := NewServer(ServerConfig{Loop: fixedSnapshot{testSnapshot()}, Signals: signals})
	require.NoError(t, err)

	rec := doGet(t, srv.Router(), "/api/signals?instrument=m1")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Signals []signallog.Record `json:"signals"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Signals, 1)
	assert.Equal(t, "m1", body.Signals[0].InstrumentID)
	assert.InDelta(t, 0.46, body.Signals[0].Confidence, 1e-9)
}

func TestSignalsEndpointAbsentWhenStoreMissing(t *testing.T) {
	srv, err := NewServer(ServerConfig{Loop: fixedSnapshot{testSnapshot()}})
	require.NoError(t, err)

	rec := doGet(t, srv.Router(), "/api/signals")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestNewServerRequiresLoop(t *testing.T) {
	_, err := NewServer(ServerConfig{})
	assert.Error(t, err)
}
