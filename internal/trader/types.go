package trader

import (
	"context"
	"time"

	"polyquant/internal/market"
	"polyquant/internal/position"
	"polyquant/internal/risk"
	"polyquant/internal/signal"
)

// State labels the phase the loop is currently in.
type State string

const (
	StateIdle      State = "IDLE"
	StateFetching  State = "FETCHING"
	StateScoring   State = "SCORING"
	StateRiskCheck State = "RISK_CHECK"
	StateActing    State = "ACTING"
	StateSettling  State = "SETTLING"
	StateStopped   State = "STOPPED"
)

// OrderSide distinguishes entries from exits.
type OrderSide string

const (
	SideOpen  OrderSide = "OPEN"
	SideClose OrderSide = "CLOSE"
)

// OrderIntent is a fully specified instruction for the order sink.
type OrderIntent struct {
	InstrumentID string         `json:"instrument_id"`
	Direction    market.Outcome `json:"direction"`
	Side         OrderSide      `json:"side"`
	SizeUSD      float64        `json:"size_usd"`
	Price        float64        `json:"price"`
}

// OrderSink executes order intents. Submission is fire-and-forget from the
// loop's perspective: failures are reported back but never retried here.
type OrderSink interface {
	Submit(ctx context.Context, intent OrderIntent) (string, error)
}

// EventType tags a position lifecycle event.
type EventType string

const (
	EventOpened EventType = "opened"
	EventClosed EventType = "closed"
)

// Event is one position lifecycle record for the observability sinks.
type Event struct {
	Type     EventType         `json:"type"`
	Position position.Position `json:"position"`
	OrderID  string            `json:"order_id,omitempty"`
	Reason   string            `json:"reason,omitempty"`
	At       time.Time         `json:"at"`
}

// Observer receives emitted signals and lifecycle events for analysis and
// audit. Implementations must tolerate being called once per cycle step and
// should never block the loop for long.
type Observer interface {
	RecordSignal(ctx context.Context, sig signal.Signal)
	RecordEvent(ctx context.Context, evt Event)
}

// Snapshot is the read-only view the loop publishes after every cycle.
type Snapshot struct {
	State     State               `json:"state"`
	Risk      risk.State          `json:"risk"`
	Positions []position.Position `json:"positions"`
	CycleSeq  uint64              `json:"cycle_seq"`
	UpdatedAt time.Time           `json:"updated_at"`
}
