package trader

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"polyquant/internal/coins"
	"polyquant/internal/factor"
	"polyquant/internal/logger"
	"polyquant/internal/market"
	"polyquant/internal/position"
	"polyquant/internal/risk"
	"polyquant/internal/scheduler"
	"polyquant/internal/signal"
)

// Config tunes the cycle cadence and the history request.
type Config struct {
	Interval      time.Duration
	CourtesyDelay time.Duration
	BarInterval   string
	HistoryBars   int
	MinBars       int
}

func DefaultLoopConfig() Config {
	return Config{
		Interval:      time.Minute,
		CourtesyDelay: 500 * time.Millisecond,
		BarInterval:   "15m",
		HistoryBars:   50,
		MinBars:       10,
	}
}

// Deps wires the loop's collaborators. Sources are read-only and treated as
// transient; sinks are fire-and-forget.
type Deps struct {
	Quotes    market.QuoteSource
	History   market.HistorySource
	Reference market.ReferenceSource
	Symbols   *coins.Table
	Extractor *factor.Extractor
	Combiner  *signal.Combiner
	Sizer     *risk.Sizer
	Governor  *risk.Governor
	Orders    OrderSink
	Observer  Observer
}

// Loop owns the position ledger and the risk state for the process
// lifetime. One cycle runs fetch, score, risk check, act and settle
// sequentially per instrument; nothing else mutates the ledger or the risk
// state. Stop is honored at the next cycle boundary.
type Loop struct {
	cfg  Config
	deps Deps

	// governor is swappable at runtime by the config watcher; the loop
	// re-reads it at every cycle start.
	govMu    sync.Mutex
	governor *risk.Governor

	ledger    *position.Ledger
	riskState risk.State
	cycleSeq  uint64

	state    atomic.Value // State
	snapshot atomic.Value // Snapshot

	nowFn   func() time.Time
	sleepFn func(context.Context, time.Duration)
}

func NewLoop(cfg Config, deps Deps) *Loop {
	def := DefaultLoopConfig()
	if cfg.Interval <= 0 {
		cfg.Interval = def.Interval
	}
	if cfg.CourtesyDelay < 0 {
		cfg.CourtesyDelay = def.CourtesyDelay
	}
	if cfg.BarInterval == "" {
		cfg.BarInterval = def.BarInterval
	}
	if cfg.HistoryBars <= 0 {
		cfg.HistoryBars = def.HistoryBars
	}
	if cfg.MinBars <= 0 {
		cfg.MinBars = def.MinBars
	}
	l := &Loop{
		cfg:      cfg,
		deps:     deps,
		governor: deps.Governor,
		ledger:   position.NewLedger(),
		nowFn:    time.Now,
		sleepFn:  sleepCtx,
	}
	l.state.Store(StateIdle)
	l.snapshot.Store(Snapshot{State: StateIdle})
	return l
}

// Run blocks, executing cycles until the context is cancelled. The cycle in
// flight always completes before Run returns.
func (l *Loop) Run(ctx context.Context) {
	sched := scheduler.NewCycleScheduler(ctx, l.cfg.Interval)
	sched.Start(l.Cycle)
	l.setState(StateStopped)
	l.publish()
	logger.Infof("trading loop stopped after %d cycles", l.cycleSeq)
}

// SetRiskConfig swaps the admission limits; the change takes effect at the
// next cycle.
func (l *Loop) SetRiskConfig(cfg risk.Config) {
	l.govMu.Lock()
	l.governor = risk.NewGovernor(cfg)
	l.govMu.Unlock()
	logger.Infof("risk limits reloaded: max_daily_loss=%.0f max_positions=%d stop_loss=%.1f%%",
		cfg.MaxDailyLossUSD, cfg.MaxPositions, cfg.StopLossPercent)
}

// ResetDaily clears the realized daily pnl. Called by the owner at day
// boundaries, never by the loop itself.
func (l *Loop) ResetDaily() {
	l.riskState.CumulativeDailyPnlUSD = 0
	logger.Infof("daily pnl counter reset")
}

// CurrentSnapshot returns the view published at the end of the last cycle.
func (l *Loop) CurrentSnapshot() Snapshot {
	snap, _ := l.snapshot.Load().(Snapshot)
	return snap
}

// Cycle runs one full pass: entry evaluation for every active instrument,
// then mark refresh and exit evaluation for every open position.
func (l *Loop) Cycle(ctx context.Context) {
	gov := l.currentGovernor()
	l.cycleSeq++

	l.setState(StateFetching)
	instruments, err := l.deps.Quotes.Instruments(ctx)
	if err != nil {
		logger.Warnf("cycle %d: listing instruments failed: %v", l.cycleSeq, err)
		l.finishCycle()
		return
	}

	for i, inst := range instruments {
		if ctx.Err() != nil {
			break
		}
		if i > 0 {
			l.sleepFn(ctx, l.cfg.CourtesyDelay)
		}
		l.evaluateEntry(ctx, gov, inst)
	}

	l.setState(StateSettling)
	for i, pos := range l.ledger.All() {
		if i > 0 {
			l.sleepFn(ctx, l.cfg.CourtesyDelay)
		}
		l.settlePosition(ctx, gov, pos)
	}
	l.riskState.OpenPositionCount = l.ledger.Len()

	l.finishCycle()
}

func (l *Loop) evaluateEntry(ctx context.Context, gov *risk.Governor, inst market.Instrument) {
	if !inst.Active {
		return
	}
	symbol := inst.Symbol
	if symbol == "" {
		symbol = l.deps.Symbols.Resolve(inst.Question + " " + inst.Slug)
	}
	if symbol == "" {
		logger.Debugf("instrument %s: no symbol mapping, skipped", inst.ID)
		return
	}
	if inst.LiquidityUSD < l.deps.Sizer.MinLiquidityUSD() {
		logger.Debugf("instrument %s: liquidity %.0f below floor, skipped", inst.ID, inst.LiquidityUSD)
		return
	}

	quotes, err := l.deps.Quotes.Quotes(ctx, inst.ID)
	if err != nil {
		logger.Warnf("instrument %s: quotes unavailable, skipped: %v", inst.ID, err)
		return
	}
	candles, err := l.deps.History.Candles(ctx, symbol, l.cfg.BarInterval, l.cfg.HistoryBars)
	if err != nil {
		logger.Warnf("instrument %s: history unavailable, skipped: %v", inst.ID, err)
		return
	}
	if len(candles) < l.cfg.MinBars {
		logger.Debugf("instrument %s: only %d bars, skipped", inst.ID, len(candles))
		return
	}
	ref, err := l.deps.Reference.Price(ctx, symbol)
	if err != nil {
		// Reference absence degrades factor computation, never fails it.
		logger.Debugf("instrument %s: reference price unavailable: %v", inst.ID, err)
		ref = nil
	}

	l.setState(StateScoring)
	volume24h := quotes.Up.Volume24hUSD
	if volume24h <= 0 {
		volume24h = inst.Volume24hUSD
	}
	factors := l.deps.Extractor.Extract(factor.Inputs{
		Candles:          candles,
		Reference:        ref,
		QuoteProbability: quotes.Up.Probability,
		Volume24hUSD:     volume24h,
		MarketStart:      inst.StartTime,
		Now:              l.nowFn(),
	})
	sig := l.deps.Combiner.Combine(inst.ID, factors, quotes)
	if sig == nil {
		return
	}
	if sig.Confidence < l.deps.Combiner.MinConfidence() {
		logger.Debugf("instrument %s: confidence %.2f below minimum, rejected", inst.ID, sig.Confidence)
		return
	}
	chosen := quotes.ForOutcome(sig.Direction)
	sig.RecommendedSizeUSD = l.deps.Sizer.Size(sig.Confidence, sig.Strength, chosen.Probability, chosen.LiquidityUSD)
	if l.deps.Observer != nil {
		l.deps.Observer.RecordSignal(ctx, *sig)
	}

	l.setState(StateRiskCheck)
	verdict := gov.CanOpen(inst.ID, sig.RecommendedSizeUSD, func(id string) bool {
		_, open := l.ledger.Get(id)
		return open
	}, l.riskStateView())
	if !verdict.Allowed {
		logger.Infof("instrument %s: entry blocked: %s", inst.ID, verdict.Reason)
		return
	}
	sizeUSD := gov.Adjust(sig.RecommendedSizeUSD, l.riskStateView())

	l.setState(StateActing)
	intent := OrderIntent{
		InstrumentID: inst.ID,
		Direction:    sig.Direction,
		Side:         SideOpen,
		SizeUSD:      sizeUSD,
		Price:        chosen.Probability,
	}
	orderID, err := l.deps.Orders.Submit(ctx, intent)
	if err != nil {
		logger.Warnf("instrument %s: open order failed: %v", inst.ID, err)
		return
	}
	pos := position.Position{
		InstrumentID: inst.ID,
		Direction:    sig.Direction,
		SizeUSD:      sizeUSD,
		EntryPrice:   chosen.Probability,
		MarkPrice:    chosen.Probability,
		OpenedAt:     l.nowFn(),
	}
	l.ledger.Upsert(pos)
	l.riskState.OpenPositionCount = l.ledger.Len()
	logger.Infof("opened %s %s size=%.2f entry=%.3f order=%s", inst.ID, sig.Direction, sizeUSD, pos.EntryPrice, orderID)
	if l.deps.Observer != nil {
		l.deps.Observer.RecordEvent(ctx, Event{Type: EventOpened, Position: pos, OrderID: orderID, At: l.nowFn()})
	}
}

func (l *Loop) settlePosition(ctx context.Context, gov *risk.Governor, pos position.Position) {
	quotes, err := l.deps.Quotes.Quotes(ctx, pos.InstrumentID)
	if err != nil {
		logger.Warnf("position %s: mark refresh failed, kept for next cycle: %v", pos.InstrumentID, err)
		return
	}
	mark := quotes.ForOutcome(pos.Direction).Probability
	updated, ok := l.ledger.UpdateMark(pos.InstrumentID, mark)
	if !ok {
		return
	}
	shouldClose, reason := gov.ShouldClose(updated.PnlPercent, updated.PnlUSD, l.riskStateView())
	if !shouldClose {
		return
	}
	intent := OrderIntent{
		InstrumentID: updated.InstrumentID,
		Direction:    updated.Direction,
		Side:         SideClose,
		SizeUSD:      updated.SizeUSD,
		Price:        mark,
	}
	orderID, err := l.deps.Orders.Submit(ctx, intent)
	if err != nil {
		// The close intent stands regardless: the core does not retry, the
		// ledger and pnl accounting move on.
		logger.Warnf("position %s: close order failed: %v", updated.InstrumentID, err)
	}
	l.ledger.Remove(updated.InstrumentID)
	l.riskState.CumulativeDailyPnlUSD += updated.PnlUSD
	l.riskState.OpenPositionCount = l.ledger.Len()
	logger.Infof("closed %s %s pnl=%.2f (%s)", updated.InstrumentID, updated.Direction, updated.PnlUSD, reason)
	if l.deps.Observer != nil {
		l.deps.Observer.RecordEvent(ctx, Event{Type: EventClosed, Position: updated, OrderID: orderID, Reason: reason, At: l.nowFn()})
	}
}

func (l *Loop) currentGovernor() *risk.Governor {
	l.govMu.Lock()
	defer l.govMu.Unlock()
	return l.governor
}

func (l *Loop) riskStateView() risk.State {
	view := l.riskState
	view.OpenPositionCount = l.ledger.Len()
	return view
}

func (l *Loop) setState(s State) { l.state.Store(s) }

func (l *Loop) finishCycle() {
	l.setState(StateIdle)
	l.publish()
}

func (l *Loop) publish() {
	state, _ := l.state.Load().(State)
	l.snapshot.Store(Snapshot{
		State:     state,
		Risk:      l.riskStateView(),
		Positions: l.ledger.All(),
		CycleSeq:  l.cycleSeq,
		UpdatedAt: l.nowFn(),
	})
}

func sleepCtx(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
