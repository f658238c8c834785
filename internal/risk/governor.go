package risk

// Config carries the admission limits and exit triggers.
type Config struct {
	MaxDailyLossUSD    float64 `toml:"max_daily_loss_usd"`
	MaxPositions       int     `toml:"max_positions"`
	MaxPositionSizeUSD float64 `toml:"max_position_size_usd"`
	StopLossPercent    float64 `toml:"stop_loss_percent"`
}

func DefaultConfig() Config {
	return Config{
		MaxDailyLossUSD:    500,
		MaxPositions:       5,
		MaxPositionSizeUSD: 500,
		StopLossPercent:    15,
	}
}

// State is the mutable risk accounting owned by the trading loop.
// CumulativeDailyPnlUSD only moves on realized exits and is reset at day
// boundaries by the owner, never here.
type State struct {
	CumulativeDailyPnlUSD float64 `json:"cumulative_daily_pnl_usd"`
	OpenPositionCount     int     `json:"open_position_count"`
}

// Verdict reports an admission decision with the first failing condition,
// for observability. Allowed verdicts carry an empty reason.
type Verdict struct {
	Allowed bool
	Reason  string
}

func allow() Verdict        { return Verdict{Allowed: true} }
func deny(r string) Verdict { return Verdict{Allowed: false, Reason: r} }

// Governor performs pre-trade admission control and post-trade exit checks.
// It only reads positions and state; decisions are returned, never applied.
type Governor struct {
	cfg Config
}

func NewGovernor(cfg Config) *Governor {
	def := DefaultConfig()
	if cfg.MaxDailyLossUSD <= 0 {
		cfg.MaxDailyLossUSD = def.MaxDailyLossUSD
	}
	if cfg.MaxPositions <= 0 {
		cfg.MaxPositions = def.MaxPositions
	}
	if cfg.MaxPositionSizeUSD <= 0 {
		cfg.MaxPositionSizeUSD = def.MaxPositionSizeUSD
	}
	if cfg.StopLossPercent <= 0 {
		cfg.StopLossPercent = def.StopLossPercent
	}
	return &Governor{cfg: cfg}
}

// Config returns the effective limits.
func (g *Governor) Config() Config { return g.cfg }

// CanOpen admits an entry only while the daily loss cap is intact, a
// position slot is free, the instrument has no open position yet, and the
// recommended size is not degenerate.
func (g *Governor) CanOpen(instrumentID string, recommendedSizeUSD float64, hasOpen func(string) bool, state State) Verdict {
	if state.CumulativeDailyPnlUSD <= -g.cfg.MaxDailyLossUSD {
		return deny("daily loss cap reached")
	}
	if state.OpenPositionCount >= g.cfg.MaxPositions {
		return deny("max open positions reached")
	}
	if hasOpen != nil && hasOpen(instrumentID) {
		return deny("position already open for instrument")
	}
	if recommendedSizeUSD < 1 {
		return deny("recommended size below $1")
	}
	return allow()
}

// Adjust derates the proposed size against the remaining loss capacity and
// the slot utilization, then floors it at $1.
func (g *Governor) Adjust(sizeUSD float64, state State) float64 {
	if sizeUSD > g.cfg.MaxPositionSizeUSD {
		sizeUSD = g.cfg.MaxPositionSizeUSD
	}
	remaining := g.cfg.MaxDailyLossUSD + state.CumulativeDailyPnlUSD
	if remaining < g.cfg.MaxDailyLossUSD/2 {
		sizeUSD /= 2
	}
	if float64(state.OpenPositionCount) >= 0.8*float64(g.cfg.MaxPositions) {
		sizeUSD *= 0.7
	}
	if sizeUSD < 1 {
		sizeUSD = 1
	}
	return sizeUSD
}

// ShouldClose triggers on a stop-loss breach or when realizing the
// position's pnl would break the daily loss cap.
func (g *Governor) ShouldClose(pnlPercent, pnlUSD float64, state State) (bool, string) {
	if pnlPercent <= -g.cfg.StopLossPercent {
		return true, "stop loss"
	}
	if state.CumulativeDailyPnlUSD+pnlUSD <= -g.cfg.MaxDailyLossUSD {
		return true, "projected daily loss breach"
	}
	return false, ""
}
