package config

import (
	"fmt"

	"polyquant/internal/scheduler"
)

func validate(c *Config) error {
	if _, ok := scheduler.ParseIntervalDuration(c.Trading.Interval); !ok {
		return fmt.Errorf("trading.interval %q is not a valid interval", c.Trading.Interval)
	}
	if _, ok := scheduler.ParseIntervalDuration(c.Trading.BarInterval); !ok {
		return fmt.Errorf("trading.bar_interval %q is not a valid interval", c.Trading.BarInterval)
	}
	if c.Trading.MinBars > c.Trading.HistoryBars {
		return fmt.Errorf("trading.min_bars (%d) exceeds trading.history_bars (%d)", c.Trading.MinBars, c.Trading.HistoryBars)
	}
	if c.Signal.MinConfidence < 0 || c.Signal.MinConfidence > 1 {
		return fmt.Errorf("signal.min_confidence must stay within [0,1]")
	}
	if c.Signal.MinStrength < 0 || c.Signal.MinStrength > 1 {
		return fmt.Errorf("signal.min_strength must stay within [0,1]")
	}
	if c.Risk.MaxDailyLossUSD < 0 {
		return fmt.Errorf("risk.max_daily_loss_usd cannot be negative")
	}
	if c.Risk.MaxPositions < 0 {
		return fmt.Errorf("risk.max_positions cannot be negative")
	}
	if c.Sizer.MinSizeUSD > 0 && c.Sizer.MaxSizeUSD > 0 && c.Sizer.MinSizeUSD > c.Sizer.MaxSizeUSD {
		return fmt.Errorf("sizer.min_size_usd exceeds sizer.max_size_usd")
	}
	if len(c.Factor.MomentumPeriods) != len(c.Factor.MomentumWeights) {
		return fmt.Errorf("factor.momentum_periods and factor.momentum_weights must have equal length")
	}
	return nil
}
