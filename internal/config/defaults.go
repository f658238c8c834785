package config

import "time"

// applyDefaults fills the infrastructure settings. Component tunables
// (factor, signal, sizer, risk) default inside their own constructors, so
// a zero value there simply means "use the built-in".
func (c *Config) applyDefaults() {
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Trading.Interval == "" {
		c.Trading.Interval = "1m"
	}
	if c.Trading.CourtesyDelay <= 0 {
		c.Trading.CourtesyDelay = 500 * time.Millisecond
	}
	if c.Trading.BarInterval == "" {
		c.Trading.BarInterval = "15m"
	}
	if c.Trading.HistoryBars <= 0 {
		c.Trading.HistoryBars = 50
	}
	if c.Trading.MinBars <= 0 {
		c.Trading.MinBars = 10
	}
	if c.History.CacheTTL <= 0 {
		c.History.CacheTTL = time.Minute
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":9980"
	}
	if c.Storage.SignalLogPath == "" {
		c.Storage.SignalLogPath = "data/signals.db"
	}
	if c.Storage.EventsDBPath == "" {
		c.Storage.EventsDBPath = "data/events.db"
	}
}
