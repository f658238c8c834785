package app

import (
	"context"
	"fmt"
	"time"

	"polyquant/internal/coins"
	"polyquant/internal/config"
	"polyquant/internal/factor"
	"polyquant/internal/gateway/binance"
	"polyquant/internal/gateway/orders"
	"polyquant/internal/gateway/polymarket"
	"polyquant/internal/logger"
	"polyquant/internal/market"
	"polyquant/internal/notifier"
	"polyquant/internal/risk"
	"polyquant/internal/scheduler"
	"polyquant/internal/signal"
	"polyquant/internal/store/signallog"
	"polyquant/internal/store/sqlite"
	"polyquant/internal/trader"
	statushttp "polyquant/internal/transport/http"

	"golang.org/x/sync/errgroup"
)

// App owns the assembled process: the trading loop, the status API and the
// storage handles that need closing on shutdown.
type App struct {
	cfg    *config.Config
	loop   *trader.Loop
	server *statushttp.Server

	signals *signallog.Store
	events  *sqlite.Store
}

// New wires every component from configuration. Construction fails fast;
// runtime data problems are handled per cycle instead.
func New(cfg *config.Config) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	interval, ok := scheduler.ParseIntervalDuration(cfg.Trading.Interval)
	if !ok {
		return nil, fmt.Errorf("invalid trading interval %q", cfg.Trading.Interval)
	}

	table := coins.DefaultTable()
	if cfg.Symbols.TablePath != "" {
		loaded, err := coins.LoadTable(cfg.Symbols.TablePath)
		if err != nil {
			return nil, err
		}
		table = loaded
	}

	quotes := polymarket.NewClient(polymarket.Config{
		BaseURL:     cfg.Markets.BaseURL,
		HTTPTimeout: cfg.Markets.Timeout,
		ListLimit:   cfg.Markets.ListLimit,
	})
	history := market.NewCachedHistory(
		binance.New(binance.Config{BaseURL: cfg.History.BaseURL, HTTPTimeout: cfg.History.Timeout}),
		market.NewCandleCache(cfg.History.CacheTTL),
	)
	reference := binance.New(binance.Config{BaseURL: cfg.History.BaseURL, HTTPTimeout: cfg.History.Timeout})

	signals, err := signallog.New(cfg.Storage.SignalLogPath)
	if err != nil {
		return nil, fmt.Errorf("opening signal log: %w", err)
	}
	events, err := sqlite.New(cfg.Storage.EventsDBPath)
	if err != nil {
		signals.Close()
		return nil, fmt.Errorf("opening event store: %w", err)
	}

	barCfg := cfg.Factor
	if barCfg.BarInterval <= 0 {
		if d, ok := scheduler.ParseIntervalDuration(cfg.Trading.BarInterval); ok {
			barCfg.BarInterval = d
		}
	}

	loop := trader.NewLoop(trader.Config{
		Interval:      interval,
		CourtesyDelay: cfg.Trading.CourtesyDelay,
		BarInterval:   cfg.Trading.BarInterval,
		HistoryBars:   cfg.Trading.HistoryBars,
		MinBars:       cfg.Trading.MinBars,
	}, trader.Deps{
		Quotes:    quotes,
		History:   history,
		Reference: reference,
		Symbols:   table,
		Extractor: factor.NewExtractor(barCfg),
		Combiner:  signal.NewCombiner(cfg.Signal),
		Sizer:     risk.NewSizer(cfg.Sizer),
		Governor:  risk.NewGovernor(cfg.Risk),
		Orders: orders.NewClient(orders.Config{
			BaseURL:     cfg.Orders.BaseURL,
			APIKey:      cfg.Orders.APIKey,
			HTTPTimeout: cfg.Orders.Timeout,
			DryRun:      cfg.Orders.DryRun,
		}),
		Observer: &multiObserver{
			signals:  signals,
			events:   events,
			telegram: notifier.NewTelegram(cfg.Telegram.BotToken, cfg.Telegram.ChatID),
		},
	})

	app := &App{cfg: cfg, loop: loop, signals: signals, events: events}
	if cfg.Server.Enabled {
		server, err := statushttp.NewServer(statushttp.ServerConfig{
			Addr:    cfg.Server.Addr,
			Loop:    loop,
			Signals: signals,
			Events:  events,
		})
		if err != nil {
			app.Close()
			return nil, err
		}
		app.server = server
	}
	return app, nil
}

// Loop exposes the trading loop, e.g. for the risk config watcher.
func (a *App) Loop() *trader.Loop { return a.loop }

// Run blocks until the context is cancelled and every part has drained.
func (a *App) Run(ctx context.Context) error {
	defer a.Close()

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		a.loop.Run(groupCtx)
		return nil
	})
	if a.server != nil {
		group.Go(func() error {
			return a.server.Run(groupCtx)
		})
	}
	group.Go(func() error {
		return a.runDailyReset(groupCtx)
	})
	return group.Wait()
}

// runDailyReset clears the daily pnl counter at every UTC midnight. The
// reset lives outside the loop's cycle logic on purpose.
func (a *App) runDailyReset(ctx context.Context) error {
	for {
		now := time.Now().UTC()
		next := now.Truncate(24 * time.Hour).Add(24 * time.Hour)
		timer := time.NewTimer(next.Sub(now))
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
			a.loop.ResetDaily()
		}
	}
}

// Close releases the storage handles. Safe to call more than once.
func (a *App) Close() {
	if a.signals != nil {
		if err := a.signals.Close(); err != nil {
			logger.Warnf("closing signal log: %v", err)
		}
		a.signals = nil
	}
	if a.events != nil {
		if err := a.events.Close(); err != nil {
			logger.Warnf("closing event store: %v", err)
		}
		a.events = nil
	}
}
