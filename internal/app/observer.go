package app

import (
	"context"
	"fmt"

	"polyquant/internal/logger"
	"polyquant/internal/notifier"
	"polyquant/internal/signal"
	"polyquant/internal/store/signallog"
	"polyquant/internal/store/sqlite"
	"polyquant/internal/trader"
)

// multiObserver fans signals and lifecycle events out to the analysis log,
// the event store and the notifier. Sink failures are logged and swallowed:
// observability must never stall the trading loop.
type multiObserver struct {
	signals  *signallog.Store
	events   *sqlite.Store
	telegram *notifier.Telegram
}

func (o *multiObserver) RecordSignal(ctx context.Context, sig signal.Signal) {
	if o.signals == nil {
		return
	}
	if err := o.signals.Append(ctx, sig); err != nil {
		logger.Warnf("signal log append failed: %v", err)
	}
}

func (o *multiObserver) RecordEvent(ctx context.Context, evt trader.Event) {
	if o.events != nil {
		if err := o.events.AppendEvent(ctx, evt); err != nil {
			logger.Warnf("event store append failed: %v", err)
		}
	}
	if o.telegram.Enabled() {
		go func(text string) {
			if err := o.telegram.SendText(text); err != nil {
				logger.Warnf("telegram push failed: %v", err)
			}
		}(formatEvent(evt))
	}
}

func formatEvent(evt trader.Event) string {
	pos := evt.Position
	switch evt.Type {
	case trader.EventOpened:
		return fmt.Sprintf("*OPEN* `%s` %s size=$%.2f entry=%.3f", pos.InstrumentID, pos.Direction, pos.SizeUSD, pos.EntryPrice)
	case trader.EventClosed:
		return fmt.Sprintf("*CLOSE* `%s` %s pnl=$%.2f (%.1f%%) reason: %s", pos.InstrumentID, pos.Direction, pos.PnlUSD, pos.PnlPercent, evt.Reason)
	default:
		return fmt.Sprintf("`%s` event %s", pos.InstrumentID, evt.Type)
	}
}
