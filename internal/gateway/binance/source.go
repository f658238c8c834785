package binance

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"polyquant/internal/market"

	gobinance "github.com/adshao/go-binance/v2"
)

const maxHistoryLimit = 1000

// Config tunes the REST client.
type Config struct {
	BaseURL     string
	HTTPTimeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.HTTPTimeout <= 0 {
		c.HTTPTimeout = 10 * time.Second
	}
	return c
}

// Source serves candle history and reference prices from Binance spot via
// the go-binance SDK. It implements market.HistorySource and
// market.ReferenceSource.
type Source struct {
	cfg    Config
	client *gobinance.Client
}

func New(cfg Config) *Source {
	final := cfg.withDefaults()
	client := gobinance.NewClient("", "")
	if base := strings.TrimSpace(final.BaseURL); base != "" {
		client.BaseURL = base
	}
	client.HTTPClient = &http.Client{Timeout: final.HTTPTimeout}
	return &Source{cfg: final, client: client}
}

// Candles fetches up to limit klines for symbol+interval, ascending. Binance
// may return fewer than asked; the caller decides whether that suffices.
func (s *Source) Candles(ctx context.Context, symbol, interval string, limit int) ([]market.Candle, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, fmt.Errorf("symbol is required")
	}
	interval = strings.ToLower(strings.TrimSpace(interval))
	if interval == "" {
		return nil, fmt.Errorf("interval is required")
	}
	if limit <= 0 {
		limit = 100
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	kls, err := s.client.NewKlinesService().Symbol(symbol).Interval(interval).Limit(limit).Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("binance klines %s %s: %w", symbol, interval, err)
	}
	out := make([]market.Candle, 0, len(kls))
	for _, kl := range kls {
		if kl == nil {
			continue
		}
		out = append(out, market.Candle{
			OpenTime:  kl.OpenTime,
			CloseTime: kl.CloseTime,
			Open:      parseFloat(kl.Open),
			High:      parseFloat(kl.High),
			Low:       parseFloat(kl.Low),
			Close:     parseFloat(kl.Close),
			Volume:    parseFloat(kl.Volume),
		})
	}
	return out, nil
}

// Price fetches the current spot price for symbol. A missing listing maps
// to (nil, nil) so downstream factors degrade instead of failing.
func (s *Source) Price(ctx context.Context, symbol string) (*market.ReferencePrice, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, fmt.Errorf("symbol is required")
	}
	prices, err := s.client.NewListPricesService().Symbol(symbol).Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("binance price %s: %w", symbol, err)
	}
	for _, p := range prices {
		if p == nil || !strings.EqualFold(p.Symbol, symbol) {
			continue
		}
		val := parseFloat(p.Price)
		if val <= 0 {
			continue
		}
		return &market.ReferencePrice{
			Symbol:     symbol,
			Price:      val,
			ObservedAt: time.Now().UTC(),
			Source:     "binance",
		}, nil
	}
	return nil, nil
}

func parseFloat(raw string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0
	}
	return v
}
