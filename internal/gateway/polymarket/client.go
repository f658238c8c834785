package polymarket

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"polyquant/internal/market"

	"github.com/tidwall/gjson"
)

const defaultBaseURL = "https://gamma-api.polymarket.com"

// Config tunes the gamma REST client.
type Config struct {
	BaseURL     string
	HTTPTimeout time.Duration
	ListLimit   int
}

func (c Config) withDefaults() Config {
	if strings.TrimSpace(c.BaseURL) == "" {
		c.BaseURL = defaultBaseURL
	}
	if c.HTTPTimeout <= 0 {
		c.HTTPTimeout = 10 * time.Second
	}
	if c.ListLimit <= 0 {
		c.ListLimit = 50
	}
	return c
}

// Client reads binary UP/DOWN markets from a gamma-style REST API. It
// implements market.QuoteSource. Gamma responses carry numbers and nested
// arrays as JSON-encoded strings, so fields are probed with gjson instead
// of rigid structs.
type Client struct {
	cfg  Config
	http *http.Client
}

func NewClient(cfg Config) *Client {
	final := cfg.withDefaults()
	return &Client{cfg: final, http: &http.Client{Timeout: final.HTTPTimeout}}
}

// Instruments lists currently active binary markets.
func (c *Client) Instruments(ctx context.Context) ([]market.Instrument, error) {
	query := url.Values{}
	query.Set("active", "true")
	query.Set("closed", "false")
	query.Set("limit", strconv.Itoa(c.cfg.ListLimit))
	raw, err := c.get(ctx, "/markets?"+query.Encode())
	if err != nil {
		return nil, err
	}
	var out []market.Instrument
	for _, item := range gjson.ParseBytes(raw).Array() {
		inst, ok := parseInstrument(item)
		if !ok {
			continue
		}
		out = append(out, inst)
	}
	return out, nil
}

// Quotes fetches the market and derives exactly one quote per outcome.
func (c *Client) Quotes(ctx context.Context, instrumentID string) (market.QuotePair, error) {
	instrumentID = strings.TrimSpace(instrumentID)
	if instrumentID == "" {
		return market.QuotePair{}, fmt.Errorf("instrument id is required")
	}
	raw, err := c.get(ctx, "/markets/"+url.PathEscape(instrumentID))
	if err != nil {
		return market.QuotePair{}, err
	}
	doc := gjson.ParseBytes(raw)
	upProb, ok := outcomePrice(doc, "up")
	if !ok {
		return market.QuotePair{}, fmt.Errorf("market %s: no UP outcome price", instrumentID)
	}
	downProb, ok := outcomePrice(doc, "down")
	if !ok {
		downProb = 1 - upProb
	}
	liquidity := looseFloat(doc.Get("liquidity"))
	volume := looseFloat(doc.Get("volume24hr"))
	return market.QuotePair{
		Up: market.Quote{
			InstrumentID: instrumentID,
			Outcome:      market.OutcomeUp,
			Probability:  upProb,
			LiquidityUSD: liquidity,
			Volume24hUSD: volume,
		},
		Down: market.Quote{
			InstrumentID: instrumentID,
			Outcome:      market.OutcomeDown,
			Probability:  downProb,
			LiquidityUSD: liquidity,
			Volume24hUSD: volume,
		},
	}, nil
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(c.cfg.BaseURL, "/")+path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gamma request %s: %w", path, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("gamma response %s: %w", path, err)
	}
	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("gamma status %d for %s", resp.StatusCode, path)
	}
	return body, nil
}

func parseInstrument(item gjson.Result) (market.Instrument, bool) {
	id := strings.TrimSpace(item.Get("id").String())
	if id == "" {
		return market.Instrument{}, false
	}
	if _, ok := outcomePrice(item, "up"); !ok {
		// Not a binary UP/DOWN market.
		return market.Instrument{}, false
	}
	inst := market.Instrument{
		ID:           id,
		Question:     item.Get("question").String(),
		Slug:         item.Get("slug").String(),
		LiquidityUSD: looseFloat(item.Get("liquidity")),
		Volume24hUSD: looseFloat(item.Get("volume24hr")),
		Active:       item.Get("active").Bool(),
	}
	for _, key := range []string{"eventStartTime", "startDate"} {
		if ts, err := time.Parse(time.RFC3339, item.Get(key).String()); err == nil {
			start := ts
			inst.StartTime = &start
			break
		}
	}
	return inst, true
}

// outcomePrice pairs the outcomes array with outcomePrices by index. Both
// may arrive as real arrays or as JSON-encoded string arrays.
func outcomePrice(doc gjson.Result, label string) (float64, bool) {
	outcomes := looseArray(doc.Get("outcomes"))
	prices := looseArray(doc.Get("outcomePrices"))
	if len(outcomes) == 0 || len(outcomes) != len(prices) {
		return 0, false
	}
	for i, name := range outcomes {
		if !strings.EqualFold(strings.TrimSpace(name.String()), label) {
			continue
		}
		p := looseFloat(prices[i])
		if p < 0 || p > 1 {
			return 0, false
		}
		return p, true
	}
	return 0, false
}

func looseArray(res gjson.Result) []gjson.Result {
	if res.IsArray() {
		return res.Array()
	}
	if res.Type == gjson.String {
		inner := gjson.Parse(res.String())
		if inner.IsArray() {
			return inner.Array()
		}
	}
	return nil
}

func looseFloat(res gjson.Result) float64 {
	switch res.Type {
	case gjson.Number:
		return res.Float()
	case gjson.String:
		v, err := strconv.ParseFloat(strings.TrimSpace(res.String()), 64)
		if err != nil {
			return 0
		}
		return v
	default:
		return 0
	}
}
