package orders

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"polyquant/internal/trader"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Config points at the order execution endpoint.
type Config struct {
	BaseURL     string
	APIKey      string
	HTTPTimeout time.Duration
	DryRun      bool
}

func (c Config) withDefaults() Config {
	if c.HTTPTimeout <= 0 {
		c.HTTPTimeout = 15 * time.Second
	}
	return c
}

// Client posts order intents to a CLOB-style execution endpoint. Prices and
// notionals are serialized through decimal so no float formatting noise
// reaches the wire. It implements trader.OrderSink; submission is
// fire-and-forget and never retried here.
type Client struct {
	cfg  Config
	http *http.Client
}

func NewClient(cfg Config) *Client {
	final := cfg.withDefaults()
	return &Client{cfg: final, http: &http.Client{Timeout: final.HTTPTimeout}}
}

type orderRequest struct {
	ClientOrderID string `json:"client_order_id"`
	InstrumentID  string `json:"instrument_id"`
	Outcome       string `json:"outcome"`
	Side          string `json:"side"`
	SizeUSD       string `json:"size_usd"`
	Price         string `json:"price"`
}

// Submit sends the intent and returns the executed order id. In dry-run
// mode nothing leaves the process and the client order id is returned.
func (c *Client) Submit(ctx context.Context, intent trader.OrderIntent) (string, error) {
	clientID := uuid.NewString()
	if c.cfg.DryRun {
		return clientID, nil
	}
	if strings.TrimSpace(c.cfg.BaseURL) == "" {
		return "", fmt.Errorf("order endpoint not configured")
	}
	payload := orderRequest{
		ClientOrderID: clientID,
		InstrumentID:  intent.InstrumentID,
		Outcome:       string(intent.Direction),
		Side:          string(intent.Side),
		SizeUSD:       decimal.NewFromFloat(intent.SizeUSD).Round(2).String(),
		Price:         decimal.NewFromFloat(intent.Price).Round(3).String(),
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(c.cfg.BaseURL, "/")+"/orders", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("submitting order: %w", err)
	}
	defer resp.Body.Close()
	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode/100 != 2 {
		return "", fmt.Errorf("order rejected: status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}
	var parsed struct {
		OrderID string `json:"order_id"`
	}
	if err := json.Unmarshal(respBody, &parsed); err == nil && parsed.OrderID != "" {
		return parsed.OrderID, nil
	}
	return clientID, nil
}
