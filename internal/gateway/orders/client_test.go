package orders

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"polyquant/internal/market"
	"polyquant/internal/trader"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testIntent() trader.OrderIntent {
	return trader.OrderIntent{
		InstrumentID: "m1",
		Direction:    market.OutcomeUp,
		Side:         trader.SideOpen,
		SizeUSD:      50.456,
		Price:        0.45678,
	}
}

func TestSubmitPostsDecimalRoundedPayload(t *testing.T) {
	var got orderRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/orders", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"order_id": "srv-42"}`))
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL, APIKey: "test-key"})
	orderID, err := client.Submit(context.Background(), testIntent())
	require.NoError(t, err)
	assert.Equal(t, "srv-42", orderID)

	assert.Equal(t, "m1", got.InstrumentID)
	assert.Equal(t, "UP", got.Outcome)
	assert.Equal(t, "OPEN", got.Side)
	assert.Equal(t, "50.46", got.SizeUSD)
	assert.Equal(t, "0.457", got.Price)
	_, err = uuid.Parse(got.ClientOrderID)
	assert.NoError(t, err)
}

func TestSubmitFallsBackToClientOrderID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL})
	orderID, err := client.Submit(context.Background(), testIntent())
	require.NoError(t, err)
	_, err = uuid.Parse(orderID)
	assert.NoError(t, err)
}

func TestSubmitDryRunNeverTouchesNetwork(t *testing.T) {
	client := NewClient(Config{DryRun: true})
	orderID, err := client.Submit(context.Background(), testIntent())
	require.NoError(t, err)
	_, err = uuid.Parse(orderID)
	assert.NoError(t, err)
}

func TestSubmitRejectedOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":"insufficient balance"}`, http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL})
	_, err := client.Submit(context.Background(), testIntent())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "422")
}

func TestSubmitWithoutEndpoint(t *testing.T) {
	client := NewClient(Config{})
	_, err := client.Submit(context.Background(), testIntent())
	assert.Error(t, err)
}
