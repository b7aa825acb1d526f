package polymarket_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alejandrodnm/polycopy/internal/adapters/polymarket"
	"github.com/alejandrodnm/polycopy/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmitOrder_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/orders", r.URL.Path)

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "BUY", req["side"])
		assert.Equal(t, "token-yes-001", req["tokenId"])

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"orderId": "ord-123"})
	}))
	defer srv.Close()

	client := polymarket.NewClient("", srv.URL)
	result, err := client.SubmitOrder(context.Background(), domain.SideBuy, "token-yes-001", 0.55, 10)

	require.NoError(t, err)
	assert.Equal(t, "ord-123", result.OrderID)
	assert.False(t, result.Failed())
}

func TestSubmitOrder_VenueRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"error": "insufficient collateral"})
	}))
	defer srv.Close()

	client := polymarket.NewClient("", srv.URL)
	result, err := client.SubmitOrder(context.Background(), domain.SideBuy, "token-yes-001", 0.55, 10)

	// HTTP OK pero el executor rechazó: el error viaja en el resultado
	require.NoError(t, err)
	assert.True(t, result.Failed())
	assert.Equal(t, "insufficient collateral", result.ErrMsg)
}

func TestPositions_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/positions", r.URL.Path)
		assert.Equal(t, "0xour-account", r.URL.Query().Get("user"))
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode([]map[string]any{
			{"asset": "token-1", "size": 10.0, "avgPrice": 0.40, "curPrice": 0.55, "title": "Will X happen?"},
			{"asset": "", "size": 5.0}, // sin asset: se descarta
		})
	}))
	defer srv.Close()

	client := polymarket.NewClient(srv.URL, "")
	positions, err := client.Positions(context.Background(), "0xour-account")

	require.NoError(t, err)
	require.Len(t, positions, 1)
	assert.Equal(t, "token-1", positions[0].TokenID)
	assert.InDelta(t, 10.0, positions[0].Size, 0.001)
	assert.InDelta(t, 0.40, positions[0].AvgPrice, 0.0001)
	assert.InDelta(t, 0.55, positions[0].CurPrice, 0.0001)
}
