package polymarket

// venue.go — Venue adapter: order submission and authoritative positions.
//
// Signing and CLOB mechanics live in the external executor service; this
// adapter only POSTs the order intent and reads back the result. A response
// carrying an error field counts as a rejection even when the HTTP call
// itself succeeded.

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/alejandrodnm/polycopy/internal/ports"
)

type executorOrderRequest struct {
	Side    string  `json:"side"`
	TokenID string  `json:"tokenId"`
	Price   float64 `json:"price"`
	Size    float64 `json:"size"`
}

type executorOrderResponse struct {
	OrderID string `json:"orderId"`
	Error   string `json:"error"`
}

type rawPosition struct {
	Asset    string      `json:"asset"`
	Size     json.Number `json:"size"`
	AvgPrice json.Number `json:"avgPrice"`
	CurPrice json.Number `json:"curPrice"`
	Title    string      `json:"title"`
}

// SubmitOrder sends the order intent to the executor service. Transport
// failures come back as error; venue rejections in OrderResult.ErrMsg.
func (c *Client) SubmitOrder(ctx context.Context, side, tokenID string, price, size float64) (ports.OrderResult, error) {
	req := executorOrderRequest{
		Side:    side,
		TokenID: tokenID,
		Price:   price,
		Size:    size,
	}

	var resp executorOrderResponse
	url := c.executorBase + "/orders"
	if err := c.post(ctx, c.executorLimiter, url, req, &resp); err != nil {
		return ports.OrderResult{}, fmt.Errorf("executor.SubmitOrder: %w", err)
	}

	return ports.OrderResult{OrderID: resp.OrderID, ErrMsg: resp.Error}, nil
}

// Positions returns the venue's authoritative position list for an address,
// straight from the Data API.
func (c *Client) Positions(ctx context.Context, address string) ([]ports.VenuePosition, error) {
	url := fmt.Sprintf("%s/positions?user=%s", c.dataBase, address)

	var resp []rawPosition
	if err := c.get(ctx, c.dataLimiter, url, &resp); err != nil {
		return nil, fmt.Errorf("data-api.Positions: %w", err)
	}

	positions := make([]ports.VenuePosition, 0, len(resp))
	for _, rp := range resp {
		if rp.Asset == "" {
			continue
		}
		size, _ := rp.Size.Float64()
		avg, _ := rp.AvgPrice.Float64()
		cur, _ := rp.CurPrice.Float64()
		positions = append(positions, ports.VenuePosition{
			TokenID:  rp.Asset,
			Size:     size,
			AvgPrice: avg,
			CurPrice: cur,
			Title:    rp.Title,
		})
	}
	return positions, nil
}
