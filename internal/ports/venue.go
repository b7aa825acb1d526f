package ports

import "context"

// OrderResult is the venue's answer to an order submission. A non-empty
// ErrMsg means the order was rejected even if the HTTP call itself succeeded.
type OrderResult struct {
	OrderID string
	ErrMsg  string
}

// Failed reports whether the venue rejected the order.
func (r OrderResult) Failed() bool {
	return r.ErrMsg != ""
}

// VenuePosition is one authoritative position as reported by the venue.
type VenuePosition struct {
	TokenID  string
	Size     float64
	AvgPrice float64
	CurPrice float64
	Title    string
}

// Venue wraps order creation/submission and authoritative position queries
// against the trading venue. Signing and matching live behind the executor
// service; this interface only sees the result.
type Venue interface {
	// SubmitOrder creates, signs and submits a market order for the given
	// token. The returned error covers transport failures only; venue-side
	// rejections come back in OrderResult.ErrMsg.
	SubmitOrder(ctx context.Context, side, tokenID string, price, size float64) (OrderResult, error)

	// Positions returns the venue's authoritative position list for an address.
	Positions(ctx context.Context, address string) ([]VenuePosition, error)
}
