package ports

import (
	"context"
	"time"

	"github.com/alejandrodnm/polycopy/internal/domain"
)

// TradeFeed fetches recent trade events for a source wallet from the public
// trade history API. Results are most-recent-first and bounded by `since`;
// malformed records are dropped at the boundary.
type TradeFeed interface {
	FetchUserTrades(ctx context.Context, address string, since time.Time) ([]domain.CopySignal, error)
}
