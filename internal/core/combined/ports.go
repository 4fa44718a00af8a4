package combined

import (
	"context"

	"github.com/charleschow/kalshi-mm/internal/adapters/outbound/kalshi_http"
	"github.com/charleschow/kalshi-mm/internal/core/tracking"
)

// Exchange is satisfied by *kalshi_http.Client.
type Exchange interface {
	CreateOrder(ctx context.Context, req kalshi_http.CreateOrderRequest) (*kalshi_http.Order, error)
	CancelOrder(ctx context.Context, orderID string) error
	GetOrderbook(ctx context.Context, ticker string) (*kalshi_http.Orderbook, error)
}

type Alerter interface {
	Notify(ctx context.Context, reason string, details map[string]any)
}

type Journal interface {
	Track(a tracking.Action)
}

var _ Exchange = (*kalshi_http.Client)(nil)
