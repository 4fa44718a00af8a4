package marketmaking

import (
	"context"

	"github.com/charleschow/kalshi-mm/internal/adapters/outbound/kalshi_http"
	"github.com/charleschow/kalshi-mm/internal/adapters/outbound/webhook"
	"github.com/charleschow/kalshi-mm/internal/core/tracking"
)

// Exchange is the slice of the exchange API the market maker needs.
// Satisfied by *kalshi_http.Client.
type Exchange interface {
	CreateOrder(ctx context.Context, req kalshi_http.CreateOrderRequest) (*kalshi_http.Order, error)
	GetOrders(ctx context.Context, opts kalshi_http.GetOrdersOptions) (*kalshi_http.OrdersResponse, error)
	GetOrderbook(ctx context.Context, ticker string) (*kalshi_http.Orderbook, error)
}

// Alerter receives operational alerts. Satisfied by *webhook.Notifier.
type Alerter interface {
	Notify(ctx context.Context, reason string, details map[string]any)
}

// Journal records engine actions. Satisfied by *tracking.Tracker.
type Journal interface {
	Track(a tracking.Action)
}

var (
	_ Exchange = (*kalshi_http.Client)(nil)
	_ Alerter  = (*webhook.Notifier)(nil)
	_ Journal  = (*tracking.Tracker)(nil)
)
