package kalshi_http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/google/uuid"

	"github.com/charleschow/kalshi-mm/internal/telemetry"
)

// MaxBatchOrders caps how many orders one BatchPlaceOrders call will submit.
const MaxBatchOrders = 10

// CreateOrderRequest is the payload for POST /trade-api/v2/portfolio/orders.
// TimeInForce and ExpirationTS are forwarded untouched.
type CreateOrderRequest struct {
	Ticker        string `json:"ticker"`
	Action        string `json:"action"` // "buy" or "sell"
	Side          string `json:"side"`   // "yes" or "no"
	Type          string `json:"type"`   // "limit" or "market"
	Count         int    `json:"count"`
	YesPrice      int    `json:"yes_price,omitempty"`
	NoPrice       int    `json:"no_price,omitempty"`
	ClientOrderID string `json:"client_order_id,omitempty"`
	TimeInForce   string `json:"time_in_force,omitempty"`
	ExpirationTS  *int64 `json:"expiration_ts,omitempty"` // unix seconds
}

// Validate checks the fields the exchange requires. A limit order needs a
// yes or no price in 1..99.
func (r CreateOrderRequest) Validate() error {
	if r.Ticker == "" {
		return fmt.Errorf("%w: ticker is required", ErrInvalidOrder)
	}
	if r.Action != ActionBuy && r.Action != ActionSell {
		return fmt.Errorf("%w: action %q must be buy or sell", ErrInvalidOrder, r.Action)
	}
	if r.Side != SideYes && r.Side != SideNo {
		return fmt.Errorf("%w: side %q must be yes or no", ErrInvalidOrder, r.Side)
	}
	if r.Count < 1 {
		return fmt.Errorf("%w: count must be >= 1, got %d", ErrInvalidOrder, r.Count)
	}
	for _, p := range []int{r.YesPrice, r.NoPrice} {
		if p != 0 && (p < 1 || p > 99) {
			return fmt.Errorf("%w: price %d outside 1..99", ErrInvalidOrder, p)
		}
	}
	if r.Type == OrderTypeLimit && r.YesPrice == 0 && r.NoPrice == 0 {
		return fmt.Errorf("%w: limit order needs yes_price or no_price", ErrInvalidOrder)
	}
	return nil
}

// CreateOrder places one order. Type defaults to limit and a random client
// order id is generated when the caller leaves it empty.
func (c *Client) CreateOrder(ctx context.Context, req CreateOrderRequest) (*Order, error) {
	if req.Type == "" {
		req.Type = OrderTypeLimit
	}
	if req.ClientOrderID == "" {
		req.ClientOrderID = uuid.NewString()
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	body, err := c.do(ctx, http.MethodPost, apiPrefix+"/portfolio/orders", nil, req)
	if err != nil {
		telemetry.Metrics.OrderErrors.Inc()
		return nil, fmt.Errorf("create order %s: %w", req.Ticker, err)
	}

	var resp orderResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("unmarshal order response: %w", err)
	}

	telemetry.Metrics.OrdersSent.Inc()
	telemetry.Infof("kalshi: order placed ticker=%s %s %s count=%d -> %s",
		req.Ticker, req.Action, req.Side, req.Count, resp.Order.OrderID)

	return &resp.Order, nil
}

// CancelOrder deletes a resting order by id.
func (c *Client) CancelOrder(ctx context.Context, orderID string) error {
	_, err := c.do(ctx, http.MethodDelete, apiPrefix+"/portfolio/orders/"+url.PathEscape(orderID), nil, nil)
	if err != nil {
		telemetry.Metrics.CancelErrors.Inc()
		return fmt.Errorf("cancel order %s: %w", orderID, err)
	}
	telemetry.Metrics.OrdersCancelled.Inc()
	return nil
}

// BatchError describes one failed item of a batch.
type BatchError struct {
	Index   int    `json:"index"`
	Ticker  string `json:"ticker"`
	Message string `json:"error"`
}

// BatchResult reports what happened to each requested order. Skipped holds
// the indexes beyond MaxBatchOrders that were never sent.
type BatchResult struct {
	Placed  []Order      `json:"placed"`
	Errors  []BatchError `json:"errors"`
	Skipped []int        `json:"skipped,omitempty"`
}

// BatchPlaceOrders submits up to MaxBatchOrders orders one at a time, each
// behind the rate limiter. Items succeed or fail independently; there is no
// rollback.
func (c *Client) BatchPlaceOrders(ctx context.Context, reqs []CreateOrderRequest) *BatchResult {
	res := &BatchResult{}

	for i, req := range reqs {
		if i >= MaxBatchOrders {
			res.Skipped = append(res.Skipped, i)
			continue
		}
		order, err := c.CreateOrder(ctx, req)
		if err != nil {
			res.Errors = append(res.Errors, BatchError{Index: i, Ticker: req.Ticker, Message: err.Error()})
			continue
		}
		res.Placed = append(res.Placed, *order)
	}

	if len(res.Skipped) > 0 {
		telemetry.Warnf("kalshi: batch capped at %d orders, skipped %d", MaxBatchOrders, len(res.Skipped))
	}
	return res
}
