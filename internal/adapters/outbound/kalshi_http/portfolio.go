package kalshi_http

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

// PageOptions are the shared cursor-pagination filters for portfolio reads.
type PageOptions struct {
	Limit       int
	Cursor      string
	Ticker      string
	EventTicker string
}

func (o PageOptions) query() url.Values {
	q := url.Values{}
	if o.Limit > 0 {
		q.Set("limit", strconv.Itoa(o.Limit))
	}
	if o.Cursor != "" {
		q.Set("cursor", o.Cursor)
	}
	if o.Ticker != "" {
		q.Set("ticker", o.Ticker)
	}
	if o.EventTicker != "" {
		q.Set("event_ticker", o.EventTicker)
	}
	return q
}

// GetOrdersOptions filters GET /portfolio/orders. Status is one of resting,
// canceled, executed.
type GetOrdersOptions struct {
	PageOptions
	Status string
}

// GetBalance returns the available balance in cents.
func (c *Client) GetBalance(ctx context.Context) (int, error) {
	var resp BalanceResponse
	if err := c.getJSON(ctx, apiPrefix+"/portfolio/balance", nil, &resp); err != nil {
		return 0, fmt.Errorf("get balance: %w", err)
	}
	return resp.Balance, nil
}

func (c *Client) GetOrders(ctx context.Context, opts GetOrdersOptions) (*OrdersResponse, error) {
	q := opts.query()
	if opts.Status != "" {
		q.Set("status", opts.Status)
	}

	var resp OrdersResponse
	if err := c.getJSON(ctx, apiPrefix+"/portfolio/orders", q, &resp); err != nil {
		return nil, fmt.Errorf("get orders: %w", err)
	}
	return &resp, nil
}

func (c *Client) GetOrder(ctx context.Context, orderID string) (*Order, error) {
	var resp orderResponse
	if err := c.getJSON(ctx, apiPrefix+"/portfolio/orders/"+url.PathEscape(orderID), nil, &resp); err != nil {
		return nil, fmt.Errorf("get order %s: %w", orderID, err)
	}
	return &resp.Order, nil
}

func (c *Client) GetPositions(ctx context.Context, opts PageOptions) (*PositionsResponse, error) {
	var resp PositionsResponse
	if err := c.getJSON(ctx, apiPrefix+"/portfolio/positions", opts.query(), &resp); err != nil {
		return nil, fmt.Errorf("get positions: %w", err)
	}
	return &resp, nil
}
