package kalshi_http

import (
	"context"
	"fmt"
	"net/url"
	"slices"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/sync/singleflight"
)

// MaxMarketsLimit is both the default and the ceiling for GetMarkets.
const MaxMarketsLimit = 200

// GetMarketsOptions configures a GetMarkets request. Set at most one of
// EventTicker, SeriesTicker, or Tickers (comma-separated).
type GetMarketsOptions struct {
	Limit        int
	Cursor       string
	Status       string
	EventTicker  string
	SeriesTicker string
	Tickers      string
}

func (o GetMarketsOptions) query() url.Values {
	q := url.Values{}

	limit := o.Limit
	if limit <= 0 || limit > MaxMarketsLimit {
		limit = MaxMarketsLimit
	}
	q.Set("limit", strconv.Itoa(limit))

	if o.Cursor != "" {
		q.Set("cursor", o.Cursor)
	}
	if o.Status != "" {
		q.Set("status", o.Status)
	}
	// Exchange identifiers are case-insensitive but stored lower-case.
	if o.EventTicker != "" {
		q.Set("event_ticker", strings.ToLower(o.EventTicker))
	}
	if o.SeriesTicker != "" {
		q.Set("series_ticker", strings.ToLower(o.SeriesTicker))
	}
	if o.Tickers != "" {
		q.Set("tickers", strings.ToLower(o.Tickers))
	}
	return q
}

func (c *Client) GetExchangeStatus(ctx context.Context) (*ExchangeStatus, error) {
	var resp ExchangeStatus
	if err := c.getJSON(ctx, apiPrefix+"/exchange/status", nil, &resp); err != nil {
		return nil, fmt.Errorf("get exchange status: %w", err)
	}
	return &resp, nil
}

// GetMarkets fetches one page of markets.
func (c *Client) GetMarkets(ctx context.Context, opts GetMarketsOptions) (*MarketsResponse, error) {
	var resp MarketsResponse
	if err := c.getJSON(ctx, apiPrefix+"/markets", opts.query(), &resp); err != nil {
		return nil, fmt.Errorf("get markets: %w", err)
	}
	return &resp, nil
}

// GetMarket fetches a single market by ticker.
func (c *Client) GetMarket(ctx context.Context, ticker string) (*Market, error) {
	var resp singleMarketResponse
	path := apiPrefix + "/markets/" + url.PathEscape(strings.ToLower(ticker))
	if err := c.getJSON(ctx, path, nil, &resp); err != nil {
		return nil, fmt.Errorf("get market %s: %w", ticker, err)
	}
	return &resp.Market, nil
}

// GetOrderbook fetches the resting bid ladders for a market. Both ladders are
// returned sorted ascending by price; the last element is the best bid.
// Concurrent calls for the same ticker share one request, which is not tied
// to any single caller's cancellation. Each caller gets its own copy of the
// ladders.
func (c *Client) GetOrderbook(ctx context.Context, ticker string) (*Orderbook, error) {
	fetchCtx := context.WithoutCancel(ctx)
	ch := c.books.DoChan(ticker, func() (any, error) {
		var resp orderbookResponse
		path := apiPrefix + "/markets/" + url.PathEscape(ticker) + "/orderbook"
		if err := c.getJSON(fetchCtx, path, nil, &resp); err != nil {
			return nil, err
		}
		sortLevels(resp.Orderbook.Yes)
		sortLevels(resp.Orderbook.No)
		return resp.Orderbook, nil
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("get orderbook %s: %w", ticker, ctx.Err())
	case res = <-ch:
	}
	if res.Err != nil {
		return nil, fmt.Errorf("get orderbook %s: %w", ticker, res.Err)
	}

	shared := res.Val.(Orderbook)
	return &Orderbook{
		Yes: slices.Clone(shared.Yes),
		No:  slices.Clone(shared.No),
	}, nil
}

func sortLevels(levels []Level) {
	sort.SliceStable(levels, func(i, j int) bool { return levels[i].Price() < levels[j].Price() })
}

// GetTradesOptions configures a GetTrades request. MinTS/MaxTS are Unix
// seconds; zero means unset.
type GetTradesOptions struct {
	Ticker string
	Limit  int
	Cursor string
	MinTS  int64
	MaxTS  int64
}

// GetTrades fetches a page of public trades.
func (c *Client) GetTrades(ctx context.Context, opts GetTradesOptions) (*TradesResponse, error) {
	q := url.Values{}
	if opts.Ticker != "" {
		q.Set("ticker", opts.Ticker)
	}
	if opts.Limit > 0 {
		q.Set("limit", strconv.Itoa(opts.Limit))
	}
	if opts.Cursor != "" {
		q.Set("cursor", opts.Cursor)
	}
	if opts.MinTS > 0 {
		q.Set("min_ts", strconv.FormatInt(opts.MinTS, 10))
	}
	if opts.MaxTS > 0 {
		q.Set("max_ts", strconv.FormatInt(opts.MaxTS, 10))
	}

	var resp TradesResponse
	if err := c.getJSON(ctx, apiPrefix+"/markets/trades", q, &resp); err != nil {
		return nil, fmt.Errorf("get trades: %w", err)
	}
	return &resp, nil
}
