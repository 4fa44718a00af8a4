package marketmaking

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charleschow/kalshi-mm/internal/adapters/outbound/kalshi_http"
	"github.com/charleschow/kalshi-mm/internal/config"
	"github.com/charleschow/kalshi-mm/internal/core/pricing"
	"github.com/charleschow/kalshi-mm/internal/core/state/trading"
	"github.com/charleschow/kalshi-mm/internal/core/tracking"
	"github.com/charleschow/kalshi-mm/internal/telemetry"
)

const (
	// PollLimit is how many executed orders each poll asks for.
	PollLimit = 100

	defaultInterval = 30 * time.Second
)

// OrderToken is the fixed client order id for a (ticker, side) slot. Reposts
// on the same slot reuse it.
func OrderToken(ticker, side string) string {
	return fmt.Sprintf("mm_%s_%s", ticker, side)
}

type Option func(*Engine)

func WithJournal(j Journal) Option {
	return func(e *Engine) { e.journal = j }
}

// WithInterval overrides the config's check interval.
func WithInterval(d time.Duration) Option {
	return func(e *Engine) { e.interval = d }
}

// Engine quotes each configured stake, polls for fills on its own orders,
// and reposts refills until a stake's max_shares is reached.
//
// It is a single sequential loop. State is owned by the Engine and only
// written from PollOnce and Start.
type Engine struct {
	client   Exchange
	alerter  Alerter
	journal  Journal
	cfg      config.MarketMakingConfig
	interval time.Duration

	stakes    []config.Stake
	states    map[string]*trading.InstrumentState
	owners    map[string]*trading.InstrumentState // order id -> stake state
	processed *trading.ProcessedSet
}

func NewEngine(client Exchange, alerter Alerter, cfg config.MarketMakingConfig, opts ...Option) *Engine {
	e := &Engine{
		client:    client,
		alerter:   alerter,
		cfg:       cfg,
		interval:  cfg.CheckInterval(),
		stakes:    cfg.Stakes,
		states:    make(map[string]*trading.InstrumentState, len(cfg.Stakes)),
		owners:    make(map[string]*trading.InstrumentState),
		processed: trading.NewProcessedSet(),
	}
	for _, s := range cfg.Stakes {
		e.states[s.Ticker] = trading.NewInstrumentState(s.Ticker)
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.interval <= 0 {
		e.interval = defaultInterval
	}
	if e.alerter == nil {
		e.alerter = logOnly{}
	}
	return e
}

// State returns the live state for ticker.
func (e *Engine) State(ticker string) (*trading.InstrumentState, bool) {
	st, ok := e.states[ticker]
	return st, ok
}

// Run places the initial quotes and then polls every interval until ctx is
// cancelled. Poll failures are logged and the loop carries on.
func (e *Engine) Run(ctx context.Context) error {
	telemetry.Infof("mm: starting event=%s stakes=%d interval=%s",
		e.cfg.EventTicker, len(e.stakes), e.interval)

	e.Start(ctx)

	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		if err := e.PollOnce(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			telemetry.Warnf("mm: poll: %v", err)
		}

		select {
		case <-ctx.Done():
			telemetry.Infof("mm: stopping")
			return nil
		case <-ticker.C:
		}
	}
}

// Start places the configured initial resting order on each quoted side of
// every stake. A failed placement is logged and the rest continue.
func (e *Engine) Start(ctx context.Context) {
	for _, stake := range e.stakes {
		st := e.states[stake.Ticker]
		for _, side := range []string{config.SideYes, config.SideNo} {
			if !stake.Quotes(side) {
				continue
			}
			price := initialPrice(stake, side)
			if _, err := e.place(ctx, stake, st, side, stake.Shares, price); err != nil {
				telemetry.Errorf("mm: initial %s order failed ticker=%s: %v", side, stake.Ticker, err)
				continue
			}
		}
		telemetry.Infof("mm: initial orders for %s: %d resting", stake.Ticker, st.Orders.Len())
	}
}

func initialPrice(stake config.Stake, side string) int {
	p := stake.YesPrice
	if side == config.SideNo {
		p = stake.NoPrice
	}
	if p == nil {
		return 0
	}
	return pricing.Clamp(*p)
}

// PollOnce fetches recently executed orders and handles each new fill on an
// order we placed. Fills are matched by order id, not by the ticker the
// exchange echoes back. An order id is handled at most once per run.
func (e *Engine) PollOnce(ctx context.Context) error {
	resp, err := e.client.GetOrders(ctx, kalshi_http.GetOrdersOptions{
		PageOptions: kalshi_http.PageOptions{Limit: PollLimit},
		Status:      kalshi_http.StatusExecuted,
	})
	if err != nil {
		return fmt.Errorf("get executed orders: %w", err)
	}

	for _, o := range resp.Orders {
		if o.OrderID == "" {
			continue
		}
		st, ok := e.owners[o.OrderID]
		if !ok {
			continue
		}
		if !e.processed.Mark(o.OrderID) {
			continue
		}
		e.processFill(ctx, e.stakeFor(st.Ticker), st, o)
	}
	return nil
}

func (e *Engine) stakeFor(ticker string) config.Stake {
	for _, s := range e.stakes {
		if s.Ticker == ticker {
			return s
		}
	}
	return config.Stake{}
}

func (e *Engine) processFill(ctx context.Context, stake config.Stake, st *trading.InstrumentState, o kalshi_http.Order) {
	if st.Paused {
		telemetry.Debugf("mm: %s paused, ignoring fill %s", st.Ticker, o.OrderID)
		return
	}

	side := strings.ToLower(o.Side)
	if side == "" {
		side = config.SideYes
	}
	count := o.FilledCount()
	price, _ := o.FillPrice()
	st.RecordFill(count, price)

	telemetry.Metrics.FillsProcessed.Inc()
	telemetry.Infof("mm: fill ticker=%s side=%s count=%d price=%d total_filled=%d order_id=%s",
		st.Ticker, side, count, price, st.TotalFilled, o.OrderID)
	e.track(tracking.Action{
		Kind: tracking.KindFill, Ticker: st.Ticker, Side: side, OrderID: o.OrderID,
		PriceCents: price, Count: count, TotalFilled: tracking.IntPtr(st.TotalFilled),
	})

	if stake.MaxShares != nil && st.TotalFilled >= *stake.MaxShares {
		e.pause(ctx, stake, st, fmt.Sprintf("max_shares reached (%d)", st.TotalFilled))
		return
	}

	size := pricing.RepostSize(stake.Shares, stake.PctReload)
	if stake.MaxShares != nil && size > st.Remaining(*stake.MaxShares) {
		e.pause(ctx, stake, st, fmt.Sprintf("repost would exceed max_shares (filled=%d)", st.TotalFilled))
		return
	}

	if !stake.Quotes(side) {
		telemetry.Warnf("mm: %s filled on %s which the stake does not quote, no repost", st.Ticker, side)
		return
	}

	snap := e.snapshot(ctx, st.Ticker)
	newPrice := pricing.RepostPrice(stake.RepostBase, st.LastFillPrice, snap, side, stake.CentsOff)

	order, err := e.place(ctx, stake, st, side, size, newPrice)
	if err != nil {
		telemetry.Errorf("mm: repost failed ticker=%s side=%s: %v", st.Ticker, side, err)
		e.alerter.Notify(ctx, fmt.Sprintf("repost failed: %v", err), map[string]any{"ticker": st.Ticker})
		return
	}

	telemetry.Metrics.Reposts.Inc()
	telemetry.Infof("mm: reposted %s %s %d @ %dc (%s, bid=%d ask=%d) -> %s",
		st.Ticker, strings.ToUpper(side), size, newPrice, stake.RepostBase, snap.BestBid, snap.BestAsk, order.OrderID)
	e.track(tracking.Action{
		Kind: tracking.KindRepost, Ticker: st.Ticker, Side: side, OrderID: order.OrderID,
		PriceCents: newPrice, Count: size, TotalFilled: tracking.IntPtr(st.TotalFilled),
		Detail: string(stake.RepostBase),
	})
}

// snapshot reads the top of book, substituting the widest market when the
// book cannot be fetched.
func (e *Engine) snapshot(ctx context.Context, ticker string) pricing.Snapshot {
	ob, err := e.client.GetOrderbook(ctx, ticker)
	if err != nil {
		err = fmt.Errorf("%s: %w: %w", ticker, pricing.ErrOrderbookUnavailable, err)
		telemetry.Warnf("mm: %v, using %d/%d", err, pricing.Conservative.BestBid, pricing.Conservative.BestAsk)
		e.alerter.Notify(ctx, "orderbook unavailable", map[string]any{"ticker": ticker, "error": err.Error()})
		return pricing.Conservative
	}
	return pricing.FromOrderbook(ob)
}

// place submits a buy on side and tracks the returned id as ours.
func (e *Engine) place(ctx context.Context, stake config.Stake, st *trading.InstrumentState, side string, count, price int) (*kalshi_http.Order, error) {
	req := kalshi_http.CreateOrderRequest{
		Ticker:        stake.Ticker,
		Action:        kalshi_http.ActionBuy,
		Side:          side,
		Type:          kalshi_http.OrderTypeLimit,
		Count:         count,
		ClientOrderID: OrderToken(stake.Ticker, side),
	}
	if side == config.SideNo {
		req.NoPrice = price
	} else {
		req.YesPrice = price
	}

	order, err := e.client.CreateOrder(ctx, req)
	if err != nil {
		e.track(tracking.Action{
			Kind: tracking.KindOrderFailed, Ticker: stake.Ticker, Side: side,
			PriceCents: price, Count: count, Detail: err.Error(),
		})
		return nil, err
	}

	st.Orders.Track(trading.OpenOrder{
		OrderID: order.OrderID, Ticker: stake.Ticker, Side: side, Count: count, Price: price,
	})
	if order.OrderID != "" {
		e.owners[order.OrderID] = st
	}
	e.track(tracking.Action{
		Kind: tracking.KindOrderPlaced, Ticker: stake.Ticker, Side: side, OrderID: order.OrderID,
		PriceCents: price, Count: count,
	})
	return order, nil
}

// pause stops all further reposting on the stake for this run.
func (e *Engine) pause(ctx context.Context, stake config.Stake, st *trading.InstrumentState, reason string) {
	st.Pause(reason)
	telemetry.Metrics.Pauses.Inc()
	telemetry.Warnf("mm: %s paused: %s", st.Ticker, reason)

	details := map[string]any{"ticker": st.Ticker, "total_filled": st.TotalFilled}
	if stake.MaxShares != nil {
		details["max_shares"] = *stake.MaxShares
	}
	e.alerter.Notify(ctx, reason, details)
	e.track(tracking.Action{
		Kind: tracking.KindPause, Ticker: st.Ticker, TotalFilled: tracking.IntPtr(st.TotalFilled), Detail: reason,
	})
}

func (e *Engine) track(a tracking.Action) {
	if e.journal != nil {
		e.journal.Track(a)
	}
}

type logOnly struct{}

func (logOnly) Notify(_ context.Context, reason string, details map[string]any) {
	telemetry.Warnf("ALERT: %s %v", reason, details)
}
