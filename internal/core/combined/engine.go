package combined

import (
	"context"
	"fmt"
	"time"

	"github.com/charleschow/kalshi-mm/internal/adapters/outbound/kalshi_http"
	"github.com/charleschow/kalshi-mm/internal/config"
	"github.com/charleschow/kalshi-mm/internal/core/pricing"
	"github.com/charleschow/kalshi-mm/internal/core/state/trading"
	"github.com/charleschow/kalshi-mm/internal/core/tracking"
	"github.com/charleschow/kalshi-mm/internal/telemetry"
)

// AlertConditionFailed is sent when live quotes are pulled.
const AlertConditionFailed = "combined_no_condition_failed"

const defaultInterval = 5 * time.Second

// OrderToken is the fixed client order id for the sell-no quote on ticker.
func OrderToken(ticker string) string {
	return "combined_no_" + ticker
}

type Option func(*Engine)

func WithJournal(j Journal) Option {
	return func(e *Engine) { e.journal = j }
}

func WithInterval(d time.Duration) Option {
	return func(e *Engine) { e.interval = d }
}

// Result is the outcome of one Cycle.
type Result struct {
	Asks      map[string]int
	Combined  int
	Holds     bool
	Placed    int
	Cancelled int
}

// Engine offers no on every ticker in the set while the sum of best no asks
// stays below MaxCombined, and pulls every quote as soon as it does not.
// Quotes go up once per holding period; they are not re-priced while the
// condition keeps holding.
type Engine struct {
	client   Exchange
	alerter  Alerter
	journal  Journal
	cfg      config.CombinedConfig
	interval time.Duration

	orders   *trading.OrderSet
	quotesUp bool
}

func NewEngine(client Exchange, alerter Alerter, cfg config.CombinedConfig, opts ...Option) *Engine {
	e := &Engine{
		client:   client,
		alerter:  alerter,
		cfg:      cfg,
		interval: cfg.CheckInterval(),
		orders:   trading.NewOrderSet(),
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

func (e *Engine) QuotesUp() bool { return e.quotesUp }

// Orders is a snapshot of the resting quotes believed to be ours.
func (e *Engine) Orders() []trading.OpenOrder { return e.orders.Orders() }

// Run evaluates the condition every interval until ctx is cancelled.
func (e *Engine) Run(ctx context.Context) error {
	telemetry.Infof("combined: starting tickers=%v max_combined=%d shares=%d interval=%s",
		e.cfg.Tickers, e.cfg.MaxCombined, e.cfg.Shares, e.interval)

	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		e.Cycle(ctx)

		select {
		case <-ctx.Done():
			telemetry.Infof("combined: stopping quotes_up=%v resting=%d", e.quotesUp, e.orders.Len())
			return nil
		case <-ticker.C:
		}
	}
}

// Cycle reads every book, sums the best no asks, and either pulls or puts
// up quotes.
func (e *Engine) Cycle(ctx context.Context) Result {
	res := Result{Asks: make(map[string]int, len(e.cfg.Tickers))}
	for _, t := range e.cfg.Tickers {
		ask := e.bestNoAsk(ctx, t)
		res.Asks[t] = ask
		res.Combined += ask
	}
	res.Holds = res.Combined < e.cfg.MaxCombined

	if !res.Holds {
		res.Cancelled = e.pullQuotes(ctx, res.Combined)
		return res
	}
	if e.quotesUp {
		telemetry.Debugf("combined: holding combined=%d quotes already up", res.Combined)
		return res
	}
	res.Placed = e.putQuotes(ctx, res)
	return res
}

func (e *Engine) bestNoAsk(ctx context.Context, ticker string) int {
	ob, err := e.client.GetOrderbook(ctx, ticker)
	if err != nil {
		err = fmt.Errorf("%s: %w: %w", ticker, pricing.ErrOrderbookUnavailable, err)
	} else {
		ask, bookErr := pricing.BestNoAsk(ticker, ob)
		if bookErr == nil {
			return ask
		}
		err = bookErr
	}
	telemetry.Warnf("combined: %v, treating ask as %d", err, pricing.MaxPrice)
	return pricing.MaxPrice
}

// pullQuotes cancels every tracked id. A failed cancel is logged and the
// rest still go out; the set is cleared either way.
func (e *Engine) pullQuotes(ctx context.Context, combined int) int {
	owned := e.orders.Clear()
	e.quotesUp = false
	telemetry.Metrics.QuotesUp.Set(0)

	if len(owned) == 0 {
		telemetry.Debugf("combined: condition fails combined=%d, nothing resting", combined)
		return 0
	}

	cancelled := 0
	for _, o := range owned {
		if err := e.client.CancelOrder(ctx, o.OrderID); err != nil {
			telemetry.Errorf("combined: cancel %s (%s) failed: %v", o.OrderID, o.Ticker, err)
			continue
		}
		cancelled++
		e.track(tracking.Action{Kind: tracking.KindCancel, Ticker: o.Ticker, Side: o.Side, OrderID: o.OrderID, Combined: tracking.IntPtr(combined)})
	}

	telemetry.Warnf("combined: condition failed (combined=%d >= %d), cancelled %d/%d orders",
		combined, e.cfg.MaxCombined, cancelled, len(owned))
	e.track(tracking.Action{Kind: tracking.KindConditionFails, Count: cancelled, Combined: tracking.IntPtr(combined)})
	e.alerter.Notify(ctx, AlertConditionFailed, map[string]any{
		"combined":     combined,
		"max_combined": e.cfg.MaxCombined,
	})
	return cancelled
}

// putQuotes sells no on every ticker at its current best no ask. The
// generation counts as up even if some placements fail.
func (e *Engine) putQuotes(ctx context.Context, res Result) int {
	placed := 0
	for _, t := range e.cfg.Tickers {
		price := res.Asks[t]
		order, err := e.client.CreateOrder(ctx, kalshi_http.CreateOrderRequest{
			Ticker:        t,
			Action:        kalshi_http.ActionSell,
			Side:          kalshi_http.SideNo,
			Type:          kalshi_http.OrderTypeLimit,
			Count:         e.cfg.Shares,
			NoPrice:       price,
			ClientOrderID: OrderToken(t),
		})
		if err != nil {
			telemetry.Errorf("combined: sell no %s @ %dc failed: %v", t, price, err)
			e.track(tracking.Action{Kind: tracking.KindOrderFailed, Ticker: t, Side: kalshi_http.SideNo, PriceCents: price, Count: e.cfg.Shares, Detail: err.Error()})
			continue
		}
		e.orders.Track(trading.OpenOrder{OrderID: order.OrderID, Ticker: t, Side: kalshi_http.SideNo, Count: e.cfg.Shares, Price: price})
		placed++
		telemetry.Infof("combined: sell no %s @ %dc x%d (combined=%d) -> %s", t, price, e.cfg.Shares, res.Combined, order.OrderID)
		e.track(tracking.Action{Kind: tracking.KindOrderPlaced, Ticker: t, Side: kalshi_http.SideNo, OrderID: order.OrderID, PriceCents: price, Count: e.cfg.Shares, Combined: tracking.IntPtr(res.Combined)})
	}

	e.quotesUp = true
	telemetry.Metrics.QuotesUp.Set(1)
	e.track(tracking.Action{Kind: tracking.KindConditionOK, Count: placed, Combined: tracking.IntPtr(res.Combined)})
	return placed
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
