package kalshi_http

import (
	"github.com/shopspring/decimal"
)

const (
	ActionBuy  = "buy"
	ActionSell = "sell"

	SideYes = "yes"
	SideNo  = "no"

	OrderTypeLimit  = "limit"
	OrderTypeMarket = "market"

	StatusResting  = "resting"
	StatusCanceled = "canceled"
	StatusExecuted = "executed"
)

type BalanceResponse struct {
	Balance int `json:"balance"` // cents
}

// ExchangeStatus from GET /exchange/status
type ExchangeStatus struct {
	ExchangeActive      bool   `json:"exchange_active"`
	TradingActive       bool   `json:"trading_active"`
	EstimatedResumeTime string `json:"exchange_estimated_resume_time,omitempty"`
}

// Market is the subset of market fields the engines and tools read.
type Market struct {
	Ticker      string `json:"ticker"`
	EventTicker string `json:"event_ticker"`
	Title       string `json:"title"`
	Subtitle    string `json:"subtitle"`
	Status      string `json:"status"`

	// Prices in cents
	YesBid    int `json:"yes_bid"`
	YesAsk    int `json:"yes_ask"`
	NoBid     int `json:"no_bid"`
	NoAsk     int `json:"no_ask"`
	LastPrice int `json:"last_price"`

	Volume       int64 `json:"volume"`
	OpenInterest int64 `json:"open_interest"`

	CloseTime string `json:"close_time"`
}

type MarketsResponse struct {
	Markets []Market `json:"markets"`
	Cursor  string   `json:"cursor"`
}

type singleMarketResponse struct {
	Market Market `json:"market"`
}

// Level is a [price_cents, quantity] pair.
type Level [2]int

func (l Level) Price() int    { return l[0] }
func (l Level) Quantity() int { return l[1] }

// Orderbook holds resting bids for each side, sorted ascending by price, so
// the best bid is the last element.
type Orderbook struct {
	Yes []Level `json:"yes"`
	No  []Level `json:"no"`
}

type orderbookResponse struct {
	Orderbook Orderbook `json:"orderbook"`
}

// Order as returned by the portfolio endpoints.
type Order struct {
	OrderID        string `json:"order_id"`
	ClientOrderID  string `json:"client_order_id"`
	Ticker         string `json:"ticker"`
	Status         string `json:"status"`
	Action         string `json:"action"`
	Side           string `json:"side"`
	Type           string `json:"type"`
	YesPrice       int    `json:"yes_price"`
	NoPrice        int    `json:"no_price"`
	YesPriceDollar string `json:"yes_price_dollars,omitempty"`
	NoPriceDollar  string `json:"no_price_dollars,omitempty"`
	InitialCount   int    `json:"initial_count"`
	FillCount      int    `json:"fill_count"`
	RemainingCount int    `json:"remaining_count"`
	CreatedTime    string `json:"created_time,omitempty"`
	ExpirationTime string `json:"expiration_time,omitempty"`
}

// FilledCount returns the number of contracts executed on this order.
func (o Order) FilledCount() int {
	if o.FillCount > 0 {
		return o.FillCount
	}
	if n := o.InitialCount - o.RemainingCount; o.InitialCount > 0 && n > 0 {
		return n
	}
	return o.InitialCount
}

// FillPrice returns the order's price in cents for its own side. Integer
// fields win; the dollar strings are used when the cent field is absent.
// ok is false when no price is present.
func (o Order) FillPrice() (cents int, ok bool) {
	p, s := o.YesPrice, o.YesPriceDollar
	if o.Side == SideNo {
		p, s = o.NoPrice, o.NoPriceDollar
	}
	if p > 0 {
		return p, true
	}
	if s == "" {
		return 0, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, false
	}
	c := d.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
	if c <= 0 {
		return 0, false
	}
	return int(c), true
}

type OrdersResponse struct {
	Orders []Order `json:"orders"`
	Cursor string  `json:"cursor"`
}

type orderResponse struct {
	Order Order `json:"order"`
}

type MarketPosition struct {
	Ticker         string `json:"ticker"`
	Position       int    `json:"position"`
	MarketExposure int    `json:"market_exposure"`
	RealizedPnl    int    `json:"realized_pnl"`
	RestingOrders  int    `json:"resting_orders_count"`
}

type EventPosition struct {
	EventTicker   string `json:"event_ticker"`
	EventExposure int    `json:"event_exposure"`
	RealizedPnl   int    `json:"realized_pnl"`
}

type PositionsResponse struct {
	MarketPositions []MarketPosition `json:"market_positions"`
	EventPositions  []EventPosition  `json:"event_positions"`
	Cursor          string           `json:"cursor"`
}

type Trade struct {
	TradeID     string `json:"trade_id"`
	Ticker      string `json:"ticker"`
	Count       int    `json:"count"`
	YesPrice    int    `json:"yes_price"`
	NoPrice     int    `json:"no_price"`
	TakerSide   string `json:"taker_side"`
	CreatedTime string `json:"created_time"`
}

type TradesResponse struct {
	Trades []Trade `json:"trades"`
	Cursor string  `json:"cursor"`
}
