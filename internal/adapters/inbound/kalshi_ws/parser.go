package kalshi_ws

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/charleschow/kalshi-mm/internal/events"
	"github.com/charleschow/kalshi-mm/internal/telemetry"
)

// wsMessage represents a raw message from the Kalshi WebSocket.
type wsMessage struct {
	Type string          `json:"type"`
	Msg  json.RawMessage `json:"msg"`
	SID  int64           `json:"sid"`
}

type tickerMsg struct {
	MarketTicker  string `json:"market_ticker"`
	YesBid        int    `json:"yes_bid"`
	YesAsk        int    `json:"yes_ask"`
	Price         int    `json:"price"`
	YesBidDollars string `json:"yes_bid_dollars"`
	YesAskDollars string `json:"yes_ask_dollars"`
	Volume        int64  `json:"volume"`
	OpenInterest  int64  `json:"open_interest"`
}

// ParseMessage converts a raw WebSocket frame into domain events.
func ParseMessage(data []byte) []events.Event {
	var msg wsMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		telemetry.Warnf("kalshi_ws: parse error: %v", err)
		return nil
	}

	switch msg.Type {
	case "ticker":
		return parseTickerUpdate(msg.Msg)
	case "error":
		telemetry.Warnf("kalshi_ws: server error: %s", string(msg.Msg))
		return nil
	default:
		return nil
	}
}

func parseTickerUpdate(raw json.RawMessage) []events.Event {
	var t tickerMsg
	if err := json.Unmarshal(raw, &t); err != nil {
		return nil
	}
	if t.MarketTicker == "" {
		return nil
	}

	yesBid := centsOr(t.YesBid, t.YesBidDollars)
	yesAsk := centsOr(t.YesAsk, t.YesAskDollars)

	var noAsk, noBid int
	if yesBid > 0 {
		noAsk = 100 - yesBid
	}
	if yesAsk > 0 {
		noBid = 100 - yesAsk
	}

	me := events.MarketEvent{
		Ticker:       t.MarketTicker,
		YesBid:       yesBid,
		YesAsk:       yesAsk,
		NoBid:        noBid,
		NoAsk:        noAsk,
		LastPrice:    t.Price,
		Volume:       t.Volume,
		OpenInterest: t.OpenInterest,
	}

	return []events.Event{{
		ID:        t.MarketTicker,
		Type:      events.EventMarketData,
		Timestamp: time.Now(),
		Payload:   me,
	}}
}

// centsOr prefers the integer cent field and falls back to a dollar string.
func centsOr(cents int, dollars string) int {
	if cents > 0 || dollars == "" {
		return cents
	}
	d, err := decimal.NewFromString(dollars)
	if err != nil {
		return 0
	}
	return int(d.Shift(2).Round(0).IntPart())
}
