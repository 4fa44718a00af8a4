package events

// MarketEvent is published when the Kalshi WebSocket reports a price change.
// Prices are cents. The ticker channel only carries the yes side; no prices
// are derived as 100 minus the opposite yes price and are 0 when unknown.
type MarketEvent struct {
	Ticker       string `json:"ticker"`
	YesBid       int    `json:"yes_bid"`
	YesAsk       int    `json:"yes_ask"`
	NoBid        int    `json:"no_bid"`
	NoAsk        int    `json:"no_ask"`
	LastPrice    int    `json:"last_price,omitempty"`
	Volume       int64  `json:"volume"`
	OpenInterest int64  `json:"open_interest,omitempty"`
}

// WSStatusEvent signals Kalshi WebSocket connect/disconnect.
type WSStatusEvent struct {
	Connected bool `json:"connected"`
}
