package kalshi_ws

import (
	"testing"

	"github.com/charleschow/kalshi-mm/internal/events"
)

func TestParseMessage(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want *events.MarketEvent
	}{
		{
			name: "cent fields",
			raw:  `{"type":"ticker","msg":{"market_ticker":"T","yes_bid":30,"yes_ask":35,"volume":10}}`,
			want: &events.MarketEvent{Ticker: "T", YesBid: 30, YesAsk: 35, NoBid: 65, NoAsk: 70, Volume: 10},
		},
		{
			name: "dollar fallback",
			raw:  `{"type":"ticker","msg":{"market_ticker":"T","yes_bid_dollars":"0.4800","yes_ask_dollars":"0.4900"}}`,
			want: &events.MarketEvent{Ticker: "T", YesBid: 48, YesAsk: 49, NoBid: 51, NoAsk: 52},
		},
		{
			name: "one sided",
			raw:  `{"type":"ticker","msg":{"market_ticker":"T","yes_bid":12}}`,
			want: &events.MarketEvent{Ticker: "T", YesBid: 12, NoAsk: 88},
		},
		{name: "missing ticker", raw: `{"type":"ticker","msg":{"yes_bid":12}}`},
		{name: "subscribed ack", raw: `{"type":"subscribed","msg":{"channel":"ticker"}}`},
		{name: "server error", raw: `{"type":"error","msg":{"code":6,"msg":"bad"}}`},
		{name: "garbage", raw: `not json`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			evts := ParseMessage([]byte(tt.raw))
			if tt.want == nil {
				if len(evts) != 0 {
					t.Fatalf("got %d events, want none", len(evts))
				}
				return
			}
			if len(evts) != 1 {
				t.Fatalf("got %d events, want 1", len(evts))
			}
			if evts[0].Type != events.EventMarketData || evts[0].ID != tt.want.Ticker {
				t.Errorf("envelope = %+v", evts[0])
			}
			if got := evts[0].Payload.(events.MarketEvent); got != *tt.want {
				t.Errorf("payload = %+v, want %+v", got, *tt.want)
			}
		})
	}
}
