package events

import (
	"errors"
	"testing"
)

func TestBus_DispatchOrderAndErrors(t *testing.T) {
	b := NewBus()
	var got []string

	b.Subscribe(EventMarketData, func(e Event) error {
		got = append(got, "first:"+e.ID)
		return errors.New("ignored")
	})
	b.Subscribe(EventMarketData, func(e Event) error {
		got = append(got, "second:"+e.ID)
		return nil
	})
	b.Subscribe(EventWSStatus, func(e Event) error {
		got = append(got, "status")
		return nil
	})

	b.Publish(Event{ID: "T1", Type: EventMarketData})

	if len(got) != 2 || got[0] != "first:T1" || got[1] != "second:T1" {
		t.Errorf("dispatch = %v", got)
	}
}

func TestBus_NoSubscribers(t *testing.T) {
	NewBus().Publish(Event{Type: EventWSStatus})
}

func TestBus_TypedSubscriptions(t *testing.T) {
	b := NewBus()
	var markets []MarketEvent
	var statuses []bool

	b.SubscribeMarket(func(me MarketEvent) error {
		markets = append(markets, me)
		return nil
	})
	b.SubscribeStatus(func(st WSStatusEvent) error {
		statuses = append(statuses, st.Connected)
		return nil
	})

	b.Publish(Event{Type: EventMarketData, Payload: MarketEvent{Ticker: "KXA", YesBid: 40, NoAsk: 60}})
	b.Publish(Event{Type: EventMarketData, Payload: "not a market event"})
	b.Publish(Event{Type: EventWSStatus, Payload: WSStatusEvent{Connected: false}})

	if len(markets) != 1 || markets[0].Ticker != "KXA" || markets[0].NoAsk != 60 {
		t.Errorf("markets = %+v", markets)
	}
	if len(statuses) != 1 || statuses[0] {
		t.Errorf("statuses = %v", statuses)
	}
}
