package kalshi_ws

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/charleschow/kalshi-mm/internal/adapters/kalshi_auth"
	"github.com/charleschow/kalshi-mm/internal/events"
)

func testSigner(t *testing.T) *kalshi_auth.Signer {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	s, err := kalshi_auth.NewSigner("kid", key)
	if err != nil {
		t.Fatalf("NewSigner: %v", err)
	}
	return s
}

func TestClient_SubscribesAndPublishesTicker(t *testing.T) {
	gotKey := make(chan string, 1)
	gotSub := make(chan subscribeCmd, 1)

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey <- r.Header.Get(kalshi_auth.HeaderKey)
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		var cmd subscribeCmd
		if err := conn.ReadJSON(&cmd); err != nil {
			return
		}
		gotSub <- cmd

		conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"subscribed","id":1,"msg":{"channel":"ticker","sid":1}}`))
		conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"ticker","sid":1,"msg":{"market_ticker":"KXEV-A","yes_bid":41,"yes_ask":44,"price":42,"volume":900}}`))

		// hold the connection until the client goes away
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	bus := events.NewBus()
	market := make(chan events.MarketEvent, 1)
	status := make(chan bool, 4)
	bus.Subscribe(events.EventMarketData, func(e events.Event) error {
		market <- e.Payload.(events.MarketEvent)
		return nil
	})
	bus.Subscribe(events.EventWSStatus, func(e events.Event) error {
		status <- e.Payload.(events.WSStatusEvent).Connected
		return nil
	})

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/trade-api/ws/v2"
	c := NewClient(wsURL, testSigner(t), bus)
	if err := c.SubscribeTickers([]string{"KXEV-A", "KXEV-A"}); err != nil {
		t.Fatalf("SubscribeTickers before connect: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := c.Connect(ctx); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	if k := <-gotKey; k != "kid" {
		t.Errorf("access key header = %q", k)
	}

	select {
	case cmd := <-gotSub:
		if cmd.Cmd != "subscribe" || len(cmd.Params.MarketTickers) != 1 || cmd.Params.Channels[0] != "ticker" {
			t.Errorf("subscribe = %+v", cmd)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no subscribe received")
	}

	select {
	case me := <-market:
		want := events.MarketEvent{Ticker: "KXEV-A", YesBid: 41, YesAsk: 44, NoBid: 56, NoAsk: 59, LastPrice: 42, Volume: 900}
		if me != want {
			t.Errorf("market event = %+v, want %+v", me, want)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no market event published")
	}

	if up := <-status; !up {
		t.Error("first status should be connected")
	}

	cancel()
	select {
	case <-c.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("client did not stop after cancel")
	}
}

func TestClient_ConnectFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	c := NewClient("ws"+strings.TrimPrefix(srv.URL, "http"), testSigner(t), events.NewBus())
	if err := c.Connect(context.Background()); err == nil {
		t.Fatal("expected dial error against a non-websocket endpoint")
	}
}

func TestNextBackoff(t *testing.T) {
	d := initialBackoff
	var seen []time.Duration
	for i := 0; i < 7; i++ {
		d = nextBackoff(d)
		seen = append(seen, d)
	}
	if seen[0] != 2*time.Second || seen[3] != 16*time.Second || seen[4] != maxBackoff || seen[6] != maxBackoff {
		t.Errorf("backoff sequence = %v", seen)
	}
}
