package kalshi_ws

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/charleschow/kalshi-mm/internal/adapters/kalshi_auth"
	"github.com/charleschow/kalshi-mm/internal/events"
	"github.com/charleschow/kalshi-mm/internal/telemetry"
)

const (
	defaultPath = "/trade-api/ws/v2"

	initialBackoff = 1 * time.Second
	maxBackoff     = 30 * time.Second

	// Kalshi sends pings every 10s; 30s gives 3 missed pings before timeout.
	pingWait = 30 * time.Second
)

// Client connects to the Kalshi WebSocket feed and publishes
// MarketEvent updates onto the event bus.
//
// Gorilla/websocket supports one concurrent reader and one concurrent
// writer, so all writes are serialized through mu.
type Client struct {
	url    string
	signer *kalshi_auth.Signer
	bus    *events.Bus
	dialer *websocket.Dialer
	done   chan struct{}

	mu      sync.Mutex
	conn    *websocket.Conn
	tickers map[string]bool
	subID   int
}

func NewClient(wsURL string, signer *kalshi_auth.Signer, bus *events.Bus) *Client {
	return &Client{
		url:     wsURL,
		signer:  signer,
		bus:     bus,
		dialer:  websocket.DefaultDialer,
		done:    make(chan struct{}),
		tickers: make(map[string]bool),
	}
}

// Connect dials once and then reads in the background, reconnecting with
// exponential backoff until ctx is cancelled. Done is closed when the
// background loop exits.
func (c *Client) Connect(ctx context.Context) error {
	if err := c.dial(ctx); err != nil {
		return err
	}
	go c.runLoop(ctx)
	return nil
}

func (c *Client) dial(ctx context.Context) error {
	parsed, err := url.Parse(c.url)
	if err != nil {
		return fmt.Errorf("parse ws url: %w", err)
	}
	wsPath := parsed.Path
	if wsPath == "" {
		wsPath = defaultPath
	}
	header, err := c.signer.Headers("GET", wsPath)
	if err != nil {
		return err
	}

	conn, _, err := c.dialer.DialContext(ctx, c.url, header)
	if err != nil {
		return fmt.Errorf("dial %s: %w", c.url, err)
	}

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()
	return nil
}

// SubscribeTickers adds tickers and subscribes on the live connection.
// Safe to call from any goroutine at any time. If the connection is not
// yet established the tickers are stored and subscribed on connect.
func (c *Client) SubscribeTickers(tickers []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var newTickers []string
	for _, t := range tickers {
		if !c.tickers[t] {
			c.tickers[t] = true
			newTickers = append(newTickers, t)
		}
	}

	if len(newTickers) == 0 || c.conn == nil {
		return nil
	}

	return c.sendSubscribe(newTickers)
}

// runLoop reads messages and reconnects on failure with exponential backoff.
func (c *Client) runLoop(ctx context.Context) {
	defer close(c.done)

	first := true
	for {
		if first {
			telemetry.Infof("kalshi_ws: connected to %s", c.url)
			first = false
		} else {
			telemetry.Infof("kalshi_ws: reconnected")
		}

		c.resubscribeAll()
		c.publishWSStatus(true)
		c.readLoop(ctx)
		c.publishWSStatus(false)

		if !c.reconnect(ctx) {
			return
		}
	}
}

// reconnect redials until it succeeds or ctx ends. Backoff doubles from 1s
// up to 30s.
func (c *Client) reconnect(ctx context.Context) bool {
	backoff := initialBackoff
	for attempt := 1; ; attempt++ {
		if ctx.Err() != nil {
			return false
		}
		telemetry.Warnf("kalshi_ws: reconnecting (attempt %d) in %s", attempt, backoff)
		select {
		case <-ctx.Done():
			return false
		case <-time.After(backoff):
		}
		if err := c.dial(ctx); err != nil {
			telemetry.Warnf("kalshi_ws: %v", err)
			backoff = nextBackoff(backoff)
			continue
		}
		return true
	}
}

func nextBackoff(d time.Duration) time.Duration {
	return min(d*2, maxBackoff)
}

// resubscribeAll sends a subscribe for every known ticker.
// Called after each successful connection/reconnection.
func (c *Client) resubscribeAll() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.tickers) == 0 {
		return
	}

	all := make([]string, 0, len(c.tickers))
	for t := range c.tickers {
		all = append(all, t)
	}
	sort.Strings(all)

	if err := c.sendSubscribe(all); err != nil {
		telemetry.Warnf("kalshi_ws: resubscribe failed: %v", err)
	}
}

// sendSubscribe writes a subscribe command. Caller must hold mu.
func (c *Client) sendSubscribe(tickers []string) error {
	c.subID++
	cmd := subscribeCmd{
		ID:  c.subID,
		Cmd: "subscribe",
		Params: subscribeParams{
			Channels:      []string{"ticker"},
			MarketTickers: tickers,
		},
	}
	telemetry.Debugf("kalshi_ws: subscribing to %d tickers (id=%d)", len(tickers), c.subID)
	return c.conn.WriteJSON(cmd)
}

type subscribeCmd struct {
	ID     int             `json:"id"`
	Cmd    string          `json:"cmd"`
	Params subscribeParams `json:"params"`
}

type subscribeParams struct {
	Channels      []string `json:"channels"`
	MarketTickers []string `json:"market_tickers,omitempty"`
}

func (c *Client) readLoop(ctx context.Context) {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()

	defer conn.Close()
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	conn.SetReadDeadline(time.Now().Add(pingWait))
	conn.SetPingHandler(func(appData string) error {
		conn.SetReadDeadline(time.Now().Add(pingWait))
		c.mu.Lock()
		defer c.mu.Unlock()
		return conn.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(5*time.Second))
	})

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				telemetry.Warnf("kalshi_ws: read error: %v", err)
			}
			return
		}

		conn.SetReadDeadline(time.Now().Add(pingWait))
		for _, evt := range ParseMessage(msg) {
			c.bus.Publish(evt)
		}
	}
}

func (c *Client) publishWSStatus(connected bool) {
	c.bus.Publish(events.Event{
		Type:      events.EventWSStatus,
		Timestamp: time.Now(),
		Payload:   events.WSStatusEvent{Connected: connected},
	})
}

func (c *Client) Close() error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn != nil {
		return conn.Close()
	}
	return nil
}

func (c *Client) Done() <-chan struct{} {
	return c.done
}
