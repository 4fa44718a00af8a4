package events

import (
	"fmt"
	"sync"

	"github.com/charleschow/kalshi-mm/internal/telemetry"
)

// Handler processes an event. A returned error is logged; later handlers
// still run.
type Handler func(Event) error

// Bus fans ticker-feed events out to subscribers on the publisher's
// goroutine, in registration order. A slow handler stalls the feed's read
// loop, so heavy work belongs on the handler's own goroutine.
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
}

func NewBus() *Bus {
	return &Bus{handlers: make(map[EventType][]Handler)}
}

func (b *Bus) Subscribe(eventType EventType, h Handler) {
	b.mu.Lock()
	b.handlers[eventType] = append(b.handlers[eventType], h)
	b.mu.Unlock()
}

// SubscribeMarket registers fn for market data, unwrapping the payload.
func (b *Bus) SubscribeMarket(fn func(MarketEvent) error) {
	b.Subscribe(EventMarketData, func(e Event) error {
		me, ok := e.Payload.(MarketEvent)
		if !ok {
			return fmt.Errorf("market_data payload is %T", e.Payload)
		}
		return fn(me)
	})
}

// SubscribeStatus registers fn for WebSocket connect/disconnect changes.
func (b *Bus) SubscribeStatus(fn func(WSStatusEvent) error) {
	b.Subscribe(EventWSStatus, func(e Event) error {
		st, ok := e.Payload.(WSStatusEvent)
		if !ok {
			return fmt.Errorf("ws_status payload is %T", e.Payload)
		}
		return fn(st)
	})
}

func (b *Bus) Publish(e Event) {
	b.mu.RLock()
	handlers := b.handlers[e.Type]
	b.mu.RUnlock()

	for _, h := range handlers {
		if err := h(e); err != nil {
			telemetry.Warnf("events: %s handler: %v", e.Type, err)
		}
	}
}
