package events

import "time"

// Event is the envelope that flows through the event bus.
type Event struct {
	ID        string
	Type      EventType
	Timestamp time.Time
	Payload   any
}

type EventType string

const (
	// Kalshi ticker channel updates
	EventMarketData EventType = "market_data"
	// Kalshi WebSocket connect/disconnect
	EventWSStatus EventType = "ws_status"
)
