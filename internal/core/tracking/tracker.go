package tracking

import (
	"time"

	"github.com/charleschow/kalshi-mm/internal/telemetry"
)

type Kind string

const (
	KindOrderPlaced    Kind = "order_placed"
	KindOrderFailed    Kind = "order_failed"
	KindFill           Kind = "fill"
	KindRepost         Kind = "repost"
	KindPause          Kind = "pause"
	KindCancel         Kind = "cancel"
	KindConditionOK    Kind = "condition_ok"
	KindConditionFails Kind = "condition_failed"
)

// Action is one journal row.
type Action struct {
	Engine     string
	Kind       Kind
	At         time.Time
	Ticker     string
	Side       string
	OrderID    string
	PriceCents int
	Count      int

	TotalFilled *int // market making only
	Combined    *int // combined condition only

	Detail string
}

// Tracker stamps actions with an engine name and writes them to a Store.
// Write failures are logged and dropped. A nil Tracker discards everything.
type Tracker struct {
	store  *Store
	engine string
}

func NewTracker(store *Store, engine string) *Tracker {
	if store == nil {
		return nil
	}
	return &Tracker{store: store, engine: engine}
}

func (t *Tracker) Track(a Action) {
	if t == nil {
		return
	}
	a.Engine = t.engine
	if _, err := t.store.Insert(a); err != nil {
		telemetry.Warnf("journal: %s %s: %v", a.Kind, a.Ticker, err)
	}
}

// IntPtr is a convenience for the optional total columns.
func IntPtr(v int) *int { return &v }
