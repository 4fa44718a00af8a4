package trading

import (
	"sort"
	"sync"
)

// OpenOrder is a resting order placed by this process.
type OpenOrder struct {
	OrderID string
	Ticker  string
	Side    string
	Count   int
	Price   int
}

// OrderSet is the set of exchange order ids believed to be ours. An id is
// added only after a successful placement response.
type OrderSet struct {
	mu   sync.RWMutex
	open map[string]OpenOrder
}

func NewOrderSet() *OrderSet {
	return &OrderSet{open: make(map[string]OpenOrder)}
}

func (o *OrderSet) Track(order OpenOrder) {
	if order.OrderID == "" {
		return
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.open[order.OrderID] = order
}

func (o *OrderSet) Owns(orderID string) bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	_, ok := o.open[orderID]
	return ok
}

func (o *OrderSet) Get(orderID string) (OpenOrder, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	order, ok := o.open[orderID]
	return order, ok
}

func (o *OrderSet) Remove(orderID string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.open, orderID)
}

func (o *OrderSet) Len() int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return len(o.open)
}

// Orders returns a snapshot sorted by order id.
func (o *OrderSet) Orders() []OpenOrder {
	o.mu.RLock()
	defer o.mu.RUnlock()
	out := make([]OpenOrder, 0, len(o.open))
	for _, order := range o.open {
		out = append(out, order)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OrderID < out[j].OrderID })
	return out
}

// Clear empties the set and returns what it held.
func (o *OrderSet) Clear() []OpenOrder {
	out := o.Orders()
	o.mu.Lock()
	o.open = make(map[string]OpenOrder)
	o.mu.Unlock()
	return out
}

// ProcessedSet remembers execution ids that have already been handled so a
// fill returned by several polls is counted once.
type ProcessedSet struct {
	mu   sync.Mutex
	seen map[string]bool
}

func NewProcessedSet() *ProcessedSet {
	return &ProcessedSet{seen: make(map[string]bool)}
}

// Mark records id and reports whether it was new.
func (p *ProcessedSet) Mark(id string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.seen[id] {
		return false
	}
	p.seen[id] = true
	return true
}

func (p *ProcessedSet) Seen(id string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.seen[id]
}

// InstrumentState is the mutable per-stake state of the market maker. Only
// the engine's fill-processing step writes to it.
type InstrumentState struct {
	Ticker        string
	TotalFilled   int
	LastFillPrice int // 0 until the first fill
	Orders        *OrderSet
	Paused        bool
	PauseReason   string
}

func NewInstrumentState(ticker string) *InstrumentState {
	return &InstrumentState{Ticker: ticker, Orders: NewOrderSet()}
}

// RecordFill adds count to the running total. price is kept only when known.
func (s *InstrumentState) RecordFill(count, price int) {
	s.TotalFilled += count
	if price > 0 {
		s.LastFillPrice = price
	}
}

// Remaining is how many more shares may fill before maxShares is hit.
func (s *InstrumentState) Remaining(maxShares int) int {
	return max(0, maxShares-s.TotalFilled)
}

// Pause is terminal for the run.
func (s *InstrumentState) Pause(reason string) {
	s.Paused = true
	s.PauseReason = reason
}
