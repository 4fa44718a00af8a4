package pricing

import (
	"errors"
	"fmt"

	"github.com/charleschow/kalshi-mm/internal/adapters/outbound/kalshi_http"
)

const (
	MinPrice = 1
	MaxPrice = 99
)

// ErrOrderbookUnavailable means a book could not be fetched or had no bids
// on the side needed. Callers substitute a conservative price.
var ErrOrderbookUnavailable = errors.New("orderbook unavailable")

// Snapshot is the top of the yes book in cents.
type Snapshot struct {
	BestBid int
	BestAsk int
}

// Conservative is used when the book is unreadable: widest possible market.
var Conservative = Snapshot{BestBid: MinPrice, BestAsk: MaxPrice}

// FromOrderbook derives the yes-side top of book from the bid ladders. A no
// bid at X is a yes ask at 100-X. Missing ladders fall back to 1 / 99.
func FromOrderbook(ob *kalshi_http.Orderbook) Snapshot {
	snap := Conservative
	if ob == nil {
		return snap
	}
	if n := len(ob.Yes); n > 0 {
		snap.BestBid = Clamp(ob.Yes[n-1].Price())
	}
	if n := len(ob.No); n > 0 {
		snap.BestAsk = Clamp(100 - ob.No[n-1].Price())
	}
	return snap
}

// BestNoAsk is the price at which we would offer no: 100 minus the best yes
// bid, clamped. Fails with ErrOrderbookUnavailable when there are no yes bids.
func BestNoAsk(ticker string, ob *kalshi_http.Orderbook) (int, error) {
	if ob == nil || len(ob.Yes) == 0 {
		return 0, fmt.Errorf("%s: %w: no yes bids", ticker, ErrOrderbookUnavailable)
	}
	return Clamp(100 - ob.Yes[len(ob.Yes)-1].Price()), nil
}

// Clamp bounds a price to [1, 99].
func Clamp(p int) int {
	return max(MinPrice, min(MaxPrice, p))
}
