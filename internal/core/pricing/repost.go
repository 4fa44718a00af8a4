package pricing

import (
	"github.com/charleschow/kalshi-mm/internal/adapters/outbound/kalshi_http"
	"github.com/charleschow/kalshi-mm/internal/config"
)

// DefaultFillPrice stands in for the last fill before any fill has happened.
const DefaultFillPrice = 50

// MarketMean is floor((bid+ask)/2): 48/49 gives 48.
func MarketMean(bid, ask int) int {
	return (bid + ask) / 2
}

// RepostSize is max(1, floor(original*pct/100)).
func RepostSize(original, pctReload int) int {
	return max(1, original*pctReload/100)
}

// RepostPrice picks the base price for a refill on side, subtracts
// centsOff, and clamps to [1, 99]. lastFill of 0 means no fill yet.
func RepostPrice(base config.RepostBase, lastFill int, snap Snapshot, side string, centsOff int) int {
	var p int
	switch base {
	case config.RepostMarketMean:
		p = MarketMean(snap.BestBid, snap.BestAsk)
	case config.RepostMarketBestOffer:
		if side == kalshi_http.SideNo {
			p = 100 - snap.BestBid
		} else {
			p = snap.BestAsk
		}
	default:
		p = lastFill
		if p <= 0 {
			p = DefaultFillPrice
		}
	}
	return Clamp(p - max(0, centsOff))
}
