package kalshi_http

import (
	"context"

	"github.com/charleschow/kalshi-mm/internal/telemetry"
)

// Probe logs exchange status and account balance. Failures are logged and
// otherwise ignored; it exists so an operator sees a bad key or a halted
// exchange before any quote goes out.
func (c *Client) Probe(ctx context.Context) {
	status, err := c.GetExchangeStatus(ctx)
	if err != nil {
		telemetry.Warnf("kalshi: exchange status: %v", err)
	} else {
		telemetry.Infof("kalshi: exchange_active=%v trading_active=%v", status.ExchangeActive, status.TradingActive)
	}

	balance, err := c.GetBalance(ctx)
	if err != nil {
		telemetry.Warnf("kalshi: balance: %v", err)
		return
	}
	telemetry.Infof("kalshi: balance=$%d.%02d", balance/100, balance%100)
}
