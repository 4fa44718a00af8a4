package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/charleschow/kalshi-mm/internal/adapters/inbound/kalshi_ws"
	"github.com/charleschow/kalshi-mm/internal/adapters/kalshi_auth"
	"github.com/charleschow/kalshi-mm/internal/config"
	"github.com/charleschow/kalshi-mm/internal/events"
	"github.com/charleschow/kalshi-mm/internal/telemetry"
)

func main() {
	cfg := config.Load()
	tickers := flag.String("tickers", "", "comma-separated market tickers")
	env := flag.String("env", "", "DEMO or PROD (default KALSHI_ENV, then DEMO)")
	flag.Parse()

	telemetry.InitWithFile(telemetry.ParseLogLevel(cfg.LogLevel), cfg.LogFile)

	var list []string
	for _, t := range strings.Split(*tickers, ",") {
		if t = strings.TrimSpace(t); t != "" {
			list = append(list, t)
		}
	}
	if len(list) == 0 {
		fmt.Fprintln(os.Stderr, "usage: go run ./cmd/tickerfeed -tickers KXA,KXB [-env PROD]")
		os.Exit(1)
	}
	if err := cfg.ValidateCredentials(); err != nil {
		telemetry.Errorf("Config: %v", err)
		os.Exit(1)
	}
	endpoints, err := config.EndpointsFor(cfg.ResolveEnv(*env))
	if err != nil {
		telemetry.Errorf("Config: %v", err)
		os.Exit(1)
	}

	signer, err := kalshi_auth.NewSignerFromFile(cfg.KalshiKeyID, cfg.KalshiKeyFile)
	if err != nil {
		telemetry.Errorf("Kalshi auth: %v", err)
		os.Exit(1)
	}

	bus := events.NewBus()
	bus.SubscribeMarket(func(me events.MarketEvent) error {
		telemetry.Infof("%s yes %d/%d  no %d/%d  last=%d vol=%d",
			me.Ticker, me.YesBid, me.YesAsk, me.NoBid, me.NoAsk, me.LastPrice, me.Volume)
		return nil
	})
	bus.SubscribeStatus(func(st events.WSStatusEvent) error {
		if !st.Connected {
			telemetry.Warnf("ticker feed disconnected")
		}
		return nil
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ws := kalshi_ws.NewClient(endpoints.WSURL, signer, bus)
	ws.SubscribeTickers(list)
	if err := ws.Connect(ctx); err != nil {
		telemetry.Errorf("Kalshi WS: %v", err)
		os.Exit(1)
	}

	<-ws.Done()
	telemetry.Infof("Shutdown complete")
}
