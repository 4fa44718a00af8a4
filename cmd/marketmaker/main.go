package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/charleschow/kalshi-mm/internal/adapters/kalshi_auth"
	"github.com/charleschow/kalshi-mm/internal/adapters/outbound/kalshi_http"
	"github.com/charleschow/kalshi-mm/internal/adapters/outbound/webhook"
	"github.com/charleschow/kalshi-mm/internal/config"
	"github.com/charleschow/kalshi-mm/internal/core/marketmaking"
	"github.com/charleschow/kalshi-mm/internal/core/tracking"
	"github.com/charleschow/kalshi-mm/internal/telemetry"
)

func main() {
	cfg := config.Load()
	configPath := flag.String("config", cfg.MarketMakingConfigPath, "market making config (json or yaml)")
	flag.Parse()

	telemetry.InitWithFile(telemetry.ParseLogLevel(cfg.LogLevel), cfg.LogFile)

	// ── Config ──────────────────────────────────────────────────
	mmCfg, err := config.LoadMarketMaking(*configPath)
	if err != nil {
		telemetry.Errorf("Config: %v", err)
		os.Exit(1)
	}
	if err := cfg.ValidateCredentials(); err != nil {
		telemetry.Errorf("Config: %v", err)
		os.Exit(1)
	}
	env := cfg.ResolveEnv(mmCfg.Env)
	endpoints, err := config.EndpointsFor(env)
	if err != nil {
		telemetry.Errorf("Config: %v", err)
		os.Exit(1)
	}

	// ── Kalshi auth + client ────────────────────────────────────
	signer, err := kalshi_auth.NewSignerFromFile(cfg.KalshiKeyID, cfg.KalshiKeyFile)
	if err != nil {
		telemetry.Errorf("Kalshi auth: %v", err)
		os.Exit(1)
	}
	client := kalshi_http.NewClient(endpoints.RESTBaseURL, signer, kalshi_http.WithRateInterval(cfg.RateInterval))
	telemetry.Infof("Kalshi env=%s api=%s rate_interval=%s", env, endpoints.RESTBaseURL, cfg.RateInterval)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client.Probe(ctx)

	// ── Journal ─────────────────────────────────────────────────
	var opts []marketmaking.Option
	var store *tracking.Store
	if cfg.JournalPath != "" {
		store, err = tracking.OpenStore(cfg.JournalPath)
		if err != nil {
			telemetry.Warnf("Journal disabled: %v", err)
		} else {
			opts = append(opts, marketmaking.WithJournal(tracking.NewTracker(store, "marketmaking")))
		}
	}

	// ── Engine ──────────────────────────────────────────────────
	notifier := webhook.NewNotifier(mmCfg.AlertWebhookURL)
	engine := marketmaking.NewEngine(client, notifier, mmCfg, opts...)
	engine.Run(ctx)

	telemetry.Infof("Shutting down...")
	if store != nil {
		store.Close()
	}
	telemetry.Infof("Shutdown complete  %s", telemetry.Metrics.Summary())
}
