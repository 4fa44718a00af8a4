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
	"github.com/charleschow/kalshi-mm/internal/core/combined"
	"github.com/charleschow/kalshi-mm/internal/core/tracking"
	"github.com/charleschow/kalshi-mm/internal/telemetry"
)

func main() {
	cfg := config.Load()
	configPath := flag.String("config", cfg.CombinedConfigPath, "combined-no config (json or yaml)")
	flag.Parse()

	telemetry.InitWithFile(telemetry.ParseLogLevel(cfg.LogLevel), cfg.LogFile)

	cnCfg, err := config.LoadCombined(*configPath)
	if err != nil {
		telemetry.Errorf("Config: %v", err)
		os.Exit(1)
	}
	if err := cfg.ValidateCredentials(); err != nil {
		telemetry.Errorf("Config: %v", err)
		os.Exit(1)
	}
	env := cfg.ResolveEnv(cnCfg.Env)
	endpoints, err := config.EndpointsFor(env)
	if err != nil {
		telemetry.Errorf("Config: %v", err)
		os.Exit(1)
	}

	signer, err := kalshi_auth.NewSignerFromFile(cfg.KalshiKeyID, cfg.KalshiKeyFile)
	if err != nil {
		telemetry.Errorf("Kalshi auth: %v", err)
		os.Exit(1)
	}
	client := kalshi_http.NewClient(endpoints.RESTBaseURL, signer, kalshi_http.WithRateInterval(cfg.RateInterval))
	telemetry.Infof("Kalshi env=%s api=%s", env, endpoints.RESTBaseURL)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client.Probe(ctx)

	var opts []combined.Option
	var store *tracking.Store
	if cfg.JournalPath != "" {
		if store, err = tracking.OpenStore(cfg.JournalPath); err != nil {
			telemetry.Warnf("Journal disabled: %v", err)
		} else {
			opts = append(opts, combined.WithJournal(tracking.NewTracker(store, "combined")))
		}
	}

	engine := combined.NewEngine(client, webhook.NewNotifier(cnCfg.AlertWebhookURL), cnCfg, opts...)
	engine.Run(ctx)

	if store != nil {
		store.Close()
	}
	// Resting quotes are left on the book; the exchange holds them until
	// cancelled or filled.
	telemetry.Infof("Shutdown complete  quotes_up=%v  resting=%d  %s",
		engine.QuotesUp(), len(engine.Orders()), telemetry.Metrics.Summary())
}
