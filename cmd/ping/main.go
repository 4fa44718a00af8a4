// Measure round-trip latency to the Kalshi trade API.
//
// Times a cold unsigned request, then n signed exchange-status calls through
// the rate-limited client, and optionally WebSocket ping/pong on a signed
// connection.
//
// Usage:
//
//	go run ./cmd/ping                 # KALSHI_ENV, 20 requests
//	go run ./cmd/ping -env PROD -n 50
//	go run ./cmd/ping -ws
package main

import (
	"context"
	"flag"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/charleschow/kalshi-mm/internal/adapters/kalshi_auth"
	"github.com/charleschow/kalshi-mm/internal/adapters/outbound/kalshi_http"
	"github.com/charleschow/kalshi-mm/internal/config"
)

const (
	statusPath  = "/trade-api/v2/exchange/status"
	httpTimeout = 10 * time.Second
	pongTimeout = 5 * time.Second
)

func main() {
	cfg := config.Load()
	env := flag.String("env", "", "DEMO or PROD (default KALSHI_ENV, then DEMO)")
	n := flag.Int("n", 20, "requests per endpoint")
	ws := flag.Bool("ws", false, "also measure WebSocket ping/pong latency")
	flag.Parse()

	resolved := cfg.ResolveEnv(*env)
	endpoints, err := config.EndpointsFor(resolved)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("\n%s\n  KALSHI %s  %s\n%s\n", strings.Repeat("=", 55), resolved, endpoints.RESTBaseURL, strings.Repeat("=", 55))

	fmt.Println("\n  Cold-start request (DNS + TLS + HTTP):")
	if ms, code, err := coldRequest(endpoints.RESTBaseURL + statusPath); err != nil {
		fmt.Printf("    FAILED: %v\n", err)
	} else {
		fmt.Printf("    %.1f ms  (HTTP %d)\n", ms, code)
	}

	var signer *kalshi_auth.Signer
	if err := cfg.ValidateCredentials(); err != nil {
		fmt.Printf("\n  [!] %v; skipping signed requests\n", err)
	} else if signer, err = kalshi_auth.NewSignerFromFile(cfg.KalshiKeyID, cfg.KalshiKeyFile); err != nil {
		fmt.Printf("\n  [!] load key: %v; skipping signed requests\n", err)
	}
	if signer == nil {
		fmt.Println()
		return
	}

	fmt.Printf("\n  Signed exchange status (%d requests, rate_interval=%s):\n", *n, cfg.RateInterval)
	client := kalshi_http.NewClient(endpoints.RESTBaseURL, signer, kalshi_http.WithRateInterval(cfg.RateInterval))
	printStats(signedLatencies(client, *n), "Kalshi HTTP")

	if *ws {
		fmt.Printf("\n  WebSocket ping/pong latency (%d pings):\n", *n)
		printStats(wsLatencies(endpoints.WSURL, signer, *n), "Kalshi WebSocket")
	}
	fmt.Println()
}

func coldRequest(u string) (ms float64, status int, err error) {
	c := &http.Client{Timeout: httpTimeout}
	start := time.Now()
	resp, err := c.Get(u)
	if err != nil {
		return 0, 0, err
	}
	defer resp.Body.Close()
	return millis(time.Since(start)), resp.StatusCode, nil
}

func signedLatencies(client *kalshi_http.Client, n int) []float64 {
	pad := len(fmt.Sprint(n))
	out := make([]float64, 0, n)
	for i := 1; i <= n; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), httpTimeout)
		start := time.Now()
		st, err := client.GetExchangeStatus(ctx)
		elapsed := time.Since(start)
		cancel()
		if err != nil {
			fmt.Printf("  [%*d/%d]  FAILED: %v\n", pad, i, n, err)
			continue
		}
		out = append(out, millis(elapsed))
		fmt.Printf("  [%*d/%d]  %7.1f ms  trading_active=%v\n", pad, i, n, millis(elapsed), st.TradingActive)
	}
	return out
}

func wsLatencies(wsURL string, signer *kalshi_auth.Signer, n int) []float64 {
	u, err := url.Parse(wsURL)
	if err != nil {
		fmt.Printf("  [!] invalid WS URL: %v\n", err)
		return nil
	}
	header, err := signer.Headers(http.MethodGet, u.Path)
	if err != nil {
		fmt.Printf("  [!] sign: %v\n", err)
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, header)
	if err != nil {
		fmt.Printf("  [!] dial: %v\n", err)
		return nil
	}
	defer conn.Close()

	pong := make(chan struct{}, 1)
	conn.SetPongHandler(func(string) error {
		select {
		case pong <- struct{}{}:
		default:
		}
		return nil
	})
	// Control frames are only processed while reading.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	out := make([]float64, 0, n)
	pad := len(fmt.Sprint(n))
	for i := 1; i <= n; i++ {
		start := time.Now()
		if err := conn.WriteControl(websocket.PingMessage, nil, start.Add(pongTimeout)); err != nil {
			fmt.Printf("  [!] ping: %v\n", err)
			break
		}
		select {
		case <-pong:
			ms := millis(time.Since(start))
			out = append(out, ms)
			fmt.Printf("  [%*d/%d]  %7.1f ms\n", pad, i, n, ms)
		case <-time.After(pongTimeout):
			fmt.Println("  [!] pong timeout")
			return out
		}
	}
	return out
}

func millis(d time.Duration) float64 { return float64(d.Microseconds()) / 1000 }

func printStats(samples []float64, label string) {
	if len(samples) < 2 {
		fmt.Printf("\n  Not enough %s samples for statistics.\n", label)
		return
	}
	sorted := append([]float64(nil), samples...)
	sort.Float64s(sorted)

	var mean float64
	for _, v := range samples {
		mean += v
	}
	mean /= float64(len(samples))
	var variance float64
	for _, v := range samples {
		variance += (v - mean) * (v - mean)
	}
	stdev := math.Sqrt(variance / float64(len(samples)-1))

	pct := func(p float64) float64 {
		return sorted[min(int(float64(len(sorted))*p), len(sorted)-1)]
	}

	fmt.Printf("\n  --- %s (%d samples) ---\n", label, len(samples))
	fmt.Printf("  Min:    %7.1f ms\n", sorted[0])
	fmt.Printf("  Max:    %7.1f ms\n", sorted[len(sorted)-1])
	fmt.Printf("  Mean:   %7.1f ms\n", mean)
	fmt.Printf("  Median: %7.1f ms\n", pct(0.50))
	fmt.Printf("  Stdev:  %7.1f ms\n", stdev)
	fmt.Printf("  p95:    %7.1f ms\n", pct(0.95))
	fmt.Printf("  p99:    %7.1f ms\n", pct(0.99))
}
