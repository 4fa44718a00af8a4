package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/charleschow/kalshi-mm/internal/telemetry"
)

func TestNotifier_PostsReasonAndDetails(t *testing.T) {
	got := make(chan map[string]any, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q", ct)
		}
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		got <- body
	}))
	defer server.Close()

	n := NewNotifier(server.URL)
	n.Notify(context.Background(), "max_shares reached (20)", map[string]any{"ticker": "KX-A"})

	body := <-got
	if body["reason"] != "max_shares reached (20)" {
		t.Errorf("reason = %v", body["reason"])
	}
	if body["ticker"] != "KX-A" {
		t.Errorf("ticker = %v", body["ticker"])
	}
	if _, ok := body["content"]; ok {
		t.Error("content should only be set for discord URLs")
	}
}

func TestNotifier_DetailsCannotOverrideReason(t *testing.T) {
	got := make(chan map[string]any, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		got <- body
	}))
	defer server.Close()

	NewNotifier(server.URL).Notify(context.Background(), "real", map[string]any{"reason": "fake", "combined": 101})

	body := <-got
	if body["reason"] != "real" {
		t.Errorf("reason = %v, want real", body["reason"])
	}
	if body["combined"] != float64(101) {
		t.Errorf("combined = %v", body["combined"])
	}
}

func TestNotifier_FailureIsSwallowed(t *testing.T) {
	var buf bytes.Buffer
	telemetry.InitWriter(&buf, slog.LevelDebug)
	t.Cleanup(func() { telemetry.Init(slog.LevelInfo) })

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	before := telemetry.Metrics.AlertsFailed.Value()
	NewNotifier(server.URL).Notify(context.Background(), "repost failed", nil)

	if telemetry.Metrics.AlertsFailed.Value() != before+1 {
		t.Error("AlertsFailed not incremented")
	}
	out := buf.String()
	if !strings.Contains(out, "ALERT: repost failed") {
		t.Errorf("alert not logged locally: %q", out)
	}
	if !strings.Contains(out, "alert delivery failed") {
		t.Errorf("delivery failure not logged: %q", out)
	}
}

func TestNotifier_UnreachableDoesNotBlock(t *testing.T) {
	n := NewNotifier("http://127.0.0.1:1/hook")
	n.httpClient.Timeout = 200 * time.Millisecond

	done := make(chan struct{})
	go func() {
		n.Notify(context.Background(), "x", nil)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(DefaultTimeout + time.Second):
		t.Fatal("Notify blocked past the delivery timeout")
	}
}

func TestNotifier_DisabledOnlyLogs(t *testing.T) {
	n := NewNotifier("")
	if n.Enabled() {
		t.Error("Enabled() = true for empty URL")
	}
	n.Notify(context.Background(), "no url", map[string]any{"ticker": "T"})
}

func TestNotifier_SendReturnsDeliveryError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	err := NewNotifier(server.URL).send(context.Background(), "r", nil)
	var de *DeliveryError
	if !errors.As(err, &de) {
		t.Fatalf("err = %v, want DeliveryError", err)
	}
	if de.StatusCode != http.StatusTooManyRequests {
		t.Errorf("StatusCode = %d", de.StatusCode)
	}
}

func TestFormatDetails_Sorted(t *testing.T) {
	got := formatDetails(map[string]any{"max_combined": 99, "combined": 101})
	if got != " combined=101 max_combined=99" {
		t.Errorf("formatDetails = %q", got)
	}
}
