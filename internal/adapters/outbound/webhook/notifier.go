package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/charleschow/kalshi-mm/internal/telemetry"
)

// DefaultTimeout bounds a single delivery attempt.
const DefaultTimeout = 5 * time.Second

// DeliveryError is a failed webhook POST. It is logged and never returned to
// strategy code.
type DeliveryError struct {
	StatusCode int
	Err        error
}

func (e *DeliveryError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("alert webhook: %v", e.Err)
	}
	return fmt.Sprintf("alert webhook: status=%d", e.StatusCode)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

// Notifier is the engines' alert sink. Every alert is logged; when a URL is
// configured it is also POSTed once as JSON. Failures are swallowed.
type Notifier struct {
	webhookURL string
	httpClient *http.Client
}

func NewNotifier(webhookURL string) *Notifier {
	return &Notifier{
		webhookURL: webhookURL,
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}
}

func (n *Notifier) Enabled() bool { return n != nil && n.webhookURL != "" }

// Notify logs the alert and makes one best-effort delivery attempt. details
// keys are merged into the payload next to "reason".
func (n *Notifier) Notify(ctx context.Context, reason string, details map[string]any) {
	telemetry.Warnf("ALERT: %s%s", reason, formatDetails(details))

	if !n.Enabled() {
		return
	}
	if err := n.send(ctx, reason, details); err != nil {
		telemetry.Metrics.AlertsFailed.Inc()
		telemetry.Warnf("alert delivery failed: %v", err)
		return
	}
	telemetry.Metrics.AlertsSent.Inc()
}

func (n *Notifier) send(ctx context.Context, reason string, details map[string]any) error {
	payload := make(map[string]any, len(details)+2)
	for k, v := range details {
		payload[k] = v
	}
	payload["reason"] = reason
	// Discord webhooks reject bodies without content.
	if strings.Contains(n.webhookURL, "discord.com/api/webhooks") {
		payload["content"] = "ALERT: " + reason + formatDetails(details)
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return &DeliveryError{Err: fmt.Errorf("marshal payload: %w", err)}
	}

	ctx, cancel := context.WithTimeout(ctx, DefaultTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(data))
	if err != nil {
		return &DeliveryError{Err: fmt.Errorf("new request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return &DeliveryError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return &DeliveryError{StatusCode: resp.StatusCode}
	}
	return nil
}

func formatDetails(details map[string]any) string {
	if len(details) == 0 {
		return ""
	}
	keys := make([]string, 0, len(details))
	for k := range details {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, details[k])
	}
	return b.String()
}
