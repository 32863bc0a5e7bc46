package webhooks

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/oakmont-labs/memberhub/pkg/async"
	"github.com/oakmont-labs/memberhub/pkg/observability"
)

const (
	signatureHeader = "X-MemberHub-Signature"
	eventHeader     = "X-MemberHub-Event"

	maxAttempts  = 3
	initialDelay = 1 * time.Second
)

// Notifier delivers events to the configured workflow endpoint.
// Delivery failures never propagate to the request that triggered the
// event; the caller decides between Send and the detached NotifyAsync.
type Notifier struct {
	url     string
	secret  string
	client  *http.Client
	timeout time.Duration
	logger  *observability.Logger
	metrics *observability.Metrics
}

// NewNotifier creates a notifier. An empty url disables delivery.
func NewNotifier(url, secret string, timeout time.Duration, logger *observability.Logger, metrics *observability.Metrics) *Notifier {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Notifier{
		url:     url,
		secret:  secret,
		client:  &http.Client{Timeout: timeout},
		timeout: timeout,
		logger:  logger,
		metrics: metrics,
	}
}

// Enabled reports whether a delivery endpoint is configured.
func (n *Notifier) Enabled() bool {
	return n.url != ""
}

// NotifyAsync delivers the event in the background. The task survives
// the originating request but keeps its request id for log lines.
func (n *Notifier) NotifyAsync(ctx context.Context, event *Event) {
	if !n.Enabled() {
		return
	}
	taskCtx := async.Detached(ctx)
	budget := time.Duration(maxAttempts)*n.timeout + 10*time.Second
	async.SafeGo(taskCtx, budget, "webhook delivery", func(ctx context.Context) error {
		return n.Send(ctx, event)
	})
}

// Send delivers the event, retrying transient failures with backoff.
func (n *Notifier) Send(ctx context.Context, event *Event) error {
	if !n.Enabled() {
		return nil
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	var lastErr error
	delay := initialDelay
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
			delay *= 2
		}

		lastErr = n.deliver(ctx, event, payload)
		if lastErr == nil {
			n.countDelivery(event, "success")
			return nil
		}
		n.logger.FromContext(ctx).WithError(lastErr).WithFields(map[string]interface{}{
			"event":   string(event.Type),
			"attempt": attempt,
		}).Warn("webhook delivery failed")
	}

	n.countDelivery(event, "failure")
	return fmt.Errorf("webhook delivery gave up after %d attempts: %w", maxAttempts, lastErr)
}

func (n *Notifier) deliver(ctx context.Context, event *Event, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(eventHeader, string(event.Type))
	if n.secret != "" {
		req.Header.Set(signatureHeader, Sign(payload, n.secret))
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("endpoint returned status %d", resp.StatusCode)
	}
	return nil
}

func (n *Notifier) countDelivery(event *Event, outcome string) {
	if n.metrics != nil {
		n.metrics.WebhookDeliveries.WithLabelValues(string(event.Type), outcome).Inc()
	}
}

// Sign generates the HMAC-SHA256 signature for a payload.
func Sign(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature verifies the webhook signature
func VerifySignature(payload []byte, signature, secret string) bool {
	expected := Sign(payload, secret)
	return hmac.Equal([]byte(expected), []byte(signature))
}
