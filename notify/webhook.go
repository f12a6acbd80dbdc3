package notify

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// SignatureHeader carries "sha256=<hex>" of the body when a secret is set.
const SignatureHeader = "X-Recipebox-Signature"

// Webhook POSTs events as JSON, retrying in the background.
type Webhook struct {
	URL    string
	Secret string

	client *http.Client
	delays []time.Duration
	grace  time.Duration

	// ctx is cancelled when Close gives up waiting, which aborts pending
	// retries and in-flight requests.
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewWebhook creates a Webhook with retries after 1s, 5s and 30s. Close
// waits at most 3s for deliveries still in progress.
func NewWebhook(url, secret string) *Webhook {
	ctx, cancel := context.WithCancel(context.Background())
	return &Webhook{
		URL:    url,
		Secret: secret,
		client: &http.Client{Timeout: 10 * time.Second},
		delays: []time.Duration{0, time.Second, 5 * time.Second, 30 * time.Second},
		grace:  3 * time.Second,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Notify starts delivery in the background and returns immediately.
func (w *Webhook) Notify(_ context.Context, ev Event) error {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.deliverWithRetry(ev)
	}()
	return nil
}

// Close waits for in-flight deliveries, abandoning any still pending
// after the grace period.
func (w *Webhook) Close() error {
	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	timer := time.NewTimer(w.grace)
	defer timer.Stop()
	select {
	case <-done:
	case <-timer.C:
		slog.Warn("webhook deliveries still pending at close, abandoning", "url", w.URL)
		w.cancel()
		<-done
	}
	w.cancel()
	return nil
}

func (w *Webhook) deliverWithRetry(ev Event) {
	for attempt, delay := range w.delays {
		if delay > 0 {
			timer := time.NewTimer(delay)
			select {
			case <-timer.C:
			case <-w.ctx.Done():
				timer.Stop()
				slog.Warn("webhook delivery abandoned", "url", w.URL, "event", ev.Type, "id", ev.ID, "attempt", attempt+1)
				return
			}
		}
		ctx, cancel := context.WithTimeout(w.ctx, 10*time.Second)
		err := w.Deliver(ctx, ev)
		cancel()
		if err == nil {
			slog.Info("webhook delivered",
				"url", w.URL,
				"event", ev.Type,
				"id", ev.ID,
				"attempt", attempt+1,
			)
			return
		}
		slog.Warn("webhook delivery failed",
			"url", w.URL,
			"event", ev.Type,
			"id", ev.ID,
			"attempt", attempt+1,
			"error", err,
		)
		if w.ctx.Err() != nil {
			return
		}
	}
	slog.Error("webhook delivery exhausted all retries", "url", w.URL, "event", ev.Type, "id", ev.ID)
}

// Deliver sends one event synchronously.
func (w *Webhook) Deliver(ctx context.Context, ev Event) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("webhook: marshal event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("webhook: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Recipebox-Webhook/1.0")
	if w.Secret != "" {
		req.Header.Set(SignatureHeader, "sha256="+Sign(w.Secret, body))
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook: deliver: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook: endpoint returned status %d", resp.StatusCode)
	}
	return nil
}

// Sign returns the hex HMAC-SHA256 of body under secret.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
