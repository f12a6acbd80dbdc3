// Package notify publishes best-effort change events for saved summaries.
package notify

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/use-agent/recipebox/config"
)

// Event types.
const (
	EventSaved   = "summary.saved"
	EventDeleted = "summary.deleted"
)

// Event describes one change to the store.
type Event struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Key       string    `json:"key"`
	Title     string    `json:"title,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewEvent stamps a fresh ID onto an event.
func NewEvent(typ, key, title string, at time.Time) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      typ,
		Key:       key,
		Title:     title,
		Timestamp: at,
	}
}

// Notifier delivers events. Implementations must not block the caller
// for long; failures are reported but never retried by the caller.
type Notifier interface {
	Notify(ctx context.Context, ev Event) error
	Close() error
}

// Nop discards every event.
type Nop struct{}

func (Nop) Notify(context.Context, Event) error { return nil }
func (Nop) Close() error                        { return nil }

// Multi fans an event out to several notifiers.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, ev Event) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m Multi) Close() error {
	var errs []error
	for _, n := range m {
		if err := n.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// FromConfig builds the notifiers enabled in cfg, or Nop if none are.
func FromConfig(cfg config.NotifyConfig) (Notifier, error) {
	var out Multi
	if cfg.WebhookURL != "" {
		out = append(out, NewWebhook(cfg.WebhookURL, cfg.WebhookSecret))
		slog.Info("webhook notifications enabled", "url", cfg.WebhookURL)
	}
	if len(cfg.KafkaBrokers) > 0 {
		k, err := DialKafka(cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			_ = out.Close()
			return nil, err
		}
		out = append(out, k)
		slog.Info("kafka notifications enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	}

	switch len(out) {
	case 0:
		return Nop{}, nil
	case 1:
		return out[0], nil
	}
	return out, nil
}
