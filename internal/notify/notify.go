// Package notify is the outbound event boundary. Every notifier is
// fire-and-forget: failures are logged and absorbed, never surfaced
// into an interaction's result.
package notify

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Event is the record broadcast after a processed interaction.
type Event struct {
	ID            string    `json:"id"`
	EcosystemID   string    `json:"ecosystem_id"`
	Type          string    `json:"type"` // "interaction"
	InitiatorID   string    `json:"initiator_id"`
	InitiatorName string    `json:"initiator_name"`
	TargetID      string    `json:"target_id"`
	TargetName    string    `json:"target_name"`
	Kind          string    `json:"kind"`
	Sentiment     float64   `json:"sentiment"`
	StrengthDelta float64   `json:"strength_delta"`
	TrustDelta    float64   `json:"trust_delta"`
	NewStrength   float64   `json:"new_strength"`
	NewTrust      float64   `json:"new_trust"`
	Response      string    `json:"response"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// Notifier broadcasts an event for an ecosystem.
type Notifier interface {
	Notify(ctx context.Context, ecosystemID string, ev *Event) error
}

// Nop discards all events. Used in tests and when no backend is
// configured.
type Nop struct{}

// Notify does nothing.
func (Nop) Notify(context.Context, string, *Event) error { return nil }

// Multi fans an event out to several notifiers. Individual failures
// are logged and do not stop the fan-out.
type Multi struct {
	notifiers []Notifier
	logger    *zap.Logger
}

// NewMulti composes notifiers into one.
func NewMulti(logger *zap.Logger, notifiers ...Notifier) *Multi {
	return &Multi{notifiers: notifiers, logger: logger}
}

// Notify delivers to every backend, best effort.
func (m *Multi) Notify(ctx context.Context, ecosystemID string, ev *Event) error {
	for _, n := range m.notifiers {
		if err := n.Notify(ctx, ecosystemID, ev); err != nil {
			m.logger.Warn("notifier failed",
				zap.String("ecosystem", ecosystemID),
				zap.String("event", ev.ID),
				zap.Error(err))
		}
	}
	return nil
}
