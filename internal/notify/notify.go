// Package notify is the fire-and-forget side-channel for call events that
// should reach a participant outside the app (push, email). Delivery is
// best-effort and never blocks or fails the calling path.
package notify

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/observer/parley/internal/domain"
)

// EventKind classifies a notification.
type EventKind string

const (
	EventIncomingCall EventKind = "incoming_call"
	EventMissedCall   EventKind = "missed_call"
)

// Event is one notification to dispatch.
type Event struct {
	Kind       EventKind
	CallID     uuid.UUID
	Recipient  uuid.UUID
	CallerName string
	CallKind   domain.CallKind
}

// Notifier dispatches events to an external channel.
type Notifier interface {
	// Notify delivers the event. Errors are the dispatcher's problem;
	// callers treat the call as fire-and-forget.
	Notify(ctx context.Context, e Event)
}

// LogNotifier writes events to the log. It stands in for a real push
// provider in development and single-instance deployments.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a log-backed notifier.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.With("component", "notify")}
}

func (n *LogNotifier) Notify(ctx context.Context, e Event) {
	n.logger.Info("notification dispatched",
		"kind", e.Kind,
		"call_id", e.CallID,
		"recipient", e.Recipient,
		"caller_name", e.CallerName,
	)
}
