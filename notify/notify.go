package notify

import (
	"context"
	"time"
)

// =============================================================================
// Event Types
// =============================================================================

// EventType identifies what happened in a workflow run.
type EventType string

// Event type constants.
const (
	EventRunStarted        EventType = "run_started"
	EventRunCompleted      EventType = "run_completed"
	EventRunFailed         EventType = "run_failed"
	EventNodeFailed        EventType = "node_failed"
	EventReviewMalformed   EventType = "review_malformed"
	EventBudgetExhausted   EventType = "budget_exhausted"
	EventDocumentPublished EventType = "document_published"
)

// Severity ranks events; notifiers may drop anything below a threshold.
type Severity string

// Severity constants, lowest first.
const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

var severityRank = map[Severity]int{
	SeverityInfo:    0,
	SeverityWarning: 1,
	SeverityError:   2,
}

// AtLeast reports whether s is as severe as min. Unknown severities rank as info.
func (s Severity) AtLeast(min Severity) bool {
	return severityRank[s] >= severityRank[min]
}

// Event describes something that happened during a run.
type Event struct {
	Type      EventType      `json:"type"`
	RunID     string         `json:"run_id"`
	FlowID    string         `json:"flow_id,omitempty"`
	NodeID    string         `json:"node_id,omitempty"`
	Message   string         `json:"message"`
	Severity  Severity       `json:"severity"`
	Timestamp time.Time      `json:"timestamp"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// =============================================================================
// Notifier Interface
// =============================================================================

// Notifier delivers workflow events somewhere. A failed delivery is reported
// to the caller but must never be treated as a failed run.
type Notifier interface {
	Notify(ctx context.Context, event Event) error
}

// Func adapts a plain function to Notifier.
type Func func(ctx context.Context, event Event) error

// Notify implements Notifier.
func (f Func) Notify(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// Threshold forwards only events at or above min to next.
func Threshold(next Notifier, min Severity) Notifier {
	return Func(func(ctx context.Context, event Event) error {
		if !event.Severity.AtLeast(min) {
			return nil
		}
		return next.Notify(ctx, event)
	})
}

// =============================================================================
// Context Injection
// =============================================================================

type contextKey struct{}

// WithNotifier attaches n to ctx so stages can emit their own events.
func WithNotifier(ctx context.Context, n Notifier) context.Context {
	return context.WithValue(ctx, contextKey{}, n)
}

// FromContext returns the notifier attached to ctx, or NopNotifier.
func FromContext(ctx context.Context) Notifier {
	if n, ok := ctx.Value(contextKey{}).(Notifier); ok && n != nil {
		return n
	}
	return NopNotifier{}
}
