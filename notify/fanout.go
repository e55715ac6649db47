package notify

import (
	"context"
	"errors"
)

// MultiNotifier delivers each event to every notifier in order. One failing
// notifier does not stop the rest; all failures are joined.
type MultiNotifier []Notifier

// NewMultiNotifier combines notifiers, skipping nil entries.
func NewMultiNotifier(notifiers ...Notifier) MultiNotifier {
	m := make(MultiNotifier, 0, len(notifiers))
	for _, n := range notifiers {
		if n != nil {
			m = append(m, n)
		}
	}
	return m
}

// Notify implements Notifier.
func (m MultiNotifier) Notify(ctx context.Context, event Event) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NopNotifier discards every event.
type NopNotifier struct{}

// Notify implements Notifier.
func (NopNotifier) Notify(context.Context, Event) error {
	return nil
}
