// Package notify delivers workflow events to people and systems.
//
// The engine emits an Event when a run starts, completes or fails, and when
// something unusual happens inside a run: a review with no recognisable tag,
// or a draft forced through after the retry budget ran out.
//
// Implementations:
//   - LogNotifier writes events to slog
//   - WebhookNotifier posts the event as JSON
//   - SlackNotifier posts a Slack attachment
//   - MultiNotifier fans out to several notifiers
//   - NopNotifier discards everything
//
// Threshold wraps any notifier to drop events below a severity:
//
//	n := notify.NewMultiNotifier(
//	    notify.NewLogNotifier(logger),
//	    notify.Threshold(notify.NewSlackNotifier(url), notify.SeverityWarning),
//	)
package notify
