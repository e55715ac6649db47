package stages

import (
	"context"
	"log/slog"
	"time"

	"github.com/randalmurphal/resumeflow/notify"
	"github.com/randalmurphal/resumeflow/publish"
	"github.com/randalmurphal/resumeflow/workflow"
)

// Finalize publishes the finished draft and questions.
type Finalize struct {
	publisher publish.Publisher
	logger    *slog.Logger
}

// NewFinalize creates the finalize stage. A nil publisher publishes nowhere.
func NewFinalize(p publish.Publisher, logger *slog.Logger) *Finalize {
	if p == nil {
		p = publish.NopPublisher{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Finalize{publisher: p, logger: logger}
}

// Run implements workflow.Stage.
func (f *Finalize) Run(ctx context.Context, state workflow.State) (workflow.Patch, error) {
	doc := publish.Document{
		RunID:     state.RunID,
		FlowID:    state.FlowID,
		Resume:    DraftText(state.ResumeText),
		Questions: state.Questions(),
		Forced:    state.BudgetExhausted(),
		CreatedAt: time.Now(),
	}

	f.logger.Info("finalizing",
		"run_id", state.RunID,
		"resume_chars", len([]rune(doc.Resume)),
		"question_chars", len([]rune(doc.Questions)),
		"retry_count", state.RetryCount,
	)
	if doc.Forced {
		f.logger.Warn("completed on retry budget, last draft never passed review",
			"run_id", state.RunID,
			"retry_count", state.RetryCount,
		)
	}

	url, err := f.publisher.Publish(ctx, doc)
	if err != nil {
		return workflow.Patch{}, err
	}
	if url == "" {
		return workflow.Patch{}, nil
	}

	f.logger.Info("document published", "run_id", state.RunID, "url", url)
	if err := notify.FromContext(ctx).Notify(ctx, notify.Event{
		Type:      notify.EventDocumentPublished,
		RunID:     state.RunID,
		FlowID:    state.FlowID,
		NodeID:    workflow.NodeFinalize.String(),
		Severity:  notify.SeverityInfo,
		Message:   "Application published",
		Timestamp: time.Now(),
		Metadata:  map[string]any{"url": url, "forced": doc.Forced},
	}); err != nil {
		f.logger.Warn("notification failed", "run_id", state.RunID, "error", err)
	}
	return workflow.DocumentPatch(url), nil
}
