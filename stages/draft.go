package stages

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/randalmurphal/resumeflow/chat"
	"github.com/randalmurphal/resumeflow/evidence"
	"github.com/randalmurphal/resumeflow/prompt"
	"github.com/randalmurphal/resumeflow/task"
	"github.com/randalmurphal/resumeflow/workflow"
)

// Draft modes, sent at the head of the user message.
const (
	ModeCreate = "[CREATE]"
	ModeRevise = "[REVISE]"
)

// DefaultMaxChars bounds each answer item.
const DefaultMaxChars = 300

// EvidenceCollector gathers candidate evidence.
type EvidenceCollector interface {
	Collect(ctx context.Context) ([]evidence.Item, error)
}

// Draft writes or revises the application answers.
type Draft struct {
	chat     chat.Completer
	prompts  *prompt.Loader
	models   *task.Router
	evidence EvidenceCollector
	maxChars int
	logger   *slog.Logger
}

// DraftOption configures the draft stage.
type DraftOption func(*Draft)

// WithEvidence sets the evidence collector.
func WithEvidence(c EvidenceCollector) DraftOption {
	return func(d *Draft) { d.evidence = c }
}

// WithMaxChars sets the per-item character limit.
func WithMaxChars(n int) DraftOption {
	return func(d *Draft) { d.maxChars = n }
}

// WithDraftLogger sets the logger.
func WithDraftLogger(logger *slog.Logger) DraftOption {
	return func(d *Draft) { d.logger = logger }
}

// NewDraft creates the draft stage.
func NewDraft(c chat.Completer, prompts *prompt.Loader, models *task.Router, opts ...DraftOption) *Draft {
	d := &Draft{
		chat:     c,
		prompts:  prompts,
		models:   models,
		maxChars: DefaultMaxChars,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Mode returns the draft mode for the text a draft starts from: revise when
// it is a [REVISE] review, create otherwise. The retry count plays no part, so
// a run resumed with a leftover counter still writes its first draft fresh.
func Mode(text string) string {
	if workflow.ParseTag(text) == workflow.TagRevise {
		return ModeRevise
	}
	return ModeCreate
}

// Run implements workflow.Stage.
func (d *Draft) Run(ctx context.Context, state workflow.State) (workflow.Patch, error) {
	mode := Mode(state.ResumeText)
	revise := mode == ModeRevise

	system, err := d.prompts.Render(prompt.Draft, map[string]any{
		"MaxChars": d.maxChars,
		"Revise":   revise,
	})
	if err != nil {
		return workflow.Patch{}, err
	}

	b := prompt.NewBuilder().Add(mode)
	if revise {
		b.Section("Reviewer instructions", instructions(state.ResumeText)).
			Section("Previous draft", DraftText(state.ResumeText))
	} else {
		b.Section("Strategy", state.ResumeText)
	}
	b.List("Candidate evidence", d.collect(ctx, state))

	resp, err := d.chat.Complete(ctx, chat.Request{
		Model:       d.models.ModelFor(task.Draft),
		System:      system,
		Prompt:      b.Build(),
		Temperature: chat.Temperature(0.7),
	})
	if err != nil {
		return workflow.Patch{}, fmt.Errorf("draft %s: %w", mode, err)
	}

	d.logger.Debug("draft written",
		"run_id", state.RunID,
		"mode", mode,
		"retry_count", state.RetryCount,
		"chars", len([]rune(resp.Text)),
	)
	return workflow.ResumePatch(resp.Text).WithUsage(usage(resp.Usage)), nil
}

// collect returns evidence lines. Evidence is optional; failures are logged.
func (d *Draft) collect(ctx context.Context, state workflow.State) []string {
	if d.evidence == nil {
		return nil
	}
	items, err := d.evidence.Collect(ctx)
	if err != nil {
		if !errors.Is(err, evidence.ErrNoSources) {
			d.logger.Warn("evidence unavailable", "run_id", state.RunID, "error", err)
		}
		return nil
	}
	return evidence.Lines(items)
}
