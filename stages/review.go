package stages

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/randalmurphal/resumeflow/chat"
	"github.com/randalmurphal/resumeflow/prompt"
	"github.com/randalmurphal/resumeflow/task"
	"github.com/randalmurphal/resumeflow/workflow"
)

// Instructions substituted when the reviewer's answer is unusable.
const (
	emptyReviewInstruction = "+ The review returned nothing. Re-check every answer against the five criteria and tighten each one."
	formatInstruction      = "+ The review did not follow the required format. Apply the reviewer's notes below to every answer."
)

// Review judges a draft and tags it [PASS] or [REVISE].
type Review struct {
	chat        chat.Completer
	prompts     *prompt.Loader
	models      *task.Router
	earlyPassAt int
	logger      *slog.Logger
}

// NewReview creates the review stage. Once a run's retry count reaches
// earlyPassAt the draft is passed without a model call; a negative value
// disables the shortcut. The shortcut never applies once the retry budget is
// spent, so the last review of an exhausted run is always the model's.
func NewReview(c chat.Completer, prompts *prompt.Loader, models *task.Router, earlyPassAt int, logger *slog.Logger) *Review {
	if logger == nil {
		logger = slog.Default()
	}
	return &Review{chat: c, prompts: prompts, models: models, earlyPassAt: earlyPassAt, logger: logger}
}

// Run implements workflow.Stage.
func (r *Review) Run(ctx context.Context, state workflow.State) (workflow.Patch, error) {
	draft := DraftText(state.ResumeText)

	if r.earlyPassAt >= 0 && state.RetryCount >= r.earlyPassAt && state.RetryCount < state.MaxRetries {
		r.logger.Info("review skipped, early pass threshold reached",
			"run_id", state.RunID,
			"retry_count", state.RetryCount,
		)
		return workflow.ResumePatch(workflow.Tagged(workflow.TagPass, draft)), nil
	}

	system, err := r.prompts.Render(prompt.Review, map[string]any{
		"PassToken":   workflow.PassToken,
		"ReviseToken": workflow.ReviseToken,
	})
	if err != nil {
		return workflow.Patch{}, err
	}

	resp, err := r.chat.Complete(ctx, chat.Request{
		Model:       r.models.ModelFor(task.Review),
		System:      system,
		Prompt:      prompt.NewBuilder().Section("Application essay", draft).Build(),
		Temperature: chat.Temperature(0),
	})
	if err != nil {
		return workflow.Patch{}, fmt.Errorf("review: %w", err)
	}

	tag, notes := normalizeReview(resp.Text)
	r.logger.Debug("review verdict", "run_id", state.RunID, "tag", tag.String(), "retry_count", state.RetryCount)

	return workflow.ResumePatch(Reviewed(tag, notes, draft)).WithUsage(usage(resp.Usage)), nil
}

// Reviewed renders a review verdict. A [PASS] carries only the draft; a
// [REVISE] carries the instructions and then the draft they refer to.
func Reviewed(tag workflow.Tag, notes, draft string) string {
	if tag != workflow.TagRevise {
		return workflow.Tagged(tag, draft)
	}
	body := prompt.NewBuilder().Add(notes).Add(draftMarker + "\n" + draft).Build()
	return workflow.Tagged(tag, body)
}

// normalizeReview coerces model output into a tag and instructions. Anything
// without a leading tag becomes [REVISE] so the next draft gets feedback.
func normalizeReview(text string) (workflow.Tag, string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return workflow.TagRevise, emptyReviewInstruction
	}

	switch tag := workflow.ParseTag(text); tag {
	case workflow.TagPass:
		return tag, ""
	case workflow.TagRevise:
		return tag, workflow.StripTag(text)
	default:
		return workflow.TagRevise, formatInstruction + "\n" + text
	}
}
