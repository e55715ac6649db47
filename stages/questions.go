package stages

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/randalmurphal/resumeflow/chat"
	"github.com/randalmurphal/resumeflow/prompt"
	"github.com/randalmurphal/resumeflow/task"
	"github.com/randalmurphal/resumeflow/workflow"
)

// QuestionCount is how many interview questions are generated.
const QuestionCount = 5

// listMarker matches list numbering and bullets: "1.", "2)", "Q3:", "-", "*".
var listMarker = regexp.MustCompile(`^(?:(?:[Qq]\s*)?\d+\s*[.):]|[-*•])\s*`)

// Questions writes interview questions that verify the draft.
type Questions struct {
	chat    chat.Completer
	prompts *prompt.Loader
	models  *task.Router
	logger  *slog.Logger
}

// NewQuestions creates the question stage.
func NewQuestions(c chat.Completer, prompts *prompt.Loader, models *task.Router, logger *slog.Logger) *Questions {
	if logger == nil {
		logger = slog.Default()
	}
	return &Questions{chat: c, prompts: prompts, models: models, logger: logger}
}

// Run implements workflow.Stage.
func (q *Questions) Run(ctx context.Context, state workflow.State) (workflow.Patch, error) {
	system, err := q.prompts.Render(prompt.Interview, map[string]any{"Count": QuestionCount})
	if err != nil {
		return workflow.Patch{}, err
	}

	resp, err := q.chat.Complete(ctx, chat.Request{
		Model:  q.models.ModelFor(task.Interview),
		System: system,
		Prompt: prompt.NewBuilder().Section("Application essay", DraftText(state.ResumeText)).Build(),
	})
	if err != nil {
		return workflow.Patch{}, fmt.Errorf("questions: %w", err)
	}

	items := ParseQuestions(resp.Text, QuestionCount)
	if len(items) == 0 {
		return workflow.Patch{}, ErrNoQuestions
	}
	if len(items) < QuestionCount {
		q.logger.Warn("fewer interview questions than requested",
			"run_id", state.RunID,
			"got", len(items),
			"want", QuestionCount,
		)
	}
	return workflow.QuestionsPatch(NumberedList(items)).WithUsage(usage(resp.Usage)), nil
}

// ParseQuestions extracts up to limit list items from text. Lines without a
// list marker continue the previous item; text before the first item is
// dropped.
func ParseQuestions(text string, limit int) []string {
	var items []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if loc := listMarker.FindStringIndex(line); loc != nil {
			if item := strings.TrimSpace(line[loc[1]:]); item != "" {
				items = append(items, item)
			}
			continue
		}
		if n := len(items); n > 0 {
			items[n-1] += " " + line
		}
	}
	if len(items) > limit {
		items = items[:limit]
	}
	return items
}

// NumberedList renders items as "1. ...".
func NumberedList(items []string) string {
	lines := make([]string, len(items))
	for i, item := range items {
		lines[i] = fmt.Sprintf("%d. %s", i+1, item)
	}
	return strings.Join(lines, "\n")
}
