package stages

import (
	"context"
	"errors"
	"strings"

	"github.com/randalmurphal/resumeflow/chat"
	"github.com/randalmurphal/resumeflow/workflow"
)

var (
	// ErrNoSources indicates a run started without a posting or questions
	// document.
	ErrNoSources = errors.New("posting and questions sources are required")

	// ErrNoQuestions indicates the model produced no usable question.
	ErrNoQuestions = errors.New("no interview questions in model output")
)

// draftMarker separates reviewer instructions from the draft they judged.
const draftMarker = "[Reviewed draft]"

// Sources names the inputs of one run.
type Sources struct {
	Posting   string
	Questions string
}

type sourcesKey struct{}

// WithSources attaches per-run inputs to ctx. They take precedence over the
// sources a Retrieval stage was built with.
func WithSources(ctx context.Context, s Sources) context.Context {
	return context.WithValue(ctx, sourcesKey{}, s)
}

// SourcesFrom returns the sources attached to ctx, if any.
func SourcesFrom(ctx context.Context) (Sources, bool) {
	s, ok := ctx.Value(sourcesKey{}).(Sources)
	return s, ok
}

// DraftText returns the draft inside a reviewed text: the tag is removed,
// and for a [REVISE] verdict so are the reviewer's instructions.
func DraftText(text string) string {
	text = workflow.StripTag(text)
	if _, after, ok := strings.Cut(text, draftMarker+"\n"); ok {
		return strings.TrimSpace(after)
	}
	return text
}

// instructions returns the reviewer's instructions inside a [REVISE] text.
func instructions(text string) string {
	text = workflow.StripTag(text)
	before, _, ok := strings.Cut(text, draftMarker+"\n")
	if !ok {
		return ""
	}
	return strings.TrimSpace(before)
}

func usage(u chat.Usage) workflow.Usage {
	return workflow.Usage{TokensIn: u.InputTokens, TokensOut: u.OutputTokens}
}
