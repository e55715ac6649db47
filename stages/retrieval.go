package stages

import (
	"context"
	"log/slog"

	"github.com/randalmurphal/resumeflow/retrieval"
	"github.com/randalmurphal/resumeflow/workflow"
)

// FailurePrefix starts the marker retrieval writes in place of an analysis.
const FailurePrefix = "RAG Failed: "

// Retriever produces the analysis and strategy document.
type Retriever interface {
	Retrieve(ctx context.Context, posting, questions string) (retrieval.Result, error)
}

// Retrieval is the retrieval stage. It never fails the run: an error becomes
// a visible marker in the draft text.
type Retrieval struct {
	retriever Retriever
	defaults  Sources
	logger    *slog.Logger
}

// NewRetrieval creates the stage. defaults are used when the run context
// carries no Sources.
func NewRetrieval(r Retriever, defaults Sources, logger *slog.Logger) *Retrieval {
	if logger == nil {
		logger = slog.Default()
	}
	return &Retrieval{retriever: r, defaults: defaults, logger: logger}
}

// Run implements workflow.Stage.
func (s *Retrieval) Run(ctx context.Context, state workflow.State) (workflow.Patch, error) {
	src, ok := SourcesFrom(ctx)
	if !ok {
		src = s.defaults
	}

	if src.Posting == "" || src.Questions == "" {
		return s.failed(state, ErrNoSources), nil
	}

	res, err := s.retriever.Retrieve(ctx, src.Posting, src.Questions)
	if err != nil {
		return s.failed(state, err), nil
	}

	s.logger.Info("retrieval completed",
		"run_id", state.RunID,
		"cached", res.Cached,
		"chars", len([]rune(res.Text)),
	)
	return workflow.ResumePatch(res.Text).WithUsage(usage(res.Usage)), nil
}

func (s *Retrieval) failed(state workflow.State, err error) workflow.Patch {
	s.logger.Warn("retrieval failed, continuing with marker", "run_id", state.RunID, "error", err)
	return workflow.ResumePatch(FailurePrefix + err.Error())
}
