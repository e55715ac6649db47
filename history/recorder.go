package history

import (
	"context"
	"log/slog"

	"github.com/randalmurphal/resumeflow/workflow"
)

// Runner executes one workflow run.
type Runner interface {
	Run(ctx context.Context, state workflow.State) (workflow.State, error)
}

// Recorder wraps a Runner and records every run in a FileStore. The engine
// behind the Runner must be built with workflow.WithNodeObserver(store.Observe)
// for steps to be recorded.
type Recorder struct {
	runner Runner
	store  *FileStore
	logger *slog.Logger
}

// NewRecorder creates a recording runner.
func NewRecorder(runner Runner, store *FileStore, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{runner: runner, store: store, logger: logger}
}

// Run implements Runner. History failures are logged and never fail the run.
func (r *Recorder) Run(ctx context.Context, state workflow.State) (workflow.State, error) {
	if state.RunID == "" {
		state = state.WithRunID(workflow.NewState(state.FlowID).RunID)
	}

	recording := true
	if err := r.store.Start(state.RunID, state.FlowID); err != nil {
		r.logger.Warn("run history unavailable", "run_id", state.RunID, "error", err)
		recording = false
	}

	result, err := r.runner.Run(ctx, state)

	if recording {
		if endErr := r.store.End(state.RunID, result, err); endErr != nil {
			r.logger.Warn("run history not saved", "run_id", state.RunID, "error", endErr)
		}
	}
	return result, err
}
