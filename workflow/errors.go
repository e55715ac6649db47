package workflow

import (
	"errors"
	"fmt"
)

// Engine construction errors
var (
	// ErrMissingStage indicates a required stage was not supplied.
	ErrMissingStage = errors.New("stage not configured")

	// ErrInvalidBudget indicates the retry budget is outside the supported range.
	ErrInvalidBudget = errors.New("invalid retry budget")
)

// Run errors
var (
	// ErrInvalidState indicates the initial state cannot start a run.
	ErrInvalidState = errors.New("invalid initial state")

	// ErrFieldNotOwned indicates a stage patched a field its node does not own.
	ErrFieldNotOwned = errors.New("field not owned by node")

	// ErrQuestionsAlreadySet indicates a second write to the question text.
	ErrQuestionsAlreadySet = errors.New("question text already set")

	// ErrCounterDecreased indicates a patch tried to lower the retry count.
	ErrCounterDecreased = errors.New("retry count must not decrease")

	// ErrCanceled indicates the run was canceled between stages.
	ErrCanceled = errors.New("run canceled")

	// ErrStagePanic indicates a stage panicked.
	ErrStagePanic = errors.New("stage panicked")
)

// StageError reports a failed node. The state the node received is never
// replaced by a failed node's output.
type StageError struct {
	Node NodeID
	Err  error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s: %v", e.Node, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// FailedNode extracts the failing node from a run error.
func FailedNode(err error) (NodeID, bool) {
	var stageErr *StageError
	if errors.As(err, &stageErr) {
		return stageErr.Node, true
	}
	return 0, false
}
