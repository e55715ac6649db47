package workflow

import (
	"context"
	"fmt"
)

// Stage is an injected collaborator behind one workflow node. It receives
// the full state and returns only the fields it changes.
//
// Implementations must not retain state after returning.
type Stage interface {
	Run(ctx context.Context, state State) (Patch, error)
}

// StageFunc adapts a function to Stage.
type StageFunc func(ctx context.Context, state State) (Patch, error)

// Run implements Stage.
func (f StageFunc) Run(ctx context.Context, state State) (Patch, error) {
	return f(ctx, state)
}

// Stages holds the collaborators for every stage-backed node. Retry-prep
// belongs to the engine and has no entry here.
type Stages struct {
	Retrieval Stage
	Draft     Stage
	Review    Stage
	Questions Stage
	Finalize  Stage
}

// ForNode returns the stage behind node, or nil for retry-prep.
func (s Stages) ForNode(node NodeID) Stage {
	switch node {
	case NodeRetrieval:
		return s.Retrieval
	case NodeDraft:
		return s.Draft
	case NodeReview:
		return s.Review
	case NodeQuestions:
		return s.Questions
	case NodeFinalize:
		return s.Finalize
	default:
		return nil
	}
}

func (s Stages) validate() error {
	for _, node := range Nodes() {
		if node == NodeRetryPrep {
			continue
		}
		if s.ForNode(node) == nil {
			return fmt.Errorf("%w: %s", ErrMissingStage, node)
		}
	}
	return nil
}

// retryPrep is the only place the loop counter moves.
func retryPrep(_ context.Context, state State) (Patch, error) {
	next := state.RetryCount + 1
	return Patch{RetryCount: &next}, nil
}
