package history

import (
	"errors"
	"time"

	"github.com/randalmurphal/resumeflow/workflow"
)

// History errors
var (
	ErrRunNotFound      = errors.New("run not found")
	ErrRunAlreadyExists = errors.New("run already exists")
	ErrRunNotStarted    = errors.New("run not started")
	ErrInvalidRunID     = errors.New("invalid run id")
)

// Status is the state of a recorded run.
type Status string

const (
	StatusRunning  Status = "running"
	StatusPassed   Status = "passed"
	StatusForced   Status = "forced"
	StatusFailed   Status = "failed"
	StatusCanceled Status = "canceled"
)

// Step is one committed node of a run.
type Step struct {
	Seq        int       `json:"seq"`
	Node       string    `json:"node"`
	RetryCount int       `json:"retryCount"`
	Tag        string    `json:"tag,omitempty"`
	Text       string    `json:"text,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// Meta summarises a run without its steps.
type Meta struct {
	RunID       string         `json:"runId"`
	FlowID      string         `json:"flowId,omitempty"`
	Status      Status         `json:"status"`
	StartedAt   time.Time      `json:"startedAt"`
	EndedAt     time.Time      `json:"endedAt,omitempty"`
	RetryCount  int            `json:"retryCount"`
	StepCount   int            `json:"stepCount"`
	DocumentURL string         `json:"documentUrl,omitempty"`
	Usage       workflow.Usage `json:"usage"`
	FailedNode  string         `json:"failedNode,omitempty"`
	Error       string         `json:"error,omitempty"`
}

// Record is a complete run history.
type Record struct {
	Meta  Meta   `json:"metadata"`
	Steps []Step `json:"steps"`
}

// Drafts returns the text written by each draft step, in order.
func (r *Record) Drafts() []string {
	var out []string
	for _, s := range r.Steps {
		if s.Node == workflow.NodeDraft.String() {
			out = append(out, s.Text)
		}
	}
	return out
}

// ListFilter filters run listings.
type ListFilter struct {
	FlowID string
	Status Status
	After  time.Time
	Limit  int
}

func statusFor(result workflow.State, err error) Status {
	switch {
	case errors.Is(err, workflow.ErrCanceled):
		return StatusCanceled
	case err != nil:
		return StatusFailed
	case result.BudgetExhausted():
		return StatusForced
	default:
		return StatusPassed
	}
}
