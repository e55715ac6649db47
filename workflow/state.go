package workflow

import (
	"fmt"
	"time"

	nanoid "github.com/matoous/go-nanoid/v2"
)

// =============================================================================
// Embeddable State Components
// =============================================================================

// Usage tracks model consumption across a run
type Usage struct {
	TokensIn  int     `json:"tokensIn"`
	TokensOut int     `json:"tokensOut"`
	Cost      float64 `json:"cost"`
}

// Add returns the sum of two usage records
func (u Usage) Add(other Usage) Usage {
	return Usage{
		TokensIn:  u.TokensIn + other.TokensIn,
		TokensOut: u.TokensOut + other.TokensOut,
		Cost:      u.Cost + other.Cost,
	}
}

// IsZero reports whether no usage was recorded
func (u Usage) IsZero() bool {
	return u.TokensIn == 0 && u.TokensOut == 0 && u.Cost == 0
}

// =============================================================================
// State - Full Workflow State
// =============================================================================

// State is the record threaded through every node of a run.
//
// Stages receive it by value and answer with a Patch; the engine is the only
// place a State is replaced.
type State struct {
	// Identification
	RunID  string `json:"runId"`
	FlowID string `json:"flowId"`

	// ResumeText is the evolving draft. The review stage prepends a
	// [PASS] or [REVISE] tag line to it.
	ResumeText string `json:"resumeText"`

	// QuestionText holds the interview questions; nil until the questions
	// node has run.
	QuestionText *string `json:"questionText,omitempty"`

	// RetryCount counts loop iterations. Only retry-prep changes it.
	RetryCount int `json:"retryCount"`

	// MaxRetries echoes the engine's retry budget for this run.
	MaxRetries int `json:"maxRetries"`

	// DocumentURL is where finalize handed the result off to, if anywhere.
	DocumentURL string `json:"documentUrl,omitempty"`

	Usage     Usage     `json:"usage"`
	StartTime time.Time `json:"startTime"`
}

// NewState creates the initial state for a run: empty draft, no questions,
// zero retries.
func NewState(flowID string) State {
	return State{
		RunID:     generateRunID(flowID),
		FlowID:    flowID,
		StartTime: time.Now(),
	}
}

// WithRunID sets a custom run ID
func (s State) WithRunID(runID string) State {
	s.RunID = runID
	return s
}

// HasQuestions reports whether the questions node has produced output
func (s State) HasQuestions() bool {
	return s.QuestionText != nil
}

// Questions returns the question text, or "" when absent
func (s State) Questions() string {
	if s.QuestionText == nil {
		return ""
	}
	return *s.QuestionText
}

// Tag returns the review tag currently at the front of the draft
func (s State) Tag() Tag {
	return ParseTag(s.ResumeText)
}

// BudgetExhausted reports whether the run was pushed forward by the retry
// budget rather than by a [PASS] verdict.
func (s State) BudgetExhausted() bool {
	return s.RetryCount >= s.MaxRetries && s.Tag() == TagRevise
}

// Elapsed returns time since the run started
func (s State) Elapsed() time.Duration {
	if s.StartTime.IsZero() {
		return 0
	}
	return time.Since(s.StartTime)
}

// validate checks the caller-supplied initial state
func (s State) validate() error {
	if s.RetryCount < 0 {
		return fmt.Errorf("%w: retry count %d is negative", ErrInvalidState, s.RetryCount)
	}
	return nil
}

// =============================================================================
// State Summary
// =============================================================================

// Summary returns a human-readable summary of the state
func (s State) Summary() string {
	var status string
	switch {
	case s.DocumentURL != "":
		status = "published"
	case s.HasQuestions():
		status = "questioned"
	case s.BudgetExhausted():
		status = "forced"
	case s.Tag() == TagPass:
		status = "passed"
	case s.Tag() == TagRevise:
		status = "revising"
	case s.ResumeText != "":
		status = "drafted"
	default:
		status = "pending"
	}

	return fmt.Sprintf("Run %s [%s]: %s (retries: %d/%d, tokens: %d in, %d out)",
		s.RunID, status, s.FlowID,
		s.RetryCount, s.MaxRetries,
		s.Usage.TokensIn, s.Usage.TokensOut)
}

// =============================================================================
// Helper Functions
// =============================================================================

// generateRunID creates a unique run ID
func generateRunID(flowID string) string {
	timestamp := time.Now().Format("2006-01-02")
	suffix, err := nanoid.Generate("0123456789abcdefghijklmnopqrstuvwxyz", 8)
	if err != nil {
		suffix = fmt.Sprintf("%x", time.Now().UnixNano())
	}
	if flowID == "" {
		return fmt.Sprintf("%s-%s", timestamp, suffix)
	}
	return fmt.Sprintf("%s-%s-%s", timestamp, flowID, suffix)
}
