package workflow

import "strings"

// DefaultMaxRetries is the retry budget used when none is configured.
const DefaultMaxRetries = 5

// MaxRetryLimit caps the configurable budget. A run executes 5+3*budget
// nodes, which must stay under flowgraph's iteration guard of 100.
const MaxRetryLimit = 25

// Review tag tokens.
const (
	PassToken   = "[PASS]"
	ReviseToken = "[REVISE]"
)

// Tag is the verdict the review stage writes at the front of the draft.
type Tag int

const (
	TagNone Tag = iota
	TagPass
	TagRevise
)

func (t Tag) String() string {
	switch t {
	case TagPass:
		return PassToken
	case TagRevise:
		return ReviseToken
	default:
		return "none"
	}
}

// ParseTag reads the review tag from the front of text, ignoring surrounding
// whitespace.
func ParseTag(text string) Tag {
	trimmed := strings.TrimSpace(text)
	switch {
	case strings.HasPrefix(trimmed, ReviseToken):
		return TagRevise
	case strings.HasPrefix(trimmed, PassToken):
		return TagPass
	default:
		return TagNone
	}
}

// StripTag removes a leading review tag and the whitespace after it.
func StripTag(text string) string {
	trimmed := strings.TrimSpace(text)
	for _, token := range []string{ReviseToken, PassToken} {
		if strings.HasPrefix(trimmed, token) {
			return strings.TrimSpace(strings.TrimPrefix(trimmed, token))
		}
	}
	return trimmed
}

// Tagged prepends a tag line to body.
func Tagged(tag Tag, body string) string {
	if body == "" {
		return tag.String()
	}
	return tag.String() + "\n" + body
}

// Decision is the router's verdict after review.
type Decision int

const (
	DecisionProceed Decision = iota
	DecisionLoop
)

func (d Decision) String() string {
	if d == DecisionLoop {
		return "loop"
	}
	return "proceed"
}

// Reason explains a routing decision.
type Reason string

const (
	ReasonPass            Reason = "pass"
	ReasonRevise          Reason = "revise"
	ReasonBudgetExhausted Reason = "budget_exhausted"
	ReasonMalformed       Reason = "malformed"
)

// Route is the router's output.
type Route struct {
	Decision Decision
	Tag      Tag
	Reason   Reason
}

// routeTargets maps each decision to the node that follows review.
var routeTargets = map[Decision]NodeID{
	DecisionLoop:    NodeRetryPrep,
	DecisionProceed: NodeQuestions,
}

// Next returns the node the route leads to.
func (r Route) Next() NodeID {
	return routeTargets[r.Decision]
}

// Decide routes a reviewed state. It loops only for a [REVISE] tag with budget
// left; a [PASS], an exhausted budget, or an unrecognised tag all proceed.
// The result depends on nothing but the tag and the counter.
func Decide(state State, maxRetries int) Route {
	tag := ParseTag(state.ResumeText)
	switch tag {
	case TagRevise:
		if state.RetryCount < maxRetries {
			return Route{Decision: DecisionLoop, Tag: tag, Reason: ReasonRevise}
		}
		return Route{Decision: DecisionProceed, Tag: tag, Reason: ReasonBudgetExhausted}
	case TagPass:
		return Route{Decision: DecisionProceed, Tag: tag, Reason: ReasonPass}
	default:
		return Route{Decision: DecisionProceed, Tag: tag, Reason: ReasonMalformed}
	}
}
