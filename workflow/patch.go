package workflow

import (
	"fmt"
	"strings"
)

// Field is a bit set of State fields a patch can carry.
type Field uint8

// Patchable fields.
const (
	FieldResumeText Field = 1 << iota
	FieldQuestionText
	FieldRetryCount
	FieldDocumentURL
)

var fieldNames = []struct {
	field Field
	name  string
}{
	{FieldResumeText, "resumeText"},
	{FieldQuestionText, "questionText"},
	{FieldRetryCount, "retryCount"},
	{FieldDocumentURL, "documentUrl"},
}

func (f Field) String() string {
	if f == 0 {
		return "none"
	}
	var names []string
	for _, fn := range fieldNames {
		if f&fn.field != 0 {
			names = append(names, fn.name)
		}
	}
	return strings.Join(names, ",")
}

// ownership lists the fields each node may write. Usage is additive and open
// to every node.
var ownership = map[NodeID]Field{
	NodeRetrieval: FieldResumeText,
	NodeDraft:     FieldResumeText,
	NodeReview:    FieldResumeText,
	NodeRetryPrep: FieldRetryCount,
	NodeQuestions: FieldQuestionText,
	NodeFinalize:  FieldDocumentURL,
}

// Owns returns the fields node may write.
func Owns(node NodeID) Field {
	return ownership[node]
}

// Patch is a partial State update returned by a stage. Nil fields are left
// unchanged; Usage is added to the running total.
type Patch struct {
	ResumeText   *string
	QuestionText *string
	RetryCount   *int
	DocumentURL  *string
	Usage        Usage
}

// ResumePatch sets the draft text.
func ResumePatch(text string) Patch {
	return Patch{ResumeText: &text}
}

// QuestionsPatch sets the interview questions.
func QuestionsPatch(text string) Patch {
	return Patch{QuestionText: &text}
}

// DocumentPatch records where the result was published.
func DocumentPatch(url string) Patch {
	return Patch{DocumentURL: &url}
}

// WithUsage attaches model usage to the patch.
func (p Patch) WithUsage(u Usage) Patch {
	p.Usage = p.Usage.Add(u)
	return p
}

// Fields returns the set of fields the patch writes.
func (p Patch) Fields() Field {
	var f Field
	if p.ResumeText != nil {
		f |= FieldResumeText
	}
	if p.QuestionText != nil {
		f |= FieldQuestionText
	}
	if p.RetryCount != nil {
		f |= FieldRetryCount
	}
	if p.DocumentURL != nil {
		f |= FieldDocumentURL
	}
	return f
}

// Merge applies a node's patch to state. Writes outside the node's ownership,
// a second write of the questions, and a decreasing counter are rejected and
// leave state untouched.
func Merge(node NodeID, state State, p Patch) (State, error) {
	if extra := p.Fields() &^ ownership[node]; extra != 0 {
		return state, fmt.Errorf("%w: %s wrote %s", ErrFieldNotOwned, node, extra)
	}
	if p.QuestionText != nil && state.QuestionText != nil {
		return state, ErrQuestionsAlreadySet
	}
	if p.RetryCount != nil && *p.RetryCount < state.RetryCount {
		return state, fmt.Errorf("%w: %d -> %d", ErrCounterDecreased, state.RetryCount, *p.RetryCount)
	}

	if p.ResumeText != nil {
		state.ResumeText = *p.ResumeText
	}
	if p.QuestionText != nil {
		q := *p.QuestionText
		state.QuestionText = &q
	}
	if p.RetryCount != nil {
		state.RetryCount = *p.RetryCount
	}
	if p.DocumentURL != nil {
		state.DocumentURL = *p.DocumentURL
	}
	state.Usage = state.Usage.Add(p.Usage)
	return state, nil
}
