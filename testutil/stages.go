package testutil

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/randalmurphal/resumeflow/workflow"
)

// Call records one stage invocation and the state it received.
type Call struct {
	Node  workflow.NodeID
	State workflow.State
}

// Recorder collects stage calls. It is safe for concurrent use.
type Recorder struct {
	mu    sync.Mutex
	calls []Call
}

func (r *Recorder) record(node workflow.NodeID, state workflow.State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, Call{Node: node, State: state})
}

// Calls returns a copy of every recorded call in order.
func (r *Recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Call(nil), r.calls...)
}

// Nodes returns the node sequence of the recorded calls.
func (r *Recorder) Nodes() []workflow.NodeID {
	calls := r.Calls()
	nodes := make([]workflow.NodeID, len(calls))
	for i, c := range calls {
		nodes[i] = c.Node
	}
	return nodes
}

// Count returns how many times node was called.
func (r *Recorder) Count(node workflow.NodeID) int {
	n := 0
	for _, c := range r.Calls() {
		if c.Node == node {
			n++
		}
	}
	return n
}

// Script drives the fake stages built by FakeStages.
type Script struct {
	// Analysis is what retrieval writes. Defaults to "analysis".
	Analysis string

	// Reviews are the first lines review writes, in order. The last entry
	// repeats once the list runs out; an empty list means "[PASS]".
	Reviews []string

	// Questions is what the questions stage writes. Defaults to five
	// numbered questions.
	Questions string

	// DocumentURL is reported by finalize when non-empty.
	DocumentURL string

	// Fail makes the named node return its error.
	Fail map[workflow.NodeID]error

	// Patches overrides the patch a node returns.
	Patches map[workflow.NodeID]workflow.Patch

	// OnCall runs at the start of every stage call.
	OnCall func(ctx context.Context, node workflow.NodeID, state workflow.State)
}

// DefaultQuestions is the question text the fake questions stage writes.
const DefaultQuestions = "1. Q1?\n2. Q2?\n3. Q3?\n4. Q4?\n5. Q5?"

// FakeStages returns deterministic stages that follow script and record
// every call into rec. Draft writes "draft N" for the Nth draft call; review
// prepends the next scripted line to the current draft.
func FakeStages(script Script, rec *Recorder) workflow.Stages {
	if rec == nil {
		rec = &Recorder{}
	}
	analysis := script.Analysis
	if analysis == "" {
		analysis = "analysis"
	}
	questions := script.Questions
	if questions == "" {
		questions = DefaultQuestions
	}

	var mu sync.Mutex
	drafts, reviews := 0, 0

	stage := func(node workflow.NodeID, produce func(workflow.State) workflow.Patch) workflow.Stage {
		return workflow.StageFunc(func(ctx context.Context, state workflow.State) (workflow.Patch, error) {
			rec.record(node, state)
			if script.OnCall != nil {
				script.OnCall(ctx, node, state)
			}
			if err := script.Fail[node]; err != nil {
				return workflow.Patch{}, err
			}
			if p, ok := script.Patches[node]; ok {
				return p, nil
			}
			return produce(state), nil
		})
	}

	return workflow.Stages{
		Retrieval: stage(workflow.NodeRetrieval, func(workflow.State) workflow.Patch {
			return workflow.ResumePatch(analysis)
		}),
		Draft: stage(workflow.NodeDraft, func(workflow.State) workflow.Patch {
			mu.Lock()
			drafts++
			n := drafts
			mu.Unlock()
			return workflow.ResumePatch(fmt.Sprintf("draft %d", n))
		}),
		Review: stage(workflow.NodeReview, func(state workflow.State) workflow.Patch {
			mu.Lock()
			line := workflow.PassToken
			if len(script.Reviews) > 0 {
				line = script.Reviews[min(reviews, len(script.Reviews)-1)]
			}
			reviews++
			mu.Unlock()
			return workflow.ResumePatch(line + "\n" + strings.TrimSpace(state.ResumeText))
		}),
		Questions: stage(workflow.NodeQuestions, func(workflow.State) workflow.Patch {
			return workflow.QuestionsPatch(questions)
		}),
		Finalize: stage(workflow.NodeFinalize, func(workflow.State) workflow.Patch {
			if script.DocumentURL == "" {
				return workflow.Patch{}
			}
			return workflow.DocumentPatch(script.DocumentURL)
		}),
	}
}

// Reviews repeats tag n times and then appends last, for scripting review
// sequences like n REVISEs followed by a PASS.
func Reviews(tag string, n int, last ...string) []string {
	out := make([]string, 0, n+len(last))
	for range n {
		out = append(out, tag)
	}
	return append(out, last...)
}
