package workflow

import (
	"errors"
	"testing"
)

func TestMerge_Ownership(t *testing.T) {
	count := 1
	all := Patch{
		ResumeText:   ptr("r"),
		QuestionText: ptr("q"),
		RetryCount:   &count,
		DocumentURL:  ptr("u"),
	}

	for _, node := range Nodes() {
		t.Run(node.String(), func(t *testing.T) {
			_, err := Merge(node, State{}, all)
			if !errors.Is(err, ErrFieldNotOwned) {
				t.Errorf("Merge(all fields) error = %v, want ErrFieldNotOwned", err)
			}
		})
	}
}

func TestMerge_AllowedWrites(t *testing.T) {
	two := 2
	tests := []struct {
		node  NodeID
		patch Patch
		check func(State) bool
	}{
		{NodeRetrieval, ResumePatch("analysis"), func(s State) bool { return s.ResumeText == "analysis" }},
		{NodeDraft, ResumePatch("draft"), func(s State) bool { return s.ResumeText == "draft" }},
		{NodeReview, ResumePatch("[PASS]\ndraft"), func(s State) bool { return s.ResumeText == "[PASS]\ndraft" }},
		{NodeRetryPrep, Patch{RetryCount: &two}, func(s State) bool { return s.RetryCount == 2 }},
		{NodeQuestions, QuestionsPatch("1. a"), func(s State) bool { return s.Questions() == "1. a" }},
		{NodeFinalize, DocumentPatch("file:///x"), func(s State) bool { return s.DocumentURL == "file:///x" }},
		{NodeFinalize, Patch{}, func(s State) bool { return s.DocumentURL == "" }},
	}

	for _, tt := range tests {
		t.Run(tt.node.String(), func(t *testing.T) {
			got, err := Merge(tt.node, State{RetryCount: 1}, tt.patch)
			if err != nil {
				t.Fatalf("Merge() error = %v", err)
			}
			if !tt.check(got) {
				t.Errorf("Merge() state = %+v", got)
			}
		})
	}
}

func TestMerge_FailedMergeLeavesState(t *testing.T) {
	orig := State{ResumeText: "keep", RetryCount: 3}
	zero := 0

	got, err := Merge(NodeRetryPrep, orig, Patch{RetryCount: &zero})
	if !errors.Is(err, ErrCounterDecreased) {
		t.Fatalf("error = %v, want ErrCounterDecreased", err)
	}
	if got.RetryCount != 3 || got.ResumeText != "keep" {
		t.Errorf("state changed on failed merge: %+v", got)
	}
}

func TestMerge_QuestionsOnce(t *testing.T) {
	s, err := Merge(NodeQuestions, State{}, QuestionsPatch("first"))
	if err != nil {
		t.Fatalf("first write: %v", err)
	}
	if _, err := Merge(NodeQuestions, s, QuestionsPatch("second")); !errors.Is(err, ErrQuestionsAlreadySet) {
		t.Errorf("second write error = %v, want ErrQuestionsAlreadySet", err)
	}
}

func TestMerge_QuestionTextIsCopied(t *testing.T) {
	text := "1. a"
	s, err := Merge(NodeQuestions, State{}, Patch{QuestionText: &text})
	if err != nil {
		t.Fatal(err)
	}
	text = "mutated"
	if s.Questions() != "1. a" {
		t.Errorf("merged state aliases patch: %q", s.Questions())
	}
}

func TestMerge_UsageAccumulates(t *testing.T) {
	s := State{Usage: Usage{TokensIn: 10, TokensOut: 5, Cost: 0.5}}
	s, err := Merge(NodeDraft, s, ResumePatch("x").WithUsage(Usage{TokensIn: 3, TokensOut: 2, Cost: 0.25}))
	if err != nil {
		t.Fatal(err)
	}
	want := Usage{TokensIn: 13, TokensOut: 7, Cost: 0.75}
	if s.Usage != want {
		t.Errorf("Usage = %+v, want %+v", s.Usage, want)
	}
}

func TestField_String(t *testing.T) {
	if got := (FieldResumeText | FieldDocumentURL).String(); got != "resumeText,documentUrl" {
		t.Errorf("String() = %q", got)
	}
	if got := Field(0).String(); got != "none" {
		t.Errorf("String() = %q", got)
	}
	if Owns(NodeRetryPrep) != FieldRetryCount {
		t.Errorf("Owns(retry-prep) = %v", Owns(NodeRetryPrep))
	}
}

func ptr(s string) *string { return &s }
