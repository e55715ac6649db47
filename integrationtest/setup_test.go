package integrationtest

import (
	"context"
	"hash/fnv"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	llm "github.com/randalmurphal/llmkit/claude"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/resumeflow/chat"
	"github.com/randalmurphal/resumeflow/notify"
	"github.com/randalmurphal/resumeflow/prompt"
	"github.com/randalmurphal/resumeflow/publish"
	"github.com/randalmurphal/resumeflow/retrieval"
	"github.com/randalmurphal/resumeflow/stages"
	"github.com/randalmurphal/resumeflow/task"
	"github.com/randalmurphal/resumeflow/testutil"
	"github.com/randalmurphal/resumeflow/workflow"
)

const postingHTML = `<html><body>
<h1>Backend Engineer</h1>
<p>We build payment infrastructure in Go. You will own services end to end.</p>
<p>Requirements: distributed systems, PostgreSQL, on-call experience.</p>
<script>track()</script>
</body></html>`

const questionsText = `1. Describe a system you designed and the trade-offs you made.

2. Tell us about a production incident you led.`

// setupSources writes a posting and a questions document and returns their
// paths.
func setupSources(t *testing.T) (posting, questions string) {
	t.Helper()
	dir := testutil.WriteFiles(t, map[string]string{
		"posting.html":  postingHTML,
		"questions.txt": questionsText,
	})
	return filepath.Join(dir, "posting.html"), filepath.Join(dir, "questions.txt")
}

// role names which prompt a request was rendered from.
type role string

const (
	roleAnalyze    role = "analyze"
	roleStrategize role = "strategize"
	roleDraft      role = "draft"
	roleReview     role = "review"
	roleInterview  role = "interview"
)

var roleMarkers = []struct {
	marker string
	role   role
}{
	{"HR specialist", roleAnalyze},
	{"career consultant", roleStrategize},
	{"You write job application", roleDraft},
	{"HR evaluator", roleReview},
	{"hiring interviewer", roleInterview},
}

// scriptedModel answers each role from a script and records every prompt.
type scriptedModel struct {
	mu      sync.Mutex
	answers map[role][]string
	prompts map[role][]string
}

func newScriptedModel(answers map[role][]string) *scriptedModel {
	return &scriptedModel{answers: answers, prompts: map[role][]string{}}
}

// client exposes the script as a flowgraph mock LLM behind chat.Completer.
func (m *scriptedModel) client() chat.Completer {
	mock := llm.NewMockClient("").WithCompleteFunc(func(_ context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
		r := roleOf(req.SystemPrompt)

		m.mu.Lock()
		defer m.mu.Unlock()
		var user string
		if len(req.Messages) > 0 {
			user = req.Messages[len(req.Messages)-1].Content
		}
		m.prompts[r] = append(m.prompts[r], user)

		answers := m.answers[r]
		if len(answers) == 0 {
			return &llm.CompletionResponse{Content: string(r) + " output"}, nil
		}
		n := len(m.prompts[r]) - 1
		return &llm.CompletionResponse{Content: answers[min(n, len(answers)-1)]}, nil
	})
	return chat.NewFlowgraphClient(mock)
}

func (m *scriptedModel) calls(r role) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.prompts[r]...)
}

func roleOf(system string) role {
	for _, rm := range roleMarkers {
		if strings.Contains(system, rm.marker) {
			return rm.role
		}
	}
	return "unknown"
}

// hashEmbedder maps words into a small bag-of-words vector.
type hashEmbedder struct{}

func (hashEmbedder) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = embed(t)
	}
	return out, nil
}

func (hashEmbedder) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	return embed(text), nil
}

func embed(text string) []float32 {
	v := make([]float32, 32)
	for _, w := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		h.Write([]byte(w))
		v[h.Sum32()%32]++
	}
	return v
}

// eventCapture records notifications.
type eventCapture struct {
	mu     sync.Mutex
	events []notify.Event
}

func (c *eventCapture) Notify(_ context.Context, event notify.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
	return nil
}

func (c *eventCapture) types() []notify.EventType {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]notify.EventType, len(c.events))
	for i, e := range c.events {
		out[i] = e.Type
	}
	return out
}

type harness struct {
	engine    *workflow.Engine
	model     *scriptedModel
	events    *eventCapture
	outputDir string
}

type harnessConfig struct {
	answers     map[role][]string
	maxRetries  int
	earlyPassAt int
	sources     stages.Sources
}

// setupHarness wires the real stages over a scripted model, a local file
// publisher and an event capture.
func setupHarness(t *testing.T, cfg harnessConfig) *harness {
	t.Helper()

	h := &harness{
		model:     newScriptedModel(cfg.answers),
		events:    &eventCapture{},
		outputDir: t.TempDir(),
	}
	logger := testutil.DiscardLogger()
	completer := h.model.client()
	prompts := prompt.NewLoader("")
	models := task.NewRouter(task.ProviderClaude, nil)

	retriever := retrieval.NewRetriever(
		retrieval.NewLoader(nil),
		hashEmbedder{},
		completer, prompts, models,
		retrieval.WithLogger(logger),
	)

	engine, err := workflow.NewEngine(
		workflow.Stages{
			Retrieval: stages.NewRetrieval(retriever, cfg.sources, logger),
			Draft:     stages.NewDraft(completer, prompts, models, stages.WithDraftLogger(logger)),
			Review:    stages.NewReview(completer, prompts, models, cfg.earlyPassAt, logger),
			Questions: stages.NewQuestions(completer, prompts, models, logger),
			Finalize:  stages.NewFinalize(publish.NewFilePublisher(h.outputDir), logger),
		},
		workflow.WithMaxRetries(cfg.maxRetries),
		workflow.WithLogger(logger),
		workflow.WithNotifier(h.events),
	)
	require.NoError(t, err)
	h.engine = engine
	return h
}
