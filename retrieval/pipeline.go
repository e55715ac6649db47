package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/randalmurphal/resumeflow/chat"
	"github.com/randalmurphal/resumeflow/prompt"
	"github.com/randalmurphal/resumeflow/task"
)

// Section headings of the composed retrieval document.
const (
	AnalysisHeading = "--- [Job Analysis] ---"
	StrategyHeading = "--- [Resume Strategy] ---"
)

// Search queries for the two passes.
const (
	analysisQuery = "What core competencies, required qualifications and preferred qualifications does this role ask for?"
	strategyQuery = "What application questions must the applicant answer, and what does each one ask for?"
)

// Result is the outcome of one retrieval.
type Result struct {
	Text   string
	Usage  chat.Usage
	Cached bool
}

// Retriever loads the posting and the question document, indexes them, and
// asks the model for a competency analysis and an answer strategy.
type Retriever struct {
	loader   *Loader
	splitter Splitter
	embedder Embedder
	chat     chat.Completer
	prompts  *prompt.Loader
	models   *task.Router
	search   SearchOptions
	cache    Cache
	cacheTTL time.Duration
	logger   *slog.Logger
}

// RetrieverOption configures a Retriever.
type RetrieverOption func(*Retriever)

// WithCache stores composed results in cache for ttl.
func WithCache(cache Cache, ttl time.Duration) RetrieverOption {
	return func(r *Retriever) {
		r.cache = cache
		r.cacheTTL = ttl
	}
}

// WithSplitter overrides the chunking parameters.
func WithSplitter(s Splitter) RetrieverOption {
	return func(r *Retriever) { r.splitter = s }
}

// WithSearchOptions overrides the MMR parameters.
func WithSearchOptions(opts SearchOptions) RetrieverOption {
	return func(r *Retriever) { r.search = opts }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) RetrieverOption {
	return func(r *Retriever) { r.logger = logger }
}

// NewRetriever creates a retriever.
func NewRetriever(loader *Loader, embedder Embedder, completer chat.Completer, prompts *prompt.Loader, models *task.Router, opts ...RetrieverOption) *Retriever {
	r := &Retriever{
		loader:   loader,
		splitter: NewSplitter(),
		embedder: embedder,
		chat:     completer,
		prompts:  prompts,
		models:   models,
		search:   DefaultSearchOptions(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Retrieve builds the composed analysis and strategy document for one
// posting and question document.
func (r *Retriever) Retrieve(ctx context.Context, posting, questions string) (Result, error) {
	postingDoc, err := r.loader.Load(ctx, posting)
	if err != nil {
		return Result{}, err
	}
	questionDoc, err := r.loader.Load(ctx, questions)
	if err != nil {
		return Result{}, err
	}

	key := CacheKey(postingDoc, questionDoc)
	if r.cache != nil {
		text, ok, err := r.cache.Get(ctx, key)
		switch {
		case err != nil:
			r.logger.Warn("retrieval cache read failed", "error", err)
		case ok:
			r.logger.Debug("retrieval cache hit", "key", key)
			return Result{Text: text, Cached: true}, nil
		}
	}

	postingIndex, err := BuildIndex(ctx, r.embedder, r.splitter.Split(postingDoc))
	if err != nil {
		return Result{}, fmt.Errorf("index posting: %w", err)
	}
	questionIndex, err := BuildIndex(ctx, r.embedder, r.splitter.Split(questionDoc))
	if err != nil {
		return Result{}, fmt.Errorf("index questions: %w", err)
	}

	var usage chat.Usage

	analysis, u, err := r.ask(ctx, task.Analyze, prompt.Analyze, postingIndex, analysisQuery, "")
	if err != nil {
		return Result{}, fmt.Errorf("analyze posting: %w", err)
	}
	usage = addUsage(usage, u)

	strategy, u, err := r.ask(ctx, task.Strategize, prompt.Strategize, questionIndex, strategyQuery, analysis)
	if err != nil {
		return Result{}, fmt.Errorf("plan strategy: %w", err)
	}
	usage = addUsage(usage, u)

	text := Compose(analysis, strategy)
	if r.cache != nil {
		if err := r.cache.Set(ctx, key, text, r.cacheTTL); err != nil {
			r.logger.Warn("retrieval cache write failed", "error", err)
		}
	}
	return Result{Text: text, Usage: usage}, nil
}

// ask retrieves context for query from ix and runs one completion over it.
func (r *Retriever) ask(ctx context.Context, kind task.Kind, system string, ix *Index, query, analysis string) (string, chat.Usage, error) {
	chunks, err := ix.Search(ctx, query, r.search)
	if err != nil {
		return "", chat.Usage{}, err
	}

	sys, err := r.prompts.Render(system, nil)
	if err != nil {
		return "", chat.Usage{}, err
	}

	excerpts := make([]string, len(chunks))
	for i, c := range chunks {
		excerpts[i] = c.Text
	}
	user := prompt.NewBuilder().
		Section("Question", query).
		Section("Competency analysis", analysis).
		Section("Excerpts", strings.Join(excerpts, "\n\n---\n\n")).
		Build()

	resp, err := r.chat.Complete(ctx, chat.Request{
		Model:  r.models.ModelFor(kind),
		System: sys,
		Prompt: user,
	})
	if err != nil {
		return "", chat.Usage{}, err
	}
	return strings.TrimSpace(resp.Text), resp.Usage, nil
}

// Compose joins the analysis and the strategy under their headings.
func Compose(analysis, strategy string) string {
	return AnalysisHeading + "\n" + analysis + "\n\n" + StrategyHeading + "\n" + strategy
}

func addUsage(a, b chat.Usage) chat.Usage {
	return chat.Usage{
		InputTokens:  a.InputTokens + b.InputTokens,
		OutputTokens: a.OutputTokens + b.OutputTokens,
	}
}
