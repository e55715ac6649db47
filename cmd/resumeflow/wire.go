package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"google.golang.org/api/docs/v1"
	"google.golang.org/genai"

	"github.com/randalmurphal/resumeflow/chat"
	"github.com/randalmurphal/resumeflow/config"
	rferrors "github.com/randalmurphal/resumeflow/errors"
	"github.com/randalmurphal/resumeflow/evidence"
	"github.com/randalmurphal/resumeflow/history"
	"github.com/randalmurphal/resumeflow/notify"
	"github.com/randalmurphal/resumeflow/prompt"
	"github.com/randalmurphal/resumeflow/publish"
	"github.com/randalmurphal/resumeflow/retrieval"
	"github.com/randalmurphal/resumeflow/stages"
	"github.com/randalmurphal/resumeflow/task"
	"github.com/randalmurphal/resumeflow/workflow"
)

// runner executes one workflow run.
type runner interface {
	Run(ctx context.Context, state workflow.State) (workflow.State, error)
}

// components is the assembled application.
type components struct {
	runner   runner
	registry *prometheus.Registry
	closers  []func() error

	// history is nil when run history is disabled.
	history *history.FileStore
}

func (c *components) Close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		errs = append(errs, c.closers[i]())
	}
	return errors.Join(errs...)
}

// build wires every collaborator from settings. Optional integrations
// (evidence sources, Redis, Google Docs, Slack, webhooks) are only built
// when configured. With publishing off, finalize records nothing.
func build(ctx context.Context, s config.Settings, projectDir string, logger *slog.Logger, publishing bool) (*components, error) {
	if s.GeminiAPIKey == "" {
		return nil, rferrors.NewMissingCredentialError("gemini_api_key", "Retrieval embeddings")
	}
	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  s.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create GenAI client: %w", err)
	}

	c := &components{registry: prometheus.NewRegistry()}
	c.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	models := task.NewRouter(s.Provider, s.Models)
	prompts := prompt.NewLoader(projectDir)

	var completer chat.Completer
	switch s.Provider {
	case task.ProviderGemini:
		completer = chat.NewGenAIClient(gc, "")
	default:
		completer = chat.NewClaudeClient(models.ModelFor(task.Draft), s.ClaudeWorkdir)
	}

	var docsSrv *docs.Service
	var docReader retrieval.DocReader
	if s.GoogleCredentials != "" {
		docsSrv, err = publish.NewDocsService(ctx, s.GoogleCredentials)
		if err != nil {
			return nil, err
		}
		docReader = retrieval.NewGoogleDocReader(docsSrv)
	}

	retrieverOpts := []retrieval.RetrieverOption{retrieval.WithLogger(logger)}
	if s.RedisURL != "" {
		cache, err := retrieval.NewRedisCache(ctx, s.RedisURL)
		if err != nil {
			logger.Warn("retrieval cache unavailable, continuing without it", "error", err)
		} else {
			c.closers = append(c.closers, cache.Close)
			retrieverOpts = append(retrieverOpts, retrieval.WithCache(cache, s.CacheTTL))
		}
	}
	retriever := retrieval.NewRetriever(
		retrieval.NewLoader(docReader),
		retrieval.NewGenAIEmbedder(gc, s.EmbeddingModel),
		completer, prompts, models, retrieverOpts...,
	)

	draftOpts := []stages.DraftOption{stages.WithDraftLogger(logger)}
	if sources, err := evidenceSources(s); err != nil {
		return nil, err
	} else if len(sources) > 0 {
		collector := evidence.NewCollector(sources, evidence.WithLogger(logger))
		draftOpts = append(draftOpts, stages.WithEvidence(collector))
	}

	var pub publish.Publisher = publish.NopPublisher{}
	if publishing {
		pub = publishers(s, docsSrv)
	}

	engineOpts := []workflow.Option{
		workflow.WithMaxRetries(s.MaxRetries),
		workflow.WithLogger(logger),
		workflow.WithNotifier(notifiers(s, logger)),
		workflow.WithMetrics(workflow.NewMetrics(c.registry)),
	}
	var store *history.FileStore
	if s.OutputDir != "" {
		store, err = history.NewFileStore(historyDir(s))
		if err != nil {
			logger.Warn("run history disabled", "error", err)
			store = nil
		} else {
			engineOpts = append(engineOpts, workflow.WithNodeObserver(store.Observe))
		}
	}

	engine, err := workflow.NewEngine(
		workflow.Stages{
			Retrieval: stages.NewRetrieval(retriever, stages.Sources{Posting: s.Posting, Questions: s.QuestionsDoc}, logger),
			Draft:     stages.NewDraft(completer, prompts, models, draftOpts...),
			Review:    stages.NewReview(completer, prompts, models, s.ReviewEarlyPass, logger),
			Questions: stages.NewQuestions(completer, prompts, models, logger),
			Finalize:  stages.NewFinalize(pub, logger),
		},
		engineOpts...,
	)
	if err != nil {
		c.Close()
		return nil, err
	}

	c.runner = engine
	if store != nil {
		c.history = store
		c.runner = history.NewRecorder(engine, store, logger)
	}
	return c, nil
}

// historyDir is where run histories are kept.
func historyDir(s config.Settings) string {
	return filepath.Join(s.OutputDir, "history")
}

func evidenceSources(s config.Settings) ([]evidence.Source, error) {
	var sources []evidence.Source
	if s.GitHubUser != "" {
		gh, err := evidence.NewGitHubSource(s.GitHubToken, s.GitHubUser)
		if err != nil {
			return nil, err
		}
		sources = append(sources, gh)
	}
	if s.GitLabToken != "" {
		gl, err := evidence.NewGitLabSource(s.GitLabToken, s.GitLabURL, s.GitLabUser)
		if err != nil {
			return nil, err
		}
		sources = append(sources, gl)
	}
	return sources, nil
}

func publishers(s config.Settings, docsSrv *docs.Service) publish.Publisher {
	var multi publish.MultiPublisher
	if docsSrv != nil {
		multi = append(multi, publish.NewGoogleDocsPublisher(docsSrv, s.GoogleDocID))
	}
	if s.OutputDir != "" {
		multi = append(multi, publish.NewFilePublisher(s.OutputDir))
	}
	if len(multi) == 0 {
		return publish.NopPublisher{}
	}
	return multi
}

// notifiers logs every event and forwards those at or above the configured
// severity to Slack and the webhook.
func notifiers(s config.Settings, logger *slog.Logger) notify.Notifier {
	var remote []notify.Notifier
	if s.SlackWebhook != "" {
		remote = append(remote, notify.NewSlackNotifier(s.SlackWebhook))
	}
	if s.WebhookURL != "" {
		remote = append(remote, notify.NewWebhookNotifier(s.WebhookURL, nil))
	}

	all := []notify.Notifier{notify.NewLogNotifier(logger)}
	if len(remote) > 0 {
		all = append(all, notify.Threshold(notify.NewMultiNotifier(remote...), s.NotifyMinSeverity))
	}
	return notify.NewMultiNotifier(all...)
}
