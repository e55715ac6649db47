package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/randalmurphal/resumeflow/notify"
	"github.com/randalmurphal/resumeflow/task"
	"github.com/randalmurphal/resumeflow/workflow"
)

// ErrInvalidValue indicates a configuration value that cannot be used.
var ErrInvalidValue = errors.New("invalid config value")

// Settings is the typed configuration of the application.
type Settings struct {
	MaxRetries int
	// ReviewEarlyPass is the retry count at which review passes without a
	// model call. It never exceeds MaxRetries.
	ReviewEarlyPass int

	Provider       task.Provider
	Models         map[task.Kind]string
	ClaudeWorkdir  string
	GeminiAPIKey   string
	EmbeddingModel string

	GitHubUser  string
	GitHubToken string
	GitLabUser  string
	GitLabToken string
	GitLabURL   string

	RedisURL string
	CacheTTL time.Duration

	GoogleCredentials string
	GoogleDocID       string
	OutputDir         string

	Posting      string
	QuestionsDoc string

	ListenAddr string
	JWTSecret  string

	// SourceHosts are the hosts whose URLs API callers may submit as sources.
	SourceHosts []string

	SlackWebhook      string
	WebhookURL        string
	NotifyMinSeverity notify.Severity

	LogLevel slog.Level
}

// Parse validates a resolved configuration into Settings. Every invalid
// value is reported, not just the first.
func Parse(c *Resolved) (Settings, error) {
	p := parser{c: c}

	s := Settings{
		MaxRetries:        p.intRange("max_retries", 0, workflow.MaxRetryLimit),
		Provider:          task.Provider(p.oneOf("llm_provider", string(task.ProviderClaude), string(task.ProviderGemini))),
		Models:            map[task.Kind]string{},
		ClaudeWorkdir:     c.Get("claude_workdir"),
		GeminiAPIKey:      c.Get("gemini_api_key"),
		EmbeddingModel:    c.Get("embedding_model"),
		GitHubUser:        c.Get("github_user"),
		GitHubToken:       c.Get("github_token"),
		GitLabUser:        c.Get("gitlab_user"),
		GitLabToken:       c.Get("gitlab_token"),
		GitLabURL:         c.Get("gitlab_url"),
		RedisURL:          c.Get("redis_url"),
		CacheTTL:          p.duration("cache_ttl"),
		GoogleCredentials: c.Get("google_credentials"),
		GoogleDocID:       c.Get("google_doc_id"),
		OutputDir:         c.Get("output_dir"),
		Posting:           c.Get("posting"),
		QuestionsDoc:      c.Get("questions_doc"),
		ListenAddr:        c.Get("listen_addr"),
		JWTSecret:         c.Get("jwt_secret"),
		SlackWebhook:      c.Get("slack_webhook"),
		WebhookURL:        c.Get("webhook_url"),
		NotifyMinSeverity: notify.Severity(p.oneOf("notify_min_severity",
			string(notify.SeverityInfo), string(notify.SeverityWarning), string(notify.SeverityError))),
		LogLevel: p.level("log_level"),
	}

	s.ReviewEarlyPass = s.MaxRetries
	if c.Get("review_early_pass") != "" {
		s.ReviewEarlyPass = p.intRange("review_early_pass", 0, s.MaxRetries)
	}

	for _, h := range strings.Split(c.Get("source_hosts"), ",") {
		if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
			s.SourceHosts = append(s.SourceHosts, h)
		}
	}

	for _, k := range task.Kinds() {
		if m := c.Get("model_" + string(k)); m != "" {
			s.Models[k] = m
		}
	}

	return s, errors.Join(p.errs...)
}

type parser struct {
	c    *Resolved
	errs []error
}

func (p *parser) fail(key, value, want string) {
	p.errs = append(p.errs, fmt.Errorf("%w: %s=%q (%s, from %s)", ErrInvalidValue, key, value, want, p.c.Source(key)))
}

func (p *parser) intRange(key string, lo, hi int) int {
	v := p.c.Get(key)
	n, err := strconv.Atoi(v)
	if err != nil || n < lo || n > hi {
		p.fail(key, v, fmt.Sprintf("want an integer in [%d, %d]", lo, hi))
		return lo
	}
	return n
}

func (p *parser) oneOf(key string, allowed ...string) string {
	v := p.c.Get(key)
	for _, a := range allowed {
		if v == a {
			return v
		}
	}
	p.fail(key, v, fmt.Sprintf("want one of %v", allowed))
	return allowed[0]
}

func (p *parser) duration(key string) time.Duration {
	v := p.c.Get(key)
	if v == "" {
		return 0
	}
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		p.fail(key, v, "want a non-negative duration like 24h")
		return 0
	}
	return d
}

func (p *parser) level(key string) slog.Level {
	v := p.c.Get(key)
	var l slog.Level
	if err := l.UnmarshalText([]byte(v)); err != nil {
		p.fail(key, v, "want debug, info, warn or error")
		return slog.LevelInfo
	}
	return l
}
