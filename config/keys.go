package config

import "sort"

// Key describes one configuration setting.
type Key struct {
	Name        string
	Default     string
	Description string
	// Secret values are masked when displayed.
	Secret bool
}

var keys = []Key{
	{Name: "max_retries", Default: "5", Description: "review/redraft loops before forced completion (0-25)"},
	{Name: "review_early_pass", Description: "retry count at which review passes without a model call; below max_retries only (default: max_retries, off)"},
	{Name: "llm_provider", Default: "claude", Description: "chat backend: claude or gemini"},
	{Name: "model_analyze", Description: "model override for posting analysis"},
	{Name: "model_strategize", Description: "model override for answer strategy"},
	{Name: "model_draft", Description: "model override for drafting"},
	{Name: "model_review", Description: "model override for review"},
	{Name: "model_interview", Description: "model override for interview questions"},
	{Name: "claude_workdir", Description: "working directory for the claude CLI"},
	{Name: "gemini_api_key", Description: "Gemini API key (chat and embeddings)", Secret: true},
	{Name: "embedding_model", Default: "gemini-embedding-001", Description: "Gemini embedding model"},
	{Name: "github_user", Description: "GitHub login whose repositories and commits are evidence"},
	{Name: "github_token", Description: "GitHub token", Secret: true},
	{Name: "gitlab_user", Description: "GitLab username whose projects are evidence"},
	{Name: "gitlab_token", Description: "GitLab token", Secret: true},
	{Name: "gitlab_url", Default: "https://gitlab.com", Description: "GitLab base URL"},
	{Name: "redis_url", Description: "redis:// URL for the retrieval cache"},
	{Name: "cache_ttl", Default: "24h", Description: "retrieval cache lifetime"},
	{Name: "google_credentials", Description: "Google credentials JSON for Docs read and publish"},
	{Name: "google_doc_id", Description: "Google Doc to append results to; empty creates one per run"},
	{Name: "output_dir", Default: "output", Description: "directory for markdown results"},
	{Name: "posting", Description: "job posting: URL, .html or .txt file"},
	{Name: "questions_doc", Description: "application questions: .pdf, .docx, .txt, .md or gdoc:<id>"},
	{Name: "listen_addr", Default: ":8080", Description: "address for resumeflow serve"},
	{Name: "source_hosts", Description: "comma-separated hosts serve may fetch posting URLs from; a leading dot matches subdomains"},
	{Name: "jwt_secret", Description: "HMAC secret for API bearer tokens", Secret: true},
	{Name: "slack_webhook", Description: "Slack incoming webhook for run events", Secret: true},
	{Name: "webhook_url", Description: "generic webhook for run events", Secret: true},
	{Name: "notify_min_severity", Default: "warning", Description: "lowest event severity sent to Slack and webhooks"},
	{Name: "log_level", Default: "info", Description: "debug, info, warn or error"},
}

var keyIndex = func() map[string]Key {
	m := make(map[string]Key, len(keys))
	for _, k := range keys {
		m[k.Name] = k
	}
	return m
}()

// Keys returns every known key, sorted by name.
func Keys() []Key {
	out := append([]Key(nil), keys...)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// LookupKey returns the key named name.
func LookupKey(name string) (Key, bool) {
	k, ok := keyIndex[name]
	return k, ok
}

// Defaults returns the built-in default of every key.
func Defaults() map[string]string {
	m := make(map[string]string, len(keys))
	for _, k := range keys {
		m[k.Name] = k.Default
	}
	return m
}
