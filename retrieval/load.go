package retrieval

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// GoogleDocPrefix marks a source as a Google Docs document ID.
const GoogleDocPrefix = "gdoc:"

// TextPrefix marks a source whose remainder is the document text itself.
const TextPrefix = "text:"

// maxFetchBytes caps how much of a posting page is read.
const maxFetchBytes = 5 << 20

// Document is the plain text of one source.
type Document struct {
	Source string
	Text   string
}

// DocReader reads the text of a Google Docs document.
type DocReader interface {
	ReadText(ctx context.Context, documentID string) (string, error)
}

// Loader turns a source string into a Document. A source is an http(s) URL,
// a local file path, "gdoc:<id>" or "text:<document text>". A SourcePolicy on
// the context restricts which of these are read.
type Loader struct {
	HTTPClient *http.Client
	Docs       DocReader
}

// NewLoader creates a loader. docs may be nil when Google Docs sources are
// not used.
func NewLoader(docs DocReader) *Loader {
	return &Loader{
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
		Docs:       docs,
	}
}

// Load reads source and extracts its text.
func (l *Loader) Load(ctx context.Context, source string) (Document, error) {
	if policy, ok := sourcePolicyFrom(ctx); ok {
		if err := policy.Check(source); err != nil {
			return Document{}, err
		}
	}
	text, err := l.load(ctx, source)
	if err != nil {
		return Document{}, fmt.Errorf("load %s: %w", source, err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return Document{}, fmt.Errorf("load %s: %w", source, ErrEmptyDocument)
	}
	return Document{Source: source, Text: text}, nil
}

func (l *Loader) load(ctx context.Context, source string) (string, error) {
	switch {
	case strings.HasPrefix(source, TextPrefix):
		return strings.TrimPrefix(source, TextPrefix), nil
	case strings.HasPrefix(source, GoogleDocPrefix):
		if l.Docs == nil {
			return "", fmt.Errorf("%w: Google Docs reader not configured", ErrUnsupportedFormat)
		}
		return l.Docs.ReadText(ctx, strings.TrimPrefix(source, GoogleDocPrefix))
	case isURL(source):
		return l.fetch(ctx, source)
	}

	switch strings.ToLower(filepath.Ext(source)) {
	case ".html", ".htm":
		f, err := os.Open(source)
		if err != nil {
			return "", err
		}
		defer f.Close()
		return HTMLText(f)
	case ".pdf":
		return PDFText(source)
	case ".docx":
		return DOCXText(source)
	case ".txt", ".md":
		data, err := os.ReadFile(source)
		return string(data), err
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(source))
	}
}

// fetch downloads a posting page and extracts its text. Non-HTML bodies are
// taken as plain text.
func (l *Loader) fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", "resumeflow/1.0")

	client := l.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	if policy, ok := sourcePolicyFrom(ctx); ok {
		restricted := *client
		restricted.CheckRedirect = policy.redirectCheck
		client = &restricted
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return "", fmt.Errorf("GET %s: status %d", url, resp.StatusCode)
	}

	body := io.LimitReader(resp.Body, maxFetchBytes)
	if ct := resp.Header.Get("Content-Type"); ct != "" && !strings.Contains(ct, "html") {
		data, err := io.ReadAll(body)
		return string(data), err
	}
	return HTMLText(body)
}
