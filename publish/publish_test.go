package publish

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"google.golang.org/api/docs/v1"
	"google.golang.org/api/option"
)

func testDocument() Document {
	return Document{
		RunID:     "2026-10-19-job-abc",
		FlowID:    "job",
		Resume:    "[Application Question 1]\nI migrated the billing service.",
		Questions: "1. Why?\n2. How?",
		CreatedAt: time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC),
	}
}

func TestDocument_Markdown(t *testing.T) {
	doc := testDocument()
	got := doc.Markdown()

	for _, want := range []string{
		"# job 2026-10-19 (2026-10-19-job-abc)",
		"## Application\n\n[Application Question 1]",
		"## Interview Questions\n\n1. Why?\n2. How?",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("Markdown() missing %q:\n%s", want, got)
		}
	}
	if strings.Contains(got, "retry budget") {
		t.Error("Markdown() has forced note for a passed run")
	}

	doc.Forced = true
	doc.Questions = ""
	got = doc.Markdown()
	if !strings.Contains(got, "retry budget") {
		t.Error("Markdown() missing forced note")
	}
	if strings.Contains(got, "Interview Questions") {
		t.Error("Markdown() has empty questions section")
	}
}

func TestFilePublisher(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	doc := testDocument()
	doc.RunID = "run/../1"

	url, err := NewFilePublisher(dir).Publish(context.Background(), doc)
	if err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	if !strings.HasPrefix(url, "file://") {
		t.Fatalf("Publish() = %q, want file:// URL", url)
	}

	path := strings.TrimPrefix(url, "file://")
	if filepath.Dir(path) != dir {
		t.Errorf("published to %q, want inside %q", path, dir)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read published file: %v", err)
	}
	if string(data) != doc.Markdown() {
		t.Errorf("file content = %q", data)
	}
}

func TestFilePublisher_Error(t *testing.T) {
	file := filepath.Join(t.TempDir(), "blocker")
	if err := os.WriteFile(file, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := NewFilePublisher(filepath.Join(file, "sub")).Publish(context.Background(), testDocument())
	if !errors.Is(err, ErrPublish) {
		t.Errorf("Publish() error = %v, want ErrPublish", err)
	}
}

type docsServer struct {
	mu      sync.Mutex
	created []string
	inserts map[string][]string
	fail    bool
}

func (s *docsServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.fail {
		http.Error(w, `{"error":{"code":403,"message":"denied"}}`, http.StatusForbidden)
		return
	}

	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/v1/documents":
		var doc docs.Document
		json.NewDecoder(r.Body).Decode(&doc)
		s.created = append(s.created, doc.Title)
		json.NewEncoder(w).Encode(docs.Document{DocumentId: "new-doc", Title: doc.Title})
	case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, ":batchUpdate"):
		id := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/v1/documents/"), ":batchUpdate")
		body, _ := io.ReadAll(r.Body)
		var req docs.BatchUpdateDocumentRequest
		json.Unmarshal(body, &req)
		for _, rq := range req.Requests {
			if rq.InsertText != nil && rq.InsertText.EndOfSegmentLocation != nil {
				s.inserts[id] = append(s.inserts[id], rq.InsertText.Text)
			}
		}
		json.NewEncoder(w).Encode(docs.BatchUpdateDocumentResponse{DocumentId: id})
	default:
		http.NotFound(w, r)
	}
}

func newDocsService(t *testing.T, handler http.Handler) *docs.Service {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	srv, err := docs.NewService(context.Background(),
		option.WithEndpoint(server.URL+"/"),
		option.WithHTTPClient(server.Client()),
	)
	if err != nil {
		t.Fatalf("docs.NewService() error = %v", err)
	}
	return srv
}

func TestGoogleDocsPublisher_CreatesDocument(t *testing.T) {
	fake := &docsServer{inserts: map[string][]string{}}
	p := NewGoogleDocsPublisher(newDocsService(t, fake), "")

	doc := testDocument()
	url, err := p.Publish(context.Background(), doc)
	if err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	if url != "https://docs.google.com/document/d/new-doc/edit" {
		t.Errorf("Publish() = %q", url)
	}
	if len(fake.created) != 1 || fake.created[0] != doc.Title() {
		t.Errorf("created = %v, want [%q]", fake.created, doc.Title())
	}
	if got := fake.inserts["new-doc"]; len(got) != 1 || got[0] != doc.Markdown() {
		t.Errorf("inserts = %q", got)
	}
}

func TestGoogleDocsPublisher_AppendsToExisting(t *testing.T) {
	fake := &docsServer{inserts: map[string][]string{}}
	p := NewGoogleDocsPublisher(newDocsService(t, fake), "existing")

	url, err := p.Publish(context.Background(), testDocument())
	if err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	if url != DocumentURL("existing") {
		t.Errorf("Publish() = %q", url)
	}
	if len(fake.created) != 0 {
		t.Errorf("created = %v, want none", fake.created)
	}
	if got := fake.inserts["existing"]; len(got) != 1 || !strings.HasPrefix(got[0], "\n# job") {
		t.Errorf("inserts = %q", got)
	}
}

func TestGoogleDocsPublisher_Error(t *testing.T) {
	p := NewGoogleDocsPublisher(newDocsService(t, &docsServer{fail: true}), "existing")

	if _, err := p.Publish(context.Background(), testDocument()); !errors.Is(err, ErrPublish) {
		t.Errorf("Publish() error = %v, want ErrPublish", err)
	}
}

type publisherFunc func(context.Context, Document) (string, error)

func (f publisherFunc) Publish(ctx context.Context, d Document) (string, error) { return f(ctx, d) }

func TestMultiPublisher(t *testing.T) {
	boom := errors.New("boom")
	m := MultiPublisher{
		publisherFunc(func(context.Context, Document) (string, error) { return "", boom }),
		nil,
		NopPublisher{},
		publisherFunc(func(context.Context, Document) (string, error) { return "file:///a.md", nil }),
		publisherFunc(func(context.Context, Document) (string, error) { return "https://b", nil }),
	}

	url, err := m.Publish(context.Background(), testDocument())
	if url != "file:///a.md" {
		t.Errorf("Publish() url = %q, want first non-empty", url)
	}
	if !errors.Is(err, boom) {
		t.Errorf("Publish() error = %v, want boom", err)
	}
}

func TestNewDocsService_MissingFile(t *testing.T) {
	if _, err := NewDocsService(context.Background(), filepath.Join(t.TempDir(), "none.json")); err == nil {
		t.Error("NewDocsService() should fail for a missing file")
	}
}
