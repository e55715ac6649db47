package retrieval

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"google.golang.org/genai"
)

// fakeEmbedServer answers batchEmbedContents with one vector per request,
// whose single value is the request's index, and records the task types.
type fakeEmbedServer struct {
	mu        sync.Mutex
	paths     []string
	taskTypes []string
}

func (f *fakeEmbedServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Requests []struct {
			TaskType string `json:"taskType"`
		} `json:"requests"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	f.mu.Lock()
	f.paths = append(f.paths, r.URL.Path)
	embeddings := make([]map[string]any, len(body.Requests))
	for i, req := range body.Requests {
		f.taskTypes = append(f.taskTypes, req.TaskType)
		embeddings[i] = map[string]any{"values": []float32{float32(i)}}
	}
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"embeddings": embeddings})
}

func newTestEmbedder(t *testing.T, handler http.Handler) *GenAIEmbedder {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:      "test-key",
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{BaseURL: srv.URL},
	})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return NewGenAIEmbedder(client, "")
}

func TestGenAIEmbedder(t *testing.T) {
	fake := &fakeEmbedServer{}
	e := newTestEmbedder(t, fake)
	ctx := context.Background()

	texts := make([]string, maxEmbedBatch+2)
	for i := range texts {
		texts[i] = "chunk"
	}
	vecs, err := e.EmbedDocuments(ctx, texts)
	if err != nil {
		t.Fatalf("EmbedDocuments: %v", err)
	}
	if len(vecs) != len(texts) {
		t.Fatalf("got %d vectors, want %d", len(vecs), len(texts))
	}
	if vecs[maxEmbedBatch][0] != 0 || vecs[maxEmbedBatch+1][0] != 1 {
		t.Errorf("second batch vectors = %v, %v", vecs[maxEmbedBatch], vecs[maxEmbedBatch+1])
	}

	if _, err := e.EmbedQuery(ctx, "required competencies"); err != nil {
		t.Fatalf("EmbedQuery: %v", err)
	}

	fake.mu.Lock()
	defer fake.mu.Unlock()
	if len(fake.paths) != 3 {
		t.Fatalf("got %d requests, want 3", len(fake.paths))
	}
	for _, p := range fake.paths {
		if !strings.HasSuffix(p, DefaultEmbeddingModel+":batchEmbedContents") {
			t.Errorf("request path = %q", p)
		}
	}
	last := len(fake.taskTypes) - 1
	if fake.taskTypes[0] != taskRetrievalDocument || fake.taskTypes[last] != taskRetrievalQuery {
		t.Errorf("task types = %q ... %q", fake.taskTypes[0], fake.taskTypes[last])
	}
}

func TestGenAIEmbedder_CountMismatch(t *testing.T) {
	e := newTestEmbedder(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"embeddings":[{"values":[1]}]}`))
	}))

	if _, err := e.EmbedDocuments(context.Background(), []string{"a", "b"}); err == nil {
		t.Fatal("expected an error when the API returns fewer embeddings")
	}
}
