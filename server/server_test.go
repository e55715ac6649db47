package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/resumeflow/auth"
	"github.com/randalmurphal/resumeflow/history"
	"github.com/randalmurphal/resumeflow/retrieval"
	"github.com/randalmurphal/resumeflow/stages"
	"github.com/randalmurphal/resumeflow/testutil"
	"github.com/randalmurphal/resumeflow/workflow"
)

var testAuth = auth.Config{Secret: []byte("server-test-secret-with-32-bytes!!")}

func newTestServer(t *testing.T, script testutil.Script, opts ...Option) (*Server, *prometheus.Registry) {
	t.Helper()
	engine, err := workflow.NewEngine(
		testutil.FakeStages(script, nil),
		workflow.WithLogger(testutil.DiscardLogger()),
	)
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	opts = append([]Option{WithRegistry(reg), WithLogger(testutil.DiscardLogger())}, opts...)
	return New(engine, testAuth, opts...), reg
}

func getRun(t *testing.T, s http.Handler, id string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/runs/"+id, nil)
	req.Header.Set("Authorization", bearer(t, auth.ScopeRunsCreate))
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func createRun(t *testing.T, s http.Handler, body string) RunResponse {
	t.Helper()
	rec := postRun(t, s, bearer(t, auth.ScopeRunsCreate), body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var resp RunResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func bearer(t *testing.T, scopes ...string) string {
	t.Helper()
	token, err := auth.Issue(testAuth, "tester", scopes...)
	require.NoError(t, err)
	return "Bearer " + token
}

func postRun(t *testing.T, s http.Handler, authz, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/runs", strings.NewReader(body))
	if authz != "" {
		req.Header.Set("Authorization", authz)
	}
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func TestCreateRun(t *testing.T) {
	secret := filepath.Join(t.TempDir(), "secret.txt")
	require.NoError(t, os.WriteFile(secret, []byte("server-side file"), 0o600))

	var seen stages.Sources
	var localErr error
	s, _ := newTestServer(t, testutil.Script{
		Reviews:     testutil.Reviews(workflow.ReviseToken, 2, workflow.PassToken),
		DocumentURL: "file:///tmp/out.md",
		OnCall: func(ctx context.Context, node workflow.NodeID, _ workflow.State) {
			if node == workflow.NodeRetrieval {
				seen, _ = stages.SourcesFrom(ctx)
				_, localErr = retrieval.NewLoader(nil).Load(ctx, secret)
			}
		},
	}, WithSourcePolicy(retrieval.SourcePolicy{AllowedHosts: []string{"jobs.example.com"}}))

	rec := postRun(t, s, bearer(t, auth.ScopeRunsCreate),
		`{"flowId":"acme","posting":"https://jobs.example.com/1","questions":"text:1. Why us?"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp RunResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "acme", resp.FlowID)
	assert.Equal(t, 2, resp.RetryCount)
	assert.Equal(t, "draft 3", resp.Resume)
	assert.Equal(t, testutil.DefaultQuestions, resp.Questions)
	assert.Equal(t, "file:///tmp/out.md", resp.DocumentURL)
	assert.False(t, resp.Forced)
	assert.Equal(t, stages.Sources{Posting: "https://jobs.example.com/1", Questions: "text:1. Why us?"}, seen)
	assert.ErrorIs(t, localErr, retrieval.ErrSourceNotAllowed, "run context must carry the source policy")

	req := httptest.NewRequest(http.MethodGet, "/runs/"+resp.RunID, nil)
	req.Header.Set("Authorization", bearer(t, auth.ScopeRunsCreate))
	got := httptest.NewRecorder()
	s.ServeHTTP(got, req)
	require.Equal(t, http.StatusOK, got.Code)

	var stored RunResponse
	require.NoError(t, json.Unmarshal(got.Body.Bytes(), &stored))
	assert.Equal(t, resp, stored)
}

func TestCreateRun_ForcedCompletion(t *testing.T) {
	s, _ := newTestServer(t, testutil.Script{Reviews: []string{workflow.ReviseToken}})

	rec := postRun(t, s, bearer(t, auth.ScopeRunsCreate), `{"posting":"text:p","questions":"text:q"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp RunResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Forced)
	assert.Equal(t, workflow.DefaultMaxRetries, resp.RetryCount)
}

func TestCreateRun_Rejects(t *testing.T) {
	s, _ := newTestServer(t, testutil.Script{})

	tests := []struct {
		name   string
		authz  string
		body   string
		status int
	}{
		{"no token", "", `{"posting":"text:p","questions":"text:q"}`, http.StatusUnauthorized},
		{"bad token", "Bearer nope", `{"posting":"text:p","questions":"text:q"}`, http.StatusUnauthorized},
		{"missing scope", bearer(t), `{"posting":"text:p","questions":"text:q"}`, http.StatusForbidden},
		{"malformed body", bearer(t, auth.ScopeRunsCreate), `{`, http.StatusBadRequest},
		{"unknown field", bearer(t, auth.ScopeRunsCreate), `{"posting":"text:p","questions":"text:q","x":1}`, http.StatusBadRequest},
		{"missing questions", bearer(t, auth.ScopeRunsCreate), `{"posting":"p"}`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postRun(t, s, tt.authz, tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())

			var resp errorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.NotEmpty(t, resp.Error)
		})
	}
}

func TestCreateRun_RejectsServerSideSources(t *testing.T) {
	var calls int
	s, _ := newTestServer(t, testutil.Script{
		OnCall: func(context.Context, workflow.NodeID, workflow.State) { calls++ },
	}, WithSourcePolicy(retrieval.SourcePolicy{AllowedHosts: []string{"jobs.example.com"}}))

	tests := []struct {
		name      string
		posting   string
		questions string
	}{
		{"absolute path", "/srv/secret.txt", "text:q"},
		{"relative path", "text:p", "questions.pdf"},
		{"metadata endpoint", "http://169.254.169.254/latest/meta-data/", "text:q"},
		{"other host", "https://intranet.local/posting", "text:q"},
		{"file url", "file:///etc/hosts", "text:q"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, err := json.Marshal(RunRequest{Posting: tt.posting, Questions: tt.questions})
			require.NoError(t, err)

			rec := postRun(t, s, bearer(t, auth.ScopeRunsCreate), string(body))
			assert.Equal(t, http.StatusBadRequest, rec.Code)

			var resp errorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Contains(t, resp.Error, retrieval.ErrSourceNotAllowed.Error())
		})
	}
	assert.Zero(t, calls, "rejected requests must not start a run")
}

func TestCreateRun_StageFailure(t *testing.T) {
	s, _ := newTestServer(t, testutil.Script{
		Fail: map[workflow.NodeID]error{workflow.NodeQuestions: errors.New("model down")},
	})

	rec := postRun(t, s, bearer(t, auth.ScopeRunsCreate), `{"posting":"text:p","questions":"text:q"}`)
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "questions", resp.Node)
	assert.Contains(t, resp.Error, "model down")
}

func TestGetRun_EvictsOldest(t *testing.T) {
	s, _ := newTestServer(t, testutil.Script{}, WithRecentRuns(1))

	first := createRun(t, s, `{"posting":"text:p","questions":"text:q"}`)
	second := createRun(t, s, `{"posting":"text:p","questions":"text:q"}`)

	assert.Equal(t, http.StatusNotFound, getRun(t, s, first.RunID).Code)
	assert.Equal(t, http.StatusOK, getRun(t, s, second.RunID).Code)
}

func TestGetRun_FromRunStore(t *testing.T) {
	store, err := history.NewFileStore(t.TempDir())
	require.NoError(t, err)

	engine, err := workflow.NewEngine(
		testutil.FakeStages(testutil.Script{
			Reviews:     testutil.Reviews(workflow.ReviseToken, 1, workflow.PassToken),
			DocumentURL: "file:///tmp/out.md",
		}, nil),
		workflow.WithLogger(testutil.DiscardLogger()),
		workflow.WithNodeObserver(store.Observe),
	)
	require.NoError(t, err)
	runner := history.NewRecorder(engine, store, testutil.DiscardLogger())
	s := New(runner, testAuth,
		WithRegistry(prometheus.NewRegistry()),
		WithLogger(testutil.DiscardLogger()),
		WithRunStore(store),
		WithRecentRuns(1),
	)

	first := createRun(t, s, `{"flowId":"acme","posting":"text:p","questions":"text:q"}`)
	createRun(t, s, `{"flowId":"acme","posting":"text:p","questions":"text:q"}`)

	rec := getRun(t, s, first.RunID)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var got RunResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, first.RunID, got.RunID)
	assert.Equal(t, "acme", got.FlowID)
	assert.Equal(t, first.Resume, got.Resume)
	assert.Equal(t, first.Questions, got.Questions)
	assert.Equal(t, 1, got.RetryCount)
	assert.False(t, got.Forced)
	assert.Equal(t, "file:///tmp/out.md", got.DocumentURL)

	assert.Equal(t, http.StatusNotFound, getRun(t, s, "missing").Code)
}

func TestGetRun_NotFound(t *testing.T) {
	s, _ := newTestServer(t, testutil.Script{})

	req := httptest.NewRequest(http.MethodGet, "/runs/missing", nil)
	req.Header.Set("Authorization", bearer(t, auth.ScopeRunsCreate))
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	s, _ := newTestServer(t, testutil.Script{})

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `resumeflow_http_requests_total{method="GET",route="/healthz",status="200"} 1`)
}
