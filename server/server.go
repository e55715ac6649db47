package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/randalmurphal/resumeflow/auth"
	"github.com/randalmurphal/resumeflow/history"
	"github.com/randalmurphal/resumeflow/retrieval"
	"github.com/randalmurphal/resumeflow/stages"
	"github.com/randalmurphal/resumeflow/workflow"
)

// maxBodyBytes caps the size of a run request.
const maxBodyBytes = 1 << 20

// defaultRecentRuns is how many responses are kept in memory for GET /runs/{id}.
const defaultRecentRuns = 256

// Runner executes one workflow run. *workflow.Engine implements it.
type Runner interface {
	Run(ctx context.Context, state workflow.State) (workflow.State, error)
}

// RunStore looks up recorded runs. *history.FileStore implements it.
type RunStore interface {
	Load(runID string) (*history.Record, error)
}

// RunRequest is the body of POST /runs. Posting and questions are
// "text:<content>", "gdoc:<id>" or an http(s) URL on an allowed host.
type RunRequest struct {
	FlowID    string `json:"flowId"`
	Posting   string `json:"posting"`
	Questions string `json:"questions"`
}

// RunResponse describes a finished run.
type RunResponse struct {
	RunID       string         `json:"runId"`
	FlowID      string         `json:"flowId,omitempty"`
	Resume      string         `json:"resumeText"`
	Questions   string         `json:"questions"`
	RetryCount  int            `json:"retryCount"`
	Forced      bool           `json:"forced"`
	DocumentURL string         `json:"documentUrl,omitempty"`
	Usage       workflow.Usage `json:"usage"`
	Duration    string         `json:"duration"`
}

type errorResponse struct {
	Error string `json:"error"`
	Node  string `json:"node,omitempty"`
}

// Server exposes the workflow over HTTP.
type Server struct {
	runner   Runner
	auth     auth.Config
	logger   *slog.Logger
	gatherer prometheus.Gatherer
	router   *mux.Router
	policy   retrieval.SourcePolicy
	store    RunStore

	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec

	mu         sync.RWMutex
	runs       map[string]RunResponse
	order      []string
	recentRuns int
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// WithSourcePolicy sets which sources POST /runs accepts. The default policy
// accepts inline text and Google Docs only.
func WithSourcePolicy(p retrieval.SourcePolicy) Option {
	return func(s *Server) { s.policy = p }
}

// WithRunStore serves GET /runs/{id} from store for runs no longer held in
// memory.
func WithRunStore(store RunStore) Option {
	return func(s *Server) { s.store = store }
}

// WithRecentRuns sets how many run responses are kept in memory.
func WithRecentRuns(n int) Option {
	return func(s *Server) { s.recentRuns = n }
}

// WithRegistry registers the HTTP collectors with reg and serves reg on
// /metrics.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(s *Server) {
		reg.MustRegister(s.requests, s.duration)
		s.gatherer = reg
	}
}

// New builds the router. Run creation requires a bearer token with the
// runs:create scope; health and metrics are open.
func New(runner Runner, authCfg auth.Config, opts ...Option) *Server {
	s := &Server{
		runner:   runner,
		auth:     authCfg,
		logger:   slog.Default(),
		gatherer: prometheus.DefaultGatherer,
		runs:     make(map[string]RunResponse),
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "resumeflow_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "resumeflow_http_request_duration_seconds",
				Help:    "Duration of HTTP requests",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
	}
	for _, opt := range opts {
		opt(s)
	}

	requireRuns := auth.Require(s.auth, auth.ScopeRunsCreate, writeError)

	r := mux.NewRouter()
	r.Use(s.instrument)
	r.Handle("/runs", requireRuns(http.HandlerFunc(s.handleCreateRun))).Methods(http.MethodPost)
	r.Handle("/runs/{id}", requireRuns(http.HandlerFunc(s.handleGetRun))).Methods(http.MethodGet)
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	s.router = r
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is done, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down gracefully")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) handleCreateRun(w http.ResponseWriter, r *http.Request) {
	var req RunRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	req.Posting = strings.TrimSpace(req.Posting)
	req.Questions = strings.TrimSpace(req.Questions)
	if req.Posting == "" || req.Questions == "" {
		writeError(w, http.StatusBadRequest, stages.ErrNoSources)
		return
	}
	for _, source := range []string{req.Posting, req.Questions} {
		if err := s.policy.Check(source); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
	}

	ctx := retrieval.WithSourcePolicy(r.Context(), s.policy)
	ctx = stages.WithSources(ctx, stages.Sources{
		Posting:   req.Posting,
		Questions: req.Questions,
	})
	state := workflow.NewState(req.FlowID)
	if claims, ok := auth.ClaimsFromContext(r.Context()); ok {
		s.logger.Info("run requested", "run_id", state.RunID, "subject", claims.Subject)
	}

	result, err := s.runner.Run(ctx, state)
	if err != nil {
		s.writeRunError(w, err)
		return
	}

	resp := Response(result)
	s.remember(resp)
	writeJSON(w, http.StatusCreated, resp)
}

// remember keeps resp for GET /runs/{id}, evicting the oldest responses
// beyond the configured limit.
func (s *Server) remember(resp RunResponse) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.runs[resp.RunID]; !ok {
		s.order = append(s.order, resp.RunID)
	}
	s.runs[resp.RunID] = resp
	limit := s.recentRuns
	if limit <= 0 {
		limit = defaultRecentRuns
	}
	for len(s.order) > limit {
		delete(s.runs, s.order[0])
		s.order = s.order[1:]
	}
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	s.mu.RLock()
	resp, ok := s.runs[id]
	s.mu.RUnlock()
	if ok {
		writeJSON(w, http.StatusOK, resp)
		return
	}
	if s.store == nil {
		writeError(w, http.StatusNotFound, history.ErrRunNotFound)
		return
	}

	rec, err := s.store.Load(id)
	switch {
	case errors.Is(err, history.ErrRunNotFound):
		writeError(w, http.StatusNotFound, err)
	case err != nil:
		s.logger.Error("run lookup failed", "run_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, errors.New("run lookup failed"))
	case rec.Meta.Status != history.StatusPassed && rec.Meta.Status != history.StatusForced:
		writeError(w, http.StatusNotFound, fmt.Errorf("%w: run is %s", history.ErrRunNotFound, rec.Meta.Status))
	default:
		writeJSON(w, http.StatusOK, recordResponse(rec))
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeRunError maps a failed run to a status: bad initial state is the
// caller's fault, cancellation is reported as a timeout, the rest is a
// server error naming the failed node.
func (s *Server) writeRunError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, workflow.ErrInvalidState):
		status = http.StatusBadRequest
	case errors.Is(err, workflow.ErrCanceled):
		status = http.StatusGatewayTimeout
	}

	resp := errorResponse{Error: err.Error()}
	if node, ok := workflow.FailedNode(err); ok {
		resp.Node = node.String()
	}
	s.logger.Error("run failed", "error", err, "node", resp.Node)
	writeJSON(w, status, resp)
}

// Response converts a finished state to its JSON form.
func Response(state workflow.State) RunResponse {
	return RunResponse{
		RunID:       state.RunID,
		FlowID:      state.FlowID,
		Resume:      stages.DraftText(state.ResumeText),
		Questions:   state.Questions(),
		RetryCount:  state.RetryCount,
		Forced:      state.BudgetExhausted(),
		DocumentURL: state.DocumentURL,
		Usage:       state.Usage,
		Duration:    state.Elapsed().Round(time.Millisecond).String(),
	}
}

// recordResponse rebuilds a RunResponse from a recorded run. The last review
// step holds the final draft.
func recordResponse(rec *history.Record) RunResponse {
	m := rec.Meta
	resp := RunResponse{
		RunID:       m.RunID,
		FlowID:      m.FlowID,
		RetryCount:  m.RetryCount,
		Forced:      m.Status == history.StatusForced,
		DocumentURL: m.DocumentURL,
		Usage:       m.Usage,
		Duration:    m.EndedAt.Sub(m.StartedAt).Round(time.Millisecond).String(),
	}
	for _, step := range rec.Steps {
		switch step.Node {
		case workflow.NodeReview.String():
			resp.Resume = stages.DraftText(step.Text)
		case workflow.NodeQuestions.String():
			resp.Questions = step.Text
		}
	}
	return resp
}

// instrument records request counts and latency per route template.
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := r.URL.Path
		if cur := mux.CurrentRoute(r); cur != nil {
			if tmpl, err := cur.GetPathTemplate(); err == nil {
				route = tmpl
			}
		}
		s.requests.WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).Inc()
		s.duration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}
