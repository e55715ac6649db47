package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/randalmurphal/flowgraph/pkg/flowgraph"
	"github.com/randalmurphal/resumeflow/notify"
)

// Run outcomes used for metrics and notifications.
const (
	outcomePassed = "passed"
	outcomeForced = "forced"
	outcomeFailed = "failed"
)

// NodeObserver is called after every committed node with the merged state.
type NodeObserver func(node NodeID, state State)

// Engine drives runs through the fixed resume workflow graph.
//
// The compiled graph is immutable, so one Engine can serve concurrent runs;
// each run owns its State.
type Engine struct {
	stages     Stages
	maxRetries int
	logger     *slog.Logger
	notifier   notify.Notifier
	metrics    *Metrics
	observer   NodeObserver
	graph      *flowgraph.CompiledGraph[State]
}

// Option configures an Engine.
type Option func(*Engine)

// WithMaxRetries sets the retry budget.
func WithMaxRetries(n int) Option {
	return func(e *Engine) { e.maxRetries = n }
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithNotifier sets the notifier for run and anomaly events.
func WithNotifier(n notify.Notifier) Option {
	return func(e *Engine) { e.notifier = n }
}

// WithMetrics sets the Prometheus collectors.
func WithMetrics(m *Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithNodeObserver registers a callback invoked after each committed node.
func WithNodeObserver(fn NodeObserver) Option {
	return func(e *Engine) { e.observer = fn }
}

// NewEngine validates the stages and compiles the workflow graph.
func NewEngine(stages Stages, opts ...Option) (*Engine, error) {
	e := &Engine{
		stages:     stages,
		maxRetries: DefaultMaxRetries,
		logger:     slog.Default(),
		notifier:   notify.NopNotifier{},
	}
	for _, opt := range opts {
		opt(e)
	}

	if err := stages.validate(); err != nil {
		return nil, err
	}
	if e.maxRetries < 0 || e.maxRetries > MaxRetryLimit {
		return nil, fmt.Errorf("%w: %d not in [0, %d]", ErrInvalidBudget, e.maxRetries, MaxRetryLimit)
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	if e.notifier == nil {
		e.notifier = notify.NopNotifier{}
	}

	graph, err := e.compile()
	if err != nil {
		return nil, fmt.Errorf("compile workflow graph: %w", err)
	}
	e.graph = graph
	return e, nil
}

// MaxRetries returns the engine's retry budget.
func (e *Engine) MaxRetries() int {
	return e.maxRetries
}

// compile wires the fixed topology onto flowgraph. Node keys come from the
// NodeID table; review is the only node with a conditional edge.
func (e *Engine) compile() (*flowgraph.CompiledGraph[State], error) {
	graph := flowgraph.NewGraph[State]().
		AddNode(NodeRetrieval.String(), e.node(NodeRetrieval)).
		AddNode(NodeDraft.String(), e.node(NodeDraft)).
		AddNode(NodeReview.String(), e.node(NodeReview)).
		AddNode(NodeRetryPrep.String(), e.node(NodeRetryPrep)).
		AddNode(NodeQuestions.String(), e.node(NodeQuestions)).
		AddNode(NodeFinalize.String(), e.node(NodeFinalize)).
		AddEdge(NodeRetrieval.String(), NodeDraft.String()).
		AddEdge(NodeDraft.String(), NodeReview.String()).
		AddConditionalEdge(NodeReview.String(), e.route).
		AddEdge(NodeRetryPrep.String(), NodeDraft.String()).
		AddEdge(NodeQuestions.String(), NodeFinalize.String()).
		AddEdge(NodeFinalize.String(), flowgraph.END).
		SetEntry(EntryNode.String())

	return graph.Compile()
}

// Run executes one workflow run from the entry node to finalize. The caller
// gets either the state after finalize or an error; there is no partial result.
func (e *Engine) Run(ctx context.Context, state State) (State, error) {
	if err := state.validate(); err != nil {
		return State{}, err
	}
	if state.RunID == "" {
		state.RunID = generateRunID(state.FlowID)
	}
	if state.StartTime.IsZero() {
		state.StartTime = time.Now()
	}
	state.MaxRetries = e.maxRetries
	ctx = notify.WithNotifier(ctx, e.notifier)

	logger := e.logger.With("run_id", state.RunID)
	logger.Info("workflow started", "flow_id", state.FlowID, "max_retries", e.maxRetries)
	e.notify(ctx, state, notify.Event{
		Type:     notify.EventRunStarted,
		Severity: notify.SeverityInfo,
		Message:  "Resume workflow started",
	})

	result, err := e.graph.Run(flowgraph.NewContext(ctx), state,
		flowgraph.WithRunID(state.RunID),
		flowgraph.WithObservabilityLogger(logger),
	)
	if err != nil {
		err = runError(err)
		logger.Error("workflow failed", "error", err)
		e.metrics.observeRun(outcomeFailed, state)
		event := notify.Event{
			Type:     notify.EventRunFailed,
			Severity: notify.SeverityError,
			Message:  err.Error(),
		}
		if node, ok := FailedNode(err); ok {
			event.NodeID = node.String()
		}
		e.notify(ctx, state, event)
		return State{}, err
	}

	outcome := outcomePassed
	if result.BudgetExhausted() {
		outcome = outcomeForced
	}
	e.metrics.observeRun(outcome, result)
	logger.Info("workflow completed",
		"outcome", outcome,
		"retry_count", result.RetryCount,
		"duration", result.Elapsed(),
	)
	e.notify(ctx, result, notify.Event{
		Type:     notify.EventRunCompleted,
		Severity: notify.SeverityInfo,
		Message:  "Resume workflow completed",
		Metadata: map[string]any{
			"outcome":     outcome,
			"retryCount":  result.RetryCount,
			"documentUrl": result.DocumentURL,
			"tokensIn":    result.Usage.TokensIn,
			"tokensOut":   result.Usage.TokensOut,
		},
	})
	return result, nil
}

// node wraps the collaborator behind id as a flowgraph node. Cancellation is
// checked before the stage starts; the stage's patch is committed only when
// it succeeds and passes the ownership check.
func (e *Engine) node(id NodeID) flowgraph.NodeFunc[State] {
	return func(ctx flowgraph.Context, state State) (State, error) {
		if err := ctx.Err(); err != nil {
			return state, &StageError{Node: id, Err: fmt.Errorf("%w: %w", ErrCanceled, err)}
		}

		start := time.Now()
		patch, err := e.invoke(ctx, id, state)
		if err == nil {
			var merged State
			merged, err = Merge(id, state, patch)
			if err == nil {
				e.metrics.observeNode(id, "ok", time.Since(start))
				e.logger.Debug("node completed",
					"run_id", state.RunID,
					"node_id", id.String(),
					"retry_count", merged.RetryCount,
					"duration", time.Since(start),
				)
				if e.observer != nil {
					e.observer(id, merged)
				}
				return merged, nil
			}
		}

		e.metrics.observeNode(id, "error", time.Since(start))
		e.notify(ctx, state, notify.Event{
			Type:     notify.EventNodeFailed,
			NodeID:   id.String(),
			Severity: notify.SeverityError,
			Message:  err.Error(),
		})
		return state, &StageError{Node: id, Err: err}
	}
}

func (e *Engine) invoke(ctx context.Context, id NodeID, state State) (Patch, error) {
	if id == NodeRetryPrep {
		return retryPrep(ctx, state)
	}
	return e.stages.ForNode(id).Run(ctx, state)
}

// route is review's conditional edge. The decision itself is Decide; this
// only reports it.
func (e *Engine) route(ctx flowgraph.Context, state State) string {
	r := Decide(state, e.maxRetries)
	e.metrics.observeRoute(r)

	attrs := []any{
		"run_id", state.RunID,
		"decision", r.Decision.String(),
		"reason", string(r.Reason),
		"retry_count", state.RetryCount,
	}
	switch r.Reason {
	case ReasonMalformed:
		e.logger.Warn("review output has no recognised tag, proceeding", attrs...)
		e.notify(ctx, state, notify.Event{
			Type:     notify.EventReviewMalformed,
			NodeID:   NodeReview.String(),
			Severity: notify.SeverityWarning,
			Message:  "Review output carried neither [PASS] nor [REVISE]",
			Metadata: map[string]any{"firstLine": firstLine(state.ResumeText)},
		})
	case ReasonBudgetExhausted:
		e.logger.Info("retry budget exhausted, forcing completion", attrs...)
		e.notify(ctx, state, notify.Event{
			Type:     notify.EventBudgetExhausted,
			NodeID:   NodeReview.String(),
			Severity: notify.SeverityWarning,
			Message:  fmt.Sprintf("Draft still tagged %s after %d retries", ReviseToken, state.RetryCount),
		})
	default:
		e.logger.Info("review routed", attrs...)
	}

	return r.Next().String()
}

// notify fills run identity into event and sends it. Notification failures
// never fail the run.
func (e *Engine) notify(ctx context.Context, state State, event notify.Event) {
	event.RunID = state.RunID
	event.FlowID = state.FlowID
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if err := e.notifier.Notify(ctx, event); err != nil {
		e.logger.Warn("notification failed", "run_id", state.RunID, "event_type", event.Type, "error", err)
	}
}

// runError normalises errors coming out of flowgraph so callers can rely on
// *StageError for anything a node caused.
func runError(err error) error {
	var stageErr *StageError
	if errors.As(err, &stageErr) {
		return stageErr
	}

	var panicErr *flowgraph.PanicError
	if errors.As(err, &panicErr) {
		node, _ := ParseNodeID(fmt.Sprint(panicErr.NodeID))
		return &StageError{Node: node, Err: fmt.Errorf("%w: %v", ErrStagePanic, panicErr.Value)}
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ErrCanceled, err)
	}
	return err
}

func firstLine(text string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(text), "\n")
	return line
}
