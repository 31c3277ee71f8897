// Package agent orchestrates one divination request through the workflow
// state machine: analyze, extract entities, search the graph, deep-traverse,
// synthesize. Each run owns its AgentState; nothing is shared across
// requests.
package agent

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mirae-labs/go-mirae/pkg/extraction"
	"github.com/mirae-labs/go-mirae/pkg/kg"
	"github.com/mirae-labs/go-mirae/pkg/rules"
	"github.com/mirae-labs/go-mirae/pkg/types"
)

const (
	// maxSteps bounds handler executions per run; the workflow terminates
	// regardless of input.
	maxSteps = 10
	// handlerTimeout is the logical deadline of a single handler.
	handlerTimeout = 10 * time.Second
)

// GraphSearcher is the external search capability consumed by the
// search-graph step (vector or substring, provider's choice).
type GraphSearcher interface {
	Search(ctx context.Context, query string, topK int) ([]map[string]interface{}, error)
}

// SummaryProvider contributes an optional hierarchical community summary to
// synthesis.
type SummaryProvider interface {
	Summarize(ctx context.Context, query string) (string, error)
}

// Request is one orchestration input. Deep traversal runs whenever a graph
// is wired; SkipDeepTraversal opts a request out. RequestID is minted when
// empty, so callers that need the id before Run (streaming) can supply it.
type Request struct {
	RequestID         string
	Query             string
	Facts             map[string]interface{}
	Locale            string
	Theme             string
	SessionID         string
	SkipDeepTraversal bool
}

// Orchestrator sequences the workflow handlers. Construction wires the
// capabilities; the traversal engine is built lazily on first use so
// requests that never reach deep traversal pay nothing for it.
type Orchestrator struct {
	extractor  *extraction.Extractor
	graph      kg.Graph
	searcher   GraphSearcher
	summarizer SummaryProvider
	ruleEngine *rules.Engine
	logger     *slog.Logger

	traverserOnce sync.Once
	traverser     *kg.Traverser

	handlers map[types.AgentAction]handlerFunc
}

// handlerFunc executes one workflow step. The returned note, if any, lands
// on the step's reasoning-trace entry.
type handlerFunc func(ctx context.Context, state *types.AgentState, req Request) (string, error)

// Options wires optional capabilities into the orchestrator.
type Options struct {
	Graph      kg.Graph
	Searcher   GraphSearcher
	Summarizer SummaryProvider
	RuleEngine *rules.Engine
	Logger     *slog.Logger
}

// New creates an orchestrator. Only the extractor is mandatory; every other
// capability degrades to a skipped step.
func New(extractor *extraction.Extractor, opts Options) *Orchestrator {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	o := &Orchestrator{
		extractor:  extractor,
		graph:      opts.Graph,
		searcher:   opts.Searcher,
		summarizer: opts.Summarizer,
		ruleEngine: opts.RuleEngine,
		logger:     logger,
	}
	o.handlers = map[types.AgentAction]handlerFunc{
		types.ActionAnalyze:         o.handleAnalyze,
		types.ActionExtractEntities: o.handleExtractEntities,
		types.ActionSearchGraph:     o.handleSearchGraph,
		types.ActionDeepTraverse:    o.handleDeepTraverse,
		types.ActionSynthesize:      o.handleSynthesize,
		types.ActionComplete:        o.handleComplete,
	}
	return o
}

// Traverser returns the lazily built traversal engine.
func (o *Orchestrator) Traverser() *kg.Traverser {
	o.traverserOnce.Do(func() {
		o.traverser = kg.NewTraverser(o.graph)
	})
	return o.traverser
}

// HasGraph reports whether a knowledge graph is wired in.
func (o *Orchestrator) HasGraph() bool { return o.graph != nil }

// Run executes the workflow for one request and returns the final state.
// Handler failures are captured into the state, never raised: the caller
// always receives the best partial result.
func (o *Orchestrator) Run(ctx context.Context, req Request) *types.AgentState {
	requestID := req.RequestID
	if requestID == "" {
		requestID = uuid.NewString()
	}
	state := &types.AgentState{
		RequestID:     requestID,
		Query:         req.Query,
		Facts:         req.Facts,
		Locale:        req.Locale,
		Theme:         req.Theme,
		CurrentAction: types.ActionAnalyze,
	}

	for step := 0; state.CurrentAction != types.ActionNone && step < maxSteps; step++ {
		action := state.CurrentAction
		note, err := o.execute(ctx, action, state, req)
		if err != nil {
			state.Error = err.Error()
			state.Completed = true
			o.logger.Error("workflow handler failed",
				"request_id", state.RequestID, "action", action, "error", err)
			break
		}
		state.ReasoningSteps = append(state.ReasoningSteps, types.ReasoningStep{
			Step:      step,
			Action:    action,
			Timestamp: time.Now(),
			Note:      note,
		})
		state.CurrentAction = types.Transitions[action]
	}
	return state
}

// execute runs one handler under its deadline, converting panics into
// ordinary handler failures.
func (o *Orchestrator) execute(ctx context.Context, action types.AgentAction, state *types.AgentState, req Request) (note string, err error) {
	handler, ok := o.handlers[action]
	if !ok {
		return "", fmt.Errorf("no handler for action %q", action)
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler %s panicked: %v", action, r)
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, handlerTimeout)
	defer cancel()
	return handler(ctx, state, req)
}
