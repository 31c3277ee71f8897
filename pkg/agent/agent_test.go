package agent_test

import (
	"context"
	"errors"
	"testing"

	"github.com/mirae-labs/go-mirae/pkg/agent"
	"github.com/mirae-labs/go-mirae/pkg/extraction"
	"github.com/mirae-labs/go-mirae/pkg/kg"
	"github.com/mirae-labs/go-mirae/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSearcher struct {
	results []map[string]interface{}
	err     error
}

func (s stubSearcher) Search(_ context.Context, _ string, _ int) ([]map[string]interface{}, error) {
	return s.results, s.err
}

type stubSummarizer struct{ summary string }

func (s stubSummarizer) Summarize(_ context.Context, _ string) (string, error) {
	return s.summary, nil
}

func divinationGraph() *kg.MemoryGraph {
	g := kg.NewMemoryGraph()
	g.AddEdge(kg.Edge{Source: "Saturn", Target: "House10", Relation: "in", Desc: "career weight", Weight: 0.9})
	g.AddEdge(kg.Edge{Source: "House10", Target: "Career", Relation: "governs", Weight: 0.8})
	return g
}

func TestRunCompletesWorkflow(t *testing.T) {
	o := agent.New(extraction.New(), agent.Options{
		Graph:    divinationGraph(),
		Searcher: stubSearcher{results: []map[string]interface{}{{"node": "Saturn"}}},
	})

	state := o.Run(context.Background(), agent.Request{
		Query: "What does Saturn in the 10th house mean for my career?",
	})

	assert.True(t, state.Completed)
	assert.Empty(t, state.Error)
	assert.NotEmpty(t, state.RequestID)
	assert.LessOrEqual(t, len(state.ReasoningSteps), 10)

	// The six workflow actions ran in order.
	require.Len(t, state.ReasoningSteps, 6)
	assert.Equal(t, types.ActionAnalyze, state.ReasoningSteps[0].Action)
	assert.Equal(t, types.ActionComplete, state.ReasoningSteps[5].Action)

	assert.NotEmpty(t, state.Entities)
	assert.NotEmpty(t, state.GraphResults)
	assert.NotEmpty(t, state.TraversalPaths)
	assert.Contains(t, state.Context, "## Entities")
	assert.Contains(t, state.Context, "## Knowledge paths")
}

func TestRunDeterministic(t *testing.T) {
	o := agent.New(extraction.New(), agent.Options{Graph: divinationGraph()})
	req := agent.Request{Query: "Saturn square Venus"}

	a := o.Run(context.Background(), req)
	b := o.Run(context.Background(), req)

	assert.Equal(t, a.Entities, b.Entities)
	assert.Equal(t, a.Context, b.Context)
	assert.Equal(t, a.Confidence, b.Confidence)
}

func TestRunCapturesSearchFailure(t *testing.T) {
	o := agent.New(extraction.New(), agent.Options{
		Searcher: stubSearcher{err: errors.New("backend down")},
	})

	state := o.Run(context.Background(), agent.Request{Query: "Venus in Libra"})

	assert.True(t, state.Completed)
	assert.Contains(t, state.Error, "backend down")
	// Steps before the failure are still on the trace.
	assert.NotEmpty(t, state.ReasoningSteps)
}

func TestRunWithoutOptionalCapabilities(t *testing.T) {
	o := agent.New(extraction.New(), agent.Options{})

	state := o.Run(context.Background(), agent.Request{Query: "Mars in Aries"})

	assert.True(t, state.Completed)
	assert.Empty(t, state.Error)
	assert.Empty(t, state.GraphResults)
	assert.Empty(t, state.TraversalPaths)
}

func TestConfidenceContributions(t *testing.T) {
	// Entities only: 0.20.
	o := agent.New(extraction.New(), agent.Options{})
	state := o.Run(context.Background(), agent.Request{Query: "Mars in Aries"})
	assert.InDelta(t, 0.20, state.Confidence, 1e-9)

	// Entities + graph search: 0.45.
	o = agent.New(extraction.New(), agent.Options{
		Searcher: stubSearcher{results: []map[string]interface{}{{"node": "Mars"}}},
	})
	state = o.Run(context.Background(), agent.Request{Query: "Mars in Aries"})
	assert.InDelta(t, 0.45, state.Confidence, 1e-9)

	// All four sources: capped at 1.0.
	o = agent.New(extraction.New(), agent.Options{
		Graph:      divinationGraph(),
		Searcher:   stubSearcher{results: []map[string]interface{}{{"node": "Saturn"}}},
		Summarizer: stubSummarizer{summary: "community view"},
	})
	state = o.Run(context.Background(), agent.Request{Query: "Saturn in the 10th house"})
	assert.InDelta(t, 1.0, state.Confidence, 1e-9)
	assert.Contains(t, state.Context, "## Overview")
}

func TestDeepTraversalDefaultsOnWithGraph(t *testing.T) {
	o := agent.New(extraction.New(), agent.Options{Graph: divinationGraph()})

	state := o.Run(context.Background(), agent.Request{Query: "Saturn in the 10th house"})
	assert.NotEmpty(t, state.TraversalPaths)
}

func TestDeepTraversalCanBeSkipped(t *testing.T) {
	o := agent.New(extraction.New(), agent.Options{Graph: divinationGraph()})

	state := o.Run(context.Background(), agent.Request{
		Query:             "Saturn in the 10th house",
		SkipDeepTraversal: true,
	})
	assert.Empty(t, state.TraversalPaths)
}

func TestRunHonorsSuppliedRequestID(t *testing.T) {
	o := agent.New(extraction.New(), agent.Options{})

	state := o.Run(context.Background(), agent.Request{RequestID: "req-42", Query: "Mars in Aries"})
	assert.Equal(t, "req-42", state.RequestID)
}

func TestTransitionsTable(t *testing.T) {
	// Every action except complete leads somewhere; complete terminates.
	action := types.ActionAnalyze
	hops := 0
	for action != types.ActionNone {
		action = types.Transitions[action]
		hops++
		require.LessOrEqual(t, hops, 10, "transition table must terminate")
	}
	assert.Equal(t, 6, hops)
}
