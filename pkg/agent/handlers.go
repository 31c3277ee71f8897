package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mirae-labs/go-mirae/pkg/kg"
	"github.com/mirae-labs/go-mirae/pkg/signals"
	"github.com/mirae-labs/go-mirae/pkg/types"
)

// Synthesis confidence contributions. They sum to 1.0 only when a summary
// provider is wired; without one the ceiling is 0.80. Deliberately not
// renormalized.
const (
	entityConfidence  = 0.20
	graphConfidence   = 0.25
	pathConfidence    = 0.35
	summaryConfidence = 0.20
)

func (o *Orchestrator) handleAnalyze(_ context.Context, state *types.AgentState, _ Request) (string, error) {
	hasBirth := false
	hasTransit := false
	for _, key := range []string{"birth", "planets", "pillars", "saju"} {
		if _, ok := state.Facts[key]; ok {
			hasBirth = true
			break
		}
	}
	if _, ok := state.Facts["transits"]; ok {
		hasTransit = true
	}
	note := fmt.Sprintf("query_len=%d birth_facts=%t transit_facts=%t",
		len([]rune(state.Query)), hasBirth, hasTransit)
	return note, nil
}

func (o *Orchestrator) handleExtractEntities(ctx context.Context, state *types.AgentState, _ Request) (string, error) {
	entities := o.extractor.Extract(ctx, state.Query)
	if len(state.Facts) > 0 {
		if serialized, err := json.Marshal(state.Facts); err == nil {
			entities = append(entities, o.extractor.Extract(ctx, string(serialized))...)
		}
	}

	seen := make(map[string]bool, len(entities))
	deduped := entities[:0]
	for _, ent := range entities {
		if seen[ent.Normalized] {
			continue
		}
		seen[ent.Normalized] = true
		deduped = append(deduped, ent)
	}
	state.Entities = deduped
	state.Relations = o.extractor.ExtractRelations(state.Query, deduped)
	return fmt.Sprintf("entities=%d relations=%d", len(deduped), len(state.Relations)), nil
}

func (o *Orchestrator) handleSearchGraph(ctx context.Context, state *types.AgentState, _ Request) (string, error) {
	if o.searcher == nil {
		return "no searcher", nil
	}
	query := state.Query
	if len(state.Facts) > 0 {
		if serialized, err := json.Marshal(state.Facts); err == nil {
			query += " " + string(serialized)
		}
	}
	results, err := o.searcher.Search(ctx, query, 10)
	if err != nil {
		return "", fmt.Errorf("graph search failed: %w", err)
	}
	state.GraphResults = results
	return fmt.Sprintf("results=%d", len(results)), nil
}

func (o *Orchestrator) handleDeepTraverse(_ context.Context, state *types.AgentState, req Request) (string, error) {
	if o.graph == nil || req.SkipDeepTraversal || len(state.Entities) == 0 {
		return "skipped", nil
	}
	ids := make([]string, 0, len(state.Entities))
	for _, ent := range state.Entities {
		ids = append(ids, ent.Normalized)
	}
	state.TraversalPaths = o.Traverser().Traverse(ids, kg.TraverseOptions{
		MaxDepth: 3,
		MaxPaths: 5,
	})
	return fmt.Sprintf("paths=%d", len(state.TraversalPaths)), nil
}

func (o *Orchestrator) handleSynthesize(ctx context.Context, state *types.AgentState, _ Request) (string, error) {
	var sections []string
	confidence := 0.0
	hasSummary := false

	if o.summarizer != nil {
		summary, err := o.summarizer.Summarize(ctx, state.Query)
		if err != nil {
			o.logger.Warn("summary provider unavailable",
				"request_id", state.RequestID, "error", err)
		} else if summary != "" {
			sections = append(sections, "## Overview\n"+summary)
			hasSummary = true
		}
	}

	if len(state.Entities) > 0 {
		limit := len(state.Entities)
		if limit > 10 {
			limit = 10
		}
		parts := make([]string, limit)
		for i := 0; i < limit; i++ {
			ent := state.Entities[i]
			parts[i] = fmt.Sprintf("%s (%s)", ent.Normalized, ent.Type)
		}
		sections = append(sections, "## Entities\n"+strings.Join(parts, ", "))
		confidence += entityConfidence
	}

	if len(state.GraphResults) > 0 {
		limit := len(state.GraphResults)
		if limit > 5 {
			limit = 5
		}
		var lines []string
		for _, result := range state.GraphResults[:limit] {
			if encoded, err := json.Marshal(result); err == nil {
				lines = append(lines, string(encoded))
			}
		}
		sections = append(sections, "## Graph matches\n"+strings.Join(lines, "\n"))
		confidence += graphConfidence
	}

	if len(state.TraversalPaths) > 0 {
		limit := len(state.TraversalPaths)
		if limit > 3 {
			limit = 3
		}
		var lines []string
		for _, path := range state.TraversalPaths[:limit] {
			lines = append(lines, path.Context)
		}
		sections = append(sections, "## Knowledge paths\n"+strings.Join(lines, "\n\n"))
		confidence += pathConfidence
	}

	if hasSummary {
		confidence += summaryConfidence
	}

	// Curated rules and derived chart signals enrich the context but do not
	// move the confidence score.
	if o.ruleEngine != nil && len(state.Facts) > 0 {
		result := o.ruleEngine.Evaluate(state.Facts, false)
		if result.MatchedCount > 0 {
			limit := result.MatchedCount
			if limit > 3 {
				limit = 3
			}
			var lines []string
			for _, m := range result.MatchedRules[:limit] {
				lines = append(lines, m.Text)
			}
			sections = append(sections, "## Readings\n"+strings.Join(lines, "\n"))
		}
	}
	if len(state.Facts) > 0 {
		report := signals.Extract(state.Facts)
		if line := summarizeSignals(report); line != "" {
			sections = append(sections, "## Chart signals\n"+line)
		}
	}

	state.Context = strings.Join(sections, "\n\n")
	if confidence > 1 {
		confidence = 1
	}
	state.Confidence = confidence
	return fmt.Sprintf("sections=%d confidence=%.2f", len(sections), confidence), nil
}

func (o *Orchestrator) handleComplete(_ context.Context, state *types.AgentState, _ Request) (string, error) {
	state.Completed = true
	return "", nil
}

// summarizeSignals renders the boolean highlights of a signal report.
func summarizeSignals(report signals.Signals) string {
	var parts []string
	for _, key := range []string{"has_career_signal", "has_wealth_signal", "has_love_signal", "has_health_signal"} {
		if flag, _ := report.Astro[key].(bool); flag {
			parts = append(parts, key)
		}
	}
	for _, key := range []string{"has_officer", "has_wealth_star", "has_love_star", "has_clash", "has_sanhap"} {
		if flag, _ := report.Saju[key].(bool); flag {
			parts = append(parts, key)
		}
	}
	return strings.Join(parts, ", ")
}
