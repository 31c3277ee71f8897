package dto

import "github.com/mirae-labs/go-mirae/pkg/types"

// AskRequest is the body of POST /v1/ask and POST /v1/ask/stream.
// UseDeepTraversal is optional; when absent the graph is traversed whenever
// one is wired.
type AskRequest struct {
	Query            string                 `json:"query" binding:"required"`
	Dream            string                 `json:"dream,omitempty"`
	Name             string                 `json:"name,omitempty"`
	Facts            map[string]interface{} `json:"facts,omitempty"`
	Locale           string                 `json:"locale,omitempty"`
	Theme            string                 `json:"theme,omitempty"`
	SessionID        string                 `json:"session_id,omitempty"`
	UseDeepTraversal *bool                  `json:"use_deep_traversal,omitempty"`
	Model            string                 `json:"model,omitempty"`
}

// AskStats summarizes what the workflow produced for one request.
type AskStats struct {
	EntitiesCount       int  `json:"entities_count"`
	PathsCount          int  `json:"paths_count"`
	GraphResultsCount   int  `json:"graph_results_count"`
	ReasoningStepsCount int  `json:"reasoning_steps_count"`
	HasGraphRAG         bool `json:"has_graph_rag"`
}

// AskResponse is the synchronous reading result. Status is "success" only
// when the workflow completed without error; an "error" response still
// carries the partial payload that was assembled.
type AskResponse struct {
	Status         string                   `json:"status"`
	RequestID      string                   `json:"request_id"`
	Answer         string                   `json:"answer"`
	Context        string                   `json:"context"`
	Entities       []types.Entity           `json:"entities"`
	TraversalPaths []types.TraversalPath    `json:"traversal_paths"`
	GraphResults   []map[string]interface{} `json:"graph_results"`
	ReasoningSteps []types.ReasoningStep    `json:"reasoning_steps"`
	Confidence     float64                  `json:"confidence"`
	Variant        string                   `json:"variant,omitempty"`
	Stats          AskStats                 `json:"stats"`
	Error          string                   `json:"error,omitempty"`
}
