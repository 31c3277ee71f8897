package types

import "time"

// AgentAction identifies one step of the orchestration state machine.
type AgentAction string

const (
	ActionAnalyze         AgentAction = "analyze"
	ActionExtractEntities AgentAction = "extract_entities"
	ActionSearchGraph     AgentAction = "search_graph"
	ActionDeepTraverse    AgentAction = "deep_traverse"
	ActionSynthesize      AgentAction = "synthesize"
	ActionComplete        AgentAction = "complete"
)

// ActionNone is the terminal state: no further handler runs.
const ActionNone AgentAction = ""

// Transitions is the linear order of the workflow. Missing keys map to
// ActionNone, which terminates the run loop.
var Transitions = map[AgentAction]AgentAction{
	ActionAnalyze:         ActionExtractEntities,
	ActionExtractEntities: ActionSearchGraph,
	ActionSearchGraph:     ActionDeepTraverse,
	ActionDeepTraverse:    ActionSynthesize,
	ActionSynthesize:      ActionComplete,
	ActionComplete:        ActionNone,
}

// ReasoningStep records one executed handler for the reasoning trace.
type ReasoningStep struct {
	Step      int         `json:"step"`
	Action    AgentAction `json:"action"`
	Timestamp time.Time   `json:"timestamp"`
	Note      string      `json:"note,omitempty"`
}

// AgentState carries everything about one orchestrated request. It is owned
// exclusively by a single run; nothing in it is shared across requests.
type AgentState struct {
	RequestID string                 `json:"request_id"`
	Query     string                 `json:"query"`
	Facts     map[string]interface{} `json:"facts,omitempty"`
	Locale    string                 `json:"locale"`
	Theme     string                 `json:"theme"`

	Entities       []Entity                 `json:"entities"`
	Relations      []Relation               `json:"relations"`
	GraphResults   []map[string]interface{} `json:"graph_results"`
	TraversalPaths []TraversalPath          `json:"traversal_paths"`
	ReasoningSteps []ReasoningStep          `json:"reasoning_steps"`

	CurrentAction AgentAction `json:"current_action"`
	Context       string      `json:"context"`
	Confidence    float64     `json:"confidence"`
	Completed     bool        `json:"completed"`
	Error         string      `json:"error,omitempty"`
}
