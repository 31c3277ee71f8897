package mirae

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/mirae-labs/go-mirae/pkg/rules"
)

// RLHF weight bounds; feedback outside this range is rejected.
const (
	minRLHFWeight = 0.1
	maxRLHFWeight = 3.0
)

// RuleService owns the rule engine plus the mutable RLHF weight map fed by
// the feedback endpoint. The engine itself only ever sees full snapshots.
type RuleService struct {
	mu      sync.Mutex
	engine  *rules.Engine
	weights map[string]float64
}

// NewRuleService creates the service with an empty engine.
func NewRuleService(logger *slog.Logger) *RuleService {
	return &RuleService{
		engine:  rules.NewEngine(logger),
		weights: make(map[string]float64),
	}
}

// Engine returns the underlying evaluator.
func (s *RuleService) Engine() *rules.Engine { return s.engine }

// Load reads the rule directory into the engine.
func (s *RuleService) Load(dir string) error { return s.engine.Load(dir) }

// Feedback records one RLHF weight for a rule and pushes the updated
// snapshot to the engine.
func (s *RuleService) Feedback(ruleID string, weight float64) error {
	if ruleID == "" {
		return fmt.Errorf("rule id required")
	}
	if weight < minRLHFWeight || weight > maxRLHFWeight {
		return fmt.Errorf("weight %.2f outside [%.1f, %.1f]", weight, minRLHFWeight, maxRLHFWeight)
	}
	s.mu.Lock()
	s.weights[ruleID] = weight
	snapshot := make(map[string]float64, len(s.weights))
	for id, w := range s.weights {
		snapshot[id] = w
	}
	s.mu.Unlock()
	s.engine.SetRLHFWeights(snapshot)
	return nil
}

// Stats reports loaded rule counts and feedback volume.
func (s *RuleService) Stats() map[string]interface{} {
	s.mu.Lock()
	adjusted := len(s.weights)
	s.mu.Unlock()
	counts := s.engine.Counts()
	total := 0
	for _, n := range counts {
		total += n
	}
	return map[string]interface{}{
		"themes":        counts,
		"total_rules":   total,
		"rlhf_adjusted": adjusted,
	}
}
