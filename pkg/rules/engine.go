// Package rules evaluates curated JSON rule sets against flattened fact
// tokens, with per-rule RLHF weight multipliers learned from user feedback.
package rules

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

const (
	defaultTheme = "daily"
	metaTheme    = "meta"
	maxMatches   = 10
	maxTextScore = 200
)

// Rule is one curated interpretation rule. A rule fires iff every lowercase
// token in When appears in the flattened fact token set.
type Rule struct {
	ID     string   `json:"id"`
	When   []string `json:"when"`
	Text   string   `json:"text"`
	Weight int      `json:"weight"`
}

// MatchedRule is a fired rule with its final score.
type MatchedRule struct {
	Rule
	Score       float64 `json:"score"`
	RLHFApplied bool    `json:"rlhf_applied"`
}

// Result is the outcome of one evaluation.
type Result struct {
	Theme              string        `json:"theme"`
	RulesLoaded        int           `json:"rules_loaded"`
	MatchedRules       []MatchedRule `json:"matched_rules"`
	MatchedRuleIDs     []string      `json:"matched_rule_ids"`
	MatchedCount       int           `json:"matched_count"`
	RLHFWeightsApplied int           `json:"rlhf_weights_applied"`
}

// Engine holds the loaded rule sets and the RLHF weight map. Reload and
// weight updates swap state atomically under the lock; evaluation itself is
// read-only.
type Engine struct {
	mu     sync.RWMutex
	sets   map[string][]Rule
	rlhf   map[string]float64
	logger *slog.Logger
}

// NewEngine creates an empty engine.
func NewEngine(logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		sets:   make(map[string][]Rule),
		rlhf:   make(map[string]float64),
		logger: logger,
	}
}

// Load reads every *.json file under dir into a named rule set (filename
// stem). Malformed files are logged and skipped; only a missing or
// non-directory path fails the load. The new set map replaces the old one
// atomically.
func (e *Engine) Load(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("rules dir unavailable: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("rules path is not a directory: %s", dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to list rules dir: %w", err)
	}

	sets := make(map[string][]Rule)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		theme := strings.TrimSuffix(entry.Name(), ".json")
		rules, err := loadRuleFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			e.logger.Warn("skipping malformed rule file", "file", entry.Name(), "error", err)
			continue
		}
		sets[theme] = rules
	}

	e.mu.Lock()
	e.sets = sets
	e.mu.Unlock()
	e.logger.Info("rule sets loaded", "themes", len(sets))
	return nil
}

// loadRuleFile decodes one theme file. Values are either bare strings
// (shorthand for when=[id], weight=1) or full rule objects.
func loadRuleFile(path string) ([]Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(raw))
	for id := range raw {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	rules := make([]Rule, 0, len(raw))
	for _, id := range ids {
		var text string
		if err := json.Unmarshal(raw[id], &text); err == nil {
			rules = append(rules, Rule{ID: id, When: []string{strings.ToLower(id)}, Text: text, Weight: 1})
			continue
		}
		var full struct {
			When   []string `json:"when"`
			Text   string   `json:"text"`
			Weight int      `json:"weight"`
		}
		if err := json.Unmarshal(raw[id], &full); err != nil {
			return nil, fmt.Errorf("rule %s: %w", id, err)
		}
		if full.Weight == 0 {
			full.Weight = 1
		}
		when := make([]string, len(full.When))
		for i, w := range full.When {
			when[i] = strings.ToLower(w)
		}
		rules = append(rules, Rule{ID: id, When: when, Text: full.Text, Weight: full.Weight})
	}
	return rules, nil
}

// Counts reports the number of loaded rules per theme.
func (e *Engine) Counts() map[string]int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make(map[string]int, len(e.sets))
	for theme, rules := range e.sets {
		out[theme] = len(rules)
	}
	return out
}

// SetRLHFWeights replaces the per-rule score multipliers.
func (e *Engine) SetRLHFWeights(weights map[string]float64) {
	copied := make(map[string]float64, len(weights))
	for id, w := range weights {
		copied[id] = w
	}
	e.mu.Lock()
	e.rlhf = copied
	e.mu.Unlock()
}

// Evaluate matches facts against the theme's rule set (facts["theme"],
// default "daily"). With searchAll every set except "meta" is consulted.
// Matches are scored (weight + min(len(text), 200)) * rlhf and the top 10
// returned in descending score order.
func (e *Engine) Evaluate(facts map[string]interface{}, searchAll bool) Result {
	e.mu.RLock()
	defer e.mu.RUnlock()

	theme := defaultTheme
	if t, ok := facts["theme"].(string); ok && t != "" {
		theme = t
	}

	var pool []Rule
	if searchAll {
		names := make([]string, 0, len(e.sets))
		for name := range e.sets {
			if name != metaTheme {
				names = append(names, name)
			}
		}
		sort.Strings(names)
		for _, name := range names {
			pool = append(pool, e.sets[name]...)
		}
	} else {
		pool = e.sets[theme]
	}

	tokens := FlattenTokens(facts)
	tokenSet := make(map[string]bool, len(tokens))
	for _, t := range tokens {
		tokenSet[t] = true
	}

	var matched []MatchedRule
	rlhfApplied := 0
	for _, rule := range pool {
		if !fires(rule, tokenSet) {
			continue
		}
		multiplier := 1.0
		applied := false
		if w, ok := e.rlhf[rule.ID]; ok {
			multiplier = w
			applied = true
			rlhfApplied++
		}
		textScore := len(rule.Text)
		if textScore > maxTextScore {
			textScore = maxTextScore
		}
		matched = append(matched, MatchedRule{
			Rule:        rule,
			Score:       float64(rule.Weight+textScore) * multiplier,
			RLHFApplied: applied,
		})
	}

	sort.SliceStable(matched, func(i, j int) bool { return matched[i].Score > matched[j].Score })
	if len(matched) > maxMatches {
		matched = matched[:maxMatches]
	}

	ids := make([]string, len(matched))
	for i, m := range matched {
		ids[i] = m.ID
	}
	return Result{
		Theme:              theme,
		RulesLoaded:        len(pool),
		MatchedRules:       matched,
		MatchedRuleIDs:     ids,
		MatchedCount:       len(matched),
		RLHFWeightsApplied: rlhfApplied,
	}
}

// fires reports whether every when-token is in the flattened set.
func fires(rule Rule, tokens map[string]bool) bool {
	if len(rule.When) == 0 {
		return false
	}
	for _, w := range rule.When {
		if !tokens[w] {
			return false
		}
	}
	return true
}
