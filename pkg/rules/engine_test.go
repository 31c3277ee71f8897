package rules_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mirae-labs/go-mirae/pkg/rules"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeRules(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func loadedEngine(t *testing.T) *rules.Engine {
	t.Helper()
	dir := t.TempDir()
	writeRules(t, dir, "daily.json", `{
		"wood_high": {"when": ["wood_high"], "text": "abc", "weight": 2},
		"fire_zero": {"when": ["fire_zero"], "text": "Fire is absent from your chart today.", "weight": 1},
		"dohwa": "Charm flows your way."
	}`)
	writeRules(t, dir, "career.json", `{
		"saturn_tenth": {"when": ["saturn", "house10"], "text": "Heavy responsibility at work.", "weight": 3}
	}`)
	writeRules(t, dir, "meta.json", `{
		"internal_note": {"when": ["wood_high"], "text": "internal only"}
	}`)

	e := rules.NewEngine(nil)
	require.NoError(t, e.Load(dir))
	return e
}

func TestEvaluateScoresTokenMatch(t *testing.T) {
	e := loadedEngine(t)

	result := e.Evaluate(map[string]interface{}{"wood_high": true}, false)

	require.Equal(t, 1, result.MatchedCount)
	assert.Equal(t, "daily", result.Theme)
	assert.Equal(t, "wood_high", result.MatchedRuleIDs[0])
	// (weight 2 + min(len("abc"), 200)) * 1.0
	assert.InDelta(t, 5.0, result.MatchedRules[0].Score, 1e-9)
}

func TestEvaluateThemeSelection(t *testing.T) {
	e := loadedEngine(t)

	facts := map[string]interface{}{
		"theme":   "career",
		"planets": []interface{}{map[string]interface{}{"name": "Saturn", "house": "house10"}},
	}
	result := e.Evaluate(facts, false)

	require.Equal(t, 1, result.MatchedCount)
	assert.Equal(t, "career", result.Theme)
	assert.Equal(t, "saturn_tenth", result.MatchedRuleIDs[0])
}

func TestEvaluateAllWhenTokensRequired(t *testing.T) {
	e := loadedEngine(t)

	result := e.Evaluate(map[string]interface{}{
		"theme":   "career",
		"planets": []interface{}{map[string]interface{}{"name": "Saturn"}},
	}, false)
	assert.Zero(t, result.MatchedCount, "house10 token missing")
}

func TestEvaluateSearchAllSkipsMeta(t *testing.T) {
	e := loadedEngine(t)

	result := e.Evaluate(map[string]interface{}{"wood_high": true}, true)

	for _, id := range result.MatchedRuleIDs {
		assert.NotEqual(t, "internal_note", id)
	}
	assert.Contains(t, result.MatchedRuleIDs, "wood_high")
}

func TestEvaluateRLHFMultiplier(t *testing.T) {
	e := loadedEngine(t)
	e.SetRLHFWeights(map[string]float64{"wood_high": 0.5})

	result := e.Evaluate(map[string]interface{}{"wood_high": true}, false)

	require.Equal(t, 1, result.MatchedCount)
	assert.True(t, result.MatchedRules[0].RLHFApplied)
	assert.InDelta(t, 2.5, result.MatchedRules[0].Score, 1e-9)
	assert.Equal(t, 1, result.RLHFWeightsApplied)
}

func TestEvaluateShorthandRule(t *testing.T) {
	e := loadedEngine(t)

	result := e.Evaluate(map[string]interface{}{"dohwa": true}, false)

	require.Equal(t, 1, result.MatchedCount)
	assert.Equal(t, "Charm flows your way.", result.MatchedRules[0].Text)
}

func TestLoadSkipsMalformedFiles(t *testing.T) {
	dir := t.TempDir()
	writeRules(t, dir, "good.json", `{"ok": "fine"}`)
	writeRules(t, dir, "broken.json", `{not json at all`)

	e := rules.NewEngine(nil)
	require.NoError(t, e.Load(dir))
	assert.Equal(t, map[string]int{"good": 1}, e.Counts())
}

func TestLoadMissingDirFails(t *testing.T) {
	e := rules.NewEngine(nil)
	assert.Error(t, e.Load(filepath.Join(t.TempDir(), "nope")))
}

func TestFlattenTokens(t *testing.T) {
	facts := map[string]interface{}{
		"tags":  []interface{}{"Wood,Fire", "wood"},
		"count": float64(3),
		"inner": map[string]interface{}{"dohwa": true},
	}
	tokens := rules.FlattenTokens(facts)

	assert.Contains(t, tokens, "wood")
	assert.Contains(t, tokens, "fire")
	assert.Contains(t, tokens, "3")
	assert.Contains(t, tokens, "dohwa")
	assert.Contains(t, tokens, "true")

	count := 0
	for _, tok := range tokens {
		if tok == "wood" {
			count++
		}
	}
	assert.Equal(t, 1, count, "tokens deduplicated")
}
