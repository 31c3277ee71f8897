package llm

import (
	"encoding/json"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

const (
	// maxJSONSize bounds LLM output accepted by the safe parser.
	maxJSONSize = 1 << 20
	// maxJSONDepth bounds nesting in the decoded value.
	maxJSONDepth = 50
)

// ParseJSONObject parses an LLM response into a JSON object, tolerating the
// usual model quirks: surrounding prose, markdown fences, trailing commas,
// single quotes. Parse failures never propagate; the fallback is returned
// instead.
func ParseJSONObject(raw string, fallback map[string]interface{}) map[string]interface{} {
	if len(raw) > maxJSONSize {
		return fallback
	}

	candidate := extractObject(raw)
	if candidate == "" {
		return fallback
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal([]byte(candidate), &decoded); err != nil {
		repaired, repairErr := jsonrepair.JSONRepair(candidate)
		if repairErr != nil {
			return fallback
		}
		if err := json.Unmarshal([]byte(repaired), &decoded); err != nil {
			return fallback
		}
	}
	if depthOf(decoded, 0) > maxJSONDepth {
		return fallback
	}
	return decoded
}

// extractObject trims anything around the outermost {...} span.
func extractObject(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end == -1 || end <= start {
		return ""
	}
	return raw[start : end+1]
}

func depthOf(v interface{}, depth int) int {
	if depth > maxJSONDepth {
		return depth
	}
	max := depth
	switch val := v.(type) {
	case map[string]interface{}:
		for _, child := range val {
			if d := depthOf(child, depth+1); d > max {
				max = d
			}
		}
	case []interface{}:
		for _, child := range val {
			if d := depthOf(child, depth+1); d > max {
				max = d
			}
		}
	}
	return max
}
