// Package signals derives high-level astrological and saju signals from
// precomputed chart facts. Extraction is pure: it reports only what the
// facts directly contain and never invents chart positions.
package signals

// Signals is the combined report for one chart.
type Signals struct {
	Astro map[string]interface{} `json:"astro"`
	Saju  map[string]interface{} `json:"saju"`
}

// Extract derives all signals from the free-form chart facts. Missing or
// malformed sections simply yield empty sub-reports.
func Extract(facts map[string]interface{}) Signals {
	return Signals{
		Astro: extractAstro(facts),
		Saju:  extractSaju(facts),
	}
}

func asMap(v interface{}) map[string]interface{} {
	m, _ := v.(map[string]interface{})
	return m
}

func asSlice(v interface{}) []interface{} {
	s, _ := v.([]interface{})
	return s
}

func asString(v interface{}) string {
	s, _ := v.(string)
	return s
}

func asInt(v interface{}) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	}
	return 0, false
}

func asFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
