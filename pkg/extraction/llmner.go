package extraction

import (
	"context"
	"time"

	"github.com/mirae-labs/go-mirae/pkg/llm"
	"github.com/mirae-labs/go-mirae/pkg/types"
)

const nerPrompt = `Extract divination entities from the text below.
Respond with only a JSON object of this shape:
{"entities":[{"text":"...","type":"planet|sign|house|aspect|element|stem|branch|ten_god|shinsal|transit|tarot|hexagram","normalized":"...","confidence":0.8}],
 "relations":[{"source":"...","label":"...","target":"..."}]}
normalized is the canonical English or romanized form.

Text: `

var validEntityTypes = map[string]types.EntityType{
	"planet":   types.PlanetEntity,
	"sign":     types.SignEntity,
	"house":    types.HouseEntity,
	"aspect":   types.AspectEntity,
	"element":  types.ElementEntity,
	"stem":     types.StemEntity,
	"branch":   types.BranchEntity,
	"ten_god":  types.TenGodEntity,
	"shinsal":  types.ShinsalEntity,
	"transit":  types.TransitEntity,
	"tarot":    types.TarotEntity,
	"hexagram": types.HexagramEntity,
}

// extractWithLLM asks the generator for entities the pattern stage missed.
// Malformed or unreachable LLM output silently yields nothing; the pattern
// results always stand on their own.
func (e *Extractor) extractWithLLM(ctx context.Context, text string) []types.Entity {
	if e.generator == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	raw, err := e.generator.Generate(ctx, llm.GenerateRequest{Prompt: nerPrompt + text, MaxTokens: 512})
	if err != nil {
		e.logger.Warn("llm ner fallback unavailable", "error", err)
		return nil
	}

	decoded := llm.ParseJSONObject(raw, nil)
	if decoded == nil {
		e.logger.Warn("llm ner returned unparseable output")
		return nil
	}

	items, _ := decoded["entities"].([]interface{})
	var out []types.Entity
	for _, item := range items {
		m, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		et, ok := validEntityTypes[stringField(m, "type")]
		if !ok {
			continue
		}
		normalized := stringField(m, "normalized")
		if normalized == "" {
			continue
		}
		confidence := llmConfidence
		if c, ok := m["confidence"].(float64); ok && c > 0 && c <= 1 {
			confidence = c
		}
		out = append(out, types.Entity{
			Text:       stringField(m, "text"),
			Type:       et,
			Normalized: normalized,
			Confidence: confidence,
		})
	}
	return out
}

func stringField(m map[string]interface{}, key string) string {
	s, _ := m[key].(string)
	return s
}
