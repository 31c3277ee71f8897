// Package extraction maps raw divination queries to normalized domain
// entities and typed relations. The pattern stage always runs; an LLM
// fallback fills in only when patterns found too little and configuration
// enables it.
package extraction

import (
	"context"
	"log/slog"
	"regexp"
	"sort"
	"strings"

	"github.com/mirae-labs/go-mirae/pkg/llm"
	"github.com/mirae-labs/go-mirae/pkg/types"
)

const (
	patternConfidence = 0.9
	llmConfidence     = 0.8
	// minPatternHits: below this many pattern entities the LLM fallback is
	// consulted (when enabled).
	minPatternHits = 2
)

// Extractor recognizes entities in bilingual (Korean/English/Hanja) text. It
// is stateless between calls; the zero-value pattern path does no I/O.
type Extractor struct {
	generator llm.Generator
	useLLM    bool
	logger    *slog.Logger
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithLLMFallback enables the LLM NER fallback using g.
func WithLLMFallback(g llm.Generator) Option {
	return func(e *Extractor) {
		e.generator = g
		e.useLLM = g != nil
	}
}

// WithLogger sets the logger used for fallback diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(e *Extractor) { e.logger = l }
}

// New creates an Extractor.
func New(opts ...Option) *Extractor {
	e := &Extractor{logger: slog.Default()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract returns the normalized entities found in text, deduplicated by
// (type, normalized) with the first occurrence winning. Results are ordered
// by position of first occurrence.
func (e *Extractor) Extract(ctx context.Context, text string) []types.Entity {
	entities := extractPatterns(text)
	if e.useLLM && len(entities) < minPatternHits {
		entities = mergeEntities(entities, e.extractWithLLM(ctx, text))
	}
	return entities
}

type candidate struct {
	pos    int
	entity types.Entity
}

func matchAll(m typeMatcher, re *regexp.Regexp, text string) []candidate {
	if re == nil {
		return nil
	}
	var out []candidate
	for _, loc := range re.FindAllStringIndex(text, -1) {
		matched := text[loc[0]:loc[1]]
		normalized, ok := m.normalize[strings.ToLower(matched)]
		if !ok {
			continue
		}
		out = append(out, candidate{
			pos: loc[0],
			entity: types.Entity{
				Text:       matched,
				Type:       m.entityType,
				Normalized: normalized,
				Confidence: patternConfidence,
			},
		})
	}
	return out
}

// extractPatterns runs the compiled lexicon matchers over text.
func extractPatterns(text string) []types.Entity {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	var candidates []candidate
	for _, m := range matchers {
		candidates = append(candidates, matchAll(m, m.english, text)...)
		candidates = append(candidates, matchAll(m, m.cjk, text)...)
	}
	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].pos < candidates[j].pos })

	seen := make(map[string]bool)
	out := make([]types.Entity, 0, len(candidates))
	for _, c := range candidates {
		key := c.entity.Key()
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, c.entity)
	}
	return out
}

func mergeEntities(base, extra []types.Entity) []types.Entity {
	index := make(map[string]int, len(base))
	out := append([]types.Entity(nil), base...)
	for i, ent := range out {
		index[ent.Key()] = i
	}
	for _, ent := range extra {
		if i, ok := index[ent.Key()]; ok {
			if ent.Confidence > out[i].Confidence {
				out[i] = ent
			}
			continue
		}
		index[ent.Key()] = len(out)
		out = append(out, ent)
	}
	return out
}
