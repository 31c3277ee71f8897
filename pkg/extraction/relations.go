package extraction

import (
	"regexp"
	"strings"

	"github.com/mirae-labs/go-mirae/pkg/types"
)

var (
	// "Mars in Scorpio", "sun in the 10th house"
	inPattern = regexp.MustCompile(`(?i)\b([a-z]+)\s+in\s+(?:the\s+)?(\d{1,2}(?:st|nd|rd|th)\s+house|[a-z]+(?:\s+house)?)\b`)
	// "Venus trine Jupiter", "moon squares saturn"
	aspectPattern = regexp.MustCompile(`(?i)\b([a-z]+)\s+(conjunctions?|conjuncts?|trines?|squares?|sextiles?|oppositions?|opposes?)\s+([a-z]+)\b`)
	// "10th house Saturn"
	housePlanetPattern = regexp.MustCompile(`(?i)\b(\d{1,2})(?:st|nd|rd|th)\s+house\s+([a-z]+)\b`)
	// "갑목 일간", "경금 정관" - stem followed by a day-master or ten-god role
	sajuRolePattern = regexp.MustCompile(`(갑목|을목|병화|정화|무토|기토|경금|신금|임수|계수)\s*(일간|비견|겁재|식신|상관|편재|정재|편관|정관|편인|정인)`)
)

var aspectLabels = map[string]string{
	"conjunct": "conjunction", "conjuncts": "conjunction",
	"conjunction": "conjunction", "conjunctions": "conjunction",
	"trine": "trine", "trines": "trine",
	"square": "square", "squares": "square",
	"sextile": "sextile", "sextiles": "sextile",
	"opposition": "opposition", "oppositions": "opposition",
	"opposes": "opposition", "oppose": "opposition",
}

// stemElements maps each heavenly stem to its element, for the day-master
// relation target.
var stemElements = map[string]string{
	"Gap": "Wood", "Eul": "Wood",
	"Byeong": "Fire", "Jeong": "Fire",
	"Mu": "Earth", "Gi": "Earth",
	"Gyeong": "Metal", "Sin": "Metal",
	"Im": "Water", "Gye": "Water",
}

// ExtractRelations applies the relation templates to text and keeps only
// triples whose endpoints appear in entities.
func (e *Extractor) ExtractRelations(text string, entities []types.Entity) []types.Relation {
	known := make(map[string]types.Entity, len(entities))
	for _, ent := range entities {
		known[ent.Key()] = ent
	}
	lookup := func(et types.EntityType, normalized string) (types.Entity, bool) {
		ent, ok := known[string(et)+":"+normalized]
		return ent, ok
	}

	var out []types.Relation

	for _, m := range inPattern.FindAllStringSubmatch(text, -1) {
		source, ok := resolveEndpoint(m[1], lookup, types.PlanetEntity)
		if !ok {
			continue
		}
		target, ok := resolveEndpoint(m[2], lookup, types.SignEntity, types.HouseEntity)
		if !ok {
			continue
		}
		out = append(out, types.Relation{Source: source, Label: "in", Target: target})
	}

	for _, m := range aspectPattern.FindAllStringSubmatch(text, -1) {
		label, ok := aspectLabels[strings.ToLower(m[2])]
		if !ok {
			continue
		}
		source, ok := resolveEndpoint(m[1], lookup, types.PlanetEntity)
		if !ok {
			continue
		}
		target, ok := resolveEndpoint(m[3], lookup, types.PlanetEntity)
		if !ok {
			continue
		}
		out = append(out, types.Relation{Source: source, Label: label, Target: target})
	}

	for _, m := range housePlanetPattern.FindAllStringSubmatch(text, -1) {
		target, ok := lookup(types.HouseEntity, "House"+m[1])
		if !ok {
			continue
		}
		source, ok := resolveEndpoint(m[2], lookup, types.PlanetEntity)
		if !ok {
			continue
		}
		out = append(out, types.Relation{Source: source, Label: "in", Target: target})
	}

	for _, m := range sajuRolePattern.FindAllStringSubmatch(text, -1) {
		normalized, ok := lookupNormalized(types.StemEntity, m[1])
		if !ok {
			continue
		}
		source, ok := lookup(types.StemEntity, normalized)
		if !ok {
			continue
		}
		if m[2] == "일간" {
			target, ok := lookup(types.ElementEntity, stemElements[normalized])
			if !ok {
				continue
			}
			out = append(out, types.Relation{Source: source, Label: "일간", Target: target})
			continue
		}
		roleNorm, ok := lookupNormalized(types.TenGodEntity, m[2])
		if !ok {
			continue
		}
		target, ok := lookup(types.TenGodEntity, roleNorm)
		if !ok {
			continue
		}
		out = append(out, types.Relation{Source: source, Label: m[2], Target: target})
	}

	return out
}

// resolveEndpoint maps a surface token to a known entity, trying the given
// entity types in order. House phrases like "10th house" resolve through the
// house lexicon.
func resolveEndpoint(token string, lookup func(types.EntityType, string) (types.Entity, bool), candidates ...types.EntityType) (types.Entity, bool) {
	cleaned := strings.ToLower(strings.TrimSpace(token))
	for _, et := range candidates {
		if normalized, ok := lookupNormalized(et, cleaned); ok {
			if ent, ok := lookup(et, normalized); ok {
				return ent, true
			}
		}
	}
	return types.Entity{}, false
}
