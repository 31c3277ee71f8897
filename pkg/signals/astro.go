package signals

import (
	"math"
	"strings"
)

// aspectOrb is the maximum deviation in degrees when aspects must be
// recomputed from longitudes.
const aspectOrb = 6.0

var (
	careerHouses = map[int]bool{10: true, 6: true, 2: true}
	wealthHouses = map[int]bool{2: true, 8: true}
	loveHouses   = map[int]bool{7: true, 5: true}
	healthHouses = map[int]bool{6: true, 12: true, 1: true}

	careerPlanets = map[string]bool{"sun": true, "saturn": true, "jupiter": true, "mars": true}
	wealthPlanets = map[string]bool{"jupiter": true, "venus": true}
	lovePlanets   = map[string]bool{"venus": true, "mars": true, "moon": true}
	healthPlanets = map[string]bool{"saturn": true, "mars": true, "neptune": true}

	softAspects = map[string]bool{"conjunction": true, "trine": true, "sextile": true}
	hardAspects = map[string]bool{"square": true, "opposition": true}

	// rulership is the fixed sign-ruler table, also used for the ascendant
	// ruler.
	rulership = map[string]string{
		"aries": "Mars", "taurus": "Venus", "gemini": "Mercury",
		"cancer": "Moon", "leo": "Sun", "virgo": "Mercury",
		"libra": "Venus", "scorpio": "Pluto", "sagittarius": "Jupiter",
		"capricorn": "Saturn", "aquarius": "Uranus", "pisces": "Neptune",
	}

	exaltation = map[string]string{
		"sun": "aries", "moon": "taurus", "mercury": "virgo",
		"venus": "pisces", "mars": "capricorn", "jupiter": "cancer",
		"saturn": "libra",
	}

	signElements = map[string]string{
		"aries": "fire", "leo": "fire", "sagittarius": "fire",
		"taurus": "earth", "virgo": "earth", "capricorn": "earth",
		"gemini": "air", "libra": "air", "aquarius": "air",
		"cancer": "water", "scorpio": "water", "pisces": "water",
	}
)

type planetFact struct {
	name      string
	sign      string
	house     int
	longitude float64
	hasLong   bool
}

func extractAstro(facts map[string]interface{}) map[string]interface{} {
	planets := parsePlanets(facts)
	out := make(map[string]interface{})
	if len(planets) == 0 {
		return out
	}

	var career, wealth, love, health []string
	elementCounts := map[string]int{"fire": 0, "earth": 0, "air": 0, "water": 0}
	dignities := make(map[string]string)

	for _, p := range planets {
		if careerPlanets[p.name] && careerHouses[p.house] {
			career = append(career, title(p.name))
		}
		if wealthPlanets[p.name] && wealthHouses[p.house] {
			wealth = append(wealth, title(p.name))
		}
		if lovePlanets[p.name] && loveHouses[p.house] {
			love = append(love, title(p.name))
		}
		if healthPlanets[p.name] && healthHouses[p.house] {
			health = append(health, title(p.name))
		}
		if el, ok := signElements[p.sign]; ok {
			elementCounts[el]++
		}
		if tag := dignityOf(p.name, p.sign); tag != "" {
			dignities[title(p.name)] = tag
		}
	}

	out["career_planets"] = career
	out["wealth_planets"] = wealth
	out["love_planets"] = love
	out["health_planets"] = health
	out["has_career_signal"] = len(career) > 0
	out["has_wealth_signal"] = len(wealth) > 0
	out["has_love_signal"] = len(love) > 0
	out["has_health_signal"] = len(health) > 0
	out["element_counts"] = elementCounts
	if len(dignities) > 0 {
		out["dignities"] = dignities
	}

	soft, hard := countAspectsToLights(facts, planets)
	out["soft_aspects_to_lights"] = soft
	out["hard_aspects_to_lights"] = hard

	if asc := ascendantSign(facts); asc != "" {
		if ruler, ok := rulership[asc]; ok {
			out["ascendant_ruler"] = ruler
		}
	}
	return out
}

func parsePlanets(facts map[string]interface{}) []planetFact {
	var out []planetFact
	for _, item := range asSlice(facts["planets"]) {
		m := asMap(item)
		if m == nil {
			continue
		}
		p := planetFact{
			name: strings.ToLower(asString(m["name"])),
			sign: strings.ToLower(asString(m["sign"])),
		}
		if p.name == "" {
			continue
		}
		if h, ok := asInt(m["house"]); ok {
			p.house = h
		}
		if lon, ok := asFloat(m["longitude"]); ok {
			p.longitude = lon
			p.hasLong = true
		}
		out = append(out, p)
	}
	return out
}

// countAspectsToLights prefers the precomputed aspect list; without one it
// recomputes aspects to the Sun and Moon from longitudes with a 6 degree orb.
func countAspectsToLights(facts map[string]interface{}, planets []planetFact) (soft, hard int) {
	aspects := asSlice(facts["aspects"])
	if len(aspects) > 0 {
		for _, item := range aspects {
			m := asMap(item)
			if m == nil {
				continue
			}
			p1 := strings.ToLower(firstString(m, "p1", "planet1", "first"))
			p2 := strings.ToLower(firstString(m, "p2", "planet2", "second"))
			if p1 != "sun" && p1 != "moon" && p2 != "sun" && p2 != "moon" {
				continue
			}
			kind := strings.ToLower(firstString(m, "type", "aspect"))
			if softAspects[kind] {
				soft++
			} else if hardAspects[kind] {
				hard++
			}
		}
		return soft, hard
	}

	// Longitude fallback.
	var lights, others []planetFact
	for _, p := range planets {
		if !p.hasLong {
			continue
		}
		if p.name == "sun" || p.name == "moon" {
			lights = append(lights, p)
		} else {
			others = append(others, p)
		}
	}
	for _, light := range lights {
		for _, other := range others {
			switch aspectByLongitude(light.longitude, other.longitude) {
			case "conjunction", "trine", "sextile":
				soft++
			case "square", "opposition":
				hard++
			}
		}
	}
	return soft, hard
}

func aspectByLongitude(a, b float64) string {
	diff := math.Abs(a - b)
	if diff > 180 {
		diff = 360 - diff
	}
	angles := []struct {
		angle float64
		name  string
	}{
		{0, "conjunction"}, {60, "sextile"}, {90, "square"},
		{120, "trine"}, {180, "opposition"},
	}
	for _, cand := range angles {
		if math.Abs(diff-cand.angle) <= aspectOrb {
			return cand.name
		}
	}
	return ""
}

func dignityOf(planet, sign string) string {
	if sign == "" {
		return ""
	}
	ruled := strings.ToLower(rulership[sign])
	if ruled == planet {
		return "rulership"
	}
	if exaltation[planet] == sign {
		return "exaltation"
	}
	if opp, ok := oppositeSigns[sign]; ok {
		if strings.ToLower(rulership[opp]) == planet {
			return "detriment"
		}
		if exaltation[planet] == opp {
			return "fall"
		}
	}
	return ""
}

var oppositeSigns = map[string]string{
	"aries": "libra", "libra": "aries",
	"taurus": "scorpio", "scorpio": "taurus",
	"gemini": "sagittarius", "sagittarius": "gemini",
	"cancer": "capricorn", "capricorn": "cancer",
	"leo": "aquarius", "aquarius": "leo",
	"virgo": "pisces", "pisces": "virgo",
}

func ascendantSign(facts map[string]interface{}) string {
	switch asc := facts["ascendant"].(type) {
	case string:
		return strings.ToLower(asc)
	case map[string]interface{}:
		return strings.ToLower(asString(asc["sign"]))
	}
	return ""
}

func firstString(m map[string]interface{}, keys ...string) string {
	for _, k := range keys {
		if s := asString(m[k]); s != "" {
			return s
		}
	}
	return ""
}

func title(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
