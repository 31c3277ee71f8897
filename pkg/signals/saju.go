package signals

import "strings"

var (
	// stemElement maps heavenly stems (Korean and romanized) to their
	// element.
	stemElement = map[string]string{
		"갑": "wood", "을": "wood", "gap": "wood", "eul": "wood",
		"병": "fire", "정": "fire", "byeong": "fire", "jeong": "fire",
		"무": "earth", "기": "earth", "mu": "earth", "gi": "earth",
		"경": "metal", "신": "metal", "gyeong": "metal", "sin": "metal",
		"임": "water", "계": "water", "im": "water", "gye": "water",
	}

	// branchElement maps earthly branches to their element.
	branchElement = map[string]string{
		"자": "water", "ja": "water",
		"축": "earth", "chuk": "earth",
		"인": "wood", "in": "wood",
		"묘": "wood", "myo": "wood",
		"진": "earth", "jin": "earth",
		"사": "fire", "sa": "fire",
		"오": "fire", "o": "fire",
		"미": "earth", "mi": "earth",
		"신": "metal", "shin": "metal",
		"유": "metal", "yu": "metal",
		"술": "earth", "sul": "earth",
		"해": "water", "hae": "water",
	}

	// branchClashes are the six 충 pairs.
	branchClashes = [][2]string{
		{"자", "오"}, {"축", "미"}, {"인", "신"},
		{"묘", "유"}, {"진", "술"}, {"사", "해"},
	}

	// sanhapTrios are the 삼합 three-branch harmonies and their resulting
	// element.
	sanhapTrios = []struct {
		branches [3]string
		element  string
	}{
		{[3]string{"신", "자", "진"}, "water"},
		{[3]string{"해", "묘", "미"}, "wood"},
		{[3]string{"인", "오", "술"}, "fire"},
		{[3]string{"사", "유", "축"}, "metal"},
	}

	officerRoles = []string{"정관", "편관"}
	wealthRoles  = []string{"편재", "정재"}
	loveStars    = []string{"도화", "홍염"}

	fiveElements = []string{"wood", "fire", "earth", "metal", "water"}
)

func extractSaju(facts map[string]interface{}) map[string]interface{} {
	section := sajuSection(facts)
	out := make(map[string]interface{})
	if section == nil {
		return out
	}

	stems, branches := parsePillars(section)
	if len(stems)+len(branches) > 0 {
		counts := map[string]int{"wood": 0, "fire": 0, "earth": 0, "metal": 0, "water": 0}
		for _, s := range stems {
			if el, ok := stemElement[s]; ok {
				counts[el]++
			}
		}
		for _, b := range branches {
			if el, ok := branchElement[b]; ok {
				counts[el]++
			}
		}
		out["element_counts"] = counts
		for _, el := range fiveElements {
			if counts[el] == 0 {
				out[el+"_zero"] = true
			}
			if counts[el] >= 3 {
				out[el+"_high"] = true
			}
		}
	}

	tokens := flatTokens(section)
	out["has_officer"] = containsAny(tokens, officerRoles)
	out["has_wealth_star"] = containsAny(tokens, wealthRoles)
	out["has_love_star"] = containsAny(tokens, loveStars)

	if len(branches) > 0 {
		branchSet := make(map[string]bool, len(branches))
		for _, b := range branches {
			branchSet[b] = true
		}
		var clashes []string
		for _, pair := range branchClashes {
			if branchSet[pair[0]] && branchSet[pair[1]] {
				clashes = append(clashes, pair[0]+pair[1]+"충")
			}
		}
		out["branch_clashes"] = clashes
		out["has_clash"] = len(clashes) > 0

		var sanhaps []string
		for _, trio := range sanhapTrios {
			if branchSet[trio.branches[0]] && branchSet[trio.branches[1]] && branchSet[trio.branches[2]] {
				sanhaps = append(sanhaps, trio.element)
			}
		}
		out["sanhap"] = sanhaps
		out["has_sanhap"] = len(sanhaps) > 0
	}
	return out
}

// sajuSection locates the saju payload; some callers nest it, some pass the
// pillar map at the top level.
func sajuSection(facts map[string]interface{}) map[string]interface{} {
	if m := asMap(facts["saju"]); m != nil {
		return m
	}
	if m := asMap(facts["pillars"]); m != nil {
		return map[string]interface{}{"pillars": m}
	}
	return nil
}

func parsePillars(section map[string]interface{}) (stems, branches []string) {
	pillars := asMap(section["pillars"])
	if pillars == nil {
		return nil, nil
	}
	for _, key := range []string{"year", "month", "day", "time", "hour"} {
		pillar := asMap(pillars[key])
		if pillar == nil {
			continue
		}
		if s := normalizeToken(asString(pillar["stem"])); s != "" {
			stems = append(stems, s)
		}
		if b := normalizeToken(asString(pillar["branch"])); b != "" {
			branches = append(branches, b)
		}
	}
	return stems, branches
}

// normalizeToken keeps the first syllable of values like "갑목" and
// lowercases romanized forms.
func normalizeToken(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ""
	}
	runes := []rune(s)
	if runes[0] >= 0xAC00 && runes[0] <= 0xD7A3 {
		return string(runes[0])
	}
	return s
}

// flatTokens collects every string scalar in the section for role scanning.
func flatTokens(v interface{}) []string {
	var out []string
	switch val := v.(type) {
	case string:
		out = append(out, val)
	case []interface{}:
		for _, item := range val {
			out = append(out, flatTokens(item)...)
		}
	case map[string]interface{}:
		for _, item := range val {
			out = append(out, flatTokens(item)...)
		}
	}
	return out
}

func containsAny(tokens []string, targets []string) bool {
	for _, tok := range tokens {
		for _, target := range targets {
			if strings.Contains(tok, target) {
				return true
			}
		}
	}
	return false
}
