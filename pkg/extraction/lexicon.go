package extraction

import (
	"regexp"
	"strings"

	"github.com/mirae-labs/go-mirae/pkg/types"
)

// lexiconEntry maps a source token to its canonical normalized form. English
// tokens are matched with word boundaries; CJK tokens as literal substrings
// (CJK characters never sit inside Latin words, so the script boundary is
// implicit).
type lexiconEntry struct {
	token      string
	normalized string
}

// lexicon is static generated data: per entity type, every recognizable
// English / Korean / Hanja surface form. Runtime code never mutates it.
var lexicon = map[types.EntityType][]lexiconEntry{
	types.PlanetEntity: {
		{"sun", "Sun"}, {"태양", "Sun"},
		{"moon", "Moon"}, {"달", "Moon"},
		{"mercury", "Mercury"}, {"수성", "Mercury"},
		{"venus", "Venus"}, {"금성", "Venus"},
		{"mars", "Mars"}, {"화성", "Mars"},
		{"jupiter", "Jupiter"}, {"목성", "Jupiter"},
		{"saturn", "Saturn"}, {"토성", "Saturn"},
		{"uranus", "Uranus"}, {"천왕성", "Uranus"},
		{"neptune", "Neptune"}, {"해왕성", "Neptune"},
		{"pluto", "Pluto"}, {"명왕성", "Pluto"},
	},
	types.SignEntity: {
		{"aries", "Aries"}, {"양자리", "Aries"},
		{"taurus", "Taurus"}, {"황소자리", "Taurus"},
		{"gemini", "Gemini"}, {"쌍둥이자리", "Gemini"},
		{"cancer", "Cancer"}, {"게자리", "Cancer"},
		{"leo", "Leo"}, {"사자자리", "Leo"},
		{"virgo", "Virgo"}, {"처녀자리", "Virgo"},
		{"libra", "Libra"}, {"천칭자리", "Libra"},
		{"scorpio", "Scorpio"}, {"전갈자리", "Scorpio"},
		{"sagittarius", "Sagittarius"}, {"궁수자리", "Sagittarius"}, {"사수자리", "Sagittarius"},
		{"capricorn", "Capricorn"}, {"염소자리", "Capricorn"},
		{"aquarius", "Aquarius"}, {"물병자리", "Aquarius"},
		{"pisces", "Pisces"}, {"물고기자리", "Pisces"},
	},
	types.HouseEntity: {
		{"1st house", "House1"}, {"first house", "House1"},
		{"2nd house", "House2"}, {"second house", "House2"},
		{"3rd house", "House3"}, {"third house", "House3"},
		{"4th house", "House4"}, {"fourth house", "House4"},
		{"5th house", "House5"}, {"fifth house", "House5"},
		{"6th house", "House6"}, {"sixth house", "House6"},
		{"7th house", "House7"}, {"seventh house", "House7"},
		{"8th house", "House8"}, {"eighth house", "House8"},
		{"9th house", "House9"}, {"ninth house", "House9"},
		{"10th house", "House10"}, {"tenth house", "House10"},
		{"11th house", "House11"}, {"eleventh house", "House11"},
		{"12th house", "House12"}, {"twelfth house", "House12"},
		{"1하우스", "House1"}, {"2하우스", "House2"}, {"3하우스", "House3"},
		{"4하우스", "House4"}, {"5하우스", "House5"}, {"6하우스", "House6"},
		{"7하우스", "House7"}, {"8하우스", "House8"}, {"9하우스", "House9"},
		{"10하우스", "House10"}, {"11하우스", "House11"}, {"12하우스", "House12"},
	},
	types.AspectEntity: {
		{"conjunction", "Conjunction"}, {"conjunct", "Conjunction"}, {"합", "Conjunction"},
		{"trine", "Trine"}, {"트라인", "Trine"},
		{"square", "Square"}, {"스퀘어", "Square"},
		{"sextile", "Sextile"}, {"섹스타일", "Sextile"},
		{"opposition", "Opposition"}, {"어포지션", "Opposition"},
	},
	types.ElementEntity: {
		{"wood", "Wood"}, {"나무", "Wood"}, {"木", "Wood"},
		{"fire", "Fire"}, {"불", "Fire"}, {"火", "Fire"},
		{"earth", "Earth"}, {"흙", "Earth"}, {"土", "Earth"},
		{"metal", "Metal"}, {"쇠", "Metal"}, {"金", "Metal"},
		{"water", "Water"}, {"물", "Water"}, {"水", "Water"},
		{"air", "Air"}, {"공기", "Air"},
	},
	types.StemEntity: {
		{"갑목", "Gap"}, {"甲", "Gap"},
		{"을목", "Eul"}, {"乙", "Eul"},
		{"병화", "Byeong"}, {"丙", "Byeong"},
		{"정화", "Jeong"}, {"丁", "Jeong"},
		{"무토", "Mu"}, {"戊", "Mu"},
		{"기토", "Gi"}, {"己", "Gi"},
		{"경금", "Gyeong"}, {"庚", "Gyeong"},
		{"신금", "Sin"}, {"辛", "Sin"},
		{"임수", "Im"}, {"壬", "Im"},
		{"계수", "Gye"}, {"癸", "Gye"},
	},
	types.BranchEntity: {
		{"쥐띠", "Ja"}, {"子", "Ja"},
		{"소띠", "Chuk"}, {"丑", "Chuk"},
		{"호랑이띠", "In"}, {"寅", "In"},
		{"토끼띠", "Myo"}, {"卯", "Myo"},
		{"용띠", "Jin"}, {"辰", "Jin"},
		{"뱀띠", "Sa"}, {"巳", "Sa"},
		{"말띠", "O"}, {"午", "O"},
		{"양띠", "Mi"}, {"未", "Mi"},
		{"원숭이띠", "Shin"}, {"申", "Shin"},
		{"닭띠", "Yu"}, {"酉", "Yu"},
		{"개띠", "Sul"}, {"戌", "Sul"},
		{"돼지띠", "Hae"}, {"亥", "Hae"},
	},
	types.TenGodEntity: {
		{"비견", "Bigyeon"}, {"比肩", "Bigyeon"},
		{"겁재", "Geopjae"}, {"劫財", "Geopjae"},
		{"식신", "Siksin"}, {"食神", "Siksin"},
		{"상관", "Sanggwan"}, {"傷官", "Sanggwan"},
		{"편재", "Pyeonjae"}, {"偏財", "Pyeonjae"},
		{"정재", "Jeongjae"}, {"正財", "Jeongjae"},
		{"편관", "Pyeongwan"}, {"偏官", "Pyeongwan"},
		{"정관", "Jeonggwan"}, {"正官", "Jeonggwan"},
		{"편인", "Pyeonin"}, {"偏印", "Pyeonin"},
		{"정인", "Jeongin"}, {"正印", "Jeongin"},
	},
	types.ShinsalEntity: {
		{"도화", "Dohwa"}, {"도화살", "Dohwa"}, {"桃花", "Dohwa"},
		{"역마", "Yeokma"}, {"역마살", "Yeokma"}, {"驛馬", "Yeokma"},
		{"화개", "Hwagae"}, {"화개살", "Hwagae"}, {"華蓋", "Hwagae"},
		{"홍염", "Hongyeom"}, {"홍염살", "Hongyeom"},
		{"백호", "Baekho"}, {"백호살", "Baekho"},
		{"괴강", "Goegang"}, {"괴강살", "Goegang"},
		{"천을귀인", "Cheoneulgwiin"},
	},
	types.TransitEntity: {
		{"transit", "Transit"}, {"트랜짓", "Transit"},
		{"retrograde", "Retrograde"}, {"역행", "Retrograde"},
		{"대운", "Daeun"}, {"세운", "Seun"},
	},
	types.TarotEntity: {
		{"the fool", "Fool"}, {"바보", "Fool"},
		{"the magician", "Magician"}, {"마법사", "Magician"},
		{"the high priestess", "HighPriestess"}, {"여사제", "HighPriestess"},
		{"the empress", "Empress"}, {"여황제", "Empress"},
		{"the emperor", "Emperor"}, {"황제", "Emperor"},
		{"the hierophant", "Hierophant"}, {"교황", "Hierophant"},
		{"the lovers", "Lovers"}, {"연인", "Lovers"},
		{"the chariot", "Chariot"}, {"전차", "Chariot"},
		{"the hermit", "Hermit"}, {"은둔자", "Hermit"},
		{"wheel of fortune", "WheelOfFortune"}, {"운명의 수레바퀴", "WheelOfFortune"},
		{"justice", "Justice"}, {"정의", "Justice"},
		{"the hanged man", "HangedMan"}, {"매달린 사람", "HangedMan"},
		{"temperance", "Temperance"}, {"절제", "Temperance"},
		{"the devil", "Devil"}, {"악마", "Devil"},
		{"the tower", "Tower"}, {"탑", "Tower"},
		{"the star", "Star"}, {"별", "Star"},
		{"the moon", "MoonCard"}, {"달 카드", "MoonCard"},
		{"the sun", "SunCard"}, {"태양 카드", "SunCard"},
		{"judgement", "Judgement"}, {"심판", "Judgement"},
		{"the world", "World"}, {"세계", "World"},
		{"strength", "Strength"}, {"힘", "Strength"},
		{"death", "DeathCard"}, {"죽음", "DeathCard"},
	},
	types.HexagramEntity: {
		{"hexagram", "Hexagram"}, {"괘", "Hexagram"},
		{"건괘", "Geon"}, {"곤괘", "Gon"}, {"진괘", "Jin"}, {"손괘", "Son"},
		{"감괘", "Gam"}, {"이괘", "Li"}, {"간괘", "Gan"}, {"태괘", "Tae"},
	},
}

// typeOrder fixes the scan order so extraction is deterministic.
var typeOrder = []types.EntityType{
	types.PlanetEntity,
	types.SignEntity,
	types.HouseEntity,
	types.AspectEntity,
	types.ElementEntity,
	types.StemEntity,
	types.BranchEntity,
	types.TenGodEntity,
	types.ShinsalEntity,
	types.TransitEntity,
	types.TarotEntity,
	types.HexagramEntity,
}

// typeMatcher holds the compiled patterns and the reverse lookup for one
// entity type.
type typeMatcher struct {
	entityType types.EntityType
	english    *regexp.Regexp
	cjk        *regexp.Regexp
	normalize  map[string]string
}

var matchers = buildMatchers()

func buildMatchers() []typeMatcher {
	out := make([]typeMatcher, 0, len(typeOrder))
	for _, et := range typeOrder {
		entries := lexicon[et]
		m := typeMatcher{entityType: et, normalize: make(map[string]string, len(entries))}

		var english, cjk []string
		for _, entry := range entries {
			m.normalize[strings.ToLower(entry.token)] = entry.normalized
			if isASCII(entry.token) {
				english = append(english, regexp.QuoteMeta(entry.token))
			} else {
				cjk = append(cjk, regexp.QuoteMeta(entry.token))
			}
		}
		// Longer alternatives first so "the moon" beats "moon" and "도화살"
		// beats "도화" at the same position.
		sortByLengthDesc(english)
		sortByLengthDesc(cjk)
		if len(english) > 0 {
			m.english = regexp.MustCompile(`(?i)\b(?:` + strings.Join(english, "|") + `)\b`)
		}
		if len(cjk) > 0 {
			m.cjk = regexp.MustCompile(strings.Join(cjk, "|"))
		}
		out = append(out, m)
	}
	return out
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}

func sortByLengthDesc(tokens []string) {
	for i := 1; i < len(tokens); i++ {
		for j := i; j > 0 && len(tokens[j]) > len(tokens[j-1]); j-- {
			tokens[j], tokens[j-1] = tokens[j-1], tokens[j]
		}
	}
}

// lookupNormalized resolves a surface token of the given type, for relation
// endpoint resolution.
func lookupNormalized(et types.EntityType, token string) (string, bool) {
	for _, m := range matchers {
		if m.entityType != et {
			continue
		}
		n, ok := m.normalize[strings.ToLower(strings.TrimSpace(token))]
		return n, ok
	}
	return "", false
}
