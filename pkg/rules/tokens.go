package rules

import (
	"strconv"
	"strings"
)

// tokenSplitter treats commas, pipes, slashes and whitespace as separators.
func tokenSplitter(r rune) bool {
	return r == ',' || r == '|' || r == '/' || r == ' ' || r == '\t' || r == '\n' || r == '\r'
}

// FlattenTokens walks a decoded JSON value (maps, lists, scalars) and
// collects every lowercase token, first-seen order, duplicates removed. Map
// keys contribute tokens as well as values.
func FlattenTokens(value interface{}) []string {
	c := &tokenCollector{seen: make(map[string]bool)}
	c.visit(value)
	return c.tokens
}

type tokenCollector struct {
	tokens []string
	seen   map[string]bool
}

// visit dispatches on the JSON value kinds: null, bool, number, string,
// list, map.
func (c *tokenCollector) visit(value interface{}) {
	switch v := value.(type) {
	case nil:
	case bool:
		c.addString(strconv.FormatBool(v))
	case float64:
		c.addString(strconv.FormatFloat(v, 'f', -1, 64))
	case int:
		c.addString(strconv.Itoa(v))
	case int64:
		c.addString(strconv.FormatInt(v, 10))
	case string:
		c.addString(v)
	case []interface{}:
		for _, item := range v {
			c.visit(item)
		}
	case []string:
		for _, item := range v {
			c.addString(item)
		}
	case map[string]interface{}:
		for _, key := range sortedKeys(v) {
			c.addString(key)
			c.visit(v[key])
		}
	}
}

func (c *tokenCollector) addString(s string) {
	for _, tok := range strings.FieldsFunc(s, tokenSplitter) {
		tok = strings.ToLower(strings.TrimSpace(tok))
		if tok == "" || c.seen[tok] {
			continue
		}
		c.seen[tok] = true
		c.tokens = append(c.tokens, tok)
	}
}

// sortedKeys keeps map traversal deterministic; Go map order is randomized
// and the first-seen dedup order must be stable across runs.
func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	for i := 1; i < len(keys); i++ {
		for j := i; j > 0 && keys[j] < keys[j-1]; j-- {
			keys[j], keys[j-1] = keys[j-1], keys[j]
		}
	}
	return keys
}
