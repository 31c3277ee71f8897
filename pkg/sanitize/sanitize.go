// Package sanitize neutralizes prompt-injection attempts in user input before
// it reaches any LLM prompt or log line.
package sanitize

import (
	"regexp"
	"strings"
)

// Default length caps. The server overrides these from configuration.
const (
	DefaultMaxInput = 1200
	DefaultMaxDream = 2000
	DefaultMaxName  = 100
)

// injectionPatterns match well-known instruction markers and jailbreak
// phrasings. They are removed by Sanitize and flagged by IsSuspicious.
var injectionPatterns = []*regexp.Regexp{
	regexp.MustCompile("(?i)```[a-z]*"),
	regexp.MustCompile(`(?i)\[\s*SYSTEM[^\]]*\]`),
	regexp.MustCompile(`(?i)\[\s*/?\s*INST[^\]]*\]`),
	regexp.MustCompile(`(?i)<\|im_start\|>`),
	regexp.MustCompile(`(?i)<\|im_end\|>`),
	regexp.MustCompile(`(?i)<\|(?:system|user|assistant|endoftext)\|>`),
	regexp.MustCompile(`(?im)^\s*(?:system|assistant|developer)\s*:`),
	regexp.MustCompile(`(?i)ignore\s+(?:all\s+|any\s+)?(?:previous|prior|above)\s+(?:instructions?|prompts?|context)`),
	regexp.MustCompile(`(?i)disregard\s+(?:all\s+|any\s+)?(?:previous|prior|above)\s+(?:instructions?|prompts?)`),
	regexp.MustCompile(`(?i)forget\s+(?:everything|all\s+instructions?|your\s+instructions?)`),
	regexp.MustCompile(`(?i)override\s+(?:the\s+)?system(?:\s+prompt)?`),
	regexp.MustCompile(`(?i)you\s+are\s+now\s+(?:a|an|in)\b`),
	regexp.MustCompile(`(?i)new\s+instructions?\s*:`),
	regexp.MustCompile(`(?i)\bjailbreak\b`),
	regexp.MustCompile(`(?i)\bdeveloper\s+mode\b`),
	regexp.MustCompile(`(?i)\bdo\s+anything\s+now\b`),
	regexp.MustCompile(`(?i)pretend\s+(?:you\s+are|to\s+be)\s+(?:not\s+)?an?\s+ai`),
}

var (
	whitespaceRun = regexp.MustCompile(`[ \t]{3,}`)
	newlineRun    = regexp.MustCompile(`\n{3,}`)
)

// Sanitize strips injection markers, neutralizes quoting characters, collapses
// whitespace and truncates to maxLength runes. Newlines are replaced with
// spaces unless allowNewlines is set. It never fails: on internal panic the
// empty string is returned. Idempotent: sanitizing already-sanitized text is a
// no-op.
func Sanitize(text string, maxLength int, allowNewlines bool) (out string) {
	defer func() {
		if recover() != nil {
			out = ""
		}
	}()

	if maxLength <= 0 {
		maxLength = DefaultMaxInput
	}

	s := text
	for _, p := range injectionPatterns {
		s = p.ReplaceAllString(s, " ")
	}

	// Quote and backslash neutralization. Replacement rather than escaping
	// keeps the transform idempotent.
	s = strings.ReplaceAll(s, `\`, "")
	s = strings.ReplaceAll(s, `"`, "'")

	if allowNewlines {
		s = newlineRun.ReplaceAllString(s, "\n\n")
	} else {
		s = strings.ReplaceAll(s, "\r", " ")
		s = strings.ReplaceAll(s, "\n", " ")
	}
	s = whitespaceRun.ReplaceAllString(s, "  ")
	s = strings.TrimSpace(s)

	runes := []rune(s)
	if len(runes) > maxLength {
		if maxLength > 3 {
			s = strings.TrimSpace(string(runes[:maxLength-3])) + "..."
		} else {
			s = string(runes[:maxLength])
		}
	}
	return s
}

// IsSuspicious reports whether the raw input matches any known injection
// pattern. It does not mutate the input.
func IsSuspicious(text string) bool {
	for _, p := range injectionPatterns {
		if p.MatchString(text) {
			return true
		}
	}
	return false
}
