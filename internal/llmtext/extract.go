// Package llmtext parses structured JSON out of language model responses
// that may wrap the payload in markdown fences or surrounding prose.
package llmtext

import (
	"encoding/json"
	"strings"
)

// ParseResult carries the outcome of a two-phase JSON parse.
type ParseResult[T any] struct {
	Value T
	OK    bool
}

// Decode attempts a strict JSON parse of text; on failure it extracts the
// first balanced {...} span and retries. It never returns an error; a
// failed parse yields OK=false so callers can fall back deterministically.
func Decode[T any](text string) ParseResult[T] {
	var out T

	cleaned := stripFences(text)
	if err := json.Unmarshal([]byte(cleaned), &out); err == nil {
		return ParseResult[T]{Value: out, OK: true}
	}

	span, ok := firstBalancedObject(cleaned)
	if !ok {
		return ParseResult[T]{}
	}
	var retry T
	if err := json.Unmarshal([]byte(span), &retry); err != nil {
		return ParseResult[T]{}
	}
	return ParseResult[T]{Value: retry, OK: true}
}

// stripFences removes a surrounding markdown code fence if present.
func stripFences(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	}
	return strings.TrimSpace(text)
}

// firstBalancedObject scans for the first balanced top-level JSON object,
// tracking string literals and escapes so braces inside strings don't
// unbalance the count.
func firstBalancedObject(text string) (string, bool) {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if escaped {
			escaped = false
			continue
		}
		switch c {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '{':
			if !inString {
				depth++
			}
		case '}':
			if !inString {
				depth--
				if depth == 0 {
					return text[start : i+1], true
				}
			}
		}
	}
	return "", false
}
