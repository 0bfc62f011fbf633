package memory

import (
	"encoding/json"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/sandevgo/kindred/internal/core"
)

// rawCandidate mirrors the JSON shape the extraction prompt asks for.
type rawCandidate struct {
	Type             string `json:"type"`
	Content          string `json:"content"`
	Importance       int    `json:"importance"`
	EmotionalContext string `json:"emotional_context"`
}

const maxContentLen = 500

// parseCandidates recovers candidate memories from whatever the model
// returned. Providers truncate, wrap JSON in prose, or fence it in
// markdown, so parsing walks through progressively looser strategies and
// ends with an empty slice instead of an error.
func parseCandidates(content string) []core.CandidateMemory {
	if strings.TrimSpace(content) == "" {
		return nil
	}

	if c := parseBracketedArray(content); len(c) > 0 {
		return c
	}
	if c := parseWholeResponse(content); len(c) > 0 {
		return c
	}
	if c := parseObjectsByRegex(content); len(c) > 0 {
		return c
	}
	return parsePartialObject(content)
}

// parseBracketedArray finds the outermost [...] and repairs an
// unterminated string or missing closers before unmarshalling.
func parseBracketedArray(content string) []core.CandidateMemory {
	start := strings.Index(content, "[")
	if start == -1 {
		return nil
	}

	candidate := content[start:]
	if end := matchingBracket(candidate); end != -1 {
		candidate = candidate[:end+1]
	} else {
		candidate = repairTruncatedJSON(candidate)
	}

	var raw []rawCandidate
	if err := json.Unmarshal([]byte(candidate), &raw); err != nil {
		return nil
	}
	return sanitize(raw)
}

// matchingBracket returns the index of the ] closing the [ at position 0,
// honoring strings and escapes, or -1 when the array is unterminated.
func matchingBracket(s string) int {
	depth := 0
	inString := false
	escaped := false

	for i, r := range s {
		if escaped {
			escaped = false
			continue
		}
		switch r {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '[':
			if !inString {
				depth++
			}
		case ']':
			if !inString {
				depth--
				if depth == 0 {
					return i
				}
			}
		}
	}
	return -1
}

// repairTruncatedJSON closes an unterminated string and appends the missing
// } and ] so a truncated provider response still parses.
func repairTruncatedJSON(s string) string {
	inString := false
	escaped := false
	var stack []rune

	for _, r := range s {
		if escaped {
			escaped = false
			continue
		}
		switch r {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '[', '{':
			if !inString {
				stack = append(stack, r)
			}
		case ']', '}':
			if !inString && len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		}
	}

	repaired := s
	if inString {
		repaired += `"`
	}
	repaired = strings.TrimRight(repaired, ", \n\t")
	for i := len(stack) - 1; i >= 0; i-- {
		if stack[i] == '[' {
			repaired += "]"
		} else {
			repaired += "}"
		}
	}
	return repaired
}

// parseWholeResponse strips markdown code fences and tries a straight
// parse of the remainder, accepting either an array or a single object.
func parseWholeResponse(content string) []core.CandidateMemory {
	stripped := strings.TrimSpace(content)
	stripped = strings.TrimPrefix(stripped, "```json")
	stripped = strings.TrimPrefix(stripped, "```")
	stripped = strings.TrimSuffix(stripped, "```")
	stripped = strings.TrimSpace(stripped)

	var raw []rawCandidate
	if err := json.Unmarshal([]byte(stripped), &raw); err == nil {
		return sanitize(raw)
	}

	var one rawCandidate
	if err := json.Unmarshal([]byte(stripped), &one); err == nil {
		return sanitize([]rawCandidate{one})
	}
	return nil
}

var objectPattern = regexp.MustCompile(`\{[^{}]*\}`)

// parseObjectsByRegex pulls out every flat {...} and keeps the ones that
// unmarshal cleanly.
func parseObjectsByRegex(content string) []core.CandidateMemory {
	var raw []rawCandidate
	for _, match := range objectPattern.FindAllString(content, -1) {
		var one rawCandidate
		if err := json.Unmarshal([]byte(match), &one); err == nil {
			raw = append(raw, one)
		}
	}
	return sanitize(raw)
}

var fieldPattern = regexp.MustCompile(`"(type|content|importance)"\s*:\s*("([^"\\]|\\.)*"|\d+)`)

// parsePartialObject is the last resort: scrape individual fields out of a
// mangled single object.
func parsePartialObject(content string) []core.CandidateMemory {
	one := rawCandidate{}
	for _, m := range fieldPattern.FindAllStringSubmatch(content, -1) {
		value := m[2]
		switch m[1] {
		case "type":
			_ = json.Unmarshal([]byte(value), &one.Type)
		case "content":
			_ = json.Unmarshal([]byte(value), &one.Content)
		case "importance":
			_ = json.Unmarshal([]byte(value), &one.Importance)
		}
	}
	if one.Content == "" {
		return nil
	}
	return sanitize([]rawCandidate{one})
}

// sanitize drops malformed entries and clamps the rest into the data
// model's bounds.
func sanitize(raw []rawCandidate) []core.CandidateMemory {
	var out []core.CandidateMemory
	for _, r := range raw {
		content := strings.TrimSpace(r.Content)
		if content == "" {
			continue
		}
		if len(content) > maxContentLen {
			// Cut on a rune boundary so truncation never persists a torn
			// multi-byte character.
			cut := maxContentLen
			for cut > 0 && !utf8.RuneStart(content[cut]) {
				cut--
			}
			content = content[:cut]
		}

		memType := core.MemoryType(strings.ToLower(strings.TrimSpace(r.Type)))
		if !core.ValidMemoryType(memType) {
			memType = core.MemoryFact
		}

		importance := r.Importance
		if importance < 1 {
			importance = 1
		}
		if importance > 10 {
			importance = 10
		}

		out = append(out, core.CandidateMemory{
			Type:             memType,
			Content:          content,
			Importance:       importance,
			EmotionalContext: strings.TrimSpace(r.EmotionalContext),
		})
	}
	return out
}
