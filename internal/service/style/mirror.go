package style

import (
	"strings"
	"unicode"
)

// lengthMultiplier bounds the reply at roughly the user's message length.
const lengthMultiplier = 1.1

// mirrorLength truncates reply to at most lengthMultiplier times the user
// message length in runes, clamped to [minChars, maxChars]. When a sentence
// boundary exists past the midpoint of the target it cuts there instead of
// mid-word.
func mirrorLength(reply, userMsg string, minChars, maxChars int) string {
	target := int(float64(len([]rune(userMsg))) * lengthMultiplier)
	if target < minChars {
		target = minChars
	}
	if target > maxChars {
		target = maxChars
	}

	runes := []rune(reply)
	if len(runes) <= target {
		return reply
	}

	head := runes[:target]
	if cut := lastSentenceEnd(head); cut > target/2 {
		return strings.TrimSpace(string(head[:cut+1]))
	}

	// No usable boundary. Back up to a word break so we don't cut mid-word.
	if cut := lastSpace(head); cut > target/2 {
		return strings.TrimSpace(string(head[:cut]))
	}
	return strings.TrimSpace(string(head))
}

func lastSentenceEnd(runes []rune) int {
	for i := len(runes) - 1; i >= 0; i-- {
		switch runes[i] {
		case '.', '!', '?':
			return i
		}
	}
	return -1
}

func lastSpace(runes []rune) int {
	for i := len(runes) - 1; i >= 0; i-- {
		if unicode.IsSpace(runes[i]) {
			return i
		}
	}
	return -1
}

// mirrorPunctuation collapses runs of ! or ? in the reply to a single mark,
// but only for marks the user's own message repeated. A user who writes
// "really??" gets the reply's "???" left alone.
func mirrorPunctuation(reply, userMsg string) string {
	out := reply
	for _, mark := range []rune{'!', '?'} {
		if strings.Count(userMsg, string(mark)) >= 2 {
			continue
		}
		out = collapseRuns(out, mark)
	}
	return out
}

func collapseRuns(s string, mark rune) string {
	var b strings.Builder
	b.Grow(len(s))
	var prev rune
	for _, r := range s {
		if r == mark && prev == mark {
			continue
		}
		b.WriteRune(r)
		prev = r
	}
	return b.String()
}

// maxMirroredEmoji caps how many emoji mirroring may append.
const maxMirroredEmoji = 2

// mirrorEmoji appends up to maxMirroredEmoji of the user's own emoji to the
// reply. A user who used none gets none.
func mirrorEmoji(reply, userMsg string) string {
	userEmoji := extractEmoji(userMsg)
	if len(userEmoji) == 0 {
		return reply
	}
	if len(userEmoji) > maxMirroredEmoji {
		userEmoji = userEmoji[:maxMirroredEmoji]
	}
	if len(extractEmoji(reply)) >= len(userEmoji) {
		return reply
	}
	return strings.TrimRight(reply, " ") + " " + string(userEmoji)
}

func extractEmoji(s string) []rune {
	var out []rune
	for _, r := range s {
		if isEmoji(r) {
			out = append(out, r)
		}
	}
	return out
}

func isEmoji(r rune) bool {
	switch {
	case r >= 0x1F300 && r <= 0x1F5FF: // symbols & pictographs
		return true
	case r >= 0x1F600 && r <= 0x1F64F: // emoticons
		return true
	case r >= 0x1F680 && r <= 0x1F6FF: // transport
		return true
	case r >= 0x1F900 && r <= 0x1F9FF: // supplemental symbols
		return true
	case r >= 0x2600 && r <= 0x27BF: // misc symbols, dingbats
		return true
	case r == 0x2764: // heavy heart
		return true
	}
	return false
}
