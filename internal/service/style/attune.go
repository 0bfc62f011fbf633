package style

import (
	"strings"

	"github.com/sandevgo/kindred/internal/service/analysis"
)

// attunementPrefixes are short empathy clauses keyed by detected tone.
// Neutral gets nothing.
var attunementPrefixes = map[analysis.EmotionState]string{
	analysis.EmotionSad:        "I'm right here with you.",
	analysis.EmotionFrustrated: "Ugh, that sounds frustrating.",
	analysis.EmotionHappy:      "Okay I love this for you!",
}

// attune prepends the tone-matched empathy clause. It runs before length
// mirroring so the prefix counts against the reply's character budget. A
// reply that already opens with a matching sentiment is left alone.
func attune(reply string, emotion analysis.Emotion) string {
	prefix, ok := attunementPrefixes[emotion.State]
	if !ok {
		return reply
	}
	if strings.HasPrefix(reply, prefix) {
		return reply
	}
	return prefix + " " + reply
}

// aiResiduals are disclosure phrases the provider sometimes emits despite
// the prompt constraint. Matched case-insensitively and stripped with their
// immediate clause.
var aiResiduals = []string{
	"as an ai, ",
	"as an ai ",
	"as an ai language model, ",
	"as a language model, ",
	"as an artificial intelligence, ",
	"i'm just an ai, but ",
	"i am an ai, but ",
}

// stripAIResiduals removes leftover "as an AI"-style disclosures and fixes
// the capitalization of whatever follows.
func stripAIResiduals(reply string) string {
	for _, phrase := range aiResiduals {
		for {
			idx := foldIndex(reply, phrase)
			if idx < 0 {
				break
			}
			reply = reply[:idx] + capitalizeFirst(reply[idx+len(phrase):])
		}
	}
	return strings.TrimSpace(reply)
}

// foldIndex reports the byte offset of the first case-insensitive match of
// phrase in s. The scan walks rune boundaries of s itself, so the returned
// offset is always valid for slicing s. ToLower is not used because lowering
// can change byte lengths and shift offsets.
func foldIndex(s, phrase string) int {
	for i := range s {
		if len(s)-i < len(phrase) {
			break
		}
		if strings.EqualFold(s[i:i+len(phrase)], phrase) {
			return i
		}
	}
	return -1
}

func capitalizeFirst(s string) string {
	runes := []rune(s)
	for i, r := range runes {
		if r == ' ' {
			continue
		}
		return string(runes[:i]) + strings.ToUpper(string(r)) + string(runes[i+1:])
	}
	return s
}
