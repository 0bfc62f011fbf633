// Package analysis holds the cheap heuristic passes that run on every
// inbound message before any model call: input tagging, emotion estimation,
// and topic detection. Everything here is a pure function of the text and an
// explicit config so each heuristic stays unit-testable on its own.
package analysis

import "strings"

// InputTag labels the communicative intent of a message.
type InputTag string

const (
	TagGreeting       InputTag = "greeting"
	TagFarewell       InputTag = "farewell"
	TagQuestion       InputTag = "question"
	TagSelfDisclosure InputTag = "self_disclosure"
	TagGratitude      InputTag = "gratitude"
	TagContinuation   InputTag = "topic_continuation"
)

var greetingWords = []string{
	"hi", "hey", "hello", "good morning", "good afternoon", "good evening",
	"yo", "sup", "what's up", "howdy",
}

var farewellWords = []string{
	"bye", "goodbye", "good night", "goodnight", "see you", "talk later",
	"ttyl", "gotta go", "catch you later",
}

var gratitudeWords = []string{
	"thank you", "thanks", "thx", "appreciate it", "you're the best",
	"grateful",
}

var disclosureMarkers = []string{
	"i feel", "i felt", "i think", "i believe", "i am ", "i'm ", "i was",
	"i've been", "i have been", "my ", "i grew up", "i used to", "i want",
	"i wish", "i dream",
}

var continuationMarkers = []string{
	"also", "and another thing", "speaking of", "on that note", "by the way",
	"anyway", "back to",
}

// ClassifyInput tags a message with every intent heuristic that fires.
// Tags are not mutually exclusive; "thanks! also, how are you?" is
// gratitude, continuation, and question at once.
func ClassifyInput(text string) []InputTag {
	lower := strings.ToLower(strings.TrimSpace(text))
	if lower == "" {
		return nil
	}

	var tags []InputTag

	if matchesAny(lower, greetingWords) {
		tags = append(tags, TagGreeting)
	}
	if matchesAny(lower, farewellWords) {
		tags = append(tags, TagFarewell)
	}
	if strings.Contains(lower, "?") || startsWithQuestionWord(lower) {
		tags = append(tags, TagQuestion)
	}
	if containsAny(lower, disclosureMarkers) {
		tags = append(tags, TagSelfDisclosure)
	}
	if containsAny(lower, gratitudeWords) {
		tags = append(tags, TagGratitude)
	}
	if containsAny(lower, continuationMarkers) {
		tags = append(tags, TagContinuation)
	}

	return tags
}

// HasTag reports whether tags contains tag.
func HasTag(tags []InputTag, tag InputTag) bool {
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}

var questionWords = []string{
	"what", "why", "how", "when", "where", "who", "which",
	"do you", "did you", "are you", "can you", "could you", "would you",
	"will you", "have you", "is it", "was it",
}

func startsWithQuestionWord(lower string) bool {
	for _, w := range questionWords {
		if strings.HasPrefix(lower, w+" ") || lower == w {
			return true
		}
	}
	return false
}

// matchesAny checks word-boundary-ish presence: either the message starts
// with the phrase or contains it surrounded by separators.
func matchesAny(lower string, phrases []string) bool {
	for _, p := range phrases {
		if lower == p || strings.HasPrefix(lower, p+" ") || strings.HasPrefix(lower, p+",") ||
			strings.HasPrefix(lower, p+"!") || strings.HasPrefix(lower, p+".") {
			return true
		}
	}
	return false
}

func containsAny(lower string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}
