package style

import (
	"strings"

	"github.com/sandevgo/kindred/internal/service/analysis"
)

// topicFollowUps maps taxonomy topics to one engagement question each.
var topicFollowUps = map[string]string{
	"work":          "How's the rest of your week at work looking?",
	"entertainment": "What have you been watching or listening to lately?",
	"food":          "What's the best thing you've eaten recently?",
	"travel":        "Where would you go next if you could leave tomorrow?",
	"health":        "How have you been feeling lately?",
	"family":        "How's your family doing these days?",
	"relationships": "How are things going between you two?",
	"hobbies":       "What got you into that in the first place?",
	"daily_life":    "What does the rest of your day look like?",
}

const generalFollowUp = "What's been on your mind lately?"

var stopPhrases = []string{
	"stop", "leave me alone", "no more questions", "don't ask", "not now",
	"i don't want to talk", "drop it", "enough",
}

// GenerateFollowUp returns a topic-appropriate question, or "" when the
// user's message already demands an answer (a direct question), reads as a
// stop or refusal, or closes the conversation. Conservative on purpose; the
// pipeline keeps this off unless explicitly enabled.
func GenerateFollowUp(userMsg string, topic analysis.TopicAnalysis) string {
	lower := strings.ToLower(strings.TrimSpace(userMsg))
	if lower == "" {
		return ""
	}

	tags := analysis.ClassifyInput(userMsg)
	if analysis.HasTag(tags, analysis.TagQuestion) ||
		analysis.HasTag(tags, analysis.TagFarewell) {
		return ""
	}

	for _, phrase := range stopPhrases {
		if strings.Contains(lower, phrase) {
			return ""
		}
	}

	// Bare acknowledgements carry nothing to follow up on.
	if len(strings.Fields(lower)) == 1 && topic.Name == analysis.GeneralTopic {
		return ""
	}

	if q, ok := topicFollowUps[topic.Name]; ok {
		return q
	}
	return generalFollowUp
}
