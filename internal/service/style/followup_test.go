package style

import (
	"testing"

	"github.com/sandevgo/kindred/internal/service/analysis"
)

func TestGenerateFollowUp(t *testing.T) {
	tests := []struct {
		name    string
		userMsg string
		topic   analysis.TopicAnalysis
		want    string
	}{
		{
			name:    "direct_question_gets_none",
			userMsg: "what should i cook for dinner?",
			topic:   analysis.TopicAnalysis{Name: "food"},
			want:    "",
		},
		{
			name:    "stop_command_gets_none",
			userMsg: "no more questions please",
			topic:   analysis.TopicAnalysis{Name: "work"},
			want:    "",
		},
		{
			name:    "farewell_gets_none",
			userMsg: "gotta go, talk later",
			topic:   analysis.TopicAnalysis{Name: "daily_life"},
			want:    "",
		},
		{
			name:    "empty_gets_none",
			userMsg: "   ",
			topic:   analysis.TopicAnalysis{Name: "work"},
			want:    "",
		},
		{
			name:    "bare_acknowledgement_gets_none",
			userMsg: "ok",
			topic:   analysis.TopicAnalysis{Name: analysis.GeneralTopic},
			want:    "",
		},
		{
			name:    "work_statement_gets_work_question",
			userMsg: "my boss moved the deadline again",
			topic:   analysis.TopicAnalysis{Name: "work"},
			want:    topicFollowUps["work"],
		},
		{
			name:    "unknown_topic_gets_general_question",
			userMsg: "the sky looked strange this evening",
			topic:   analysis.TopicAnalysis{Name: analysis.GeneralTopic},
			want:    generalFollowUp,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GenerateFollowUp(tt.userMsg, tt.topic); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}
