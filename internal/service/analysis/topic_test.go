package analysis

import "testing"

func TestDetectTopic(t *testing.T) {
	tests := []struct {
		name          string
		message       string
		recent        []string
		interests     []string
		wantName      string
		wantNew       bool
		wantTrans     TopicTransition
		wantInterest  bool
		wantPriority  string
		minConfidence float64
	}{
		{
			name:          "tv_show_with_declared_interest",
			message:       "omg i love watching Billions, the characters are so good!!",
			interests:     []string{"TV shows"},
			wantName:      "entertainment",
			wantNew:       true,
			wantTrans:     TransitionSmooth,
			wantInterest:  true,
			wantPriority:  "high",
			minConfidence: 0.6,
		},
		{
			name:         "work_topic",
			message:      "my boss scheduled another meeting about the project deadline",
			wantName:     "work",
			wantNew:      true,
			wantPriority: "normal",
		},
		{
			name:      "continuation_of_recent_topic",
			message:   "and then the meeting ran two hours over",
			recent:    []string{"work"},
			wantName:  "work",
			wantNew:   false,
			wantTrans: TransitionContinuation,
		},
		{
			name:      "natural_transition_food_to_health",
			message:   "i should really get back to the gym and fix my sleep",
			recent:    []string{"food"},
			wantName:  "health",
			wantNew:   true,
			wantTrans: TransitionNatural,
		},
		{
			name:      "abrupt_transition_marker",
			message:   "anyway, random question, have you seen any good movies?",
			recent:    []string{"health"},
			wantName:  "entertainment",
			wantNew:   true,
			wantTrans: TransitionAbrupt,
		},
		{
			name:         "no_hits_is_general",
			message:      "hmm okay",
			wantName:     GeneralTopic,
			wantNew:      false,
			wantPriority: "normal",
		},
		{
			name:         "interest_for_other_topic_does_not_fire",
			message:      "we cooked an incredible dinner last night",
			interests:    []string{"TV shows"},
			wantName:     "food",
			wantNew:      true,
			wantInterest: false,
			wantPriority: "normal",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DetectTopic(tt.message, tt.recent, tt.interests)

			if got.Name != tt.wantName {
				t.Errorf("name = %q, want %q", got.Name, tt.wantName)
			}
			if got.IsNew != tt.wantNew {
				t.Errorf("isNew = %v, want %v", got.IsNew, tt.wantNew)
			}
			if tt.wantTrans != "" && got.Transition != tt.wantTrans {
				t.Errorf("transition = %q, want %q", got.Transition, tt.wantTrans)
			}
			if got.InterestMatch != tt.wantInterest {
				t.Errorf("interestMatch = %v, want %v", got.InterestMatch, tt.wantInterest)
			}
			if tt.wantPriority != "" && got.Priority != tt.wantPriority {
				t.Errorf("priority = %q, want %q", got.Priority, tt.wantPriority)
			}
			if got.Confidence < tt.minConfidence {
				t.Errorf("confidence = %.2f, want >= %.2f", got.Confidence, tt.minConfidence)
			}
		})
	}
}

func TestDetectTopic_CategoryDistinctFromName(t *testing.T) {
	tests := []struct {
		message      string
		wantName     string
		wantCategory string
	}{
		{"my boss scheduled another meeting", "work", CategoryProfessional},
		{"have you seen any good movies lately", "entertainment", CategoryLeisure},
		{"we cooked an incredible dinner", "food", CategoryLifestyle},
		{"my sister and my parents are visiting", "family", CategoryPersonal},
		{"hmm okay", GeneralTopic, GeneralTopic},
	}

	for _, tt := range tests {
		got := DetectTopic(tt.message, nil, nil)
		if got.Name != tt.wantName || got.Category != tt.wantCategory {
			t.Errorf("DetectTopic(%q) = (%q, %q), want (%q, %q)",
				tt.message, got.Name, got.Category, tt.wantName, tt.wantCategory)
		}
	}
}

func TestDetectTopic_TieBreaksByDeclarationOrder(t *testing.T) {
	// One work keyword, one entertainment keyword: work is declared first.
	got := DetectTopic("my boss loves that movie", nil, nil)
	if got.Name != "work" {
		t.Errorf("name = %q, want work (tie broken by taxonomy order)", got.Name)
	}
}
