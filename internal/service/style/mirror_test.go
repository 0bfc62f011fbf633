package style

import (
	"strings"
	"testing"
)

func TestMirrorLength(t *testing.T) {
	tests := []struct {
		name    string
		reply   string
		userMsg string
		maxLen  int
	}{
		{
			name:    "short_user_message_trims_long_reply",
			reply:   strings.Repeat("I have so much to say about this. ", 10),
			userMsg: "cool",
			maxLen:  8,
		},
		{
			name:    "long_user_message_allows_longer_reply",
			reply:   strings.Repeat("word ", 60),
			userMsg: strings.Repeat("a", 100),
			maxLen:  110,
		},
		{
			name:    "ceiling_applies_regardless_of_user_length",
			reply:   strings.Repeat("x", 500),
			userMsg: strings.Repeat("y", 400),
			maxLen:  240,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mirrorLength(tt.reply, tt.userMsg, 8, 240)
			if n := len([]rune(got)); n > tt.maxLen {
				t.Errorf("len = %d, want <= %d: %q", n, tt.maxLen, got)
			}
		})
	}
}

func TestMirrorLength_ShortReplyUntouched(t *testing.T) {
	reply := "Sounds good!"
	if got := mirrorLength(reply, "ok", 8, 240); got != reply {
		t.Errorf("got %q, want unchanged", got)
	}
}

func TestMirrorLength_PrefersSentenceBoundary(t *testing.T) {
	reply := "That's a great idea. We should definitely plan it out together some time soon."
	userMsg := strings.Repeat("a", 30) // target ~33

	got := mirrorLength(reply, userMsg, 8, 240)
	if !strings.HasSuffix(got, ".") {
		t.Errorf("expected a sentence-boundary cut, got %q", got)
	}
	if got != "That's a great idea." {
		t.Errorf("got %q, want the first sentence", got)
	}
}

func TestMirrorPunctuation(t *testing.T) {
	tests := []struct {
		name    string
		reply   string
		userMsg string
		want    string
	}{
		{
			name:    "collapses_when_user_is_calm",
			reply:   "No way!!! Really??",
			userMsg: "i got the job",
			want:    "No way! Really?",
		},
		{
			name:    "keeps_exclaims_when_user_repeats_them",
			reply:   "No way!!! Really??",
			userMsg: "i got the job!!",
			want:    "No way!!! Really?",
		},
		{
			name:    "keeps_questions_when_user_repeats_them",
			reply:   "Really?? Are you sure??",
			userMsg: "what do you think?? seriously??",
			want:    "Really?? Are you sure??",
		},
		{
			name:    "single_marks_untouched",
			reply:   "Great! How was it?",
			userMsg: "pretty good day",
			want:    "Great! How was it?",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := mirrorPunctuation(tt.reply, tt.userMsg); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMirrorEmoji(t *testing.T) {
	tests := []struct {
		name      string
		reply     string
		userMsg   string
		wantEmoji int
	}{
		{name: "no_user_emoji_adds_none", reply: "Nice!", userMsg: "i passed the exam", wantEmoji: 0},
		{name: "one_user_emoji_mirrored", reply: "Nice!", userMsg: "i passed 🎉", wantEmoji: 1},
		{name: "capped_at_two", reply: "Nice!", userMsg: "yes 🎉🎉🎉🎉🎉", wantEmoji: 2},
		{name: "reply_already_has_enough", reply: "Nice! 🎉", userMsg: "i passed 🎉", wantEmoji: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mirrorEmoji(tt.reply, tt.userMsg)
			if n := len(extractEmoji(got)); n != tt.wantEmoji {
				t.Errorf("emoji count = %d, want %d: %q", n, tt.wantEmoji, got)
			}
		})
	}
}
