package conv

import (
	"strings"
	"testing"
)

func TestMarkdownToTelegramHTML(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "empty input",
			input:    "",
			expected: "",
		},
		{
			name:     "plain text",
			input:    "Hello world",
			expected: "Hello world\n",
		},
		{
			name:     "bold text",
			input:    "**bold**",
			expected: "<strong>bold</strong>\n",
		},
		{
			name:     "italic text",
			input:    "*italic*",
			expected: "<em>italic</em>\n",
		},
		{
			name:     "inline code",
			input:    "run `kindred start`",
			expected: "run <code>kindred start</code>\n",
		},
		{
			name:     "raw HTML underline preserved",
			input:    "<u>underline</u>",
			expected: "<u>underline</u>\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MarkdownToTelegramHTML([]byte(tt.input))
			if got != tt.expected {
				t.Errorf("got %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestMarkdownToTelegramHTML_StripsUnsupportedTags(t *testing.T) {
	got := MarkdownToTelegramHTML([]byte("# Heading\n\nsome text"))
	if strings.Contains(got, "<h1>") {
		t.Errorf("heading tags are not displayable in Telegram: %q", got)
	}
	if !strings.Contains(got, "Heading") {
		t.Errorf("heading text itself should survive: %q", got)
	}
}
