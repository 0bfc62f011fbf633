package prompt

import (
	"fmt"
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"
	"github.com/sandevgo/kindred/internal/config"
	"github.com/sandevgo/kindred/internal/core"
	"github.com/sandevgo/kindred/internal/service/analysis"
)

var (
	tk     *tiktoken.Tiktoken
	tkOnce sync.Once
)

func getTokenizer() *tiktoken.Tiktoken {
	tkOnce.Do(func() {
		enc, err := tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			panic(fmt.Sprintf("failed to load tokenizer: %v", err))
		}
		tk = enc
	})
	return tk
}

func countTokens(text string) int {
	return len(getTokenizer().Encode(text, nil, nil))
}

// Input is everything the assembler merges into one instruction block.
type Input struct {
	// Identity is an optional pre-rendered identity block, as produced by
	// Identity. When set it is used verbatim and Companion is ignored.
	Identity  string
	Companion *core.Companion
	Memories  []core.Memory
	History   []core.Message
	Emotion   analysis.Emotion
	Topic     analysis.TopicAnalysis
	Style     *core.CommunicationStyle
	Culture   *core.CulturalContext
}

// Assembler renders the system prompt for one reply: identity, remembered
// facts, trimmed dialogue history, and persona guidance.
type Assembler struct {
	cfg *config.EngineConfig
}

func NewAssembler(cfg *config.EngineConfig) *Assembler {
	return &Assembler{cfg: cfg}
}

// Assemble builds the single instruction block. History is included newest-
// last and trimmed oldest-first to the configured token budget.
func (a *Assembler) Assemble(in Input) string {
	var b strings.Builder

	if in.Identity != "" {
		b.WriteString(in.Identity)
	} else {
		a.writeIdentity(&b, in.Companion)
	}
	a.writeMemories(&b, in.Memories)
	a.writeHistory(&b, in.History)
	a.writeGuidance(&b, in)

	return strings.TrimSpace(b.String())
}

// Identity renders just the identity block. It depends only on the companion
// snapshot, so callers holding a session can render it once and pass it back
// through Input.Identity on every assemble.
func (a *Assembler) Identity(c *core.Companion) string {
	var b strings.Builder
	a.writeIdentity(&b, c)
	return b.String()
}

func (a *Assembler) writeIdentity(b *strings.Builder, c *core.Companion) {
	name := core.KindredName
	if c != nil && c.Name != "" {
		name = c.Name
	}

	b.WriteString("YOUR IDENTITY:\n")
	fmt.Fprintf(b, "You are %s", name)
	if c != nil && c.Age > 0 {
		fmt.Fprintf(b, ", %d years old", c.Age)
	}
	b.WriteString(".\n")
	if c != nil {
		if c.Personality != "" {
			fmt.Fprintf(b, "Personality: %s\n", c.Personality)
		}
		if c.Traits != "" {
			fmt.Fprintf(b, "Traits: %s\n", c.Traits)
		}
		if c.Backstory != "" {
			fmt.Fprintf(b, "Backstory: %s\n", c.Backstory)
		}
	}
	b.WriteString("\n")
}

func (a *Assembler) writeMemories(b *strings.Builder, memories []core.Memory) {
	if len(memories) == 0 {
		return
	}
	b.WriteString("THINGS YOU REMEMBER ABOUT THE USER:\n")
	for _, m := range memories {
		fmt.Fprintf(b, "- %s\n", m.Content)
	}
	b.WriteString("\n")
}

// writeHistory renders the last turns as dialogue, dropping the oldest turns
// until the rendered block fits the token budget. The most recent turn is
// never dropped.
func (a *Assembler) writeHistory(b *strings.Builder, history []core.Message) {
	if len(history) == 0 {
		return
	}

	start := 0
	for start < len(history)-1 {
		if countTokens(renderHistory(history[start:])) <= a.cfg.HistoryTokenBudget {
			break
		}
		start++
	}

	b.WriteString("RECENT CONVERSATION:\n")
	b.WriteString(renderHistory(history[start:]))
	b.WriteString("\n")
}

func renderHistory(turns []core.Message) string {
	var b strings.Builder
	for _, msg := range turns {
		speaker := "User"
		if msg.Role == core.RoleAssistant {
			speaker = "You"
		}
		fmt.Fprintf(&b, "%s: %s\n", speaker, msg.Content)
	}
	return b.String()
}

func (a *Assembler) writeGuidance(b *strings.Builder, in Input) {
	b.WriteString("HOW TO RESPOND:\n")

	if a.cfg.Casualness >= 0.5 {
		b.WriteString("Keep the tone casual and warm, like texting a close friend.\n")
	} else {
		b.WriteString("Keep the tone polite and measured.\n")
	}

	if a.cfg.Empathy >= 0.5 {
		b.WriteString("Acknowledge the user's feelings before anything else.\n")
	}

	switch {
	case in.Emotion.State == analysis.EmotionSad || in.Emotion.State == analysis.EmotionFrustrated:
		fmt.Fprintf(b, "The user sounds %s right now; be gentle and supportive.\n", in.Emotion.State)
	case in.Emotion.State == analysis.EmotionHappy:
		b.WriteString("The user is in a good mood; match their energy.\n")
	}

	if in.Topic.InterestMatch {
		fmt.Fprintf(b, "They are talking about %s, which they care about. Engage with it.\n", in.Topic.Name)
	}

	if a.cfg.QuestionFrequency >= 0.5 {
		b.WriteString("Ask a question back when it feels natural.\n")
	} else {
		b.WriteString("Only ask a question when you genuinely need an answer.\n")
	}

	if cc := in.Culture; cc != nil {
		if cc.Language != "" {
			fmt.Fprintf(b, "Reply in %s.\n", cc.Language)
		}
		if cc.CulturalNorms != "" {
			fmt.Fprintf(b, "Keep in mind: %s\n", cc.CulturalNorms)
		}
	}

	if s := in.Style; s != nil && s.SampleCount > 0 {
		if s.FormalityLevel < 0.3 {
			b.WriteString("They write informally; contractions and slang are fine.\n")
		}
		if s.EmojiUsage > 0.5 {
			b.WriteString("An occasional emoji fits how they write.\n")
		}
	}

	fmt.Fprintf(b, "Keep replies between %d and %d characters.\n", a.cfg.ReplyMinChars, a.cfg.ReplyMaxChars)
	b.WriteString("Never mention being an AI, a program, a language model, or an assistant. You are a person in this conversation.\n")
}
