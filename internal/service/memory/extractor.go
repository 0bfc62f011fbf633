package memory

import (
	"context"
	"fmt"
	"strings"

	"github.com/sandevgo/kindred/internal/core"
	"github.com/sandevgo/kindred/pkg/log"
)

const extractionSystemPrompt = "You are a memory extraction system for a companion. Output only valid JSON."

// Extractor asks the language model for durable facts worth remembering
// from a single exchange.
type Extractor struct {
	gen core.Generator
}

func NewExtractor(gen core.Generator) *Extractor {
	return &Extractor{gen: gen}
}

// Extract returns 0..3 candidate memories for the exchange. Model and
// parse failures both collapse to an empty slice; extraction must never
// fail the reply path.
func (e *Extractor) Extract(ctx context.Context, userMessage, aiReply string, existing []core.Memory) []core.CandidateMemory {
	logger := log.FromCtx(ctx)

	prompt := buildExtractionPrompt(userMessage, aiReply, existing)

	resp, err := e.gen.Generate(ctx, extractionSystemPrompt, []core.Message{
		{Role: core.RoleUser, Content: prompt},
	})
	if err != nil {
		logger.Warn().Err(err).Msg("memory extraction call failed")
		return nil
	}

	candidates := parseCandidates(resp)
	if len(candidates) > 3 {
		candidates = candidates[:3]
	}

	logger.Debug().Int("count", len(candidates)).Msg("extracted candidate memories")
	return candidates
}

func buildExtractionPrompt(userMessage, aiReply string, existing []core.Memory) string {
	var b strings.Builder

	b.WriteString("Extract 1-3 durable facts about the user from this exchange.\n")
	b.WriteString("Output format: JSON array of objects with keys type, content, importance, emotional_context.\n")
	b.WriteString("type is one of: preference, experience, emotional_moment, personal_revelation, goal, relationship, fact.\n")
	b.WriteString("importance is 6-10; only include facts worth remembering across sessions.\n")
	b.WriteString("content must be self-contained (write \"User\" instead of pronouns) and under 500 characters.\n")
	b.WriteString("emotional_context is a short rationale for why this mattered to the user.\n")
	b.WriteString("Skip greetings and small talk. Do not repeat facts already known.\n")

	if len(existing) > 0 {
		b.WriteString("\nAlready known:\n")
		limit := len(existing)
		if limit > 10 {
			limit = 10
		}
		for _, m := range existing[:limit] {
			fmt.Fprintf(&b, "- %s\n", m.Content)
		}
	}

	fmt.Fprintf(&b, "\nExchange:\nUSER: %s\nCOMPANION: %s\n", userMessage, aiReply)
	return b.String()
}
