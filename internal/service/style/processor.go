// Package style shapes a generated reply to feel like it belongs in the
// user's conversation: length, punctuation, and emoji mirroring, a light
// emotional-attunement prefix, and an optional follow-up question. It also
// owns the slow per-user communication-style learner.
package style

import (
	"strings"

	"github.com/sandevgo/kindred/internal/config"
	"github.com/sandevgo/kindred/internal/service/analysis"
)

// Processor applies the post-generation transforms in a fixed order:
// residual stripping, attunement, punctuation and length mirroring, then
// emoji mirroring on the trimmed result.
type Processor struct {
	cfg *config.EngineConfig
}

func NewProcessor(cfg *config.EngineConfig) *Processor {
	return &Processor{cfg: cfg}
}

// Process refines the raw reply against the user's message and detected
// emotion. Attunement runs before mirrorLength so the prefix counts against
// the character budget.
func (p *Processor) Process(reply, userMsg string, emotion analysis.Emotion) string {
	out := stripAIResiduals(reply)
	out = attune(out, emotion)
	out = mirrorPunctuation(out, userMsg)
	out = mirrorLength(out, userMsg, p.cfg.ReplyMinChars, p.cfg.ReplyMaxChars)
	out = mirrorEmoji(out, userMsg)
	return strings.TrimSpace(out)
}
