package config

import (
	"context"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/sandevgo/kindred/pkg/log"
)

// EngineConfig carries the tunables of the message pipeline. Everything that
// used to be an ambient constant in heuristics lives here so the heuristics
// stay pure functions of (text, config).
type EngineConfig struct {
	// Candidates below this importance are discarded at store time.
	ImportanceThreshold int `env:"MEMORY_IMPORTANCE_THRESHOLD" envDefault:"7"`

	// Memories injected into the prompt per message.
	MemoryRecallLimit int `env:"MEMORY_RECALL_LIMIT" envDefault:"5"`

	// Upper bound on a single reply generation, raced against the provider.
	ReplyTimeout time.Duration `env:"REPLY_TIMEOUT" envDefault:"30s"`

	// Emotion keyword breadth and baseline intensity dial, 0..1.
	EmotionSensitivity float64 `env:"EMOTION_SENSITIVITY" envDefault:"0.5"`

	// Persona dials, 0..1, rendered into prompt guidance sentences.
	Casualness        float64 `env:"PERSONA_CASUALNESS" envDefault:"0.7"`
	Empathy           float64 `env:"PERSONA_EMPATHY" envDefault:"0.8"`
	QuestionFrequency float64 `env:"PERSONA_QUESTION_FREQUENCY" envDefault:"0.4"`

	// Reply length bounds in characters.
	ReplyMinChars int `env:"REPLY_MIN_CHARS" envDefault:"8"`
	ReplyMaxChars int `env:"REPLY_MAX_CHARS" envDefault:"240"`

	// Deterministic follow-up questions are off by default; the model is
	// trusted to ask its own.
	EnableFollowUps bool `env:"ENABLE_FOLLOW_UPS" envDefault:"false"`

	// Session cache bounds.
	CacheTTL     time.Duration `env:"SESSION_CACHE_TTL" envDefault:"30m"`
	CacheMaxSize int           `env:"SESSION_CACHE_MAX_SIZE" envDefault:"512"`

	// Cron expression for the memory consolidation maintenance pass.
	ConsolidationSchedule string `env:"CONSOLIDATION_SCHEDULE" envDefault:"@every 1h"`

	// Token budget for dialogue history in the assembled prompt.
	HistoryTokenBudget int `env:"HISTORY_TOKEN_BUDGET" envDefault:"1500"`
}

func NewEngineConfig(ctx context.Context) *EngineConfig {
	c := &EngineConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse Engine config")
	}
	return c
}
