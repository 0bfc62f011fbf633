package config

import (
	"context"

	"github.com/caarlos0/env/v11"
	"github.com/sandevgo/kindred/pkg/log"
)

// EmbeddingConfig describes the optional remote embedding capability.
// Leaving BaseURL empty disables the semantic memory path entirely; the
// engine then retrieves memories by importance and recency only.
type EmbeddingConfig struct {
	BaseURL   string `env:"EMBEDDING_BASE_URL"`
	APIKey    string `env:"EMBEDDING_API_KEY"`
	Model     string `env:"EMBEDDING_MODEL" envDefault:"text-embedding-3-small"`
	Dimension int    `env:"EMBEDDING_DIMENSION" envDefault:"1536"`
}

func (c EmbeddingConfig) Enabled() bool {
	return c.BaseURL != ""
}

func NewEmbeddingConfig(ctx context.Context) *EmbeddingConfig {
	c := &EmbeddingConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse Embedding config")
	}
	return c
}
