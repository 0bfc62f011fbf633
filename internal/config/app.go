package config

import (
	"context"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"github.com/sandevgo/kindred/pkg/log"
)

type AppConfig struct {
	RuntimePath string `env:"KINDRED_RUNTIME_PATH" envDefault:".kindred"`

	// Transport flags
	EnableTelegram bool `env:"ENABLE_TELEGRAM" envDefault:"false"`

	// Dialogue turns kept in the rolling conversation buffer.
	ContextWindowSize int `env:"CONTEXT_WINDOW_SIZE" envDefault:"30"`

	// Companion served when the transport has no explicit mapping.
	DefaultCompanionID string `env:"DEFAULT_COMPANION_ID" envDefault:"companion-default"`
}

func NewAppConfig(ctx context.Context) *AppConfig {
	c := &AppConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse App config")
	}
	return c
}

func (c AppConfig) GetDatabasePath() string {
	return filepath.Join(c.RuntimePath, "kindred.db")
}

func (c AppConfig) IsTelegramSelected() bool {
	return c.EnableTelegram
}
