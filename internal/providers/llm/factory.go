package llm

import (
	"fmt"

	"github.com/sandevgo/kindred/internal/config"
	"github.com/sandevgo/kindred/internal/core"
)

// NewClient creates a single-model client for the configured provider.
func NewClient(cfg *config.ProviderConfig, model string) (core.ChatClient, error) {
	switch cfg.Provider {
	case "openai":
		return NewOpenAI(cfg.OpenAIAPIKey, model), nil
	case "anthropic":
		return NewAnthropic(cfg.AnthropicAPIKey, model), nil
	case "openrouter":
		return NewOpenRouter(cfg.OpenRouterAPIKey, model), nil
	case "ollama":
		return NewOllama(cfg.OllamaBaseURL, cfg.OllamaAPIKey, model), nil
	default:
		return nil, fmt.Errorf("unknown llm provider: %s", cfg.Provider)
	}
}

// NewGatewayFromConfig builds the primary client plus one client per
// configured fallback model, all behind the cascade gateway.
func NewGatewayFromConfig(cfg *config.ProviderConfig) (*Gateway, error) {
	primary, err := NewClient(cfg, cfg.Model)
	if err != nil {
		return nil, err
	}

	fallbacks := make([]core.ChatClient, 0, len(cfg.FallbackModels))
	for _, model := range cfg.FallbackModels {
		c, err := NewClient(cfg, model)
		if err != nil {
			return nil, err
		}
		fallbacks = append(fallbacks, c)
	}

	return NewGateway(primary, fallbacks), nil
}
