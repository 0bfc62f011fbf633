package core

import "context"

// ChatClient is a single language-model backend: one provider, one model.
type ChatClient interface {
	Chat(ctx context.Context, history []Message) (Message, error)
	// Model identifies the backing model for logging and fallback bookkeeping.
	Model() string
}

// Generator is what the pipeline talks to: a ChatClient wrapped with retry
// and fallback behavior.
type Generator interface {
	Generate(ctx context.Context, systemPrompt string, history []Message) (string, error)
}

// Embedder turns text into a fixed-dimension vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimension() int
}
