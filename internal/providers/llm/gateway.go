package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sandevgo/kindred/internal/core"
	"github.com/sandevgo/kindred/pkg/log"
)

// overloadedRetryDelay is the fixed pause before the single same-model retry
// on an overloaded signal.
const overloadedRetryDelay = 2 * time.Second

// Gateway fronts an ordered list of chat backends. It retries transient
// failures on the same model at most once, then cascades down favoring the
// first model that answers. When everything is exhausted it returns
// ErrProviderUnavailable, the one provider error callers are expected to
// turn into a degraded reply.
type Gateway struct {
	clients []core.ChatClient

	// sleep is swapped out in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

func NewGateway(primary core.ChatClient, fallbacks []core.ChatClient) *Gateway {
	clients := append([]core.ChatClient{primary}, fallbacks...)
	return &Gateway{
		clients: clients,
		sleep:   sleepCtx,
	}
}

func (g *Gateway) Generate(ctx context.Context, systemPrompt string, history []core.Message) (string, error) {
	logger := log.FromCtx(ctx)

	messages := make([]core.Message, 0, len(history)+1)
	if systemPrompt != "" {
		messages = append(messages, core.Message{Role: core.RoleSystem, Content: systemPrompt})
	}
	messages = append(messages, history...)

	var lastErr error
	for i, client := range g.clients {
		reply, err := g.callWithRetry(ctx, client, messages)
		if err == nil {
			if i > 0 {
				logger.Info().Str("model", client.Model()).Msg("fallback model served the reply")
			}
			return reply, nil
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}

		lastErr = err
		logger.Warn().Err(err).Str("model", client.Model()).Msg("model failed, cascading")
	}

	return "", fmt.Errorf("%w: %w", ErrProviderUnavailable, lastErr)
}

// callWithRetry performs at most one retry per model, and only for the error
// kinds that are worth retrying in place.
func (g *Gateway) callWithRetry(ctx context.Context, client core.ChatClient, messages []core.Message) (string, error) {
	msg, err := client.Chat(ctx, messages)
	if err == nil {
		return msg.Content, nil
	}

	var pe *ProviderError
	if !errors.As(err, &pe) {
		// Transport-level failure; let the cascade move on.
		return "", err
	}

	var wait time.Duration
	switch pe.Kind {
	case KindOverloaded:
		wait = overloadedRetryDelay
	case KindRateLimited:
		wait = pe.RetryAfter
		if wait <= 0 {
			wait = overloadedRetryDelay
		}
	default:
		// NotFound and Unknown never succeed on a second identical call.
		return "", err
	}

	if err := g.sleep(ctx, wait); err != nil {
		return "", err
	}

	msg, err = client.Chat(ctx, messages)
	if err != nil {
		return "", err
	}
	return msg.Content, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
