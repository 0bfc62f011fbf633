package telegram

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sandevgo/kindred/internal/config"
	"github.com/sandevgo/kindred/internal/service/engine"
	"github.com/sandevgo/kindred/pkg/conv"
	"github.com/sandevgo/kindred/pkg/log"
	tele "gopkg.in/telebot.v3"
)

const baseContextKey = "base_context"

// Bot maps one Telegram chat to one conversation with the default
// companion: the chat id becomes the conversation id, the sender id the
// user id.
type Bot struct {
	bot         *tele.Bot
	cfg         *config.TelegramConfig
	engine      *engine.Engine
	companionID string
	ownerID     int64
}

func NewBot(
	ctx context.Context,
	cfg *config.TelegramConfig,
	eng *engine.Engine,
	companionID string,
) (*Bot, error) {
	pref := tele.Settings{
		Token:  cfg.Token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	}

	b, err := tele.NewBot(pref)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	bot := &Bot{
		bot:         b,
		cfg:         cfg,
		engine:      eng,
		companionID: companionID,
		ownerID:     cfg.OwnerID,
	}

	// Carry the signal context with its logger into handlers.
	b.Use(func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			c.Set(baseContextKey, ctx)
			return next(c)
		}
	})

	// Only the owner gets a companion.
	b.Use(func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			if c.Sender().ID != bot.ownerID {
				return nil
			}
			return next(c)
		}
	})

	b.Handle(tele.OnText, bot.handleMessage)
	b.Handle("/memories", bot.handleMemoryStats)

	return bot, nil
}

func (b *Bot) Start(ctx context.Context) error {
	log.FromCtx(ctx).Info().Msg("starting telegram bot")
	b.bot.Start()
	return nil
}

func (b *Bot) Shutdown(ctx context.Context) error {
	b.bot.Stop()
	return nil
}

func (b *Bot) handleMessage(c tele.Context) error {
	ctx := c.Get(baseContextKey).(context.Context)
	logger := log.FromCtx(ctx)

	userID := fmt.Sprintf("tg-%d", c.Sender().ID)
	conversationID := fmt.Sprintf("tg-chat-%d", c.Chat().ID)

	// Telegram tells us the sender's language; seed the cultural context
	// with it so the companion replies in kind until a richer profile exists.
	if lang := c.Sender().LanguageCode; lang != "" {
		if err := b.engine.EnsureCulturalContext(ctx, userID, lang); err != nil {
			logger.Warn().Err(err).Msg("failed to seed cultural context")
		}
	}

	_ = c.Notify(tele.Typing)

	reply, err := b.engine.ProcessMessage(ctx, b.companionID, userID, conversationID, c.Text())
	if err != nil {
		logger.Error().Err(err).Msg("failed to process message")
		return c.Send("Hmm, I couldn't read that one. Try again?")
	}

	// Replies are length-capped well under Telegram's limit, so no chunking.
	html := strings.TrimSpace(conv.MarkdownToTelegramHTML([]byte(reply.Text)))
	if html == "" {
		return nil
	}
	if err := c.Send(html, tele.ModeHTML); err != nil {
		logger.Error().Err(err).Msg("failed to send telegram message")
	}
	return nil
}

func (b *Bot) handleMemoryStats(c tele.Context) error {
	ctx := c.Get(baseContextKey).(context.Context)
	userID := fmt.Sprintf("tg-%d", c.Sender().ID)

	stats, err := b.engine.GetMemoryStats(ctx, b.companionID, userID)
	if err != nil {
		log.FromCtx(ctx).Error().Err(err).Msg("failed to fetch memory stats")
		return c.Send("I couldn't check my memories just now.")
	}

	total := 0
	for _, n := range stats.TotalByType {
		total += n
	}
	return c.Send(fmt.Sprintf("I'm holding onto %d memories of you (avg importance %.1f).", total, stats.AvgImportance))
}
