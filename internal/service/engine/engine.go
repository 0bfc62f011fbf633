// Package engine is the conversation orchestrator: one pipeline run per
// inbound message, strictly ordered analyze → assemble → generate →
// post-process, with memory side effects detached from the reply path.
package engine

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/sandevgo/kindred/internal/config"
	"github.com/sandevgo/kindred/internal/core"
	"github.com/sandevgo/kindred/internal/service/analysis"
	"github.com/sandevgo/kindred/internal/service/prompt"
	"github.com/sandevgo/kindred/internal/service/style"
	"github.com/sandevgo/kindred/pkg/log"
)

// ErrInvalidInput rejects malformed requests before the pipeline starts. It
// is one of only two errors a caller ever sees; everything else degrades
// into a textual reply.
var ErrInvalidInput = errors.New("invalid input")

const maxMessageLen = 4000

// Fixed texts for the two degraded terminal states.
const (
	degradedReplyText = "Sorry, I'm having a little trouble thinking straight right now. Give me a moment and try again?"
	timeoutReplyText  = "Sorry, this is taking longer than usual. Say that again in a little bit?"
)

// recentTopicWindow is how many stored topics feed transition detection.
const recentTopicWindow = 5

type MemoryStore interface {
	Remember(ctx context.Context, companionID, userID string, c core.CandidateMemory) (bool, error)
	GetRelevant(ctx context.Context, companionID, userID string, limit int, query string) ([]core.Memory, error)
	Stats(ctx context.Context, companionID, userID string) (core.MemoryStats, error)
}

type MemoryExtractor interface {
	Extract(ctx context.Context, userMessage, aiReply string, existing []core.Memory) []core.CandidateMemory
}

type StyleLearner interface {
	Observe(ctx context.Context, userID, companionID, userMsg string) error
}

// Reply is what ProcessMessage hands back to the transport.
type Reply struct {
	Text    string
	Emotion analysis.Emotion
	Topic   analysis.TopicAnalysis
}

type Engine struct {
	appCfg *config.AppConfig
	cfg    *config.EngineConfig

	store      MemoryStore
	extractor  MemoryExtractor
	assembler  *prompt.Assembler
	processor  *style.Processor
	learner    StyleLearner
	gen        core.Generator
	companions core.CompanionRepository
	profiles   core.ProfileRepository
	styles     core.StyleRepository
	cultures   core.CultureRepository
	topics     core.TopicRepository
	cache      *SessionCache

	// One mutex per in-flight conversation; concurrent messages in the same
	// conversation serialize instead of racing on memories and cache rows.
	// Entries are reference-counted and removed when the last holder
	// releases, so the map only ever holds conversations with work pending.
	locksMu   sync.Mutex
	convLocks map[string]*convLock
}

type convLock struct {
	mu   sync.Mutex
	refs int
}

func NewEngine(
	appCfg *config.AppConfig,
	cfg *config.EngineConfig,
	store MemoryStore,
	extractor MemoryExtractor,
	assembler *prompt.Assembler,
	processor *style.Processor,
	learner StyleLearner,
	gen core.Generator,
	companions core.CompanionRepository,
	profiles core.ProfileRepository,
	styles core.StyleRepository,
	cultures core.CultureRepository,
	topics core.TopicRepository,
	cache *SessionCache,
) *Engine {
	return &Engine{
		appCfg:     appCfg,
		cfg:        cfg,
		store:      store,
		extractor:  extractor,
		assembler:  assembler,
		processor:  processor,
		learner:    learner,
		gen:        gen,
		companions: companions,
		profiles:   profiles,
		styles:     styles,
		cultures:   cultures,
		topics:     topics,
		cache:      cache,
		convLocks:  make(map[string]*convLock),
	}
}

// pipeline is the accumulating context one message moves through.
type pipeline struct {
	companionID    string
	userID         string
	conversationID string
	userMessage    string
	sessionKey     string

	bundle   *Bundle
	tags     []analysis.InputTag
	emotion  analysis.Emotion
	topic    analysis.TopicAnalysis
	memories []core.Memory
	history  []core.Message
	system   string
	rawReply string
	reply    string
	degraded bool
}

// ProcessMessage runs the whole pipeline for one user message and returns
// the final reply. All side effects (memory writes, topic upserts, style
// updates) happen inside this call; extraction runs detached and never
// delays the reply.
func (e *Engine) ProcessMessage(ctx context.Context, companionID, userID, conversationID, userMessage string) (*Reply, error) {
	if err := validateInput(companionID, userID, conversationID, userMessage); err != nil {
		return nil, err
	}

	logger := log.FromCtx(ctx).With().
		Str("trace_id", uuid.NewString()).
		Str("conversation_id", conversationID).
		Logger()
	ctx = logger.WithContext(ctx)

	p := &pipeline{
		companionID:    companionID,
		userID:         userID,
		conversationID: conversationID,
		userMessage:    strings.TrimSpace(userMessage),
		sessionKey:     SessionKey(companionID, userID, conversationID),
	}

	unlock := e.lockConversation(p.sessionKey)
	defer unlock()

	e.prepare(ctx, p)
	e.analyzeInput(p)
	e.detectEmotion(p)
	e.analyzeTopic(ctx, p)
	e.assemblePrompt(ctx, p)
	e.generateReply(ctx, p)
	e.postProcess(p)
	e.appendFollowUp(p)

	e.cache.AppendHistory(p.sessionKey, core.Message{Role: core.RoleUser, Content: p.userMessage}, e.appCfg.ContextWindowSize)
	e.cache.AppendHistory(p.sessionKey, core.Message{Role: core.RoleAssistant, Content: p.reply}, e.appCfg.ContextWindowSize)

	e.runSideEffects(&logger, p)

	return &Reply{Text: p.reply, Emotion: p.emotion, Topic: p.topic}, nil
}

func (e *Engine) lockConversation(key string) func() {
	e.locksMu.Lock()
	l := e.convLocks[key]
	if l == nil {
		l = &convLock{}
		e.convLocks[key] = l
	}
	l.refs++
	e.locksMu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		e.locksMu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(e.convLocks, key)
		}
		e.locksMu.Unlock()
	}
}

func validateInput(companionID, userID, conversationID, userMessage string) error {
	if companionID == "" || userID == "" || conversationID == "" {
		return ErrInvalidInput
	}
	msg := strings.TrimSpace(userMessage)
	if msg == "" || len(msg) > maxMessageLen {
		return ErrInvalidInput
	}
	return nil
}

// prepare loads or builds the session bundle and fetches the per-message
// state: relevant memories and buffered history.
func (e *Engine) prepare(ctx context.Context, p *pipeline) {
	logger := log.FromCtx(ctx)

	bundle, ok := e.cache.Bundle(p.sessionKey)
	if !ok {
		bundle = &Bundle{CreatedAt: time.Now()}
		var err error
		if bundle.Companion, err = e.companions.Get(ctx, p.companionID); err != nil {
			logger.Warn().Err(err).Msg("failed to load companion")
		}
		if bundle.Profile, err = e.profiles.Get(ctx, p.userID); err != nil {
			logger.Warn().Err(err).Msg("failed to load user profile")
		}
		if bundle.Style, err = e.styles.Get(ctx, p.userID, p.companionID); err != nil {
			logger.Warn().Err(err).Msg("failed to load communication style")
		}
		if bundle.Culture, err = e.cultures.Get(ctx, p.userID); err != nil {
			logger.Warn().Err(err).Msg("failed to load cultural context")
		}
		e.cache.PutBundle(p.sessionKey, bundle)
	}
	p.bundle = bundle

	memories, err := e.store.GetRelevant(ctx, p.companionID, p.userID, e.cfg.MemoryRecallLimit, p.userMessage)
	if err != nil {
		logger.Warn().Err(err).Msg("failed to retrieve memories")
	}
	p.memories = memories
	p.history = e.cache.History(p.sessionKey)
}

func (e *Engine) analyzeInput(p *pipeline) {
	p.tags = analysis.ClassifyInput(p.userMessage)
}

func (e *Engine) detectEmotion(p *pipeline) {
	p.emotion = analysis.EstimateEmotion(p.userMessage, e.cfg.EmotionSensitivity)
}

func (e *Engine) analyzeTopic(ctx context.Context, p *pipeline) {
	var recent []string
	if stored, err := e.topics.List(ctx, p.conversationID, recentTopicWindow); err != nil {
		log.FromCtx(ctx).Warn().Err(err).Msg("failed to list recent topics")
	} else {
		for _, t := range stored {
			recent = append(recent, t.Name)
		}
	}

	var interests []string
	if p.bundle.Profile != nil {
		interests = p.bundle.Profile.Interests
	}

	p.topic = analysis.DetectTopic(p.userMessage, recent, interests)
}

// assemblePrompt builds the system prompt. The identity block is stable for
// the life of a session bundle, so it is rendered once and cached; the rest
// varies per message.
func (e *Engine) assemblePrompt(ctx context.Context, p *pipeline) {
	identity, ok := e.cache.Template(p.sessionKey)
	if !ok {
		identity = e.assembler.Identity(p.bundle.Companion)
		e.cache.PutTemplate(p.sessionKey, identity)
	}

	p.system = e.assembler.Assemble(prompt.Input{
		Identity: identity,
		Memories: p.memories,
		History:  p.history,
		Emotion:  p.emotion,
		Topic:    p.topic,
		Style:    p.bundle.Style,
		Culture:  p.bundle.Culture,
	})
}

type genResult struct {
	text string
	err  error
}

// generateReply races the provider call against the reply timeout. On
// timeout the call keeps running in the background and its result is
// discarded; the user gets a fixed reply instead of a hang. Any generation
// error becomes the degraded apology, never a caller-visible error.
func (e *Engine) generateReply(ctx context.Context, p *pipeline) {
	logger := log.FromCtx(ctx)

	ch := make(chan genResult, 1)
	go func() {
		text, err := e.gen.Generate(ctx, p.system, []core.Message{
			{Role: core.RoleUser, Content: p.userMessage},
		})
		ch <- genResult{text: text, err: err}
	}()

	timer := time.NewTimer(e.cfg.ReplyTimeout)
	defer timer.Stop()

	select {
	case res := <-ch:
		if res.err != nil {
			logger.Error().Err(res.err).Msg("reply generation failed")
			p.rawReply = degradedReplyText
			p.degraded = true
			return
		}
		p.rawReply = res.text
	case <-timer.C:
		logger.Warn().Dur("timeout", e.cfg.ReplyTimeout).Msg("reply generation timed out")
		p.rawReply = timeoutReplyText
		p.degraded = true
	case <-ctx.Done():
		p.rawReply = timeoutReplyText
		p.degraded = true
	}
}

func (e *Engine) postProcess(p *pipeline) {
	if p.degraded {
		p.reply = p.rawReply
		return
	}
	p.reply = e.processor.Process(p.rawReply, p.userMessage, p.emotion)
}

func (e *Engine) appendFollowUp(p *pipeline) {
	if !e.cfg.EnableFollowUps || p.degraded {
		return
	}
	if q := style.GenerateFollowUp(p.userMessage, p.topic); q != "" {
		p.reply = p.reply + " " + q
	}
}

// runSideEffects detaches topic persistence, style learning, and memory
// extraction from the reply path. Failures are logged, never surfaced.
func (e *Engine) runSideEffects(logger *zerolog.Logger, p *pipeline) {
	snapshot := *p

	go func() {
		ctx := logger.WithContext(context.Background())

		if snapshot.topic.Name != analysis.GeneralTopic {
			err := e.topics.Upsert(ctx, core.Topic{
				ConversationID: snapshot.conversationID,
				Name:           snapshot.topic.Name,
				Category:       snapshot.topic.Category,
				Sentiment:      string(snapshot.emotion.State),
			})
			if err != nil {
				logger.Error().Err(err).Msg("failed to upsert topic")
			}
		}

		if err := e.learner.Observe(ctx, snapshot.userID, snapshot.companionID, snapshot.userMessage); err != nil {
			logger.Error().Err(err).Msg("failed to update communication style")
		}

		if snapshot.degraded {
			return
		}

		candidates := e.extractor.Extract(ctx, snapshot.userMessage, snapshot.reply, snapshot.memories)
		for _, c := range candidates {
			stored, err := e.store.Remember(ctx, snapshot.companionID, snapshot.userID, c)
			if err != nil {
				logger.Error().Err(err).Msg("failed to persist memory")
				continue
			}
			if stored {
				logger.Info().Str("type", string(c.Type)).Int("importance", c.Importance).Msg("memory stored")
			}
		}
	}()
}

// EnsureCulturalContext records the user's language the first time a
// transport learns it. An existing row wins; a transport hint never clobbers
// a richer profile.
func (e *Engine) EnsureCulturalContext(ctx context.Context, userID, language string) error {
	if userID == "" || language == "" {
		return ErrInvalidInput
	}
	existing, err := e.cultures.Get(ctx, userID)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}
	return e.cultures.Upsert(ctx, core.CulturalContext{UserID: userID, Language: language})
}

// SearchMemories is the read-only retrieval surface for callers outside the
// pipeline.
func (e *Engine) SearchMemories(ctx context.Context, companionID, userID, query string, limit int) ([]core.Memory, error) {
	if companionID == "" || userID == "" {
		return nil, ErrInvalidInput
	}
	if limit <= 0 {
		limit = e.cfg.MemoryRecallLimit
	}
	return e.store.GetRelevant(ctx, companionID, userID, limit, query)
}

func (e *Engine) GetMemoryStats(ctx context.Context, companionID, userID string) (core.MemoryStats, error) {
	if companionID == "" || userID == "" {
		return core.MemoryStats{}, ErrInvalidInput
	}
	return e.store.Stats(ctx, companionID, userID)
}
