package engine

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sandevgo/kindred/internal/config"
	"github.com/sandevgo/kindred/internal/core"
	"github.com/sandevgo/kindred/internal/providers/llm"
	"github.com/sandevgo/kindred/internal/service/analysis"
	"github.com/sandevgo/kindred/internal/service/prompt"
	"github.com/sandevgo/kindred/internal/service/style"
)

type fakeGenerator struct {
	reply   string
	err     error
	delay   time.Duration
	inUse   atomic.Int32
	overlap atomic.Bool
	calls   atomic.Int32

	mu         sync.Mutex
	lastSystem string
}

func (f *fakeGenerator) Generate(ctx context.Context, systemPrompt string, history []core.Message) (string, error) {
	f.calls.Add(1)
	f.mu.Lock()
	f.lastSystem = systemPrompt
	f.mu.Unlock()
	if f.inUse.Add(1) > 1 {
		f.overlap.Store(true)
	}
	defer f.inUse.Add(-1)

	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	return f.reply, f.err
}

func (f *fakeGenerator) lastSystemPrompt() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastSystem
}

type fakeEngineStore struct {
	mu         sync.Mutex
	memories   []core.Memory
	remembered []core.CandidateMemory
	stored     chan struct{}
}

func (f *fakeEngineStore) Remember(ctx context.Context, companionID, userID string, c core.CandidateMemory) (bool, error) {
	f.mu.Lock()
	f.remembered = append(f.remembered, c)
	f.mu.Unlock()
	if f.stored != nil {
		f.stored <- struct{}{}
	}
	return c.Importance >= 7, nil
}

func (f *fakeEngineStore) GetRelevant(ctx context.Context, companionID, userID string, limit int, query string) ([]core.Memory, error) {
	return f.memories, nil
}

func (f *fakeEngineStore) Stats(ctx context.Context, companionID, userID string) (core.MemoryStats, error) {
	return core.MemoryStats{AvgImportance: 8}, nil
}

type fakeEngineExtractor struct {
	candidates []core.CandidateMemory
}

func (f *fakeEngineExtractor) Extract(ctx context.Context, userMessage, aiReply string, existing []core.Memory) []core.CandidateMemory {
	return f.candidates
}

type fakeEngineLearner struct {
	observed atomic.Int32
}

func (f *fakeEngineLearner) Observe(ctx context.Context, userID, companionID, userMsg string) error {
	f.observed.Add(1)
	return nil
}

type fakeCompanionRepo struct{}

func (fakeCompanionRepo) Get(ctx context.Context, companionID string) (*core.Companion, error) {
	return &core.Companion{ID: companionID, Name: "Luna"}, nil
}

type fakeProfileRepo struct {
	interests []string
}

func (f fakeProfileRepo) Get(ctx context.Context, userID string) (*core.UserProfile, error) {
	return &core.UserProfile{UserID: userID, Interests: f.interests}, nil
}

type fakeStyleRepo struct{}

func (fakeStyleRepo) Get(ctx context.Context, userID, companionID string) (*core.CommunicationStyle, error) {
	return nil, nil
}
func (fakeStyleRepo) Upsert(ctx context.Context, s core.CommunicationStyle) error { return nil }

type fakeCultureRepo struct {
	mu       sync.Mutex
	existing *core.CulturalContext
	upserts  []core.CulturalContext
}

func (f *fakeCultureRepo) Get(ctx context.Context, userID string) (*core.CulturalContext, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.existing, nil
}

func (f *fakeCultureRepo) Upsert(ctx context.Context, c core.CulturalContext) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserts = append(f.upserts, c)
	return nil
}

type fakeTopicRepo struct {
	mu       sync.Mutex
	upserted []core.Topic
}

func (f *fakeTopicRepo) Upsert(ctx context.Context, t core.Topic) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserted = append(f.upserted, t)
	return nil
}

func (f *fakeTopicRepo) List(ctx context.Context, conversationID string, limit int) ([]core.Topic, error) {
	return nil, nil
}

type testDeps struct {
	gen       *fakeGenerator
	store     *fakeEngineStore
	extractor *fakeEngineExtractor
	learner   *fakeEngineLearner
	topics    *fakeTopicRepo
	cultures  *fakeCultureRepo
}

func newTestEngine(t *testing.T, deps *testDeps) *Engine {
	t.Helper()

	appCfg := &config.AppConfig{ContextWindowSize: 30}
	cfg := &config.EngineConfig{
		ImportanceThreshold: 7,
		MemoryRecallLimit:   5,
		ReplyTimeout:        2 * time.Second,
		EmotionSensitivity:  0.5,
		Casualness:          0.7,
		Empathy:             0.8,
		QuestionFrequency:   0.4,
		ReplyMinChars:       8,
		ReplyMaxChars:       240,
		HistoryTokenBudget:  1500,
	}

	if deps.gen == nil {
		deps.gen = &fakeGenerator{reply: "That sounds lovely."}
	}
	if deps.store == nil {
		deps.store = &fakeEngineStore{}
	}
	if deps.extractor == nil {
		deps.extractor = &fakeEngineExtractor{}
	}
	if deps.learner == nil {
		deps.learner = &fakeEngineLearner{}
	}
	if deps.topics == nil {
		deps.topics = &fakeTopicRepo{}
	}
	if deps.cultures == nil {
		deps.cultures = &fakeCultureRepo{}
	}

	return NewEngine(
		appCfg, cfg,
		deps.store, deps.extractor,
		prompt.NewAssembler(cfg),
		style.NewProcessor(cfg),
		deps.learner,
		deps.gen,
		fakeCompanionRepo{},
		fakeProfileRepo{interests: []string{"TV shows"}},
		fakeStyleRepo{},
		deps.cultures,
		deps.topics,
		NewSessionCache(64, time.Hour),
	)
}

func TestProcessMessage_HappyPath(t *testing.T) {
	deps := &testDeps{gen: &fakeGenerator{reply: "Oh nice, tell me more about the show and what you liked."}}
	e := newTestEngine(t, deps)

	got, err := e.ProcessMessage(context.Background(), "c1", "u1", "conv1",
		"omg i love watching Billions, the characters are so good!!")
	if err != nil {
		t.Fatal(err)
	}

	if got.Text == "" {
		t.Error("reply should not be empty")
	}
	if got.Topic.Name != "entertainment" {
		t.Errorf("topic = %q, want entertainment", got.Topic.Name)
	}
	if !got.Topic.InterestMatch {
		t.Error("declared TV shows interest should match the topic")
	}
	if got.Emotion.State != analysis.EmotionHappy {
		t.Errorf("emotion = %q, want happy", got.Emotion.State)
	}
}

func TestProcessMessage_Validation(t *testing.T) {
	e := newTestEngine(t, &testDeps{})

	tests := []struct {
		name                              string
		companion, user, conversation, msg string
	}{
		{name: "empty_companion", user: "u1", conversation: "c", msg: "hi"},
		{name: "empty_user", companion: "c1", conversation: "c", msg: "hi"},
		{name: "empty_conversation", companion: "c1", user: "u1", msg: "hi"},
		{name: "blank_message", companion: "c1", user: "u1", conversation: "c", msg: "   "},
		{name: "oversized_message", companion: "c1", user: "u1", conversation: "c", msg: strings.Repeat("a", maxMessageLen+1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.ProcessMessage(context.Background(), tt.companion, tt.user, tt.conversation, tt.msg)
			if !errors.Is(err, ErrInvalidInput) {
				t.Errorf("err = %v, want ErrInvalidInput", err)
			}
		})
	}
}

func TestProcessMessage_DegradedReplyOnProviderFailure(t *testing.T) {
	deps := &testDeps{gen: &fakeGenerator{err: llm.ErrProviderUnavailable}}
	e := newTestEngine(t, deps)

	got, err := e.ProcessMessage(context.Background(), "c1", "u1", "conv1", "hello there, how are you today")
	if err != nil {
		t.Fatalf("provider exhaustion must not surface as an error, got %v", err)
	}
	if got.Text != degradedReplyText {
		t.Errorf("got %q, want the degraded reply", got.Text)
	}
}

func TestProcessMessage_TimeoutReply(t *testing.T) {
	deps := &testDeps{gen: &fakeGenerator{reply: "too late", delay: 200 * time.Millisecond}}
	e := newTestEngine(t, deps)
	e.cfg.ReplyTimeout = 20 * time.Millisecond

	got, err := e.ProcessMessage(context.Background(), "c1", "u1", "conv1", "are you still with me")
	if err != nil {
		t.Fatal(err)
	}
	if got.Text != timeoutReplyText {
		t.Errorf("got %q, want the timeout reply", got.Text)
	}
}

func TestProcessMessage_ExtractionRunsDetached(t *testing.T) {
	store := &fakeEngineStore{stored: make(chan struct{}, 4)}
	deps := &testDeps{
		store: store,
		extractor: &fakeEngineExtractor{candidates: []core.CandidateMemory{
			{Type: core.MemoryGoal, Content: "User dreams of traveling the world", Importance: 8},
		}},
	}
	e := newTestEngine(t, deps)

	_, err := e.ProcessMessage(context.Background(), "c1", "u1", "conv1",
		"I grew up in a small town and always dreamed of traveling the world")
	if err != nil {
		t.Fatal(err)
	}

	select {
	case <-store.stored:
	case <-time.After(time.Second):
		t.Fatal("extraction side effect never reached the store")
	}

	store.mu.Lock()
	if len(store.remembered) != 1 || store.remembered[0].Type != core.MemoryGoal {
		t.Errorf("remembered = %+v", store.remembered)
	}
	store.mu.Unlock()

	// The topic upsert runs in the same detached pass and must carry the
	// taxonomy category, not repeat the name.
	deps.topics.mu.Lock()
	defer deps.topics.mu.Unlock()
	if len(deps.topics.upserted) != 1 {
		t.Fatalf("upserted topics = %+v, want exactly one", deps.topics.upserted)
	}
	if got := deps.topics.upserted[0]; got.Name != "travel" || got.Category != analysis.CategoryLeisure {
		t.Errorf("topic row = %+v, want name travel with the leisure category", got)
	}
}

func TestProcessMessage_SameConversationSerializes(t *testing.T) {
	gen := &fakeGenerator{reply: "mm, go on.", delay: 30 * time.Millisecond}
	e := newTestEngine(t, &testDeps{gen: gen})

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := e.ProcessMessage(context.Background(), "c1", "u1", "conv1", "tell me something interesting")
			if err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	if gen.overlap.Load() {
		t.Error("messages in the same conversation must not run concurrently")
	}
}

func TestProcessMessage_HistoryAccumulates(t *testing.T) {
	e := newTestEngine(t, &testDeps{})

	for _, msg := range []string{"hi there", "i had pasta for dinner tonight"} {
		if _, err := e.ProcessMessage(context.Background(), "c1", "u1", "conv1", msg); err != nil {
			t.Fatal(err)
		}
	}

	history := e.cache.History(SessionKey("c1", "u1", "conv1"))
	if len(history) != 4 {
		t.Fatalf("history len = %d, want 4 (two exchanges)", len(history))
	}
	if history[0].Role != core.RoleUser || history[1].Role != core.RoleAssistant {
		t.Errorf("history roles out of order: %+v", history)
	}
}

func TestProcessMessage_ConversationLocksReleased(t *testing.T) {
	e := newTestEngine(t, &testDeps{gen: &fakeGenerator{reply: "mm, go on.", delay: 10 * time.Millisecond}})

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		conv := "conv1"
		if i%2 == 0 {
			conv = "conv2"
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := e.ProcessMessage(context.Background(), "c1", "u1", conv, "tell me something interesting"); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	e.locksMu.Lock()
	defer e.locksMu.Unlock()
	if n := len(e.convLocks); n != 0 {
		t.Errorf("lock map holds %d entries after all messages finished, want 0", n)
	}
}

func TestEnsureCulturalContext(t *testing.T) {
	cultures := &fakeCultureRepo{}
	e := newTestEngine(t, &testDeps{cultures: cultures})
	ctx := context.Background()

	if err := e.EnsureCulturalContext(ctx, "", "en"); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("err = %v, want ErrInvalidInput for empty user", err)
	}
	if err := e.EnsureCulturalContext(ctx, "u1", ""); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("err = %v, want ErrInvalidInput for empty language", err)
	}

	if err := e.EnsureCulturalContext(ctx, "u1", "pl"); err != nil {
		t.Fatal(err)
	}
	if len(cultures.upserts) != 1 || cultures.upserts[0].Language != "pl" {
		t.Fatalf("upserts = %+v, want one row seeded with the language", cultures.upserts)
	}

	// An existing profile is never clobbered by the transport hint.
	cultures.existing = &core.CulturalContext{UserID: "u1", Language: "pl", Country: "PL"}
	if err := e.EnsureCulturalContext(ctx, "u1", "en"); err != nil {
		t.Fatal(err)
	}
	if len(cultures.upserts) != 1 {
		t.Errorf("upserts = %+v, want no second write", cultures.upserts)
	}
}

func TestProcessMessage_IdentityBlockCachedPerSession(t *testing.T) {
	gen := &fakeGenerator{reply: "Sounds good to me."}
	e := newTestEngine(t, &testDeps{gen: gen})

	if _, err := e.ProcessMessage(context.Background(), "c1", "u1", "conv1", "hi there"); err != nil {
		t.Fatal(err)
	}

	key := SessionKey("c1", "u1", "conv1")
	tpl, ok := e.cache.Template(key)
	if !ok || !strings.Contains(tpl, "Luna") {
		t.Fatalf("identity block not cached, got %q", tpl)
	}

	// Swap the cached block; the next assemble must pick it up instead of
	// re-rendering from the companion snapshot.
	e.cache.PutTemplate(key, "YOUR IDENTITY:\nYou are Nova.\n\n")
	if _, err := e.ProcessMessage(context.Background(), "c1", "u1", "conv1", "still there?"); err != nil {
		t.Fatal(err)
	}
	if got := gen.lastSystemPrompt(); !strings.Contains(got, "Nova") {
		t.Errorf("assembled prompt did not reuse the cached identity block:\n%s", got)
	}
}

func TestSearchMemories_Validation(t *testing.T) {
	e := newTestEngine(t, &testDeps{})

	if _, err := e.SearchMemories(context.Background(), "", "u1", "query", 5); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("err = %v, want ErrInvalidInput", err)
	}
	if _, err := e.GetMemoryStats(context.Background(), "c1", ""); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("err = %v, want ErrInvalidInput", err)
	}
}
