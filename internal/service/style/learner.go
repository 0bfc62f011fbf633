package style

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/sandevgo/kindred/internal/core"
)

// maxLearningConfidence is the ceiling on how sure the learner ever gets.
const maxLearningConfidence = 0.95

// Learning rates by sample count: fast while the profile is young, slow once
// it has settled.
const (
	fastLearningRate   = 0.3
	mediumLearningRate = 0.15
	slowLearningRate   = 0.05

	fastSampleCeiling = 10
	slowSampleFloor   = 50
)

// Learner folds each user message into the persisted CommunicationStyle via
// exponential smoothing.
type Learner struct {
	repo core.StyleRepository
}

func NewLearner(repo core.StyleRepository) *Learner {
	return &Learner{repo: repo}
}

// Observe measures one user message and smooths it into the stored style.
// The first observation seeds the profile directly.
func (l *Learner) Observe(ctx context.Context, userID, companionID, userMsg string) error {
	obs := measure(userMsg)

	current, err := l.repo.Get(ctx, userID, companionID)
	if err != nil {
		return fmt.Errorf("load style: %w", err)
	}

	if current == nil {
		obs.UserID = userID
		obs.CompanionID = companionID
		obs.SampleCount = 1
		obs.LearningConfidence = confidenceFor(1)
		obs.UpdatedAt = time.Now()
		if err := l.repo.Upsert(ctx, obs); err != nil {
			return fmt.Errorf("save style: %w", err)
		}
		return nil
	}

	rate := learningRate(current.SampleCount)
	current.FormalityLevel = smooth(current.FormalityLevel, obs.FormalityLevel, rate)
	current.HumorPreference = smooth(current.HumorPreference, obs.HumorPreference, rate)
	current.ResponseLengthPref = smooth(current.ResponseLengthPref, obs.ResponseLengthPref, rate)
	current.QuestionFrequency = smooth(current.QuestionFrequency, obs.QuestionFrequency, rate)
	current.EmojiUsage = smooth(current.EmojiUsage, obs.EmojiUsage, rate)
	current.PunctuationStyle = smooth(current.PunctuationStyle, obs.PunctuationStyle, rate)
	current.EmotionalExpression = smooth(current.EmotionalExpression, obs.EmotionalExpression, rate)
	current.SampleCount++
	current.LearningConfidence = confidenceFor(current.SampleCount)
	current.UpdatedAt = time.Now()

	if err := l.repo.Upsert(ctx, *current); err != nil {
		return fmt.Errorf("save style: %w", err)
	}
	return nil
}

func smooth(old, observed, rate float64) float64 {
	return old*(1-rate) + observed*rate
}

func learningRate(samples int) float64 {
	switch {
	case samples < fastSampleCeiling:
		return fastLearningRate
	case samples > slowSampleFloor:
		return slowLearningRate
	default:
		return mediumLearningRate
	}
}

func confidenceFor(samples int) float64 {
	c := float64(samples) / 60.0
	if c > maxLearningConfidence {
		return maxLearningConfidence
	}
	return c
}

// measure turns one message into a style observation with every dial in
// [0,1].
func measure(msg string) core.CommunicationStyle {
	trimmed := strings.TrimSpace(msg)
	lower := strings.ToLower(trimmed)
	runes := []rune(trimmed)

	var s core.CommunicationStyle

	// Formality: contractions, slang, and lowercase openings read informal.
	formality := 0.5
	for _, marker := range []string{"gonna", "wanna", "lol", "omg", "btw", "idk", "u ", " u", "ya"} {
		if strings.Contains(lower, marker) {
			formality -= 0.15
		}
	}
	if len(runes) > 0 && unicode.IsUpper(runes[0]) {
		formality += 0.1
	}
	s.FormalityLevel = clamp01(formality)

	for _, marker := range []string{"haha", "lol", "lmao", "😂", "🤣"} {
		if strings.Contains(lower, marker) {
			s.HumorPreference += 0.3
		}
	}
	s.HumorPreference = clamp01(s.HumorPreference)

	// Length preference: ~300 runes reads as "likes long messages".
	s.ResponseLengthPref = clamp01(float64(len(runes)) / 300.0)

	if strings.Contains(trimmed, "?") {
		s.QuestionFrequency = 1
	}

	s.EmojiUsage = clamp01(float64(len(extractEmoji(trimmed))) / 2.0)

	exclaims := strings.Count(trimmed, "!")
	s.PunctuationStyle = clamp01(float64(exclaims) / 3.0)

	for _, marker := range []string{"feel", "felt", "love", "hate", "miss", "excited", "scared"} {
		if strings.Contains(lower, marker) {
			s.EmotionalExpression += 0.25
		}
	}
	s.EmotionalExpression = clamp01(s.EmotionalExpression)

	return s
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
