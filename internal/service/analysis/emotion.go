package analysis

import (
	"fmt"
	"strings"
)

// EmotionState is the coarse affect of a message.
type EmotionState string

const (
	EmotionHappy      EmotionState = "happy"
	EmotionSad        EmotionState = "sad"
	EmotionFrustrated EmotionState = "frustrated"
	EmotionNeutral    EmotionState = "neutral"
)

// Emotion is the estimator's verdict: a state, an intensity on a 5..8 scale,
// and a short rationale for logging.
type Emotion struct {
	State     EmotionState
	Intensity int
	Rationale string
}

// Keyword families, ordered from core vocabulary to fringe. Sensitivity
// decides how deep into each family the estimator looks.
var emotionFamilies = map[EmotionState][][]string{
	EmotionHappy: {
		{"happy", "great", "love", "awesome", "amazing", "excited", "yay"},
		{"glad", "wonderful", "fantastic", "fun", "enjoy", "nice", "cool", "haha", "lol"},
		{"good", "better", "thanks", "sweet", "perfect", "finally"},
	},
	EmotionSad: {
		{"sad", "depressed", "crying", "miserable", "heartbroken", "lonely"},
		{"down", "unhappy", "miss", "hurt", "lost", "grief", "tears"},
		{"tired", "exhausted", "meh", "sigh", "rough day"},
	},
	EmotionFrustrated: {
		{"angry", "furious", "frustrated", "annoyed", "hate", "pissed"},
		{"irritated", "fed up", "sick of", "ugh", "unfair", "ridiculous"},
		{"stressed", "overwhelmed", "can't stand", "done with", "why does"},
	},
}

// EstimateEmotion classifies text into one of four states. sensitivity in
// [0,1] widens the keyword families and raises the baseline intensity:
// a low dial only reacts to the core vocabulary at intensity 5, a high dial
// scans the fringe words and starts at 8.
func EstimateEmotion(text string, sensitivity float64) Emotion {
	if sensitivity < 0 {
		sensitivity = 0
	}
	if sensitivity > 1 {
		sensitivity = 1
	}

	lower := strings.ToLower(text)

	// tiers: 1 at sensitivity 0, 2 in the middle band, 3 near the top.
	tiers := 1
	if sensitivity >= 0.34 {
		tiers = 2
	}
	if sensitivity >= 0.67 {
		tiers = 3
	}

	baseline := 5 + int(sensitivity*3) // 5..8

	bestState := EmotionNeutral
	bestHits := 0
	bestWord := ""

	for _, state := range []EmotionState{EmotionHappy, EmotionSad, EmotionFrustrated} {
		hits := 0
		first := ""
		for t := 0; t < tiers; t++ {
			for _, w := range emotionFamilies[state][t] {
				if strings.Contains(lower, w) {
					hits++
					if first == "" {
						first = w
					}
				}
			}
		}
		if hits > bestHits {
			bestHits = hits
			bestState = state
			bestWord = first
		}
	}

	if bestState == EmotionNeutral {
		return Emotion{
			State:     EmotionNeutral,
			Intensity: baseline,
			Rationale: "no emotion keywords matched",
		}
	}

	intensity := baseline
	if bestHits > 1 && intensity < 8 {
		intensity++
	}
	if intensity > 8 {
		intensity = 8
	}

	return Emotion{
		State:     bestState,
		Intensity: intensity,
		Rationale: fmt.Sprintf("matched %q (+%d more)", bestWord, bestHits-1),
	}
}
