package core

import "time"

const (
	KindredName    = "Kindred"
	KindredVersion = "0.1.0"

	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// MemoryType is the closed set of durable fact categories a companion keeps.
type MemoryType string

const (
	MemoryPreference MemoryType = "preference"
	MemoryExperience MemoryType = "experience"
	MemoryEmotional  MemoryType = "emotional_moment"
	MemoryRevelation MemoryType = "personal_revelation"
	MemoryGoal       MemoryType = "goal"
	MemoryRelation   MemoryType = "relationship"
	MemoryFact       MemoryType = "fact"
)

// ValidMemoryType reports whether t is one of the known memory types.
func ValidMemoryType(t MemoryType) bool {
	switch t {
	case MemoryPreference, MemoryExperience, MemoryEmotional,
		MemoryRevelation, MemoryGoal, MemoryRelation, MemoryFact:
		return true
	}
	return false
}

// Memory is a durable, scored fact about a user, scoped to a
// (companion, user) pair. Deletion is always soft via IsActive.
type Memory struct {
	ID               int64      `json:"id"`
	CompanionID      string     `json:"companion_id"`
	UserID           string     `json:"user_id"`
	Type             MemoryType `json:"type"`
	Content          string     `json:"content"`
	ImportanceScore  int        `json:"importance_score"` // 1..10
	EmotionalContext string     `json:"emotional_context,omitempty"`
	Embedding        []float32  `json:"-"`
	IsActive         bool       `json:"is_active"`
	CreatedAt        time.Time  `json:"created_at"`
	LastAccessedAt   time.Time  `json:"last_accessed_at"`
}

// CandidateMemory is an extraction result that has not been persisted yet.
type CandidateMemory struct {
	Type             MemoryType `json:"type"`
	Content          string     `json:"content"`
	Importance       int        `json:"importance"`
	EmotionalContext string     `json:"emotional_context,omitempty"`
}

// MemoryStats summarizes a companion's memory of one user.
type MemoryStats struct {
	TotalByType   map[MemoryType]int `json:"total_by_type"`
	AvgImportance float64            `json:"avg_importance"`
	LastCreated   *time.Time         `json:"last_created,omitempty"`
}

// Topic is a running label for what a conversation segment is about.
// At most one row exists per (conversation, name); repeated mention bumps
// MentionCount instead of inserting a duplicate.
type Topic struct {
	ID              int64     `json:"id"`
	ConversationID  string    `json:"conversation_id"`
	Name            string    `json:"name"`
	Category        string    `json:"category"`
	Sentiment       string    `json:"sentiment,omitempty"`
	MentionCount    int       `json:"mention_count"`
	LastMentionedAt time.Time `json:"last_mentioned_at"`
	ContextSummary  string    `json:"context_summary,omitempty"`
}

// CommunicationStyle is a slowly-adapting profile of how a user writes to a
// companion. Updates are smoothed; LearningConfidence never exceeds 0.95.
type CommunicationStyle struct {
	UserID              string    `json:"user_id"`
	CompanionID         string    `json:"companion_id"`
	FormalityLevel      float64   `json:"formality_level"`
	HumorPreference     float64   `json:"humor_preference"`
	ResponseLengthPref  float64   `json:"response_length_pref"`
	QuestionFrequency   float64   `json:"question_frequency"`
	EmojiUsage          float64   `json:"emoji_usage"`
	PunctuationStyle    float64   `json:"punctuation_style"`
	EmotionalExpression float64   `json:"emotional_expression"`
	AvgResponseTimeSec  float64   `json:"avg_response_time_sec"`
	SampleCount         int       `json:"sample_count"`
	LearningConfidence  float64   `json:"learning_confidence"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// CulturalContext holds per-user locale defaults, upserted idempotently.
type CulturalContext struct {
	UserID        string    `json:"user_id"`
	Country       string    `json:"country,omitempty"`
	Language      string    `json:"language,omitempty"`
	Timezone      string    `json:"timezone,omitempty"`
	CulturalNorms string    `json:"cultural_norms,omitempty"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Companion is the identity snapshot the prompt assembler speaks as.
type Companion struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Age         int    `json:"age,omitempty"`
	Personality string `json:"personality,omitempty"`
	Traits      string `json:"traits,omitempty"`
	Backstory   string `json:"backstory,omitempty"`
}

// UserProfile carries the user's display name and declared interests.
type UserProfile struct {
	UserID      string   `json:"user_id"`
	DisplayName string   `json:"display_name,omitempty"`
	Interests   []string `json:"interests,omitempty"`
}

// Message is one turn of dialogue.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
