package core

import (
	"context"
	"time"
)

type MemoryRepository interface {
	Save(ctx context.Context, m Memory) (int64, error)
	// ListActive returns active memories for the pair ordered by importance
	// desc, then recency desc, capped at limit. limit <= 0 means no cap.
	ListActive(ctx context.Context, companionID, userID string, limit int) ([]Memory, error)
	// TouchAccessed refreshes last_accessed for the given memory ids.
	TouchAccessed(ctx context.Context, ids []int64, at time.Time) error
	// Deactivate soft-deletes a memory; rows are never physically removed.
	Deactivate(ctx context.Context, id int64) error
	Stats(ctx context.Context, companionID, userID string) (MemoryStats, error)
	// ActivePairs lists every (companionID, userID) pair with at least one
	// active memory, for maintenance sweeps.
	ActivePairs(ctx context.Context) ([]MemoryPair, error)
}

// MemoryPair identifies one companion's memory of one user.
type MemoryPair struct {
	CompanionID string
	UserID      string
}

type TopicRepository interface {
	// Upsert inserts the topic or, when a row for
	// (conversation_id, name) already exists, increments mention_count and
	// refreshes last_mentioned.
	Upsert(ctx context.Context, t Topic) error
	List(ctx context.Context, conversationID string, limit int) ([]Topic, error)
}

type StyleRepository interface {
	Get(ctx context.Context, userID, companionID string) (*CommunicationStyle, error)
	Upsert(ctx context.Context, s CommunicationStyle) error
}

type CultureRepository interface {
	Get(ctx context.Context, userID string) (*CulturalContext, error)
	Upsert(ctx context.Context, c CulturalContext) error
}

type CompanionRepository interface {
	Get(ctx context.Context, companionID string) (*Companion, error)
}

type ProfileRepository interface {
	Get(ctx context.Context, userID string) (*UserProfile, error)
}
