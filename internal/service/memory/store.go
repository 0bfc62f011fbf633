package memory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sandevgo/kindred/internal/core"
	"github.com/sandevgo/kindred/pkg/log"
)

// Store owns the lifecycle of a companion's memories: persistence with an
// importance gate, semantic-or-relational retrieval, periodic
// consolidation, and stats.
type Store struct {
	repo      core.MemoryRepository
	index     *SemanticIndex
	threshold int
}

func NewStore(repo core.MemoryRepository, index *SemanticIndex, threshold int) *Store {
	return &Store{
		repo:      repo,
		index:     index,
		threshold: threshold,
	}
}

// Remember persists a candidate when its importance clears the threshold.
// The vector is computed best-effort: an embedding failure is logged and
// the durable write proceeds without it.
func (s *Store) Remember(ctx context.Context, companionID, userID string, c core.CandidateMemory) (bool, error) {
	if c.Importance < s.threshold {
		return false, nil
	}

	m := core.Memory{
		CompanionID:      companionID,
		UserID:           userID,
		Type:             c.Type,
		Content:          c.Content,
		ImportanceScore:  c.Importance,
		EmotionalContext: c.EmotionalContext,
	}

	if s.index.Available() {
		vec, err := s.index.Vector(ctx, c.Content)
		if err != nil {
			log.FromCtx(ctx).Warn().Err(err).Msg("failed to index memory, storing without vector")
		} else {
			m.Embedding = vec
		}
	}

	if _, err := s.repo.Save(ctx, m); err != nil {
		return false, fmt.Errorf("save memory: %w", err)
	}
	return true, nil
}

// GetRelevant returns up to limit memories for the pair. With a query and a
// live semantic index it ranks by cosine similarity; any embedding failure
// falls back to the relational ordering (importance desc, recency desc).
// Either way every returned memory gets its last-accessed stamp refreshed.
func (s *Store) GetRelevant(ctx context.Context, companionID, userID string, limit int, query string) ([]core.Memory, error) {
	logger := log.FromCtx(ctx)

	var result []core.Memory

	if query != "" && s.index.Available() {
		queryVec, err := s.index.Vector(ctx, query)
		if err != nil {
			logger.Warn().Err(err).Msg("semantic search unavailable, using relational fallback")
		} else {
			all, err := s.repo.ListActive(ctx, companionID, userID, 0)
			if err != nil {
				return nil, fmt.Errorf("list memories: %w", err)
			}
			result = s.index.Rank(queryVec, all, limit)
		}
	}

	if result == nil {
		var err error
		result, err = s.repo.ListActive(ctx, companionID, userID, limit)
		if err != nil {
			return nil, fmt.Errorf("list memories: %w", err)
		}
	}

	if len(result) > 0 {
		ids := make([]int64, len(result))
		for i, m := range result {
			ids[i] = m.ID
		}
		if err := s.repo.TouchAccessed(ctx, ids, time.Now()); err != nil {
			logger.Warn().Err(err).Msg("failed to refresh memory access times")
		}
	}

	return result, nil
}

// consolidationSimilarity is the Jaccard threshold above which two
// same-type memories count as duplicates.
const consolidationSimilarity = 0.8

// Consolidate deactivates the weaker member of every near-duplicate
// same-type pair, returning how many memories were retired. Exactly one
// member of each pair survives, and the survivor's importance is never
// below the retired one's.
func (s *Store) Consolidate(ctx context.Context, companionID, userID string) (int, error) {
	memories, err := s.repo.ListActive(ctx, companionID, userID, 0)
	if err != nil {
		return 0, fmt.Errorf("list memories: %w", err)
	}

	retired := make(map[int64]bool)
	deactivated := 0

	for i := 0; i < len(memories); i++ {
		if retired[memories[i].ID] {
			continue
		}
		for j := i + 1; j < len(memories); j++ {
			if retired[memories[j].ID] || memories[i].Type != memories[j].Type {
				continue
			}

			if jaccardSimilarity(memories[i].Content, memories[j].Content) <= consolidationSimilarity {
				continue
			}

			loser := pickLoser(memories[i], memories[j])
			if err := s.repo.Deactivate(ctx, loser.ID); err != nil {
				return deactivated, fmt.Errorf("deactivate memory %d: %w", loser.ID, err)
			}
			retired[loser.ID] = true
			deactivated++

			if loser.ID == memories[i].ID {
				break // the outer memory is gone; move on
			}
		}
	}

	return deactivated, nil
}

// pickLoser chooses which of a duplicate pair to retire: the lower
// importance, or on a tie the later-created one.
func pickLoser(a, b core.Memory) core.Memory {
	if a.ImportanceScore != b.ImportanceScore {
		if a.ImportanceScore < b.ImportanceScore {
			return a
		}
		return b
	}
	if a.CreatedAt.After(b.CreatedAt) {
		return a
	}
	return b
}

// jaccardSimilarity is token-set overlap of the lowercased contents.
func jaccardSimilarity(a, b string) float64 {
	setA := tokenSet(a)
	setB := tokenSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}

	intersection := 0
	for tok := range setA {
		if setB[tok] {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	return float64(intersection) / float64(union)
}

func tokenSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, tok := range strings.Fields(strings.ToLower(s)) {
		tok = strings.Trim(tok, ".,!?;:\"'()")
		if tok != "" {
			set[tok] = true
		}
	}
	return set
}

// Stats reports per-type counts, average importance, and the newest
// memory's creation time.
func (s *Store) Stats(ctx context.Context, companionID, userID string) (core.MemoryStats, error) {
	return s.repo.Stats(ctx, companionID, userID)
}
