package memory

import (
	"context"
	"errors"
	"math"
	"sort"
	"sync/atomic"

	"github.com/sandevgo/kindred/internal/core"
	"github.com/sandevgo/kindred/internal/providers/embed"
)

// SemanticIndex is the optional vector-similarity capability over memory
// content. An authentication failure from the embedding backend latches the
// index off for the remainder of the process so the store stops paying for
// doomed calls and retrieval silently stays on the relational path.
type SemanticIndex struct {
	embedder core.Embedder
	disabled atomic.Bool
}

// NewSemanticIndex wraps an embedder; a nil embedder yields a permanently
// unavailable index.
func NewSemanticIndex(embedder core.Embedder) *SemanticIndex {
	s := &SemanticIndex{embedder: embedder}
	if embedder == nil {
		s.disabled.Store(true)
	}
	return s
}

func (s *SemanticIndex) Available() bool {
	return !s.disabled.Load()
}

// Vector embeds text, tripping the disable latch on auth failure.
func (s *SemanticIndex) Vector(ctx context.Context, text string) ([]float32, error) {
	if !s.Available() {
		return nil, embed.ErrAuth
	}

	vec, err := s.embedder.Embed(ctx, text)
	if err != nil {
		if errors.Is(err, embed.ErrAuth) {
			s.disabled.Store(true)
		}
		return nil, err
	}
	return vec, nil
}

// Rank orders memories by descending cosine similarity to the query vector
// and returns the top limit. There is deliberately no similarity floor:
// the closest matches come back even when weak, and prompt assembly
// truncates further downstream. Memories without a stored vector are
// skipped.
func (s *SemanticIndex) Rank(query []float32, memories []core.Memory, limit int) []core.Memory {
	type scored struct {
		mem core.Memory
		sim float64
	}

	ranked := make([]scored, 0, len(memories))
	for _, m := range memories {
		if len(m.Embedding) == 0 {
			continue
		}
		ranked = append(ranked, scored{mem: m, sim: CosineSimilarity(query, m.Embedding)})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].sim > ranked[j].sim
	})

	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}

	out := make([]core.Memory, len(ranked))
	for i, r := range ranked {
		out[i] = r.mem
	}
	return out
}

// CosineSimilarity is dot(a,b) / (|a|*|b|), 0 when either vector has zero
// norm or the dimensions disagree.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
