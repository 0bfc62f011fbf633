package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/sandevgo/kindred/internal/core"
)

type MemoryRepo struct {
	db *sql.DB
}

func NewMemoryRepo(db *sql.DB) *MemoryRepo {
	return &MemoryRepo{db: db}
}

func (r *MemoryRepo) Save(ctx context.Context, m core.Memory) (int64, error) {
	vecBlob, err := serializeVector(m.Embedding)
	if err != nil {
		return 0, err
	}

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO memories (companion_id, user_id, memory_type, content, importance_score, emotional_context, embedding)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		m.CompanionID, m.UserID, string(m.Type), m.Content, m.ImportanceScore, m.EmotionalContext, vecBlob,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert memory: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (r *MemoryRepo) ListActive(ctx context.Context, companionID, userID string, limit int) ([]core.Memory, error) {
	query := `
		SELECT id, companion_id, user_id, memory_type, content, importance_score,
		       emotional_context, embedding, is_active, created_at, last_accessed
		FROM memories
		WHERE companion_id = ? AND user_id = ? AND is_active = 1
		ORDER BY importance_score DESC, created_at DESC`
	args := []any{companionID, userID}

	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query memories: %w", err)
	}
	defer rows.Close()

	var memories []core.Memory
	for rows.Next() {
		m, err := scanMemory(rows)
		if err != nil {
			return nil, err
		}
		memories = append(memories, m)
	}
	return memories, rows.Err()
}

func scanMemory(rows *sql.Rows) (core.Memory, error) {
	var m core.Memory
	var memType string
	var emotional sql.NullString
	var blob []byte
	if err := rows.Scan(&m.ID, &m.CompanionID, &m.UserID, &memType, &m.Content,
		&m.ImportanceScore, &emotional, &blob, &m.IsActive, &m.CreatedAt, &m.LastAccessedAt); err != nil {
		return core.Memory{}, fmt.Errorf("failed to scan memory: %w", err)
	}
	m.Type = core.MemoryType(memType)
	m.EmotionalContext = emotional.String

	vec, err := deserializeVector(blob)
	if err != nil {
		return core.Memory{}, err
	}
	m.Embedding = vec
	return m, nil
}

func (r *MemoryRepo) TouchAccessed(ctx context.Context, ids []int64, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, 0, len(ids)+1)
	args = append(args, at.UTC())
	for _, id := range ids {
		args = append(args, id)
	}

	_, err := r.db.ExecContext(ctx,
		fmt.Sprintf("UPDATE memories SET last_accessed = ? WHERE id IN (%s)", placeholders),
		args...,
	)
	return err
}

func (r *MemoryRepo) Deactivate(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `UPDATE memories SET is_active = 0 WHERE id = ?`, id)
	return err
}

func (r *MemoryRepo) ActivePairs(ctx context.Context) ([]core.MemoryPair, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT DISTINCT companion_id, user_id FROM memories WHERE is_active = 1`)
	if err != nil {
		return nil, fmt.Errorf("failed to query memory pairs: %w", err)
	}
	defer rows.Close()

	var pairs []core.MemoryPair
	for rows.Next() {
		var p core.MemoryPair
		if err := rows.Scan(&p.CompanionID, &p.UserID); err != nil {
			return nil, err
		}
		pairs = append(pairs, p)
	}
	return pairs, rows.Err()
}

func (r *MemoryRepo) Stats(ctx context.Context, companionID, userID string) (core.MemoryStats, error) {
	stats := core.MemoryStats{TotalByType: make(map[core.MemoryType]int)}

	rows, err := r.db.QueryContext(ctx,
		`SELECT memory_type, COUNT(*) FROM memories
		 WHERE companion_id = ? AND user_id = ? AND is_active = 1
		 GROUP BY memory_type`,
		companionID, userID,
	)
	if err != nil {
		return stats, fmt.Errorf("failed to query memory type counts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var memType string
		var count int
		if err := rows.Scan(&memType, &count); err != nil {
			return stats, err
		}
		stats.TotalByType[core.MemoryType(memType)] = count
	}
	if err := rows.Err(); err != nil {
		return stats, err
	}

	var avg sql.NullFloat64
	var last sql.NullTime
	err = r.db.QueryRowContext(ctx,
		`SELECT AVG(importance_score), MAX(created_at) FROM memories
		 WHERE companion_id = ? AND user_id = ? AND is_active = 1`,
		companionID, userID,
	).Scan(&avg, &last)
	if err != nil {
		return stats, fmt.Errorf("failed to query memory aggregates: %w", err)
	}

	stats.AvgImportance = avg.Float64
	if last.Valid {
		t := last.Time
		stats.LastCreated = &t
	}
	return stats, nil
}
