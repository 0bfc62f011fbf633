package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sandevgo/kindred/internal/core"
)

type CultureRepo struct {
	db *sql.DB
}

func NewCultureRepo(db *sql.DB) *CultureRepo {
	return &CultureRepo{db: db}
}

func (r *CultureRepo) Get(ctx context.Context, userID string) (*core.CulturalContext, error) {
	var c core.CulturalContext
	err := r.db.QueryRowContext(ctx,
		`SELECT user_id, country, language, timezone, cultural_norms, updated_at
		 FROM cultural_context WHERE user_id = ?`,
		userID,
	).Scan(&c.UserID, &c.Country, &c.Language, &c.Timezone, &c.CulturalNorms, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query cultural context: %w", err)
	}
	return &c, nil
}

func (r *CultureRepo) Upsert(ctx context.Context, c core.CulturalContext) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO cultural_context (user_id, country, language, timezone, cultural_norms, updated_at)
		 VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT (user_id) DO UPDATE SET
		   country = excluded.country,
		   language = excluded.language,
		   timezone = excluded.timezone,
		   cultural_norms = excluded.cultural_norms,
		   updated_at = CURRENT_TIMESTAMP`,
		c.UserID, c.Country, c.Language, c.Timezone, c.CulturalNorms,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert cultural context: %w", err)
	}
	return nil
}
