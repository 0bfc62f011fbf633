package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/sandevgo/kindred/internal/core"
)

type CompanionRepo struct {
	db *sql.DB
}

func NewCompanionRepo(db *sql.DB) *CompanionRepo {
	return &CompanionRepo{db: db}
}

func (r *CompanionRepo) Get(ctx context.Context, companionID string) (*core.Companion, error) {
	var c core.Companion
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, age, personality, traits, backstory FROM companions WHERE id = ?`,
		companionID,
	).Scan(&c.ID, &c.Name, &c.Age, &c.Personality, &c.Traits, &c.Backstory)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query companion: %w", err)
	}
	return &c, nil
}

// Seed inserts a companion if missing, so a fresh install can talk
// immediately.
func (r *CompanionRepo) Seed(ctx context.Context, c core.Companion) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO companions (id, name, age, personality, traits, backstory)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		c.ID, c.Name, c.Age, c.Personality, c.Traits, c.Backstory,
	)
	return err
}

type ProfileRepo struct {
	db *sql.DB
}

func NewProfileRepo(db *sql.DB) *ProfileRepo {
	return &ProfileRepo{db: db}
}

func (r *ProfileRepo) Get(ctx context.Context, userID string) (*core.UserProfile, error) {
	var p core.UserProfile
	var interests sql.NullString
	err := r.db.QueryRowContext(ctx,
		`SELECT user_id, display_name, interests FROM user_profiles WHERE user_id = ?`,
		userID,
	).Scan(&p.UserID, &p.DisplayName, &interests)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user profile: %w", err)
	}

	if interests.Valid && interests.String != "" {
		for _, it := range strings.Split(interests.String, ",") {
			if it = strings.TrimSpace(it); it != "" {
				p.Interests = append(p.Interests, it)
			}
		}
	}
	return &p, nil
}
