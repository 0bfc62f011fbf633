package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sandevgo/kindred/internal/core"
)

type StyleRepo struct {
	db *sql.DB
}

func NewStyleRepo(db *sql.DB) *StyleRepo {
	return &StyleRepo{db: db}
}

func (r *StyleRepo) Get(ctx context.Context, userID, companionID string) (*core.CommunicationStyle, error) {
	var s core.CommunicationStyle
	err := r.db.QueryRowContext(ctx,
		`SELECT user_id, companion_id, formality_level, humor_preference, response_length_pref,
		        question_frequency, emoji_usage, punctuation_style, emotional_expression,
		        avg_response_time_sec, sample_count, learning_confidence, updated_at
		 FROM communication_styles WHERE user_id = ? AND companion_id = ?`,
		userID, companionID,
	).Scan(&s.UserID, &s.CompanionID, &s.FormalityLevel, &s.HumorPreference, &s.ResponseLengthPref,
		&s.QuestionFrequency, &s.EmojiUsage, &s.PunctuationStyle, &s.EmotionalExpression,
		&s.AvgResponseTimeSec, &s.SampleCount, &s.LearningConfidence, &s.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query style: %w", err)
	}
	return &s, nil
}

func (r *StyleRepo) Upsert(ctx context.Context, s core.CommunicationStyle) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO communication_styles (user_id, companion_id, formality_level, humor_preference,
		   response_length_pref, question_frequency, emoji_usage, punctuation_style,
		   emotional_expression, avg_response_time_sec, sample_count, learning_confidence, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT (user_id, companion_id) DO UPDATE SET
		   formality_level = excluded.formality_level,
		   humor_preference = excluded.humor_preference,
		   response_length_pref = excluded.response_length_pref,
		   question_frequency = excluded.question_frequency,
		   emoji_usage = excluded.emoji_usage,
		   punctuation_style = excluded.punctuation_style,
		   emotional_expression = excluded.emotional_expression,
		   avg_response_time_sec = excluded.avg_response_time_sec,
		   sample_count = excluded.sample_count,
		   learning_confidence = excluded.learning_confidence,
		   updated_at = CURRENT_TIMESTAMP`,
		s.UserID, s.CompanionID, s.FormalityLevel, s.HumorPreference, s.ResponseLengthPref,
		s.QuestionFrequency, s.EmojiUsage, s.PunctuationStyle, s.EmotionalExpression,
		s.AvgResponseTimeSec, s.SampleCount, s.LearningConfidence,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert style: %w", err)
	}
	return nil
}
