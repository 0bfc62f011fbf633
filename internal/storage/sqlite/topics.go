package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sandevgo/kindred/internal/core"
)

type TopicRepo struct {
	db *sql.DB
}

func NewTopicRepo(db *sql.DB) *TopicRepo {
	return &TopicRepo{db: db}
}

// Upsert keeps one row per (conversation, topic): a repeat mention bumps the
// counter and timestamp instead of inserting a duplicate.
func (r *TopicRepo) Upsert(ctx context.Context, t core.Topic) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO topics (conversation_id, topic_name, topic_category, sentiment, mention_count, last_mentioned, context_summary)
		 VALUES (?, ?, ?, ?, 1, CURRENT_TIMESTAMP, ?)
		 ON CONFLICT (conversation_id, topic_name) DO UPDATE SET
		   mention_count = mention_count + 1,
		   last_mentioned = CURRENT_TIMESTAMP,
		   sentiment = excluded.sentiment,
		   context_summary = CASE WHEN excluded.context_summary != '' THEN excluded.context_summary ELSE context_summary END`,
		t.ConversationID, t.Name, t.Category, t.Sentiment, t.ContextSummary,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert topic: %w", err)
	}
	return nil
}

func (r *TopicRepo) List(ctx context.Context, conversationID string, limit int) ([]core.Topic, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, conversation_id, topic_name, topic_category, sentiment, mention_count, last_mentioned, context_summary
		 FROM topics
		 WHERE conversation_id = ?
		 ORDER BY last_mentioned DESC
		 LIMIT ?`,
		conversationID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query topics: %w", err)
	}
	defer rows.Close()

	var topics []core.Topic
	for rows.Next() {
		var t core.Topic
		var sentiment, summary sql.NullString
		if err := rows.Scan(&t.ID, &t.ConversationID, &t.Name, &t.Category,
			&sentiment, &t.MentionCount, &t.LastMentionedAt, &summary); err != nil {
			return nil, fmt.Errorf("failed to scan topic: %w", err)
		}
		t.Sentiment = sentiment.String
		t.ContextSummary = summary.String
		topics = append(topics, t)
	}
	return topics, rows.Err()
}
