package sqlite

import (
	"context"
	"testing"

	"github.com/sandevgo/kindred/internal/core"
)

func TestTopicRepo_UpsertIsIdempotent(t *testing.T) {
	repo := NewTopicRepo(newTestDB(t))
	ctx := context.Background()

	topic := core.Topic{
		ConversationID: "conv1",
		Name:           "work",
		Category:       "work",
		Sentiment:      "frustrated",
	}

	for i := 0; i < 3; i++ {
		if err := repo.Upsert(ctx, topic); err != nil {
			t.Fatal(err)
		}
	}

	got, err := repo.List(ctx, "conv1", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Fatalf("rows = %d, want exactly one per (conversation, topic)", len(got))
	}
	if got[0].MentionCount != 3 {
		t.Errorf("mention count = %d, want 3", got[0].MentionCount)
	}
}

func TestTopicRepo_ListScopedToConversation(t *testing.T) {
	repo := NewTopicRepo(newTestDB(t))
	ctx := context.Background()

	for _, tp := range []core.Topic{
		{ConversationID: "conv1", Name: "food", Category: "food"},
		{ConversationID: "conv1", Name: "travel", Category: "travel"},
		{ConversationID: "conv2", Name: "work", Category: "work"},
	} {
		if err := repo.Upsert(ctx, tp); err != nil {
			t.Fatal(err)
		}
	}

	got, err := repo.List(ctx, "conv1", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Errorf("len = %d, want 2", len(got))
	}
	for _, tp := range got {
		if tp.ConversationID != "conv1" {
			t.Errorf("leaked topic from %q", tp.ConversationID)
		}
	}
}

func TestStyleRepo_GetMissingReturnsNil(t *testing.T) {
	db := newTestDB(t)
	repo := NewStyleRepo(db)
	ctx := context.Background()

	got, err := repo.Get(ctx, "u1", "c1")
	if err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Errorf("expected nil for a missing style, got %+v", got)
	}

	style := core.CommunicationStyle{
		UserID: "u1", CompanionID: "c1",
		FormalityLevel: 0.2, EmojiUsage: 0.8, SampleCount: 4, LearningConfidence: 0.1,
	}
	if err := repo.Upsert(ctx, style); err != nil {
		t.Fatal(err)
	}

	got, err = repo.Get(ctx, "u1", "c1")
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || got.EmojiUsage != 0.8 || got.SampleCount != 4 {
		t.Errorf("style did not round-trip: %+v", got)
	}
}

func TestCultureRepo_UpsertIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	repo := NewCultureRepo(db)
	ctx := context.Background()

	got, err := repo.Get(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Errorf("expected nil for a missing context, got %+v", got)
	}

	first := core.CulturalContext{UserID: "u1", Language: "pl"}
	if err := repo.Upsert(ctx, first); err != nil {
		t.Fatal(err)
	}

	// A repeat upsert updates the row in place, never adds one.
	second := core.CulturalContext{UserID: "u1", Country: "PL", Language: "pl", Timezone: "Europe/Warsaw"}
	if err := repo.Upsert(ctx, second); err != nil {
		t.Fatal(err)
	}

	var rows int
	if err := db.QueryRow(`SELECT COUNT(*) FROM cultural_context WHERE user_id = 'u1'`).Scan(&rows); err != nil {
		t.Fatal(err)
	}
	if rows != 1 {
		t.Fatalf("rows = %d, want exactly one per user", rows)
	}

	got, err = repo.Get(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || got.Country != "PL" || got.Timezone != "Europe/Warsaw" {
		t.Errorf("context did not round-trip the update: %+v", got)
	}
}

func TestCompanionRepo_SeedIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	repo := NewCompanionRepo(db)
	ctx := context.Background()

	c := core.Companion{ID: "comp1", Name: "Luna", Personality: "warm"}
	if err := repo.Seed(ctx, c); err != nil {
		t.Fatal(err)
	}

	// A second seed must not overwrite user edits.
	c.Name = "Overwritten"
	if err := repo.Seed(ctx, c); err != nil {
		t.Fatal(err)
	}

	got, err := repo.Get(ctx, "comp1")
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || got.Name != "Luna" {
		t.Errorf("got %+v, want the original seed", got)
	}
}
