package engine

import (
	"fmt"
	"testing"
	"time"

	"github.com/sandevgo/kindred/internal/core"
)

func TestSessionKey(t *testing.T) {
	if got := SessionKey("c1", "u1", "conv9"); got != "c1:u1:conv9" {
		t.Errorf("key = %q", got)
	}
}

func TestLRU_EvictsOldestAtMaxSize(t *testing.T) {
	c := newLRU[string](3, time.Hour)

	c.put("a", "1")
	c.put("b", "2")
	c.put("c", "3")
	c.put("d", "4") // evicts a

	if _, ok := c.get("a"); ok {
		t.Error("oldest entry should have been evicted")
	}
	for _, k := range []string{"b", "c", "d"} {
		if _, ok := c.get(k); !ok {
			t.Errorf("entry %q should survive", k)
		}
	}
	if c.len() != 3 {
		t.Errorf("len = %d, want 3", c.len())
	}
}

func TestLRU_GetRefreshesRecency(t *testing.T) {
	c := newLRU[string](2, time.Hour)

	c.put("a", "1")
	c.put("b", "2")
	c.get("a")      // a is now the most recent
	c.put("c", "3") // evicts b, not a

	if _, ok := c.get("a"); !ok {
		t.Error("recently read entry should survive eviction")
	}
	if _, ok := c.get("b"); ok {
		t.Error("least recently used entry should be gone")
	}
}

func TestLRU_TTLExpiry(t *testing.T) {
	c := newLRU[string](10, time.Minute)
	current := time.Now()
	c.now = func() time.Time { return current }

	c.put("a", "1")
	if _, ok := c.get("a"); !ok {
		t.Fatal("fresh entry should be readable")
	}

	current = current.Add(2 * time.Minute)
	if _, ok := c.get("a"); ok {
		t.Error("expired entry should not be returned")
	}
	if c.len() != 0 {
		t.Errorf("expired entry should be dropped on read, len = %d", c.len())
	}
}

func TestLRU_PutRefreshesExistingKey(t *testing.T) {
	c := newLRU[string](2, time.Hour)

	c.put("a", "1")
	c.put("a", "updated")

	got, ok := c.get("a")
	if !ok || got != "updated" {
		t.Errorf("got %q, %v", got, ok)
	}
	if c.len() != 1 {
		t.Errorf("len = %d, want 1", c.len())
	}
}

func TestSessionCache_HistoryCapsTurns(t *testing.T) {
	c := NewSessionCache(8, time.Hour)
	key := SessionKey("c1", "u1", "conv1")

	for i := 0; i < 10; i++ {
		c.AppendHistory(key, core.Message{Role: core.RoleUser, Content: fmt.Sprintf("msg %d", i)}, 4)
	}

	got := c.History(key)
	if len(got) != 4 {
		t.Fatalf("len = %d, want 4", len(got))
	}
	if got[0].Content != "msg 6" || got[3].Content != "msg 9" {
		t.Errorf("buffer should keep the newest turns, got %v", got)
	}
}

func TestSessionCache_InvalidateDropsAllMaps(t *testing.T) {
	c := NewSessionCache(8, time.Hour)
	key := SessionKey("c1", "u1", "conv1")

	c.PutBundle(key, &Bundle{CreatedAt: time.Now()})
	c.PutTemplate(key, "tpl")
	c.AppendHistory(key, core.Message{Role: core.RoleUser, Content: "hi"}, 10)

	c.Invalidate(key)

	if _, ok := c.Bundle(key); ok {
		t.Error("bundle should be gone")
	}
	if _, ok := c.Template(key); ok {
		t.Error("template should be gone")
	}
	if got := c.History(key); len(got) != 0 {
		t.Errorf("history should be empty, got %v", got)
	}
}
