package engine

import (
	"container/list"
	"strings"
	"sync"
	"time"

	"github.com/sandevgo/kindred/internal/core"
)

// SessionKey builds the composite cache key for one conversation.
func SessionKey(companionID, userID, conversationID string) string {
	return strings.Join([]string{companionID, userID, conversationID}, ":")
}

// Bundle is the prepared per-conversation pipeline state: the snapshots that
// are expensive to re-fetch on every message. Never persisted.
type Bundle struct {
	Companion *core.Companion
	Profile   *core.UserProfile
	Style     *core.CommunicationStyle
	Culture   *core.CulturalContext
	CreatedAt time.Time
}

// SessionCache holds the three per-conversation maps: prepared bundles,
// prompt templates, and short-lived message buffers. Each map is bounded by
// max size with LRU eviction and by TTL. Constructed explicitly and
// injected; there are no package-level instances.
type SessionCache struct {
	bundles   *lru[*Bundle]
	templates *lru[string]
	buffers   *lru[[]core.Message]
}

func NewSessionCache(maxSize int, ttl time.Duration) *SessionCache {
	return &SessionCache{
		bundles:   newLRU[*Bundle](maxSize, ttl),
		templates: newLRU[string](maxSize, ttl),
		buffers:   newLRU[[]core.Message](maxSize, ttl),
	}
}

func (c *SessionCache) Bundle(key string) (*Bundle, bool) { return c.bundles.get(key) }
func (c *SessionCache) PutBundle(key string, b *Bundle)   { c.bundles.put(key, b) }

func (c *SessionCache) Template(key string) (string, bool) { return c.templates.get(key) }
func (c *SessionCache) PutTemplate(key, tpl string)        { c.templates.put(key, tpl) }

// History returns the buffered dialogue for a conversation, oldest first.
func (c *SessionCache) History(key string) []core.Message {
	msgs, _ := c.buffers.get(key)
	return msgs
}

// AppendHistory adds one turn to a conversation's buffer, keeping at most
// maxTurns of the newest messages.
func (c *SessionCache) AppendHistory(key string, msg core.Message, maxTurns int) {
	msgs, _ := c.buffers.get(key)
	msgs = append(msgs, msg)
	if maxTurns > 0 && len(msgs) > maxTurns {
		msgs = msgs[len(msgs)-maxTurns:]
	}
	c.buffers.put(key, msgs)
}

// Invalidate drops every entry for the conversation across all three maps.
func (c *SessionCache) Invalidate(key string) {
	c.bundles.remove(key)
	c.templates.remove(key)
	c.buffers.remove(key)
}

type lruEntry[V any] struct {
	key       string
	value     V
	expiresAt time.Time
}

// lru is a mutex-guarded map with LRU eviction at maxSize and lazy TTL
// expiry on read.
type lru[V any] struct {
	mu      sync.Mutex
	maxSize int
	ttl     time.Duration
	order   *list.List
	items   map[string]*list.Element

	now func() time.Time // swapped in tests
}

func newLRU[V any](maxSize int, ttl time.Duration) *lru[V] {
	return &lru[V]{
		maxSize: maxSize,
		ttl:     ttl,
		order:   list.New(),
		items:   make(map[string]*list.Element),
		now:     time.Now,
	}
}

func (c *lru[V]) get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	el, ok := c.items[key]
	if !ok {
		return zero, false
	}
	entry := el.Value.(*lruEntry[V])
	if c.now().After(entry.expiresAt) {
		c.order.Remove(el)
		delete(c.items, key)
		return zero, false
	}
	c.order.MoveToFront(el)
	return entry.value, true
}

func (c *lru[V]) put(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	expiresAt := c.now().Add(c.ttl)
	if el, ok := c.items[key]; ok {
		entry := el.Value.(*lruEntry[V])
		entry.value = value
		entry.expiresAt = expiresAt
		c.order.MoveToFront(el)
		return
	}

	c.items[key] = c.order.PushFront(&lruEntry[V]{key: key, value: value, expiresAt: expiresAt})

	for c.maxSize > 0 && c.order.Len() > c.maxSize {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.items, oldest.Value.(*lruEntry[V]).key)
	}
}

func (c *lru[V]) remove(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		c.order.Remove(el)
		delete(c.items, key)
	}
}

func (c *lru[V]) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}
