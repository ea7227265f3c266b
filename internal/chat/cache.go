package chat

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"sync"
	"time"

	"github.com/jmahrt/portfolio/internal/domain"
)

// DefaultCacheTTL is how long a cached answer is served.
const DefaultCacheTTL = 5 * time.Minute

// CacheEntry is a cached response and when it was stored.
type CacheEntry struct {
	Response  string
	Timestamp time.Time
}

// ResponseCache maps the latest user question to a recent answer.
//
// The key ignores every other message, so two conversations ending in the same
// question share an answer. Stale entries are ignored, never purged.
type ResponseCache struct {
	mu      sync.RWMutex
	entries map[string]CacheEntry
	ttl     time.Duration
	clock   Clock
}

// NewResponseCache creates a cache. A nil clock uses the wall clock.
func NewResponseCache(ttl time.Duration, clock Clock) *ResponseCache {
	if clock == nil {
		clock = SystemClock{}
	}
	return &ResponseCache{
		entries: make(map[string]CacheEntry),
		ttl:     ttl,
		clock:   clock,
	}
}

// CacheKey derives the cache key for conv. It is empty when conv has no user message.
func CacheKey(conv []domain.Message) string {
	last, ok := domain.LastUserMessage(conv)
	if !ok {
		return ""
	}
	sum := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(last))))
	return hex.EncodeToString(sum[:])
}

// Lookup returns the cached response for conv if it is younger than the TTL.
func (c *ResponseCache) Lookup(conv []domain.Message) (string, bool) {
	key := CacheKey(conv)
	if key == "" {
		return "", false
	}

	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return "", false
	}
	if c.clock.Now().Sub(entry.Timestamp) >= c.ttl {
		return "", false
	}
	return entry.Response, true
}

// Store overwrites the entry for conv with response.
func (c *ResponseCache) Store(conv []domain.Message, response string) {
	key := CacheKey(conv)
	if key == "" {
		return
	}

	c.mu.Lock()
	c.entries[key] = CacheEntry{Response: response, Timestamp: c.clock.Now()}
	c.mu.Unlock()
}

// Len returns the number of entries, stale ones included.
func (c *ResponseCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
