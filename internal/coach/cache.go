// File: internal/coach/cache.go
package coach

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"
)

// CachedMessage is a generated coaching sentence and when it was produced.
type CachedMessage struct {
	Message     string    `json:"message"`
	GeneratedAt time.Time `json:"generated_at"`
	Cached      bool      `json:"cached"`
}

// MessageCache keeps one coaching message per user and role for a fixed
// validity window. Concurrent misses for the same key share one generation.
type MessageCache struct {
	cache *cache.Cache
	group singleflight.Group
	now   func() time.Time
}

// NewMessageCache creates a cache whose entries live for ttl.
func NewMessageCache(ttl time.Duration) *MessageCache {
	if ttl <= 0 {
		ttl = 4 * time.Hour
	}
	return &MessageCache{
		cache: cache.New(ttl, 2*ttl),
		now:   time.Now,
	}
}

// Key is the cache key for a user and role.
func Key(userID, role string) string {
	return userID + ":" + role
}

// GetOrGenerate returns the cached message for key or calls generate once.
// Failed generations are not cached.
func (c *MessageCache) GetOrGenerate(ctx context.Context, key string, generate func(ctx context.Context) (string, error)) (CachedMessage, error) {
	if v, found := c.cache.Get(key); found {
		msg := v.(CachedMessage)
		msg.Cached = true
		return msg, nil
	}

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		if v, found := c.cache.Get(key); found {
			return v, nil
		}
		text, err := generate(ctx)
		if err != nil {
			return nil, err
		}
		msg := CachedMessage{Message: text, GeneratedAt: c.now().UTC()}
		c.cache.SetDefault(key, msg)
		return msg, nil
	})
	if err != nil {
		return CachedMessage{}, err
	}
	return v.(CachedMessage), nil
}

// Invalidate drops the entry for key.
func (c *MessageCache) Invalidate(key string) {
	c.cache.Delete(key)
}
