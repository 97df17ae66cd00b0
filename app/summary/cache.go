package summary

import (
	"crypto/md5"
	"encoding/hex"
	"sync"
	"time"
)

const DefaultCacheTTL = 24 * time.Hour

type cacheItem struct {
	summary   string
	createdAt time.Time
}

// Cache holds generated summaries keyed by content and strategy. Expired
// entries are dropped when they are read.
type Cache struct {
	mu    sync.Mutex
	items map[string]cacheItem
	ttl   time.Duration
	now   func() time.Time
}

func NewCache(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Cache{
		items: make(map[string]cacheItem),
		ttl:   ttl,
		now:   time.Now,
	}
}

func (c *Cache) Get(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	item, exists := c.items[key]
	if !exists {
		return "", false
	}

	if c.now().Sub(item.createdAt) >= c.ttl {
		delete(c.items, key)
		return "", false
	}

	return item.summary, true
}

func (c *Cache) Set(key, summary string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items[key] = cacheItem{
		summary:   summary,
		createdAt: c.now(),
	}
}

func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// CacheKey hashes the summarized text together with the strategy name.
func CacheKey(text string, strategy Strategy) string {
	sum := md5.Sum([]byte(text + "_" + string(strategy)))
	return hex.EncodeToString(sum[:])
}
