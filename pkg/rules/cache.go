package rules

import lru "github.com/hashicorp/golang-lru/v2"

// ProgramCache stores compiled expression programs keyed by expression strings.
type ProgramCache interface {
	Get(key string) (any, bool)
	Set(key string, value any)
}

// DefaultCacheSize bounds NewLRUCache when size is not positive.
const DefaultCacheSize = 256

type lruCache struct {
	cache *lru.Cache[string, any]
}

// NewLRUCache returns a ProgramCache that keeps the size most recently used
// programs.
func NewLRUCache(size int) ProgramCache {
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, _ := lru.New[string, any](size)
	return &lruCache{cache: cache}
}

func (c *lruCache) Get(key string) (any, bool) {
	return c.cache.Get(key)
}

func (c *lruCache) Set(key string, value any) {
	c.cache.Add(key, value)
}
