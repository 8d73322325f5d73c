package cache

import (
	"time"

	ttlcache "github.com/patrickmn/go-cache"
)

// Memory is an in-process TTL cache. It is the default backend.
type Memory struct {
	c *ttlcache.Cache
}

// NewMemory creates an in-memory cache. Expired entries are swept every
// minute; reads never return expired values regardless of sweep timing.
func NewMemory() *Memory {
	return &Memory{c: ttlcache.New(time.Minute, time.Minute)}
}

func (m *Memory) Get(key string) ([]byte, bool) {
	v, ok := m.c.Get(key)
	if !ok {
		return nil, false
	}
	b, ok := v.([]byte)
	return b, ok
}

func (m *Memory) SetWithTTL(key string, value []byte, ttl time.Duration) {
	m.c.Set(key, value, ttl)
}

func (m *Memory) Close() error {
	m.c.Flush()
	return nil
}
