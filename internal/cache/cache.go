// Package cache provides the short-TTL byte caches used by the chokepoint
// pipeline. Implementations are interchangeable: the pipeline only depends
// on Get/SetWithTTL semantics.
package cache

import "time"

// Cache is a TTL'd byte store. Get returns ok=false for missing or expired
// entries. Implementations must be safe for concurrent use; last-write-wins
// per key is acceptable.
type Cache interface {
	Get(key string) ([]byte, bool)
	SetWithTTL(key string, value []byte, ttl time.Duration)
	Close() error
}
