package core

import "time"

// Cache defines credential caching operations. Credentials are read-only to
// this core and hot on the exchange path, so a small TTL cache in front of
// CredentialStorage avoids a storage round trip per request.
type Cache interface {
	Get(apiKey string) (*Credential, error)
	Set(apiKey string, cred *Credential) error
	Delete(apiKey string) error
	Clear() error
}

// CacheWithStats extends Cache with statistics tracking.
type CacheWithStats interface {
	Cache
	Stats() CacheStats
}

// CacheConfig configures cache behavior.
type CacheConfig struct {
	TTL     time.Duration
	MaxSize int
}

// CacheStats are simple counters for cache behavior, intended for
// diagnostics and monitoring.
type CacheStats struct {
	Hits      int64         `json:"hits"`
	Misses    int64         `json:"misses"`
	Sets      int64         `json:"sets"`
	Deletes   int64         `json:"deletes"`
	Evictions int64         `json:"evictions"`
	Size      int           `json:"size"`
	TTL       time.Duration `json:"ttl"`
}
