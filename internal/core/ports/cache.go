package ports

import "time"

// CacheStats is a snapshot of the cache contents for the admin endpoint.
type CacheStats struct {
	Size int      `json:"size"`
	Keys []string `json:"keys"`
}

// TTLCache is an in-process key/value store with per-entry expiry.
// Keys deterministically encode the operation and every parameter that
// affects the result (e.g. "reviews:<location>:<pageSize>:<pageToken>").
// Implementations must be safe for concurrent use; entries are never
// persisted across restarts.
type TTLCache interface {
	// Get returns the value for key. ok=false if absent or expired.
	// A hit does not extend the entry's expiry.
	Get(key string) (any, bool)
	// Set stores value under key, overwriting any existing entry.
	Set(key string, value any, ttl time.Duration)
	// Delete removes the key; absence is not an error.
	Delete(key string)
	// DeletePrefix removes every entry whose key starts with prefix and
	// returns how many were dropped.
	DeletePrefix(prefix string) int
	// Clear removes all entries.
	Clear()
	Stats() CacheStats
}
