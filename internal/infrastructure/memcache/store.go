package memcache

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/reviewdeck/reviewdeck/internal/core/ports"
)

type entry struct {
	value     any
	storedAt  time.Time
	expiresAt time.Time
	usage     int
}

// Store is an in-process TTL cache. Expired entries are purged lazily on
// read; when the store grows past its capacity the least-used entries are
// evicted first. Usage-count eviction is deliberate: hot keys such as a
// location's first review page are read far more often than deep pages and
// should survive longer than a recency policy would keep them.
type Store struct {
	mu         sync.Mutex
	entries    map[string]*entry
	maxEntries int
	now        func() time.Time
}

// evictTarget is the fill ratio eviction shrinks the store down to.
const evictTarget = 0.8

// New creates a Store that evicts below maxEntries. maxEntries <= 0 disables
// capacity eviction.
func New(maxEntries int) *Store {
	return &Store{
		entries:    make(map[string]*entry),
		maxEntries: maxEntries,
		now:        time.Now,
	}
}

// Get implements ports.TTLCache. A hit bumps the usage counter but never
// refreshes the expiry.
func (s *Store) Get(key string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return nil, false
	}
	if s.now().After(e.expiresAt) {
		delete(s.entries, key)
		return nil, false
	}
	e.usage++
	return e.value, true
}

// Set implements ports.TTLCache. It overwrites any existing entry for key.
func (s *Store) Set(key string, value any, ttl time.Duration) {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[key] = &entry{
		value:     value,
		storedAt:  now,
		expiresAt: now.Add(ttl),
	}
	if s.maxEntries > 0 && len(s.entries) > s.maxEntries {
		s.evict()
	}
}

// evict drops expired entries first, then the least-used live ones, until the
// store is back at 80% of capacity. Caller must hold the lock.
func (s *Store) evict() {
	target := int(float64(s.maxEntries) * evictTarget)
	now := s.now()

	for key, e := range s.entries {
		if now.After(e.expiresAt) {
			delete(s.entries, key)
		}
	}
	if len(s.entries) <= target {
		return
	}

	type candidate struct {
		key   string
		usage int
	}
	candidates := make([]candidate, 0, len(s.entries))
	for key, e := range s.entries {
		candidates = append(candidates, candidate{key: key, usage: e.usage})
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].usage < candidates[j].usage })

	for _, c := range candidates {
		if len(s.entries) <= target {
			break
		}
		delete(s.entries, c.key)
	}
}

// Delete implements ports.TTLCache.
func (s *Store) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
}

// DeletePrefix implements ports.TTLCache.
func (s *Store) DeletePrefix(prefix string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	dropped := 0
	for key := range s.entries {
		if strings.HasPrefix(key, prefix) {
			delete(s.entries, key)
			dropped++
		}
	}
	return dropped
}

// Clear implements ports.TTLCache.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]*entry)
}

// Stats implements ports.TTLCache.
func (s *Store) Stats() ports.CacheStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys := make([]string, 0, len(s.entries))
	for key := range s.entries {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return ports.CacheStats{Size: len(keys), Keys: keys}
}
