package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"
)

const (
	// DefaultTTL is how long a cached response is served.
	DefaultTTL = time.Hour
	// DefaultMaxEntries bounds the in-process cache.
	DefaultMaxEntries = 1000
)

// Key derives the cache key for one request. Identical parameters always
// collapse onto the same entry.
func Key(videoURL, lang, format string) string {
	sum := sha256.Sum256([]byte(videoURL + ":" + lang + ":" + format))
	return hex.EncodeToString(sum[:])
}

// Stats is a point-in-time snapshot of cache effectiveness.
type Stats struct {
	Size    int     `json:"size"`
	Hits    uint64  `json:"hits"`
	Misses  uint64  `json:"misses"`
	HitRate float64 `json:"hit_rate"`
}

type memoryEntry struct {
	data     []byte
	storedAt time.Time
}

// Memory is a bounded TTL cache for rendered responses. When full, the
// oldest entry by store time is evicted first.
type Memory struct {
	mu         sync.Mutex
	ttl        time.Duration
	maxEntries int
	now        func() time.Time
	entries    map[string]memoryEntry
	hits       uint64
	misses     uint64
}

// MemoryOption configures a Memory cache.
type MemoryOption func(*Memory)

// WithMemoryClock overrides the time source, for tests.
func WithMemoryClock(now func() time.Time) MemoryOption {
	return func(m *Memory) {
		if now != nil {
			m.now = now
		}
	}
}

// NewMemory constructs a Memory cache. Non-positive ttl or maxEntries fall
// back to defaults.
func NewMemory(ttl time.Duration, maxEntries int, opts ...MemoryOption) *Memory {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	m := &Memory{
		ttl:        ttl,
		maxEntries: maxEntries,
		now:        time.Now,
		entries:    make(map[string]memoryEntry),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Get returns the cached bytes for a key when present and fresh. Expired
// entries are removed and counted as misses.
func (m *Memory) Get(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[key]
	if !ok {
		m.misses++
		return nil, false
	}
	if m.now().Sub(entry.storedAt) > m.ttl {
		delete(m.entries, key)
		m.misses++
		return nil, false
	}
	m.hits++
	return entry.data, true
}

// Set stores bytes under a key. At capacity the oldest entry is evicted
// unless the key already exists.
func (m *Memory) Set(key string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.entries[key]; !exists && len(m.entries) >= m.maxEntries {
		m.evictOldestLocked()
	}
	m.entries[key] = memoryEntry{data: data, storedAt: m.now()}
}

func (m *Memory) evictOldestLocked() {
	var oldestKey string
	var oldestAt time.Time
	first := true
	for key, entry := range m.entries {
		if first || entry.storedAt.Before(oldestAt) {
			oldestKey = key
			oldestAt = entry.storedAt
			first = false
		}
	}
	if oldestKey != "" {
		delete(m.entries, oldestKey)
	}
}

// Clear drops every cached entry. Hit and miss counters are preserved.
func (m *Memory) Clear() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	size := len(m.entries)
	m.entries = make(map[string]memoryEntry)
	return size
}

// Snapshot returns current cache statistics.
func (m *Memory) Snapshot() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()

	stats := Stats{
		Size:   len(m.entries),
		Hits:   m.hits,
		Misses: m.misses,
	}
	if total := m.hits + m.misses; total > 0 {
		stats.HitRate = float64(m.hits) / float64(total)
	}
	return stats
}
