package language

import (
	"sync"
	"time"
)

// DefaultTTL bounds how long a cached track listing is served before the
// upstream is consulted again.
const DefaultTTL = 300 * time.Second

type cachedListing struct {
	descriptors []Descriptor
	storedAt    time.Time
}

// Directory caches caption track listings per video id with a fixed TTL.
type Directory struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]cachedListing
}

// DirectoryOption configures a Directory.
type DirectoryOption func(*Directory)

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) DirectoryOption {
	return func(d *Directory) {
		if now != nil {
			d.now = now
		}
	}
}

// NewDirectory constructs a Directory with the given TTL. A non-positive TTL
// falls back to DefaultTTL.
func NewDirectory(ttl time.Duration, opts ...DirectoryOption) *Directory {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	d := &Directory{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]cachedListing),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Lookup returns the cached listing for a video id when present and fresh.
// Expired entries are removed on the way out.
func (d *Directory) Lookup(videoID string) ([]Descriptor, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	entry, ok := d.entries[videoID]
	if !ok {
		return nil, false
	}
	if d.now().Sub(entry.storedAt) >= d.ttl {
		delete(d.entries, videoID)
		return nil, false
	}
	return entry.descriptors, true
}

// Store caches a listing for a video id, replacing any previous entry.
func (d *Directory) Store(videoID string, descriptors []Descriptor) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.entries[videoID] = cachedListing{descriptors: descriptors, storedAt: d.now()}
}

// Clear drops the cached listing for one video id.
func (d *Directory) Clear(videoID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.entries, videoID)
}

// ClearAll drops every cached listing.
func (d *Directory) ClearAll() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.entries = make(map[string]cachedListing)
}

// Len reports the number of cached listings.
func (d *Directory) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.entries)
}
