// Package language describes available caption tracks and caches track
// listings per video.
//
// Descriptor values are what the API serves from the languages endpoint. The
// Directory is a small mutex-guarded TTL cache keyed by video id; entries are
// last-writer-wins and concurrent fetches for the same id may race, which is
// acceptable because the upstream listing call is idempotent.
package language
