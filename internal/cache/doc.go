// Package cache stores rendered caption responses.
//
// Two layers cooperate: a bounded in-process Memory cache for hot entries
// and a SQLite-backed Store that survives restarts. Both expire entries by
// TTL; the Store additionally runs a background sweeper that deletes expired
// rows so the database does not grow unbounded.
package cache
