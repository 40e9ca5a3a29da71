package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Entry is one persisted cache row.
type Entry struct {
	VideoURL  string
	VideoID   string
	Language  string
	Format    string
	Payload   []byte
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Store persists rendered responses in SQLite so caches survive restarts.
type Store struct {
	db     *sql.DB
	path   string
	ttl    time.Duration
	now    func() time.Time
	logger *slog.Logger
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithStoreClock overrides the time source, for tests.
func WithStoreClock(now func() time.Time) StoreOption {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// OpenStore initializes or connects to the cache database at path and
// applies the schema. Non-positive ttl falls back to DefaultTTL.
func OpenStore(path string, ttl time.Duration, logger *slog.Logger, opts ...StoreOption) (*Store, error) {
	if path == "" {
		return nil, errors.New("cache database path required")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure cache directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{
		db:     db,
		path:   path,
		ttl:    ttl,
		now:    time.Now,
		logger: logger.With("component", "cache"),
	}
	for _, opt := range opts {
		opt(store)
	}
	if err := store.applySchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *Store) applySchema(ctx context.Context) error {
	const schema = `
CREATE TABLE IF NOT EXISTS subtitle_cache (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    video_url TEXT NOT NULL,
    video_id TEXT NOT NULL,
    language TEXT NOT NULL,
    format TEXT NOT NULL,
    payload BLOB NOT NULL,
    created_at TEXT NOT NULL,
    expires_at TEXT NOT NULL,
    UNIQUE(video_url, language, format)
);
CREATE INDEX IF NOT EXISTS idx_subtitle_cache_expires ON subtitle_cache(expires_at);
`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply cache schema: %w", err)
	}
	return nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Get returns the persisted entry for a request when present and fresh.
// Expired rows are deleted on the way out.
func (s *Store) Get(ctx context.Context, videoURL, lang, format string) (*Entry, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT video_url, video_id, language, format, payload, created_at, expires_at
         FROM subtitle_cache
         WHERE video_url = ? AND language = ? AND format = ?`,
		videoURL, lang, format)

	var entry Entry
	var createdAt, expiresAt string
	err := row.Scan(&entry.VideoURL, &entry.VideoID, &entry.Language, &entry.Format,
		&entry.Payload, &createdAt, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query cache entry: %w", err)
	}

	if entry.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if entry.ExpiresAt, err = time.Parse(time.RFC3339Nano, expiresAt); err != nil {
		return nil, fmt.Errorf("parse expires_at: %w", err)
	}

	if !entry.ExpiresAt.After(s.now().UTC()) {
		if _, delErr := s.db.ExecContext(ctx,
			`DELETE FROM subtitle_cache WHERE video_url = ? AND language = ? AND format = ?`,
			videoURL, lang, format); delErr != nil {
			s.logger.Warn("expired entry delete failed", "error", delErr)
		}
		return nil, nil
	}
	return &entry, nil
}

// Set upserts a rendered response; an existing row for the same request is
// replaced and its expiry reset.
func (s *Store) Set(ctx context.Context, videoURL, videoID, lang, format string, payload []byte) error {
	now := s.now().UTC()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO subtitle_cache (video_url, video_id, language, format, payload, created_at, expires_at)
         VALUES (?, ?, ?, ?, ?, ?, ?)
         ON CONFLICT(video_url, language, format) DO UPDATE SET
             video_id = excluded.video_id,
             payload = excluded.payload,
             created_at = excluded.created_at,
             expires_at = excluded.expires_at`,
		videoURL, videoID, lang, format, payload,
		now.Format(time.RFC3339Nano),
		now.Add(s.ttl).Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("upsert cache entry: %w", err)
	}
	return nil
}

// CleanupExpired deletes every expired row and reports how many went away.
func (s *Store) CleanupExpired(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM subtitle_cache WHERE expires_at <= ?`,
		s.now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return 0, fmt.Errorf("cleanup expired entries: %w", err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	if deleted > 0 {
		s.logger.Info("expired cache entries removed", "count", deleted)
	}
	return deleted, nil
}

// Clear deletes every row and reports how many were removed.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM subtitle_cache`)
	if err != nil {
		return 0, fmt.Errorf("clear cache: %w", err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return deleted, nil
}

// Count reports the number of persisted rows, expired included.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM subtitle_cache`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count cache entries: %w", err)
	}
	return count, nil
}

// CheckHealth verifies database connectivity.
func (s *Store) CheckHealth(ctx context.Context) error {
	var one int
	if err := s.db.QueryRowContext(ctx, `SELECT 1`).Scan(&one); err != nil {
		return fmt.Errorf("cache database health: %w", err)
	}
	return nil
}

// RunSweeper deletes expired rows every interval until the context ends.
// Intended to run on its own goroutine.
func (s *Store) RunSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Info("cache sweeper started", "interval", interval)
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("cache sweeper stopped")
			return
		case <-ticker.C:
			if _, err := s.CleanupExpired(ctx); err != nil && ctx.Err() == nil {
				s.logger.Error("cache sweep failed", "error", err)
			}
		}
	}
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}
