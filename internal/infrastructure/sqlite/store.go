package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

const (
	queryTimeout  = 5 * time.Second
	pruneInterval = time.Minute
)

// Store is a file-backed cache. Expired rows are ignored on read and removed
// by Prune, which also runs from Set at most once per pruneEvery.
type Store struct {
	db  *sql.DB
	now func() time.Time

	pruneEvery time.Duration
	mu         sync.Mutex
	lastPrune  time.Time
}

func NewStore(ctx context.Context, dbPath string) (*Store, error) {
	if dbPath == "" {
		return nil, errors.New("db path is required")
	}
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create cache dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	// One writer at a time avoids SQLITE_BUSY under concurrent requests.
	db.SetMaxOpenConns(1)
	if err := createSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	s := &Store{db: db, now: time.Now, pruneEvery: pruneInterval}
	if _, err := s.Prune(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func createSchema(ctx context.Context, db *sql.DB) error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS cache_entries (
			key TEXT PRIMARY KEY,
			value BLOB NOT NULL,
			expires_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS cache_entries_expires_at ON cache_entries (expires_at)`,
	}
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var value []byte
	var expiresAt int64
	err := s.db.QueryRowContext(ctx, `SELECT value, expires_at FROM cache_entries WHERE key = ?`, key).Scan(&value, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if expiresAt > 0 && s.now().UnixMilli() >= expiresAt {
		return nil, false, nil
	}
	return value, true, nil
}

// Set upserts key. A non-positive ttl stores the entry without expiry.
func (s *Store) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var expiresAt int64
	if ttl > 0 {
		expiresAt = s.now().Add(ttl).UnixMilli()
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO cache_entries (key, value, expires_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, expires_at = excluded.expires_at`,
		key, value, expiresAt)
	if err != nil {
		return err
	}
	s.maybePrune(ctx)
	return nil
}

func (s *Store) maybePrune(ctx context.Context) {
	s.mu.Lock()
	due := s.now().Sub(s.lastPrune) >= s.pruneEvery
	s.mu.Unlock()
	if !due {
		return
	}
	removed, err := s.Prune(ctx)
	if err != nil {
		slog.WarnContext(ctx, "cache prune failed", "err", err)
		return
	}
	if removed > 0 {
		slog.DebugContext(ctx, "cache pruned", "removed", removed)
	}
}

// Prune deletes expired entries and reports how many were removed.
func (s *Store) Prune(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	now := s.now()
	res, err := s.db.ExecContext(ctx, `DELETE FROM cache_entries WHERE expires_at > 0 AND expires_at <= ?`, now.UnixMilli())
	if err != nil {
		return 0, err
	}
	s.mu.Lock()
	s.lastPrune = now
	s.mu.Unlock()
	return res.RowsAffected()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	return s.db.Close()
}
