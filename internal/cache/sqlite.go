package cache

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// SQLite is a persistent TTL cache backend. It lets a deployment keep the
// tile and result caches warm across restarts; entries still expire on
// their TTL.
type SQLite struct {
	db   *sql.DB
	mu   sync.Mutex
	now  func() time.Time
	path string
}

// NewSQLite opens (creating if needed) a cache database at path.
func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA temp_store = MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma %q: %w", pragma, err)
		}
	}

	schema := `
CREATE TABLE IF NOT EXISTS cache_entries (
	key TEXT PRIMARY KEY,
	value BLOB NOT NULL,
	expires_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_cache_expires ON cache_entries (expires_at);
`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create cache schema: %w", err)
	}

	return &SQLite{db: db, now: time.Now, path: path}, nil
}

func (s *SQLite) Get(key string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var value []byte
	var expiresAt int64
	err := s.db.QueryRow(
		"SELECT value, expires_at FROM cache_entries WHERE key = ?", key,
	).Scan(&value, &expiresAt)
	if err != nil {
		return nil, false
	}
	if s.now().UnixMilli() > expiresAt {
		_, _ = s.db.Exec("DELETE FROM cache_entries WHERE key = ?", key)
		return nil, false
	}
	return value, true
}

func (s *SQLite) SetWithTTL(key string, value []byte, ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	expiresAt := s.now().Add(ttl).UnixMilli()
	_, _ = s.db.Exec(
		"INSERT INTO cache_entries (key, value, expires_at) VALUES (?, ?, ?) "+
			"ON CONFLICT(key) DO UPDATE SET value = excluded.value, expires_at = excluded.expires_at",
		key, value, expiresAt,
	)
	// Opportunistic sweep of expired rows.
	_, _ = s.db.Exec("DELETE FROM cache_entries WHERE expires_at < ?", s.now().UnixMilli())
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
