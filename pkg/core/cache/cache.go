// Package cache is a local HTTP response cache backed by SQLite. SEC
// rate limits are tight and published filings never change, so fetched
// bodies are kept on disk and replayed until their TTL expires.
package cache

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// HTTPCache stores response bodies keyed by URL.
type HTTPCache struct {
	db  *sql.DB
	ttl time.Duration
	mu  sync.Mutex
}

// Open opens (or creates) the cache database. A TTL of zero keeps
// entries forever.
func Open(path string, ttl time.Duration) (*HTTPCache, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create cache dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode so readers are not blocked while the pipeline writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	c := &HTTPCache{db: db, ttl: ttl}
	if err := c.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] fetch cache opened: %s", path)
	return c, nil
}

func (c *HTTPCache) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS fetch_cache (
			url        TEXT PRIMARY KEY,
			body       BLOB NOT NULL,
			fetched_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_fetched_at ON fetch_cache(fetched_at)`,
	}
	for _, s := range stmts {
		if _, err := c.db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

// Get returns the cached body for a URL when present and fresh.
func (c *HTTPCache) Get(url string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var body []byte
	var fetchedAt int64
	err := c.db.QueryRow(
		`SELECT body, fetched_at FROM fetch_cache WHERE url = ?`, url,
	).Scan(&body, &fetchedAt)
	if err != nil {
		return nil, false
	}
	if c.ttl > 0 && time.Since(time.Unix(fetchedAt, 0)) > c.ttl {
		return nil, false
	}
	return body, true
}

// Put stores a fetched body, replacing any previous entry for the URL.
func (c *HTTPCache) Put(url string, body []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, err := c.db.Exec(
		`INSERT INTO fetch_cache (url, body, fetched_at) VALUES (?, ?, ?)
		 ON CONFLICT(url) DO UPDATE SET body = excluded.body, fetched_at = excluded.fetched_at`,
		url, body, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("cache put: %w", err)
	}
	return nil
}

// Purge drops entries older than the TTL and reports how many went.
func (c *HTTPCache) Purge() (int64, error) {
	if c.ttl <= 0 {
		return 0, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	cutoff := time.Now().Add(-c.ttl).Unix()
	res, err := c.db.Exec(`DELETE FROM fetch_cache WHERE fetched_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("cache purge: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// Close closes the underlying database.
func (c *HTTPCache) Close() error {
	return c.db.Close()
}
