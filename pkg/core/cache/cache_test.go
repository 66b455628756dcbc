package cache

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"
)

func openTestCache(t *testing.T, ttl time.Duration) *HTTPCache {
	t.Helper()
	c, err := Open(filepath.Join(t.TempDir(), "fetch.db"), ttl)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestCacheRoundTrip(t *testing.T) {
	c := openTestCache(t, time.Hour)

	url := "https://data.sec.gov/submissions/CIK0000320193.json"
	if _, ok := c.Get(url); ok {
		t.Fatal("hit before Put")
	}

	body := []byte(`{"cik":"0000320193"}`)
	if err := c.Put(url, body); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	got, ok := c.Get(url)
	if !ok {
		t.Fatal("miss after Put")
	}
	if !bytes.Equal(got, body) {
		t.Errorf("got %q, want %q", got, body)
	}
}

func TestCacheOverwrite(t *testing.T) {
	c := openTestCache(t, time.Hour)

	url := "https://www.sec.gov/cgi-bin/browse-edgar"
	if err := c.Put(url, []byte("first")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := c.Put(url, []byte("second")); err != nil {
		t.Fatalf("second Put failed: %v", err)
	}

	got, ok := c.Get(url)
	if !ok || string(got) != "second" {
		t.Errorf("got %q, want second", got)
	}
}

func TestCacheExpiry(t *testing.T) {
	c := openTestCache(t, time.Hour)

	url := "https://data.sec.gov/submissions/CIK0000789019.json"
	if err := c.Put(url, []byte("stale")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	// Age the entry past the TTL.
	if _, err := c.db.Exec(`UPDATE fetch_cache SET fetched_at = ?`,
		time.Now().Add(-2*time.Hour).Unix()); err != nil {
		t.Fatalf("failed to age entry: %v", err)
	}

	if _, ok := c.Get(url); ok {
		t.Error("stale entry served")
	}

	n, err := c.Purge()
	if err != nil {
		t.Fatalf("Purge failed: %v", err)
	}
	if n != 1 {
		t.Errorf("purged %d entries, want 1", n)
	}
}

func TestCacheNoTTL(t *testing.T) {
	c := openTestCache(t, 0)

	url := "https://www.sec.gov/Archives/edgar/data/320193/index.json"
	if err := c.Put(url, []byte("kept")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if _, err := c.db.Exec(`UPDATE fetch_cache SET fetched_at = ?`,
		time.Now().Add(-24*365*time.Hour).Unix()); err != nil {
		t.Fatalf("failed to age entry: %v", err)
	}

	if _, ok := c.Get(url); !ok {
		t.Error("entry expired with no TTL set")
	}

	if n, _ := c.Purge(); n != 0 {
		t.Errorf("purge removed %d entries with no TTL", n)
	}
}
