package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	_ "github.com/mattn/go-sqlite3"
)

// Service is the two-call catalog contract. Resolver implements it with the
// local store and index; a remote client would implement it the same way.
type Service interface {
	Search(ctx context.Context, freeText string, limit int) ([]Candidate, error)
	Describe(ctx context.Context, uri string) (Entry, error)
}

// CachedService wraps a Service with a SQLite-backed describe cache. Search
// goes straight through: its results depend on the query and the index
// state, so caching them would serve stale rankings.
type CachedService struct {
	inner Service
	db    *sql.DB
}

// NewCachedService creates a cached wrapper around a catalog service.
// The cachePath should point to a SQLite database file.
func NewCachedService(inner Service, cachePath string) (*CachedService, error) {
	db, err := sql.Open("sqlite3", cachePath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening cache db: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS describe_cache (
			uri TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			artist TEXT NOT NULL,
			album TEXT NOT NULL
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating cache table: %w", err)
	}

	return &CachedService{inner: inner, db: db}, nil
}

// Search passes through to the wrapped service.
func (c *CachedService) Search(ctx context.Context, freeText string, limit int) ([]Candidate, error) {
	return c.inner.Search(ctx, freeText, limit)
}

// Describe resolves a URI, serving from the cache when possible. Unknown
// identifiers are never cached: a URI absent today may be cataloged later.
func (c *CachedService) Describe(ctx context.Context, uri string) (Entry, error) {
	if e, err := c.get(uri); err == nil {
		return e, nil
	}

	e, err := c.inner.Describe(ctx, uri)
	if err != nil {
		return Entry{}, err
	}

	c.put(e)
	return e, nil
}

// Close closes the cache database.
func (c *CachedService) Close() error {
	return c.db.Close()
}

func (c *CachedService) get(uri string) (Entry, error) {
	var e Entry
	err := c.db.QueryRow(
		"SELECT uri, name, artist, album FROM describe_cache WHERE uri = ?", uri,
	).Scan(&e.URI, &e.Name, &e.Artist, &e.Album)
	if err != nil {
		return Entry{}, err
	}
	return e, nil
}

// put stores an entry. A write failure never fails the describe that
// produced it, but a cache that silently stopped filling is worth knowing
// about, so the error is logged.
func (c *CachedService) put(e Entry) {
	_, err := c.db.Exec(
		"INSERT OR REPLACE INTO describe_cache (uri, name, artist, album) VALUES (?, ?, ?, ?)",
		e.URI, e.Name, e.Artist, e.Album,
	)
	if err != nil {
		log.Printf("describe cache write for %s: %v", e.URI, err)
	}
}
