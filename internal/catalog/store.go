// Package catalog resolves free text and opaque track URIs to
// human-readable metadata. The catalog is built locally from the same
// dataset slice files the models train on; a remote catalog service can be
// swapped in behind the same two-call contract (search, describe).
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// ErrUnknownIdentifier is returned when the catalog no longer recognizes a
// URI. This is catalog-side staleness, distinct from a model's
// out-of-vocabulary condition.
var ErrUnknownIdentifier = errors.New("identifier not in catalog")

// Entry is the human-readable metadata for one track.
type Entry struct {
	URI    string
	Name   string
	Artist string
	Album  string
}

// Display renders the entry the way results are shown to people.
func (e Entry) Display() string {
	if e.Artist == "" {
		return e.Name
	}
	return e.Name + " by " + e.Artist
}

// Store is the SQLite-backed track metadata store.
type Store struct {
	db *sql.DB
}

// OpenStore opens (creating if needed) the catalog database at path.
func OpenStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening catalog database: %w", err)
	}

	// SQLite doesn't support multiple writers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS tracks (
			uri TEXT PRIMARY KEY,
			name TEXT NOT NULL DEFAULT '',
			artist TEXT NOT NULL DEFAULT '',
			album TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS idx_tracks_artist ON tracks(artist)`,
		`CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY
		)`,
		`INSERT OR IGNORE INTO schema_version (version) VALUES (1)`,
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("executing migration: %w", err)
		}
	}
	return nil
}

// Get returns the entry for a URI, or ErrUnknownIdentifier if the catalog
// does not carry it.
func (s *Store) Get(ctx context.Context, uri string) (Entry, error) {
	var e Entry
	err := s.db.QueryRowContext(ctx,
		`SELECT uri, name, artist, album FROM tracks WHERE uri = ?`, uri,
	).Scan(&e.URI, &e.Name, &e.Artist, &e.Album)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, fmt.Errorf("%w: %s", ErrUnknownIdentifier, uri)
	}
	if err != nil {
		return Entry{}, fmt.Errorf("looking up %s: %w", uri, err)
	}
	return e, nil
}

// Upsert inserts or replaces one entry.
func (s *Store) Upsert(ctx context.Context, e Entry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tracks (uri, name, artist, album)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(uri) DO UPDATE SET name = excluded.name, artist = excluded.artist, album = excluded.album
	`, e.URI, e.Name, e.Artist, e.Album)
	if err != nil {
		return fmt.Errorf("upserting %s: %w", e.URI, err)
	}
	return nil
}

// UpsertBatch writes a batch of entries in one transaction.
func (s *Store) UpsertBatch(ctx context.Context, entries []Entry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting batch: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO tracks (uri, name, artist, album)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(uri) DO UPDATE SET name = excluded.name, artist = excluded.artist, album = excluded.album
	`)
	if err != nil {
		return fmt.Errorf("preparing batch: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		if _, err := stmt.ExecContext(ctx, e.URI, e.Name, e.Artist, e.Album); err != nil {
			return fmt.Errorf("upserting %s: %w", e.URI, err)
		}
	}
	return tx.Commit()
}

// Delete removes an entry, simulating catalog delisting.
func (s *Store) Delete(ctx context.Context, uri string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM tracks WHERE uri = ?`, uri)
	if err != nil {
		return fmt.Errorf("deleting %s: %w", uri, err)
	}
	return nil
}

// Count returns the number of cataloged tracks.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tracks`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting tracks: %w", err)
	}
	return n, nil
}
