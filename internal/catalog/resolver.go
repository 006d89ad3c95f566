package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/AneeshPatel/MusicVec/internal/corpus"
)

// Candidate is one ranked answer to a free-text search: an opaque URI with
// its display metadata. Request-scoped; never persisted.
type Candidate struct {
	URI   string
	Entry Entry
	Rank  int
	Score float64
}

// Resolver fronts the store and index with the two calls the rest of the
// system depends on.
type Resolver struct {
	store *Store
	index *Index
}

// NewResolver creates a resolver over an opened store and index.
func NewResolver(store *Store, index *Index) *Resolver {
	return &Resolver{store: store, index: index}
}

// Search returns ranked candidates for free text. Zero candidates is a
// normal outcome the caller must handle, not an error.
func (r *Resolver) Search(ctx context.Context, freeText string, limit int) ([]Candidate, error) {
	hits, err := r.index.Search(ctx, freeText, limit)
	if err != nil {
		return nil, err
	}

	candidates := make([]Candidate, 0, len(hits))
	for _, hit := range hits {
		entry, err := r.store.Get(ctx, hit.URI)
		if errors.Is(err, ErrUnknownIdentifier) {
			// Index and store drifted; skip the stale hit.
			continue
		}
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, Candidate{
			URI:   hit.URI,
			Entry: entry,
			Rank:  len(candidates) + 1,
			Score: hit.Score,
		})
	}
	return candidates, nil
}

// Describe resolves a known URI back to human-readable metadata.
func (r *Resolver) Describe(ctx context.Context, uri string) (Entry, error) {
	return r.store.Get(ctx, uri)
}

// Import builds the catalog from a corpus directory, deduplicating by URI.
// Batched for throughput; returns the count of distinct tracks imported.
func Import(ctx context.Context, store *Store, index *Index, src *corpus.DirSource) (int, error) {
	const batchSize = 500

	seen := make(map[string]struct{})
	batch := make([]Entry, 0, batchSize)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := store.UpsertBatch(ctx, batch); err != nil {
			return err
		}
		if err := index.IndexBatch(ctx, batch); err != nil {
			return err
		}
		batch = batch[:0]
		return nil
	}

	err := src.ForEachTrack(ctx, func(t corpus.Track) error {
		if t.TrackURI == "" {
			return nil
		}
		if _, dup := seen[t.TrackURI]; dup {
			return nil
		}
		seen[t.TrackURI] = struct{}{}
		batch = append(batch, Entry{
			URI:    t.TrackURI,
			Name:   t.TrackName,
			Artist: t.ArtistName,
			Album:  t.AlbumName,
		})
		if len(batch) == batchSize {
			return flush()
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("importing catalog: %w", err)
	}
	if err := flush(); err != nil {
		return 0, fmt.Errorf("importing catalog: %w", err)
	}
	return len(seen), nil
}
