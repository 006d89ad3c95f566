package catalog

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"
)

// Index is the Bleve full-text index over track metadata. It powers the
// free-text half of resolution: fuzzy, best-effort, ranked.
type Index struct {
	index bleve.Index
	path  string
}

// indexedTrack is the structure indexed by Bleve.
type indexedTrack struct {
	URI    string `json:"uri"`
	Name   string `json:"name"`
	Artist string `json:"artist"`
	Album  string `json:"album"`
}

// NewIndex creates or opens a Bleve index at the given path.
func NewIndex(indexPath string) (*Index, error) {
	if err := os.MkdirAll(filepath.Dir(indexPath), 0755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	idx, err := bleve.Open(indexPath)
	if err == bleve.ErrorIndexPathDoesNotExist {
		idx, err = bleve.New(indexPath, buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("creating index: %w", err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("opening index: %w", err)
	}

	return &Index{index: idx, path: indexPath}, nil
}

func buildIndexMapping() mapping.IndexMapping {
	trackMapping := bleve.NewDocumentMapping()

	textFieldMapping := bleve.NewTextFieldMapping()
	textFieldMapping.Analyzer = standard.Name

	keywordFieldMapping := bleve.NewKeywordFieldMapping()

	trackMapping.AddFieldMappingsAt("name", textFieldMapping)
	trackMapping.AddFieldMappingsAt("artist", textFieldMapping)
	trackMapping.AddFieldMappingsAt("album", textFieldMapping)
	trackMapping.AddFieldMappingsAt("uri", keywordFieldMapping)

	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultMapping = trackMapping
	indexMapping.DefaultAnalyzer = standard.Name

	return indexMapping
}

// Index adds or updates one track in the index.
func (b *Index) Index(ctx context.Context, e Entry) error {
	doc := indexedTrack{URI: e.URI, Name: e.Name, Artist: e.Artist, Album: e.Album}
	if err := b.index.Index(e.URI, doc); err != nil {
		return fmt.Errorf("indexing track: %w", err)
	}
	return nil
}

// IndexBatch adds a batch of tracks in one shot.
func (b *Index) IndexBatch(ctx context.Context, entries []Entry) error {
	batch := b.index.NewBatch()
	for _, e := range entries {
		doc := indexedTrack{URI: e.URI, Name: e.Name, Artist: e.Artist, Album: e.Album}
		if err := batch.Index(e.URI, doc); err != nil {
			return fmt.Errorf("batching track: %w", err)
		}
	}
	if err := b.index.Batch(batch); err != nil {
		return fmt.Errorf("indexing batch: %w", err)
	}
	return nil
}

// Hit is one ranked index match.
type Hit struct {
	URI   string
	Score float64
}

// Search performs a free-text search and returns ranked URIs. Zero hits is
// a normal empty result, never an error.
func (b *Index) Search(ctx context.Context, freeText string, limit int) ([]Hit, error) {
	q := buildQuery(freeText)

	req := bleve.NewSearchRequestOptions(q, limit, 0, false)
	result, err := b.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("searching: %w", err)
	}

	hits := make([]Hit, 0, len(result.Hits))
	for _, hit := range result.Hits {
		hits = append(hits, Hit{URI: hit.ID, Score: hit.Score})
	}
	return hits, nil
}

// buildQuery supports the dataset's query habits: bare text matches any
// field, while "track:" and "artist:" prefixes scope terms to one field.
func buildQuery(freeText string) query.Query {
	freeText = strings.TrimSpace(freeText)
	if freeText == "" {
		return bleve.NewMatchNoneQuery()
	}

	var trackTerms, artistTerms, looseTerms []string
	for _, part := range strings.Fields(freeText) {
		switch {
		case strings.HasPrefix(part, "track:"):
			trackTerms = append(trackTerms, strings.TrimPrefix(part, "track:"))
		case strings.HasPrefix(part, "artist:"):
			artistTerms = append(artistTerms, strings.TrimPrefix(part, "artist:"))
		default:
			looseTerms = append(looseTerms, part)
		}
	}

	var parts []query.Query
	if len(trackTerms) > 0 {
		mq := bleve.NewMatchQuery(strings.Join(trackTerms, " "))
		mq.SetField("name")
		parts = append(parts, mq)
	}
	if len(artistTerms) > 0 {
		mq := bleve.NewMatchQuery(strings.Join(artistTerms, " "))
		mq.SetField("artist")
		parts = append(parts, mq)
	}
	if len(looseTerms) > 0 {
		parts = append(parts, bleve.NewMatchQuery(strings.Join(looseTerms, " ")))
	}

	if len(parts) == 1 {
		return parts[0]
	}
	boolQuery := bleve.NewBooleanQuery()
	for _, p := range parts {
		boolQuery.AddMust(p)
	}
	return boolQuery
}

// Count returns the total number of indexed tracks.
func (b *Index) Count() (uint64, error) {
	return b.index.DocCount()
}

// Close closes the index.
func (b *Index) Close() error {
	return b.index.Close()
}
