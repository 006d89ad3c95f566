// Package corpus streams playlist token sequences from dataset slice files.
//
// The on-disk format is the Spotify Million Playlist Dataset slice layout:
// a directory of JSON files, each holding a "playlists" array whose entries
// carry a "tracks" array. Depending on the feature being trained, a track
// contributes either its artist name or its track URI as the token.
package corpus

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ErrUnknownFeature is returned for a feature the dataset does not carry.
var ErrUnknownFeature = errors.New("unknown corpus feature")

// TokenKind distinguishes the two token representations a model can hold.
type TokenKind string

const (
	// KindName tokens are human-readable display strings (artist names).
	// They serve as both vocabulary key and display form.
	KindName TokenKind = "name"

	// KindID tokens are opaque catalog identifiers (track URIs). They
	// require a catalog round-trip to become human-readable.
	KindID TokenKind = "id"
)

// Feature selects which track field becomes the training token.
type Feature string

const (
	FeatureArtistName Feature = "artist_name"
	FeatureTrackURI   Feature = "track_uri"
)

// Kind returns the token kind a feature produces.
func (f Feature) Kind() TokenKind {
	if f == FeatureTrackURI {
		return KindID
	}
	return KindName
}

// Valid reports whether the feature is recognized.
func (f Feature) Valid() bool {
	return f == FeatureArtistName || f == FeatureTrackURI
}

// Sequence is one playlist's tokens in playlist order. Order defines the
// co-occurrence windows during training and nothing else.
type Sequence []string

// Track is one playlist entry with the fields the system consumes.
type Track struct {
	ArtistName string `json:"artist_name"`
	TrackName  string `json:"track_name"`
	TrackURI   string `json:"track_uri"`
	AlbumName  string `json:"album_name"`
}

type playlist struct {
	Tracks []Track `json:"tracks"`
}

type sliceFile struct {
	Playlists []playlist `json:"playlists"`
}

// Source produces a lazy sequence of Sequences. Each ForEach call is a
// fresh full pass yielding the same sequences in the same order, so a
// trainer can run multiple epochs over an arbitrarily large dataset.
type Source interface {
	ForEach(ctx context.Context, fn func(Sequence) error) error
}

// DirSource streams playlists from every .json slice file in a directory,
// in sorted filename order.
type DirSource struct {
	dir     string
	feature Feature
}

// NewDirSource creates a source over the slice files in dir.
func NewDirSource(dir string, feature Feature) (*DirSource, error) {
	if !feature.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFeature, feature)
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("opening corpus directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("corpus path %s is not a directory", dir)
	}
	return &DirSource{dir: dir, feature: feature}, nil
}

// Feature returns the feature this source tokenizes on.
func (s *DirSource) Feature() Feature { return s.feature }

// ForEach streams every playlist as a token sequence. Empty playlists are
// skipped; they carry no co-occurrence signal.
func (s *DirSource) ForEach(ctx context.Context, fn func(Sequence) error) error {
	files, err := s.files()
	if err != nil {
		return err
	}
	for _, path := range files {
		if err := streamFile(ctx, path, s.feature, fn); err != nil {
			return err
		}
	}
	return nil
}

// ForEachTrack streams every track record with full metadata. Used by the
// catalog importer, which needs more than the training token.
func (s *DirSource) ForEachTrack(ctx context.Context, fn func(Track) error) error {
	files, err := s.files()
	if err != nil {
		return err
	}
	for _, path := range files {
		if err := streamTracks(ctx, path, fn); err != nil {
			return err
		}
	}
	return nil
}

func (s *DirSource) files() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("reading corpus directory: %w", err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		files = append(files, filepath.Join(s.dir, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}

// FileSource streams playlists from an explicit list of slice files. The
// watcher uses it to fold newly arrived files into an existing model.
type FileSource struct {
	paths   []string
	feature Feature
}

// NewFileSource creates a source over the given slice files.
func NewFileSource(paths []string, feature Feature) (*FileSource, error) {
	if !feature.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFeature, feature)
	}
	sorted := append([]string(nil), paths...)
	sort.Strings(sorted)
	return &FileSource{paths: sorted, feature: feature}, nil
}

// ForEach streams every playlist in the listed files as a token sequence.
func (s *FileSource) ForEach(ctx context.Context, fn func(Sequence) error) error {
	for _, path := range s.paths {
		if err := streamFile(ctx, path, s.feature, fn); err != nil {
			return err
		}
	}
	return nil
}

func streamFile(ctx context.Context, path string, feature Feature, fn func(Sequence) error) error {
	slice, err := decodeSlice(path)
	if err != nil {
		return err
	}
	for _, p := range slice.Playlists {
		if err := ctx.Err(); err != nil {
			return err
		}
		if len(p.Tracks) == 0 {
			continue
		}
		seq := make(Sequence, 0, len(p.Tracks))
		for _, t := range p.Tracks {
			seq = append(seq, t.token(feature))
		}
		if err := fn(seq); err != nil {
			return err
		}
	}
	return nil
}

func streamTracks(ctx context.Context, path string, fn func(Track) error) error {
	slice, err := decodeSlice(path)
	if err != nil {
		return err
	}
	for _, p := range slice.Playlists {
		for _, t := range p.Tracks {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := fn(t); err != nil {
				return err
			}
		}
	}
	return nil
}

func decodeSlice(path string) (*sliceFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening slice file: %w", err)
	}
	defer f.Close()

	var slice sliceFile
	if err := json.NewDecoder(f).Decode(&slice); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", filepath.Base(path), err)
	}
	return &slice, nil
}

func (t Track) token(feature Feature) string {
	if feature == FeatureTrackURI {
		return t.TrackURI
	}
	return t.ArtistName
}
