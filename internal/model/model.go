// Package model wraps trained embeddings behind one query contract shared
// by both token representations: human-readable artist names and opaque
// track URIs. A model is tagged with the kind of token it holds; callers
// that need catalog resolution branch on that capability rather than on a
// concrete type.
package model

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/AneeshPatel/MusicVec/internal/corpus"
	"github.com/AneeshPatel/MusicVec/internal/word2vec"
)

// Meta describes how a model was produced.
type Meta struct {
	Kind          corpus.TokenKind
	Dimensions    int
	Training      word2vec.Config
	SequenceCount int64
	UpdateCount   int
	TrainedAt     time.Time
}

// Model owns a vocabulary and one vector per token. Queries take the read
// lock; Update and Save coordination takes the write lock, giving the
// single-writer multiple-reader discipline the vocabulary mutation needs.
type Model struct {
	mu   sync.RWMutex
	meta Meta
	t    *word2vec.Trained
}

// Train learns a new model from the corpus. It blocks until the engine
// finishes; on failure no model is returned.
func Train(ctx context.Context, kind corpus.TokenKind, src corpus.Source, cfg word2vec.Config, progress word2vec.ProgressFunc) (*Model, error) {
	trained, err := word2vec.Train(ctx, src, cfg, progress)
	if err != nil {
		return nil, err
	}
	return &Model{
		meta: Meta{
			Kind:          kind,
			Dimensions:    cfg.Dimensions,
			Training:      cfg,
			SequenceCount: trained.SequenceCount,
			TrainedAt:     time.Now().UTC(),
		},
		t: trained,
	}, nil
}

// Update incrementally extends the vocabulary and vectors from an
// additional corpus without discarding prior structure. Returns the count
// of genuinely new tokens. Serialized against all other writers and
// against queries on this model. The update is atomic: on any failure the
// model is restored to its prior state and stays fully queryable.
func (m *Model) Update(ctx context.Context, src corpus.Source, progress word2vec.ProgressFunc) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.t == nil || len(m.t.Vocab) == 0 {
		return 0, ErrNotTrained
	}

	snap := m.t.Snapshot()

	added, err := word2vec.Grow(ctx, m.t, src, m.meta.Training)
	if err != nil {
		m.t = snap
		return 0, fmt.Errorf("extending vocabulary: %w", err)
	}
	if err := word2vec.TrainMore(ctx, m.t, src, m.meta.Training, progress); err != nil {
		m.t = snap
		return 0, fmt.Errorf("continuing training: %w", err)
	}

	m.meta.SequenceCount = m.t.SequenceCount
	m.meta.UpdateCount++
	return added, nil
}

// NeedsResolution reports whether this model's tokens are opaque catalog
// identifiers that require a resolution round-trip for human interaction.
func (m *Model) NeedsResolution() bool {
	return m.meta.Kind == corpus.KindID
}

// Kind returns the token kind the model was trained on.
func (m *Model) Kind() corpus.TokenKind {
	return m.meta.Kind
}

// Meta returns a copy of the training metadata.
func (m *Model) Meta() Meta {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.meta
}

// Len returns the vocabulary size.
func (m *Model) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.t == nil {
		return 0
	}
	return len(m.t.Vocab)
}

// Dimensions returns the vector dimensionality.
func (m *Model) Dimensions() int {
	return m.meta.Dimensions
}

// Contains reports whether a token is in the vocabulary.
func (m *Model) Contains(token string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.t == nil {
		return false
	}
	_, ok := m.t.Index[token]
	return ok
}

// Vocab returns a copy of the vocabulary in insertion order.
func (m *Model) Vocab() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.t == nil {
		return nil
	}
	return append([]string(nil), m.t.Vocab...)
}
