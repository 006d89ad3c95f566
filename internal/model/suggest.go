package model

import (
	"fmt"

	"github.com/coder/hnsw"
	"github.com/viterin/vek/vek32"
)

// SuggestionGraph is an HNSW index over a model's vectors for playlist
// continuation. Unlike the exact query operations it is approximate and
// makes no tie-ordering guarantee, which is acceptable for suggestions.
type SuggestionGraph struct {
	graph *hnsw.Graph[string]
	model *Model
}

// BuildSuggestionGraph indexes every vocabulary vector. Building is linear
// in vocabulary size; callers should reuse the graph across queries.
func (m *Model) BuildSuggestionGraph() *SuggestionGraph {
	m.mu.RLock()
	defer m.mu.RUnlock()

	g := hnsw.NewGraph[string]()
	g.Distance = hnsw.CosineDistance

	for i, token := range m.t.Vocab {
		vec := append([]float32(nil), m.t.Vector(i)...)
		g.Add(hnsw.MakeNode(token, vec))
	}
	return &SuggestionGraph{graph: g, model: m}
}

// Continue suggests topN tokens near the mean of the seed tokens' vectors,
// excluding the seeds themselves. This is the playlist-continuation
// primitive: seeds are the tracks already picked.
func (s *SuggestionGraph) Continue(seeds []string, topN int) ([]Match, error) {
	if topN < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidTopN, topN)
	}
	if len(seeds) == 0 {
		return nil, fmt.Errorf("%w: continuation needs at least one seed", ErrEmptyQuery)
	}

	m := s.model
	m.mu.RLock()
	mean := make([]float32, m.meta.Dimensions)
	seedSet := make(map[string]struct{}, len(seeds))
	for _, token := range seeds {
		v, ok := m.lookup(token)
		if !ok {
			m.mu.RUnlock()
			return nil, fmt.Errorf("%w: %q", ErrOutOfVocabulary, token)
		}
		vek32.Add_Inplace(mean, v)
		seedSet[token] = struct{}{}
	}
	m.mu.RUnlock()

	inv := 1 / float32(len(seeds))
	for i := range mean {
		mean[i] *= inv
	}

	neighbors := s.graph.Search(mean, topN+len(seeds))
	matches := make([]Match, 0, topN)
	for _, n := range neighbors {
		if _, isSeed := seedSet[n.Key]; isSeed {
			continue
		}
		// CosineDistance is 1 - cos, so invert to report similarity.
		dist := s.graph.Distance(mean, n.Value)
		matches = append(matches, Match{Token: n.Key, Score: 1 - float64(dist)})
		if len(matches) == topN {
			break
		}
	}
	return matches, nil
}
