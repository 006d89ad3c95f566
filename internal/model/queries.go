package model

import (
	"fmt"
	"sort"

	"github.com/viterin/vek/vek32"
)

// Match is one ranked query result: a vocabulary token and its cosine
// similarity to the query target.
type Match struct {
	Token string
	Score float64
}

// NearestNeighbors returns the topN tokens most similar to the given token
// by cosine similarity, excluding the token itself, ordered descending.
// Ties are broken by vocabulary insertion order, so repeated calls return
// the same ordering.
func (m *Model) NearestNeighbors(token string, topN int) ([]Match, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if topN < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidTopN, topN)
	}
	target, ok := m.lookup(token)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrOutOfVocabulary, token)
	}

	exclude := map[int]struct{}{m.t.Index[token]: {}}
	return m.rank(target, exclude, topN), nil
}

// Similarity returns the cosine similarity of two tokens, in [-1, 1].
func (m *Model) Similarity(a, b string) (float64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	va, ok := m.lookup(a)
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrOutOfVocabulary, a)
	}
	vb, ok := m.lookup(b)
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrOutOfVocabulary, b)
	}
	return cosine(va, vb), nil
}

// Analogy ranks the vocabulary against the sum of the positive tokens'
// vectors minus the sum of the negative tokens' vectors. Input tokens never
// appear in the result. Ordering follows the NearestNeighbors rule.
func (m *Model) Analogy(positive, negative []string, topN int) ([]Match, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if topN < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidTopN, topN)
	}
	if len(positive) == 0 && len(negative) == 0 {
		return nil, fmt.Errorf("%w: analogy needs at least one positive or negative token", ErrEmptyQuery)
	}

	target := make([]float32, m.meta.Dimensions)
	exclude := make(map[int]struct{}, len(positive)+len(negative))

	for _, token := range positive {
		v, ok := m.lookup(token)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrOutOfVocabulary, token)
		}
		vek32.Add_Inplace(target, v)
		exclude[m.t.Index[token]] = struct{}{}
	}
	for _, token := range negative {
		v, ok := m.lookup(token)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrOutOfVocabulary, token)
		}
		for i := range target {
			target[i] -= v[i]
		}
		exclude[m.t.Index[token]] = struct{}{}
	}

	return m.rank(target, exclude, topN), nil
}

// OddOneOut returns the token least similar to the mean of the group.
func (m *Model) OddOneOut(tokens []string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(tokens) < 3 {
		return "", fmt.Errorf("%w: odd-one-out needs at least three tokens", ErrEmptyQuery)
	}

	mean := make([]float32, m.meta.Dimensions)
	for _, token := range tokens {
		v, ok := m.lookup(token)
		if !ok {
			return "", fmt.Errorf("%w: %q", ErrOutOfVocabulary, token)
		}
		vek32.Add_Inplace(mean, v)
	}
	inv := 1 / float32(len(tokens))
	for i := range mean {
		mean[i] *= inv
	}

	odd := tokens[0]
	lowest := 2.0
	for _, token := range tokens {
		v, _ := m.lookup(token)
		if sim := cosine(mean, v); sim < lowest {
			lowest = sim
			odd = token
		}
	}
	return odd, nil
}

// lookup must be called with at least the read lock held.
func (m *Model) lookup(token string) ([]float32, bool) {
	if m.t == nil {
		return nil, false
	}
	return m.t.Lookup(token)
}

// rank scores every vocabulary token against the target vector and keeps
// the topN, excluding the given indices. Iterating the vocabulary in
// insertion order and sorting stably makes tie ordering deterministic.
func (m *Model) rank(target []float32, exclude map[int]struct{}, topN int) []Match {
	matches := make([]Match, 0, len(m.t.Vocab))
	for i, token := range m.t.Vocab {
		if _, skip := exclude[i]; skip {
			continue
		}
		matches = append(matches, Match{
			Token: token,
			Score: cosine(target, m.t.Vector(i)),
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	if len(matches) > topN {
		matches = matches[:topN]
	}
	return matches
}

// cosine returns the cosine similarity of two vectors, clamped to [-1, 1],
// or 0 when either has zero norm.
func cosine(a, b []float32) float64 {
	na := vek32.Norm(a)
	nb := vek32.Norm(b)
	if na == 0 || nb == 0 {
		return 0
	}
	sim := float64(vek32.Dot(a, b) / (na * nb))
	// float32 rounding can push the ratio marginally past the bounds.
	if sim > 1 {
		return 1
	}
	if sim < -1 {
		return -1
	}
	return sim
}
