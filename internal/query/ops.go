package query

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/AneeshPatel/MusicVec/internal/model"
)

// Row is one human-facing result: a token, its display form, and the score
// of the operation that produced it. Unresolved marks a row whose catalog
// lookup failed; its display form falls back to the raw token.
type Row struct {
	Token      string
	Display    string
	Score      float64
	Unresolved bool
}

// Rows is an ordered query result.
type Rows []Row

// maxSuggestions bounds the "did you mean" list attached to an
// out-of-vocabulary error on name-keyed models.
const maxSuggestions = 5

// MostSimilar returns the topN nearest neighbors of a resolved token, with
// display metadata attached.
func (o *Orchestrator) MostSimilar(ctx context.Context, token string, topN int) (Rows, error) {
	matches, err := o.model.NearestNeighbors(token, topN)
	if err != nil {
		return nil, o.decorateOOV(err, token)
	}
	return o.resolveRows(ctx, matches), nil
}

// Similarity returns the cosine similarity of two resolved tokens.
func (o *Orchestrator) Similarity(ctx context.Context, a, b string) (float64, error) {
	sim, err := o.model.Similarity(a, b)
	if err != nil {
		return 0, o.decorateOOV(err, a, b)
	}
	return sim, nil
}

// Analogy answers "positive is to negative as X is to ..." vector
// arithmetic over resolved tokens.
func (o *Orchestrator) Analogy(ctx context.Context, positive, negative []string, topN int) (Rows, error) {
	matches, err := o.model.Analogy(positive, negative, topN)
	if err != nil {
		return nil, o.decorateOOV(err, append(append([]string{}, positive...), negative...)...)
	}
	return o.resolveRows(ctx, matches), nil
}

// OddOneOut returns the token least like the others.
func (o *Orchestrator) OddOneOut(ctx context.Context, tokens []string) (Row, error) {
	odd, err := o.model.OddOneOut(tokens)
	if err != nil {
		return Row{}, o.decorateOOV(err, tokens...)
	}
	rows := o.resolveRows(ctx, []model.Match{{Token: odd}})
	return rows[0], nil
}

// Continue suggests topN tracks to extend a seed list, using the
// approximate nearest-neighbor graph. The graph is built on first use and
// reused for the orchestrator's lifetime.
func (o *Orchestrator) Continue(ctx context.Context, seeds []string, topN int) (Rows, error) {
	o.graphOnce.Do(func() {
		o.graph = o.model.BuildSuggestionGraph()
	})
	matches, err := o.graph.Continue(seeds, topN)
	if err != nil {
		return nil, o.decorateOOV(err, seeds...)
	}
	return o.resolveRows(ctx, matches), nil
}

// resolveRows attaches display metadata to raw matches. For name-keyed
// models the token is its own display form. For identifier-keyed models
// each token is described through the catalog; a failed describe marks that
// row unresolved and the rest of the result proceeds. Duplicate catalog
// entities under distinct identifiers (remasters, re-releases) are kept as
// separate rows, never merged.
func (o *Orchestrator) resolveRows(ctx context.Context, matches []model.Match) Rows {
	rows := make(Rows, 0, len(matches))
	for _, m := range matches {
		row := Row{Token: m.Token, Display: m.Token, Score: m.Score}
		if o.model.NeedsResolution() {
			entry, err := o.resolver.Describe(ctx, m.Token)
			if err != nil {
				row.Unresolved = true
			} else {
				row.Display = entry.Display()
			}
		}
		rows = append(rows, row)
	}
	return rows
}

// decorateOOV attaches close vocabulary matches to an out-of-vocabulary
// error on name-keyed models, where the miss is usually a typo. The
// sentinel stays matchable through errors.Is.
func (o *Orchestrator) decorateOOV(err error, tokens ...string) error {
	if !errors.Is(err, model.ErrOutOfVocabulary) || o.model.NeedsResolution() {
		return err
	}
	for _, token := range tokens {
		if o.model.Contains(token) {
			continue
		}
		if suggestions := o.suggest(token); len(suggestions) > 0 {
			return fmt.Errorf("%w (did you mean: %s)", err, strings.Join(suggestions, ", "))
		}
	}
	return err
}

func (o *Orchestrator) suggest(token string) []string {
	vocab := o.model.Vocab()
	ranked := fuzzy.Find(token, vocab)
	if len(ranked) > maxSuggestions {
		ranked = ranked[:maxSuggestions]
	}
	suggestions := make([]string, 0, len(ranked))
	for _, r := range ranked {
		suggestions = append(suggestions, vocab[r.Index])
	}
	return suggestions
}
