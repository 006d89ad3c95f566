package query

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/AneeshPatel/MusicVec/internal/catalog"
	"github.com/AneeshPatel/MusicVec/internal/corpus"
	"github.com/AneeshPatel/MusicVec/internal/model"
	"github.com/AneeshPatel/MusicVec/internal/word2vec"
)

type memSource [][]string

func (m memSource) ForEach(ctx context.Context, fn func(corpus.Sequence) error) error {
	for _, seq := range m {
		if err := fn(corpus.Sequence(seq)); err != nil {
			return err
		}
	}
	return nil
}

func trainModel(t *testing.T, kind corpus.TokenKind, seqs memSource) *model.Model {
	t.Helper()
	cfg := word2vec.DefaultConfig()
	cfg.Dimensions = 16
	cfg.EpochCount = 15
	cfg.WorkerCount = 1
	cfg.WindowSize = 2
	cfg.Seed = 7
	m, err := model.Train(context.Background(), kind, seqs, cfg, nil)
	if err != nil {
		t.Fatalf("Train: %v", err)
	}
	return m
}

func nameModel(t *testing.T) *model.Model {
	t.Helper()
	return trainModel(t, corpus.KindName, memSource{
		{"Drake", "Eminem", "Rihanna"},
		{"Eminem", "Rihanna", "Adele"},
	})
}

var trackURIs = []string{"spotify:track:1", "spotify:track:2", "spotify:track:3", "spotify:track:4"}

func idModel(t *testing.T) *model.Model {
	t.Helper()
	return trainModel(t, corpus.KindID, memSource{
		{trackURIs[0], trackURIs[1], trackURIs[2]},
		{trackURIs[1], trackURIs[2], trackURIs[3]},
	})
}

// fakeResolver is a canned catalog for orchestrator tests.
type fakeResolver struct {
	candidates   map[string][]catalog.Candidate
	entries      map[string]catalog.Entry
	failDescribe map[string]bool
	searchErr    error
}

func (f *fakeResolver) Search(ctx context.Context, freeText string, limit int) ([]catalog.Candidate, error) {
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	cands := f.candidates[freeText]
	if len(cands) > limit {
		cands = cands[:limit]
	}
	return cands, nil
}

func (f *fakeResolver) Describe(ctx context.Context, uri string) (catalog.Entry, error) {
	if f.failDescribe[uri] {
		return catalog.Entry{}, errors.New("catalog unavailable")
	}
	e, ok := f.entries[uri]
	if !ok {
		return catalog.Entry{}, catalog.ErrUnknownIdentifier
	}
	return e, nil
}

func testResolver() *fakeResolver {
	entries := map[string]catalog.Entry{
		trackURIs[0]: {URI: trackURIs[0], Name: "Thriller", Artist: "Michael Jackson"},
		trackURIs[1]: {URI: trackURIs[1], Name: "Beat It", Artist: "Michael Jackson"},
		trackURIs[2]: {URI: trackURIs[2], Name: "Billie Jean", Artist: "Michael Jackson"},
		trackURIs[3]: {URI: trackURIs[3], Name: "Bad", Artist: "Michael Jackson"},
	}
	return &fakeResolver{
		candidates: map[string][]catalog.Candidate{
			"thriller": {
				{URI: trackURIs[0], Entry: entries[trackURIs[0]], Rank: 1, Score: 2.5},
				{URI: trackURIs[3], Entry: entries[trackURIs[3]], Rank: 2, Score: 1.1},
			},
		},
		entries:      entries,
		failDescribe: map[string]bool{},
	}
}

func TestNewRequiresResolverForIDModel(t *testing.T) {
	if _, err := New(idModel(t), nil, 10); !errors.Is(err, ErrNoResolver) {
		t.Errorf("expected ErrNoResolver, got %v", err)
	}
	if _, err := New(nameModel(t), nil, 10); err != nil {
		t.Errorf("name model without resolver: %v", err)
	}
}

func TestResolveDirectModel(t *testing.T) {
	o, err := New(nameModel(t), nil, 10)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	sess, err := o.Resolve(context.Background(), "  Eminem  ")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if sess.State() != StateResolved {
		t.Fatalf("state = %q, want resolved", sess.State())
	}
	token, err := sess.Token()
	if err != nil {
		t.Fatalf("Token: %v", err)
	}
	if token != "Eminem" {
		t.Errorf("token = %q, want trimmed input", token)
	}
}

func TestResolveEmptyQuery(t *testing.T) {
	o, err := New(nameModel(t), nil, 10)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := o.Resolve(context.Background(), "   "); !errors.Is(err, model.ErrEmptyQuery) {
		t.Errorf("expected ErrEmptyQuery, got %v", err)
	}
}

func TestResolveIDModelSelection(t *testing.T) {
	o, err := New(idModel(t), testResolver(), 10)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	sess, err := o.Resolve(context.Background(), "thriller")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if sess.State() != StateAwaitingSelection {
		t.Fatalf("state = %q, want awaiting-selection", sess.State())
	}
	if len(sess.Candidates()) != 2 {
		t.Fatalf("got %d candidates, want 2", len(sess.Candidates()))
	}

	// The session is suspended: no token yet.
	if _, err := sess.Token(); !errors.Is(err, ErrNoSelection) {
		t.Errorf("expected ErrNoSelection before selecting, got %v", err)
	}

	if err := sess.Select(5); !errors.Is(err, ErrSelectionOutOfRange) {
		t.Errorf("expected ErrSelectionOutOfRange, got %v", err)
	}
	if err := sess.Select(1); err != nil {
		t.Fatalf("Select: %v", err)
	}
	if sess.State() != StateResolved {
		t.Errorf("state = %q after selection", sess.State())
	}
	token, err := sess.Token()
	if err != nil {
		t.Fatalf("Token: %v", err)
	}
	if token != trackURIs[3] {
		t.Errorf("token = %q, want %q", token, trackURIs[3])
	}
}

func TestResolveNoMatchIsNotAnError(t *testing.T) {
	o, err := New(idModel(t), testResolver(), 10)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	sess, err := o.Resolve(context.Background(), "zzzzznomatch")
	if err != nil {
		t.Fatalf("Resolve on no match must not error: %v", err)
	}
	if sess.State() != StateNoMatch {
		t.Errorf("state = %q, want no-match", sess.State())
	}
}

func TestSessionAbort(t *testing.T) {
	o, err := New(idModel(t), testResolver(), 10)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	sess, err := o.Resolve(context.Background(), "thriller")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	sess.Abort()
	if sess.State() != StateAborted {
		t.Errorf("state = %q after abort", sess.State())
	}
	if err := sess.Select(0); err == nil {
		t.Error("Select after abort must fail")
	}
	if _, err := sess.Token(); !errors.Is(err, ErrNoSelection) {
		t.Errorf("expected ErrNoSelection after abort, got %v", err)
	}
}

func TestMaxCandidatesBound(t *testing.T) {
	r := testResolver()
	o, err := New(idModel(t), r, 1)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	sess, err := o.Resolve(context.Background(), "thriller")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(sess.Candidates()) != 1 {
		t.Errorf("got %d candidates, want 1", len(sess.Candidates()))
	}
}

func TestMostSimilarDirectModel(t *testing.T) {
	o, err := New(nameModel(t), nil, 10)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	rows, err := o.MostSimilar(context.Background(), "Eminem", 2)
	if err != nil {
		t.Fatalf("MostSimilar: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	for _, row := range rows {
		if row.Display != row.Token {
			t.Errorf("name model row display %q != token %q", row.Display, row.Token)
		}
		if row.Unresolved {
			t.Errorf("name model row %q marked unresolved", row.Token)
		}
	}
}

func TestMostSimilarResolvesDisplay(t *testing.T) {
	o, err := New(idModel(t), testResolver(), 10)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	rows, err := o.MostSimilar(context.Background(), trackURIs[1], 3)
	if err != nil {
		t.Fatalf("MostSimilar: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want 3", len(rows))
	}
	for _, row := range rows {
		if row.Unresolved {
			t.Errorf("row %q unresolved", row.Token)
		}
		if !strings.Contains(row.Display, "Michael Jackson") {
			t.Errorf("row display %q missing artist", row.Display)
		}
	}
}

func TestPartialFailureOutputResolution(t *testing.T) {
	r := testResolver()
	r.failDescribe[trackURIs[2]] = true
	o, err := New(idModel(t), r, 10)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	rows, err := o.MostSimilar(context.Background(), trackURIs[1], 3)
	if err != nil {
		t.Fatalf("one failed describe must not fail the request: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want all 3", len(rows))
	}

	var unresolved int
	for _, row := range rows {
		if row.Token == trackURIs[2] {
			if !row.Unresolved {
				t.Error("failed row not marked unresolved")
			}
			if row.Display != row.Token {
				t.Errorf("unresolved row display = %q, want raw token", row.Display)
			}
			unresolved++
		} else if row.Unresolved {
			t.Errorf("row %q wrongly marked unresolved", row.Token)
		}
	}
	if unresolved != 1 {
		t.Errorf("unresolved rows = %d, want 1", unresolved)
	}
}

func TestOutOfVocabularySuggestions(t *testing.T) {
	o, err := New(nameModel(t), nil, 10)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	_, err = o.MostSimilar(context.Background(), "Eminim", 3)
	if !errors.Is(err, model.ErrOutOfVocabulary) {
		t.Fatalf("expected ErrOutOfVocabulary, got %v", err)
	}
	if !strings.Contains(err.Error(), "did you mean") {
		t.Errorf("error %q has no suggestions", err)
	}
	if !strings.Contains(err.Error(), "Eminem") {
		t.Errorf("error %q does not suggest the close match", err)
	}
}

func TestOutOfVocabularyIDModelNotDecorated(t *testing.T) {
	o, err := New(idModel(t), testResolver(), 10)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	_, err = o.MostSimilar(context.Background(), "spotify:track:999", 3)
	if !errors.Is(err, model.ErrOutOfVocabulary) {
		t.Fatalf("expected ErrOutOfVocabulary, got %v", err)
	}
	if strings.Contains(err.Error(), "did you mean") {
		t.Errorf("identifier model error decorated with suggestions: %q", err)
	}
}

func TestSimilarityAndOddOneOut(t *testing.T) {
	o, err := New(nameModel(t), nil, 10)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx := context.Background()

	sim, err := o.Similarity(ctx, "Eminem", "Rihanna")
	if err != nil {
		t.Fatalf("Similarity: %v", err)
	}
	if sim < -1.0001 || sim > 1.0001 {
		t.Errorf("similarity %f out of range", sim)
	}

	row, err := o.OddOneOut(ctx, []string{"Drake", "Eminem", "Rihanna"})
	if err != nil {
		t.Fatalf("OddOneOut: %v", err)
	}
	if row.Token == "" || row.Display == "" {
		t.Errorf("empty odd-one-out row %+v", row)
	}
}

func TestContinueSuggestsUnseenTracks(t *testing.T) {
	o, err := New(idModel(t), testResolver(), 10)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	rows, err := o.Continue(context.Background(), []string{trackURIs[0], trackURIs[1]}, 2)
	if err != nil {
		t.Fatalf("Continue: %v", err)
	}
	if len(rows) == 0 {
		t.Fatal("expected continuation suggestions")
	}
	for _, row := range rows {
		if row.Token == trackURIs[0] || row.Token == trackURIs[1] {
			t.Errorf("seed %q suggested back", row.Token)
		}
		if row.Unresolved {
			t.Errorf("row %q unresolved", row.Token)
		}
	}
}

func TestAnalogyRows(t *testing.T) {
	o, err := New(nameModel(t), nil, 10)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	rows, err := o.Analogy(context.Background(), []string{"Drake", "Adele"}, []string{"Eminem"}, 2)
	if err != nil {
		t.Fatalf("Analogy: %v", err)
	}
	if len(rows) == 0 {
		t.Fatal("expected analogy rows")
	}
	for _, row := range rows {
		for _, in := range []string{"Drake", "Adele", "Eminem"} {
			if row.Token == in {
				t.Errorf("input %q returned as answer", in)
			}
		}
	}
}
