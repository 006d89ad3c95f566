// Package query mediates between human-facing input and a trained model. For
// models keyed by opaque catalog identifiers it runs the resolution protocol:
// free text in, a candidate list out, a selection back, and display metadata
// attached to every result row on the way out.
package query

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/AneeshPatel/MusicVec/internal/catalog"
	"github.com/AneeshPatel/MusicVec/internal/model"
)

var (
	// ErrNoResolver is returned when an identifier-keyed model is wired
	// without a catalog resolver.
	ErrNoResolver = errors.New("identifier model requires a catalog resolver")

	// ErrNoSelection is returned when a session token is requested before a
	// candidate has been selected.
	ErrNoSelection = errors.New("no candidate selected")

	// ErrSelectionOutOfRange is returned for a selection index outside the
	// candidate list.
	ErrSelectionOutOfRange = errors.New("selection out of range")
)

// State is where a resolution session currently stands.
type State string

const (
	// StateAwaitingSelection means candidates are ready and the session is
	// suspended until the interactive surface picks one or aborts.
	StateAwaitingSelection State = "awaiting-selection"

	// StateResolved means the session carries a usable token.
	StateResolved State = "resolved"

	// StateNoMatch means the catalog returned zero candidates. This is a
	// terminal outcome, not an error.
	StateNoMatch State = "no-match"

	// StateAborted means the caller explicitly declined all candidates.
	StateAborted State = "aborted"
)

// Resolver is the catalog contract the orchestrator depends on.
type Resolver interface {
	Search(ctx context.Context, freeText string, limit int) ([]catalog.Candidate, error)
	Describe(ctx context.Context, uri string) (catalog.Entry, error)
}

// Session is one resolution in flight. It is an explicit suspension point:
// the orchestrator never blocks waiting for a selection, it hands the
// session back and resumes when Select or Abort is called. Sessions are not
// safe for concurrent use; each belongs to one interaction.
type Session struct {
	state      State
	query      string
	candidates []catalog.Candidate
	token      string
}

// State reports where the session stands.
func (s *Session) State() State { return s.state }

// Query returns the free text the session was opened with.
func (s *Session) Query() string { return s.query }

// Candidates returns the list awaiting selection, in catalog rank order.
func (s *Session) Candidates() []catalog.Candidate { return s.candidates }

// Select resolves the session to the i-th candidate (zero-based).
func (s *Session) Select(i int) error {
	if s.state != StateAwaitingSelection {
		return fmt.Errorf("cannot select in state %q", s.state)
	}
	if i < 0 || i >= len(s.candidates) {
		return fmt.Errorf("%w: %d of %d", ErrSelectionOutOfRange, i, len(s.candidates))
	}
	s.token = s.candidates[i].URI
	s.state = StateResolved
	return nil
}

// Abort terminates a pending session without a selection.
func (s *Session) Abort() {
	if s.state == StateAwaitingSelection {
		s.state = StateAborted
	}
}

// Token returns the resolved token, or ErrNoSelection if the session never
// reached the resolved state.
func (s *Session) Token() (string, error) {
	if s.state != StateResolved {
		return "", fmt.Errorf("%w: session is %q", ErrNoSelection, s.state)
	}
	return s.token, nil
}

// Orchestrator runs queries against one model, resolving tokens through the
// catalog when the model is keyed by opaque identifiers. Which model is
// active is fixed at construction; run one orchestrator per model.
type Orchestrator struct {
	model         *model.Model
	resolver      Resolver
	maxCandidates int

	graphOnce sync.Once
	graph     *model.SuggestionGraph
}

// New creates an orchestrator for a model. The resolver may be nil for
// name-keyed models; identifier-keyed models require one.
func New(m *model.Model, resolver Resolver, maxCandidates int) (*Orchestrator, error) {
	if m.NeedsResolution() && resolver == nil {
		return nil, ErrNoResolver
	}
	if maxCandidates <= 0 {
		maxCandidates = 10
	}
	return &Orchestrator{model: m, resolver: resolver, maxCandidates: maxCandidates}, nil
}

// Model returns the model the orchestrator queries.
func (o *Orchestrator) Model() *model.Model { return o.model }

// Resolve turns free text into a session. For name-keyed models the text is
// the token and the session starts resolved. For identifier-keyed models the
// catalog is searched and the session suspends on the candidate list; even a
// single candidate awaits confirmation rather than being assumed correct.
func (o *Orchestrator) Resolve(ctx context.Context, freeText string) (*Session, error) {
	text := strings.TrimSpace(freeText)
	if text == "" {
		return nil, model.ErrEmptyQuery
	}

	if !o.model.NeedsResolution() {
		return &Session{state: StateResolved, query: text, token: text}, nil
	}

	candidates, err := o.resolver.Search(ctx, text, o.maxCandidates)
	if err != nil {
		return nil, fmt.Errorf("searching catalog for %q: %w", text, err)
	}
	if len(candidates) == 0 {
		return &Session{state: StateNoMatch, query: text}, nil
	}
	return &Session{state: StateAwaitingSelection, query: text, candidates: candidates}, nil
}
