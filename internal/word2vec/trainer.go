package word2vec

import (
	"context"
	"math"
	"math/rand"
	"sync"
	"sync/atomic"

	"github.com/chewxy/math32"
	"github.com/viterin/vek/vek32"

	"github.com/AneeshPatel/MusicVec/internal/corpus"
)

const (
	maxExp       = 6.0
	expTableSize = 1000
	tableSize    = 1 << 18
	samplingPow  = 0.75
)

// ProgressFunc observes training progress. Called once per completed epoch
// with the average loss over that epoch.
type ProgressFunc func(epoch int, loss float32)

// Trained holds the learned state: the vocabulary in first-seen order, one
// input vector per token, the negative-sampling output layer, and token
// frequencies. The vocabulary order is load-bearing: it is the
// deterministic tie-break for every ranked query downstream.
type Trained struct {
	Dims          int
	Vocab         []string
	Index         map[string]int
	Counts        []int64
	Vectors       []float32 // input layer, row-major, len(Vocab)*Dims
	Context       []float32 // output layer, same shape
	SequenceCount int64
	TotalTokens   int64
}

// Vector returns the input vector for vocabulary index i. The returned
// slice aliases the trained state; callers must not mutate it.
func (t *Trained) Vector(i int) []float32 {
	return t.Vectors[i*t.Dims : (i+1)*t.Dims]
}

// Lookup returns the vector for a token, or false if it is out of vocabulary.
func (t *Trained) Lookup(token string) ([]float32, bool) {
	i, ok := t.Index[token]
	if !ok {
		return nil, false
	}
	return t.Vector(i), true
}

func (t *Trained) contextRow(i int) []float32 {
	return t.Context[i*t.Dims : (i+1)*t.Dims]
}

// Snapshot deep-copies the trained state so an incremental update can be
// rolled back wholesale if it fails partway.
func (t *Trained) Snapshot() *Trained {
	snap := &Trained{
		Dims:          t.Dims,
		Vocab:         append([]string(nil), t.Vocab...),
		Index:         make(map[string]int, len(t.Index)),
		Counts:        append([]int64(nil), t.Counts...),
		Vectors:       append([]float32(nil), t.Vectors...),
		Context:       append([]float32(nil), t.Context...),
		SequenceCount: t.SequenceCount,
		TotalTokens:   t.TotalTokens,
	}
	for token, i := range t.Index {
		snap.Index[token] = i
	}
	return snap
}

// Train learns embeddings from the corpus. The corpus is streamed, never
// materialized: one pass builds the vocabulary, then EpochCount passes run
// the CBOW updates across WorkerCount goroutines. On any failure nothing
// partial is returned.
func Train(ctx context.Context, src corpus.Source, cfg Config, progress ProgressFunc) (*Trained, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	t := &Trained{
		Dims:  cfg.Dimensions,
		Index: make(map[string]int),
	}
	if err := t.absorbVocab(ctx, src); err != nil {
		return nil, err
	}
	if t.SequenceCount == 0 {
		return nil, ErrEmptyCorpus
	}

	t.Vectors = make([]float32, 0, len(t.Vocab)*t.Dims)
	rng := rand.New(rand.NewSource(cfg.Seed))
	for range t.Vocab {
		t.Vectors = append(t.Vectors, seedVector(rng, t.Dims)...)
	}
	t.Context = make([]float32, len(t.Vocab)*t.Dims)

	tr := newTrainer(t, cfg, t.TotalTokens*int64(cfg.EpochCount))
	for epoch := 1; epoch <= cfg.EpochCount; epoch++ {
		loss, err := tr.runEpoch(ctx, src, epoch)
		if err != nil {
			return nil, err
		}
		if progress != nil {
			progress(epoch, loss)
		}
	}
	return t, nil
}

// Grow extends the vocabulary with tokens from an additional corpus. New
// tokens are appended after the existing vocabulary in first-seen order and
// receive seeded starting vectors; existing vectors are untouched. Returns
// the count of genuinely new tokens.
func Grow(ctx context.Context, t *Trained, src corpus.Source, cfg Config) (int, error) {
	before := len(t.Vocab)
	counts := append([]int64(nil), t.Counts...)
	seqs := t.SequenceCount
	total := t.TotalTokens

	if err := t.absorbVocab(ctx, src); err != nil {
		// A failed pass must leave the state exactly as it was: every
		// ranked query walks the whole vocabulary, and a token without a
		// vector is a panic, not an error.
		for _, token := range t.Vocab[before:] {
			delete(t.Index, token)
		}
		t.Vocab = t.Vocab[:before]
		t.Counts = counts
		t.SequenceCount = seqs
		t.TotalTokens = total
		return 0, err
	}
	added := len(t.Vocab) - before
	if added == 0 {
		return 0, nil
	}

	rng := rand.New(rand.NewSource(cfg.Seed + int64(before)))
	for i := 0; i < added; i++ {
		t.Vectors = append(t.Vectors, seedVector(rng, t.Dims)...)
	}
	t.Context = append(t.Context, make([]float32, added*t.Dims)...)
	return added, nil
}

// TrainMore runs training epochs over an additional corpus only, adjusting
// the existing vectors without discarding prior structure. The corpus must
// already have been absorbed via Grow.
func TrainMore(ctx context.Context, t *Trained, src corpus.Source, cfg Config, progress ProgressFunc) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	var tokens int64
	var seqs int64
	err := src.ForEach(ctx, func(seq corpus.Sequence) error {
		seqs++
		tokens += int64(len(seq))
		return nil
	})
	if err != nil {
		return err
	}
	if seqs == 0 {
		return ErrEmptyCorpus
	}

	tr := newTrainer(t, cfg, tokens*int64(cfg.EpochCount))
	for epoch := 1; epoch <= cfg.EpochCount; epoch++ {
		loss, err := tr.runEpoch(ctx, src, epoch)
		if err != nil {
			return err
		}
		if progress != nil {
			progress(epoch, loss)
		}
	}
	return nil
}

// absorbVocab adds every unseen token in first-seen order and accumulates
// frequencies and corpus counters.
func (t *Trained) absorbVocab(ctx context.Context, src corpus.Source) error {
	return src.ForEach(ctx, func(seq corpus.Sequence) error {
		t.SequenceCount++
		t.TotalTokens += int64(len(seq))
		for _, token := range seq {
			if i, ok := t.Index[token]; ok {
				t.Counts[i]++
				continue
			}
			t.Index[token] = len(t.Vocab)
			t.Vocab = append(t.Vocab, token)
			t.Counts = append(t.Counts, 1)
		}
		return nil
	})
}

func seedVector(rng *rand.Rand, dims int) []float32 {
	v := make([]float32, dims)
	for i := range v {
		v[i] = (rng.Float32() - 0.5) / float32(dims)
	}
	return v
}

// trainer holds the per-run state shared by all workers.
type trainer struct {
	t         *Trained
	cfg       Config
	table     []int32
	expTable  []float32
	totalWork int64
	processed atomic.Int64
}

func newTrainer(t *Trained, cfg Config, totalWork int64) *trainer {
	tr := &trainer{
		t:         t,
		cfg:       cfg,
		totalWork: totalWork,
	}
	tr.buildSamplingTable()
	tr.buildExpTable()
	return tr
}

// buildSamplingTable fills the unigram table used for negative draws,
// smoothed by the standard 0.75 power.
func (tr *trainer) buildSamplingTable() {
	var total float64
	for _, c := range tr.t.Counts {
		total += math.Pow(float64(c), samplingPow)
	}

	tr.table = make([]int32, tableSize)
	var cum float64
	idx := 0
	for i := range tr.table {
		tr.table[i] = int32(idx)
		if float64(i)/tableSize > cum/total && idx < len(tr.t.Counts)-1 {
			cum += math.Pow(float64(tr.t.Counts[idx]), samplingPow)
			idx++
		}
	}
}

func (tr *trainer) buildExpTable() {
	tr.expTable = make([]float32, expTableSize)
	for i := range tr.expTable {
		x := math32.Exp((float32(i)/expTableSize*2 - 1) * maxExp)
		tr.expTable[i] = x / (x + 1)
	}
}

func (tr *trainer) sigmoid(f float32) float32 {
	idx := int((f + maxExp) * (expTableSize / maxExp / 2))
	if idx < 0 {
		idx = 0
	} else if idx >= expTableSize {
		idx = expTableSize - 1
	}
	return tr.expTable[idx]
}

// runEpoch streams the corpus once, fanning playlists out to workers.
// Workers update the shared layers without locks; lock-free overlapping
// updates are standard word2vec practice and converge in aggregate.
func (tr *trainer) runEpoch(ctx context.Context, src corpus.Source, epoch int) (float32, error) {
	seqCh := make(chan corpus.Sequence, 4*tr.cfg.WorkerCount)
	losses := make([]float64, tr.cfg.WorkerCount)
	counts := make([]int64, tr.cfg.WorkerCount)

	var wg sync.WaitGroup
	for w := 0; w < tr.cfg.WorkerCount; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			seed := tr.cfg.Seed + int64(epoch)*1_000_003 + int64(w)
			rng := rand.New(rand.NewSource(seed))
			work := newWorkerState(tr.t.Dims)
			for seq := range seqCh {
				loss, n := tr.trainSequence(seq, rng, work)
				losses[w] += float64(loss)
				counts[w] += n
			}
		}(w)
	}

	err := src.ForEach(ctx, func(seq corpus.Sequence) error {
		select {
		case seqCh <- seq:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})
	close(seqCh)
	wg.Wait()
	if err != nil {
		return 0, err
	}

	var loss float64
	var n int64
	for w := range losses {
		loss += losses[w]
		n += counts[w]
	}
	if n == 0 {
		return 0, nil
	}
	return float32(loss / float64(n)), nil
}

// workerState holds reusable per-worker buffers.
type workerState struct {
	neu1  []float32 // mean of context vectors
	neu1e []float32 // accumulated error for the context
	ids   []int
}

func newWorkerState(dims int) *workerState {
	return &workerState{
		neu1:  make([]float32, dims),
		neu1e: make([]float32, dims),
	}
}

// trainSequence applies one CBOW pass over a playlist. For each position a
// reduced window of surrounding tokens is averaged, the center token plus
// negative draws are scored against that mean, and the error is folded back
// into the context tokens' vectors.
func (tr *trainer) trainSequence(seq corpus.Sequence, rng *rand.Rand, work *workerState) (float32, int64) {
	t := tr.t

	work.ids = work.ids[:0]
	for _, token := range seq {
		if i, ok := t.Index[token]; ok {
			work.ids = append(work.ids, i)
		}
	}
	ids := work.ids
	if len(ids) < 2 {
		tr.processed.Add(int64(len(ids)))
		return 0, 0
	}

	var loss float32
	var trained int64
	for pos, center := range ids {
		lr := tr.learningRate()
		window := rng.Intn(tr.cfg.WindowSize) + 1

		lo := pos - window
		if lo < 0 {
			lo = 0
		}
		hi := pos + window
		if hi >= len(ids) {
			hi = len(ids) - 1
		}

		for i := range work.neu1 {
			work.neu1[i] = 0
			work.neu1e[i] = 0
		}
		count := 0
		for c := lo; c <= hi; c++ {
			if c == pos {
				continue
			}
			vek32.Add_Inplace(work.neu1, t.Vector(ids[c]))
			count++
		}
		if count == 0 {
			continue
		}
		inv := 1 / float32(count)
		for i := range work.neu1 {
			work.neu1[i] *= inv
		}

		// Positive target plus negative draws.
		for s := 0; s <= tr.cfg.NegativeSamples; s++ {
			var target int
			var label float32
			if s == 0 {
				target = center
				label = 1
			} else {
				target = int(tr.table[rng.Intn(tableSize)])
				if target == center {
					continue
				}
			}
			row := t.contextRow(target)
			f := vek32.Dot(work.neu1, row)

			var grad float32
			switch {
			case f > maxExp:
				grad = (label - 1) * lr
			case f < -maxExp:
				grad = label * lr
			default:
				sig := tr.sigmoid(f)
				grad = (label - sig) * lr
				if label == 1 {
					loss += -math32.Log(sig + 1e-10)
				} else {
					loss += -math32.Log(1 - sig + 1e-10)
				}
			}
			for i := range row {
				work.neu1e[i] += grad * row[i]
				row[i] += grad * work.neu1[i]
			}
		}

		for c := lo; c <= hi; c++ {
			if c == pos {
				continue
			}
			vek32.Add_Inplace(t.Vector(ids[c]), work.neu1e)
		}
		trained++
		tr.processed.Add(1)
	}
	return loss, trained
}

// learningRate decays linearly with processed tokens, floored at 1e-4 of
// the starting rate.
func (tr *trainer) learningRate() float32 {
	done := tr.processed.Load()
	frac := 1 - float32(done)/float32(tr.totalWork+1)
	lr := tr.cfg.LearningRate * frac
	if min := tr.cfg.LearningRate * 1e-4; lr < min {
		lr = min
	}
	return lr
}
