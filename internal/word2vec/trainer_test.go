package word2vec

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/AneeshPatel/MusicVec/internal/corpus"
)

// memSource is an in-memory restartable corpus for tests.
type memSource [][]string

func (m memSource) ForEach(ctx context.Context, fn func(corpus.Sequence) error) error {
	for _, seq := range m {
		if err := ctx.Err(); err != nil {
			return err
		}
		if len(seq) == 0 {
			continue
		}
		if err := fn(corpus.Sequence(seq)); err != nil {
			return err
		}
	}
	return nil
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Dimensions = 16
	cfg.EpochCount = 20
	cfg.WorkerCount = 1
	cfg.WindowSize = 2
	cfg.Seed = 42
	return cfg
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{"valid default", func(c *Config) {}, false},
		{"zero window", func(c *Config) { c.WindowSize = 0 }, true},
		{"negative window", func(c *Config) { c.WindowSize = -3 }, true},
		{"zero epochs", func(c *Config) { c.EpochCount = 0 }, true},
		{"zero dimensions", func(c *Config) { c.Dimensions = 0 }, true},
		{"zero workers", func(c *Config) { c.WorkerCount = 0 }, true},
		{"zero negative samples", func(c *Config) { c.NegativeSamples = 0 }, true},
		{"zero learning rate", func(c *Config) { c.LearningRate = 0 }, true},
		{"unknown algorithm", func(c *Config) { c.Algorithm = "skip-gram" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(&cfg)

			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("Validate() error = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestTrainEmptyCorpus(t *testing.T) {
	_, err := Train(context.Background(), memSource{}, testConfig(), nil)
	if !errors.Is(err, ErrEmptyCorpus) {
		t.Errorf("Train() error = %v, want ErrEmptyCorpus", err)
	}
}

func TestTrainInvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.WindowSize = 0

	_, err := Train(context.Background(), memSource{{"A", "B"}}, cfg, nil)
	if !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Train() error = %v, want ErrInvalidConfig", err)
	}
}

func TestTrainVocabularyOrder(t *testing.T) {
	src := memSource{
		{"Queen", "Toto", "Queen"},
		{"Toto", "ABBA"},
	}

	trained, err := Train(context.Background(), src, testConfig(), nil)
	if err != nil {
		t.Fatalf("Train() error = %v", err)
	}

	want := []string{"Queen", "Toto", "ABBA"}
	if !reflect.DeepEqual(trained.Vocab, want) {
		t.Errorf("Vocab = %v, want first-seen order %v", trained.Vocab, want)
	}
	if trained.Counts[0] != 2 {
		t.Errorf("count for Queen = %d, want 2", trained.Counts[0])
	}
	if trained.SequenceCount != 2 {
		t.Errorf("SequenceCount = %d, want 2", trained.SequenceCount)
	}
	if len(trained.Vectors) != len(want)*trained.Dims {
		t.Errorf("vector block = %d floats, want %d", len(trained.Vectors), len(want)*trained.Dims)
	}
}

func TestTrainDeterministicWithSeed(t *testing.T) {
	src := memSource{
		{"A", "B", "C"},
		{"B", "C", "D"},
		{"A", "C", "D", "B"},
	}

	first, err := Train(context.Background(), src, testConfig(), nil)
	if err != nil {
		t.Fatal(err)
	}
	second, err := Train(context.Background(), src, testConfig(), nil)
	if err != nil {
		t.Fatal(err)
	}

	if !reflect.DeepEqual(first.Vectors, second.Vectors) {
		t.Error("two single-worker runs with the same seed diverged")
	}
}

func TestTrainProgressReported(t *testing.T) {
	cfg := testConfig()
	cfg.EpochCount = 3

	var epochs []int
	_, err := Train(context.Background(), memSource{{"A", "B", "C"}}, cfg, func(epoch int, loss float32) {
		epochs = append(epochs, epoch)
	})
	if err != nil {
		t.Fatal(err)
	}

	if !reflect.DeepEqual(epochs, []int{1, 2, 3}) {
		t.Errorf("progress epochs = %v, want [1 2 3]", epochs)
	}
}

func TestGrowAddsOnlyNewTokens(t *testing.T) {
	trained, err := Train(context.Background(), memSource{{"A", "B", "C"}}, testConfig(), nil)
	if err != nil {
		t.Fatal(err)
	}
	before := len(trained.Vocab)

	added, err := Grow(context.Background(), trained, memSource{{"B", "C", "E", "F"}}, testConfig())
	if err != nil {
		t.Fatal(err)
	}

	if added != 2 {
		t.Errorf("Grow() added = %d, want 2 (E and F)", added)
	}
	if len(trained.Vocab) != before+2 {
		t.Errorf("vocab size = %d, want %d", len(trained.Vocab), before+2)
	}
	if trained.Vocab[before] != "E" || trained.Vocab[before+1] != "F" {
		t.Errorf("new tokens appended as %v, want [E F] after existing vocab", trained.Vocab[before:])
	}
	if len(trained.Vectors) != len(trained.Vocab)*trained.Dims {
		t.Error("vector block not extended to match vocab")
	}
	if len(trained.Context) != len(trained.Vocab)*trained.Dims {
		t.Error("context block not extended to match vocab")
	}
}

// faultySource yields its sequences and then fails the pass, like a slice
// file corrupting partway through a directory scan.
type faultySource [][]string

func (f faultySource) ForEach(ctx context.Context, fn func(corpus.Sequence) error) error {
	for _, seq := range f {
		if err := fn(corpus.Sequence(seq)); err != nil {
			return err
		}
	}
	return errors.New("slice file corrupted")
}

func TestGrowRollsBackOnError(t *testing.T) {
	trained, err := Train(context.Background(), memSource{{"A", "B", "C"}}, testConfig(), nil)
	if err != nil {
		t.Fatal(err)
	}
	vocab := append([]string(nil), trained.Vocab...)
	counts := append([]int64(nil), trained.Counts...)
	seqs := trained.SequenceCount
	total := trained.TotalTokens

	_, err = Grow(context.Background(), trained, faultySource{{"A", "NEW"}}, testConfig())
	if err == nil {
		t.Fatal("Grow() succeeded on a failing corpus")
	}

	if !reflect.DeepEqual(trained.Vocab, vocab) {
		t.Errorf("vocab after failed Grow = %v, want %v", trained.Vocab, vocab)
	}
	if _, ok := trained.Index["NEW"]; ok {
		t.Error("failed Grow left NEW in the index")
	}
	if !reflect.DeepEqual(trained.Counts, counts) {
		t.Errorf("counts after failed Grow = %v, want %v", trained.Counts, counts)
	}
	if trained.SequenceCount != seqs || trained.TotalTokens != total {
		t.Errorf("corpus counters after failed Grow = %d/%d, want %d/%d",
			trained.SequenceCount, trained.TotalTokens, seqs, total)
	}
	if len(trained.Vectors) != len(trained.Vocab)*trained.Dims {
		t.Errorf("vector block = %d floats for %d tokens of %d dims",
			len(trained.Vectors), len(trained.Vocab), trained.Dims)
	}
}

func TestGrowPreservesExistingVectors(t *testing.T) {
	trained, err := Train(context.Background(), memSource{{"A", "B", "C"}}, testConfig(), nil)
	if err != nil {
		t.Fatal(err)
	}
	orig := append([]float32(nil), trained.Vectors...)

	if _, err := Grow(context.Background(), trained, memSource{{"X", "Y"}}, testConfig()); err != nil {
		t.Fatal(err)
	}

	if !reflect.DeepEqual(trained.Vectors[:len(orig)], orig) {
		t.Error("Grow() modified existing vectors")
	}
}

func TestTrainMoreEmptyCorpus(t *testing.T) {
	trained, err := Train(context.Background(), memSource{{"A", "B"}}, testConfig(), nil)
	if err != nil {
		t.Fatal(err)
	}

	err = TrainMore(context.Background(), trained, memSource{}, testConfig(), nil)
	if !errors.Is(err, ErrEmptyCorpus) {
		t.Errorf("TrainMore() error = %v, want ErrEmptyCorpus", err)
	}
}

func TestTrainMoreAdjustsVectors(t *testing.T) {
	trained, err := Train(context.Background(), memSource{{"A", "B", "C"}}, testConfig(), nil)
	if err != nil {
		t.Fatal(err)
	}
	orig := append([]float32(nil), trained.Vectors...)

	err = TrainMore(context.Background(), trained, memSource{{"A", "B", "C"}, {"B", "C", "A"}}, testConfig(), nil)
	if err != nil {
		t.Fatal(err)
	}

	if reflect.DeepEqual(trained.Vectors, orig) {
		t.Error("TrainMore() left all vectors untouched")
	}
}

func TestTrainCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Train(ctx, memSource{{"A", "B"}}, testConfig(), nil)
	if err == nil {
		t.Error("expected error from cancelled context")
	}
}
