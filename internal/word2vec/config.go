// Package word2vec trains fixed-length token embeddings from playlist
// sequences using windowed co-occurrence with negative sampling.
package word2vec

import (
	"errors"
	"fmt"
	"runtime"
)

// Algorithm selects the training variant.
type Algorithm string

// AlgorithmCBOWMean is the windowed-average variant: a token is predicted
// from the mean of its context vectors. It favors throughput on frequent
// tokens, which suits playlist data.
const AlgorithmCBOWMean Algorithm = "cbow-mean"

var (
	// ErrInvalidConfig is returned for hyperparameters that cannot train.
	ErrInvalidConfig = errors.New("invalid training configuration")

	// ErrEmptyCorpus is returned when the corpus yields no sequences.
	ErrEmptyCorpus = errors.New("corpus yielded no sequences")
)

// Config holds the training hyperparameters.
type Config struct {
	Dimensions      int       `yaml:"dimensions"`
	WindowSize      int       `yaml:"window_size"`
	EpochCount      int       `yaml:"epoch_count"`
	WorkerCount     int       `yaml:"worker_count"`
	NegativeSamples int       `yaml:"negative_samples"`
	LearningRate    float32   `yaml:"learning_rate"`
	Seed            int64     `yaml:"seed"`
	Algorithm       Algorithm `yaml:"algorithm"`
}

// DefaultConfig returns the hyperparameters used for the shipped models.
func DefaultConfig() Config {
	workers := runtime.NumCPU() - 1
	if workers < 1 {
		workers = 1
	}
	return Config{
		Dimensions:      100,
		WindowSize:      10,
		EpochCount:      5,
		WorkerCount:     workers,
		NegativeSamples: 5,
		LearningRate:    0.025,
		Seed:            1,
		Algorithm:       AlgorithmCBOWMean,
	}
}

// Validate checks the hyperparameters before any work begins.
func (c Config) Validate() error {
	if c.Dimensions <= 0 {
		return fmt.Errorf("%w: dimensions must be positive, got %d", ErrInvalidConfig, c.Dimensions)
	}
	if c.WindowSize <= 0 {
		return fmt.Errorf("%w: window size must be positive, got %d", ErrInvalidConfig, c.WindowSize)
	}
	if c.EpochCount <= 0 {
		return fmt.Errorf("%w: epoch count must be positive, got %d", ErrInvalidConfig, c.EpochCount)
	}
	if c.WorkerCount < 1 {
		return fmt.Errorf("%w: worker count must be at least 1, got %d", ErrInvalidConfig, c.WorkerCount)
	}
	if c.NegativeSamples < 1 {
		return fmt.Errorf("%w: negative samples must be at least 1, got %d", ErrInvalidConfig, c.NegativeSamples)
	}
	if c.LearningRate <= 0 {
		return fmt.Errorf("%w: learning rate must be positive, got %f", ErrInvalidConfig, c.LearningRate)
	}
	if c.Algorithm != AlgorithmCBOWMean {
		return fmt.Errorf("%w: unknown algorithm %q", ErrInvalidConfig, c.Algorithm)
	}
	return nil
}
