package model

import "errors"

var (
	// ErrOutOfVocabulary is returned when a query names a token the model
	// never saw during training or update. Queries fail closed on it;
	// no operation substitutes a default score.
	ErrOutOfVocabulary = errors.New("token not in model vocabulary")

	// ErrEmptyQuery is returned when a query provides no usable tokens.
	ErrEmptyQuery = errors.New("query contains no tokens")

	// ErrNotTrained is returned when Update is called before any training.
	ErrNotTrained = errors.New("model has not been trained")

	// ErrCorruptArtifact is returned when a model artifact has an
	// unrecognized format version or is internally inconsistent.
	ErrCorruptArtifact = errors.New("corrupt model artifact")

	// ErrInvalidTopN is returned for non-positive result counts.
	ErrInvalidTopN = errors.New("topN must be positive")
)
