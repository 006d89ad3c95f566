package model

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/renameio"

	"github.com/AneeshPatel/MusicVec/internal/corpus"
	"github.com/AneeshPatel/MusicVec/internal/word2vec"
)

// Artifact format: magic, format version, metadata header, vocabulary with
// token frequencies, then the two vector blocks. All integers little-endian.
var artifactMagic = [4]byte{'M', 'V', 'E', 'C'}

const artifactVersion uint16 = 1

const maxTokenLen = 1 << 16 // tokens are names or URIs, never this long

// Save persists the full model state to path. The write is atomic: the
// artifact is staged in a temp file and renamed into place, so a crash
// mid-save never leaves a corrupt artifact behind.
func (m *Model) Save(path string) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.t == nil || len(m.t.Vocab) == 0 {
		return ErrNotTrained
	}

	var buf bytes.Buffer
	if err := m.encode(&buf); err != nil {
		return fmt.Errorf("encoding model: %w", err)
	}
	if err := renameio.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("writing artifact: %w", err)
	}
	return nil
}

// Load restores a model from an artifact written by Save. The artifact is
// rejected whole on an unrecognized version or any internal inconsistency;
// there is no partial load.
func Load(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading artifact: %w", err)
	}

	m, err := decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorruptArtifact, path, err)
	}
	return m, nil
}

func (m *Model) encode(w io.Writer) error {
	if _, err := w.Write(artifactMagic[:]); err != nil {
		return err
	}
	fields := []any{
		artifactVersion,
		int32(m.meta.Dimensions),
		int32(m.meta.Training.WindowSize),
		int32(m.meta.Training.EpochCount),
		int32(m.meta.Training.WorkerCount),
		int32(m.meta.Training.NegativeSamples),
		m.meta.Training.LearningRate,
		m.meta.Training.Seed,
		m.meta.SequenceCount,
		int32(m.meta.UpdateCount),
		m.meta.TrainedAt.UnixNano(),
	}
	for _, f := range fields {
		if err := binary.Write(w, binary.LittleEndian, f); err != nil {
			return err
		}
	}
	if err := writeString(w, string(m.meta.Kind)); err != nil {
		return err
	}
	if err := writeString(w, string(m.meta.Training.Algorithm)); err != nil {
		return err
	}

	if err := binary.Write(w, binary.LittleEndian, int32(len(m.t.Vocab))); err != nil {
		return err
	}
	for i, token := range m.t.Vocab {
		if err := writeString(w, token); err != nil {
			return err
		}
		if err := binary.Write(w, binary.LittleEndian, m.t.Counts[i]); err != nil {
			return err
		}
	}
	if err := binary.Write(w, binary.LittleEndian, m.t.Vectors); err != nil {
		return err
	}
	return binary.Write(w, binary.LittleEndian, m.t.Context)
}

func decode(r *bytes.Reader) (*Model, error) {
	var magic [4]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return nil, err
	}
	if magic != artifactMagic {
		return nil, fmt.Errorf("bad magic %q", magic)
	}

	var version uint16
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return nil, err
	}
	if version != artifactVersion {
		return nil, fmt.Errorf("unrecognized format version %d", version)
	}

	var (
		dims, window, epochs, workers, negative, updateCount int32
		lr                                                   float32
		seed, seqCount, trainedAt                            int64
	)
	for _, f := range []any{&dims, &window, &epochs, &workers, &negative, &lr, &seed, &seqCount, &updateCount, &trainedAt} {
		if err := binary.Read(r, binary.LittleEndian, f); err != nil {
			return nil, err
		}
	}
	kind, err := readString(r)
	if err != nil {
		return nil, err
	}
	algorithm, err := readString(r)
	if err != nil {
		return nil, err
	}

	if dims <= 0 {
		return nil, fmt.Errorf("non-positive dimensions %d", dims)
	}
	if kind != string(corpus.KindName) && kind != string(corpus.KindID) {
		return nil, fmt.Errorf("unknown token kind %q", kind)
	}

	var vocabCount int32
	if err := binary.Read(r, binary.LittleEndian, &vocabCount); err != nil {
		return nil, err
	}
	if vocabCount <= 0 {
		return nil, fmt.Errorf("non-positive vocabulary count %d", vocabCount)
	}

	t := &word2vec.Trained{
		Dims:          int(dims),
		Vocab:         make([]string, 0, vocabCount),
		Index:         make(map[string]int, vocabCount),
		Counts:        make([]int64, 0, vocabCount),
		SequenceCount: seqCount,
	}
	for i := 0; i < int(vocabCount); i++ {
		token, err := readString(r)
		if err != nil {
			return nil, err
		}
		if _, dup := t.Index[token]; dup {
			return nil, fmt.Errorf("duplicate token %q", token)
		}
		var count int64
		if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
			return nil, err
		}
		t.Index[token] = i
		t.Vocab = append(t.Vocab, token)
		t.Counts = append(t.Counts, count)
		t.TotalTokens += count
	}

	floats := int(vocabCount) * int(dims)
	t.Vectors = make([]float32, floats)
	if err := binary.Read(r, binary.LittleEndian, t.Vectors); err != nil {
		return nil, fmt.Errorf("vector block does not match vocabulary: %w", err)
	}
	t.Context = make([]float32, floats)
	if err := binary.Read(r, binary.LittleEndian, t.Context); err != nil {
		return nil, fmt.Errorf("context block does not match vocabulary: %w", err)
	}
	if r.Len() != 0 {
		return nil, fmt.Errorf("%d trailing bytes", r.Len())
	}

	return &Model{
		meta: Meta{
			Kind:       corpus.TokenKind(kind),
			Dimensions: int(dims),
			Training: word2vec.Config{
				Dimensions:      int(dims),
				WindowSize:      int(window),
				EpochCount:      int(epochs),
				WorkerCount:     int(workers),
				NegativeSamples: int(negative),
				LearningRate:    lr,
				Seed:            seed,
				Algorithm:       word2vec.Algorithm(algorithm),
			},
			SequenceCount: seqCount,
			UpdateCount:   int(updateCount),
			TrainedAt:     time.Unix(0, trainedAt).UTC(),
		},
		t: t,
	}, nil
}

func writeString(w io.Writer, s string) error {
	if err := binary.Write(w, binary.LittleEndian, uint32(len(s))); err != nil {
		return err
	}
	_, err := w.Write([]byte(s))
	return err
}

func readString(r *bytes.Reader) (string, error) {
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return "", err
	}
	if n > maxTokenLen {
		return "", fmt.Errorf("string length %d exceeds limit", n)
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return "", err
	}
	return string(b), nil
}
