package embeddings

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type stubEmbedder struct {
	vectors [][]float32
	err     error
	calls   int
}

func (s *stubEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.vectors[:len(texts)], nil
}

func TestCosine(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 0}, []float32{1, 0}, 1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1},
		{"zero vector", []float32{0, 0}, []float32{1, 0}, 0},
		{"mismatched length", []float32{1, 0}, []float32{1}, 0},
		{"empty", nil, nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, cosine(tt.a, tt.b), 1e-9)
		})
	}
}

func TestPrefixSampler(t *testing.T) {
	samples := []string{"a", "b", "c", "d"}
	s := PrefixSampler{}

	assert.Equal(t, []string{"a", "b"}, s.Select(context.Background(), "", samples, 2))
	assert.Equal(t, samples, s.Select(context.Background(), "", samples, 10))
	assert.Nil(t, s.Select(context.Background(), "", samples, 0))
	assert.Nil(t, s.Select(context.Background(), "", nil, 3))
}

func TestSimilaritySampler_RanksBySimilarity(t *testing.T) {
	// Index 0 is the abstract; samples follow in submission order.
	stub := &stubEmbedder{vectors: [][]float32{
		{1, 0},       // abstract
		{0.9, 0.1},   // s1: close
		{0, 1},       // s2: orthogonal
		{0.95, 0.05}, // s3: closest
	}}
	s := &SimilaritySampler{embedder: stub, logger: zap.NewNop()}

	got := s.Select(context.Background(), "We study sparse attention.", []string{"s1", "s2", "s3"}, 2)
	assert.Equal(t, []string{"s3", "s1"}, got)
	assert.Equal(t, 1, stub.calls)
}

func TestSimilaritySampler_FallsBackOnEmbedError(t *testing.T) {
	stub := &stubEmbedder{err: errors.New("tei unreachable")}
	s := &SimilaritySampler{embedder: stub, logger: zap.NewNop()}

	got := s.Select(context.Background(), "abstract", []string{"s1", "s2", "s3"}, 2)
	assert.Equal(t, []string{"s1", "s2"}, got)
}

func TestSimilaritySampler_SkipsEmbeddingWhenNotNeeded(t *testing.T) {
	stub := &stubEmbedder{}
	s := &SimilaritySampler{embedder: stub, logger: zap.NewNop()}

	// Fewer samples than k: nothing to rank.
	got := s.Select(context.Background(), "abstract", []string{"s1", "s2"}, 3)
	assert.Equal(t, []string{"s1", "s2"}, got)
	assert.Zero(t, stub.calls)

	// Empty abstract: ranking has no anchor.
	got = s.Select(context.Background(), "", []string{"s1", "s2", "s3"}, 2)
	assert.Equal(t, []string{"s1", "s2"}, got)
	assert.Zero(t, stub.calls)
}

func TestServiceConfig_Validate(t *testing.T) {
	valid := Config{BaseURL: "http://localhost:8080/v1", Model: "BAAI/bge-small-en-v1.5"}
	assert.NoError(t, valid.Validate())

	missingURL := Config{Model: "BAAI/bge-small-en-v1.5"}
	assert.ErrorIs(t, missingURL.Validate(), ErrInvalidConfig)

	missingModel := Config{BaseURL: "http://localhost:8080/v1"}
	assert.ErrorIs(t, missingModel.Validate(), ErrInvalidConfig)
}

func TestNewService(t *testing.T) {
	t.Run("valid config", func(t *testing.T) {
		svc, err := NewService(Config{
			BaseURL: "http://localhost:8080/v1",
			Model:   "BAAI/bge-small-en-v1.5",
		})
		assert.NoError(t, err)
		assert.NotNil(t, svc)
	})

	t.Run("invalid config", func(t *testing.T) {
		_, err := NewService(Config{})
		assert.ErrorIs(t, err, ErrInvalidConfig)
	})
}

func TestService_EmbedRejectsEmptyInput(t *testing.T) {
	svc, err := NewService(Config{
		BaseURL: "http://localhost:8080/v1",
		Model:   "BAAI/bge-small-en-v1.5",
	})
	assert.NoError(t, err)

	_, err = svc.Embed(context.Background(), nil)
	assert.ErrorIs(t, err, ErrEmptyInput)
}
