package embeddings

import (
	"context"
	"math"
	"sort"

	"go.uber.org/zap"
)

// Sampler selects which venue samples accompany a manuscript into a prompt.
//
// Select returns at most k samples. Implementations must never fail the
// caller: when ranking is impossible they degrade to the leading samples.
type Sampler interface {
	Select(ctx context.Context, abstract string, samples []string, k int) []string
}

// PrefixSampler takes the first k samples in submission order. It is the
// fallback when the embedding service is disabled.
type PrefixSampler struct{}

// Select returns the first k samples.
func (PrefixSampler) Select(_ context.Context, _ string, samples []string, k int) []string {
	if k <= 0 || len(samples) == 0 {
		return nil
	}
	if len(samples) <= k {
		return samples
	}
	return samples[:k]
}

// SimilaritySampler ranks samples by cosine similarity between their
// embeddings and the manuscript abstract, most similar first.
type SimilaritySampler struct {
	embedder interface {
		Embed(ctx context.Context, texts []string) ([][]float32, error)
	}
	logger *zap.Logger
}

// NewSimilaritySampler creates a sampler backed by the embedding service.
func NewSimilaritySampler(service *Service, logger *zap.Logger) *SimilaritySampler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SimilaritySampler{embedder: service, logger: logger}
}

// Select returns the k samples most similar to the abstract. One embedding
// call covers the abstract and every sample. When the embedding service is
// unreachable or the abstract is empty, the leading samples are used so a
// review never fails over a ranking nicety.
func (s *SimilaritySampler) Select(ctx context.Context, abstract string, samples []string, k int) []string {
	if k <= 0 || len(samples) == 0 {
		return nil
	}
	if len(samples) <= k {
		return samples
	}
	if abstract == "" {
		return samples[:k]
	}

	texts := make([]string, 0, len(samples)+1)
	texts = append(texts, abstract)
	texts = append(texts, samples...)

	vectors, err := s.embedder.Embed(ctx, texts)
	if err != nil || len(vectors) != len(texts) {
		s.logger.Warn("sample ranking unavailable, using leading samples",
			zap.Int("samples", len(samples)),
			zap.Error(err))
		return samples[:k]
	}

	type scored struct {
		idx   int
		score float64
	}
	ranked := make([]scored, len(samples))
	for i := range samples {
		ranked[i] = scored{idx: i, score: cosine(vectors[0], vectors[i+1])}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})

	selected := make([]string, 0, k)
	for _, r := range ranked[:k] {
		selected = append(selected, samples[r.idx])
	}
	return selected
}

// cosine computes cosine similarity between two vectors. Mismatched or
// zero-magnitude vectors score 0.
func cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

var (
	_ Sampler = PrefixSampler{}
	_ Sampler = (*SimilaritySampler)(nil)
)
