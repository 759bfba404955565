package similarity

import (
	"context"
	"fmt"
	"io"
	"sync"

	"go.uber.org/zap"
)

// Clustering thresholds used by the analyzers
const (
	ThemeThreshold         = 0.5
	QualificationThreshold = 0.6
	AliasThreshold         = 0.8
)

// EmbedderFactory constructs the embedding model on first use
type EmbedderFactory func() (Embedder, error)

// Service is the similarity capability shared by the analyzers. The embedding
// model is constructed lazily, once, and is read-only afterwards.
type Service struct {
	factory EmbedderFactory
	logger  *zap.Logger

	once     sync.Once
	embedder Embedder
	initErr  error
}

// NewService creates a service whose model is built by factory on first use
func NewService(factory EmbedderFactory, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{factory: factory, logger: logger}
}

// NewServiceWithEmbedder creates a service around an already constructed embedder
func NewServiceWithEmbedder(e Embedder) *Service {
	return NewService(func() (Embedder, error) { return e, nil }, nil)
}

var (
	defaultService     *Service
	defaultServiceOnce sync.Once
)

// Default returns the process-wide service backed by the local sentence
// model, falling back to the hashing embedder when the model is unavailable
func Default() *Service {
	defaultServiceOnce.Do(func() {
		defaultService = NewService(LocalFactory(DefaultSentenceConfig(), nil), nil)
	})
	return defaultService
}

// Close releases the embedding model if it was loaded. The service cannot
// embed afterwards.
func (s *Service) Close() error {
	s.once.Do(func() {
		s.initErr = &EmbeddingError{Message: "similarity service closed"}
	})
	if c, ok := s.embedder.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func (s *Service) model() (Embedder, error) {
	s.once.Do(func() {
		if s.factory == nil {
			s.initErr = &EmbeddingError{Message: "no embedder configured"}
			return
		}
		s.embedder, s.initErr = s.factory()
		if s.initErr != nil {
			s.initErr = &EmbeddingError{Message: "failed to load embedding model", Cause: s.initErr}
			return
		}
		s.logger.Debug("embedding model loaded", zap.Int("dimension", s.embedder.Dimension()))
	})
	return s.embedder, s.initErr
}

// Embed returns one L2-normalized vector per text. Duplicate texts are embedded once.
func (s *Service) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	m, err := s.model()
	if err != nil {
		return nil, err
	}

	index := make(map[string]int, len(texts))
	unique := make([]string, 0, len(texts))
	for _, t := range texts {
		if _, ok := index[t]; !ok {
			index[t] = len(unique)
			unique = append(unique, t)
		}
	}

	vectors, err := m.Embed(ctx, unique)
	if err != nil {
		return nil, &EmbeddingError{Message: fmt.Sprintf("failed to embed %d texts", len(unique)), Cause: err}
	}
	if len(vectors) != len(unique) {
		return nil, &EmbeddingError{Message: fmt.Sprintf("embedder returned %d vectors for %d texts", len(vectors), len(unique))}
	}

	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = vectors[index[t]]
	}
	return out, nil
}

// Similarities embeds texts and returns their pairwise cosine matrix
func (s *Service) Similarities(ctx context.Context, texts []string) ([][]float64, error) {
	vectors, err := s.Embed(ctx, texts)
	if err != nil {
		return nil, err
	}
	return PairwiseCosine(vectors), nil
}

// ClusterIndices clusters texts and returns groups of input indices.
// Empty input yields no clusters; a single input yields [[0]].
func (s *Service) ClusterIndices(ctx context.Context, texts []string, threshold float64) ([][]int, error) {
	switch len(texts) {
	case 0:
		return [][]int{}, nil
	case 1:
		return [][]int{{0}}, nil
	}
	sim, err := s.Similarities(ctx, texts)
	if err != nil {
		return nil, err
	}
	return averageLinkage(sim, threshold), nil
}

// Cluster groups near-duplicate texts. Items keep their input order within each cluster.
func (s *Service) Cluster(ctx context.Context, texts []string, threshold float64) ([][]string, error) {
	groups, err := s.ClusterIndices(ctx, texts, threshold)
	if err != nil {
		return nil, err
	}
	clusters := make([][]string, len(groups))
	for i, g := range groups {
		clusters[i] = make([]string, len(g))
		for j, idx := range g {
			clusters[i][j] = texts[idx]
		}
	}
	return clusters, nil
}
