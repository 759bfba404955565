package llm

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	assert.Equal(t, ProviderGemini, config.Provider)
	assert.Equal(t, DefaultEmbeddingModel, config.Model)
	assert.Equal(t, 768, config.Dimension)
	assert.Equal(t, MaxBatchSize, config.batchSize())
}

func TestWithModel(t *testing.T) {
	config := DefaultConfig()
	newConfig := config.WithModel("custom-embedding")

	// Original should be unchanged
	assert.Equal(t, DefaultEmbeddingModel, config.Model)
	assert.Equal(t, "custom-embedding", newConfig.Model)
	assert.Equal(t, config.Dimension, newConfig.Dimension)

	assert.Equal(t, DefaultEmbeddingModel, config.WithModel("").Model)
}

func TestBatchSize_Capped(t *testing.T) {
	assert.Equal(t, MaxBatchSize, (&Config{BatchSize: 500}).batchSize())
	assert.Equal(t, MaxBatchSize, (&Config{}).batchSize())
	assert.Equal(t, 10, (&Config{BatchSize: 10}).batchSize())
}

func TestNormalize(t *testing.T) {
	v := Normalize([]float32{3, 4})
	assert.InDelta(t, 0.6, v[0], 1e-6)
	assert.InDelta(t, 0.8, v[1], 1e-6)

	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	assert.InDelta(t, 1.0, math.Sqrt(sum), 1e-6)

	assert.Equal(t, []float32{0, 0}, Normalize([]float32{0, 0}))
}

func TestNewGeminiEmbedder_RequiresAPIKey(t *testing.T) {
	_, err := NewGeminiEmbedder(context.Background(), nil, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API key is required")
}

func TestNewGeminiEmbedder_RequiresModel(t *testing.T) {
	_, err := NewGeminiEmbedder(context.Background(), &Config{Provider: ProviderGemini}, "key")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no embedding model")
}
