//go:build integration

package similarity

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// These tests load all-MiniLM-L6-v2 from disk.
// Set TEST_MODEL_DIR to a directory holding KnightsAnalytics_all-MiniLM-L6-v2 to run them.

func getSentenceEmbedder(t *testing.T) *SentenceEmbedder {
	t.Helper()

	dir := os.Getenv("TEST_MODEL_DIR")
	if dir == "" {
		t.Skip("TEST_MODEL_DIR not set, skipping integration test")
	}
	e, err := NewSentenceEmbedder(SentenceConfig{ModelDir: dir})
	require.NoError(t, err)
	return e
}

func TestIntegration_SentenceEmbedderIsSemantic(t *testing.T) {
	e := getSentenceEmbedder(t)
	defer func() { assert.NoError(t, e.Close()) }()

	texts := []string{
		"I led the engineering team through a reorganization",
		"I managed a group of software developers during restructuring",
		"We baked sourdough bread every weekend",
	}
	vecs, err := e.Embed(context.Background(), texts)
	require.NoError(t, err)
	require.Len(t, vecs, 3)
	for _, v := range vecs {
		assert.Len(t, v, SentenceDimension)
		assert.InDelta(t, 1.0, vectorNorm(v), 1e-3)
	}

	sim := PairwiseCosine(vecs)
	assert.Greater(t, sim[0][1], sim[0][2], "paraphrases score above unrelated text")
	assert.Greater(t, sim[0][1], ThemeThreshold)

	lexical := PairwiseCosine(mustEmbed(t, NewHashingEmbedder(DefaultDimension), texts))
	assert.Greater(t, sim[0][1], lexical[0][1], "paraphrases share few words")
}

func TestIntegration_SentenceEmbedderBatches(t *testing.T) {
	e := getSentenceEmbedder(t)
	defer func() { assert.NoError(t, e.Close()) }()

	texts := make([]string, sentenceBatchSize+3)
	for i := range texts {
		texts[i] = "stakeholder management"
	}
	vecs, err := e.Embed(context.Background(), texts)
	require.NoError(t, err)
	assert.Len(t, vecs, len(texts))
}

func mustEmbed(t *testing.T, e Embedder, texts []string) [][]float32 {
	t.Helper()
	vecs, err := e.Embed(context.Background(), texts)
	require.NoError(t, err)
	return vecs
}
