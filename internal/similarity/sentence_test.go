package similarity

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModelPath(t *testing.T) {
	assert.Equal(t,
		filepath.Join("models", "KnightsAnalytics_all-MiniLM-L6-v2"),
		ModelPath("models", DefaultSentenceModel))
}

func TestDefaultSentenceConfig(t *testing.T) {
	cfg := DefaultSentenceConfig()
	assert.Equal(t, DefaultSentenceModel, cfg.Model)
	assert.True(t, cfg.Download)
	assert.NotEmpty(t, cfg.ModelDir)
}

func TestNewSentenceEmbedder_MissingModel(t *testing.T) {
	dir := t.TempDir()

	e, err := NewSentenceEmbedder(SentenceConfig{ModelDir: dir})
	assert.Nil(t, e)
	var embErr *EmbeddingError
	require.ErrorAs(t, err, &embErr)
	assert.Contains(t, err.Error(), "not found")

	_, statErr := os.Stat(ModelPath(dir, DefaultSentenceModel))
	assert.True(t, os.IsNotExist(statErr), "nothing is downloaded when Download is off")
}

func TestLocalFactory_FallsBackToHashing(t *testing.T) {
	svc := NewService(LocalFactory(SentenceConfig{ModelDir: t.TempDir()}, nil), nil)
	defer func() { assert.NoError(t, svc.Close()) }()

	vecs, err := svc.Embed(context.Background(), []string{"stakeholder management"})
	require.NoError(t, err)
	require.Len(t, vecs, 1)
	assert.Len(t, vecs[0], DefaultDimension)

	m, err := svc.model()
	require.NoError(t, err)
	assert.IsType(t, &HashingEmbedder{}, m)
}

type closingEmbedder struct {
	*HashingEmbedder
	closed int
	err    error
}

func (c *closingEmbedder) Close() error {
	c.closed++
	return c.err
}

func TestService_Close(t *testing.T) {
	e := &closingEmbedder{HashingEmbedder: NewHashingEmbedder(16)}
	svc := NewServiceWithEmbedder(e)
	_, err := svc.Embed(context.Background(), []string{"a"})
	require.NoError(t, err)

	require.NoError(t, svc.Close())
	assert.Equal(t, 1, e.closed)
}

func TestService_CloseBeforeUse(t *testing.T) {
	loads := 0
	svc := NewService(func() (Embedder, error) {
		loads++
		return NewHashingEmbedder(16), nil
	}, nil)

	require.NoError(t, svc.Close())
	assert.Equal(t, 0, loads, "closing never loads the model")

	_, err := svc.Embed(context.Background(), []string{"a"})
	assert.ErrorContains(t, err, "closed")
}

func TestService_CloseError(t *testing.T) {
	e := &closingEmbedder{HashingEmbedder: NewHashingEmbedder(16), err: errors.New("busy")}
	svc := NewServiceWithEmbedder(e)
	_, err := svc.Embed(context.Background(), []string{"a"})
	require.NoError(t, err)

	assert.EqualError(t, svc.Close(), "busy")
}
