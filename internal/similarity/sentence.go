package similarity

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/knights-analytics/hugot"
	"github.com/knights-analytics/hugot/pipelines"
	"go.uber.org/zap"
)

const (
	// DefaultSentenceModel is the ONNX export of all-MiniLM-L6-v2
	DefaultSentenceModel = "KnightsAnalytics/all-MiniLM-L6-v2"

	// SentenceDimension is the vector size of DefaultSentenceModel
	SentenceDimension = 384

	sentenceOnnxFile  = "model.onnx"
	sentenceTokenizer = "tokenizer.json"
	sentenceBatchSize = 32
	sentencePipeline  = "sentence-embeddings"
)

// SentenceConfig locates the local sentence model
type SentenceConfig struct {
	ModelDir string // directory holding downloaded models
	Model    string // Hugging Face repository, defaults to DefaultSentenceModel
	Download bool   // fetch the model when it is not in ModelDir
}

// DefaultModelDir returns the per-user cache directory for downloaded models
func DefaultModelDir() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "models"
	}
	return filepath.Join(dir, "career-lexicon", "models")
}

// DefaultSentenceConfig uses DefaultSentenceModel under DefaultModelDir and
// downloads it on first use
func DefaultSentenceConfig() SentenceConfig {
	return SentenceConfig{ModelDir: DefaultModelDir(), Model: DefaultSentenceModel, Download: true}
}

// ModelPath returns where a model is stored inside dir
func ModelPath(dir, model string) string {
	return filepath.Join(dir, strings.ReplaceAll(model, "/", "_"))
}

// SentenceEmbedder runs a transformer sentence model locally through hugot's
// pure Go backend. Output vectors are mean-pooled and L2-normalized.
type SentenceEmbedder struct {
	mu       sync.Mutex
	session  *hugot.Session
	pipeline *pipelines.FeatureExtractionPipeline
}

// NewSentenceEmbedder loads the model from cfg.ModelDir, downloading it first
// when it is missing and cfg.Download is set
func NewSentenceEmbedder(cfg SentenceConfig) (*SentenceEmbedder, error) {
	model := cfg.Model
	if model == "" {
		model = DefaultSentenceModel
	}

	path := ModelPath(cfg.ModelDir, model)
	if _, err := os.Stat(filepath.Join(path, sentenceTokenizer)); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, &EmbeddingError{Message: fmt.Sprintf("failed to read model %s", path), Cause: err}
		}
		if !cfg.Download {
			return nil, &EmbeddingError{Message: fmt.Sprintf("model %s not found in %s", model, cfg.ModelDir)}
		}
		if err := os.MkdirAll(cfg.ModelDir, 0o755); err != nil {
			return nil, &EmbeddingError{Message: "failed to create model directory", Cause: err}
		}
		path, err = hugot.DownloadModel(model, cfg.ModelDir, hugot.NewDownloadOptions())
		if err != nil {
			return nil, &EmbeddingError{Message: fmt.Sprintf("failed to download model %s", model), Cause: err}
		}
	}

	session, err := hugot.NewGoSession()
	if err != nil {
		return nil, &EmbeddingError{Message: "failed to start model session", Cause: err}
	}
	pipeline, err := hugot.NewPipeline(session, hugot.FeatureExtractionConfig{
		ModelPath:    path,
		Name:         sentencePipeline,
		OnnxFilename: sentenceOnnxFile,
		Options: []hugot.FeatureExtractionOption{
			pipelines.WithNormalization(),
		},
	})
	if err != nil {
		_ = session.Destroy()
		return nil, &EmbeddingError{Message: fmt.Sprintf("failed to load model %s", path), Cause: err}
	}
	return &SentenceEmbedder{session: session, pipeline: pipeline}, nil
}

// Dimension returns the vector size
func (e *SentenceEmbedder) Dimension() int {
	return SentenceDimension
}

// Embed returns one vector per text, in batches the Go backend handles well
func (e *SentenceEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += sentenceBatchSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		end := min(start+sentenceBatchSize, len(texts))
		res, err := e.pipeline.RunPipeline(texts[start:end])
		if err != nil {
			return nil, &EmbeddingError{Message: "sentence model inference failed", Cause: err}
		}
		if len(res.Embeddings) != end-start {
			return nil, &EmbeddingError{Message: fmt.Sprintf("expected %d embeddings, got %d", end-start, len(res.Embeddings))}
		}
		out = append(out, res.Embeddings...)
	}
	return out, nil
}

// Close releases the model session
func (e *SentenceEmbedder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session == nil {
		return nil
	}
	err := e.session.Destroy()
	e.session = nil
	return err
}

// LocalFactory builds the sentence model on first use. When the model cannot
// be loaded the hashing embedder is used instead and a warning is logged.
func LocalFactory(cfg SentenceConfig, logger *zap.Logger) EmbedderFactory {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func() (Embedder, error) {
		e, err := NewSentenceEmbedder(cfg)
		if err != nil {
			logger.Warn("sentence model unavailable, using hashing embedder", zap.Error(err))
			return NewHashingEmbedder(DefaultDimension), nil
		}
		return e, nil
	}
}
