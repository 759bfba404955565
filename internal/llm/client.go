package llm

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiEmbedder implements similarity.Embedder with the Gemini embedding API.
// Vectors are L2-normalized and memoized per text so repeated inputs return
// identical vectors for the lifetime of the process.
type GeminiEmbedder struct {
	client *genai.Client
	model  *genai.EmbeddingModel
	config *Config

	mu    sync.Mutex
	cache map[string][]float32
}

// NewGeminiEmbedder creates a new Gemini embedding client
func NewGeminiEmbedder(ctx context.Context, config *Config, apiKey string) (*GeminiEmbedder, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if config == nil {
		config = DefaultConfig()
	}
	if config.Model == "" {
		return nil, fmt.Errorf("no embedding model configured")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.EmbeddingModel(config.Model)
	model.TaskType = genai.TaskTypeClustering

	return &GeminiEmbedder{
		client: client,
		model:  model,
		config: config,
		cache:  make(map[string][]float32),
	}, nil
}

// Dimension returns the configured vector size
func (g *GeminiEmbedder) Dimension() int {
	return g.config.Dimension
}

// Embed returns one vector per text, batching requests for uncached texts
func (g *GeminiEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	missing := g.uncached(texts)

	size := g.config.batchSize()
	for start := 0; start < len(missing); start += size {
		end := min(start+size, len(missing))
		chunk := missing[start:end]

		batch := g.model.NewBatch()
		for _, text := range chunk {
			batch.AddContent(genai.Text(text))
		}
		resp, err := g.model.BatchEmbedContents(ctx, batch)
		if err != nil {
			return nil, fmt.Errorf("failed to embed batch: %w", err)
		}
		if len(resp.Embeddings) != len(chunk) {
			return nil, fmt.Errorf("expected %d embeddings, got %d", len(chunk), len(resp.Embeddings))
		}

		g.mu.Lock()
		for i, emb := range resp.Embeddings {
			if emb == nil {
				g.mu.Unlock()
				return nil, fmt.Errorf("empty embedding for input %d", start+i)
			}
			g.cache[chunk[i]] = Normalize(emb.Values)
		}
		g.mu.Unlock()
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = g.cache[text]
	}
	return out, nil
}

// uncached returns the distinct texts without a memoized vector
func (g *GeminiEmbedder) uncached(texts []string) []string {
	g.mu.Lock()
	defer g.mu.Unlock()

	seen := make(map[string]bool, len(texts))
	missing := make([]string, 0, len(texts))
	for _, text := range texts {
		if _, ok := g.cache[text]; ok || seen[text] {
			continue
		}
		seen[text] = true
		missing = append(missing, text)
	}
	return missing
}

// Close releases resources held by the client
func (g *GeminiEmbedder) Close() error {
	if g.client != nil {
		return g.client.Close()
	}
	return nil
}

// Normalize returns v scaled to unit length. A zero vector is returned unchanged.
func Normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	out := make([]float32, len(v))
	if sum == 0 {
		copy(out, v)
		return out
	}
	norm := math.Sqrt(sum)
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out
}
