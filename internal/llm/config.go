// Package llm provides the hosted embedding backend used by the similarity service.
// This package keeps provider selection and model names in one place.
package llm

// Provider represents an embedding provider
type Provider string

// Provider constants define supported embedding providers
const (
	// ProviderGemini is the Google Gemini provider
	ProviderGemini Provider = "gemini"
)

const (
	// DefaultEmbeddingModel is the Gemini embedding model used when none is configured
	DefaultEmbeddingModel = "text-embedding-004"
	// DefaultDimension is the vector size produced by DefaultEmbeddingModel
	DefaultDimension = 768
	// MaxBatchSize is the largest number of texts sent in one batch request
	MaxBatchSize = 100
)

// Config holds the embedding model configuration
type Config struct {
	Provider  Provider
	Model     string
	Dimension int
	BatchSize int
}

// DefaultConfig returns the default configuration (currently Gemini)
func DefaultConfig() *Config {
	return DefaultGeminiConfig()
}

// DefaultGeminiConfig returns the default Gemini configuration
func DefaultGeminiConfig() *Config {
	return &Config{
		Provider:  ProviderGemini,
		Model:     DefaultEmbeddingModel,
		Dimension: DefaultDimension,
		BatchSize: MaxBatchSize,
	}
}

// WithModel returns a copy of the config using the given model name.
// An empty name keeps the current model.
func (c *Config) WithModel(model string) *Config {
	newConfig := *c
	if model != "" {
		newConfig.Model = model
	}
	return &newConfig
}

// batchSize returns the effective batch size, capped at MaxBatchSize
func (c *Config) batchSize() int {
	if c.BatchSize <= 0 || c.BatchSize > MaxBatchSize {
		return MaxBatchSize
	}
	return c.BatchSize
}
