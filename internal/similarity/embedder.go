package similarity

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"unicode"
)

// DefaultDimension is the vector size of the hashing embedder
const DefaultDimension = 384

// Feature weights for the hashing embedder
const (
	wordWeight    = 1.0
	bigramWeight  = 0.7
	trigramWeight = 0.3
)

// Embedder turns texts into fixed-dimension, L2-normalized vectors.
// Implementations must be deterministic for a given input within one process.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Dimension() int
}

// HashingEmbedder is an offline sentence embedder based on feature hashing.
// Word unigrams, word bigrams and padded character trigrams are hashed into
// signed buckets and the result is L2-normalized.
type HashingEmbedder struct {
	dim int
}

// NewHashingEmbedder creates a hashing embedder; dim <= 0 selects DefaultDimension
func NewHashingEmbedder(dim int) *HashingEmbedder {
	if dim <= 0 {
		dim = DefaultDimension
	}
	return &HashingEmbedder{dim: dim}
}

// Dimension returns the vector size
func (h *HashingEmbedder) Dimension() int {
	return h.dim
}

// Embed returns one vector per text
func (h *HashingEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = h.embedOne(text)
	}
	return out, nil
}

func (h *HashingEmbedder) embedOne(text string) []float32 {
	acc := make([]float64, h.dim)
	words := tokenize(text)

	for i, w := range words {
		h.add(acc, "w:"+w, wordWeight)
		if i+1 < len(words) {
			h.add(acc, "b:"+w+" "+words[i+1], bigramWeight)
		}
		padded := []rune("#" + w + "#")
		for j := 0; j+3 <= len(padded); j++ {
			h.add(acc, "c:"+string(padded[j:j+3]), trigramWeight)
		}
	}

	var norm float64
	for _, v := range acc {
		norm += v * v
	}
	vec := make([]float32, h.dim)
	if norm == 0 {
		// Texts without tokens share one fixed unit vector.
		vec[0] = 1
		return vec
	}
	norm = math.Sqrt(norm)
	for i, v := range acc {
		vec[i] = float32(v / norm)
	}
	return vec
}

func (h *HashingEmbedder) add(acc []float64, feature string, weight float64) {
	hasher := fnv.New64a()
	_, _ = hasher.Write([]byte(feature))
	sum := hasher.Sum64()
	idx := int(sum % uint64(h.dim))
	if (sum>>40)&1 == 1 {
		weight = -weight
	}
	acc[idx] += weight
}

// tokenize lower-cases text and splits it into letter/digit runs
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
