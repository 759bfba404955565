// Package similarity provides sentence embeddings, cosine similarity and
// average-linkage clustering shared by the analyzers.
package similarity

import "fmt"

// EmbeddingError represents a failure to load the embedding model or embed texts
type EmbeddingError struct {
	Message string
	Cause   error
}

func (e *EmbeddingError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("embedding error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("embedding error: %s", e.Message)
}

func (e *EmbeddingError) Unwrap() error {
	return e.Cause
}
