// Package extraction reads plain text out of career documents.
package extraction

import "fmt"

// ExtractionError represents a failure to extract text from one file
type ExtractionError struct {
	Path    string
	Method  string
	Message string
	Cause   error
}

func (e *ExtractionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("extraction error: %s (%s): %s: %v", e.Path, e.Method, e.Message, e.Cause)
	}
	return fmt.Sprintf("extraction error: %s (%s): %s", e.Path, e.Method, e.Message)
}

func (e *ExtractionError) Unwrap() error {
	return e.Cause
}
