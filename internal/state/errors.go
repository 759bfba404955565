// Package state persists the processing manifest that makes incremental runs possible.
package state

import "fmt"

// ManifestError represents an error reading, validating or writing the manifest
type ManifestError struct {
	Message string
	Cause   error
}

func (e *ManifestError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("manifest error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("manifest error: %s", e.Message)
}

func (e *ManifestError) Unwrap() error {
	return e.Cause
}

// HashError represents an error hashing a file
type HashError struct {
	Path  string
	Cause error
}

func (e *HashError) Error() string {
	return fmt.Sprintf("hash error: %s: %v", e.Path, e.Cause)
}

func (e *HashError) Unwrap() error {
	return e.Cause
}
