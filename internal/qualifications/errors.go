package qualifications

import "fmt"

// AnalysisError represents a failure that prevents qualification analysis from completing
type AnalysisError struct {
	Message string
	Cause   error
}

func (e *AnalysisError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("qualifications error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("qualifications error: %s", e.Message)
}

func (e *AnalysisError) Unwrap() error {
	return e.Cause
}
