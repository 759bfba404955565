package themes

import "fmt"

// AnalysisError represents a failure that prevents theme analysis from completing
type AnalysisError struct {
	Message string
	Cause   error
}

func (e *AnalysisError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("themes error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("themes error: %s", e.Message)
}

func (e *AnalysisError) Unwrap() error {
	return e.Cause
}
