// Package steps defines the lexicon run stages, their dependencies, and the
// bookkeeping the orchestrator uses to check a stage may start.
package steps

import (
	"fmt"
	"sort"
	"sync"
)

// Stage names
const (
	LoadManifest          = "load_manifest"
	ProcessDocuments      = "process_documents"
	AnalyzeThemes         = "analyze_themes"
	AnalyzeQualifications = "analyze_qualifications"
	AnalyzeNarratives     = "analyze_narratives"
	AnalyzeKeywords       = "analyze_keywords"
	GenerateLexicons      = "generate_lexicons"
	ExportWorkbook        = "export_workbook"
	PersistRun            = "persist_run"
	SaveManifest          = "save_manifest"
)

// Stage categories, reported as ProgressEvent.Category
const (
	CategoryManifest   = "manifest"
	CategoryProcessing = "processing"
	CategoryAnalyzing  = "analyzing"
	CategoryGenerating = "generating"
	CategorySaving     = "saving"
)

// StepDefinition defines metadata for a run stage
type StepDefinition struct {
	Name         string
	Category     string
	Dependencies []string
}

// StepRegistry holds all stage definitions
var StepRegistry = map[string]StepDefinition{
	LoadManifest: {
		Name:     LoadManifest,
		Category: CategoryManifest,
	},
	ProcessDocuments: {
		Name:         ProcessDocuments,
		Category:     CategoryProcessing,
		Dependencies: []string{LoadManifest},
	},
	AnalyzeThemes: {
		Name:         AnalyzeThemes,
		Category:     CategoryAnalyzing,
		Dependencies: []string{ProcessDocuments},
	},
	AnalyzeQualifications: {
		Name:         AnalyzeQualifications,
		Category:     CategoryAnalyzing,
		Dependencies: []string{ProcessDocuments},
	},
	AnalyzeNarratives: {
		Name:         AnalyzeNarratives,
		Category:     CategoryAnalyzing,
		Dependencies: []string{ProcessDocuments},
	},
	AnalyzeKeywords: {
		Name:         AnalyzeKeywords,
		Category:     CategoryAnalyzing,
		Dependencies: []string{ProcessDocuments},
	},
	GenerateLexicons: {
		Name:         GenerateLexicons,
		Category:     CategoryGenerating,
		Dependencies: []string{AnalyzeThemes, AnalyzeQualifications, AnalyzeNarratives, AnalyzeKeywords},
	},
	ExportWorkbook: {
		Name:         ExportWorkbook,
		Category:     CategoryGenerating,
		Dependencies: []string{GenerateLexicons},
	},
	PersistRun: {
		Name:         PersistRun,
		Category:     CategorySaving,
		Dependencies: []string{GenerateLexicons},
	},
	SaveManifest: {
		Name:         SaveManifest,
		Category:     CategorySaving,
		Dependencies: []string{ProcessDocuments},
	},
}

// Analyzers lists the four independent analysis stages in run order
var Analyzers = []string{AnalyzeThemes, AnalyzeQualifications, AnalyzeNarratives, AnalyzeKeywords}

// DependencyError represents a dependency validation error
type DependencyError struct {
	Step                string
	MissingDependencies []string
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("missing dependencies: %v", e.MissingDependencies)
}

// Tracker records which stages of one run have completed. It is safe for
// concurrent use by the analyzer goroutines.
type Tracker struct {
	mu        sync.Mutex
	completed map[string]bool
}

// NewTracker returns a tracker with no completed stages
func NewTracker() *Tracker {
	return &Tracker{completed: make(map[string]bool)}
}

// Complete marks a stage as done
func (t *Tracker) Complete(stepName string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.completed[stepName] = true
}

// IsComplete reports whether a stage has completed
func (t *Tracker) IsComplete(stepName string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.completed[stepName]
}

// Completed returns the completed stage names, sorted
func (t *Tracker) Completed() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	names := make([]string, 0, len(t.completed))
	for name := range t.completed {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ValidateDependencies checks that every dependency of a stage has completed
func ValidateDependencies(t *Tracker, stepName string) error {
	def, ok := StepRegistry[stepName]
	if !ok {
		return fmt.Errorf("unknown step: %s", stepName)
	}

	var missing []string
	for _, dep := range def.Dependencies {
		if !t.IsComplete(dep) {
			missing = append(missing, dep)
		}
	}

	if len(missing) > 0 {
		return &DependencyError{
			Step:                stepName,
			MissingDependencies: missing,
		}
	}
	return nil
}

// GetAvailableSteps returns stages that have not completed and whose
// dependencies have, sorted by name
func GetAvailableSteps(t *Tracker) []string {
	var available []string
	for stepName := range StepRegistry {
		if t.IsComplete(stepName) {
			continue
		}
		if err := ValidateDependencies(t, stepName); err != nil {
			continue
		}
		available = append(available, stepName)
	}
	sort.Strings(available)
	return available
}

// GetBlockedSteps returns stages whose dependencies have not completed, sorted by name
func GetBlockedSteps(t *Tracker) []string {
	var blocked []string
	for stepName := range StepRegistry {
		if t.IsComplete(stepName) {
			continue
		}
		if err := ValidateDependencies(t, stepName); err != nil {
			blocked = append(blocked, stepName)
		}
	}
	sort.Strings(blocked)
	return blocked
}
