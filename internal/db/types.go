package db

import (
	"time"

	"github.com/google/uuid"
)

// Run is one orchestrator run
type Run struct {
	ID          uuid.UUID      `json:"id"`
	Mode        string         `json:"mode"`
	InputDir    string         `json:"input_dir"`
	OutputDir   string         `json:"output_dir"`
	Status      string         `json:"status"`
	Statistics  map[string]int `json:"statistics,omitempty"`
	Errors      []string       `json:"errors,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	CompletedAt *time.Time     `json:"completed_at,omitempty"`
}

// DocumentSummary is one input document of a run, stored without its text
type DocumentSummary struct {
	Filepath     string  `json:"filepath"`
	DocumentType string  `json:"document_type"`
	Date         *string `json:"date,omitempty"`
}

// Run modes
const (
	ModeFull        = "full"
	ModeIncremental = "incremental"
)

// Run statuses
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Artifact steps stored per run
const (
	StepDocuments      = "documents"
	StepThemes         = "themes"
	StepQualifications = "qualifications"
	StepNarratives     = "narratives"
	StepKeywords       = "keywords"
)

// Artifact categories
const (
	CategoryIngestion = "ingestion"
	CategoryAnalysis  = "analysis"
	CategoryLexicon   = "lexicon"
)

// LexiconStep maps a lexicon file name to the step its markdown is stored under
func LexiconStep(filename string) string {
	return "lexicon:" + filename
}
