package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/jonathan/career-lexicon/internal/schemas"
	"github.com/jonathan/career-lexicon/internal/types"
)

const (
	// ManifestVersion is the current manifest format version
	ManifestVersion = "1.0.0"
	// DefaultFilename is the manifest name inside the output directory
	DefaultFilename = ".state.json"
	// TimestampLayout is the layout of last_updated and date_processed
	TimestampLayout = "2006-01-02T15:04:05.000"
)

// now is replaced in tests
var now = time.Now

var validate = validator.New()

// DocumentRecord is the persisted state of one processed file
type DocumentRecord struct {
	Filepath          string             `json:"filepath" validate:"required"`
	FileHash          string             `json:"file_hash" validate:"required,len=64,hexadecimal"`
	DocumentType      types.DocumentType `json:"document_type" validate:"oneof=resume cover_letter job_description unknown"`
	DateProcessed     string             `json:"date_processed" validate:"required"`
	DateFromFilename  *string            `json:"date_from_filename"`
	ExtractionSuccess bool               `json:"extraction_success"`
}

// ProcessingManifest records every file seen by past runs, keyed by filepath
type ProcessingManifest struct {
	LastUpdated string                    `json:"last_updated"`
	Version     string                    `json:"version"`
	Documents   map[string]DocumentRecord `json:"documents"`
}

// DefaultPath returns the manifest location for an output directory
func DefaultPath(outputDir string) string {
	return filepath.Join(outputDir, DefaultFilename)
}

// NewManifest returns an empty manifest stamped with the current time
func NewManifest() *ProcessingManifest {
	return &ProcessingManifest{
		LastUpdated: Timestamp(),
		Version:     ManifestVersion,
		Documents:   make(map[string]DocumentRecord),
	}
}

// Timestamp returns the current time in manifest format
func Timestamp() string {
	return now().Format(TimestampLayout)
}

// NewRecord builds a record for a processed file. extracted is false when the
// file yielded no text.
func NewRecord(path, hash string, docType types.DocumentType, date *time.Time, extracted bool) DocumentRecord {
	var dateStr *string
	if date != nil {
		s := date.Format(types.DateLayout)
		dateStr = &s
	}
	return DocumentRecord{
		Filepath:          path,
		FileHash:          hash,
		DocumentType:      docType,
		DateProcessed:     Timestamp(),
		DateFromFilename:  dateStr,
		ExtractionSuccess: extracted,
	}
}

// Exists reports whether a manifest file is present at path
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Read loads a manifest strictly. A missing file, malformed JSON or a schema
// violation is returned as an error.
func Read(path string) (*ProcessingManifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &ManifestError{Message: fmt.Sprintf("manifest not found: %s", path), Cause: err}
		}
		return nil, &ManifestError{Message: "failed to read manifest", Cause: err}
	}

	if err := schemas.ValidateManifest(data); err != nil {
		return nil, &ManifestError{Message: "manifest does not match schema", Cause: err}
	}

	var m ProcessingManifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, &ManifestError{Message: "failed to parse manifest JSON", Cause: err}
	}

	if m.Version == "" {
		m.Version = ManifestVersion
	}
	if m.LastUpdated == "" {
		m.LastUpdated = Timestamp()
	}
	if m.Documents == nil {
		m.Documents = make(map[string]DocumentRecord)
	}
	for key, rec := range m.Documents {
		if rec.Filepath == "" {
			rec.Filepath = key
		}
		if rec.DocumentType == "" {
			rec.DocumentType = types.DocUnknown
		}
		m.Documents[key] = rec
	}
	return &m, nil
}

// Load reads the manifest at path. It never fails: a missing or corrupt file
// yields a fresh empty manifest.
func Load(path string) *ProcessingManifest {
	m, err := Read(path)
	if err != nil {
		return NewManifest()
	}
	return m
}

// Save writes the manifest, refreshing last_updated and creating parent directories
func Save(m *ProcessingManifest, path string) error {
	if m == nil {
		return &ManifestError{Message: "manifest is nil"}
	}
	m.LastUpdated = Timestamp()
	if m.Version == "" {
		m.Version = ManifestVersion
	}
	if m.Documents == nil {
		m.Documents = make(map[string]DocumentRecord)
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return &ManifestError{Message: "failed to create manifest directory", Cause: err}
		}
	}

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return &ManifestError{Message: "failed to marshal manifest", Cause: err}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return &ManifestError{Message: fmt.Sprintf("failed to write manifest %s", path), Cause: err}
	}
	return nil
}

// AddRecord inserts or replaces the record for rec.Filepath after validating it
func AddRecord(m *ProcessingManifest, rec DocumentRecord) error {
	if err := validate.Struct(rec); err != nil {
		return &ManifestError{Message: fmt.Sprintf("invalid record for %s", rec.Filepath), Cause: err}
	}
	if m.Documents == nil {
		m.Documents = make(map[string]DocumentRecord)
	}
	m.Documents[rec.Filepath] = rec
	return nil
}

// DocumentsByType returns the records of one document type, sorted by filepath
func DocumentsByType(m *ProcessingManifest, docType types.DocumentType) []DocumentRecord {
	records := make([]DocumentRecord, 0)
	for _, rec := range m.Documents {
		if rec.DocumentType == docType {
			records = append(records, rec)
		}
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].Filepath < records[j].Filepath
	})
	return records
}

// KnownFiles returns the filepaths of successfully extracted records that
// still exist on disk, sorted
func KnownFiles(m *ProcessingManifest) []string {
	paths := make([]string, 0, len(m.Documents))
	for path, rec := range m.Documents {
		if !rec.ExtractionSuccess {
			continue
		}
		if info, err := os.Stat(path); err == nil && info.Mode().IsRegular() {
			paths = append(paths, path)
		}
	}
	sort.Strings(paths)
	return paths
}
