// Package types provides type definitions for structured data used throughout the career-lexicon system.
//
//nolint:revive // types is a standard Go package name pattern
package types

import (
	"fmt"
	"time"
)

// DocumentType identifies the kind of career document
type DocumentType string

const (
	// DocResume is a resume or CV
	DocResume DocumentType = "resume"
	// DocCoverLetter is a cover letter (also covers diversity and personal statements)
	DocCoverLetter DocumentType = "cover_letter"
	// DocJobDescription is a job posting
	DocJobDescription DocumentType = "job_description"
	// DocUnknown is used when classification is ambiguous
	DocUnknown DocumentType = "unknown"
)

// DocumentTypes lists every document type in declaration order
var DocumentTypes = []DocumentType{DocResume, DocCoverLetter, DocJobDescription, DocUnknown}

// ParseDocumentType converts a string into a DocumentType
func ParseDocumentType(s string) (DocumentType, error) {
	for _, t := range DocumentTypes {
		if string(t) == s {
			return t, nil
		}
	}
	return DocUnknown, fmt.Errorf("unknown document type %q", s)
}

// Document is one extracted career document. It is created by the pipeline after
// extraction and is not modified afterwards.
type Document struct {
	Filepath string       `json:"filepath"`
	Text     string       `json:"text"`
	DocType  DocumentType `json:"doc_type"`
	Date     *time.Time   `json:"date,omitempty"`
}

// FilterByType returns the documents of the given type, preserving order
func FilterByType(docs []Document, docType DocumentType) []Document {
	filtered := make([]Document, 0, len(docs))
	for _, d := range docs {
		if d.DocType == docType {
			filtered = append(filtered, d)
		}
	}
	return filtered
}
