package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/jonathan/career-lexicon/internal/types"
)

// SaveLexicons stores each analyzer's findings as a separate JSON artifact
func (db *DB) SaveLexicons(ctx context.Context, runID uuid.UUID, lex types.Lexicons) error {
	artifacts := []struct {
		step    string
		content any
	}{
		{StepThemes, lex.Themes},
		{StepQualifications, lex.Qualifications},
		{StepNarratives, lex.Narratives},
		{StepKeywords, lex.Keywords},
	}
	for _, a := range artifacts {
		if err := db.SaveArtifact(ctx, runID, a.step, CategoryAnalysis, a.content); err != nil {
			return err
		}
	}
	return nil
}

// GetLexicons loads the findings stored for a run. Steps with no artifact
// are left empty.
func (db *DB) GetLexicons(ctx context.Context, runID uuid.UUID) (*types.Lexicons, error) {
	var lex types.Lexicons
	targets := []struct {
		step string
		into any
	}{
		{StepThemes, &lex.Themes},
		{StepQualifications, &lex.Qualifications},
		{StepNarratives, &lex.Narratives},
		{StepKeywords, &lex.Keywords},
	}
	for _, t := range targets {
		if err := db.getJSON(ctx, runID, t.step, t.into); err != nil {
			return nil, err
		}
	}
	return &lex, nil
}

// SaveDocuments stores the inventory of documents a run analyzed
func (db *DB) SaveDocuments(ctx context.Context, runID uuid.UUID, docs []DocumentSummary) error {
	return db.SaveArtifact(ctx, runID, StepDocuments, CategoryIngestion, docs)
}

// GetDocuments loads the document inventory of a run, nil when none was stored
func (db *DB) GetDocuments(ctx context.Context, runID uuid.UUID) ([]DocumentSummary, error) {
	var docs []DocumentSummary
	if err := db.getJSON(ctx, runID, StepDocuments, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

func (db *DB) getJSON(ctx context.Context, runID uuid.UUID, step string, into any) error {
	content, err := db.GetArtifact(ctx, runID, step)
	if err != nil {
		return err
	}
	if content == nil {
		return nil
	}
	return decodeArtifact(step, content, into)
}

func decodeArtifact(step string, content []byte, into any) error {
	if err := json.Unmarshal(content, into); err != nil {
		return fmt.Errorf("failed to decode artifact %s: %w", step, err)
	}
	return nil
}
