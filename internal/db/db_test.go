package db

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/career-lexicon/internal/types"
)

func TestArtifactStepConstants(t *testing.T) {
	steps := []string{
		StepDocuments,
		StepThemes,
		StepQualifications,
		StepNarratives,
		StepKeywords,
	}

	seen := make(map[string]bool)
	for _, step := range steps {
		assert.NotEmpty(t, step, "step constant should not be empty")
		assert.False(t, seen[step], "duplicate step %q", step)
		seen[step] = true
	}
}

func TestRunType(t *testing.T) {
	run := Run{
		Mode:   ModeIncremental,
		Status: StatusRunning,
	}

	assert.Equal(t, "incremental", run.Mode)
	assert.Equal(t, "running", run.Status)
	assert.Nil(t, run.CompletedAt)
}

func TestLexiconStep(t *testing.T) {
	assert.Equal(t, "lexicon:my_values.md", LexiconStep("my_values.md"))
	assert.NotEqual(t, StepThemes, LexiconStep(StepThemes))
}

func TestSchemaEmbedded(t *testing.T) {
	require.NotEmpty(t, schemaSQL)
	assert.True(t, strings.Contains(schemaSQL, "CREATE TABLE IF NOT EXISTS lexicon_runs"))
	assert.True(t, strings.Contains(schemaSQL, "CREATE TABLE IF NOT EXISTS lexicon_artifacts"))
	assert.Contains(t, schemaSQL, "UNIQUE (run_id, step)")
}

func TestDecodeArtifact(t *testing.T) {
	var themes []types.Theme
	require.NoError(t, decodeArtifact(StepThemes, []byte(`[{"theme_name":"Ownership","confidence":0.8}]`), &themes))
	require.Len(t, themes, 1)
	assert.Equal(t, "Ownership", themes[0].ThemeName)

	err := decodeArtifact(StepThemes, []byte(`{not json`), &themes)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "themes")
}
