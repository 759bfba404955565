package observability

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jonathan/career-lexicon/internal/types"
)

func TestPrintThemes(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintThemes([]types.Theme{
		{ThemeName: "Transparency", Confidence: 0.55},
		{ThemeName: "Collaborative Leadership", Confidence: 0.72, Occurrences: make([]types.ThemeOccurrence, 3)},
	})
	output := buf.String()

	assert.Contains(t, output, "TOP THEMES")
	assert.Contains(t, output, "Total themes: 2")
	assert.Contains(t, output, "#1  Collaborative Leadership")
	assert.Contains(t, output, "Confidence: 72% | Occurrences: 3")
	assert.Less(t, strings.Index(output, "Collaborative"), strings.Index(output, "Transparency"))
}

func TestPrintThemes_Empty(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintThemes(nil)

	assert.Empty(t, buf.String())
}

func TestPrintQualifications(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintQualifications([]types.Qualification{
		{PositionTitle: "Technical Lead", Variations: make([]types.QualificationVariation, 1)},
		{PositionTitle: "Senior Software Engineer", Organization: "TechCorp", Variations: make([]types.QualificationVariation, 2)},
	})
	output := buf.String()

	assert.Contains(t, output, "QUALIFICATIONS")
	assert.Contains(t, output, "Senior Software Engineer at TechCorp (2 variations)")
	assert.Contains(t, output, "Technical Lead (1 variations)")
}

func TestPrintNarratives(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintNarratives([]types.NarrativeCategory{
		{CategoryName: "Metaphors", Confidence: 0.4, Patterns: make([]types.NarrativePattern, 2)},
	})
	output := buf.String()

	assert.Contains(t, output, "NARRATIVE CATEGORIES")
	assert.Contains(t, output, "Metaphors")
	assert.Contains(t, output, "2 patterns (40%)")
}

func TestPrintKeywords_ShowsMore(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	var entries []types.KeywordEntry
	for i := 0; i < maxItemsToShow+2; i++ {
		entries = append(entries, types.KeywordEntry{Keyword: "keyword phrase", Frequency: i + 1})
	}
	p.PrintKeywords(entries)
	output := buf.String()

	assert.Contains(t, output, "TOP KEYWORDS")
	assert.Contains(t, output, "(7 uses)")
	assert.NotContains(t, output, "(1 uses)")
	assert.Contains(t, output, "... and 2 more")
}

func TestPrintRunSummary(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintRunSummary(false, map[string]int{"themes_found": 2, "documents_processed": 3}, []string{"input directory not found: /nope"}, []string{"generate_lexicons", "persist_run"})
	output := buf.String()

	assert.Contains(t, output, "RUN SUMMARY")
	assert.Contains(t, output, "Status: FAILED")
	assert.Less(t, strings.Index(output, "documents_processed"), strings.Index(output, "themes_found"))
	assert.Contains(t, output, "Errors (1):")
	assert.Contains(t, output, "input directory not found")
	assert.Contains(t, output, "Not reached: generate_lexicons, persist_run")
}

func TestPrintBox_TruncatesLongLines(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.printBox("TITLE", strings.Repeat("x", boxWidth*2))

	for _, line := range strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n") {
		assert.Equal(t, boxWidth, len([]rune(line)))
	}
	assert.Contains(t, buf.String(), "...")
}

func TestPrintLexicons_SkipsEmpty(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintLexicons(types.Lexicons{Keywords: []types.KeywordEntry{{Keyword: "data pipelines", Frequency: 2}}})
	output := buf.String()

	assert.Contains(t, output, "TOP KEYWORDS")
	assert.NotContains(t, output, "TOP THEMES")
}
