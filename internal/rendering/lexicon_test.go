package rendering

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/career-lexicon/internal/types"
)

func fixedGenerator() *Generator {
	return &Generator{Now: func() time.Time {
		return time.Date(2024, time.June, 1, 12, 34, 56, 0, time.UTC)
	}}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestWriteThemes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", ThemesFile)
	date := types.NewDate(2024, time.January, 15)
	themes := []types.Theme{{
		ThemeName: "Collaborative Leadership",
		Occurrences: []types.ThemeOccurrence{{
			Quote:          "I believe in collaborative leadership.",
			Context:        "I believe in collaborative leadership. I value transparency.",
			SourceDocument: "letters/2024-01-15-letter.txt",
			Date:           date,
		}},
		Confidence: 0.6,
		FirstSeen:  date,
		LastSeen:   date,
	}}

	require.NoError(t, fixedGenerator().WriteThemes(themes, path))

	want := `# My Values and Themes

Generated: 2024-06-01 12:34

Total themes: 1

---

## Collaborative Leadership

Confidence: 60% | First seen: 2024-01-15 | Last seen: 2024-01-15

Sources: letters/2024-01-15-letter.txt (2024-01-15)

### Occurrences (chronological)

#### 2024-01-15 - letters/2024-01-15-letter.txt

> "I believe in collaborative leadership."

**Context**: I believe in collaborative leadership. I value transparency.

---
`
	assert.Equal(t, want, readFile(t, path))
}

func TestWriteThemes_OrderAndUnknownDates(t *testing.T) {
	path := filepath.Join(t.TempDir(), ThemesFile)
	themes := []types.Theme{
		{ThemeName: "Low", Confidence: 0.2, Occurrences: []types.ThemeOccurrence{{Quote: "q1", Context: "q1", SourceDocument: "a.txt"}}},
		{ThemeName: "High", Confidence: 0.9, Occurrences: []types.ThemeOccurrence{{Quote: "q2", Context: "q2", SourceDocument: "b.txt"}}},
	}
	require.NoError(t, fixedGenerator().WriteThemes(themes, path))

	content := readFile(t, path)
	assert.Less(t, strings.Index(content, "## High"), strings.Index(content, "## Low"))
	assert.Contains(t, content, "#### Unknown - a.txt")
	assert.Contains(t, content, "Confidence: 20%\n")
	assert.Contains(t, content, "Sources: b.txt\n")
	assert.Equal(t, "Low", themes[0].ThemeName, "input must not be reordered")
}

func TestWriteQualifications(t *testing.T) {
	path := filepath.Join(t.TempDir(), QualificationsFile)
	quals := []types.Qualification{
		{
			QualificationID: "technical_lead",
			PositionTitle:   "Technical Lead",
			Confidence:      0.45,
			Variations: []types.QualificationVariation{
				{Text: "Owned the roadmap", SourceDocument: "old.txt", PositionContext: "Technical Lead"},
			},
		},
		{
			QualificationID: "senior_software_engineer_techcorp",
			PositionTitle:   "Senior Software Engineer",
			Organization:    "TechCorp",
			Confidence:      0.78,
			Variations: []types.QualificationVariation{
				{Text: "Led the payments team", SourceDocument: "resume-2024.txt", Date: types.NewDate(2024, time.February, 1)},
				{Text: "Built payment APIs", SourceDocument: "resume-2020.txt", Date: types.NewDate(2020, time.June, 1)},
			},
		},
	}
	require.NoError(t, fixedGenerator().WriteQualifications(quals, path))

	content := readFile(t, path)
	assert.Contains(t, content, "Total qualifications: 2\n")
	assert.Contains(t, content, "## Senior Software Engineer at TechCorp\n")
	assert.Contains(t, content, "## Technical Lead\n")
	assert.Contains(t, content, "ID: `senior_software_engineer_techcorp` | Confidence: 78%\n")
	assert.Contains(t, content, "Sources: resume-2024.txt (2024-02-01), resume-2020.txt (2020-06-01)\n")
	assert.Contains(t, content, "### Variations (most recent first)\n")
	assert.Contains(t, content, "#### 2024-02-01 - resume-2024.txt\n\n- Led the payments team\n")
	assert.Contains(t, content, "#### Unknown - old.txt\n\n- Owned the roadmap\n")
	assert.Less(t, strings.Index(content, "## Senior Software Engineer"), strings.Index(content, "## Technical Lead"))
	assert.Less(t, strings.Index(content, "resume-2024.txt\n"), strings.Index(content, "resume-2020.txt\n"))
}

func TestWriteNarratives(t *testing.T) {
	path := filepath.Join(t.TempDir(), NarrativesFile)
	categories := []types.NarrativeCategory{
		{
			CategoryName: "Transitions",
			Confidence:   0.5,
			Patterns: []types.NarrativePattern{{
				PatternType:    types.PatternTransition,
				Text:           "However, the work is never finished.",
				Context:        "We rebuilt the pipeline.\nHowever, the work is never finished.",
				SourceDocument: "letter.txt",
			}},
		},
		{
			CategoryName: "Metaphors",
			Confidence:   0.4,
			Patterns: []types.NarrativePattern{{
				PatternType:    types.PatternMetaphor,
				Text:           "I work like a bridge.",
				Context:        "I work like a bridge.",
				SourceDocument: "letter.txt",
				Date:           types.NewDate(2023, time.March, 1),
			}},
		},
	}
	require.NoError(t, fixedGenerator().WriteNarratives(categories, path))

	content := readFile(t, path)
	assert.Contains(t, content, "Total categories: 2 | Total patterns: 2\n")
	assert.Contains(t, content, "Confidence: 40% | Patterns found: 1\n")
	assert.Contains(t, content, "**Pattern**: \"I work like a bridge.\"\n\n> I work like a bridge.\n")
	assert.Contains(t, content, "> We rebuilt the pipeline.\n> However, the work is never finished.\n")
	assert.Contains(t, content, "#### 2023-03-01 - letter.txt\n")
	assert.Less(t, strings.Index(content, "## Metaphors"), strings.Index(content, "## Transitions"))
}

func TestWriteKeywords(t *testing.T) {
	path := filepath.Join(t.TempDir(), KeywordsFile)
	entries := []types.KeywordEntry{
		{
			Keyword:   "stakeholder management",
			Frequency: 2,
			Usages: []types.KeywordUsage{
				{Keyword: "stakeholder management", Context: "I enjoy Stakeholder management across teams.",
					SourceDocument: "letter-2024.txt", DocumentType: types.DocCoverLetter, Date: types.NewDate(2024, time.February, 1)},
				{Keyword: "stakeholder management", Context: "Led stakeholder management for payments.",
					SourceDocument: "resume-2020.txt", DocumentType: types.DocResume, Date: types.NewDate(2020, time.June, 1)},
			},
			DocumentTypes: []types.DocumentType{types.DocResume, types.DocCoverLetter},
		},
		{
			Keyword:       "agile delivery",
			Aliases:       []string{"agile delivery teams", "agile teams"},
			Frequency:     3,
			DocumentTypes: []types.DocumentType{types.DocResume},
		},
		{Keyword: "rare phrase here", Frequency: 1},
	}
	require.NoError(t, fixedGenerator().WriteKeywords(entries, path, 2))

	content := readFile(t, path)
	assert.Contains(t, content, "Total keywords: 2 | Minimum frequency: 2\n")
	assert.NotContains(t, content, "rare phrase here")
	assert.Less(t, strings.Index(content, "## agile delivery"), strings.Index(content, "## stakeholder management"))

	assert.Contains(t, content, "Frequency: 2 | Aliases: None | Document types: cover_letter, resume\n")
	assert.Contains(t, content, "Frequency: 3 | Aliases: agile delivery teams, agile teams | Document types: resume\n")
	assert.Contains(t, content, "#### 2024-02-01 - letter-2024.txt (cover_letter)\n\n> I enjoy **Stakeholder management** across teams.\n")
	assert.Equal(t, 2, strings.Count(strings.ToLower(content), "**stakeholder management**"))
	assert.Less(t, strings.Index(content, "letter-2024.txt"), strings.Index(content, "resume-2020.txt"))
}

func TestEmptyStubs(t *testing.T) {
	dir := t.TempDir()
	g := fixedGenerator()

	require.NoError(t, g.WriteThemes(nil, filepath.Join(dir, ThemesFile)))
	require.NoError(t, g.WriteQualifications(nil, filepath.Join(dir, QualificationsFile)))
	require.NoError(t, g.WriteNarratives(nil, filepath.Join(dir, NarrativesFile)))
	require.NoError(t, g.WriteKeywords(nil, filepath.Join(dir, KeywordsFile), 2))

	tests := []struct {
		file string
		want string
	}{
		{ThemesFile, "# My Values and Themes\n\nGenerated: 2024-06-01 12:34\n\nNo themes found.\n"},
		{QualificationsFile, "# Resume Bullet Variations\n\nGenerated: 2024-06-01 12:34\n\nNo qualifications found.\n"},
		{NarrativesFile, "# Storytelling Patterns Catalog\n\nGenerated: 2024-06-01 12:34\n\nNo narrative patterns found.\n"},
		{KeywordsFile, "# Keyword Usage Index\n\nGenerated: 2024-06-01 12:34\n\nNo keywords found with minimum frequency of 2.\n"},
	}
	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			assert.Equal(t, tt.want, readFile(t, filepath.Join(dir, tt.file)))
		})
	}
}

func TestWrite_Failure(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	err := fixedGenerator().WriteThemes(nil, filepath.Join(blocker, ThemesFile))
	require.Error(t, err)
	var renderErr *RenderError
	assert.True(t, errors.As(err, &renderErr))
}

func TestHelpers(t *testing.T) {
	assert.Equal(t, "85%", FormatConfidence(0.85))
	assert.Equal(t, "100%", FormatConfidence(1))
	assert.Equal(t, "resume.txt (2024-01-15)", Citation("resume.txt", types.NewDate(2024, time.January, 15)))
	assert.Equal(t, "letter.txt", Citation("letter.txt", nil))
	assert.Equal(t, "> one\n>\n> two", Blockquote("one\n\ntwo"))
	assert.Equal(t, "Use **Go Modules** and **go modules**.", Bold("go modules", "Use Go Modules and go modules."))
	assert.Equal(t, "unchanged", Bold("", "unchanged"))
	assert.Equal(t, "Engineer at Acme", qualificationHeading(types.Qualification{PositionTitle: "Engineer", Organization: "Acme"}))
}

func TestBold_PatternCompiledOncePerKeyword(t *testing.T) {
	first := boldPattern("a.b")
	assert.Same(t, first, boldPattern("a.b"))
	assert.NotSame(t, first, boldPattern("A.B"))

	assert.Equal(t, "**A.B** axb", Bold("a.b", "A.B axb"), "keywords match literally")
}
