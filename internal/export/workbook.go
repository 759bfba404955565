// Package export writes all lexicons into a single XLSX workbook, one sheet
// per analyzer and one row per occurrence.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/jonathan/career-lexicon/internal/types"
)

// Sheet names in workbook order
const (
	SummarySheet        = "Summary"
	ThemesSheet         = "Themes"
	QualificationsSheet = "Qualifications"
	NarrativesSheet     = "Narratives"
	KeywordsSheet       = "Keywords"
)

var (
	themeHeader         = []any{"Theme", "Confidence", "First Seen", "Last Seen", "Quote", "Context", "Source", "Date"}
	qualificationHeader = []any{"ID", "Position", "Organization", "Confidence", "Bullet", "Source", "Date"}
	narrativeHeader     = []any{"Category", "Confidence", "Pattern", "Context", "Source", "Date"}
	keywordHeader       = []any{"Keyword", "Frequency", "Aliases", "Document Types", "Context", "Source", "Document Type", "Date"}
)

// WriteWorkbook saves the lexicons to outputPath, adding the .xlsx extension
// when missing. Parent directories are created.
func WriteWorkbook(lex types.Lexicons, outputPath string) (string, error) {
	if !strings.HasSuffix(strings.ToLower(outputPath), ".xlsx") {
		outputPath += ".xlsx"
	}
	outputPath = filepath.Clean(outputPath)

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", SummarySheet); err != nil {
		return "", fmt.Errorf("failed to rename default sheet: %w", err)
	}
	for _, name := range []string{ThemesSheet, QualificationsSheet, NarrativesSheet, KeywordsSheet} {
		if _, err := f.NewSheet(name); err != nil {
			return "", fmt.Errorf("failed to create sheet %s: %w", name, err)
		}
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return "", fmt.Errorf("failed to create header style: %w", err)
	}

	w := &sheetWriter{f: f, headerStyle: headerStyle}
	w.summary(lex)
	w.themes(lex.Themes)
	w.qualifications(lex.Qualifications)
	w.narratives(lex.Narratives)
	w.keywords(lex.Keywords)
	if w.err != nil {
		return "", w.err
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}
	if err := f.SaveAs(outputPath); err != nil {
		return "", fmt.Errorf("failed to save workbook %s: %w", outputPath, err)
	}
	return outputPath, nil
}

// sheetWriter appends rows and keeps the first error
type sheetWriter struct {
	f           *excelize.File
	headerStyle int
	err         error
}

func (w *sheetWriter) row(sheet string, row int, values []any) {
	if w.err != nil {
		return
	}
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		w.err = err
		return
	}
	if err := w.f.SetSheetRow(sheet, cell, &values); err != nil {
		w.err = fmt.Errorf("failed to write %s row %d: %w", sheet, row, err)
	}
}

func (w *sheetWriter) header(sheet string, values []any) {
	w.row(sheet, 1, values)
	if w.err != nil {
		return
	}
	last, err := excelize.CoordinatesToCellName(len(values), 1)
	if err != nil {
		w.err = err
		return
	}
	if err := w.f.SetCellStyle(sheet, "A1", last, w.headerStyle); err != nil {
		w.err = err
		return
	}
	lastCol, _ := excelize.ColumnNumberToName(len(values))
	_ = w.f.SetColWidth(sheet, "A", lastCol, 24)
}

func (w *sheetWriter) summary(lex types.Lexicons) {
	w.row(SummarySheet, 1, []any{"Lexicon", "Findings"})
	w.row(SummarySheet, 2, []any{"Themes", len(lex.Themes)})
	w.row(SummarySheet, 3, []any{"Qualifications", len(lex.Qualifications)})
	w.row(SummarySheet, 4, []any{"Narrative categories", len(lex.Narratives)})
	w.row(SummarySheet, 5, []any{"Keywords", len(lex.Keywords)})
	if w.err == nil {
		w.err = w.f.SetCellStyle(SummarySheet, "A1", "B1", w.headerStyle)
	}
}

func (w *sheetWriter) themes(themes []types.Theme) {
	w.header(ThemesSheet, themeHeader)
	r := 2
	for _, t := range themes {
		for _, o := range t.Occurrences {
			w.row(ThemesSheet, r, []any{
				t.ThemeName, t.Confidence, types.FormatDate(t.FirstSeen), types.FormatDate(t.LastSeen),
				o.Quote, o.Context, o.SourceDocument, types.FormatDate(o.Date),
			})
			r++
		}
	}
}

func (w *sheetWriter) qualifications(quals []types.Qualification) {
	w.header(QualificationsSheet, qualificationHeader)
	r := 2
	for _, q := range quals {
		for _, v := range q.Variations {
			w.row(QualificationsSheet, r, []any{
				q.QualificationID, q.PositionTitle, q.Organization, q.Confidence,
				v.Text, v.SourceDocument, types.FormatDate(v.Date),
			})
			r++
		}
	}
}

func (w *sheetWriter) narratives(categories []types.NarrativeCategory) {
	w.header(NarrativesSheet, narrativeHeader)
	r := 2
	for _, c := range categories {
		for _, p := range c.Patterns {
			w.row(NarrativesSheet, r, []any{
				c.CategoryName, c.Confidence, p.Text, p.Context, p.SourceDocument, types.FormatDate(p.Date),
			})
			r++
		}
	}
}

func (w *sheetWriter) keywords(entries []types.KeywordEntry) {
	w.header(KeywordsSheet, keywordHeader)
	r := 2
	for _, e := range entries {
		docTypes := make([]string, len(e.DocumentTypes))
		for i, dt := range e.DocumentTypes {
			docTypes[i] = string(dt)
		}
		for _, u := range e.Usages {
			w.row(KeywordsSheet, r, []any{
				e.Keyword, e.Frequency, strings.Join(e.Aliases, ", "), strings.Join(docTypes, ", "),
				u.Context, u.SourceDocument, string(u.DocumentType), types.FormatDate(u.Date),
			})
			r++
		}
	}
}
