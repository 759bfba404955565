// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/jonathan/career-lexicon/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, truncate(line, boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// truncate shortens s to at most n runes, marking the cut with "..."
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

// moreLine reports how many items a list left out
func moreLine(sb *strings.Builder, total int) {
	if total > maxItemsToShow {
		fmt.Fprintf(sb, "  ... and %d more\n", total-maxItemsToShow)
	}
}

// PrintThemes outputs the highest-confidence themes.
func (p *Printer) PrintThemes(themes []types.Theme) {
	if len(themes) == 0 {
		return
	}

	sorted := append([]types.Theme(nil), themes...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Confidence > sorted[j].Confidence })

	var sb strings.Builder
	fmt.Fprintf(&sb, "Total themes: %d\n\n", len(sorted))
	for i, theme := range sorted[:min(len(sorted), maxItemsToShow)] {
		fmt.Fprintf(&sb, "#%d  %s\n", i+1, theme.ThemeName)
		fmt.Fprintf(&sb, "    Confidence: %.0f%% | Occurrences: %d\n", theme.Confidence*100, len(theme.Occurrences))
	}
	moreLine(&sb, len(sorted))

	p.printBox("TOP THEMES", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintQualifications outputs the positions with the most bullet variations.
func (p *Printer) PrintQualifications(quals []types.Qualification) {
	if len(quals) == 0 {
		return
	}

	sorted := append([]types.Qualification(nil), quals...)
	sort.SliceStable(sorted, func(i, j int) bool { return len(sorted[i].Variations) > len(sorted[j].Variations) })

	var sb strings.Builder
	fmt.Fprintf(&sb, "Total qualifications: %d\n\n", len(sorted))
	for _, q := range sorted[:min(len(sorted), maxItemsToShow)] {
		heading := q.PositionTitle
		if q.Organization != "" {
			heading += " at " + q.Organization
		}
		fmt.Fprintf(&sb, "  • %s (%d variations)\n", heading, len(q.Variations))
	}
	moreLine(&sb, len(sorted))

	p.printBox("QUALIFICATIONS", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintNarratives outputs pattern counts per storytelling category.
func (p *Printer) PrintNarratives(categories []types.NarrativeCategory) {
	if len(categories) == 0 {
		return
	}

	var sb strings.Builder
	for _, c := range categories {
		fmt.Fprintf(&sb, "  • %-20s %3d patterns (%.0f%%)\n", c.CategoryName, len(c.Patterns), c.Confidence*100)
	}

	p.printBox("NARRATIVE CATEGORIES", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintKeywords outputs the most frequently used keywords.
func (p *Printer) PrintKeywords(entries []types.KeywordEntry) {
	if len(entries) == 0 {
		return
	}

	sorted := append([]types.KeywordEntry(nil), entries...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Frequency > sorted[j].Frequency })

	var sb strings.Builder
	fmt.Fprintf(&sb, "Total keywords: %d\n\n", len(sorted))
	for _, e := range sorted[:min(len(sorted), maxItemsToShow)] {
		fmt.Fprintf(&sb, "  • %s (%d uses)\n", e.Keyword, e.Frequency)
	}
	moreLine(&sb, len(sorted))

	p.printBox("TOP KEYWORDS", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintLexicons outputs every non-empty summary box for a set of findings.
func (p *Printer) PrintLexicons(lex types.Lexicons) {
	p.PrintThemes(lex.Themes)
	p.PrintQualifications(lex.Qualifications)
	p.PrintNarratives(lex.Narratives)
	p.PrintKeywords(lex.Keywords)
}

// PrintRunSummary outputs the statistics of a run in key order, then any
// errors and the stages a failed run did not reach.
func (p *Printer) PrintRunSummary(success bool, stats map[string]int, errs, blocked []string) {
	keys := make([]string, 0, len(stats))
	for k := range stats {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	status := "SUCCESS"
	if !success {
		status = "FAILED"
	}
	fmt.Fprintf(&sb, "Status: %s\n", status)
	if len(keys) > 0 {
		sb.WriteString("\n")
	}
	for _, k := range keys {
		fmt.Fprintf(&sb, "%-22s %d\n", k+":", stats[k])
	}

	if len(errs) > 0 {
		fmt.Fprintf(&sb, "\nErrors (%d):\n", len(errs))
		for _, e := range errs[:min(len(errs), maxItemsToShow)] {
			fmt.Fprintf(&sb, "  ⚠ %s\n", e)
		}
		moreLine(&sb, len(errs))
	}
	if len(blocked) > 0 {
		fmt.Fprintf(&sb, "\nNot reached: %s\n", strings.Join(blocked, ", "))
	}

	p.printBox("RUN SUMMARY", strings.TrimSuffix(sb.String(), "\n"))
}
