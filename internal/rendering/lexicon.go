package rendering

import (
	"bytes"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"
	"text/template"
	"time"

	"github.com/jonathan/career-lexicon/internal/qualifications"
	"github.com/jonathan/career-lexicon/internal/types"
)

// Lexicon file names written into the output directory
const (
	ThemesFile         = "my_values.md"
	QualificationsFile = "resume_variations.md"
	NarrativesFile     = "storytelling_patterns.md"
	KeywordsFile       = "usage_index.md"
)

// StampLayout is the layout of the "Generated:" header line
const StampLayout = "2006-01-02 15:04"

//go:embed templates/*.tmpl
var templateFS embed.FS

var (
	parsed    *template.Template
	parseErr  error
	parseOnce sync.Once
)

// Generator renders lexicons. Now supplies the header stamp.
type Generator struct {
	Now func() time.Time
}

// NewGenerator returns a generator stamped with the wall clock
func NewGenerator() *Generator {
	return &Generator{Now: time.Now}
}

// pageData is the value every lexicon template executes against
type pageData struct {
	Generated      string
	Themes         []types.Theme
	Qualifications []types.Qualification
	Narratives     []types.NarrativeCategory
	Keywords       []types.KeywordEntry
	MinFrequency   int
}

// WriteThemes writes the values lexicon, highest confidence first
func (g *Generator) WriteThemes(themes []types.Theme, outputPath string) error {
	sorted := append([]types.Theme(nil), themes...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Confidence > sorted[j].Confidence
	})
	return g.write(ThemesFile, outputPath, pageData{Themes: sorted})
}

// WriteQualifications writes the bullet variations lexicon, most recently
// used position first
func (g *Generator) WriteQualifications(quals []types.Qualification, outputPath string) error {
	sorted := append([]types.Qualification(nil), quals...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return types.DateAfter(latestVariation(sorted[i]), latestVariation(sorted[j]))
	})
	return g.write(QualificationsFile, outputPath, pageData{Qualifications: sorted})
}

// WriteNarratives writes the storytelling catalog with categories in name order
func (g *Generator) WriteNarratives(categories []types.NarrativeCategory, outputPath string) error {
	sorted := append([]types.NarrativeCategory(nil), categories...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CategoryName < sorted[j].CategoryName
	})
	return g.write(NarrativesFile, outputPath, pageData{Narratives: sorted})
}

// WriteKeywords writes the usage index for entries used at least minFrequency
// times, in alphabetical order
func (g *Generator) WriteKeywords(entries []types.KeywordEntry, outputPath string, minFrequency int) error {
	var kept []types.KeywordEntry
	for _, e := range entries {
		if e.Frequency >= minFrequency {
			kept = append(kept, e)
		}
	}
	sort.SliceStable(kept, func(i, j int) bool {
		return strings.ToLower(kept[i].Keyword) < strings.ToLower(kept[j].Keyword)
	})
	return g.write(KeywordsFile, outputPath, pageData{Keywords: kept, MinFrequency: minFrequency})
}

// write renders the named template and replaces the file at outputPath,
// creating parent directories as needed
func (g *Generator) write(name, outputPath string, data pageData) error {
	tmpl, err := templates()
	if err != nil {
		return err
	}

	now := time.Now
	if g.Now != nil {
		now = g.Now
	}
	data.Generated = now().Format(StampLayout)

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, name+".tmpl", data); err != nil {
		return &TemplateError{Message: fmt.Sprintf("failed to execute %s", name), Cause: err}
	}
	content := strings.TrimRight(buf.String(), "\n") + "\n"

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return &RenderError{Message: fmt.Sprintf("failed to create directory for %s", outputPath), Cause: err}
	}
	if err := os.WriteFile(outputPath, []byte(content), 0o644); err != nil {
		return &RenderError{Message: fmt.Sprintf("failed to write %s", outputPath), Cause: err}
	}
	return nil
}

func templates() (*template.Template, error) {
	parseOnce.Do(func() {
		parsed, parseErr = template.New("lexicon").Funcs(funcs).ParseFS(templateFS, "templates/*.tmpl")
		if parseErr != nil {
			parseErr = &TemplateError{Message: "failed to parse lexicon templates", Cause: parseErr}
		}
	})
	return parsed, parseErr
}

var funcs = template.FuncMap{
	"date":             types.FormatDate,
	"percent":          FormatConfidence,
	"blockquote":       Blockquote,
	"bold":             Bold,
	"heading":          qualificationHeading,
	"themeSources":     themeSources,
	"variationSources": variationSources,
	"patternCount":     patternCount,
	"aliases":          joinAliases,
	"docTypes":         joinDocTypes,
}

func qualificationHeading(q types.Qualification) string {
	return qualifications.FormatContext(q.PositionTitle, q.Organization)
}

// FormatConfidence renders a confidence as a whole percentage, e.g. "85%"
func FormatConfidence(c float64) string {
	return fmt.Sprintf("%.0f%%", c*100)
}

// Citation renders a source as "path (YYYY-MM-DD)", or the bare path when undated
func Citation(source string, date *time.Time) string {
	if date == nil {
		return source
	}
	return fmt.Sprintf("%s (%s)", source, types.FormatDate(date))
}

// Blockquote prefixes every line of text with "> "
func Blockquote(text string) string {
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight("> "+l, " ")
	}
	return strings.Join(lines, "\n")
}

// Bold wraps every case-insensitive occurrence of keyword in text with **
func Bold(keyword, text string) string {
	if keyword == "" {
		return text
	}
	return boldPattern(keyword).ReplaceAllStringFunc(text, func(m string) string { return "**" + m + "**" })
}

// boldPatterns caches one case-insensitive pattern per keyword
var boldPatterns sync.Map

func boldPattern(keyword string) *regexp.Regexp {
	if re, ok := boldPatterns.Load(keyword); ok {
		return re.(*regexp.Regexp)
	}
	re, _ := boldPatterns.LoadOrStore(keyword, regexp.MustCompile(`(?i)`+regexp.QuoteMeta(keyword)))
	return re.(*regexp.Regexp)
}

func themeSources(occs []types.ThemeOccurrence) string {
	cites := make([]string, 0, len(occs))
	seen := make(map[string]struct{}, len(occs))
	for _, o := range occs {
		if _, ok := seen[o.SourceDocument]; ok {
			continue
		}
		seen[o.SourceDocument] = struct{}{}
		cites = append(cites, Citation(o.SourceDocument, o.Date))
	}
	return strings.Join(cites, ", ")
}

func variationSources(vars []types.QualificationVariation) string {
	cites := make([]string, 0, len(vars))
	seen := make(map[string]struct{}, len(vars))
	for _, v := range vars {
		if _, ok := seen[v.SourceDocument]; ok {
			continue
		}
		seen[v.SourceDocument] = struct{}{}
		cites = append(cites, Citation(v.SourceDocument, v.Date))
	}
	return strings.Join(cites, ", ")
}

func patternCount(categories []types.NarrativeCategory) int {
	n := 0
	for _, c := range categories {
		n += len(c.Patterns)
	}
	return n
}

func joinAliases(aliases []string) string {
	if len(aliases) == 0 {
		return "None"
	}
	return strings.Join(aliases, ", ")
}

func joinDocTypes(dts []types.DocumentType) string {
	names := make([]string, len(dts))
	for i, dt := range dts {
		names[i] = string(dt)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}

func latestVariation(q types.Qualification) *time.Time {
	var latest *time.Time
	for _, v := range q.Variations {
		if types.DateAfter(v.Date, latest) {
			latest = v.Date
		}
	}
	return latest
}
