// Package patterns provides the regex and word lists used by the analyzers.
// Pattern sets are stored as JSON files and embedded at compile time so they
// can be audited and changed without touching the analyzers.
package patterns

import (
	"embed"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"
)

//go:embed *.json
var patternFiles embed.FS

// Embedded pattern files
const (
	ThemesFile         = "themes.json"
	NarrativesFile     = "narratives.json"
	QualificationsFile = "qualifications.json"
	KeywordsFile       = "keywords.json"
)

// cache stores compiled pattern sets to avoid repeated parsing
var (
	cache   = make(map[string]any)
	cacheMu sync.RWMutex
)

// ThemeSet holds the value-statement patterns
type ThemeSet struct {
	Triggers []*regexp.Regexp
	Generic  []*regexp.Regexp
	Names    []*regexp.Regexp
}

// ProblemSolutionRule pairs a problem marker with the solution marker that must follow it
type ProblemSolutionRule struct {
	Problem  *regexp.Regexp
	Solution *regexp.Regexp
}

// NarrativeSet holds the rhetorical-device patterns
type NarrativeSet struct {
	Metaphor        []*regexp.Regexp
	OpeningHook     []*regexp.Regexp
	ProblemSolution []ProblemSolutionRule
	CallToAction    []*regexp.Regexp
	Transition      []*regexp.Regexp
}

// QualificationSet holds the resume line patterns
type QualificationSet struct {
	JobWords     []string
	BulletGlyphs string

	TitleComma *regexp.Regexp // "Title, Org"
	TitleAt    *regexp.Regexp // "Title at Org"
	TitleLine  *regexp.Regexp // capitalized line ending in a job word
	OrgLine    *regexp.Regexp // capitalized org-like line
	DateRange  *regexp.Regexp
	JobWord    *regexp.Regexp
	Bullet     *regexp.Regexp
}

// KeywordSet holds the n-gram stopwords
type KeywordSet struct {
	Stopwords map[string]struct{}
}

// IsStopword reports whether the token is a stopword
func (k *KeywordSet) IsStopword(token string) bool {
	_, ok := k.Stopwords[token]
	return ok
}

// Themes returns the compiled theme patterns
func Themes() (*ThemeSet, error) {
	return load(ThemesFile, func(data []byte) (*ThemeSet, error) {
		var raw struct {
			Triggers []string `json:"triggers"`
			Generic  []string `json:"generic"`
			Names    []string `json:"names"`
		}
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, err
		}
		set := &ThemeSet{}
		var err error
		if set.Triggers, err = compileAll(raw.Triggers); err != nil {
			return nil, err
		}
		if set.Generic, err = compileAll(raw.Generic); err != nil {
			return nil, err
		}
		if set.Names, err = compileAll(raw.Names); err != nil {
			return nil, err
		}
		return set, nil
	})
}

// Narratives returns the compiled narrative patterns
func Narratives() (*NarrativeSet, error) {
	return load(NarrativesFile, func(data []byte) (*NarrativeSet, error) {
		var raw struct {
			Metaphor        []string `json:"metaphor"`
			OpeningHook     []string `json:"opening_hook"`
			ProblemSolution []struct {
				Problem  string `json:"problem"`
				Solution string `json:"solution"`
			} `json:"problem_solution"`
			CallToAction []string `json:"call_to_action"`
			Transition   []string `json:"transition"`
		}
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, err
		}
		set := &NarrativeSet{}
		var err error
		if set.Metaphor, err = compileAll(raw.Metaphor); err != nil {
			return nil, err
		}
		if set.OpeningHook, err = compileAll(raw.OpeningHook); err != nil {
			return nil, err
		}
		if set.CallToAction, err = compileAll(raw.CallToAction); err != nil {
			return nil, err
		}
		if set.Transition, err = compileAll(raw.Transition); err != nil {
			return nil, err
		}
		for _, r := range raw.ProblemSolution {
			problem, err := regexp.Compile(r.Problem)
			if err != nil {
				return nil, fmt.Errorf("invalid problem pattern %q: %w", r.Problem, err)
			}
			solution, err := regexp.Compile(r.Solution)
			if err != nil {
				return nil, fmt.Errorf("invalid solution pattern %q: %w", r.Solution, err)
			}
			set.ProblemSolution = append(set.ProblemSolution, ProblemSolutionRule{Problem: problem, Solution: solution})
		}
		return set, nil
	})
}

// monthAlternation matches full and abbreviated English month names
const monthAlternation = `January|February|March|April|May|June|July|August|September|October|November|December|Jan|Feb|Mar|Apr|Jun|Jul|Aug|Sept|Sep|Oct|Nov|Dec`

// Qualifications returns the compiled resume line patterns
func Qualifications() (*QualificationSet, error) {
	return load(QualificationsFile, func(data []byte) (*QualificationSet, error) {
		var raw struct {
			JobWords     []string `json:"job_words"`
			BulletGlyphs string   `json:"bullet_glyphs"`
		}
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, err
		}
		if len(raw.JobWords) == 0 || raw.BulletGlyphs == "" {
			return nil, fmt.Errorf("job_words and bullet_glyphs are required")
		}

		words := make([]string, len(raw.JobWords))
		for i, w := range raw.JobWords {
			words[i] = regexp.QuoteMeta(w)
		}
		jobWords := strings.Join(words, "|")

		var class strings.Builder
		for _, r := range raw.BulletGlyphs {
			if strings.ContainsRune(`\-]^[`, r) {
				class.WriteRune('\\')
			}
			class.WriteRune(r)
		}

		dateTerm := `(?:` + monthAlternation + `|\d{4})`
		return &QualificationSet{
			JobWords:     raw.JobWords,
			BulletGlyphs: raw.BulletGlyphs,
			TitleComma:   regexp.MustCompile(`^([A-Z][A-Za-z\s&]+),\s*([A-Z][A-Za-z\s&.,]+.*)$`),
			TitleAt:      regexp.MustCompile(`^([A-Z][A-Za-z\s&]+?)\s+(?i:at)\s+([A-Z].*)$`),
			TitleLine:    regexp.MustCompile(`^[A-Z][A-Za-z\s&]+(?:` + jobWords + `)\b`),
			OrgLine:      regexp.MustCompile(`^[A-Z][A-Za-z\s&.,]+`),
			DateRange:    regexp.MustCompile(`(?i)^` + dateTerm + `\s*[-–—]\s*(?:` + monthAlternation + `|\d{4}|Present|Current)`),
			JobWord:      regexp.MustCompile(`\b(?:` + jobWords + `)\b`),
			Bullet:       regexp.MustCompile(`^\s*[` + class.String() + `]\s+(\S.*)$`),
		}, nil
	})
}

// Keywords returns the keyword stopword set
func Keywords() (*KeywordSet, error) {
	return load(KeywordsFile, func(data []byte) (*KeywordSet, error) {
		var raw struct {
			Stopwords []string `json:"stopwords"`
		}
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, err
		}
		set := &KeywordSet{Stopwords: make(map[string]struct{}, len(raw.Stopwords))}
		for _, w := range raw.Stopwords {
			set.Stopwords[strings.ToLower(strings.TrimSpace(w))] = struct{}{}
		}
		return set, nil
	})
}

// List returns the embedded pattern file names
func List() []string {
	entries, err := patternFiles.ReadDir(".")
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names
}

// ClearCache clears the compiled pattern cache. Useful for testing.
func ClearCache() {
	cacheMu.Lock()
	cache = make(map[string]any)
	cacheMu.Unlock()
}

// load reads, compiles and caches a pattern file
func load[T any](filename string, compile func([]byte) (T, error)) (T, error) {
	var zero T

	cacheMu.RLock()
	if cached, exists := cache[filename]; exists {
		cacheMu.RUnlock()
		return cached.(T), nil
	}
	cacheMu.RUnlock()

	data, err := patternFiles.ReadFile(filename)
	if err != nil {
		return zero, fmt.Errorf("failed to read pattern file %s: %w", filename, err)
	}

	set, err := compile(data)
	if err != nil {
		return zero, fmt.Errorf("failed to parse pattern file %s: %w", filename, err)
	}

	cacheMu.Lock()
	cache[filename] = set
	cacheMu.Unlock()

	return set, nil
}

func compileAll(exprs []string) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(exprs))
	for _, expr := range exprs {
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", expr, err)
		}
		out = append(out, re)
	}
	return out, nil
}
