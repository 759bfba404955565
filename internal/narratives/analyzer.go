// Package narratives catalogs the storytelling devices used in cover letters:
// metaphors, opening hooks, problem-solution arcs, calls to action and
// transitions.
package narratives

import (
	"context"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/jonathan/career-lexicon/internal/confidence"
	"github.com/jonathan/career-lexicon/internal/patterns"
	"github.com/jonathan/career-lexicon/internal/types"
)

const (
	// MinTextLength is the shortest pattern text kept
	MinTextLength = 15
	// SolutionWindow is how far after a problem marker a solution marker may start
	SolutionWindow = 200
)

var weights = map[string]float64{
	"clarity":   0.4,
	"frequency": 0.3,
	"diversity": 0.3,
}

var (
	paragraphBreak = regexp.MustCompile(`\n\s*\n`)
	hookSentence   = regexp.MustCompile(`[.!?]\s+`)
)

// Analyze extracts narrative patterns from cover letters and groups them into
// categories ordered by name. Other document types are ignored.
func Analyze(ctx context.Context, docs []types.Document) ([]types.NarrativeCategory, error) {
	set, err := patterns.Narratives()
	if err != nil {
		return nil, &AnalysisError{Message: "failed to load narrative patterns", Cause: err}
	}

	var found []types.NarrativePattern
	for _, doc := range types.FilterByType(docs, types.DocCoverLetter) {
		if err := ctx.Err(); err != nil {
			return nil, &AnalysisError{Message: "analysis cancelled", Cause: err}
		}
		found = append(found, ExtractPatterns(set, doc)...)
	}
	return Categorize(found), nil
}

// ExtractPatterns applies every rule family to one document
func ExtractPatterns(set *patterns.NarrativeSet, doc types.Document) []types.NarrativePattern {
	if strings.TrimSpace(doc.Text) == "" {
		return nil
	}

	e := &extractor{doc: doc, paragraphs: splitParagraphs(doc.Text)}
	e.metaphors(set.Metaphor)
	e.openingHook(set.OpeningHook)
	e.problemSolution(set.ProblemSolution)
	e.callsToAction(set.CallToAction)
	e.transitions(set.Transition)
	return e.out
}

type extractor struct {
	doc        types.Document
	paragraphs []string
	out        []types.NarrativePattern
}

// emit records a pattern when its text is long enough
func (e *extractor) emit(pt types.PatternType, text string) bool {
	if utf8.RuneCountInString(text) < MinTextLength {
		return false
	}
	e.out = append(e.out, types.NarrativePattern{
		PatternType:    pt,
		Text:           text,
		Context:        e.paragraphFor(text),
		SourceDocument: e.doc.Filepath,
		Date:           e.doc.Date,
	})
	return true
}

// metaphors emits at most one pattern per sentence; the earliest rule wins
func (e *extractor) metaphors(rules []*regexp.Regexp) {
	used := make(map[int]bool)
	for _, re := range rules {
		for _, loc := range re.FindAllStringIndex(e.doc.Text, -1) {
			start, end := sentenceBounds(e.doc.Text, loc[0])
			if used[start] {
				continue
			}
			if e.emit(types.PatternMetaphor, strings.TrimSpace(e.doc.Text[start:end])) {
				used[start] = true
			}
		}
	}
}

// openingHook looks only at the first paragraph and emits at most one hook,
// its first sentence
func (e *extractor) openingHook(rules []*regexp.Regexp) {
	if len(e.paragraphs) == 0 {
		return
	}
	first := e.paragraphs[0]
	for _, re := range rules {
		if !re.MatchString(first) {
			continue
		}
		hook := strings.TrimSpace(hookSentence.Split(first, 2)[0])
		if e.emit(types.PatternOpeningHook, hook) {
			return
		}
	}
}

// problemSolution emits the sentence of each problem marker that is followed
// closely by a solution marker
func (e *extractor) problemSolution(rules []patterns.ProblemSolutionRule) {
	text := e.doc.Text
	for _, rule := range rules {
		solutions := rule.Solution.FindAllStringIndex(text, -1)
		for _, prob := range rule.Problem.FindAllStringIndex(text, -1) {
			for _, sol := range solutions {
				gap := sol[0] - prob[0]
				if gap <= 0 || gap >= SolutionWindow {
					continue
				}
				start, end := sentenceBounds(text, prob[0])
				e.emit(types.PatternProblemSolution, strings.TrimSpace(text[start:end]))
				break
			}
		}
	}
}

// callsToAction emits the first qualifying match of each rule
func (e *extractor) callsToAction(rules []*regexp.Regexp) {
	for _, re := range rules {
		for _, loc := range re.FindAllStringIndex(e.doc.Text, -1) {
			start, end := sentenceBounds(e.doc.Text, loc[0])
			if e.emit(types.PatternCallToAction, strings.TrimSpace(e.doc.Text[start:end])) {
				break
			}
		}
	}
}

// transitions emits every occurrence
func (e *extractor) transitions(rules []*regexp.Regexp) {
	for _, re := range rules {
		for _, loc := range re.FindAllStringIndex(e.doc.Text, -1) {
			start, end := sentenceBounds(e.doc.Text, loc[0])
			e.emit(types.PatternTransition, strings.TrimSpace(e.doc.Text[start:end]))
		}
	}
}

// paragraphFor returns the paragraph holding text, or text itself
func (e *extractor) paragraphFor(text string) string {
	for _, p := range e.paragraphs {
		if strings.Contains(p, text) {
			return p
		}
	}
	return text
}

// sentenceBounds returns the span around pos delimited by the nearest period
// or newline on each side. The closing period is included.
func sentenceBounds(text string, pos int) (start, end int) {
	start = strings.LastIndexAny(text[:pos], ".\n") + 1
	if i := strings.IndexAny(text[pos:], ".\n"); i >= 0 {
		end = pos + i + 1
	} else {
		end = len(text)
	}
	return start, end
}

func splitParagraphs(text string) []string {
	var out []string
	for _, p := range paragraphBreak.Split(text, -1) {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Categorize groups patterns by type. Patterns within a category are ordered
// by date ascending and categories by name.
func Categorize(found []types.NarrativePattern) []types.NarrativeCategory {
	groups := make(map[types.PatternType][]types.NarrativePattern)
	for _, p := range found {
		groups[p.PatternType] = append(groups[p.PatternType], p)
	}

	categories := make([]types.NarrativeCategory, 0, len(groups))
	for pt, members := range groups {
		sort.SliceStable(members, func(i, j int) bool {
			return types.DateBefore(members[i].Date, members[j].Date)
		})
		categories = append(categories, types.NarrativeCategory{
			CategoryName: CategoryName(pt),
			Patterns:     members,
			Confidence:   score(members),
		})
	}

	sort.Slice(categories, func(i, j int) bool {
		return categories[i].CategoryName < categories[j].CategoryName
	})
	return categories
}

// CategoryName turns a pattern type into a plural title, e.g. "Opening Hooks"
func CategoryName(pt types.PatternType) string {
	name := cases.Title(language.English).String(strings.ReplaceAll(string(pt), "-", " "))
	if !strings.HasSuffix(name, "s") {
		name += "s"
	}
	return name
}

func score(members []types.NarrativePattern) float64 {
	totalLen := 0
	docs := make(map[string]struct{}, len(members))
	for _, p := range members {
		totalLen += utf8.RuneCountInString(p.Text)
		docs[p.SourceDocument] = struct{}{}
	}
	meanLen := float64(totalLen) / float64(len(members))

	return confidence.Score(map[string]float64{
		"clarity":   confidence.Clamp(meanLen / 50),
		"frequency": confidence.Ratio(len(members), 5),
		"diversity": confidence.Ratio(len(docs), 3),
	}, weights)
}
