// Package themes finds recurring value statements in cover letters and groups
// them into themes.
package themes

import (
	"context"
	"regexp"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/jonathan/career-lexicon/internal/confidence"
	"github.com/jonathan/career-lexicon/internal/patterns"
	"github.com/jonathan/career-lexicon/internal/similarity"
	"github.com/jonathan/career-lexicon/internal/types"
)

const (
	// MinQuoteLength is the shortest quote kept
	MinQuoteLength = 15
	// SingleOccurrenceConfidence is assigned to a theme seen exactly once
	SingleOccurrenceConfidence = 0.6
	// fallbackNameWords is how many leading words name a theme with no trigger fragment
	fallbackNameWords = 5
)

// Confidence weights
const (
	WeightFrequency         = 0.4
	WeightTemporalStability = 0.3
	WeightDocumentDiversity = 0.3
)

var weights = map[string]float64{
	"frequency":          WeightFrequency,
	"temporal_stability": WeightTemporalStability,
	"document_diversity": WeightDocumentDiversity,
}

// sentenceBreak finds a sentence end followed by whitespace and a capital
var sentenceBreak = regexp.MustCompile(`[.!?]\s+[A-Z]`)

// Analyze extracts value statements from cover letters and clusters them into
// themes ordered by confidence, highest first. Other document types are ignored.
func Analyze(ctx context.Context, docs []types.Document, sim *similarity.Service) ([]types.Theme, error) {
	set, err := patterns.Themes()
	if err != nil {
		return nil, &AnalysisError{Message: "failed to load theme patterns", Cause: err}
	}

	var occurrences []types.ThemeOccurrence
	for _, doc := range types.FilterByType(docs, types.DocCoverLetter) {
		occurrences = append(occurrences, ExtractOccurrences(set, doc)...)
	}
	if len(occurrences) == 0 {
		return []types.Theme{}, nil
	}

	quotes := make([]string, len(occurrences))
	for i, occ := range occurrences {
		quotes[i] = occ.Quote
	}
	clusters, err := sim.ClusterIndices(ctx, quotes, similarity.ThemeThreshold)
	if err != nil {
		return nil, &AnalysisError{Message: "failed to cluster quotes", Cause: err}
	}

	themes := make([]types.Theme, 0, len(clusters))
	for _, cluster := range clusters {
		members := make([]types.ThemeOccurrence, len(cluster))
		for i, idx := range cluster {
			members[i] = occurrences[idx]
		}
		themes = append(themes, buildTheme(set, members))
	}

	sort.SliceStable(themes, func(i, j int) bool {
		return themes[i].Confidence > themes[j].Confidence
	})
	return themes, nil
}

// ExtractOccurrences applies the trigger patterns to one document. Quotes run
// from the trigger to the next sentence terminator.
func ExtractOccurrences(set *patterns.ThemeSet, doc types.Document) []types.ThemeOccurrence {
	if strings.TrimSpace(doc.Text) == "" {
		return nil
	}

	sentences := splitSentences(doc.Text)
	var out []types.ThemeOccurrence
	for _, trigger := range set.Triggers {
		for _, match := range trigger.FindAllString(doc.Text, -1) {
			quote := strings.TrimSpace(match)
			if len(quote) < MinQuoteLength || isGeneric(set, quote) {
				continue
			}
			out = append(out, types.ThemeOccurrence{
				Quote:          quote,
				Context:        surroundingContext(sentences, quote),
				SourceDocument: doc.Filepath,
				Date:           doc.Date,
			})
		}
	}
	return out
}

func isGeneric(set *patterns.ThemeSet, quote string) bool {
	for _, re := range set.Generic {
		if re.MatchString(quote) {
			return true
		}
	}
	return false
}

// splitSentences breaks text after . ! or ? when whitespace and an upper-case
// letter follow
func splitSentences(text string) []string {
	var sentences []string
	start := 0
	for _, loc := range sentenceBreak.FindAllStringIndex(text, -1) {
		if s := strings.TrimSpace(text[start : loc[0]+1]); s != "" {
			sentences = append(sentences, s)
		}
		start = loc[1] - 1
	}
	if s := strings.TrimSpace(text[start:]); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}

// surroundingContext joins the sentence holding quote with its neighbours.
// The quote itself is returned when no sentence contains it.
func surroundingContext(sentences []string, quote string) string {
	for i, s := range sentences {
		if !strings.Contains(s, quote) {
			continue
		}
		lo := max(0, i-1)
		hi := min(len(sentences), i+2)
		return strings.Join(sentences[lo:hi], " ")
	}
	return quote
}

func buildTheme(set *patterns.ThemeSet, members []types.ThemeOccurrence) types.Theme {
	sort.SliceStable(members, func(i, j int) bool {
		return types.DateBefore(members[i].Date, members[j].Date)
	})

	dates := make([]*time.Time, len(members))
	for i, m := range members {
		dates[i] = m.Date
	}
	first, last := types.DateRange(dates)

	name := ""
	for _, m := range members {
		candidate := themeName(set, m.Quote)
		if name == "" || len(candidate) < len(name) {
			name = candidate
		}
	}

	return types.Theme{
		ThemeName:   name,
		Occurrences: members,
		Confidence:  score(members, dates),
		FirstSeen:   first,
		LastSeen:    last,
	}
}

func score(members []types.ThemeOccurrence, dates []*time.Time) float64 {
	if len(members) == 1 {
		return SingleOccurrenceConfidence
	}

	temporal := 0.5
	if n := types.CountDistinctDates(dates); n > 0 {
		temporal = confidence.Ratio(n, 3)
	}
	docs := make(map[string]struct{}, len(members))
	for _, m := range members {
		docs[m.SourceDocument] = struct{}{}
	}

	return confidence.Score(map[string]float64{
		"frequency":          confidence.Ratio(len(members), 5),
		"temporal_stability": temporal,
		"document_diversity": confidence.Ratio(len(docs), 3),
	}, weights)
}

// themeName title-cases the fragment after the trigger phrase, falling back
// to the first few words of the quote
func themeName(set *patterns.ThemeSet, quote string) string {
	for _, re := range set.Names {
		if m := re.FindStringSubmatch(quote); m != nil {
			if concept := strings.TrimSpace(m[1]); concept != "" {
				return cases.Title(language.English).String(concept)
			}
		}
	}
	words := strings.Fields(quote)
	if len(words) > fallbackNameWords {
		words = words[:fallbackNameWords]
	}
	return cases.Title(language.English).String(strings.Join(words, " "))
}
