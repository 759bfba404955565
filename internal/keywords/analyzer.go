// Package keywords builds a cross-referenced index of the multi-word phrases
// used across every document type.
package keywords

import (
	"context"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/jonathan/career-lexicon/internal/patterns"
	"github.com/jonathan/career-lexicon/internal/similarity"
	"github.com/jonathan/career-lexicon/internal/types"
)

const (
	// DefaultMinFrequency is the usage count an entry needs to be reported
	DefaultMinFrequency = 2
	// MinKeywordLength is the shortest n-gram kept, spaces included
	MinKeywordLength = 10
	// MaxAliases caps the aliases listed per entry
	MaxAliases = 5

	minSentenceLength = 10
	minN              = 2
	maxN              = 4
)

var (
	sentenceBreak = regexp.MustCompile(`[.!?]+\s+`)
	wordPattern   = regexp.MustCompile(`\b[a-z]+\b`)
)

// Analyze indexes n-gram usages across all documents. Entries used fewer than
// minFrequency times are dropped; the rest are ordered by frequency, highest
// first. A minFrequency below 1 is treated as 1.
func Analyze(ctx context.Context, docs []types.Document, sim *similarity.Service, minFrequency int) ([]types.KeywordEntry, error) {
	set, err := patterns.Keywords()
	if err != nil {
		return nil, &AnalysisError{Message: "failed to load stopwords", Cause: err}
	}

	var usages []types.KeywordUsage
	for _, doc := range docs {
		usages = append(usages, ExtractUsages(set, doc)...)
	}
	if len(usages) == 0 {
		return []types.KeywordEntry{}, nil
	}

	entries, err := BuildIndex(ctx, usages, sim)
	if err != nil {
		return nil, err
	}

	if minFrequency < 1 {
		minFrequency = 1
	}
	filtered := entries[:0]
	for _, e := range entries {
		if e.Frequency >= minFrequency {
			filtered = append(filtered, e)
		}
	}
	return filtered, nil
}

// ExtractUsages emits one usage per distinct n-gram of each sentence
func ExtractUsages(set *patterns.KeywordSet, doc types.Document) []types.KeywordUsage {
	if strings.TrimSpace(doc.Text) == "" {
		return nil
	}

	var out []types.KeywordUsage
	for _, sentence := range splitSentences(doc.Text) {
		lower := strings.ToLower(sentence)
		seen := make(map[string]struct{})
		for _, gram := range ngrams(wordPattern.FindAllString(lower, -1)) {
			if len(gram) < MinKeywordLength || allStopwords(set, gram) {
				continue
			}
			if _, dup := seen[gram]; dup {
				continue
			}
			// Tokens split by punctuation do not form a phrase of the sentence.
			if !strings.Contains(lower, gram) {
				continue
			}
			seen[gram] = struct{}{}
			out = append(out, types.KeywordUsage{
				Keyword:        gram,
				Context:        sentence,
				SourceDocument: doc.Filepath,
				DocumentType:   doc.DocType,
				Date:           doc.Date,
			})
		}
	}
	return out
}

// BuildIndex groups usages by normalized keyword and resolves aliases from a
// single pairwise similarity matrix over all distinct keywords. Entries are
// ordered by frequency, highest first, ties in first-seen order.
func BuildIndex(ctx context.Context, usages []types.KeywordUsage, sim *similarity.Service) ([]types.KeywordEntry, error) {
	groups := make(map[string][]types.KeywordUsage)
	var keys []string
	for _, u := range usages {
		k := strings.TrimSpace(strings.ToLower(u.Keyword))
		if _, ok := groups[k]; !ok {
			keys = append(keys, k)
		}
		groups[k] = append(groups[k], u)
	}
	if len(keys) == 0 {
		return []types.KeywordEntry{}, nil
	}

	matrix, err := sim.Similarities(ctx, keys)
	if err != nil {
		return nil, &AnalysisError{Message: "failed to compute keyword similarities", Cause: err}
	}

	entries := make([]types.KeywordEntry, 0, len(keys))
	for i, k := range keys {
		members := groups[k]
		sort.SliceStable(members, func(a, b int) bool {
			return types.DateAfter(members[a].Date, members[b].Date)
		})
		entries = append(entries, types.KeywordEntry{
			Keyword:       k,
			Aliases:       aliases(i, keys, matrix),
			Usages:        members,
			Frequency:     len(members),
			DocumentTypes: documentTypes(members),
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Frequency > entries[j].Frequency
	})
	return entries, nil
}

// aliases returns up to MaxAliases other keywords at or above the alias
// threshold, most similar first
func aliases(idx int, keys []string, matrix [][]float64) []string {
	type candidate struct {
		keyword string
		score   float64
	}
	var found []candidate
	for j, s := range matrix[idx] {
		if j != idx && s >= similarity.AliasThreshold {
			found = append(found, candidate{keys[j], s})
		}
	}
	sort.SliceStable(found, func(a, b int) bool {
		return found[a].score > found[b].score
	})

	out := make([]string, 0, min(len(found), MaxAliases))
	for _, c := range found {
		if len(out) == MaxAliases {
			break
		}
		out = append(out, c.keyword)
	}
	return out
}

func documentTypes(usages []types.KeywordUsage) []types.DocumentType {
	seen := make(map[types.DocumentType]struct{})
	var out []types.DocumentType
	for _, u := range usages {
		if _, ok := seen[u.DocumentType]; !ok {
			seen[u.DocumentType] = struct{}{}
			out = append(out, u.DocumentType)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func splitSentences(text string) []string {
	var out []string
	for _, s := range sentenceBreak.Split(text, -1) {
		s = strings.TrimSpace(s)
		if utf8.RuneCountInString(s) > minSentenceLength {
			out = append(out, s)
		}
	}
	return out
}

func ngrams(tokens []string) []string {
	var out []string
	for n := minN; n <= maxN; n++ {
		for i := 0; i+n <= len(tokens); i++ {
			out = append(out, strings.Join(tokens[i:i+n], " "))
		}
	}
	return out
}

func allStopwords(set *patterns.KeywordSet, gram string) bool {
	for _, w := range strings.Fields(gram) {
		if !set.IsStopword(w) {
			return false
		}
	}
	return true
}

// SortAlphabetical orders entries by keyword for presentation
func SortAlphabetical(entries []types.KeywordEntry) []types.KeywordEntry {
	out := make([]types.KeywordEntry, len(entries))
	copy(out, entries)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Keyword < out[j].Keyword })
	return out
}
