// Package classify decides whether a career document is a resume, a cover
// letter or a job description.
package classify

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/jonathan/career-lexicon/internal/types"
)

const (
	// FilenameConfidence is reported for any filename match
	FilenameConfidence = 0.95
	// MinScore is the lowest content score that yields a known type
	MinScore = 0.3
	// MinTextLength is the shortest trimmed text content analysis will score
	MinTextLength = 50
)

type filenameRule struct {
	docType  types.DocumentType
	patterns []*regexp.Regexp
}

// Rules are checked in order; resume patterns win over cover-letter ones.
var filenameRules = []filenameRule{
	{types.DocResume, compileAll(`resume`, `\bcv\b`, `curriculum.vitae`)},
	{types.DocCoverLetter, compileAll(`\bcover.?letter\b`, `\bletter\b`)},
	{types.DocJobDescription, compileAll(`\bjob.?description\b`, `\bjob.?posting\b`, `\bposition.?description\b`)},
}

var (
	salutations = compileAll(`\bdear\s+\w+`, `\bhello\s+\w+`, `\bto whom it may concern\b`)
	closings    = compileAll(`\bsincerely\b`, `\bbest regards\b`, `\byours truly\b`,
		`\brespectfully\b`, `\bthank you for your consideration\b`)
	coverPhrases = []string{
		"i am writing to",
		"i am interested in",
		"i would like to apply",
		"i am excited to",
		"my experience makes me",
	}

	resumeSections = compileAll(`\bexperience\b`, `\beducation\b`, `\bskills\b`,
		`\bcertifications?\b`, `\bqualifications?\b`, `\bprofessional summary\b`, `\bwork history\b`)
	dateRanges = compileAll(`\d{4}\s*[-–—]\s*\d{4}`, `\d{4}\s*[-–—]\s*present`,
		`\w+\s+\d{4}\s*[-–—]\s*\w+\s+\d{4}`)
	contactInfo = compileAll(`\b[a-z0-9._%+-]+@[a-z0-9.-]+\.[a-z]{2,}\b`,
		`\b\d{3}[-.)]\s*\d{3}[-.)]\s*\d{4}\b`)

	jobPhrases = []string{
		"we are seeking",
		"we are looking for",
		"responsibilities include",
		"required qualifications",
		"preferred qualifications",
		"job requirements",
		"position requires",
		"you will be responsible",
		"the ideal candidate",
	}
	companyVoice = compileAll(`\bour company\b`, `\bour team\b`, `\bwe offer\b`, `\bjoin us\b`)
)

func compileAll(exprs ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(exprs))
	for i, e := range exprs {
		out[i] = regexp.MustCompile(e)
	}
	return out
}

// Classify returns the document type, a confidence in [0,1] and a short
// reasoning string. The filename is consulted first; content scoring is the
// fallback.
func Classify(path, text string) (types.DocumentType, float64, string) {
	if docType, ok := ByFilename(filepath.Base(path)); ok {
		return docType, FilenameConfidence, fmt.Sprintf("Filename match: %s", docType)
	}
	docType, confidence, reasoning := ByContent(text)
	return docType, confidence, "Content analysis: " + reasoning
}

// ByFilename matches the lowercased filename against the known naming patterns
func ByFilename(filename string) (types.DocumentType, bool) {
	lower := strings.ToLower(filename)
	for _, rule := range filenameRules {
		if anyMatch(rule.patterns, lower) {
			return rule.docType, true
		}
	}
	return types.DocUnknown, false
}

// ByContent scores the text against each document type and returns the best.
// Scores below MinScore yield unknown.
func ByContent(text string) (types.DocumentType, float64, string) {
	if utf8.RuneCountInString(strings.TrimSpace(text)) < MinTextLength {
		return types.DocUnknown, 0.0, "Text too short for classification"
	}

	lower := strings.ToLower(text)
	length := utf8.RuneCountInString(text)
	bullets := strings.Count(text, "•") + strings.Count(text, "*") + strings.Count(text, "-")
	density := float64(bullets) / float64(length)
	var indicators []string

	var cover float64
	if anyMatch(salutations, lower) {
		cover += 0.4
		indicators = append(indicators, "salutation found")
	}
	if anyMatch(closings, lower) {
		cover += 0.4
		indicators = append(indicators, "closing found")
	}
	if n := countContains(coverPhrases, lower); n > 0 {
		cover += min(0.3, float64(n)*0.1)
		indicators = append(indicators, fmt.Sprintf("%d cover letter phrases", n))
	}
	if length > 200 && density < 0.01 {
		cover += 0.2
		indicators = append(indicators, "paragraph-heavy structure")
	}

	var resume float64
	switch n := countMatching(resumeSections, lower); {
	case n >= 2:
		resume += 0.5
		indicators = append(indicators, fmt.Sprintf("%d resume sections", n))
	case n == 1:
		resume += 0.2
		indicators = append(indicators, "1 resume section")
	}
	ranges := 0
	for _, re := range dateRanges {
		ranges += len(re.FindAllStringIndex(lower, -1))
	}
	if ranges >= 2 {
		resume += 0.3
		indicators = append(indicators, fmt.Sprintf("%d date ranges", ranges))
	}
	if length > 200 && density > 0.02 {
		resume += 0.3
		indicators = append(indicators, "bullet-heavy structure")
	}
	if anyMatch(contactInfo, lower) {
		resume += 0.1
		indicators = append(indicators, "contact info")
	}

	var job float64
	switch n := countContains(jobPhrases, lower); {
	case n >= 2:
		job += 0.5
		indicators = append(indicators, fmt.Sprintf("%d job posting phrases", n))
	case n == 1:
		job += 0.2
		indicators = append(indicators, "1 job posting phrase")
	}
	if n := countMatching(companyVoice, lower); n > 0 {
		job += min(0.3, float64(n)*0.15)
		indicators = append(indicators, fmt.Sprintf("%d company phrases", n))
	}

	// Ties resolve in this order.
	best, bestScore := types.DocResume, resume
	if cover > bestScore {
		best, bestScore = types.DocCoverLetter, cover
	}
	if job > bestScore {
		best, bestScore = types.DocJobDescription, job
	}

	detail := strings.Join(indicators, "; ")
	if bestScore < MinScore {
		return types.DocUnknown, bestScore, fmt.Sprintf("Ambiguous document (max score: %.2f). %s", bestScore, detail)
	}
	return best, min(1.0, bestScore), fmt.Sprintf("%s (score: %.2f). %s", best, bestScore, detail)
}

func anyMatch(patterns []*regexp.Regexp, s string) bool {
	for _, re := range patterns {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}

func countMatching(patterns []*regexp.Regexp, s string) int {
	n := 0
	for _, re := range patterns {
		if re.MatchString(s) {
			n++
		}
	}
	return n
}

func countContains(phrases []string, s string) int {
	n := 0
	for _, p := range phrases {
		if strings.Contains(s, p) {
			n++
		}
	}
	return n
}
