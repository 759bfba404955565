package types

import "time"

// ThemeOccurrence is one value statement found in a cover letter
type ThemeOccurrence struct {
	Quote          string     `json:"quote"`
	Context        string     `json:"context"`
	SourceDocument string     `json:"source_document"`
	Date           *time.Time `json:"date,omitempty"`
}

// Theme is a cluster of similar value statements
type Theme struct {
	ThemeName   string            `json:"theme_name"`
	Occurrences []ThemeOccurrence `json:"occurrences"` // date ascending, unknown last
	Confidence  float64           `json:"confidence"`
	FirstSeen   *time.Time        `json:"first_seen,omitempty"`
	LastSeen    *time.Time        `json:"last_seen,omitempty"`
}

// QualificationVariation is one resume bullet with the position it appeared under
type QualificationVariation struct {
	Text            string     `json:"text"`
	SourceDocument  string     `json:"source_document"`
	Date            *time.Time `json:"date,omitempty"`
	PositionContext string     `json:"position_context"`
}

// Qualification groups the bullets written for one position across resumes
type Qualification struct {
	QualificationID string                   `json:"qualification_id"`
	PositionTitle   string                   `json:"position_title"`
	Organization    string                   `json:"organization"`
	Variations      []QualificationVariation `json:"variations"` // date descending, unknown last
	Confidence      float64                  `json:"confidence"`
}

// PatternType is one of the fixed narrative pattern categories
type PatternType string

// Narrative pattern types
const (
	PatternMetaphor        PatternType = "metaphor"
	PatternOpeningHook     PatternType = "opening-hook"
	PatternProblemSolution PatternType = "problem-solution"
	PatternCallToAction    PatternType = "call-to-action"
	PatternTransition      PatternType = "transition"
)

// PatternTypes lists the narrative pattern types in detection order
var PatternTypes = []PatternType{
	PatternMetaphor,
	PatternOpeningHook,
	PatternProblemSolution,
	PatternCallToAction,
	PatternTransition,
}

// NarrativePattern is one rhetorical device found in a cover letter
type NarrativePattern struct {
	PatternType    PatternType `json:"pattern_type"`
	Text           string      `json:"text"`
	Context        string      `json:"context"`
	SourceDocument string      `json:"source_document"`
	Date           *time.Time  `json:"date,omitempty"`
}

// NarrativeCategory groups narrative patterns of one type
type NarrativeCategory struct {
	CategoryName string             `json:"category_name"`
	Patterns     []NarrativePattern `json:"patterns"` // date ascending, unknown last
	Confidence   float64            `json:"confidence"`
}

// KeywordUsage is one sentence using a keyword
type KeywordUsage struct {
	Keyword        string       `json:"keyword"`
	Context        string       `json:"context"`
	SourceDocument string       `json:"source_document"`
	DocumentType   DocumentType `json:"document_type"`
	Date           *time.Time   `json:"date,omitempty"`
}

// KeywordEntry indexes every usage of a keyword across the corpus
type KeywordEntry struct {
	Keyword       string         `json:"keyword"`
	Aliases       []string       `json:"aliases"`
	Usages        []KeywordUsage `json:"usages"` // date descending, unknown last
	Frequency     int            `json:"frequency"`
	DocumentTypes []DocumentType `json:"document_types"` // sorted, distinct
}

// Lexicons bundles the findings of one analysis pass
type Lexicons struct {
	Themes         []Theme             `json:"themes"`
	Qualifications []Qualification     `json:"qualifications"`
	Narratives     []NarrativeCategory `json:"narratives"`
	Keywords       []KeywordEntry      `json:"keywords"`
}
