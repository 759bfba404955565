// Package qualifications collects resume bullets under the position they were
// written for and groups the variations of each position across resumes.
package qualifications

import (
	"context"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/jonathan/career-lexicon/internal/confidence"
	"github.com/jonathan/career-lexicon/internal/patterns"
	"github.com/jonathan/career-lexicon/internal/similarity"
	"github.com/jonathan/career-lexicon/internal/types"
)

const (
	// UnknownPosition is the context of bullets seen before any position header
	UnknownPosition = "Unknown Position"
	// SingleVariationConfidence is assigned when the corpus holds one bullet
	SingleVariationConfidence = 0.6
)

var weights = map[string]float64{
	"clarity":   0.5,
	"frequency": 0.3,
	"diversity": 0.2,
}

var (
	contextAt    = regexp.MustCompile(`(?i)^(.+?)\s+at\s+(.+)$`)
	contextComma = regexp.MustCompile(`^(.+?),\s*(.+)$`)
	slugInvalid  = regexp.MustCompile(`[^\p{L}\p{N}]+`)
)

// Analyze extracts bullet variations from resumes, clusters them by position
// and returns qualifications ordered by their most recent variation.
func Analyze(ctx context.Context, docs []types.Document, sim *similarity.Service) ([]types.Qualification, error) {
	set, err := patterns.Qualifications()
	if err != nil {
		return nil, &AnalysisError{Message: "failed to load qualification patterns", Cause: err}
	}

	var variations []types.QualificationVariation
	for _, doc := range types.FilterByType(docs, types.DocResume) {
		variations = append(variations, ExtractVariations(set, doc)...)
	}

	switch len(variations) {
	case 0:
		return []types.Qualification{}, nil
	case 1:
		q := newQualification(variations)
		q.Confidence = SingleVariationConfidence
		return []types.Qualification{q}, nil
	}

	contexts := make([]string, len(variations))
	for i, v := range variations {
		contexts[i] = v.PositionContext
	}
	clusters, err := sim.ClusterIndices(ctx, contexts, similarity.QualificationThreshold)
	if err != nil {
		return nil, &AnalysisError{Message: "failed to cluster position contexts", Cause: err}
	}

	quals := make([]types.Qualification, 0, len(clusters))
	for _, cluster := range clusters {
		members := make([]types.QualificationVariation, len(cluster))
		for i, idx := range cluster {
			members[i] = variations[idx]
		}
		q := newQualification(members)
		q.Confidence = score(q)
		quals = append(quals, q)
	}

	sort.SliceStable(quals, func(i, j int) bool {
		return types.DateAfter(mostRecent(quals[i]), mostRecent(quals[j]))
	})
	return quals, nil
}

// ExtractVariations scans a resume line by line. Position headers update the
// running context and every bullet becomes a variation under it.
func ExtractVariations(set *patterns.QualificationSet, doc types.Document) []types.QualificationVariation {
	if strings.TrimSpace(doc.Text) == "" {
		return nil
	}

	lines := strings.Split(doc.Text, "\n")
	var (
		out           []types.QualificationVariation
		position, org string
	)

	for i := 0; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		if line == "" {
			continue
		}

		if m := set.Bullet.FindStringSubmatch(line); m != nil {
			out = append(out, types.QualificationVariation{
				Text:            strings.TrimSpace(m[1]),
				SourceDocument:  doc.Filepath,
				Date:            doc.Date,
				PositionContext: FormatContext(position, org),
			})
			continue
		}

		if p, o, consumed, ok := detectPosition(set, lines, i); ok {
			position, org = p, o
			i = consumed
		}
	}
	return out
}

// detectPosition tries the header forms in order: "Title, Org", "Title at Org",
// a title line followed by an org line, then a bare job-word line. consumed is
// the index of the last line used.
func detectPosition(set *patterns.QualificationSet, lines []string, i int) (position, org string, consumed int, ok bool) {
	line := strings.TrimSpace(lines[i])

	if m := set.TitleComma.FindStringSubmatch(line); m != nil {
		return strings.TrimSpace(m[1]), strings.TrimSpace(m[2]), i, true
	}
	if m := set.TitleAt.FindStringSubmatch(line); m != nil {
		return strings.TrimSpace(m[1]), strings.TrimSpace(m[2]), i, true
	}
	if set.TitleLine.MatchString(line) {
		if j := nextNonBlank(lines, i); j >= 0 {
			next := strings.TrimSpace(lines[j])
			if set.OrgLine.MatchString(next) && !set.DateRange.MatchString(next) {
				return line, next, j, true
			}
		}
	}
	if set.JobWord.MatchString(line) {
		return line, "", i, true
	}
	return "", "", i, false
}

func nextNonBlank(lines []string, i int) int {
	for j := i + 1; j < len(lines); j++ {
		if strings.TrimSpace(lines[j]) != "" {
			return j
		}
	}
	return -1
}

// FormatContext renders a position context: "Title at Org", the title or org
// alone, or UnknownPosition
func FormatContext(position, org string) string {
	switch {
	case position != "" && org != "":
		return position + " at " + org
	case position != "":
		return position
	case org != "":
		return org
	default:
		return UnknownPosition
	}
}

// ParseContext splits a position context back into title and organization
func ParseContext(positionContext string) (position, org string) {
	if m := contextAt.FindStringSubmatch(positionContext); m != nil {
		return strings.TrimSpace(m[1]), strings.TrimSpace(m[2])
	}
	if m := contextComma.FindStringSubmatch(positionContext); m != nil {
		return strings.TrimSpace(m[1]), strings.TrimSpace(m[2])
	}
	return strings.TrimSpace(positionContext), ""
}

// ID builds the qualification identifier from title and organization slugs
func ID(position, org string) string {
	p := slug(position)
	if o := slug(org); o != "" {
		return p + "_" + o
	}
	return p
}

func slug(s string) string {
	return strings.Trim(slugInvalid.ReplaceAllString(strings.ToLower(s), "_"), "_")
}

// newQualification sorts members most recent first and names the group after
// the first one
func newQualification(members []types.QualificationVariation) types.Qualification {
	sort.SliceStable(members, func(i, j int) bool {
		return types.DateAfter(members[i].Date, members[j].Date)
	})
	position, org := ParseContext(members[0].PositionContext)
	return types.Qualification{
		QualificationID: ID(position, org),
		PositionTitle:   position,
		Organization:    org,
		Variations:      members,
	}
}

func score(q types.Qualification) float64 {
	clarity := 0.0
	if q.PositionTitle != "" && q.PositionTitle != UnknownPosition {
		clarity += 0.5
	}
	if q.Organization != "" {
		clarity += 0.5
	}
	docs := make(map[string]struct{}, len(q.Variations))
	for _, v := range q.Variations {
		docs[v.SourceDocument] = struct{}{}
	}
	return confidence.Score(map[string]float64{
		"clarity":   clarity,
		"frequency": confidence.Ratio(len(q.Variations), 5),
		"diversity": confidence.Ratio(len(docs), 3),
	}, weights)
}

// mostRecent returns the latest known variation date. Variations are already
// sorted most recent first.
func mostRecent(q types.Qualification) *time.Time {
	for _, v := range q.Variations {
		if v.Date != nil {
			return v.Date
		}
	}
	return nil
}
