package extraction

import (
	"regexp"
	"strings"
)

var (
	whitespaceRun  = regexp.MustCompile(`\s+`)
	blankLineRun   = regexp.MustCompile(`\n\n\n+`)
	bulletPrefixes = []string{"- ", "* ", "• "}
)

// CleanText normalizes line endings and whitespace while keeping the line
// structure the analyzers depend on: headings, bullets and paragraph breaks.
func CleanText(content string) string {
	if content == "" {
		return ""
	}

	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")
	content = strings.ReplaceAll(content, "\f", "\n\n")

	lines := strings.Split(content, "\n")
	cleaned := make([]string, 0, len(lines))
	for _, line := range lines {
		cleaned = append(cleaned, cleanLine(line))
	}

	// At most one blank line in a row
	result := blankLineRun.ReplaceAllString(strings.Join(cleaned, "\n"), "\n\n")
	return strings.TrimSpace(result)
}

// cleanLine trims trailing whitespace and collapses inner runs. Leading
// indentation is kept.
func cleanLine(line string) string {
	line = strings.TrimRight(line, " \t")
	trimmed := strings.TrimLeft(line, " \t")
	if trimmed == "" {
		return ""
	}

	if strings.HasPrefix(trimmed, "#") {
		return trimmed
	}

	indent := line[:len(line)-len(trimmed)]
	if isBulletLine(trimmed) {
		return indent + trimmed
	}
	return indent + whitespaceRun.ReplaceAllString(trimmed, " ")
}

func isBulletLine(trimmed string) bool {
	for _, p := range bulletPrefixes {
		if strings.HasPrefix(trimmed, p) {
			return true
		}
	}
	return false
}
