// Package dates extracts document dates from filenames.
package dates

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var monthNumbers = map[string]time.Month{
	"january": time.January, "jan": time.January,
	"february": time.February, "feb": time.February,
	"march": time.March, "mar": time.March,
	"april": time.April, "apr": time.April,
	"may":  time.May,
	"june": time.June, "jun": time.June,
	"july": time.July, "jul": time.July,
	"august": time.August, "aug": time.August,
	"september": time.September, "sept": time.September, "sep": time.September,
	"october": time.October, "oct": time.October,
	"november": time.November, "nov": time.November,
	"december": time.December, "dec": time.December,
}

var (
	fullDatePattern  = regexp.MustCompile(`(\d{4})-(\d{2})-(\d{2})`)
	yearMonthPattern = regexp.MustCompile(`(\d{4})-(\d{2})`)
	dayTailPattern   = regexp.MustCompile(`^-\d{2}`)
	// Longer names precede their abbreviations so "sept" wins over "sep".
	monthYearPattern = regexp.MustCompile(`(?i)(january|jan|february|feb|march|mar|april|apr|may|june|jun|july|jul|august|aug|september|sept|sep|october|oct|november|nov|december|dec)[-_ ]?(\d{4})`)
)

// ParseFilename extracts a date from a filename, trying in order:
// YYYY-MM-DD, YYYY-MM (day 1, not followed by -DD), and MonthYYYY or
// Month-YYYY (day 1). Invalid calendar dates are skipped. Returns nil when
// no date is found.
func ParseFilename(filename string) *time.Time {
	if filename == "" {
		return nil
	}

	if m := fullDatePattern.FindStringSubmatch(filename); m != nil {
		if d := makeDate(m[1], m[2], m[3]); d != nil {
			return d
		}
	}

	for _, loc := range yearMonthPattern.FindAllStringSubmatchIndex(filename, -1) {
		if dayTailPattern.MatchString(filename[loc[1]:]) {
			continue
		}
		if d := makeDate(filename[loc[2]:loc[3]], filename[loc[4]:loc[5]], "01"); d != nil {
			return d
		}
	}

	if m := monthYearPattern.FindStringSubmatch(filename); m != nil {
		month := monthNumbers[strings.ToLower(m[1])]
		year, err := strconv.Atoi(m[2])
		if err == nil && month != 0 {
			d := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
			return &d
		}
	}

	return nil
}

// makeDate builds a UTC date, rejecting values time.Date would normalize
func makeDate(yearStr, monthStr, dayStr string) *time.Time {
	year, err1 := strconv.Atoi(yearStr)
	month, err2 := strconv.Atoi(monthStr)
	day, err3 := strconv.Atoi(dayStr)
	if err1 != nil || err2 != nil || err3 != nil {
		return nil
	}
	if month < 1 || month > 12 || day < 1 {
		return nil
	}
	d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if d.Day() != day || int(d.Month()) != month {
		return nil
	}
	return &d
}
