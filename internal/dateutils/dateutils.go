// Package dateutils provides the date coercion used when normalizing
// export rows.
package dateutils

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Layout constants for the formats seen in Tend exports.
const (
	DateLayoutISO  = "2006-01-02"
	DateLayoutUS   = "01/02/2006"
	DateLayoutFull = "2006-01-02 15:04:05"
)

// fallbackFormats is tried, in order, when the primary US layout does not
// match. Exports have shipped dates in several of these over time.
var fallbackFormats = []string{
	DateLayoutISO,
	DateLayoutFull,
	"2006-01-02T15:04:05Z",
	"01/02/2006 15:04",
	"1/2/2006",
	"01-02-2006",
	"2006/01/02",
	"2-Jan-2006",
	"Jan 2, 2006",
	"January 2, 2006",
}

var spaces = regexp.MustCompile(`\s+`)

// CleanDateString trims and collapses internal whitespace.
func CleanDateString(s string) string {
	return spaces.ReplaceAllString(strings.TrimSpace(s), " ")
}

// ParseDate parses a date string: strict MM/DD/YYYY first, then the
// fallback formats.
func ParseDate(s string) (time.Time, error) {
	cleaned := CleanDateString(s)
	if t, err := time.Parse(DateLayoutUS, cleaned); err == nil {
		return t, nil
	}
	for _, format := range fallbackFormats {
		if t, err := time.Parse(format, cleaned); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unable to parse date: %s", s)
}

// CoerceISO coerces a raw date cell to an ISO calendar date (YYYY-MM-DD).
// Empty input and unparseable values both coerce to nil; a malformed date
// degrades to missing data rather than failing the row.
func CoerceISO(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	t, err := ParseDate(s)
	if err != nil {
		return nil
	}
	iso := t.Format(DateLayoutISO)
	return &iso
}
