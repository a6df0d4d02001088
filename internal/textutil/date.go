package textutil

import (
	"regexp"
	"time"
)

// dateLayouts are tried in order; earlier entries are more specific.
var dateLayouts = []string{
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02",
	"2006/01/02",
	"02 January 2006",
	"2 January 2006",
	"January 2, 2006",
	"Jan 2, 2006",
	"January 2 2006",
	"02.01.2006",
	"01/02/2006",
	"2006-01",
	"January 2006",
	"Jan 2006",
}

var yearOnly = regexp.MustCompile(`^\d{4}$`)
var yearMonth = regexp.MustCompile(`^(\d{4})-(\d{2})$`)
var looseYear = regexp.MustCompile(`\b(1[5-9]\d{2}|20\d{2})\b`)

// DateToISO normalizes a free-form date string to ISO 8601 calendar form
// (YYYY-MM-DD, or the partial YYYY / YYYY-MM when that is all the input
// carries). Returns "" for unparseable input.
func DateToISO(s string) string {
	cleaned := TrimInternal(s)
	if cleaned == "" {
		return ""
	}
	if yearOnly.MatchString(cleaned) {
		return cleaned
	}
	if yearMonth.MatchString(cleaned) {
		return cleaned
	}

	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, cleaned)
		if err != nil {
			continue
		}
		if layout == "2006-01" || layout == "January 2006" || layout == "Jan 2006" {
			return t.Format("2006-01")
		}
		return t.Format("2006-01-02")
	}

	// Last resort: a four-digit year anywhere in the string.
	if m := looseYear.FindString(cleaned); m != "" {
		return m
	}
	return ""
}
