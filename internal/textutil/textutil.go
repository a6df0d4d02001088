package textutil

import (
	"fmt"
	"regexp"
	"strings"
)

// TrimInternal collapses internal whitespace runs to single spaces and trims
// the ends.
func TrimInternal(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

var doiPattern = regexp.MustCompile(`10\.\d{4,9}/[^\s"'<>]+`)

// CleanDOI extracts a DOI from arbitrary text (bare, doi:-prefixed or
// resolver URLs). Returns "" when none is found.
func CleanDOI(s string) string {
	match := doiPattern.FindString(s)
	// Trailing punctuation is never part of a DOI in running text.
	return strings.TrimRight(match, ".,;)")
}

// CleanISBN validates and normalizes an ISBN-10 or ISBN-13, stripping
// hyphens and spaces. Returns "" on checksum failure.
func CleanISBN(s string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r >= '0' && r <= '9':
			return r
		case r == 'x' || r == 'X':
			return 'X'
		default:
			return -1
		}
	}, s)

	switch len(cleaned) {
	case 10:
		if isbn10Valid(cleaned) {
			return cleaned
		}
	case 13:
		if isbn13Valid(cleaned) {
			return cleaned
		}
	}
	return ""
}

func isbn10Valid(s string) bool {
	sum := 0
	for i, r := range s {
		var v int
		switch {
		case r == 'X' && i == 9:
			v = 10
		case r >= '0' && r <= '9':
			v = int(r - '0')
		default:
			return false
		}
		sum += v * (10 - i)
	}
	return sum%11 == 0
}

func isbn13Valid(s string) bool {
	sum := 0
	for i, r := range s {
		if r < '0' || r > '9' {
			return false
		}
		v := int(r - '0')
		if i%2 == 1 {
			v *= 3
		}
		sum += v
	}
	return sum%10 == 0
}

var issnPattern = regexp.MustCompile(`(\d{4})-?(\d{3}[\dxX])`)

// CleanISSN validates and normalizes an ISSN to NNNN-NNNC form. Returns ""
// on checksum failure.
func CleanISSN(s string) string {
	m := issnPattern.FindStringSubmatch(s)
	if m == nil {
		return ""
	}
	digits := m[1] + strings.ToUpper(m[2])

	sum := 0
	for i := 0; i < 7; i++ {
		sum += int(digits[i]-'0') * (8 - i)
	}
	check := (11 - sum%11) % 11
	want := byte('0' + check)
	if check == 10 {
		want = 'X'
	}
	if digits[7] != want {
		return ""
	}
	return fmt.Sprintf("%s-%s", digits[:4], digits[4:])
}

// smallWords stay lowercase in title case unless first or last.
var smallWords = map[string]bool{
	"a": true, "an": true, "and": true, "as": true, "at": true, "but": true,
	"by": true, "for": true, "in": true, "nor": true, "of": true, "on": true,
	"or": true, "the": true, "to": true, "via": true, "with": true,
}

// CapitalizeTitle converts a string to title case, keeping articles and
// short prepositions lowercase except at the boundaries.
func CapitalizeTitle(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		lower := strings.ToLower(w)
		if i != 0 && i != len(words)-1 && smallWords[lower] {
			words[i] = lower
			continue
		}
		words[i] = upperFirst(lower)
	}
	return strings.Join(words, " ")
}

func upperFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
