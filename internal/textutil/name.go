package textutil

import (
	"strings"
)

// Name is a parsed personal name.
type Name struct {
	FirstName string
	LastName  string
	// SingleField marks names that do not split (institutions, mononyms).
	SingleField bool
}

// ParseName splits an author string into first and last name. With
// useComma, "Last, First" order is assumed; otherwise the final token is the
// last name ("First Middle Last"). A name with no separable parts becomes a
// single-field name.
func ParseName(raw string, useComma bool) Name {
	s := TrimInternal(raw)
	if s == "" {
		return Name{}
	}

	if useComma {
		if idx := strings.Index(s, ","); idx >= 0 {
			return Name{
				LastName:  strings.TrimSpace(s[:idx]),
				FirstName: strings.TrimSpace(s[idx+1:]),
			}
		}
		return Name{LastName: s, SingleField: true}
	}

	parts := strings.Fields(s)
	if len(parts) == 1 {
		return Name{LastName: s, SingleField: true}
	}
	return Name{
		FirstName: strings.Join(parts[:len(parts)-1], " "),
		LastName:  parts[len(parts)-1],
	}
}
