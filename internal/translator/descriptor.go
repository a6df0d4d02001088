package translator

import (
	"regexp"
	"strings"

	"github.com/bytedance/sonic"
)

// Translator capability kinds. Kind is a bitmask; only the web page
// extraction class is exercised by this service.
const (
	KindImport = 1
	KindExport = 2
	KindWeb    = 4
	KindSearch = 8
)

// Descriptor is the parsed metadata header of a translator source. Immutable
// after parse.
type Descriptor struct {
	ID         string
	Label      string
	URLPattern string
	Priority   int
	Kind       int
}

// Translator pairs a descriptor with the executable body of its source.
type Translator struct {
	Descriptor

	// Body is the source text after the header: the function definitions.
	Body string

	// pattern is the compiled URLPattern, nil when compilation failed. A bad
	// pattern means "never matches", never a runtime fault.
	pattern *regexp.Regexp
}

// header mirrors the JSON object that opens every translator source. Pointer
// fields distinguish absent keys from zero values.
type header struct {
	ID       *string `json:"id"`
	Label    *string `json:"label"`
	Pattern  *string `json:"urlPattern"`
	Priority *int    `json:"priority"`
	Kind     *int    `json:"declaredCapabilityKind"`
}

// Parse reads one translator source: a JSON descriptor object, surrounded by
// optional whitespace, immediately followed by function definitions. It
// returns false on a missing or malformed header, garbled JSON, or missing
// or mistyped keys. It never returns an error or panics.
func Parse(source string) (*Translator, bool) {
	trimmed := strings.TrimLeftFunc(source, isSpace)
	if !strings.HasPrefix(trimmed, "{") {
		return nil, false
	}

	end := headerEnd(trimmed)
	if end < 0 {
		return nil, false
	}

	var h header
	if err := sonic.Unmarshal([]byte(trimmed[:end]), &h); err != nil {
		return nil, false
	}
	if h.ID == nil || h.Label == nil || h.Pattern == nil || h.Priority == nil || h.Kind == nil {
		return nil, false
	}

	t := &Translator{
		Descriptor: Descriptor{
			ID:         *h.ID,
			Label:      *h.Label,
			URLPattern: *h.Pattern,
			Priority:   *h.Priority,
			Kind:       *h.Kind,
		},
		Body: trimmed[end:],
	}

	if re, err := regexp.Compile(t.URLPattern); err == nil {
		t.pattern = re
	}
	return t, true
}

// MatchesURL reports whether the translator's URL pattern matches. An
// invalid pattern never matches and never raises, isolating one bad entry
// from the rest of the catalog.
func (t *Translator) MatchesURL(url string) bool {
	if t.pattern == nil {
		return false
	}
	return t.pattern.MatchString(url)
}

// headerEnd returns the length of the balanced JSON object opening s, or -1
// when the object never closes. Braces inside JSON strings are ignored.
func headerEnd(s string) int {
	depth := 0
	inString := false
	escaped := false

	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i + 1
			}
		}
	}
	return -1
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}
