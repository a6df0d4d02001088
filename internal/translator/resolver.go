package translator

import (
	"sort"
)

// Resolve returns the web-kind translators whose URL patterns match the
// given URL, sorted by priority descending. Equal priorities preserve
// catalog order (stable sort).
func (c *Catalog) Resolve(url string) []*Translator {
	var matched []*Translator
	for _, t := range c.entries {
		if t.Kind&KindWeb == 0 {
			continue
		}
		if t.MatchesURL(url) {
			matched = append(matched, t)
		}
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].Priority > matched[j].Priority
	})
	return matched
}
