package textutil

import (
	"html"
)

// UnescapeHTML replaces HTML entities with their literal characters.
func UnescapeHTML(s string) string {
	return html.UnescapeString(s)
}
