package document

import (
	"bytes"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/htmlquery"
	"github.com/saintfish/chardet"
	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"
)

// MaxHTMLSize limits HTML input to 10MB to prevent memory exhaustion.
const MaxHTMLSize = 10 * 1024 * 1024

// Document is a parsed HTML page backed by two independent trees built from
// the same normalized source text: a goquery tree for CSS selector queries
// and an x/net/html tree for XPath evaluation. The trees never share nodes;
// the correlate package bridges between them.
type Document struct {
	url       *url.URL
	primary   *goquery.Document
	secondary *html.Node
	source    string
}

// Parse builds a Document from raw HTML. pageURL may be empty for documents
// with no network origin (tests, pre-fetched fragments).
func Parse(source, pageURL string) (*Document, error) {
	if err := validate(source); err != nil {
		return nil, err
	}

	normalized := toUTF8(source)

	// Both trees must see byte-identical input or structural correlation
	// between them breaks down.
	primary, err := goquery.NewDocumentFromReader(strings.NewReader(normalized))
	if err != nil {
		return nil, fmt.Errorf("primary parse failed: %w", err)
	}
	secondary, err := htmlquery.Parse(strings.NewReader(normalized))
	if err != nil {
		return nil, fmt.Errorf("secondary parse failed: %w", err)
	}

	doc := &Document{
		primary:   primary,
		secondary: secondary,
		source:    normalized,
	}
	if pageURL != "" {
		u, err := url.Parse(pageURL)
		if err == nil {
			doc.url = u
		}
	}
	return doc, nil
}

// URL returns the page URL, or nil when the document has no origin.
func (d *Document) URL() *url.URL {
	return d.url
}

// Source returns the normalized source text both trees were parsed from.
func (d *Document) Source() string {
	return d.source
}

// Select runs a CSS selector against the primary tree.
func (d *Document) Select(selector string) *goquery.Selection {
	return d.primary.Find(selector)
}

// Root returns the primary tree's document node.
func (d *Document) Root() *html.Node {
	return d.primary.Get(0)
}

// Secondary returns the XPath-capable tree's document node.
func (d *Document) Secondary() *html.Node {
	return d.secondary
}

// Title returns the document title, whitespace-normalized.
func (d *Document) Title() string {
	return normalizeSpace(d.primary.Find("title").First().Text())
}

// Text resolves a CSS selector and returns the first match's normalized
// text content. The second return is false when nothing matched.
func (d *Document) Text(selector string) (string, bool) {
	sel := d.primary.Find(selector).First()
	if sel.Length() == 0 {
		return "", false
	}
	return normalizeSpace(sel.Text()), true
}

// Attr resolves a CSS selector and returns the named attribute of the first
// match. The second return is false when nothing matched or the attribute
// is absent.
func (d *Document) Attr(selector, name string) (string, bool) {
	sel := d.primary.Find(selector).First()
	if sel.Length() == 0 {
		return "", false
	}
	return sel.Attr(name)
}

// validate checks HTML size bounds.
func validate(source string) error {
	if len(source) == 0 {
		return fmt.Errorf("html content required")
	}
	if len(source) > MaxHTMLSize {
		return fmt.Errorf("html exceeds maximum size of %d bytes", MaxHTMLSize)
	}
	return nil
}

// detectCharset detects the charset of raw HTML bytes, defaulting to utf-8.
func detectCharset(data []byte) string {
	detector := chardet.NewTextDetector()
	result, err := detector.DetectBest(data)
	if err != nil || result == nil {
		return "utf-8"
	}
	return strings.ToLower(result.Charset)
}

// toUTF8 converts source to UTF-8 using detected charset, falling back to
// the input unchanged when conversion is not possible.
func toUTF8(source string) string {
	data := []byte(source)
	detected := detectCharset(data)
	if detected == "utf-8" {
		return source
	}

	reader, err := charset.NewReader(bytes.NewReader(data), detected)
	if err != nil {
		return source
	}
	converted, err := io.ReadAll(reader)
	if err != nil {
		return source
	}
	return string(converted)
}

// normalizeSpace collapses runs of whitespace into single spaces.
func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
