// Package document provides the parsed HTML page model used throughout the
// extraction pipeline.
//
// Each Document is parsed twice from the same normalized UTF-8 text:
//   - goquery: jQuery-like CSS selectors (no XPath support)
//   - x/net/html via htmlquery: XPath evaluation
//
// Charset handling follows chardet detection with x/net/html/charset
// conversion, falling back to the raw input when conversion fails.
package document
