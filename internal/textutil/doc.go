// Package textutil provides the pure helper catalog exposed to translator
// code: whitespace and title-case normalization, personal-name splitting,
// date normalization to ISO calendar form, and DOI/ISBN/ISSN cleaning with
// checksum validation.
package textutil
