// Package translator parses translator source headers and resolves candidate
// translators for a URL.
//
// A translator source is UTF-8 text opening with one JSON descriptor object
// (id, label, urlPattern, priority, declaredCapabilityKind) immediately
// followed by function definitions. Parsing fails closed: missing keys,
// garbled JSON or mistyped values exclude that one source without affecting
// the rest of the catalog. An invalid urlPattern regex means "never matches",
// not a fault.
package translator
