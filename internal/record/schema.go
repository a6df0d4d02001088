package record

// TypeSchema lists the fields and creator types valid for one item type.
type TypeSchema struct {
	Fields       []string
	CreatorTypes []string
}

var baseFields = []string{
	"title", "date", "accessDate", "url", "language", "abstractNote",
	"extra", "rights", "shortTitle",
}

// schemas is the static item-type table. Load-once, never mutated.
var schemas = map[string]TypeSchema{
	"journalArticle": {
		Fields: append([]string{
			"publicationTitle", "volume", "issue", "pages", "series",
			"journalAbbreviation", "DOI", "ISSN",
		}, baseFields...),
		CreatorTypes: []string{"author", "contributor", "editor", "reviewedAuthor", "translator"},
	},
	"book": {
		Fields: append([]string{
			"publisher", "place", "edition", "numPages", "series",
			"seriesNumber", "volume", "numberOfVolumes", "ISBN",
		}, baseFields...),
		CreatorTypes: []string{"author", "contributor", "editor", "seriesEditor", "translator"},
	},
	"bookSection": {
		Fields: append([]string{
			"bookTitle", "publisher", "place", "edition", "pages",
			"series", "volume", "ISBN",
		}, baseFields...),
		CreatorTypes: []string{"author", "bookAuthor", "contributor", "editor", "seriesEditor", "translator"},
	},
	"conferencePaper": {
		Fields: append([]string{
			"proceedingsTitle", "conferenceName", "place", "publisher",
			"volume", "pages", "series", "DOI", "ISBN",
		}, baseFields...),
		CreatorTypes: []string{"author", "contributor", "editor", "seriesEditor", "translator"},
	},
	"thesis": {
		Fields: append([]string{
			"thesisType", "university", "place", "numPages",
		}, baseFields...),
		CreatorTypes: []string{"author", "contributor"},
	},
	"report": {
		Fields: append([]string{
			"reportNumber", "reportType", "institution", "place", "pages",
			"seriesTitle",
		}, baseFields...),
		CreatorTypes: []string{"author", "contributor", "seriesEditor", "translator"},
	},
	"newspaperArticle": {
		Fields: append([]string{
			"publicationTitle", "place", "edition", "section", "pages", "ISSN",
		}, baseFields...),
		CreatorTypes: []string{"author", "contributor", "editor", "reviewedAuthor", "translator"},
	},
	"magazineArticle": {
		Fields: append([]string{
			"publicationTitle", "volume", "issue", "pages", "ISSN",
		}, baseFields...),
		CreatorTypes: []string{"author", "contributor", "editor", "reviewedAuthor", "translator"},
	},
	"blogPost": {
		Fields: append([]string{
			"blogTitle", "websiteType",
		}, baseFields...),
		CreatorTypes: []string{"author", "commenter", "contributor"},
	},
	"webpage": {
		Fields: append([]string{
			"websiteTitle", "websiteType",
		}, baseFields...),
		CreatorTypes: []string{"author", "contributor", "translator"},
	},
	"preprint": {
		Fields: append([]string{
			"repository", "archiveID", "DOI", "citationKey",
		}, baseFields...),
		CreatorTypes: []string{"author", "contributor", "editor", "reviewedAuthor", "translator"},
	},
	"document": {
		Fields: append([]string{
			"publisher",
		}, baseFields...),
		CreatorTypes: []string{"author", "contributor", "editor", "reviewedAuthor", "translator"},
	},
}

// DefaultItemType is used when a builder is created without a type.
const DefaultItemType = "webpage"

// ValidItemType reports whether the item type is known to the schema table.
func ValidItemType(itemType string) bool {
	_, ok := schemas[itemType]
	return ok
}

// ItemTypes returns all known item types.
func ItemTypes() []string {
	types := make([]string, 0, len(schemas))
	for t := range schemas {
		types = append(types, t)
	}
	return types
}

// FieldValidForType reports whether the field may be set on the item type.
func FieldValidForType(field, itemType string) bool {
	schema, ok := schemas[itemType]
	if !ok {
		return false
	}
	for _, f := range schema.Fields {
		if f == field {
			return true
		}
	}
	return false
}

// CreatorTypesForItemType returns the creator types valid for the item type.
func CreatorTypesForItemType(itemType string) []string {
	schema, ok := schemas[itemType]
	if !ok {
		return nil
	}
	return append([]string{}, schema.CreatorTypes...)
}

// CreatorTypeValidForItemType reports whether the creator type is allowed on
// the item type.
func CreatorTypeValidForItemType(creatorType, itemType string) bool {
	for _, ct := range CreatorTypesForItemType(itemType) {
		if ct == creatorType {
			return true
		}
	}
	return false
}
