package record

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidItemType(t *testing.T) {
	assert.True(t, ValidItemType("journalArticle"))
	assert.True(t, ValidItemType("book"))
	assert.True(t, ValidItemType("webpage"))
	assert.False(t, ValidItemType("sculpture"))
	assert.False(t, ValidItemType(""))
}

func TestFieldValidForType(t *testing.T) {
	assert.True(t, FieldValidForType("DOI", "journalArticle"))
	assert.True(t, FieldValidForType("ISBN", "book"))
	assert.False(t, FieldValidForType("ISBN", "journalArticle"))
	assert.False(t, FieldValidForType("anything", "notAType"))
}

func TestCreatorTypes(t *testing.T) {
	types := CreatorTypesForItemType("journalArticle")
	require.NotEmpty(t, types)
	assert.Equal(t, "author", types[0], "primary creator type listed first")

	assert.True(t, CreatorTypeValidForItemType("author", "journalArticle"))
	assert.True(t, CreatorTypeValidForItemType("editor", "book"))
	assert.False(t, CreatorTypeValidForItemType("inventor", "journalArticle"))
	assert.Empty(t, CreatorTypesForItemType("notAType"))
}
