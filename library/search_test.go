package library

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSearchFields(t *testing.T) {
	fields, err := ParseSearchFields([]string{" Title", "AUTHOR", "title"})
	require.NoError(t, err)
	assert.Equal(t, []SearchField{FieldTitle, FieldAuthor}, fields)

	fields, err = ParseSearchFields(nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultSearchFields, fields)

	_, err = ParseSearchFields([]string{"isbn"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestMatchBooks(t *testing.T) {
	books := []*Book{
		{ID: 1, Title: "Ünïcode Title", Author: "ÉMILE Zola", Category: CategoryFiction},
		{ID: 2, Title: "Plain", Author: "zola fan club", Category: CategoryOther},
		{ID: 3, Title: "Zola biography", Author: "Someone", Category: CategoryNonFiction},
	}

	got := MatchBooks(books, "ZOLA", DefaultSearchFields)
	assert.Equal(t, []*Book{books[0], books[1]}, got)

	got = MatchBooks(books, "émile", DefaultSearchFields)
	assert.Equal(t, []*Book{books[0]}, got)

	got = MatchBooks(books, "zola", []SearchField{FieldTitle})
	assert.Equal(t, []*Book{books[2]}, got)

	// A book matching on two fields is returned once.
	got = MatchBooks(books, "o", []SearchField{FieldTitle, FieldAuthor, FieldCategory})
	assert.Len(t, got, 3)

	assert.Empty(t, MatchBooks(nil, "x", DefaultSearchFields))
}
