package library

import (
	"fmt"
	"strings"
)

// SearchField names a Book field that SearchBooks can match against.
type SearchField string

const (
	FieldTitle    SearchField = "title"
	FieldAuthor   SearchField = "author"
	FieldCategory SearchField = "category"
)

// DefaultSearchFields is the search scope used unless configured otherwise.
// Title is deliberately not part of it.
var DefaultSearchFields = []SearchField{FieldAuthor, FieldCategory}

// ParseSearchFields converts configuration values into SearchFields.
// Names are case-insensitive; duplicates are dropped.
func ParseSearchFields(names []string) ([]SearchField, error) {
	var fields []SearchField
	seen := make(map[SearchField]bool)
	for _, name := range names {
		f := SearchField(strings.ToLower(strings.TrimSpace(name)))
		switch f {
		case FieldTitle, FieldAuthor, FieldCategory:
		default:
			return nil, fmt.Errorf("%w: unknown search field %q", ErrInvalidInput, name)
		}
		if !seen[f] {
			seen[f] = true
			fields = append(fields, f)
		}
	}
	if len(fields) == 0 {
		return DefaultSearchFields, nil
	}
	return fields, nil
}

func (f SearchField) valueOf(b *Book) string {
	switch f {
	case FieldTitle:
		return b.Title
	case FieldAuthor:
		return b.Author
	case FieldCategory:
		return b.Category
	}
	return ""
}

// MatchBooks returns, in input order, the books where the lowercased query is
// a substring of any of fields, lowercased.
func MatchBooks(books []*Book, query string, fields []SearchField) []*Book {
	q := strings.ToLower(query)
	matched := []*Book{}
	for _, b := range books {
		for _, f := range fields {
			if strings.Contains(strings.ToLower(f.valueOf(b)), q) {
				matched = append(matched, b)
				break
			}
		}
	}
	return matched
}
