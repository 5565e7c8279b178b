package library

import "errors"

var (
	// ErrStorageUnavailable is returned when the database file cannot be
	// opened or created. Callers should treat it as fatal.
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrBookNotFound is returned by GetBook for an unknown id.
	ErrBookNotFound = errors.New("book not found")

	// ErrInvalidInput is returned by LibraryManager when a value fails
	// caller-side validation. The Database itself never returns it.
	ErrInvalidInput = errors.New("invalid input")

	// ErrExport wraps every failure to write an export artifact.
	ErrExport = errors.New("export failed")
)
