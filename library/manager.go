package library

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
)

// LibraryManager is a thin façade over the Database, keeping CLI code simple.
// It owns the caller-side validation the Database leaves out.
type LibraryManager struct {
	db  *Database
	log *slog.Logger
}

// NewLibraryManager opens (or creates) the SQLite database at dbPath.
// A nil logger discards log output.
func NewLibraryManager(dbPath string, logger *slog.Logger, opts ...Option) (*LibraryManager, error) {
	db, err := NewDatabase(dbPath, opts...)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	logger.Debug("database ready", "path", dbPath, "driver", db.Driver())
	return &LibraryManager{db: db, log: logger}, nil
}

// Close closes the underlying database.
func (lm *LibraryManager) Close() error { return lm.db.Close() }

// ------------------ Users ------------------

// Register stores a new login. Username and password must be non-blank; an
// existing username is not rejected.
func (lm *LibraryManager) Register(username, password string) error {
	if strings.TrimSpace(username) == "" || password == "" {
		return fmt.Errorf("%w: username and password are required", ErrInvalidInput)
	}
	if err := lm.db.RegisterUser(username, password); err != nil {
		return err
	}
	lm.log.Info("user registered", "username", username)
	return nil
}

// Login reports whether the credentials match a registered user.
func (lm *LibraryManager) Login(username, password string) (bool, error) {
	ok, err := lm.db.ValidateUser(username, password)
	if err != nil {
		return false, err
	}
	lm.log.Info("login attempt", "username", username, "ok", ok)
	return ok, nil
}

// CountUsers returns the number of registered logins.
func (lm *LibraryManager) CountUsers() (int, error) { return lm.db.CountUsers() }

// ------------------ Books ------------------

func validateBook(title, author, category string) error {
	if strings.TrimSpace(title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if strings.TrimSpace(author) == "" {
		return fmt.Errorf("%w: author is required", ErrInvalidInput)
	}
	if !IsCategory(category) {
		return fmt.Errorf("%w: category %q is not one of %s", ErrInvalidInput, category, strings.Join(Categories, ", "))
	}
	return nil
}

// AddBook validates and stores a new book, returning its id.
func (lm *LibraryManager) AddBook(title, author, category string) (int64, error) {
	if err := validateBook(title, author, category); err != nil {
		return 0, err
	}
	id, err := lm.db.AddBook(title, author, category)
	if err != nil {
		return 0, err
	}
	lm.log.Info("book added", "id", id, "category", category)
	return id, nil
}

// EditBook validates and replaces all mutable fields of a book. It reports
// whether a book with that id existed.
func (lm *LibraryManager) EditBook(id int64, title, author, category string) (bool, error) {
	if err := validateBook(title, author, category); err != nil {
		return false, err
	}
	n, err := lm.db.EditBook(id, title, author, category)
	if err != nil {
		return false, err
	}
	lm.log.Info("book edited", "id", id, "rows", n)
	return n > 0, nil
}

// DeleteBook removes a book and reports whether it existed.
func (lm *LibraryManager) DeleteBook(id int64) (bool, error) {
	n, err := lm.db.DeleteBook(id)
	if err != nil {
		return false, err
	}
	lm.log.Info("book deleted", "id", id, "rows", n)
	return n > 0, nil
}

func (lm *LibraryManager) GetBook(id int64) (*Book, error) { return lm.db.GetBook(id) }

func (lm *LibraryManager) GetBooks(filter string) ([]*Book, error) { return lm.db.GetBooks(filter) }

func (lm *LibraryManager) SearchBooks(query string) ([]*Book, error) {
	return lm.db.SearchBooks(query)
}

func (lm *LibraryManager) CountBooks() (map[string]int, error) { return lm.db.CountBooks() }

// FindBooks is the search/filter view: a blank query falls back to the
// category filter, anything else is a search and ignores the filter.
func (lm *LibraryManager) FindBooks(query, filter string) ([]*Book, error) {
	if strings.TrimSpace(query) == "" {
		if filter == "" {
			filter = AllCategories
		}
		return lm.db.GetBooks(filter)
	}
	return lm.db.SearchBooks(query)
}

// ------------------ Export ------------------

// ExportCSV writes every book to dir/books.csv and returns the path.
func (lm *LibraryManager) ExportCSV(dir string) (string, error) {
	return lm.export(dir, CSVFileName, ToCSV)
}

// ExportPDF writes every book to dir/books.pdf and returns the path.
func (lm *LibraryManager) ExportPDF(dir string) (string, error) {
	return lm.export(dir, PDFFileName, ToPDF)
}

func (lm *LibraryManager) export(dir, name string, format func([]*Book) ([]byte, error)) (string, error) {
	books, err := lm.db.GetBooks(AllCategories)
	if err != nil {
		return "", err
	}
	data, err := format(books)
	if err != nil {
		lm.log.Error("export failed", "name", name, "error", err)
		if errors.Is(err, ErrExport) {
			return "", err
		}
		return "", fmt.Errorf("%w: %w", ErrExport, err)
	}
	path := filepath.Join(dir, name)
	if err := WriteExport(path, data); err != nil {
		lm.log.Error("export failed", "path", path, "error", err)
		return "", err
	}
	lm.log.Info("export written", "path", path, "books", len(books), "bytes", len(data))
	return path, nil
}

// ------------------ Import ------------------

// ImportBooks adds every book read from r (ToCSV format). Ids in the input
// are ignored; each book gets a fresh id. Rows failing validation are skipped
// and reported in the returned error slice; any other error stops the import.
func (lm *LibraryManager) ImportBooks(r io.Reader) (added []int64, skipped []error, err error) {
	books, err := ParseCSV(r)
	if err != nil {
		return nil, nil, err
	}
	for i, b := range books {
		id, err := lm.AddBook(b.Title, b.Author, b.Category)
		if errors.Is(err, ErrInvalidInput) {
			skipped = append(skipped, fmt.Errorf("row %d: %w", i+2, err))
			continue
		}
		if err != nil {
			return added, skipped, fmt.Errorf("row %d: %w", i+2, err)
		}
		added = append(added, id)
	}
	return added, skipped, nil
}
