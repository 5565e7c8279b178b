package library

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"
)

// Registered database/sql driver names.
const (
	// DriverCGO is github.com/mattn/go-sqlite3.
	DriverCGO = "sqlite3"
	// DriverPure is modernc.org/sqlite, which needs no C toolchain.
	DriverPure = "sqlite"
)

// Database provides high-level helpers around a SQLite connection. It owns the
// users and books tables and performs no input validation of its own.
type Database struct {
	db           *sql.DB
	driver       string
	searchFields []SearchField

	addBookStmt *sql.Stmt
	addUserStmt *sql.Stmt
}

// Option configures a Database.
type Option func(*Database)

// WithDriver selects the database/sql driver (DriverCGO or DriverPure).
func WithDriver(name string) Option {
	return func(d *Database) {
		if name != "" {
			d.driver = name
		}
	}
}

// WithSearchFields sets the fields SearchBooks matches against.
func WithSearchFields(fields ...SearchField) Option {
	return func(d *Database) {
		if len(fields) > 0 {
			d.searchFields = fields
		}
	}
}

// NewDatabase opens (or creates) the SQLite database at dbPath, creates any
// missing tables, and prepares common statements. It is safe to call more
// than once for the same file; existing data is never touched.
func NewDatabase(dbPath string, opts ...Option) (*Database, error) {
	d := &Database{
		driver:       DriverCGO,
		searchFields: DefaultSearchFields,
	}
	for _, opt := range opts {
		opt(d)
	}

	// Ensure directory exists so first-run succeeds.
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("%w: create db dir: %w", ErrStorageUnavailable, err)
		}
	}

	db, err := sql.Open(d.driver, dbPath)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", ErrStorageUnavailable, d.driver, err)
	}

	// One connection, so the pragmas below hold for every statement.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: connect %s: %w", ErrStorageUnavailable, dbPath, err)
	}

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}

	if err := applyMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}

	d.db = db
	if err := d.prepareStatements(); err != nil {
		d.Close()
		return nil, fmt.Errorf("%w: prepare statements: %w", ErrStorageUnavailable, err)
	}
	return d, nil
}

// Close releases prepared statements and closes the DB.
func (d *Database) Close() error {
	if d.addBookStmt != nil {
		d.addBookStmt.Close()
	}
	if d.addUserStmt != nil {
		d.addUserStmt.Close()
	}
	return d.db.Close()
}

// Driver returns the database/sql driver name in use.
func (d *Database) Driver() string { return d.driver }

// ---------------------------------------------------------------------------
// Schema migration
// ---------------------------------------------------------------------------

const schemaVersion = 1

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("execute %q: %w", pragma, err)
		}
	}
	return nil
}

func applyMigrations(db *sql.DB) error {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS meta (key TEXT PRIMARY KEY, value TEXT);`); err != nil {
		return fmt.Errorf("create meta: %w", err)
	}

	var current int
	_ = db.QueryRow(`SELECT value FROM meta WHERE key='schema_version';`).Scan(&current)
	if current >= schemaVersion {
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// users has no primary key: duplicate usernames are accepted.
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
            username TEXT,
            password TEXT
        );`,
		`CREATE TABLE IF NOT EXISTS books (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            title TEXT,
            author TEXT,
            category TEXT
        );`,
	}
	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("apply migration: %w", err)
		}
	}

	if _, err := tx.Exec(`INSERT INTO meta(key,value) VALUES('schema_version',?)
        ON CONFLICT(key) DO UPDATE SET value=excluded.value;`, schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}

	return tx.Commit()
}

// ---------------------------------------------------------------------------
// Prepared statements
// ---------------------------------------------------------------------------

func (d *Database) prepareStatements() error {
	var err error
	if d.addBookStmt, err = d.db.Prepare(`INSERT INTO books(title,author,category) VALUES(?,?,?)`); err != nil {
		return err
	}
	if d.addUserStmt, err = d.db.Prepare(`INSERT INTO users(username,password) VALUES(?,?)`); err != nil {
		return err
	}
	return nil
}

// ---------------------------------------------------------------------------
// Users
// ---------------------------------------------------------------------------

// RegisterUser inserts a login without checking for an existing username.
func (d *Database) RegisterUser(username, password string) error {
	if _, err := d.addUserStmt.Exec(username, password); err != nil {
		return fmt.Errorf("register user: %w", err)
	}
	return nil
}

// ValidateUser reports whether a row matches both fields exactly. Comparison
// is byte-for-byte, so it is case-sensitive.
func (d *Database) ValidateUser(username, password string) (bool, error) {
	var ok bool
	err := d.db.QueryRow(`SELECT EXISTS(SELECT 1 FROM users WHERE username=? AND password=?)`, username, password).
		Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("validate user: %w", err)
	}
	return ok, nil
}

// CountUsers returns the number of registered rows, duplicates included.
func (d *Database) CountUsers() (int, error) {
	var n int
	if err := d.db.QueryRow(`SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

// ---------------------------------------------------------------------------
// Books
// ---------------------------------------------------------------------------

// AddBook inserts a book and returns its new id. Duplicates are allowed.
func (d *Database) AddBook(title, author, category string) (int64, error) {
	res, err := d.addBookStmt.Exec(title, author, category)
	if err != nil {
		return 0, fmt.Errorf("add book: %w", err)
	}
	return res.LastInsertId()
}

// EditBook replaces title, author and category of the book with the given id.
// It returns the number of rows changed; an unknown id changes nothing and is
// not an error.
func (d *Database) EditBook(id int64, title, author, category string) (int64, error) {
	res, err := d.db.Exec(`UPDATE books SET title=?, author=?, category=? WHERE id=?`, title, author, category, id)
	if err != nil {
		return 0, fmt.Errorf("edit book %d: %w", id, err)
	}
	return res.RowsAffected()
}

// DeleteBook removes the book permanently. Deleting an unknown id is a no-op.
func (d *Database) DeleteBook(id int64) (int64, error) {
	res, err := d.db.Exec(`DELETE FROM books WHERE id=?`, id)
	if err != nil {
		return 0, fmt.Errorf("delete book %d: %w", id, err)
	}
	return res.RowsAffected()
}

// GetBook fetches a single book.
func (d *Database) GetBook(id int64) (*Book, error) {
	var b Book
	err := d.db.QueryRow(`SELECT id,title,author,category FROM books WHERE id=?`, id).
		Scan(&b.ID, &b.Title, &b.Author, &b.Category)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", ErrBookNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get book %d: %w", id, err)
	}
	return &b, nil
}

// GetBooks returns every book when filter is AllCategories, otherwise only the
// books whose category equals filter exactly. Books come back in id order.
func (d *Database) GetBooks(filter string) ([]*Book, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if filter == AllCategories {
		rows, err = d.db.Query(`SELECT id,title,author,category FROM books ORDER BY id`)
	} else {
		rows, err = d.db.Query(`SELECT id,title,author,category FROM books WHERE category=? ORDER BY id`, filter)
	}
	if err != nil {
		return nil, fmt.Errorf("query books: %w", err)
	}
	defer rows.Close()

	books := []*Book{}
	for rows.Next() {
		var b Book
		if err := rows.Scan(&b.ID, &b.Title, &b.Author, &b.Category); err != nil {
			return nil, fmt.Errorf("scan book: %w", err)
		}
		books = append(books, &b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate books: %w", err)
	}
	return books, nil
}

// SearchBooks loads every book and keeps those where query, lowercased, is a
// substring of one of the configured search fields, also lowercased. The
// empty query matches everything; callers decide what an empty query means.
func (d *Database) SearchBooks(query string) ([]*Book, error) {
	books, err := d.GetBooks(AllCategories)
	if err != nil {
		return nil, err
	}
	return MatchBooks(books, query, d.searchFields), nil
}

// SearchFields returns the fields SearchBooks matches against.
func (d *Database) SearchFields() []SearchField { return d.searchFields }

// CountBooks returns the number of books per stored category value.
func (d *Database) CountBooks() (map[string]int, error) {
	rows, err := d.db.Query(`SELECT category, COUNT(*) FROM books GROUP BY category`)
	if err != nil {
		return nil, fmt.Errorf("count books: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			category string
			n        int
		)
		if err := rows.Scan(&category, &n); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		counts[category] = n
	}
	return counts, rows.Err()
}
