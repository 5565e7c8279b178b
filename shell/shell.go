// Package shell implements the interactive terminal front end: a login screen
// followed by a menu for managing, searching and exporting books.
package shell

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"personal-library/library"

	"golang.org/x/term"
)

// PasswordReader prompts for and returns a password.
type PasswordReader func(prompt string) (string, error)

// Shell drives a LibraryManager from line-oriented input.
type Shell struct {
	mgr          *library.LibraryManager
	sc           *bufio.Scanner
	out          io.Writer
	log          *slog.Logger
	readPassword PasswordReader
	exportDir    string
	now          func() time.Time
}

// Option configures a Shell.
type Option func(*Shell)

// WithPasswordReader replaces the default password prompt.
func WithPasswordReader(r PasswordReader) Option {
	return func(s *Shell) { s.readPassword = r }
}

// WithExportDir sets where export files are written. Defaults to ".".
func WithExportDir(dir string) Option {
	return func(s *Shell) { s.exportDir = dir }
}

// WithLogger sets the logger used for session events.
func WithLogger(l *slog.Logger) Option {
	return func(s *Shell) { s.log = l }
}

// New returns a Shell reading commands from in and writing to out. When in is
// a terminal, passwords are read without echo.
func New(mgr *library.LibraryManager, in io.Reader, out io.Writer, opts ...Option) *Shell {
	s := &Shell{
		mgr:       mgr,
		sc:        bufio.NewScanner(in),
		out:       out,
		log:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		exportDir: ".",
		now:       time.Now,
	}
	s.readPassword = s.linePassword
	if f, ok := isTerminal(in); ok {
		s.readPassword = func(prompt string) (string, error) {
			return terminalPassword(s.out, f, prompt)
		}
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func isTerminal(in io.Reader) (*os.File, bool) {
	f, ok := in.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return nil, false
	}
	return f, true
}

// ReadPassword prompts on out and reads a password from in, without echo when
// in is a terminal and as a plain line otherwise.
func ReadPassword(in io.Reader, out io.Writer, prompt string) (string, error) {
	if f, ok := isTerminal(in); ok {
		return terminalPassword(out, f, prompt)
	}
	fmt.Fprint(out, prompt)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// terminalPassword securely reads a password with masking.
func terminalPassword(out io.Writer, f *os.File, prompt string) (string, error) {
	fmt.Fprint(out, prompt)
	bytePassword, err := term.ReadPassword(int(f.Fd()))
	if err != nil {
		return "", err
	}
	fmt.Fprintln(out) // Add newline after password input
	return strings.TrimSpace(string(bytePassword)), nil
}

func (s *Shell) linePassword(prompt string) (string, error) {
	line, ok := s.prompt(prompt)
	if !ok {
		return "", io.EOF
	}
	return line, nil
}

// prompt prints p and returns the next trimmed input line. ok is false once
// input is exhausted.
func (s *Shell) prompt(p string) (string, bool) {
	fmt.Fprint(s.out, p)
	if !s.sc.Scan() {
		return "", false
	}
	return strings.TrimSpace(s.sc.Text()), true
}

// Run shows the login screen and, after a successful login, the library
// menu, until the user exits or input ends.
func (s *Shell) Run() error {
	fmt.Fprintln(s.out, "Personal Library Login")
	for {
		sess, quit := s.loginScreen()
		if quit {
			break
		}
		s.log.Info("session started", "session", sess.ID, "username", sess.Username)
		quit = s.mainMenu(sess)
		s.log.Info("session ended", "session", sess.ID, "duration", s.now().Sub(sess.StartedAt))
		if quit {
			break
		}
	}
	fmt.Fprintln(s.out, "Goodbye!")
	return s.sc.Err()
}

// ---------------------------------------------------------------------------
// Login screen
// ---------------------------------------------------------------------------

func (s *Shell) loginScreen() (*Session, bool) {
	fmt.Fprintln(s.out, "Commands: login, register, exit")
	for {
		cmd, ok := s.prompt("\n> ")
		if !ok {
			return nil, true
		}
		switch strings.ToLower(cmd) {
		case "login":
			if sess, ok := s.handleLogin(); ok {
				return sess, false
			}
		case "register":
			s.handleRegister()
		case "exit", "quit":
			return nil, true
		case "":
		default:
			fmt.Fprintln(s.out, "Unknown command. Type login, register or exit.")
		}
	}
}

func (s *Shell) handleLogin() (*Session, bool) {
	user, ok := s.prompt("Username: ")
	if !ok {
		return nil, false
	}
	pwd, err := s.readPassword("Password: ")
	if err != nil {
		fmt.Fprintf(s.out, "Error reading password: %v\n", err)
		return nil, false
	}
	valid, err := s.mgr.Login(user, pwd)
	if err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
		return nil, false
	}
	if !valid {
		fmt.Fprintln(s.out, "Invalid credentials")
		return nil, false
	}
	return newSession(user, s.now()), true
}

func (s *Shell) handleRegister() {
	user, ok := s.prompt("New Username: ")
	if !ok {
		return
	}
	pwd, err := s.readPassword("New Password: ")
	if err != nil {
		fmt.Fprintf(s.out, "Error reading password: %v\n", err)
		return
	}
	if err := s.mgr.Register(user, pwd); err != nil {
		if errors.Is(err, library.ErrInvalidInput) {
			fmt.Fprintln(s.out, "Username and password cannot be empty")
			return
		}
		fmt.Fprintf(s.out, "Error: %v\n", err)
		return
	}
	fmt.Fprintln(s.out, "Registered successfully! You can now login.")
}

// ---------------------------------------------------------------------------
// Library menu
// ---------------------------------------------------------------------------

const menuHelp = `Commands:
  add                 add a new book
  list [category]     list books, optionally of one category
  edit <id>           edit a book
  delete <id>         delete a book
  search              search by text or filter by category
  export csv|pdf      export every book
  logout, exit`

// mainMenu runs the authenticated view for sess. It returns true when the user
// asked to exit rather than log out.
func (s *Shell) mainMenu(sess *Session) bool {
	fmt.Fprintf(s.out, "\nWelcome, %s! Personal Library Manager\n", sess.Username)
	fmt.Fprintln(s.out, menuHelp)
	s.drawBooks(library.AllCategories)

	for {
		line, ok := s.prompt("\n" + sess.Username + "> ")
		if !ok {
			return true
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		args := fields[1:]

		switch strings.ToLower(fields[0]) {
		case "add":
			s.handleAdd()
		case "list":
			filter := library.AllCategories
			if len(args) > 0 {
				filter = parseCategory(strings.Join(args, " "))
			}
			s.drawBooks(filter)
		case "edit":
			s.handleEdit(args)
		case "delete":
			s.handleDelete(args)
		case "search":
			s.handleSearch()
		case "export":
			s.handleExport(args)
		case "help":
			fmt.Fprintln(s.out, menuHelp)
		case "logout":
			fmt.Fprintf(s.out, "Logged out %s.\n", sess.Username)
			return false
		case "exit", "quit":
			return true
		default:
			fmt.Fprintln(s.out, "Unknown command. Type help to see the available commands.")
		}
	}
}

// drawBooks re-reads the store and prints the list for filter.
func (s *Shell) drawBooks(filter string) {
	books, err := s.mgr.GetBooks(filter)
	if err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
		return
	}
	fmt.Fprintf(s.out, "Total Books: %d\n", len(books))
	printBooks(s.out, books)
}

func printBooks(out io.Writer, books []*library.Book) {
	if len(books) == 0 {
		return
	}
	fmt.Fprintf(out, "%-5s %-30s %-25s %-12s\n", "ID", "Title", "Author", "Category")
	fmt.Fprintln(out, strings.Repeat("-", 75))
	for _, b := range books {
		fmt.Fprintf(out, "%-5d %-30s %-25s %-12s\n",
			b.ID,
			truncateString(b.Title, 30),
			truncateString(b.Author, 25),
			b.Category)
	}
}

func (s *Shell) promptCategory(current string) (string, bool) {
	var opts []string
	for i, c := range library.Categories {
		opts = append(opts, fmt.Sprintf("%d) %s", i+1, c))
	}
	label := "Category [" + strings.Join(opts, ", ") + "]"
	if current != "" {
		label += " (" + current + ")"
	}
	in, ok := s.prompt(label + ": ")
	if !ok {
		return "", false
	}
	if in == "" {
		return current, true
	}
	return parseCategory(in), true
}

func (s *Shell) handleAdd() {
	title, ok := s.prompt("Title: ")
	if !ok {
		return
	}
	author, ok := s.prompt("Author: ")
	if !ok {
		return
	}
	category, ok := s.promptCategory("")
	if !ok {
		return
	}

	id, err := s.mgr.AddBook(title, author, category)
	if err != nil {
		fmt.Fprintf(s.out, "Error adding book: %v\n", err)
		return
	}
	fmt.Fprintf(s.out, "Book added successfully! (ID %d)\n", id)
	s.drawBooks(library.AllCategories)
}

func (s *Shell) handleEdit(args []string) {
	id, ok := s.bookID(args)
	if !ok {
		return
	}
	book, err := s.mgr.GetBook(id)
	if err != nil {
		if errors.Is(err, library.ErrBookNotFound) {
			fmt.Fprintf(s.out, "No book with ID %d\n", id)
			return
		}
		fmt.Fprintf(s.out, "Error: %v\n", err)
		return
	}

	fmt.Fprintf(s.out, "Editing %s (press Enter to keep a value)\n", library.FormatLine(book))
	title, ok := s.prompt(fmt.Sprintf("Title (%s): ", book.Title))
	if !ok {
		return
	}
	author, ok := s.prompt(fmt.Sprintf("Author (%s): ", book.Author))
	if !ok {
		return
	}
	category, ok := s.promptCategory(book.Category)
	if !ok {
		return
	}
	if title == "" {
		title = book.Title
	}
	if author == "" {
		author = book.Author
	}

	found, err := s.mgr.EditBook(id, title, author, category)
	if err != nil {
		fmt.Fprintf(s.out, "Error updating book: %v\n", err)
		return
	}
	if !found {
		fmt.Fprintf(s.out, "No book with ID %d\n", id)
		return
	}
	fmt.Fprintln(s.out, "Book updated!")
	s.drawBooks(library.AllCategories)
}

func (s *Shell) handleDelete(args []string) {
	id, ok := s.bookID(args)
	if !ok {
		return
	}
	found, err := s.mgr.DeleteBook(id)
	if err != nil {
		fmt.Fprintf(s.out, "Error deleting book: %v\n", err)
		return
	}
	if !found {
		fmt.Fprintf(s.out, "No book with ID %d\n", id)
		return
	}
	fmt.Fprintln(s.out, "Book deleted!")
	s.drawBooks(library.AllCategories)
}

func (s *Shell) handleSearch() {
	query, ok := s.prompt("Search (leave blank to filter by category): ")
	if !ok {
		return
	}
	filter := library.AllCategories
	if query == "" {
		in, ok := s.prompt("Filter by Category [All, " + strings.Join(library.Categories, ", ") + "]: ")
		if !ok {
			return
		}
		if in != "" {
			filter = parseCategory(in)
		}
	}

	books, err := s.mgr.FindBooks(query, filter)
	if err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
		return
	}
	fmt.Fprintf(s.out, "Found %d books\n", len(books))
	for _, b := range books {
		fmt.Fprintln(s.out, library.FormatLine(b))
	}
}

func (s *Shell) handleExport(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(s.out, "Usage: export csv|pdf")
		return
	}
	var (
		path string
		err  error
		mime string
	)
	switch strings.ToLower(args[0]) {
	case "csv":
		path, err = s.mgr.ExportCSV(s.exportDir)
		mime = library.CSVMIME
	case "pdf":
		path, err = s.mgr.ExportPDF(s.exportDir)
		mime = library.PDFMIME
	default:
		fmt.Fprintln(s.out, "Usage: export csv|pdf")
		return
	}
	if err != nil {
		fmt.Fprintf(s.out, "Error exporting: %v\n", err)
		return
	}
	fmt.Fprintf(s.out, "Exported %s (%s)\n", path, mime)
}

func (s *Shell) bookID(args []string) (int64, bool) {
	raw := ""
	if len(args) > 0 {
		raw = args[0]
	} else {
		var ok bool
		if raw, ok = s.prompt("Book ID: "); !ok {
			return 0, false
		}
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		fmt.Fprintf(s.out, "Invalid book ID: %s\n", raw)
		return 0, false
	}
	return id, true
}

// parseCategory accepts a category name in any case, "All", or a 1-based
// index into library.Categories. Anything else is returned unchanged.
func parseCategory(in string) string {
	in = strings.TrimSpace(in)
	if n, err := strconv.Atoi(in); err == nil && n >= 1 && n <= len(library.Categories) {
		return library.Categories[n-1]
	}
	if strings.EqualFold(in, library.AllCategories) {
		return library.AllCategories
	}
	for _, c := range library.Categories {
		if strings.EqualFold(in, c) {
			return c
		}
	}
	return in
}

// truncateString shortens s to maxLength runes, marking the cut with "...".
func truncateString(s string, maxLength int) string {
	r := []rune(s)
	if len(r) <= maxLength {
		return s
	}
	if maxLength <= 3 {
		return string(r[:maxLength])
	}
	return string(r[:maxLength-3]) + "..."
}
