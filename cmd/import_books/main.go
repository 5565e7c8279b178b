package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"personal-library/library"

	"github.com/spf13/cobra"
)

func main() {
	if err := newImportCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newImportCommand() *cobra.Command {
	var (
		dbPath string
		driver string
		reset  bool
	)
	cmd := &cobra.Command{
		Use:          "import_books <books.csv>",
		Short:        "Import books from a CSV file in the export format",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if reset {
				fmt.Fprintln(out, "Cleaning up existing database files...")
				for _, file := range []string{dbPath, dbPath + "-shm", dbPath + "-wal"} {
					if err := os.Remove(file); err != nil && !os.IsNotExist(err) {
						fmt.Fprintf(out, "Warning: Could not remove %s: %v\n", file, err)
					}
				}
			}

			logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), nil))
			manager, err := library.NewLibraryManager(dbPath, logger, library.WithDriver(driver))
			if err != nil {
				return err
			}
			defer manager.Close()

			return importFile(manager, args[0], out)
		},
	}
	cmd.Flags().StringVar(&dbPath, "db", "library.db", "path to the SQLite database file")
	cmd.Flags().StringVar(&driver, "driver", library.DriverCGO, "SQLite driver: sqlite3 or sqlite")
	cmd.Flags().BoolVar(&reset, "reset", false, "delete the database before importing")
	return cmd
}

func importFile(manager *library.LibraryManager, path string, out io.Writer) error {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return err
	}
	defer f.Close()

	fmt.Fprintf(out, "Importing books from %s...\n", path)
	added, skipped, err := manager.ImportBooks(f)
	if err != nil {
		return err
	}
	for _, e := range skipped {
		fmt.Fprintf(out, "Skipped %v\n", e)
	}

	fmt.Fprintf(out, "\nImport complete!\n")
	fmt.Fprintf(out, "Successfully imported: %d books\n", len(added))
	fmt.Fprintf(out, "Errors: %d\n", len(skipped))

	if len(added) == 0 {
		return nil
	}
	books, err := manager.GetBooks(library.AllCategories)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, "\nLibrary now holds:")
	fmt.Fprintf(out, "%-5s %-50s %-30s %s\n", "ID", "Title", "Author", "Category")
	fmt.Fprintln(out, strings.Repeat("-", 100))
	for _, book := range books {
		fmt.Fprintf(out, "%-5d %-50s %-30s %s\n", book.ID, truncateString(book.Title, 50), truncateString(book.Author, 30), book.Category)
	}
	return nil
}

func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}
