package main

import (
	"fmt"
	"strconv"
	"strings"

	"personal-library/library"
	"personal-library/shell"

	"github.com/spf13/cobra"
)

func newShellCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Start the interactive library shell",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runShell()
		},
	}
}

func newRegisterCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "register <username>",
		Short: "Register a login",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pwd := a.cfg.GetString(cfgKeyPassword)
			if pwd == "" {
				var err error
				if pwd, err = shell.ReadPassword(a.in, a.err, "New Password: "); err != nil {
					return fmt.Errorf("read password: %w", err)
				}
			}
			if err := a.mgr.Register(args[0], pwd); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "Registered successfully! You can now login.")
			return nil
		},
	}
}

func newLoginCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Check credentials for --user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := a.authenticate()
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Welcome, %s!\n", user)
			return nil
		},
	}
}

type bookFlags struct {
	title    string
	author   string
	category string
}

func (f *bookFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.title, "title", "t", "", "book title")
	cmd.Flags().StringVarP(&f.author, "author", "a", "", "book author")
	cmd.Flags().StringVarP(&f.category, "category", "c", "", "one of: "+strings.Join(library.Categories, ", "))
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("author")
	_ = cmd.MarkFlagRequired("category")
}

func newAddCommand(a *app) *cobra.Command {
	var f bookFlags
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a book",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.authenticate(); err != nil {
				return err
			}
			id, err := a.mgr.AddBook(f.title, f.author, f.category)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Added book ID %d\n", id)
			return nil
		},
	}
	f.register(cmd)
	return cmd
}

func newEditCommand(a *app) *cobra.Command {
	var f bookFlags
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Replace the title, author and category of a book",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if _, err := a.authenticate(); err != nil {
				return err
			}
			found, err := a.mgr.EditBook(id, f.title, f.author, f.category)
			if err != nil {
				return err
			}
			if !found {
				fmt.Fprintf(a.out, "No book with ID %d\n", id)
				return nil
			}
			fmt.Fprintln(a.out, "Book updated!")
			return nil
		},
	}
	f.register(cmd)
	return cmd
}

func newDeleteCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a book permanently",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if _, err := a.authenticate(); err != nil {
				return err
			}
			found, err := a.mgr.DeleteBook(id)
			if err != nil {
				return err
			}
			if !found {
				fmt.Fprintf(a.out, "No book with ID %d\n", id)
				return nil
			}
			fmt.Fprintln(a.out, "Book deleted!")
			return nil
		},
	}
}

func newListCommand(a *app) *cobra.Command {
	var category string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List books",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.authenticate(); err != nil {
				return err
			}
			books, err := a.mgr.GetBooks(category)
			if err != nil {
				return err
			}
			printLines(a, books)
			return nil
		},
	}
	cmd.Flags().StringVarP(&category, "category", "c", library.AllCategories, "only list this category")
	return cmd
}

func newSearchCommand(a *app) *cobra.Command {
	var category string
	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search books, or filter by category when no query is given",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.authenticate(); err != nil {
				return err
			}
			books, err := a.mgr.FindBooks(strings.Join(args, " "), category)
			if err != nil {
				return err
			}
			printLines(a, books)
			return nil
		},
	}
	cmd.Flags().StringVarP(&category, "category", "c", library.AllCategories, "category filter used when no query is given")
	return cmd
}

func newExportCommand(a *app) *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:       "export csv|pdf",
		Short:     "Export every book to books.csv or books.pdf",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"csv", "pdf"},
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.authenticate(); err != nil {
				return err
			}
			if dir == "" {
				dir = a.cfg.GetString(cfgKeyExportDir)
			}
			var (
				path string
				err  error
			)
			switch args[0] {
			case "csv":
				path, err = a.mgr.ExportCSV(dir)
			case "pdf":
				path, err = a.mgr.ExportPDF(dir)
			default:
				return fmt.Errorf("unknown export format %q: must be csv or pdf", args[0])
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Exported %s\n", path)
			return nil
		},
	}
	cmd.Flags().StringVarP(&dir, "dir", "d", "", "output directory (default export.dir)")
	return cmd
}

func printLines(a *app, books []*library.Book) {
	fmt.Fprintf(a.out, "Found %d books\n", len(books))
	for _, b := range books {
		fmt.Fprintf(a.out, "%-5d %s\n", b.ID, library.FormatLine(b))
	}
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid book ID %q", library.ErrInvalidInput, s)
	}
	return id, nil
}
