package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"personal-library/library"
	"personal-library/shell"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var errInvalidCredentials = errors.New("invalid credentials")

// app carries what every command needs once PersistentPreRunE has run.
type app struct {
	in  io.Reader
	out io.Writer
	err io.Writer

	configFile string
	verbose    bool

	cfg *viper.Viper
	log *slog.Logger
	mgr *library.LibraryManager
}

func main() {
	a := &app{in: os.Stdin, out: os.Stdout, err: os.Stderr}
	if err := newRootCommand(a).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "personal-library",
		Short:         "A personal library catalog",
		Long:          "Catalog books by title, author and category, search them, and export the list as CSV or PDF.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.close()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runShell()
		},
	}
	cmd.SetIn(a.in)
	cmd.SetOut(a.out)
	cmd.SetErr(a.err)

	cmd.PersistentFlags().StringVar(&a.configFile, "config", "", "config file (default ./config.yaml)")
	cmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "verbose logging")
	cmd.PersistentFlags().String("db", defaultDBPath, "path to the SQLite database file")
	cmd.PersistentFlags().String("driver", library.DriverCGO, "SQLite driver: sqlite3 (cgo) or sqlite (pure Go)")
	cmd.PersistentFlags().StringP("user", "u", "", "username for commands that change or read books")

	cmd.AddCommand(newShellCommand(a))
	cmd.AddCommand(newRegisterCommand(a))
	cmd.AddCommand(newLoginCommand(a))
	cmd.AddCommand(newAddCommand(a))
	cmd.AddCommand(newEditCommand(a))
	cmd.AddCommand(newDeleteCommand(a))
	cmd.AddCommand(newListCommand(a))
	cmd.AddCommand(newSearchCommand(a))
	cmd.AddCommand(newExportCommand(a))
	return cmd
}

// setup loads configuration, installs the logger and opens the database.
// A database that cannot be opened aborts the command.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := loadConfig(a.configFile, cmd.Flags())
	if err != nil {
		return err
	}
	a.cfg = cfg

	logLevel := slog.LevelInfo
	if a.verbose {
		logLevel = slog.LevelDebug
	}
	handler := slog.NewTextHandler(a.err, &slog.HandlerOptions{Level: logLevel})
	a.log = slog.New(handler)
	slog.SetDefault(a.log)

	opts, err := databaseOptions(cfg)
	if err != nil {
		return err
	}
	dbPath := cfg.GetString(cfgKeyDBPath)
	a.log.Debug("opening database", "path", dbPath)
	mgr, err := library.NewLibraryManager(dbPath, a.log, opts...)
	if err != nil {
		return fmt.Errorf("cannot open library %s: %w", dbPath, err)
	}
	a.mgr = mgr
	return nil
}

func (a *app) close() error {
	if a.mgr == nil {
		return nil
	}
	err := a.mgr.Close()
	a.mgr = nil
	return err
}

func (a *app) runShell() error {
	return shell.New(a.mgr, a.in, a.out,
		shell.WithExportDir(a.cfg.GetString(cfgKeyExportDir)),
		shell.WithLogger(a.log),
	).Run()
}

// authenticate checks auth.user / auth.password (flag, env or config),
// prompting for whatever is missing. It returns the logged-in username.
func (a *app) authenticate() (string, error) {
	user := a.cfg.GetString(cfgKeyUser)
	if user == "" {
		return "", fmt.Errorf("%w: --user is required", library.ErrInvalidInput)
	}
	pwd := a.cfg.GetString(cfgKeyPassword)
	if pwd == "" {
		var err error
		if pwd, err = shell.ReadPassword(a.in, a.err, "Password: "); err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
	}
	ok, err := a.mgr.Login(user, pwd)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", errInvalidCredentials
	}
	return user, nil
}
