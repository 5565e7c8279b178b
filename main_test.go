package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"personal-library/library"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execute runs the CLI with args, feeding stdin, and returns stdout.
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	a := &app{in: strings.NewReader(stdin), out: &out, err: &errOut}
	cmd := newRootCommand(a)
	cmd.SetArgs(args)
	err := cmd.Execute()
	require.NoError(t, a.close())
	return out.String(), err
}

func TestCLIBookLifecycle(t *testing.T) {
	db := filepath.Join(t.TempDir(), "cli.db")
	exportDir := t.TempDir()

	out, err := execute(t, "secret\n", "--db", db, "register", "alice")
	require.NoError(t, err)
	assert.Contains(t, out, "Registered successfully!")

	out, err = execute(t, "secret\n", "--db", db, "-u", "alice", "login")
	require.NoError(t, err)
	assert.Equal(t, "Welcome, alice!\n", out)

	out, err = execute(t, "secret\n", "--db", db, "-u", "alice", "add",
		"--title", "Dune", "--author", "Frank Herbert", "--category", library.CategoryFiction)
	require.NoError(t, err)
	assert.Equal(t, "Added book ID 1\n", out)

	out, err = execute(t, "secret\n", "--db", db, "-u", "alice", "add",
		"-t", "Confessions", "-a", "Augustine", "-c", library.CategoryReligious)
	require.NoError(t, err)
	assert.Equal(t, "Added book ID 2\n", out)

	out, err = execute(t, "secret\n", "--db", db, "-u", "alice", "list", "--category", library.CategoryReligious)
	require.NoError(t, err)
	assert.Contains(t, out, "Found 1 books")
	assert.Contains(t, out, "Confessions by Augustine [Religious]")

	out, err = execute(t, "secret\n", "--db", db, "-u", "alice", "search", "herbert")
	require.NoError(t, err)
	assert.Contains(t, out, "Found 1 books")
	assert.Contains(t, out, "Dune by Frank Herbert [Fiction]")

	out, err = execute(t, "secret\n", "--db", db, "-u", "alice", "edit", "1",
		"-t", "Dune Messiah", "-a", "Frank Herbert", "-c", library.CategoryFiction)
	require.NoError(t, err)
	assert.Equal(t, "Book updated!\n", out)

	out, err = execute(t, "secret\n", "--db", db, "-u", "alice", "delete", "2")
	require.NoError(t, err)
	assert.Equal(t, "Book deleted!\n", out)

	out, err = execute(t, "secret\n", "--db", db, "-u", "alice", "delete", "2")
	require.NoError(t, err)
	assert.Equal(t, "No book with ID 2\n", out)

	out, err = execute(t, "secret\n", "--db", db, "-u", "alice", "export", "csv", "--dir", exportDir)
	require.NoError(t, err)
	assert.Contains(t, out, filepath.Join(exportDir, library.CSVFileName))

	data, err := os.ReadFile(filepath.Join(exportDir, library.CSVFileName))
	require.NoError(t, err)
	assert.Equal(t, "ID,Title,Author,Category\n1,Dune Messiah,Frank Herbert,Fiction\n", string(data))
}

func TestCLIRequiresLogin(t *testing.T) {
	db := filepath.Join(t.TempDir(), "cli.db")
	_, err := execute(t, "secret\n", "--db", db, "register", "alice")
	require.NoError(t, err)

	_, err = execute(t, "", "--db", db, "list")
	assert.ErrorIs(t, err, library.ErrInvalidInput)

	_, err = execute(t, "wrong\n", "--db", db, "-u", "alice", "list")
	assert.ErrorIs(t, err, errInvalidCredentials)

	_, err = execute(t, "secret\n", "--db", db, "-u", "ALICE", "list")
	assert.ErrorIs(t, err, errInvalidCredentials)
}

func TestCLIPasswordFromEnvironment(t *testing.T) {
	db := filepath.Join(t.TempDir(), "cli.db")
	t.Setenv("LIBRARY_AUTH_PASSWORD", "secret")
	t.Setenv("LIBRARY_AUTH_USER", "alice")

	_, err := execute(t, "", "--db", db, "register", "alice")
	require.NoError(t, err)

	out, err := execute(t, "", "--db", db, "login")
	require.NoError(t, err)
	assert.Equal(t, "Welcome, alice!\n", out)
}

func TestCLIConfigFile(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "from-config.db")
	cfg := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte(
		"db:\n  path: "+db+"\n  driver: sqlite\nsearch:\n  fields: [title]\nauth:\n  user: alice\n  password: secret\n",
	), 0o644))

	_, err := execute(t, "", "--config", cfg, "register", "alice")
	require.NoError(t, err)
	_, err = os.Stat(db)
	require.NoError(t, err, "db.path from the config file is used")

	_, err = execute(t, "", "--config", cfg, "add", "-t", "Dune", "-a", "Frank Herbert", "-c", library.CategoryFiction)
	require.NoError(t, err)

	// search.fields = [title]: titles match, authors do not.
	out, err := execute(t, "", "--config", cfg, "search", "dune")
	require.NoError(t, err)
	assert.Contains(t, out, "Found 1 books")

	out, err = execute(t, "", "--config", cfg, "search", "herbert")
	require.NoError(t, err)
	assert.Contains(t, out, "Found 0 books")
}

func TestCLIMissingConfigFile(t *testing.T) {
	_, err := execute(t, "", "--config", filepath.Join(t.TempDir(), "nope.yaml"), "login")
	assert.Error(t, err)
}

func TestCLIStorageUnavailable(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	_, err := execute(t, "", "--db", filepath.Join(blocker, "sub", "lib.db"), "login")
	require.Error(t, err)
	assert.ErrorIs(t, err, library.ErrStorageUnavailable)
}

func TestCLIRejectsUnknownDriver(t *testing.T) {
	_, err := execute(t, "", "--db", filepath.Join(t.TempDir(), "x.db"), "--driver", "postgres", "login")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db.driver")
}

func TestCLIShell(t *testing.T) {
	db := filepath.Join(t.TempDir(), "cli.db")
	out, err := execute(t, "register\nbob\npw\nlogin\nbob\npw\nexit\n", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "Welcome, bob! Personal Library Manager")
	assert.Contains(t, out, "Goodbye!")
}
