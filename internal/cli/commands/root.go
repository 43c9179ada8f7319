// Package commands implements the waist-cli command tree.
package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"waist/internal/ai"
	"waist/internal/auth"
	"waist/internal/cli/output"
	"waist/internal/services"
	"waist/internal/sheets"
)

// Env is what the commands operate on. Sheet is only called by commands
// that push to Google Sheets.
type Env struct {
	Transactions services.Store
	Analytics    *services.Analytics
	Credentials  *auth.CredentialStore
	Advisor      *ai.Advisor
	Sheet        func(ctx context.Context) (sheets.Writer, error)
	Now          func() time.Time
}

// Opener builds the Env on first use, so --help and completion never touch
// the database. dbPath is the --db flag, empty when unset.
type Opener func(ctx context.Context, dbPath string) (*Env, error)

type runner struct {
	open   Opener
	dbPath string
	env    *Env

	in  *bufio.Reader
	w   io.Writer
	out *output.Printer
}

// NewRootCommand returns the waist-cli root with every subcommand attached.
func NewRootCommand(open Opener) *cobra.Command {
	r := &runner{open: open}

	root := &cobra.Command{
		Use:   "waist-cli",
		Short: "WAIST - track where your money goes",
		Long: `WAIST records personal expenses in a local SQLite database.

Run a single command (add, list, filter, edit, delete, analytics, export)
or start the interactive menu with "waist-cli menu".`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			r.bind(cmd)
		},
	}

	root.PersistentFlags().StringVar(&r.dbPath, "db", "", "SQLite database file (overrides SQLITE_DB_PATH)")

	root.AddCommand(
		r.addCommand(),
		r.listCommand(),
		r.filterCommand(),
		r.editCommand(),
		r.deleteCommand(),
		r.analyticsCommand(),
		r.exportCommand(),
		r.seedCommand(),
		r.userCommand(),
		r.sheetsCommand(),
		r.menuCommand(),
	)
	return root
}

// bind attaches the command's streams. The reader is created once so that
// buffered input survives across prompts.
func (r *runner) bind(cmd *cobra.Command) {
	if r.in == nil {
		r.in = bufio.NewReader(cmd.InOrStdin())
	}
	r.w = cmd.OutOrStdout()
	r.out = output.New(r.w)
}

func (r *runner) environment(ctx context.Context) (*Env, error) {
	if r.env != nil {
		return r.env, nil
	}
	env, err := r.open(ctx, r.dbPath)
	if err != nil {
		return nil, err
	}
	if env.Now == nil {
		env.Now = time.Now
	}
	r.env = env
	return env, nil
}

// prompt prints label and reads one trimmed line. io.EOF is returned only
// when no input at all was left.
func (r *runner) prompt(label string) (string, error) {
	fmt.Fprint(r.w, label)
	line, err := r.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// confirm asks a y/n question; anything but "y" is a no.
func (r *runner) confirm(question string) (bool, error) {
	answer, err := r.prompt(question + " (y/n): ")
	if err != nil {
		return false, err
	}
	return strings.EqualFold(answer, "y"), nil
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid ID %q: must be a positive number", s)
	}
	return id, nil
}
