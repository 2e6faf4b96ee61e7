// Package cli implements the keeper command-line interface: initializing,
// migrating and inspecting the organizer's local store.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/keeper/internal/bootstrap"
	"github.com/mesh-intelligence/keeper/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// rootFlags holds global flag values accessible to all subcommands.
type rootFlags struct {
	configDir string
	dataDir   string
	jsonMode  bool
}

// session is the state one invocation shares between the root command and
// its subcommands.
type session struct {
	flags  rootFlags
	cfg    types.Config
	logger *slog.Logger
}

// NewRootCmd creates the top-level "keeper" command with global flags and
// all subcommands registered.
func NewRootCmd() *cobra.Command {
	s := &session{}

	root := &cobra.Command{
		Use:   "keeper",
		Short: "Manage the organizer's local store",
		Long: "Keeper creates, migrates and inspects the SQLite file that holds the\n" +
			"organizer's tasks, notes, collections and expenses.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			return s.load(cmd.ErrOrStderr())
		},
	}

	root.PersistentFlags().StringVar(&s.flags.configDir, "config-dir", "", "configuration directory (default: platform config dir)")
	root.PersistentFlags().StringVar(&s.flags.dataDir, "data-dir", "", "data directory (default: platform data dir)")
	root.PersistentFlags().BoolVar(&s.flags.jsonMode, "json", false, "output in JSON format")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newInitCmd(s))
	root.AddCommand(newMigrateCmd(s))
	root.AddCommand(newStatusCmd(s))
	root.AddCommand(newVerifyCmd(s))
	root.AddCommand(newDisplayModeCmd(s))
	root.AddCommand(newResetCmd(s))

	return root
}

// Execute runs the root command and exits with the appropriate code.
func Execute() {
	root := NewRootCmd()
	err := root.ExecuteContext(context.Background())
	if err != nil {
		fmt.Fprintln(os.Stderr, "keeper:", err)
	}
	os.Exit(exitCode(err))
}

// load resolves configuration and builds the logger.
func (s *session) load(stderr io.Writer) error {
	cfg, err := loadConfig(s.flags.configDir, s.flags.dataDir)
	if err != nil {
		if errors.Is(err, errInvalidConfig) {
			return userError(err)
		}
		return sysError(err)
	}
	s.cfg = cfg
	s.logger = newLogger(cfg, stderr)
	return nil
}

// openApp builds and initializes the store. The caller must Close it.
func (s *session) openApp(ctx context.Context) (*bootstrap.App, error) {
	app, err := bootstrap.New(s.cfg, bootstrap.WithLogger(s.logger))
	if err != nil {
		return nil, userError(err)
	}
	if err := app.Initialize(ctx); err != nil {
		app.Close()
		return nil, sysError(fmt.Errorf("initialize store: %w", err))
	}
	return app, nil
}

// codedError carries the process exit code for an error.
type codedError struct {
	code int
	err  error
}

func (e *codedError) Error() string { return e.err.Error() }
func (e *codedError) Unwrap() error { return e.err }

func userError(err error) error { return &codedError{code: exitUserError, err: err} }
func sysError(err error) error  { return &codedError{code: exitSysError, err: err} }

// exitCode maps an error returned by a command to the process exit code.
// Errors without a code are usage errors from cobra itself.
func exitCode(err error) int {
	if err == nil {
		return exitSuccess
	}
	var ce *codedError
	if errors.As(err, &ce) {
		return ce.code
	}
	return exitUserError
}
