package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/keeper/internal/sqlite"
)

func newStatusCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the store's schema version and pending migrations",
		Long:  "Inspect the database file without migrating or repairing it.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := s.cfg.DBPath()
			if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
				if s.flags.jsonMode {
					return writeJSON(cmd.OutOrStdout(), map[string]any{"path": path, "exists": false})
				}
				fmt.Fprintf(cmd.OutOrStdout(), "No store at %s; run keeper init\n", path)
				return nil
			}

			db, err := sqlite.Open(cmd.Context(), path)
			if err != nil {
				return sysError(err)
			}
			defer db.Close()

			rep, err := sqlite.Diagnose(cmd.Context(), db, path, sqlite.WithLogger(s.logger))
			if err != nil {
				return sysError(err)
			}
			if s.flags.jsonMode {
				return writeJSON(cmd.OutOrStdout(), rep)
			}
			writeReport(cmd.OutOrStdout(), rep)
			return nil
		},
	}
}
