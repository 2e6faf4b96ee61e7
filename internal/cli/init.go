package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newInitCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize keeper storage",
		Long: "Create the configuration and data directories, then open the store,\n" +
			"bringing it to the current schema and repairing its invariants.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := s.openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer app.Close()

			rep, err := app.Status(cmd.Context())
			if err != nil {
				return sysError(err)
			}
			if s.flags.jsonMode {
				return writeJSON(cmd.OutOrStdout(), rep)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Store ready at %s (schema version %d)\n", rep.Path, rep.StoredVersion)
			return nil
		},
	}
}
