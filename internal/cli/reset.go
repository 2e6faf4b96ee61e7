package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/keeper/pkg/types"
)

func newResetCmd(s *session) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:    "reset",
		Short:  "Drop all data and recreate the current schema",
		Long:   "Development only. Requires allow_reset: true in config.yaml and --yes.",
		Hidden: true,
		Args:   cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return userError(errors.New("reset destroys all data; pass --yes to confirm"))
			}

			app, err := s.openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer app.Close()

			version, err := app.Reset(cmd.Context())
			if errors.Is(err, types.ErrResetDisabled) {
				return userError(err)
			}
			if err != nil {
				return sysError(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Store reset to schema version %d\n", version)
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm the reset")
	return cmd
}
