package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/keeper/pkg/keeper"
)

const modulePath = "github.com/mesh-intelligence/keeper"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the keeper version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "keeper %s\nmodule: %s\n", keeper.Version.String(), modulePath)
			return nil
		},
	}
}
