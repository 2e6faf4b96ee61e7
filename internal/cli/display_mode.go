package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/keeper/pkg/types"
)

func newDisplayModeCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:       "display-mode [system|light|dark]",
		Short:     "Show or set the stored display mode",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{string(types.DisplayModeSystem), string(types.DisplayModeLight), string(types.DisplayModeDark)},
		RunE: func(cmd *cobra.Command, args []string) error {
			var want types.DisplayMode
			if len(args) == 1 {
				mode, ok := types.ParseDisplayMode(args[0])
				if !ok {
					return userError(fmt.Errorf("unknown display mode %q", args[0]))
				}
				want = mode
			}

			app, err := s.openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer app.Close()

			if want != "" {
				if err := app.SetDisplayMode(cmd.Context(), want); err != nil {
					return sysError(err)
				}
			}
			mode, err := app.DisplayMode(cmd.Context())
			if err != nil {
				return sysError(err)
			}

			if s.flags.jsonMode {
				return writeJSON(cmd.OutOrStdout(), map[string]string{"display_mode": string(mode)})
			}
			fmt.Fprintln(cmd.OutOrStdout(), mode)
			return nil
		},
	}
}
