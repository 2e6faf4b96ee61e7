package cli

import (
	"errors"

	"github.com/spf13/cobra"
)

var errUnsound = errors.New("store has fewer tables than the current schema defines")

func newVerifyCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Initialize the store and run the soundness check",
		Args:  cobra.NoArgs,
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
				if err := writeJSON(cmd.OutOrStdout(), rep); err != nil {
					return err
				}
			} else {
				writeReport(cmd.OutOrStdout(), rep)
			}
			if !rep.Sound {
				return sysError(errUnsound)
			}
			return nil
		},
	}
}
