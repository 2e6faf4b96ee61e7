package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/keeper/internal/sqlite"
)

func newMigrateCmd(s *session) *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Bring the store to the current schema version",
		Long: "Apply every pending migration step, each in its own transaction.\n" +
			"With --dry-run, list the steps without changing the file.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if dryRun {
				return runMigratePlan(cmd, s)
			}

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
			fmt.Fprintf(cmd.OutOrStdout(), "Schema at version %d\n", rep.StoredVersion)
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "show pending steps without applying them")
	return cmd
}

type migrationPlan struct {
	Stored       int      `json:"stored_version"`
	Target       int      `json:"target_version"`
	FreshInstall bool     `json:"fresh_install"`
	Steps        []string `json:"steps"`
}

func runMigratePlan(cmd *cobra.Command, s *session) error {
	path := s.cfg.DBPath()
	plan := migrationPlan{Steps: []string{}}

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		plan.FreshInstall = true
		plan.Target = sqlite.DefaultCatalog().Current()
	} else {
		db, err := sqlite.Open(cmd.Context(), path)
		if err != nil {
			return sysError(err)
		}
		defer db.Close()

		p, err := sqlite.NewRunner(db, sqlite.WithLogger(s.logger)).Plan(cmd.Context())
		if err != nil {
			return sysError(err)
		}
		plan.Stored, plan.Target, plan.FreshInstall = p.Stored, p.Target, p.FreshInstall
		for _, step := range p.Steps {
			plan.Steps = append(plan.Steps, fmt.Sprintf("%d->%d %s", step.From, step.To(), step.Name))
		}
	}

	out := cmd.OutOrStdout()
	if s.flags.jsonMode {
		return writeJSON(out, plan)
	}
	switch {
	case plan.FreshInstall:
		fmt.Fprintf(out, "Fresh install to version %d\n", plan.Target)
	case len(plan.Steps) == 0:
		fmt.Fprintf(out, "Up to date at version %d\n", plan.Stored)
	default:
		for _, step := range plan.Steps {
			fmt.Fprintln(out, step)
		}
	}
	return nil
}
