package sqlite

import (
	"context"
	"database/sql"
	"fmt"
)

// Sound reports whether the database holds at least MinimumTables user
// tables. It is an operational check and plays no part in migration.
func Sound(ctx context.Context, q Querier, in Inspector) (bool, error) {
	if in == nil {
		in = SQLiteInspector{}
	}
	tables, err := in.Tables(ctx, q)
	if err != nil {
		return false, err
	}
	return len(tables) >= MinimumTables, nil
}

// Report summarizes the state of a database file without changing it.
type Report struct {
	Path           string   `json:"path"`
	StoredVersion  int      `json:"stored_version"`
	Inferred       bool     `json:"version_inferred"`
	CurrentVersion int      `json:"current_version"`
	FreshInstall   bool     `json:"fresh_install"`
	Pending        []string `json:"pending"`
	Tables         []string `json:"tables"`
	Sound          bool     `json:"sound"`
}

// Diagnose builds a Report for db. Runner options select the catalog the
// pending steps are resolved against.
func Diagnose(ctx context.Context, db *sql.DB, path string, opts ...RunnerOption) (Report, error) {
	r := NewRunner(db, opts...)
	plan, err := r.Plan(ctx)
	if err != nil {
		return Report{}, err
	}

	tables, err := r.inspector.Tables(ctx, db)
	if err != nil {
		return Report{}, err
	}

	rep := Report{
		Path:           path,
		StoredVersion:  plan.recorded(),
		Inferred:       plan.Inferred,
		CurrentVersion: plan.Target,
		FreshInstall:   plan.FreshInstall,
		Pending:        []string{},
		Tables:         tables,
		Sound:          len(tables) >= MinimumTables,
	}
	for _, s := range plan.Steps {
		rep.Pending = append(rep.Pending, fmt.Sprintf("%d->%d %s", s.From, s.To(), s.Name))
	}
	return rep, nil
}
