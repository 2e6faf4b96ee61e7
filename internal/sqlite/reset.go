package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mesh-intelligence/keeper/pkg/types"
)

// Reset drops every table any schema generation created and reinstalls the
// current schema. All user data is lost. It exists for development and
// tests; production code paths reach it only through an explicitly enabled
// configuration.
func Reset(ctx context.Context, db *sql.DB, opts ...RunnerOption) (int, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning reset: %w", err)
	}
	defer tx.Rollback()

	for _, table := range types.KnownTableNames {
		if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+table); err != nil {
			return 0, fmt.Errorf("dropping %s: %w", table, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing reset: %w", err)
	}

	return NewRunner(db, opts...).EnsureCurrent(ctx)
}
