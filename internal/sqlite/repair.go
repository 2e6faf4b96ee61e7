package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mesh-intelligence/keeper/pkg/types"
)

// RepairOutcome reports what EnsureDefaultCollection had to do.
type RepairOutcome int

const (
	RepairNone     RepairOutcome = iota // system collection already present
	RepairCreated                       // system collection was missing and was created
	RepairRestored                      // system collection was soft-deleted and was restored
)

func (o RepairOutcome) String() string {
	switch o {
	case RepairCreated:
		return "created"
	case RepairRestored:
		return "restored"
	default:
		return "none"
	}
}

// EnsureDefaultCollection guarantees the system collection exists and is not
// soft-deleted. It must run after migrations: it depends on the kind column.
// Running it again is a no-op.
func EnsureDefaultCollection(ctx context.Context, db *sql.DB) (RepairOutcome, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return RepairNone, fmt.Errorf("%w: beginning transaction: %w", types.ErrInvariantRepair, err)
	}
	defer tx.Rollback()

	outcome, err := ensureDefaultCollection(ctx, tx, time.Now().UTC())
	if err != nil {
		return RepairNone, fmt.Errorf("%w: %w", types.ErrInvariantRepair, err)
	}
	if err := tx.Commit(); err != nil {
		return RepairNone, fmt.Errorf("%w: committing: %w", types.ErrInvariantRepair, err)
	}
	return outcome, nil
}

// ensureDefaultCollection prefers a live system row; a soft-deleted one is
// restored only when no live one exists.
func ensureDefaultCollection(ctx context.Context, tx *sql.Tx, now time.Time) (RepairOutcome, error) {
	nowStr := now.Format(time.RFC3339)

	var id string
	var deletedAt sql.NullString
	err := tx.QueryRowContext(ctx,
		"SELECT id, deleted_at FROM collections WHERE kind = ? ORDER BY deleted_at IS NOT NULL, created_at, id LIMIT 1",
		types.CollectionKindSystem,
	).Scan(&id, &deletedAt)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		newID, err := uuid.NewV7()
		if err != nil {
			return RepairNone, fmt.Errorf("generating collection UUID: %w", err)
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO collections (id, name, is_default, kind, created_at, updated_at)
			 VALUES (?, ?, 1, ?, ?, ?)`,
			newID.String(), types.DefaultCollectionName, types.CollectionKindSystem, nowStr, nowStr,
		)
		if err != nil {
			return RepairNone, fmt.Errorf("creating system collection: %w", err)
		}
		return RepairCreated, nil
	case err != nil:
		return RepairNone, fmt.Errorf("looking up system collection: %w", err)
	case deletedAt.Valid:
		_, err := tx.ExecContext(ctx,
			"UPDATE collections SET deleted_at = NULL, updated_at = ? WHERE id = ?",
			nowStr, id,
		)
		if err != nil {
			return RepairNone, fmt.Errorf("restoring system collection %s: %w", id, err)
		}
		return RepairRestored, nil
	default:
		return RepairNone, nil
	}
}
