package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mesh-intelligence/keeper/pkg/types"
)

// entries as the first post-rename generation created it, used only when a
// version 1 database never had a tasks table.
const createEntriesV2 = `CREATE TABLE IF NOT EXISTS entries (
    id TEXT PRIMARY KEY,
    list_id TEXT,
    title TEXT NOT NULL,
    notes TEXT,
    completed INTEGER NOT NULL DEFAULT 0,
    due_at TEXT,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL,
    deleted_at TEXT,
    type TEXT NOT NULL DEFAULT 'task'
);`

// Baseline keys.
const (
	baseRows     = "rows"
	baseDeleted  = "deleted"
	baseTasks    = "tasks"
	baseDefaults = "defaults"
	baseExpenses = "expenses"
)

// DefaultSteps returns the built-in migration steps. Each call returns a new
// slice so callers may alter their copy.
func DefaultSteps() []Step {
	return []Step{
		{From: 1, Name: "entries", Apply: applyEntries, Verify: verifyEntries},
		{From: 2, Name: "collections", Apply: applyCollections, Verify: verifyCollections},
		{From: 3, Name: "budget", Apply: applyBudget, Verify: verifyBudget},
		{From: 4, Name: "ordering", Apply: applyOrdering, Verify: verifyOrdering},
	}
}

// applyEntries turns tasks into entries with a type discriminator and renames
// the child task_id columns to entry_id.
func applyEntries(ctx context.Context, tx *sql.Tx, in Inspector) (Baseline, error) {
	hasTasks, err := in.TableExists(ctx, tx, types.LegacyTableTasks)
	if err != nil {
		return nil, err
	}
	hasEntries, err := in.TableExists(ctx, tx, types.TableEntries)
	if err != nil {
		return nil, err
	}

	b := Baseline{}
	switch {
	case hasTasks && hasEntries:
		return nil, fmt.Errorf("both %s and %s exist", types.LegacyTableTasks, types.TableEntries)
	case hasTasks:
		if b, err = entryBaseline(ctx, tx, types.LegacyTableTasks, false); err != nil {
			return nil, err
		}
		if err := execAll(ctx, tx, "ALTER TABLE tasks RENAME TO entries"); err != nil {
			return nil, err
		}
	case hasEntries:
		typed, err := in.ColumnExists(ctx, tx, types.TableEntries, "type")
		if err != nil {
			return nil, err
		}
		if b, err = entryBaseline(ctx, tx, types.TableEntries, typed); err != nil {
			return nil, err
		}
	default:
		if err := execAll(ctx, tx, createEntriesV2); err != nil {
			return nil, err
		}
	}

	if err := addColumnIfMissing(ctx, tx, in, types.TableEntries, "type", "TEXT NOT NULL DEFAULT 'task'"); err != nil {
		return nil, err
	}

	children := []struct{ table, create string }{
		{types.TableChecklistItems, createChecklistItems},
		{types.TableReminders, createReminders},
	}
	for _, c := range children {
		exists, err := in.TableExists(ctx, tx, c.table)
		if err != nil {
			return nil, err
		}
		if !exists {
			if err := execAll(ctx, tx, c.create); err != nil {
				return nil, err
			}
			continue
		}
		legacy, err := in.ColumnExists(ctx, tx, c.table, "task_id")
		if err != nil {
			return nil, err
		}
		if legacy {
			if err := execAll(ctx, tx, fmt.Sprintf("ALTER TABLE %s RENAME COLUMN task_id TO entry_id", c.table)); err != nil {
				return nil, err
			}
		}
	}

	err = execAll(ctx, tx,
		"DROP INDEX IF EXISTS idx_tasks_list",
		"DROP INDEX IF EXISTS idx_checklist_items_task",
		"DROP INDEX IF EXISTS idx_reminders_task",
		idxEntriesType,
		idxChecklistItemsEntry,
		idxRemindersEntry,
	)
	return b, err
}

func verifyEntries(ctx context.Context, tx *sql.Tx, in Inspector, before Baseline) error {
	if err := expectTable(ctx, tx, in, types.LegacyTableTasks, false); err != nil {
		return err
	}
	for _, c := range [][2]string{
		{types.TableEntries, "type"},
		{types.TableChecklistItems, "entry_id"},
		{types.TableReminders, "entry_id"},
	} {
		if err := expectColumn(ctx, tx, in, c[0], c[1], true); err != nil {
			return err
		}
	}
	return firstErr(
		expectCount(ctx, tx, "row count preserved", types.TableEntries, "", before[baseRows]),
		expectCount(ctx, tx, "soft-deleted rows preserved", types.TableEntries, "deleted_at IS NOT NULL", before[baseDeleted]),
		expectCount(ctx, tx, "task discriminator on migrated rows", types.TableEntries, "type = 'task'", before[baseTasks]),
		expectCount(ctx, tx, "discriminator present", types.TableEntries, "type IS NULL OR type = ''", 0),
	)
}

// applyCollections turns lists into collections with a kind discriminator,
// marking the legacy default list as the system collection.
func applyCollections(ctx context.Context, tx *sql.Tx, in Inspector) (Baseline, error) {
	hasLists, err := in.TableExists(ctx, tx, types.LegacyTableLists)
	if err != nil {
		return nil, err
	}
	hasCollections, err := in.TableExists(ctx, tx, types.TableCollections)
	if err != nil {
		return nil, err
	}

	b := Baseline{}
	switch {
	case hasLists && hasCollections:
		return nil, fmt.Errorf("both %s and %s exist", types.LegacyTableLists, types.TableCollections)
	case hasLists:
		if b, err = collectionBaseline(ctx, tx, types.LegacyTableLists); err != nil {
			return nil, err
		}
		if err := execAll(ctx, tx, "ALTER TABLE lists RENAME TO collections"); err != nil {
			return nil, err
		}
	case hasCollections:
		if b, err = collectionBaseline(ctx, tx, types.TableCollections); err != nil {
			return nil, err
		}
	default:
		if err := execAll(ctx, tx, createCollections); err != nil {
			return nil, err
		}
	}

	if err := addColumnIfMissing(ctx, tx, in, types.TableCollections, "kind", "TEXT NOT NULL DEFAULT 'user'"); err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx,
		"UPDATE collections SET kind = ? WHERE is_default = 1 AND kind <> ?",
		types.CollectionKindSystem, types.CollectionKindSystem,
	); err != nil {
		return nil, fmt.Errorf("marking system collections: %w", err)
	}

	legacy, err := in.ColumnExists(ctx, tx, types.TableEntries, "list_id")
	if err != nil {
		return nil, err
	}
	if legacy {
		if err := execAll(ctx, tx, "ALTER TABLE entries RENAME COLUMN list_id TO collection_id"); err != nil {
			return nil, err
		}
	}

	return b, execAll(ctx, tx, idxCollectionsKind, idxEntriesCollection)
}

func verifyCollections(ctx context.Context, tx *sql.Tx, in Inspector, before Baseline) error {
	return firstErr(
		expectTable(ctx, tx, in, types.LegacyTableLists, false),
		expectColumn(ctx, tx, in, types.TableCollections, "kind", true),
		expectColumn(ctx, tx, in, types.TableEntries, "collection_id", true),
		expectColumn(ctx, tx, in, types.TableEntries, "list_id", false),
		expectCount(ctx, tx, "row count preserved", types.TableCollections, "", before[baseRows]),
		expectCount(ctx, tx, "soft-deleted rows preserved", types.TableCollections, "deleted_at IS NOT NULL", before[baseDeleted]),
		expectCount(ctx, tx, "default list became system collection", types.TableCollections,
			"is_default = 1 AND kind = '"+types.CollectionKindSystem+"'", before[baseDefaults]),
		expectCount(ctx, tx, "discriminator present", types.TableCollections, "kind IS NULL OR kind = ''", 0),
	)
}

// applyBudget adds the budget category and expense tables.
func applyBudget(ctx context.Context, tx *sql.Tx, in Inspector) (Baseline, error) {
	b := Baseline{}
	for key, table := range map[string]string{
		baseRows:     types.TableBudgetCategories,
		baseExpenses: types.TableExpenses,
	} {
		exists, err := in.TableExists(ctx, tx, table)
		if err != nil {
			return nil, err
		}
		if !exists {
			continue
		}
		if b[key], err = countRows(ctx, tx, table, ""); err != nil {
			return nil, err
		}
	}

	return b, execAll(ctx, tx,
		createBudgetCategories,
		createExpenses,
		idxExpensesCategory,
		idxExpensesSpentAt,
	)
}

func verifyBudget(ctx context.Context, tx *sql.Tx, in Inspector, before Baseline) error {
	return firstErr(
		expectTable(ctx, tx, in, types.TableBudgetCategories, true),
		expectTable(ctx, tx, in, types.TableExpenses, true),
		expectColumn(ctx, tx, in, types.TableExpenses, "amount_cents", true),
		expectIndex(ctx, tx, in, "idx_expenses_category"),
		expectCount(ctx, tx, "category rows preserved", types.TableBudgetCategories, "", before[baseRows]),
		expectCount(ctx, tx, "expense rows preserved", types.TableExpenses, "", before[baseExpenses]),
	)
}

// applyOrdering adds pinning and manual ordering to entries and the
// soft-delete lookup indexes.
func applyOrdering(ctx context.Context, tx *sql.Tx, in Inspector) (Baseline, error) {
	rows, err := countRows(ctx, tx, types.TableEntries, "")
	if err != nil {
		return nil, err
	}
	if err := addColumnIfMissing(ctx, tx, in, types.TableEntries, "pinned", "INTEGER NOT NULL DEFAULT 0"); err != nil {
		return nil, err
	}
	if err := addColumnIfMissing(ctx, tx, in, types.TableEntries, "position", "INTEGER NOT NULL DEFAULT 0"); err != nil {
		return nil, err
	}
	err = execAll(ctx, tx,
		idxEntriesDeleted,
		idxCollectionsDeleted,
		idxBudgetCategoriesDeleted,
		idxRemindersRemindAt,
	)
	return Baseline{baseRows: rows}, err
}

func verifyOrdering(ctx context.Context, tx *sql.Tx, in Inspector, before Baseline) error {
	return firstErr(
		expectColumn(ctx, tx, in, types.TableEntries, "pinned", true),
		expectColumn(ctx, tx, in, types.TableEntries, "position", true),
		expectIndex(ctx, tx, in, "idx_entries_deleted"),
		expectIndex(ctx, tx, in, "idx_collections_deleted"),
		expectCount(ctx, tx, "row count preserved", types.TableEntries, "", before[baseRows]),
	)
}

func entryBaseline(ctx context.Context, q Querier, table string, typed bool) (Baseline, error) {
	rows, err := countRows(ctx, q, table, "")
	if err != nil {
		return nil, err
	}
	deleted, err := countRows(ctx, q, table, "deleted_at IS NOT NULL")
	if err != nil {
		return nil, err
	}
	tasks := rows
	if typed {
		if tasks, err = countRows(ctx, q, table, "type = 'task'"); err != nil {
			return nil, err
		}
	}
	return Baseline{baseRows: rows, baseDeleted: deleted, baseTasks: tasks}, nil
}

func collectionBaseline(ctx context.Context, q Querier, table string) (Baseline, error) {
	rows, err := countRows(ctx, q, table, "")
	if err != nil {
		return nil, err
	}
	deleted, err := countRows(ctx, q, table, "deleted_at IS NOT NULL")
	if err != nil {
		return nil, err
	}
	defaults, err := countRows(ctx, q, table, "is_default = 1")
	if err != nil {
		return nil, err
	}
	return Baseline{baseRows: rows, baseDeleted: deleted, baseDefaults: defaults}, nil
}

// checkFailure names the verification check that did not hold.
type checkFailure struct {
	check string
	err   error
}

func (c *checkFailure) Error() string { return c.check + ": " + c.err.Error() }
func (c *checkFailure) Unwrap() error { return c.err }

func failCheck(check, format string, args ...any) error {
	return &checkFailure{check: check, err: fmt.Errorf(format, args...)}
}

func expectTable(ctx context.Context, q Querier, in Inspector, table string, want bool) error {
	got, err := in.TableExists(ctx, q, table)
	if err != nil {
		return err
	}
	if got != want {
		return failCheck("table "+table, "exists=%t, want %t", got, want)
	}
	return nil
}

func expectColumn(ctx context.Context, q Querier, in Inspector, table, column string, want bool) error {
	got, err := in.ColumnExists(ctx, q, table, column)
	if err != nil {
		return err
	}
	if got != want {
		return failCheck("column "+table+"."+column, "exists=%t, want %t", got, want)
	}
	return nil
}

func expectIndex(ctx context.Context, q Querier, in Inspector, index string) error {
	got, err := in.IndexExists(ctx, q, index)
	if err != nil {
		return err
	}
	if !got {
		return failCheck("index "+index, "missing")
	}
	return nil
}

func expectCount(ctx context.Context, q Querier, check, table, where string, want int64) error {
	got, err := countRows(ctx, q, table, where)
	if err != nil {
		return err
	}
	if got != want {
		return failCheck(check, "%s has %d rows, want %d", table, got, want)
	}
	return nil
}

// countRows counts rows in table matching where. Both are package constants,
// never caller input.
func countRows(ctx context.Context, q Querier, table, where string) (int64, error) {
	query := "SELECT COUNT(*) FROM " + table
	if where != "" {
		query += " WHERE " + where
	}
	var n int64
	if err := q.QueryRowContext(ctx, query).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting %s: %w", table, err)
	}
	return n, nil
}

func addColumnIfMissing(ctx context.Context, tx *sql.Tx, in Inspector, table, column, decl string) error {
	exists, err := in.ColumnExists(ctx, tx, table, column)
	if err != nil || exists {
		return err
	}
	return execAll(ctx, tx, fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", table, column, decl))
}

func execAll(ctx context.Context, q Querier, stmts ...string) error {
	for _, stmt := range stmts {
		if _, err := q.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("executing %q: %w", stmt, err)
		}
	}
	return nil
}

// firstErr returns the first non-nil error.
func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// checkName extracts the failed check from a Verify error.
func checkName(err error) (string, error) {
	var cf *checkFailure
	if errors.As(err, &cf) {
		return cf.check, cf.err
	}
	return "verify", err
}
