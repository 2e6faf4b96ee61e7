package sqlite

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/keeper/internal/testutil"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// openTestDB opens an empty store file in a temp directory.
func openTestDB(t *testing.T) (*sql.DB, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "keeper.db")
	db, err := Open(context.Background(), path)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, path
}

// openLegacyDB writes a version 1 file per f and opens it with the store pragmas.
func openLegacyDB(t *testing.T, f testutil.Fixture) (*sql.DB, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "keeper.db")
	testutil.WriteLegacyV1(t, path, f)
	db, err := Open(context.Background(), path)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, path
}

func newTestRunner(db *sql.DB, opts ...RunnerOption) *Runner {
	return NewRunner(db, append([]RunnerOption{WithLogger(quietLogger())}, opts...)...)
}

// migrateTo runs the built-in steps up to version target only.
func migrateTo(t *testing.T, db *sql.DB, target int) {
	t.Helper()
	var steps []Step
	for _, s := range DefaultSteps() {
		if s.From < target {
			steps = append(steps, s)
		}
	}
	cat, err := NewCatalog(1, target, FreshSchema(), steps...)
	require.NoError(t, err)
	v, err := newTestRunner(db, WithCatalog(cat)).EnsureCurrent(context.Background())
	require.NoError(t, err)
	require.Equal(t, target, v)
}

func columns(t *testing.T, db *sql.DB, table string) []string {
	t.Helper()
	rows, err := db.Query("SELECT name FROM pragma_table_info(?)", table)
	require.NoError(t, err)
	defer rows.Close()
	var cols []string
	for rows.Next() {
		var c string
		require.NoError(t, rows.Scan(&c))
		cols = append(cols, c)
	}
	require.NoError(t, rows.Err())
	return cols
}

func storedVersion(t *testing.T, db *sql.DB) int {
	t.Helper()
	v, err := NewMetadataStore(nil).SchemaVersion(context.Background(), db)
	require.NoError(t, err)
	return v
}
