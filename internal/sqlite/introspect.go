package sqlite

import (
	"context"
	"database/sql"
	"fmt"
)

// Querier is the statement surface shared by *sql.DB, *sql.Tx and *sql.Conn.
// Store helpers take a Querier so the same code runs inside or outside a
// transaction.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

var (
	_ Querier = (*sql.DB)(nil)
	_ Querier = (*sql.Tx)(nil)
	_ Querier = (*sql.Conn)(nil)
)

// Inspector answers structural questions about a database. Migration
// verification and the metadata store only see this interface, never the
// engine's system catalog.
type Inspector interface {
	TableExists(ctx context.Context, q Querier, table string) (bool, error)
	ColumnExists(ctx context.Context, q Querier, table, column string) (bool, error)
	IndexExists(ctx context.Context, q Querier, index string) (bool, error)
	// Tables lists user tables in name order.
	Tables(ctx context.Context, q Querier) ([]string, error)
}

// SQLiteInspector implements Inspector over sqlite_master and pragma_table_info.
type SQLiteInspector struct{}

var _ Inspector = SQLiteInspector{}

// TableExists reports whether a table with the given name exists.
func (SQLiteInspector) TableExists(ctx context.Context, q Querier, table string) (bool, error) {
	return schemaObjectExists(ctx, q, "table", table)
}

// IndexExists reports whether an index with the given name exists.
func (SQLiteInspector) IndexExists(ctx context.Context, q Querier, index string) (bool, error) {
	return schemaObjectExists(ctx, q, "index", index)
}

// ColumnExists reports whether table has a column named column. A missing
// table has no columns.
func (SQLiteInspector) ColumnExists(ctx context.Context, q Querier, table, column string) (bool, error) {
	var n int
	err := q.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM pragma_table_info(?) WHERE name = ?", table, column,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("inspecting column %s.%s: %w", table, column, err)
	}
	return n > 0, nil
}

// Tables lists user tables, excluding SQLite's internal ones.
func (SQLiteInspector) Tables(ctx context.Context, q Querier) ([]string, error) {
	rows, err := q.QueryContext(ctx,
		"SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name",
	)
	if err != nil {
		return nil, fmt.Errorf("listing tables: %w", err)
	}
	defer rows.Close()

	tables := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning table name: %w", err)
		}
		tables = append(tables, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating tables: %w", err)
	}
	return tables, nil
}

func schemaObjectExists(ctx context.Context, q Querier, kind, name string) (bool, error) {
	var n int
	err := q.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM sqlite_master WHERE type = ? AND name = ?", kind, name,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("inspecting %s %s: %w", kind, name, err)
	}
	return n > 0, nil
}
