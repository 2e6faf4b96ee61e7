// Package testutil builds database files in the shapes earlier releases of
// the organizer left on disk, for migration tests.
package testutil

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	_ "modernc.org/sqlite"
)

// LegacyV1 is the schema version 1 of the organizer created, keyed by table.
var LegacyV1 = []struct {
	Table string
	DDL   []string
}{
	{"app_metadata", []string{
		`CREATE TABLE app_metadata (key TEXT PRIMARY KEY, value TEXT NOT NULL)`,
	}},
	{"lists", []string{
		`CREATE TABLE lists (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			color TEXT,
			is_default INTEGER NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			deleted_at TEXT
		)`,
	}},
	{"tasks", []string{
		`CREATE TABLE tasks (
			id TEXT PRIMARY KEY,
			list_id TEXT,
			title TEXT NOT NULL,
			notes TEXT,
			completed INTEGER NOT NULL DEFAULT 0,
			due_at TEXT,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			deleted_at TEXT
		)`,
		`CREATE INDEX idx_tasks_list ON tasks(list_id)`,
	}},
	{"checklist_items", []string{
		`CREATE TABLE checklist_items (
			id TEXT PRIMARY KEY,
			task_id TEXT NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
			text TEXT NOT NULL,
			checked INTEGER NOT NULL DEFAULT 0,
			position INTEGER NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,
		`CREATE INDEX idx_checklist_items_task ON checklist_items(task_id)`,
	}},
	{"reminders", []string{
		`CREATE TABLE reminders (
			id TEXT PRIMARY KEY,
			task_id TEXT NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
			remind_at TEXT NOT NULL,
			delivered INTEGER NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX idx_reminders_task ON reminders(task_id)`,
	}},
}

// Fixture describes the rows a legacy database is seeded with.
type Fixture struct {
	Tasks        int      // total task rows, soft-deleted ones included
	DeletedTasks int      // how many of Tasks carry deleted_at
	DefaultList  bool     // seed a list flagged is_default
	DeletedLists int      // extra soft-deleted lists
	Omit         []string // legacy tables never created

	// DeletedDefaultList seeds a second is_default list, older than
	// list-personal and soft-deleted.
	DeletedDefaultList bool
}

// WriteLegacyV1 creates a version 1 database at path and seeds it per f.
func WriteLegacyV1(t testing.TB, path string, f Fixture) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("create %s: %v", filepath.Dir(path), err)
	}
	db := OpenRaw(t, path)
	defer db.Close()

	for _, tbl := range LegacyV1 {
		if slices.Contains(f.Omit, tbl.Table) {
			continue
		}
		for _, ddl := range tbl.DDL {
			mustExec(t, db, ddl)
		}
	}
	if !slices.Contains(f.Omit, "app_metadata") {
		mustExec(t, db, `INSERT INTO app_metadata (key, value) VALUES ('schema_version', '1')`)
	}

	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC).Format(time.RFC3339)
	hasLists := !slices.Contains(f.Omit, "lists")
	if hasLists {
		mustExec(t, db,
			`INSERT INTO lists (id, name, is_default, created_at, updated_at) VALUES ('list-personal', 'Personal', ?, ?, ?)`,
			boolInt(f.DefaultList), now, now)
		if f.DeletedDefaultList {
			older := time.Date(2023, 1, 1, 9, 0, 0, 0, time.UTC).Format(time.RFC3339)
			mustExec(t, db,
				`INSERT INTO lists (id, name, is_default, created_at, updated_at, deleted_at) VALUES ('list-old-default', 'Old default', 1, ?, ?, ?)`,
				older, older, now)
		}
		for i := 0; i < f.DeletedLists; i++ {
			mustExec(t, db,
				`INSERT INTO lists (id, name, created_at, updated_at, deleted_at) VALUES (?, ?, ?, ?, ?)`,
				fmt.Sprintf("list-old-%d", i), fmt.Sprintf("Old %d", i), now, now, now)
		}
	}

	if slices.Contains(f.Omit, "tasks") {
		return
	}
	for i := 0; i < f.Tasks; i++ {
		var deleted any
		if i < f.DeletedTasks {
			deleted = now
		}
		mustExec(t, db,
			`INSERT INTO tasks (id, list_id, title, completed, created_at, updated_at, deleted_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			fmt.Sprintf("task-%03d", i), "list-personal", fmt.Sprintf("Task %d", i), i%2, now, now, deleted)
	}
	if f.Tasks > 0 && !slices.Contains(f.Omit, "checklist_items") {
		mustExec(t, db,
			`INSERT INTO checklist_items (id, task_id, text, created_at, updated_at) VALUES ('item-1', 'task-000', 'milk', ?, ?)`,
			now, now)
	}
	if f.Tasks > 0 && !slices.Contains(f.Omit, "reminders") {
		mustExec(t, db,
			`INSERT INTO reminders (id, task_id, remind_at, created_at) VALUES ('rem-1', 'task-000', ?, ?)`,
			now, now)
	}
}

// OpenRaw opens path with the sqlite driver and no store pragmas, the way
// the legacy app did.
func OpenRaw(t testing.TB, path string) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	return db
}

// StoredVersion reads schema_version directly, returning "" when absent.
func StoredVersion(t testing.TB, db *sql.DB) string {
	t.Helper()
	var v string
	err := db.QueryRow(`SELECT value FROM app_metadata WHERE key = 'schema_version'`).Scan(&v)
	if err == sql.ErrNoRows {
		return ""
	}
	if err != nil {
		t.Fatalf("read schema_version: %v", err)
	}
	return v
}

// Count returns the number of rows in table matching where.
func Count(t testing.TB, db *sql.DB, table, where string, args ...any) int {
	t.Helper()
	q := "SELECT COUNT(*) FROM " + table
	if where != "" {
		q += " WHERE " + where
	}
	var n int
	if err := db.QueryRow(q, args...).Scan(&n); err != nil {
		t.Fatalf("count %s: %v", table, err)
	}
	return n
}

func mustExec(t testing.TB, db *sql.DB, query string, args ...any) {
	t.Helper()
	if _, err := db.Exec(query, args...); err != nil {
		t.Fatalf("exec %q: %v", query, err)
	}
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
