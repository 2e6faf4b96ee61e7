// Package sqlite owns the organizer's embedded SQLite store: opening the
// single process-wide handle, the versioned schema catalog and the runner
// that brings any historical database file up to the current version.
package sqlite

// Table DDL at the current schema version. Every statement is idempotent so a
// fresh install can be repeated safely.
const (
	createMetadata = `CREATE TABLE IF NOT EXISTS app_metadata (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
);`

	createCollections = `CREATE TABLE IF NOT EXISTS collections (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    color TEXT,
    is_default INTEGER NOT NULL DEFAULT 0,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL,
    deleted_at TEXT,
    kind TEXT NOT NULL DEFAULT 'user'
);`

	createEntries = `CREATE TABLE IF NOT EXISTS entries (
    id TEXT PRIMARY KEY,
    collection_id TEXT,
    title TEXT NOT NULL,
    notes TEXT,
    completed INTEGER NOT NULL DEFAULT 0,
    due_at TEXT,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL,
    deleted_at TEXT,
    type TEXT NOT NULL DEFAULT 'task',
    pinned INTEGER NOT NULL DEFAULT 0,
    position INTEGER NOT NULL DEFAULT 0
);`

	createChecklistItems = `CREATE TABLE IF NOT EXISTS checklist_items (
    id TEXT PRIMARY KEY,
    entry_id TEXT NOT NULL REFERENCES entries(id) ON DELETE CASCADE,
    text TEXT NOT NULL,
    checked INTEGER NOT NULL DEFAULT 0,
    position INTEGER NOT NULL DEFAULT 0,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
);`

	createReminders = `CREATE TABLE IF NOT EXISTS reminders (
    id TEXT PRIMARY KEY,
    entry_id TEXT NOT NULL REFERENCES entries(id) ON DELETE CASCADE,
    remind_at TEXT NOT NULL,
    delivered INTEGER NOT NULL DEFAULT 0,
    created_at TEXT NOT NULL
);`

	createBudgetCategories = `CREATE TABLE IF NOT EXISTS budget_categories (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    color TEXT,
    monthly_limit_cents INTEGER,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL,
    deleted_at TEXT
);`

	createExpenses = `CREATE TABLE IF NOT EXISTS expenses (
    id TEXT PRIMARY KEY,
    category_id TEXT REFERENCES budget_categories(id),
    entry_id TEXT REFERENCES entries(id) ON DELETE SET NULL,
    amount_cents INTEGER NOT NULL,
    currency TEXT NOT NULL DEFAULT 'USD',
    spent_at TEXT NOT NULL,
    note TEXT,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL,
    deleted_at TEXT
);`
)

// Index DDL at the current schema version.
const (
	idxCollectionsKind         = `CREATE INDEX IF NOT EXISTS idx_collections_kind ON collections(kind);`
	idxCollectionsDeleted      = `CREATE INDEX IF NOT EXISTS idx_collections_deleted ON collections(deleted_at);`
	idxEntriesCollection       = `CREATE INDEX IF NOT EXISTS idx_entries_collection ON entries(collection_id);`
	idxEntriesType             = `CREATE INDEX IF NOT EXISTS idx_entries_type ON entries(type);`
	idxEntriesDeleted          = `CREATE INDEX IF NOT EXISTS idx_entries_deleted ON entries(deleted_at);`
	idxChecklistItemsEntry     = `CREATE INDEX IF NOT EXISTS idx_checklist_items_entry ON checklist_items(entry_id);`
	idxRemindersEntry          = `CREATE INDEX IF NOT EXISTS idx_reminders_entry ON reminders(entry_id);`
	idxRemindersRemindAt       = `CREATE INDEX IF NOT EXISTS idx_reminders_remind_at ON reminders(remind_at);`
	idxBudgetCategoriesDeleted = `CREATE INDEX IF NOT EXISTS idx_budget_categories_deleted ON budget_categories(deleted_at);`
	idxExpensesCategory        = `CREATE INDEX IF NOT EXISTS idx_expenses_category ON expenses(category_id);`
	idxExpensesSpentAt         = `CREATE INDEX IF NOT EXISTS idx_expenses_spent_at ON expenses(spent_at);`
)

// schemaDDL lists all CREATE TABLE statements in dependency order.
var schemaDDL = []string{
	createMetadata,
	createCollections,
	createEntries,
	createChecklistItems,
	createReminders,
	createBudgetCategories,
	createExpenses,
}

// indexDDL lists all CREATE INDEX statements.
var indexDDL = []string{
	idxCollectionsKind,
	idxCollectionsDeleted,
	idxEntriesCollection,
	idxEntriesType,
	idxEntriesDeleted,
	idxChecklistItemsEntry,
	idxRemindersEntry,
	idxRemindersRemindAt,
	idxBudgetCategoriesDeleted,
	idxExpensesCategory,
	idxExpensesSpentAt,
}

// FreshSchema returns the full current schema, tables first, in the order a
// fresh install applies it.
func FreshSchema() []string {
	out := make([]string, 0, len(schemaDDL)+len(indexDDL))
	out = append(out, schemaDDL...)
	return append(out, indexDDL...)
}

// MinimumTables is the number of user tables a sound current database has.
var MinimumTables = len(schemaDDL)
