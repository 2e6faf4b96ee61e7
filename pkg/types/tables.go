package types

// Table names at the current schema version.
const (
	TableMetadata         = "app_metadata"
	TableCollections      = "collections"
	TableEntries          = "entries"
	TableChecklistItems   = "checklist_items"
	TableReminders        = "reminders"
	TableBudgetCategories = "budget_categories"
	TableExpenses         = "expenses"
)

// Table names used only by earlier schema generations. They are renamed away
// by migrations and dropped by a destructive reset.
const (
	LegacyTableTasks = "tasks"
	LegacyTableLists = "lists"
)

// CurrentTableNames lists every table present at CurrentSchemaVersion.
var CurrentTableNames = []string{
	TableMetadata,
	TableCollections,
	TableEntries,
	TableChecklistItems,
	TableReminders,
	TableBudgetCategories,
	TableExpenses,
}

// KnownTableNames lists every table any schema generation ever created,
// children before parents so they can be dropped in order.
var KnownTableNames = []string{
	TableExpenses,
	TableBudgetCategories,
	TableReminders,
	TableChecklistItems,
	TableEntries,
	LegacyTableTasks,
	TableCollections,
	LegacyTableLists,
	TableMetadata,
}

// Discriminator values written by migrations and expected by callers.
const (
	EntryTypeTask = "task"
	EntryTypeNote = "note"

	CollectionKindUser   = "user"
	CollectionKindSystem = "system"
)

// DefaultCollectionName is the name given to the system collection when the
// store has to create it.
const DefaultCollectionName = "Inbox"
