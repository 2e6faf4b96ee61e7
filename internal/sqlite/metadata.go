package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/mesh-intelligence/keeper/pkg/types"
)

// MetadataStore reads and writes the app_metadata key/value table. The table
// may not exist before the first bootstrap; reads treat that exactly like a
// missing key.
type MetadataStore struct {
	inspector Inspector
}

// NewMetadataStore returns a store that uses in to detect the table.
func NewMetadataStore(in Inspector) *MetadataStore {
	if in == nil {
		in = SQLiteInspector{}
	}
	return &MetadataStore{inspector: in}
}

// EnsureTable creates app_metadata if it is missing.
func (m *MetadataStore) EnsureTable(ctx context.Context, q Querier) error {
	if _, err := q.ExecContext(ctx, createMetadata); err != nil {
		return fmt.Errorf("creating %s: %w", types.TableMetadata, err)
	}
	return nil
}

// Get returns the value stored under key. ok is false when the key or the
// whole table is absent.
func (m *MetadataStore) Get(ctx context.Context, q Querier, key string) (value string, ok bool, err error) {
	exists, err := m.inspector.TableExists(ctx, q, types.TableMetadata)
	if err != nil {
		return "", false, err
	}
	if !exists {
		return "", false, nil
	}

	err = q.QueryRowContext(ctx, "SELECT value FROM app_metadata WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("reading metadata %s: %w", key, err)
	}
	return value, true, nil
}

// Set upserts key. Run it on a transaction to make the write part of a
// larger atomic change.
func (m *MetadataStore) Set(ctx context.Context, q Querier, key, value string) error {
	_, err := q.ExecContext(ctx,
		`INSERT INTO app_metadata (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("writing metadata %s: %w", key, err)
	}
	return nil
}

// SchemaVersion returns the stored schema version, or 0 when none is recorded.
func (m *MetadataStore) SchemaVersion(ctx context.Context, q Querier) (int, error) {
	raw, ok, err := m.Get(ctx, q, types.MetaKeySchemaVersion)
	if err != nil || !ok {
		return 0, err
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("invalid %s value %q", types.MetaKeySchemaVersion, raw)
	}
	return v, nil
}

// SetSchemaVersion records v as the stored schema version.
func (m *MetadataStore) SetSchemaVersion(ctx context.Context, q Querier, v int) error {
	if v < 0 {
		return fmt.Errorf("invalid schema version %d", v)
	}
	return m.Set(ctx, q, types.MetaKeySchemaVersion, strconv.Itoa(v))
}

// DisplayMode returns the stored display mode. Absent or unrecognized values
// decode to types.DisplayModeSystem.
func (m *MetadataStore) DisplayMode(ctx context.Context, q Querier) (types.DisplayMode, error) {
	raw, ok, err := m.Get(ctx, q, types.MetaKeyDisplayMode)
	if err != nil {
		return types.DisplayModeSystem, err
	}
	if !ok {
		return types.DisplayModeSystem, nil
	}
	mode, _ := types.ParseDisplayMode(raw)
	return mode, nil
}

// SetDisplayMode stores mode after checking it is a known value.
func (m *MetadataStore) SetDisplayMode(ctx context.Context, q Querier, mode types.DisplayMode) error {
	if !mode.Valid() {
		return fmt.Errorf("unknown display mode %q", mode)
	}
	return m.Set(ctx, q, types.MetaKeyDisplayMode, string(mode))
}
