package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/keeper/pkg/types"
)

func TestMetadataStore_MissingTable(t *testing.T) {
	ctx := context.Background()
	db, _ := openTestDB(t)
	m := NewMetadataStore(nil)

	v, ok, err := m.Get(ctx, db, types.MetaKeySchemaVersion)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, v)

	version, err := m.SchemaVersion(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, 0, version)

	mode, err := m.DisplayMode(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, types.DisplayModeSystem, mode)
}

func TestMetadataStore_Upsert(t *testing.T) {
	ctx := context.Background()
	db, _ := openTestDB(t)
	m := NewMetadataStore(nil)
	require.NoError(t, m.EnsureTable(ctx, db))
	require.NoError(t, m.EnsureTable(ctx, db))

	require.NoError(t, m.Set(ctx, db, "k", "one"))
	require.NoError(t, m.Set(ctx, db, "k", "two"))

	v, ok, err := m.Get(ctx, db, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "two", v)

	var n int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM app_metadata WHERE key = 'k'").Scan(&n))
	assert.Equal(t, 1, n)

	_, ok, err = m.Get(ctx, db, "absent")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMetadataStore_SetInsideRolledBackTransaction(t *testing.T) {
	ctx := context.Background()
	db, _ := openTestDB(t)
	m := NewMetadataStore(nil)
	require.NoError(t, m.EnsureTable(ctx, db))

	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err)
	require.NoError(t, m.SetSchemaVersion(ctx, tx, 3))
	require.NoError(t, tx.Rollback())

	v, err := m.SchemaVersion(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, 0, v)
}

func TestMetadataStore_TypedAccessors(t *testing.T) {
	ctx := context.Background()
	db, _ := openTestDB(t)
	m := NewMetadataStore(nil)
	require.NoError(t, m.EnsureTable(ctx, db))

	t.Run("schema version round trips as text", func(t *testing.T) {
		require.NoError(t, m.SetSchemaVersion(ctx, db, 4))
		raw, _, err := m.Get(ctx, db, types.MetaKeySchemaVersion)
		require.NoError(t, err)
		assert.Equal(t, "4", raw)

		v, err := m.SchemaVersion(ctx, db)
		require.NoError(t, err)
		assert.Equal(t, 4, v)
	})

	t.Run("negative schema version is rejected", func(t *testing.T) {
		assert.Error(t, m.SetSchemaVersion(ctx, db, -1))
	})

	t.Run("garbage schema version is an error", func(t *testing.T) {
		require.NoError(t, m.Set(ctx, db, types.MetaKeySchemaVersion, "v2"))
		_, err := m.SchemaVersion(ctx, db)
		assert.Error(t, err)
	})

	t.Run("display mode", func(t *testing.T) {
		require.NoError(t, m.SetDisplayMode(ctx, db, types.DisplayModeDark))
		mode, err := m.DisplayMode(ctx, db)
		require.NoError(t, err)
		assert.Equal(t, types.DisplayModeDark, mode)

		assert.Error(t, m.SetDisplayMode(ctx, db, "sepia"))

		require.NoError(t, m.Set(ctx, db, types.MetaKeyDisplayMode, "sepia"))
		mode, err = m.DisplayMode(ctx, db)
		require.NoError(t, err)
		assert.Equal(t, types.DisplayModeSystem, mode)
	})
}
