package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/keeper/internal/sqlite"
	"github.com/mesh-intelligence/keeper/internal/testutil"
	"github.com/mesh-intelligence/keeper/pkg/types"
)

type testEnv struct {
	configDir string
	dataDir   string
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	for _, k := range []string{"KEEPER_CONFIG_DIR", "KEEPER_DATA_DIR", "KEEPER_DB_NAME", "KEEPER_LOG_LEVEL", "KEEPER_LOG_FORMAT", "KEEPER_ALLOW_RESET"} {
		t.Setenv(k, "")
	}
	root := t.TempDir()
	return testEnv{
		configDir: filepath.Join(root, "config"),
		dataDir:   filepath.Join(root, "data"),
	}
}

func (e testEnv) dbPath() string { return filepath.Join(e.dataDir, types.DefaultDBName) }

// run executes keeper with the env's directories and returns stdout.
func (e testEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{"--config-dir", e.configDir, "--data-dir", e.dataDir}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestVersionCmd(t *testing.T) {
	env := newTestEnv(t)
	out, err := env.run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "keeper ")
	assert.Contains(t, out, modulePath)
	assert.NoDirExists(t, env.configDir, "version does not load config")
}

func TestInitCmd(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run(t, "init")
	require.NoError(t, err)
	assert.Contains(t, out, "Store ready at "+env.dbPath())
	assert.FileExists(t, env.dbPath())

	data, err := os.ReadFile(filepath.Join(env.configDir, "config.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "db_name: keeper.db")

	out, err = env.run(t, "--json", "init")
	require.NoError(t, err)
	var rep sqlite.Report
	require.NoError(t, json.Unmarshal([]byte(out), &rep))
	assert.Equal(t, types.CurrentSchemaVersion, rep.StoredVersion)
	assert.True(t, rep.Sound)
}

func TestStatusCmd(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run(t, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "No store at")
	assert.NoFileExists(t, env.dbPath(), "status never creates the store")

	testutil.WriteLegacyV1(t, env.dbPath(), testutil.Fixture{Tasks: 3})
	out, err = env.run(t, "--json", "status")
	require.NoError(t, err)
	var rep sqlite.Report
	require.NoError(t, json.Unmarshal([]byte(out), &rep))
	assert.Equal(t, 1, rep.StoredVersion)
	assert.Len(t, rep.Pending, types.CurrentSchemaVersion-1)

	out, err = env.run(t, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "version:  1 (current 5)")
	assert.Contains(t, out, "1->2 entries")
}

func TestMigrateCmd(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run(t, "migrate", "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, out, "Fresh install to version 5")
	assert.NoFileExists(t, env.dbPath())

	testutil.WriteLegacyV1(t, env.dbPath(), testutil.Fixture{Tasks: 37, DeletedTasks: 5, DefaultList: true})

	out, err = env.run(t, "migrate", "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, out, "1->2 entries")
	assert.Contains(t, out, "4->5 ordering")

	out, err = env.run(t, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "Schema at version 5")

	out, err = env.run(t, "migrate", "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, out, "Up to date at version 5")

	db := testutil.OpenRaw(t, env.dbPath())
	defer db.Close()
	assert.Equal(t, 37, testutil.Count(t, db, "entries", "type = 'task'"))
	assert.Equal(t, 5, testutil.Count(t, db, "entries", "deleted_at IS NOT NULL"))
}

func TestVerifyCmd(t *testing.T) {
	env := newTestEnv(t)
	out, err := env.run(t, "verify")
	require.NoError(t, err)
	assert.Contains(t, out, "sound:    true")
}

func TestDisplayModeCmd(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run(t, "display-mode")
	require.NoError(t, err)
	assert.Equal(t, "system\n", out)

	out, err = env.run(t, "display-mode", "dark")
	require.NoError(t, err)
	assert.Equal(t, "dark\n", out)

	out, err = env.run(t, "--json", "display-mode")
	require.NoError(t, err)
	assert.JSONEq(t, `{"display_mode":"dark"}`, out)

	_, err = env.run(t, "display-mode", "sepia")
	require.Error(t, err)
	assert.Equal(t, exitUserError, exitCode(err))
}

func TestResetCmd(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.run(t, "init")
	require.NoError(t, err)

	_, err = env.run(t, "reset")
	require.Error(t, err)
	assert.Equal(t, exitUserError, exitCode(err))

	_, err = env.run(t, "reset", "--yes")
	require.ErrorIs(t, err, types.ErrResetDisabled)
	assert.Equal(t, exitUserError, exitCode(err))

	t.Setenv("KEEPER_ALLOW_RESET", "true")
	out, err := env.run(t, "reset", "--yes")
	require.NoError(t, err)
	assert.Contains(t, out, "Store reset to schema version 5")
}

func TestInvalidConfigIsUserError(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, os.MkdirAll(env.configDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(env.configDir, "config.yaml"), []byte("log_level: loud\n"), 0o644))

	_, err := env.run(t, "status")
	require.ErrorIs(t, err, types.ErrLogLevelUnknown)
	assert.Equal(t, exitUserError, exitCode(err))
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, exitSuccess, exitCode(nil))
	assert.Equal(t, exitSysError, exitCode(sysError(os.ErrPermission)))
	assert.Equal(t, exitUserError, exitCode(userError(os.ErrInvalid)))
	assert.Equal(t, exitUserError, exitCode(os.ErrInvalid))
}
