package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points the home and working directory seams at a temp dir and
// clears the VIMANGO_* variables so the host environment cannot leak in.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	oldHome, oldWd := userHomeDir, getwd
	userHomeDir = func() (string, error) { return dir, nil }
	getwd = func() (string, error) { return dir, nil }
	t.Cleanup(func() {
		userHomeDir, getwd = oldHome, oldWd
	})

	for _, env := range []string{
		"VIMANGO_MAIN_DB", "VIMANGO_FTS_DB", "VIMANGO_BUSY_TIMEOUT_MS",
		"VIMANGO_PORT", "VIMANGO_LOG_LEVEL", "VIMANGO_SEARCH_DEFAULT_LIMIT",
	} {
		t.Setenv(env, "")
	}
	return dir
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestLoadJSONAppliesDefaults(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "custom.json")
	writeFile(t, path, `{"vimango": {"main_db": "/data/vimango.db", "fts_db": "/data/fts5_vimango.db"}}`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, path, cfg.Path)
	assert.Equal(t, "/data/vimango.db", cfg.Vimango.MainDB)
	assert.Equal(t, "/data/fts5_vimango.db", cfg.Vimango.FTSDB)
	assert.Equal(t, 2000, cfg.Vimango.BusyTimeoutMS)
	assert.Equal(t, 5, cfg.Search.DefaultLimit)
	assert.Equal(t, 50, cfg.Search.MaxResults)
	assert.Equal(t, 7438, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadMissingRequiredKey(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "config.json")
	writeFile(t, path, `{"vimango": {"main_db": "/data/vimango.db"}}`)

	_, err := Load(path)
	require.ErrorIs(t, err, ErrMissingKey)
	assert.Contains(t, err.Error(), "vimango.fts_db")
}

func TestLoadMissingExplicitFile(t *testing.T) {
	dir := isolate(t)

	_, err := Load(filepath.Join(dir, "nope.json"))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrMissingKey)
}

func TestLoadEnvironmentOverridesFile(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "config.yaml")
	writeFile(t, path, "vimango:\n  main_db: /file/main.db\n  fts_db: /file/fts.db\nlog:\n  level: warn\n")

	t.Setenv("VIMANGO_MAIN_DB", "/env/main.db")
	t.Setenv("VIMANGO_PORT", "9000")
	t.Setenv("VIMANGO_LOG_LEVEL", "debug")
	t.Setenv("VIMANGO_SEARCH_DEFAULT_LIMIT", "7")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/env/main.db", cfg.Vimango.MainDB)
	assert.Equal(t, "/file/fts.db", cfg.Vimango.FTSDB)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 7, cfg.Search.DefaultLimit)
}

func TestLoadSearchesDefaultPaths(t *testing.T) {
	dir := isolate(t)
	writeFile(t, filepath.Join(dir, ".config", "vimango-mcp", "config.json"),
		`{"vimango": {"main_db": "~/vimango/main.db", "fts_db": "~/vimango/fts.db"}}`)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, ".config", "vimango-mcp", "config.json"), cfg.Path)
	assert.Equal(t, filepath.Join(dir, "vimango", "main.db"), cfg.Vimango.MainDB)
	assert.Equal(t, filepath.Join(dir, "vimango", "fts.db"), cfg.Vimango.FTSDB)
}

func TestLoadWithoutFileUsesEnvironment(t *testing.T) {
	isolate(t)
	t.Setenv("VIMANGO_MAIN_DB", "/env/main.db")
	t.Setenv("VIMANGO_FTS_DB", "/env/fts.db")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Empty(t, cfg.Path)
	assert.Equal(t, "/env/main.db", cfg.Vimango.MainDB)
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg := Default()
	cfg.Vimango.MainDB = "a"
	cfg.Vimango.FTSDB = "b"
	require.NoError(t, cfg.Validate())

	cfg.Log.Level = "loud"
	assert.Error(t, cfg.Validate())

	cfg.Log.Level = "info"
	cfg.Search.DefaultLimit = 60
	assert.Error(t, cfg.Validate())
}

func TestStoreConfig(t *testing.T) {
	cfg := Default()
	cfg.Vimango.MainDB = "main.db"
	cfg.Vimango.FTSDB = "fts.db"
	cfg.Vimango.BusyTimeoutMS = 750
	cfg.Search.DefaultLimit = 3

	sc := cfg.StoreConfig()
	assert.Equal(t, "main.db", sc.MainDB)
	assert.Equal(t, "fts.db", sc.IndexDB)
	assert.Equal(t, 750*time.Millisecond, sc.BusyTimeout)
	assert.Equal(t, 3, sc.DefaultSearchLimit)
	assert.Equal(t, 50, sc.MaxSearchResults)
}

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]slog.Level{
		"debug": slog.LevelDebug, "": slog.LevelInfo, "WARN": slog.LevelWarn, "error": slog.LevelError,
	} {
		got, err := ParseLevel(in)
		require.NoError(t, err)
		assert.Equal(t, want, got, in)
	}
}

func TestWriteDefaultRoundTripsAndRefusesOverwrite(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "nested", "config.yaml")

	cfg := Default()
	cfg.Vimango.MainDB = "/data/vimango.db"
	cfg.Vimango.FTSDB = "/data/fts5_vimango.db"
	require.NoError(t, WriteDefault(path, cfg, false))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Vimango, loaded.Vimango)
	assert.Equal(t, cfg.Search, loaded.Search)

	err = WriteDefault(path, nil, false)
	require.ErrorIs(t, err, ErrExists)
	require.NoError(t, WriteDefault(path, nil, true))
}

func TestUserConfigPath(t *testing.T) {
	dir := isolate(t)
	assert.Equal(t, filepath.Join(dir, ".config", "vimango-mcp", "config.yaml"), UserConfigPath())
}
