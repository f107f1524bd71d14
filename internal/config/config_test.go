package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "Untitled case", cfg.Case.Name)
	assert.Equal(t, "~/.config/trailscope", cfg.Storage.Path)
	assert.Equal(t, "case.db", cfg.Storage.SQLiteFile)
	assert.Equal(t, "~/.config/trailscope/lists", cfg.Lists.Dir)
	assert.Equal(t, []string{"res", "ms-help"}, cfg.Ingest.NonNetworkSchemes)
	assert.Equal(t, 1, cfg.Analysis.HeatmapStepHours)
	assert.Equal(t, 20, cfg.Analysis.DomainLimit)
	assert.Equal(t, 20, cfg.Analysis.SearchLimit)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Empty(t, cfg.Logging.File)
	assert.NoError(t, cfg.Validate())
}

func TestDefaultTablesArePopulated(t *testing.T) {
	assert.Contains(t, DefaultTopLevelDomains(), "com")
	assert.Contains(t, DefaultTopLevelDomains(), "museum")
	assert.Contains(t, DefaultStopWords(), "the")
	assert.Equal(t, "image", DefaultFileCategories()["png"])
	assert.Equal(t, "programming file", DefaultFileCategories()["java"])

	engines := DefaultSearchEngines()
	require.NotEmpty(t, engines)
	assert.Equal(t, "google", engines[0].Key)
	assert.Equal(t, "q", engines[0].Param)
}

func TestLoadValidYAMLOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")

	yamlContent := `
case:
  name: "Operation Lantern"
analysis:
  heatmap_step_hours: 2
  domain_limit: 50
ingest:
  search_engines:
    - key: "baidu"
      param: "wd"
      name: "Baidu"
logging:
  level: "debug"
`
	err := os.WriteFile(cfgPath, []byte(yamlContent), 0644)
	require.NoError(t, err)

	cfg, err := Load(cfgPath)
	require.NoError(t, err)

	// Overridden values
	assert.Equal(t, "Operation Lantern", cfg.Case.Name)
	assert.Equal(t, 2, cfg.Analysis.HeatmapStepHours)
	assert.Equal(t, 50, cfg.Analysis.DomainLimit)
	assert.Equal(t, []SearchEngine{{Key: "baidu", Param: "wd", Name: "Baidu"}}, cfg.Ingest.SearchEngines)
	assert.Equal(t, "debug", cfg.Logging.Level)

	// Non-overridden values remain defaults
	assert.Equal(t, 20, cfg.Analysis.SearchLimit)
	assert.Equal(t, "case.db", cfg.Storage.SQLiteFile)
	assert.Contains(t, cfg.Ingest.StopWords, "and")
}

func TestLoadEnvironmentOverridesFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("logging:\n  level: \"warn\"\n"), 0644))

	t.Setenv("TRAILSCOPE_LOG_LEVEL", "error")
	t.Setenv("TRAILSCOPE_LISTS_DIR", "/srv/lists")

	cfg, err := Load(cfgPath)
	require.NoError(t, err)
	assert.Equal(t, "error", cfg.Logging.Level)
	assert.Equal(t, "/srv/lists", cfg.Lists.Dir)
}

func TestLoadRejectsBadHeatmapStep(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("analysis:\n  heatmap_step_hours: 5\n"), 0644))

	_, err := Load(cfgPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "heatmap_step_hours")
}

func TestLoadRejectsIncompleteSearchEngine(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	yamlContent := `
ingest:
  search_engines:
    - key: "google"
`
	require.NoError(t, os.WriteFile(cfgPath, []byte(yamlContent), 0644))

	_, err := Load(cfgPath)
	assert.Error(t, err)
}

func TestLoadInvalidYAMLReturnsError(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")

	err := os.WriteFile(cfgPath, []byte(":::not valid yaml{{{"), 0644)
	require.NoError(t, err)

	_, err = Load(cfgPath)
	assert.Error(t, err)
}

func TestLoadNonExistentFileReturnsError(t *testing.T) {
	_, err := Load("/tmp/nonexistent_path_12345/config.yaml")
	assert.Error(t, err)
}

func TestLoadOrCreateCreatesDefaultsWhenMissing(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "sub", "deep", "config.yaml")

	cfg, err := LoadOrCreateAt(cfgPath)
	require.NoError(t, err)

	assert.Equal(t, 1, cfg.Analysis.HeatmapStepHours)
	assert.Equal(t, "case.db", cfg.Storage.SQLiteFile)

	// File should now exist on disk
	_, statErr := os.Stat(cfgPath)
	assert.NoError(t, statErr)

	// File should be valid YAML loadable again
	cfg2, err := Load(cfgPath)
	require.NoError(t, err)
	assert.Equal(t, cfg.Analysis, cfg2.Analysis)
	assert.Equal(t, cfg.Files.Categories, cfg2.Files.Categories)
}

func TestDBPathExpandsHome(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Storage.Path = "/var/cases"
	p, err := cfg.DBPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/var/cases", "case.db"), p)

	home, err := os.UserHomeDir()
	require.NoError(t, err)
	got, err := ExpandPath("~/lists")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "lists"), got)
}
