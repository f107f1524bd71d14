package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ilyakaznacheev/cleanenv"
	"gopkg.in/yaml.v3"
)

// Default config file path.
const DefaultConfigPath = "~/.config/trailscope/config.yaml"

// Config holds all trailscope configuration. It is loaded once at startup
// and passed explicitly to the components that need it.
type Config struct {
	Case     CaseConfig     `yaml:"case"`
	Storage  StorageConfig  `yaml:"storage"`
	Lists    ListsConfig    `yaml:"lists"`
	Ingest   IngestConfig   `yaml:"ingest"`
	Analysis AnalysisConfig `yaml:"analysis"`
	Files    FilesConfig    `yaml:"files"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type CaseConfig struct {
	Name string `yaml:"name" env:"TRAILSCOPE_CASE_NAME"`
}

type StorageConfig struct {
	Path       string `yaml:"path" env:"TRAILSCOPE_STORAGE_PATH"`
	SQLiteFile string `yaml:"sqlite_file" env:"TRAILSCOPE_SQLITE_FILE"`
}

// ListsConfig locates the named value lists used by the "is in list"
// operators. Each file holds one literal per line.
type ListsConfig struct {
	Dir string `yaml:"dir" env:"TRAILSCOPE_LISTS_DIR"`
}

// SearchEngine describes how search phrases are pulled out of an engine's
// result URLs. Key is matched against the URL's network location.
type SearchEngine struct {
	Key   string `yaml:"key"`
	Param string `yaml:"param"`
	Name  string `yaml:"name"`
}

type IngestConfig struct {
	SearchEngines     []SearchEngine `yaml:"search_engines"`
	StopWords         []string       `yaml:"stop_words"`
	TopLevelDomains   []string       `yaml:"top_level_domains"`
	NonNetworkSchemes []string       `yaml:"non_network_schemes"`
}

type AnalysisConfig struct {
	HeatmapStepHours int `yaml:"heatmap_step_hours" env:"TRAILSCOPE_HEATMAP_STEP"`
	DomainLimit      int `yaml:"domain_limit"`
	SearchLimit      int `yaml:"search_limit"`
}

type FilesConfig struct {
	Categories map[string]string `yaml:"categories"`
}

type LoggingConfig struct {
	Level string `yaml:"level" env:"TRAILSCOPE_LOG_LEVEL"`
	File  string `yaml:"file" env:"TRAILSCOPE_LOG_FILE"`
	JSON  bool   `yaml:"json"`
}

// Load reads a YAML config file at path, merges it with defaults and then
// applies environment overrides. Returns an error if the file cannot be read
// or contains invalid YAML.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("reading environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the values the analysis layer cannot work around.
func (c *Config) Validate() error {
	step := c.Analysis.HeatmapStepHours
	if step <= 0 || step > 24 || 24%step != 0 {
		return fmt.Errorf("analysis.heatmap_step_hours must divide 24, got %d", step)
	}
	for i, e := range c.Ingest.SearchEngines {
		if e.Key == "" || e.Param == "" {
			return fmt.Errorf("ingest.search_engines[%d]: key and param are required", i)
		}
	}
	return nil
}

// DBPath returns the expanded path of the SQLite record store.
func (c *Config) DBPath() (string, error) {
	dir, err := ExpandPath(c.Storage.Path)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, c.Storage.SQLiteFile), nil
}

// ListsDir returns the expanded value-list directory.
func (c *Config) ListsDir() (string, error) {
	return ExpandPath(c.Lists.Dir)
}

// ExpandPath replaces a leading ~ with the user's home directory.
func ExpandPath(path string) (string, error) {
	if len(path) > 0 && path[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolving home directory: %w", err)
		}
		return filepath.Join(home, path[1:]), nil
	}
	return path, nil
}

// LoadOrCreate loads the config from the default path. If the file does
// not exist, it creates the directory structure and writes defaults.
func LoadOrCreate() (*Config, error) {
	path, err := ExpandPath(DefaultConfigPath)
	if err != nil {
		return nil, err
	}
	return LoadOrCreateAt(path)
}

// LoadOrCreateAt loads the config from the given path. If the file does
// not exist, it creates the directory structure and writes defaults.
func LoadOrCreateAt(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := DefaultConfig()

		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating config directory: %w", err)
		}

		data, err := yaml.Marshal(cfg)
		if err != nil {
			return nil, fmt.Errorf("marshaling default config: %w", err)
		}

		if err := os.WriteFile(path, data, 0644); err != nil {
			return nil, fmt.Errorf("writing default config: %w", err)
		}

		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("reading environment: %w", err)
		}
		return cfg, nil
	}

	return Load(path)
}
