package config

// DefaultConfig returns a Config populated with all default values.
func DefaultConfig() *Config {
	return &Config{
		Case: CaseConfig{
			Name: "Untitled case",
		},
		Storage: StorageConfig{
			Path:       "~/.config/trailscope",
			SQLiteFile: "case.db",
		},
		Lists: ListsConfig{
			Dir: "~/.config/trailscope/lists",
		},
		Ingest: IngestConfig{
			SearchEngines:     DefaultSearchEngines(),
			StopWords:         DefaultStopWords(),
			TopLevelDomains:   DefaultTopLevelDomains(),
			NonNetworkSchemes: []string{"res", "ms-help"},
		},
		Analysis: AnalysisConfig{
			HeatmapStepHours: 1,
			DomainLimit:      20,
			SearchLimit:      20,
		},
		Files: FilesConfig{
			Categories: DefaultFileCategories(),
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  "",
			JSON:  false,
		},
	}
}
