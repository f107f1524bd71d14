package cli

import "io"

// GlobalFlags holds flags available to all subcommands.
type GlobalFlags struct {
	Config      string `long:"config" description:"Path to config file" default:""`
	DB          string `long:"db" description:"Path to the case database (overrides config)"`
	JSON        bool   `long:"json" description:"Output in JSON format"`
	Verbose     bool   `long:"verbose" description:"Enable debug logging"`
	Version     bool   `long:"version" description:"Show version and exit"`
	MetricsFile string `long:"metrics-file" description:"Write Prometheus metrics to this file on exit"`
}

// StatusCommand shows the case, database statistics and schema version.
type StatusCommand struct {
	globals *GlobalFlags
	version string
}

// ImportCommand loads a normalized history CSV as a new group.
type ImportCommand struct {
	Name        string `long:"name" description:"Group name (defaults to the file name)"`
	Description string `long:"description" description:"Group description"`
	Program     string `long:"program" description:"Program that produced the source file"`
	CaseName    string `long:"case-name" description:"Case name used when the case does not exist yet"`
	Args        struct {
		File string `positional-arg-name:"FILE" description:"CSV file to import"`
	} `positional-args:"yes" required:"yes"`

	globals *GlobalFlags
	version string
}

// GroupsCommand lists imported groups or deletes one.
type GroupsCommand struct {
	Delete int64 `long:"delete" description:"ID of the group to delete"`

	globals *GlobalFlags
	version string
}

// FilterAddCommand saves a named filter.
type FilterAddCommand struct {
	Label string   `long:"label" description:"Unique filter label" required:"yes"`
	Text  string   `long:"text" description:"Display text (defaults to the label)"`
	Color string   `long:"color" description:"Marker colour as #RRGGBB"`
	Where []string `long:"where" description:"Element as 'class.attribute operator value' (repeatable)" required:"yes"`

	globals *GlobalFlags
	version string
}

// FiltersCommand lists saved filters.
type FiltersCommand struct {
	globals *GlobalFlags
	version string
}

// FilterDeleteCommand removes a saved filter.
type FilterDeleteCommand struct {
	Args struct {
		Label string `positional-arg-name:"LABEL" description:"Filter label"`
	} `positional-args:"yes" required:"yes"`

	globals *GlobalFlags
	version string
}

// ListsCommand shows the value lists available to list operators.
type ListsCommand struct {
	globals *GlobalFlags
	version string
}

// PlotCommand computes the timeline series.
type PlotCommand struct {
	Remove    []string `long:"remove" description:"Label of a filter whose matches are removed (repeatable)"`
	Highlight []string `long:"highlight" description:"Label of a filter whose matches are highlighted (repeatable)"`
	FromDate  string   `long:"from-date" description:"First day, YYYY-MM-DD"`
	ToDate    string   `long:"to-date" description:"Last day, YYYY-MM-DD"`
	FromTime  string   `long:"from-time" description:"Earliest time of day, HH:MM[:SS]"`
	ToTime    string   `long:"to-time" description:"Latest time of day, HH:MM[:SS]"`
	Dedup     string   `long:"dedup" description:"Drop points closer than this to the previous point of the same day (e.g. 30s, 5m, 1d)"`
	Points    bool     `long:"points" description:"List every point instead of the bucket summary"`

	globals *GlobalFlags
	version string
}

// OverviewCommand shows the case summary.
type OverviewCommand struct {
	globals *GlobalFlags
	version string
}

// DomainsCommand ranks the visited domains.
type DomainsCommand struct {
	Remove    []string `long:"remove" description:"Label of a filter whose matches are removed (repeatable)"`
	Highlight []string `long:"highlight" description:"Label of a filter whose matches are highlighted (repeatable)"`
	Limit     int      `long:"limit" description:"Maximum domains (0 for the configured default, -1 for all)"`

	globals *GlobalFlags
	version string
}

// SearchesCommand shows the search clouds per engine.
type SearchesCommand struct {
	Remove    []string `long:"remove" description:"Label of a filter whose matches are removed (repeatable)"`
	Highlight []string `long:"highlight" description:"Label of a filter whose matches are highlighted (repeatable)"`
	Limit     int      `long:"limit" description:"Maximum terms per engine (0 for the configured default, -1 for all)"`

	globals *GlobalFlags
	version string
}

// FilesCommand shows the local file-access tree.
type FilesCommand struct {
	globals *GlobalFlags
	version string
}

// RecomputeDomainsCommand re-derives stored domains from the current
// top-level domain table.
type RecomputeDomainsCommand struct {
	globals *GlobalFlags
	version string
}

// PurgeCommand deletes ALL case data with safety confirmation.
type PurgeCommand struct {
	All   bool `long:"all" description:"Required flag to confirm purge intent"`
	Force bool `long:"force" description:"Skip safety confirmation prompt"`

	globals *GlobalFlags
	version string
	in      io.Reader // injectable for testing; nil means os.Stdin
}
