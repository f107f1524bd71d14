package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/runnerr0/trailscope/internal/storage"
)

// statusJSON is the JSON output structure for the status command.
type statusJSON struct {
	Version           string            `json:"version"`
	Case              string            `json:"case,omitempty"`
	DatabasePath      string            `json:"database_path"`
	DatabaseSizeBytes int64             `json:"database_size_bytes"`
	SchemaVersion     int               `json:"schema_version"`
	Groups            int64             `json:"groups"`
	Entries           int64             `json:"entries"`
	Browsers          int64             `json:"browsers"`
	SearchTerms       int64             `json:"search_terms"`
	Filters           int64             `json:"filters"`
	OldestEntry       string            `json:"oldest_entry,omitempty"`
	NewestEntry       string            `json:"newest_entry,omitempty"`
	TopDomains        []domainCountJSON `json:"top_domains"`
}

type domainCountJSON struct {
	Domain string `json:"domain"`
	Count  int64  `json:"count"`
}

// Execute implements the go-flags Commander interface for StatusCommand.
func (c *StatusCommand) Execute(args []string) error {
	return withSession(c.globals, c.executeWithSession)
}

// executeWithSession runs status against a provided session (for testing).
func (c *StatusCommand) executeWithSession(s *session) error {
	ctx := context.Background()

	stats, err := s.store.GetStats(ctx)
	if err != nil {
		return fmt.Errorf("get stats: %w", err)
	}

	schema, err := s.runner.Current(ctx)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	dbSize := stats.DatabaseSizeBytes
	if info, err := os.Stat(s.dbPath); err == nil {
		dbSize = info.Size()
	}

	if jsonOutput(c.globals) {
		return c.printStatusJSON(stats, s.dbPath, dbSize, schema)
	}
	return c.printStatusHuman(stats, s.dbPath, dbSize, schema)
}

func (c *StatusCommand) printStatusHuman(stats *storage.Stats, dbPath string, dbSize int64, schema int) error {
	fmt.Println("Trailscope Status")
	fmt.Println("=================")
	fmt.Printf("Version:       %s\n", c.version)
	if stats.CaseName != "" {
		fmt.Printf("Case:          %s\n", stats.CaseName)
	} else {
		fmt.Println("Case:          none (created on first import)")
	}
	fmt.Printf("Database:      %s (%s)\n", dbPath, humanize.Bytes(uint64(dbSize)))
	fmt.Printf("Schema:        v%d\n", schema)
	fmt.Printf("Groups:        %s\n", humanize.Comma(stats.Groups))
	fmt.Printf("Entries:       %s\n", humanize.Comma(stats.TotalEntries))
	fmt.Printf("Browsers:      %s\n", humanize.Comma(stats.Browsers))
	fmt.Printf("Search terms:  %s\n", humanize.Comma(stats.SearchTerms))
	fmt.Printf("Filters:       %s\n", humanize.Comma(stats.Filters))

	if stats.ValidEntries > 0 {
		fmt.Printf("Oldest:        %s\n", stats.OldestEntry.Format("2006-01-02 15:04"))
		fmt.Printf("Newest:        %s (%s)\n", stats.NewestEntry.Format("2006-01-02 15:04"), humanize.Time(stats.NewestEntry))
	}

	if len(stats.TopDomains) > 0 {
		fmt.Println()
		fmt.Println("Top Domains:")
		for _, d := range stats.TopDomains {
			fmt.Printf("  %-24s %s\n", d.Domain, humanize.Comma(d.Count))
		}
	}

	return nil
}

func (c *StatusCommand) printStatusJSON(stats *storage.Stats, dbPath string, dbSize int64, schema int) error {
	out := statusJSON{
		Version:           c.version,
		Case:              stats.CaseName,
		DatabasePath:      dbPath,
		DatabaseSizeBytes: dbSize,
		SchemaVersion:     schema,
		Groups:            stats.Groups,
		Entries:           stats.TotalEntries,
		Browsers:          stats.Browsers,
		SearchTerms:       stats.SearchTerms,
		Filters:           stats.Filters,
		TopDomains:        make([]domainCountJSON, len(stats.TopDomains)),
	}

	if stats.ValidEntries > 0 {
		out.OldestEntry = stats.OldestEntry.Format(time.RFC3339)
		out.NewestEntry = stats.NewestEntry.Format(time.RFC3339)
	}

	for i, d := range stats.TopDomains {
		out.TopDomains[i] = domainCountJSON{Domain: d.Domain, Count: d.Count}
	}

	return printJSON(out)
}
