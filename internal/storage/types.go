package storage

import (
	"time"

	"github.com/runnerr0/trailscope/internal/model"
)

// GroupSummary describes an imported group with its entry count and the
// access range it covers.
type GroupSummary struct {
	model.Group
	Entries int64
	First   time.Time
	Last    time.Time
}

// ImportResult reports what ImportGroup stored.
type ImportResult struct {
	Group    model.Group
	Entries  int64
	Browsers int64
	Terms    int64
}

// Stats holds aggregate statistics about the case database.
type Stats struct {
	CaseName          string
	Groups            int64
	TotalEntries      int64
	ValidEntries      int64
	Browsers          int64
	SearchTerms       int64
	Filters           int64
	OldestEntry       time.Time
	NewestEntry       time.Time
	DatabaseSizeBytes int64
	TopDomains        []DomainCount
}

// DomainCount pairs a domain with its entry count.
type DomainCount struct {
	Domain string
	Count  int64
}
