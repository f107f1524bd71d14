// Package ingest turns normalized converter rows into the entry, URL,
// browser and search-term values the store persists.
package ingest

import (
	"database/sql"
	"time"

	"go.uber.org/zap"

	"github.com/runnerr0/trailscope/internal/config"
	"github.com/runnerr0/trailscope/internal/model"
	"github.com/runnerr0/trailscope/internal/searchterms"
	"github.com/runnerr0/trailscope/internal/urlnorm"
)

// Row is one record as produced by a format converter.
type Row struct {
	Type           string
	AccessTime     sql.NullTime
	ModifiedTime   sql.NullTime
	URL            string
	Filename       string
	Directory      string
	HTTPHeaders    string
	Title          string
	Deleted        sql.NullBool
	ContentType    string
	BrowserName    string
	BrowserVersion string
	BrowserSource  string
}

// Prepared is a row ready to store. Search is nil when the URL is not a
// recognised search result page.
type Prepared struct {
	Entry   model.Entry
	URL     model.URL
	Browser model.Browser
	Search  *searchterms.Match
}

// Summary counts what a batch preparation did.
type Summary struct {
	Read     int
	Skipped  int
	Searches int
	Terms    *searchterms.Tally
}

// Pipeline prepares rows for storage. It holds no per-batch state and is
// safe for concurrent use.
type Pipeline struct {
	urls   *urlnorm.Normalizer
	search *searchterms.Extractor
	logger *zap.Logger
}

// NewPipeline returns a Pipeline using the given normalizer and extractor.
func NewPipeline(urls *urlnorm.Normalizer, search *searchterms.Extractor, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{urls: urls, search: search, logger: logger}
}

// FromConfig builds a Pipeline from the ingest configuration.
func FromConfig(cfg config.IngestConfig, logger *zap.Logger) *Pipeline {
	return NewPipeline(urlnorm.FromConfig(cfg), searchterms.FromConfig(cfg), logger)
}

// Prepare converts row. Rows without an access time are not stored and
// return false.
func (p *Pipeline) Prepare(row Row) (Prepared, bool) {
	if !row.AccessTime.Valid {
		return Prepared{}, false
	}

	out := Prepared{
		Entry: model.Entry{
			Type:         nullString(row.Type),
			AccessTime:   sql.NullTime{Time: row.AccessTime.Time.Truncate(time.Second), Valid: true},
			ModifiedTime: truncate(row.ModifiedTime),
			URL:          row.URL,
			Filename:     nullString(row.Filename),
			Directory:    nullString(row.Directory),
			HTTPHeaders:  nullString(row.HTTPHeaders),
			Title:        nullString(row.Title),
			Deleted:      row.Deleted,
			ContentType:  nullString(row.ContentType),
		},
		URL: p.urls.Normalize(row.URL),
		Browser: model.Browser{
			Name:    row.BrowserName,
			Version: nullString(row.BrowserVersion),
			Source:  nullString(row.BrowserSource),
		},
	}

	if m, ok := p.search.Detect(out.URL); ok {
		out.URL.Search = sql.NullString{String: m.Query, Valid: true}
		out.Search = &m
	}
	return out, true
}

// PrepareAll prepares a batch, logging and counting the rows it skips.
func (p *Pipeline) PrepareAll(rows []Row) ([]Prepared, Summary) {
	sum := Summary{Read: len(rows), Terms: searchterms.NewTally()}
	out := make([]Prepared, 0, len(rows))
	for i, row := range rows {
		prep, ok := p.Prepare(row)
		if !ok {
			sum.Skipped++
			p.logger.Debug("Row skipped without access time",
				zap.Int("row", i+1),
				zap.String("url", row.URL))
			continue
		}
		if prep.Search != nil {
			sum.Searches++
			sum.Terms.Add(prep.Search.Engine.Key, prep.Search.Terms)
		}
		out = append(out, prep)
	}
	p.logger.Info("Rows prepared",
		zap.Int("read", sum.Read),
		zap.Int("skipped", sum.Skipped),
		zap.Int("searches", sum.Searches))
	return out, sum
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func truncate(t sql.NullTime) sql.NullTime {
	if !t.Valid {
		return t
	}
	return sql.NullTime{Time: t.Time.Truncate(time.Second), Valid: true}
}
