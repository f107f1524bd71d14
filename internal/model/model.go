// Package model holds the record types of a case and the joined Bundle view
// the filter evaluator and aggregators read.
package model

import (
	"database/sql"
	"time"

	"github.com/runnerr0/trailscope/internal/filter"
)

// Case is the investigation; there is exactly one per record store.
type Case struct {
	ID      string
	Name    string
	Created time.Time
}

// Group is one imported source file.
type Group struct {
	ID          int64
	Name        string
	Description string
	FileName    string
	Program     string
}

// Entry is one browsing or file-access event. AccessTime is required for
// the entry to take part in any aggregation.
type Entry struct {
	ID           int64
	Type         sql.NullString
	AccessTime   sql.NullTime
	ModifiedTime sql.NullTime
	URL          string
	Filename     sql.NullString
	Directory    sql.NullString
	HTTPHeaders  sql.NullString
	Title        sql.NullString
	Deleted      sql.NullBool
	ContentType  sql.NullString
	GroupID      int64
	BrowserID    int64
}

// URL is the parsed form of an entry's raw URL.
type URL struct {
	EntryID  int64
	Scheme   string
	Netloc   string
	Path     string
	Params   string
	Query    string
	Fragment string
	Username sql.NullString
	Password sql.NullString
	Hostname sql.NullString
	Port     sql.NullInt64
	Domain   sql.NullString
	Search   sql.NullString
}

// Browser is deduplicated on (Name, Version, Source).
type Browser struct {
	ID      int64
	Name    string
	Version sql.NullString
	Source  sql.NullString
}

// SearchTerm is a term or quoted phrase extracted from a search query,
// counted per engine.
type SearchTerm struct {
	ID         int64
	Term       string
	Engine     string
	EngineLong string
	Occurrence int64
}

func text(s sql.NullString) (filter.Value, bool) {
	if !s.Valid {
		return filter.Value{}, false
	}
	return filter.Text(s.String), true
}

// Attribute implements filter.Filterable for the entry class.
func (e *Entry) Attribute(name filter.Attribute) (filter.Value, bool) {
	switch name {
	case filter.AttrType:
		return text(e.Type)
	case filter.AttrAccessDate:
		if e.AccessTime.Valid {
			return filter.Date(e.AccessTime.Time), true
		}
	case filter.AttrAccessTime:
		if e.AccessTime.Valid {
			return filter.TimeOfDay(e.AccessTime.Time), true
		}
	case filter.AttrModifiedDate:
		if e.ModifiedTime.Valid {
			return filter.Date(e.ModifiedTime.Time), true
		}
	case filter.AttrModifiedTime:
		if e.ModifiedTime.Valid {
			return filter.TimeOfDay(e.ModifiedTime.Time), true
		}
	case filter.AttrURL:
		return filter.Text(e.URL), true
	case filter.AttrFilename:
		return text(e.Filename)
	case filter.AttrDirectory:
		return text(e.Directory)
	case filter.AttrHTTPHeaders:
		return text(e.HTTPHeaders)
	case filter.AttrTitle:
		return text(e.Title)
	case filter.AttrDeleted:
		if e.Deleted.Valid {
			return filter.Bool(e.Deleted.Bool), true
		}
	case filter.AttrContentType:
		return text(e.ContentType)
	}
	return filter.Value{}, false
}

// Attribute implements filter.Filterable for URL parts. Null parts are absent.
func (u *URL) Attribute(name filter.Attribute) (filter.Value, bool) {
	switch name {
	case filter.AttrDomain:
		return text(u.Domain)
	case filter.AttrHostname:
		return text(u.Hostname)
	case filter.AttrUsername:
		return text(u.Username)
	case filter.AttrPassword:
		return text(u.Password)
	case filter.AttrPort:
		if u.Port.Valid {
			return filter.Number(u.Port.Int64), true
		}
	case filter.AttrScheme:
		return filter.Text(u.Scheme), true
	case filter.AttrFragment:
		return filter.Text(u.Fragment), true
	case filter.AttrQuery:
		return filter.Text(u.Query), true
	}
	return filter.Value{}, false
}

// Attribute implements filter.Filterable for the browser class.
func (b *Browser) Attribute(name filter.Attribute) (filter.Value, bool) {
	switch name {
	case filter.AttrName:
		return filter.Text(b.Name), true
	case filter.AttrVersion:
		return text(b.Version)
	case filter.AttrSource:
		return text(b.Source)
	}
	return filter.Value{}, false
}

// Attribute implements filter.Filterable for the group class.
func (g *Group) Attribute(name filter.Attribute) (filter.Value, bool) {
	switch name {
	case filter.AttrName:
		return filter.Text(g.Name), true
	case filter.AttrProgram:
		return filter.Text(g.Program), true
	}
	return filter.Value{}, false
}

// Attribute implements filter.Filterable for search terms.
func (t *SearchTerm) Attribute(name filter.Attribute) (filter.Value, bool) {
	switch name {
	case filter.AttrTerm:
		return filter.Text(t.Term), true
	case filter.AttrOccurrence:
		return filter.Number(t.Occurrence), true
	case filter.AttrEngineLong:
		return filter.Text(t.EngineLong), true
	}
	return filter.Value{}, false
}
