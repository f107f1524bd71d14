package ingest

import (
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// Columns of the interchange CSV. Only url is required; the header row may
// list the others in any order.
var columns = []string{
	"type", "access_time", "modified_time", "url", "filename", "directory",
	"http_headers", "title", "deleted", "content_type",
	"browser_name", "browser_version", "browser_source",
}

var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
}

// ReadCSV reads rows of the interchange CSV. Timestamps without a zone are
// read as UTC.
func ReadCSV(r io.Reader) ([]Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("read header: empty input")
		}
		return nil, fmt.Errorf("read header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.ToLower(strings.TrimSpace(name))] = i
	}
	if _, ok := index["url"]; !ok {
		return nil, fmt.Errorf("read header: missing url column")
	}
	for name := range index {
		if !known(name) {
			return nil, fmt.Errorf("read header: unknown column %q", name)
		}
	}

	var rows []Row
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read line %d: %w", line, err)
		}
		get := func(name string) string {
			i, ok := index[name]
			if !ok || i >= len(rec) {
				return ""
			}
			return strings.TrimSpace(rec[i])
		}

		row := Row{
			Type:           get("type"),
			URL:            get("url"),
			Filename:       get("filename"),
			Directory:      get("directory"),
			HTTPHeaders:    get("http_headers"),
			Title:          get("title"),
			ContentType:    get("content_type"),
			BrowserName:    get("browser_name"),
			BrowserVersion: get("browser_version"),
			BrowserSource:  get("browser_source"),
		}
		if row.AccessTime, err = parseTime(get("access_time")); err != nil {
			return nil, fmt.Errorf("line %d access_time: %w", line, err)
		}
		if row.ModifiedTime, err = parseTime(get("modified_time")); err != nil {
			return nil, fmt.Errorf("line %d modified_time: %w", line, err)
		}
		if row.Deleted, err = parseBool(get("deleted")); err != nil {
			return nil, fmt.Errorf("line %d deleted: %w", line, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func known(name string) bool {
	for _, c := range columns {
		if c == name {
			return true
		}
	}
	return false
}

func parseTime(s string) (sql.NullTime, error) {
	if s == "" {
		return sql.NullTime{}, nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return sql.NullTime{Time: t, Valid: true}, nil
		}
	}
	return sql.NullTime{}, fmt.Errorf("unrecognised timestamp %q", s)
}

func parseBool(s string) (sql.NullBool, error) {
	if s == "" {
		return sql.NullBool{}, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return sql.NullBool{}, fmt.Errorf("%q is not true or false", s)
	}
	return sql.NullBool{Bool: b, Valid: true}, nil
}
