package cli

import (
	"bytes"
	"database/sql"
	"io"
	"os"
	"strings"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"

	"github.com/runnerr0/trailscope/internal/config"
)

// captureOutput captures stdout during fn execution and returns it as a string.
func captureOutput(t *testing.T, fn func()) string {
	t.Helper()
	old := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = w

	fn()

	w.Close()
	os.Stdout = old

	var buf bytes.Buffer
	_, _ = io.Copy(&buf, r)
	return buf.String()
}

// newTestSession returns a session over a migrated in-memory database with
// the default config and an empty lists directory.
func newTestSession(t *testing.T) *session {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:?_foreign_keys=on")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)

	cfg := config.DefaultConfig()
	cfg.Lists.Dir = t.TempDir()

	s, err := newSession(cfg, db, nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.close() })
	return s
}

const fixtureCSV = `url,access_time,title,browser_name,browser_version,browser_source,type
https://www.google.com/search?q=global+warming,2024-03-01 09:15:00,global warming - Google Search,Firefox,,places.sqlite,URL
http://news.example.org/a,2024-03-01 14:00:00,News,Firefox,,places.sqlite,URL
https://www.google.com/search?q=warming+ice,2024-03-02 10:00:00,,Chrome,120,,URL
file:///C:/Users/ann/report.pdf,2024-03-02 11:00:00,,Internet Explorer,8,index.dat,File
http://no-time.example.com/,,,Chrome,120,,URL
`

// importFixture imports fixtureCSV as group "laptop" without printing.
func importFixture(t *testing.T, s *session) {
	t.Helper()
	cmd := &ImportCommand{Name: "laptop", CaseName: "Case 7", globals: &GlobalFlags{}}
	captureOutput(t, func() {
		require.NoError(t, cmd.executeWithSession(s, strings.NewReader(fixtureCSV), "laptop.csv"))
	})
}

// saveFilter stores a filter through the filter-add command.
func saveFilter(t *testing.T, s *session, label string, where ...string) {
	t.Helper()
	cmd := &FilterAddCommand{Label: label, Where: where, globals: &GlobalFlags{}}
	captureOutput(t, func() {
		require.NoError(t, cmd.executeWithSession(s))
	})
}
