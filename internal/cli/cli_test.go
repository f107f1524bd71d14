package cli

import (
	"bytes"
	"os"
	"strings"
	"testing"
	"time"

	goflags "github.com/jessevdk/go-flags"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runnerr0/trailscope/internal/filter"
)

func TestVersionFlag(t *testing.T) {
	old := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	err := RunWithArgs("0.1.0-test", []string{"--version"})

	w.Close()
	os.Stdout = old

	var buf bytes.Buffer
	buf.ReadFrom(r)
	output := buf.String()

	assert.NoError(t, err)
	assert.Contains(t, output, "trailscope 0.1.0-test")
}

func TestVersionOutputFormat(t *testing.T) {
	output := captureOutput(t, func() {
		_ = RunWithArgs("1.2.3", []string{"--version"})
	})
	assert.Equal(t, "trailscope 1.2.3", strings.TrimSpace(output))
}

// parseOnly builds the parser without executing the matched command.
func parseOnly(t *testing.T, args ...string) (*GlobalFlags, *commands, error) {
	t.Helper()
	parser, globals, cmds := buildParser("test")
	parser.Options &^= goflags.PrintErrors
	parser.CommandHandler = func(goflags.Commander, []string) error { return nil }
	_, err := parser.ParseArgs(args)
	return globals, cmds, err
}

func TestSubcommandsRecognized(t *testing.T) {
	for _, args := range [][]string{
		{"status"},
		{"import", "history.csv"},
		{"groups"},
		{"filter-add", "--label", "g", "--where", "url.domain is google.com"},
		{"filters"},
		{"filter-delete", "g"},
		{"lists"},
		{"plot"},
		{"overview"},
		{"domains"},
		{"searches"},
		{"files"},
		{"recompute-domains"},
		{"purge", "--all", "--force"},
	} {
		t.Run(args[0], func(t *testing.T) {
			_, _, err := parseOnly(t, args...)
			assert.NoError(t, err)
		})
	}
}

func TestUnknownSubcommand(t *testing.T) {
	_, _, err := parseOnly(t, "bogus")
	assert.Error(t, err)
}

func TestGlobalFlagsParsed(t *testing.T) {
	globals, _, err := parseOnly(t,
		"--config", "/tmp/c.yaml", "--db", "/tmp/case.db", "--json", "--verbose",
		"--metrics-file", "/tmp/m.prom", "status")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/c.yaml", globals.Config)
	assert.Equal(t, "/tmp/case.db", globals.DB)
	assert.True(t, globals.JSON)
	assert.True(t, globals.Verbose)
	assert.Equal(t, "/tmp/m.prom", globals.MetricsFile)
}

func TestPlotFlagsParsed(t *testing.T) {
	_, cmds, err := parseOnly(t, "plot",
		"--remove", "work", "--highlight", "news", "--highlight", "search",
		"--from-date", "2024-03-01", "--to-time", "17:30", "--dedup", "1m")
	require.NoError(t, err)
	assert.Equal(t, []string{"work"}, cmds.Plot.Remove)
	assert.Equal(t, []string{"news", "search"}, cmds.Plot.Highlight)
	assert.Equal(t, "2024-03-01", cmds.Plot.FromDate)
	assert.Equal(t, "17:30", cmds.Plot.ToTime)
	assert.Equal(t, "1m", cmds.Plot.Dedup)
}

func TestFilterAddRequiresLabelAndWhere(t *testing.T) {
	_, _, err := parseOnly(t, "filter-add", "--where", "url.domain is google.com")
	assert.Error(t, err)

	_, _, err = parseOnly(t, "filter-add", "--label", "g")
	assert.Error(t, err)
}

func TestImportRequiresFile(t *testing.T) {
	_, _, err := parseOnly(t, "import")
	assert.Error(t, err)
}

func TestParseElement(t *testing.T) {
	tests := []struct {
		in   string
		want filter.Element
	}{
		{"url.domain is google.com", filter.Where(filter.ClassURL, filter.AttrDomain, filter.OpIs, "google.com")},
		{"entry.title contains  global  warming ", filter.Where(filter.ClassEntry, filter.AttrTitle, filter.OpContains, "global  warming")},
		{"url.hostname in_list work-hosts.txt", filter.WhereList(filter.ClassURL, filter.AttrHostname, filter.OpInList, "work-hosts.txt")},
		{"search_term.term is warming", filter.Where(filter.ClassSearchTerm, filter.AttrTerm, filter.OpIs, "warming")},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseElement(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseElement_Malformed(t *testing.T) {
	for _, in := range []string{"", "url.domain", "domain is x", ".domain is x"} {
		_, err := parseElement(in)
		assert.Error(t, err, "input %q", in)
	}
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
	}{
		{"30s", 30 * time.Second},
		{"5m", 5 * time.Minute},
		{"2h", 2 * time.Hour},
		{"1d", 24 * time.Hour},
		{"2w", 14 * 24 * time.Hour},
		{"1h30m", 90 * time.Minute},
	}
	for _, tt := range tests {
		got, err := parseDuration(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	for _, bad := range []string{"", "d", "abc", "5x"} {
		_, err := parseDuration(bad)
		assert.Error(t, err, bad)
	}
}

func TestLimit(t *testing.T) {
	assert.Equal(t, 20, limit(0, 20))
	assert.Equal(t, 5, limit(5, 20))
	assert.Equal(t, 0, limit(-1, 20), "negative means all")
}

func TestClockText(t *testing.T) {
	assert.Equal(t, "09:15:00", hourText(9.25))
	assert.Equal(t, "23:59:59", clockText(24*time.Hour-time.Second))
}
