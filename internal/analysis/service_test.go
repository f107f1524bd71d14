package analysis

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/runnerr0/trailscope/internal/apperrors"
	"github.com/runnerr0/trailscope/internal/config"
	"github.com/runnerr0/trailscope/internal/filter"
	"github.com/runnerr0/trailscope/internal/metrics"
	"github.com/runnerr0/trailscope/internal/model"
	"github.com/runnerr0/trailscope/internal/timeline"
	"github.com/runnerr0/trailscope/internal/urlnorm"
)

type fakeStore struct {
	snap    *model.Snapshot
	filters map[string]*filter.Filter
	err     error
}

func (f *fakeStore) Snapshot(context.Context) (*model.Snapshot, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.snap, nil
}

func (f *fakeStore) GetFilter(_ context.Context, label string) (*filter.Filter, error) {
	if fl, ok := f.filters[label]; ok {
		return fl, nil
	}
	return nil, apperrors.ErrNotFound
}

func visit(ts, raw, browser string, terms ...*model.SearchTerm) *model.Bundle {
	cfg := config.DefaultConfig().Ingest
	t, err := time.Parse("2006-01-02 15:04:05", ts)
	if err != nil {
		panic(err)
	}
	u := urlnorm.FromConfig(cfg).Normalize(raw)
	if len(terms) > 0 {
		u.Search = sql.NullString{String: "query", Valid: true}
	}
	return &model.Bundle{
		Entry:   &model.Entry{URL: raw, AccessTime: sql.NullTime{Time: t, Valid: true}},
		URL:     &u,
		Browser: &model.Browser{Name: browser},
		Group:   &model.Group{Name: "history", Program: "Pasco"},
		Terms:   terms,
	}
}

func mustFilter(t *testing.T, label string, el filter.Element) *filter.Filter {
	t.Helper()
	q, err := filter.NewQuery(el)
	require.NoError(t, err)
	f, err := filter.NewFilter(label, "", "", q)
	require.NoError(t, err)
	return f
}

type fixture struct {
	svc  *Service
	logs *observer.ObservedLogs
	reg  *prometheus.Registry
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "social"), []byte("facebook.com\n"), 0o644))

	golang := &model.SearchTerm{Term: "golang", Engine: "google", EngineLong: "Google", Occurrence: 2}
	store := &fakeStore{
		snap: &model.Snapshot{
			Case: model.Case{Name: "Test case"},
			Bundles: []*model.Bundle{
				visit("2010-05-03 09:00:00", "http://www.bbc.co.uk/news", "Firefox"),
				visit("2010-05-03 09:30:00", "http://www.facebook.com/", "Firefox"),
				visit("2010-05-04 14:00:00", "http://www.google.com/search?q=golang", "Chrome", golang),
				visit("2010-05-05 14:00:00", "http://www.google.com/search?q=golang", "Firefox", golang),
				visit("2010-05-05 15:00:00", "file:///C:/docs/a.pdf", "Internet Explorer"),
				{Entry: &model.Entry{URL: "http://dropped/"}},
			},
		},
		filters: map[string]*filter.Filter{
			"social": mustFilter(t, "social", filter.WhereList(filter.ClassURL, filter.AttrDomain, filter.OpInList, "social")),
			"google": mustFilter(t, "google", filter.Where(filter.ClassURL, filter.AttrDomain, filter.OpIs, "google.com")),
			"broken": mustFilter(t, "broken", filter.Where(filter.ClassEntry, filter.AttrTitle, filter.OpRegex, "(")),
			"nolist": mustFilter(t, "nolist", filter.WhereList(filter.ClassURL, filter.AttrDomain, filter.OpInList, "gone")),
		},
	}

	core, logs := observer.New(zap.DebugLevel)
	logger := zap.New(core)
	compiler, err := filter.NewCompiler(filter.NewListStore(dir), logger)
	require.NoError(t, err)
	t.Cleanup(compiler.Close)

	reg := prometheus.NewRegistry()
	m, err := metrics.New(reg)
	require.NoError(t, err)

	return fixture{
		svc:  NewService(store, compiler, config.DefaultConfig(), logger, m),
		logs: logs,
		reg:  reg,
	}
}

func TestPlotDefaultWindow(t *testing.T) {
	fx := newFixture(t)

	res, err := fx.svc.Plot(context.Background(), Selection{
		Remove:    []string{"social"},
		Highlight: []string{"google"},
	}, nil, 0)
	require.NoError(t, err)

	assert.Equal(t, "2010-04-01", res.From)
	assert.Equal(t, "2010-06-02", res.To)
	assert.Len(t, res.Series.Removed, 1)
	assert.Len(t, res.Series.Highlighted, 2)
	assert.Len(t, res.Series.Plain, 2)
	assert.Empty(t, res.Failures)
}

func TestPlotExplicitWindow(t *testing.T) {
	fx := newFixture(t)
	w, err := timeline.ParseWindow(timeline.Window{}, "2010-05-04", "2010-05-05", "00:00", "14:30")
	require.NoError(t, err)

	res, err := fx.svc.Plot(context.Background(), Selection{}, &w, 0)
	require.NoError(t, err)
	assert.Len(t, res.Series.Plain, 2)
	assert.Empty(t, res.Series.Highlighted)
}

func TestFailingFiltersAreReportedNotFatal(t *testing.T) {
	fx := newFixture(t)

	res, err := fx.svc.Domains(context.Background(), Selection{
		Remove:    []string{"broken"},
		Highlight: []string{"google", "nolist"},
	}, 0)
	require.NoError(t, err)

	require.Len(t, res.Failures, 2)
	assert.Equal(t, "broken", res.Failures[0].Filter)
	assert.Equal(t, "nolist", res.Failures[1].Filter)
	require.Len(t, res.Domains, 1)
	assert.Equal(t, "google.com", res.Domains[0].Domain)

	assert.Equal(t, 2, fx.logs.FilterMessage("Filter skipped").Len())
}

func TestUnknownFilterLabel(t *testing.T) {
	fx := newFixture(t)

	_, err := fx.svc.Domains(context.Background(), Selection{Highlight: []string{"missing"}}, 0)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestDomainsWithoutHighlightUsesPlain(t *testing.T) {
	fx := newFixture(t)

	res, err := fx.svc.Domains(context.Background(), Selection{Remove: []string{"google"}}, 0)
	require.NoError(t, err)
	names := []string{}
	for _, d := range res.Domains {
		names = append(names, d.Domain)
	}
	assert.Equal(t, []string{"bbc.co.uk", "facebook.com"}, names)
}

func TestSearches(t *testing.T) {
	fx := newFixture(t)

	res, err := fx.svc.Searches(context.Background(), Selection{}, 20)
	require.NoError(t, err)
	require.Len(t, res.Engines, len(config.DefaultSearchEngines()))

	google := res.Engines[0]
	assert.Equal(t, "Google", google.Name)
	require.Len(t, google.Terms, 1)
	assert.Equal(t, "golang", google.Terms[0].Term)
	assert.Equal(t, 2, google.Terms[0].Count)
	assert.Empty(t, res.Engines[1].Terms)
}

func TestFiles(t *testing.T) {
	fx := newFixture(t)

	tree, err := fx.svc.Files(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, tree.Files)
	require.Len(t, tree.Drives, 1)
	assert.Equal(t, "pdf file", tree.Drives[0].Categories[0].Name)
}

func TestOverview(t *testing.T) {
	fx := newFixture(t)

	ov, err := fx.svc.Overview(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Test case", ov.Case)
	assert.Equal(t, 5, ov.Records)
	assert.Equal(t, "09:00 - 09:59", ov.PeakHour, "09:00 and 14:00 tie; the earlier wins")
	assert.Equal(t, 1, ov.AveragePages)
	assert.Equal(t, 2, ov.Heatmap.High)
	require.Len(t, ov.Browsers, 3)
	assert.Equal(t, "Chrome", ov.Browsers[0].Name)

	n, err := testutil.GatherAndCount(fx.reg, "trailscope_aggregation_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 5, n)
}

func TestSnapshotErrorIsWrapped(t *testing.T) {
	boom := errors.New("disk on fire")
	svc := NewService(&fakeStore{err: boom}, nil, config.DefaultConfig(), nil, nil)

	_, err := svc.Overview(context.Background())
	assert.ErrorIs(t, err, boom)
	_, err = svc.Files(context.Background())
	assert.ErrorIs(t, err, boom)
}
