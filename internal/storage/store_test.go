package storage

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runnerr0/trailscope/internal/apperrors"
	"github.com/runnerr0/trailscope/internal/config"
	"github.com/runnerr0/trailscope/internal/filter"
	"github.com/runnerr0/trailscope/internal/ingest"
	"github.com/runnerr0/trailscope/internal/model"
	"github.com/runnerr0/trailscope/internal/urlnorm"
)

// openTestStore creates a migrated in-memory Store for testing.
func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	db := openTestDB(t)

	runner := NewMigrationRunner(db, nil)
	require.NoError(t, runner.Run(context.Background()))

	store, err := NewSQLiteStore(db, nil)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return store
}

func at(s string) sql.NullTime {
	t, err := time.Parse("2006-01-02 15:04", s)
	if err != nil {
		panic(err)
	}
	return sql.NullTime{Time: t, Valid: true}
}

func testRows() []ingest.Prepared {
	rows := []ingest.Row{
		{
			AccessTime:    at("2024-03-01 09:15"),
			URL:           "https://www.google.com/search?q=global+warming",
			Title:         "global warming - Google Search",
			BrowserName:   "Firefox",
			BrowserSource: "places.sqlite",
		},
		{
			AccessTime:    at("2024-03-01 14:00"),
			URL:           "http://news.example.org/a",
			BrowserName:   "Firefox",
			BrowserSource: "places.sqlite",
			Deleted:       sql.NullBool{Bool: true, Valid: true},
		},
		{
			AccessTime:     at("2024-03-02 10:00"),
			URL:            "https://www.google.com/search?q=warming+ice",
			BrowserName:    "Chrome",
			BrowserVersion: "120",
		},
		{
			URL:         "http://no-time.example.com/",
			BrowserName: "Chrome",
		},
	}
	prepared, _ := ingest.FromConfig(config.DefaultConfig().Ingest, nil).PrepareAll(rows)
	return prepared
}

func seedCase(t *testing.T, store *SQLiteStore) *model.Case {
	t.Helper()
	c, err := store.CreateCase(context.Background(), "Case 7")
	require.NoError(t, err)
	return c
}

func importTestGroup(t *testing.T, store *SQLiteStore, name string) *ImportResult {
	t.Helper()
	g := &model.Group{Name: name, FileName: name + ".csv", Program: "NetAnalysis"}
	res, err := store.ImportGroup(context.Background(), g, testRows())
	require.NoError(t, err)
	return res
}

func termOccurrence(t *testing.T, store *SQLiteStore, term, engine string) int64 {
	t.Helper()
	var n int64
	err := store.db.QueryRow(
		"SELECT occurrence FROM search_terms WHERE term = ? AND engine = ?", term, engine,
	).Scan(&n)
	if err == sql.ErrNoRows {
		return 0
	}
	require.NoError(t, err)
	return n
}

// --- Case ---

func TestCreateCase_GetCase_Roundtrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	c := seedCase(t, store)
	assert.NotEmpty(t, c.ID)
	assert.False(t, c.Created.IsZero())

	got, err := store.GetCase(ctx)
	require.NoError(t, err)
	assert.Equal(t, c.ID, got.ID)
	assert.Equal(t, "Case 7", got.Name)
	assert.True(t, c.Created.Equal(got.Created))
}

func TestCreateCase_OnlyOnce(t *testing.T) {
	store := openTestStore(t)
	seedCase(t, store)

	_, err := store.CreateCase(context.Background(), "Second")
	assert.ErrorIs(t, err, apperrors.ErrConflict)
}

func TestGetCase_NoCase(t *testing.T) {
	store := openTestStore(t)

	_, err := store.GetCase(context.Background())
	assert.ErrorIs(t, err, apperrors.ErrNoCase)
}

// --- Import ---

func TestImportGroup_RequiresCase(t *testing.T) {
	store := openTestStore(t)

	_, err := store.ImportGroup(context.Background(), &model.Group{Name: "g"}, testRows())
	assert.ErrorIs(t, err, apperrors.ErrNoCase)
}

func TestImportGroup_StoresRows(t *testing.T) {
	store := openTestStore(t)
	seedCase(t, store)

	res := importTestGroup(t, store, "laptop")
	assert.NotZero(t, res.Group.ID)
	assert.Equal(t, int64(3), res.Entries, "the row without access time is never stored")
	assert.Equal(t, int64(2), res.Browsers)
	assert.Positive(t, res.Terms)

	assert.Equal(t, int64(2), termOccurrence(t, store, "warming", "google"))
	assert.Equal(t, int64(1), termOccurrence(t, store, "ice", "google"))
}

func TestImportGroup_SharesBrowsersAcrossGroups(t *testing.T) {
	store := openTestStore(t)
	seedCase(t, store)

	importTestGroup(t, store, "laptop")
	res := importTestGroup(t, store, "desktop")
	assert.Zero(t, res.Browsers, "known browsers are reused")
	assert.Equal(t, int64(4), termOccurrence(t, store, "warming", "google"))

	stats, err := store.GetStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.Browsers)
	assert.Equal(t, int64(6), stats.TotalEntries)
}

func TestListGroups(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	seedCase(t, store)

	groups, err := store.ListGroups(ctx)
	require.NoError(t, err)
	assert.Empty(t, groups)

	importTestGroup(t, store, "laptop")
	groups, err = store.ListGroups(ctx)
	require.NoError(t, err)
	require.Len(t, groups, 1)

	g := groups[0]
	assert.Equal(t, "laptop", g.Name)
	assert.Equal(t, "laptop.csv", g.FileName)
	assert.Equal(t, "NetAnalysis", g.Program)
	assert.Equal(t, int64(3), g.Entries)
	assert.Equal(t, at("2024-03-01 09:15").Time, g.First)
	assert.Equal(t, at("2024-03-02 10:00").Time, g.Last)
}

func TestDeleteGroup_RecountsTerms(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	seedCase(t, store)

	first := importTestGroup(t, store, "laptop")
	second := importTestGroup(t, store, "desktop")

	require.NoError(t, store.DeleteGroup(ctx, first.Group.ID))
	assert.Equal(t, int64(2), termOccurrence(t, store, "warming", "google"))

	require.NoError(t, store.DeleteGroup(ctx, second.Group.ID))
	assert.Zero(t, termOccurrence(t, store, "warming", "google"))

	stats, err := store.GetStats(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.TotalEntries)
	assert.Zero(t, stats.Browsers, "orphaned browsers are dropped")
	assert.Zero(t, stats.SearchTerms)
}

func TestDeleteGroup_NotFound(t *testing.T) {
	store := openTestStore(t)

	err := store.DeleteGroup(context.Background(), 99)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

// --- Snapshot ---

func TestSnapshot_JoinsBundles(t *testing.T) {
	store := openTestStore(t)
	seedCase(t, store)
	importTestGroup(t, store, "laptop")

	snap, err := store.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Case 7", snap.Case.Name)
	require.Len(t, snap.Groups, 1)
	require.Len(t, snap.Bundles, 3)

	first := snap.Bundles[0]
	assert.Equal(t, "https://www.google.com/search?q=global+warming", first.Entry.URL)
	assert.Equal(t, at("2024-03-01 09:15"), first.Entry.AccessTime)
	assert.Equal(t, "google.com", first.URL.Domain.String)
	assert.Equal(t, "global warming", first.URL.Search.String)
	assert.Equal(t, "Firefox", first.Browser.Name)
	assert.False(t, first.Browser.Version.Valid)
	assert.Equal(t, "places.sqlite", first.Browser.Source.String)
	assert.Equal(t, "laptop", first.Group.Name)
	assert.Same(t, first.Browser, snap.Bundles[1].Browser, "bundles share browser records")
	assert.Same(t, first.Group, snap.Bundles[2].Group)

	var terms []string
	for _, term := range first.Terms {
		terms = append(terms, term.Term)
		assert.Equal(t, "google", term.Engine)
	}
	assert.Contains(t, terms, "warming")

	second := snap.Bundles[1]
	assert.Empty(t, second.Terms)
	assert.True(t, second.Entry.Deleted.Bool)
	assert.Equal(t, "example.org", second.URL.Domain.String)

	latest, ok := snap.Latest()
	require.True(t, ok)
	assert.Equal(t, at("2024-03-02 10:00").Time, latest)
}

func TestSnapshot_StoresWallClock(t *testing.T) {
	store := openTestStore(t)
	seedCase(t, store)

	zone := time.FixedZone("CEST", 2*60*60)
	rows, _ := ingest.FromConfig(config.DefaultConfig().Ingest, nil).PrepareAll([]ingest.Row{{
		AccessTime:  sql.NullTime{Time: time.Date(2024, 6, 1, 23, 30, 0, 0, zone), Valid: true},
		URL:         "http://example.com/",
		BrowserName: "Opera",
	}})
	_, err := store.ImportGroup(context.Background(), &model.Group{Name: "tz"}, rows)
	require.NoError(t, err)

	snap, err := store.Snapshot(context.Background())
	require.NoError(t, err)
	require.Len(t, snap.Bundles, 1)
	assert.Equal(t, time.Date(2024, 6, 1, 23, 30, 0, 0, time.UTC), snap.Bundles[0].AccessTime())
}

func TestSnapshot_NoCase(t *testing.T) {
	store := openTestStore(t)

	_, err := store.Snapshot(context.Background())
	assert.ErrorIs(t, err, apperrors.ErrNoCase)
}

// --- Filters ---

func testFilter(t *testing.T, label string) *filter.Filter {
	t.Helper()
	q, err := filter.NewQuery(
		filter.Where(filter.ClassURL, filter.AttrDomain, filter.OpIs, "google.com"),
		filter.WhereList(filter.ClassURL, filter.AttrHostname, filter.OpNotInList, "work-hosts.txt"),
	)
	require.NoError(t, err)
	f, err := filter.NewFilter(label, "", "", q)
	require.NoError(t, err)
	return f
}

func TestSaveFilter_GetFilter_Roundtrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveFilter(ctx, testFilter(t, "searches")))

	got, err := store.GetFilter(ctx, "searches")
	require.NoError(t, err)
	assert.Equal(t, "searches", got.Label)
	assert.Equal(t, "searches", got.Text)
	assert.Equal(t, filter.DefaultColor, got.Color)
	assert.Equal(t, testFilter(t, "searches").Query.Elements(), got.Query.Elements())
}

func TestSaveFilter_DuplicateLabel(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveFilter(ctx, testFilter(t, "searches")))
	err := store.SaveFilter(ctx, testFilter(t, "searches"))
	assert.ErrorIs(t, err, apperrors.ErrConflict)
}

func TestGetFilter_NotFound(t *testing.T) {
	store := openTestStore(t)

	_, err := store.GetFilter(context.Background(), "missing")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestListFilters_SortedByLabel(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	filters, err := store.ListFilters(ctx)
	require.NoError(t, err)
	assert.Empty(t, filters)

	require.NoError(t, store.SaveFilter(ctx, testFilter(t, "zeta")))
	require.NoError(t, store.SaveFilter(ctx, testFilter(t, "alpha")))

	filters, err = store.ListFilters(ctx)
	require.NoError(t, err)
	require.Len(t, filters, 2)
	assert.Equal(t, "alpha", filters[0].Label)
	assert.Equal(t, "zeta", filters[1].Label)
}

func TestDeleteFilter(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveFilter(ctx, testFilter(t, "searches")))
	require.NoError(t, store.DeleteFilter(ctx, "searches"))

	_, err := store.GetFilter(ctx, "searches")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	err = store.DeleteFilter(ctx, "searches")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

// --- Maintenance ---

func TestRecomputeDomains(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	seedCase(t, store)
	importTestGroup(t, store, "laptop")

	defaults := urlnorm.FromConfig(config.DefaultConfig().Ingest)
	changed, err := store.RecomputeDomains(ctx, defaults)
	require.NoError(t, err)
	assert.Zero(t, changed, "same table, same domains")

	// Without the generic TLD list ".org" and ".com" become the domain.
	changed, err = store.RecomputeDomains(ctx, urlnorm.New(nil, nil))
	require.NoError(t, err)
	assert.Equal(t, int64(3), changed)

	snap, err := store.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, "org", snap.Bundles[1].URL.Domain.String)
}

func TestPurgeAll(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	seedCase(t, store)
	importTestGroup(t, store, "laptop")
	require.NoError(t, store.SaveFilter(ctx, testFilter(t, "searches")))

	require.NoError(t, store.PurgeAll(ctx))

	stats, err := store.GetStats(ctx)
	require.NoError(t, err)
	assert.Empty(t, stats.CaseName)
	assert.Zero(t, stats.Groups)
	assert.Zero(t, stats.TotalEntries)
	assert.Zero(t, stats.Filters)

	_, err = store.GetCase(ctx)
	assert.ErrorIs(t, err, apperrors.ErrNoCase)
}

func TestGetStats_EmptyDB(t *testing.T) {
	store := openTestStore(t)

	stats, err := store.GetStats(context.Background())
	require.NoError(t, err)
	assert.Zero(t, stats.TotalEntries)
	assert.True(t, stats.OldestEntry.IsZero())
	assert.Empty(t, stats.TopDomains)
	assert.Positive(t, stats.DatabaseSizeBytes)
}

func TestGetStats_WithData(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	seedCase(t, store)
	importTestGroup(t, store, "laptop")

	stats, err := store.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Case 7", stats.CaseName)
	assert.Equal(t, int64(1), stats.Groups)
	assert.Equal(t, int64(3), stats.TotalEntries)
	assert.Equal(t, int64(3), stats.ValidEntries)
	assert.Equal(t, at("2024-03-01 09:15").Time, stats.OldestEntry)
	assert.Equal(t, at("2024-03-02 10:00").Time, stats.NewestEntry)
	require.NotEmpty(t, stats.TopDomains)
	assert.Equal(t, DomainCount{Domain: "google.com", Count: 2}, stats.TopDomains[0])
}

func TestClose(t *testing.T) {
	store := openTestStore(t)
	assert.NoError(t, store.Close())
}

// --- Driver failures ---

var errDriver = errors.New("disk I/O error")

type mockStore struct {
	store   *SQLiteStore
	mock    sqlmock.Sqlmock
	getCase *sqlmock.ExpectedPrepare
}

func openMockStore(t *testing.T) *mockStore {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	ms := &mockStore{mock: mock}
	ms.getCase = mock.ExpectPrepare("SELECT id, name, created_at FROM cases")
	mock.ExpectPrepare("SELECT label, text, color, query FROM filters")
	mock.ExpectPrepare("DELETE FROM filters")

	ms.store, err = NewSQLiteStore(db, nil)
	require.NoError(t, err)
	return ms
}

func TestNewSQLiteStore_PrepareFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectPrepare("SELECT id, name, created_at FROM cases").WillReturnError(errDriver)

	_, err = NewSQLiteStore(db, nil)
	assert.ErrorIs(t, err, errDriver)
	assert.Contains(t, err.Error(), "prepare statements")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetCase_DriverError(t *testing.T) {
	ms := openMockStore(t)
	ms.getCase.ExpectQuery().WillReturnError(errDriver)

	_, err := ms.store.GetCase(context.Background())
	assert.ErrorIs(t, err, errDriver)
	assert.NotErrorIs(t, err, apperrors.ErrNoCase)
	assert.NoError(t, ms.mock.ExpectationsWereMet())
}

func TestImportGroup_RollsBackOnFailure(t *testing.T) {
	ms := openMockStore(t)
	ms.getCase.ExpectQuery().WillReturnRows(
		sqlmock.NewRows([]string{"id", "name", "created_at"}).
			AddRow("c1", "Case 7", "2024-03-01 00:00:00"),
	)
	ms.mock.ExpectBegin()
	ms.mock.ExpectExec("INSERT INTO file_groups").WillReturnError(errDriver)
	ms.mock.ExpectRollback()

	_, err := ms.store.ImportGroup(context.Background(), &model.Group{Name: "g"}, nil)
	assert.ErrorIs(t, err, errDriver)
	assert.NoError(t, ms.mock.ExpectationsWereMet())
}

func TestRecomputeDomains_QueryError(t *testing.T) {
	ms := openMockStore(t)
	ms.mock.ExpectQuery("SELECT entry_id, scheme, hostname, domain FROM urls").WillReturnError(errDriver)

	_, err := ms.store.RecomputeDomains(context.Background(), urlnorm.New(nil, nil))
	assert.ErrorIs(t, err, errDriver)
	assert.NoError(t, ms.mock.ExpectationsWereMet())
}

func TestPurgeAll_StopsOnFailure(t *testing.T) {
	ms := openMockStore(t)
	ms.mock.ExpectExec("DELETE FROM entry_terms").WillReturnResult(sqlmock.NewResult(0, 0))
	ms.mock.ExpectExec("DELETE FROM urls").WillReturnError(errDriver)

	err := ms.store.PurgeAll(context.Background())
	assert.ErrorIs(t, err, errDriver)
	assert.Contains(t, err.Error(), "DELETE FROM urls")
	assert.NoError(t, ms.mock.ExpectationsWereMet())
}
