package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/runnerr0/trailscope/internal/apperrors"
	"github.com/runnerr0/trailscope/internal/filter"
	"github.com/runnerr0/trailscope/internal/ingest"
	"github.com/runnerr0/trailscope/internal/logging"
	"github.com/runnerr0/trailscope/internal/model"
	"github.com/runnerr0/trailscope/internal/urlnorm"
)

// timeLayout stores wall-clock time without a zone. Values read back are
// reported in UTC.
const timeLayout = "2006-01-02 15:04:05"

// Store defines the record store of a case.
type Store interface {
	CreateCase(ctx context.Context, name string) (*model.Case, error)
	GetCase(ctx context.Context) (*model.Case, error)
	ImportGroup(ctx context.Context, g *model.Group, rows []ingest.Prepared) (*ImportResult, error)
	ListGroups(ctx context.Context) ([]GroupSummary, error)
	DeleteGroup(ctx context.Context, id int64) error
	Snapshot(ctx context.Context) (*model.Snapshot, error)
	SaveFilter(ctx context.Context, f *filter.Filter) error
	GetFilter(ctx context.Context, label string) (*filter.Filter, error)
	ListFilters(ctx context.Context) ([]*filter.Filter, error)
	DeleteFilter(ctx context.Context, label string) error
	RecomputeDomains(ctx context.Context, n *urlnorm.Normalizer) (int64, error)
	PurgeAll(ctx context.Context) error
	GetStats(ctx context.Context) (*Stats, error)
	Close() error
}

// SQLiteStore implements Store backed by a SQLite database.
type SQLiteStore struct {
	db     *sql.DB
	logger *zap.Logger

	// Prepared statements
	getCase      *sql.Stmt
	getFilter    *sql.Stmt
	deleteFilter *sql.Stmt
}

// NewSQLiteStore creates a new SQLiteStore from an already-opened and migrated database.
func NewSQLiteStore(db *sql.DB, logger *zap.Logger) (*SQLiteStore, error) {
	s := &SQLiteStore{db: db, logger: logging.OrNop(logger)}

	if err := s.prepareStatements(); err != nil {
		return nil, fmt.Errorf("prepare statements: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) prepareStatements() error {
	var err error

	s.getCase, err = s.db.Prepare(`
		SELECT id, name, created_at FROM cases ORDER BY created_at LIMIT 1
	`)
	if err != nil {
		return err
	}

	s.getFilter, err = s.db.Prepare(`
		SELECT label, text, color, query FROM filters WHERE label = ?
	`)
	if err != nil {
		return err
	}

	s.deleteFilter, err = s.db.Prepare(`DELETE FROM filters WHERE label = ?`)
	if err != nil {
		return err
	}

	return nil
}

// parseTimestamp tries several common SQLite timestamp formats.
func parseTimestamp(s string) (time.Time, error) {
	formats := []string{
		timeLayout,
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05.999999999",
	}
	for _, f := range formats {
		if t, err := time.Parse(f, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse timestamp: %s", s)
}

func formatTime(t sql.NullTime) sql.NullString {
	if !t.Valid {
		return sql.NullString{}
	}
	return sql.NullString{String: t.Time.Format(timeLayout), Valid: true}
}

func scanTime(s sql.NullString) sql.NullTime {
	if !s.Valid {
		return sql.NullTime{}
	}
	t, err := parseTimestamp(s.String)
	if err != nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t, Valid: true}
}

func isUnique(err error) bool {
	var se sqlite3.Error
	return errors.As(err, &se) && se.ExtendedCode == sqlite3.ErrConstraintUnique
}

// CreateCase creates the single case of this store.
func (s *SQLiteStore) CreateCase(ctx context.Context, name string) (*model.Case, error) {
	if _, err := s.GetCase(ctx); err == nil {
		return nil, fmt.Errorf("create case %q: %w", name, apperrors.ErrConflict)
	} else if !errors.Is(err, apperrors.ErrNoCase) {
		return nil, err
	}

	c := &model.Case{
		ID:      uuid.NewString(),
		Name:    name,
		Created: time.Now().UTC().Truncate(time.Second),
	}
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO cases (id, name, created_at) VALUES (?, ?, ?)",
		c.ID, c.Name, c.Created.Format(timeLayout),
	)
	if err != nil {
		return nil, fmt.Errorf("insert case: %w", err)
	}

	s.logger.Info("Case created", zap.String("id", c.ID), zap.String("name", c.Name))
	return c, nil
}

// GetCase returns the case, or apperrors.ErrNoCase when none exists yet.
func (s *SQLiteStore) GetCase(ctx context.Context) (*model.Case, error) {
	var c model.Case
	var created string

	err := s.getCase.QueryRowContext(ctx).Scan(&c.ID, &c.Name, &created)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperrors.ErrNoCase
		}
		return nil, fmt.Errorf("get case: %w", err)
	}

	c.Created, _ = parseTimestamp(created)
	return &c, nil
}

// ImportGroup stores g and its prepared rows in a single transaction.
// Browsers are shared across groups and search terms accumulate their
// occurrence counts.
func (s *SQLiteStore) ImportGroup(ctx context.Context, g *model.Group, rows []ingest.Prepared) (*ImportResult, error) {
	c, err := s.GetCase(ctx)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	res, err := tx.ExecContext(ctx,
		`INSERT INTO file_groups (case_id, name, description, file_name, program)
		 VALUES (?, ?, ?, ?, ?)`,
		c.ID, g.Name, g.Description, g.FileName, g.Program,
	)
	if err != nil {
		return nil, fmt.Errorf("insert group: %w", err)
	}
	if g.ID, err = res.LastInsertId(); err != nil {
		return nil, fmt.Errorf("group id: %w", err)
	}

	imp, err := newImporter(ctx, tx)
	if err != nil {
		return nil, err
	}
	defer imp.close()

	result := &ImportResult{Group: *g}
	for i := range rows {
		if err := imp.add(ctx, g.ID, &rows[i], result); err != nil {
			return nil, fmt.Errorf("import row %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit import: %w", err)
	}

	s.logger.Info("Group imported",
		zap.Int64("group", g.ID),
		zap.String("name", g.Name),
		zap.Int64("entries", result.Entries),
		zap.Int64("browsers", result.Browsers),
		zap.Int64("terms", result.Terms),
	)
	return result, nil
}

// importer holds the statements of one import transaction.
type importer struct {
	insertEntry   *sql.Stmt
	insertURL     *sql.Stmt
	findBrowser   *sql.Stmt
	insertBrowser *sql.Stmt
	upsertTerm    *sql.Stmt
	linkTerm      *sql.Stmt

	browsers map[browserKey]int64
}

type browserKey struct {
	name, version, source string
	hasVersion, hasSource bool
}

func newImporter(ctx context.Context, tx *sql.Tx) (*importer, error) {
	imp := &importer{browsers: make(map[browserKey]int64)}
	stmts := []struct {
		dst   **sql.Stmt
		query string
	}{
		{&imp.insertEntry, `INSERT INTO entries (group_id, browser_id, type, access_time, modified_time, url,
			filename, directory, http_headers, title, deleted, content_type)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`},
		{&imp.insertURL, `INSERT INTO urls (entry_id, scheme, netloc, path, params, query, fragment,
			username, password, hostname, port, domain, search)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`},
		{&imp.findBrowser, `SELECT id FROM browsers WHERE name = ? AND version IS ? AND source IS ?`},
		{&imp.insertBrowser, `INSERT INTO browsers (name, version, source) VALUES (?, ?, ?)`},
		{&imp.upsertTerm, `INSERT INTO search_terms (term, engine, engine_long) VALUES (?, ?, ?)
			ON CONFLICT(term, engine) DO UPDATE SET occurrence = occurrence + 1
			RETURNING id`},
		{&imp.linkTerm, `INSERT OR IGNORE INTO entry_terms (entry_id, term_id) VALUES (?, ?)`},
	}
	for _, st := range stmts {
		stmt, err := tx.PrepareContext(ctx, st.query)
		if err != nil {
			imp.close()
			return nil, fmt.Errorf("prepare import: %w", err)
		}
		*st.dst = stmt
	}
	return imp, nil
}

func (imp *importer) close() {
	for _, stmt := range []*sql.Stmt{
		imp.insertEntry, imp.insertURL, imp.findBrowser,
		imp.insertBrowser, imp.upsertTerm, imp.linkTerm,
	} {
		if stmt != nil {
			stmt.Close()
		}
	}
}

func (imp *importer) browser(ctx context.Context, b *model.Browser, result *ImportResult) (int64, error) {
	key := browserKey{
		name:       b.Name,
		version:    b.Version.String,
		source:     b.Source.String,
		hasVersion: b.Version.Valid,
		hasSource:  b.Source.Valid,
	}
	if id, ok := imp.browsers[key]; ok {
		return id, nil
	}

	var id int64
	err := imp.findBrowser.QueryRowContext(ctx, b.Name, b.Version, b.Source).Scan(&id)
	switch {
	case err == sql.ErrNoRows:
		res, err := imp.insertBrowser.ExecContext(ctx, b.Name, b.Version, b.Source)
		if err != nil {
			return 0, fmt.Errorf("insert browser: %w", err)
		}
		if id, err = res.LastInsertId(); err != nil {
			return 0, fmt.Errorf("browser id: %w", err)
		}
		result.Browsers++
	case err != nil:
		return 0, fmt.Errorf("find browser: %w", err)
	}

	imp.browsers[key] = id
	return id, nil
}

func (imp *importer) add(ctx context.Context, groupID int64, p *ingest.Prepared, result *ImportResult) error {
	browserID, err := imp.browser(ctx, &p.Browser, result)
	if err != nil {
		return err
	}
	p.Browser.ID = browserID

	e := &p.Entry
	res, err := imp.insertEntry.ExecContext(ctx,
		groupID, browserID, e.Type, formatTime(e.AccessTime), formatTime(e.ModifiedTime), e.URL,
		e.Filename, e.Directory, e.HTTPHeaders, e.Title, e.Deleted, e.ContentType,
	)
	if err != nil {
		return fmt.Errorf("insert entry: %w", err)
	}
	if e.ID, err = res.LastInsertId(); err != nil {
		return fmt.Errorf("entry id: %w", err)
	}
	e.GroupID, e.BrowserID = groupID, browserID
	result.Entries++

	u := &p.URL
	u.EntryID = e.ID
	if _, err := imp.insertURL.ExecContext(ctx,
		u.EntryID, u.Scheme, u.Netloc, u.Path, u.Params, u.Query, u.Fragment,
		u.Username, u.Password, u.Hostname, u.Port, u.Domain, u.Search,
	); err != nil {
		return fmt.Errorf("insert url: %w", err)
	}

	if p.Search == nil {
		return nil
	}
	for _, term := range p.Search.Terms {
		var termID int64
		if err := imp.upsertTerm.QueryRowContext(ctx,
			term, p.Search.Engine.Key, p.Search.Engine.Name,
		).Scan(&termID); err != nil {
			return fmt.Errorf("upsert term %q: %w", term, err)
		}
		if _, err := imp.linkTerm.ExecContext(ctx, e.ID, termID); err != nil {
			return fmt.Errorf("link term %q: %w", term, err)
		}
		result.Terms++
	}
	return nil
}

// ListGroups returns every imported group with its entry count and
// access range, oldest import first.
func (s *SQLiteStore) ListGroups(ctx context.Context) ([]GroupSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT g.id, g.name, g.description, g.file_name, g.program,
		       COUNT(e.id), MIN(e.access_time), MAX(e.access_time)
		FROM file_groups g
		LEFT JOIN entries e ON e.group_id = g.id
		GROUP BY g.id
		ORDER BY g.id
	`)
	if err != nil {
		return nil, fmt.Errorf("query groups: %w", err)
	}
	defer rows.Close()

	groups := []GroupSummary{}
	for rows.Next() {
		var gs GroupSummary
		var first, last sql.NullString
		if err := rows.Scan(
			&gs.ID, &gs.Name, &gs.Description, &gs.FileName, &gs.Program,
			&gs.Entries, &first, &last,
		); err != nil {
			return nil, fmt.Errorf("scan group: %w", err)
		}
		gs.First = scanTime(first).Time
		gs.Last = scanTime(last).Time
		groups = append(groups, gs)
	}

	return groups, rows.Err()
}

// DeleteGroup removes a group and its entries. Search term counts are
// recomputed from the remaining links and orphaned browsers are dropped.
func (s *SQLiteStore) DeleteGroup(ctx context.Context, id int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	res, err := tx.ExecContext(ctx, "DELETE FROM file_groups WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete group: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("group %d: %w", id, apperrors.ErrNotFound)
	}

	stmts := []string{
		`UPDATE search_terms SET occurrence =
			(SELECT COUNT(*) FROM entry_terms WHERE term_id = search_terms.id)`,
		"DELETE FROM search_terms WHERE occurrence = 0",
		"DELETE FROM browsers WHERE id NOT IN (SELECT browser_id FROM entries)",
	}
	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("tidy after delete (%s): %w", stmt, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete: %w", err)
	}

	s.logger.Info("Group deleted", zap.Int64("group", id))
	return nil
}

// Snapshot loads the whole case as joined bundles, in entry order.
func (s *SQLiteStore) Snapshot(ctx context.Context) (*model.Snapshot, error) {
	c, err := s.GetCase(ctx)
	if err != nil {
		return nil, err
	}
	snap := &model.Snapshot{Case: *c}

	groups, err := s.ListGroups(ctx)
	if err != nil {
		return nil, err
	}
	byGroup := make(map[int64]*model.Group, len(groups))
	for _, gs := range groups {
		snap.Groups = append(snap.Groups, gs.Group)
	}
	for i := range snap.Groups {
		byGroup[snap.Groups[i].ID] = &snap.Groups[i]
	}

	if snap.Bundles, err = s.loadBundles(ctx, byGroup); err != nil {
		return nil, err
	}
	if err := s.attachTerms(ctx, snap.Bundles); err != nil {
		return nil, err
	}

	s.logger.Debug("Snapshot loaded",
		zap.Int("groups", len(snap.Groups)),
		zap.Int("bundles", len(snap.Bundles)),
	)
	return snap, nil
}

func (s *SQLiteStore) loadBundles(ctx context.Context, groups map[int64]*model.Group) ([]*model.Bundle, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT e.id, e.group_id, e.browser_id, e.type, e.access_time, e.modified_time, e.url,
		       e.filename, e.directory, e.http_headers, e.title, e.deleted, e.content_type,
		       u.scheme, u.netloc, u.path, u.params, u.query, u.fragment,
		       u.username, u.password, u.hostname, u.port, u.domain, u.search,
		       b.name, b.version, b.source
		FROM entries e
		JOIN urls u ON u.entry_id = e.id
		JOIN browsers b ON b.id = e.browser_id
		ORDER BY e.id
	`)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()

	browsers := make(map[int64]*model.Browser)
	bundles := []*model.Bundle{}
	for rows.Next() {
		var (
			e              model.Entry
			u              model.URL
			b              model.Browser
			access, modify sql.NullString
		)
		if err := rows.Scan(
			&e.ID, &e.GroupID, &e.BrowserID, &e.Type, &access, &modify, &e.URL,
			&e.Filename, &e.Directory, &e.HTTPHeaders, &e.Title, &e.Deleted, &e.ContentType,
			&u.Scheme, &u.Netloc, &u.Path, &u.Params, &u.Query, &u.Fragment,
			&u.Username, &u.Password, &u.Hostname, &u.Port, &u.Domain, &u.Search,
			&b.Name, &b.Version, &b.Source,
		); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		e.AccessTime = scanTime(access)
		e.ModifiedTime = scanTime(modify)
		u.EntryID = e.ID

		browser, ok := browsers[e.BrowserID]
		if !ok {
			b.ID = e.BrowserID
			browser = &b
			browsers[e.BrowserID] = browser
		}

		bundles = append(bundles, &model.Bundle{
			Entry:   &e,
			URL:     &u,
			Browser: browser,
			Group:   groups[e.GroupID],
		})
	}

	return bundles, rows.Err()
}

func (s *SQLiteStore) attachTerms(ctx context.Context, bundles []*model.Bundle) error {
	byEntry := make(map[int64]*model.Bundle, len(bundles))
	for _, b := range bundles {
		byEntry[b.Entry.ID] = b
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT et.entry_id, t.id, t.term, t.engine, t.engine_long, t.occurrence
		FROM entry_terms et
		JOIN search_terms t ON t.id = et.term_id
		ORDER BY et.entry_id, t.id
	`)
	if err != nil {
		return fmt.Errorf("query entry terms: %w", err)
	}
	defer rows.Close()

	terms := make(map[int64]*model.SearchTerm)
	for rows.Next() {
		var entryID int64
		var t model.SearchTerm
		if err := rows.Scan(&entryID, &t.ID, &t.Term, &t.Engine, &t.EngineLong, &t.Occurrence); err != nil {
			return fmt.Errorf("scan entry term: %w", err)
		}
		shared, ok := terms[t.ID]
		if !ok {
			shared = &t
			terms[t.ID] = shared
		}
		if b, ok := byEntry[entryID]; ok {
			b.Terms = append(b.Terms, shared)
		}
	}

	return rows.Err()
}

// SaveFilter stores f. A filter with the same label already stored is a
// conflict.
func (s *SQLiteStore) SaveFilter(ctx context.Context, f *filter.Filter) error {
	query, err := filter.Encode(f.Query)
	if err != nil {
		return fmt.Errorf("encode filter %s: %w", f.Label, err)
	}

	_, err = s.db.ExecContext(ctx,
		"INSERT INTO filters (label, text, color, query) VALUES (?, ?, ?, ?)",
		f.Label, f.Text, f.Color, string(query),
	)
	if err != nil {
		if isUnique(err) {
			return fmt.Errorf("filter %s: %w", f.Label, apperrors.ErrConflict)
		}
		return fmt.Errorf("insert filter: %w", err)
	}
	return nil
}

// GetFilter returns the filter stored under label.
func (s *SQLiteStore) GetFilter(ctx context.Context, label string) (*filter.Filter, error) {
	f, err := scanFilter(s.getFilter.QueryRowContext(ctx, label))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("filter %s: %w", label, apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("get filter: %w", err)
	}
	return f, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanFilter(row scanner) (*filter.Filter, error) {
	var f filter.Filter
	var query string
	if err := row.Scan(&f.Label, &f.Text, &f.Color, &query); err != nil {
		return nil, err
	}
	q, err := filter.Decode([]byte(query))
	if err != nil {
		return nil, fmt.Errorf("decode filter %s: %w", f.Label, err)
	}
	f.Query = q
	return &f, nil
}

// ListFilters returns every stored filter ordered by label.
func (s *SQLiteStore) ListFilters(ctx context.Context) ([]*filter.Filter, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT label, text, color, query FROM filters ORDER BY label",
	)
	if err != nil {
		return nil, fmt.Errorf("query filters: %w", err)
	}
	defer rows.Close()

	filters := []*filter.Filter{}
	for rows.Next() {
		f, err := scanFilter(rows)
		if err != nil {
			return nil, fmt.Errorf("scan filter: %w", err)
		}
		filters = append(filters, f)
	}

	return filters, rows.Err()
}

// DeleteFilter removes the filter stored under label.
func (s *SQLiteStore) DeleteFilter(ctx context.Context, label string) error {
	res, err := s.deleteFilter.ExecContext(ctx, label)
	if err != nil {
		return fmt.Errorf("delete filter: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("filter %s: %w", label, apperrors.ErrNotFound)
	}

	return nil
}

// RecomputeDomains re-derives every stored URL's domain with n, typically
// after the top-level domain list changed. It returns the number of URLs
// whose domain changed.
func (s *SQLiteStore) RecomputeDomains(ctx context.Context, n *urlnorm.Normalizer) (int64, error) {
	type stored struct {
		entryID          int64
		hostname, domain sql.NullString
		scheme           string
	}

	rows, err := s.db.QueryContext(ctx, "SELECT entry_id, scheme, hostname, domain FROM urls")
	if err != nil {
		return 0, fmt.Errorf("query urls: %w", err)
	}
	var urls []stored
	for rows.Next() {
		var u stored
		if err := rows.Scan(&u.entryID, &u.scheme, &u.hostname, &u.domain); err != nil {
			rows.Close()
			return 0, fmt.Errorf("scan url: %w", err)
		}
		urls = append(urls, u)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return 0, err
	}
	rows.Close()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	update, err := tx.PrepareContext(ctx, "UPDATE urls SET domain = ? WHERE entry_id = ?")
	if err != nil {
		return 0, fmt.Errorf("prepare update: %w", err)
	}
	defer update.Close()

	var changed int64
	for _, u := range urls {
		var domain sql.NullString
		if u.hostname.Valid {
			if d, ok := n.Domain(u.hostname.String, u.scheme); ok {
				domain = sql.NullString{String: d, Valid: true}
			}
		}
		if domain == u.domain {
			continue
		}
		if _, err := update.ExecContext(ctx, domain, u.entryID); err != nil {
			return 0, fmt.Errorf("update domain of entry %d: %w", u.entryID, err)
		}
		changed++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit domains: %w", err)
	}

	s.logger.Info("Domains recomputed", zap.Int("urls", len(urls)), zap.Int64("changed", changed))
	return changed, nil
}

// PurgeAll deletes every record, filter and the case itself.
func (s *SQLiteStore) PurgeAll(ctx context.Context) error {
	stmts := []string{
		"DELETE FROM entry_terms",
		"DELETE FROM urls",
		"DELETE FROM entries",
		"DELETE FROM search_terms",
		"DELETE FROM browsers",
		"DELETE FROM file_groups",
		"DELETE FROM filters",
		"DELETE FROM cases",
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("purge (%s): %w", stmt, err)
		}
	}
	s.logger.Warn("Case purged")
	return nil
}

// GetStats returns aggregate statistics about the database.
func (s *SQLiteStore) GetStats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}

	if c, err := s.GetCase(ctx); err == nil {
		stats.CaseName = c.Name
	} else if !errors.Is(err, apperrors.ErrNoCase) {
		return nil, err
	}

	counts := []struct {
		dst   *int64
		query string
	}{
		{&stats.Groups, "SELECT COUNT(*) FROM file_groups"},
		{&stats.TotalEntries, "SELECT COUNT(*) FROM entries"},
		{&stats.ValidEntries, "SELECT COUNT(*) FROM entries WHERE access_time IS NOT NULL"},
		{&stats.Browsers, "SELECT COUNT(*) FROM browsers"},
		{&stats.SearchTerms, "SELECT COUNT(*) FROM search_terms"},
		{&stats.Filters, "SELECT COUNT(*) FROM filters"},
	}
	for _, c := range counts {
		if err := s.db.QueryRowContext(ctx, c.query).Scan(c.dst); err != nil {
			return nil, fmt.Errorf("count (%s): %w", c.query, err)
		}
	}

	// Oldest and newest (handle empty DB)
	if stats.ValidEntries > 0 {
		var oldest, newest sql.NullString
		err := s.db.QueryRowContext(ctx,
			"SELECT MIN(access_time), MAX(access_time) FROM entries",
		).Scan(&oldest, &newest)
		if err != nil {
			return nil, fmt.Errorf("entry time range: %w", err)
		}
		stats.OldestEntry = scanTime(oldest).Time
		stats.NewestEntry = scanTime(newest).Time
	}

	var pageCount, pageSize int64
	if err := s.db.QueryRowContext(ctx, "PRAGMA page_count").Scan(&pageCount); err != nil {
		return nil, fmt.Errorf("page count: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, "PRAGMA page_size").Scan(&pageSize); err != nil {
		return nil, fmt.Errorf("page size: %w", err)
	}
	stats.DatabaseSizeBytes = pageCount * pageSize

	// Top domains
	rows, err := s.db.QueryContext(ctx, `
		SELECT domain, COUNT(*) AS cnt FROM urls
		WHERE domain IS NOT NULL
		GROUP BY domain ORDER BY cnt DESC, domain LIMIT 10
	`)
	if err != nil {
		return nil, fmt.Errorf("top domains: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var dc DomainCount
		if err := rows.Scan(&dc.Domain, &dc.Count); err != nil {
			return nil, err
		}
		stats.TopDomains = append(stats.TopDomains, dc)
	}

	return stats, rows.Err()
}

// Close releases all prepared statements. The underlying *sql.DB is NOT
// closed; that is the caller's responsibility.
func (s *SQLiteStore) Close() error {
	stmts := []*sql.Stmt{s.getCase, s.getFilter, s.deleteFilter}
	for _, stmt := range stmts {
		if stmt != nil {
			stmt.Close()
		}
	}
	return nil
}
