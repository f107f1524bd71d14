package storage

import "database/sql"

// migrateV001 creates the case schema: the case, its imported groups, the
// entries with their parsed URLs, browsers, search terms and saved filters.
// Every statement uses IF NOT EXISTS for idempotency.
func migrateV001(tx *sql.Tx) error {
	stmts := []string{
		// ── Tables ──────────────────────────────────────────────

		`CREATE TABLE IF NOT EXISTS cases (
			id         TEXT PRIMARY KEY,
			name       TEXT NOT NULL,
			created_at TEXT NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS file_groups (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			case_id     TEXT NOT NULL REFERENCES cases(id) ON DELETE CASCADE,
			name        TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			file_name   TEXT NOT NULL DEFAULT '',
			program     TEXT NOT NULL DEFAULT '',
			created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS browsers (
			id      INTEGER PRIMARY KEY AUTOINCREMENT,
			name    TEXT NOT NULL,
			version TEXT,
			source  TEXT
		)`,

		`CREATE TABLE IF NOT EXISTS entries (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			group_id      INTEGER NOT NULL REFERENCES file_groups(id) ON DELETE CASCADE,
			browser_id    INTEGER NOT NULL REFERENCES browsers(id),
			type          TEXT,
			access_time   TEXT,
			modified_time TEXT,
			url           TEXT NOT NULL,
			filename      TEXT,
			directory     TEXT,
			http_headers  TEXT,
			title         TEXT,
			deleted       BOOLEAN,
			content_type  TEXT
		)`,

		`CREATE TABLE IF NOT EXISTS urls (
			entry_id INTEGER PRIMARY KEY REFERENCES entries(id) ON DELETE CASCADE,
			scheme   TEXT NOT NULL DEFAULT '',
			netloc   TEXT NOT NULL DEFAULT '',
			path     TEXT NOT NULL DEFAULT '',
			params   TEXT NOT NULL DEFAULT '',
			query    TEXT NOT NULL DEFAULT '',
			fragment TEXT NOT NULL DEFAULT '',
			username TEXT,
			password TEXT,
			hostname TEXT,
			port     INTEGER,
			domain   TEXT,
			search   TEXT
		)`,

		`CREATE TABLE IF NOT EXISTS search_terms (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			term        TEXT NOT NULL,
			engine      TEXT NOT NULL,
			engine_long TEXT NOT NULL DEFAULT '',
			occurrence  INTEGER NOT NULL DEFAULT 1,
			UNIQUE(term, engine)
		)`,

		`CREATE TABLE IF NOT EXISTS entry_terms (
			entry_id INTEGER NOT NULL REFERENCES entries(id) ON DELETE CASCADE,
			term_id  INTEGER NOT NULL REFERENCES search_terms(id) ON DELETE CASCADE,
			PRIMARY KEY (entry_id, term_id)
		)`,

		`CREATE TABLE IF NOT EXISTS filters (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			label      TEXT NOT NULL UNIQUE,
			text       TEXT NOT NULL,
			color      TEXT NOT NULL,
			query      TEXT NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,

		// ── Indexes ────────────────────────────────────────────

		`CREATE UNIQUE INDEX IF NOT EXISTS idx_browsers_identity ON browsers(name, IFNULL(version, ''), IFNULL(source, ''))`,
		`CREATE INDEX IF NOT EXISTS idx_entries_access_time      ON entries(access_time)`,
		`CREATE INDEX IF NOT EXISTS idx_entries_group            ON entries(group_id)`,
		`CREATE INDEX IF NOT EXISTS idx_urls_domain              ON urls(domain)`,
		`CREATE INDEX IF NOT EXISTS idx_urls_scheme              ON urls(scheme)`,
		`CREATE INDEX IF NOT EXISTS idx_search_terms_engine      ON search_terms(engine, occurrence)`,
		`CREATE INDEX IF NOT EXISTS idx_entry_terms_term         ON entry_terms(term_id)`,
	}

	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt); err != nil {
			return err
		}
	}

	return nil
}
