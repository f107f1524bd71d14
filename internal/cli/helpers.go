package cli

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/runnerr0/trailscope/internal/analysis"
	"github.com/runnerr0/trailscope/internal/config"
	"github.com/runnerr0/trailscope/internal/filter"
	"github.com/runnerr0/trailscope/internal/logging"
	"github.com/runnerr0/trailscope/internal/metrics"
	"github.com/runnerr0/trailscope/internal/storage"
)

// session is everything a command needs: config, logger, the migrated
// store and the metrics registry.
type session struct {
	cfg      *config.Config
	dbPath   string
	db       *sql.DB
	store    *storage.SQLiteStore
	runner   *storage.MigrationRunner
	logger   *zap.Logger
	registry *prometheus.Registry
	metrics  *metrics.Metrics

	metricsFile string
}

// loadConfig reads --config, or the default config file, and applies the
// global overrides.
func loadConfig(g *GlobalFlags) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if g.Config != "" {
		cfg, err = config.Load(g.Config)
	} else {
		cfg, err = config.LoadOrCreate()
	}
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if g.Verbose {
		cfg.Logging.Level = "debug"
	}
	return cfg, nil
}

// openSession opens the configured case database, runs migrations, and
// returns a ready-to-use session.
func openSession(g *GlobalFlags) (*session, error) {
	cfg, err := loadConfig(g)
	if err != nil {
		return nil, err
	}

	dbPath := g.DB
	if dbPath == "" {
		if dbPath, err = cfg.DBPath(); err != nil {
			return nil, fmt.Errorf("resolve db path: %w", err)
		}
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	s, err := newSession(cfg, db, logger)
	if err != nil {
		db.Close()
		return nil, err
	}
	s.dbPath = dbPath
	s.metricsFile = g.MetricsFile
	return s, nil
}

// newSession migrates db and builds the store around it. The caller keeps
// ownership of db until close.
func newSession(cfg *config.Config, db *sql.DB, logger *zap.Logger) (*session, error) {
	logger = logging.OrNop(logger)

	runner := storage.NewMigrationRunner(db, logger)
	if err := runner.Run(context.Background()); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	store, err := storage.NewSQLiteStore(db, logger)
	if err != nil {
		return nil, fmt.Errorf("create store: %w", err)
	}

	registry := prometheus.NewRegistry()
	m, err := metrics.New(registry)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("register metrics: %w", err)
	}

	return &session{
		cfg:      cfg,
		db:       db,
		store:    store,
		runner:   runner,
		logger:   logger,
		registry: registry,
		metrics:  m,
	}, nil
}

// lists returns the value-list store of the configured directory.
func (s *session) lists() (*filter.ListStore, error) {
	dir, err := s.cfg.ListsDir()
	if err != nil {
		return nil, fmt.Errorf("resolve lists dir: %w", err)
	}
	return filter.NewListStore(dir), nil
}

// service builds the analysis service. The returned func releases the
// filter compiler.
func (s *session) service() (*analysis.Service, func(), error) {
	lists, err := s.lists()
	if err != nil {
		return nil, nil, err
	}
	compiler, err := filter.NewCompiler(lists, s.logger)
	if err != nil {
		return nil, nil, fmt.Errorf("create filter compiler: %w", err)
	}
	svc := analysis.NewService(s.store, compiler, s.cfg, s.logger, s.metrics)
	return svc, compiler.Close, nil
}

// close writes the metrics file if requested and releases the store and
// database.
func (s *session) close() error {
	var err error
	if s.metricsFile != "" {
		if werr := prometheus.WriteToTextfile(s.metricsFile, s.registry); werr != nil {
			err = fmt.Errorf("write metrics: %w", werr)
		}
	}
	s.store.Close()
	if cerr := s.db.Close(); cerr != nil && err == nil {
		err = fmt.Errorf("close database: %w", cerr)
	}
	_ = s.logger.Sync()
	return err
}

// withSession opens a session, runs fn and closes the session.
func withSession(g *GlobalFlags, fn func(*session) error) error {
	s, err := openSession(g)
	if err != nil {
		return err
	}
	runErr := fn(s)
	if err := s.close(); err != nil && runErr == nil {
		return err
	}
	return runErr
}

// printJSON writes v to stdout as indented JSON.
func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// jsonOutput reports whether --json was given.
func jsonOutput(g *GlobalFlags) bool {
	return g != nil && g.JSON
}

// parseDuration parses a duration like "30s", "5m", "2h", or the day and
// week forms "1d" and "2w".
func parseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, fmt.Errorf("invalid duration: empty string")
	}

	if len(s) >= 2 {
		n, err := strconv.Atoi(s[:len(s)-1])
		if err == nil {
			switch s[len(s)-1] {
			case 'd':
				return time.Duration(n) * 24 * time.Hour, nil
			case 'w':
				return time.Duration(n) * 7 * 24 * time.Hour, nil
			}
		}
	}

	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration: %q (use s, m, h, d or w suffix)", s)
	}
	return d, nil
}

// printFailures lists the selected filters that could not be evaluated.
func printFailures(failures []analysis.Failure) {
	for _, f := range failures {
		fmt.Fprintf(os.Stderr, "warning: filter %s skipped: %s\n", f.Filter, f.Error)
	}
}
