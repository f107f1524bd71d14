// Package analysis ties the record store, the filter compiler and the
// aggregators together for the command line.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/runnerr0/trailscope/internal/apperrors"
	"github.com/runnerr0/trailscope/internal/config"
	"github.com/runnerr0/trailscope/internal/filter"
	"github.com/runnerr0/trailscope/internal/logging"
	"github.com/runnerr0/trailscope/internal/metrics"
	"github.com/runnerr0/trailscope/internal/model"
	"github.com/runnerr0/trailscope/internal/partition"
	"github.com/runnerr0/trailscope/internal/stats"
	"github.com/runnerr0/trailscope/internal/timeline"
)

// Store is the read side of the record store the service needs.
type Store interface {
	Snapshot(ctx context.Context) (*model.Snapshot, error)
	GetFilter(ctx context.Context, label string) (*filter.Filter, error)
}

// Selection names the saved filters that remove and highlight records.
type Selection struct {
	Remove    []string
	Highlight []string
}

// Failure reports a selected filter that could not be evaluated. The rest
// of the selection was still applied.
type Failure struct {
	Filter string `json:"filter"`
	Error  string `json:"error"`
}

// Service runs analyses over one snapshot per call. It keeps no state
// between calls and may be used concurrently.
type Service struct {
	store    Store
	compiler *filter.Compiler
	cfg      *config.Config
	logger   *zap.Logger
	metrics  *metrics.Metrics
}

// NewService returns a Service. logger and m may be nil.
func NewService(store Store, compiler *filter.Compiler, cfg *config.Config, logger *zap.Logger, m *metrics.Metrics) *Service {
	return &Service{
		store:    store,
		compiler: compiler,
		cfg:      cfg,
		logger:   logging.OrNop(logger),
		metrics:  m,
	}
}

type prepared struct {
	snap      *model.Snapshot
	remove    []partition.Matcher
	highlight []partition.Matcher
	failures  []Failure
}

func (s *Service) prepare(ctx context.Context, sel Selection) (*prepared, error) {
	snap, err := s.store.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}

	p := &prepared{snap: snap}
	if p.remove, err = s.compile(ctx, sel.Remove, p); err != nil {
		return nil, err
	}
	if p.highlight, err = s.compile(ctx, sel.Highlight, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) compile(ctx context.Context, labels []string, p *prepared) ([]partition.Matcher, error) {
	filters := make([]*filter.Filter, 0, len(labels))
	for _, label := range labels {
		f, err := s.store.GetFilter(ctx, label)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return nil, fmt.Errorf("filter %q: %w", label, err)
			}
			return nil, fmt.Errorf("load filter %q: %w", label, err)
		}
		filters = append(filters, f)
	}

	compiled, failed := s.compiler.CompileAll(filters)
	for _, ee := range failed {
		s.metrics.FilterFailed(ee)
		p.failures = append(p.failures, Failure{Filter: ee.Filter, Error: ee.Err.Error()})
	}
	return partition.Matchers(compiled), nil
}

// PlotResult is the time series with the window it covers.
type PlotResult struct {
	Window   timeline.Window `json:"-"`
	From     string          `json:"from"`
	To       string          `json:"to"`
	Series   timeline.Series `json:"series"`
	Failures []Failure       `json:"failures,omitempty"`
}

// Plot computes the time series. A nil window covers the two months around
// the newest record.
func (s *Service) Plot(ctx context.Context, sel Selection, window *timeline.Window, dedup time.Duration) (*PlotResult, error) {
	start := time.Now()
	p, err := s.prepare(ctx, sel)
	if err != nil {
		return nil, err
	}

	w := s.defaultWindow(p.snap)
	if window != nil {
		w = *window
	}

	series, err := timeline.Plot(p.snap.Bundles, timeline.Options{
		Window:    w,
		Remove:    p.remove,
		Highlight: p.highlight,
		Dedup:     dedup,
	})
	if err != nil {
		return nil, fmt.Errorf("plot: %w", err)
	}
	s.metrics.Partitioned(len(series.Removed), len(series.Highlighted), len(series.Plain))
	s.metrics.Since("plot", start)

	s.logger.Debug("Plot computed",
		zap.Int("highlighted", len(series.Highlighted)),
		zap.Int("plain", len(series.Plain)),
		zap.Int("removed", len(series.Removed)),
		zap.Int("failures", len(p.failures)))

	return &PlotResult{
		Window:   w,
		From:     w.FromDate.Format("2006-01-02"),
		To:       w.ToDate.Format("2006-01-02"),
		Series:   series,
		Failures: p.failures,
	}, nil
}

// DefaultWindow returns the window Plot uses when none is given.
func (s *Service) DefaultWindow(ctx context.Context) (timeline.Window, error) {
	snap, err := s.store.Snapshot(ctx)
	if err != nil {
		return timeline.Window{}, fmt.Errorf("load snapshot: %w", err)
	}
	return s.defaultWindow(snap), nil
}

func (s *Service) defaultWindow(snap *model.Snapshot) timeline.Window {
	latest, ok := snap.Latest()
	if !ok {
		latest = time.Now().UTC()
	}
	return timeline.DefaultWindow(latest)
}

func (s *Service) visible(p *prepared) []*model.Bundle {
	res := partition.Partition(p.snap.Bundles, p.remove, p.highlight)
	s.metrics.Partitioned(len(res.Removed), len(res.Highlighted), len(res.Plain))
	return res.Visible()
}

// DomainsResult is the domain ranking of the visible records.
type DomainsResult struct {
	Domains  []stats.DomainCount `json:"domains"`
	Failures []Failure           `json:"failures,omitempty"`
}

// Domains ranks the domains of the visible records. limit 0 ranks all.
func (s *Service) Domains(ctx context.Context, sel Selection, limit int) (*DomainsResult, error) {
	start := time.Now()
	p, err := s.prepare(ctx, sel)
	if err != nil {
		return nil, err
	}
	out := &DomainsResult{
		Domains:  stats.DomainRanking(s.visible(p), limit),
		Failures: p.failures,
	}
	s.metrics.Since("domains", start)
	return out, nil
}

// EngineCloud is the search cloud of one configured engine.
type EngineCloud struct {
	Name string `json:"name"`
	stats.SearchCloud
}

// SearchesResult holds one cloud per configured search engine.
type SearchesResult struct {
	Engines  []EngineCloud `json:"engines"`
	Failures []Failure     `json:"failures,omitempty"`
}

// Searches builds the search cloud of every configured engine over the
// visible records.
func (s *Service) Searches(ctx context.Context, sel Selection, limit int) (*SearchesResult, error) {
	start := time.Now()
	p, err := s.prepare(ctx, sel)
	if err != nil {
		return nil, err
	}

	visible := s.visible(p)
	out := &SearchesResult{Failures: p.failures}
	for _, e := range s.cfg.Ingest.SearchEngines {
		out.Engines = append(out.Engines, EngineCloud{
			Name:        e.Name,
			SearchCloud: stats.NewSearchCloud(visible, e.Key, limit),
		})
	}
	s.metrics.Since("searches", start)
	return out, nil
}

// Files builds the file-access tree over every record.
func (s *Service) Files(ctx context.Context) (*stats.FileTree, error) {
	start := time.Now()
	snap, err := s.store.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	tree := stats.NewFileTree(snap.Bundles, s.cfg.Files.Categories)
	s.metrics.Since("files", start)
	return &tree, nil
}

// Overview is the summary shown for a whole case.
type Overview struct {
	Case         string               `json:"case"`
	Records      int                  `json:"records"`
	Heatmap      stats.Heatmap        `json:"heatmap"`
	AveragePages int                  `json:"average_pages_per_day"`
	PeakHour     string               `json:"peak_hour"`
	Browsers     []stats.BrowserShare `json:"browsers"`
}

// Overview computes the case summary. The aggregates run concurrently over
// the same snapshot.
func (s *Service) Overview(ctx context.Context) (*Overview, error) {
	start := time.Now()
	snap, err := s.store.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}

	bundles := snap.Valid()
	step := s.cfg.Analysis.HeatmapStepHours
	out := &Overview{Case: snap.Case.Name, Records: len(bundles)}

	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer s.metrics.Since("heatmap", time.Now())
		h, err := stats.NewHeatmap(bundles, step)
		if err != nil {
			return fmt.Errorf("heatmap: %w", err)
		}
		out.Heatmap = h
		return nil
	})
	g.Go(func() error {
		defer s.metrics.Since("peak_hour", time.Now())
		peak, err := stats.PeakHour(bundles, step)
		if err != nil {
			return fmt.Errorf("peak hour: %w", err)
		}
		out.PeakHour = peak
		return nil
	})
	g.Go(func() error {
		defer s.metrics.Since("average_pages", time.Now())
		out.AveragePages = stats.AveragePagesPerDay(bundles)
		return nil
	})
	g.Go(func() error {
		defer s.metrics.Since("browsers", time.Now())
		out.Browsers = stats.BrowserShares(bundles)
		return nil
	})
	if err := g.Wait(); err != nil {
		s.logger.Error("Overview failed", zap.Error(err))
		return nil, err
	}

	s.metrics.Since("overview", start)
	s.logger.Debug("Overview computed", zap.Int("records", out.Records), zap.Duration("took", time.Since(start)))
	return out, nil
}
