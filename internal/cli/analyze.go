package cli

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/runnerr0/trailscope/internal/analysis"
	"github.com/runnerr0/trailscope/internal/stats"
	"github.com/runnerr0/trailscope/internal/timeline"
	"github.com/runnerr0/trailscope/internal/urlnorm"
)

func selection(remove, highlight []string) analysis.Selection {
	return analysis.Selection{Remove: remove, Highlight: highlight}
}

// withService runs fn with an analysis service over the session.
func withService(s *session, fn func(*analysis.Service) error) error {
	svc, release, err := s.service()
	if err != nil {
		return err
	}
	defer release()
	return fn(svc)
}

// Execute implements the go-flags Commander interface for PlotCommand.
func (c *PlotCommand) Execute(args []string) error {
	return withSession(c.globals, c.executeWithSession)
}

// executeWithSession computes the plot over a provided session (for testing).
func (c *PlotCommand) executeWithSession(s *session) error {
	var dedup time.Duration
	if c.Dedup != "" {
		d, err := parseDuration(c.Dedup)
		if err != nil {
			return fmt.Errorf("invalid --dedup value: %w", err)
		}
		dedup = d
	}

	return withService(s, func(svc *analysis.Service) error {
		ctx := context.Background()

		var window *timeline.Window
		if c.FromDate != "" || c.ToDate != "" || c.FromTime != "" || c.ToTime != "" {
			fallback, err := svc.DefaultWindow(ctx)
			if err != nil {
				return err
			}
			w, err := timeline.ParseWindow(fallback, c.FromDate, c.ToDate, c.FromTime, c.ToTime)
			if err != nil {
				return fmt.Errorf("invalid window: %w", err)
			}
			window = &w
		}

		res, err := svc.Plot(ctx, selection(c.Remove, c.Highlight), window, dedup)
		if err != nil {
			return err
		}

		if jsonOutput(c.globals) {
			return printJSON(res)
		}
		printFailures(res.Failures)
		return c.printPlotHuman(res)
	})
}

func (c *PlotCommand) printPlotHuman(res *analysis.PlotResult) error {
	fmt.Printf("Window:       %s .. %s, %s - %s\n",
		res.From, res.To, clockText(res.Window.FromTime), clockText(res.Window.ToTime))
	fmt.Printf("Highlighted:  %s\n", humanize.Comma(int64(len(res.Series.Highlighted))))
	fmt.Printf("Plain:        %s\n", humanize.Comma(int64(len(res.Series.Plain))))
	fmt.Printf("Removed:      %s\n", humanize.Comma(int64(len(res.Series.Removed))))

	if !c.Points {
		return nil
	}
	buckets := []struct {
		mark   string
		points []timeline.Point
	}{
		{"H", res.Series.Highlighted},
		{" ", res.Series.Plain},
		{"R", res.Series.Removed},
	}
	fmt.Println()
	for _, b := range buckets {
		for _, p := range b.points {
			day := time.UnixMilli(p.Millis).UTC().Format("2006-01-02")
			fmt.Printf("%s %s %s  %-10s %s\n", b.mark, day, hourText(p.Hour), p.BrowserName, p.URL)
		}
	}
	return nil
}

func clockText(d time.Duration) string {
	return fmt.Sprintf("%02d:%02d:%02d", int(d/time.Hour), int(d%time.Hour/time.Minute), int(d%time.Minute/time.Second))
}

func hourText(h float64) string {
	return clockText(time.Duration(math.Round(h*3600)) * time.Second)
}

// Execute implements the go-flags Commander interface for OverviewCommand.
func (c *OverviewCommand) Execute(args []string) error {
	return withSession(c.globals, c.executeWithSession)
}

// executeWithSession computes the overview over a provided session (for testing).
func (c *OverviewCommand) executeWithSession(s *session) error {
	return withService(s, func(svc *analysis.Service) error {
		ov, err := svc.Overview(context.Background())
		if err != nil {
			return err
		}
		if jsonOutput(c.globals) {
			return printJSON(ov)
		}
		return printOverviewHuman(ov)
	})
}

func printOverviewHuman(ov *analysis.Overview) error {
	fmt.Printf("Case:            %s\n", ov.Case)
	fmt.Printf("Records:         %s\n", humanize.Comma(int64(ov.Records)))
	fmt.Printf("Pages per day:   %s\n", humanize.Comma(int64(ov.AveragePages)))
	peak := ov.PeakHour
	if peak == "" {
		peak = "-"
	}
	fmt.Printf("Peak hour:       %s\n", peak)

	fmt.Println()
	fmt.Printf("%-15s", "")
	for _, h := range ov.Heatmap.Headers {
		fmt.Printf(" %5s", h)
	}
	fmt.Println()
	for _, row := range ov.Heatmap.Rows {
		fmt.Printf("%-15s", row.Label)
		for _, n := range row.Counts {
			fmt.Printf(" %5d", n)
		}
		fmt.Println()
	}

	if len(ov.Browsers) > 0 {
		fmt.Println()
		fmt.Println("Browsers:")
		for _, b := range ov.Browsers {
			fmt.Printf("  %-20s %8s  %5.1f%%\n", b.Name, humanize.Comma(int64(b.Count)), b.Fraction*100)
		}
	}
	return nil
}

// limit maps the --limit flag: 0 takes the configured default and a
// negative value means no limit.
func limit(flag, configured int) int {
	switch {
	case flag < 0:
		return 0
	case flag == 0:
		return configured
	default:
		return flag
	}
}

// Execute implements the go-flags Commander interface for DomainsCommand.
func (c *DomainsCommand) Execute(args []string) error {
	return withSession(c.globals, c.executeWithSession)
}

// executeWithSession ranks domains over a provided session (for testing).
func (c *DomainsCommand) executeWithSession(s *session) error {
	return withService(s, func(svc *analysis.Service) error {
		res, err := svc.Domains(context.Background(),
			selection(c.Remove, c.Highlight), limit(c.Limit, s.cfg.Analysis.DomainLimit))
		if err != nil {
			return err
		}
		if jsonOutput(c.globals) {
			return printJSON(res)
		}
		printFailures(res.Failures)

		if len(res.Domains) == 0 {
			fmt.Println("No domains")
			return nil
		}
		for i, d := range res.Domains {
			fmt.Printf("%3d. %-32s %8s\n", i+1, d.Domain, humanize.Comma(int64(d.Count)))
			for _, h := range d.Hosts {
				fmt.Printf("       %-30s %8s\n", h.Netloc, humanize.Comma(int64(h.Count)))
			}
		}
		return nil
	})
}

// Execute implements the go-flags Commander interface for SearchesCommand.
func (c *SearchesCommand) Execute(args []string) error {
	return withSession(c.globals, c.executeWithSession)
}

// executeWithSession builds the search clouds over a provided session (for testing).
func (c *SearchesCommand) executeWithSession(s *session) error {
	return withService(s, func(svc *analysis.Service) error {
		res, err := svc.Searches(context.Background(),
			selection(c.Remove, c.Highlight), limit(c.Limit, s.cfg.Analysis.SearchLimit))
		if err != nil {
			return err
		}
		if jsonOutput(c.globals) {
			return printJSON(res)
		}
		printFailures(res.Failures)

		for _, e := range res.Engines {
			if e.Total == 0 {
				continue
			}
			fmt.Printf("%s: %s searches, %s unique terms\n",
				e.Name, humanize.Comma(int64(e.Total)), humanize.Comma(int64(e.Unique)))
			for _, t := range e.Terms {
				fmt.Printf("  %-30s %6d  %5.1f%%\n", t.Term, t.Occurrence, t.Ratio*100)
			}
			fmt.Println()
		}
		return nil
	})
}

// Execute implements the go-flags Commander interface for FilesCommand.
func (c *FilesCommand) Execute(args []string) error {
	return withSession(c.globals, c.executeWithSession)
}

// executeWithSession builds the file tree over a provided session (for testing).
func (c *FilesCommand) executeWithSession(s *session) error {
	return withService(s, func(svc *analysis.Service) error {
		tree, err := svc.Files(context.Background())
		if err != nil {
			return err
		}
		if jsonOutput(c.globals) {
			return printJSON(tree)
		}

		fmt.Printf("Files accessed: %s\n", humanize.Comma(int64(tree.Files)))
		for _, d := range tree.Drives {
			fmt.Printf("%s: (%s)\n", d.Letter, humanize.Comma(int64(d.Total)))
			for _, cat := range d.Categories {
				fmt.Printf("  %s (%s)\n", cat.Name, humanize.Comma(int64(cat.Total)))
				printFileNode(cat.Root, 2)
			}
		}
		return nil
	})
}

func printFileNode(n *stats.FileNode, depth int) {
	for _, child := range n.Children {
		indent := strings.Repeat("  ", depth)
		if len(child.Children) == 0 {
			last := ""
			if len(child.Accessed) > 0 {
				last = child.Accessed[0].Format("2006-01-02 15:04")
			}
			fmt.Printf("%s%s  x%d  %s\n", indent, child.Name, child.Count, last)
			continue
		}
		fmt.Printf("%s%s/\n", indent, child.Name)
		printFileNode(child, depth+1)
	}
}

// Execute implements the go-flags Commander interface for RecomputeDomainsCommand.
func (c *RecomputeDomainsCommand) Execute(args []string) error {
	return withSession(c.globals, c.executeWithSession)
}

// executeWithSession recomputes domains in a provided session (for testing).
func (c *RecomputeDomainsCommand) executeWithSession(s *session) error {
	changed, err := s.store.RecomputeDomains(context.Background(), urlnorm.FromConfig(s.cfg.Ingest))
	if err != nil {
		return err
	}
	if jsonOutput(c.globals) {
		return printJSON(map[string]interface{}{"changed": changed})
	}
	fmt.Printf("Recomputed domains: %s changed\n", humanize.Comma(changed))
	return nil
}
