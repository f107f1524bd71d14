// Package timeline builds the per-bucket plot series of record accesses
// over a date and time-of-day window.
package timeline

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/runnerr0/trailscope/internal/model"
	"github.com/runnerr0/trailscope/internal/partition"
)

const (
	dateLayout = "2006-01-02"
	lastSecond = 24*time.Hour - time.Second
)

// Window bounds a plot. Dates are civil days and both ranges are
// inclusive.
type Window struct {
	FromDate time.Time
	ToDate   time.Time
	FromTime time.Duration
	ToTime   time.Duration
}

// DefaultWindow covers the first day of the month before latest and the
// 62 days that follow, over the whole day.
func DefaultWindow(latest time.Time) Window {
	start := time.Date(latest.Year(), latest.Month()-1, 1, 0, 0, 0, 0, time.UTC)
	return Window{
		FromDate: start,
		ToDate:   start.AddDate(0, 0, 62),
		FromTime: 0,
		ToTime:   lastSecond,
	}
}

// ParseWindow reads a window from its text form. Empty arguments keep the
// value from fallback.
func ParseWindow(fallback Window, fromDate, toDate, fromTime, toTime string) (Window, error) {
	w := fallback
	var err error
	if fromDate != "" {
		if w.FromDate, err = time.Parse(dateLayout, fromDate); err != nil {
			return Window{}, fmt.Errorf("parse from date: %w", err)
		}
	}
	if toDate != "" {
		if w.ToDate, err = time.Parse(dateLayout, toDate); err != nil {
			return Window{}, fmt.Errorf("parse to date: %w", err)
		}
	}
	if fromTime != "" {
		if w.FromTime, err = parseClock(fromTime); err != nil {
			return Window{}, fmt.Errorf("parse from time: %w", err)
		}
	}
	if toTime != "" {
		if w.ToTime, err = parseClock(toTime); err != nil {
			return Window{}, fmt.Errorf("parse to time: %w", err)
		}
	}
	return w, w.Validate()
}

func parseClock(s string) (time.Duration, error) {
	for _, layout := range []string{"15:04:05", "15:04"} {
		if t, err := time.Parse(layout, s); err == nil {
			return clock(t), nil
		}
	}
	return 0, fmt.Errorf("%q is not a time (HH:MM[:SS])", s)
}

// Validate rejects inverted or out-of-day bounds.
func (w Window) Validate() error {
	if civil(w.ToDate).Before(civil(w.FromDate)) {
		return fmt.Errorf("window ends %s before it starts %s", w.ToDate.Format(dateLayout), w.FromDate.Format(dateLayout))
	}
	if w.FromTime < 0 || w.ToTime > lastSecond || w.FromTime > w.ToTime {
		return fmt.Errorf("time of day range %s to %s is invalid", w.FromTime, w.ToTime)
	}
	return nil
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	day := civil(t)
	if day.Before(civil(w.FromDate)) || day.After(civil(w.ToDate)) {
		return false
	}
	tod := clock(t)
	return tod >= w.FromTime && tod <= w.ToTime
}

func civil(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func clock(t time.Time) time.Duration {
	return time.Duration(t.Hour())*time.Hour +
		time.Duration(t.Minute())*time.Minute +
		time.Duration(t.Second())*time.Second
}

// Point is one plotted access. It encodes to JSON as a positional array:
// [millis, hour, url, browser, version, source, program, title].
type Point struct {
	Millis         int64
	Hour           float64
	URL            string
	BrowserName    string
	BrowserVersion string
	BrowserSource  string
	Program        string
	Title          string

	day time.Time
	tod time.Duration
}

func (p Point) MarshalJSON() ([]byte, error) {
	return json.Marshal([]interface{}{
		p.Millis, p.Hour, p.URL, p.BrowserName, p.BrowserVersion,
		p.BrowserSource, p.Program, p.Title,
	})
}

// Series holds the plot points of each bucket in chronological order.
type Series struct {
	Highlighted []Point `json:"highlighted"`
	Plain       []Point `json:"plain"`
	Removed     []Point `json:"removed"`
}

// Options configure Plot. A zero Dedup keeps every point.
type Options struct {
	Window    Window
	Remove    []partition.Matcher
	Highlight []partition.Matcher
	Dedup     time.Duration
}

// Plot partitions the records inside the window and maps each bucket to
// sorted, optionally deduplicated, plot points.
func Plot(bundles []*model.Bundle, opts Options) (Series, error) {
	if err := opts.Window.Validate(); err != nil {
		return Series{}, err
	}
	if opts.Dedup < 0 {
		return Series{}, fmt.Errorf("dedup threshold %s is negative", opts.Dedup)
	}

	inWindow := make([]*model.Bundle, 0, len(bundles))
	for _, b := range bundles {
		if b.Valid() && opts.Window.Contains(b.AccessTime()) {
			inWindow = append(inWindow, b)
		}
	}

	res := partition.Partition(inWindow, opts.Remove, opts.Highlight)
	return Series{
		Highlighted: series(res.Highlighted, opts.Dedup),
		Plain:       series(res.Plain, opts.Dedup),
		Removed:     series(res.Removed, opts.Dedup),
	}, nil
}

func series(bundles []*model.Bundle, dedup time.Duration) []Point {
	sorted := append([]*model.Bundle(nil), bundles...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].AccessTime().Before(sorted[j].AccessTime())
	})

	points := make([]Point, 0, len(sorted))
	for _, b := range sorted {
		p := NewPoint(b)
		if dedup > 0 && len(points) > 0 {
			last := points[len(points)-1]
			if last.day.Equal(p.day) && p.tod-last.tod < dedup {
				continue
			}
		}
		points = append(points, p)
	}
	return points
}

// NewPoint maps a record to its plot point. The x value is the UTC
// midnight of the access date in milliseconds.
func NewPoint(b *model.Bundle) Point {
	at := b.AccessTime()
	p := Point{
		day:   civil(at),
		tod:   clock(at),
		URL:   b.Entry.URL,
		Title: "--",
	}
	p.Millis = p.day.UnixMilli()
	p.Hour = p.tod.Hours()
	if b.Entry.Title.Valid && b.Entry.Title.String != "" {
		p.Title = b.Entry.Title.String
	}
	if b.Browser != nil {
		p.BrowserName = b.Browser.Name
		p.BrowserVersion = b.Browser.Version.String
		p.BrowserSource = b.Browser.Source.String
	}
	if b.Group != nil {
		p.Program = b.Group.Program
	}
	return p
}
