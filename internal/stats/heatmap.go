// Package stats computes the overview aggregates of a case: weekday by hour
// heatmap, daily averages, peak hour, domain ranking, file-access tree,
// search cloud and browser share.
package stats

import (
	"fmt"
	"time"

	"github.com/runnerr0/trailscope/internal/model"
)

// Weekdays labels the heatmap columns, Monday first.
var Weekdays = []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

// HeatmapRow is one hour bucket across the week.
type HeatmapRow struct {
	Label  string `json:"label"`
	Counts [7]int `json:"counts"`
}

// Heatmap counts accesses per weekday and hour bucket. Low starts at 0, so
// empty cells keep it there.
type Heatmap struct {
	Headers []string     `json:"headers"`
	Rows    []HeatmapRow `json:"rows"`
	High    int          `json:"high"`
	Low     int          `json:"low"`
}

func checkStep(stepHours int) error {
	if stepHours <= 0 || stepHours > 24 || 24%stepHours != 0 {
		return fmt.Errorf("hour step %d must divide 24", stepHours)
	}
	return nil
}

// BucketLabel names the bucket starting at hour, e.g. "09:00 - 09:59".
func BucketLabel(hour, stepHours int) string {
	end := time.Duration(hour+stepHours)*time.Hour - time.Millisecond
	return fmt.Sprintf("%02d:00 - %02d:%02d", hour, int(end/time.Hour), int(end%time.Hour/time.Minute))
}

// NewHeatmap builds the weekday by hour-bucket grid over the valid bundles.
func NewHeatmap(bundles []*model.Bundle, stepHours int) (Heatmap, error) {
	if err := checkStep(stepHours); err != nil {
		return Heatmap{}, err
	}

	n := 24 / stepHours
	h := Heatmap{Headers: Weekdays, Rows: make([]HeatmapRow, n)}
	for i := range h.Rows {
		h.Rows[i].Label = BucketLabel(i*stepHours, stepHours)
	}

	for _, b := range bundles {
		if !b.Valid() {
			continue
		}
		at := b.AccessTime()
		day := (int(at.Weekday()) + 6) % 7
		h.Rows[at.Hour()/stepHours].Counts[day]++
	}

	for _, row := range h.Rows {
		for _, c := range row.Counts {
			if c > h.High {
				h.High = c
			}
			if c < h.Low {
				h.Low = c
			}
		}
	}
	return h, nil
}

// PeakHour returns the label of the busiest hour bucket summed over the
// week. Ties go to the earlier bucket; with no records it returns "".
func PeakHour(bundles []*model.Bundle, stepHours int) (string, error) {
	if err := checkStep(stepHours); err != nil {
		return "", err
	}

	totals := make([]int, 24/stepHours)
	for _, b := range bundles {
		if b.Valid() {
			totals[b.AccessTime().Hour()/stepHours]++
		}
	}

	best, label := 0, ""
	for i, c := range totals {
		if c > best {
			best, label = c, BucketLabel(i*stepHours, stepHours)
		}
	}
	return label, nil
}
