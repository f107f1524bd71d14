package stats

import (
	"sort"

	"github.com/runnerr0/trailscope/internal/model"
)

// AveragePagesPerDay is the floored mean number of http and https accesses
// per day that has any.
func AveragePagesPerDay(bundles []*model.Bundle) int {
	perDay := make(map[string]int)
	total := 0
	for _, b := range bundles {
		if !b.Valid() || b.URL == nil {
			continue
		}
		if b.URL.Scheme != "http" && b.URL.Scheme != "https" {
			continue
		}
		perDay[b.AccessTime().Format("2006-01-02")]++
		total++
	}
	if len(perDay) == 0 {
		return 0
	}
	return total / len(perDay)
}

// BrowserShare is the fraction of accesses made with one browser.
type BrowserShare struct {
	Name     string  `json:"name"`
	Count    int     `json:"count"`
	Fraction float64 `json:"fraction"`
}

// BrowserShares returns each browser name's share of the valid accesses,
// ordered by name.
func BrowserShares(bundles []*model.Bundle) []BrowserShare {
	counts := make(map[string]int)
	total := 0
	for _, b := range bundles {
		if !b.Valid() || b.Browser == nil {
			continue
		}
		counts[b.Browser.Name]++
		total++
	}

	out := make([]BrowserShare, 0, len(counts))
	for name, c := range counts {
		out = append(out, BrowserShare{Name: name, Count: c, Fraction: float64(c) / float64(total)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
