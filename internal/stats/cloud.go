package stats

import (
	"sort"
	"time"

	"github.com/runnerr0/trailscope/internal/model"
)

// Search is one search phrase that produced a term, with when it was made.
type Search struct {
	Phrase string    `json:"phrase"`
	At     time.Time `json:"at"`
}

// CloudTerm is one entry of a search cloud.
type CloudTerm struct {
	Term       string   `json:"term"`
	Occurrence int64    `json:"occurrence"`
	Ratio      float64  `json:"ratio"`
	Count      int      `json:"count"`
	Searches   []Search `json:"searches"`
}

// SearchCloud summarises the terms searched on one engine.
type SearchCloud struct {
	Engine   string      `json:"engine"`
	Terms    []CloudTerm `json:"terms"`
	Total    int         `json:"total"`
	Unique   int         `json:"unique"`
	Smallest float64     `json:"smallest"`
}

// NewSearchCloud picks the engine's terms attached to bundles with the
// highest global occurrence, up to limit (0 or less for all). Each term
// lists the searches it came from, newest first, and its share of all
// searches in the cloud. Smallest starts at 1 and is the lowest share.
func NewSearchCloud(bundles []*model.Bundle, engine string, limit int) SearchCloud {
	type acc struct {
		term     *model.SearchTerm
		searches []Search
	}
	byTerm := make(map[string]*acc)
	for _, b := range bundles {
		if !b.Valid() {
			continue
		}
		phrase := ""
		if b.URL != nil {
			phrase = b.URL.Search.String
		}
		for _, t := range b.Terms {
			if t.Engine != engine {
				continue
			}
			a, ok := byTerm[t.Term]
			if !ok {
				a = &acc{term: t}
				byTerm[t.Term] = a
			}
			a.searches = append(a.searches, Search{Phrase: phrase, At: b.AccessTime()})
		}
	}

	ranked := make([]*acc, 0, len(byTerm))
	for _, a := range byTerm {
		ranked = append(ranked, a)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].term.Occurrence != ranked[j].term.Occurrence {
			return ranked[i].term.Occurrence > ranked[j].term.Occurrence
		}
		return ranked[i].term.Term < ranked[j].term.Term
	})
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}

	cloud := SearchCloud{Engine: engine, Unique: len(ranked), Smallest: 1, Terms: make([]CloudTerm, 0, len(ranked))}
	for _, a := range ranked {
		cloud.Total += len(a.searches)
	}
	for _, a := range ranked {
		sort.SliceStable(a.searches, func(i, j int) bool { return a.searches[i].At.After(a.searches[j].At) })
		ratio := float64(len(a.searches)) / float64(cloud.Total)
		cloud.Terms = append(cloud.Terms, CloudTerm{
			Term:       a.term.Term,
			Occurrence: a.term.Occurrence,
			Ratio:      ratio,
			Count:      len(a.searches),
			Searches:   a.searches,
		})
		if ratio < cloud.Smallest {
			cloud.Smallest = ratio
		}
	}
	return cloud
}
