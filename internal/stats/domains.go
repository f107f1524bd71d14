package stats

import (
	"sort"

	"github.com/runnerr0/trailscope/internal/model"
)

// HostCount is one network location within a domain.
type HostCount struct {
	Netloc string `json:"netloc"`
	Count  int    `json:"count"`
}

// DomainCount is one canonical domain with the hosts seen under it.
type DomainCount struct {
	Domain string      `json:"domain"`
	Count  int         `json:"count"`
	Hosts  []HostCount `json:"hosts"`
}

// DomainRanking orders domains by visit count, then name, listing their
// hosts by name. Records without a domain are skipped. A limit of 0 or less
// returns every domain.
func DomainRanking(bundles []*model.Bundle, limit int) []DomainCount {
	index := make(map[string]*DomainCount)
	hosts := make(map[string]map[string]int)
	for _, b := range bundles {
		if !b.Valid() || b.URL == nil || !b.URL.Domain.Valid {
			continue
		}
		name := b.URL.Domain.String
		d, ok := index[name]
		if !ok {
			d = &DomainCount{Domain: name}
			index[name] = d
			hosts[name] = make(map[string]int)
		}
		d.Count++
		hosts[name][b.URL.Netloc]++
	}

	out := make([]DomainCount, 0, len(index))
	for name, d := range index {
		for netloc, c := range hosts[name] {
			d.Hosts = append(d.Hosts, HostCount{Netloc: netloc, Count: c})
		}
		sort.Slice(d.Hosts, func(i, j int) bool { return d.Hosts[i].Netloc < d.Hosts[j].Netloc })
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Domain < out[j].Domain
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
