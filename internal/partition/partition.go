// Package partition splits records into removed, highlighted and plain
// buckets.
package partition

import (
	"github.com/runnerr0/trailscope/internal/filter"
	"github.com/runnerr0/trailscope/internal/model"
)

// Matcher is a prepared query; *filter.Compiled satisfies it.
type Matcher interface {
	Match(b filter.Bundle) bool
}

// Result holds the three disjoint buckets, each in input order.
type Result struct {
	Removed     []*model.Bundle
	Highlighted []*model.Bundle
	Plain       []*model.Bundle

	highlighting bool
}

// Visible returns the records the domain ranking and search cloud work
// on: the highlighted ones when highlight filters were given, otherwise the
// plain ones.
func (r Result) Visible() []*model.Bundle {
	if r.highlighting {
		return r.Highlighted
	}
	return r.Plain
}

// Total returns the number of records placed in any bucket.
func (r Result) Total() int {
	return len(r.Removed) + len(r.Highlighted) + len(r.Plain)
}

// Partition classifies every valid candidate. A record matching any remove
// query is removed; of the rest, one matching any highlight query is
// highlighted and everything else is plain. With no highlight queries
// nothing is highlighted. Candidates without an access timestamp are left
// out of all three buckets.
func Partition(candidates []*model.Bundle, remove, highlight []Matcher) Result {
	res := Result{highlighting: len(highlight) > 0}
	for _, b := range candidates {
		if !b.Valid() {
			continue
		}
		switch {
		case matchesAny(remove, b):
			res.Removed = append(res.Removed, b)
		case matchesAny(highlight, b):
			res.Highlighted = append(res.Highlighted, b)
		default:
			res.Plain = append(res.Plain, b)
		}
	}
	return res
}

func matchesAny(ms []Matcher, b *model.Bundle) bool {
	for _, m := range ms {
		if m.Match(b) {
			return true
		}
	}
	return false
}

// Matchers adapts compiled filters to the Matcher slice Partition takes.
func Matchers(cs []*filter.Compiled) []Matcher {
	out := make([]Matcher, len(cs))
	for i, c := range cs {
		out[i] = c
	}
	return out
}
