// Package searchterms pulls search phrases out of search-engine result URLs
// and splits them into the terms tracked per engine.
package searchterms

import (
	"net/url"
	"strings"

	"github.com/runnerr0/trailscope/internal/config"
	"github.com/runnerr0/trailscope/internal/model"
)

// Extractor is immutable after construction and safe for concurrent use.
type Extractor struct {
	stop    map[string]bool
	engines []config.SearchEngine
}

// New returns an Extractor that drops stopWords from unquoted queries and
// recognises the given engines in order.
func New(stopWords []string, engines []config.SearchEngine) *Extractor {
	x := &Extractor{
		stop:    make(map[string]bool, len(stopWords)),
		engines: append([]config.SearchEngine(nil), engines...),
	}
	for _, w := range stopWords {
		x.stop[strings.ToLower(w)] = true
	}
	return x
}

// FromConfig builds an Extractor from the ingest configuration.
func FromConfig(cfg config.IngestConfig) *Extractor {
	return New(cfg.StopWords, cfg.SearchEngines)
}

// Extract splits a raw query value into its terms. Quoted segments are kept
// whole as phrases; segments joined by "+" are split and filtered against
// the stop words. The returned query has "+" replaced by spaces and quotes
// removed.
func (x *Extractor) Extract(query string) (string, []string) {
	normalized := strings.Join(strings.Fields(strings.NewReplacer("+", " ", `"`, " ").Replace(query)), " ")

	segments := strings.Split(query, `"`)
	var terms []string
	if len(segments) == 1 {
		terms = x.tokens(query, terms)
		return normalized, dedupe(terms)
	}

	for _, seg := range segments {
		if seg == "" {
			continue
		}
		if strings.HasPrefix(seg, "+") || strings.HasSuffix(seg, "+") {
			terms = x.tokens(seg, terms)
			continue
		}
		phrase := strings.Join(strings.Fields(strings.ReplaceAll(seg, "+", " ")), " ")
		if phrase != "" {
			terms = append(terms, strings.ToLower(phrase))
		}
	}
	return normalized, dedupe(terms)
}

func (x *Extractor) tokens(s string, out []string) []string {
	for _, tok := range strings.Split(s, "+") {
		tok = strings.ToLower(strings.TrimSpace(tok))
		if tok == "" || x.stop[tok] {
			continue
		}
		out = append(out, tok)
	}
	return out
}

func dedupe(terms []string) []string {
	seen := make(map[string]bool, len(terms))
	out := terms[:0]
	for _, t := range terms {
		if seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

// Match is a search detected in a URL.
type Match struct {
	Engine config.SearchEngine
	Query  string
	Terms  []string
}

// Detect reports whether u is a search result page of a configured engine:
// its path mentions "search" and its network location contains the engine
// key. The first matching engine wins. The engine's query parameter is
// unescaped without turning "+" into spaces so Extract can still see the
// word boundaries.
func (x *Extractor) Detect(u model.URL) (Match, bool) {
	if u.Query == "" || !strings.Contains(u.Path, "search") {
		return Match{}, false
	}
	netloc := strings.ToLower(u.Netloc)
	for _, e := range x.engines {
		if !strings.Contains(netloc, strings.ToLower(e.Key)) {
			continue
		}
		raw, ok := param(u.Query, e.Param)
		if !ok {
			return Match{}, false
		}
		if v, err := url.PathUnescape(raw); err == nil {
			raw = v
		}
		q, terms := x.Extract(raw)
		return Match{Engine: e, Query: q, Terms: terms}, true
	}
	return Match{}, false
}

// param returns the last value of key in a raw query string.
func param(query, key string) (string, bool) {
	var (
		value string
		found bool
	)
	for _, pair := range strings.Split(query, "&") {
		k, v, _ := strings.Cut(pair, "=")
		if k == key {
			value, found = v, true
		}
	}
	return value, found
}

type termKey struct {
	Term   string
	Engine string
}

// EngineCount summarises the terms a batch attached to one engine.
type EngineCount struct {
	Engine       string `json:"engine"`
	Terms        int    `json:"terms"`
	Associations int64  `json:"associations"`
}

// Tally counts term occurrences per engine in memory. A term seen for the
// first time starts at 1; every further association adds 1.
type Tally struct {
	counts  map[termKey]int64
	engines []string
}

// NewTally returns an empty Tally.
func NewTally() *Tally {
	return &Tally{counts: make(map[termKey]int64)}
}

// Add records one association of each term with engine.
func (t *Tally) Add(engine string, terms []string) {
	for _, term := range terms {
		k := termKey{Term: term, Engine: engine}
		if !t.hasEngine(engine) {
			t.engines = append(t.engines, engine)
		}
		t.counts[k]++
	}
}

func (t *Tally) hasEngine(engine string) bool {
	for _, e := range t.engines {
		if e == engine {
			return true
		}
	}
	return false
}

// Engines returns the distinct terms and total associations of every
// engine, in the order the engines were first seen.
func (t *Tally) Engines() []EngineCount {
	out := make([]EngineCount, len(t.engines))
	index := make(map[string]int, len(t.engines))
	for i, e := range t.engines {
		out[i].Engine = e
		index[e] = i
	}
	for k, n := range t.counts {
		ec := &out[index[k.Engine]]
		ec.Terms++
		ec.Associations += n
	}
	return out
}
