package model

import (
	"time"

	"github.com/runnerr0/trailscope/internal/filter"
)

// Bundle joins an entry with its URL, browser, group and search terms.
type Bundle struct {
	Entry   *Entry
	URL     *URL
	Browser *Browser
	Group   *Group
	Terms   []*SearchTerm
}

// Valid reports whether the entry carries an access timestamp. Bundles
// without one are excluded from every aggregation.
func (b *Bundle) Valid() bool {
	return b != nil && b.Entry != nil && b.Entry.AccessTime.Valid
}

// AccessTime returns the access timestamp, or the zero time when unset.
func (b *Bundle) AccessTime() time.Time {
	if b.Entry == nil || !b.Entry.AccessTime.Valid {
		return time.Time{}
	}
	return b.Entry.AccessTime.Time
}

// Object implements filter.Bundle. Missing parts yield nil.
func (b *Bundle) Object(class filter.Class) filter.Filterable {
	switch class {
	case filter.ClassEntry:
		if b.Entry != nil {
			return b.Entry
		}
	case filter.ClassURL:
		if b.URL != nil {
			return b.URL
		}
	case filter.ClassBrowser:
		if b.Browser != nil {
			return b.Browser
		}
	case filter.ClassGroup:
		if b.Group != nil {
			return b.Group
		}
	}
	return nil
}

// SearchTerms implements filter.Bundle.
func (b *Bundle) SearchTerms() []filter.Filterable {
	out := make([]filter.Filterable, len(b.Terms))
	for i, t := range b.Terms {
		out[i] = t
	}
	return out
}

// Snapshot is an immutable view of a case loaded for one evaluation.
type Snapshot struct {
	Case    Case
	Groups  []Group
	Bundles []*Bundle
}

// Valid returns the bundles that carry an access timestamp.
func (s *Snapshot) Valid() []*Bundle {
	return ValidOnly(s.Bundles)
}

// Latest returns the newest access timestamp in the snapshot.
func (s *Snapshot) Latest() (time.Time, bool) {
	var latest time.Time
	found := false
	for _, b := range s.Bundles {
		if !b.Valid() {
			continue
		}
		if t := b.AccessTime(); !found || t.After(latest) {
			latest, found = t, true
		}
	}
	return latest, found
}

// ValidOnly drops bundles without an access timestamp.
func ValidOnly(bundles []*Bundle) []*Bundle {
	out := make([]*Bundle, 0, len(bundles))
	for _, b := range bundles {
		if b.Valid() {
			out = append(out, b)
		}
	}
	return out
}
