package filter

import (
	"fmt"
	"strings"

	"github.com/dgraph-io/ristretto"
	"github.com/dlclark/regexp2"
	"go.uber.org/zap"
)

// Filterable exposes the attributes of one record class by name.
type Filterable interface {
	Attribute(name Attribute) (Value, bool)
}

// Bundle is the joined view of a record the evaluator reads: one object per
// class plus the record's search terms.
type Bundle interface {
	Object(class Class) Filterable
	SearchTerms() []Filterable
}

type predicate struct {
	class Class
	attr  Attribute
	test  func(Value) bool
}

func (p predicate) holds(obj Filterable) bool {
	if obj == nil {
		return false
	}
	v, ok := obj.Attribute(p.attr)
	if !ok {
		return false
	}
	return p.test(v)
}

// Compiled is a filter ready for evaluation against bundles. It is safe for
// concurrent use.
type Compiled struct {
	filter *Filter
	record []predicate
	terms  []predicate
}

// Filter returns the filter this was compiled from.
func (c *Compiled) Filter() *Filter { return c.filter }

// Match reports whether every element of the query holds for b. Search-term
// elements hold when a single associated term satisfies all of them.
func (c *Compiled) Match(b Bundle) bool {
	for _, p := range c.record {
		if !p.holds(b.Object(p.class)) {
			return false
		}
	}
	if len(c.terms) == 0 {
		return true
	}
	for _, t := range b.SearchTerms() {
		all := true
		for _, p := range c.terms {
			if !p.holds(t) {
				all = false
				break
			}
		}
		if all {
			return true
		}
	}
	return false
}

// Compiler turns filters into Compiled predicates, resolving value lists
// and caching regular expressions across compilations.
type Compiler struct {
	lists    *ListStore
	patterns *ristretto.Cache
	logger   *zap.Logger
}

// NewCompiler returns a Compiler backed by lists.
func NewCompiler(lists *ListStore, logger *zap.Logger) (*Compiler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 10000,
		MaxCost:     1000,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("create pattern cache: %w", err)
	}
	return &Compiler{lists: lists, patterns: cache, logger: logger}, nil
}

// Close releases the pattern cache.
func (c *Compiler) Close() {
	c.patterns.Close()
}

// Compile prepares f for evaluation. Invalid patterns and missing value
// lists are returned as *EvalError naming the filter.
func (c *Compiler) Compile(f *Filter) (*Compiled, error) {
	out := &Compiled{filter: f}
	for i, e := range f.Query.elements {
		test, err := c.test(e, f.Query.values[i])
		if err != nil {
			return nil, &EvalError{Filter: f.Label, Err: fmt.Errorf("elements[%d]: %w", i, err)}
		}
		p := predicate{class: e.Class, attr: e.Attribute, test: test}
		if e.Class == ClassSearchTerm {
			out.terms = append(out.terms, p)
		} else {
			out.record = append(out.record, p)
		}
	}
	return out, nil
}

// CompileAll compiles each filter independently. Filters that fail are
// logged and reported; the rest are returned in order.
func (c *Compiler) CompileAll(filters []*Filter) ([]*Compiled, []*EvalError) {
	compiled := make([]*Compiled, 0, len(filters))
	var failed []*EvalError
	for _, f := range filters {
		cf, err := c.Compile(f)
		if err != nil {
			ee := err.(*EvalError)
			c.logger.Warn("Filter skipped",
				zap.String("filter", f.Label),
				zap.Error(ee.Err))
			failed = append(failed, ee)
			continue
		}
		compiled = append(compiled, cf)
	}
	return compiled, failed
}

// Evaluate compiles q on the fly and tests b against it.
func (c *Compiler) Evaluate(b Bundle, q *Query) (bool, error) {
	cf, err := c.Compile(&Filter{Label: "adhoc", Query: q})
	if err != nil {
		return false, err
	}
	return cf.Match(b), nil
}

func (c *Compiler) test(e Element, want Value) (func(Value) bool, error) {
	switch e.Operator {
	case OpIs:
		return func(v Value) bool { return v.Equal(want) }, nil
	case OpIsNot:
		return func(v Value) bool { return !v.Equal(want) }, nil
	case OpContains:
		needle := want.String()
		return func(v Value) bool { return strings.Contains(v.String(), needle) }, nil
	case OpGreaterThan:
		return func(v Value) bool { return v.Compare(want) > 0 }, nil
	case OpLessThan:
		return func(v Value) bool { return v.Compare(want) < 0 }, nil
	case OpRegex:
		re, err := c.pattern(*e.Value)
		if err != nil {
			return nil, err
		}
		return func(v Value) bool {
			ok, err := re.MatchString(v.String())
			return err == nil && ok
		}, nil
	case OpInList, OpNotInList:
		set, err := c.lists.Get(*e.List)
		if err != nil {
			return nil, err
		}
		negate := e.Operator == OpNotInList
		return func(v Value) bool {
			_, ok := set[v.String()]
			return ok != negate
		}, nil
	}
	return nil, fmt.Errorf("operator %q cannot be evaluated", e.Operator)
}

// pattern compiles expr anchored at both ends so it must match the whole
// attribute value.
func (c *Compiler) pattern(expr string) (*regexp2.Regexp, error) {
	if v, ok := c.patterns.Get(expr); ok {
		return v.(*regexp2.Regexp), nil
	}
	re, err := regexp2.Compile(`\A(?:`+expr+`)\z`, regexp2.None)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadPattern, err)
	}
	c.patterns.Set(expr, re, 1)
	return re, nil
}
