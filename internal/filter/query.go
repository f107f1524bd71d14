package filter

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

// Element is one predicate line of a FilterQuery: an attribute, an operator
// and either a scalar value or the name of a value list.
type Element struct {
	Class     Class     `json:"class"`
	Attribute Attribute `json:"attribute"`
	Operator  Operator  `json:"operator"`
	Value     *string   `json:"value,omitempty"`
	List      *string   `json:"list,omitempty"`
}

// Where builds a scalar element.
func Where(class Class, attr Attribute, op Operator, value string) Element {
	return Element{Class: class, Attribute: attr, Operator: op, Value: &value}
}

// WhereList builds an element that tests membership of a named value list.
func WhereList(class Class, attr Attribute, op Operator, list string) Element {
	return Element{Class: class, Attribute: attr, Operator: op, List: &list}
}

func (e Element) String() string {
	operand := ""
	switch {
	case e.Value != nil:
		operand = fmt.Sprintf("%q", *e.Value)
	case e.List != nil:
		operand = "list " + *e.List
	}
	return fmt.Sprintf("%s.%s %s %s", e.Class.Label(), e.Attribute, e.Operator.Label(), operand)
}

// Query is a validated, immutable AND of elements. Element order is kept
// for display only.
type Query struct {
	elements []Element
	values   []Value
}

// NewQuery validates elements and returns the query. Any element naming an
// unknown attribute, a disallowed or unimplemented operator, or a missing,
// duplicated or mistyped operand is rejected with a *ValidationError.
func NewQuery(elements ...Element) (*Query, error) {
	if len(elements) == 0 {
		return nil, invalid("elements", "at least one element is required")
	}

	q := &Query{
		elements: make([]Element, len(elements)),
		values:   make([]Value, len(elements)),
	}
	for i, e := range elements {
		v, err := validateElement(i, e)
		if err != nil {
			return nil, err
		}
		q.elements[i] = copyElement(e)
		q.values[i] = v
	}
	return q, nil
}

func validateElement(i int, e Element) (Value, error) {
	field := func(name string) string { return fmt.Sprintf("elements[%d].%s", i, name) }

	spec, ok := Lookup(e.Class, e.Attribute)
	if !ok {
		return Value{}, invalid(field("attribute"), "%s has no filterable attribute %q", e.Class.Label(), e.Attribute)
	}
	if !e.Operator.Known() {
		return Value{}, invalid(field("operator"), "unknown operator %q", e.Operator)
	}
	if !e.Operator.Implemented() {
		return Value{}, invalid(field("operator"), "%q is not supported", e.Operator.Label())
	}
	if !spec.Allows(e.Operator) {
		return Value{}, invalid(field("operator"), "%q cannot be applied to %s", e.Operator.Label(), spec.Label)
	}

	switch {
	case e.Value != nil && e.List != nil:
		return Value{}, invalid(field("value"), "value and list are mutually exclusive")
	case e.Value == nil && e.List == nil:
		return Value{}, invalid(field("value"), "a value or a list is required")
	}

	if e.Operator.UsesList() {
		if e.List == nil {
			return Value{}, invalid(field("list"), "%q requires a list name", e.Operator.Label())
		}
		if err := validateListName(*e.List); err != nil {
			return Value{}, invalid(field("list"), "%v", err)
		}
		return Value{}, nil
	}

	if e.Value == nil {
		return Value{}, invalid(field("value"), "%q requires a value, not a list", e.Operator.Label())
	}
	v, err := ParseValue(spec.Type, *e.Value)
	if err != nil {
		return Value{}, invalid(field("value"), "%v", err)
	}
	return v, nil
}

func validateListName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("list name is empty")
	}
	if name != filepath.Base(name) || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("list name %q must be a bare file name", name)
	}
	return nil
}

func copyElement(e Element) Element {
	out := Element{Class: e.Class, Attribute: e.Attribute, Operator: e.Operator}
	if e.Value != nil {
		v := *e.Value
		out.Value = &v
	}
	if e.List != nil {
		l := *e.List
		out.List = &l
	}
	return out
}

// Elements returns a copy of the query's elements in their original order.
func (q *Query) Elements() []Element {
	out := make([]Element, len(q.elements))
	for i, e := range q.elements {
		out[i] = copyElement(e)
	}
	return out
}

// Len returns the number of elements.
func (q *Query) Len() int { return len(q.elements) }

// DefaultColor is the marker colour given to filters created without one.
const DefaultColor = "#33A1C9"

var (
	labelPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.-]*$`)
	colorPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)
)

// Filter is a named, persisted FilterQuery.
type Filter struct {
	Label string
	Text  string
	Color string
	Query *Query
}

// NewFilter validates the display metadata and wraps q.
func NewFilter(label, text, color string, q *Query) (*Filter, error) {
	if !labelPattern.MatchString(label) {
		return nil, invalid("label", "label %q must be letters, digits, '.', '_' or '-'", label)
	}
	if strings.TrimSpace(text) == "" {
		text = label
	}
	if color == "" {
		color = DefaultColor
	}
	if !colorPattern.MatchString(color) {
		return nil, invalid("color", "colour %q must look like #RRGGBB", color)
	}
	if q == nil {
		return nil, invalid("query", "a query is required")
	}
	return &Filter{Label: label, Text: text, Color: color, Query: q}, nil
}
