package filter

import "sort"

// Class names the record class an attribute belongs to.
type Class string

const (
	ClassEntry      Class = "entry"
	ClassURL        Class = "url"
	ClassBrowser    Class = "browser"
	ClassGroup      Class = "group"
	ClassSearchTerm Class = "search_term"
)

// Label returns the display name of the class.
func (c Class) Label() string {
	switch c {
	case ClassEntry:
		return "Entry"
	case ClassURL:
		return "URL Parts"
	case ClassBrowser:
		return "Browser"
	case ClassGroup:
		return "Web Files"
	case ClassSearchTerm:
		return "Search Terms"
	}
	return string(c)
}

// Attribute is the machine name of a filterable attribute within a class.
type Attribute string

const (
	// Entry
	AttrType         Attribute = "type"
	AttrAccessDate   Attribute = "access_date"
	AttrAccessTime   Attribute = "access_time"
	AttrModifiedDate Attribute = "modified_date"
	AttrModifiedTime Attribute = "modified_time"
	AttrURL          Attribute = "url"
	AttrFilename     Attribute = "filename"
	AttrDirectory    Attribute = "directory"
	AttrHTTPHeaders  Attribute = "http_headers"
	AttrTitle        Attribute = "title"
	AttrDeleted      Attribute = "deleted"
	AttrContentType  Attribute = "content_type"

	// URL parts
	AttrDomain   Attribute = "domain"
	AttrHostname Attribute = "hostname"
	AttrUsername Attribute = "username"
	AttrPassword Attribute = "password"
	AttrPort     Attribute = "port"
	AttrScheme   Attribute = "scheme"
	AttrFragment Attribute = "fragment"
	AttrQuery    Attribute = "query"

	// Browser
	AttrName    Attribute = "name"
	AttrVersion Attribute = "version"
	AttrSource  Attribute = "source"

	// Group
	AttrProgram Attribute = "program"

	// Search terms
	AttrTerm       Attribute = "term"
	AttrOccurrence Attribute = "occurrence"
	AttrEngineLong Attribute = "engine_long"
)

// Operator is a comparison applied to one attribute.
type Operator string

const (
	OpIs              Operator = "is"
	OpIsNot           Operator = "is_not"
	OpContains        Operator = "contains"
	OpContainsFuzzy   Operator = "contains_fuzzy"
	OpRegex           Operator = "regex"
	OpGreaterThan     Operator = "gt"
	OpLessThan        Operator = "lt"
	OpPeriodicalEvery Operator = "periodical_every"
	OpInList          Operator = "in_list"
	OpNotInList       Operator = "not_in_list"
)

var operatorLabels = map[Operator]string{
	OpIs:              "Is",
	OpIsNot:           "Is not",
	OpContains:        "Contains",
	OpContainsFuzzy:   "Contains fuzzy",
	OpRegex:           "Matches regular expression",
	OpGreaterThan:     "Greater than",
	OpLessThan:        "Less than",
	OpPeriodicalEvery: "Periodical every",
	OpInList:          "Is in list",
	OpNotInList:       "Is not in list",
}

// Label returns the display name of the operator.
func (o Operator) Label() string {
	if l, ok := operatorLabels[o]; ok {
		return l
	}
	return string(o)
}

// Known reports whether o is a declared operator.
func (o Operator) Known() bool {
	_, ok := operatorLabels[o]
	return ok
}

// Implemented reports whether o can be evaluated. Contains fuzzy and
// Periodical every are declared for compatibility with saved filters but
// have no evaluation semantics.
func (o Operator) Implemented() bool {
	return o.Known() && o != OpContainsFuzzy && o != OpPeriodicalEvery
}

// UsesList reports whether the operator takes a named value list instead of
// a scalar value.
func (o Operator) UsesList() bool {
	return o == OpInList || o == OpNotInList
}

// ValueType is the declared type of an attribute.
type ValueType int

const (
	TypeText ValueType = iota
	TypeSelect
	TypeDate
	TypeTime
	TypeNumber
	TypeBool
)

func (t ValueType) String() string {
	switch t {
	case TypeText:
		return "text"
	case TypeSelect:
		return "select"
	case TypeDate:
		return "date"
	case TypeTime:
		return "time"
	case TypeNumber:
		return "number"
	case TypeBool:
		return "bool"
	}
	return "unknown"
}

// Key identifies one filterable attribute.
type Key struct {
	Class     Class
	Attribute Attribute
}

// Spec describes a filterable attribute: how it is shown, what type its
// values have and which operators may be applied to it.
type Spec struct {
	Key
	Label     string
	Type      ValueType
	Operators []Operator
}

// Allows reports whether op may be used on the attribute.
func (s Spec) Allows(op Operator) bool {
	for _, o := range s.Operators {
		if o == op {
			return true
		}
	}
	return false
}

var (
	equalityOps = []Operator{OpIs, OpIsNot}
	orderedOps  = []Operator{OpIs, OpIsNot, OpGreaterThan, OpLessThan}
	patternOps  = []Operator{OpIs, OpIsNot, OpContains, OpRegex}
	textOps     = []Operator{OpIs, OpIsNot, OpContains, OpRegex, OpInList, OpNotInList}
)

var specs = map[Key]Spec{}

func register(class Class, attr Attribute, label string, typ ValueType, ops []Operator) {
	k := Key{Class: class, Attribute: attr}
	specs[k] = Spec{Key: k, Label: label, Type: typ, Operators: ops}
}

func init() {
	register(ClassEntry, AttrAccessDate, "Access Date", TypeDate, orderedOps)
	register(ClassEntry, AttrAccessTime, "Access Time", TypeTime, orderedOps)
	register(ClassEntry, AttrModifiedDate, "Modified Date", TypeDate, orderedOps)
	register(ClassEntry, AttrModifiedTime, "Modified Time", TypeTime, orderedOps)
	register(ClassEntry, AttrURL, "Full URL", TypeText, textOps)
	register(ClassEntry, AttrTitle, "Page title", TypeText, textOps)
	register(ClassEntry, AttrType, "Type", TypeSelect, equalityOps)
	register(ClassEntry, AttrFilename, "File Name", TypeText, patternOps)
	register(ClassEntry, AttrDirectory, "Directory", TypeSelect, equalityOps)
	register(ClassEntry, AttrHTTPHeaders, "HTTP Headers", TypeText, patternOps)
	register(ClassEntry, AttrDeleted, "Deleted", TypeBool, equalityOps)
	register(ClassEntry, AttrContentType, "Content Type", TypeSelect, equalityOps)

	register(ClassURL, AttrDomain, "Domain name", TypeText, textOps)
	register(ClassURL, AttrHostname, "Host name", TypeText, textOps)
	register(ClassURL, AttrUsername, "Username", TypeSelect, equalityOps)
	register(ClassURL, AttrPassword, "Password", TypeSelect, equalityOps)
	register(ClassURL, AttrPort, "Port", TypeNumber, equalityOps)
	register(ClassURL, AttrScheme, "Protocol", TypeSelect, equalityOps)
	register(ClassURL, AttrFragment, "Fragment", TypeSelect, equalityOps)
	register(ClassURL, AttrQuery, "Query", TypeText, patternOps)

	register(ClassBrowser, AttrName, "Name", TypeSelect, equalityOps)
	register(ClassBrowser, AttrVersion, "Version", TypeSelect, equalityOps)
	register(ClassBrowser, AttrSource, "Profile/IE Type", TypeSelect, equalityOps)

	register(ClassGroup, AttrName, "Group Name", TypeSelect, equalityOps)
	register(ClassGroup, AttrProgram, "Program Used", TypeSelect, equalityOps)

	register(ClassSearchTerm, AttrTerm, "Search Term", TypeText, textOps)
	register(ClassSearchTerm, AttrOccurrence, "Term Occurrence", TypeNumber, orderedOps)
	register(ClassSearchTerm, AttrEngineLong, "Search Engine", TypeSelect, equalityOps)
}

// Lookup returns the spec for a (class, attribute) pair.
func Lookup(class Class, attr Attribute) (Spec, bool) {
	s, ok := specs[Key{Class: class, Attribute: attr}]
	return s, ok
}

// Specs returns every filterable attribute ordered by class then attribute.
func Specs() []Spec {
	out := make([]Spec, 0, len(specs))
	for _, s := range specs {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Class != out[j].Class {
			return out[i].Class < out[j].Class
		}
		return out[i].Attribute < out[j].Attribute
	})
	return out
}
