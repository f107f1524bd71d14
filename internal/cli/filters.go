package cli

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/runnerr0/trailscope/internal/filter"
)

// parseElement reads "class.attribute operator value". The value may
// contain spaces; for the list operators it names a value list.
func parseElement(s string) (filter.Element, error) {
	fields := strings.Fields(s)
	if len(fields) < 2 {
		return filter.Element{}, fmt.Errorf("element %q: want 'class.attribute operator value'", s)
	}

	class, attr, ok := strings.Cut(fields[0], ".")
	if !ok || class == "" || attr == "" {
		return filter.Element{}, fmt.Errorf("element %q: target %q is not class.attribute", s, fields[0])
	}
	op := filter.Operator(fields[1])

	// Keep the value's inner spacing by cutting it from the raw text.
	value := strings.TrimSpace(s)
	for _, f := range fields[:2] {
		value = strings.TrimSpace(strings.TrimPrefix(value, f))
	}

	if op.UsesList() {
		return filter.WhereList(filter.Class(class), filter.Attribute(attr), op, value), nil
	}
	return filter.Where(filter.Class(class), filter.Attribute(attr), op, value), nil
}

type filterJSON struct {
	Label    string        `json:"label"`
	Text     string        `json:"text"`
	Color    string        `json:"color"`
	Query    *filter.Query `json:"query"`
	Elements []string      `json:"elements"`
}

func toFilterJSON(f *filter.Filter) filterJSON {
	out := filterJSON{Label: f.Label, Text: f.Text, Color: f.Color, Query: f.Query}
	for _, e := range f.Query.Elements() {
		out.Elements = append(out.Elements, e.String())
	}
	return out
}

// Execute implements the go-flags Commander interface for FilterAddCommand.
func (c *FilterAddCommand) Execute(args []string) error {
	return withSession(c.globals, c.executeWithSession)
}

// executeWithSession saves the filter into a provided session (for testing).
func (c *FilterAddCommand) executeWithSession(s *session) error {
	elements := make([]filter.Element, 0, len(c.Where))
	for _, w := range c.Where {
		e, err := parseElement(w)
		if err != nil {
			return err
		}
		elements = append(elements, e)
	}

	q, err := filter.NewQuery(elements...)
	if err != nil {
		return err
	}
	f, err := filter.NewFilter(c.Label, c.Text, c.Color, q)
	if err != nil {
		return err
	}

	if err := s.store.SaveFilter(context.Background(), f); err != nil {
		return err
	}
	c.checkCompiles(s, f)

	if jsonOutput(c.globals) {
		return printJSON(toFilterJSON(f))
	}
	fmt.Printf("Saved filter %s (%s) with %d elements\n", f.Label, f.Color, q.Len())
	return nil
}

// checkCompiles warns when the saved filter cannot be evaluated yet, e.g.
// because a value list has not been created.
func (c *FilterAddCommand) checkCompiles(s *session, f *filter.Filter) {
	lists, err := s.lists()
	if err != nil {
		return
	}
	compiler, err := filter.NewCompiler(lists, s.logger)
	if err != nil {
		return
	}
	defer compiler.Close()

	if _, err := compiler.Compile(f); err != nil {
		s.logger.Warn("Saved filter cannot be evaluated yet",
			zap.String("filter", f.Label),
			zap.Error(err))
	}
}

// Execute implements the go-flags Commander interface for FiltersCommand.
func (c *FiltersCommand) Execute(args []string) error {
	return withSession(c.globals, c.executeWithSession)
}

// executeWithSession lists the filters of a provided session (for testing).
func (c *FiltersCommand) executeWithSession(s *session) error {
	filters, err := s.store.ListFilters(context.Background())
	if err != nil {
		return err
	}

	if jsonOutput(c.globals) {
		out := make([]filterJSON, len(filters))
		for i, f := range filters {
			out[i] = toFilterJSON(f)
		}
		return printJSON(out)
	}

	if len(filters) == 0 {
		fmt.Println("No filters saved")
		return nil
	}
	for i, f := range filters {
		fmt.Printf("%s  %s  %s\n", f.Label, f.Color, f.Text)
		for _, e := range f.Query.Elements() {
			fmt.Printf("   %s\n", e)
		}
		if i < len(filters)-1 {
			fmt.Println()
		}
	}
	return nil
}

// Execute implements the go-flags Commander interface for FilterDeleteCommand.
func (c *FilterDeleteCommand) Execute(args []string) error {
	return withSession(c.globals, c.executeWithSession)
}

// executeWithSession deletes a filter of a provided session (for testing).
func (c *FilterDeleteCommand) executeWithSession(s *session) error {
	if err := s.store.DeleteFilter(context.Background(), c.Args.Label); err != nil {
		return err
	}
	if jsonOutput(c.globals) {
		return printJSON(map[string]interface{}{"deleted": c.Args.Label})
	}
	fmt.Printf("Deleted filter %s\n", c.Args.Label)
	return nil
}

// Execute implements the go-flags Commander interface for ListsCommand.
func (c *ListsCommand) Execute(args []string) error {
	return withSession(c.globals, c.executeWithSession)
}

// executeWithSession lists the value lists of a provided session (for testing).
func (c *ListsCommand) executeWithSession(s *session) error {
	lists, err := s.lists()
	if err != nil {
		return err
	}
	names, err := lists.Names()
	if err != nil {
		return err
	}

	if jsonOutput(c.globals) {
		return printJSON(map[string]interface{}{"dir": lists.Dir(), "lists": names})
	}

	fmt.Printf("Value lists in %s:\n", lists.Dir())
	if len(names) == 0 {
		fmt.Println("  (none)")
		return nil
	}
	for _, n := range names {
		values, err := lists.Get(n)
		if err != nil {
			fmt.Printf("  %-24s unreadable: %v\n", n, err)
			continue
		}
		fmt.Printf("  %-24s %d values\n", n, len(values))
	}
	return nil
}
