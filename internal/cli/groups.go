package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/runnerr0/trailscope/internal/storage"
)

type groupJSON struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	FileName    string `json:"file_name,omitempty"`
	Program     string `json:"program,omitempty"`
	Entries     int64  `json:"entries"`
	First       string `json:"first,omitempty"`
	Last        string `json:"last,omitempty"`
}

// Execute implements the go-flags Commander interface for GroupsCommand.
func (c *GroupsCommand) Execute(args []string) error {
	return withSession(c.globals, c.executeWithSession)
}

// executeWithSession lists or deletes groups of a provided session (for testing).
func (c *GroupsCommand) executeWithSession(s *session) error {
	ctx := context.Background()

	if c.Delete != 0 {
		if err := s.store.DeleteGroup(ctx, c.Delete); err != nil {
			return err
		}
		if jsonOutput(c.globals) {
			return printJSON(map[string]interface{}{"deleted": c.Delete})
		}
		fmt.Printf("Deleted group %d\n", c.Delete)
		return nil
	}

	groups, err := s.store.ListGroups(ctx)
	if err != nil {
		return fmt.Errorf("list groups: %w", err)
	}

	if jsonOutput(c.globals) {
		out := make([]groupJSON, len(groups))
		for i, g := range groups {
			out[i] = groupJSON{
				ID:          g.ID,
				Name:        g.Name,
				Description: g.Description,
				FileName:    g.FileName,
				Program:     g.Program,
				Entries:     g.Entries,
			}
			if g.Entries > 0 {
				out[i].First = g.First.Format(time.RFC3339)
				out[i].Last = g.Last.Format(time.RFC3339)
			}
		}
		return printJSON(out)
	}
	return printGroupsHuman(groups)
}

func printGroupsHuman(groups []storage.GroupSummary) error {
	if len(groups) == 0 {
		fmt.Println("No groups imported")
		return nil
	}

	fmt.Printf("%-4s %-24s %10s  %-16s  %-16s  %s\n", "ID", "NAME", "ENTRIES", "FIRST", "LAST", "FILE")
	for _, g := range groups {
		first, last := "-", "-"
		if g.Entries > 0 {
			first = g.First.Format("2006-01-02 15:04")
			last = g.Last.Format("2006-01-02 15:04")
		}
		fmt.Printf("%-4d %-24s %10s  %-16s  %-16s  %s\n",
			g.ID, g.Name, humanize.Comma(g.Entries), first, last, g.FileName)
	}
	return nil
}
