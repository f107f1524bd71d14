package cli

import (
	"fmt"
	"os"

	goflags "github.com/jessevdk/go-flags"
)

// commands holds references to all subcommand structs for inspection/testing.
type commands struct {
	Status           *StatusCommand
	Import           *ImportCommand
	Groups           *GroupsCommand
	FilterAdd        *FilterAddCommand
	Filters          *FiltersCommand
	FilterDelete     *FilterDeleteCommand
	Lists            *ListsCommand
	Plot             *PlotCommand
	Overview         *OverviewCommand
	Domains          *DomainsCommand
	Searches         *SearchesCommand
	Files            *FilesCommand
	RecomputeDomains *RecomputeDomainsCommand
	Purge            *PurgeCommand
}

// buildParser constructs the go-flags parser with all subcommands registered.
func buildParser(version string) (*goflags.Parser, *GlobalFlags, *commands) {
	var globals GlobalFlags

	parser := goflags.NewParser(&globals, goflags.Default)
	parser.Name = "trailscope"
	parser.LongDescription = "Forensic analysis of browsing and file-access history: import, filter, plot and summarise a case."

	cmds := &commands{
		Status:           &StatusCommand{globals: &globals, version: version},
		Import:           &ImportCommand{globals: &globals, version: version},
		Groups:           &GroupsCommand{globals: &globals, version: version},
		FilterAdd:        &FilterAddCommand{globals: &globals, version: version},
		Filters:          &FiltersCommand{globals: &globals, version: version},
		FilterDelete:     &FilterDeleteCommand{globals: &globals, version: version},
		Lists:            &ListsCommand{globals: &globals, version: version},
		Plot:             &PlotCommand{globals: &globals, version: version},
		Overview:         &OverviewCommand{globals: &globals, version: version},
		Domains:          &DomainsCommand{globals: &globals, version: version},
		Searches:         &SearchesCommand{globals: &globals, version: version},
		Files:            &FilesCommand{globals: &globals, version: version},
		RecomputeDomains: &RecomputeDomainsCommand{globals: &globals, version: version},
		Purge:            &PurgeCommand{globals: &globals, version: version},
	}

	parser.AddCommand("status", "Show case and database statistics", "Show the case, database statistics, and schema version.", cmds.Status)
	parser.AddCommand("import", "Import a history CSV as a group", "Import a normalized history CSV as a new group of the case. The case is created on first import.", cmds.Import)
	parser.AddCommand("groups", "List or delete imported groups", "List imported groups with their entry counts, or delete one with --delete.", cmds.Groups)
	parser.AddCommand("filter-add", "Save a named filter", "Save a named filter built from one or more --where elements, all of which must hold.", cmds.FilterAdd)
	parser.AddCommand("filters", "List saved filters", "List saved filters and their elements.", cmds.Filters)
	parser.AddCommand("filter-delete", "Delete a saved filter", "Delete a saved filter by label.", cmds.FilterDelete)
	parser.AddCommand("lists", "List value lists", "List the value lists available to the in_list and not_in_list operators.", cmds.Lists)
	parser.AddCommand("plot", "Compute the timeline", "Compute the highlighted, plain and removed timeline series over a date and time-of-day window.", cmds.Plot)
	parser.AddCommand("overview", "Summarise the case", "Show the weekday heatmap, average pages per day, peak hour and browser shares.", cmds.Overview)
	parser.AddCommand("domains", "Rank visited domains", "Rank the domains of the visible records with their hosts.", cmds.Domains)
	parser.AddCommand("searches", "Show search clouds", "Show the most searched terms of every configured search engine.", cmds.Searches)
	parser.AddCommand("files", "Show the file-access tree", "Show local file accesses by drive, category and path.", cmds.Files)
	parser.AddCommand("recompute-domains", "Re-derive stored domains", "Re-derive every stored domain from the configured top-level domain table.", cmds.RecomputeDomains)
	parser.AddCommand("purge", "Delete ALL case data", "Delete ALL case data. Destructive operation with safety prompt.", cmds.Purge)

	return parser, &globals, cmds
}

// Run is the main entry point for the trailscope CLI using os.Args.
func Run(version string) error {
	return RunWithArgs(version, nil)
}

// RunWithArgs parses the given args (or os.Args if nil) and executes the matched subcommand.
func RunWithArgs(version string, args []string) error {
	// Handle --version before parser (go-flags requires a subcommand, but
	// --version is valid without one).
	checkArgs := args
	if checkArgs == nil {
		checkArgs = os.Args[1:]
	}
	for _, arg := range checkArgs {
		if arg == "--version" {
			fmt.Printf("trailscope %s\n", version)
			return nil
		}
		if arg == "--" {
			break
		}
	}

	parser, _, _ := buildParser(version)

	var err error
	if args != nil {
		_, err = parser.ParseArgs(args)
	} else {
		_, err = parser.Parse()
	}

	if err != nil {
		if flagsErr, ok := err.(*goflags.Error); ok {
			if flagsErr.Type == goflags.ErrHelp {
				return nil
			}
		}
		return err
	}

	return nil
}
