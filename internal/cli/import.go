package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"github.com/runnerr0/trailscope/internal/apperrors"
	"github.com/runnerr0/trailscope/internal/ingest"
	"github.com/runnerr0/trailscope/internal/model"
	"github.com/runnerr0/trailscope/internal/searchterms"
	"github.com/runnerr0/trailscope/internal/storage"
)

// importJSON is the JSON output structure for the import command.
type importJSON struct {
	Case     string `json:"case"`
	GroupID  int64  `json:"group_id"`
	Group    string `json:"group"`
	Read     int    `json:"read"`
	Skipped  int    `json:"skipped"`
	Entries  int64  `json:"entries"`
	Searches int    `json:"searches"`
	Terms    int64  `json:"terms"`
	Browsers int64  `json:"new_browsers"`

	Engines []searchterms.EngineCount `json:"engines"`
}

// Execute implements the go-flags Commander interface for ImportCommand.
func (c *ImportCommand) Execute(args []string) error {
	f, err := os.Open(c.Args.File)
	if err != nil {
		return fmt.Errorf("open %s: %w", c.Args.File, err)
	}
	defer f.Close()

	return withSession(c.globals, func(s *session) error {
		return c.executeWithSession(s, f, filepath.Base(c.Args.File))
	})
}

// executeWithSession imports the CSV read from r into the session's case.
func (c *ImportCommand) executeWithSession(s *session, r io.Reader, fileName string) error {
	ctx := context.Background()

	rows, err := ingest.ReadCSV(r)
	if err != nil {
		return fmt.Errorf("read %s: %w", fileName, err)
	}

	prepared, summary := ingest.FromConfig(s.cfg.Ingest, s.logger).PrepareAll(rows)

	caseRec, err := c.ensureCase(ctx, s)
	if err != nil {
		return err
	}

	name := c.Name
	if name == "" {
		name = strings.TrimSuffix(fileName, filepath.Ext(fileName))
	}
	group := &model.Group{
		Name:        name,
		Description: c.Description,
		FileName:    fileName,
		Program:     c.Program,
	}

	res, err := s.store.ImportGroup(ctx, group, prepared)
	if err != nil {
		return fmt.Errorf("import %s: %w", fileName, err)
	}

	if jsonOutput(c.globals) {
		return printJSON(importJSON{
			Case:     caseRec.Name,
			GroupID:  res.Group.ID,
			Group:    res.Group.Name,
			Read:     summary.Read,
			Skipped:  summary.Skipped,
			Entries:  res.Entries,
			Searches: summary.Searches,
			Terms:    res.Terms,
			Browsers: res.Browsers,
			Engines:  summary.Terms.Engines(),
		})
	}
	return printImportHuman(caseRec, res, summary)
}

// ensureCase returns the case, creating it on first import.
func (c *ImportCommand) ensureCase(ctx context.Context, s *session) (*model.Case, error) {
	existing, err := s.store.GetCase(ctx)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, apperrors.ErrNoCase) {
		return nil, err
	}

	name := c.CaseName
	if name == "" {
		name = s.cfg.Case.Name
	}
	created, err := s.store.CreateCase(ctx, name)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("Case created on import", zap.String("case", created.Name))
	return created, nil
}

func printImportHuman(c *model.Case, res *storage.ImportResult, summary ingest.Summary) error {
	fmt.Printf("Imported %s entries into group %q (id %d) of case %q\n",
		humanize.Comma(res.Entries), res.Group.Name, res.Group.ID, c.Name)
	if summary.Skipped > 0 {
		fmt.Printf("  %s rows skipped without access time\n", humanize.Comma(int64(summary.Skipped)))
	}
	fmt.Printf("  %s searches, %s search terms\n",
		humanize.Comma(int64(summary.Searches)), humanize.Comma(res.Terms))
	for _, e := range summary.Terms.Engines() {
		fmt.Printf("    %-12s %s distinct terms, %s uses\n",
			e.Engine, humanize.Comma(int64(e.Terms)), humanize.Comma(e.Associations))
	}
	if res.Browsers > 0 {
		fmt.Printf("  %s new browsers\n", humanize.Comma(res.Browsers))
	}
	return nil
}
