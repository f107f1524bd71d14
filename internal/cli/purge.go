package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
)

// Execute implements the go-flags Commander interface for PurgeCommand.
func (c *PurgeCommand) Execute(args []string) error {
	if err := c.confirm(); err != nil {
		return err
	}
	return withSession(c.globals, c.executeWithSession)
}

// confirm enforces --all and, unless --force, the typed confirmation.
func (c *PurgeCommand) confirm() error {
	if !c.All {
		return fmt.Errorf("purge requires --all flag for safety")
	}
	if c.Force {
		return nil
	}

	fmt.Println("⚠ WARNING: This will permanently delete ALL case data.")
	fmt.Println("  - The case and every imported group")
	fmt.Println("  - All entries, URLs, browsers and search terms")
	fmt.Println("  - All saved filters")
	fmt.Println()
	fmt.Println("This action cannot be undone.")
	fmt.Println()
	fmt.Print(`Type "PURGE" to confirm: `)

	var in io.Reader = os.Stdin
	if c.in != nil {
		in = c.in
	}
	scanner := bufio.NewScanner(in)
	if !scanner.Scan() {
		return fmt.Errorf("aborted: no input received")
	}
	if strings.TrimSpace(scanner.Text()) != "PURGE" {
		return fmt.Errorf("aborted: confirmation text did not match")
	}
	return nil
}

// executeWithSession purges the store of a provided session (for testing).
func (c *PurgeCommand) executeWithSession(s *session) error {
	if err := s.store.PurgeAll(context.Background()); err != nil {
		return fmt.Errorf("purge failed: %w", err)
	}

	if jsonOutput(c.globals) {
		return printJSON(map[string]interface{}{
			"purged":  true,
			"message": "all data deleted",
		})
	}

	fmt.Println("Purged all data. The case is empty.")
	return nil
}
