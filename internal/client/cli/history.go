package cli

import (
	"context"
	"errors"
	"time"

	"github.com/spf13/cobra"
)

// DefaultHistoryLimit сколько записей журнала показывать по умолчанию
const DefaultHistoryLimit = 20

var errJournalDisabled = errors.New("the state journal is disabled (journal.enabled: false)")

func (c *Cli) historyCommand() *cobra.Command {
	var (
		limit    int
		sessions bool
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent sync state transitions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if sessions {
				return c.runSessions(cmd.Context(), limit)
			}
			return c.runHistory(cmd.Context(), limit)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", DefaultHistoryLimit, "Maximum number of entries")
	cmd.Flags().BoolVar(&sessions, "sessions", false, "Show sync sessions instead of state transitions")
	return cmd
}

func (c *Cli) runHistory(ctx context.Context, limit int) error {
	ws, err := c.openWorkspace(ctx)
	if err != nil {
		return err
	}
	defer c.closeWorkspace(ws)
	if ws.journal == nil {
		return errJournalDisabled
	}

	transitions, err := ws.journal.Transitions(ctx, limit)
	if err != nil {
		return err
	}

	c.io.Println("=== State Transitions ===")
	c.io.Println()
	if len(transitions) == 0 {
		c.io.Println("No transitions recorded.")
		return nil
	}
	for _, tr := range transitions {
		c.io.Printf("%s  %-20s %s -> %s  (%s)\n",
			tr.At.Local().Format(time.DateTime), tr.Field, tr.Old, tr.New, tr.Reason)
	}
	return nil
}

func (c *Cli) runSessions(ctx context.Context, limit int) error {
	ws, err := c.openWorkspace(ctx)
	if err != nil {
		return err
	}
	defer c.closeWorkspace(ws)
	if ws.journal == nil {
		return errJournalDisabled
	}

	sessions, err := ws.journal.Sessions(ctx, limit)
	if err != nil {
		return err
	}

	c.io.Println("=== Sync Sessions ===")
	c.io.Println()
	if len(sessions) == 0 {
		c.io.Println("No sessions recorded.")
		return nil
	}
	for _, s := range sessions {
		r := newSessionReport(s)
		c.io.Printf("%s  %-6s %-8s up=%d changed=%d deleted=%d",
			r.StartedAt.Local().Format(time.DateTime), r.Kind, r.Duration, r.Uploaded, r.Changed, r.Deleted)
		if r.Error != "" {
			c.io.Printf("  error: %s", r.Error)
		}
		c.io.Println()
	}
	return nil
}
