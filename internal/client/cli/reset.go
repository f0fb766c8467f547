package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func (c *Cli) resetCommand() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Forget change tokens and provisioning flags",
		Long: "Clears the stored sync state after a permanent error has been fixed.\n" +
			"Local records and the outbox are kept; the next sync re-creates the zone\n" +
			"and subscription if needed and uploads the whole local collection.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runReset(cmd.Context(), yes)
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")
	return cmd
}

func (c *Cli) runReset(ctx context.Context, yes bool) error {
	if !yes {
		answer, err := c.io.ReadInput(fmt.Sprintf("Reset sync state of zone %q? [y/N]: ", c.cfg.Zone.Name))
		if err != nil {
			return fmt.Errorf("failed to read confirmation: %w", err)
		}
		switch strings.ToLower(answer) {
		case "y", "yes":
		default:
			c.io.Println("Aborted.")
			return nil
		}
	}

	ws, err := c.openWorkspace(ctx)
	if err != nil {
		return err
	}
	defer c.closeWorkspace(ws)

	engine, err := c.newEngine(ctx, ws, newRecordSink(ws.store, c.logger).callbacks())
	if err != nil {
		return err
	}
	defer engine.Close()

	done := make(chan error, 1)
	engine.ResetState(func(err error) {
		done <- err
	})

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("failed to reset sync state: %w", err)
		}
	case <-ctx.Done():
		return ctx.Err()
	}

	c.io.Println("✓ Sync state reset")
	c.io.Println("The next sync re-creates the zone if needed and uploads all local records.")
	return nil
}
