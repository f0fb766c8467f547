package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	zsync "github.com/iudanet/zonesync/internal/client/sync"
)

// DefaultSyncTimeout ограничение одного прогона команды sync
const DefaultSyncTimeout = 2 * time.Minute

func (c *Cli) syncCommand() *cobra.Command {
	var (
		fetchOnly bool
		timeout   time.Duration
	)

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Run one synchronization cycle and exit",
		Long: "Uploads the local outbox, fetches remote changes and exits.\n" +
			"With --fetch-only the outbox is left untouched.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}
			return c.runSync(ctx, fetchOnly)
		},
	}
	cmd.Flags().BoolVar(&fetchOnly, "fetch-only", false, "Only fetch remote changes, do not upload the outbox")
	cmd.Flags().DurationVar(&timeout, "timeout", DefaultSyncTimeout, "Give up after this long (0 disables)")
	return cmd
}

func (c *Cli) runSync(ctx context.Context, fetchOnly bool) error {
	c.io.Println("=== Synchronization ===")
	c.io.Println()

	ws, err := c.openWorkspace(ctx)
	if err != nil {
		return err
	}
	defer c.closeWorkspace(ws)

	sink := newRecordSink(ws.store, c.logger)
	engine, err := c.newEngine(ctx, ws, sink.callbacks())
	if err != nil {
		return err
	}
	defer engine.Close()

	type outcome struct {
		err error
		res zsync.Result
	}
	done := make(chan outcome, 1)
	completion := func(res zsync.Result, err error) {
		done <- outcome{res: res, err: err}
	}

	if fetchOnly {
		// Start без записей: зона и подписка подготавливаются, outbox пуст
		engine.Start(nil)
		engine.FetchChanges(completion)
	} else {
		if err := c.startEngine(ctx, ws, engine); err != nil {
			return err
		}
		engine.RunFullCycle(completion)
	}

	c.io.Printf("Synchronizing zone %q with %s...\n", c.cfg.Zone.Name, c.cfg.Remote.URL)

	var out outcome
	select {
	case out = <-done:
	case <-ctx.Done():
		return fmt.Errorf("sync did not finish: %w", ctx.Err())
	}

	status := engine.Status()
	c.io.Println()
	if out.err != nil {
		c.io.Println("✗ Synchronization failed")
		c.printSyncStats(sink)
		return syncError(out.err, status)
	}

	c.io.Println("✓ Synchronization completed successfully")
	c.printSyncStats(sink)
	if status.Pending > 0 {
		c.io.Printf("\n⚠️  %d change(s) still pending upload\n", status.Pending)
	}
	return nil
}

func (c *Cli) printSyncStats(sink *recordSink) {
	c.io.Printf("Uploaded:              %d record(s)\n", sink.stats.uploaded.Load())
	c.io.Printf("Deletions uploaded:    %d\n", sink.stats.removed.Load())
	c.io.Printf("Changed remotely:      %d record(s)\n", sink.stats.changed.Load())
	c.io.Printf("Deleted remotely:      %d record(s)\n", sink.stats.deleted.Load())
	if n := sink.stats.dropped.Load(); n > 0 {
		c.io.Printf("Dropped by conflict:   %d record(s)\n", n)
	}
}

// syncError дополняет ошибку подсказкой для постоянных ошибок
func syncError(err error, status zsync.Status) error {
	switch {
	case zsync.IsAccountProblem(err):
		return fmt.Errorf("%w (check the token file, then run 'zonesync sync' again)", err)
	case zsync.IsZoneDeleted(err):
		return fmt.Errorf("%w (the zone was deleted remotely; run 'zonesync reset' to recreate it)", err)
	case errors.Is(err, zsync.ErrCancelled):
		return fmt.Errorf("sync was cancelled: %w", err)
	case status.Halted:
		return fmt.Errorf("%w (sync halted; run 'zonesync reset' after fixing the cause)", err)
	default:
		return fmt.Errorf("sync failed: %w", err)
	}
}
