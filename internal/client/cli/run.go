package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/iudanet/zonesync/internal/client/api"
	"github.com/iudanet/zonesync/internal/client/events"
	"github.com/iudanet/zonesync/internal/client/storage"
	zsync "github.com/iudanet/zonesync/internal/client/sync"
	"github.com/iudanet/zonesync/internal/models"
	"github.com/iudanet/zonesync/internal/validation"
)

// DefaultShutdownTimeout сколько демон ждёт завершения начатых операций при остановке
const DefaultShutdownTimeout = 10 * time.Second

func (c *Cli) runCommand() *cobra.Command {
	var (
		seedFile        string
		shutdownTimeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the sync daemon until interrupted",
		Long: "Enables synchronization and keeps the zone in sync, reacting to push\n" +
			"notifications, token file changes, SIGUSR1 (fetch now) and a periodic poll.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return c.runDaemon(ctx, seedFile, shutdownTimeout)
		},
	}
	cmd.Flags().StringVar(&seedFile, "seed", "", "JSON file with records to add to the local collection before starting")
	cmd.Flags().DurationVar(&shutdownTimeout, "shutdown-timeout", DefaultShutdownTimeout, "How long to wait for in-flight sync work on exit")
	return cmd
}

func (c *Cli) runDaemon(ctx context.Context, seedFile string, shutdownTimeout time.Duration) error {
	ws, err := c.openWorkspace(ctx)
	if err != nil {
		return err
	}
	defer c.closeWorkspace(ws)

	if seedFile != "" {
		n, err := importSeed(ctx, ws.store, seedFile)
		if err != nil {
			return err
		}
		c.logger.Info("Seed records imported", "records", n, "file", seedFile)
	}

	sink := newRecordSink(ws.store, c.logger)
	engine, err := c.newEngine(ctx, ws, sink.callbacks())
	if err != nil {
		return err
	}
	defer engine.Close()

	monitor, err := c.newMonitor(engine)
	if err != nil {
		return err
	}

	if err := c.startEngine(ctx, ws, engine); err != nil {
		return err
	}

	c.io.Printf("Syncing zone %q with %s (Ctrl+C to stop)\n", c.cfg.Zone.Name, c.cfg.Remote.URL)
	runErr := monitor.Run(ctx)

	flushCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := engine.Flush(flushCtx); err != nil {
		c.logger.Warn("Sync work not finished before shutdown", "error", err)
	}

	st := engine.Status()
	c.logger.Info("Daemon stopped",
		"uploaded", sink.stats.uploaded.Load(),
		"changed", sink.stats.changed.Load(),
		"deleted", sink.stats.deleted.Load(),
		"pending", st.Pending,
	)
	return runErr
}

// newMonitor собирает источники сигналов по конфигурации
func (c *Cli) newMonitor(engine *zsync.Engine) (*events.Monitor, error) {
	cfg := c.cfg.Events
	logger := c.logger.With("component", "events")

	monitor := events.NewMonitor(engine,
		events.NewThrottle(cfg.ThrottleRate, cfg.ThrottleWindow),
		logger,
		events.NewTickerSource(cfg.PollInterval),
	)

	if cfg.WatchToken {
		if err := os.MkdirAll(filepath.Dir(c.cfg.Remote.TokenFile), 0o700); err != nil {
			return nil, fmt.Errorf("failed to create token directory: %w", err)
		}
		monitor.Add(events.NewTokenFileSource(c.cfg.Remote.TokenFile, cfg.Debounce, logger))
	}

	if cfg.Push {
		url, err := api.NotificationsURL(c.cfg.Remote.URL)
		if err != nil {
			return nil, err
		}
		tokens := api.NewFileTokenProvider(c.cfg.Remote.TokenFile)
		monitor.Add(events.NewPushSource(url, tokens, c.cfg.Retry.BaseDelay, c.cfg.Retry.MaxDelay, logger))
	}

	if cfg.ForegroundSignal {
		if sigs := foregroundSignals(); len(sigs) > 0 {
			monitor.Add(events.NewOSSignalSource(events.KindForeground, sigs...))
		}
	}
	return monitor, nil
}

// importSeed добавляет записи из JSON файла в локальную коллекцию и outbox
func importSeed(ctx context.Context, records storage.RecordStorage, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to read seed file: %w", err)
	}

	var seed []models.Record
	if err := json.Unmarshal(data, &seed); err != nil {
		return 0, fmt.Errorf("failed to parse seed file %s: %w", path, err)
	}

	for i, rec := range seed {
		if err := validation.ValidateRecordID(string(rec.ID)); err != nil {
			return i, fmt.Errorf("seed record #%d: %w", i+1, err)
		}
		if rec.Type == "" {
			rec.Type = DefaultRecordType
		}
		if rec.Fields == nil {
			rec.Fields = make(map[string]json.RawMessage)
		}
		if err := records.PutRecord(ctx, rec); err != nil {
			return i, err
		}
		if err := records.MarkPending(ctx, rec.ID, storage.PendingSave); err != nil {
			return i, err
		}
	}
	return len(seed), nil
}
