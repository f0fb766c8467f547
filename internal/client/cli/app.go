package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/iudanet/zonesync/internal/client/api"
	"github.com/iudanet/zonesync/internal/client/remote"
	"github.com/iudanet/zonesync/internal/client/storage"
	"github.com/iudanet/zonesync/internal/client/storage/boltdb"
	"github.com/iudanet/zonesync/internal/client/storage/sqlite"
	zsync "github.com/iudanet/zonesync/internal/client/sync"
	"github.com/iudanet/zonesync/internal/conflict"
	"github.com/iudanet/zonesync/internal/models"
)

// workspace открытые локальные базы одной команды
type workspace struct {
	store   *boltdb.Storage
	journal *sqlite.Journal // nil, если журнал выключен
}

// openWorkspace открывает базу состояния и, если включён, журнал
func (c *Cli) openWorkspace(ctx context.Context) (*workspace, error) {
	if err := os.MkdirAll(filepath.Dir(c.cfg.State.Path), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	store, err := boltdb.New(ctx, c.cfg.State.Path, c.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s (is the daemon running?): %w", c.cfg.State.Path, err)
	}

	ws := &workspace{store: store}
	if !c.cfg.Journal.Enabled {
		return ws, nil
	}

	if err := os.MkdirAll(filepath.Dir(c.cfg.Journal.Path), 0o700); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to create journal directory: %w", err)
	}
	journal, err := sqlite.New(ctx, c.cfg.Journal.Path)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}
	ws.journal = journal
	return ws, nil
}

// engineJournal возвращает журнал как интерфейс; выключенный журнал даёт nil интерфейс
func (w *workspace) engineJournal() storage.Journal {
	if w.journal == nil {
		return nil
	}
	return w.journal
}

func (w *workspace) Close() error {
	var errs []error
	if w.journal != nil {
		errs = append(errs, w.journal.Close())
	}
	errs = append(errs, w.store.Close())
	return errors.Join(errs...)
}

func (c *Cli) closeWorkspace(ws *workspace) {
	if err := ws.Close(); err != nil {
		c.logger.Error("Failed to close local databases", "error", err)
	}
}

// newEngine создает движок поверх локальных баз и удалённого хранилища
func (c *Cli) newEngine(ctx context.Context, ws *workspace, cb zsync.Callbacks) (*zsync.Engine, error) {
	resolver, err := conflict.ByName(c.cfg.Conflict.Strategy)
	if err != nil {
		return nil, err
	}

	engine, err := zsync.NewEngine(ctx, zsync.Config{
		Resolver:       resolver,
		Zone:           models.ZoneID(c.cfg.Zone.Name),
		SubscriptionID: c.cfg.Zone.SubscriptionID,
		Retry: zsync.RetryPolicy{
			BaseDelay:   c.cfg.Retry.BaseDelay,
			MaxDelay:    c.cfg.Retry.MaxDelay,
			MaxAttempts: c.cfg.Retry.MaxAttempts,
		},
		MaxBatch: c.cfg.Upload.MaxBatch,
	}, c.remote(), ws.store, ws.engineJournal(), cb, c.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create sync engine: %w", err)
	}
	return engine, nil
}

// remote создает клиент удалённого хранилища с токеном из token_file
func (c *Cli) remote() remote.Store {
	tokens := api.NewFileTokenProvider(c.cfg.Remote.TokenFile)
	return c.newRemote(c.cfg, tokens, c.logger)
}

// startEngine включает синхронизацию с локальным outbox
func (c *Cli) startEngine(ctx context.Context, ws *workspace, engine *zsync.Engine) error {
	state, err := ws.store.LoadState(ctx)
	if err != nil {
		return fmt.Errorf("failed to load sync state: %w", err)
	}
	records, deletes, err := outboxSeed(ctx, ws.store, state)
	if err != nil {
		return err
	}

	engine.Start(records)
	if len(deletes) > 0 {
		engine.Delete(deletes...)
	}
	c.logger.Debug("Outbox seeded", "save", len(records), "delete", len(deletes))
	return nil
}

// outboxSeed собирает записи для выгрузки при включении синхронизации.
// Пока зона ни разу не подготавливалась, выгружается вся локальная коллекция,
// иначе только записи из локального outbox.
func outboxSeed(ctx context.Context, records storage.RecordStorage, state models.SyncState) ([]models.Record, []models.RecordID, error) {
	pending, err := records.Pending(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read outbox: %w", err)
	}
	if state.ZoneProvisioned || !state.ZoneToken.IsZero() {
		return pending.RecordsToSave, pending.RecordIDsToDelete, nil
	}

	all, err := records.ListRecords(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list records: %w", err)
	}
	all = slices.DeleteFunc(all, func(rec models.Record) bool {
		return slices.Contains(pending.RecordIDsToDelete, rec.ID)
	})
	return all, pending.RecordIDsToDelete, nil
}
