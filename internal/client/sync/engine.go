// Package sync реализует клиентский движок синхронизации записей с удалённым
// хранилищем: подготовку зоны и подписки, выгрузку outbox, инкрементальную
// выборку изменений по токенам и разрешение конфликтов записи.
//
// Все удалённые операции выполняются одной рабочей горутиной в порядке постановки.
// Колбэки доставляются второй, отдельной горутиной, тоже по одному.
package sync

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/iudanet/zonesync/internal/client/remote"
	"github.com/iudanet/zonesync/internal/client/storage"
	"github.com/iudanet/zonesync/internal/conflict"
	"github.com/iudanet/zonesync/internal/models"
	"github.com/iudanet/zonesync/internal/validation"
)

// Config параметры движка
type Config struct {
	// Resolver стратегия разрешения конфликтов; nil означает last-modified-wins
	Resolver conflict.Resolver

	Zone           models.ZoneID
	SubscriptionID string

	Retry RetryPolicy

	// MaxBatch максимальный размер пакета модификации; 0 без ограничения
	MaxBatch int
}

// Callbacks уведомления встраивающего приложения.
// Все вызываются на одной горутине доставки; nil поля пропускаются.
type Callbacks struct {
	// OnRecordsChanged записи, изменённые удалённо, и записи, сохранённые после разрешения конфликта
	OnRecordsChanged func(records []models.Record)
	// OnRecordsDeleted записи, удалённые удалённо
	OnRecordsDeleted func(ids []models.RecordID)
	// OnRecordsUploaded подтверждённые выгрузки с обновлённым SystemMetadata,
	// включая записи, сохранённые после разрешения конфликта
	OnRecordsUploaded func(saved []models.Record, deleted []models.RecordID)
	// OnRecordsDropped записи, чью запись отбросила стратегия разрешения конфликтов.
	// Движок убрал их из outbox и повторять не будет.
	OnRecordsDropped func(ids []models.RecordID)
	// OnFault постоянные ошибки и ошибки операций без completion
	OnFault func(err error)
}

// Result итог одного прогона
type Result struct {
	Changed  []models.Record
	Deleted  []models.RecordID
	Uploaded []models.Record
	Merged   []models.Record
	Dropped  []models.RecordID
}

// HasChanges сообщает, принёс ли прогон удалённые изменения
func (r Result) HasChanges() bool {
	return len(r.Changed) > 0 || len(r.Deleted) > 0
}

// Notification полезная нагрузка push-уведомления об изменении зоны
type Notification struct {
	SubscriptionID string        `json:"subscription_id"`
	Zone           models.ZoneID `json:"zone,omitempty"`
}

// Status снимок состояния движка
type Status struct {
	State             models.SyncState `json:"state"`
	Zone              models.ZoneID    `json:"zone"`
	Subscription      string           `json:"subscription"`
	LastError         string           `json:"last_error,omitempty"`
	ZoneState         ProvisionState   `json:"zone_state"`
	SubscriptionState ProvisionState   `json:"subscription_state"`
	Pending           int              `json:"pending"`
	Enabled           bool             `json:"enabled"`
	Halted            bool             `json:"halted"`
}

// echo собственная выгрузка, которую не нужно сообщать как удалённое изменение
type echo struct {
	etag    []byte
	deleted bool
}

// Engine координирует синхронизацию одной зоны
type Engine struct {
	cb          Callbacks
	store       remote.Store
	journal     storage.Journal
	logger      *slog.Logger
	state       *stateKeeper
	worker      *dispatcher
	completions *dispatcher
	outbox      *outbox
	prov        *provisioner
	dbFetcher   *databaseFetcher
	zoneFetcher *zoneFetcher
	uploader    *uploader
	retrier     *retrier

	// echoes доступен только рабочей горутине
	echoes map[models.RecordID]echo

	// ctx контекст текущего включения; Stop отменяет его и создаёт новый
	ctx     context.Context
	cancel  context.CancelFunc
	halted  error
	lastErr error
	// gen растёт при каждом Start, Stop и AccountChanged
	gen uint64

	cfg Config

	mu           sync.Mutex
	uploadQueued atomic.Bool
	enabled      bool
	closed       bool
}

// NewEngine создает движок и загружает сохранённое состояние синхронизации.
// journal может быть nil.
func NewEngine(
	ctx context.Context,
	cfg Config,
	store remote.Store,
	states storage.StateStorage,
	journal storage.Journal,
	cb Callbacks,
	logger *slog.Logger,
) (*Engine, error) {
	if err := validation.ValidateZoneName(string(cfg.Zone)); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if err := validation.ValidateSubscriptionID(cfg.SubscriptionID); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if cfg.Resolver == nil {
		cfg.Resolver = conflict.LastModifiedWins{}
	}
	if cfg.Retry == (RetryPolicy{}) {
		cfg.Retry = DefaultRetryPolicy()
	}
	if cfg.MaxBatch < 0 {
		cfg.MaxBatch = 0
	}

	logger = logger.With("zone", cfg.Zone)
	keeper := newStateKeeper(states, journal, logger)
	if err := keeper.load(ctx); err != nil {
		return nil, err
	}

	r := newRetrier(cfg.Retry, logger)
	e := &Engine{
		cfg:     cfg,
		cb:      cb,
		store:   store,
		journal: journal,
		logger:  logger,
		state:   keeper,
		retrier: r,
		outbox:  newOutbox(),
		echoes:  make(map[models.RecordID]echo),
		prov: &provisioner{
			store:        store,
			state:        keeper,
			retrier:      r,
			logger:       logger,
			zone:         cfg.Zone,
			subscription: cfg.SubscriptionID,
		},
		dbFetcher: &databaseFetcher{
			store:   store,
			state:   keeper,
			retrier: r,
			logger:  logger,
			zone:    cfg.Zone,
		},
		zoneFetcher: &zoneFetcher{
			store:   store,
			state:   keeper,
			retrier: r,
			logger:  logger,
			zone:    cfg.Zone,
		},
		uploader: &uploader{
			store:    store,
			resolver: cfg.Resolver,
			retrier:  r,
			logger:   logger,
			zone:     cfg.Zone,
			maxBatch: cfg.MaxBatch,
		},
	}
	e.ctx, e.cancel = context.WithCancel(context.Background())

	e.completions = newDispatcher(logger.With("dispatcher", "completions"), nil)
	e.worker = newDispatcher(logger.With("dispatcher", "worker"), e.onWorkerPanic)

	return e, nil
}

// Start включает синхронизацию: все известные локально записи попадают в outbox,
// затем выполняется полный цикл.
func (e *Engine) Start(local []models.Record) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.enabled = true
	e.halted = nil
	e.gen++
	e.mu.Unlock()

	e.outbox.save(e.validRecords(local)...)
	e.logger.Info("Sync enabled", "seeded", len(local))

	e.enqueue("start", models.SessionFull, nil, func(ctx context.Context, s *session) error {
		e.prov.reset()
		return e.fullCycle(ctx, s)
	})
}

// Stop выключает синхронизацию: отменяет текущую и queued операции, очищает outbox
// и сбрасывает сохранённое состояние следующей задачей рабочей горутины.
func (e *Engine) Stop() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.enabled = false
	e.halted = nil
	e.lastErr = nil
	e.gen++
	gen := e.gen
	e.cancel()
	e.ctx, e.cancel = context.WithCancel(context.Background())
	e.mu.Unlock()

	dropped := e.worker.cancelUpTo(gen)
	e.outbox.clear()
	e.uploadQueued.Store(false)
	e.logger.Info("Sync disabled", "cancelled", dropped)

	e.worker.submit(task{
		name: "reset",
		keep: true,
		run: func() {
			if err := e.resetState("sync disabled"); err != nil {
				e.logger.Error("Failed to reset sync state", "error", err)
				e.fault(err)
			}
		},
	})
}

// Save добавляет записи в outbox и планирует выгрузку
func (e *Engine) Save(records ...models.Record) {
	records = e.validRecords(records)
	if len(records) == 0 {
		return
	}
	e.outbox.save(records...)
	e.scheduleUpload()
}

// Delete добавляет удаления в outbox и планирует выгрузку
func (e *Engine) Delete(ids ...models.RecordID) {
	valid := ids[:0:0]
	for _, id := range ids {
		if err := validation.ValidateRecordID(string(id)); err != nil {
			e.logger.Warn("Skipping invalid record id", "record", id, "error", err)
			continue
		}
		valid = append(valid, id)
	}
	if len(valid) == 0 {
		return
	}
	e.outbox.remove(valid...)
	e.scheduleUpload()
}

// RunFullCycle проверяет учётную запись, подготавливает зону и подписку,
// выгружает outbox и забирает удалённые изменения. completion может быть nil.
func (e *Engine) RunFullCycle(completion func(Result, error)) {
	e.enqueue("full cycle", models.SessionFull, completion, e.fullCycle)
}

// FetchChanges выполняет цикл только выборки изменений
func (e *Engine) FetchChanges(completion func(Result, error)) {
	e.enqueue("fetch", models.SessionFetch, completion, e.fetchCycle)
}

// HandleRemoteNotification проверяет, что уведомление относится к подписке движка,
// и запускает цикл выборки. completion получает true, если пришли новые данные.
func (e *Engine) HandleRemoteNotification(n Notification, completion func(bool, error)) {
	done := func(res Result, err error) {
		if completion != nil {
			completion(res.HasChanges(), err)
		}
	}

	if n.SubscriptionID != e.cfg.SubscriptionID || (n.Zone != "" && n.Zone != e.cfg.Zone) {
		e.logger.Debug("Ignoring foreign notification", "subscription", n.SubscriptionID, "notification_zone", n.Zone)
		e.deliver("notification", func() { done(Result{}, ErrForeignNotification) })
		return
	}

	e.enqueue("push", models.SessionPush, done, e.fetchCycle)
}

// AccountChanged перепроверяет подготовку ресурсов и запускает полный цикл.
// Снимает остановку после постоянной ошибки учётной записи.
func (e *Engine) AccountChanged() {
	e.mu.Lock()
	e.halted = nil
	e.gen++
	e.mu.Unlock()

	e.logger.Info("Account changed, re-verifying sync")
	e.enqueue("account changed", models.SessionFull, nil, func(ctx context.Context, s *session) error {
		e.prov.reset()
		return e.fullCycle(ctx, s)
	})
}

// ResetState сбрасывает сохранённое состояние синхронизации после ручного
// устранения постоянной ошибки. Outbox сохраняется.
func (e *Engine) ResetState(completion func(error)) {
	ok := e.worker.submit(task{
		name: "reset state",
		keep: true,
		run: func() {
			err := e.resetState("explicit reset")
			if err == nil {
				e.mu.Lock()
				e.halted = nil
				e.lastErr = nil
				e.mu.Unlock()
			}
			if completion != nil {
				e.deliver("reset state", func() { completion(err) })
			}
		},
	})
	if !ok && completion != nil {
		completion(ErrClosed)
	}
}

// Flush ждёт, пока будут обработаны все операции и колбэки, поставленные до вызова
func (e *Engine) Flush(ctx context.Context) error {
	done := make(chan struct{})
	ok := e.worker.submit(task{
		name: "flush",
		keep: true,
		run: func() {
			if !e.completions.submit(task{name: "flush", keep: true, run: func() { close(done) }}) {
				close(done)
			}
		},
	})
	if !ok {
		return ErrClosed
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close отменяет оставшиеся операции и останавливает горутины движка
func (e *Engine) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	e.enabled = false
	e.mu.Unlock()

	e.worker.cancelPending()
	e.mu.Lock()
	e.cancel()
	e.mu.Unlock()

	e.worker.close()
	e.worker.wait()
	e.completions.close()
	e.completions.wait()
	e.logger.Debug("Sync engine closed")
}

// Status возвращает снимок состояния движка
func (e *Engine) Status() Status {
	zoneState, subState := e.prov.states()

	e.mu.Lock()
	defer e.mu.Unlock()

	st := Status{
		State:             e.state.snapshot(),
		Zone:              e.cfg.Zone,
		Subscription:      e.cfg.SubscriptionID,
		ZoneState:         zoneState,
		SubscriptionState: subState,
		Pending:           e.outbox.len(),
		Enabled:           e.enabled,
		Halted:            e.halted != nil,
	}
	if e.lastErr != nil {
		st.LastError = e.lastErr.Error()
	}
	return st
}

func (e *Engine) validRecords(records []models.Record) []models.Record {
	valid := make([]models.Record, 0, len(records))
	for _, rec := range records {
		if err := validation.ValidateRecordID(string(rec.ID)); err != nil {
			e.logger.Warn("Skipping invalid record", "record", rec.ID, "error", err)
			continue
		}
		valid = append(valid, rec)
	}
	return valid
}

// scheduleUpload ставит выгрузку, если она ещё не стоит в очереди.
// Частые Save/Delete схлопываются в одну выгрузку.
func (e *Engine) scheduleUpload() {
	e.mu.Lock()
	enabled := e.enabled
	e.mu.Unlock()
	if !enabled {
		return
	}
	if !e.uploadQueued.CompareAndSwap(false, true) {
		return
	}

	e.enqueueTask("upload", models.SessionUpload, nil, func(ctx context.Context, s *session) error {
		e.uploadQueued.Store(false)
		s.op = "provision"
		if err := e.prov.ensure(ctx); err != nil {
			return err
		}
		return e.upload(ctx, s)
	}, func() { e.uploadQueued.Store(false) })
}

// resetState сбрасывает SyncState и состояние подготовки. Только рабочая горутина.
func (e *Engine) resetState(reason string) error {
	e.prov.reset()
	clear(e.echoes)
	if err := e.state.reset(context.Background(), reason); err != nil {
		return fmt.Errorf("failed to reset sync state: %w", err)
	}
	e.logger.Info("Sync state reset", "reason", reason)
	return nil
}

// deliver ставит колбэк на горутину доставки
func (e *Engine) deliver(name string, fn func()) {
	if !e.completions.submit(task{name: name, keep: true, run: fn}) {
		e.logger.Debug("Callback skipped, engine closed", "callback", name)
	}
}

// fault доставляет ошибку в OnFault
func (e *Engine) fault(err error) {
	if e.cb.OnFault == nil {
		return
	}
	e.deliver("fault", func() { e.cb.OnFault(err) })
}

func (e *Engine) onWorkerPanic(name string, v any) {
	e.fault(&FaultError{Op: name, Kind: KindUnclassified, Err: fmt.Errorf("panic: %v", v)})
}
