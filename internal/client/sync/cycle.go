package sync

import (
	"bytes"
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/iudanet/zonesync/internal/client/remote"
	"github.com/iudanet/zonesync/internal/models"
)

// session один прогон синхронизации: накапливает результат до терминального колбэка
type session struct {
	started  time.Time
	id       string
	op       string
	kind     models.SessionKind
	result   Result
	uploaded int
	gen      uint64
}

type sessionBody func(ctx context.Context, s *session) error

func (e *Engine) enqueue(name string, kind models.SessionKind, done func(Result, error), body sessionBody) {
	e.enqueueTask(name, kind, done, body, nil)
}

// enqueueTask ставит прогон в очередь рабочей горутины.
// Снятая с очереди задача сообщает completion ErrCancelled.
func (e *Engine) enqueueTask(name string, kind models.SessionKind, done func(Result, error), body sessionBody, onDrop func()) {
	e.mu.Lock()
	gen := e.gen
	e.mu.Unlock()

	t := task{
		name: name,
		gen:  gen,
		run: func() {
			e.runSession(name, kind, done, body)
		},
		drop: func() {
			if onDrop != nil {
				onDrop()
			}
			if done != nil {
				e.deliver(name, func() { done(Result{}, ErrCancelled) })
			}
		},
	}

	if !e.worker.submit(t) {
		if onDrop != nil {
			onDrop()
		}
		if done != nil {
			done(Result{}, ErrClosed)
		}
	}
}

// sessionContext контекст и поколение текущего включения или причина,
// по которой прогон невозможен
func (e *Engine) sessionContext() (context.Context, uint64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch {
	case e.closed:
		return nil, 0, ErrClosed
	case !e.enabled:
		return nil, 0, ErrDisabled
	case e.halted != nil:
		return nil, 0, e.halted
	}
	return e.ctx, e.gen, nil
}

func (e *Engine) runSession(name string, kind models.SessionKind, done func(Result, error), body sessionBody) {
	ctx, gen, err := e.sessionContext()
	if err != nil {
		e.logger.Debug("Sync operation skipped", "operation", name, "reason", err)
		if done != nil {
			e.deliver(name, func() { done(Result{}, err) })
		}
		return
	}

	s := &session{
		id:      uuid.NewString(),
		kind:    kind,
		op:      name,
		started: time.Now(),
		gen:     gen,
	}
	e.state.setSession(s.id)
	e.logger.Debug("Sync session started", "session", s.id, "kind", kind)

	err = body(ctx, s)
	e.finish(s, done, err)
}

// finish доставляет результат прогона и пишет итог в журнал
func (e *Engine) finish(s *session, done func(Result, error), err error) {
	defer e.recordSession(s, err)

	if err != nil {
		e.handleError(s, done, err)
		return
	}

	e.mu.Lock()
	e.lastErr = nil
	e.mu.Unlock()

	res := s.result
	if len(res.Changed) > 0 && e.cb.OnRecordsChanged != nil {
		e.deliver("records changed", func() { e.cb.OnRecordsChanged(res.Changed) })
	}
	if len(res.Deleted) > 0 && e.cb.OnRecordsDeleted != nil {
		e.deliver("records deleted", func() { e.cb.OnRecordsDeleted(res.Deleted) })
	}
	if done != nil {
		e.deliver(s.op, func() { done(res, nil) })
	}

	e.logger.Info("Sync session finished",
		"session", s.id,
		"kind", s.kind,
		"duration", time.Since(s.started),
		"uploaded", s.uploaded,
		"changed", len(res.Changed),
		"deleted", len(res.Deleted),
	)
}

// handleError решает судьбу ошибки, вышедшей из прогона. Временные ошибки сюда
// не доходят: их повторяет retrier на своём шаге.
func (e *Engine) handleError(s *session, done func(Result, error), err error) {
	res := s.result
	d := Classify(err)

	switch {
	case d.Kind == KindCancelled:
		e.logger.Debug("Sync session cancelled", "session", s.id, "step", s.op)
		if done != nil {
			e.deliver(s.op, func() { done(res, ErrCancelled) })
		}

	case d.Permanent():
		fault := &FaultError{Op: s.op, Kind: d.Kind, Err: err}
		// Start или AccountChanged после начала прогона уже запросили перепроверку:
		// остановка не ставится, их задачи остаются в очереди.
		e.mu.Lock()
		current := e.gen == s.gen
		if current {
			e.halted = fault
		}
		e.lastErr = fault
		e.mu.Unlock()

		if current {
			dropped := e.worker.cancelUpTo(s.gen)
			e.logger.Error("Sync halted by permanent error",
				"session", s.id,
				"step", s.op,
				"kind", d.Kind,
				"cancelled", dropped,
				"error", err,
			)
		} else {
			e.logger.Error("Permanent error superseded by a newer enablement",
				"session", s.id,
				"step", s.op,
				"kind", d.Kind,
				"error", err,
			)
		}

		e.fault(fault)
		if done != nil {
			e.deliver(s.op, func() { done(res, fault) })
		}

	default:
		e.mu.Lock()
		e.lastErr = err
		e.mu.Unlock()

		e.logger.Error("Sync session failed", "session", s.id, "step", s.op, "kind", d.Kind, "error", err)
		if done != nil {
			e.deliver(s.op, func() { done(res, err) })
		} else {
			e.fault(err)
		}
	}
}

func (e *Engine) recordSession(s *session, err error) {
	if e.journal == nil {
		return
	}
	summary := models.SessionSummary{
		ID:         s.id,
		Kind:       s.kind,
		StartedAt:  s.started.UTC(),
		FinishedAt: time.Now().UTC(),
		Uploaded:   s.uploaded,
		Changed:    len(s.result.Changed),
		Deleted:    len(s.result.Deleted),
	}
	if err != nil {
		summary.Error = err.Error()
	}
	if jerr := e.journal.RecordSession(context.Background(), summary); jerr != nil {
		e.logger.Warn("Failed to journal sync session", "session", s.id, "error", jerr)
	}
}

// fullCycle: учётная запись, подготовка, выгрузка, выборка
func (e *Engine) fullCycle(ctx context.Context, s *session) error {
	s.op = "verify account"
	if err := e.verifyAccount(ctx); err != nil {
		return err
	}

	s.op = "provision"
	if err := e.prov.ensure(ctx); err != nil {
		return err
	}

	if err := e.upload(ctx, s); err != nil {
		return err
	}
	return e.fetch(ctx, s)
}

// fetchCycle: подготовка и выборка без выгрузки
func (e *Engine) fetchCycle(ctx context.Context, s *session) error {
	s.op = "provision"
	if err := e.prov.ensure(ctx); err != nil {
		return err
	}
	return e.fetch(ctx, s)
}

func (e *Engine) verifyAccount(ctx context.Context) error {
	return e.retrier.do(ctx, "account status", func(ctx context.Context) error {
		status, err := e.store.AccountStatus(ctx)
		if err != nil {
			return err
		}
		return accountStatusError(status)
	})
}

// accountStatusError переводит статус учётной записи в ошибку хранилища
func accountStatusError(status remote.AccountStatus) error {
	switch status {
	case remote.AccountAvailable:
		return nil
	case remote.AccountNoAccount:
		return remote.NewError(remote.CodeNotAuthenticated, "no remote account")
	case remote.AccountRestricted:
		return remote.NewError(remote.CodePermissionFailure, "remote account is restricted")
	case remote.AccountTemporarilyUnavailable:
		return remote.NewError(remote.CodeServiceUnavailable, "remote account is temporarily unavailable")
	case remote.AccountCouldNotDetermine:
		return remote.NewError(remote.CodeNetworkUnavailable, "could not determine account status")
	default:
		return remote.NewError(remote.CodeUnknown, fmt.Sprintf("unexpected account status %q", status))
	}
}

// upload выгружает снимок outbox и подтверждает то, что хранилище приняло
func (e *Engine) upload(ctx context.Context, s *session) error {
	set, revs := e.outbox.snapshot()
	if set.IsEmpty() {
		return nil
	}

	s.op = "upload"
	report, err := e.uploader.upload(ctx, set)
	if report != nil {
		e.applyUpload(s, revs, report)
	}
	return err
}

func (e *Engine) applyUpload(s *session, revs map[models.RecordID]uint64, report *uploadReport) {
	e.outbox.confirmSaved(revs, report.Saved...)
	e.outbox.confirmSaved(revs, report.Merged...)
	e.outbox.confirmDeleted(revs, report.Deleted...)
	e.outbox.drop(revs, report.Dropped...)

	for _, rec := range report.Saved {
		e.echoes[rec.ID] = echo{etag: bytes.Clone(rec.SystemMetadata)}
	}
	for _, rec := range report.Merged {
		e.echoes[rec.ID] = echo{etag: bytes.Clone(rec.SystemMetadata)}
	}
	for _, id := range report.Deleted {
		e.echoes[id] = echo{deleted: true}
	}

	s.uploaded += report.confirmed()
	s.result.Uploaded = append(s.result.Uploaded, report.Saved...)
	s.result.Merged = append(s.result.Merged, report.Merged...)
	s.result.Dropped = append(s.result.Dropped, report.Dropped...)

	// Слитые записи тоже подтверждённые сохранения: хост снимает их с outbox
	saved := append(slices.Clip(report.Saved), report.Merged...)
	deleted, merged, dropped := report.Deleted, report.Merged, report.Dropped
	if (len(saved) > 0 || len(deleted) > 0) && e.cb.OnRecordsUploaded != nil {
		e.deliver("records uploaded", func() { e.cb.OnRecordsUploaded(saved, deleted) })
	}
	if len(merged) > 0 && e.cb.OnRecordsChanged != nil {
		e.deliver("records merged", func() { e.cb.OnRecordsChanged(merged) })
	}
	if len(dropped) > 0 && e.cb.OnRecordsDropped != nil {
		e.deliver("records dropped", func() { e.cb.OnRecordsDropped(dropped) })
	}
}

// fetch выбирает изменения базы данных и, если нужно, зоны.
// Собственные выгрузки отфильтровываются. Успешная выборка покрывает все
// выгрузки, сделанные до неё, поэтому оставшиеся отметки echoes после неё сбрасываются.
func (e *Engine) fetch(ctx context.Context, s *session) error {
	s.op = "fetch database changes"
	outcome, err := e.dbFetcher.fetch(ctx)
	if err != nil {
		return err
	}
	if outcome == dbUnchanged && !e.state.snapshot().ZoneToken.IsZero() {
		clear(e.echoes)
		return nil
	}

	s.op = "fetch zone changes"
	changes, err := e.zoneFetcher.fetch(ctx)
	if err != nil {
		return err
	}

	suppressed := 0
	for _, rec := range changes.changed {
		if ec, ok := e.echoes[rec.ID]; ok {
			delete(e.echoes, rec.ID)
			if !ec.deleted && bytes.Equal(ec.etag, rec.SystemMetadata) {
				suppressed++
				continue
			}
		}
		s.result.Changed = append(s.result.Changed, rec)
	}
	for _, id := range changes.deleted {
		if ec, ok := e.echoes[id]; ok {
			delete(e.echoes, id)
			if ec.deleted {
				suppressed++
				continue
			}
		}
		s.result.Deleted = append(s.result.Deleted, id)
	}

	if suppressed > 0 {
		e.logger.Debug("Own uploads filtered from fetched changes", "session", s.id, "count", suppressed)
	}
	clear(e.echoes)
	return nil
}
