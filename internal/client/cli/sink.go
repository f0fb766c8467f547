package cli

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/iudanet/zonesync/internal/client/storage"
	zsync "github.com/iudanet/zonesync/internal/client/sync"
	"github.com/iudanet/zonesync/internal/models"
)

// recordSink применяет результаты синхронизации к локальной коллекции.
//
// Колбэки движка выполняются последовательно в его горутине доставки,
// поэтому sink не нуждается в собственной блокировке.
type recordSink struct {
	records storage.RecordStorage
	logger  *slog.Logger
	stats   sinkStats
}

// sinkStats счётчики применённых изменений за время жизни sink
type sinkStats struct {
	changed  atomic.Int64
	deleted  atomic.Int64
	uploaded atomic.Int64
	removed  atomic.Int64
	dropped  atomic.Int64
	faults   atomic.Int64
}

func newRecordSink(records storage.RecordStorage, logger *slog.Logger) *recordSink {
	return &recordSink{records: records, logger: logger}
}

func (s *recordSink) callbacks() zsync.Callbacks {
	return zsync.Callbacks{
		OnRecordsChanged:  s.changed,
		OnRecordsDeleted:  s.deleted,
		OnRecordsUploaded: s.uploaded,
		OnRecordsDropped:  s.dropped,
		OnFault:           s.fault,
	}
}

// changed сохраняет пришедшие и слитые записи. Отметки outbox не трогаем:
// слитая запись остаётся в outbox до подтверждения выгрузки.
func (s *recordSink) changed(records []models.Record) {
	ctx := context.Background()
	for _, rec := range records {
		if err := s.records.PutRecord(ctx, rec); err != nil {
			s.logger.Error("Failed to store remote record", "record", rec.ID, "error", err)
		}
	}
	s.stats.changed.Add(int64(len(records)))
	s.logger.Debug("Remote changes applied", "records", len(records))
}

func (s *recordSink) deleted(ids []models.RecordID) {
	ctx := context.Background()
	for _, id := range ids {
		if err := s.records.RemoveRecord(ctx, id); err != nil {
			s.logger.Error("Failed to remove record", "record", id, "error", err)
		}
	}
	if err := s.records.ClearPending(ctx, storage.PendingSave, ids...); err != nil {
		s.logger.Error("Failed to clear outbox", "error", err)
	}
	s.stats.deleted.Add(int64(len(ids)))
	s.logger.Debug("Remote deletions applied", "records", len(ids))
}

// uploaded сохраняет серверные версии выгруженных записей и снимает их с outbox
func (s *recordSink) uploaded(saved []models.Record, deleted []models.RecordID) {
	ctx := context.Background()
	for _, rec := range saved {
		rec.ChangedKeys = nil
		if err := s.records.PutRecord(ctx, rec); err != nil {
			s.logger.Error("Failed to store uploaded record", "record", rec.ID, "error", err)
		}
	}
	if err := s.records.ClearPending(ctx, storage.PendingSave, models.RecordIDs(saved)...); err != nil {
		s.logger.Error("Failed to clear outbox", "error", err)
	}
	if err := s.records.ClearPending(ctx, storage.PendingDelete, deleted...); err != nil {
		s.logger.Error("Failed to clear outbox", "error", err)
	}
	s.stats.uploaded.Add(int64(len(saved)))
	s.stats.removed.Add(int64(len(deleted)))
	s.logger.Debug("Upload confirmed", "saved", len(saved), "deleted", len(deleted))
}

// dropped снимает с outbox записи, отброшенные при разрешении конфликта.
// Локальная копия остаётся, хранилище сохраняет свою версию.
func (s *recordSink) dropped(ids []models.RecordID) {
	if err := s.records.ClearPending(context.Background(), storage.PendingSave, ids...); err != nil {
		s.logger.Error("Failed to clear outbox", "error", err)
	}
	s.stats.dropped.Add(int64(len(ids)))
	s.logger.Warn("Local changes dropped by conflict resolution", "records", ids)
}

func (s *recordSink) fault(err error) {
	s.stats.faults.Add(1)
	s.logger.Error("Sync stopped", "error", err)
}
