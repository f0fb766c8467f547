package sync

import (
	"context"
	"errors"
	"log/slog"
	"slices"

	"github.com/iudanet/zonesync/internal/client/remote"
	"github.com/iudanet/zonesync/internal/conflict"
	"github.com/iudanet/zonesync/internal/models"
)

// batch один пакет модификации
type batch struct {
	save []models.Record
	del  []models.RecordID
	// level глубина деления пакета из-за LIMIT_EXCEEDED
	level int
	// conflictRetry повторная отправка записи после разрешения конфликта
	conflictRetry bool
}

func (b batch) size() int {
	return len(b.save) + len(b.del)
}

// split делит общую последовательность (сначала сохранения, затем удаления)
// пополам; вторая половина получает лишний элемент.
func (b batch) split() (batch, batch) {
	h := b.size() / 2
	first := batch{level: b.level + 1, conflictRetry: b.conflictRetry}
	second := batch{level: b.level + 1, conflictRetry: b.conflictRetry}

	if h <= len(b.save) {
		first.save = b.save[:h]
		second.save = b.save[h:]
		second.del = b.del
	} else {
		first.save = b.save
		first.del = b.del[:h-len(b.save)]
		second.del = b.del[h-len(b.save):]
	}
	return first, second
}

// uploadReport итог выгрузки outbox
type uploadReport struct {
	// Failed ошибки отдельных записей; такие записи остаются в outbox
	Failed map[models.RecordID]error
	// Saved подтверждённые сохранения с обновлённым SystemMetadata
	Saved []models.Record
	// Merged записи, сохранённые после разрешения конфликта
	Merged []models.Record
	// Deleted подтверждённые удаления
	Deleted []models.RecordID
	// Dropped записи, отброшенные стратегией разрешения конфликтов
	Dropped []models.RecordID
	// SplitLevels максимальная глубина деления пакетов
	SplitLevels int
	Batches     int
}

func (r *uploadReport) confirmed() int {
	return len(r.Saved) + len(r.Merged) + len(r.Deleted)
}

// uploader выгружает outbox пакетами с политикой changed_keys
type uploader struct {
	store    remote.Store
	resolver conflict.Resolver
	retrier  *retrier
	logger   *slog.Logger
	zone     models.ZoneID
	maxBatch int
}

// upload отправляет set. Очередь пакетов обрабатывается итеративно:
// половины разделённого пакета и пакеты повторной отправки после конфликта
// ставятся в начало очереди, поэтому порядок записей сохраняется.
// При невременной ошибке пакета возвращается частичный отчёт и ошибка.
func (u *uploader) upload(ctx context.Context, set models.PendingChangeSet) (*uploadReport, error) {
	report := &uploadReport{Failed: make(map[models.RecordID]error)}
	if set.IsEmpty() {
		return report, nil
	}

	queue := u.chunk(set)
	for len(queue) > 0 {
		b := queue[0]
		queue = queue[1:]

		res, err := u.modify(ctx, b)
		report.Batches++
		if err != nil {
			if Classify(err).Kind == KindBatchTooLarge && b.size() > 1 {
				first, second := b.split()
				report.SplitLevels = max(report.SplitLevels, first.level)
				u.logger.Debug("Batch too large, splitting",
					"size", b.size(),
					"first", first.size(),
					"second", second.size(),
					"level", first.level,
				)
				queue = append([]batch{first, second}, queue...)
				continue
			}
			return report, err
		}

		retries := u.apply(b, res, report)
		queue = append(retries, queue...)
	}

	u.logger.Debug("Outbox uploaded",
		"zone", u.zone,
		"saved", len(report.Saved),
		"merged", len(report.Merged),
		"deleted", len(report.Deleted),
		"dropped", len(report.Dropped),
		"failed", len(report.Failed),
		"batches", report.Batches,
	)
	return report, nil
}

// chunk разбивает исходный набор на пакеты не больше maxBatch
func (u *uploader) chunk(set models.PendingChangeSet) []batch {
	whole := batch{save: set.RecordsToSave, del: set.RecordIDsToDelete}
	if u.maxBatch <= 0 || whole.size() <= u.maxBatch {
		return []batch{whole}
	}

	var out []batch
	for part := range slices.Chunk(whole.save, u.maxBatch) {
		out = append(out, batch{save: part})
	}
	// хвост сохранений добивается удалениями
	dels := whole.del
	if len(out) > 0 {
		if last := &out[len(out)-1]; last.size() < u.maxBatch {
			n := min(u.maxBatch-last.size(), len(dels))
			last.del = dels[:n]
			dels = dels[n:]
		}
	}
	for part := range slices.Chunk(dels, u.maxBatch) {
		out = append(out, batch{del: part})
	}
	return out
}

func (u *uploader) modify(ctx context.Context, b batch) (*remote.ModifyResult, error) {
	req := remote.ModifyRequest{
		Zone:   u.zone,
		Policy: remote.SaveChangedKeys,
		Save:   b.save,
		Delete: b.del,
	}

	var res *remote.ModifyResult
	err := u.retrier.do(ctx, "modify records", func(ctx context.Context) error {
		var err error
		res, err = u.store.ModifyRecords(ctx, req)
		return err
	})
	return res, err
}

// apply разбирает результат пакета и возвращает пакеты повторной отправки
func (u *uploader) apply(b batch, res *remote.ModifyResult, report *uploadReport) []batch {
	if b.conflictRetry {
		report.Merged = append(report.Merged, res.Saved...)
	} else {
		report.Saved = append(report.Saved, res.Saved...)
	}
	report.Deleted = append(report.Deleted, res.Deleted...)

	var retries []batch
	for _, rec := range b.save {
		rerr, ok := res.RecordErrors[rec.ID]
		if !ok {
			continue
		}
		if resolved := u.resolve(b, rec, rerr, report); resolved != nil {
			retries = append(retries, batch{save: []models.Record{*resolved}, level: b.level, conflictRetry: true})
		}
	}
	for _, id := range b.del {
		if rerr, ok := res.RecordErrors[id]; ok {
			u.logger.Warn("Failed to delete record", "zone", u.zone, "record", id, "error", rerr)
			report.Failed[id] = rerr
		}
	}
	return retries
}

// resolve обрабатывает ошибку одной записи. Конфликт разрешается один раз;
// повторный конфликт или отказ стратегии отбрасывает запись.
func (u *uploader) resolve(b batch, rec models.Record, rerr error, report *uploadReport) *models.Record {
	var remoteErr *remote.Error
	if Classify(rerr).Kind != KindConflict || !errors.As(rerr, &remoteErr) || remoteErr.ServerRecord == nil {
		u.logger.Warn("Failed to save record", "zone", u.zone, "record", rec.ID, "error", rerr)
		report.Failed[rec.ID] = rerr
		return nil
	}

	if b.conflictRetry {
		u.logger.Warn("Record conflicted again after resolution, dropping", "zone", u.zone, "record", rec.ID)
		report.Dropped = append(report.Dropped, rec.ID)
		return nil
	}

	server := remoteErr.ServerRecord
	resolved := u.resolver.Resolve(rec.Clone(), server.Clone())
	if resolved == nil {
		u.logger.Warn("Conflict resolver discarded local change", "zone", u.zone, "record", rec.ID)
		report.Dropped = append(report.Dropped, rec.ID)
		return nil
	}

	out := resolved.Clone()
	out.ID = rec.ID
	out.SystemMetadata = slices.Clone(server.SystemMetadata)
	u.logger.Info("Write conflict resolved, resubmitting", "zone", u.zone, "record", rec.ID)
	return &out
}
