package sync

import (
	"cmp"
	"slices"
	"sync"

	"github.com/iudanet/zonesync/internal/models"
)

// outboxEntry одна ожидающая операция. rev растёт при каждом изменении записи,
// поэтому подтверждение устаревшей версии не удаляет более новую.
type outboxEntry struct {
	record *models.Record // nil для удаления
	id     models.RecordID
	rev    uint64
}

// outbox хранит локальные изменения до подтверждения удалённым хранилищем
type outbox struct {
	entries map[models.RecordID]*outboxEntry
	rev     uint64
	mu      sync.Mutex
}

func newOutbox() *outbox {
	return &outbox{entries: make(map[models.RecordID]*outboxEntry)}
}

// save ставит запись на сохранение, заменяя предыдущую операцию с тем же ID
func (o *outbox) save(records ...models.Record) {
	o.mu.Lock()
	defer o.mu.Unlock()

	for _, rec := range records {
		o.rev++
		cp := rec.Clone()
		o.entries[rec.ID] = &outboxEntry{id: rec.ID, record: &cp, rev: o.rev}
	}
}

// remove ставит удаление, заменяя предыдущую операцию с тем же ID
func (o *outbox) remove(ids ...models.RecordID) {
	o.mu.Lock()
	defer o.mu.Unlock()

	for _, id := range ids {
		o.rev++
		o.entries[id] = &outboxEntry{id: id, rev: o.rev}
	}
}

// snapshot возвращает содержимое в порядке постановки и ревизии записей
func (o *outbox) snapshot() (models.PendingChangeSet, map[models.RecordID]uint64) {
	o.mu.Lock()
	defer o.mu.Unlock()

	entries := make([]*outboxEntry, 0, len(o.entries))
	for _, e := range o.entries {
		entries = append(entries, e)
	}
	slices.SortFunc(entries, func(a, b *outboxEntry) int {
		return cmp.Compare(a.rev, b.rev)
	})

	var set models.PendingChangeSet
	revs := make(map[models.RecordID]uint64, len(entries))
	for _, e := range entries {
		revs[e.id] = e.rev
		if e.record != nil {
			set.RecordsToSave = append(set.RecordsToSave, e.record.Clone())
		} else {
			set.RecordIDsToDelete = append(set.RecordIDsToDelete, e.id)
		}
	}
	return set, revs
}

// confirmSaved удаляет подтверждённые сохранения. Если запись изменилась после
// снимка, она остаётся в outbox, но получает новый SystemMetadata.
func (o *outbox) confirmSaved(revs map[models.RecordID]uint64, saved ...models.Record) {
	o.mu.Lock()
	defer o.mu.Unlock()

	for _, rec := range saved {
		e, ok := o.entries[rec.ID]
		if !ok {
			continue
		}
		if e.rev == revs[rec.ID] {
			delete(o.entries, rec.ID)
			continue
		}
		if e.record != nil {
			e.record.SystemMetadata = slices.Clone(rec.SystemMetadata)
		}
	}
}

// confirmDeleted удаляет подтверждённые удаления той же ревизии
func (o *outbox) confirmDeleted(revs map[models.RecordID]uint64, ids ...models.RecordID) {
	o.mu.Lock()
	defer o.mu.Unlock()

	for _, id := range ids {
		if e, ok := o.entries[id]; ok && e.record == nil && e.rev == revs[id] {
			delete(o.entries, id)
		}
	}
}

// drop снимает записи, отброшенные разрешением конфликта, если они не менялись
func (o *outbox) drop(revs map[models.RecordID]uint64, ids ...models.RecordID) {
	o.mu.Lock()
	defer o.mu.Unlock()

	for _, id := range ids {
		if e, ok := o.entries[id]; ok && e.rev == revs[id] {
			delete(o.entries, id)
		}
	}
}

func (o *outbox) len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.entries)
}

func (o *outbox) clear() {
	o.mu.Lock()
	defer o.mu.Unlock()
	clear(o.entries)
}
