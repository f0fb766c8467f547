package boltdb

import (
	"context"
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/iudanet/zonesync/internal/client/storage"
	"github.com/iudanet/zonesync/internal/models"
)

// PutRecord stores or updates a record
func (s *Storage) PutRecord(ctx context.Context, rec models.Record) error {
	// Сериализуем запись в JSON
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	err = s.update(bucketRecords, func(b *bbolt.Bucket) error {
		return b.Put([]byte(rec.ID), data)
	})
	if err != nil {
		return fmt.Errorf("failed to save record: %w", err)
	}
	return nil
}

// GetRecord retrieves a record by ID
func (s *Storage) GetRecord(ctx context.Context, id models.RecordID) (*models.Record, error) {
	var rec *models.Record

	err := s.view(bucketRecords, func(b *bbolt.Bucket) error {
		data := b.Get([]byte(id))
		if data == nil {
			return storage.ErrRecordNotFound
		}

		rec = &models.Record{}
		if err := json.Unmarshal(data, rec); err != nil {
			return fmt.Errorf("failed to unmarshal record: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return rec, nil
}

// ListRecords returns all records ordered by ID
func (s *Storage) ListRecords(ctx context.Context) ([]models.Record, error) {
	var records []models.Record

	err := s.view(bucketRecords, func(b *bbolt.Bucket) error {
		// Ключи bolt отсортированы, порядок стабилен
		return b.ForEach(func(k, v []byte) error {
			var rec models.Record
			if err := json.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("failed to unmarshal record %s: %w", k, err)
			}
			records = append(records, rec)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	return records, nil
}

// RemoveRecord deletes a record from the local collection
func (s *Storage) RemoveRecord(ctx context.Context, id models.RecordID) error {
	err := s.update(bucketRecords, func(b *bbolt.Bucket) error {
		return b.Delete([]byte(id))
	})
	if err != nil {
		return fmt.Errorf("failed to remove record: %w", err)
	}
	return nil
}

// MarkPending puts the record into the outbox
func (s *Storage) MarkPending(ctx context.Context, id models.RecordID, op storage.PendingOp) error {
	err := s.update(bucketOutbox, func(b *bbolt.Bucket) error {
		return b.Put([]byte(id), []byte(op))
	})
	if err != nil {
		return fmt.Errorf("failed to mark %s pending: %w", id, err)
	}
	return nil
}

// ClearPending removes confirmed operations from the outbox
func (s *Storage) ClearPending(ctx context.Context, op storage.PendingOp, ids ...models.RecordID) error {
	err := s.update(bucketOutbox, func(b *bbolt.Bucket) error {
		for _, id := range ids {
			// Операция могла смениться (save -> delete) после выгрузки
			if storage.PendingOp(b.Get([]byte(id))) != op {
				continue
			}
			if err := b.Delete([]byte(id)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to clear pending: %w", err)
	}
	return nil
}

// Pending builds the outbox from pending IDs and stored records
func (s *Storage) Pending(ctx context.Context) (models.PendingChangeSet, error) {
	var set models.PendingChangeSet

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return set, storage.ErrStorageClosed
	}

	err := s.db.View(func(tx *bbolt.Tx) error {
		outbox := tx.Bucket(bucketOutbox)
		records := tx.Bucket(bucketRecords)
		if outbox == nil || records == nil {
			return fmt.Errorf("outbox bucket not found")
		}

		return outbox.ForEach(func(k, v []byte) error {
			id := models.RecordID(k)
			switch storage.PendingOp(v) {
			case storage.PendingDelete:
				set.RecordIDsToDelete = append(set.RecordIDsToDelete, id)
			case storage.PendingSave:
				data := records.Get(k)
				if data == nil {
					s.logger.Warn("pending save without local record", "record", id)
					return nil
				}
				var rec models.Record
				if err := json.Unmarshal(data, &rec); err != nil {
					return fmt.Errorf("failed to unmarshal record %s: %w", id, err)
				}
				set.RecordsToSave = append(set.RecordsToSave, rec)
			default:
				s.logger.Warn("unknown pending operation", "record", id, "op", string(v))
			}
			return nil
		})
	})
	if err != nil {
		return models.PendingChangeSet{}, fmt.Errorf("failed to load outbox: %w", err)
	}

	return set, nil
}
