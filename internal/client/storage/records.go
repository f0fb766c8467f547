package storage

import (
	"context"

	"github.com/iudanet/zonesync/internal/models"
)

// PendingOp операция, ожидающая выгрузки
type PendingOp string

const (
	PendingSave   PendingOp = "save"
	PendingDelete PendingOp = "delete"
)

// RecordStorage defines the local record collection and its outbox.
// The engine does not use it directly: it belongs to the embedding application (the CLI).
type RecordStorage interface {
	// PutRecord stores or replaces a record
	PutRecord(ctx context.Context, rec models.Record) error

	// GetRecord retrieves a record by ID
	// Returns ErrRecordNotFound if record doesn't exist
	GetRecord(ctx context.Context, id models.RecordID) (*models.Record, error)

	// ListRecords returns all records ordered by ID
	ListRecords(ctx context.Context) ([]models.Record, error)

	// RemoveRecord deletes a record. Removing a missing record is not an error.
	RemoveRecord(ctx context.Context, id models.RecordID) error

	// MarkPending puts the record ID into the outbox with the given operation,
	// replacing any previous pending operation for the same ID.
	MarkPending(ctx context.Context, id models.RecordID, op PendingOp) error

	// ClearPending removes IDs from the outbox, but only when the pending operation matches op.
	ClearPending(ctx context.Context, op PendingOp, ids ...models.RecordID) error

	// Pending builds the outbox: records to save and IDs to delete.
	Pending(ctx context.Context) (models.PendingChangeSet, error)
}
