// Package remote describes the capabilities the sync engine needs from a remote
// record store: incremental change feeds at database and zone scope, batched
// record modification with optimistic concurrency, and idempotent provisioning
// of zones and change subscriptions.
//
// Implementations: api.Client (HTTP/JSON) and memory.Store (in-process fake for tests).
package remote

import (
	"context"

	"github.com/iudanet/zonesync/internal/models"
)

//go:generate moq -out store_mock.go . Store

// Store is the remote record store as seen by the engine.
// Every method blocks until the remote round trip completes or ctx is done.
type Store interface {
	// AccountStatus reports whether the remote account is usable.
	AccountStatus(ctx context.Context) (AccountStatus, error)

	// FetchDatabaseChanges returns one page of zones changed or deleted since the token.
	// A nil token means from the beginning of history.
	FetchDatabaseChanges(ctx context.Context, since models.ChangeToken) (*DatabaseChanges, error)

	// FetchZoneChanges returns one page of records changed or deleted in zone since the token.
	FetchZoneChanges(ctx context.Context, zone models.ZoneID, since models.ChangeToken) (*ZoneChanges, error)

	// ModifyRecords applies a batch of saves and deletes.
	// Batch-level failures are returned as error; per-record failures in ModifyResult.RecordErrors.
	ModifyRecords(ctx context.Context, req ModifyRequest) (*ModifyResult, error)

	// CreateZone creates the zone. Creating an existing zone is not an error
	// or fails with CodeAlreadyExists.
	CreateZone(ctx context.Context, zone models.ZoneID) error

	// ZoneExists is a cheap existence check.
	ZoneExists(ctx context.Context, zone models.ZoneID) (bool, error)

	// CreateSubscription registers a change subscription on a zone.
	CreateSubscription(ctx context.Context, sub Subscription) error

	// SubscriptionExists is a cheap existence check.
	SubscriptionExists(ctx context.Context, id string) (bool, error)
}

// AccountStatus состояние учётной записи в удалённом хранилище
type AccountStatus string

const (
	AccountAvailable              AccountStatus = "available"
	AccountNoAccount              AccountStatus = "no_account"
	AccountRestricted             AccountStatus = "restricted"
	AccountCouldNotDetermine      AccountStatus = "could_not_determine"
	AccountTemporarilyUnavailable AccountStatus = "temporarily_unavailable"
)

// SavePolicy определяет, как хранилище применяет сохраняемые записи
type SavePolicy string

const (
	// SaveChangedKeys применяет только изменённые ключи (field-level delta, last-write-wins)
	SaveChangedKeys SavePolicy = "changed_keys"
	// SaveIfServerUnchanged требует совпадения SystemMetadata для всей записи
	SaveIfServerUnchanged SavePolicy = "if_server_unchanged"
	// SaveAllKeys перезаписывает запись целиком без проверки версии
	SaveAllKeys SavePolicy = "all_keys"
)

// Subscription регистрация уведомлений об изменениях зоны
type Subscription struct {
	ID   string        `json:"id"`
	Zone models.ZoneID `json:"zone"`
}

// DatabaseChanges страница изменений на уровне базы данных
type DatabaseChanges struct {
	Changed    []models.ZoneID
	Deleted    []models.ZoneID
	Token      models.ChangeToken
	MoreComing bool
}

// ZoneChanges страница изменений записей в зоне
type ZoneChanges struct {
	RecordErrors map[models.RecordID]error
	Changed      []models.Record
	Deleted      []models.RecordID
	Token        models.ChangeToken
	MoreComing   bool
}

// ModifyRequest пакет сохранений и удалений для одной зоны
type ModifyRequest struct {
	Zone   models.ZoneID
	Policy SavePolicy
	Save   []models.Record
	Delete []models.RecordID
}

// Size количество операций в пакете
func (r ModifyRequest) Size() int {
	return len(r.Save) + len(r.Delete)
}

// ModifyResult результат пакетной модификации.
// Saved содержит записи с обновлённым SystemMetadata.
type ModifyResult struct {
	RecordErrors map[models.RecordID]error
	Saved        []models.Record
	Deleted      []models.RecordID
}
