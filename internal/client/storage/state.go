package storage

import (
	"context"

	"github.com/iudanet/zonesync/internal/models"
)

//go:generate moq -out state_mock.go . StateStorage

// StateStorage defines durable storage for the sync state.
// Every field is written independently, so a crash after one write keeps the others intact.
type StateStorage interface {
	// LoadState returns the persisted state. Missing or unreadable fields
	// are returned as their zero value ("start from scratch").
	LoadState(ctx context.Context) (models.SyncState, error)

	// SaveDatabaseToken persists the database-scope token. A zero token clears it.
	SaveDatabaseToken(ctx context.Context, token models.ChangeToken) error

	// SaveZoneToken persists the zone-scope token. A zero token clears it.
	SaveZoneToken(ctx context.Context, token models.ChangeToken) error

	// SetZoneProvisioned persists the zone-created flag.
	SetZoneProvisioned(ctx context.Context, created bool) error

	// SetSubscriptionProvisioned persists the subscription-created flag.
	SetSubscriptionProvisioned(ctx context.Context, created bool) error

	// ResetState clears both tokens and both flags.
	ResetState(ctx context.Context) error
}
