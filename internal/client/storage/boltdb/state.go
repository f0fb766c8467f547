package boltdb

import (
	"bytes"
	"context"
	"fmt"

	"go.etcd.io/bbolt"
	"golang.org/x/crypto/blake2b"

	"github.com/iudanet/zonesync/internal/models"
)

const envelopeVersion byte = 1

// Токен хранится в конверте: версия (1 байт) | blake2b-256 (32 байта) | токен.
// Конверт, не прошедший проверку, трактуется как отсутствующий токен.
const envelopeHeader = 1 + blake2b.Size256

func sealToken(token models.ChangeToken) []byte {
	sum := blake2b.Sum256(token)
	buf := make([]byte, 0, envelopeHeader+len(token))
	buf = append(buf, envelopeVersion)
	buf = append(buf, sum[:]...)
	return append(buf, token...)
}

func openToken(data []byte) (models.ChangeToken, error) {
	if len(data) < envelopeHeader {
		return nil, fmt.Errorf("token envelope too short: %d bytes", len(data))
	}
	if data[0] != envelopeVersion {
		return nil, fmt.Errorf("unsupported token envelope version %d", data[0])
	}
	token := data[envelopeHeader:]
	sum := blake2b.Sum256(token)
	if !bytes.Equal(sum[:], data[1:envelopeHeader]) {
		return nil, fmt.Errorf("token checksum mismatch")
	}
	return bytes.Clone(token), nil
}

// LoadState returns the persisted sync state.
// A corrupted token is logged and returned as absent, which restarts that scope from scratch.
func (s *Storage) LoadState(ctx context.Context) (models.SyncState, error) {
	var state models.SyncState

	err := s.view(bucketState, func(b *bbolt.Bucket) error {
		state.DatabaseToken = s.readToken(b, models.StateFieldDatabaseToken)
		state.ZoneToken = s.readToken(b, models.StateFieldZoneToken)
		state.ZoneProvisioned = readFlag(b, models.StateFieldZoneProvisioned)
		state.SubscriptionProvisioned = readFlag(b, models.StateFieldSubscriptionProvisioned)
		return nil
	})
	if err != nil {
		return models.SyncState{}, fmt.Errorf("failed to load sync state: %w", err)
	}

	return state, nil
}

func (s *Storage) readToken(b *bbolt.Bucket, field models.StateField) models.ChangeToken {
	data := b.Get([]byte(field))
	if data == nil {
		return nil
	}
	token, err := openToken(data)
	if err != nil {
		s.logger.Warn("discarding unreadable change token", "field", field, "error", err)
		return nil
	}
	return token
}

func readFlag(b *bbolt.Bucket, field models.StateField) bool {
	data := b.Get([]byte(field))
	return len(data) == 1 && data[0] == 1
}

// SaveDatabaseToken persists the database-scope token
func (s *Storage) SaveDatabaseToken(ctx context.Context, token models.ChangeToken) error {
	return s.saveToken(models.StateFieldDatabaseToken, token)
}

// SaveZoneToken persists the zone-scope token
func (s *Storage) SaveZoneToken(ctx context.Context, token models.ChangeToken) error {
	return s.saveToken(models.StateFieldZoneToken, token)
}

func (s *Storage) saveToken(field models.StateField, token models.ChangeToken) error {
	err := s.update(bucketState, func(b *bbolt.Bucket) error {
		if token.IsZero() {
			return b.Delete([]byte(field))
		}
		return b.Put([]byte(field), sealToken(token))
	})
	if err != nil {
		return fmt.Errorf("failed to save %s: %w", field, err)
	}
	return nil
}

// SetZoneProvisioned persists the zone-created flag
func (s *Storage) SetZoneProvisioned(ctx context.Context, created bool) error {
	return s.saveFlag(models.StateFieldZoneProvisioned, created)
}

// SetSubscriptionProvisioned persists the subscription-created flag
func (s *Storage) SetSubscriptionProvisioned(ctx context.Context, created bool) error {
	return s.saveFlag(models.StateFieldSubscriptionProvisioned, created)
}

func (s *Storage) saveFlag(field models.StateField, value bool) error {
	var v byte
	if value {
		v = 1
	}
	err := s.update(bucketState, func(b *bbolt.Bucket) error {
		return b.Put([]byte(field), []byte{v})
	})
	if err != nil {
		return fmt.Errorf("failed to save %s: %w", field, err)
	}
	return nil
}

// ResetState clears all sync state fields in one transaction
func (s *Storage) ResetState(ctx context.Context) error {
	err := s.update(bucketState, func(b *bbolt.Bucket) error {
		for _, field := range []models.StateField{
			models.StateFieldDatabaseToken,
			models.StateFieldZoneToken,
			models.StateFieldZoneProvisioned,
			models.StateFieldSubscriptionProvisioned,
		} {
			if err := b.Delete([]byte(field)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to reset sync state: %w", err)
	}
	return nil
}
