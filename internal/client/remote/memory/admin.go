package memory

import (
	"github.com/google/uuid"

	"github.com/iudanet/zonesync/internal/client/remote"
	"github.com/iudanet/zonesync/internal/models"
)

// Методы этого файла меняют состояние хранилища "со стороны другого устройства".
// Они не считаются вызовами remote.Store и не подвержены внедрённым ошибкам.

// PutRecord stores rec in zone with a fresh version, as another client would.
// The zone is created when missing. Returns the stored copy.
func (s *Store) PutRecord(zoneID models.ZoneID, rec models.Record) models.Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	z, ok := s.zones[zoneID]
	if !ok {
		z = &zone{records: make(map[models.RecordID]models.Record)}
		s.zones[zoneID] = z
		delete(s.deletedZones, zoneID)
	}

	stored := rec.Clone()
	stored.ChangedKeys = nil
	stored.SystemMetadata = []byte(uuid.NewString())
	s.putLocked(zoneID, z, stored)
	return stored.Clone()
}

// RemoveRecord deletes a record from zone, as another client would.
func (s *Store) RemoveRecord(zoneID models.ZoneID, id models.RecordID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	z, ok := s.zones[zoneID]
	if !ok {
		return
	}
	if _, exists := z.records[id]; exists {
		delete(z.records, id)
		s.logLocked(zoneID, z, id)
	}
}

// DeleteZone removes the zone and its subscriptions. Later zone operations fail with ZONE_NOT_FOUND.
func (s *Store) DeleteZone(zoneID models.ZoneID) {
	s.deleteZone(zoneID, remote.CodeZoneNotFound)
}

// DeleteZoneByUser removes the zone as the user would from another device.
// Later zone operations fail with USER_DELETED_ZONE.
func (s *Store) DeleteZoneByUser(zoneID models.ZoneID) {
	s.deleteZone(zoneID, remote.CodeUserDeletedZone)
}

func (s *Store) deleteZone(zoneID models.ZoneID, code remote.ErrorCode) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.zones[zoneID]; !ok {
		return
	}
	delete(s.zones, zoneID)
	s.deletedZones[zoneID] = code
	for id, sub := range s.subs {
		if sub.Zone == zoneID {
			delete(s.subs, id)
		}
	}
	s.dbEvents = append(s.dbEvents, dbEvent{zone: zoneID, seq: s.nextSeq(), deleted: true})
}

// DeleteSubscription removes a subscription.
func (s *Store) DeleteSubscription(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs, id)
}

// Record returns the stored version of a record.
func (s *Store) Record(zoneID models.ZoneID, id models.RecordID) (models.Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	z, ok := s.zones[zoneID]
	if !ok {
		return models.Record{}, false
	}
	rec, ok := z.records[id]
	if !ok {
		return models.Record{}, false
	}
	return rec.Clone(), true
}

// Records returns the number of records stored in zone.
func (s *Store) Records(zoneID models.ZoneID) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	z, ok := s.zones[zoneID]
	if !ok {
		return 0
	}
	return len(z.records)
}

// HasZone reports whether the zone exists.
func (s *Store) HasZone(zoneID models.ZoneID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.zones[zoneID]
	return ok
}

// HasSubscription reports whether the subscription exists.
func (s *Store) HasSubscription(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.subs[id]
	return ok
}
