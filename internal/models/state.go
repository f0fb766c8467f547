package models

import (
	"bytes"
	"encoding/hex"
	"time"
)

// ChangeToken непрозрачный курсор удалённого хранилища.
// nil означает "синхронизация с начала истории" для своей области.
type ChangeToken []byte

// Equal сравнивает два токена побайтно
func (t ChangeToken) Equal(other ChangeToken) bool {
	return bytes.Equal(t, other)
}

// IsZero сообщает, что токен отсутствует
func (t ChangeToken) IsZero() bool {
	return len(t) == 0
}

// Short возвращает короткое представление токена для логов и журнала
func (t ChangeToken) Short() string {
	if t.IsZero() {
		return "<none>"
	}
	s := hex.EncodeToString(t)
	if len(s) > 16 {
		return s[:16]
	}
	return s
}

// SyncState персистентное состояние синхронизации
type SyncState struct {
	DatabaseToken           ChangeToken `json:"database_token,omitempty"`
	ZoneToken               ChangeToken `json:"zone_token,omitempty"`
	ZoneProvisioned         bool        `json:"zone_provisioned"`
	SubscriptionProvisioned bool        `json:"subscription_provisioned"`
}

// Clone создает копию состояния, не разделяющую байты токенов
func (s SyncState) Clone() SyncState {
	return SyncState{
		DatabaseToken:           bytes.Clone(s.DatabaseToken),
		ZoneToken:               bytes.Clone(s.ZoneToken),
		ZoneProvisioned:         s.ZoneProvisioned,
		SubscriptionProvisioned: s.SubscriptionProvisioned,
	}
}

// PendingChangeSet локальный outbox: записи и удаления, ещё не подтверждённые удалённо
type PendingChangeSet struct {
	RecordsToSave     []Record   `json:"records_to_save"`
	RecordIDsToDelete []RecordID `json:"record_ids_to_delete"`
}

// IsEmpty сообщает, что выгружать нечего
func (p PendingChangeSet) IsEmpty() bool {
	return len(p.RecordsToSave) == 0 && len(p.RecordIDsToDelete) == 0
}

// Len общее количество операций в наборе
func (p PendingChangeSet) Len() int {
	return len(p.RecordsToSave) + len(p.RecordIDsToDelete)
}

// StateField имена полей SyncState в персистентном хранилище и журнале
type StateField string

const (
	StateFieldDatabaseToken           StateField = "database_token"
	StateFieldZoneToken               StateField = "zone_token"
	StateFieldZoneProvisioned         StateField = "zone_created"
	StateFieldSubscriptionProvisioned StateField = "subscription_created"
)

// Transition одна запись журнала изменений SyncState
type Transition struct {
	At        time.Time  `json:"at"`
	SessionID string     `json:"session_id"`
	Field     StateField `json:"field"`
	Old       string     `json:"old"`
	New       string     `json:"new"`
	Reason    string     `json:"reason"`
	ID        int64      `json:"id"`
}

// SessionKind тип прогона синхронизации
type SessionKind string

const (
	SessionFull   SessionKind = "full"
	SessionFetch  SessionKind = "fetch"
	SessionPush   SessionKind = "push"
	SessionUpload SessionKind = "upload"
	SessionReset  SessionKind = "reset"
)

// SessionSummary итог одного прогона синхронизации
type SessionSummary struct {
	StartedAt  time.Time   `json:"started_at"`
	FinishedAt time.Time   `json:"finished_at"`
	ID         string      `json:"id"`
	Kind       SessionKind `json:"kind"`
	Error      string      `json:"error,omitempty"`
	Uploaded   int         `json:"uploaded"`
	Changed    int         `json:"changed"`
	Deleted    int         `json:"deleted"`
}
