package models

import (
	"encoding/json"
	"fmt"
	"slices"
	"time"
)

// ZoneID идентификатор зоны (логического раздела записей) в удалённом хранилище
type ZoneID string

// RecordID идентификатор записи, уникальный в пределах зоны
type RecordID string

// FieldModifiedAt имя поля с временем последнего изменения записи.
// Используется стратегией разрешения конфликтов last-modified-wins.
const FieldModifiedAt = "modifiedAt"

// Record представляет непрозрачную единицу синхронизации.
// Движок не интерпретирует Fields, за исключением FieldModifiedAt.
type Record struct {
	Fields map[string]json.RawMessage `json:"fields,omitempty"` // Fields полезная нагрузка ключ-значение

	ID   RecordID `json:"id"`   // ID идентификатор записи в зоне
	Type string   `json:"type"` // Type тег типа записи

	// SystemMetadata версия/etag удалённого хранилища для optimistic concurrency.
	// Пусто для записей, которые ещё ни разу не выгружались. Никогда не генерируется локально.
	SystemMetadata []byte `json:"system_metadata,omitempty"`

	// ChangedKeys ключи, изменённые локально с момента последней выгрузки.
	// Пустой список означает "все поля".
	ChangedKeys []string `json:"changed_keys,omitempty"`
}

// NewRecord создает пустую запись заданного типа
func NewRecord(id RecordID, recordType string) Record {
	return Record{
		ID:     id,
		Type:   recordType,
		Fields: make(map[string]json.RawMessage),
	}
}

// SetField сериализует value в JSON и сохраняет под ключом key,
// отмечая ключ как изменённый.
func (r *Record) SetField(key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal field %q: %w", key, err)
	}
	if r.Fields == nil {
		r.Fields = make(map[string]json.RawMessage)
	}
	r.Fields[key] = raw
	if !slices.Contains(r.ChangedKeys, key) {
		r.ChangedKeys = append(r.ChangedKeys, key)
	}
	return nil
}

// Field десериализует значение поля key в dst.
// Возвращает false, если поле отсутствует.
func (r *Record) Field(key string, dst any) (bool, error) {
	raw, ok := r.Fields[key]
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return true, fmt.Errorf("failed to unmarshal field %q: %w", key, err)
	}
	return true, nil
}

// Touch устанавливает FieldModifiedAt в t
func (r *Record) Touch(t time.Time) error {
	return r.SetField(FieldModifiedAt, t.UTC().Format(time.RFC3339Nano))
}

// ModifiedAt возвращает время последнего изменения записи.
// Второе значение false, если поле отсутствует или не парсится.
func (r *Record) ModifiedAt() (time.Time, bool) {
	var s string
	ok, err := r.Field(FieldModifiedAt, &s)
	if !ok || err != nil {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Uploaded сообщает, была ли запись хотя бы раз подтверждена удалённым хранилищем
func (r *Record) Uploaded() bool {
	return len(r.SystemMetadata) > 0
}

// Clone создает глубокую копию записи
func (r *Record) Clone() Record {
	var fields map[string]json.RawMessage
	if r.Fields != nil {
		fields = make(map[string]json.RawMessage, len(r.Fields))
		for k, v := range r.Fields {
			fields[k] = slices.Clone(v)
		}
	}

	return Record{
		ID:             r.ID,
		Type:           r.Type,
		Fields:         fields,
		SystemMetadata: slices.Clone(r.SystemMetadata),
		ChangedKeys:    slices.Clone(r.ChangedKeys),
	}
}

// RecordIDs возвращает идентификаторы записей в исходном порядке
func RecordIDs(records []Record) []RecordID {
	ids := make([]RecordID, 0, len(records))
	for _, r := range records {
		ids = append(ids, r.ID)
	}
	return ids
}
