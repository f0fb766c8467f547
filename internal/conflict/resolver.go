// Package conflict содержит стратегии разрешения конфликтов записи.
//
// Конфликт возникает, когда удалённое хранилище отклоняет запись, потому что
// его версия новее той, которую клиент видел последней. Стратегия получает обе
// версии и возвращает запись для повторной отправки или nil, если клиентское
// изменение нужно отбросить.
//
// Ни одна стратегия не гарантирует отсутствие потерь: это эвристики.
package conflict

import (
	"encoding/json"
	"fmt"
	"slices"

	"github.com/iudanet/zonesync/internal/models"
)

// Resolver разрешает конфликт между клиентской и серверной версиями записи.
// Реализации должны быть чистыми функциями: без ввода-вывода и без изменения аргументов.
type Resolver interface {
	Resolve(client, server models.Record) *models.Record
}

// ResolverFunc адаптер обычной функции к Resolver
type ResolverFunc func(client, server models.Record) *models.Record

// Resolve вызывает f(client, server)
func (f ResolverFunc) Resolve(client, server models.Record) *models.Record {
	return f(client, server)
}

// Имена стратегий для конфигурации
const (
	StrategyLastModifiedWins = "last-modified-wins"
	StrategyClientWins       = "client-wins"
	StrategyServerWins       = "server-wins"
	StrategyFieldMerge       = "field-merge"
)

// ByName возвращает стратегию по имени из конфигурации
func ByName(name string) (Resolver, error) {
	switch name {
	case "", StrategyLastModifiedWins:
		return LastModifiedWins{}, nil
	case StrategyClientWins:
		return ClientWins{}, nil
	case StrategyServerWins:
		return ServerWins{}, nil
	case StrategyFieldMerge:
		return FieldMerge{}, nil
	default:
		return nil, fmt.Errorf("unknown conflict strategy %q", name)
	}
}

// Strategies возвращает имена всех стратегий
func Strategies() []string {
	return []string{StrategyLastModifiedWins, StrategyClientWins, StrategyServerWins, StrategyFieldMerge}
}

// LastModifiedWins выбирает запись с большим временем изменения (поле modifiedAt).
// При равенстве, а также если время отсутствует хотя бы с одной стороны, побеждает клиент.
type LastModifiedWins struct{}

// Resolve implements Resolver.
func (LastModifiedWins) Resolve(client, server models.Record) *models.Record {
	clientAt, okClient := client.ModifiedAt()
	serverAt, okServer := server.ModifiedAt()

	if okClient && okServer && serverAt.After(clientAt) {
		winner := server.Clone()
		winner.ChangedKeys = nil
		return &winner
	}

	winner := client.Clone()
	return &winner
}

// ClientWins всегда оставляет клиентскую версию
type ClientWins struct{}

// Resolve implements Resolver.
func (ClientWins) Resolve(client, _ models.Record) *models.Record {
	winner := client.Clone()
	return &winner
}

// ServerWins отбрасывает клиентское изменение
type ServerWins struct{}

// Resolve implements Resolver.
func (ServerWins) Resolve(_, _ models.Record) *models.Record {
	return nil
}

// FieldMerge накладывает изменённые клиентом ключи на серверную версию.
// Если клиент не отслеживал изменённые ключи, накладываются все его поля.
// modifiedAt итоговой записи равен большему из двух.
type FieldMerge struct{}

// Resolve implements Resolver.
func (FieldMerge) Resolve(client, server models.Record) *models.Record {
	merged := server.Clone()
	if merged.Fields == nil {
		merged.Fields = make(map[string]json.RawMessage, len(client.Fields))
	}
	merged.Type = client.Type

	keys := client.ChangedKeys
	if len(keys) == 0 {
		for k := range client.Fields {
			keys = append(keys, k)
		}
		slices.Sort(keys)
	}

	merged.ChangedKeys = nil
	for _, k := range keys {
		if k == models.FieldModifiedAt {
			continue
		}
		if v, ok := client.Fields[k]; ok {
			merged.Fields[k] = slices.Clone(v)
		} else {
			delete(merged.Fields, k)
		}
		merged.ChangedKeys = append(merged.ChangedKeys, k)
	}

	clientAt, okClient := client.ModifiedAt()
	serverAt, okServer := server.ModifiedAt()
	if okClient && (!okServer || clientAt.After(serverAt)) {
		// строка RFC3339 всегда сериализуется
		_ = merged.Touch(clientAt)
	}

	return &merged
}
