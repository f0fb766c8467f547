package api

import "encoding/json"

// Record представляет запись в формате транспорта
type Record struct {
	Fields         map[string]json.RawMessage `json:"fields,omitempty"`          // Полезная нагрузка
	ID             string                     `json:"id"`                        // Идентификатор записи в зоне
	Type           string                     `json:"type"`                      // Тег типа записи
	SystemMetadata []byte                     `json:"system_metadata,omitempty"` // base64 версия записи на сервере
	ChangedKeys    []string                   `json:"changed_keys,omitempty"`    // Ключи, изменённые клиентом
}

// AccountResponse представляет ответ о состоянии учетной записи
type AccountResponse struct {
	Status string `json:"status"`            // available, no_account, restricted, could_not_determine, temporarily_unavailable
	UserID string `json:"user_id,omitempty"` // идентификатор пользователя
}

// DatabaseChangesRequest представляет запрос изменений на уровне базы данных
type DatabaseChangesRequest struct {
	Token []byte `json:"token,omitempty"` // Пустой токен означает "с начала истории"
	Limit int    `json:"limit,omitempty"` // Максимальный размер страницы
}

// DatabaseChangesResponse представляет страницу изменённых и удалённых зон
type DatabaseChangesResponse struct {
	Changed    []string `json:"changed"`
	Deleted    []string `json:"deleted"`
	Token      []byte   `json:"token"`
	MoreComing bool     `json:"more_coming"`
}

// ZoneChangesRequest представляет запрос изменений записей зоны
type ZoneChangesRequest struct {
	Token []byte `json:"token,omitempty"`
	Limit int    `json:"limit,omitempty"`
}

// ZoneChangesResponse представляет страницу изменений записей зоны
type ZoneChangesResponse struct {
	RecordErrors map[string]ErrorResponse `json:"record_errors,omitempty"` // Ошибки по отдельным записям
	Changed      []Record                 `json:"changed"`
	Deleted      []string                 `json:"deleted"`
	Token        []byte                   `json:"token"`
	MoreComing   bool                     `json:"more_coming"`
}

// ModifyRequest представляет пакет сохранений и удалений
type ModifyRequest struct {
	Policy string   `json:"policy"` // changed_keys, if_server_unchanged, all_keys
	Save   []Record `json:"save,omitempty"`
	Delete []string `json:"delete,omitempty"`
}

// ModifyResponse представляет результат пакетной модификации
type ModifyResponse struct {
	RecordErrors map[string]ErrorResponse `json:"record_errors,omitempty"` // Ошибки по отдельным записям
	Saved        []Record                 `json:"saved"`                   // Сохранённые записи с новым system_metadata
	Deleted      []string                 `json:"deleted"`
}

// ZoneResponse представляет зону
type ZoneResponse struct {
	Zone string `json:"zone"`
}

// SubscriptionRequest представляет запрос на создание подписки
type SubscriptionRequest struct {
	Zone string `json:"zone"`
}

// SubscriptionResponse представляет подписку на изменения зоны
type SubscriptionResponse struct {
	ID   string `json:"id"`
	Zone string `json:"zone"`
}
