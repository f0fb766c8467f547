package api

// ErrorResponse представляет ответ с ошибкой
type ErrorResponse struct {
	ServerRecord      *Record `json:"server_record,omitempty"`       // Текущая версия записи при конфликте
	Code              string  `json:"code"`                          // машинный код ошибки (ZONE_NOT_FOUND, ...)
	Message           string  `json:"message,omitempty"`             // дополнительное сообщение
	RetryAfterSeconds int     `json:"retry_after_seconds,omitempty"` // рекомендуемая задержка перед повтором
}

// Заголовки протокола
const (
	HeaderAuthorization = "Authorization"
	HeaderRetryAfter    = "Retry-After"
	HeaderClientVersion = "X-Zonesync-Version"
)
