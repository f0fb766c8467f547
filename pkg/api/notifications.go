package api

import "time"

// Notification представляет push-уведомление, доставляемое через websocket
type Notification struct {
	SentAt         time.Time `json:"sent_at"`
	SubscriptionID string    `json:"subscription_id"` // Подписка, вызвавшая уведомление
	ZoneID         string    `json:"zone_id"`         // Зона с изменениями
}
