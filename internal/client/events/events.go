// Package events переводит внешние сигналы (смена учётной записи, push-уведомления,
// возврат в foreground, восстановление связи) в вызовы движка синхронизации.
//
// Источники сигналов реализуют Source и запускаются Monitor. Monitor сам решает,
// какой прогон запустить, и ограничивает частоту push/foreground триггеров.
package events

import (
	"context"

	zsync "github.com/iudanet/zonesync/internal/client/sync"
)

// Kind тип внешнего сигнала
type Kind int

const (
	// KindAccountChanged сменилась учётная запись (или её токен)
	KindAccountChanged Kind = iota
	// KindNotification push-уведомление об изменениях в зоне
	KindNotification
	// KindForeground приложение вернулось на передний план
	KindForeground
	// KindConnectivityRestored связь с хранилищем восстановлена
	KindConnectivityRestored
	// KindPeriodic плановый полный цикл
	KindPeriodic
)

// String returns a human-readable representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindAccountChanged:
		return "account_changed"
	case KindNotification:
		return "notification"
	case KindForeground:
		return "foreground"
	case KindConnectivityRestored:
		return "connectivity_restored"
	case KindPeriodic:
		return "periodic"
	default:
		return "unknown"
	}
}

// Signal один внешний сигнал
type Signal struct {
	// Notification заполнено для KindNotification
	Notification zsync.Notification
	Source       string
	Kind         Kind
}

// Source источник сигналов. Run блокируется до отмены ctx и
// возвращает nil при штатной остановке.
type Source interface {
	Name() string
	Run(ctx context.Context, out chan<- Signal) error
}

// Target движок, которому адресованы триггеры
type Target interface {
	AccountChanged()
	RunFullCycle(completion func(zsync.Result, error))
	FetchChanges(completion func(zsync.Result, error))
	HandleRemoteNotification(n zsync.Notification, completion func(bool, error))
}

// Ensure, that the engine does implement Target.
var _ Target = (*zsync.Engine)(nil)

// emit отправляет сигнал, не блокируясь после отмены ctx
func emit(ctx context.Context, out chan<- Signal, sig Signal) bool {
	select {
	case out <- sig:
		return true
	case <-ctx.Done():
		return false
	}
}

// ChannelSource пересылает сигналы из канала. Используется встраивающим
// приложением для собственных событий (например, сетевого монитора ОС).
type ChannelSource struct {
	in   <-chan Signal
	name string
}

// NewChannelSource создает источник поверх канала
func NewChannelSource(name string, in <-chan Signal) *ChannelSource {
	return &ChannelSource{name: name, in: in}
}

// Name implements Source
func (s *ChannelSource) Name() string {
	return s.name
}

// Run implements Source. Закрытие входного канала завершает источник.
func (s *ChannelSource) Run(ctx context.Context, out chan<- Signal) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case sig, ok := <-s.in:
			if !ok {
				return nil
			}
			if sig.Source == "" {
				sig.Source = s.name
			}
			if !emit(ctx, out, sig) {
				return nil
			}
		}
	}
}
