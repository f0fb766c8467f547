package events

import (
	"context"
	"time"
)

// TickerSource сообщает KindPeriodic с заданным интервалом.
// Плановый цикл подбирает записи outbox, отклонённые хранилищем поштучно.
type TickerSource struct {
	interval time.Duration
}

// NewTickerSource создает источник. Неположительный интервал отключает его.
func NewTickerSource(interval time.Duration) *TickerSource {
	return &TickerSource{interval: interval}
}

// Name implements Source
func (s *TickerSource) Name() string {
	return "ticker"
}

// Run implements Source
func (s *TickerSource) Run(ctx context.Context, out chan<- Signal) error {
	if s.interval <= 0 {
		<-ctx.Done()
		return nil
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if !emit(ctx, out, Signal{Kind: KindPeriodic, Source: s.Name()}) {
				return nil
			}
		}
	}
}
