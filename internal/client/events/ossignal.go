package events

import (
	"context"
	"os"
	"os/signal"
)

// OSSignalSource переводит сигналы процесса в сигналы движка.
// Демон использует SIGUSR1 как "foreground": внешний планировщик может
// запросить выборку изменений без ожидания push-уведомления.
type OSSignalSource struct {
	signals []os.Signal
	kind    Kind
}

// NewOSSignalSource создает источник, сообщающий kind на каждый из signals
func NewOSSignalSource(kind Kind, signals ...os.Signal) *OSSignalSource {
	return &OSSignalSource{kind: kind, signals: signals}
}

// Name implements Source
func (s *OSSignalSource) Name() string {
	return "os-signal"
}

// Run implements Source
func (s *OSSignalSource) Run(ctx context.Context, out chan<- Signal) error {
	if len(s.signals) == 0 {
		<-ctx.Done()
		return nil
	}

	ch := make(chan os.Signal, 1)
	signal.Notify(ch, s.signals...)
	defer signal.Stop(ch)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ch:
			if !emit(ctx, out, Signal{Kind: s.kind, Source: s.Name()}) {
				return nil
			}
		}
	}
}
