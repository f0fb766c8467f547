package events

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	zsync "github.com/iudanet/zonesync/internal/client/sync"
)

const signalBuffer = 16

// Monitor запускает источники сигналов и переводит сигналы в триггеры движка:
//
//	account_changed       -> AccountChanged
//	connectivity_restored -> RunFullCycle
//	periodic              -> RunFullCycle
//	foreground            -> FetchChanges (с ограничением частоты)
//	notification          -> HandleRemoteNotification (с ограничением частоты)
//
// Сигнал, отклонённый ограничителем, не теряется: последний такой сигнал
// каждого типа доставляется после пополнения бакета.
type Monitor struct {
	target   Target
	throttle *Throttle
	logger   *slog.Logger
	sources  []Source
}

// NewMonitor создает монитор. throttle может быть nil.
func NewMonitor(target Target, throttle *Throttle, logger *slog.Logger, sources ...Source) *Monitor {
	return &Monitor{
		target:   target,
		throttle: throttle,
		logger:   logger,
		sources:  sources,
	}
}

// Add регистрирует источник. Вызывать до Run.
func (m *Monitor) Add(src Source) {
	m.sources = append(m.sources, src)
}

// Run блокируется до отмены ctx или ошибки одного из источников
func (m *Monitor) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	signals := make(chan Signal, signalBuffer)

	for _, src := range m.sources {
		g.Go(func() error {
			m.logger.Debug("Event source started", "source", src.Name())
			if err := src.Run(gctx, signals); err != nil {
				return fmt.Errorf("event source %s: %w", src.Name(), err)
			}
			m.logger.Debug("Event source stopped", "source", src.Name())
			return nil
		})
	}

	g.Go(func() error {
		m.loop(gctx, signals)
		return nil
	})

	return g.Wait()
}

func (m *Monitor) loop(ctx context.Context, signals <-chan Signal) {
	deferred := make(map[Kind]Signal)
	timers := make(map[Kind]*time.Timer)
	wake := make(chan Kind, signalBuffer)

	schedule := func(kind Kind, wait time.Duration) {
		if _, scheduled := timers[kind]; scheduled {
			return
		}
		timers[kind] = time.AfterFunc(wait, func() {
			select {
			case wake <- kind:
			case <-ctx.Done():
			}
		})
	}

	defer func() {
		for _, t := range timers {
			t.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case sig := <-signals:
			if wait, ok := m.dispatch(sig); !ok {
				deferred[sig.Kind] = sig
				schedule(sig.Kind, wait)
			}

		case kind := <-wake:
			delete(timers, kind)
			sig, ok := deferred[kind]
			if !ok {
				continue
			}
			delete(deferred, kind)
			m.logger.Debug("Delivering throttled signal", "kind", kind, "source", sig.Source)
			if wait, ok := m.dispatch(sig); !ok {
				deferred[kind] = sig
				schedule(kind, wait)
			}
		}
	}
}

// dispatch переводит сигнал в вызов движка.
// false означает, что сигнал отклонён ограничителем и его нужно повторить через wait.
func (m *Monitor) dispatch(sig Signal) (time.Duration, bool) {
	switch sig.Kind {
	case KindAccountChanged:
		m.logger.Info("Account changed", "source", sig.Source)
		m.target.AccountChanged()

	case KindConnectivityRestored:
		m.logger.Info("Connectivity restored", "source", sig.Source)
		m.target.RunFullCycle(m.report(sig))

	case KindPeriodic:
		m.target.RunFullCycle(m.report(sig))

	case KindForeground, KindNotification:
		if ok, wait := m.throttle.Allow(sig.Kind); !ok {
			m.logger.Debug("Signal throttled", "kind", sig.Kind, "source", sig.Source, "retry_in", wait)
			return wait, false
		}
		if sig.Kind == KindForeground {
			m.target.FetchChanges(m.report(sig))
			break
		}
		n := sig.Notification
		m.target.HandleRemoteNotification(n, func(newData bool, err error) {
			if err != nil {
				m.logOutcome(sig, err)
				return
			}
			m.logger.Debug("Notification handled", "subscription", n.SubscriptionID, "new_data", newData)
		})

	default:
		m.logger.Warn("Unknown signal kind", "kind", sig.Kind, "source", sig.Source)
	}
	return 0, true
}

func (m *Monitor) report(sig Signal) func(zsync.Result, error) {
	return func(res zsync.Result, err error) {
		if err != nil {
			m.logOutcome(sig, err)
			return
		}
		m.logger.Debug("Triggered sync finished",
			"kind", sig.Kind,
			"changed", len(res.Changed),
			"deleted", len(res.Deleted),
		)
	}
}

func (m *Monitor) logOutcome(sig Signal, err error) {
	switch {
	case errors.Is(err, zsync.ErrCancelled), errors.Is(err, zsync.ErrDisabled), errors.Is(err, zsync.ErrClosed):
		m.logger.Debug("Triggered sync skipped", "kind", sig.Kind, "reason", err)
	case errors.Is(err, zsync.ErrForeignNotification):
		m.logger.Debug("Notification ignored", "subscription", sig.Notification.SubscriptionID)
	default:
		m.logger.Warn("Triggered sync failed", "kind", sig.Kind, "error", err)
	}
}
