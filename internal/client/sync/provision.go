package sync

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/iudanet/zonesync/internal/client/remote"
	"github.com/iudanet/zonesync/internal/models"
)

// ProvisionState состояние подготовки одного удалённого ресурса
type ProvisionState int

const (
	ProvisionUnknown ProvisionState = iota
	ProvisionVerifying
	ProvisionCreating
	ProvisionCreated
)

func (s ProvisionState) String() string {
	switch s {
	case ProvisionVerifying:
		return "verifying"
	case ProvisionCreating:
		return "creating"
	case ProvisionCreated:
		return "created"
	default:
		return "unknown"
	}
}

// MarshalText позволяет выводить состояние в JSON/YAML статусе
func (s ProvisionState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// resource описывает шаги подготовки одного ресурса
type resource struct {
	flag   func(models.SyncState) bool
	set    func(ctx context.Context, created bool, reason string) error
	exists func(ctx context.Context) (bool, error)
	create func(ctx context.Context) error
	// absent вызывается, когда флаг выставлен, а ресурс удалённо отсутствует
	absent func(ctx context.Context) error
	name   string
}

// provisioner идемпотентно создаёт зону, затем подписку.
// Выполняется только на рабочей горутине.
type provisioner struct {
	store        remote.Store
	state        *stateKeeper
	retrier      *retrier
	logger       *slog.Logger
	zone         models.ZoneID
	subscription string

	mu                sync.RWMutex
	zoneState         ProvisionState
	subscriptionState ProvisionState
}

func (p *provisioner) states() (zone, subscription ProvisionState) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.zoneState, p.subscriptionState
}

func (p *provisioner) setState(zone bool, s ProvisionState) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if zone {
		p.zoneState = s
	} else {
		p.subscriptionState = s
	}
}

// reset возвращает оба ресурса в Unknown: следующий цикл проверит их заново
func (p *provisioner) reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.zoneState = ProvisionUnknown
	p.subscriptionState = ProvisionUnknown
}

// ensure доводит зону и подписку до Created. Подписка не создаётся,
// пока создание зоны не подтверждено.
func (p *provisioner) ensure(ctx context.Context) error {
	zone := resource{
		name: "zone",
		flag: func(s models.SyncState) bool { return s.ZoneProvisioned },
		set:  p.state.setZoneProvisioned,
		exists: func(ctx context.Context) (bool, error) {
			return p.store.ZoneExists(ctx, p.zone)
		},
		create: func(ctx context.Context) error {
			return p.store.CreateZone(ctx, p.zone)
		},
		absent: func(ctx context.Context) error {
			// токен удалённой зоны больше ничего не значит
			return p.state.setZoneToken(ctx, nil, "zone missing remotely")
		},
	}
	if err := p.ensureResource(ctx, true, zone); err != nil {
		return err
	}

	sub := resource{
		name: "subscription",
		flag: func(s models.SyncState) bool { return s.SubscriptionProvisioned },
		set:  p.state.setSubscriptionProvisioned,
		exists: func(ctx context.Context) (bool, error) {
			return p.store.SubscriptionExists(ctx, p.subscription)
		},
		create: func(ctx context.Context) error {
			return p.store.CreateSubscription(ctx, remote.Subscription{ID: p.subscription, Zone: p.zone})
		},
	}
	return p.ensureResource(ctx, false, sub)
}

func (p *provisioner) ensureResource(ctx context.Context, isZone bool, r resource) error {
	zoneState, subState := p.states()
	current := subState
	if isZone {
		current = zoneState
	}
	// уже проверено в этой сессии включения
	if current == ProvisionCreated && r.flag(p.state.snapshot()) {
		return nil
	}

	if r.flag(p.state.snapshot()) {
		p.setState(isZone, ProvisionVerifying)

		var exists bool
		err := p.retrier.do(ctx, "check "+r.name, func(ctx context.Context) error {
			var err error
			exists, err = r.exists(ctx)
			return err
		})
		if err != nil {
			p.setState(isZone, ProvisionUnknown)
			return err
		}
		if exists {
			p.setState(isZone, ProvisionCreated)
			p.logger.Debug("Remote resource verified", "resource", r.name)
			return nil
		}

		p.logger.Warn("Remote resource missing despite local flag, recreating", "resource", r.name)
		if err := r.set(ctx, false, r.name+" missing remotely"); err != nil {
			p.setState(isZone, ProvisionUnknown)
			return fmt.Errorf("failed to clear %s flag: %w", r.name, err)
		}
		if r.absent != nil {
			if err := r.absent(ctx); err != nil {
				p.setState(isZone, ProvisionUnknown)
				return err
			}
		}
	}

	p.setState(isZone, ProvisionCreating)
	err := p.retrier.do(ctx, "create "+r.name, func(ctx context.Context) error {
		err := r.create(ctx)
		if remote.HasCode(err, remote.CodeAlreadyExists) {
			return nil
		}
		return err
	})
	if err != nil {
		p.setState(isZone, ProvisionUnknown)
		return err
	}

	if err := r.set(ctx, true, r.name+" created"); err != nil {
		p.setState(isZone, ProvisionUnknown)
		return fmt.Errorf("failed to save %s flag: %w", r.name, err)
	}
	p.setState(isZone, ProvisionCreated)
	p.logger.Info("Remote resource provisioned", "resource", r.name)
	return nil
}
