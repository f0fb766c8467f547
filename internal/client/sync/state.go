package sync

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/iudanet/zonesync/internal/client/storage"
	"github.com/iudanet/zonesync/internal/models"
)

// stateKeeper владеет текущим SyncState: каждое изменение поля сначала
// сохраняется в StateStorage, затем применяется в памяти и пишется в журнал.
type stateKeeper struct {
	store   storage.StateStorage
	journal storage.Journal // может быть nil
	logger  *slog.Logger
	session string
	state   models.SyncState
	mu      sync.RWMutex
}

func newStateKeeper(store storage.StateStorage, journal storage.Journal, logger *slog.Logger) *stateKeeper {
	return &stateKeeper{store: store, journal: journal, logger: logger}
}

// load читает состояние из хранилища
func (k *stateKeeper) load(ctx context.Context) error {
	st, err := k.store.LoadState(ctx)
	if err != nil {
		return fmt.Errorf("failed to load sync state: %w", err)
	}

	k.mu.Lock()
	k.state = st
	k.mu.Unlock()
	return nil
}

// snapshot копия текущего состояния
func (k *stateKeeper) snapshot() models.SyncState {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.state.Clone()
}

// setSession задаёт ID сессии для записей журнала
func (k *stateKeeper) setSession(id string) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.session = id
}

func (k *stateKeeper) setDatabaseToken(ctx context.Context, token models.ChangeToken, reason string) error {
	old := k.snapshot().DatabaseToken
	if old.Equal(token) {
		return nil
	}
	if err := k.store.SaveDatabaseToken(ctx, token); err != nil {
		return err
	}

	k.mu.Lock()
	k.state.DatabaseToken = token
	k.mu.Unlock()

	k.record(ctx, models.StateFieldDatabaseToken, old.Short(), token.Short(), reason)
	return nil
}

func (k *stateKeeper) setZoneToken(ctx context.Context, token models.ChangeToken, reason string) error {
	old := k.snapshot().ZoneToken
	if old.Equal(token) {
		return nil
	}
	if err := k.store.SaveZoneToken(ctx, token); err != nil {
		return err
	}

	k.mu.Lock()
	k.state.ZoneToken = token
	k.mu.Unlock()

	k.record(ctx, models.StateFieldZoneToken, old.Short(), token.Short(), reason)
	return nil
}

func (k *stateKeeper) setZoneProvisioned(ctx context.Context, created bool, reason string) error {
	old := k.snapshot().ZoneProvisioned
	if old == created {
		return nil
	}
	if err := k.store.SetZoneProvisioned(ctx, created); err != nil {
		return err
	}

	k.mu.Lock()
	k.state.ZoneProvisioned = created
	k.mu.Unlock()

	k.record(ctx, models.StateFieldZoneProvisioned, strconv.FormatBool(old), strconv.FormatBool(created), reason)
	return nil
}

func (k *stateKeeper) setSubscriptionProvisioned(ctx context.Context, created bool, reason string) error {
	old := k.snapshot().SubscriptionProvisioned
	if old == created {
		return nil
	}
	if err := k.store.SetSubscriptionProvisioned(ctx, created); err != nil {
		return err
	}

	k.mu.Lock()
	k.state.SubscriptionProvisioned = created
	k.mu.Unlock()

	k.record(ctx, models.StateFieldSubscriptionProvisioned, strconv.FormatBool(old), strconv.FormatBool(created), reason)
	return nil
}

// reset очищает все поля
func (k *stateKeeper) reset(ctx context.Context, reason string) error {
	old := k.snapshot()
	if err := k.store.ResetState(ctx); err != nil {
		return err
	}

	k.mu.Lock()
	k.state = models.SyncState{}
	k.mu.Unlock()

	if !old.DatabaseToken.IsZero() {
		k.record(ctx, models.StateFieldDatabaseToken, old.DatabaseToken.Short(), models.ChangeToken(nil).Short(), reason)
	}
	if !old.ZoneToken.IsZero() {
		k.record(ctx, models.StateFieldZoneToken, old.ZoneToken.Short(), models.ChangeToken(nil).Short(), reason)
	}
	if old.ZoneProvisioned {
		k.record(ctx, models.StateFieldZoneProvisioned, "true", "false", reason)
	}
	if old.SubscriptionProvisioned {
		k.record(ctx, models.StateFieldSubscriptionProvisioned, "true", "false", reason)
	}
	return nil
}

// record пишет переход в журнал; ошибка журнала не прерывает синхронизацию
func (k *stateKeeper) record(ctx context.Context, field models.StateField, old, value, reason string) {
	k.mu.RLock()
	session := k.session
	k.mu.RUnlock()

	k.logger.Debug("Sync state changed", "field", field, "old", old, "new", value, "reason", reason)

	if k.journal == nil {
		return
	}
	tr := models.Transition{
		At:        time.Now().UTC(),
		SessionID: session,
		Field:     field,
		Old:       old,
		New:       value,
		Reason:    reason,
	}
	if err := k.journal.RecordTransition(context.WithoutCancel(ctx), tr); err != nil {
		k.logger.Warn("Failed to journal state transition", "field", field, "error", err)
	}
}
