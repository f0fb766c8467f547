package sync

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/zonesync/internal/client/remote"
	"github.com/iudanet/zonesync/internal/client/remote/memory"
	"github.com/iudanet/zonesync/internal/models"
)

func newTestProvisioner(t *testing.T, store remote.Store, st *memState) *provisioner {
	t.Helper()
	return &provisioner{
		store:        store,
		state:        newTestKeeper(t, st),
		retrier:      newRetrier(fastRetry(), setupTestLogger()),
		logger:       setupTestLogger(),
		zone:         testZone,
		subscription: testSub,
	}
}

func TestProvisioner_CreatesZoneThenSubscription(t *testing.T) {
	store := memory.New()
	st := newMemState(models.SyncState{})
	p := newTestProvisioner(t, store, st)

	var order []string
	store.OnCall(memory.OpCreateZone, func() { order = append(order, "zone") })
	store.OnCall(memory.OpCreateSubscription, func() { order = append(order, "subscription") })

	require.NoError(t, p.ensure(context.Background()))

	assert.Equal(t, []string{"zone", "subscription"}, order)
	assert.True(t, store.HasZone(testZone))
	assert.True(t, store.HasSubscription(testSub))

	state := st.get()
	assert.True(t, state.ZoneProvisioned)
	assert.True(t, state.SubscriptionProvisioned)

	zone, sub := p.states()
	assert.Equal(t, ProvisionCreated, zone)
	assert.Equal(t, ProvisionCreated, sub)
}

func TestProvisioner_Idempotent(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	st := newMemState(models.SyncState{})
	p := newTestProvisioner(t, store, st)

	require.NoError(t, p.ensure(ctx))
	require.NoError(t, p.ensure(ctx))
	assert.Equal(t, 1, store.Calls(memory.OpCreateZone))
	assert.Equal(t, 1, store.Calls(memory.OpCreateSubscription))
	assert.Zero(t, store.Calls(memory.OpZoneExists), "verified resources are not checked again")

	// Новый запуск: флаги выставлены, поэтому только проверка существования
	p.reset()
	require.NoError(t, p.ensure(ctx))
	assert.Equal(t, 1, store.Calls(memory.OpCreateZone))
	assert.Equal(t, 1, store.Calls(memory.OpCreateSubscription))
	assert.Equal(t, 1, store.Calls(memory.OpZoneExists))
	assert.Equal(t, 1, store.Calls(memory.OpSubscriptionExists))
}

func TestProvisioner_FlagDesync(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	st := newMemState(models.SyncState{
		ZoneProvisioned:         true,
		SubscriptionProvisioned: true,
		ZoneToken:               models.ChangeToken("stale-zone-token"),
	})
	p := newTestProvisioner(t, store, st)

	require.NoError(t, p.ensure(ctx))

	assert.True(t, store.HasZone(testZone), "zone recreated after failed existence check")
	assert.True(t, store.HasSubscription(testSub))
	assert.Equal(t, 1, store.Calls(memory.OpCreateZone))

	state := st.get()
	assert.True(t, state.ZoneProvisioned)
	assert.True(t, state.SubscriptionProvisioned)
	assert.True(t, state.ZoneToken.IsZero(), "token of the vanished zone is dropped")

	flags := st.mock.SetZoneProvisionedCalls()
	require.Len(t, flags, 2)
	assert.False(t, flags[0].Created)
	assert.True(t, flags[1].Created)
}

func TestProvisioner_AlreadyExistsIsSuccess(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	require.NoError(t, store.CreateZone(ctx, testZone))
	require.NoError(t, store.CreateSubscription(ctx, remote.Subscription{ID: testSub, Zone: testZone}))

	st := newMemState(models.SyncState{})
	p := newTestProvisioner(t, store, st)

	require.NoError(t, p.ensure(ctx))
	assert.True(t, st.get().SubscriptionProvisioned)
	assert.Equal(t, 2, store.Calls(memory.OpCreateSubscription))
}

func TestProvisioner_ZoneFailureBlocksSubscription(t *testing.T) {
	store := memory.New()
	store.FailNext(memory.OpCreateZone, remote.NewError(remote.CodeNotAuthenticated, "token expired"))

	st := newMemState(models.SyncState{})
	p := newTestProvisioner(t, store, st)

	err := p.ensure(context.Background())
	assert.True(t, IsAccountProblem(err))
	assert.Zero(t, store.Calls(memory.OpCreateSubscription))
	assert.False(t, st.get().ZoneProvisioned)

	zone, sub := p.states()
	assert.Equal(t, ProvisionUnknown, zone)
	assert.Equal(t, ProvisionUnknown, sub)
}

func TestProvisioner_RetriesTransientFailures(t *testing.T) {
	store := memory.New()
	store.FailNext(memory.OpCreateZone, remote.NewError(remote.CodeNetworkFailure, ""))
	store.FailAfterApply(memory.OpCreateSubscription, remote.NewError(remote.CodeResponseLost, ""))

	st := newMemState(models.SyncState{})
	p := newTestProvisioner(t, store, st)

	require.NoError(t, p.ensure(context.Background()))
	assert.Equal(t, 2, store.Calls(memory.OpCreateZone))
	assert.Equal(t, 2, store.Calls(memory.OpCreateSubscription), "lost response retried, duplicate accepted")
	assert.True(t, st.get().SubscriptionProvisioned)
}

func TestProvisionState_String(t *testing.T) {
	assert.Equal(t, "unknown", ProvisionUnknown.String())
	assert.Equal(t, "verifying", ProvisionVerifying.String())
	assert.Equal(t, "creating", ProvisionCreating.String())
	assert.Equal(t, "created", ProvisionCreated.String())

	text, err := ProvisionCreated.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "created", string(text))
}
