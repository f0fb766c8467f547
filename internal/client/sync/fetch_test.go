package sync

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/zonesync/internal/client/remote"
	"github.com/iudanet/zonesync/internal/client/remote/memory"
	"github.com/iudanet/zonesync/internal/models"
)

func newTestKeeper(t *testing.T, st *memState) *stateKeeper {
	t.Helper()
	k := newStateKeeper(st.mock, nil, setupTestLogger())
	require.NoError(t, k.load(context.Background()))
	return k
}

func newFetchers(t *testing.T, store remote.Store, st *memState) (*databaseFetcher, *zoneFetcher) {
	t.Helper()
	k := newTestKeeper(t, st)
	r := newRetrier(fastRetry(), setupTestLogger())
	db := &databaseFetcher{store: store, state: k, retrier: r, logger: setupTestLogger(), zone: testZone}
	zf := &zoneFetcher{store: store, state: k, retrier: r, logger: setupTestLogger(), zone: testZone}
	return db, zf
}

// assertMonotonic проверяет, что каждый сохранённый токен новее предыдущего
func assertMonotonic(t *testing.T, tokens []models.ChangeToken) {
	t.Helper()
	for i := 1; i < len(tokens); i++ {
		if tokens[i].IsZero() || tokens[i-1].IsZero() {
			continue
		}
		assert.Positive(t, bytes.Compare(tokens[i], tokens[i-1]), "token %d must be newer than token %d", i, i-1)
	}
}

func TestDatabaseFetcher_Outcomes(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	st := newMemState(models.SyncState{})
	db, _ := newFetchers(t, store, st)

	outcome, err := db.fetch(ctx)
	require.NoError(t, err)
	assert.Equal(t, dbUnchanged, outcome)

	store.PutRecord("other", newNote(t, "x", "elsewhere"))
	outcome, err = db.fetch(ctx)
	require.NoError(t, err)
	assert.Equal(t, dbUnchanged, outcome, "changes in foreign zones are ignored")

	store.PutRecord(testZone, newNote(t, "a", "mine"))
	outcome, err = db.fetch(ctx)
	require.NoError(t, err)
	assert.Equal(t, dbZoneChanged, outcome)

	outcome, err = db.fetch(ctx)
	require.NoError(t, err)
	assert.Equal(t, dbUnchanged, outcome, "token was advanced")
}

func TestDatabaseFetcher_PersistsEveryPageToken(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	store.SetPageSize(1)
	for _, zone := range []models.ZoneID{"z1", "z2", testZone, "z3"} {
		store.PutRecord(zone, newNote(t, "a", string(zone)))
	}

	st := newMemState(models.SyncState{})
	db, _ := newFetchers(t, store, st)

	outcome, err := db.fetch(ctx)
	require.NoError(t, err)
	assert.Equal(t, dbZoneChanged, outcome)

	calls := st.mock.SaveDatabaseTokenCalls()
	require.Len(t, calls, 4, "one persisted token per page")
	tokens := make([]models.ChangeToken, 0, len(calls))
	for _, c := range calls {
		tokens = append(tokens, c.Token)
	}
	assertMonotonic(t, tokens)
	assert.Equal(t, tokens[len(tokens)-1], st.get().DatabaseToken)
}

func TestDatabaseFetcher_ZoneDeletedKeepsToken(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	store.PutRecord(testZone, newNote(t, "a", "first"))

	st := newMemState(models.SyncState{})
	db, _ := newFetchers(t, store, st)
	_, err := db.fetch(ctx)
	require.NoError(t, err)
	before := st.get().DatabaseToken

	store.DeleteZoneByUser(testZone)
	outcome, err := db.fetch(ctx)
	assert.Equal(t, dbZoneDeleted, outcome)
	assert.True(t, IsZoneDeleted(err))
	assert.Equal(t, before, st.get().DatabaseToken, "deletion page token is not persisted")

	// Удаление видно и при повторной выборке
	outcome, err = db.fetch(ctx)
	assert.Equal(t, dbZoneDeleted, outcome)
	require.Error(t, err)
}

func TestDatabaseFetcher_TokenExpired(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	store.PutRecord(testZone, newNote(t, "a", "first"))

	st := newMemState(models.SyncState{})
	db, _ := newFetchers(t, store, st)
	_, err := db.fetch(ctx)
	require.NoError(t, err)

	store.ExpireTokens()
	outcome, err := db.fetch(ctx)
	require.NoError(t, err)
	assert.Equal(t, dbZoneChanged, outcome, "refetch from scratch reports the zone again")
	assert.Equal(t, 3, store.Calls(memory.OpFetchDatabase))

	calls := st.mock.SaveDatabaseTokenCalls()
	require.Len(t, calls, 3)
	assert.True(t, calls[1].Token.IsZero(), "expired token is cleared before refetch")

	expired := remote.NewError(remote.CodeChangeTokenExpired, "")
	store.FailNext(memory.OpFetchDatabase, expired, expired)
	_, err = db.fetch(ctx)
	assert.Equal(t, KindTokenExpired, Classify(err).Kind, "restart happens only once")
}

func TestZoneFetcher_AccumulatesPages(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	store.SetPageSize(2)
	for _, id := range []models.RecordID{"a", "b", "c", "d", "e"} {
		store.PutRecord(testZone, newNote(t, id, string(id)))
	}
	store.PutRecord(testZone, newNote(t, "b", "b2"))
	store.RemoveRecord(testZone, "c")

	st := newMemState(models.SyncState{})
	_, zf := newFetchers(t, store, st)

	res, err := zf.fetch(ctx)
	require.NoError(t, err)

	ids := models.RecordIDs(res.changed)
	assert.ElementsMatch(t, []models.RecordID{"a", "b", "d", "e"}, ids)
	assert.Equal(t, []models.RecordID{"c"}, res.deleted)
	for _, rec := range res.changed {
		if rec.ID == "b" {
			assert.Equal(t, "b2", titleOf(t, rec))
		}
	}

	calls := st.mock.SaveZoneTokenCalls()
	assert.Len(t, calls, 4, "seven events in pages of two")
	tokens := make([]models.ChangeToken, 0, len(calls))
	for _, c := range calls {
		tokens = append(tokens, c.Token)
	}
	assertMonotonic(t, tokens)

	again, err := zf.fetch(ctx)
	require.NoError(t, err)
	assert.Empty(t, again.changed)
	assert.Empty(t, again.deleted)
}

func TestZoneFetcher_SkipsFailedRecords(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	store.PutRecord(testZone, newNote(t, "a", "a"))
	store.PutRecord(testZone, newNote(t, "b", "b"))
	store.FailRecordFetch("a", remote.NewError(remote.CodeInternal, "corrupt asset"))

	st := newMemState(models.SyncState{})
	_, zf := newFetchers(t, store, st)

	res, err := zf.fetch(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.RecordID{"b"}, models.RecordIDs(res.changed))
	assert.False(t, st.get().ZoneToken.IsZero())
}

func TestZoneFetcher_TokenExpiredRestarts(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	store.SetPageSize(1)
	store.PutRecord(testZone, newNote(t, "a", "a"))
	store.PutRecord(testZone, newNote(t, "b", "b"))

	st := newMemState(models.SyncState{})
	_, zf := newFetchers(t, store, st)

	// Токен истекает после первой страницы
	store.OnCall(memory.OpFetchZone, func() {
		if store.Calls(memory.OpFetchZone) == 2 {
			store.ExpireTokens()
		}
	})

	res, err := zf.fetch(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []models.RecordID{"a", "b"}, models.RecordIDs(res.changed))
	assert.Len(t, res.changed, 2, "restart discards the partial accumulation")
}

func TestZoneFetcher_ZoneGone(t *testing.T) {
	store := memory.New()
	st := newMemState(models.SyncState{})
	_, zf := newFetchers(t, store, st)

	_, err := zf.fetch(context.Background())
	assert.True(t, IsZoneDeleted(err))
	assert.Empty(t, st.mock.SaveZoneTokenCalls())
}

func TestChangeAccumulator(t *testing.T) {
	acc := newChangeAccumulator()
	a := models.NewRecord("a", "Note")
	b := models.NewRecord("b", "Note")

	acc.add(&remote.ZoneChanges{Changed: []models.Record{a, b}})
	acc.add(&remote.ZoneChanges{Deleted: []models.RecordID{"a"}})
	acc.add(&remote.ZoneChanges{Changed: []models.Record{a}, Deleted: []models.RecordID{"c"}})

	res := acc.result()
	assert.Equal(t, []models.RecordID{"a", "b"}, models.RecordIDs(res.changed))
	assert.Equal(t, []models.RecordID{"c"}, res.deleted)
}

func TestFetchers_PageWithoutTokenKeepsCursor(t *testing.T) {
	ctx := context.Background()
	store := &remote.StoreMock{
		FetchDatabaseChangesFunc: func(ctx context.Context, since models.ChangeToken) (*remote.DatabaseChanges, error) {
			return &remote.DatabaseChanges{Changed: []models.ZoneID{testZone}}, nil
		},
		FetchZoneChangesFunc: func(ctx context.Context, zone models.ZoneID, since models.ChangeToken) (*remote.ZoneChanges, error) {
			return &remote.ZoneChanges{Changed: []models.Record{newNote(t, "a", "title")}}, nil
		},
	}

	st := newMemState(models.SyncState{
		DatabaseToken: models.ChangeToken("tok-1"),
		ZoneToken:     models.ChangeToken("tok-1"),
	})
	db, zf := newFetchers(t, store, st)

	outcome, err := db.fetch(ctx)
	require.NoError(t, err)
	assert.Equal(t, dbZoneChanged, outcome)

	changes, err := zf.fetch(ctx)
	require.NoError(t, err)
	assert.Len(t, changes.changed, 1)

	persisted := st.get()
	assert.Equal(t, models.ChangeToken("tok-1"), persisted.DatabaseToken)
	assert.Equal(t, models.ChangeToken("tok-1"), persisted.ZoneToken)
	assert.Empty(t, st.mock.SaveDatabaseTokenCalls())
	assert.Empty(t, st.mock.SaveZoneTokenCalls())
}
