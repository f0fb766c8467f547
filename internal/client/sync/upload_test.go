package sync

import (
	"context"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/zonesync/internal/client/remote"
	"github.com/iudanet/zonesync/internal/client/remote/memory"
	"github.com/iudanet/zonesync/internal/conflict"
	"github.com/iudanet/zonesync/internal/models"
)

func newTestUploader(t *testing.T, store *memory.Store, resolver conflict.Resolver, maxBatch int) *uploader {
	t.Helper()
	require.NoError(t, store.CreateZone(context.Background(), testZone))
	if resolver == nil {
		resolver = conflict.LastModifiedWins{}
	}
	return &uploader{
		store:    store,
		resolver: resolver,
		retrier:  newRetrier(fastRetry(), setupTestLogger()),
		logger:   setupTestLogger(),
		zone:     testZone,
		maxBatch: maxBatch,
	}
}

func notes(t *testing.T, n int) []models.Record {
	t.Helper()
	out := make([]models.Record, 0, n)
	for i := range n {
		out = append(out, newNote(t, models.RecordID(fmt.Sprintf("note-%02d", i)), fmt.Sprintf("title %d", i)))
	}
	return out
}

func TestBatch_Split(t *testing.T) {
	tests := []struct {
		name                  string
		save, del             int
		firstSave, firstDel   int
		secondSave, secondDel int
	}{
		{name: "saves only even", save: 4, firstSave: 2, secondSave: 2},
		{name: "saves only odd", save: 5, firstSave: 2, secondSave: 3},
		{name: "mixed", save: 3, del: 2, firstSave: 2, secondSave: 1, secondDel: 2},
		{name: "deletes dominate", save: 1, del: 4, firstSave: 1, firstDel: 1, secondDel: 3},
		{name: "deletes only", del: 3, firstDel: 1, secondDel: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := batch{save: make([]models.Record, tt.save), del: make([]models.RecordID, tt.del), level: 1}
			first, second := b.split()

			assert.Len(t, first.save, tt.firstSave)
			assert.Len(t, first.del, tt.firstDel)
			assert.Len(t, second.save, tt.secondSave)
			assert.Len(t, second.del, tt.secondDel)
			assert.Equal(t, 2, first.level)
			assert.Equal(t, 2, second.level)
			assert.GreaterOrEqual(t, second.size(), first.size(), "ceiling goes to the second half")
		})
	}
}

func TestUploader_SplitTerminates(t *testing.T) {
	for _, n := range []int{2, 3, 5, 8, 13} {
		t.Run(fmt.Sprintf("N=%d", n), func(t *testing.T) {
			store := memory.New()
			store.SetBatchLimit(1)
			u := newTestUploader(t, store, nil, 0)

			report, err := u.upload(context.Background(), models.PendingChangeSet{RecordsToSave: notes(t, n)})
			require.NoError(t, err)

			assert.Equal(t, int(math.Ceil(math.Log2(float64(n)))), report.SplitLevels)
			assert.Len(t, report.Saved, n)
			assert.Equal(t, n, store.Records(testZone))

			singles := 0
			for _, size := range store.ModifySizes() {
				if size == 1 {
					singles++
				}
			}
			assert.Equal(t, n, singles, "every record is eventually submitted alone")
		})
	}
}

func TestUploader_SingleRecordTooLarge(t *testing.T) {
	store := memory.New()
	u := newTestUploader(t, store, nil, 0)
	store.FailNext(memory.OpModify, remote.NewError(remote.CodeLimitExceeded, "record too large"))

	report, err := u.upload(context.Background(), models.PendingChangeSet{RecordsToSave: notes(t, 1)})
	assert.Equal(t, KindBatchTooLarge, Classify(err).Kind)
	assert.Empty(t, report.Saved)
}

func TestUploader_ChunksByMaxBatch(t *testing.T) {
	store := memory.New()
	u := newTestUploader(t, store, nil, 2)
	for _, rec := range notes(t, 2) {
		store.PutRecord(testZone, rec)
	}

	set := models.PendingChangeSet{
		RecordsToSave:     notes(t, 5)[2:],
		RecordIDsToDelete: []models.RecordID{"note-00", "note-01"},
	}
	report, err := u.upload(context.Background(), set)
	require.NoError(t, err)

	assert.Equal(t, []int{2, 2, 1}, store.ModifySizes())
	assert.Len(t, report.Saved, 3)
	assert.Equal(t, []models.RecordID{"note-00", "note-01"}, report.Deleted)
	assert.Equal(t, 3, store.Records(testZone))
}

func TestUploader_ConflictResolvedOnce(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	u := newTestUploader(t, store, nil, 0)

	base := newNote(t, "a", "v1")
	require.NoError(t, base.Touch(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)))
	stale := store.PutRecord(testZone, base)

	server := stale.Clone()
	require.NoError(t, server.SetField("title", "server edit"))
	require.NoError(t, server.Touch(time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)))
	store.PutRecord(testZone, server)

	client := stale.Clone()
	require.NoError(t, client.SetField("title", "client edit"))
	require.NoError(t, client.Touch(time.Date(2026, 1, 3, 0, 0, 0, 0, time.UTC)))

	report, err := u.upload(ctx, models.PendingChangeSet{RecordsToSave: []models.Record{client}})
	require.NoError(t, err)

	assert.Empty(t, report.Saved)
	require.Len(t, report.Merged, 1)
	assert.Equal(t, "client edit", titleOf(t, report.Merged[0]))
	assert.Equal(t, []int{1, 1}, store.ModifySizes(), "exactly one resubmission")

	stored, ok := store.Record(testZone, "a")
	require.True(t, ok)
	assert.Equal(t, "client edit", titleOf(t, stored))
	assert.Equal(t, report.Merged[0].SystemMetadata, stored.SystemMetadata)
}

func TestUploader_ConflictDropped(t *testing.T) {
	tests := []struct {
		name     string
		resolver conflict.Resolver
		// bump меняет серверную версию перед каждой модификацией
		bump bool
	}{
		{name: "resolver discards client change", resolver: conflict.ServerWins{}},
		{name: "second conflict is not retried", resolver: conflict.ClientWins{}, bump: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := memory.New()
			u := newTestUploader(t, store, tt.resolver, 0)

			stale := store.PutRecord(testZone, newNote(t, "a", "v1"))
			store.PutRecord(testZone, newNote(t, "a", "v2"))
			if tt.bump {
				store.OnCall(memory.OpModify, func() {
					store.PutRecord(testZone, newNote(t, "a", "concurrent"))
				})
			}

			client := stale.Clone()
			require.NoError(t, client.SetField("title", "mine"))

			report, err := u.upload(context.Background(), models.PendingChangeSet{RecordsToSave: []models.Record{client}})
			require.NoError(t, err)
			assert.Equal(t, []models.RecordID{"a"}, report.Dropped)
			assert.Empty(t, report.Saved)
			assert.Empty(t, report.Merged)
			assert.LessOrEqual(t, store.Calls(memory.OpModify), 2, "never keeps retrying the same conflict")
		})
	}
}

func TestUploader_RecordErrorsStayPending(t *testing.T) {
	store := memory.New()
	u := newTestUploader(t, store, nil, 0)
	store.RejectRecord("note-01", remote.NewError(remote.CodeBadRequest, "invalid field"))

	report, err := u.upload(context.Background(), models.PendingChangeSet{RecordsToSave: notes(t, 3)})
	require.NoError(t, err)

	assert.Equal(t, []models.RecordID{"note-00", "note-02"}, models.RecordIDs(report.Saved))
	require.Contains(t, report.Failed, models.RecordID("note-01"))
	assert.True(t, remote.HasCode(report.Failed["note-01"], remote.CodeBadRequest))
}

func TestUploader_RetriesSameBatch(t *testing.T) {
	store := memory.New()
	u := newTestUploader(t, store, nil, 0)
	store.FailNext(memory.OpModify,
		remote.NewError(remote.CodeZoneBusy, ""),
		remote.NewError(remote.CodeServiceUnavailable, "").WithRetryAfter(time.Millisecond),
	)

	report, err := u.upload(context.Background(), models.PendingChangeSet{RecordsToSave: notes(t, 3)})
	require.NoError(t, err)
	assert.Len(t, report.Saved, 3)
	assert.Equal(t, []int{3, 3, 3}, store.ModifySizes())
}

func TestUploader_PermanentErrorReturnsPartialReport(t *testing.T) {
	store := memory.New()
	u := newTestUploader(t, store, nil, 1)
	store.OnCall(memory.OpModify, func() {
		if store.Calls(memory.OpModify) == 2 {
			store.DeleteZoneByUser(testZone)
		}
	})

	report, err := u.upload(context.Background(), models.PendingChangeSet{RecordsToSave: notes(t, 3)})
	assert.True(t, IsZoneDeleted(err))
	assert.Equal(t, []models.RecordID{"note-00"}, models.RecordIDs(report.Saved))
}

func TestUploader_Empty(t *testing.T) {
	store := memory.New()
	u := newTestUploader(t, store, nil, 0)

	report, err := u.upload(context.Background(), models.PendingChangeSet{})
	require.NoError(t, err)
	assert.Zero(t, report.confirmed())
	assert.Zero(t, store.Calls(memory.OpModify))
}
