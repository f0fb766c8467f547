package cli

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/zonesync/internal/client/remote"
	"github.com/iudanet/zonesync/internal/conflict"
	"github.com/iudanet/zonesync/internal/models"
)

func TestSync_UploadsOutbox(t *testing.T) {
	env := newTestEnv(t)
	env.mustRun(t, "put", "note-1", "title=Groceries")
	env.mustRun(t, "put", "note-2", "title=Books")

	out := env.mustRun(t, "sync")

	assert.Contains(t, out, "✓ Synchronization completed successfully")
	assert.Contains(t, out, "Uploaded:              2 record(s)")
	assert.Equal(t, 2, env.remote.Records(testZone))
	assert.True(t, env.remote.HasZone(testZone))

	report := statusJSON(t, env)
	assert.Equal(t, 0, report.PendingSave)
	assert.True(t, report.State.ZoneProvisioned)
	assert.NotEmpty(t, report.State.ZoneToken)
	assert.NotEmpty(t, report.Sessions)

	out = env.mustRun(t, "list")
	assert.Contains(t, out, "Status:   synced")
}

func TestSync_UploadsDeletion(t *testing.T) {
	env := newTestEnv(t)
	env.mustRun(t, "put", "note-1", "title=Groceries")
	env.mustRun(t, "sync")
	require.Equal(t, 1, env.remote.Records(testZone))

	env.mustRun(t, "rm", "note-1")
	out := env.mustRun(t, "sync")

	assert.Contains(t, out, "Deletions uploaded:    1")
	assert.Equal(t, 0, env.remote.Records(testZone))
	assert.Equal(t, 0, statusJSON(t, env).PendingDel)
}

// editRemotely меняет заголовок записи в хранилище "с другого устройства"
func editRemotely(t *testing.T, env *testEnv, id models.RecordID, title string, at time.Time) {
	t.Helper()
	rec, ok := env.remote.Record(testZone, id)
	require.True(t, ok)
	require.NoError(t, rec.SetField("title", title))
	require.NoError(t, rec.Touch(at))
	env.remote.PutRecord(testZone, rec)
}

func TestSync_ConflictMergedClearsOutbox(t *testing.T) {
	env := newTestEnv(t)
	env.mustRun(t, "put", "note-1", "title=Groceries")
	env.mustRun(t, "sync")

	editRemotely(t, env, "note-1", "Remote", time.Now().Add(-time.Hour))
	env.mustRun(t, "put", "note-1", "title=Local")

	env.mustRun(t, "sync")

	report := statusJSON(t, env)
	assert.Equal(t, 0, report.PendingSave, "merged save is confirmed locally")

	stored, ok := env.remote.Record(testZone, "note-1")
	require.True(t, ok)
	var title string
	_, err := stored.Field("title", &title)
	require.NoError(t, err)
	assert.Equal(t, "Local", title)

	out := env.mustRun(t, "list")
	assert.Contains(t, out, "Status:   synced")
}

func TestSync_ConflictDroppedClearsOutbox(t *testing.T) {
	env := newTestEnv(t)
	t.Setenv("ZONESYNC_CONFLICT_STRATEGY", conflict.StrategyServerWins)
	env.mustRun(t, "put", "note-1", "title=Groceries")
	env.mustRun(t, "sync")

	editRemotely(t, env, "note-1", "Remote", time.Now())
	env.mustRun(t, "put", "note-1", "title=Local")

	out := env.mustRun(t, "sync")
	assert.Contains(t, out, "Dropped by conflict:   1 record(s)")
	assert.Equal(t, 0, statusJSON(t, env).PendingSave)
}

func TestSync_FetchOnly(t *testing.T) {
	env := newTestEnv(t)
	env.mustRun(t, "sync")

	rec := models.NewRecord("remote-1", "record")
	require.NoError(t, rec.SetField("title", "From another device"))
	env.remote.PutRecord(testZone, rec)
	env.mustRun(t, "put", "local-1", "title=Not uploaded")

	out := env.mustRun(t, "sync", "--fetch-only")

	assert.Contains(t, out, "Changed remotely:      1 record(s)")
	assert.Contains(t, out, "Uploaded:              0 record(s)")
	_, ok := env.remote.Record(testZone, "local-1")
	assert.False(t, ok, "fetch-only must not upload the outbox")

	out = env.mustRun(t, "get", "remote-1")
	assert.Contains(t, out, `title = "From another device"`)
	assert.Contains(t, out, "Status:   synced")
}

func TestSync_AppliesRemoteDeletion(t *testing.T) {
	env := newTestEnv(t)
	env.mustRun(t, "put", "note-1", "title=Groceries")
	env.mustRun(t, "sync")

	env.remote.RemoveRecord(testZone, "note-1")
	out := env.mustRun(t, "sync")

	assert.Contains(t, out, "Deleted remotely:      1 record(s)")
	_, err := env.run(t, "", "get", "note-1")
	require.Error(t, err)
}

func TestSync_AccountProblem(t *testing.T) {
	env := newTestEnv(t)
	env.remote.SetAccountStatus(remote.AccountNoAccount, nil)
	env.mustRun(t, "put", "note-1", "title=Groceries")

	out, err := env.run(t, "", "sync")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "check the token file")
	assert.Contains(t, out, "✗ Synchronization failed")
	assert.Equal(t, 0, env.remote.Records(testZone))
	assert.Equal(t, 1, statusJSON(t, env).PendingSave)
}

func TestReset(t *testing.T) {
	env := newTestEnv(t)
	env.mustRun(t, "put", "note-1", "title=Groceries")
	env.mustRun(t, "sync")

	out := env.mustRun(t, "reset", "--yes")
	assert.Contains(t, out, "✓ Sync state reset")

	report := statusJSON(t, env)
	assert.False(t, report.State.ZoneProvisioned)
	assert.False(t, report.State.SubscriptionProvisioned)
	assert.Empty(t, report.State.ZoneToken)
	assert.Equal(t, 1, report.Records)

	// После сброса выгружается вся локальная коллекция
	out = env.mustRun(t, "sync")
	assert.Contains(t, out, "Uploaded:              1 record(s)")
}

func TestReset_Confirmation(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantReset bool
	}{
		{name: "declined", input: "n\n", wantReset: false},
		{name: "empty answer", input: "\n", wantReset: false},
		{name: "accepted", input: "yes\n", wantReset: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.mustRun(t, "sync")

			out, err := env.run(t, tt.input, "reset")

			require.NoError(t, err)
			assert.Contains(t, out, `Reset sync state of zone "notes"? [y/N]: `)
			assert.Equal(t, !tt.wantReset, statusJSON(t, env).State.ZoneProvisioned)
			if !tt.wantReset {
				assert.Contains(t, out, "Aborted.")
			}
		})
	}
}

func TestHistory(t *testing.T) {
	env := newTestEnv(t)
	env.mustRun(t, "sync")

	out := env.mustRun(t, "history")
	assert.Contains(t, out, "=== State Transitions ===")
	assert.Contains(t, out, string(models.StateFieldZoneProvisioned))

	out = env.mustRun(t, "history", "--sessions", "--limit", "5")
	assert.Contains(t, out, "=== Sync Sessions ===")
	assert.Contains(t, out, string(models.SessionFull))
}

func TestHistory_Empty(t *testing.T) {
	env := newTestEnv(t)

	out := env.mustRun(t, "history")

	assert.Contains(t, out, "No transitions recorded.")
}

func TestHistory_JournalDisabled(t *testing.T) {
	env := newTestEnv(t)
	t.Setenv("ZONESYNC_JOURNAL_ENABLED", "false")

	_, err := env.run(t, "", "history")

	require.ErrorIs(t, err, errJournalDisabled)
}

func TestStatus_Text(t *testing.T) {
	env := newTestEnv(t)
	env.mustRun(t, "put", "note-1", "title=Groceries")

	out := env.mustRun(t, "status")

	assert.Contains(t, out, "=== Sync Status ===")
	assert.Contains(t, out, "Zone:         notes")
	assert.Contains(t, out, "Subscription: notes-changes")
	assert.Contains(t, out, "Zone created:         no")
	assert.Contains(t, out, "Zone token:           (none)")
	assert.Contains(t, out, "Pending upload: 1 save(s), 0 deletion(s)")
}

func TestStatus_YAML(t *testing.T) {
	env := newTestEnv(t)
	env.mustRun(t, "put", "note-1", "title=Groceries")

	out := env.mustRun(t, "status", "--output", "yaml")

	assert.Contains(t, out, "zone: notes")
	assert.Contains(t, out, "pending_save: 1")
	assert.Contains(t, out, "zone_provisioned: false")
	assert.NotContains(t, out, "zone_token")
}

func TestStatus_Check(t *testing.T) {
	env := newTestEnv(t)

	out := env.mustRun(t, "status", "--check")

	assert.Contains(t, out, "Account:      "+string(remote.AccountAvailable))
}

func TestStatus_UnknownOutput(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.run(t, "", "status", "-o", "xml")

	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown output format "xml"`)
}
