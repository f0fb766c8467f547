package sync

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/iudanet/zonesync/internal/client/remote"
	"github.com/iudanet/zonesync/internal/client/storage"
	"github.com/iudanet/zonesync/internal/models"
)

const (
	testZone models.ZoneID = "notes"
	testSub                = "notes-changes"
	waitFor                = 5 * time.Second
)

func setupTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

func fastRetry() RetryPolicy {
	return RetryPolicy{BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}
}

func newNote(t *testing.T, id models.RecordID, title string) models.Record {
	t.Helper()
	rec := models.NewRecord(id, "Note")
	require.NoError(t, rec.SetField("title", title))
	return rec
}

func titleOf(t *testing.T, rec models.Record) string {
	t.Helper()
	var title string
	_, err := rec.Field("title", &title)
	require.NoError(t, err)
	return title
}

// memState StateStorageMock поверх SyncState в памяти
type memState struct {
	mock  *storage.StateStorageMock
	state models.SyncState
	mu    sync.Mutex
}

func newMemState(initial models.SyncState) *memState {
	m := &memState{state: initial.Clone()}
	m.mock = &storage.StateStorageMock{
		LoadStateFunc: func(ctx context.Context) (models.SyncState, error) {
			return m.get(), nil
		},
		SaveDatabaseTokenFunc: func(ctx context.Context, token models.ChangeToken) error {
			m.mu.Lock()
			defer m.mu.Unlock()
			m.state.DatabaseToken = bytes.Clone(token)
			return nil
		},
		SaveZoneTokenFunc: func(ctx context.Context, token models.ChangeToken) error {
			m.mu.Lock()
			defer m.mu.Unlock()
			m.state.ZoneToken = bytes.Clone(token)
			return nil
		},
		SetZoneProvisionedFunc: func(ctx context.Context, created bool) error {
			m.mu.Lock()
			defer m.mu.Unlock()
			m.state.ZoneProvisioned = created
			return nil
		},
		SetSubscriptionProvisionedFunc: func(ctx context.Context, created bool) error {
			m.mu.Lock()
			defer m.mu.Unlock()
			m.state.SubscriptionProvisioned = created
			return nil
		},
		ResetStateFunc: func(ctx context.Context) error {
			m.mu.Lock()
			defer m.mu.Unlock()
			m.state = models.SyncState{}
			return nil
		},
	}
	return m
}

func (m *memState) get() models.SyncState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.Clone()
}

// recorder собирает вызовы колбэков
type recorder struct {
	changed         []models.Record
	deleted         []models.RecordID
	uploaded        []models.Record
	uploadedDeletes []models.RecordID
	dropped         []models.RecordID
	faults          []error
	changedCalls    int
	mu              sync.Mutex
}

func (r *recorder) callbacks() Callbacks {
	return Callbacks{
		OnRecordsChanged: func(records []models.Record) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.changedCalls++
			r.changed = append(r.changed, records...)
		},
		OnRecordsDeleted: func(ids []models.RecordID) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.deleted = append(r.deleted, ids...)
		},
		OnRecordsUploaded: func(saved []models.Record, deleted []models.RecordID) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.uploaded = append(r.uploaded, saved...)
			r.uploadedDeletes = append(r.uploadedDeletes, deleted...)
		},
		OnRecordsDropped: func(ids []models.RecordID) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.dropped = append(r.dropped, ids...)
		},
		OnFault: func(err error) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.faults = append(r.faults, err)
		},
	}
}

func (r *recorder) snapshot() recorder {
	r.mu.Lock()
	defer r.mu.Unlock()
	return recorder{
		changed:         append([]models.Record(nil), r.changed...),
		deleted:         append([]models.RecordID(nil), r.deleted...),
		uploaded:        append([]models.Record(nil), r.uploaded...),
		uploadedDeletes: append([]models.RecordID(nil), r.uploadedDeletes...),
		dropped:         append([]models.RecordID(nil), r.dropped...),
		faults:          append([]error(nil), r.faults...),
		changedCalls:    r.changedCalls,
	}
}

type testEngine struct {
	*Engine
	persisted *memState
	rec       *recorder
}

func newTestEngine(t *testing.T, store remote.Store, opts ...func(*Config)) *testEngine {
	t.Helper()

	cfg := Config{Zone: testZone, SubscriptionID: testSub, Retry: fastRetry()}
	for _, opt := range opts {
		opt(&cfg)
	}

	st := newMemState(models.SyncState{})
	rec := &recorder{}
	e, err := NewEngine(context.Background(), cfg, store, st.mock, nil, rec.callbacks(), setupTestLogger())
	require.NoError(t, err)
	t.Cleanup(e.Close)

	return &testEngine{Engine: e, persisted: st, rec: rec}
}

func (e *testEngine) flush(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), waitFor)
	defer cancel()
	require.NoError(t, e.Flush(ctx))
}

type cycleResult struct {
	err error
	res Result
}

// await ждёт completion, переданный в run
func await(t *testing.T, run func(done func(Result, error))) (Result, error) {
	t.Helper()
	ch := make(chan cycleResult, 1)
	run(func(res Result, err error) {
		ch <- cycleResult{res: res, err: err}
	})

	select {
	case out := <-ch:
		return out.res, out.err
	case <-time.After(waitFor):
		t.Fatal("completion was not called")
		return Result{}, nil
	}
}
