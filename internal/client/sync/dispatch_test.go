package sync

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatcher_FIFO(t *testing.T) {
	d := newDispatcher(setupTestLogger(), nil)

	var (
		mu    sync.Mutex
		order []int
	)
	for i := range 100 {
		require.True(t, d.submit(task{name: "append", run: func() {
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
		}}))
	}
	d.close()
	d.wait()

	require.Len(t, order, 100)
	for i, v := range order {
		assert.Equal(t, i, v)
	}
	assert.False(t, d.submit(task{name: "late", run: func() {}}), "closed dispatcher rejects tasks")
}

func TestDispatcher_SingleConcurrency(t *testing.T) {
	d := newDispatcher(setupTestLogger(), nil)

	var running, maxRunning atomic.Int32
	for range 20 {
		d.submit(task{name: "work", run: func() {
			n := running.Add(1)
			if n > maxRunning.Load() {
				maxRunning.Store(n)
			}
			time.Sleep(time.Millisecond)
			running.Add(-1)
		}})
	}
	d.close()
	d.wait()

	assert.Equal(t, int32(1), maxRunning.Load())
}

func TestDispatcher_CancelPending(t *testing.T) {
	d := newDispatcher(setupTestLogger(), nil)

	started := make(chan struct{})
	release := make(chan struct{})
	d.submit(task{name: "blocker", run: func() {
		close(started)
		<-release
	}})
	<-started

	var ran, dropped []string
	var mu sync.Mutex
	add := func(dst *[]string, v string) func() {
		return func() {
			mu.Lock()
			*dst = append(*dst, v)
			mu.Unlock()
		}
	}
	d.submit(task{name: "a", run: add(&ran, "a"), drop: add(&dropped, "a")})
	d.submit(task{name: "barrier", keep: true, run: add(&ran, "barrier"), drop: add(&dropped, "barrier")})
	d.submit(task{name: "b", run: add(&ran, "b"), drop: add(&dropped, "b")})

	assert.Equal(t, 3, d.pending())
	assert.Equal(t, 2, d.cancelPending())
	assert.Equal(t, 1, d.pending())

	close(release)
	d.close()
	d.wait()

	assert.Equal(t, []string{"barrier"}, ran)
	assert.Equal(t, []string{"a", "b"}, dropped)
}

func TestDispatcher_CancelUpToKeepsLaterGenerations(t *testing.T) {
	d := newDispatcher(setupTestLogger(), nil)

	started := make(chan struct{})
	release := make(chan struct{})
	d.submit(task{name: "blocker", run: func() {
		close(started)
		<-release
	}})
	<-started

	var ran, dropped []string
	var mu sync.Mutex
	add := func(dst *[]string, v string) func() {
		return func() {
			mu.Lock()
			*dst = append(*dst, v)
			mu.Unlock()
		}
	}
	d.submit(task{name: "old", gen: 1, run: add(&ran, "old"), drop: add(&dropped, "old")})
	d.submit(task{name: "same", gen: 2, run: add(&ran, "same"), drop: add(&dropped, "same")})
	d.submit(task{name: "newer", gen: 3, run: add(&ran, "newer"), drop: add(&dropped, "newer")})

	assert.Equal(t, 2, d.cancelUpTo(2))

	close(release)
	d.close()
	d.wait()

	assert.Equal(t, []string{"newer"}, ran)
	assert.Equal(t, []string{"old", "same"}, dropped)
}

func TestDispatcher_RecoversPanic(t *testing.T) {
	var panicked atomic.Value
	d := newDispatcher(setupTestLogger(), func(name string, v any) {
		panicked.Store(name)
	})

	var after atomic.Bool
	d.submit(task{name: "explode", run: func() { panic("boom") }})
	d.submit(task{name: "next", run: func() { after.Store(true) }})
	d.close()
	d.wait()

	assert.Equal(t, "explode", panicked.Load())
	assert.True(t, after.Load(), "dispatcher keeps running after a panic")
}
