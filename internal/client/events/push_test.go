package events

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/zonesync/internal/client/api"
	wire "github.com/iudanet/zonesync/pkg/api"
)

func receive(t *testing.T, out <-chan Signal) Signal {
	t.Helper()
	select {
	case sig := <-out:
		return sig
	case <-time.After(waitFor):
		t.Fatal("no signal received")
		return Signal{}
	}
}

func TestPushSource_NotificationsAndReconnect(t *testing.T) {
	var connections atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer push-token", r.Header.Get(wire.HeaderAuthorization))

		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		n := connections.Add(1)

		ctx := r.Context()
		_ = wsjson.Write(ctx, conn, wire.Notification{
			SubscriptionID: "notes-changes",
			ZoneID:         "notes",
			SentAt:         time.Now(),
		})

		if n == 1 {
			// Первое соединение обрывается сервером
			_ = conn.Close(websocket.StatusGoingAway, "restart")
			return
		}
		// Второе живёт до отмены клиента
		_, _, _ = conn.Read(ctx)
		_ = conn.CloseNow()
	}))
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	src := NewPushSource(url, api.StaticToken("push-token"), 10*time.Millisecond, 20*time.Millisecond, setupTestLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	out := make(chan Signal, 8)
	done := make(chan error, 1)
	go func() {
		done <- src.Run(ctx, out)
	}()

	first := receive(t, out)
	assert.Equal(t, KindNotification, first.Kind)
	assert.Equal(t, "notes-changes", first.Notification.SubscriptionID)
	assert.EqualValues(t, "notes", first.Notification.Zone)

	// После обрыва: восстановление связи, затем новое уведомление
	assert.Equal(t, KindConnectivityRestored, receive(t, out).Kind)
	assert.Equal(t, KindNotification, receive(t, out).Kind)
	assert.EqualValues(t, 2, connections.Load())

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(waitFor):
		t.Fatal("push source did not stop")
	}
}

func TestPushSource_RetriesUntilServerAccepts(t *testing.T) {
	var attempts atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		_, _, _ = conn.Read(r.Context())
		_ = conn.CloseNow()
	}))
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	src := NewPushSource(url, api.StaticToken("t"), 5*time.Millisecond, 10*time.Millisecond, setupTestLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	out := make(chan Signal, 4)
	go func() {
		_ = src.Run(ctx, out)
	}()

	sig := receive(t, out)
	assert.Equal(t, KindConnectivityRestored, sig.Kind, "first successful connection after failures")
	require.GreaterOrEqual(t, attempts.Load(), int32(3))
}
