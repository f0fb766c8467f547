package events

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/sethvargo/go-retry"

	"github.com/iudanet/zonesync/internal/client/api"
	zsync "github.com/iudanet/zonesync/internal/client/sync"
	"github.com/iudanet/zonesync/internal/models"
	wire "github.com/iudanet/zonesync/pkg/api"
)

// PushSource подписывается на websocket поток уведомлений хранилища.
// Каждое уведомление превращается в KindNotification. Успешное переподключение
// после обрыва сообщается как KindConnectivityRestored: пока связи не было,
// уведомления могли быть потеряны.
type PushSource struct {
	tokens     api.TokenProvider
	logger     *slog.Logger
	url        string
	minBackoff time.Duration
	maxBackoff time.Duration
}

// NewPushSource создает источник уведомлений для websocket адреса url
func NewPushSource(url string, tokens api.TokenProvider, minBackoff, maxBackoff time.Duration, logger *slog.Logger) *PushSource {
	if minBackoff <= 0 {
		minBackoff = time.Second
	}
	if maxBackoff < minBackoff {
		maxBackoff = minBackoff
	}
	return &PushSource{
		url:        url,
		tokens:     tokens,
		minBackoff: minBackoff,
		maxBackoff: maxBackoff,
		logger:     logger,
	}
}

// Name implements Source
func (s *PushSource) Name() string {
	return "push"
}

// Run implements Source. Ошибки соединения не завершают источник: он переподключается
// с экспоненциальной задержкой до отмены ctx.
func (s *PushSource) Run(ctx context.Context, out chan<- Signal) error {
	backoff := s.newBackoff()
	disconnected := false

	for {
		conn, err := s.dial(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			disconnected = true
			delay, _ := backoff.Next()
			s.logger.Warn("Push connection failed", "error", err, "retry_in", delay)
			if !sleepCtx(ctx, delay) {
				return nil
			}
			continue
		}

		s.logger.Info("Push connection established")
		backoff = s.newBackoff()
		if disconnected {
			if !emit(ctx, out, Signal{Kind: KindConnectivityRestored, Source: s.Name()}) {
				_ = conn.Close(websocket.StatusNormalClosure, "")
				return nil
			}
		}

		err = s.readLoop(ctx, conn, out)
		_ = conn.Close(websocket.StatusNormalClosure, "")
		if ctx.Err() != nil {
			return nil
		}
		disconnected = true
		delay, _ := backoff.Next()
		s.logger.Warn("Push connection lost", "error", err, "retry_in", delay)
		if !sleepCtx(ctx, delay) {
			return nil
		}
	}
}

func (s *PushSource) newBackoff() retry.Backoff {
	return retry.WithCappedDuration(s.maxBackoff, retry.NewExponential(s.minBackoff))
}

func (s *PushSource) dial(ctx context.Context) (*websocket.Conn, error) {
	token, err := s.tokens.Token()
	if err != nil {
		return nil, err
	}

	header := http.Header{}
	header.Set(wire.HeaderAuthorization, "Bearer "+token)
	header.Set(wire.HeaderClientVersion, api.Version)

	dialCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	conn, resp, err := websocket.Dial(dialCtx, s.url, &websocket.DialOptions{
		HTTPHeader: header,
	})
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	return conn, err
}

func (s *PushSource) readLoop(ctx context.Context, conn *websocket.Conn, out chan<- Signal) error {
	for {
		var n wire.Notification
		if err := wsjson.Read(ctx, conn, &n); err != nil {
			if websocket.CloseStatus(err) == websocket.StatusNormalClosure {
				return errors.New("server closed the notification stream")
			}
			return err
		}
		if n.SubscriptionID == "" {
			s.logger.Warn("Push notification without subscription id ignored")
			continue
		}

		s.logger.Debug("Push notification received", "subscription", n.SubscriptionID, "zone", n.ZoneID)
		sig := Signal{
			Kind:   KindNotification,
			Source: s.Name(),
			Notification: zsync.Notification{
				SubscriptionID: n.SubscriptionID,
				Zone:           models.ZoneID(n.ZoneID),
			},
		}
		if !emit(ctx, out, sig) {
			return ctx.Err()
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
