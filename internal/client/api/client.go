// Package api реализует remote.Store поверх HTTP/JSON протокола хранилища записей.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/iudanet/zonesync/internal/client/remote"
	"github.com/iudanet/zonesync/internal/models"
	"github.com/iudanet/zonesync/pkg/api"
)

// Version версия протокола, передаваемая в заголовке X-Zonesync-Version
const Version = "1"

// DefaultTimeout таймаут одного HTTP запроса по умолчанию
const DefaultTimeout = 30 * time.Second

// Ensure, that Client does implement remote.Store.
var _ remote.Store = (*Client)(nil)

// Client представляет HTTP клиент удалённого хранилища записей
type Client struct {
	httpClient *http.Client
	tokens     TokenProvider
	logger     *slog.Logger
	baseURL    string
	pageLimit  int
}

// Option настраивает Client
type Option func(*Client)

// WithTimeout задаёт таймаут HTTP запроса
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithPageLimit ограничивает размер страницы выборки изменений. Ноль оставляет выбор серверу.
func WithPageLimit(n int) Option {
	return func(c *Client) {
		c.pageLimit = n
	}
}

// WithTransport подменяет базовый RoundTripper (для тестов и прокси)
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) {
		c.httpClient.Transport = newLoggingTransport(rt, c.logger)
	}
}

// NewClient создает новый API клиент
func NewClient(baseURL string, tokens TokenProvider, logger *slog.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		tokens:  tokens,
		logger:  logger,
	}
	c.httpClient = &http.Client{
		Timeout:   DefaultTimeout,
		Transport: newLoggingTransport(http.DefaultTransport, logger),
		// Настройка обработки редиректов
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			// Ограничиваем количество редиректов
			if len(via) >= 10 {
				return fmt.Errorf("stopped after 10 redirects")
			}
			// Копируем заголовки Authorization при редиректе
			if len(via) > 0 && via[0].Header.Get(api.HeaderAuthorization) != "" {
				req.Header.Set(api.HeaderAuthorization, via[0].Header.Get(api.HeaderAuthorization))
			}
			return nil
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// AccountStatus проверяет состояние учётной записи.
// Отсутствующий или истёкший токен означает AccountNoAccount без обращения к серверу.
func (c *Client) AccountStatus(ctx context.Context) (remote.AccountStatus, error) {
	if _, err := c.tokens.Token(); err != nil {
		if errors.Is(err, ErrNoToken) || errors.Is(err, ErrTokenExpired) {
			c.logger.Debug("No usable bearer token", "reason", err)
			return remote.AccountNoAccount, nil
		}
		return remote.AccountCouldNotDetermine, nil
	}

	var resp api.AccountResponse
	err := c.doRequest(ctx, http.MethodGet, "/api/v1/account", nil, &resp)
	if err != nil {
		if remote.HasCode(err, remote.CodeNotAuthenticated) {
			return remote.AccountNoAccount, nil
		}
		return "", fmt.Errorf("account status request failed: %w", err)
	}

	switch status := remote.AccountStatus(resp.Status); status {
	case remote.AccountAvailable,
		remote.AccountNoAccount,
		remote.AccountRestricted,
		remote.AccountCouldNotDetermine,
		remote.AccountTemporarilyUnavailable:
		return status, nil
	default:
		return remote.AccountCouldNotDetermine, nil
	}
}

// FetchDatabaseChanges получает страницу изменённых и удалённых зон
func (c *Client) FetchDatabaseChanges(ctx context.Context, since models.ChangeToken) (*remote.DatabaseChanges, error) {
	req := api.DatabaseChangesRequest{Token: since, Limit: c.pageLimit}
	var resp api.DatabaseChangesResponse
	if err := c.doRequest(ctx, http.MethodPost, "/api/v1/changes", req, &resp); err != nil {
		return nil, fmt.Errorf("fetch database changes failed: %w", err)
	}

	return &remote.DatabaseChanges{
		Changed:    zoneIDs(resp.Changed),
		Deleted:    zoneIDs(resp.Deleted),
		Token:      resp.Token,
		MoreComing: resp.MoreComing,
	}, nil
}

// FetchZoneChanges получает страницу изменений записей зоны
func (c *Client) FetchZoneChanges(ctx context.Context, zone models.ZoneID, since models.ChangeToken) (*remote.ZoneChanges, error) {
	req := api.ZoneChangesRequest{Token: since, Limit: c.pageLimit}
	var resp api.ZoneChangesResponse
	if err := c.doRequest(ctx, http.MethodPost, zonePath(zone, "changes"), req, &resp); err != nil {
		return nil, fmt.Errorf("fetch zone changes failed: %w", err)
	}

	changed := make([]models.Record, 0, len(resp.Changed))
	for _, rec := range resp.Changed {
		changed = append(changed, fromAPIRecord(rec))
	}

	return &remote.ZoneChanges{
		Changed:      changed,
		Deleted:      recordIDs(resp.Deleted),
		RecordErrors: recordErrors(resp.RecordErrors),
		Token:        resp.Token,
		MoreComing:   resp.MoreComing,
	}, nil
}

// ModifyRecords отправляет пакет сохранений и удалений
func (c *Client) ModifyRecords(ctx context.Context, req remote.ModifyRequest) (*remote.ModifyResult, error) {
	body := api.ModifyRequest{
		Policy: string(req.Policy),
		Save:   make([]api.Record, 0, len(req.Save)),
		Delete: make([]string, 0, len(req.Delete)),
	}
	for _, rec := range req.Save {
		body.Save = append(body.Save, toAPIRecord(rec))
	}
	for _, id := range req.Delete {
		body.Delete = append(body.Delete, string(id))
	}

	var resp api.ModifyResponse
	if err := c.doRequest(ctx, http.MethodPost, zonePath(req.Zone, "modify"), body, &resp); err != nil {
		return nil, fmt.Errorf("modify records failed: %w", err)
	}

	saved := make([]models.Record, 0, len(resp.Saved))
	for _, rec := range resp.Saved {
		saved = append(saved, fromAPIRecord(rec))
	}

	return &remote.ModifyResult{
		Saved:        saved,
		Deleted:      recordIDs(resp.Deleted),
		RecordErrors: recordErrors(resp.RecordErrors),
	}, nil
}

// CreateZone создает зону
func (c *Client) CreateZone(ctx context.Context, zone models.ZoneID) error {
	var resp api.ZoneResponse
	if err := c.doRequest(ctx, http.MethodPut, zonePath(zone, ""), nil, &resp); err != nil {
		return fmt.Errorf("create zone failed: %w", err)
	}
	return nil
}

// ZoneExists проверяет существование зоны
func (c *Client) ZoneExists(ctx context.Context, zone models.ZoneID) (bool, error) {
	var resp api.ZoneResponse
	return c.exists(ctx, zonePath(zone, ""), &resp)
}

// CreateSubscription регистрирует подписку на изменения зоны
func (c *Client) CreateSubscription(ctx context.Context, sub remote.Subscription) error {
	req := api.SubscriptionRequest{Zone: string(sub.Zone)}
	var resp api.SubscriptionResponse
	if err := c.doRequest(ctx, http.MethodPut, "/api/v1/subscriptions/"+url.PathEscape(sub.ID), req, &resp); err != nil {
		return fmt.Errorf("create subscription failed: %w", err)
	}
	return nil
}

// SubscriptionExists проверяет существование подписки
func (c *Client) SubscriptionExists(ctx context.Context, id string) (bool, error) {
	var resp api.SubscriptionResponse
	return c.exists(ctx, "/api/v1/subscriptions/"+url.PathEscape(id), &resp)
}

// exists: 404 означает отсутствие ресурса, а не ошибку
func (c *Client) exists(ctx context.Context, path string, result any) (bool, error) {
	err := c.doRequest(ctx, http.MethodGet, path, nil, result)
	switch {
	case err == nil:
		return true, nil
	case remote.HasCode(err, remote.CodeUnknownItem), remote.HasCode(err, remote.CodeZoneNotFound):
		return false, nil
	default:
		return false, fmt.Errorf("existence check %s failed: %w", path, err)
	}
}

// doRequest выполняет HTTP запрос. Все ошибки возвращаются как *remote.Error.
func (c *Client) doRequest(ctx context.Context, method, path string, body, result any) error {
	var bodyReader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return &remote.Error{Code: remote.CodeBadRequest, Message: "failed to marshal request body", Err: err}
		}
		bodyReader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return &remote.Error{Code: remote.CodeBadRequest, Message: "failed to create request", Err: err}
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set(api.HeaderClientVersion, Version)

	token, err := c.tokens.Token()
	if err != nil {
		return &remote.Error{Code: remote.CodeNotAuthenticated, Message: "no usable bearer token", Err: err}
	}
	req.Header.Set(api.HeaderAuthorization, "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Отмену вызывающей стороной не маскируем под сетевую ошибку
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return &remote.Error{Code: remote.CodeNetworkFailure, Err: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	// Читаем тело ответа
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return &remote.Error{Code: remote.CodeResponseLost, Message: "failed to read response body", Err: err}
	}

	// Проверяем статус код
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errorFromResponse(resp, respBody)
	}

	// Декодируем успешный ответ
	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return &remote.Error{Code: remote.CodeResponseLost, Message: "failed to decode response", Err: err}
		}
	}

	return nil
}

func zonePath(zone models.ZoneID, action string) string {
	p := "/api/v1/zones/" + url.PathEscape(string(zone))
	if action != "" {
		p += "/" + action
	}
	return p
}

// NotificationsURL адрес websocket потока push-уведомлений для baseURL
func NotificationsURL(baseURL string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid base url: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("unsupported url scheme %q", u.Scheme)
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/api/v1/notifications"
	return u.String(), nil
}
