package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/iudanet/zonesync/internal/client/remote"
	"github.com/iudanet/zonesync/internal/models"
	"github.com/iudanet/zonesync/pkg/api"
)

func toAPIRecord(r models.Record) api.Record {
	return api.Record{
		ID:             string(r.ID),
		Type:           r.Type,
		Fields:         r.Fields,
		SystemMetadata: r.SystemMetadata,
		ChangedKeys:    r.ChangedKeys,
	}
}

func fromAPIRecord(r api.Record) models.Record {
	fields := r.Fields
	if fields == nil {
		fields = make(map[string]json.RawMessage)
	}
	return models.Record{
		ID:             models.RecordID(r.ID),
		Type:           r.Type,
		Fields:         fields,
		SystemMetadata: r.SystemMetadata,
	}
}

func zoneIDs(in []string) []models.ZoneID {
	out := make([]models.ZoneID, 0, len(in))
	for _, s := range in {
		out = append(out, models.ZoneID(s))
	}
	return out
}

func recordIDs(in []string) []models.RecordID {
	out := make([]models.RecordID, 0, len(in))
	for _, s := range in {
		out = append(out, models.RecordID(s))
	}
	return out
}

func recordErrors(in map[string]api.ErrorResponse) map[models.RecordID]error {
	if len(in) == 0 {
		return nil
	}
	out := make(map[models.RecordID]error, len(in))
	for id, e := range in {
		out[models.RecordID(id)] = fromErrorResponse(e, remote.CodeUnknown)
	}
	return out
}

func fromErrorResponse(e api.ErrorResponse, fallback remote.ErrorCode) *remote.Error {
	code := remote.ErrorCode(e.Code)
	if code == "" {
		code = fallback
	}
	rerr := &remote.Error{Code: code, Message: e.Message}
	if e.RetryAfterSeconds > 0 {
		rerr.RetryAfter = time.Duration(e.RetryAfterSeconds) * time.Second
	}
	if e.ServerRecord != nil {
		rec := fromAPIRecord(*e.ServerRecord)
		rerr.ServerRecord = &rec
	}
	return rerr
}

// errorFromResponse переводит неуспешный HTTP ответ в ошибку хранилища.
// Код из тела ответа имеет приоритет над кодом статуса.
func errorFromResponse(resp *http.Response, body []byte) *remote.Error {
	fallback := codeForStatus(resp.StatusCode)

	var errResp api.ErrorResponse
	if err := json.Unmarshal(body, &errResp); err != nil || errResp.Code == "" {
		errResp = api.ErrorResponse{
			Message: strings.TrimSpace(string(body)),
		}
		if errResp.Message == "" {
			errResp.Message = http.StatusText(resp.StatusCode)
		}
	}

	rerr := fromErrorResponse(errResp, fallback)
	if rerr.RetryAfter == 0 {
		rerr.RetryAfter = parseRetryAfter(resp.Header.Get(api.HeaderRetryAfter), time.Now())
	}
	return rerr
}

func codeForStatus(status int) remote.ErrorCode {
	switch status {
	case http.StatusUnauthorized:
		return remote.CodeNotAuthenticated
	case http.StatusForbidden:
		return remote.CodePermissionFailure
	case http.StatusNotFound:
		return remote.CodeUnknownItem
	case http.StatusConflict:
		return remote.CodeAlreadyExists
	case http.StatusRequestEntityTooLarge:
		return remote.CodeLimitExceeded
	case http.StatusUpgradeRequired:
		return remote.CodeIncompatibleVersion
	case http.StatusTooManyRequests:
		return remote.CodeRateLimited
	case http.StatusInsufficientStorage:
		return remote.CodeQuotaExceeded
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return remote.CodeServiceUnavailable
	}
	if status >= 500 {
		return remote.CodeInternal
	}
	return remote.CodeBadRequest
}

// parseRetryAfter разбирает Retry-After: число секунд или HTTP дата
func parseRetryAfter(v string, now time.Time) time.Duration {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil {
		if secs <= 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(v); err == nil {
		if d := at.Sub(now); d > 0 {
			return d
		}
	}
	return 0
}
