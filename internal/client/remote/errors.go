package remote

import (
	"errors"
	"fmt"
	"time"

	"github.com/iudanet/zonesync/internal/models"
)

// ErrorCode identifies a remote store failure condition.
// Codes are strings so they survive JSON transport unchanged.
type ErrorCode string

const (
	// Transient errors.

	// CodeNetworkUnavailable indicates there is no network path to the store.
	CodeNetworkUnavailable ErrorCode = "NETWORK_UNAVAILABLE"

	// CodeNetworkFailure indicates the request failed in transit.
	CodeNetworkFailure ErrorCode = "NETWORK_FAILURE"

	// CodeResponseLost indicates the request may have been applied but the response was lost.
	CodeResponseLost ErrorCode = "RESPONSE_LOST"

	// CodeServiceUnavailable indicates the store is temporarily down.
	CodeServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"

	// CodeRateLimited indicates the client must back off.
	CodeRateLimited ErrorCode = "REQUEST_RATE_LIMITED"

	// CodeZoneBusy indicates the zone is temporarily locked by other writers.
	CodeZoneBusy ErrorCode = "ZONE_BUSY"

	// Scope errors.

	// CodeChangeTokenExpired indicates the supplied change token is no longer valid.
	CodeChangeTokenExpired ErrorCode = "CHANGE_TOKEN_EXPIRED"

	// CodeLimitExceeded indicates the batch is too large for a single request.
	CodeLimitExceeded ErrorCode = "LIMIT_EXCEEDED"

	// CodeServerRecordChanged indicates the record was modified remotely (write conflict).
	CodeServerRecordChanged ErrorCode = "SERVER_RECORD_CHANGED"

	// CodeAlreadyExists indicates the resource already exists.
	CodeAlreadyExists ErrorCode = "ALREADY_EXISTS"

	// CodeUnknownItem indicates the referenced record or subscription does not exist.
	CodeUnknownItem ErrorCode = "UNKNOWN_ITEM"

	// Permanent errors.

	// CodeZoneNotFound indicates the zone does not exist.
	CodeZoneNotFound ErrorCode = "ZONE_NOT_FOUND"

	// CodeUserDeletedZone indicates the user removed the zone from another client.
	CodeUserDeletedZone ErrorCode = "USER_DELETED_ZONE"

	// CodeNotAuthenticated indicates missing or expired credentials.
	CodeNotAuthenticated ErrorCode = "NOT_AUTHENTICATED"

	// CodePermissionFailure indicates the account is restricted.
	CodePermissionFailure ErrorCode = "PERMISSION_FAILURE"

	// CodeQuotaExceeded indicates the account storage quota is exhausted.
	CodeQuotaExceeded ErrorCode = "QUOTA_EXCEEDED"

	// CodeIncompatibleVersion indicates the client protocol version is no longer accepted.
	CodeIncompatibleVersion ErrorCode = "INCOMPATIBLE_VERSION"

	// Generic errors.

	// CodeBadRequest indicates the store rejected the request as malformed.
	CodeBadRequest ErrorCode = "BAD_REQUEST"

	// CodeInternal indicates a store-side failure.
	CodeInternal ErrorCode = "INTERNAL_ERROR"

	// CodeUnknown indicates an unclassified failure.
	CodeUnknown ErrorCode = "UNKNOWN"
)

// Error is a failure reported by the remote store.
type Error struct {
	// ServerRecord is the server's current version for CodeServerRecordChanged.
	ServerRecord *models.Record

	// Err is an optional underlying cause (transport error and similar).
	Err error

	Code    ErrorCode
	Message string

	// RetryAfter is the store-directed backoff. Zero means not specified.
	RetryAfter time.Duration
}

// NewError creates a remote error with the given code and message.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := string(e.Code)
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.RetryAfter > 0 {
		msg += fmt.Sprintf(" (retry after %s)", e.RetryAfter)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches remote errors by code, so errors.Is(err, remote.NewError(CodeZoneNotFound, "")) works.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// WithRetryAfter returns a copy of the error carrying a retry delay.
func (e *Error) WithRetryAfter(d time.Duration) *Error {
	cp := *e
	cp.RetryAfter = d
	return &cp
}

// Conflict creates a write-conflict error carrying the server's version of the record.
func Conflict(server models.Record) *Error {
	rec := server.Clone()
	return &Error{
		Code:         CodeServerRecordChanged,
		Message:      fmt.Sprintf("record %s was modified remotely", server.ID),
		ServerRecord: &rec,
	}
}

// CodeOf extracts the error code, or CodeUnknown for non-remote errors.
func CodeOf(err error) ErrorCode {
	var rerr *Error
	if errors.As(err, &rerr) {
		return rerr.Code
	}
	return CodeUnknown
}

// HasCode reports whether err is a remote error with the given code.
func HasCode(err error, code ErrorCode) bool {
	var rerr *Error
	return errors.As(err, &rerr) && rerr.Code == code
}
