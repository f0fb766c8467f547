package sync

import (
	"context"
	"errors"
	"time"

	"github.com/iudanet/zonesync/internal/client/remote"
)

// Kind класс ошибки с точки зрения движка синхронизации
type Kind int

const (
	// KindNone нет ошибки
	KindNone Kind = iota
	// KindRetryable временная ошибка: повторить ту же операцию после задержки
	KindRetryable
	// KindTokenExpired токен изменений устарел: сбросить токен области и повторить выборку
	KindTokenExpired
	// KindBatchTooLarge пакет слишком велик: разделить пополам
	KindBatchTooLarge
	// KindConflict конфликт записи: разрешить локально
	KindConflict
	// KindZoneDeleted зона удалена: постоянная ошибка
	KindZoneDeleted
	// KindAccount проблема учётной записи: постоянная ошибка
	KindAccount
	// KindCancelled операция отменена вызывающей стороной
	KindCancelled
	// KindUnclassified прочие ошибки: без повторов
	KindUnclassified
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindRetryable:
		return "retryable"
	case KindTokenExpired:
		return "token_expired"
	case KindBatchTooLarge:
		return "batch_too_large"
	case KindConflict:
		return "conflict"
	case KindZoneDeleted:
		return "zone_deleted"
	case KindAccount:
		return "account"
	case KindCancelled:
		return "cancelled"
	default:
		return "unclassified"
	}
}

// Directive решение классификатора: класс ошибки и рекомендуемая задержка
type Directive struct {
	Kind Kind
	// Delay задержка, указанная хранилищем. Ноль означает "использовать резервный backoff".
	Delay time.Duration
}

// Retryable сообщает, что операцию нужно повторить без изменений
func (d Directive) Retryable() bool {
	return d.Kind == KindRetryable
}

// Permanent сообщает, что ошибка останавливает синхронизацию до вмешательства пользователя
func (d Directive) Permanent() bool {
	return d.Kind == KindZoneDeleted || d.Kind == KindAccount
}

// Classify maps an error returned by a remote call into a retry directive.
// It is a pure function of the error value.
func Classify(err error) Directive {
	if err == nil {
		return Directive{Kind: KindNone}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return Directive{Kind: KindCancelled}
	}

	var fault *FaultError
	if errors.As(err, &fault) {
		return Directive{Kind: fault.Kind}
	}

	var rerr *remote.Error
	if !errors.As(err, &rerr) {
		return Directive{Kind: KindUnclassified}
	}

	switch rerr.Code {
	case remote.CodeNetworkUnavailable,
		remote.CodeNetworkFailure,
		remote.CodeServiceUnavailable,
		remote.CodeRateLimited,
		remote.CodeZoneBusy,
		remote.CodeResponseLost:
		return Directive{Kind: KindRetryable, Delay: rerr.RetryAfter}
	case remote.CodeChangeTokenExpired:
		return Directive{Kind: KindTokenExpired}
	case remote.CodeLimitExceeded:
		return Directive{Kind: KindBatchTooLarge}
	case remote.CodeServerRecordChanged:
		return Directive{Kind: KindConflict}
	case remote.CodeZoneNotFound, remote.CodeUserDeletedZone:
		return Directive{Kind: KindZoneDeleted}
	case remote.CodeNotAuthenticated,
		remote.CodePermissionFailure,
		remote.CodeQuotaExceeded,
		remote.CodeIncompatibleVersion:
		return Directive{Kind: KindAccount}
	default:
		return Directive{Kind: KindUnclassified}
	}
}
