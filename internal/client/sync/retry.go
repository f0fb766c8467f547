package sync

import (
	"context"
	"log/slog"
	"time"

	"github.com/sethvargo/go-retry"
)

// RetryPolicy задаёт резервный backoff для временных ошибок без указанной хранилищем задержки
type RetryPolicy struct {
	// BaseDelay первая задержка; далее удваивается
	BaseDelay time.Duration
	// MaxDelay верхняя граница резервной задержки
	MaxDelay time.Duration
	// MaxAttempts ограничение числа попыток; 0 означает "пока не отменят"
	MaxAttempts int
}

// DefaultRetryPolicy returns the policy used when none is configured.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		BaseDelay: time.Second,
		MaxDelay:  5 * time.Minute,
	}
}

func (p RetryPolicy) backoff() retry.Backoff {
	base := p.BaseDelay
	if base <= 0 {
		base = time.Second
	}
	b := retry.NewExponential(base)
	if p.MaxDelay > 0 {
		b = retry.WithCappedDuration(p.MaxDelay, b)
	}
	return b
}

// Attempt одна повторяемая операция: что выполнить, сколько ждать перед следующей попыткой
// и сколько попыток осталось (-1 без ограничения)
type Attempt struct {
	Operation func(ctx context.Context) error
	Name      string
	Delay     time.Duration
	Remaining int
	Tries     int
}

// retrier выполняет Attempt в цикле: операция повторяется, пока классификатор
// считает ошибку временной, ожидание идёт по таймеру и прерывается отменой ctx.
type retrier struct {
	logger *slog.Logger
	policy RetryPolicy
}

func newRetrier(policy RetryPolicy, logger *slog.Logger) *retrier {
	return &retrier{policy: policy, logger: logger}
}

// do выполняет op до успеха, невременной ошибки или отмены ctx
func (r *retrier) do(ctx context.Context, name string, op func(ctx context.Context) error) error {
	a := Attempt{Name: name, Operation: op, Remaining: -1}
	if r.policy.MaxAttempts > 0 {
		a.Remaining = r.policy.MaxAttempts - 1
	}
	return r.run(ctx, &a)
}

func (r *retrier) run(ctx context.Context, a *Attempt) error {
	backoff := r.policy.backoff()

	for {
		err := a.Operation(ctx)
		a.Tries++
		if err == nil {
			return nil
		}

		d := Classify(err)
		if !d.Retryable() || a.Remaining == 0 {
			return err
		}
		if a.Remaining > 0 {
			a.Remaining--
		}

		a.Delay = d.Delay
		if a.Delay <= 0 {
			a.Delay, _ = backoff.Next()
		}

		r.logger.Warn("Remote operation failed, retrying",
			"operation", a.Name,
			"attempt", a.Tries,
			"delay", a.Delay,
			"error", err,
		)

		if err := sleep(ctx, a.Delay); err != nil {
			return err
		}
	}
}

// sleep ждёт d или отмены ctx
func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
