package xretry

import (
	"context"
	"math"
	"time"

	retry "github.com/avast/retry-go/v5"
)

// Retryer 重试执行器，可并发使用。
type Retryer struct {
	attempts int
	backoff  BackoffPolicy
	retryIf  func(error) bool
	onRetry  func(attempt int, err error)
}

type RetryerOption func(*Retryer)

// WithAttempts 设置总尝试次数（含首次），0 表示直到成功或 ctx 取消，负数忽略。
func WithAttempts(n int) RetryerOption {
	return func(r *Retryer) {
		if n >= 0 {
			r.attempts = n
		}
	}
}

func WithBackoff(b BackoffPolicy) RetryerOption {
	return func(r *Retryer) {
		if b != nil {
			r.backoff = b
		}
	}
}

// WithRetryIf 设置额外的重试条件，Permanent 错误始终不重试。
func WithRetryIf(f func(error) bool) RetryerOption {
	return func(r *Retryer) {
		if f != nil {
			r.retryIf = f
		}
	}
}

// WithOnRetry 每次失败后、等待前回调，attempt 从 1 开始。
func WithOnRetry(f func(attempt int, err error)) RetryerOption {
	return func(r *Retryer) {
		if f != nil {
			r.onRetry = f
		}
	}
}

// NewRetryer 默认 3 次尝试、指数退避。
func NewRetryer(opts ...RetryerOption) *Retryer {
	r := &Retryer{attempts: 3, backoff: NewExponentialBackoff()}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// Do 执行 fn 直到成功、次数耗尽、遇到 Permanent 错误或 ctx 取消，返回最后一个错误。
func (r *Retryer) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if r == nil {
		return ErrNilRetryer
	}
	if ctx == nil {
		return ErrNilContext
	}
	if fn == nil {
		return ErrNilFunc
	}
	return retry.New(r.options(ctx)...).Do(func() error {
		return fn(ctx)
	})
}

// DoWithResult 同 Do，带返回值。
func DoWithResult[T any](ctx context.Context, r *Retryer, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	switch {
	case r == nil:
		return zero, ErrNilRetryer
	case ctx == nil:
		return zero, ErrNilContext
	case fn == nil:
		return zero, ErrNilFunc
	}
	return retry.NewWithData[T](r.options(ctx)...).Do(func() (T, error) {
		return fn(ctx)
	})
}

func (r *Retryer) options(ctx context.Context) []retry.Option {
	opts := make([]retry.Option, 0, 6)
	opts = append(opts, retry.Context(ctx), retry.LastErrorOnly(true))
	if r.attempts == 0 {
		opts = append(opts, retry.UntilSucceeded())
	} else {
		opts = append(opts, retry.Attempts(uint(r.attempts))) //nolint:gosec // attempts >= 0
	}

	retryIf := r.retryIf
	opts = append(opts, retry.RetryIf(func(err error) bool {
		if !retry.IsRecoverable(err) {
			return false
		}
		return retryIf == nil || retryIf(err)
	}))

	backoff := r.backoff
	// retry-go v5 的 DelayType n 从 1 开始
	opts = append(opts, retry.DelayType(func(n uint, _ error, _ retry.DelayContext) time.Duration {
		return backoff.NextDelay(clampInt(n))
	}))

	if r.onRetry != nil {
		onRetry := r.onRetry
		// OnRetry 的 n 从 0 开始
		opts = append(opts, retry.OnRetry(func(n uint, err error) {
			onRetry(clampInt(n)+1, err)
		}))
	}
	return opts
}

func clampInt(n uint) int {
	if n > uint(math.MaxInt-1) {
		return math.MaxInt - 1
	}
	return int(n)
}
