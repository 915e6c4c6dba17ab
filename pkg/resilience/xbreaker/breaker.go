package xbreaker

import (
	"context"
	"time"

	"github.com/sony/gobreaker/v2"
)

// Breaker 熔断器，可并发使用。
type Breaker struct {
	name string
	cb   *gobreaker.CircuitBreaker[any]
}

type options struct {
	trip          TripPolicy
	timeout       time.Duration
	interval      time.Duration
	maxRequests   uint32
	isSuccessful  func(error) bool
	onStateChange func(name string, from, to State)
}

type Option func(*options)

// WithTripPolicy 默认 ConsecutiveFailures(5)
func WithTripPolicy(p TripPolicy) Option {
	return func(o *options) {
		if p != nil {
			o.trip = p
		}
	}
}

// WithTimeout Open 转 HalfOpen 的等待时间，默认 30s
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithInterval Closed 状态下清零计数的周期，0 表示不清零
func WithInterval(d time.Duration) Option {
	return func(o *options) {
		if d >= 0 {
			o.interval = d
		}
	}
}

// WithMaxRequests HalfOpen 允许通过的探测请求数，默认 1
func WithMaxRequests(n uint32) Option {
	return func(o *options) {
		if n > 0 {
			o.maxRequests = n
		}
	}
}

// WithIsSuccessful 自定义成功判定，如把 context.Canceled 计为成功。
func WithIsSuccessful(f func(error) bool) Option {
	return func(o *options) {
		o.isSuccessful = f
	}
}

func WithOnStateChange(f func(name string, from, to State)) Option {
	return func(o *options) {
		o.onStateChange = f
	}
}

// New 创建熔断器
func New(name string, opts ...Option) *Breaker {
	o := options{trip: ConsecutiveFailures(5), timeout: 30 * time.Second, maxRequests: 1}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	st := gobreaker.Settings{
		Name:         name,
		MaxRequests:  o.maxRequests,
		Interval:     o.interval,
		Timeout:      o.timeout,
		ReadyToTrip:  o.trip.ReadyToTrip,
		IsSuccessful: o.isSuccessful,
	}
	if o.onStateChange != nil {
		st.OnStateChange = o.onStateChange
	}
	return &Breaker{name: name, cb: gobreaker.NewCircuitBreaker[any](st)}
}

// Do 在熔断器保护下执行 fn。ctx 已取消时不执行。
func (b *Breaker) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	_, err := Execute(ctx, b, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// Execute 泛型版本的 Do。
func Execute[T any](ctx context.Context, b *Breaker, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	if ctx == nil {
		return zero, ErrNilContext
	}
	if fn == nil {
		return zero, ErrNilFunc
	}
	if err := ctx.Err(); err != nil {
		return zero, err
	}
	res, err := b.cb.Execute(func() (any, error) {
		return fn(ctx)
	})
	if err != nil {
		return zero, wrap(err, b.name)
	}
	v, _ := res.(T)
	return v, nil
}

func (b *Breaker) Name() string   { return b.name }
func (b *Breaker) State() State   { return b.cb.State() }
func (b *Breaker) Counts() Counts { return b.cb.Counts() }
